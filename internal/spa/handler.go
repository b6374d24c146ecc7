// Package spa serves a pre-built single-page application. Any path that does
// not name a regular file inside the asset root is answered with the entry
// document (status 200, not a redirect) so the client-side router can
// interpret it.
package spa

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/NickFlach/pitchfork-echo-studio-sub004/internal/assets"
	"github.com/NickFlach/pitchfork-echo-studio-sub004/internal/httpx"
	"github.com/NickFlach/pitchfork-echo-studio-sub004/internal/metrics"
)

const outcomeError = "error"

// Handler is the StaticAssetServer request handler. It holds no per-request state.
type Handler struct {
	store    assets.Store
	resolver *assets.Resolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewHandler(store assets.Store, entry string, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		store:    store,
		resolver: assets.NewResolver(store, entry),
		logger:   logger,
		metrics:  metrics,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	res := h.resolver.Resolve(r.URL.Path)
	h.logResolution(r, res)

	data, err := h.store.ReadFile(res.Name)
	if err != nil {
		h.metrics.Resolutions.WithLabelValues(outcomeError).Inc()
		h.metrics.ReadFailures.Inc()
		h.logger.Error("failed to read asset",
			"error", err,
			"path", r.URL.Path,
			"file", res.Name,
			"request_id", httpx.RequestID(r),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.metrics.Resolutions.WithLabelValues(string(res.Outcome)).Inc()

	header := w.Header()
	header.Set("Content-Type", res.ContentType)
	header.Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}

func (h *Handler) logResolution(r *http.Request, res assets.Resolution) {
	switch {
	case res.Outcome == assets.OutcomeTraversal:
		h.logger.Warn("rejected path outside asset root",
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"request_id", httpx.RequestID(r),
		)
	case res.Cause != nil && !errors.Is(res.Cause, assets.ErrNotRegular):
		h.logger.Debug("serving entry document",
			"path", r.URL.Path,
			"cause", res.Cause,
		)
	}
}
