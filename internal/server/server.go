package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NickFlach/pitchfork-echo-studio-sub004/internal/assets"
	"github.com/NickFlach/pitchfork-echo-studio-sub004/internal/auth"
	"github.com/NickFlach/pitchfork-echo-studio-sub004/internal/httpx"
	"github.com/NickFlach/pitchfork-echo-studio-sub004/internal/metrics"
	"github.com/NickFlach/pitchfork-echo-studio-sub004/internal/ratelimit"
	"github.com/NickFlach/pitchfork-echo-studio-sub004/internal/spa"
	"github.com/NickFlach/pitchfork-echo-studio-sub004/pkg/config"
)

// Server wires the asset handler, operational endpoints and middleware into
// an http.Server.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	store   *assets.DirStore
	cache   *assets.Cache
	watcher *assets.Watcher
	handler http.Handler

	closeOnce sync.Once
}

func New(cfg *config.Config, logger *slog.Logger, registry *prometheus.Registry) (*Server, error) {
	store, err := assets.OpenDir(cfg.Assets.Root)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics.New(registry),
		store:    store,
	}

	var source assets.Store = store
	if cfg.Assets.CacheMaxBytes > 0 {
		s.cache = assets.NewCache(store, cfg.Assets.CacheMaxBytes, s.metrics)
		source = s.cache
	}

	switch {
	case cfg.Assets.Watch && s.cache != nil:
		s.watcher, err = assets.NewWatcher(cfg.Assets.Root, s.cache, logger)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("watch asset root: %w", err)
		}
	case cfg.Assets.Watch:
		logger.Info("asset watch ignored, content cache is disabled")
	}

	if _, err := assets.StatRegular(store, cfg.Assets.Entry); err != nil {
		logger.Warn("entry document not found, readiness will fail until it appears",
			"root", cfg.Assets.Root,
			"entry", cfg.Assets.Entry,
			"error", err,
		)
	}

	s.handler = s.routes(spa.NewHandler(source, cfg.Assets.Entry, logger, s.metrics))
	return s, nil
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// routes dispatches on the raw request path. Operational endpoints match
// exactly; every other path goes to the asset handler uncleaned, so unclean
// and traversal paths resolve to the entry document instead of a redirect.
func (s *Server) routes(assetHandler http.Handler) http.Handler {
	endpoints := map[string]http.Handler{
		// Health endpoints are intentionally unauthenticated for probes.
		"/healthz": http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		}),
		"/readyz": http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if _, err := assets.StatRegular(s.store, s.cfg.Assets.Entry); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
		}),
	}
	if s.cfg.Metrics.Enabled {
		var metricsHandler http.Handler = promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
		endpoints["/metrics"] = auth.Middleware(s.cfg.Metrics.BearerToken, s.metrics, metricsHandler)
	}

	if s.cfg.Compression.Enabled {
		assetHandler = httpx.Compression(assetHandler)
	}
	if s.cfg.RateLimit.Enabled {
		limiter := ratelimit.New(s.cfg.RateLimit.RPS, s.cfg.RateLimit.Burst)
		assetHandler = limiter.Middleware(s.metrics, assetHandler)
	}
	// Rejections from the limiter carry CORS headers as well.
	assetHandler = httpx.CORS(s.cfg.CORS.AllowedOrigins, assetHandler)
	assetHandler = httpx.WithTimeout(s.cfg.Server.RequestTimeout, assetHandler)

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if endpoint, ok := endpoints[r.URL.Path]; ok {
			endpoint.ServeHTTP(w, r)
			return
		}
		assetHandler.ServeHTTP(w, r)
	})
	handler = s.metrics.Middleware(handler)
	handler = httpx.WithRecovery(s.logger, handler)
	handler = httpx.WithRequestID(handler)
	handler = httpx.WithLogging(s.logger, handler)

	return handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Address(), err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener. The server is closed when it returns.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	defer s.Close()

	if s.watcher != nil {
		s.watcher.Start(ctx)
	}

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("asset server started",
			"addr", listener.Addr().String(),
			"root", s.cfg.Assets.Root,
			"entry", s.cfg.Assets.Entry,
		)
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-serveErr

	s.logger.Info("server stopped gracefully")
	return nil
}

// Close releases the asset root and stops the watcher. Safe to call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		if s.watcher != nil {
			if err := s.watcher.Close(); err != nil {
				s.logger.Warn("failed to close asset watcher", "error", err)
			}
		}
		if err := s.store.Close(); err != nil {
			s.logger.Warn("failed to close asset root", "error", err)
		}
	})
}
