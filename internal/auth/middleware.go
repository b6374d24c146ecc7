package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/NickFlach/pitchfork-echo-studio-sub004/internal/metrics"
)

// Middleware validates a bearer token. An empty token disables the check.
func Middleware(bearerToken string, m *metrics.Metrics, next http.Handler) http.Handler {
	if bearerToken == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			reject(w, m)
			return
		}

		token = strings.TrimSpace(token)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(bearerToken)) != 1 {
			reject(w, m)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func reject(w http.ResponseWriter, m *metrics.Metrics) {
	m.AuthFailures.Inc()
	w.Header().Set("WWW-Authenticate", `Bearer realm="metrics"`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
