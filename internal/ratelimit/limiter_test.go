package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/NickFlach/pitchfork-echo-studio-sub004/internal/metrics"
)

func newFrozenLimiter(rps float64, burst int) (*Limiter, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(rps, burst)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowPerClientAndGlobal(t *testing.T) {
	l, now := newFrozenLimiter(1, 2)

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"), "per-client burst exhausted")
	assert.False(t, l.Allow("10.0.0.2"), "global burst exhausted")

	*now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.2"))
	assert.Equal(t, 2, l.Clients())
}

func TestCleanupDropsIdleClients(t *testing.T) {
	l, now := newFrozenLimiter(1000, 1000)

	l.Allow("stale")
	*now = now.Add(2 * clientIdleTTL)
	l.perIP["fresh"] = &clientLimiter{lastSeen: *now}

	l.mu.Lock()
	l.cleanupLocked(now.Add(-clientIdleTTL))
	l.mu.Unlock()

	_, staleKept := l.perIP["stale"]
	_, freshKept := l.perIP["fresh"]
	assert.False(t, staleKept)
	assert.True(t, freshKept)
}

func TestMiddleware(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	l, _ := newFrozenLimiter(1, 1)
	handler := l.Middleware(m, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/app.js", nil)
		req.RemoteAddr = "192.0.2.10:4242"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLimitDropped))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "forwarded chain", forwarded: "203.0.113.7, 10.0.0.1", remoteAddr: "10.0.0.1:80", want: "203.0.113.7"},
		{name: "ipv6", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "no port", remoteAddr: "192.0.2.5", want: "192.0.2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
