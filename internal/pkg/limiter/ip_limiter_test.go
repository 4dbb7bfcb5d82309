package limiter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestLimiter(t *testing.T, r rate.Limit, b int) *IPRateLimiter {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewIPRateLimiter(ctx, r, b)
}

func TestAllowPerAddress(t *testing.T) {
	l := newTestLimiter(t, rate.Limit(0.001), 2)

	assert.True(t, l.Allow("10.0.0.1:1000"))
	assert.True(t, l.Allow("10.0.0.1:1001"))
	assert.False(t, l.Allow("10.0.0.1:1002"), "third attempt from same host must be limited")

	assert.True(t, l.Allow("10.0.0.2:1000"), "other hosts have their own bucket")
	assert.Equal(t, 2, l.Len())
}

func TestGetLimiterReturnsSameInstance(t *testing.T) {
	l := newTestLimiter(t, rate.Limit(1), 1)
	assert.Same(t, l.GetLimiter("10.0.0.9"), l.GetLimiter("10.0.0.9"))
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "10.0.0.1", HostOf("10.0.0.1:55"))
	assert.Equal(t, "10.0.0.1", HostOf("10.0.0.1"))
	assert.Equal(t, "::1", HostOf("[::1]:80"))
	assert.Equal(t, "unknown_ip", HostOf(""))
}

func TestSweepRemovesIdleLimiters(t *testing.T) {
	l := newTestLimiter(t, rate.Limit(1), 1)

	require.True(t, l.Allow("10.0.0.1:1"))
	l.GetLimiter("10.0.0.2")

	// 10.0.0.2 never spent a token; 10.0.0.1 is empty right now.
	removed := l.sweep(time.Now())
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, l.Len())

	removed = l.sweep(time.Now().Add(time.Minute))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, l.Len())
}

func TestMiddleware(t *testing.T) {
	l := newTestLimiter(t, rate.Limit(0.001), 1)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.RemoteAddr = "192.0.2.7:4242"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}
