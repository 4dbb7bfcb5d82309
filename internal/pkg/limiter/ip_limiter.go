/*
Package limiter provides rate limiting keyed by client IP address.

It uses the Token Bucket algorithm (rate.Limiter) to bound how often a single address may open
chat connections, over raw TCP or the WebSocket gateway, and runs a cleanup goroutine that
drops idle limiters until its context is cancelled.
*/
package limiter

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/resp"

	"golang.org/x/time/rate"
)

// cleanupInterval is how often idle limiters are swept.
const cleanupInterval = 3 * time.Minute

// IPRateLimiter implements a rate limiter keyed by client IP address.
type IPRateLimiter struct {
	// mu is used to protect concurrent access to the limits map.
	mu sync.RWMutex

	// limits stores the map from client IP address to the *rate.Limiter instance.
	limits map[string]*rate.Limiter

	// r is the number of events allowed per second.
	r rate.Limit

	// b is the burst size (token bucket size).
	b int
}

// NewIPRateLimiter creates a new IPRateLimiter with rate r and burst b.
// The background cleanup goroutine exits when ctx is cancelled.
func NewIPRateLimiter(ctx context.Context, r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go i.cleanUpVisitors(ctx)

	return i
}

// GetLimiter retrieves the rate limiter for the given IP address, creating it on first use.
// It uses double-checked locking to create new limiters safely.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()

	if !exists {
		i.mu.Lock()
		limiter, exists = i.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(i.r, i.b)
			i.limits[ip] = limiter
		}
		i.mu.Unlock()
	}

	return limiter
}

// Allow reports whether one more event from addr (an IP or host:port) is permitted now.
func (i *IPRateLimiter) Allow(addr string) bool {
	return i.GetLimiter(HostOf(addr)).Allow()
}

// Len returns the number of tracked addresses.
func (i *IPRateLimiter) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.limits)
}

// HostOf strips the port from a host:port address.
func HostOf(addr string) string {
	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		ip = addr
	}

	if ip == "" {
		ip = "unknown_ip"
	}
	return ip
}

// sweep removes limiters whose bucket is full, meaning the address has been idle long enough
// for its limiter to be indistinguishable from a fresh one.
func (i *IPRateLimiter) sweep(now time.Time) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	count := 0
	for ip, limiter := range i.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(i.limits, ip)
			count++
		}
	}
	return count
}

func (i *IPRateLimiter) cleanUpVisitors(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := i.sweep(now)
			logx.Info("Rate limiter cleanup finished", "removed", removed, "remaining", i.Len())
		}
	}
}

// Middleware returns an HTTP middleware that rejects requests over the limit with 429.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.Allow(r.RemoteAddr) {
			logx.Warn("Request rejected: rate limit exceeded.", "remote_ip", logx.AnonymizeAddr(r.RemoteAddr))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
