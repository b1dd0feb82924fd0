package daemon

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
)

// rateLimiter limits requests per client address
type rateLimiter struct {
	limiter ratelimit.RateLimiter
	rate    int
}

func newRateLimiter(perSecond int) *rateLimiter {
	return &rateLimiter{
		limiter: ratelimit.New(&ratelimit.Config{
			Rate:     perSecond,
			Burst:    perSecond * 2,
			Interval: time.Second,
		}),
		rate: perSecond,
	}
}

// middleware rejects clients over their budget with 429
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter.Allow(r.Context(), clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.rate))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded","status":429}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *rateLimiter) Close() {
	_ = rl.limiter.Close()
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
