package web

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// rateLimiter allows a fixed number of requests per client IP per window.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	rate    int
	period  time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

type window struct {
	start time.Time
	used  int
}

func newRateLimiter(rate int, period time.Duration) *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string]*window),
		rate:    rate,
		period:  period,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// take consumes one request for client. When the budget is spent it
// returns false and how long until the window resets.
func (rl *rateLimiter) take(client string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[client]
	if !ok || now.Sub(w.start) >= rl.period {
		rl.clients[client] = &window{start: now, used: 1}
		return true, 0
	}
	if w.used >= rl.rate {
		return false, w.start.Add(rl.period).Sub(now)
	}
	w.used++
	return true, 0
}

// sweep drops idle clients once per period until stop is called.
func (rl *rateLimiter) sweep() {
	ticker := time.NewTicker(rl.period)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
		}
		rl.mu.Lock()
		now := rl.now()
		for client, w := range rl.clients {
			if now.Sub(w.start) > 2*rl.period {
				delete(rl.clients, client)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.take(clientKey(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller for rate limiting. The limiter runs ahead
// of authentication, so request headers are never trusted here. RemoteAddr
// has already been rewritten by TrustedRealIP for trusted proxies.
func clientKey(r *http.Request) string {
	return "ip:" + clientIP(r)
}
