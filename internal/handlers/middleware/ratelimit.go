package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/remnant-dksh/origin-engine/internal/handlers/render"
)

// RateLimit describes one limiter tier: at most Requests per Window per
// client IP. With SkipSuccessful set, requests answered below 400 refund
// their slot, so only failures count toward the limit.
type RateLimit struct {
	Requests       int
	Window         time.Duration
	SkipSuccessful bool
	Message        string
}

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Buckets hold Requests
// tokens and refill evenly over Window; stale entries are swept inline, so
// the map stays bounded without a background goroutine.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time

	limit          rate.Limit
	burst          int
	window         time.Duration
	skipSuccessful bool
	message        string
}

func NewRateLimiter(cfg RateLimit) *RateLimiter {
	message := cfg.Message
	if message == "" {
		message = "Too many requests from this IP, please try again later."
	}

	return &RateLimiter{
		visitors:       make(map[string]*visitor),
		lastSweep:      time.Now(),
		limit:          rate.Every(cfg.Window / time.Duration(cfg.Requests)),
		burst:          cfg.Requests,
		window:         cfg.Window,
		skipSuccessful: cfg.SkipSuccessful,
		message:        message,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := rl.reserve(clientIP(r))
		if res == nil {
			render.Error(w, rl.message, http.StatusTooManyRequests)
			return
		}

		if !rl.skipSuccessful {
			next.ServeHTTP(w, r)
			return
		}

		// Watch the response status so successful requests can give their
		// slot back: only failed attempts count toward this tier
		lw := &logWriter{ResponseWriter: w, data: logData{responseStatus: http.StatusOK}}
		next.ServeHTTP(lw, r)

		if lw.data.responseStatus < http.StatusBadRequest {
			res.Cancel()
		}
	})
}

// reserve takes one slot for the IP; nil means the tier limit is exhausted
func (rl *RateLimiter) reserve(ip string) *rate.Reservation {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > rl.window {
		for key, v := range rl.visitors {
			if now.Sub(v.lastSeen) > rl.window {
				delete(rl.visitors, key)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now

	res := v.lim.Reserve()
	if !res.OK() || res.Delay() > 0 {
		res.Cancel()
		return nil
	}

	return res
}

// clientIP prefers the first X-Forwarded-For hop the proxy sets and falls
// back to the connection peer address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
