package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/jpl-au/express"
)

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	// RPS is the sustained rate allowed per key. Default: 5.
	RPS float64
	// Burst is the bucket size per key. Default: 10.
	Burst int
	// Key derives the limiter key from a request. Default: ClientIP.
	Key func(*express.Request) string
}

type limiterPool struct {
	mu  sync.Mutex
	m   map[string]*rate.Limiter
	cfg RateLimitConfig
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(p.cfg.RPS), p.cfg.Burst)
	p.m[key] = l
	return l
}

// RateLimit returns middleware that answers 429 Too Many Requests once a
// client exceeds its token bucket. Allowed requests continue down the chain.
func RateLimit(cfg RateLimitConfig) express.Middleware {
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.Key == nil {
		cfg.Key = ClientIP
	}
	pool := &limiterPool{m: make(map[string]*rate.Limiter), cfg: cfg}
	retryAfter := strconv.Itoa(int(1/cfg.RPS) + 1)

	return func(req *express.Request, res *express.Response, next express.Next) {
		if pool.get(cfg.Key(req)).Allow() {
			next()
			return
		}
		res.SetStatus(http.StatusTooManyRequests)
		res.SetHeader("Retry-After", retryAfter)
		_ = res.Send(http.StatusText(http.StatusTooManyRequests))
	}
}

// ClientIP returns the host part of the remote address. Client-supplied
// headers are ignored, so it is safe as a limiter key on a directly exposed
// listener.
func ClientIP(req *express.Request) string {
	addr := req.RemoteAddr()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// ForwardedClientIP returns the first X-Forwarded-For entry, falling back to
// ClientIP. Use it as RateLimitConfig.Key only behind a proxy that overwrites
// the header, since any client can set it.
func ForwardedClientIP(req *express.Request) string {
	if fwd := req.Header().Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return ClientIP(req)
}
