package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/utafrali/marketplace/pkg/logger"
)

// RateLimitConfig configures per-client token buckets. Forwarding headers are
// only honoured when the connection comes from one of TrustedProxies (IPs or
// CIDRs).
type RateLimitConfig struct {
	RPS            float64       `env:"RATE_LIMIT_RPS" envDefault:"5"`
	Burst          int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
	Idle           time.Duration `env:"RATE_LIMIT_IDLE" envDefault:"3m"`
	TrustedProxies []string      `env:"RATE_LIMIT_TRUSTED_PROXIES" envSeparator:","`
}

// ParseTrustedProxies turns IP and CIDR strings into prefixes.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Buckets idle longer than
// cfg.Idle are evicted lazily on the next lookup sweep.
type RateLimiter struct {
	cfg     RateLimitConfig
	trusted []netip.Prefix
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

// NewRateLimiter creates a limiter. A zero Idle disables eviction and a nil
// logger means slog.Default().
func NewRateLimiter(cfg RateLimitConfig, l *slog.Logger) (*RateLimiter, error) {
	trusted, err := ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	if l == nil {
		l = slog.Default()
	}
	return &RateLimiter{
		cfg:     cfg,
		trusted: trusted,
		logger:  l,
		now:     time.Now,
		clients: make(map[string]*client),
	}, nil
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if rl.cfg.Idle > 0 && now.Sub(rl.lastSweep) > rl.cfg.Idle {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) > rl.cfg.Idle {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Middleware rejects requests over the client's budget with 429 RATE_LIMITED.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.clientIP(r)
		if !rl.limiter(ip).AllowN(rl.now(), 1) {
			logger.WithContext(r.Context(), rl.logger).WarnContext(r.Context(), "rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", "1")
			writeDenied(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP keys the bucket on the connection peer. When the peer is a
// trusted proxy, X-Forwarded-For is walked right to left and the first
// untrusted hop wins, falling back to X-Real-IP.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		peer = host
	}
	if !rl.isTrusted(peer) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		if !rl.isTrusted(addr.String()) {
			return addr.Unmap().String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.Unmap().String()
	}
	return peer
}

func (rl *RateLimiter) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range rl.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
