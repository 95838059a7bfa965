package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiter enforces a per-client daily request budget on the API routes.
// Buckets refill continuously over the day rather than resetting at midnight.
type ipLimiter struct {
	perDay int

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(perDay int) *ipLimiter {
	return &ipLimiter{
		perDay:  perDay,
		clients: make(map[string]*client),
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[ip]
	if !ok {
		c = &client{
			limiter: rate.NewLimiter(rate.Limit(float64(l.perDay)/(24*3600)), l.perDay),
		}
		l.clients[ip] = c
		l.prune()
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

// prune drops clients idle for over a day. Called with mu held.
func (l *ipLimiter) prune() {
	if len(l.clients) < 1024 {
		return
	}
	cutoff := time.Now().Add(-24 * time.Hour)
	for ip, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.allow(ip) {
			writeError(w, http.StatusTooManyRequests, "daily request limit reached")
			return
		}
		next.ServeHTTP(w, r)
	})
}
