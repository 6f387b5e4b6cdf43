package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vkuznetsov/authgate/internal/handlers/render"
)

// How many idle clients to tolerate before the bucket map is pruned
const pruneThreshold = 1024

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	mu      sync.Mutex
	clients map[string]*client

	limit rate.Limit
	burst int
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[ip]
	if !ok {
		if len(l.clients) >= pruneThreshold {
			l.prune()
		}
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = time.Now()

	return c.limiter.Allow()
}

// prune drops clients idle long enough to have a full bucket again.
// Called with mu held.
func (l *ipLimiter) prune() {
	idle := time.Duration(float64(l.burst)/float64(l.limit)) * time.Second
	cut := time.Now().Add(-idle)
	for ip, c := range l.clients {
		if c.lastSeen.Before(cut) {
			delete(l.clients, ip)
		}
	}
}

// RateLimit throttles requests per client IP with a token bucket of
// perMinute requests refill rate and the given burst size
func RateLimit(perMinute int, burst int) func(http.Handler) http.Handler {
	limiter := &ipLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiter.allow(ip) {
				render.ServiceError(w, "Too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
