// Package middleware provides gateway middleware for envhttp applications.
package middleware

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/logger"
	"github.com/shashiranjanraj/envhttp/pkg/metrics"
	"github.com/shashiranjanraj/envhttp/pkg/response"
)

// Store decides whether one more request under key fits in limit per window.
// When it does not, retryAfter says how long the client should wait.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

// RateLimit limits each client to limit requests per window. Clients are
// keyed by the first X-Forwarded-For address, else REMOTE_ADDR. A store
// error lets the request through.
//
//	middleware.RateLimit(middleware.NewMemoryStore(), 100, time.Minute)
func RateLimit(store Store, limit int, window time.Duration) gateway.Middleware {
	return func(next gateway.App) gateway.App {
		return gateway.AppFunc(func(env *gateway.Env) (gateway.Response, error) {
			key := clientKey(env)

			allowed, retry, err := store.Allow(context.Background(), key, limit, window)
			if err != nil {
				logger.FromEnv(env).Warn("rate limit store unavailable", "error", err.Error())
				return next.Call(env)
			}
			if !allowed {
				metrics.RateLimited.Inc()
				return response.TooManyRequests(int(math.Ceil(retry.Seconds()))), nil
			}
			return next.Call(env)
		})
	}
}

func clientKey(env *gateway.Env) string {
	if fwd := env.Header("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	return env.String(gateway.RemoteAddr)
}

// ─── In-memory store ─────────────────────────────────────────────────────────

const sweepEvery = time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryStore keeps one token bucket per client in process memory.
type MemoryStore struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{visitors: map[string]*visitor{}, now: time.Now}
}

func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	s.sweep(now, window)
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(window/time.Duration(max(limit, 1))), max(limit, 1))}
		s.visitors[key] = v
	}
	v.lastSeen = now
	s.mu.Unlock()

	r := v.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

// sweep drops clients idle for longer than a window. Called with s.mu held.
func (s *MemoryStore) sweep(now time.Time, window time.Duration) {
	if now.Sub(s.lastSweep) < sweepEvery {
		return
	}
	s.lastSweep = now
	for key, v := range s.visitors {
		if now.Sub(v.lastSeen) > window {
			delete(s.visitors, key)
		}
	}
}

// Len reports how many clients are tracked.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}
