package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/httpmw"
)

// visitor tracks a single key's limiter and last activity
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	// logged tracks whether we have already emitted the first-denial log
	// resets when the entry is evicted and re-created
	logged bool
}

// KeyFunc derives the rate-limit key for a request. Derivers should be
// total (always bottom out at an IP key); requests that map to the same
// key share one bucket, including the empty key.
type KeyFunc func(r *http.Request) string

// KeyedLimiter holds per-key rate limiters with background eviction
type KeyedLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	keyFor KeyFunc

	// rate controls: requests per second and burst ceiling
	perSecond rate.Limit
	burst     int

	// ttl controls how long an idle key stays in the map before cleanup evicts it
	ttl time.Duration

	// maxVisitors is the hard ceiling on tracked keys. Keys are
	// client-mintable (fresh cookies, fresh tokens), so the map cannot
	// be allowed to grow with attacker traffic. 0 disables the ceiling.
	maxVisitors int

	// capacityLogged tracks whether OnCapacity already fired for the
	// current full period, resets once eviction frees room
	capacityLogged bool

	// OnFirstDenied is called once per visitor when they first get rate limited
	// key is the derived rate-limit key (namespaced HMAC digest, never a raw identity)
	OnFirstDenied func(key string)

	// OnDenied is called on every denied request, used for incrementing prometheus counter
	OnDenied func(key string)

	// OnCapacity is called once when the visitor map first fills and an
	// unseen key gets rejected, used for logging. Re-arms after eviction
	// frees capacity.
	OnCapacity func()
}

type Option func(*KeyedLimiter)

// WithKeyFunc sets how requests map onto rate-limit keys. The default
// uses the proxy-resolved client IP from the request context.
func WithKeyFunc(fn KeyFunc) Option {
	return func(l *KeyedLimiter) {
		l.keyFor = fn
	}
}

// WithRate sets the request limit bucket size and the refill rate.
// burst is the total capacity of the bucket, perSecond is how many tokens are added to the bucket each second.
// WithRate(10, 50) allows 50 requests at once, then refills at a rate of 10 requests per second
func WithRate(perSecond float64, burst int) Option {
	return func(l *KeyedLimiter) {
		l.perSecond = rate.Limit(perSecond)
		l.burst = burst
	}
}

// WithTTL controls how long an idle key stays in the map before cleanup
func WithTTL(d time.Duration) Option {
	return func(l *KeyedLimiter) {
		l.ttl = d
	}
}

// WithMaxVisitors sets the tracked-key ceiling. 0 disables it.
func WithMaxVisitors(n int) Option {
	return func(l *KeyedLimiter) {
		l.maxVisitors = n
	}
}

// WithOnFirstDenied sets a callback for the first denial per visitor, used for logging.
// Intentionally separate from OnDenied to allow different handling - we log once, but increment prometheus counters on each denial
func WithOnFirstDenied(fn func(key string)) Option {
	return func(l *KeyedLimiter) {
		l.OnFirstDenied = fn
	}
}

// WithOnDenied sets a callback for every denied request. used for incrementing prometheus counters
func WithOnDenied(fn func(key string)) Option {
	return func(l *KeyedLimiter) {
		l.OnDenied = fn
	}
}

// WithOnCapacity sets a callback for the first rejection caused by a full
// visitor map, used for logging the condition without spamming
func WithOnCapacity(fn func()) Option {
	return func(l *KeyedLimiter) {
		l.OnCapacity = fn
	}
}

// New creates a KeyedLimiter and starts the background cleanup goroutine
func New(ctx context.Context, opts ...Option) *KeyedLimiter {
	l := &KeyedLimiter{
		visitors:    make(map[string]*visitor),
		keyFor:      func(r *http.Request) string { return httpmw.ClientIPFromContext(r.Context()) },
		perSecond:   10,
		burst:       30,
		ttl:         5 * time.Minute,
		maxVisitors: 100_000,
	}
	for _, o := range opts {
		o(l)
	}
	// start background cleanup goroutine, uses provided context for cancellation that will trigger on app shutdown
	go l.cleanup(ctx)
	return l
}

// allow checks whether the given key is within its rate limit. also handles
// visitor creation, the capacity ceiling, and logging for first denial.
// Returns true if the request should proceed, false if it should be rejected.
func (l *KeyedLimiter) allow(key string) bool {
	l.mu.Lock()
	v, exists := l.visitors[key]
	if !exists {
		if l.maxVisitors > 0 && len(l.visitors) >= l.maxVisitors {
			// full: reject unseen keys rather than let client-minted
			// keys grow the map without bound
			fire := !l.capacityLogged
			l.capacityLogged = true
			l.mu.Unlock()
			if fire && l.OnCapacity != nil {
				l.OnCapacity()
			}
			return false
		}
		v = &visitor{
			limiter: rate.NewLimiter(l.perSecond, l.burst),
		}
		l.visitors[key] = v
	}
	v.lastSeen = time.Now()
	allowed := v.limiter.Allow()

	if !allowed && !v.logged {
		v.logged = true
		// release lock before calling hooks, have to release as fast as possible to avoid blocking other requests and these calls may do slow work
		l.mu.Unlock()
		if l.OnFirstDenied != nil {
			l.OnFirstDenied(key)
		}
		if l.OnDenied != nil {
			l.OnDenied(key)
		}
		return false
	}

	l.mu.Unlock()

	if !allowed && l.OnDenied != nil {
		l.OnDenied(key)
	}

	return allowed
}

// cleanup periodically evicts keys that haven't been seen within the TTL.
// Runs every TTL/2 to avoid holding stale entries much longer than intended.
func (l *KeyedLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, v := range l.visitors {
				if now.Sub(v.lastSeen) > l.ttl {
					delete(l.visitors, key)
				}
			}
			if l.maxVisitors == 0 || len(l.visitors) < l.maxVisitors {
				l.capacityLogged = false
			}
			l.mu.Unlock()
		}
	}
}

// Middleware returns middleware that rejects requests over the per-key rate limit with 429
func (l *KeyedLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(l.keyFor(r)) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
			// intentionally not including detail about limits, remaining budget, or when the bucket refills
			w.Write([]byte(`{"error":"too many requests"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
