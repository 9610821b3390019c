package authserver

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterSweepInterval is how often idle identifiers are dropped.
const limiterSweepInterval = time.Minute

// attemptLimiter throttles login attempts per identifier. Buckets that have
// refilled completely are dropped on the next sweep: a full bucket behaves
// exactly like a new one, so forgetting it changes nothing except memory.
type attemptLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	lastSweep time.Time
}

// newAttemptLimiter allows perMinute sustained attempts with burst. A
// non-positive perMinute disables limiting.
func newAttemptLimiter(perMinute float64, burst int) *attemptLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &attemptLimiter{
		limit:    rate.Every(time.Duration(float64(time.Minute) / perMinute)),
		burst:    burst,
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *attemptLimiter) Allow(id string) bool {
	if l == nil {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= limiterSweepInterval {
		l.sweep(now)
	}
	lim, ok := l.limiters[id]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[id] = lim
	}
	return lim.AllowN(now, 1)
}

func (l *attemptLimiter) sweep(now time.Time) {
	for id, lim := range l.limiters {
		if lim.TokensAt(now) >= float64(l.burst) {
			delete(l.limiters, id)
		}
	}
	l.lastSweep = now
}

// tracked is the number of identifiers currently holding a bucket.
func (l *attemptLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
