package ledger

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const maxTrackedActors = 4096

// actorLimiter is a token bucket per actor.
type actorLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	burst    int
	limiters map[string]*rate.Limiter
}

func newActorLimiter(perMinute, burst int) *actorLimiter {
	return &actorLimiter{
		interval: time.Minute / time.Duration(perMinute),
		burst:    burst,
		limiters: map[string]*rate.Limiter{},
	}
}

// window is the span in which at most burst comments may be persisted: the
// time an empty bucket takes to refill.
func (a *actorLimiter) window() time.Duration {
	return time.Duration(a.burst) * a.interval
}

func (a *actorLimiter) allow(actorID string) bool {
	a.mu.Lock()
	lim, ok := a.limiters[actorID]
	if !ok {
		if len(a.limiters) >= maxTrackedActors {
			a.limiters = map[string]*rate.Limiter{}
		}
		lim = rate.NewLimiter(rate.Every(a.interval), a.burst)
		a.limiters[actorID] = lim
	}
	a.mu.Unlock()
	return lim.Allow()
}
