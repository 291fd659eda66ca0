package export

import (
	"sync"
	"time"
)

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// browserBreaker stops hammering a broken Chrome: after threshold consecutive
// capture failures it rejects captures until cooldown has passed, then lets a
// single probe through.
type browserBreaker struct {
	mu        sync.Mutex
	state     breakerState
	failures  int
	threshold int
	cooldown  time.Duration
	openedAt  time.Time
	now       func() time.Time
}

func newBrowserBreaker(threshold int, cooldown time.Duration) *browserBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &browserBreaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

func (b *browserBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case breakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.transition(breakerHalfOpen)
		return true
	case breakerHalfOpen:
		// one probe at a time
		return false
	default:
		return true
	}
}

func (b *browserBreaker) success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	if b.state != breakerClosed {
		b.transition(breakerClosed)
	}
}

func (b *browserBreaker) failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.state == breakerHalfOpen || (b.state == breakerClosed && b.failures >= b.threshold) {
		b.openedAt = b.now()
		b.transition(breakerOpen)
	}
}

// abandon hands back a half-open probe whose capture was cancelled before the
// browser answered. The cooldown has already run, so the next capture probes.
func (b *browserBreaker) abandon() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == breakerHalfOpen {
		b.transition(breakerOpen)
	}
}

func (b *browserBreaker) transition(to breakerState) {
	from := b.state
	b.state = to
	log.Warnf("browser breaker %s -> %s (failures=%d/%d, cooldown=%s)", from, to, b.failures, b.threshold, b.cooldown)
}
