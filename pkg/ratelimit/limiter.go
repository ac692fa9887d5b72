package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/matzehuels/curator/pkg/errors"
)

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
)

// Limits configures a [Limiter]. Zero ceilings are unlimited.
type Limits struct {
	PerMinute int
	PerHour   int
	// MinInterval is the minimum spacing between two requests.
	MinInterval time.Duration
}

// Unlimited reports whether l imposes no restriction at all.
func (l Limits) Unlimited() bool {
	return l.PerMinute <= 0 && l.PerHour <= 0 && l.MinInterval <= 0
}

// Stats is a snapshot of a limiter's windows.
type Stats struct {
	LastMinute int
	LastHour   int
	Refused    int
}

// Limiter is a sliding-window request limiter. Safe for concurrent use.
type Limiter struct {
	name   string
	limits Limits
	now    func() time.Time

	mu      sync.Mutex
	minute  []time.Time
	hour    []time.Time
	spacing *rate.Limiter
	slots   []time.Time
	refused int
}

// Option configures a [Limiter].
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithName sets the source name reported in refusals.
func WithName(name string) Option {
	return func(l *Limiter) { l.name = name }
}

// New creates a limiter enforcing limits.
func New(limits Limits, opts ...Option) *Limiter {
	l := &Limiter{limits: limits, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	if limits.MinInterval > 0 {
		l.spacing = rate.NewLimiter(rate.Every(limits.MinInterval), 1)
	}
	return l
}

// Limits returns the configured ceilings.
func (l *Limiter) Limits() Limits { return l.limits }

// Check prunes both windows and then either records the current instant or
// refuses with *errors.RateLimitError. The per-minute ceiling is checked
// before the per-hour ceiling, and spacing last. A successful call is
// appended to both windows.
//
// A spacing refusal reserves the next free slot, so concurrent callers
// are told to come back at staggered instants rather than all at once.
func (l *Limiter) Check() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.minute = prune(l.minute, now.Add(-minuteWindow))
	l.hour = prune(l.hour, now.Add(-hourWindow))

	if ceiling := l.limits.PerMinute; ceiling > 0 && len(l.minute) >= ceiling {
		return l.refuse(l.minute[0].Add(minuteWindow).Sub(now))
	}
	if ceiling := l.limits.PerHour; ceiling > 0 && len(l.hour) >= ceiling {
		return l.refuse(l.hour[0].Add(hourWindow).Sub(now))
	}
	if l.spacing != nil && !l.claimSlot(now) {
		r := l.spacing.ReserveN(now, 1)
		if d := r.DelayFrom(now); d > 0 {
			l.slots = append(l.slots, now.Add(d))
			return l.refuse(d)
		}
	}

	l.minute = append(l.minute, now)
	l.hour = append(l.hour, now)
	return nil
}

// Stats returns the current window occupancy.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.minute = prune(l.minute, now.Add(-minuteWindow))
	l.hour = prune(l.hour, now.Add(-hourWindow))
	return Stats{LastMinute: len(l.minute), LastHour: len(l.hour), Refused: l.refused}
}

// claimSlot consumes a spacing slot reserved by an earlier refusal once
// its time has come. Slots left unclaimed for a full interval are dropped.
func (l *Limiter) claimSlot(now time.Time) bool {
	l.slots = prune(l.slots, now.Add(-l.limits.MinInterval))
	if len(l.slots) == 0 || l.slots[0].After(now) {
		return false
	}
	l.slots = l.slots[1:]
	return true
}

func (l *Limiter) refuse(wait time.Duration) error {
	l.refused++
	if wait < 0 {
		wait = 0
	}
	return &errors.RateLimitError{Source: l.name, RetryAfter: wait}
}

// prune drops instants at or before cutoff. Instants are appended in
// order, so the retained suffix starts at the first one after cutoff.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}
