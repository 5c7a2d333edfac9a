// Package breaker provides a per-source circuit breaker. Each source
// adapter is wrapped by its own breaker so one degraded catalog never
// blocks the others.
package breaker

import (
	"sync"
	"time"
)

// State is the breaker's position in the CLOSED -> OPEN -> HALF_OPEN cycle.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the canonical lowercase state name.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Settings holds the transition thresholds.
type Settings struct {
	// FailureThreshold failures within FailureWindow trip CLOSED -> OPEN.
	FailureThreshold int
	FailureWindow    time.Duration

	// RecoveryTimeout is how long the breaker stays OPEN before probing.
	RecoveryTimeout time.Duration

	// SuccessThreshold consecutive HALF_OPEN successes close the breaker.
	SuccessThreshold int
}

// DefaultSettings returns conservative defaults.
func DefaultSettings() Settings {
	return Settings{
		FailureThreshold: 4,
		FailureWindow:    60 * time.Second,
		RecoveryTimeout:  45 * time.Second,
		SuccessThreshold: 2,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.FailureThreshold <= 0 {
		s.FailureThreshold = d.FailureThreshold
	}
	if s.FailureWindow <= 0 {
		s.FailureWindow = d.FailureWindow
	}
	if s.RecoveryTimeout <= 0 {
		s.RecoveryTimeout = d.RecoveryTimeout
	}
	if s.SuccessThreshold <= 0 {
		s.SuccessThreshold = d.SuccessThreshold
	}
	return s
}

// Breaker tracks failures for a single source in a rolling window.
type Breaker struct {
	mu       sync.Mutex
	settings Settings
	clock    func() time.Time

	state             State
	failures          []time.Time
	openedAt          time.Time
	halfOpenSuccesses int
}

// New creates a breaker in the CLOSED state.
func New(settings Settings) *Breaker {
	return &Breaker{
		settings: settings.withDefaults(),
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// NewWithClock creates a breaker with an injectable clock for tests.
func NewWithClock(settings Settings, clock func() time.Time) *Breaker {
	b := New(settings)
	if clock != nil {
		b.clock = clock
	}
	return b
}

// Allow reports whether a call may proceed. While OPEN it returns false
// until the recovery timeout elapses, at which point the breaker moves
// to HALF_OPEN and admits probe calls.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.clock().Sub(b.openedAt) >= b.settings.RecoveryTimeout {
			b.state = StateHalfOpen
			b.halfOpenSuccesses = 0
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess registers a successful call.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.settings.SuccessThreshold {
			b.state = StateClosed
			b.failures = b.failures[:0]
			b.halfOpenSuccesses = 0
		}
	case StateClosed:
		// A success does not clear the window; only time does.
	}
}

// RecordFailure registers a failed call. In HALF_OPEN a single failure
// reopens the breaker immediately and resets the recovery timer.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock()

	switch b.state {
	case StateHalfOpen:
		b.trip(now)
	case StateClosed:
		b.failures = append(b.failures, now)
		b.pruneLocked(now)
		if len(b.failures) >= b.settings.FailureThreshold {
			b.trip(now)
		}
	}
}

// State returns the current state, applying the OPEN -> HALF_OPEN
// transition if the recovery timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.clock().Sub(b.openedAt) >= b.settings.RecoveryTimeout {
		b.state = StateHalfOpen
		b.halfOpenSuccesses = 0
	}
	return b.state
}

func (b *Breaker) trip(now time.Time) {
	b.state = StateOpen
	b.openedAt = now
	b.failures = b.failures[:0]
	b.halfOpenSuccesses = 0
}

// pruneLocked drops failures outside the rolling window. Caller holds mu.
func (b *Breaker) pruneLocked(now time.Time) {
	cutoff := now.Add(-b.settings.FailureWindow)
	kept := b.failures[:0]
	for _, t := range b.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.failures = kept
}
