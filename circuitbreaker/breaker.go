package circuitbreaker

import (
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultFailureThreshold = 3
	DefaultResetTimeout     = 30 * time.Second
)

// State captures circuit breaker states.
type State int

const (
	// StateClosed indicates normal operation.
	StateClosed State = iota
	// StateOpen indicates the breaker is rejecting calls.
	StateOpen
	// StateHalfOpen indicates trial calls are permitted.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

type Config struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

// CircuitBreaker tracks the aggregate health of one remote dependency.
// A single instance is meant to be shared by every call to that dependency.
type CircuitBreaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time

	failureThreshold int
	resetTimeout     time.Duration
	now              func() time.Time
	onStateChange    func(from, to State)
}

// NewCircuitBreaker creates a breaker in the CLOSED state. Zero config values
// fall back to the defaults.
func NewCircuitBreaker(config Config) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultFailureThreshold
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = DefaultResetTimeout
	}
	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: config.FailureThreshold,
		resetTimeout:     config.ResetTimeout,
		now:              time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (b *CircuitBreaker) WithClock(now func() time.Time) *CircuitBreaker {
	b.now = now
	return b
}

// OnStateChange registers fn to be called on every transition. fn runs after
// the breaker is unlocked, so it may call back into the breaker. Hooks from
// concurrent transitions are not ordered with respect to each other.
func (b *CircuitBreaker) OnStateChange(fn func(from, to State)) *CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStateChange = fn
	return b
}

// CanAttemptRequest reports whether a call may go out. An OPEN breaker whose
// cool-down has elapsed moves to HALF_OPEN as a side effect of this query.
func (b *CircuitBreaker) CanAttemptRequest() bool {
	var change stateChange
	defer change.notify()
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return true
	}
	if b.now().After(b.lastFailure.Add(b.resetTimeout)) {
		change = b.transition(StateHalfOpen)
		return true
	}
	return false
}

func (b *CircuitBreaker) RecordSuccess() {
	var change stateChange
	defer change.notify()
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.lastFailure = time.Time{}
	if b.state != StateClosed {
		change = b.transition(StateClosed)
	}
}

// RecordFailure counts a failed logical call. A failure while HALF_OPEN
// re-opens the breaker immediately, without re-accumulating the threshold.
func (b *CircuitBreaker) RecordFailure() {
	var change stateChange
	defer change.notify()
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.failureThreshold {
		b.lastFailure = b.now()
		if b.state != StateOpen {
			change = b.transition(StateOpen)
		}
	}
}

func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *CircuitBreaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// RetryAfter returns how long an OPEN breaker will keep rejecting calls.
func (b *CircuitBreaker) RetryAfter() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return 0
	}
	remaining := b.lastFailure.Add(b.resetTimeout).Sub(b.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// stateChange is a transition recorded under the lock and reported after it
// is released.
type stateChange struct {
	from, to State
	failures int
	hook     func(from, to State)
	changed  bool
}

// caller holds b.mu
func (b *CircuitBreaker) transition(to State) stateChange {
	change := stateChange{from: b.state, to: to, failures: b.failures, hook: b.onStateChange, changed: true}
	b.state = to
	return change
}

func (c *stateChange) notify() {
	if !c.changed {
		return
	}
	slog.Info("circuit breaker state change", "from", c.from.String(), "to", c.to.String(), "failures", c.failures)
	if c.hook != nil {
		c.hook(c.from, c.to)
	}
}
