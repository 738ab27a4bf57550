package assistant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State represents the state of a circuit breaker
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the string representation of the state
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

// Breaker stops calling the completion API after maxFailures consecutive
// failures and lets a single probe through once resetTimeout has passed.
type Breaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	now          func() time.Time
	logger       logrus.FieldLogger

	mu          sync.Mutex
	state       State
	failures    int
	openedAt    time.Time
	probeActive bool
}

// NewBreaker creates a closed breaker
func NewBreaker(name string, maxFailures int, resetTimeout time.Duration, logger logrus.FieldLogger) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		now:          time.Now,
		logger:       logger,
		state:        StateClosed,
	}
}

// OpenError is returned while the breaker rejects calls
type OpenError struct {
	Name  string
	State State
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker '%s' is %s", e.Name, e.State)
}

// Execute runs fn unless the breaker is open. Context cancellation by the
// caller is not counted as a failure.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.acquire(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil && ctx.Err() != nil {
		b.release()
		return err
	}
	b.record(err)
	return err
}

// State returns the current state, moving an expired open breaker to half-open
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

func (b *Breaker) advance() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.resetTimeout {
		b.state = StateHalfOpen
		b.probeActive = false
		b.logger.WithField("circuit_breaker", b.name).Info("Circuit breaker transitioned to half-open")
	}
}

func (b *Breaker) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance()
	switch b.state {
	case StateOpen:
		return &OpenError{Name: b.name, State: b.state}
	case StateHalfOpen:
		if b.probeActive {
			return &OpenError{Name: b.name, State: b.state}
		}
		b.probeActive = true
	}
	return nil
}

func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probeActive = false
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probeActive = false
	if err == nil {
		if b.state != StateClosed {
			b.logger.WithField("circuit_breaker", b.name).Info("Circuit breaker closed after successful recovery")
		}
		b.state = StateClosed
		b.failures = 0
		return
	}

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		b.state = StateOpen
		b.openedAt = b.now()
		b.logger.WithFields(logrus.Fields{
			"circuit_breaker": b.name,
			"failures":        b.failures,
		}).Warn("Circuit breaker opened due to failures")
	}
}
