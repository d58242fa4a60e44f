package backend

import (
	"fmt"
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker
type CircuitState string

const (
	StateClosed   CircuitState = "closed"    // Normal operation, requests pass through
	StateOpen     CircuitState = "open"      // Circuit is open, requests fail fast
	StateHalfOpen CircuitState = "half-open" // Testing if the backend recovered
)

// CircuitBreaker fails fast when a backend host keeps failing
type CircuitBreaker struct {
	mu                sync.Mutex
	circuits          map[string]*circuit
	threshold         int           // Consecutive failures before opening
	timeout           time.Duration // How long to stay open before probing
	halfOpenSuccesses int           // Successes needed to close from half-open
	now               func() time.Time
}

type circuit struct {
	state             CircuitState
	failures          int
	successes         int
	lastFailureTime   time.Time
	lastStateChange   time.Time
	halfOpenSuccesses int
}

// NewCircuitBreaker creates a circuit breaker with the default thresholds
func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{
		circuits:          make(map[string]*circuit),
		threshold:         5,
		timeout:           60 * time.Second,
		halfOpenSuccesses: 2,
		now:               time.Now,
	}
}

// Allow reports whether a request to host may proceed. An open circuit whose
// timeout elapsed moves to half-open and lets the request through.
func (cb *CircuitBreaker) Allow(host string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, exists := cb.circuits[host]
	if !exists || c.state != StateOpen {
		return true
	}
	if cb.now().Sub(c.lastStateChange) > cb.timeout {
		c.state = StateHalfOpen
		c.halfOpenSuccesses = 0
		c.lastStateChange = cb.now()
		return true
	}
	return false
}

// RecordSuccess records a successful request
func (cb *CircuitBreaker) RecordSuccess(host string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, exists := cb.circuits[host]
	if !exists {
		return
	}

	c.successes++
	c.failures = 0

	switch c.state {
	case StateHalfOpen:
		c.halfOpenSuccesses++
		if c.halfOpenSuccesses >= cb.halfOpenSuccesses {
			c.state = StateClosed
			c.lastStateChange = cb.now()
			c.halfOpenSuccesses = 0
		}
	case StateOpen:
		c.state = StateClosed
		c.lastStateChange = cb.now()
	}
}

// RecordFailure records a failed request
func (cb *CircuitBreaker) RecordFailure(host string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, exists := cb.circuits[host]
	if !exists {
		c = &circuit{state: StateClosed, lastStateChange: cb.now()}
		cb.circuits[host] = c
	}

	c.failures++
	c.lastFailureTime = cb.now()

	switch c.state {
	case StateClosed:
		if c.failures >= cb.threshold {
			c.state = StateOpen
			c.lastStateChange = cb.now()
		}
	case StateHalfOpen:
		// Probe failed, back to open
		c.state = StateOpen
		c.lastStateChange = cb.now()
		c.halfOpenSuccesses = 0
	}
}

// GetStats returns statistics for a circuit
func (cb *CircuitBreaker) GetStats(host string) CircuitStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, exists := cb.circuits[host]
	if !exists {
		return CircuitStats{State: StateClosed}
	}

	return CircuitStats{
		State:           c.state,
		Failures:        c.failures,
		Successes:       c.successes,
		LastFailure:     c.lastFailureTime,
		LastStateChange: c.lastStateChange,
	}
}

// CircuitStats holds statistics about a circuit
type CircuitStats struct {
	State           CircuitState `json:"state"`
	Failures        int          `json:"failures"`
	Successes       int          `json:"successes"`
	LastFailure     time.Time    `json:"last_failure"`
	LastStateChange time.Time    `json:"last_state_change"`
}

// CircuitOpenError is returned when a circuit is open
type CircuitOpenError struct {
	Host  string
	Stats CircuitStats
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for backend %s (failures: %d, state: %s)",
		e.Host, e.Stats.Failures, e.Stats.State)
}

// Is lets errors.Is match ErrUnavailable
func (e *CircuitOpenError) Is(target error) bool {
	return target == ErrUnavailable
}
