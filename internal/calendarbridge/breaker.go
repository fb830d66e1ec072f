package calendarbridge

import (
	"errors"
	"sync"
	"time"

	"github.com/wolfman30/sofia-scheduler/internal/observability/metrics"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

// ErrCircuitOpen is returned without calling the calendar while the breaker
// is open.
var ErrCircuitOpen = errors.New("calendarbridge: circuit breaker open")

const (
	DefaultFailureThreshold = 3
	DefaultRecoveryTimeout  = 30 * time.Second
)

// BreakerState is the circuit breaker position.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerHalfOpen
	BreakerOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerHalfOpen:
		return "HALF_OPEN"
	case BreakerOpen:
		return "OPEN"
	default:
		return "CLOSED"
	}
}

// CircuitBreaker stops calling the calendar after consecutive failures and
// lets a trial call through once the recovery timeout has passed. A success
// closes it again; a failed trial reopens it.
type CircuitBreaker struct {
	mu        sync.Mutex
	threshold int
	recovery  time.Duration
	failures  int
	state     BreakerState
	lastFail  time.Time
	now       func() time.Time
	logger    *logging.Logger
	metrics   *metrics.SchedulingMetrics
}

// NewCircuitBreaker creates a closed breaker. Non-positive arguments fall
// back to DefaultFailureThreshold and DefaultRecoveryTimeout.
func NewCircuitBreaker(threshold int, recovery time.Duration, logger *logging.Logger, m *metrics.SchedulingMetrics) *CircuitBreaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if recovery <= 0 {
		recovery = DefaultRecoveryTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	m.SetBreakerState(float64(BreakerClosed))
	return &CircuitBreaker{
		threshold: threshold,
		recovery:  recovery,
		now:       time.Now,
		logger:    logger,
		metrics:   m,
	}
}

// Allow reports whether a call may proceed, moving OPEN to HALF_OPEN once the
// recovery timeout has elapsed.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != BreakerOpen {
		return nil
	}
	if b.now().Sub(b.lastFail) < b.recovery {
		return ErrCircuitOpen
	}
	b.setState(BreakerHalfOpen)
	b.logger.Info("calendar circuit breaker half-open")
	return nil
}

// Success resets the failure count and closes the breaker.
func (b *CircuitBreaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != BreakerClosed {
		b.logger.Info("calendar circuit breaker closed")
	}
	b.failures = 0
	b.setState(BreakerClosed)
}

// Failure counts a failed call and opens the breaker at the threshold.
func (b *CircuitBreaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFail = b.now()
	if b.state == BreakerHalfOpen || b.failures >= b.threshold {
		if b.state != BreakerOpen {
			b.logger.Error("calendar circuit breaker opened", "failures", b.failures)
		}
		b.setState(BreakerOpen)
	}
}

// State returns the current position without advancing it.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *CircuitBreaker) setState(s BreakerState) {
	b.state = s
	b.metrics.SetBreakerState(float64(s))
}
