package bolt

import (
	"sync"
	"time"
)

// BreakerState is one of the three circuit breaker states (spec §3
// "Circuit breaker").
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a CircuitBreaker. Zero value is not usable;
// construct with NewCircuitBreaker or DefaultBreakerConfig.
type BreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

// DefaultBreakerConfig matches the teacher's replication breaker
// defaults in spirit (pkg/replication/config.go's getEnvInt/getEnvDuration
// pattern): trip after 5 consecutive failures, try again after 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, RecoveryTimeout: 30 * time.Second}
}

// CircuitBreaker guards a pool of connections to one server address
// against hammering a server that is already failing. It does not
// know about connections itself; callers report outcomes via
// RecordSuccess/RecordFailure and ask Allow before attempting work.
type CircuitBreaker struct {
	cfg BreakerConfig

	mu          sync.Mutex
	state       BreakerState
	failures    int
	openedAt    time.Time
	halfOpenTry bool
}

// NewCircuitBreaker constructs a breaker starting Closed.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = DefaultBreakerConfig().RecoveryTimeout
	}
	return &CircuitBreaker{cfg: cfg, state: BreakerClosed}
}

// State reports the breaker's current state, transitioning Open to
// HalfOpen first if RecoveryTimeout has elapsed.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeRecoverLocked()
	return b.state
}

func (b *CircuitBreaker) maybeRecoverLocked() {
	if b.state == BreakerOpen && time.Since(b.openedAt) >= b.cfg.RecoveryTimeout {
		b.state = BreakerHalfOpen
		b.halfOpenTry = false
	}
}

// Allow reports whether a new attempt may proceed. In HalfOpen, only
// one trial attempt is allowed at a time; concurrent callers are
// rejected until that trial resolves via RecordSuccess/RecordFailure.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeRecoverLocked()
	switch b.state {
	case BreakerClosed:
		return true
	case BreakerHalfOpen:
		if b.halfOpenTry {
			return false
		}
		b.halfOpenTry = true
		return true
	default: // BreakerOpen
		return false
	}
}

// RecordSuccess resets the failure count and, from HalfOpen, closes
// the breaker.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = BreakerClosed
	b.halfOpenTry = false
}

// RecordFailure counts a failure, tripping the breaker Open once
// FailureThreshold is reached (or immediately, from HalfOpen).
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerHalfOpen {
		b.trip()
		return
	}
	b.failures++
	if b.failures >= b.cfg.FailureThreshold {
		b.trip()
	}
}

func (b *CircuitBreaker) trip() {
	b.state = BreakerOpen
	b.openedAt = time.Now()
	b.halfOpenTry = false
	b.failures = 0
}
