package bolt

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryConfig tunes WithRetry's exponential backoff (spec §3 "Retry
// policy"). Zero value is not usable; use DefaultRetryConfig.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig matches spec §8's documented defaults: up to 3
// retries, starting at 100ms, capped at 5s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 5 * time.Second}
}

// backoff computes the delay before the given attempt (0-indexed):
// min(base*2^attempt, max), plus up to 25% jitter, matching the
// reference driver's retry scheduling.
func backoff(cfg RetryConfig, attempt int) time.Duration {
	d := cfg.BaseDelay << attempt
	if d <= 0 || d > cfg.MaxDelay { // overflow or cap
		d = cfg.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d)/4 + 1))
	return d + jitter
}

// Retryable reports whether an error is worth retrying: transient
// connection failures and the server's own TransientError
// classification, never auth/cypher/invalid-input failures.
func Retryable(err error) bool {
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.Kind {
	case ErrKindConnection:
		return true
	case ErrKindCypher:
		return pe.Classification() == "TransientError"
	default:
		return false
	}
}

// Classification exposes the Neo4j status code's classification
// segment (ClientError/TransientError/DatabaseError) for a
// ProtocolError that originated from a server FAILURE.
func (e *ProtocolError) Classification() string {
	return classificationFromCode(e.ServerCode)
}

// WithRetry runs op, retrying on Retryable errors up to cfg.MaxRetries
// times with jittered exponential backoff. It returns the last error
// if every attempt fails, or immediately on a non-retryable error or a
// canceled context.
func WithRetry(ctx context.Context, cfg RetryConfig, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff(cfg, attempt-1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !Retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
