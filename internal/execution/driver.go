package execution

import (
	"math"
	"math/rand"
	"time"
)

// RetryConfig bounds the live driver's retry state machine: an explicit
// attempt counter with exponential backoff, so cancellation and timeout
// behavior stay auditable.
type RetryConfig struct {
	MaxAttempts    int           `json:"max_attempts"`
	InitialDelay   time.Duration `json:"initial_delay"`
	MaxDelay       time.Duration `json:"max_delay"`
	BackoffFactor  float64       `json:"backoff_factor"`
	JitterEnabled  bool          `json:"jitter_enabled"`
	ResolveTimeout time.Duration `json:"resolve_timeout"`
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialDelay:   time.Second,
		MaxDelay:       time.Minute,
		BackoffFactor:  2.0,
		JitterEnabled:  true,
		ResolveTimeout: 2 * time.Minute,
	}
}

// backoffDelay computes the delay before the next attempt.
func (c RetryConfig) backoffDelay(attempt int) time.Duration {
	delay := c.InitialDelay
	if attempt > 0 {
		delay = time.Duration(float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(attempt)))
	}
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	if c.JitterEnabled {
		jitter := time.Duration(float64(delay) * 0.1 * (2*rand.Float64() - 1))
		delay += jitter
	}
	return delay
}
