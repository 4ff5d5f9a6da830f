package gateway

import (
	"math"
	"math/rand"
	"time"
)

// #region policy

// RetryPolicy is a bounded-retry policy independent of the transport.
// Sleep and Jitter are injectable so tests can run with a fake clock.
type RetryPolicy struct {
	MaxAttempts int
	// Base is the exponent base; the wait before retrying attempt n
	// (0-indexed) is Base^n seconds plus jitter.
	Base   float64
	Sleep  func(time.Duration)
	Jitter func() time.Duration
}

// DefaultRetryPolicy matches the production policy: 5 attempts, 2^n seconds
// backoff with up to 500ms of random jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		Base:        2,
		Sleep:       time.Sleep,
		Jitter: func() time.Duration {
			return time.Duration(rand.Int63n(int64(500 * time.Millisecond)))
		},
	}
}

// Backoff returns the wait before retrying after attempt n (0-indexed).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := time.Duration(math.Pow(p.Base, float64(attempt)) * float64(time.Second))
	if p.Jitter != nil {
		d += p.Jitter()
	}
	return d
}

// #endregion policy

// #region failure-kind

// failureKind distinguishes rate-limit signals from other transient
// failures. Both are retried identically; the split exists for logging.
type failureKind int

const (
	kindTransient failureKind = iota
	kindRateLimit
)

// #endregion failure-kind
