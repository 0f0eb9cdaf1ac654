package submitter

import "time"

// RetryPolicy bounds how submission retries transient transport failures.
// It is injected into the Submitter so tests can substitute tight
// schedules.
type RetryPolicy struct {
	// MaxAttempts is the total number of submission attempts, including
	// the first.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff caps the growing delay.
	MaxBackoff time.Duration
	// Multiplier grows the delay between consecutive retries.
	Multiplier float64
}

// DefaultRetryPolicy returns the production retry schedule.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
	}
}

// Backoff returns the delay to wait after the given zero-based attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := float64(p.InitialBackoff)
	for i := 0; i < attempt; i++ {
		d *= p.Multiplier
	}
	if max := float64(p.MaxBackoff); d > max {
		d = max
	}
	return time.Duration(d)
}
