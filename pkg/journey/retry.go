package journey

import (
	"context"
	"strings"
	"time"

	"pctrack/pkg/api"
)

// RetryPolicy retries transient failures with a fixed per-attempt delay.
// The delay is longer after a timeout to give a congested link room to
// recover. There is no exponential backoff or jitter.
type RetryPolicy struct {
	MaxAttempts  int
	Delay        time.Duration
	TimeoutDelay time.Duration
	ShouldRetry  func(error) bool
}

// activeJourneyConflict is the server's business-rule refusal when a start
// is attempted while a journey is already in progress. It is never
// transient, so retrying it only wastes the user's time.
const activeJourneyConflict = "already have an active journey"

// retryableStartError allows retries for transport errors and timeouts
// only. Authorization failures and the active-journey conflict propagate
// immediately.
func retryableStartError(err error) bool {
	if api.IsUnauthorized(err) {
		return false
	}
	if strings.Contains(api.ServerMessage(err), activeJourneyConflict) {
		return false
	}
	return api.IsNetwork(err) || api.IsTimeout(err)
}

// StartJourneyPolicy is the policy used when starting a journey: up to two
// retries, one second apart, two after a timeout.
func StartJourneyPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		Delay:        time.Second,
		TimeoutDelay: 2 * time.Second,
		ShouldRetry:  retryableStartError,
	}
}

// Do invokes fn until it succeeds, fails non-retryably, or attempts run
// out. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if p.ShouldRetry != nil && !p.ShouldRetry(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.Delay
		if api.IsTimeout(err) && p.TimeoutDelay > 0 {
			delay = p.TimeoutDelay
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return lastErr
		}
	}

	return lastErr
}
