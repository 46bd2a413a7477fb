package retry

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy configures exponential backoff with a cap for retryable
// kinds.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration // 0 = retry forever (the consumer loop owns cancellation)
}

// DefaultPolicy backs off from a few seconds up to a couple of
// minutes.
func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: 2 * time.Second,
		MaxInterval:     2 * time.Minute,
		MaxElapsedTime:  0,
	}
}

func (p Policy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = p.MaxElapsedTime
	b.Reset()
	return b
}

// ConsecutiveFailureTracker counts consecutive retries of the same batch
// and emits a structured warning after three, a useful stuck signal
// without being spammy.
type ConsecutiveFailureTracker struct {
	consumer string
	logger   *log.Logger
	count    int
}

// NewConsecutiveFailureTracker builds a tracker for one consumer's loop.
func NewConsecutiveFailureTracker(consumer string, logger *log.Logger) *ConsecutiveFailureTracker {
	return &ConsecutiveFailureTracker{consumer: consumer, logger: logger}
}

// RecordFailure increments the counter and warns on the third consecutive hit.
func (t *ConsecutiveFailureTracker) RecordFailure(err error) {
	t.count++
	if t.count == 3 {
		t.logger.Printf("WARN consumer=%s stuck: %d consecutive retries of the same batch: %v", t.consumer, t.count, err)
	}
}

// Reset clears the counter once a batch succeeds.
func (t *ConsecutiveFailureTracker) Reset() { t.count = 0 }

// Do retries fn under the given policy as long as the error it returns
// classifies as retryable; a fatal classification or context cancellation
// stops immediately. tracker may be nil.
func Do(ctx context.Context, policy Policy, tracker *ConsecutiveFailureTracker, fn func() error) error {
	b := backoff.WithContext(policy.newBackOff(), ctx)
	operation := func() error {
		err := fn()
		if err == nil {
			if tracker != nil {
				tracker.Reset()
			}
			return nil
		}
		if !ClassOf(err).Retryable() {
			return backoff.Permanent(err)
		}
		if tracker != nil {
			tracker.RecordFailure(err)
		}
		return err
	}
	return backoff.Retry(operation, b)
}
