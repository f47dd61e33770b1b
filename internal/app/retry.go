package app

import (
	"context"
	"time"

	"futur-genie-quiz/internal/domain"
	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy returns a fresh backoff for one submission.
type RetryPolicy func() backoff.BackOff

// NoRetry sends a submission exactly once.
func NoRetry() backoff.BackOff {
	return &backoff.StopBackOff{}
}

// ExponentialRetry retries transient sink failures up to maxRetries times.
func ExponentialRetry(maxRetries uint64, initial, max time.Duration) RetryPolicy {
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		if initial > 0 {
			b.InitialInterval = initial
		}
		if max > 0 {
			b.MaxInterval = max
		}
		return backoff.WithMaxRetries(b, maxRetries)
	}
}

// submitWithRetry retries only errors marked transient; anything else is
// returned after the first attempt.
func submitWithRetry(ctx context.Context, sink SubmissionSink, submission domain.Submission, retry RetryPolicy) error {
	if retry == nil {
		retry = NoRetry
	}
	op := func() error {
		err := sink.Submit(ctx, submission)
		if err == nil || domain.IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.Retry(op, backoff.WithContext(retry(), ctx))
}
