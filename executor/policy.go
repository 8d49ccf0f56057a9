package executor

import (
	"time"

	"github.com/superfaceai/one-sdk-go/manifest"
	"github.com/superfaceai/one-sdk-go/resilience"
)

// buildPolicy translates a normalized manifest.RetryPolicy into the
// resilience.FailurePolicy state machine it describes. This is the one
// place the configuration model's retry tagged-union meets the resilience
// package's concrete policy types.
func buildPolicy(p manifest.RetryPolicy) resilience.FailurePolicy {
	switch p.Kind {
	case manifest.RetrySimple:
		return resilience.NewSimpleRetryPolicy(p.MaxContiguousRetries, millis(p.RequestTimeout))
	case manifest.RetryCircuitBreaker:
		return resilience.NewCircuitBreakerPolicy(
			p.MaxContiguousRetries,
			millis(p.RequestTimeout),
			millis(p.OpenTime),
			buildBackoff(p.Backoff),
		)
	default: // manifest.RetryNone and anything unrecognized
		return resilience.NewAbortPolicy(millis(p.RequestTimeout))
	}
}

func buildBackoff(b *manifest.BackoffSettings) resilience.Backoff {
	if b == nil {
		return resilience.NewExponentialBackoff(
			millis(manifest.DefaultBackoffStart),
			manifest.DefaultBackoffFactor,
			0,
		)
	}
	switch b.Kind {
	case manifest.BackoffExponential:
		return resilience.NewExponentialBackoff(millis(b.Start), b.Factor, 0)
	default:
		return resilience.NewExponentialBackoff(millis(b.Start), b.Factor, 0)
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
