// Package resilience provides retry with context-aware waits.
//
// Retry supports exponential backoff with jitter and, through FixedDelay,
// the fixed inter-attempt delay the pipeline executor applies to transient
// warehouse failures:
//
//	cfg := resilience.FixedDelay(3, 5*time.Minute, errors.IsRetryable)
//	err := resilience.RetryFunc(ctx, cfg, func() error {
//	    return stage.Run(ctx)
//	})
package resilience
