// Package resilience retries operations that fail with transient errors.
//
// Retry runs a function up to MaxAttempts times with exponential backoff and
// jitter. By default only errors marked retryable (such as IO_ERROR from a
// file source) are retried:
//
//	lines, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() ([]string, error) {
//	    return src.Process(ctx, pipeline.Units(n))
//	})
package resilience
