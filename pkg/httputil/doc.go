// Package httputil provides HTTP utilities for the elimination engine
// client.
//
// # Retry
//
// [Retry] wraps HTTP requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Wrap such errors in [RetryableError] so Retry knows to attempt again;
// anything else is returned immediately. Backoff is exponential starting
// at the given delay.
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return postSystem(ctx, url, body)
//	})
package httputil
