// Package httputil provides HTTP utilities for the remote controller client.
//
// # Retry
//
// [Retry] re-runs an operation for transient failures only:
//
//   - Network errors
//   - 5xx server errors
//
// Callers mark transient failures with [Retryable]; anything else is
// returned immediately. Backoff doubles after each attempt:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return fetchLayout(ctx)
//	})
//
// A [Policy] bundles attempts and initial delay so clients can be
// configured once. Switch toggles and calibration commits use [NoRetry]:
// the controller must never see a command twice because of the client.
//
// # Defaults
//
//   - Max attempts: 3
//   - Base backoff: 1 second
package httputil
