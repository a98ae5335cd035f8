// Package retry provides the bounded retry loops used around cloud API calls.
//
// [WithExponentialBackoff] retries transient API failures with growing delays.
// [Poll] re-checks a condition at a fixed interval for a fixed number of attempts,
// retrying only errors accepted by the policy's Retryable predicate. Errors wrapped
// with [Fatal] are never retried by either loop.
package retry
