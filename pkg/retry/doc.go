// Package retry provides bounded exponential backoff for best-effort
// operations.
//
// The cache uses it on the persistence path: a flush that hits a transient
// storage failure is retried a small, fixed number of times with short
// delays and optional jitter, then dropped. Persistence is an optimization,
// so the caller never waits on an unbounded retry loop.
//
// Errors wrapped with NonRetryable fail the first attempt immediately;
// use it for failures that retrying cannot fix (malformed records,
// quota exhaustion).
//
//	err := retry.Do(ctx, retry.Storage(), func() error {
//	    return store.SetItem(storageKey, payload)
//	})
package retry
