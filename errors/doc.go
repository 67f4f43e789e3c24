// Package errors provides standardized error handling patterns for rescache
// components.
//
// # Overview
//
// The package implements a three-class error classification system:
//
//   - Transient: temporary failures (storage briefly unavailable, timeouts)
//     that callers may retry with backoff.
//   - Invalid: bad input or configuration (empty keys, malformed persisted
//     records) that retrying will never fix.
//   - Fatal: unrecoverable conditions (corrupt data, quota exhaustion) that
//     should stop the failing path.
//
// Classification drives behavior at the persistence boundary: the cache
// retries transient storage failures and drops everything else, so a broken
// storage backend can never wedge the in-memory cache.
//
// # Usage
//
// Wrap errors at component boundaries with the classifying helpers:
//
//	if err := store.SetItem(key, payload); err != nil {
//	    return errors.WrapTransient(err, "persister", "flush", "write record")
//	}
//
// Check classification where the handling decision is made:
//
//	if errors.IsTransient(err) {
//	    // schedule another attempt
//	}
//
// The wrapped error chain is preserved, so errors.Is and errors.As keep
// working against both the sentinel variables in this package and the
// caller's own sentinels.
package errors
