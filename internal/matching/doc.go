// package matching implements metadata canonicalization and scoring for
// cross-catalog track resolution.
//
// Everything in this package is pure in-memory computation: normalization,
// similarity scoring and local-library matching never touch the network or
// the store.
package matching
