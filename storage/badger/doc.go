// Package badger implements the storage caches on BadgerDB.
//
// Both caches share one Backend. Expiry uses Badger's per-entry TTL, so an
// expired entry disappears from reads without a sweeper goroutine.
package badger
