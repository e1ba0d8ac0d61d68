// Package storage provides durable string key-value storage for the client.
package storage

import "errors"

// DefaultQuota matches the capacity browsers give an origin's local storage.
const DefaultQuota int64 = 5 * 1024 * 1024

var (
	// ErrQuotaExceeded is returned by Set when the write would exceed capacity.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// KV is a synchronous string-keyed, string-valued store
type KV interface {
	// Get returns the value for key and whether it exists
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value
	Set(key, value string) error
	// Remove deletes key; removing a missing key is not an error
	Remove(key string) error
}

// usage returns the bytes counted against the quota for one entry
func usage(key, value string) int64 {
	return int64(len(key) + len(value))
}
