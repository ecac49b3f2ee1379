package badger

import "time"

const (
	// DefaultTTL is how long a cache entry lives.
	DefaultTTL = 2 * time.Hour

	// DefaultMaxChunkSets is the number of uploads kept in the chunk cache.
	DefaultMaxChunkSets = 5
)

type cacheOptions struct {
	ttl        time.Duration
	maxEntries int
}

// Option configures a cache.
type Option func(*cacheOptions)

// WithTTL sets the entry lifetime. Badger expiry has one-second granularity.
func WithTTL(ttl time.Duration) Option {
	return func(o *cacheOptions) {
		o.ttl = ttl
	}
}

// WithMaxEntries caps the number of live entries; <= 0 means no cap.
// Only the chunk cache enforces it.
func WithMaxEntries(n int) Option {
	return func(o *cacheOptions) {
		o.maxEntries = n
	}
}

func newCacheOptions(opts []Option) cacheOptions {
	o := cacheOptions{
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxChunkSets,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
