package badger

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/studyguide/core"
	"github.com/poiesic/studyguide/storage"
)

// ChunkCache implements storage.ChunkCache for BadgerDB.
type ChunkCache struct {
	backend *Backend
	opts    cacheOptions
	// writes are serialized so eviction sees a stable entry count
	mu sync.Mutex
}

var _ storage.ChunkCache = (*ChunkCache)(nil)

// NewChunkCache creates a chunk cache on backend.
func NewChunkCache(backend *Backend, opts ...Option) *ChunkCache {
	return &ChunkCache{
		backend: backend,
		opts:    newCacheOptions(opts),
	}
}

// Close is a no-op; the backend is owned by the caller.
func (c *ChunkCache) Close() error {
	return nil
}

// PutChunks stores set, evicting the oldest entries when the cache is full.
func (c *ChunkCache) PutChunks(ctx context.Context, set *core.ChunkSet) error {
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now().UTC()
	}
	key := makeChunkSetKey(set.UploadID)
	value := storage.MarshalChunkSet(set)

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.backend.WithTx(func(tx *badger.Txn) error {
		if c.opts.maxEntries > 0 {
			if err := c.evict(tx, key); err != nil {
				return err
			}
		}

		entry := badger.NewEntry(key, value)
		if c.opts.ttl > 0 {
			entry = entry.WithTTL(c.opts.ttl)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// evict makes room for key by deleting the oldest writes.
// Badger versions are commit timestamps, so the lowest version is the oldest write.
func (c *ChunkCache) evict(tx *badger.Txn, key []byte) error {
	type liveKey struct {
		key     []byte
		version uint64
	}

	var live []liveKey
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(chunkSetPrefix)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		if string(item.Key()) == string(key) {
			// Replacing an existing entry never grows the cache.
			iter.Close()
			return nil
		}
		live = append(live, liveKey{key: item.KeyCopy(nil), version: item.Version()})
	}
	iter.Close()

	excess := len(live) - c.opts.maxEntries + 1
	if excess <= 0 {
		return nil
	}

	slices.SortFunc(live, func(a, b liveKey) int {
		return cmp.Compare(a.version, b.version)
	})

	for _, lk := range live[:excess] {
		if err := tx.Delete(lk.key); err != nil {
			return err
		}
		c.backend.logger.Debug("evicted chunk set", "key", lk.key)
	}
	return nil
}

// GetChunks returns the chunk set for id.
func (c *ChunkCache) GetChunks(ctx context.Context, id core.ID) (*core.ChunkSet, error) {
	var set *core.ChunkSet
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeChunkSetKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			set, err = storage.UnmarshalChunkSet(val)
			return err
		})
	}, false)

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Len returns the number of live chunk sets.
func (c *ChunkCache) Len(ctx context.Context) (int, error) {
	n := 0
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkSetPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			n++
		}
		return nil
	}, false)
	return n, err
}

// Clear removes every chunk set.
func (c *ChunkCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.DropPrefix(chunkSetPrefix)
}
