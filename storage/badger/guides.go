package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/studyguide/core"
	"github.com/poiesic/studyguide/storage"
)

// GuideCache implements storage.GuideCache for BadgerDB.
type GuideCache struct {
	backend *Backend
	ttl     time.Duration
}

var _ storage.GuideCache = (*GuideCache)(nil)

// NewGuideCache creates a guide cache on backend. Only WithTTL applies.
func NewGuideCache(backend *Backend, opts ...Option) *GuideCache {
	return &GuideCache{
		backend: backend,
		ttl:     newCacheOptions(opts).ttl,
	}
}

// Close is a no-op; the backend is owned by the caller.
func (g *GuideCache) Close() error {
	return nil
}

// PutGuide stores record under its upload ID and subject.
func (g *GuideCache) PutGuide(ctx context.Context, record *core.GuideRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	return g.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry(makeGuideKey(record.UploadID, record.Subject), storage.MarshalGuideRecord(record))
		if g.ttl > 0 {
			entry = entry.WithTTL(g.ttl)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetGuide returns the guide for uploadID and subject.
func (g *GuideCache) GetGuide(ctx context.Context, uploadID core.ID, subject string) (*core.GuideRecord, error) {
	var record *core.GuideRecord
	err := g.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeGuideKey(uploadID, subject))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			record, err = storage.UnmarshalGuideRecord(val)
			return err
		})
	}, false)

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteGuide removes the guide for uploadID and subject.
func (g *GuideCache) DeleteGuide(ctx context.Context, uploadID core.ID, subject string) error {
	return g.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeGuideKey(uploadID, subject)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteGuides removes every guide stored for uploadID.
func (g *GuideCache) DeleteGuides(ctx context.Context, uploadID core.ID) error {
	return g.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeGuideKey(uploadID, "")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Clear removes every guide.
func (g *GuideCache) Clear(ctx context.Context) error {
	return g.backend.DropPrefix(guidePrefix)
}
