package badger

// NewMemoryCaches creates in-memory chunk and guide caches for testing.
// Caller must close the backend when done.
func NewMemoryCaches(opts ...Option) (*ChunkCache, *GuideCache, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}
	return NewChunkCache(backend, opts...), NewGuideCache(backend, opts...), backend, nil
}
