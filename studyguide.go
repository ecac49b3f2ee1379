// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package studyguide

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/studyguide/ai"
	"github.com/poiesic/studyguide/config"
	"github.com/poiesic/studyguide/core"
	"github.com/poiesic/studyguide/document"
	"github.com/poiesic/studyguide/generation"
	"github.com/poiesic/studyguide/guide"
	"github.com/poiesic/studyguide/progress"
	"github.com/poiesic/studyguide/storage"
	"github.com/poiesic/studyguide/storage/badger"
	"golang.org/x/sync/singleflight"
)

// DefaultDownloadClearDelay is how long a downloaded guide stays cached.
const DefaultDownloadClearDelay = 3 * time.Second

type Service struct {
	backend      *badger.Backend
	chunks       storage.ChunkCache
	guides       storage.GuideCache
	splitter     *document.Splitter
	generator    ai.Generator
	driver       *generation.Driver
	orchestrator *guide.Orchestrator
	clearDelay   time.Duration
	logger       *slog.Logger
	flight       singleflight.Group

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig     *ai.Config
	generator    ai.Generator
	cacheDir     string
	cacheOpts    []badger.Option
	splitterOpts []document.SplitterOption
	driverOpts   []generation.Option
	clearDelay   time.Duration
	logger       *slog.Logger
}

// WithConfig applies every setting from a loaded configuration.
func WithConfig(cfg *config.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = cfg.AI()
		o.cacheDir = cfg.CacheDir
		o.cacheOpts = append(o.cacheOpts, badger.WithTTL(cfg.CacheTTL), badger.WithMaxEntries(cfg.CacheMaxEntries))
		o.splitterOpts = append(o.splitterOpts, document.WithChunkSize(cfg.ChunkSize), document.WithChunkOverlap(cfg.ChunkOverlap))
		o.driverOpts = append(o.driverOpts,
			generation.WithConcurrency(cfg.Concurrency),
			generation.WithMaxAttempts(cfg.MaxAttempts),
			generation.WithRetryDelay(cfg.RetryDelay),
		)
		o.clearDelay = cfg.DownloadClearDelay
	}
}

// WithAIConfig sets the generator configuration. Ignored if WithGenerator is used.
func WithAIConfig(cfg *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = cfg
	}
}

// WithGenerator uses generator instead of building one from the AI configuration.
func WithGenerator(generator ai.Generator) ServiceOption {
	return func(o *serviceOptions) {
		o.generator = generator
	}
}

// WithCacheDir persists the caches under dir. The default keeps them in memory.
func WithCacheDir(dir string) ServiceOption {
	return func(o *serviceOptions) {
		o.cacheDir = dir
	}
}

// WithCacheOptions configures both caches.
func WithCacheOptions(opts ...badger.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.cacheOpts = append(o.cacheOpts, opts...)
	}
}

// WithSplitterOptions configures chunking.
func WithSplitterOptions(opts ...document.SplitterOption) ServiceOption {
	return func(o *serviceOptions) {
		o.splitterOpts = append(o.splitterOpts, opts...)
	}
}

// WithDriverOptions configures the generation driver.
func WithDriverOptions(opts ...generation.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.driverOpts = append(o.driverOpts, opts...)
	}
}

// WithDownloadClearDelay sets how long a guide stays cached after download.
func WithDownloadClearDelay(delay time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.clearDelay = delay
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

func NewService(ctx context.Context, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig:   ai.DefaultConfig(),
		clearDelay: DefaultDownloadClearDelay,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger.With("component", "service")

	splitter, err := document.NewSplitter(options.splitterOpts...)
	if err != nil {
		return nil, err
	}

	generator := options.generator
	if generator == nil {
		generator, err = NewGenerator(ctx, options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	driverOpts := []generation.Option{
		generation.WithCallTimeout(options.aiConfig.RequestTimeout),
		generation.WithLogger(options.logger.With("component", "generation")),
	}
	driver, err := generation.NewDriver(generator, append(driverOpts, options.driverOpts...)...)
	if err != nil {
		closeGenerator(generator, logger)
		return nil, err
	}

	// Open backend
	backend, err := badger.OpenBackend(options.cacheDir, options.cacheDir == "")
	if err != nil {
		driver.Release()
		closeGenerator(generator, logger)
		return nil, err
	}

	return &Service{
		backend:      backend,
		chunks:       badger.NewChunkCache(backend, options.cacheOpts...),
		guides:       badger.NewGuideCache(backend, options.cacheOpts...),
		splitter:     splitter,
		generator:    generator,
		driver:       driver,
		orchestrator: guide.NewOrchestrator(driver, guide.WithLogger(options.logger)),
		clearDelay:   options.clearDelay,
		logger:       logger,
		pending:      make(map[string]*time.Timer),
	}, nil
}

func closeGenerator(generator ai.Generator, logger *slog.Logger) {
	if c, ok := generator.(ai.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Error("error closing generator", "err", err)
		}
	}
}

// Close stops pending cache clears and releases every resource.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for key, timer := range s.pending {
		timer.Stop()
		delete(s.pending, key)
	}
	s.mu.Unlock()

	s.driver.Release()
	closeGenerator(s.generator, s.logger)

	var errs []error
	if err := s.chunks.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.guides.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing cache backend", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Prepare extracts and chunks uploads, returning the upload's content ID.
// Identical uploads are served from the chunk cache. Any guide previously
// generated for the same upload is discarded.
func (s *Service) Prepare(ctx context.Context, uploads ...document.Upload) (core.ID, []core.Chunk, error) {
	if len(uploads) == 0 {
		return 0, nil, document.ErrNoUploads
	}

	id := uploadID(uploads)
	if err := s.guides.DeleteGuides(ctx, id); err != nil {
		s.logger.Warn("error clearing guides for upload", "upload", id, "err", err)
	}

	set, err := s.chunks.GetChunks(ctx, id)
	if err == nil {
		s.logger.Debug("chunk cache hit", "upload", id, "chunks", len(set.Chunks))
		return id, set.Chunks, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return 0, nil, fmt.Errorf("read chunk cache: %w", err)
	}

	text, err := document.Extract(ctx, uploads...)
	if err != nil {
		return 0, nil, err
	}

	chunks, err := s.splitter.Split(text)
	if err != nil {
		return 0, nil, err
	}
	if len(chunks) == 0 {
		return 0, nil, ErrEmptyUpload
	}

	if err := s.chunks.PutChunks(ctx, &core.ChunkSet{UploadID: id, Chunks: chunks}); err != nil {
		// Caching is an optimization; the chunks are still usable.
		s.logger.Warn("error caching chunks", "upload", id, "err", err)
	}

	s.logger.Info("prepared upload", "upload", id, "files", len(uploads), "chunks", len(chunks))
	return id, chunks, nil
}

// uploadID derives a stable ID from file names and contents, in upload order.
func uploadID(uploads []document.Upload) core.ID {
	parts := make([][]byte, 0, len(uploads)*2)
	for _, u := range uploads {
		parts = append(parts, []byte(u.Name), u.Data)
	}
	return core.IDFromContent(parts...)
}

// Chunks returns the cached chunks of a prepared upload.
func (s *Service) Chunks(ctx context.Context, id core.ID) ([]core.Chunk, error) {
	set, err := s.chunks.GetChunks(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUpload, id)
	}
	if err != nil {
		return nil, err
	}
	return set.Chunks, nil
}

// Generate returns the guide for a prepared upload and subject, generating it
// if it is not cached. renderer receives progress while chunks are generated.
//
// Concurrent calls for the same upload and subject share one run. Only the
// caller that started the run sees progress; the others wait for its
// document. Generate returns ctx.Err() once ctx is done. A waiting caller
// whose shared run was cancelled by its starter runs again.
func (s *Service) Generate(ctx context.Context, id core.ID, subject string, renderer progress.Renderer) (*guide.Document, error) {
	if err := core.ValidateSubject(subject); err != nil {
		return nil, err
	}

	key := guideKey(id, subject)
	for {
		doc, err := s.cachedGuide(ctx, id, subject)
		if err == nil {
			s.logger.Info("guide cache hit", "upload", id, "subject", subject)
			return doc, nil
		}
		if !errors.Is(err, ErrGuideNotFound) {
			return nil, err
		}

		ch := s.flight.DoChan(key, func() (any, error) {
			return s.generate(ctx, id, subject, renderer)
		})

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res = <-ch:
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res.Err != nil {
			return nil, res.Err
		}

		run := res.Val.(*guideRun)
		if run.cancelled {
			s.logger.Debug("shared guide run was cancelled, retrying", "upload", id, "subject", subject)
			continue
		}
		return run.doc, nil
	}
}

type guideRun struct {
	doc       *guide.Document
	cancelled bool
}

func (s *Service) generate(ctx context.Context, id core.ID, subject string, renderer progress.Renderer) (*guideRun, error) {
	chunks, err := s.Chunks(ctx, id)
	if err != nil {
		return nil, err
	}

	results, completed, err := s.orchestrator.Run(ctx, chunks, subject, renderer)
	if err != nil {
		return nil, err
	}

	doc := guide.NewDocument(subject, results)
	if doc.Partial() {
		s.logger.Warn("guide is missing sections", "upload", id, "subject", subject, "failed", doc.Failed, "total", doc.Total)
	}

	// A cancelled run is not cached so the next request retries the missing chunks.
	if ctx.Err() != nil {
		return &guideRun{doc: &doc, cancelled: true}, nil
	}

	record := &core.GuideRecord{
		UploadID: id,
		Subject:  subject,
		Body:     doc.Body,
		Total:    doc.Total,
		Failed:   doc.Failed,
	}
	if err := s.guides.PutGuide(ctx, record); err != nil {
		s.logger.Warn("error caching guide", "upload", id, "subject", subject, "err", err)
	}

	s.logger.Debug("guide generated", "upload", id, "subject", subject, "completed", completed)
	return &guideRun{doc: &doc}, nil
}

func guideKey(id core.ID, subject string) string {
	return fmt.Sprintf("%d/%s", id, subject)
}

// Download returns a generated guide and schedules it to be dropped from the
// cache after the download clear delay.
func (s *Service) Download(ctx context.Context, id core.ID, subject string) (*guide.Document, error) {
	doc, err := s.cachedGuide(ctx, id, subject)
	if err != nil {
		return nil, err
	}
	s.scheduleClear(id, subject)
	return doc, nil
}

func (s *Service) cachedGuide(ctx context.Context, id core.ID, subject string) (*guide.Document, error) {
	record, err := s.guides.GetGuide(ctx, id, subject)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrGuideNotFound, subject)
	}
	if err != nil {
		return nil, err
	}
	return &guide.Document{
		Subject: record.Subject,
		Body:    record.Body,
		Total:   record.Total,
		Failed:  record.Failed,
	}, nil
}

func (s *Service) scheduleClear(id core.ID, subject string) {
	key := guideKey(id, subject)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if timer, ok := s.pending[key]; ok {
		timer.Stop()
	}

	s.pending[key] = time.AfterFunc(s.clearDelay, func() {
		s.mu.Lock()
		delete(s.pending, key)
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}

		if err := s.guides.DeleteGuide(context.Background(), id, subject); err != nil {
			s.logger.Warn("error clearing downloaded guide", "upload", id, "subject", subject, "err", err)
			return
		}
		s.logger.Debug("cleared downloaded guide", "upload", id, "subject", subject)
	})
}

// ClearCache drops every cached upload and guide.
func (s *Service) ClearCache(ctx context.Context) error {
	return errors.Join(
		s.chunks.Clear(ctx),
		s.guides.Clear(ctx),
		s.backend.RunGC(0.5),
	)
}
