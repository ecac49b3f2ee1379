package studyguide

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/studyguide/ai"
	"github.com/poiesic/studyguide/ai/mock"
	"github.com/poiesic/studyguide/core"
	"github.com/poiesic/studyguide/document"
	"github.com/poiesic/studyguide/generation"
	"github.com/poiesic/studyguide/guide"
	"github.com/poiesic/studyguide/progress"
	"github.com/poiesic/studyguide/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, gen *mock.MockGenerator, opts ...ServiceOption) *Service {
	t.Helper()
	base := []ServiceOption{
		WithGenerator(gen),
		WithSplitterOptions(document.WithChunkSize(40), document.WithChunkOverlap(0)),
	}
	svc, err := NewService(context.Background(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func textUpload(name, text string) document.Upload {
	return document.Upload{Name: name, Data: []byte(text)}
}

const notes = "Cells are the basic unit of life.\n\nMitochondria make energy for cells.\n\nRibosomes build proteins."

func TestService_Prepare(t *testing.T) {
	svc := newTestService(t, mock.NewMockGenerator())
	ctx := context.Background()

	id, chunks, err := svc.Prepare(ctx, textUpload("bio.txt", notes))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}

	again, cached, err := svc.Prepare(ctx, textUpload("bio.txt", notes))
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, chunks, cached)

	other, _, err := svc.Prepare(ctx, textUpload("chem.txt", notes))
	require.NoError(t, err)
	assert.NotEqual(t, id, other, "file name is part of the upload identity")

	stored, err := svc.Chunks(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, chunks, stored)
}

func TestService_PrepareErrors(t *testing.T) {
	svc := newTestService(t, mock.NewMockGenerator())
	ctx := context.Background()

	_, _, err := svc.Prepare(ctx)
	assert.ErrorIs(t, err, document.ErrNoUploads)

	_, _, err = svc.Prepare(ctx, textUpload("blank.txt", "   \n  "))
	assert.ErrorIs(t, err, ErrEmptyUpload)

	_, _, err = svc.Prepare(ctx, document.Upload{Name: "deck.pptx", Data: []byte("x")})
	assert.ErrorIs(t, err, document.ErrUnsupportedFormat)
}

func TestService_GenerateAndCache(t *testing.T) {
	gen := mock.NewMockGenerator()
	svc := newTestService(t, gen)
	ctx := context.Background()

	id, chunks, err := svc.Prepare(ctx, textUpload("bio.txt", notes))
	require.NoError(t, err)

	var last int
	renderer := progress.RendererFunc(func(completed, total int) error {
		last = completed
		return nil
	})

	doc, err := svc.Generate(ctx, id, "Biology", renderer)
	require.NoError(t, err)
	assert.Equal(t, len(chunks), last)
	assert.Equal(t, "Biology", doc.Subject)
	assert.Equal(t, len(chunks), doc.Total)
	assert.Equal(t, 0, doc.Failed)
	assert.True(t, strings.HasPrefix(doc.Body, "Biology: "+chunks[0].Text+"\n\n"))
	assert.True(t, strings.HasSuffix(doc.Body, guide.Footer))
	assert.Equal(t, len(chunks), gen.CallCount())

	cached, err := svc.Generate(ctx, id, "Biology", nil)
	require.NoError(t, err)
	assert.Equal(t, doc.Body, cached.Body)
	assert.Equal(t, len(chunks), gen.CallCount(), "cached guide must not regenerate")

	_, err = svc.Generate(ctx, id, "Chemistry", nil)
	require.NoError(t, err)
	assert.Equal(t, 2*len(chunks), gen.CallCount())
}

func TestService_GeneratePartialFailure(t *testing.T) {
	gen := mock.NewMockGenerator().WithGenerateFunc(func(ctx context.Context, chunk, subject string) (string, error) {
		if strings.Contains(chunk, "Mitochondria") {
			return "", errors.New("rate limited")
		}
		return "ok", nil
	})
	svc := newTestService(t, gen)
	ctx := context.Background()

	id, _, err := svc.Prepare(ctx, textUpload("bio.txt", notes))
	require.NoError(t, err)

	doc, err := svc.Generate(ctx, id, "Biology", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Failed)
	assert.True(t, doc.Partial())
	assert.Equal(t, "ok ok"+guide.Footer, doc.Body)
}

func TestService_GenerateErrors(t *testing.T) {
	svc := newTestService(t, mock.NewMockGenerator())
	ctx := context.Background()

	_, err := svc.Generate(ctx, 12345, "Biology", nil)
	assert.ErrorIs(t, err, ErrUnknownUpload)

	_, err = svc.Generate(ctx, 12345, "a/b", nil)
	assert.Error(t, err)
}

// countingGuides counts guide lookups and can fail them.
type countingGuides struct {
	storage.GuideCache
	getErr error
	gets   atomic.Int32
}

func (g *countingGuides) GetGuide(ctx context.Context, id core.ID, subject string) (*core.GuideRecord, error) {
	g.gets.Add(1)
	if g.getErr != nil {
		return nil, g.getErr
	}
	return g.GuideCache.GetGuide(ctx, id, subject)
}

func TestService_GenerateReturnsCacheReadErrors(t *testing.T) {
	gen := mock.NewMockGenerator()
	svc := newTestService(t, gen)
	ctx := context.Background()

	id, _, err := svc.Prepare(ctx, textUpload("bio.txt", notes))
	require.NoError(t, err)

	svc.guides = &countingGuides{GuideCache: svc.guides, getErr: storage.ErrStorageClosed}

	_, err = svc.Generate(ctx, id, "Biology", nil)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.Equal(t, 0, gen.CallCount(), "a failed cache read must not start a run")

	_, err = svc.Download(ctx, id, "Biology")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestService_GenerateSharesConcurrentRuns(t *testing.T) {
	release := make(chan struct{})
	gen := mock.NewMockGenerator().WithGenerateFunc(func(ctx context.Context, chunk, subject string) (string, error) {
		<-release
		return "ok", nil
	})
	svc := newTestService(t, gen)
	ctx := context.Background()

	id, chunks, err := svc.Prepare(ctx, textUpload("bio.txt", notes))
	require.NoError(t, err)

	guides := &countingGuides{GuideCache: svc.guides}
	svc.guides = guides

	var (
		wg   sync.WaitGroup
		docs [2]*guide.Document
		errs [2]error
	)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			docs[i], errs[i] = svc.Generate(ctx, id, "Biology", nil)
		}()
	}

	require.Eventually(t, func() bool { return guides.gets.Load() == 2 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, docs[0].Body, docs[1].Body)
	assert.Equal(t, len(chunks), gen.CallCount(), "both callers must share one run")
}

func TestService_GenerateRerunsAfterStarterCancels(t *testing.T) {
	release := make(chan struct{})
	gen := mock.NewMockGenerator().WithGenerateFunc(func(ctx context.Context, chunk, subject string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-release:
			return "ok", nil
		}
	})
	svc := newTestService(t, gen)

	id, _, err := svc.Prepare(context.Background(), textUpload("bio.txt", notes))
	require.NoError(t, err)

	guides := &countingGuides{GuideCache: svc.guides}
	svc.guides = guides

	starterCtx, cancel := context.WithCancel(context.Background())
	starterErr := make(chan error, 1)
	go func() {
		_, err := svc.Generate(starterCtx, id, "Biology", nil)
		starterErr <- err
	}()
	require.Eventually(t, func() bool { return gen.CallCount() > 0 }, time.Second, time.Millisecond)

	waiterDoc := make(chan *guide.Document, 1)
	waiterErr := make(chan error, 1)
	go func() {
		doc, err := svc.Generate(context.Background(), id, "Biology", nil)
		waiterDoc <- doc
		waiterErr <- err
	}()
	require.Eventually(t, func() bool { return guides.gets.Load() == 2 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-starterErr, context.Canceled)

	require.Eventually(t, func() bool { return guides.gets.Load() >= 3 }, time.Second, time.Millisecond)
	close(release)

	doc := <-waiterDoc
	require.NoError(t, <-waiterErr)
	assert.Equal(t, 0, doc.Failed)
	assert.False(t, doc.Partial())
}

func TestService_DownloadClearsAfterDelay(t *testing.T) {
	svc := newTestService(t, mock.NewMockGenerator(), WithDownloadClearDelay(20*time.Millisecond))
	ctx := context.Background()

	id, _, err := svc.Prepare(ctx, textUpload("bio.txt", notes))
	require.NoError(t, err)

	_, err = svc.Download(ctx, id, "Biology")
	assert.ErrorIs(t, err, ErrGuideNotFound)

	generated, err := svc.Generate(ctx, id, "Biology", nil)
	require.NoError(t, err)

	downloaded, err := svc.Download(ctx, id, "Biology")
	require.NoError(t, err)
	assert.Equal(t, generated.Body, downloaded.Body)
	assert.Equal(t, "Biology_Guide.txt", downloaded.FileName())

	assert.Eventually(t, func() bool {
		_, err := svc.Download(ctx, id, "Biology")
		return errors.Is(err, ErrGuideNotFound)
	}, time.Second, 10*time.Millisecond)
}

func TestService_ReuploadDiscardsGuide(t *testing.T) {
	gen := mock.NewMockGenerator()
	svc := newTestService(t, gen)
	ctx := context.Background()

	id, chunks, err := svc.Prepare(ctx, textUpload("bio.txt", notes))
	require.NoError(t, err)
	_, err = svc.Generate(ctx, id, "Biology", nil)
	require.NoError(t, err)

	_, _, err = svc.Prepare(ctx, textUpload("bio.txt", notes))
	require.NoError(t, err)

	_, err = svc.Download(ctx, id, "Biology")
	assert.ErrorIs(t, err, ErrGuideNotFound)

	_, err = svc.Generate(ctx, id, "Biology", nil)
	require.NoError(t, err)
	assert.Equal(t, 2*len(chunks), gen.CallCount())
}

func TestService_ClearCache(t *testing.T) {
	svc := newTestService(t, mock.NewMockGenerator())
	ctx := context.Background()

	id, _, err := svc.Prepare(ctx, textUpload("bio.txt", notes))
	require.NoError(t, err)
	_, err = svc.Generate(ctx, id, "Biology", nil)
	require.NoError(t, err)

	require.NoError(t, svc.ClearCache(ctx))

	_, err = svc.Chunks(ctx, id)
	assert.ErrorIs(t, err, ErrUnknownUpload)
	_, err = svc.Download(ctx, id, "Biology")
	assert.ErrorIs(t, err, ErrGuideNotFound)
}

func TestService_CloseIdempotent(t *testing.T) {
	svc, err := NewService(context.Background(), WithGenerator(mock.NewMockGenerator()))
	require.NoError(t, err)

	assert.NoError(t, svc.Close())
	assert.NoError(t, svc.Close())
}

func TestNewService_InvalidDriverOptions(t *testing.T) {
	_, err := NewService(context.Background(),
		WithGenerator(mock.NewMockGenerator()),
		WithDriverOptions(generation.WithMaxAttempts(0)),
	)
	assert.ErrorIs(t, err, generation.ErrInvalidMaxAttempts)
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	gen, err := NewGenerator(ctx, ai.NewConfig(ai.WithAPIKey("test")))
	require.NoError(t, err)
	assert.NotNil(t, gen)

	_, err = NewGenerator(ctx, ai.NewConfig(ai.WithProvider("gemini")))
	assert.Error(t, err, "gemini requires an API key")

	_, err = NewGenerator(ctx, ai.NewConfig(ai.WithProvider("bedrock")))
	assert.Error(t, err)
}
