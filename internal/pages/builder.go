package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/ButyrinIA/spacetraveling/internal/content"
	"github.com/ButyrinIA/spacetraveling/internal/metrics"
	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/ButyrinIA/spacetraveling/internal/prismic"
	"github.com/ButyrinIA/spacetraveling/internal/storage"
	"github.com/graph-gophers/dataloader/v7"
	"golang.org/x/sync/singleflight"
)

const buildTimeout = 30 * time.Second

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,199}$`)

// Fetcher looks up several posts by uid in one request.
type Fetcher interface {
	GetByKeys(ctx context.Context, documentType string, keys []string) (map[string]models.RawRecord, error)
}

type Options struct {
	DocumentType string
	Revalidate   time.Duration
	// BatchWait is how long lookups are collected before one request is sent.
	BatchWait time.Duration
	Now       func() time.Time
}

// Builder generates post pages on demand and keeps them in storage until
// the revalidation window passes.
type Builder struct {
	store        storage.Storage
	fetcher      Fetcher
	documentType string
	revalidate   time.Duration
	now          func() time.Time
	logger       *slog.Logger

	loader *dataloader.Loader[string, models.RawRecord]
	group  singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(store storage.Storage, fetcher Fetcher, opts Options, logger *slog.Logger) *Builder {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BatchWait <= 0 {
		opts.BatchWait = 5 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())

	b := &Builder{
		store:        store,
		fetcher:      fetcher,
		documentType: opts.DocumentType,
		revalidate:   opts.Revalidate,
		now:          opts.Now,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
	b.loader = dataloader.NewBatchedLoader(
		b.batchLoad,
		dataloader.WithWait[string, models.RawRecord](opts.BatchWait),
		dataloader.WithBatchCapacity[string, models.RawRecord](100),
		dataloader.WithCache[string, models.RawRecord](&dataloader.NoCache[string, models.RawRecord]{}),
	)
	return b
}

// View returns what the detail page for slug should show right now. A
// missing snapshot starts a background build and yields ViewLoading; a
// stale one is served while it is rebuilt.
func (b *Builder) View(ctx context.Context, slug string) (content.PostView, error) {
	if !slugPattern.MatchString(slug) {
		return content.NotFound(), nil
	}

	snapshot, err := b.store.GetSnapshot(ctx, slug)
	if errors.Is(err, storage.ErrNotFound) {
		b.buildInBackground(slug)
		return content.Loading(), nil
	}
	if err != nil {
		return content.PostView{}, fmt.Errorf("get snapshot %s: %w", slug, err)
	}

	if b.now().Sub(snapshot.BuiltAt) >= b.revalidate {
		b.buildInBackground(slug)
	}
	return viewOf(snapshot), nil
}

// Build generates and stores the snapshot for slug. Concurrent builds of
// the same slug share one result. The shared build runs on the builder's
// context with its own timeout, so a caller giving up only stops its wait.
func (b *Builder) Build(ctx context.Context, slug string) (*models.Snapshot, error) {
	ch := b.group.DoChan(slug, func() (any, error) {
		buildCtx, cancel := context.WithTimeout(b.ctx, buildTimeout)
		defer cancel()
		return b.build(buildCtx, slug)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Snapshot), nil
	}
}

// Invalidate drops the stored snapshot and rebuilds it in the background.
func (b *Builder) Invalidate(ctx context.Context, slug string) error {
	if err := b.store.DeleteSnapshot(ctx, slug); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", slug, err)
	}
	b.buildInBackground(slug)
	return nil
}

// Close stops background builds and waits for them to return.
func (b *Builder) Close() {
	b.cancel()
	b.wg.Wait()
}

// Wait blocks until all background builds started so far have finished.
func (b *Builder) Wait() {
	b.wg.Wait()
}

func (b *Builder) build(ctx context.Context, slug string) (*models.Snapshot, error) {
	snapshot := &models.Snapshot{Slug: slug, BuiltAt: b.now()}

	rec, err := b.loader.Load(ctx, slug)()
	switch {
	case errors.Is(err, prismic.ErrDocumentNotFound):
		metrics.PageBuilds.WithLabelValues("not_found").Inc()
	case err != nil:
		metrics.PageBuilds.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load post %s: %w", slug, err)
	default:
		post, err := content.Normalize(rec)
		if err != nil {
			metrics.PageBuilds.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("normalize post %s: %w", slug, err)
		}
		snapshot.Post = &post
		metrics.PageBuilds.WithLabelValues("ready").Inc()
	}

	if err := b.store.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save snapshot %s: %w", slug, err)
	}
	b.logger.Debug("post page built", "slug", slug, "found", snapshot.Post != nil)
	return snapshot, nil
}

func (b *Builder) buildInBackground(slug string) {
	if b.ctx.Err() != nil {
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if _, err := b.Build(b.ctx, slug); err != nil {
			b.logger.Warn("background page build failed", "slug", slug, "err", err)
		}
	}()
}

func (b *Builder) batchLoad(ctx context.Context, keys []string) []*dataloader.Result[models.RawRecord] {
	results := make([]*dataloader.Result[models.RawRecord], len(keys))

	records, err := b.fetcher.GetByKeys(ctx, b.documentType, keys)
	for i, key := range keys {
		switch rec, ok := records[key]; {
		case err != nil:
			results[i] = &dataloader.Result[models.RawRecord]{Error: err}
		case !ok:
			results[i] = &dataloader.Result[models.RawRecord]{
				Error: fmt.Errorf("%s %q: %w", b.documentType, key, prismic.ErrDocumentNotFound),
			}
		default:
			results[i] = &dataloader.Result[models.RawRecord]{Data: rec}
		}
	}
	return results
}

func viewOf(snapshot *models.Snapshot) content.PostView {
	if snapshot.Post == nil {
		return content.NotFound()
	}
	return content.Ready(*snapshot.Post)
}
