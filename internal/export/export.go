// Package export writes the whole blog as static HTML files.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ButyrinIA/spacetraveling/internal/content"
	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/ButyrinIA/spacetraveling/internal/server"
	"golang.org/x/sync/errgroup"
)

type PageBuilder interface {
	Build(ctx context.Context, slug string) (*models.Snapshot, error)
}

type Options struct {
	DocumentType string
	PageSize     int
	// Concurrency limits parallel post builds.
	Concurrency int
}

type Exporter struct {
	cms    server.Lister
	pages  PageBuilder
	render *server.Renderer
	opts   Options
	logger *slog.Logger
}

func New(cms server.Lister, pages PageBuilder, render *server.Renderer, opts Options, logger *slog.Logger) *Exporter {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Exporter{cms: cms, pages: pages, render: render, opts: opts, logger: logger}
}

// Run walks every listing page, writes index.html with all posts and one
// post/<slug>/index.html per post. It returns the number of posts written.
func (e *Exporter) Run(ctx context.Context, outDir string) (int, error) {
	posts, err := e.listAll(ctx)
	if err != nil {
		return 0, err
	}

	if err := writeFile(filepath.Join(outDir, "index.html"), func(f *os.File) error {
		return e.render.Listing(f, posts, false, "")
	}); err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	written := 0
	for _, post := range posts {
		if !safeSlug(post.ID) {
			e.logger.Warn("skipping post with unsafe slug", "slug", post.ID)
			continue
		}
		written++
		g.Go(func() error {
			snapshot, err := e.pages.Build(gctx, post.ID)
			if err != nil {
				return err
			}
			view := content.NotFound()
			if snapshot.Post != nil {
				view = content.Ready(*snapshot.Post)
			}
			path := filepath.Join(outDir, "post", post.ID, "index.html")
			return writeFile(path, func(f *os.File) error {
				return e.render.Post(f, view)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	e.logger.Info("static export finished", "posts", written, "out", outDir)
	return written, nil
}

func (e *Exporter) listAll(ctx context.Context) ([]models.Post, error) {
	docType := e.opts.DocumentType
	first, err := e.cms.QueryFirstPage(ctx, docType, server.ListingFields(docType), e.opts.PageSize)
	if err != nil {
		return nil, fmt.Errorf("query first page: %w", err)
	}

	ctrl := content.NewController(e.cms, content.WithDuplicateHook(func(id string) {
		e.logger.Warn("duplicate post dropped from export", "id", id)
	}))
	if err := ctrl.Initialize(first); err != nil {
		return nil, err
	}
	for {
		err := ctrl.LoadNextPage(ctx)
		if errors.Is(err, content.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, err
		}
		e.logger.Debug("listing page loaded", "posts", ctrl.Len())
	}
	return ctrl.Posts(), nil
}

func safeSlug(slug string) bool {
	return slug != "" && filepath.IsLocal(slug) && !strings.ContainsAny(slug, `/\`)
}

func writeFile(path string, fill func(f *os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
