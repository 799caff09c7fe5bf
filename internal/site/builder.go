// Package site runs the build pipeline: parse the posts directory, render
// the output tree, write it out and refresh the search index.
package site

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/blogula/internal/index"
	"github.com/starford/blogula/internal/metrics"
	"github.com/starford/blogula/internal/models"
	"github.com/starford/blogula/internal/output"
	"github.com/starford/blogula/internal/postdb"
	"github.com/starford/blogula/internal/render"
	"github.com/starford/blogula/internal/storage"
)

// Builder builds the whole site from a posts directory.
type Builder struct {
	store     storage.Provider
	renderer  *render.Renderer
	series    *models.SeriesSet
	outputDir string

	index    index.PostIndex
	recorder metrics.Recorder
	logger   *slog.Logger
	workers  int
}

// Option configures a Builder.
type Option func(*Builder)

// WithIndex syncs idx after every successful build.
func WithIndex(idx index.PostIndex) Option {
	return func(b *Builder) {
		b.index = idx
	}
}

// WithRecorder reports build metrics to rec.
func WithRecorder(rec metrics.Recorder) Option {
	return func(b *Builder) {
		b.recorder = rec
	}
}

// WithLogger sets the build logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// WithWorkers bounds how many posts are parsed in parallel.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		b.workers = n
	}
}

// NewBuilder returns a Builder that reads posts from store and writes the
// rendered site to outputDir. An empty outputDir skips rendering and
// writing; only the index is refreshed.
func NewBuilder(store storage.Provider, renderer *render.Renderer, series *models.SeriesSet, outputDir string, opts ...Option) *Builder {
	b := &Builder{
		store:     store,
		renderer:  renderer,
		series:    series,
		outputDir: outputDir,
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
		workers:   postdb.DefaultWorkers,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Result describes a finished build.
type Result struct {
	DB       *postdb.DB
	Index    index.SyncStats
	Duration time.Duration
}

// Build runs the pipeline once. On error nothing under outputDir has been
// replaced and the index is untouched.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	res, err := b.build(ctx)
	elapsed := time.Since(start)
	b.recorder.ObserveBuildDuration(elapsed)
	if err != nil {
		b.recorder.IncBuildOutcome(metrics.OutcomeFailed)
		return nil, err
	}
	res.Duration = elapsed
	b.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
	b.recorder.SetPosts(res.DB.Len())

	b.logger.Info("site built",
		slog.Int("posts", res.DB.Len()),
		slog.Int("indexed", res.Index.Upserted),
		slog.Int("removed", res.Index.Deleted),
		slog.Duration("duration", elapsed))
	return res, nil
}

func (b *Builder) build(ctx context.Context) (*Result, error) {
	db, err := postdb.Build(ctx, b.series, b.store,
		postdb.WithWorkers(b.workers),
		postdb.WithLogger(b.logger))
	if err != nil {
		return nil, err
	}

	if b.outputDir != "" {
		root, err := b.renderer.Render(db)
		if err != nil {
			return nil, err
		}
		if err := output.Write(ctx, b.outputDir, root); err != nil {
			return nil, err
		}
	}

	res := &Result{DB: db}
	if b.index != nil {
		stats, err := index.Sync(b.index, Rows(db, b.renderer), b.logger)
		if err != nil {
			return nil, fmt.Errorf("site: sync index: %w", err)
		}
		res.Index = stats
	}
	return res, nil
}

// Rows converts db into index rows, text fields evaluated to plain text.
func Rows(db *postdb.DB, r *render.Renderer) []index.PostRow {
	eval := r.Evaluator()
	texts := func(ts []models.Text) []string {
		out := make([]string, len(ts))
		for i, t := range ts {
			out[i] = eval.Text(t)
		}
		return out
	}

	posts := db.Posts()
	rows := make([]index.PostRow, len(posts))
	for i, p := range posts {
		rows[i] = index.PostRow{
			Path:        p.Path,
			Title:       eval.Text(p.Title),
			URL:         r.PostURL(p),
			Date:        p.Date,
			Delta:       p.Delta,
			Description: eval.Text(p.Description),
			Tags:        texts(p.Tags),
			Series:      texts(p.Series),
			Body:        eval.SectionText(p.Root),
			Checksum:    p.Checksum,
		}
	}
	return rows
}
