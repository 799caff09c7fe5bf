package postdb

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/starford/blogula/internal/checksum"
	"github.com/starford/blogula/internal/models"
	"github.com/starford/blogula/internal/parser"
	"github.com/starford/blogula/internal/storage"
)

// DefaultWorkers bounds the number of posts parsed concurrently.
const DefaultWorkers = 4

// BuildOption tunes Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	workers int
	logger  *slog.Logger
}

// WithWorkers sets the parse concurrency. Values below 1 mean 1.
func WithWorkers(n int) BuildOption {
	return func(o *buildOptions) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

// WithLogger sets the logger used for build progress.
func WithLogger(l *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		o.logger = l
	}
}

// Build reads every post under the store root, parses them in parallel and
// assembles the collection. Files whose base name is not a post name are
// skipped. The first parse error aborts the build.
func Build(ctx context.Context, series *models.SeriesSet, store storage.Provider, opts ...BuildOption) (*DB, error) {
	o := buildOptions{workers: DefaultWorkers, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	files, err := store.List("")
	if err != nil {
		return nil, fmt.Errorf("postdb: list posts: %w", err)
	}

	var paths []string
	for _, f := range files {
		if parser.IsPostPath(f.Path) {
			paths = append(paths, f.Path)
		}
	}

	posts := make([]*models.Post, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i, p := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			content, err := store.Read(p)
			if err != nil {
				return fmt.Errorf("postdb: %w", err)
			}
			post, err := parser.ParsePost(series, p, content)
			if err != nil {
				return err
			}
			post.Checksum = checksum.Sum(content)
			posts[i] = post
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	db := Assemble(series, posts)
	o.logger.Debug("post collection built",
		slog.Int("files", len(files)),
		slog.Int("posts", db.Len()))
	return db, nil
}
