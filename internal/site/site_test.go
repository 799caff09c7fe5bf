package site

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/blogula/internal/apperr"
	"github.com/starford/blogula/internal/metrics"
	"github.com/starford/blogula/internal/models"
	"github.com/starford/blogula/internal/render"
	"github.com/starford/blogula/internal/testutil"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type recorder struct {
	mu       sync.Mutex
	outcomes []metrics.Outcome
	posts    int
	builds   int
}

func (r *recorder) ObserveBuildDuration(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds++
}

func (r *recorder) IncBuildOutcome(o metrics.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recorder) SetPosts(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = n
}

func newRenderer(t *testing.T, sourceDir string) *render.Renderer {
	t.Helper()
	r, err := render.New(render.Info{
		Title:        models.Words("Blog"),
		Description:  models.Words("A", "blog"),
		URL:          "https://example.com",
		Author:       "Someone",
		PostsInFeed:  10,
		HomePagePath: "index.html",
		PostsDir:     "posts",
		SourceDir:    sourceDir,
	}, render.WithLogger(quiet))
	require.NoError(t, err)
	return r
}

func TestBuilder_Build(t *testing.T) {
	dir, store := testutil.WritePosts(t, map[string]string{
		"2021.01.01 - Hello.txt":  "Series: Intro\nHello words.",
		"2021.01.05 - Second.txt": "Series: Intro\nTags: misc\nMore words.\n\n= Part =\nDeep.",
	})
	out := filepath.Join(t.TempDir(), "site")
	idx := testutil.TestDB(t)
	rec := &recorder{}

	b := NewBuilder(store, newRenderer(t, dir), models.NewSeriesSet(models.Words("Intro")), out,
		WithIndex(idx), WithRecorder(rec), WithLogger(quiet), WithWorkers(2))
	res, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.DB.Len())
	assert.Equal(t, 2, res.Index.Upserted)
	assert.FileExists(t, filepath.Join(out, "index.html"))
	assert.FileExists(t, filepath.Join(out, "posts", "hello.html"))
	assert.FileExists(t, filepath.Join(out, "sitemap.xml"))

	got, err := idx.GetPost("2021.01.05 - Second.txt")
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Title)
	assert.Equal(t, "/posts/second.html", got.URL)
	assert.Equal(t, []string{"Intro"}, got.Series)
	assert.Equal(t, []string{"misc"}, got.Tags)
	assert.Contains(t, got.Body, "= Part =")

	assert.Equal(t, []metrics.Outcome{metrics.OutcomeSuccess}, rec.outcomes)
	assert.Equal(t, 2, rec.posts)

	// An unchanged rebuild leaves the index alone.
	res, err = b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Index.Upserted)
	assert.Equal(t, 2, res.Index.Unchanged)
}

func TestBuilder_FailureKeepsPreviousSite(t *testing.T) {
	dir, store := testutil.WritePosts(t, map[string]string{
		"2021.01.01 - Hello.txt": "Hello words.",
	})
	out := filepath.Join(t.TempDir(), "site")
	rec := &recorder{}
	b := NewBuilder(store, newRenderer(t, dir), models.NewSeriesSet(), out, WithRecorder(rec), WithLogger(quiet))

	_, err := b.Build(context.Background())
	require.NoError(t, err)

	require.NoError(t, store.Write("2021.01.02 - Broken.txt", []byte("Series: Nope\nText.")))
	_, err = b.Build(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrUnknownSeries), "err = %v", err)

	assert.FileExists(t, filepath.Join(out, "posts", "hello.html"))
	_, statErr := os.Stat(filepath.Join(out, "posts", "broken.html"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, []metrics.Outcome{metrics.OutcomeSuccess, metrics.OutcomeFailed}, rec.outcomes)
}

func TestWatch_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rebuilds atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, 50*time.Millisecond, quiet, func(context.Context) {
			rebuilds.Add(1)
		})
	}()
	time.Sleep(100 * time.Millisecond)

	// a burst of writes settles into one rebuild
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "2021.01.01 - A.txt"), []byte("Text."), 0o644))
	}
	require.Eventually(t, func() bool { return rebuilds.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// new subdirectories are watched
	sub := filepath.Join(dir, "2022")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.Eventually(t, func() bool { return rebuilds.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "2022.01.01 - B.txt"), []byte("Text."), 0o644))
	require.Eventually(t, func() bool { return rebuilds.Load() == 3 }, 2*time.Second, 10*time.Millisecond)

	// hidden files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".swap"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(3), rebuilds.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestHidden(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/root/a.txt", false},
		{"/root/.tmp", true},
		{"/root/dir/.blogula-tmp-1", true},
		{"/root/.git/config", true},
		{"/root/sub/post.txt", false},
	}
	for _, tt := range tests {
		if got := hidden("/root", tt.path); got != tt.want {
			t.Errorf("hidden(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestBuilder_IndexOnly(t *testing.T) {
	dir, store := testutil.WritePosts(t, map[string]string{
		"2021.01.01 - Hello.txt": "Hello words.",
	})
	idx := testutil.TestDB(t)
	b := NewBuilder(store, newRenderer(t, dir), models.NewSeriesSet(), "", WithIndex(idx), WithLogger(quiet))

	res, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Index.Upserted)
	assert.NoFileExists(t, filepath.Join(dir, "index.html"))
}
