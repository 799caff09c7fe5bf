package postservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/blogula/internal/apperr"
	"github.com/starford/blogula/internal/index"
	"github.com/starford/blogula/internal/models"
	"github.com/starford/blogula/internal/render"
	"github.com/starford/blogula/internal/site"
	"github.com/starford/blogula/internal/testutil"
)

func newService(t *testing.T) *Service {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir, store := testutil.WritePosts(t, map[string]string{
		"2021.01.01 - One.txt":   "Series: Go\nFirst post.",
		"2021.01.02 - Two.txt":   "Tags: misc\nSecond post.",
		"2021.01.03 - Three.txt": "Series: Go\nThird post.\n\n= Part =\nMore.",
	})
	r, err := render.New(render.Info{PostsDir: "posts", HomePagePath: "index.html", SourceDir: dir}, render.WithLogger(quiet))
	require.NoError(t, err)
	series := models.NewSeriesSet(models.Words("Go"), models.Words("Empty"))
	idx := testutil.TestDB(t)

	res, err := site.NewBuilder(store, r, series, "", site.WithIndex(idx), site.WithLogger(quiet)).Build(context.Background())
	require.NoError(t, err)

	svc := New(r, series, idx)
	svc.Publish(res.DB)
	return svc
}

func TestService_NotReady(t *testing.T) {
	r, err := render.New(render.Info{PostsDir: "posts"})
	require.NoError(t, err)
	svc := New(r, models.NewSeriesSet(), testutil.TestDB(t))
	assert.False(t, svc.Ready())
	_, err = svc.GetPost(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestService_ListPosts(t *testing.T) {
	svc := newService(t)
	items, total, err := svc.ListPosts(context.Background(), index.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 3)
	assert.Equal(t, "Three", items[0].Title)
	assert.Equal(t, "/posts/three.html", items[0].URL)
	assert.Equal(t, "2021-01-03", items[0].Date)

	items, total, err = svc.ListPosts(context.Background(), index.ListQuery{Tag: "misc"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Two", items[0].Title)
}

func TestService_GetPost(t *testing.T) {
	svc := newService(t)
	d, err := svc.GetPost(context.Background(), "2021.01.03 - Three.txt")
	require.NoError(t, err)
	assert.Equal(t, "Third post.", d.Description)
	assert.Equal(t, "Third post.\n\n= Part =\n\nMore.\n", d.Body)
	require.NotNil(t, d.Prev)
	assert.Equal(t, "Two", d.Prev.Title)
	assert.Nil(t, d.Next)
	require.Len(t, d.Nav, 1)
	assert.Equal(t, "Go", d.Nav[0].Series)
	require.NotNil(t, d.Nav[0].Prev)
	assert.Equal(t, "One", d.Nav[0].Prev.Title)

	_, err = svc.GetPost(context.Background(), "missing.txt")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestService_Series(t *testing.T) {
	svc := newService(t)
	series, err := svc.Series(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []SeriesInfo{{Name: "Go", Posts: 2}, {Name: "Empty", Posts: 0}}, series)

	posts, err := svc.SeriesPosts(context.Background(), "Go")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "One", posts[0].Title)
	assert.Equal(t, "Three", posts[1].Title)

	_, err = svc.SeriesPosts(context.Background(), "Nope")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestService_Search(t *testing.T) {
	svc := newService(t)
	results, err := svc.Search(context.Background(), "Second", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2021.01.02 - Two.txt", results[0].Path)
}

func TestService_Validate(t *testing.T) {
	svc := newService(t)

	v := svc.Validate(context.Background(), "2022.02.02 - Draft.txt", "Series: Go\nIntro.\n\n= A =\nx\n\n== B ==\ny")
	assert.True(t, v.Valid)
	require.NotNil(t, v.Post)
	assert.Equal(t, "Draft", v.Post.Title)
	assert.Equal(t, []string{"1 A", "2 B"}, v.Outline)

	v = svc.Validate(context.Background(), "2022.02.02 - Draft.txt", "Intro.\n\n% formula")
	assert.False(t, v.Valid)
	assert.Contains(t, v.Error, apperr.ErrMissingFormulaBody.Error())
	assert.Equal(t, 3, v.Line)

	v = svc.Validate(context.Background(), "not-a-post.txt", "Intro.")
	assert.False(t, v.Valid)
	assert.Zero(t, v.Line)
}
