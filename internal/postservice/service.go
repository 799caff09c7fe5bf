// Package postservice is the read side shared by the HTTP API and the MCP
// server. It answers from the latest successful build and the search index.
package postservice

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/starford/blogula/internal/apperr"
	"github.com/starford/blogula/internal/index"
	"github.com/starford/blogula/internal/models"
	"github.com/starford/blogula/internal/parser"
	"github.com/starford/blogula/internal/postdb"
	"github.com/starford/blogula/internal/render"
)

// ErrNotReady is returned before the first build has been published.
var ErrNotReady = errors.New("postservice: no build available yet")

const dateLayout = "2006-01-02"

// PostRef points at another post.
type PostRef struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// PostSummary is a lightweight item in a list response.
type PostSummary struct {
	Path        string   `json:"path"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Date        string   `json:"date"`
	Delta       int      `json:"delta"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Series      []string `json:"series"`
}

// SeriesNav holds a post's neighbours within one series.
type SeriesNav struct {
	Series string   `json:"series"`
	Prev   *PostRef `json:"prev,omitempty"`
	Next   *PostRef `json:"next,omitempty"`
}

// PostDetail is the full representation of a post.
type PostDetail struct {
	PostSummary
	Body     string      `json:"body"`
	Checksum string      `json:"checksum"`
	Prev     *PostRef    `json:"prev,omitempty"`
	Next     *PostRef    `json:"next,omitempty"`
	Nav      []SeriesNav `json:"series_nav"`
}

// SeriesInfo is a registered series.
type SeriesInfo struct {
	Name  string `json:"name"`
	Posts int    `json:"posts"`
}

// Validation is the outcome of checking a post without building.
type Validation struct {
	Valid   bool         `json:"valid"`
	Error   string       `json:"error,omitempty"`
	Line    int          `json:"line,omitempty"`
	Post    *PostSummary `json:"post,omitempty"`
	Outline []string     `json:"outline,omitempty"`
}

// Service coordinates the build snapshot and the index.
type Service struct {
	renderer *render.Renderer
	series   *models.SeriesSet
	idx      index.PostIndex
	db       atomic.Pointer[postdb.DB]
}

// New creates a service. Nothing is served until Publish is called.
func New(renderer *render.Renderer, series *models.SeriesSet, idx index.PostIndex) *Service {
	return &Service{renderer: renderer, series: series, idx: idx}
}

// Publish makes db the snapshot answered from.
func (s *Service) Publish(db *postdb.DB) {
	s.db.Store(db)
}

// Ready reports whether a build has been published.
func (s *Service) Ready() bool {
	return s.db.Load() != nil
}

func (s *Service) snapshot() (*postdb.DB, error) {
	db := s.db.Load()
	if db == nil {
		return nil, ErrNotReady
	}
	return db, nil
}

func (s *Service) texts(ts []models.Text) []string {
	eval := s.renderer.Evaluator()
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = eval.Text(t)
	}
	return out
}

func (s *Service) summary(p *models.Post) PostSummary {
	eval := s.renderer.Evaluator()
	return PostSummary{
		Path:        p.Path,
		Title:       eval.Text(p.Title),
		URL:         s.renderer.PostURL(p),
		Date:        p.Date.Format(dateLayout),
		Delta:       p.Delta,
		Description: eval.Text(p.Description),
		Tags:        s.texts(p.Tags),
		Series:      s.texts(p.Series),
	}
}

func (s *Service) ref(p *models.Post, ok bool) *PostRef {
	if !ok {
		return nil
	}
	return &PostRef{Path: p.Path, Title: s.renderer.Evaluator().Text(p.Title), URL: s.renderer.PostURL(p)}
}

// ListPosts returns indexed posts newest first and the total match count.
func (s *Service) ListPosts(_ context.Context, q index.ListQuery) ([]PostSummary, int, error) {
	rows, total, err := s.idx.ListPosts(q)
	if err != nil {
		return nil, 0, err
	}
	items := make([]PostSummary, len(rows))
	for i, r := range rows {
		items[i] = PostSummary{
			Path:        r.Path,
			Title:       r.Title,
			URL:         r.URL,
			Date:        r.Date.Format(dateLayout),
			Delta:       r.Delta,
			Description: r.Description,
			Tags:        nonNilSlice(r.Tags),
			Series:      nonNilSlice(r.Series),
		}
	}
	return items, total, nil
}

// GetPost returns a post with its body as plain text and its neighbours.
func (s *Service) GetPost(_ context.Context, path string) (*PostDetail, error) {
	db, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	p, ok := db.Post(path)
	if !ok {
		return nil, fmt.Errorf("post %s: %w", path, apperr.ErrNotFound)
	}
	d := &PostDetail{
		PostSummary: s.summary(p),
		Body:        s.renderer.Evaluator().SectionText(p.Root),
		Checksum:    p.Checksum,
		Prev:        s.ref(db.Prev(path)),
		Next:        s.ref(db.Next(path)),
		Nav:         []SeriesNav{},
	}
	eval := s.renderer.Evaluator()
	for _, sr := range p.Series {
		d.Nav = append(d.Nav, SeriesNav{
			Series: eval.Text(sr),
			Prev:   s.ref(db.PrevInSeries(path, sr)),
			Next:   s.ref(db.NextInSeries(path, sr)),
		})
	}
	return d, nil
}

// Series lists the registered series in declaration order.
func (s *Service) Series(_ context.Context) ([]SeriesInfo, error) {
	db, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	eval := s.renderer.Evaluator()
	out := []SeriesInfo{}
	for _, sr := range db.Series() {
		posts, _ := db.SeriesPosts(sr)
		out = append(out, SeriesInfo{Name: eval.Text(sr), Posts: len(posts)})
	}
	return out, nil
}

// SeriesPosts returns the posts of the series whose plain text name (or
// markup form) is name, oldest first.
func (s *Service) SeriesPosts(_ context.Context, name string) ([]PostSummary, error) {
	db, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	eval := s.renderer.Evaluator()
	for _, sr := range db.Series() {
		if eval.Text(sr) != name && sr.Key() != name {
			continue
		}
		posts, _ := db.SeriesPosts(sr)
		out := make([]PostSummary, len(posts))
		for i, p := range posts {
			out[i] = s.summary(p)
		}
		return out, nil
	}
	return nil, fmt.Errorf("series %q: %w", name, apperr.ErrNotFound)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.idx.Search(query, limit)
}

// Validate parses a post as the build would, without touching the site.
// Markup problems are reported in the result, not as an error.
func (s *Service) Validate(_ context.Context, name, content string) *Validation {
	p, err := parser.ParsePost(s.series, name, []byte(content))
	if err != nil {
		v := &Validation{Error: err.Error()}
		var se *parser.SyntaxError
		if errors.As(err, &se) {
			v.Line = se.Pos.StartLine + 1
		}
		return v
	}

	sum := s.summary(p)
	v := &Validation{Valid: true, Post: &sum}
	eval := s.renderer.Evaluator()
	p.Root.Walk(func(level int, sec *models.Section) {
		if level > 0 {
			v.Outline = append(v.Outline, fmt.Sprintf("%d %s", level, eval.Text(sec.Title)))
		}
	})
	return v
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
