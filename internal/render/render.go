// Package render turns a post collection into the output tree of the static
// site: home page, post pages, feed, stylesheets, images, humans.txt,
// sitemap.xml and robots.txt.
package render

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/starford/blogula/internal/apperr"
	"github.com/starford/blogula/internal/models"
	"github.com/starford/blogula/internal/output"
	"github.com/starford/blogula/internal/postdb"
	"github.com/starford/blogula/pkg/config"
)

// Default heading levels. The site title is h1 and post titles h2, so
// sections start at h3.
const (
	DefaultHeadingMin = 3
	DefaultHeadingMax = 6
)

const dateFormat = "02 January 2006"

// Info describes the site.
//
// AvatarPath is an absolute path to the avatar image, or empty. HomePagePath
// and PostsDir place pages inside the output tree. SourceDir is the absolute
// posts source directory that local images are resolved against. StaticDir,
// when set, is copied verbatim to /static. Params holds free-form values
// for templates; "footer" is shown at the bottom of every page.
type Info struct {
	Title       models.Text
	Description models.Text
	URL         string
	Author      string
	Email       string
	Twitter     string
	Location    string
	AvatarPath  string
	PostsInFeed int

	HomePagePath string
	PostsDir     string
	SourceDir    string
	StaticDir    string

	Params map[string]any
}

// Renderer builds the output tree.
type Renderer struct {
	info       Info
	eval       Evaluator
	hl         *Highlighter
	tmpl       *templates
	logger     *slog.Logger
	headingMin int
	headingMax int
	now        func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger for render warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = l
	}
}

// WithCodeStyle selects the chroma style for code blocks.
func WithCodeStyle(style string) Option {
	return func(r *Renderer) {
		r.hl = NewHighlighter(style)
	}
}

// WithHeadingLevels sets the first and last HTML heading levels used for
// post sections.
func WithHeadingLevels(lo, hi int) Option {
	return func(r *Renderer) {
		r.headingMin, r.headingMax = lo, hi
	}
}

// WithClock overrides the build timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// WithTemplatesDir makes templates found in dir take precedence over the
// built-in ones.
func WithTemplatesDir(dir string) Option {
	return func(r *Renderer) {
		r.tmpl = &templates{dir: dir}
	}
}

// New returns a Renderer for the site described by info.
func New(info Info, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		info:       info,
		logger:     slog.Default(),
		headingMin: DefaultHeadingMin,
		headingMax: DefaultHeadingMax,
		now:        time.Now,
		tmpl:       &templates{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.hl == nil {
		r.hl = NewHighlighter(DefaultCodeStyle)
	}
	r.eval = Evaluator{Logger: r.logger}
	if err := r.tmpl.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Evaluator returns the inline text evaluator used by r.
func (r *Renderer) Evaluator() Evaluator { return r.eval }

// Slug returns the file name stem of a post page.
func (r *Renderer) Slug(p *models.Post) string {
	s := slug.Make(r.eval.Text(p.Title))
	if s == "" {
		s = fmt.Sprintf("post-%s-%d", p.Date.Format("2006-01-02"), p.Delta)
	}
	return s
}

// PostURL returns the site-absolute URL path of a post page.
func (r *Renderer) PostURL(p *models.Post) string {
	return "/" + path.Join(r.info.PostsDir, r.Slug(p)+".html")
}

// AbsURL prefixes a site path with the site URL.
func (r *Renderer) AbsURL(p string) string {
	return strings.TrimSuffix(r.info.URL, "/") + p
}

// Render builds the complete output tree for db.
func (r *Renderer) Render(db *postdb.DB) (*output.Dir, error) {
	root := output.NewDir(output.Crawlable)

	home, err := r.homePage(db)
	if err != nil {
		return nil, err
	}
	if err := root.Add(r.info.HomePagePath, output.NewFile("text/html", output.Crawlable, home)); err != nil {
		return nil, err
	}

	images := newImageSet()
	for _, p := range db.Posts() {
		page, assets, err := r.postPage(db, p)
		if err != nil {
			return nil, fmt.Errorf("render: post %s: %w", p.Path, err)
		}
		name := path.Join(r.info.PostsDir, r.Slug(p)+".html")
		if err := root.Add(name, output.NewFile("text/html", output.Crawlable, page)); err != nil {
			return nil, fmt.Errorf("render: post %s: %w", p.Path, err)
		}
		for _, a := range assets {
			if err := images.add(a); err != nil {
				return nil, fmt.Errorf("render: post %s: %w", p.Path, err)
			}
		}
	}

	feed, err := r.feed(db)
	if err != nil {
		return nil, err
	}
	if err := root.Add("feed.xml", output.NewFile("application/xml", output.Crawlable, feed)); err != nil {
		return nil, err
	}

	if r.info.StaticDir != "" {
		static, err := output.NewCopy(output.NonCrawlable, r.info.StaticDir)
		if err != nil {
			return nil, err
		}
		if err := root.Add("static", static); err != nil {
			return nil, err
		}
	}
	if err := root.Add("blogula.css", output.NewFile("text/css", output.NonCrawlable, r.tmpl.css)); err != nil {
		return nil, err
	}
	css, err := r.hl.CSS()
	if err != nil {
		return nil, err
	}
	if err := root.Add("code_highlight.css", output.NewFile("text/css", output.NonCrawlable, css)); err != nil {
		return nil, err
	}

	img := output.NewDir(output.Crawlable)
	if r.info.AvatarPath != "" {
		avatar, err := output.NewCopy(output.Crawlable, r.info.AvatarPath)
		if err != nil {
			return nil, fmt.Errorf("render: avatar: %w", err)
		}
		if err := img.Add(r.avatarName(), avatar); err != nil {
			return nil, err
		}
	}
	for _, a := range images.list {
		cp, err := output.NewCopy(output.Crawlable, a.Source)
		if err != nil {
			return nil, fmt.Errorf("render: image %s: %w", a.Name, err)
		}
		if err := img.Add(a.Name, cp); err != nil {
			return nil, err
		}
	}
	if err := root.Add(imgDir, img); err != nil {
		return nil, err
	}

	humans, err := r.humansTxt()
	if err != nil {
		return nil, err
	}
	if err := root.Add("humans.txt", output.NewFile("text/plain", output.Crawlable, humans)); err != nil {
		return nil, err
	}

	sitemap, err := r.sitemapXML(root, "/robots.txt")
	if err != nil {
		return nil, err
	}
	if err := root.Add("sitemap.xml", output.NewFile("application/xml", output.Crawlable, sitemap)); err != nil {
		return nil, err
	}
	robots, err := r.robotsTxt(root, "/sitemap.xml")
	if err != nil {
		return nil, err
	}
	if err := root.Add("robots.txt", output.NewFile("text/plain", output.Crawlable, robots)); err != nil {
		return nil, err
	}

	r.logger.Debug("site rendered", slog.Int("posts", db.Len()), slog.Int("images", len(images.list)))
	return root, nil
}

func (r *Renderer) avatarName() string {
	ext := strings.ToLower(filepath.Ext(r.info.AvatarPath))
	if ext == "" {
		ext = ".jpg"
	}
	return "avatar" + ext
}

func (r *Renderer) avatarURL() string {
	if r.info.AvatarPath == "" {
		return ""
	}
	return "/" + imgDir + "/" + r.avatarName()
}

// Linearize flattens a post body into line units and collects the local
// images it refers to.
func (r *Renderer) Linearize(p *models.Post) ([]LineUnit, []Asset, error) {
	l := &linearizer{
		eval:       r.eval,
		hl:         r.hl,
		headingMin: r.headingMin,
		headingMax: r.headingMax,
		postDir:    filepath.Join(r.info.SourceDir, filepath.FromSlash(path.Dir(p.Path))),
	}
	if err := l.section(p.Root, 0); err != nil {
		return nil, nil, err
	}
	return l.units, l.assets, nil
}

// imageSet deduplicates post images. Two posts may share an image; two
// different sources flattening to one name is a conflict.
type imageSet struct {
	list   []Asset
	byName map[string]string
}

func newImageSet() *imageSet {
	return &imageSet{byName: make(map[string]string)}
}

func (s *imageSet) add(a Asset) error {
	if src, ok := s.byName[a.Name]; ok {
		if src == a.Source {
			return nil
		}
		return fmt.Errorf("render: image %s from %s and %s: %w", a.Name, src, a.Source, apperr.ErrDuplicateOutput)
	}
	s.byName[a.Name] = a.Source
	s.list = append(s.list, a)
	return nil
}

// siteData is shared by every page template.
type siteData struct {
	TitleText       string
	TitleHTML       template.HTML
	DescriptionText string
	DescriptionHTML template.HTML
	Author          string
	AvatarURL       string
	URL             string
	Footer          string
}

func (r *Renderer) siteData() siteData {
	return siteData{
		TitleText:       r.eval.Text(r.info.Title),
		TitleHTML:       r.eval.HTML(r.info.Title),
		DescriptionText: r.eval.Text(r.info.Description),
		DescriptionHTML: r.eval.HTML(r.info.Description),
		Author:          r.info.Author,
		AvatarURL:       r.avatarURL(),
		URL:             r.info.URL,
		Footer:          r.param("footer"),
	}
}

// param returns the string template parameter key, or "" when it is unset
// or not a string.
func (r *Renderer) param(key string) string {
	v, err := config.Extract[string](r.info.Params, key)
	if err != nil {
		if !errors.Is(err, config.ErrKeyNotFound) {
			r.logger.Warn("ignoring site param", slog.String("key", key), slog.String("error", err.Error()))
		}
		return ""
	}
	return v
}
