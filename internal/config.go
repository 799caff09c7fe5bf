package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/blogula/internal/models"
	"github.com/starford/blogula/internal/parser"
	"github.com/starford/blogula/internal/postdb"
	"github.com/starford/blogula/internal/render"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

var siteURLRe = regexp.MustCompile(`^https?://[^\s/]+`)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Site   SiteConfig        `yaml:"site"`
	Paths  PathsConfig       `yaml:"paths"`
	Output OutputConfig      `yaml:"output"`
	Render RenderConfig      `yaml:"render"`
	Build  BuildConfig       `yaml:"build"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	sections := []interface{ Validate() error }{
		&c.App, &c.Site, &c.Paths, &c.Output, &c.Render, &c.Build, &c.SQLite, &c.Auth,
	}
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ResolvePaths makes every relative file system path in c relative to base,
// normally the directory holding the config file.
func (c *Config) ResolvePaths(base string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	resolve(&c.Paths.PostsDir)
	resolve(&c.Paths.OutputDir)
	resolve(&c.Paths.TemplatesDir)
	resolve(&c.Paths.StaticDir)
	resolve(&c.Site.AvatarPath)
	resolve(&c.SQLite.Path)
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SiteConfig describes the blog itself. Title, Description and every
// Series entry are inline markup.
type SiteConfig struct {
	Title       string         `yaml:"title"`
	URL         string         `yaml:"url"`
	Author      string         `yaml:"author"`
	Email       string         `yaml:"email"`
	Twitter     string         `yaml:"twitter"`
	Location    string         `yaml:"location"`
	AvatarPath  string         `yaml:"avatar_path"`
	Description string         `yaml:"description"`
	Series      []string       `yaml:"series"`
	PostsInFeed int            `yaml:"posts_in_feed"`
	Params      map[string]any `yaml:"params"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.URL, validation.Required, validation.Match(siteURLRe)),
		validation.Field(&c.Author, validation.Required),
		validation.Field(&c.Description, validation.Required),
		validation.Field(&c.PostsInFeed, validation.Min(1)),
	)
}

// SeriesSet parses the registered series.
func (c *SiteConfig) SeriesSet() (*models.SeriesSet, error) {
	series := make([]models.Text, 0, len(c.Series))
	for _, s := range c.Series {
		t, err := parser.ParseInline(s)
		if err != nil {
			return nil, fmt.Errorf("config: site series %q: %w", s, err)
		}
		series = append(series, t)
	}
	return models.NewSeriesSet(series...), nil
}

// PathsConfig locates the inputs and the output of a build.
type PathsConfig struct {
	PostsDir     string `yaml:"posts_dir"`
	OutputDir    string `yaml:"output_dir"`
	TemplatesDir string `yaml:"templates_dir"`
	StaticDir    string `yaml:"static_dir"`
}

// Validate validates the paths configuration.
func (c *PathsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PostsDir, validation.Required),
		validation.Field(&c.OutputDir, validation.Required),
	)
}

// OutputConfig places pages inside the output directory.
type OutputConfig struct {
	HomePagePath string `yaml:"homepage_path"`
	PostsDir     string `yaml:"posts_dir"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HomePagePath, validation.Required),
		validation.Field(&c.PostsDir, validation.Required),
	)
}

// RenderConfig tunes page rendering.
type RenderConfig struct {
	CodeStyle  string `yaml:"code_style"`
	HeadingMin int    `yaml:"heading_min"`
	HeadingMax int    `yaml:"heading_max"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CodeStyle, validation.Required),
		validation.Field(&c.HeadingMin, validation.Required, validation.Min(1), validation.Max(6)),
		validation.Field(&c.HeadingMax, validation.Required, validation.Min(c.HeadingMin), validation.Max(6)),
	)
}

// BuildConfig controls the build pipeline.
type BuildConfig struct {
	Workers int `yaml:"workers"`
}

// Validate validates the build configuration.
func (c *BuildConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the serve mode API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// RenderInfo converts the site and path sections into renderer input.
// Paths should already be resolved.
func (c *Config) RenderInfo() (render.Info, error) {
	title, err := parser.ParseInline(c.Site.Title)
	if err != nil {
		return render.Info{}, fmt.Errorf("config: site title: %w", err)
	}
	desc, err := parser.ParseInline(c.Site.Description)
	if err != nil {
		return render.Info{}, fmt.Errorf("config: site description: %w", err)
	}
	postsDir, err := filepath.Abs(c.Paths.PostsDir)
	if err != nil {
		return render.Info{}, fmt.Errorf("config: posts dir: %w", err)
	}
	return render.Info{
		Title:        title,
		Description:  desc,
		URL:          c.Site.URL,
		Author:       parser.NormalizeSpace(c.Site.Author),
		Email:        strings.TrimSpace(c.Site.Email),
		Twitter:      strings.TrimSpace(c.Site.Twitter),
		Location:     parser.NormalizeSpace(c.Site.Location),
		AvatarPath:   c.Site.AvatarPath,
		PostsInFeed:  c.Site.PostsInFeed,
		HomePagePath: c.Output.HomePagePath,
		PostsDir:     c.Output.PostsDir,
		SourceDir:    postsDir,
		StaticDir:    c.Paths.StaticDir,
		Params:       c.Site.Params,
	}, nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Site: SiteConfig{
			PostsInFeed: 10,
		},
		Paths: PathsConfig{
			PostsDir:  "./posts",
			OutputDir: "./public",
		},
		Output: OutputConfig{
			HomePagePath: "index.html",
			PostsDir:     "posts",
		},
		Render: RenderConfig{
			CodeStyle:  render.DefaultCodeStyle,
			HeadingMin: render.DefaultHeadingMin,
			HeadingMax: render.DefaultHeadingMax,
		},
		Build: BuildConfig{
			Workers: postdb.DefaultWorkers,
		},
		SQLite: SQLiteConfig{
			Path: "./blogula.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
