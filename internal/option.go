package internal

// Run modes.
const (
	ModeBuild = "build"
	ModeServe = "serve"
	ModeMCP   = "mcp"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	mode   string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMode selects what Run does: build once, serve with live rebuilds, or
// run the MCP server on stdio. The default is ModeBuild.
func WithMode(mode string) Option {
	return func(a *application) {
		a.mode = mode
	}
}
