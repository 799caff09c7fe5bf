// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/starford/blogula/internal/api"
	"github.com/starford/blogula/internal/index"
	"github.com/starford/blogula/internal/mcpserver"
	"github.com/starford/blogula/internal/metrics"
	"github.com/starford/blogula/internal/models"
	"github.com/starford/blogula/internal/postservice"
	"github.com/starford/blogula/internal/render"
	"github.com/starford/blogula/internal/site"
	"github.com/starford/blogula/internal/sse"
	"github.com/starford/blogula/internal/storage"
)

// deps are the pieces shared by every mode.
type deps struct {
	cfg      *Config
	logger   *slog.Logger
	store    storage.Provider
	renderer *render.Renderer
	series   *models.SeriesSet
	index    *index.DB
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{mode: ModeBuild}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// stdout carries the MCP protocol, so logs go to stderr in that mode.
	var logOut io.Writer = os.Stdout
	if app.mode == ModeMCP {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("mode", app.mode),
		slog.String("posts_dir", cfg.Paths.PostsDir),
		slog.String("output_dir", cfg.Paths.OutputDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	d := &deps{cfg: cfg, logger: logger}
	if err := d.init(); err != nil {
		return err
	}
	defer d.index.Close()

	switch app.mode {
	case ModeBuild:
		return d.build(ctx)
	case ModeServe:
		return d.serve(ctx)
	case ModeMCP:
		return d.mcp(ctx)
	default:
		return fmt.Errorf("unknown mode %q", app.mode)
	}
}

func (d *deps) init() error {
	cfg := d.cfg

	info, err := cfg.RenderInfo()
	if err != nil {
		return err
	}
	if d.series, err = cfg.Site.SeriesSet(); err != nil {
		return err
	}

	ropts := []render.Option{
		render.WithLogger(d.logger),
		render.WithCodeStyle(cfg.Render.CodeStyle),
		render.WithHeadingLevels(cfg.Render.HeadingMin, cfg.Render.HeadingMax),
	}
	if cfg.Paths.TemplatesDir != "" {
		ropts = append(ropts, render.WithTemplatesDir(cfg.Paths.TemplatesDir))
	}
	if d.renderer, err = render.New(info, ropts...); err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	if d.store, err = storage.NewFS(cfg.Paths.PostsDir); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	if d.index, err = index.Open(cfg.SQLite.Path); err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	return nil
}

func (d *deps) builder(outputDir string, rec metrics.Recorder) *site.Builder {
	return site.NewBuilder(d.store, d.renderer, d.series, outputDir,
		site.WithIndex(d.index),
		site.WithRecorder(rec),
		site.WithLogger(d.logger),
		site.WithWorkers(d.cfg.Build.Workers),
	)
}

func (d *deps) build(ctx context.Context) error {
	_, err := d.builder(d.cfg.Paths.OutputDir, metrics.NoopRecorder{}).Build(ctx)
	return err
}

func (d *deps) mcp(ctx context.Context) error {
	b := d.builder("", metrics.NoopRecorder{})
	svc := postservice.New(d.renderer, d.series, d.index)

	rebuild := func(ctx context.Context) error {
		res, err := b.Build(ctx)
		if err != nil {
			return err
		}
		svc.Publish(res.DB)
		return nil
	}
	if err := rebuild(ctx); err != nil {
		return err
	}

	d.logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc, d.store, rebuild).ServeStdio()
}

func (d *deps) serve(ctx context.Context) error {
	cfg, logger := d.cfg, d.logger

	rec := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	b := d.builder(cfg.Paths.OutputDir, rec)
	svc := postservice.New(d.renderer, d.series, d.index)
	broker := sse.NewBroker()
	defer broker.Close()

	res, err := b.Build(ctx)
	if err != nil {
		return err
	}
	svc.Publish(res.DB)

	// Failed rebuilds keep the previous site and snapshot in place.
	rebuild := func(ctx context.Context) {
		res, err := b.Build(ctx)
		if err != nil {
			logger.Error("rebuild failed", slog.String("error", err.Error()))
			broker.BuildFailed(err)
			return
		}
		svc.Publish(res.DB)
		broker.Rebuilt(res.DB.Len(), res.DB.Fingerprint())
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !svc.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"building"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", rec.Handler())

	r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))
	r.Handle("/*", api.SiteHandler(cfg.Paths.OutputDir))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Rebuild on changes under the posts directory.
	g.Go(func() error {
		if err := site.Watch(gCtx, cfg.Paths.PostsDir, site.DefaultDebounce, logger, rebuild); err != nil {
			return fmt.Errorf("watch posts: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE streams end once the broker closes, so Shutdown does not wait on them.
		broker.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
