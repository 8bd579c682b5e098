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
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/github"
	"github.com/starford/ansuz/internal/knowledge"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/metrics"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/sse"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) newLogger(w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// knowledgeBase wires the GitHub client and the knowledge base.
func (a *application) knowledgeBase(m *metrics.Metrics, opts ...knowledge.Option) *knowledge.Base {
	cfg := a.config
	gh := github.New(github.Config{
		BaseURL:  cfg.GitHub.BaseURL,
		Username: cfg.GitHub.Username,
		Token:    cfg.GitHub.Token,
		Timeout:  cfg.GitHub.Timeout,
	}, m)

	return knowledge.New(knowledge.Config{
		Owner:             cfg.GitHub.Username,
		ExampleRepository: cfg.Knowledge.ExampleRepository,
		DefaultBranch:     cfg.Knowledge.DefaultBranch,
		DevelopmentURL:    cfg.Knowledge.DevelopmentURL,
		ProductionURL:     cfg.Knowledge.ProductionURL,
		DocsBaseURL:       cfg.Knowledge.DocsBaseURL,
		Settings: knowledge.Settings{
			GitHubUsername: cfg.GitHub.Username,
			GitHubToken:    cfg.GitHub.Token,
			ConfigFile:     a.configFile,
			Port:           strconv.Itoa(cfg.App.HTTP.Port),
			LogLevel:       cfg.App.LogLevel.String(),
		},
	}, gh, opts...)
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.newLogger(os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("github_base_url", cfg.GitHub.BaseURL),
		slog.String("github_username", cfg.GitHub.Username),
		slog.String("log_level", cfg.App.LogLevel.String()))

	m := metrics.New()
	broker := sse.NewBroker(cfg.SSE.Throttle)

	kb := app.knowledgeBase(m,
		knowledge.WithLinkObserver(broker.RepositoryLinked),
		knowledge.WithLinkObserver(func(link *models.RepositoryLink) {
			m.RecordRepositoryLink()
			logger.Debug("repository linked", slog.String("repository", link.RepositoryName))
		}),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(api.RecoverMiddleware)
	r.Use(api.CORSMiddleware())
	r.Use(m.Middleware)

	// Health check and metrics endpoints (not rate limited).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	// Mount API routes under /api.
	r.With(api.RateLimitMiddleware(cfg.App.HTTP.RateLimit.RPS, cfg.App.HTTP.RateLimit.Burst)).
		Mount("/api", api.NewRouter(kb, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
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

		// Open event streams block Shutdown until the broker closes them.
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

// RunMCP serves the knowledge base as MCP tools over stdin/stdout. Logs go
// to stderr so they do not corrupt the protocol stream.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.newLogger(os.Stderr)

	kb := app.knowledgeBase(nil)
	srv := mcpserver.New(kb, app.version)

	logger.Info("Starting MCP server on stdio",
		slog.String("github_username", app.config.GitHub.Username),
		slog.String("version", app.version))
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
