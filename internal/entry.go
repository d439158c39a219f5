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
	"golang.org/x/sync/errgroup"

	"github.com/starford/applebridge/internal/api"
	"github.com/starford/applebridge/internal/apps"
	"github.com/starford/applebridge/internal/bridge"
	"github.com/starford/applebridge/internal/chatdb"
	"github.com/starford/applebridge/internal/mcpserver"
	"github.com/starford/applebridge/internal/osascript"
	"github.com/starford/applebridge/internal/reload"
	"github.com/starford/applebridge/internal/sse"
	"github.com/starford/applebridge/internal/websearch"
	pkgconfig "github.com/starford/applebridge/pkg/config"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. Stdout belongs to the stdio transport.
	level := new(slog.LevelVar)
	level.Set(cfg.App.LogLevel)
	logOutput := app.logOutput
	if logOutput == nil {
		logOutput = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("transport", cfg.App.Transport),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("chat_db", cfg.Messages.ChatDB),
		slog.Duration("runner_timeout", cfg.Runner.Timeout),
		slog.String("log_level", cfg.App.LogLevel.String()))

	exec := app.executor
	if exec == nil {
		exec = &osascript.Runner{
			Interpreter: cfg.Runner.Interpreter,
			Args:        []string{"-"},
			Timeout:     cfg.Runner.Timeout,
			MaxOutput:   cfg.Runner.MaxOutput,
			Logger:      logger,
		}
	}
	b := bridge.New(exec,
		bridge.WithCodec(cfg.Codec.Codec()),
		bridge.WithTimeout(cfg.Runner.Timeout),
		bridge.WithLogger(logger),
	)

	history, closeHistory := openHistory(cfg.Messages.ChatDB, logger)
	defer closeHistory()

	search := websearch.New(
		websearch.WithEndpoint(cfg.Search.Endpoint),
		websearch.WithLocale(cfg.Search.Locale),
		websearch.WithUserAgent(cfg.Search.UserAgent),
		websearch.WithMaxResults(cfg.Search.MaxResults),
		websearch.WithPreviewLength(cfg.Search.PreviewLength),
		websearch.WithConcurrency(cfg.Search.Concurrency),
		websearch.WithTimeouts(cfg.Search.SearchTimeout, cfg.Search.FetchTimeout),
		websearch.WithMinInterval(cfg.Search.MinInterval),
		websearch.WithKeepUnfetched(cfg.Search.KeepUnfetched),
		websearch.WithLogger(logger),
	)

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	mcpSrv := mcpserver.New(
		mcpserver.NewServices(b, cfg.Notes.DefaultFolder, history, search),
		broker,
		logger,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the log level when the config file changes.
	if app.configPath != "" {
		g.Go(func() error {
			err := reload.Watch(gCtx, app.configPath, reload.DefaultDebounce, logger, func() {
				reloadConfig(app.configPath, level, logger)
			})
			if err != nil {
				logger.Warn("config watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	var httpServer *http.Server
	switch cfg.App.Transport {
	case TransportHTTP:
		httpServer = &http.Server{
			Addr:              cfg.App.HTTP.Address(),
			Handler:           newRouter(cfg, b.Executor(), broker, mcpSrv),
			ReadHeaderTimeout: 10 * time.Second,
		}

		logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

		// Start HTTP server.
		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})

	default:
		stdin, stdout := app.stdin, app.stdout
		if stdin == nil {
			stdin = os.Stdin
		}
		if stdout == nil {
			stdout = os.Stdout
		}

		logger.Info("Server starting...", slog.String("transport", TransportStdio))

		// Serve until the client closes stdin.
		g.Go(func() error {
			defer cancel()
			if err := mcpSrv.Listen(gCtx, stdin, stdout); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("stdio server error: %w", err)
			}
			logger.Info("stdio client disconnected")
			return nil
		})
	}

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
		cancel()

		if httpServer != nil {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelShutdown()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
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

// newRouter builds the HTTP transport: health checks, the status API and
// the MCP endpoint.
func newRouter(cfg *Config, exec osascript.Executor, broker *sse.Broker, mcpSrv *mcpserver.Server) chi.Router {
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
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(exec, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, broker))

	// MCP streamable HTTP endpoint.
	r.With(api.AuthMiddleware(cfg.Auth.AuthEnabled(), cfg.Auth.Token)).Handle("/mcp", mcpSrv.HTTPHandler())

	return r
}

// openHistory opens the Messages history database. A missing or unreadable
// database disables history operations instead of failing startup.
func openHistory(path string, logger *slog.Logger) (apps.History, func()) {
	if path == "" {
		return nil, func() {}
	}
	store, err := chatdb.Open(path)
	if err != nil {
		logger.Warn("message history unavailable", slog.String("path", path), slog.String("error", err.Error()))
		return nil, func() {}
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("close message history", slog.String("error", err.Error()))
		}
	}
}

// reloadConfig re-reads path and applies the settings that can change
// without a restart. Currently that is the log level.
func reloadConfig(path string, level *slog.LevelVar, logger *slog.Logger) {
	next := NewDefaultConfig()
	if err := pkgconfig.Load(path, next); err != nil {
		logger.Warn("config reload failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if level.Level() != next.App.LogLevel {
		level.Set(next.App.LogLevel)
	}
	logger.Info("Configuration reloaded",
		slog.String("path", path),
		slog.String("log_level", next.App.LogLevel.String()))
}
