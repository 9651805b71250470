// Command maquette is the content-operations dashboard service: template
// and category storage, asset uploads, and the template render pipeline.
//
// Usage:
//
//	maquette -config maquette.yaml
//	maquette -listen :8086 -db db/maquette.db
//	maquette -mcp             # additionally serve MCP tools on stdio
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/atelierlab/maquette/dashboard"
	"github.com/atelierlab/maquette/dbopen"
	"github.com/atelierlab/maquette/eventlog"
	"github.com/atelierlab/maquette/fetch"
	"github.com/atelierlab/maquette/render"
	"github.com/atelierlab/maquette/renderq"
	"github.com/atelierlab/maquette/store"
)

func main() {
	configPath := flag.String("config", "", "path to maquette.yaml config file")
	listen := flag.String("listen", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "sqlite database path (overrides config)")
	mcpStdio := flag.Bool("mcp", false, "serve MCP tools on stdio alongside HTTP")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	flag.Parse()

	cfg := dashboard.DefaultConfig()
	if *configPath != "" {
		loaded, err := dashboard.LoadConfig(*configPath)
		if err != nil {
			slog.Error("config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if v := os.Getenv("PORT"); v != "" && *listen == "" {
		cfg.Listen = ":" + v
	}
	if v := os.Getenv("MAQUETTE_DB"); v != "" {
		cfg.DBPath = v
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg, *mcpStdio); err != nil {
		logger.Error("maquette: fatal", "error", err)
		os.Exit(1)
	}
}

func level(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *dashboard.Config, mcpStdio bool) error {
	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		return err
	}
	defer db.Close()

	st := store.New(db)
	if err := st.Init(ctx); err != nil {
		return err
	}

	events := eventlog.New(db)
	if err := events.Init(ctx); err != nil {
		return err
	}

	engine := render.NewRodEngine(render.RodConfig{
		Bin:       cfg.Render.ChromeBin,
		NoSandbox: cfg.Render.NoSandbox,
		Logger:    logger,
	})
	pipeline := render.NewPipeline(render.Config{
		Engine:        engine,
		Fetcher:       fetch.New(fetch.Config{}),
		Badges:        dashboard.BadgeResolver{Store: st},
		FontPath:      cfg.Render.FontPath,
		RemoteFontURL: cfg.Render.RemoteFontURL,
		LoadTimeout:   time.Duration(cfg.Render.TimeoutSeconds) * time.Second,
		Logger:        logger,
	})
	pool := render.NewPool(pipeline, cfg.Render.MaxConcurrent, logger)

	queue := renderq.New(db, renderq.Options{
		Visibility:  time.Duration(cfg.Queue.VisibilitySeconds) * time.Second,
		MaxAttempts: cfg.Queue.MaxAttempts,
		Logger:      logger,
	})
	if err := queue.Init(ctx); err != nil {
		return err
	}

	svc := dashboard.New(cfg, st, pool, queue, events, logger)
	go svc.RunWorkers(ctx)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	svc.RegisterHTTP(r)

	if mcpStdio {
		srv := mcp.NewServer(&mcp.Implementation{Name: "maquette", Version: "1.0.0"}, nil)
		svc.RegisterMCP(srv)
		go func() {
			if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				logger.Error("mcp server", "error", err)
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("maquette: listening", "addr", cfg.Listen, "db", cfg.DBPath)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("maquette: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
