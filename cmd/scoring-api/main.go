// main is the entry point of the scoring API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger (stdout, or a rotating file)
//  3. Open the key/value store backend and wrap it in the retrying client
//  4. Build the auth gate, the scoring service and the dispatcher
//  5. Register the HTTP routes and start the server in a goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, close the store
//
// RUNNING THE SERVER:
//
//	go run ./cmd/scoring-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/scoring-api
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/otus/scoring-api/internal/api"
	"github.com/otus/scoring-api/internal/auth"
	"github.com/otus/scoring-api/internal/config"
	"github.com/otus/scoring-api/internal/http/handlers/method"
	"github.com/otus/scoring-api/internal/scoring"
	"github.com/otus/scoring-api/internal/storage"
	"github.com/otus/scoring-api/internal/storage/redis"
	"github.com/otus/scoring-api/internal/storage/sqlite"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	// Installed as the default so packages can log through slog.Info etc.
	log := setupLogger(cfg)
	slog.SetDefault(log)

	log.Info("starting scoring-api",
		slog.String("env", cfg.Env),
		slog.String("store", cfg.Store.Backend),
	)

	// ── 3. Initialise Storage ─────────────────────────────────────────────
	backend, err := openBackend(cfg)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	store := storage.NewResilient(backend, storage.Options{
		RetryCount:    cfg.Store.RetryCount,
		RetryInterval: cfg.Store.RetryInterval,
		OpTimeout:     cfg.Store.OpTimeout,
	})
	defer store.Close()

	// ── 4. Wire the Dispatcher ────────────────────────────────────────────
	gate := auth.NewGate(cfg.Auth.Salt, cfg.Auth.AdminLogin, cfg.Auth.AdminSalt)
	dispatcher := api.New(gate, scoring.Service{Store: store})

	// ── 5. Register HTTP Routes ───────────────────────────────────────────
	//   POST /method  → authenticated method call
	//   anything else → 404 envelope
	router := http.NewServeMux()
	router.Handle("POST /method", method.New(dispatcher))
	router.HandleFunc("/", method.NotFound)

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 6. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

func openBackend(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		return redis.New(cfg), nil
	case config.BackendSQLite:
		return sqlite.New(cfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Staging (staging): JSON output at DEBUG level.
// Production (prod): JSON output at INFO level.
//
// With log_file set, output goes to a size-rotated file instead of stdout.
func setupLogger(cfg *config.Config) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogRotation.MaxSizeMB,
			MaxBackups: cfg.LogRotation.MaxBackups,
			MaxAge:     cfg.LogRotation.MaxAgeDays,
		}
	}

	switch cfg.Env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(out, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
