package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/bharatsetu/label-auditor/internal/audit"
	"github.com/bharatsetu/label-auditor/internal/common"
	"github.com/bharatsetu/label-auditor/internal/llm/gemini"
	"github.com/bharatsetu/label-auditor/internal/ratelimit"
	"github.com/bharatsetu/label-auditor/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if cfg.Gemini.APIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set; understand requests will fail with 500 until it is provided")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Quota store: shared Postgres table when configured, else process memory
	// with a periodic sweep of expired windows.
	var quota ratelimit.Store
	if cfg.RateLimit.PostgresURL != "" {
		pg, err := ratelimit.NewPostgresStore(ctx, cfg.RateLimit.PostgresURL, logger)
		if err != nil {
			logger.Error("connecting quota store", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		quota = pg
	} else {
		mem := ratelimit.NewMemoryStore()
		mem.StartSweeper(ctx, time.Hour, logger)
		quota = mem
	}

	var auditStore *audit.Store
	if cfg.Audit.DBPath != "" {
		var err error
		auditStore, err = audit.Open(cfg.Audit.DBPath, logger)
		if err != nil {
			logger.Error("opening audit store", "error", err)
			os.Exit(1)
		}
		defer func() { _ = auditStore.Close() }()
	}

	gen := gemini.NewClient(gemini.Config{
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		BaseURL:     cfg.Gemini.BaseURL,
		Temperature: cfg.Gemini.Temperature,
		Timeout:     cfg.Gemini.Timeout,
	}, logger)

	svc := server.NewService(cfg, quota, gen, gen.Model(), auditStore, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           svc.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr, "model", gen.Model())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}
