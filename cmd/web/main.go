package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/microblog/internal/config"
	"github.com/crucial707/microblog/internal/db"
	"github.com/crucial707/microblog/internal/middleware"
	"github.com/crucial707/microblog/internal/repo"
	"github.com/crucial707/microblog/internal/scheduler"
)

// limiterIdle is how long a client's rate limiter bucket is kept after its last request.
const limiterIdle = 10 * time.Minute

func main() {
	cfg := config.Load()
	slog.SetDefault(newLogger(cfg.LogFormat))

	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database FIRST
	database, err := db.Connect(ctx, cfg.DSN(), cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		fatal("connect to database", err)
	}
	defer database.Close()
	slog.Info("connected to database")

	if err := db.Run(cfg.DSN()); err != nil {
		fatal("run migrations", err)
	}

	limiter := middleware.AuthRateLimiter()
	err = scheduler.Start(ctx, cfg.StatsSchedule,
		scheduler.StatsTask(repo.NewUserRepo(database), repo.NewPostRepo(database), repo.NewFollowRepo(database)),
		scheduler.PruneTask(limiter, limiterIdle),
	)
	if err != nil {
		fatal("start scheduler", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(database, cfg, limiter),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	// Start server LAST
	slog.Info("microblog listening", "port", cfg.Port, "env", cfg.Env, "tls", cfg.TLSEnabled())
	if cfg.TLSEnabled() {
		err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("serve", err)
	}
	slog.Info("server stopped")
}

func newLogger(format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
