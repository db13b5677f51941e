package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	opsdesk "github.com/clearstack/opsdesk"
	"github.com/clearstack/opsdesk/internal/auth"
	"github.com/clearstack/opsdesk/internal/chatapi"
	"github.com/clearstack/opsdesk/internal/chatstore"
	"github.com/clearstack/opsdesk/internal/config"
	"github.com/clearstack/opsdesk/internal/httpapi"
	"github.com/clearstack/opsdesk/internal/notify"
	"github.com/clearstack/opsdesk/internal/repository"
	"github.com/clearstack/opsdesk/internal/roleadmin"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	repo := repository.New(nil)
	if cfg.DatabaseURL != "" {
		migrations, err := fs.Sub(opsdesk.MigrationsFS, "migrations")
		if err != nil {
			return fmt.Errorf("open migrations: %w", err)
		}
		if err := repository.RunMigrations(cfg.DatabaseURL, migrations); err != nil {
			return err
		}
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		repo = repository.New(pool)
	} else {
		slog.Warn("DATABASE_URL not set, directory operations disabled")
	}

	store, err := chatstore.Open(cfg.HistoryDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	notifier := notify.New(cfg)
	authMgr := auth.NewManager(repo, notifier)
	view := roleadmin.NewView(repo, notifier)
	remote := chatapi.NewClient(cfg.ChatAPIURL)

	server := httpapi.NewServer(httpapi.Deps{
		Cfg:      cfg,
		Auth:     authMgr,
		View:     view,
		Store:    store,
		Remote:   remote,
		Repo:     repo,
		Notifier: notifier,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      server.Handler(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
