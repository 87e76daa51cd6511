// Package main запускает клиент ресторана JGAA Thai.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/jgaa-thai/restaurant-client/internal/backend"
	"github.com/jgaa-thai/restaurant-client/internal/cart"
	"github.com/jgaa-thai/restaurant-client/internal/config"
	"github.com/jgaa-thai/restaurant-client/internal/control"
	"github.com/jgaa-thai/restaurant-client/internal/notify"
	"github.com/jgaa-thai/restaurant-client/internal/session"
	"github.com/jgaa-thai/restaurant-client/internal/snapshot"
	"github.com/jgaa-thai/restaurant-client/internal/store"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	saver, err := snapshot.Open(ctx, cfg.SnapshotURI)
	if err != nil {
		sugar.Fatalw("snapshot storage initialization error", "error", err.Error())
	}
	defer saver.Close()

	st := store.New()

	restored, err := saver.Load(ctx)
	switch {
	case err == nil:
		st.Replace(restored)
		sugar.Infow("state restored from snapshot")
	case errors.Is(err, snapshot.ErrNoSnapshot):
		sugar.Infow("no stored snapshot, starting fresh")
	default:
		// Восстановление best-effort: повреждённый снимок не мешает запуску.
		sugar.Warnw("snapshot restore failed, starting fresh", "error", err.Error())
	}

	notifier := notify.NewLog(logger)
	backendClient := backend.NewClient(cfg.BackendAddress)
	cartService := cart.NewService(st, backendClient, notifier, logger, cfg.SyncInterval)
	sessions := session.NewManager(st, notifier, cartService, backendClient, logger)

	// Восстановленные сессии перепроверяются до приёма запросов.
	sessions.Resume(ctx)

	h := control.NewHandler(st, sessions, cartService, backendClient, notifier, logger)
	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Цикл сохранения: каждый подтверждённый снимок уходит в хранилище.
	g.Go(func() error {
		changes, cancel := st.Subscribe()
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-changes:
				saveCtx, cancelSave := context.WithTimeout(context.Background(), 5*time.Second)
				if err := saver.Save(saveCtx, st.Snapshot()); err != nil {
					sugar.Warnw("snapshot save failed", "error", err.Error())
				}
				cancelSave()
			}
		}
	})

	// Запуск локальной поверхности управления
	g.Go(func() error {
		sugar.Infow("starting jgaa client", "addr", cfg.RunAddress, "backend", cfg.BackendAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down...")

		cartService.StopSync()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		// Финальный снимок перед выходом.
		if err := saver.Save(shutdownCtx, st.Snapshot()); err != nil {
			sugar.Warnw("final snapshot save failed", "error", err.Error())
		}

		sugar.Info("client stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
