package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"skin-monitor/internal/config"
	environment "skin-monitor/internal/env"
	"skin-monitor/internal/storage"
	"skin-monitor/internal/workers"
)

func main() {
	once := flag.Bool("once", false, "run a single pass of every enabled source and exit")
	dropped := flag.Int("dropped", 0, "print the latest N dropped items from the journal and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := environment.LoadConfig(ctx)
	if err != nil {
		if errors.Is(err, config.ErrInvalid) {
			log.Printf("Configuration error: %v", err)
			os.Exit(1)
		}
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *dropped > 0 {
		if err := printDropped(ctx, cfg, *dropped); err != nil {
			log.Fatalf("Failed to list dropped items: %v", err)
		}
		return
	}

	env, err := environment.Setup(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to setup environment: %v", err)
	}

	if *once {
		code := runOnce(ctx, env)
		env.Close()
		os.Exit(code)
	}

	os.Exit(run(ctx, env))
}

func run(ctx context.Context, env *environment.Env) int {
	logger := env.Logger
	logger.Info("Starting skin monitor", "workers", len(env.Services.Supervisor.Workers()))

	if srv := env.Servers.HTTP.Observability; srv != nil {
		go func() {
			logger.Info("Starting observability server", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Observability server error", slog.Any("error", err))
			}
		}()
	}

	code := 0
	if err := env.Services.Supervisor.Run(ctx); err != nil {
		logger.Error("Supervisor exited", slog.Any("error", err))
		if errors.Is(err, workers.ErrAllStopped) || errors.Is(err, workers.ErrNoWorkers) {
			code = 1
		}
	}

	logger.Info("Shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.Config.ShutdownDuration)
	defer cancel()

	if stuck := env.Services.Supervisor.Shutdown(shutdownCtx); len(stuck) > 0 {
		logger.Warn("Workers did not finish cleanly", slog.Any("workers", stuck))
	}

	if srv := env.Servers.HTTP.Observability; srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logger.Error("Observability server shutdown error", slog.Any("error", err))
		}
	}

	env.Close()

	logger.Info("Application stopped")
	return code
}

func runOnce(ctx context.Context, env *environment.Env) int {
	logger := env.Logger
	code := 0

	for _, task := range env.Services.Tasks {
		stats, err := task.RunPass(ctx)
		if err != nil {
			logger.Error("Single pass failed",
				slog.String("source", task.Name()),
				slog.Any("error", err))
			code = 1
			continue
		}
		logger.Info("Single pass completed",
			slog.String("source", task.Name()),
			slog.Int("fetched", stats.Fetched),
			slog.Int("matched", stats.Matched),
			slog.Int("published", stats.Published),
			slog.Int("dropped", stats.Dropped),
			slog.Int("skipped", stats.Skipped),
			slog.Duration("duration", stats.Duration))
	}

	return code
}

func printDropped(ctx context.Context, cfg config.Config, limit int) error {
	journal, closeJournal, err := environment.OpenJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeJournal()

	entries, err := journal.ListDropped(ctx, storage.ListDroppedCriteria{Limit: limit})
	if err != nil {
		return err
	}
	total, err := journal.CountDropped(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DROPPED AT\tSOURCE\tID\tNAME\tREASON")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.DroppedAt.Format(time.RFC3339), e.Source, e.ExternalID, e.Name, e.Reason)
	}
	fmt.Fprintf(w, "\n%d of %d entries\n", len(entries), total)
	return w.Flush()
}
