package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/carelog/carelog/internal/config"
	"github.com/carelog/carelog/internal/engine"
	"github.com/carelog/carelog/internal/guard"
	"github.com/carelog/carelog/internal/logger"
	"github.com/carelog/carelog/internal/queue"
	"github.com/carelog/carelog/internal/remote"
	"github.com/carelog/carelog/internal/scheduler"
	"github.com/carelog/carelog/internal/store"
	"github.com/carelog/carelog/internal/vault"
	"github.com/carelog/carelog/internal/workers"
	"github.com/carelog/carelog/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.New("carelog")
	cfg, err := config.Get()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open storage")
	}
	defer db.Close()

	durable := store.New(db, store.NewMemoryCache(cfg.Storage.CacheMaxBytes), log)

	v := vault.New(vault.KDFParams{
		Time:      cfg.Vault.ArgonTime,
		MemoryKiB: cfg.Vault.ArgonMemoryKiB,
		Threads:   cfg.Vault.ArgonThreads,
	}, log)

	replayGuard, err := guard.New(cfg.Sync)
	if err != nil {
		log.Fatal().Err(err).Msg("create replay guard")
	}

	q := queue.New(db, replayGuard, scheduler.Backoff, cfg.Sync.MaxRetries, log)

	sender := remote.NewHTTPSender(remote.ClientConfig{Timeout: cfg.Sync.RequestTimeout})

	onTerminal := func(tf models.TerminalFailure) {
		log.Warn().
			Str("id", tf.Item.ID).
			Str("target", tf.Item.Target).
			Str("reason", tf.Reason).
			Msg("outbound operation failed terminally")
	}

	sched := scheduler.New(q, replayGuard, sender, cfg.Sync, onTerminal, log)

	eng := engine.New(v, durable, q, sched, sender, log)
	defer eng.Lock()

	log.Info().Str("dsn", cfg.Storage.DSN).Msg("engine ready")

	// Blocks until SIGINT/SIGTERM cancels ctx; the UI layer drives eng
	// from its own goroutines in the meantime.
	workers.New(sched).Run(ctx)

	log.Info().Msg("shutdown complete")
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
