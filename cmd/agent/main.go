// The agent is the device-side sync daemon: it keeps the local snapshot
// alive across restarts, delivers offline edits when connectivity returns,
// and refreshes from the remote store on an interval.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ulasbyzdvr/is-takip/internal/config"
	"github.com/ulasbyzdvr/is-takip/internal/logging"
	"github.com/ulasbyzdvr/is-takip/internal/metrics"
	"github.com/ulasbyzdvr/is-takip/internal/state"
	"github.com/ulasbyzdvr/is-takip/internal/store"
	"github.com/ulasbyzdvr/is-takip/internal/syncclient"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("🚀 Starting sync agent",
		"server_url", cfg.Sync.ServerURL,
		"interval", cfg.Sync.Interval,
		"state_dir", cfg.Sync.StateDir,
	)

	transport := syncclient.New(cfg.Sync.ServerURL, cfg.Sync.APIKey, cfg.Sync.RequestTimeout)
	cache := store.NewFileCache(cfg.Sync.StateDir)
	pending := store.NewFilePending(cfg.Sync.StateDir)

	container := state.NewContainer(transport, cache, pending, metrics.NewMetrics(nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container.Start(ctx)
	slog.Info("state container started",
		"status", container.Status(),
		"pending", container.HasPending(),
	)

	auto := state.NewAutoSync(container, cfg.Sync.Interval)
	auto.Start()
	defer auto.Stop()

	<-ctx.Done()
	slog.Info("shutdown signal received, stopping sync agent")
	return nil
}
