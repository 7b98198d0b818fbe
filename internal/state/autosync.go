package state

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// AutoSync retries pending deliveries on a fixed interval / Relance les livraisons en attente à intervalle fixe
//
// It only acts while a pending slot is held: when the device is in sync
// with the remote store there is nothing to deliver and the tick is a
// no-op. A tick that collides with a running sync attempt is dropped, not
// queued.
type AutoSync struct {
	container *Container
	interval  time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewAutoSync creates the background retry loop / Crée la boucle de relance en arrière-plan
func NewAutoSync(container *Container, interval time.Duration) *AutoSync {
	return &AutoSync{
		container: container,
		interval:  interval,
	}
}

// Start launches the ticker goroutine / Démarre la goroutine du ticker
func (a *AutoSync) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})

	go func() {
		defer close(a.done)

		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		slog.Info("auto-sync started", "interval", a.interval)
		for {
			select {
			case <-ticker.C:
				a.tick(ctx)
			case <-ctx.Done():
				slog.Info("auto-sync stopped")
				return
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit / Annule la boucle et attend sa sortie
func (a *AutoSync) Stop() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	<-a.done
}

// tick delivers the pending slot if one is held.
func (a *AutoSync) tick(ctx context.Context) {
	if !a.container.HasPending() {
		return
	}

	err := a.container.Refresh(ctx)
	switch {
	case err == nil:
		slog.Info("auto-sync delivered pending snapshot")
	case errors.Is(err, ErrSyncInFlight):
		// Another attempt is running; this tick is simply dropped.
	default:
		slog.Warn("auto-sync attempt failed", "err", err)
	}
}
