// Package state holds the device-local application state and drives the
// offline-first sync cycle around it.
//
// Every mutation follows the same path: validate, apply to the in-memory
// snapshot, then attempt delivery to the remote store. Delivery failure
// never fails the mutation; the full snapshot lands in the pending slot and
// the engine goes offline until a later sync succeeds.
package state

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ulasbyzdvr/is-takip/internal/domain"
	"github.com/ulasbyzdvr/is-takip/internal/dto"
	"github.com/ulasbyzdvr/is-takip/internal/merge"
	"github.com/ulasbyzdvr/is-takip/internal/metrics"
	"github.com/ulasbyzdvr/is-takip/internal/ports"
)

// Status describes the engine's view of the remote store / Décrit la vue du moteur sur le store distant
type Status string

const (
	StatusColdStart Status = "cold_start" // Before Start has run
	StatusOnline    Status = "online"     // Last sync attempt succeeded
	StatusOffline   Status = "offline"    // Last sync attempt failed
	StatusSyncing   Status = "syncing"    // A sync attempt is running
)

var (
	// ErrSyncInFlight is returned when a manual refresh collides with a
	// running sync attempt. The caller simply drops the request.
	ErrSyncInFlight = errors.New("a sync attempt is already running")

	// ErrNotFound is returned when a mutation targets a record that does
	// not exist or carries a tombstone.
	ErrNotFound = errors.New("record not found")
)

// Container owns the in-memory snapshot and its sync lifecycle / Possède l'instantané en mémoire et son cycle de synchronisation
type Container struct {
	transport ports.Transport
	cache     ports.CacheStore
	pending   ports.PendingStore
	metrics   *metrics.Metrics

	now   func() time.Time
	newID func() string

	mu       sync.RWMutex
	snapshot domain.Snapshot
	status   Status

	// pendingGen counts slot writes, guarded by mu. A finishing sync
	// attempt clears the slot only when the generation still matches the
	// one it delivered, so an edit parked mid-flight keeps its slot.
	pendingGen uint64

	// inFlight serializes sync attempts between mutations, manual
	// refreshes, and the auto-sync ticker.
	inFlight atomic.Bool
}

// Option customizes container construction / Personnalise la construction du conteneur
type Option func(*Container)

// WithClock overrides the wall clock, for tests / Remplace l'horloge, pour les tests
func WithClock(now func() time.Time) Option {
	return func(c *Container) { c.now = now }
}

// WithIDGenerator overrides record id generation, for tests / Remplace la génération d'id, pour les tests
func WithIDGenerator(newID func() string) Option {
	return func(c *Container) { c.newID = newID }
}

// NewContainer creates the local state container / Crée le conteneur d'état local
func NewContainer(
	transport ports.Transport,
	cache ports.CacheStore,
	pending ports.PendingStore,
	m *metrics.Metrics,
	opts ...Option,
) *Container {
	c := &Container{
		transport: transport,
		cache:     cache,
		pending:   pending,
		metrics:   m,
		now:       time.Now,
		newID:     domain.NewID,
		snapshot:  domain.Snapshot{}.Normalize(),
		status:    StatusColdStart,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start brings the container to a usable state: paint from the cache first,
// let a pending slot supersede it, and only then go to the network. Start
// never fails on connectivity; the status reports what happened.
func (c *Container) Start(ctx context.Context) {
	if snap, _, ok, err := c.cache.Get(); err != nil {
		slog.Warn("cached snapshot unreadable, starting empty", "err", err)
	} else if ok {
		c.adopt(snap)
		slog.Info("state painted from cache",
			"companies", len(snap.Companies),
			"works", len(snap.Works),
		)
	}

	snap, held, err := c.pending.Get()
	if err != nil {
		slog.Warn("pending slot unreadable", "err", err)
	}
	if held {
		// The pending snapshot carries local edits the cache predates.
		c.adopt(snap)
		c.metrics.SetPendingSlotHeld(true)
		slog.Info("pending operation found on startup, attempting delivery")
		if err := c.Refresh(ctx); err != nil {
			slog.Warn("startup delivery failed, staying offline", "err", err)
		}
		return
	}

	if err := c.Refresh(ctx); err != nil {
		slog.Warn("startup pull failed, working from local state", "err", err)
	}
}

// Refresh runs one full sync attempt. A held pending slot is delivered
// before anything is pulled, so local edits can never be overwritten by
// stale remote state. Returns ErrSyncInFlight when an attempt is already
// running.
func (c *Container) Refresh(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrSyncInFlight
	}
	defer c.inFlight.Store(false)

	c.setStatus(StatusSyncing)

	// The generation is captured before the slot is read: a mutation that
	// parks a newer snapshot after this point bumps the generation, and the
	// conditional clear in adoptServerResult then leaves its slot alone.
	c.mu.Lock()
	gen := c.pendingGen
	c.mu.Unlock()

	snap, held, err := c.pending.Get()
	if err != nil {
		slog.Warn("pending slot unreadable, falling back to pull", "err", err)
	}

	if held {
		result, err := c.transport.Push(ctx, snap)
		if err != nil {
			c.metrics.RecordSyncAttempt("push", "failure")
			c.markOffline()
			return err
		}
		c.metrics.RecordSyncAttempt("push", "success")
		c.adoptServerResult(result, gen)
		return nil
	}

	result, err := c.transport.Pull(ctx)
	if err != nil {
		c.metrics.RecordSyncAttempt("pull", "failure")
		c.markOffline()
		return err
	}
	c.metrics.RecordSyncAttempt("pull", "success")
	c.adoptServerResult(result, gen)
	return nil
}

// Snapshot returns a copy of the current state / Retourne une copie de l'état courant
func (c *Container) Snapshot() domain.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.Clone()
}

// Status returns the current connectivity status / Retourne le statut de connectivité courant
func (c *Container) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// HasPending reports whether an un-synced snapshot is waiting / Indique si un instantané non synchronisé attend
func (c *Container) HasPending() bool {
	held, err := c.pending.Has()
	if err != nil {
		slog.Warn("pending slot unreadable", "err", err)
		return false
	}
	return held
}

// AddCompany creates a company / Crée une entreprise
func (c *Container) AddCompany(ctx context.Context, input dto.CompanyInput) (domain.Company, error) {
	if err := input.Validate(); err != nil {
		return domain.Company{}, err
	}

	now := c.now()
	company := domain.Company{
		ID:        c.newID(),
		Name:      strings.TrimSpace(input.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := c.mutate(ctx, func(s *domain.Snapshot) error {
		s.Companies = append(s.Companies, company)
		return nil
	})
	return company, err
}

// UpdateCompany edits an existing company / Modifie une entreprise existante
func (c *Container) UpdateCompany(ctx context.Context, id string, input dto.CompanyInput) (domain.Company, error) {
	if err := input.Validate(); err != nil {
		return domain.Company{}, err
	}

	var updated domain.Company
	err := c.mutate(ctx, func(s *domain.Snapshot) error {
		for i := range s.Companies {
			if s.Companies[i].ID == id && !s.Companies[i].IsDeleted {
				s.Companies[i].Name = strings.TrimSpace(input.Name)
				s.Companies[i].UpdatedAt = c.now()
				updated = s.Companies[i]
				return nil
			}
		}
		return ErrNotFound
	})
	return updated, err
}

// DeleteCompany tombstones a company and every work billed to it. The
// cascade shares one timestamp so the whole deletion wins or loses a merge
// together.
func (c *Container) DeleteCompany(ctx context.Context, id string) error {
	return c.mutate(ctx, func(s *domain.Snapshot) error {
		now := c.now()
		found := false
		for i := range s.Companies {
			if s.Companies[i].ID == id && !s.Companies[i].IsDeleted {
				s.Companies[i].IsDeleted = true
				s.Companies[i].UpdatedAt = now
				found = true
				break
			}
		}
		if !found {
			return ErrNotFound
		}
		for i := range s.Works {
			if s.Works[i].CompanyID == id && !s.Works[i].IsDeleted {
				s.Works[i].IsDeleted = true
				s.Works[i].UpdatedAt = now
			}
		}
		return nil
	})
}

// AddWork records a billable work for an active company / Enregistre un travail facturable pour une entreprise active
func (c *Container) AddWork(ctx context.Context, input dto.WorkInput) (domain.Work, error) {
	if err := input.Validate(); err != nil {
		return domain.Work{}, err
	}

	now := c.now()
	work := domain.Work{
		ID:          c.newID(),
		CompanyID:   input.CompanyID,
		Amount:      input.Amount,
		Currency:    input.Currency,
		Date:        input.Date,
		Description: strings.TrimSpace(input.Description),
		ImageURI:    input.ImageURI,
		IsPaid:      input.IsPaid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := c.mutate(ctx, func(s *domain.Snapshot) error {
		company, ok := s.FindCompany(input.CompanyID)
		if !ok || company.IsDeleted {
			return ErrNotFound
		}
		s.Works = append(s.Works, work)
		return nil
	})
	return work, err
}

// UpdateWork edits an existing work / Modifie un travail existant
func (c *Container) UpdateWork(ctx context.Context, id string, input dto.WorkInput) (domain.Work, error) {
	if err := input.Validate(); err != nil {
		return domain.Work{}, err
	}

	var updated domain.Work
	err := c.mutate(ctx, func(s *domain.Snapshot) error {
		for i := range s.Works {
			if s.Works[i].ID == id && !s.Works[i].IsDeleted {
				s.Works[i].CompanyID = input.CompanyID
				s.Works[i].Amount = input.Amount
				s.Works[i].Currency = input.Currency
				s.Works[i].Date = input.Date
				s.Works[i].Description = strings.TrimSpace(input.Description)
				s.Works[i].ImageURI = input.ImageURI
				s.Works[i].IsPaid = input.IsPaid
				s.Works[i].UpdatedAt = c.now()
				updated = s.Works[i]
				return nil
			}
		}
		return ErrNotFound
	})
	return updated, err
}

// SetWorkPaid toggles the paid flag of a work / Bascule l'indicateur payé d'un travail
func (c *Container) SetWorkPaid(ctx context.Context, id string, paid bool) (domain.Work, error) {
	var updated domain.Work
	err := c.mutate(ctx, func(s *domain.Snapshot) error {
		for i := range s.Works {
			if s.Works[i].ID == id && !s.Works[i].IsDeleted {
				s.Works[i].IsPaid = paid
				s.Works[i].UpdatedAt = c.now()
				updated = s.Works[i]
				return nil
			}
		}
		return ErrNotFound
	})
	return updated, err
}

// DeleteWork tombstones a work / Pose une pierre tombale sur un travail
func (c *Container) DeleteWork(ctx context.Context, id string) error {
	return c.mutate(ctx, func(s *domain.Snapshot) error {
		for i := range s.Works {
			if s.Works[i].ID == id && !s.Works[i].IsDeleted {
				s.Works[i].IsDeleted = true
				s.Works[i].UpdatedAt = c.now()
				return nil
			}
		}
		return ErrNotFound
	})
}

// mutate applies fn to a copy of the snapshot, adopts the result, parks it
// in the pending slot, then attempts delivery. The mutation itself succeeds
// as soon as the local adoption happened; delivery failure only flips the
// engine offline.
//
// The slot is written before any delivery attempt, so a crash or failure at
// any later point leaves the edit durable on disk. The write happens under
// the state lock together with the generation bump: slot content and
// generation always move as a unit, which is what lets a finishing push
// decide safely whether the slot is still its own to clear.
func (c *Container) mutate(ctx context.Context, fn func(*domain.Snapshot) error) error {
	c.mu.Lock()
	next := c.snapshot.Clone()
	if err := fn(&next); err != nil {
		c.mu.Unlock()
		return err
	}
	next = next.Normalize()
	c.snapshot = next

	if err := c.pending.Set(next); err != nil {
		slog.Error("failed to persist pending snapshot", "err", err)
	}
	c.pendingGen++
	gen := c.pendingGen
	c.mu.Unlock()

	c.metrics.SetPendingSlotHeld(true)
	c.deliver(ctx, next, gen)
	return nil
}

// deliver tries to push an already-parked snapshot.
func (c *Container) deliver(ctx context.Context, snap domain.Snapshot, gen uint64) {
	if !c.inFlight.CompareAndSwap(false, true) {
		// A sync attempt is already running; the parked slot is picked up
		// by a later refresh or auto-sync tick.
		return
	}
	defer c.inFlight.Store(false)

	c.setStatus(StatusSyncing)

	result, err := c.transport.Push(ctx, snap)
	if err != nil {
		c.metrics.RecordSyncAttempt("push", "failure")
		c.markOffline()
		slog.Warn("delivery failed, edits parked in pending slot", "err", err)
		return
	}
	c.metrics.RecordSyncAttempt("push", "success")
	c.adoptServerResult(result, gen)
}

// adoptServerResult merges the authoritative server snapshot into the local
// one. Merging instead of replacing protects edits that raced the sync; the
// merge keeps whichever side is newer. The pending slot is cleared only when
// it still holds the snapshot this attempt delivered: an edit parked while
// the push was in flight keeps its slot, and a later refresh or auto-sync
// tick delivers it.
func (c *Container) adoptServerResult(result domain.Snapshot, gen uint64) {
	c.mu.Lock()
	merged := merge.Snapshots(c.snapshot, result)
	c.snapshot = merged
	c.status = StatusOnline

	cleared := false
	if c.pendingGen == gen {
		if err := c.pending.Clear(); err != nil {
			slog.Warn("failed to clear pending slot", "err", err)
		}
		cleared = true
	}
	c.mu.Unlock()

	if cleared {
		c.metrics.SetPendingSlotHeld(false)
	}
	c.metrics.SetOfflineMode(false)

	if err := c.cache.Put(merged, c.now()); err != nil {
		slog.Warn("failed to refresh snapshot cache", "err", err)
	}
}

func (c *Container) adopt(snap domain.Snapshot) {
	c.mu.Lock()
	c.snapshot = snap.Normalize()
	c.mu.Unlock()
}

func (c *Container) setStatus(status Status) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

func (c *Container) markOffline() {
	c.setStatus(StatusOffline)
	c.metrics.SetOfflineMode(true)
}
