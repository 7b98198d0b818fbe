package ports

import (
	"context"
	"time"

	"github.com/ulasbyzdvr/is-takip/internal/domain"
)

// Transport moves full snapshots to and from the remote store / Déplace les instantanés complets vers et depuis le store distant
//
// Both operations are idempotent at the protocol level: repeating a push with
// the same snapshot produces the same merged result. Callers never
// distinguish failure causes beyond "treat as offline".
type Transport interface {
	// Pull fetches the remote store's current full snapshot / Récupère l'instantané complet courant du store distant
	Pull(ctx context.Context) (domain.Snapshot, error)

	// Push sends a full local snapshot; the remote store merges it against
	// what it holds and returns the merged, authoritative result.
	Push(ctx context.Context, snap domain.Snapshot) (domain.Snapshot, error)
}

// CacheStore holds the last known-good snapshot from the remote store / Conserve le dernier instantané valide du store distant
//
// Used only to paint state instantly before any network round trip; never
// authoritative over a non-empty pending slot.
type CacheStore interface {
	// Put overwrites the cached snapshot / Écrase l'instantané en cache
	Put(snap domain.Snapshot, cachedAt time.Time) error

	// Get returns the cached snapshot, its cache time, and whether one exists / Retourne l'instantané en cache s'il existe
	Get() (domain.Snapshot, time.Time, bool, error)

	// Clear drops the cached snapshot / Supprime l'instantané en cache
	Clear() error
}

// PendingStore is the single-slot holding area for an un-synced local
// snapshot. It is deliberately not a log: the in-memory snapshot already
// carries the cumulative effect of every offline edit, so Set always
// overwrites.
type PendingStore interface {
	// Set unconditionally overwrites any held snapshot / Écrase sans condition l'instantané détenu
	Set(snap domain.Snapshot) error

	// Get returns the held snapshot and whether one exists / Retourne l'instantané détenu s'il existe
	Get() (domain.Snapshot, bool, error)

	// Has reports whether a snapshot is held / Indique si un instantané est détenu
	Has() (bool, error)

	// Clear empties the slot / Vide le créneau
	Clear() error
}

// SnapshotRepository persists the remote store's authoritative snapshot / Persiste l'instantané autoritaire du store distant
type SnapshotRepository interface {
	// Load returns the current snapshot, empty when nothing was stored yet / Retourne l'instantané courant
	Load(ctx context.Context) (domain.Snapshot, error)

	// Save replaces the stored snapshot / Remplace l'instantané stocké
	Save(ctx context.Context, snap domain.Snapshot) error

	// LastUpdated returns when the last save was accepted, zero when never / Retourne le moment du dernier enregistrement accepté
	LastUpdated(ctx context.Context) (time.Time, error)
}
