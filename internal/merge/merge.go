// Package merge implements the last-write-wins snapshot merge shared by the
// device engine and the remote store. The same algorithm runs on both sides
// of the wire: the server applies it when accepting an upload, the client
// applies it when adopting a push result.
//
// The merge is idempotent and commutative over records with distinct
// timestamps; on an exact timestamp tie the base record wins, so the tie
// winner depends on which side is base. Both callers keep their own state as
// base, matching the remote store's historical behavior. A consequence: two
// sides holding different records under the same id and timestamp each keep
// their own copy until a strictly later edit of that record lands on either
// side. Such ties require distinct devices to fabricate identical timestamps
// for the same id, which the id scheme and wall-clock stamping make rare.
package merge

import (
	"sort"
	"time"

	"github.com/ulasbyzdvr/is-takip/internal/domain"
)

// Record is the minimal identity a collection entry needs to be mergeable.
type Record interface {
	// RecordID returns the globally unique, never-reused identifier.
	RecordID() string

	// ModifiedAt returns the last-write timestamp, falling back to the
	// creation time for legacy records without one.
	ModifiedAt() time.Time
}

// Collections merges two collections of the same entity type by identity and
// recency. The result holds exactly one record per id appearing in either
// input, sorted by id for determinism. A record present on only one side is
// kept verbatim; when both sides hold an id, the incoming record replaces the
// base record only when its timestamp is strictly later. Records are never
// merged field by field: the winner replaces the loser in full.
func Collections[T Record](base, incoming []T) []T {
	byID := make(map[string]T, len(base)+len(incoming))
	for _, rec := range base {
		byID[rec.RecordID()] = rec
	}
	for _, rec := range incoming {
		current, exists := byID[rec.RecordID()]
		if !exists || rec.ModifiedAt().After(current.ModifiedAt()) {
			byID[rec.RecordID()] = rec
		}
	}

	merged := make([]T, 0, len(byID))
	for _, rec := range byID {
		merged = append(merged, rec)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].RecordID() < merged[j].RecordID()
	})
	return merged
}

// Snapshots merges both collections of two snapshots.
func Snapshots(base, incoming domain.Snapshot) domain.Snapshot {
	return domain.Snapshot{
		Companies: Collections(base.Companies, incoming.Companies),
		Works:     Collections(base.Works, incoming.Works),
	}
}
