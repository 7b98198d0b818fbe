// Package service implements the remote store's snapshot operations.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ulasbyzdvr/is-takip/internal/domain"
	"github.com/ulasbyzdvr/is-takip/internal/merge"
	"github.com/ulasbyzdvr/is-takip/internal/metrics"
	"github.com/ulasbyzdvr/is-takip/internal/ports"
)

// SyncService handles snapshot upload and download / Gère le téléversement et le téléchargement d'instantanés
//
// Upload performs a read-merge-write cycle under a single mutex so two
// devices pushing at once cannot interleave between load and save. The
// merge keeps every record's latest version, so the lock only orders the
// cycles, it never rejects one.
type SyncService struct {
	repo    ports.SnapshotRepository
	metrics *metrics.Metrics
	mu      sync.Mutex
}

// NewSyncService creates sync service instance / Crée une instance du service de synchronisation
func NewSyncService(repo ports.SnapshotRepository, m *metrics.Metrics) *SyncService {
	return &SyncService{
		repo:    repo,
		metrics: m,
	}
}

// Upload merges an incoming device snapshot into the stored one and returns
// the merged, authoritative result. Re-sending the same snapshot is
// harmless: the merge is idempotent.
func (s *SyncService) Upload(ctx context.Context, incoming domain.Snapshot) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.Load(ctx)
	if err != nil {
		slog.Error("failed to load stored snapshot", "err", err)
		s.metrics.RecordUpload("failure")
		return domain.Snapshot{}, err
	}

	merged := merge.Snapshots(current, incoming)

	if err := s.repo.Save(ctx, merged); err != nil {
		slog.Error("failed to save merged snapshot", "err", err)
		s.metrics.RecordUpload("failure")
		return domain.Snapshot{}, err
	}

	s.metrics.RecordUpload("success")
	s.metrics.SetSnapshotRecords(len(merged.Companies), len(merged.Works))

	slog.Info("snapshot upload merged",
		"companies", len(merged.Companies),
		"works", len(merged.Works),
	)
	return merged, nil
}

// Download returns the full stored snapshot, tombstones included / Retourne l'instantané complet stocké
func (s *SyncService) Download(ctx context.Context) (domain.Snapshot, error) {
	snap, err := s.repo.Load(ctx)
	if err != nil {
		slog.Error("failed to load stored snapshot", "err", err)
		s.metrics.RecordDownload("failure")
		return domain.Snapshot{}, err
	}

	s.metrics.RecordDownload("success")
	return snap, nil
}

// LastUpdated reports when the store last accepted an upload / Indique quand le store a accepté le dernier téléversement
func (s *SyncService) LastUpdated(ctx context.Context) (time.Time, error) {
	return s.repo.LastUpdated(ctx)
}
