// Package file persists the remote store's snapshot as a single JSON
// document on disk. The document layout mirrors what the earliest
// deployments served verbatim, so an existing data file can be adopted
// without conversion.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ulasbyzdvr/is-takip/internal/domain"
	"github.com/ulasbyzdvr/is-takip/internal/ports"
)

// lastUpdatedLayout matches the historical data file format.
const lastUpdatedLayout = "2006-01-02 15:04:05"

var _ ports.SnapshotRepository = (*snapshotRepository)(nil)

// document is the on-disk layout / Représentation sur disque
type document struct {
	Companies   []domain.Company `json:"companies"`
	Works       []domain.Work    `json:"works"`
	LastUpdated string           `json:"last_updated,omitempty"`
}

// snapshotRepository implements SnapshotRepository on a JSON file / Implémente SnapshotRepository sur un fichier JSON
type snapshotRepository struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewSnapshotRepository creates a file-backed snapshot repository / Crée un repository d'instantanés sur fichier
func NewSnapshotRepository(path string) ports.SnapshotRepository {
	return &snapshotRepository{path: path, now: time.Now}
}

// Load reads the stored snapshot; a missing file yields an empty snapshot.
func (r *snapshotRepository) Load(_ context.Context) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, _, err := r.read()
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.Snapshot{Companies: doc.Companies, Works: doc.Works}.Normalize(), nil
}

// Save atomically replaces the stored snapshot and stamps last_updated.
func (r *snapshotRepository) Save(_ context.Context, snap domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap = snap.Normalize()
	doc := document{
		Companies:   snap.Companies,
		Works:       snap.Works,
		LastUpdated: r.now().UTC().Format(lastUpdatedLayout),
	}
	return r.write(doc)
}

// LastUpdated returns the wall-clock time of the last accepted save.
func (r *snapshotRepository) LastUpdated(_ context.Context) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok, err := r.read()
	if err != nil {
		return time.Time{}, err
	}
	if !ok || doc.LastUpdated == "" {
		return time.Time{}, nil
	}
	return time.Parse(lastUpdatedLayout, doc.LastUpdated)
}

func (r *snapshotRepository) read() (document, bool, error) {
	var doc document
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, fmt.Errorf("read data file: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, false, fmt.Errorf("decode data file %s: %w", filepath.Base(r.path), err)
	}
	return doc, true, nil
}

func (r *snapshotRepository) write(doc document) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}
