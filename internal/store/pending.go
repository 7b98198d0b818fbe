package store

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ulasbyzdvr/is-takip/internal/domain"
	"github.com/ulasbyzdvr/is-takip/internal/ports"
)

var _ ports.PendingStore = (*FilePending)(nil)

// pendingDocument is the on-disk shape of the pending slot / Forme sur disque du créneau en attente
type pendingDocument struct {
	Companies []domain.Company `json:"companies"`
	Works     []domain.Work    `json:"works"`
	SavedAt   time.Time        `json:"savedAt"`
}

// FilePending is the single-slot store for an un-synced local snapshot.
// Set always overwrites: the snapshot at any instant already carries the
// cumulative effect of every offline edit, so holding more than one entry
// would only reintroduce replay-ordering problems.
type FilePending struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewFilePending creates a pending slot store under dir / Crée un créneau en attente sous dir
func NewFilePending(dir string) *FilePending {
	return &FilePending{
		path: filepath.Join(dir, pendingFileName),
		now:  time.Now,
	}
}

// Set unconditionally overwrites the held snapshot / Écrase sans condition l'instantané détenu
func (p *FilePending) Set(snap domain.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap = snap.Normalize()
	doc := pendingDocument{Companies: snap.Companies, Works: snap.Works, SavedAt: p.now()}
	return writeDocument(p.path, doc)
}

// Get returns the held snapshot if one exists / Retourne l'instantané détenu s'il existe
func (p *FilePending) Get() (domain.Snapshot, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var doc pendingDocument
	ok, err := readDocument(p.path, &doc)
	if err != nil || !ok {
		return domain.Snapshot{}, false, err
	}
	return domain.Snapshot{Companies: doc.Companies, Works: doc.Works}.Normalize(), true, nil
}

// Has reports whether a snapshot is held / Indique si un instantané est détenu
func (p *FilePending) Has() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := os.Stat(p.path); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// Clear empties the slot / Vide le créneau
func (p *FilePending) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return removeDocument(p.path)
}
