package store

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/ulasbyzdvr/is-takip/internal/domain"
	"github.com/ulasbyzdvr/is-takip/internal/ports"
)

var _ ports.CacheStore = (*FileCache)(nil)

// cacheDocument is the on-disk shape of the local cache / Forme sur disque du cache local
type cacheDocument struct {
	Companies []domain.Company `json:"companies"`
	Works     []domain.Work    `json:"works"`
	CachedAt  time.Time        `json:"cachedAt"`
}

// FileCache stores the last snapshot known to have come from the remote
// store, already merged. It exists only for fast offline startup and is never
// authoritative over a pending operation slot.
type FileCache struct {
	path string
	mu   sync.Mutex
}

// NewFileCache creates a cache store under dir / Crée un cache sous dir
func NewFileCache(dir string) *FileCache {
	return &FileCache{path: filepath.Join(dir, cacheFileName)}
}

// Put overwrites the cached snapshot / Écrase l'instantané en cache
func (c *FileCache) Put(snap domain.Snapshot, cachedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap = snap.Normalize()
	doc := cacheDocument{Companies: snap.Companies, Works: snap.Works, CachedAt: cachedAt}
	return writeDocument(c.path, doc)
}

// Get returns the cached snapshot if one exists / Retourne l'instantané en cache s'il existe
func (c *FileCache) Get() (domain.Snapshot, time.Time, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var doc cacheDocument
	ok, err := readDocument(c.path, &doc)
	if err != nil || !ok {
		return domain.Snapshot{}, time.Time{}, false, err
	}
	snap := domain.Snapshot{Companies: doc.Companies, Works: doc.Works}.Normalize()
	return snap, doc.CachedAt, true, nil
}

// Clear drops the cached snapshot / Supprime l'instantané en cache
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return removeDocument(c.path)
}
