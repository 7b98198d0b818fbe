package mocks

import (
	"context"
	"time"

	"github.com/ulasbyzdvr/is-takip/internal/domain"
	"github.com/ulasbyzdvr/is-takip/internal/ports"
)

var (
	_ ports.CacheStore         = (*MockCacheStore)(nil)
	_ ports.PendingStore       = (*MockPendingStore)(nil)
	_ ports.SnapshotRepository = (*MockSnapshotRepository)(nil)
)

// MockCacheStore is a mock implementation of ports.CacheStore for testing
type MockCacheStore struct {
	// Mock data storage
	Snapshot domain.Snapshot
	CachedAt time.Time
	Held     bool

	// Mock behavior flags
	PutError   error
	GetError   error
	ClearError error

	// Call tracking
	PutCalls   int
	GetCalls   int
	ClearCalls int
}

func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{}
}

func (m *MockCacheStore) Put(snap domain.Snapshot, cachedAt time.Time) error {
	m.PutCalls++
	if m.PutError != nil {
		return m.PutError
	}
	m.Snapshot = snap.Clone()
	m.CachedAt = cachedAt
	m.Held = true
	return nil
}

func (m *MockCacheStore) Get() (domain.Snapshot, time.Time, bool, error) {
	m.GetCalls++
	if m.GetError != nil {
		return domain.Snapshot{}, time.Time{}, false, m.GetError
	}
	if !m.Held {
		return domain.Snapshot{}, time.Time{}, false, nil
	}
	return m.Snapshot.Clone(), m.CachedAt, true, nil
}

func (m *MockCacheStore) Clear() error {
	m.ClearCalls++
	if m.ClearError != nil {
		return m.ClearError
	}
	m.Held = false
	m.Snapshot = domain.Snapshot{}
	return nil
}

// MockPendingStore is a mock implementation of ports.PendingStore for testing
type MockPendingStore struct {
	// Mock data storage
	Snapshot domain.Snapshot
	Held     bool

	// Mock behavior flags
	SetError   error
	GetError   error
	HasError   error
	ClearError error

	// Call tracking
	SetCalls   int
	GetCalls   int
	HasCalls   int
	ClearCalls int
}

func NewMockPendingStore() *MockPendingStore {
	return &MockPendingStore{}
}

func (m *MockPendingStore) Set(snap domain.Snapshot) error {
	m.SetCalls++
	if m.SetError != nil {
		return m.SetError
	}
	m.Snapshot = snap.Clone()
	m.Held = true
	return nil
}

func (m *MockPendingStore) Get() (domain.Snapshot, bool, error) {
	m.GetCalls++
	if m.GetError != nil {
		return domain.Snapshot{}, false, m.GetError
	}
	if !m.Held {
		return domain.Snapshot{}, false, nil
	}
	return m.Snapshot.Clone(), true, nil
}

func (m *MockPendingStore) Has() (bool, error) {
	m.HasCalls++
	if m.HasError != nil {
		return false, m.HasError
	}
	return m.Held, nil
}

func (m *MockPendingStore) Clear() error {
	m.ClearCalls++
	if m.ClearError != nil {
		return m.ClearError
	}
	m.Held = false
	m.Snapshot = domain.Snapshot{}
	return nil
}

// MockSnapshotRepository is a mock implementation of ports.SnapshotRepository for testing
type MockSnapshotRepository struct {
	// Mock data storage
	Snapshot  domain.Snapshot
	UpdatedAt time.Time

	// Mock behavior flags
	LoadError error
	SaveError error

	// Call tracking
	LoadCalls int
	SaveCalls int
}

func NewMockSnapshotRepository() *MockSnapshotRepository {
	return &MockSnapshotRepository{Snapshot: domain.Snapshot{}.Normalize()}
}

func (m *MockSnapshotRepository) Load(_ context.Context) (domain.Snapshot, error) {
	m.LoadCalls++
	if m.LoadError != nil {
		return domain.Snapshot{}, m.LoadError
	}
	return m.Snapshot.Clone(), nil
}

func (m *MockSnapshotRepository) Save(_ context.Context, snap domain.Snapshot) error {
	m.SaveCalls++
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Snapshot = snap.Clone()
	m.UpdatedAt = time.Now()
	return nil
}

func (m *MockSnapshotRepository) LastUpdated(_ context.Context) (time.Time, error) {
	return m.UpdatedAt, nil
}
