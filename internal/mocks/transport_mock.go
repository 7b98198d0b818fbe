package mocks

import (
	"context"
	"errors"

	"github.com/ulasbyzdvr/is-takip/internal/domain"
	"github.com/ulasbyzdvr/is-takip/internal/merge"
	"github.com/ulasbyzdvr/is-takip/internal/ports"
)

// ErrUnreachable stands in for any transport-level failure.
var ErrUnreachable = errors.New("remote store unreachable")

var _ ports.Transport = (*MockTransport)(nil)

// MockTransport is a mock implementation of ports.Transport for testing.
// It emulates the remote store end to end: Push merges the pushed snapshot
// into Remote exactly the way the real store does, so multi-device
// convergence scenarios can run without a server.
type MockTransport struct {
	// Remote is the emulated server-side snapshot
	Remote domain.Snapshot

	// Mock behavior flags
	FailPull bool
	FailPush bool
	PullErr  error
	PushErr  error

	// Call tracking
	PullCalls int
	PushCalls int
}

// NewMockTransport creates a mock transport with an empty remote store
func NewMockTransport() *MockTransport {
	return &MockTransport{Remote: domain.Snapshot{}.Normalize()}
}

func (m *MockTransport) Pull(_ context.Context) (domain.Snapshot, error) {
	m.PullCalls++
	if m.FailPull {
		if m.PullErr != nil {
			return domain.Snapshot{}, m.PullErr
		}
		return domain.Snapshot{}, ErrUnreachable
	}
	return m.Remote.Clone(), nil
}

func (m *MockTransport) Push(_ context.Context, snap domain.Snapshot) (domain.Snapshot, error) {
	m.PushCalls++
	if m.FailPush {
		if m.PushErr != nil {
			return domain.Snapshot{}, m.PushErr
		}
		return domain.Snapshot{}, ErrUnreachable
	}
	m.Remote = merge.Snapshots(m.Remote, snap)
	return m.Remote.Clone(), nil
}
