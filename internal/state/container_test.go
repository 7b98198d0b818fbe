package state

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulasbyzdvr/is-takip/internal/domain"
	"github.com/ulasbyzdvr/is-takip/internal/dto"
	"github.com/ulasbyzdvr/is-takip/internal/metrics"
	"github.com/ulasbyzdvr/is-takip/internal/mocks"
)

// testClock hands out strictly increasing timestamps so every mutation gets
// a distinct updatedAt.
type testClock struct {
	current time.Time
}

func newTestClock() *testClock {
	return &testClock{current: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.current = c.current.Add(time.Second)
	return c.current
}

type fixture struct {
	container *Container
	transport *mocks.MockTransport
	cache     *mocks.MockCacheStore
	pending   *mocks.MockPendingStore
	clock     *testClock
}

func newFixture() *fixture {
	transport := mocks.NewMockTransport()
	cache := mocks.NewMockCacheStore()
	pending := mocks.NewMockPendingStore()
	clock := newTestClock()

	seq := 0
	container := NewContainer(transport, cache, pending,
		metrics.NewMetrics(prometheus.NewRegistry()),
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%04d", seq)
		}),
	)
	return &fixture{
		container: container,
		transport: transport,
		cache:     cache,
		pending:   pending,
		clock:     clock,
	}
}

func workInput(companyID string) dto.WorkInput {
	return dto.WorkInput{
		CompanyID:   companyID,
		Amount:      500,
		Currency:    domain.CurrencyTRY,
		Date:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Description: "Website maintenance",
	}
}

func TestOfflineCreateThenRecovery(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.transport.FailPush = true
	company, err := f.container.AddCompany(ctx, dto.CompanyInput{Name: "Acme"})
	require.NoError(t, err, "mutations succeed locally even while offline")

	assert.Equal(t, StatusOffline, f.container.Status())
	require.True(t, f.pending.Held)
	assert.Len(t, f.pending.Snapshot.Companies, 1)
	assert.Equal(t, company.ID, f.pending.Snapshot.Companies[0].ID)
	assert.Empty(t, f.transport.Remote.Companies)

	// Connectivity returns and a refresh delivers the slot.
	f.transport.FailPush = false
	require.NoError(t, f.container.Refresh(ctx))

	assert.Equal(t, StatusOnline, f.container.Status())
	assert.False(t, f.pending.Held, "pending slot empties after delivery")
	require.Len(t, f.transport.Remote.Companies, 1)
	assert.Equal(t, "Acme", f.transport.Remote.Companies[0].Name)
}

func TestTwoDevicesDisjointCreatesUnion(t *testing.T) {
	ctx := context.Background()

	// Both devices talk to the same emulated remote store.
	deviceA := newFixture()
	deviceB := newFixture()
	deviceB.transport = deviceA.transport
	deviceB.container = NewContainer(deviceA.transport, deviceB.cache, deviceB.pending,
		metrics.NewMetrics(prometheus.NewRegistry()),
		WithClock(deviceB.clock.Now),
		WithIDGenerator(func() string { return fmt.Sprintf("b-%d", time.Now().UnixNano()) }),
	)

	companyA, err := deviceA.container.AddCompany(ctx, dto.CompanyInput{Name: "Acme"})
	require.NoError(t, err)
	require.NoError(t, deviceB.container.Refresh(ctx))

	_, err = deviceA.container.AddWork(ctx, workInput(companyA.ID))
	require.NoError(t, err)
	_, err = deviceB.container.AddWork(ctx, workInput(companyA.ID))
	require.NoError(t, err)

	require.NoError(t, deviceA.container.Refresh(ctx))
	require.NoError(t, deviceB.container.Refresh(ctx))

	remote := deviceA.transport.Remote
	assert.Len(t, remote.Works, 2, "disjoint ids union, nothing is lost")
	assert.Equal(t, deviceA.container.Snapshot().Works, deviceB.container.Snapshot().Works,
		"both devices converge to the same set")
}

func TestConcurrentEditLaterTimestampWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	company, err := f.container.AddCompany(ctx, dto.CompanyInput{Name: "Acme"})
	require.NoError(t, err)
	work, err := f.container.AddWork(ctx, workInput(company.ID))
	require.NoError(t, err)

	// Two conflicting full-record edits of the same work, pushed out of
	// order: the later updatedAt must win regardless of arrival order.
	early := work
	early.Amount = 100
	early.UpdatedAt = work.UpdatedAt.Add(time.Minute)

	late := work
	late.Amount = 200
	late.UpdatedAt = work.UpdatedAt.Add(2 * time.Minute)

	snapLate := f.container.Snapshot()
	snapLate.Works = []domain.Work{late}
	_, err = f.transport.Push(ctx, snapLate)
	require.NoError(t, err)

	snapEarly := f.container.Snapshot()
	snapEarly.Works = []domain.Work{early}
	_, err = f.transport.Push(ctx, snapEarly)
	require.NoError(t, err)

	got, ok := f.transport.Remote.FindWork(work.ID)
	require.True(t, ok)
	assert.Equal(t, 200.0, got.Amount, "later edit wins in full, arrival order irrelevant")
}

func TestPendingSlotCoalescesOfflineEdits(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.transport.FailPush = true

	_, err := f.container.AddCompany(ctx, dto.CompanyInput{Name: "Acme"})
	require.NoError(t, err)
	_, err = f.container.AddCompany(ctx, dto.CompanyInput{Name: "Globex"})
	require.NoError(t, err)

	require.True(t, f.pending.Held)
	assert.Len(t, f.pending.Snapshot.Companies, 2,
		"the slot holds one snapshot carrying both edits, never a queue")
	assert.Equal(t, 2, f.pending.SetCalls, "each edit overwrites the slot")
}

func TestStartPaintsFromCache(t *testing.T) {
	f := newFixture()
	cached := domain.Snapshot{
		Companies: []domain.Company{{ID: "c1", Name: "Cached Co", CreatedAt: time.Now()}},
	}
	require.NoError(t, f.cache.Put(cached, time.Now()))
	f.transport.FailPull = true

	f.container.Start(context.Background())

	snap := f.container.Snapshot()
	require.Len(t, snap.Companies, 1)
	assert.Equal(t, "Cached Co", snap.Companies[0].Name)
	assert.Equal(t, StatusOffline, f.container.Status())
}

func TestStartPendingSupersedesCacheAndDelivers(t *testing.T) {
	f := newFixture()
	now := time.Now()

	stale := domain.Snapshot{
		Companies: []domain.Company{{ID: "c1", Name: "Old Name", CreatedAt: now, UpdatedAt: now}},
	}
	require.NoError(t, f.cache.Put(stale, now))

	edited := domain.Snapshot{
		Companies: []domain.Company{{ID: "c1", Name: "New Name", CreatedAt: now, UpdatedAt: now.Add(time.Hour)}},
	}
	require.NoError(t, f.pending.Set(edited))

	f.container.Start(context.Background())

	snap := f.container.Snapshot()
	require.Len(t, snap.Companies, 1)
	assert.Equal(t, "New Name", snap.Companies[0].Name, "pending slot supersedes the cache")
	assert.Equal(t, StatusOnline, f.container.Status())
	assert.False(t, f.pending.Held, "startup delivered the slot")
	require.Len(t, f.transport.Remote.Companies, 1)
	assert.Equal(t, "New Name", f.transport.Remote.Companies[0].Name)
}

func TestStartColdWithNothingPullsRemote(t *testing.T) {
	f := newFixture()
	now := time.Now()
	f.transport.Remote = domain.Snapshot{
		Companies: []domain.Company{{ID: "c1", Name: "Remote Co", CreatedAt: now}},
	}.Normalize()

	f.container.Start(context.Background())

	snap := f.container.Snapshot()
	require.Len(t, snap.Companies, 1)
	assert.Equal(t, "Remote Co", snap.Companies[0].Name)
	assert.Equal(t, StatusOnline, f.container.Status())
	assert.True(t, f.cache.Held, "pulled snapshot lands in the cache")
}

func TestDeleteCompanyCascadesToWorks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	company, err := f.container.AddCompany(ctx, dto.CompanyInput{Name: "Acme"})
	require.NoError(t, err)
	work, err := f.container.AddWork(ctx, workInput(company.ID))
	require.NoError(t, err)

	require.NoError(t, f.container.DeleteCompany(ctx, company.ID))

	snap := f.container.Snapshot()
	gotCompany, ok := snap.FindCompany(company.ID)
	require.True(t, ok, "tombstoned records stay in the snapshot")
	gotWork, ok := snap.FindWork(work.ID)
	require.True(t, ok)

	assert.True(t, gotCompany.IsDeleted)
	assert.True(t, gotWork.IsDeleted, "company deletion cascades to its works")
	assert.Equal(t, gotCompany.UpdatedAt, gotWork.UpdatedAt,
		"cascade shares one timestamp so it merges as a unit")
	assert.Empty(t, snap.ActiveCompanies())
	assert.Empty(t, snap.ActiveWorks())
}

func TestAddWorkRequiresActiveCompany(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.container.AddWork(ctx, workInput("missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	company, err := f.container.AddCompany(ctx, dto.CompanyInput{Name: "Acme"})
	require.NoError(t, err)
	require.NoError(t, f.container.DeleteCompany(ctx, company.ID))

	_, err = f.container.AddWork(ctx, workInput(company.ID))
	assert.ErrorIs(t, err, ErrNotFound, "tombstoned companies cannot take new works")
}

func TestValidationRejectsBeforeMutation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.container.AddCompany(ctx, dto.CompanyInput{Name: "   "})
	assert.ErrorIs(t, err, dto.ErrEmptyName)

	input := workInput("c1")
	input.Amount = -5
	_, err = f.container.AddWork(ctx, input)
	assert.ErrorIs(t, err, dto.ErrNonPositive)

	assert.Equal(t, 0, f.pending.SetCalls, "rejected input never reaches the sync engine")
	assert.Equal(t, 0, f.transport.PushCalls)
}

func TestUpdateCompanyAndWork(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	company, err := f.container.AddCompany(ctx, dto.CompanyInput{Name: "Acme"})
	require.NoError(t, err)
	work, err := f.container.AddWork(ctx, workInput(company.ID))
	require.NoError(t, err)

	renamed, err := f.container.UpdateCompany(ctx, company.ID, dto.CompanyInput{Name: "Acme GmbH"})
	require.NoError(t, err)
	assert.Equal(t, "Acme GmbH", renamed.Name)
	assert.True(t, renamed.UpdatedAt.After(company.UpdatedAt))

	edit := workInput(company.ID)
	edit.Amount = 750
	updated, err := f.container.UpdateWork(ctx, work.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, 750.0, updated.Amount)

	paid, err := f.container.SetWorkPaid(ctx, work.ID, true)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)

	_, err = f.container.UpdateCompany(ctx, "nope", dto.CompanyInput{Name: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteWork(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	company, err := f.container.AddCompany(ctx, dto.CompanyInput{Name: "Acme"})
	require.NoError(t, err)
	work, err := f.container.AddWork(ctx, workInput(company.ID))
	require.NoError(t, err)

	require.NoError(t, f.container.DeleteWork(ctx, work.ID))

	snap := f.container.Snapshot()
	got, ok := snap.FindWork(work.ID)
	require.True(t, ok)
	assert.True(t, got.IsDeleted)

	assert.ErrorIs(t, f.container.DeleteWork(ctx, work.ID), ErrNotFound,
		"a tombstoned work cannot be deleted again")
}

// blockingTransport holds its first push on the wire until released, so a
// test can interleave work with an in-flight delivery.
type blockingTransport struct {
	*mocks.MockTransport
	entered chan struct{}
	release chan struct{}
	first   sync.Once
}

func newBlockingTransport() *blockingTransport {
	return &blockingTransport{
		MockTransport: mocks.NewMockTransport(),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (t *blockingTransport) Push(ctx context.Context, snap domain.Snapshot) (domain.Snapshot, error) {
	t.first.Do(func() {
		close(t.entered)
		<-t.release
	})
	return t.MockTransport.Push(ctx, snap)
}

func TestMutationDuringInFlightPushKeepsSlot(t *testing.T) {
	ctx := context.Background()
	transport := newBlockingTransport()
	cache := mocks.NewMockCacheStore()
	pending := mocks.NewMockPendingStore()
	clock := newTestClock()

	seq := 0
	container := NewContainer(transport, cache, pending,
		metrics.NewMetrics(prometheus.NewRegistry()),
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%04d", seq)
		}),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := container.AddCompany(ctx, dto.CompanyInput{Name: "Acme"})
		assert.NoError(t, err)
	}()
	<-transport.entered

	// A second edit lands while the first push is still on the wire: its
	// delivery attempt is dropped by the in-flight guard and the snapshot
	// stays parked in the slot.
	_, err := container.AddCompany(ctx, dto.CompanyInput{Name: "Globex"})
	require.NoError(t, err)
	require.True(t, pending.Held)

	close(transport.release)
	<-done

	assert.True(t, pending.Held,
		"a slot written mid-push must survive that push's completion")
	assert.True(t, container.HasPending())
	assert.Len(t, transport.Remote.Companies, 1,
		"only the first edit has reached the remote so far")

	// The surviving slot makes the parked edit deliverable: the next
	// refresh (or auto-sync tick) pushes it.
	require.NoError(t, container.Refresh(ctx))
	assert.False(t, pending.Held)
	assert.Len(t, transport.Remote.Companies, 2)

	names := make([]string, 0, 2)
	for _, c := range transport.Remote.Companies {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"Acme", "Globex"}, names)
}

func TestRefreshGuardDropsConcurrentAttempt(t *testing.T) {
	f := newFixture()

	f.container.inFlight.Store(true)
	err := f.container.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrSyncInFlight)
	f.container.inFlight.Store(false)

	assert.NoError(t, f.container.Refresh(context.Background()))
}

func TestRefreshDeliversPendingBeforePulling(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	now := time.Now()

	// Remote has state the device has never seen; the device holds a
	// pending edit. The edit must reach the remote before anything is
	// adopted locally.
	f.transport.Remote = domain.Snapshot{
		Companies: []domain.Company{{ID: "remote-1", Name: "Remote Co", CreatedAt: now}},
	}.Normalize()
	local := domain.Snapshot{
		Companies: []domain.Company{{ID: "local-1", Name: "Local Co", CreatedAt: now}},
	}
	require.NoError(t, f.pending.Set(local))
	f.container.adopt(local)

	require.NoError(t, f.container.Refresh(ctx))

	assert.Len(t, f.transport.Remote.Companies, 2, "pending edit was pushed, not dropped")
	snap := f.container.Snapshot()
	assert.Len(t, snap.Companies, 2, "merged result was adopted locally")
	assert.Equal(t, 1, f.transport.PushCalls)
	assert.Equal(t, 0, f.transport.PullCalls, "push response already carries the merge")
}

func TestAutoSyncSkipsWhenNothingPending(t *testing.T) {
	f := newFixture()
	auto := NewAutoSync(f.container, 10*time.Millisecond)

	auto.Start()
	time.Sleep(50 * time.Millisecond)
	auto.Stop()

	assert.Equal(t, 0, f.transport.PushCalls)
	assert.Equal(t, 0, f.transport.PullCalls, "no pending slot means no network traffic")
}

func TestAutoSyncDeliversPending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.transport.FailPush = true
	_, err := f.container.AddCompany(ctx, dto.CompanyInput{Name: "Acme"})
	require.NoError(t, err)
	require.Equal(t, StatusOffline, f.container.Status())

	f.transport.FailPush = false
	auto := NewAutoSync(f.container, 10*time.Millisecond)
	auto.Start()
	defer auto.Stop()

	require.Eventually(t, func() bool {
		return f.container.Status() == StatusOnline && !f.container.HasPending()
	}, time.Second, 10*time.Millisecond, "ticker delivers the slot once connectivity is back")

	assert.Len(t, f.transport.Remote.Companies, 1)
}
