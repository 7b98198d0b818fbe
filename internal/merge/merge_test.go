package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulasbyzdvr/is-takip/internal/domain"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func company(id, name string, updated time.Time) domain.Company {
	return domain.Company{
		ID:        id,
		Name:      name,
		CreatedAt: baseTime,
		UpdatedAt: updated,
	}
}

func work(id, companyID string, amount float64, updated time.Time) domain.Work {
	return domain.Work{
		ID:          id,
		CompanyID:   companyID,
		Amount:      amount,
		Currency:    domain.CurrencyTRY,
		Date:        baseTime,
		Description: "work " + id,
		CreatedAt:   baseTime,
		UpdatedAt:   updated,
	}
}

func TestCollections_Idempotent(t *testing.T) {
	a := []domain.Company{
		company("c1", "Acme", baseTime),
		company("c2", "Globex", baseTime.Add(time.Hour)),
	}

	merged := Collections(a, a)

	assert.Equal(t, a, merged, "merge(A, A) must equal A")
}

func TestCollections_UnionOfDisjointIDs(t *testing.T) {
	a := []domain.Work{work("w1", "c1", 100, baseTime)}
	b := []domain.Work{work("w2", "c1", 200, baseTime.Add(time.Minute))}

	merged := Collections(a, b)

	require.Len(t, merged, 2)
	assert.Equal(t, "w1", merged[0].ID)
	assert.Equal(t, "w2", merged[1].ID)
}

func TestCollections_LaterTimestampWinsInFull(t *testing.T) {
	older := work("w1", "c1", 100, baseTime.Add(time.Minute))
	newer := work("w1", "c1", 200, baseTime.Add(2*time.Minute))
	newer.Description = "edited elsewhere"

	tests := []struct {
		name     string
		base     []domain.Work
		incoming []domain.Work
	}{
		{"newer incoming replaces base", []domain.Work{older}, []domain.Work{newer}},
		{"newer base survives incoming", []domain.Work{newer}, []domain.Work{older}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := Collections(tt.base, tt.incoming)
			require.Len(t, merged, 1)
			assert.Equal(t, newer, merged[0], "winner must replace loser in full")
		})
	}
}

func TestCollections_Commutative(t *testing.T) {
	a := []domain.Company{
		company("c1", "Acme v1", baseTime.Add(time.Minute)),
		company("c2", "Globex", baseTime),
	}
	b := []domain.Company{
		company("c1", "Acme v2", baseTime.Add(2*time.Minute)),
		company("c3", "Initech", baseTime),
	}

	assert.Equal(t, Collections(a, b), Collections(b, a),
		"merge order must not matter for distinct timestamps")
}

func TestCollections_ExactTieKeepsBase(t *testing.T) {
	ts := baseTime.Add(time.Hour)
	base := company("c1", "base copy", ts)
	incoming := company("c1", "incoming copy", ts)

	merged := Collections([]domain.Company{base}, []domain.Company{incoming})

	require.Len(t, merged, 1)
	assert.Equal(t, "base copy", merged[0].Name, "exact timestamp tie keeps the base record")
}

func TestCollections_FallsBackToCreatedAt(t *testing.T) {
	// Legacy record without updatedAt competes on createdAt.
	legacy := domain.Company{ID: "c1", Name: "legacy", CreatedAt: baseTime.Add(time.Hour)}
	edited := company("c1", "edited", baseTime)

	merged := Collections([]domain.Company{edited}, []domain.Company{legacy})

	require.Len(t, merged, 1)
	assert.Equal(t, "legacy", merged[0].Name)
}

func TestCollections_TombstoneWinsWhenNewer(t *testing.T) {
	alive := company("c1", "Acme", baseTime.Add(time.Minute))
	dead := company("c1", "Acme", baseTime.Add(2*time.Minute))
	dead.IsDeleted = true

	merged := Collections([]domain.Company{alive}, []domain.Company{dead})

	require.Len(t, merged, 1)
	assert.True(t, merged[0].IsDeleted, "a newer tombstone must propagate through merge")
}

func TestSnapshots_Convergence(t *testing.T) {
	// Three devices push in different interleavings; every order must
	// converge to the single-batch result.
	deviceA := domain.Snapshot{
		Companies: []domain.Company{company("c1", "Acme from A", baseTime.Add(time.Minute))},
		Works:     []domain.Work{work("w1", "c1", 100, baseTime.Add(time.Minute))},
	}
	deviceB := domain.Snapshot{
		Companies: []domain.Company{company("c1", "Acme from B", baseTime.Add(2*time.Minute))},
		Works:     []domain.Work{work("w2", "c1", 200, baseTime.Add(time.Minute))},
	}
	deviceC := domain.Snapshot{
		Works: []domain.Work{work("w1", "c1", 150, baseTime.Add(3*time.Minute))},
	}

	orders := [][]domain.Snapshot{
		{deviceA, deviceB, deviceC},
		{deviceC, deviceB, deviceA},
		{deviceB, deviceA, deviceC},
		{deviceC, deviceA, deviceB},
	}

	var results []domain.Snapshot
	for _, order := range orders {
		server := domain.Snapshot{}
		for _, push := range order {
			server = Snapshots(server, push)
		}
		// A repeated push of already-merged state must be a no-op.
		server = Snapshots(server, order[0])
		results = append(results, server)
	}

	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0], results[i], "interleaving %d diverged", i)
	}

	final := results[0]
	require.Len(t, final.Companies, 1)
	assert.Equal(t, "Acme from B", final.Companies[0].Name)
	require.Len(t, final.Works, 2)
	assert.Equal(t, 150.0, final.Works[0].Amount, "w1 must carry device C's later edit")
	assert.Equal(t, 200.0, final.Works[1].Amount)
}
