package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulasbyzdvr/is-takip/internal/domain"
	"github.com/ulasbyzdvr/is-takip/internal/ports"
	_ "modernc.org/sqlite"
)

// newTestDB opens an in-memory SQLite database with the snapshot schema.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })

	schema := `
		CREATE TABLE companies (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			is_deleted INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE works (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			amount REAL NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'TRY',
			date TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			image_uri TEXT NOT NULL DEFAULT '',
			is_paid INTEGER NOT NULL DEFAULT 0,
			is_deleted INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE sync_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`
	_, err = database.Exec(schema)
	require.NoError(t, err)

	return database
}

func testSnapshot() domain.Snapshot {
	created := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 6, 2, 12, 30, 0, 0, time.UTC)
	return domain.Snapshot{
		Companies: []domain.Company{
			{ID: "100-aaaa", Name: "Acme", CreatedAt: created, UpdatedAt: updated},
			{ID: "200-bbbb", Name: "Globex", IsDeleted: true, CreatedAt: created, UpdatedAt: updated},
		},
		Works: []domain.Work{
			{
				ID:          "300-cccc",
				CompanyID:   "100-aaaa",
				Amount:      1250.50,
				Currency:    domain.CurrencyTRY,
				Date:        created,
				Description: "Logo design",
				ImageURI:    "file:///receipts/logo.jpg",
				IsPaid:      true,
				CreatedAt:   created,
				UpdatedAt:   updated,
			},
		},
	}
}

// repoFactories builds both backends so every contract test runs against
// each of them.
func repoFactories(t *testing.T) map[string]ports.SnapshotRepository {
	return map[string]ports.SnapshotRepository{
		"file":   NewSnapshotRepository("file", Backend{Path: filepath.Join(t.TempDir(), "data.json")}),
		"sqlite": NewSnapshotRepository("sqlite", Backend{DB: newTestDB(t)}),
	}
}

func TestSnapshotRepository_LoadEmpty(t *testing.T) {
	for name, repo := range repoFactories(t) {
		t.Run(name, func(t *testing.T) {
			snap, err := repo.Load(context.Background())
			require.NoError(t, err)
			assert.Empty(t, snap.Companies)
			assert.Empty(t, snap.Works)
			assert.NotNil(t, snap.Companies)
			assert.NotNil(t, snap.Works)
		})
	}
}

func TestSnapshotRepository_SaveAndLoad(t *testing.T) {
	for name, repo := range repoFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := testSnapshot()

			require.NoError(t, repo.Save(ctx, want))

			got, err := repo.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want.Normalize(), got)
		})
	}
}

func TestSnapshotRepository_SaveReplacesFully(t *testing.T) {
	for name, repo := range repoFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Save(ctx, testSnapshot()))

			created := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
			replacement := domain.Snapshot{
				Companies: []domain.Company{{ID: "900-zzzz", Name: "Initech", CreatedAt: created}},
			}
			require.NoError(t, repo.Save(ctx, replacement))

			got, err := repo.Load(ctx)
			require.NoError(t, err)
			require.Len(t, got.Companies, 1)
			assert.Equal(t, "900-zzzz", got.Companies[0].ID)
			assert.Empty(t, got.Works, "records absent from the saved snapshot must not linger")
		})
	}
}

func TestSnapshotRepository_LastUpdated(t *testing.T) {
	for name, repo := range repoFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			before, err := repo.LastUpdated(ctx)
			if err == nil {
				assert.True(t, before.IsZero())
			}

			start := time.Now().Add(-time.Second)
			require.NoError(t, repo.Save(ctx, testSnapshot()))

			after, err := repo.LastUpdated(ctx)
			require.NoError(t, err)
			assert.False(t, after.IsZero())
			assert.True(t, after.After(start.Add(-time.Second)))
		})
	}
}

func TestNewSnapshotRepository_UnknownTypeFallsBackToFile(t *testing.T) {
	repo := NewSnapshotRepository("mongodb", Backend{Path: filepath.Join(t.TempDir(), "data.json")})

	snap, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Companies)
}
