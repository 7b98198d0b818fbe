// Package sqlite persists the remote store's snapshot in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ulasbyzdvr/is-takip/internal/domain"
	"github.com/ulasbyzdvr/is-takip/internal/ports"
)

var _ ports.SnapshotRepository = (*snapshotRepository)(nil)

// snapshotRepository implements SnapshotRepository for SQLite / Implémente SnapshotRepository pour SQLite
type snapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates snapshot repository / Crée le repository d'instantanés
func NewSnapshotRepository(db *sql.DB) ports.SnapshotRepository {
	return &snapshotRepository{db: db}
}

// Load reads the full stored snapshot, tombstones included / Lit l'instantané complet stocké, pierres tombales incluses
func (r *snapshotRepository) Load(ctx context.Context) (domain.Snapshot, error) {
	companies, err := loadCompanies(ctx, r.db)
	if err != nil {
		return domain.Snapshot{}, err
	}

	works, err := loadWorks(ctx, r.db)
	if err != nil {
		return domain.Snapshot{}, err
	}

	return domain.Snapshot{Companies: companies, Works: works}.Normalize(), nil
}

// The query helpers take a ports.DBTX so they run against the pool on reads
// and against the open transaction inside Save.

func loadCompanies(ctx context.Context, q ports.DBTX) ([]domain.Company, error) {
	query := `SELECT id, name, is_deleted, created_at, updated_at
	          FROM companies ORDER BY id`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, handleError(err)
	}
	defer rows.Close()

	var companies []domain.Company
	for rows.Next() {
		var c domain.Company
		var createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.IsDeleted, &createdAt, &updatedAt); err != nil {
			return nil, handleError(err)
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}

	if err := rows.Err(); err != nil {
		return nil, handleError(err)
	}

	return companies, nil
}

func loadWorks(ctx context.Context, q ports.DBTX) ([]domain.Work, error) {
	query := `SELECT id, company_id, amount, currency, date, description, image_uri,
	                 is_paid, is_deleted, created_at, updated_at
	          FROM works ORDER BY id`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, handleError(err)
	}
	defer rows.Close()

	var works []domain.Work
	for rows.Next() {
		var w domain.Work
		var currency string
		var date, createdAt, updatedAt string
		if err := rows.Scan(&w.ID, &w.CompanyID, &w.Amount, &currency, &date, &w.Description,
			&w.ImageURI, &w.IsPaid, &w.IsDeleted, &createdAt, &updatedAt); err != nil {
			return nil, handleError(err)
		}
		w.Currency = domain.Currency(currency)
		if w.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		if w.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if w.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		works = append(works, w)
	}

	if err := rows.Err(); err != nil {
		return nil, handleError(err)
	}

	return works, nil
}

func insertCompanies(ctx context.Context, q ports.DBTX, companies []domain.Company) error {
	stmt := `INSERT INTO companies (id, name, is_deleted, created_at, updated_at)
	         VALUES (?, ?, ?, ?, ?)`
	for _, c := range companies {
		_, err := q.ExecContext(ctx, stmt,
			c.ID, c.Name, c.IsDeleted, formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
		if err != nil {
			return handleError(err)
		}
	}
	return nil
}

func insertWorks(ctx context.Context, q ports.DBTX, works []domain.Work) error {
	stmt := `INSERT INTO works (id, company_id, amount, currency, date, description,
	                            image_uri, is_paid, is_deleted, created_at, updated_at)
	         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, w := range works {
		_, err := q.ExecContext(ctx, stmt,
			w.ID, w.CompanyID, w.Amount, string(w.Currency), formatTime(w.Date),
			w.Description, w.ImageURI, w.IsPaid, w.IsDeleted,
			formatTime(w.CreatedAt), formatTime(w.UpdatedAt))
		if err != nil {
			return handleError(err)
		}
	}
	return nil
}

// Save replaces the stored snapshot atomically. Callers merge before saving,
// so the incoming snapshot is the complete authoritative state.
func (r *snapshotRepository) Save(ctx context.Context, snap domain.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return handleError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM works`); err != nil {
		return handleError(err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM companies`); err != nil {
		return handleError(err)
	}

	if err := insertCompanies(ctx, tx, snap.Companies); err != nil {
		return err
	}
	if err := insertWorks(ctx, tx, snap.Works); err != nil {
		return err
	}

	metaStmt := `INSERT INTO sync_meta (key, value) VALUES ('last_updated', ?)
	             ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.ExecContext(ctx, metaStmt, formatTime(time.Now().UTC())); err != nil {
		return handleError(err)
	}

	return handleError(tx.Commit())
}

// LastUpdated returns the wall-clock time of the last accepted save.
func (r *snapshotRepository) LastUpdated(ctx context.Context) (time.Time, error) {
	query := `SELECT value FROM sync_meta WHERE key = 'last_updated'`
	var value string
	if err := r.db.QueryRowContext(ctx, query).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, handleError(err)
	}
	return parseTime(value)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
