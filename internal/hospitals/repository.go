package hospitals

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// hospitalsDB defines the database interface needed by Repository.
type hospitalsDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides persistence for hospitals.
type Repository struct {
	db hospitalsDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("hospitals: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db hospitalsDB) *Repository {
	return &Repository{db: db}
}

// List returns every hospital record.
func (r *Repository) List(ctx context.Context) ([]Hospital, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, address, type, charges FROM hospitals ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("hospitals: list: %w", err)
	}
	defer rows.Close()

	var out []Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, fmt.Errorf("hospitals: scan: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("hospitals: iterate: %w", err)
	}
	return out, nil
}

// Insert stores a new hospital, assigning an id when none is set.
func (r *Repository) Insert(ctx context.Context, h *Hospital) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO hospitals (id, name, address, type, charges) VALUES ($1, $2, $3, $4, $5)`,
		h.ID, h.Name, h.Address, h.Type, h.Charges)
	if err != nil {
		return fmt.Errorf("hospitals: insert: %w", err)
	}
	return nil
}

// Delete removes a hospital by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM hospitals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("hospitals: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NamesByIDs resolves hospital ids to display names in a single query.
// Unknown ids are simply absent from the result.
func (r *Repository) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, name FROM hospitals WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("hospitals: names by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("hospitals: scan name: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("hospitals: iterate names: %w", err)
	}
	return names, nil
}

func scanHospital(row pgx.Row) (Hospital, error) {
	var (
		h       Hospital
		address pgtype.Text
		typ     pgtype.Text
		charges pgtype.Float8
	)
	if err := row.Scan(&h.ID, &h.Name, &address, &typ, &charges); err != nil {
		return Hospital{}, err
	}
	h.Address = address.String
	h.Type = typ.String
	h.Charges = charges.Float64
	return h, nil
}
