package vaccines

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type vaccinesDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides persistence for vaccines.
type Repository struct {
	db vaccinesDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("vaccines: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db vaccinesDB) *Repository {
	return &Repository{db: db}
}

// List returns every vaccine record.
func (r *Repository) List(ctx context.Context) ([]Vaccine, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, type, price, origin, doses_required, side_effects, strains_covered, description
		 FROM vaccines ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("vaccines: list: %w", err)
	}
	defer rows.Close()

	var out []Vaccine
	for rows.Next() {
		var (
			v              Vaccine
			typ, origin    pgtype.Text
			sideEffects    pgtype.Text
			strainsCovered pgtype.Text
			description    pgtype.Text
			price          pgtype.Float8
			doses          pgtype.Int4
		)
		if err := rows.Scan(&v.ID, &v.Name, &typ, &price, &origin, &doses, &sideEffects, &strainsCovered, &description); err != nil {
			return nil, fmt.Errorf("vaccines: scan: %w", err)
		}
		v.Type = typ.String
		v.Price = price.Float64
		v.Origin = origin.String
		v.DosesRequired = int(doses.Int32)
		v.SideEffects = sideEffects.String
		v.StrainsCovered = strainsCovered.String
		v.Description = description.String
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vaccines: iterate: %w", err)
	}
	return out, nil
}

// Insert stores a new vaccine, assigning an id when none is set.
func (r *Repository) Insert(ctx context.Context, v *Vaccine) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO vaccines (id, name, type, price, origin, doses_required, side_effects, strains_covered, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		v.ID, v.Name, v.Type, v.Price, v.Origin, v.DosesRequired, v.SideEffects, v.StrainsCovered, v.Description)
	if err != nil {
		return fmt.Errorf("vaccines: insert: %w", err)
	}
	return nil
}

// Delete removes a vaccine by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vaccines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("vaccines: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NamesByIDs resolves vaccine ids to display names in a single query.
func (r *Repository) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, name FROM vaccines WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("vaccines: names by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("vaccines: scan name: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vaccines: iterate names: %w", err)
	}
	return names, nil
}
