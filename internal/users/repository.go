package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, role, name, age, profession, contact, address, gender, disease`

type usersDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides persistence for user accounts.
type Repository struct {
	db usersDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("users: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db usersDB) *Repository {
	return &Repository{db: db}
}

// List returns every user record.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return collectUsers(rows, "list")
}

// Insert stores a new user, assigning an id when none is set. Role defaults
// to patient.
func (r *Repository) Insert(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RolePatient
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Username, u.Role, u.Name, u.Age, u.Profession, u.Contact, u.Address, u.Gender, u.Disease)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("users: insert: %w", err)
	}
	return nil
}

// PatientsByUsernames returns the users among the given usernames that hold
// the patient role. Unknown usernames are silently absent.
func (r *Repository) PatientsByUsernames(ctx context.Context, usernames []string) ([]User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ANY($1) AND role = $2`,
		usernames, RolePatient)
	if err != nil {
		return nil, fmt.Errorf("users: patients by usernames: %w", err)
	}
	return collectUsers(rows, "patients by usernames")
}

// CountByRole counts users holding the given role.
func (r *Repository) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&count); err != nil {
		return 0, fmt.Errorf("users: count by role: %w", err)
	}
	return count, nil
}

// Sample returns up to limit user records for diagnostics.
func (r *Repository) Sample(ctx context.Context, limit int) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("users: sample: %w", err)
	}
	return collectUsers(rows, "sample")
}

func collectUsers(rows pgx.Rows, op string) ([]User, error) {
	defer rows.Close()

	var out []User
	for rows.Next() {
		var (
			u          User
			name       pgtype.Text
			age        pgtype.Int4
			profession pgtype.Text
			contact    pgtype.Text
			address    pgtype.Text
			gender     pgtype.Text
			disease    pgtype.Text
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &name, &age, &profession, &contact, &address, &gender, &disease); err != nil {
			return nil, fmt.Errorf("users: %s: scan: %w", op, err)
		}
		u.Name = name.String
		if age.Valid {
			v := int(age.Int32)
			u.Age = &v
		}
		u.Profession = profession.String
		u.Contact = contact.String
		u.Address = address.String
		u.Gender = gender.String
		u.Disease = disease.String
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: %s: iterate: %w", op, err)
	}
	return out, nil
}
