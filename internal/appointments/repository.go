package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const appointmentColumns = `id, date, time, user_id, user_name, hospital_id, vaccine_id, status`

type appointmentsDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides persistence for appointments.
type Repository struct {
	db appointmentsDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db appointmentsDB) *Repository {
	return &Repository{db: db}
}

// Find returns appointments matching the filter, newest first (date desc,
// then time desc with untimed appointments last).
func (r *Repository) Find(ctx context.Context, f Filter) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	var args []any
	var where []string

	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.UserName != "" {
		args = append(args, f.UserName)
		where = append(where, fmt.Sprintf("user_name = $%d", len(args)))
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY date DESC, time DESC NULLS LAST"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: find: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate: %w", err)
	}
	return out, nil
}

// Insert stores a new appointment, assigning an id when none is set.
func (r *Repository) Insert(ctx context.Context, a *Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO appointments (`+appointmentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.Date, nullable(a.Time), nullable(a.UserID), nullable(a.UserName),
		nullable(a.HospitalID), nullable(a.VaccineID), a.Status)
	if err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// UpdateStatus applies an approve/reject decision and returns the updated
// record.
func (r *Repository) UpdateStatus(ctx context.Context, id, status string) (*Appointment, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE appointments SET status = $2 WHERE id = $1 RETURNING `+appointmentColumns, id, status)
	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: update status: %w", err)
	}
	return &a, nil
}

// Delete removes an appointment by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAll counts every appointment regardless of status.
func (r *Repository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("appointments: count all: %w", err)
	}
	return count, nil
}

func scanAppointment(row pgx.Row) (Appointment, error) {
	var (
		a          Appointment
		date       time.Time
		tod        pgtype.Text
		userID     pgtype.Text
		userName   pgtype.Text
		hospitalID pgtype.Text
		vaccineID  pgtype.Text
	)
	if err := row.Scan(&a.ID, &date, &tod, &userID, &userName, &hospitalID, &vaccineID, &a.Status); err != nil {
		return Appointment{}, err
	}
	a.Date = date
	a.Time = tod.String
	a.UserID = userID.String
	a.UserName = userName.String
	a.HospitalID = hospitalID.String
	a.VaccineID = vaccineID.String
	return a, nil
}

// nullable maps empty strings to NULL so legacy semantics ("missing id")
// survive the round trip.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
