package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vaxtrack/vaxtrack-platform/pkg/logging"
)

// Repo is the persistence surface the service needs.
type Repo interface {
	Find(ctx context.Context, f Filter) ([]Appointment, error)
	Insert(ctx context.Context, a *Appointment) error
	UpdateStatus(ctx context.Context, id, status string) (*Appointment, error)
	Delete(ctx context.Context, id string) error
}

// Freshener keeps the reference cache within its TTL before reads.
type Freshener interface {
	RefLookup
	EnsureFresh(ctx context.Context) error
}

// Invalidator drops derived report caches after an appointment write, so
// dashboards never serve aggregates that predate the change past the next
// request. A nil Invalidator disables this.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// CreateRequest carries the booking-flow input.
type CreateRequest struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	HospitalID string `json:"hospitalId"`
	VaccineID  string `json:"vaccineId"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

// Service implements the booking flow and the enriched read path.
type Service struct {
	repo    Repo
	cache   Freshener
	reports Invalidator
	clock   func() time.Time
	logger  *logging.Logger
}

// NewService creates the appointments service.
func NewService(repo Repo, cache Freshener, reports Invalidator, logger *logging.Logger) *Service {
	return NewServiceWithClock(repo, cache, reports, logger, time.Now)
}

// NewServiceWithClock allows injecting a clock for testing.
func NewServiceWithClock(repo Repo, cache Freshener, reports Invalidator, logger *logging.Logger, clock func() time.Time) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, cache: cache, reports: reports, clock: clock, logger: logger}
}

// Create books a new appointment. Appointments dated before today are
// rejected at creation time; rejection is never applied retroactively to
// pending appointments as time passes.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	if strings.TrimSpace(req.UserName) == "" {
		return nil, fmt.Errorf("appointments: userName required")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("appointments: invalid date %q", req.Date)
	}
	if req.Time != "" {
		if _, perr := time.Parse("15:04", req.Time); perr != nil {
			return nil, fmt.Errorf("appointments: invalid time %q, use HH:MM", req.Time)
		}
	}

	a := &Appointment{
		Date:       date,
		Time:       req.Time,
		UserID:     req.UserID,
		UserName:   req.UserName,
		HospitalID: req.HospitalID,
		VaccineID:  req.VaccineID,
		Status:     StatusPending,
	}

	now := s.clock().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		a.Status = StatusRejected
	}

	if err := s.repo.Insert(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("appointment created",
		"id", a.ID, "userName", a.UserName, "date", a.Date.Format("2006-01-02"), "status", a.Status)
	s.invalidateReports(ctx)
	return a, nil
}

// List returns enriched appointments matching the filter. The reference
// cache is refreshed if stale; a refresh failure degrades joins (stale or
// missing fields) instead of failing the read.
func (s *Service) List(ctx context.Context, f Filter) ([]EnrichedAppointment, error) {
	if err := s.cache.EnsureFresh(ctx); err != nil {
		s.logger.Warn("reference cache refresh failed, serving stale joins", "error", err)
	}

	appts, err := s.repo.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	return Join(appts, s.cache), nil
}

// Decide applies an admin approve/reject decision.
func (s *Service) Decide(ctx context.Context, id, status string) (*Appointment, error) {
	status = strings.ToLower(status)
	if status != StatusApproved && status != StatusRejected {
		return nil, ErrInvalidStatus
	}
	a, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("appointment decided", "id", id, "status", status)
	s.invalidateReports(ctx)
	return a, nil
}

// Delete removes an appointment.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateReports(ctx)
	return nil
}

// invalidateReports drops cached report payloads after a successful write.
// Failures degrade to serving a slightly stale report until its TTL expires,
// so they are logged and swallowed.
func (s *Service) invalidateReports(ctx context.Context) {
	if s.reports == nil {
		return
	}
	if err := s.reports.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate report cache", "error", err)
	}
}

// parseDate accepts a bare calendar date or a full RFC3339 timestamp; the
// calendar date is what matters downstream.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if d, err := time.Parse("2006-01-02", raw); err == nil {
		return d.UTC(), nil
	}
	if d, err := time.Parse(time.RFC3339, raw); err == nil {
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}
