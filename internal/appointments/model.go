package appointments

import (
	"errors"
	"time"

	"github.com/vaxtrack/vaxtrack-platform/internal/users"
)

// Appointment statuses. Pending appointments await an admin decision; there
// is no transition back to pending. "denied" is a legacy synonym for
// "rejected" that still appears in stored data.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusDenied   = "denied"
)

// Appointment is a raw booking record. The reference ids are free-form
// strings with no enforced integrity; legacy records may carry ids that no
// longer resolve, and joins treat them as best-effort lookups. UserName, not
// UserID, is the authoritative join key to users.
type Appointment struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	Time       string    `json:"time,omitempty"` // "HH:MM", empty when unset
	UserID     string    `json:"userId,omitempty"`
	UserName   string    `json:"userName,omitempty"`
	HospitalID string    `json:"hospitalId,omitempty"`
	VaccineID  string    `json:"vaccineId,omitempty"`
	Status     string    `json:"status"`
}

// EnrichedAppointment is the read-time view object: an appointment with
// reference data stitched on from the cache. It is never persisted. Absent
// pointers and empty strings mean the lookup missed or the id was unset.
type EnrichedAppointment struct {
	Appointment

	HospitalName    string   `json:"hospitalName,omitempty"`
	HospitalAddress string   `json:"hospitalAddress,omitempty"`
	HospitalCharges *float64 `json:"hospitalCharges,omitempty"`
	HospitalType    string   `json:"hospitalType,omitempty"`

	VaccineName           string   `json:"vaccineName,omitempty"`
	VaccineType           string   `json:"vaccineType,omitempty"`
	VaccinePrice          *float64 `json:"vaccinePrice,omitempty"`
	VaccineSideEffects    string   `json:"vaccineSideEffects,omitempty"`
	VaccineOrigin         string   `json:"vaccineOrigin,omitempty"`
	VaccineDosesRequired  *int     `json:"vaccineDosesRequired,omitempty"`
	VaccineStrainsCovered string   `json:"vaccineStrainsCovered,omitempty"`

	User *users.User `json:"user,omitempty"`
}

// Filter narrows appointment queries. Zero values mean "no constraint".
type Filter struct {
	Status   string
	UserName string
}

var (
	// ErrNotFound indicates the appointment does not exist.
	ErrNotFound = errors.New("appointment not found")
	// ErrInvalidStatus indicates a status transition outside approved/rejected.
	ErrInvalidStatus = errors.New("invalid status")
)
