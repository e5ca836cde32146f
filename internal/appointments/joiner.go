package appointments

import (
	"github.com/vaxtrack/vaxtrack-platform/internal/hospitals"
	"github.com/vaxtrack/vaxtrack-platform/internal/users"
	"github.com/vaxtrack/vaxtrack-platform/internal/vaccines"
)

// RefLookup is the read surface of the reference cache the joiner needs.
// The cache must already be fresh; Join performs no I/O.
type RefLookup interface {
	Hospital(id string) (hospitals.Hospital, bool)
	Vaccine(id string) (vaccines.Vaccine, bool)
	User(id string) (users.User, bool)
}

// Join stitches cached reference data onto raw appointment records. The
// output is 1:1 with the input and order-preserving. Lookups that miss leave
// the corresponding fields absent; a miss is never an error.
func Join(appts []Appointment, refs RefLookup) []EnrichedAppointment {
	out := make([]EnrichedAppointment, 0, len(appts))
	for _, a := range appts {
		e := EnrichedAppointment{Appointment: a}

		if a.HospitalID != "" {
			if h, ok := refs.Hospital(a.HospitalID); ok {
				e.HospitalName = h.Name
				e.HospitalAddress = h.Address
				charges := h.Charges
				e.HospitalCharges = &charges
				e.HospitalType = h.Type
			}
		}

		if a.VaccineID != "" {
			if v, ok := refs.Vaccine(a.VaccineID); ok {
				e.VaccineName = v.Name
				e.VaccineType = v.Type
				price := v.Price
				e.VaccinePrice = &price
				e.VaccineSideEffects = v.SideEffects
				e.VaccineOrigin = v.Origin
				doses := v.DosesRequired
				e.VaccineDosesRequired = &doses
				e.VaccineStrainsCovered = v.StrainsCovered
			}
		}

		if a.UserID != "" {
			if u, ok := refs.User(a.UserID); ok {
				e.User = &u
			}
		}

		out = append(out, e)
	}
	return out
}
