// Package reports computes operational analytics over appointment history:
// demographic breakdowns, daily dose counts, population coverage and
// unique-patient distribution per vaccine and per hospital.
package reports

import (
	"time"

	"github.com/vaxtrack/vaxtrack-platform/internal/appointments"
)

// EffectiveInstant builds the moment an appointment counts as completed.
// With a time of day ("HH:MM") the instant is that time on the appointment's
// date. Without one the appointment stays active until end of day
// (23:59:59.999), the conservative choice for "not yet completed".
// An unparseable time string is treated the same as an absent one.
func EffectiveInstant(a appointments.Appointment) time.Time {
	d := a.Date
	if a.Time != "" {
		if tod, err := time.Parse("15:04", a.Time); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), tod.Hour(), tod.Minute(), 0, 0, d.Location())
		}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 999_000_000, d.Location())
}

// IsCompleted reports whether the appointment's effective instant is at or
// before now. This is what separates "vaccination administered" from
// "vaccination scheduled". Only meaningful for approved appointments; the
// caller filters out pending/rejected ones.
func IsCompleted(a appointments.Appointment, now time.Time) bool {
	return !EffectiveInstant(a).After(now)
}
