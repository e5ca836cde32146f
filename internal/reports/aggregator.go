package reports

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vaxtrack/vaxtrack-platform/internal/appointments"
	"github.com/vaxtrack/vaxtrack-platform/internal/users"
)

// AppointmentSource supplies the appointment history reports are computed over.
type AppointmentSource interface {
	Find(ctx context.Context, f appointments.Filter) ([]appointments.Appointment, error)
	CountAll(ctx context.Context) (int64, error)
}

// PatientSource resolves usernames to patient records and counts the
// registered population.
type PatientSource interface {
	PatientsByUsernames(ctx context.Context, usernames []string) ([]users.User, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	Sample(ctx context.Context, limit int) ([]users.User, error)
}

// NameSource maps reference ids to display names in one batched call.
type NameSource interface {
	NamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

// Aggregator computes the reporting queries. All demographic and distribution
// reports count unique patients, not appointments, and only consider approved
// appointments whose effective instant has passed.
type Aggregator struct {
	appts     AppointmentSource
	patients  PatientSource
	vaccines  NameSource
	hospitals NameSource
	now       func() time.Time
}

func NewAggregator(appts AppointmentSource, patients PatientSource, vaccines, hospitals NameSource) *Aggregator {
	return &Aggregator{
		appts:     appts,
		patients:  patients,
		vaccines:  vaccines,
		hospitals: hospitals,
		now:       time.Now,
	}
}

// NewAggregatorWithClock pins the current time, for tests.
func NewAggregatorWithClock(appts AppointmentSource, patients PatientSource, vaccines, hospitals NameSource, now func() time.Time) *Aggregator {
	a := NewAggregator(appts, patients, vaccines, hospitals)
	a.now = now
	return a
}

// approvedUsable returns approved appointments that carry both a username and
// a date. Records missing either cannot be attributed to a patient and are
// excluded from every report.
func (a *Aggregator) approvedUsable(ctx context.Context) ([]appointments.Appointment, error) {
	appts, err := a.appts.Find(ctx, appointments.Filter{Status: appointments.StatusApproved})
	if err != nil {
		return nil, fmt.Errorf("reports: load approved appointments: %w", err)
	}
	usable := appts[:0:0]
	for _, apt := range appts {
		if apt.UserName != "" && !apt.Date.IsZero() {
			usable = append(usable, apt)
		}
	}
	return usable, nil
}

// completedPatients resolves the unique patients behind completed
// appointments. Usernames that do not resolve to a patient record are
// dropped, so admins or orphaned records never skew demographics.
func (a *Aggregator) completedPatients(ctx context.Context) ([]users.User, error) {
	appts, err := a.approvedUsable(ctx)
	if err != nil {
		return nil, err
	}
	now := a.now()
	seen := make(map[string]struct{})
	var names []string
	for _, apt := range appts {
		if !IsCompleted(apt, now) {
			continue
		}
		if _, ok := seen[apt.UserName]; !ok {
			seen[apt.UserName] = struct{}{}
			names = append(names, apt.UserName)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	patients, err := a.patients.PatientsByUsernames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("reports: resolve patients: %w", err)
	}
	return patients, nil
}

// AgeDistribution buckets vaccinated patients by age band. Patients without a
// recorded age are not counted in any band.
func (a *Aggregator) AgeDistribution(ctx context.Context) (map[string]int, error) {
	patients, err := a.completedPatients(ctx)
	if err != nil {
		return nil, err
	}
	groups := map[string]int{
		"0-18":  0,
		"19-30": 0,
		"31-50": 0,
		"51-65": 0,
		"65+":   0,
	}
	for _, p := range patients {
		if p.Age == nil {
			continue
		}
		switch age := *p.Age; {
		case age <= 18:
			groups["0-18"]++
		case age <= 30:
			groups["19-30"]++
		case age <= 50:
			groups["31-50"]++
		case age <= 65:
			groups["51-65"]++
		default:
			groups["65+"]++
		}
	}
	return groups, nil
}

// GenderDistribution buckets vaccinated patients into Male, Female and Other.
// Any recorded value outside the first two folds into Other; patients with no
// recorded gender are skipped.
func (a *Aggregator) GenderDistribution(ctx context.Context) (map[string]int, error) {
	patients, err := a.completedPatients(ctx)
	if err != nil {
		return nil, err
	}
	groups := map[string]int{"Male": 0, "Female": 0, "Other": 0}
	for _, p := range patients {
		switch p.Gender {
		case "":
		case "Male", "Female", "Other":
			groups[p.Gender]++
		default:
			groups["Other"]++
		}
	}
	return groups, nil
}

// DiseaseDistribution counts vaccinated patients by pre-existing disease,
// with "None" covering patients who reported none.
func (a *Aggregator) DiseaseDistribution(ctx context.Context) (map[string]int, error) {
	patients, err := a.completedPatients(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, p := range patients {
		disease := p.Disease
		if disease == "" {
			disease = "None"
		}
		counts[disease]++
	}
	return counts, nil
}

// ProfessionDistribution counts vaccinated patients by profession, with
// "Unknown" covering patients who did not state one.
func (a *Aggregator) ProfessionDistribution(ctx context.Context) (map[string]int, error) {
	patients, err := a.completedPatients(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, p := range patients {
		profession := p.Profession
		if profession == "" {
			profession = "Unknown"
		}
		counts[profession]++
	}
	return counts, nil
}

// DailyDose is one day's administered dose count.
type DailyDose struct {
	Date  string `json:"date"`
	Doses int    `json:"doses"`
}

// DailyDoses counts approved appointments per calendar day (UTC), sorted by
// date ascending. Every approved appointment counts as one dose.
func (a *Aggregator) DailyDoses(ctx context.Context) ([]DailyDose, error) {
	appts, err := a.appts.Find(ctx, appointments.Filter{Status: appointments.StatusApproved})
	if err != nil {
		return nil, fmt.Errorf("reports: load approved appointments: %w", err)
	}
	byDay := make(map[string]int)
	for _, apt := range appts {
		day := apt.Date.UTC().Format("2006-01-02")
		byDay[day]++
	}
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	doses := make([]DailyDose, len(days))
	for i, day := range days {
		doses[i] = DailyDose{Date: day, Doses: byDay[day]}
	}
	return doses, nil
}

// PopulationCoverage summarizes how much of the registered patient population
// is vaccinated, scheduled, or neither. The trailing fields repeat the
// vaccinated numbers under the names older dashboard clients read.
type PopulationCoverage struct {
	TotalPopulation         int     `json:"totalPopulation"`
	ScheduledForVaccination int     `json:"scheduledForVaccination"`
	ActuallyVaccinated      int     `json:"actuallyVaccinated"`
	Unscheduled             int     `json:"unscheduled"`
	ScheduledPercentage     float64 `json:"scheduledPercentage"`
	VaccinatedPercentage    float64 `json:"vaccinatedPercentage"`
	UnscheduledPercentage   float64 `json:"unscheduledPercentage"`

	VaccinatedPopulation   int     `json:"vaccinatedPopulation"`
	UnvaccinatedPopulation int     `json:"unvaccinatedPopulation"`
	CoveragePercentage     float64 `json:"coveragePercentage"`
}

// PopulationCoverage splits approved appointments into completed and upcoming
// by their effective instant, resolves each side's unique usernames against
// patient records, and reports counts and percentages of the total patient
// population. A patient with both a completed and an upcoming appointment
// counts on both sides; the unscheduled remainder shrinks accordingly.
func (a *Aggregator) PopulationCoverage(ctx context.Context) (*PopulationCoverage, error) {
	total, err := a.patients.CountByRole(ctx, users.RolePatient)
	if err != nil {
		return nil, fmt.Errorf("reports: count patients: %w", err)
	}
	appts, err := a.approvedUsable(ctx)
	if err != nil {
		return nil, err
	}

	now := a.now()
	var scheduledNames, vaccinatedNames []string
	scheduledSeen := make(map[string]struct{})
	vaccinatedSeen := make(map[string]struct{})
	for _, apt := range appts {
		if IsCompleted(apt, now) {
			if _, ok := vaccinatedSeen[apt.UserName]; !ok {
				vaccinatedSeen[apt.UserName] = struct{}{}
				vaccinatedNames = append(vaccinatedNames, apt.UserName)
			}
		} else {
			if _, ok := scheduledSeen[apt.UserName]; !ok {
				scheduledSeen[apt.UserName] = struct{}{}
				scheduledNames = append(scheduledNames, apt.UserName)
			}
		}
	}

	scheduled, err := a.countVerifiedPatients(ctx, scheduledNames)
	if err != nil {
		return nil, err
	}
	vaccinated, err := a.countVerifiedPatients(ctx, vaccinatedNames)
	if err != nil {
		return nil, err
	}

	totalPatients := int(total)
	unscheduled := totalPatients - scheduled - vaccinated

	return &PopulationCoverage{
		TotalPopulation:         totalPatients,
		ScheduledForVaccination: scheduled,
		ActuallyVaccinated:      vaccinated,
		Unscheduled:             unscheduled,
		ScheduledPercentage:     percentOf(scheduled, totalPatients),
		VaccinatedPercentage:    percentOf(vaccinated, totalPatients),
		UnscheduledPercentage:   percentOf(unscheduled, totalPatients),
		VaccinatedPopulation:    vaccinated,
		UnvaccinatedPopulation:  totalPatients - vaccinated,
		CoveragePercentage:      percentOf(vaccinated, totalPatients),
	}, nil
}

func (a *Aggregator) countVerifiedPatients(ctx context.Context, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	patients, err := a.patients.PatientsByUsernames(ctx, names)
	if err != nil {
		return 0, fmt.Errorf("reports: resolve patients: %w", err)
	}
	return len(patients), nil
}

func percentOf(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*100*100) / 100
}

// VaccineDistribution counts, per vaccine name, the unique patients who
// completed an appointment with that vaccine. A patient vaccinated with two
// different vaccines counts once under each. Appointments whose vaccine id no
// longer resolves fall under "Unknown Vaccine".
func (a *Aggregator) VaccineDistribution(ctx context.Context) (map[string]int, error) {
	return a.distribution(ctx, a.vaccines, "Unknown Vaccine", func(apt appointments.Appointment) string {
		return apt.VaccineID
	})
}

// HospitalPerformance counts, per hospital name, the unique patients who
// completed an appointment there. Appointments whose hospital id no longer
// resolves fall under "Unknown Hospital".
func (a *Aggregator) HospitalPerformance(ctx context.Context) (map[string]int, error) {
	return a.distribution(ctx, a.hospitals, "Unknown Hospital", func(apt appointments.Appointment) string {
		return apt.HospitalID
	})
}

// distribution is the shared unique-patients-per-reference-name query behind
// vaccine distribution and hospital performance. Reference names and patient
// verification are each fetched in a single batched call.
func (a *Aggregator) distribution(ctx context.Context, refs NameSource, unknownLabel string, refID func(appointments.Appointment) string) (map[string]int, error) {
	appts, err := a.approvedUsable(ctx)
	if err != nil {
		return nil, err
	}

	now := a.now()
	completed := appts[:0:0]
	for _, apt := range appts {
		if refID(apt) != "" && IsCompleted(apt, now) {
			completed = append(completed, apt)
		}
	}

	idSeen := make(map[string]struct{})
	nameSeen := make(map[string]struct{})
	var ids, userNames []string
	for _, apt := range completed {
		id := refID(apt)
		if _, ok := idSeen[id]; !ok {
			idSeen[id] = struct{}{}
			ids = append(ids, id)
		}
		if _, ok := nameSeen[apt.UserName]; !ok {
			nameSeen[apt.UserName] = struct{}{}
			userNames = append(userNames, apt.UserName)
		}
	}

	counts := make(map[string]int)
	if len(completed) == 0 {
		return counts, nil
	}

	refNames, err := refs.NamesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("reports: resolve reference names: %w", err)
	}
	patients, err := a.patients.PatientsByUsernames(ctx, userNames)
	if err != nil {
		return nil, fmt.Errorf("reports: resolve patients: %w", err)
	}
	patientSet := make(map[string]struct{}, len(patients))
	for _, p := range patients {
		patientSet[p.Username] = struct{}{}
	}

	perName := make(map[string]map[string]struct{})
	for _, apt := range completed {
		if _, ok := patientSet[apt.UserName]; !ok {
			continue
		}
		name, ok := refNames[refID(apt)]
		if !ok {
			name = unknownLabel
		}
		if perName[name] == nil {
			perName[name] = make(map[string]struct{})
		}
		perName[name][apt.UserName] = struct{}{}
	}
	for name, set := range perName {
		counts[name] = len(set)
	}
	return counts, nil
}

// AppointmentSample is a redacted appointment shown by the data integrity
// report to aid debugging join problems.
type AppointmentSample struct {
	ID         string `json:"id"`
	UserName   string `json:"userName"`
	UserID     string `json:"userId"`
	HospitalID string `json:"hospitalId"`
	VaccineID  string `json:"vaccineId"`
}

// DataIntegrity summarizes how much of the appointment data is usable for
// reporting and samples records from both sides of the username join.
type DataIntegrity struct {
	TotalAppointments        int64              `json:"totalAppointments"`
	ApprovedAppointments     int                `json:"approvedAppointments"`
	AppointmentsWithUserName int                `json:"appointmentsWithUserName"`
	SampleAppointment        *AppointmentSample `json:"sampleAppointment"`
	SampleUserNames          []string           `json:"sampleUserNamesFromAppointments"`
	SampleUsers              []users.User       `json:"sampleUsersFromDB"`
}

// DataIntegrity reports the totals and samples an operator needs to spot why
// reports come back empty, usually approved appointments missing usernames or
// usernames that match no patient record.
func (a *Aggregator) DataIntegrity(ctx context.Context) (*DataIntegrity, error) {
	total, err := a.appts.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reports: count appointments: %w", err)
	}
	approved, err := a.appts.Find(ctx, appointments.Filter{Status: appointments.StatusApproved})
	if err != nil {
		return nil, fmt.Errorf("reports: load approved appointments: %w", err)
	}

	withUserName := 0
	sampleNames := make([]string, 0, 5)
	for _, apt := range approved {
		if apt.UserName != "" {
			withUserName++
		}
		if len(sampleNames) < 5 {
			sampleNames = append(sampleNames, apt.UserName)
		}
	}

	var sample *AppointmentSample
	if len(approved) > 0 {
		first := approved[0]
		sample = &AppointmentSample{
			ID:         first.ID,
			UserName:   first.UserName,
			UserID:     first.UserID,
			HospitalID: first.HospitalID,
			VaccineID:  first.VaccineID,
		}
	}

	sampleUsers, err := a.patients.Sample(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("reports: sample users: %w", err)
	}

	return &DataIntegrity{
		TotalAppointments:        total,
		ApprovedAppointments:     len(approved),
		AppointmentsWithUserName: withUserName,
		SampleAppointment:        sample,
		SampleUserNames:          sampleNames,
		SampleUsers:              sampleUsers,
	}, nil
}
