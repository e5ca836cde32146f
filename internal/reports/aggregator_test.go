package reports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxtrack/vaxtrack-platform/internal/appointments"
	"github.com/vaxtrack/vaxtrack-platform/internal/users"
)

var reportNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

const (
	pastDay   = "2026-06-01" // completed relative to reportNow
	futureDay = "2026-07-01" // still scheduled
)

type stubAppointments struct {
	appts   []appointments.Appointment
	total   int64
	findErr error
}

func (s *stubAppointments) Find(_ context.Context, f appointments.Filter) ([]appointments.Appointment, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []appointments.Appointment
	for _, a := range s.appts {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.UserName != "" && a.UserName != f.UserName {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *stubAppointments) CountAll(context.Context) (int64, error) {
	if s.total > 0 {
		return s.total, nil
	}
	return int64(len(s.appts)), nil
}

type stubPatients struct {
	patients  []users.User
	roleCount int64
	calls     int
}

func (s *stubPatients) PatientsByUsernames(_ context.Context, usernames []string) ([]users.User, error) {
	s.calls++
	want := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		want[u] = struct{}{}
	}
	var out []users.User
	for _, p := range s.patients {
		if _, ok := want[p.Username]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPatients) CountByRole(context.Context, string) (int64, error) {
	if s.roleCount > 0 {
		return s.roleCount, nil
	}
	return int64(len(s.patients)), nil
}

func (s *stubPatients) Sample(_ context.Context, limit int) ([]users.User, error) {
	if len(s.patients) < limit {
		limit = len(s.patients)
	}
	return s.patients[:limit], nil
}

type stubNames map[string]string

func (s stubNames) NamesByIDs(_ context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, id := range ids {
		if name, ok := s[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func approvedAppt(userName, date, timeOfDay string) appointments.Appointment {
	a := appt(date, timeOfDay)
	a.UserName = userName
	return a
}

func intp(v int) *int { return &v }

func newTestAggregator(appts *stubAppointments, patients *stubPatients, vaccines, hospitals stubNames) *Aggregator {
	return NewAggregatorWithClock(appts, patients, vaccines, hospitals, func() time.Time { return reportNow })
}

func TestAgeDistributionCountsUniquePatients(t *testing.T) {
	appts := &stubAppointments{appts: []appointments.Appointment{
		approvedAppt("alice", pastDay, "09:00"),
		approvedAppt("alice", pastDay, "10:00"), // second dose, same patient
		approvedAppt("bob", pastDay, ""),
		approvedAppt("carol", futureDay, ""), // not yet completed
		{UserName: "dave", Status: appointments.StatusPending, Date: mustDate(pastDay)},
	}}
	patients := &stubPatients{patients: []users.User{
		{Username: "alice", Role: users.RolePatient, Age: intp(25)},
		{Username: "bob", Role: users.RolePatient, Age: intp(70)},
		{Username: "carol", Role: users.RolePatient, Age: intp(40)},
	}}
	agg := newTestAggregator(appts, patients, nil, nil)

	got, err := agg.AgeDistribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"0-18": 0, "19-30": 1, "31-50": 0, "51-65": 0, "65+": 1,
	}, got)
}

func TestAgeDistributionSkipsPatientsWithoutAge(t *testing.T) {
	appts := &stubAppointments{appts: []appointments.Appointment{
		approvedAppt("alice", pastDay, ""),
	}}
	patients := &stubPatients{patients: []users.User{
		{Username: "alice", Role: users.RolePatient},
	}}
	agg := newTestAggregator(appts, patients, nil, nil)

	got, err := agg.AgeDistribution(context.Background())
	require.NoError(t, err)
	for band, n := range got {
		assert.Zero(t, n, "band %s", band)
	}
}

func TestGenderDistributionFoldsUnknownIntoOther(t *testing.T) {
	appts := &stubAppointments{appts: []appointments.Appointment{
		approvedAppt("alice", pastDay, ""),
		approvedAppt("bob", pastDay, ""),
		approvedAppt("kim", pastDay, ""),
		approvedAppt("lee", pastDay, ""),
	}}
	patients := &stubPatients{patients: []users.User{
		{Username: "alice", Role: users.RolePatient, Gender: "Female"},
		{Username: "bob", Role: users.RolePatient, Gender: "Male"},
		{Username: "kim", Role: users.RolePatient, Gender: "Nonbinary"},
		{Username: "lee", Role: users.RolePatient}, // unreported, skipped
	}}
	agg := newTestAggregator(appts, patients, nil, nil)

	got, err := agg.GenderDistribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Male": 1, "Female": 1, "Other": 1}, got)
}

func TestDiseaseAndProfessionDefaults(t *testing.T) {
	appts := &stubAppointments{appts: []appointments.Appointment{
		approvedAppt("alice", pastDay, ""),
		approvedAppt("bob", pastDay, ""),
	}}
	patients := &stubPatients{patients: []users.User{
		{Username: "alice", Role: users.RolePatient, Disease: "Diabetes", Profession: "Teacher"},
		{Username: "bob", Role: users.RolePatient},
	}}
	agg := newTestAggregator(appts, patients, nil, nil)

	diseases, err := agg.DiseaseDistribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Diabetes": 1, "None": 1}, diseases)

	professions, err := agg.ProfessionDistribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Teacher": 1, "Unknown": 1}, professions)
}

func TestDemographicsIgnoreNonPatientUsernames(t *testing.T) {
	appts := &stubAppointments{appts: []appointments.Appointment{
		approvedAppt("alice", pastDay, ""),
		approvedAppt("ghost", pastDay, ""), // no matching patient record
	}}
	patients := &stubPatients{patients: []users.User{
		{Username: "alice", Role: users.RolePatient, Disease: "Asthma"},
	}}
	agg := newTestAggregator(appts, patients, nil, nil)

	got, err := agg.DiseaseDistribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Asthma": 1}, got)
}

func mustDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDailyDosesGroupsAndSorts(t *testing.T) {
	appts := &stubAppointments{appts: []appointments.Appointment{
		approvedAppt("a", "2026-06-02", ""),
		approvedAppt("b", "2026-06-01", ""),
		approvedAppt("c", "2026-06-02", ""),
		approvedAppt("d", futureDay, ""), // future approved still counts
		{UserName: "e", Status: appointments.StatusPending, Date: mustDate("2026-06-03")},
	}}
	agg := newTestAggregator(appts, &stubPatients{}, nil, nil)

	got, err := agg.DailyDoses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []DailyDose{
		{Date: "2026-06-01", Doses: 1},
		{Date: "2026-06-02", Doses: 2},
		{Date: futureDay, Doses: 1},
	}, got)
}

func TestPopulationCoveragePercentages(t *testing.T) {
	var appts []appointments.Appointment
	var patients []users.User
	for i := 0; i < 30; i++ {
		name := fmt.Sprintf("vaccinated%d", i)
		appts = append(appts, approvedAppt(name, pastDay, "09:00"))
		patients = append(patients, users.User{Username: name, Role: users.RolePatient})
	}
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("scheduled%d", i)
		appts = append(appts, approvedAppt(name, futureDay, "09:00"))
		patients = append(patients, users.User{Username: name, Role: users.RolePatient})
	}
	src := &stubAppointments{appts: appts}
	pats := &stubPatients{patients: patients, roleCount: 100}
	agg := newTestAggregator(src, pats, nil, nil)

	got, err := agg.PopulationCoverage(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 100, got.TotalPopulation)
	assert.Equal(t, 30, got.ActuallyVaccinated)
	assert.Equal(t, 10, got.ScheduledForVaccination)
	assert.Equal(t, 60, got.Unscheduled)
	assert.Equal(t, 30.00, got.VaccinatedPercentage)
	assert.Equal(t, 10.00, got.ScheduledPercentage)
	assert.Equal(t, 60.00, got.UnscheduledPercentage)

	// Legacy aliases mirror the vaccinated numbers.
	assert.Equal(t, 30, got.VaccinatedPopulation)
	assert.Equal(t, 70, got.UnvaccinatedPopulation)
	assert.Equal(t, 30.00, got.CoveragePercentage)
}

func TestPopulationCoverageRoundsToTwoDecimals(t *testing.T) {
	appts := &stubAppointments{appts: []appointments.Appointment{
		approvedAppt("alice", pastDay, ""),
	}}
	pats := &stubPatients{
		patients:  []users.User{{Username: "alice", Role: users.RolePatient}},
		roleCount: 3,
	}
	agg := newTestAggregator(appts, pats, nil, nil)

	got, err := agg.PopulationCoverage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 33.33, got.VaccinatedPercentage)
	assert.Equal(t, 66.67, got.UnscheduledPercentage)
}

func TestPopulationCoveragePatientOnBothSides(t *testing.T) {
	appts := &stubAppointments{appts: []appointments.Appointment{
		approvedAppt("alice", pastDay, ""),   // first dose done
		approvedAppt("alice", futureDay, ""), // booster booked
	}}
	pats := &stubPatients{
		patients:  []users.User{{Username: "alice", Role: users.RolePatient}},
		roleCount: 2,
	}
	agg := newTestAggregator(appts, pats, nil, nil)

	got, err := agg.PopulationCoverage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got.ActuallyVaccinated)
	assert.Equal(t, 1, got.ScheduledForVaccination)
	assert.Equal(t, 0, got.Unscheduled)
}

func TestPopulationCoverageEmptyPopulation(t *testing.T) {
	agg := newTestAggregator(&stubAppointments{}, &stubPatients{}, nil, nil)

	got, err := agg.PopulationCoverage(context.Background())
	require.NoError(t, err)
	assert.Zero(t, got.TotalPopulation)
	assert.Zero(t, got.VaccinatedPercentage)
	assert.Zero(t, got.CoveragePercentage)
}

func TestVaccineDistributionSamePatientTwoVaccines(t *testing.T) {
	appts := &stubAppointments{appts: []appointments.Appointment{
		withVaccine(approvedAppt("alice", pastDay, ""), "v1"),
		withVaccine(approvedAppt("alice", pastDay, ""), "v2"),
		withVaccine(approvedAppt("bob", pastDay, ""), "v1"),
		withVaccine(approvedAppt("bob", pastDay, ""), "v1"), // second dose, same vaccine
	}}
	patients := &stubPatients{patients: []users.User{
		{Username: "alice", Role: users.RolePatient},
		{Username: "bob", Role: users.RolePatient},
	}}
	vaccines := stubNames{"v1": "Covaxin", "v2": "Sputnik"}
	agg := newTestAggregator(appts, patients, vaccines, nil)

	got, err := agg.VaccineDistribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Covaxin": 2, "Sputnik": 1}, got)
}

func TestVaccineDistributionUnknownVaccineBucket(t *testing.T) {
	appts := &stubAppointments{appts: []appointments.Appointment{
		withVaccine(approvedAppt("alice", pastDay, ""), "deleted-id"),
		withVaccine(approvedAppt("bob", futureDay, ""), "v1"), // not completed yet
		approvedAppt("carol", pastDay, ""),                    // no vaccine id at all
	}}
	patients := &stubPatients{patients: []users.User{
		{Username: "alice", Role: users.RolePatient},
		{Username: "bob", Role: users.RolePatient},
		{Username: "carol", Role: users.RolePatient},
	}}
	agg := newTestAggregator(appts, patients, stubNames{"v1": "Covaxin"}, nil)

	got, err := agg.VaccineDistribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Unknown Vaccine": 1}, got)
}

func TestHospitalPerformanceBatchesPatientLookups(t *testing.T) {
	appts := &stubAppointments{appts: []appointments.Appointment{
		withHospital(approvedAppt("alice", pastDay, ""), "h1"),
		withHospital(approvedAppt("bob", pastDay, ""), "h1"),
		withHospital(approvedAppt("carol", pastDay, ""), "h2"),
		withHospital(approvedAppt("admin1", pastDay, ""), "h2"), // not a patient
	}}
	patients := &stubPatients{patients: []users.User{
		{Username: "alice", Role: users.RolePatient},
		{Username: "bob", Role: users.RolePatient},
		{Username: "carol", Role: users.RolePatient},
	}}
	hospitals := stubNames{"h1": "City General", "h2": "Northside Clinic"}
	agg := newTestAggregator(appts, patients, nil, hospitals)

	got, err := agg.HospitalPerformance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"City General": 2, "Northside Clinic": 1}, got)
	assert.Equal(t, 1, patients.calls, "patient verification should be one batched query")
}

func TestDataIntegrityReport(t *testing.T) {
	appts := &stubAppointments{
		appts: []appointments.Appointment{
			{ID: "a1", UserName: "alice", UserID: "u1", HospitalID: "h1", VaccineID: "v1", Status: appointments.StatusApproved, Date: mustDate(pastDay)},
			{ID: "a2", Status: appointments.StatusApproved, Date: mustDate(pastDay)},
			{ID: "a3", UserName: "bob", Status: appointments.StatusPending, Date: mustDate(pastDay)},
		},
	}
	patients := &stubPatients{patients: []users.User{
		{Username: "alice", Role: users.RolePatient},
		{Username: "bob", Role: users.RolePatient},
	}}
	agg := newTestAggregator(appts, patients, nil, nil)

	got, err := agg.DataIntegrity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.TotalAppointments)
	assert.Equal(t, 2, got.ApprovedAppointments)
	assert.Equal(t, 1, got.AppointmentsWithUserName)
	require.NotNil(t, got.SampleAppointment)
	assert.Equal(t, "a1", got.SampleAppointment.ID)
	assert.Equal(t, "alice", got.SampleAppointment.UserName)
	assert.Len(t, got.SampleUsers, 2)
}

func withVaccine(a appointments.Appointment, id string) appointments.Appointment {
	a.VaccineID = id
	return a
}

func withHospital(a appointments.Appointment, id string) appointments.Appointment {
	a.HospitalID = id
	return a
}
