package epidemicabm

import (
	"testing"
	"time"
)

// newScenarioContext builds the N=nrPeople-uniform-over-ages-0..99
// population and contact matrix the end-to-end scenarios below share,
// parameterized by bed/ICU capacity so each scenario can set its own
// healthcare constraints.
func newScenarioContext(t *testing.T, nrPeople, beds, icuUnits int, seed int64) *Context {
	t.Helper()
	ageCounts := make([]int, 100)
	per := nrPeople / 100
	for age := 0; age < 100; age++ {
		ageCounts[age] = per
	}
	rows := make([]ContactRow, 0, 100)
	for age := 0; age < 100; age++ {
		rows = append(rows, ContactRow{ParticipantAge: age, ContactAgeMin: 0, ContactAgeMax: 99, Place: PlaceWork, ContactsPerDay: 8})
	}
	disease, err := NewDisease(nil)
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "constructing scenario disease", err)
	}
	startDate, err := time.Parse("2006-01-02", "2020-01-01")
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "parsing scenario start date", err)
	}
	ctx, err := NewContext(ageCounts, rows, disease, beds, icuUnits, seed, startDate)
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "constructing scenario context", err)
	}
	return ctx
}

func totalAlive(snap *StateSnapshot) int {
	return sumAges(snap.Susceptible) + sumAges(snap.Infected) + sumAges(snap.Recovered) + sumAges(snap.Dead)
}

// Scenario 1: dormant epidemic, no imports, no interventions.
func TestScenarioDormantEpidemicStaysQuiet(t *testing.T) {
	ctx := newScenarioContext(t, 10000, 100, 20, 1)
	var last *StateSnapshot
	for day := 0; day < 90; day++ {
		snap, err := ctx.Iterate()
		if err != nil {
			t.Fatalf(UnexpectedErrorWhileError, "iterating a dormant epidemic", err)
		}
		last = snap
	}
	if got := sumAges(last.Dead); got != 0 {
		t.Fatalf(UnequalIntParameterError, "deaths in a dormant epidemic", 0, got)
	}
	if got := sumAges(last.Infected); got != 0 {
		t.Fatalf(UnequalIntParameterError, "infected count in a dormant epidemic", 0, got)
	}
	if got := sumAges(last.AllInfected); got != 0 {
		t.Fatalf(UnequalIntParameterError, "cumulative infections in a dormant epidemic", 0, got)
	}
	if got, want := totalAlive(last), ctx.population.Len(); got != want {
		t.Fatalf(UnequalIntParameterError, "conservation of susceptible+infected+recovered+dead", want, got)
	}
}

// Scenario 2: a single imported case with no interventions.
func TestScenarioSingleSeedNoInterventions(t *testing.T) {
	ctx := newScenarioContext(t, 10000, 100, 20, 2)
	iv := NewIntervention(0, ImportInfections)
	iv.ImportAmount = 1
	iv.ImportVariantIdx = 0
	if err := ctx.AddIntervention(iv); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "scheduling a single-case import", err)
	}
	var last *StateSnapshot
	for day := 0; day < 30; day++ {
		snap, err := ctx.Iterate()
		if err != nil {
			t.Fatalf(UnexpectedErrorWhileError, "iterating scenario 2", err)
		}
		last = snap
	}
	allInfected := sumAges(last.AllInfected)
	if allInfected < 1 {
		t.Fatalf("expected all_infected >= 1 after 30 days with a seeded case, got %d", allInfected)
	}
	if got := sumAges(last.Dead); got > allInfected {
		t.Fatalf("total dead (%d) exceeded all_infected (%d)", got, allInfected)
	}
}

// Scenario 3: lockdown. mobility_limitation reflects the
// applied reduction, and a locked-down run's R at day 30 is no greater
// than the unrestricted run's R at day 30 under the same seed.
func TestScenarioLockdownReducesSpread(t *testing.T) {
	seed := int64(3)

	unrestricted := newScenarioContext(t, 10000, 100, 20, seed)
	seedIv := NewIntervention(0, ImportInfections)
	seedIv.ImportAmount = 1
	if err := unrestricted.AddIntervention(seedIv); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "scheduling baseline import", err)
	}
	var baseSnap *StateSnapshot
	for day := 0; day < 30; day++ {
		snap, err := unrestricted.Iterate()
		if err != nil {
			t.Fatalf(UnexpectedErrorWhileError, "iterating unrestricted baseline", err)
		}
		baseSnap = snap
	}

	lockdown := newScenarioContext(t, 10000, 100, 20, seed)
	if err := lockdown.AddIntervention(&Intervention{Day: 0, Type: ImportInfections, ImportAmount: 1}); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "scheduling lockdown import", err)
	}
	mobilityIv := NewIntervention(5, LimitMobility)
	mobilityIv.MobilityReduction = 80
	if err := lockdown.AddIntervention(mobilityIv); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "scheduling lockdown mobility limit", err)
	}
	var lockSnap *StateSnapshot
	for day := 0; day < 30; day++ {
		snap, err := lockdown.Iterate()
		if err != nil {
			t.Fatalf(UnexpectedErrorWhileError, "iterating lockdown scenario", err)
		}
		lockSnap = snap
		if day >= 5 && snap.MobilityLimitation != 0.80 {
			t.Fatalf(UnequalFloatParameterError, "mobility_limitation from day 5 onward", 0.80, snap.MobilityLimitation)
		}
	}
	if lockSnap.R > baseSnap.R {
		t.Fatalf("expected lockdown R (%f) <= baseline R (%f) at day 30", lockSnap.R, baseSnap.R)
	}
}

// Scenario 4: capacity overwhelm with weekly imports and no
// ICU capacity at all.
func TestScenarioCapacityOverwhelm(t *testing.T) {
	ctx := newScenarioContext(t, 50000, 5, 0, 4)
	iv := NewIntervention(0, ImportInfectionsWeekly)
	iv.ImportWeeklyAmount = 100
	if err := ctx.AddIntervention(iv); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "scheduling weekly imports", err)
	}
	var last *StateSnapshot
	for day := 0; day < 60; day++ {
		snap, err := ctx.Iterate()
		if err != nil {
			t.Fatalf(UnexpectedErrorWhileError, "iterating capacity-overwhelm scenario", err)
		}
		last = snap
		if snap.AvailableHospitalBeds > 5 {
			t.Fatalf("available_hospital_beds (%d) exceeded capacity (5)", snap.AvailableHospitalBeds)
		}
	}
	if got := sumAges(last.Dead); got == 0 {
		t.Fatalf("expected deaths after 60 days with 5 beds and 0 ICU units against weekly imports of 100, got 0")
	}
}

// Scenario 5: contact tracing traces a detected agent's
// infector/infectees into the testing queue on the following day.
func TestScenarioContactTracingQueuesContacts(t *testing.T) {
	ctx := newScenarioContext(t, 10000, 100, 20, 5)
	seedIv := NewIntervention(0, ImportInfections)
	seedIv.ImportAmount = 1
	if err := ctx.AddIntervention(seedIv); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "scheduling contact-tracing seed import", err)
	}
	ctIv := NewIntervention(0, TestWithContactTracing)
	ctIv.TracingEfficiency = 100
	if err := ctx.AddIntervention(ctIv); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "scheduling contact tracing", err)
	}

	for day := 0; day < 30; day++ {
		if _, err := ctx.Iterate(); err != nil {
			t.Fatalf(UnexpectedErrorWhileError, "iterating contact-tracing scenario", err)
		}
	}

	// With tracing efficiency 100%, manually detecting an infector with a
	// tracked infectee must enqueue that infectee for tomorrow's test.
	// Constructed deterministically here rather than depending on which
	// agents this seed happens to infect.
	infector := ctx.population.Get(0)
	infector.Reset()
	infector.Age = 40
	infectee := ctx.population.Get(1)
	infectee.Reset()
	infectee.Age = 40
	infectee.IsInfected = true
	infectee.State = Illness
	infectee.Severity = Mild
	infectee.Infector = infector.Idx
	infector.AddInfectee(infectee.Idx)
	infector.WasDetected = true

	ctx.healthcare.traceContacts(ctx.population, infector, 1, ctx.rng)
	if !infectee.QueuedForTesting {
		t.Fatalf(ExpectedErrorWhileError, "queuing a detected infector's tracked infectee for testing")
	}
}

// Scenario 6: vaccination targets only the configured age
// range.
func TestScenarioVaccinationTargetsAgeRange(t *testing.T) {
	ctx := newScenarioContext(t, 10000, 100, 20, 6)
	seedIv := NewIntervention(0, ImportInfections)
	seedIv.ImportAmount = 1
	if err := ctx.AddIntervention(seedIv); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "scheduling vaccination-scenario seed import", err)
	}
	vaxIv := NewIntervention(10, Vaccinate)
	vaxIv.VaccinateWeekly = 7000
	vaxIv.VaccinateMinAge = 70
	vaxIv.VaccinateMaxAge = 99
	if err := ctx.AddIntervention(vaxIv); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "scheduling vaccination program", err)
	}

	var last *StateSnapshot
	for day := 0; day < 30; day++ {
		snap, err := ctx.Iterate()
		if err != nil {
			t.Fatalf(UnexpectedErrorWhileError, "iterating vaccination scenario", err)
		}
		last = snap
	}

	vaccinatedBelow70 := 0
	for age := 0; age < 70; age++ {
		vaccinatedBelow70 += last.Vaccinated[age]
	}
	if vaccinatedBelow70 != 0 {
		t.Fatalf(UnequalIntParameterError, "vaccinated count for ages 0..69", 0, vaccinatedBelow70)
	}

	vaccinated70Plus := 0
	popIn70Plus := 0
	for age := 70; age < 100; age++ {
		vaccinated70Plus += last.Vaccinated[age]
		popIn70Plus += ctx.population.AgeCount(age)
	}
	if vaccinated70Plus == 0 {
		t.Fatalf("expected some vaccinations among ages 70..99 after a weekly-7000 program, got 0")
	}
	if vaccinated70Plus > popIn70Plus {
		t.Fatalf("vaccinated count (%d) exceeded population in range (%d)", vaccinated70Plus, popIn70Plus)
	}
}
