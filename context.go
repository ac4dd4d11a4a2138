package epidemicabm

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Context is the day-loop scheduler. It is the sole
// owner of Population, Disease, HealthcareSystem, RandomPool and the
// intervention list; no state here is shared across Context instances,
// so multiple simulations may run concurrently.
type Context struct {
	population *Population
	disease    *Disease
	contacts   *ContactMatrix
	healthcare *HealthcareSystem
	rng        *RandomPool

	startDate time.Time
	day       int

	interventions []*Intervention
	weeklyImports []*weeklyImportSchedule

	dailyContactsByVenue map[Place]int
	exposedToday         int
	newInfectionsToday   int
	ctCasesToday         int
	mobilityLimitation   float64

	removedCount        int
	removedSecondarySum int

	failure *SimulationFailure
	logger  DataLogger
}

// SetLogger attaches a DataLogger that subsequent Iterate calls notify of
// deaths, detections and applied interventions as they occur. Passing nil
// detaches any previously set logger. Unlike per-day snapshots, which
// Iterate returns for the caller to log itself, these are per-event
// streams the day loop is the only place positioned to emit.
func (ctx *Context) SetLogger(logger DataLogger) {
	ctx.logger = logger
}

// NewContext builds a Context from its construction inputs: an age
// histogram, a contacts-per-day table, a Disease, initial healthcare
// capacity, a PRNG seed, and a start date.
func NewContext(ageCounts []int, contactRows []ContactRow, disease *Disease, hospitalBeds, icuUnits int, seed int64, startDate time.Time) (*Context, error) {
	rng := NewRandomPool(seed)

	population, err := NewPopulation(ageCounts, rng)
	if err != nil {
		return nil, errors.Wrap(err, "cannot construct population")
	}
	contacts, err := NewContactMatrix(contactRows, len(ageCounts))
	if err != nil {
		return nil, errors.Wrap(err, "cannot construct contact matrix")
	}
	if disease == nil {
		return nil, errors.New("disease must not be nil")
	}

	return &Context{
		population:           population,
		disease:              disease,
		contacts:             contacts,
		healthcare:           NewHealthcareSystem(hospitalBeds, icuUnits),
		rng:                  rng,
		startDate:            startDate,
		dailyContactsByVenue: make(map[Place]int),
		mobilityLimitation:   0,
	}, nil
}

// Day returns the next day to be simulated (the day the most recent
// Iterate call, if any, just completed plus one).
func (ctx *Context) Day() int { return ctx.day }

// Failure returns the sticky simulation failure, if any.
func (ctx *Context) Failure() *SimulationFailure { return ctx.failure }

// Population, Disease, Contacts and Healthcare expose the owned
// subsystems to collaborators (loggers, diagnostics, CLIs) without
// giving up Context's exclusive ownership of their mutation.
func (ctx *Context) Population() *Population        { return ctx.population }
func (ctx *Context) Disease() *Disease               { return ctx.disease }
func (ctx *Context) Contacts() *ContactMatrix        { return ctx.contacts }
func (ctx *Context) Healthcare() *HealthcareSystem    { return ctx.healthcare }

// StartDate returns the calendar date of day 0 (the Context's start_date).
func (ctx *Context) StartDate() time.Time { return ctx.startDate }

// DateToDay converts an ISO calendar date to a day offset from
// start_date, the form intervention scheduling expects.
func (ctx *Context) DateToDay(date time.Time) int {
	return int(date.Sub(ctx.startDate).Hours() / 24)
}

// AddIntervention validates and schedules iv. Validation errors are
// surfaced immediately, and the Context remains perfectly usable
// afterwards.
func (ctx *Context) AddIntervention(iv *Intervention) error {
	switch iv.Type {
	case TestOnlySevereSymptoms:
		if iv.MildDetectionRate < 0 || iv.MildDetectionRate > 100 {
			return errors.Errorf(InvalidFloatParameterError, "mild_detection_rate", iv.MildDetectionRate, "must be in [0,100]")
		}
	case TestWithContactTracing:
		if iv.TracingEfficiency < 0 || iv.TracingEfficiency > 100 {
			return errors.Errorf(InvalidFloatParameterError, "efficiency", iv.TracingEfficiency, "must be in [0,100]")
		}
		if iv.DetectedAnywayRate < 0 || iv.DetectedAnywayRate > 100 {
			return errors.Errorf(InvalidFloatParameterError, "detected_anyway_rate", iv.DetectedAnywayRate, "must be in [0,100]")
		}
	case BuildNewICUUnits, BuildNewHospitalBeds:
		if iv.Units < 0 {
			return errors.Errorf(InvalidIntParameterError, "units", iv.Units, "must be >= 0")
		}
	case ImportInfections:
		if iv.ImportAmount < 0 {
			return errors.Errorf(InvalidIntParameterError, "amount", iv.ImportAmount, "must be >= 0")
		}
		if ctx.disease.Variant(iv.ImportVariantIdx) == nil {
			return errors.Errorf(UnknownVariantIndexError, iv.ImportVariantIdx)
		}
	case ImportInfectionsWeekly:
		if iv.ImportWeeklyAmount < 0 {
			return errors.Errorf(InvalidFloatParameterError, "weekly_amount", iv.ImportWeeklyAmount, "must be >= 0")
		}
		if ctx.disease.Variant(iv.ImportVariantIdx) == nil {
			return errors.Errorf(UnknownVariantIndexError, iv.ImportVariantIdx)
		}
	case LimitMobility:
		if iv.MobilityReduction < 0 || iv.MobilityReduction > 100 {
			return errors.Errorf(InvalidFloatParameterError, "reduction", iv.MobilityReduction, "must be in [0,100]")
		}
	case WearMasks:
		if iv.MaskShare < 0 || iv.MaskShare > 100 {
			return errors.Errorf(InvalidFloatParameterError, "share_of_contacts", iv.MaskShare, "must be in [0,100]")
		}
	case Vaccinate:
		if iv.VaccinateWeekly < 0 {
			return errors.Errorf(InvalidFloatParameterError, "weekly_vaccinations", iv.VaccinateWeekly, "must be >= 0")
		}
		if iv.VaccinateMinAge < 0 || iv.VaccinateMinAge > iv.VaccinateMaxAge {
			return errors.Errorf(InvalidIntParameterError, "min_age", iv.VaccinateMinAge, "must be >= 0 and <= max_age")
		}
	case TestAllWithSymptoms:
		// no parameters to validate
	default:
		return errors.Errorf(UnknownInterventionTypeError, iv.Type.String())
	}
	ctx.interventions = append(ctx.interventions, iv)
	return nil
}

// InitialConditions seeds day-0 agents directly into non-Susceptible
// states, bypassing the contact/mask mechanics that would otherwise be
// needed to reach them.
type InitialConditions struct {
	Incubating     int
	Ill            int
	InWard         int
	InICU          int
	Dead           int
	ConfirmedCases int
}

// SeedInitialConditions applies ic against wild-type (variant 0), then
// marks up to ConfirmedCases of the resulting infected/dead persons as
// detected. Must be called before the first Iterate.
func (ctx *Context) SeedInitialConditions(ic InitialConditions) error {
	variant := ctx.disease.Variant(0)
	if variant == nil {
		return errors.New("disease has no wild-type variant")
	}
	n := ctx.population.Len()

	pickSusceptible := func() (*Person, bool) {
		for attempts := 0; attempts < n*5+100; attempts++ {
			idx := ctx.rng.Intn(n)
			p := ctx.population.Get(idx)
			if p.State == Susceptible {
				return p, true
			}
		}
		return nil, false
	}

	seedOne := func(state PersonState) {
		p, ok := pickSusceptible()
		if !ok {
			return
		}
		p.IsInfected = true
		p.IncludedInTotals = true
		p.VariantIdx = 0
		p.DayOfInfection = 0
		p.Infector = -1
		vmod := VaccineModifier(p, variant, 0)
		severity, placeOfDeath := SampleSeverity(p.Age, variant, vmod, ctx.rng)
		p.Severity = severity
		p.PlaceOfDeath = placeOfDeath

		switch state {
		case Incubation:
			p.State = Incubation
			p.DaysLeft = SampleIncubationDays(variant, ctx.rng)
		case Illness:
			d := SampleDurations(variant, severity, ctx.rng)
			p.State = Illness
			p.DaysFromOnsetToRemoved = int(math.Round(d.OnsetToRemoved))
			p.DaysLeft = d.IllnessDays
			p.PendingHospitalDays = d.HospitalDays
			p.PendingICUDays = d.ICUDays
		case Hospitalized:
			d := SampleDurations(variant, severity, ctx.rng)
			p.State = Hospitalized
			p.DaysLeft = d.HospitalDays
			p.WasDetected = true
			ctx.healthcare.AcquireBed()
		case InICU:
			d := SampleDurations(variant, severity, ctx.rng)
			p.State = InICU
			p.DaysLeft = d.ICUDays
			p.WasDetected = true
			ctx.healthcare.AcquireICU()
		case Dead:
			p.State = Dead
			p.IsInfected = false
			if placeOfDeath == NotDead {
				p.PlaceOfDeath = OutsideHospital
			}
		}
	}

	for i := 0; i < ic.Incubating; i++ {
		seedOne(Incubation)
	}
	for i := 0; i < ic.Ill; i++ {
		seedOne(Illness)
	}
	for i := 0; i < ic.InWard; i++ {
		seedOne(Hospitalized)
	}
	for i := 0; i < ic.InICU; i++ {
		seedOne(InICU)
	}
	for i := 0; i < ic.Dead; i++ {
		seedOne(Dead)
	}

	marked := 0
	for idx := 0; idx < n && marked < ic.ConfirmedCases; idx++ {
		p := ctx.population.Get(idx)
		if (p.IsInfected || p.State == Dead) && !p.WasDetected {
			p.WasDetected = true
			marked++
		}
	}
	return nil
}

// recordRemoval feeds the reproduction-number accumulator: mean
// other_people_infected over all removed infectors, reported once >= 6
// removals exist.
func (ctx *Context) recordRemoval(p *Person) {
	ctx.removedCount++
	ctx.removedSecondarySum += p.OtherPeopleInfected
}

// Iterate advances the simulation by exactly one day. Once a
// SimulationFailure has been recorded, every subsequent call returns it
// immediately without touching any state: the simulation object is no
// longer usable.
func (ctx *Context) Iterate() (*StateSnapshot, error) {
	if ctx.failure != nil {
		return nil, ctx.failure
	}

	for _, iv := range ctx.interventions {
		if !iv.applied && iv.Day == ctx.day {
			if err := ctx.applyIntervention(iv); err != nil {
				return nil, ctx.fail(err)
			}
			if ctx.logger != nil {
				if err := ctx.logger.LogIntervention(ctx.day, iv.Type); err != nil {
					return nil, ctx.fail(err)
				}
			}
		}
	}

	for _, w := range ctx.weeklyImports {
		amount := w.nextDailyAmount()
		if amount > 0 {
			if err := ctx.importInfections(amount, w.VariantIdx); err != nil {
				return nil, ctx.fail(err)
			}
		}
	}

	var onDetected func(p *Person) error
	if ctx.logger != nil {
		onDetected = func(p *Person) error {
			return ctx.logger.LogDetection(ctx.day, p.Idx, p.Age)
		}
	}
	ctCases, err := ctx.healthcare.DrainTestingQueue(ctx.population, ctx.disease, ctx.rng, onDetected)
	if err != nil {
		return nil, ctx.fail(err)
	}
	ctx.ctCasesToday = ctCases
	ctx.healthcare.ApplyVaccinations(ctx.population, ctx.day)

	ctx.dailyContactsByVenue = make(map[Place]int)
	ctx.exposedToday = 0
	ctx.newInfectionsToday = 0

	err = ctx.population.ForEach(ctx.rng, func(idx int) error {
		return ctx.stepPerson(idx)
	})
	if err != nil {
		return nil, ctx.fail(err)
	}

	snap := ctx.generateState()
	ctx.day++
	return snap, nil
}

// fail converts any error raised while advancing a day into a sticky
// SimulationFailure. The day counter is not incremented.
func (ctx *Context) fail(err error) *SimulationFailure {
	sf, ok := err.(*SimulationFailure)
	if !ok {
		sf = &SimulationFailure{Code: WrongState, PersonIdx: -1, Day: ctx.day, Detail: err.Error()}
	}
	ctx.failure = sf
	return sf
}

// StateSnapshot is the per-day output of generateState.
type StateSnapshot struct {
	Day int

	Susceptible []int
	Infected    []int
	AllInfected []int
	Detected    []int
	AllDetected []int
	Recovered   []int
	Hospitalized []int
	InICU        []int
	Dead         []int
	Vaccinated   []int

	AvailableHospitalBeds int
	AvailableICUUnits     int
	TotalICUUnits         int
	R                     float64
	ExposedPerDay         int
	CTCasesPerDay         int
	MobilityLimitation    float64

	DailyContactsByVenue map[Place]int
}

// generateState scans the Person array once, aggregating the per-age
// series and scalars reported in a StateSnapshot.
func (ctx *Context) generateState() *StateSnapshot {
	nrAges := ctx.population.NrAges()
	snap := &StateSnapshot{
		Day:                   ctx.day,
		Susceptible:           make([]int, nrAges),
		Infected:              make([]int, nrAges),
		AllInfected:           make([]int, nrAges),
		Detected:              make([]int, nrAges),
		AllDetected:           make([]int, nrAges),
		Recovered:             make([]int, nrAges),
		Hospitalized:          make([]int, nrAges),
		InICU:                 make([]int, nrAges),
		Dead:                  make([]int, nrAges),
		Vaccinated:            make([]int, nrAges),
		AvailableHospitalBeds: ctx.healthcare.AvailableBeds(),
		AvailableICUUnits:     ctx.healthcare.AvailableICU(),
		TotalICUUnits:         ctx.healthcare.TotalICU(),
		ExposedPerDay:         ctx.exposedToday,
		CTCasesPerDay:         ctx.ctCasesToday,
		MobilityLimitation:    ctx.mobilityLimitation,
		DailyContactsByVenue:  ctx.dailyContactsByVenue,
	}

	for i := 0; i < ctx.population.Len(); i++ {
		p := ctx.population.Get(i)
		age := p.Age

		switch p.State {
		case Susceptible:
			snap.Susceptible[age]++
		case Incubation, Illness:
			snap.Infected[age]++
		case Hospitalized:
			snap.Infected[age]++
			snap.Hospitalized[age]++
		case InICU:
			snap.Infected[age]++
			snap.InICU[age]++
		case Recovered:
			snap.Recovered[age]++
		case Dead:
			snap.Dead[age]++
		}

		if p.IncludedInTotals {
			snap.AllInfected[age]++
		}
		if p.WasDetected {
			snap.AllDetected[age]++
			if p.IsInfected {
				snap.Detected[age]++
			}
		}
		if p.DayOfVaccination >= 0 {
			snap.Vaccinated[age]++
		}
	}

	if ctx.removedCount >= 6 {
		snap.R = float64(ctx.removedSecondarySum) / float64(ctx.removedCount)
	}
	return snap
}

// SampleWhat is the closed set of diagnostic sample kinds the sampling
// interface supports.
type SampleWhat int

const (
	InfectiousnessCurve SampleWhat = iota
	ContactsPerDaySample
	SymptomSeveritySample
	IncubationPeriodSample
	IllnessPeriodSample
	HospitalizationPeriodSample
	ICUPeriodSample
	OnsetToRemovedPeriodSample
)

func (w SampleWhat) String() string {
	switch w {
	case InfectiousnessCurve:
		return "infectiousness_curve"
	case ContactsPerDaySample:
		return "contacts_per_day"
	case SymptomSeveritySample:
		return "symptom_severity"
	case IncubationPeriodSample:
		return "incubation_period"
	case IllnessPeriodSample:
		return "illness_period"
	case HospitalizationPeriodSample:
		return "hospitalization_period"
	case ICUPeriodSample:
		return "icu_period"
	case OnsetToRemovedPeriodSample:
		return "onset_to_removed_period"
	default:
		return "unknown"
	}
}

// sampleSize is the fixed number of diagnostic draws taken per call to
// Sample.
const sampleSize = 10000

// Sample draws sampleSize independent values of `what` for a given age
// (and, for the duration samples, an assumed severity) from variantIdx,
// without mutating any simulation state. This is a read-only diagnostic
// collaborator, not part of the day loop; it draws from the same
// RandomPool, so calling it interleaved with Iterate perturbs the
// simulation's own sequence and should only be done between runs.
func (ctx *Context) Sample(what SampleWhat, age int, severity *Severity, variantIdx int) ([]float64, error) {
	variant := ctx.disease.Variant(variantIdx)
	if variant == nil {
		return nil, errors.Errorf(UnknownVariantIndexError, variantIdx)
	}

	out := make([]float64, sampleSize)
	switch what {
	case InfectiousnessCurve:
		weight := variant.InfectiousnessOverTime.Get(age)
		for i := range out {
			out[i] = weight
		}
	case ContactsPerDaySample:
		avg := ctx.contacts.AvgContactsPerDay(age)
		for i := range out {
			raw := ctx.rng.Lognormal(0, 0.5) * avg
			if raw < 0 {
				raw = 0
			}
			out[i] = math.Floor(raw)
		}
	case SymptomSeveritySample:
		for i := range out {
			sev, _ := SampleSeverity(age, variant, 1.0, ctx.rng)
			out[i] = float64(sev)
		}
	case IncubationPeriodSample:
		for i := range out {
			out[i] = float64(SampleIncubationDays(variant, ctx.rng))
		}
	case IllnessPeriodSample, HospitalizationPeriodSample, ICUPeriodSample, OnsetToRemovedPeriodSample:
		sev := Mild
		if severity != nil {
			sev = *severity
		}
		for i := range out {
			d := SampleDurations(variant, sev, ctx.rng)
			switch what {
			case IllnessPeriodSample:
				out[i] = float64(d.IllnessDays)
			case HospitalizationPeriodSample:
				out[i] = float64(d.HospitalDays)
			case ICUPeriodSample:
				out[i] = float64(d.ICUDays)
			case OnsetToRemovedPeriodSample:
				out[i] = d.OnsetToRemoved
			}
		}
	default:
		return nil, errors.Errorf(InvalidStringParameterError, "sample_what", what.String(), "unsupported")
	}
	return out, nil
}
