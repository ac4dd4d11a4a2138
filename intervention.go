package epidemicabm

import "github.com/pkg/errors"

// InterventionType is the closed set of scheduled events a Context can
// apply. Like PersonState and Severity, it is a tag switched
// on exhaustively rather than dispatched through an interface.
type InterventionType int

const (
	TestAllWithSymptoms InterventionType = iota
	TestOnlySevereSymptoms
	TestWithContactTracing
	BuildNewICUUnits
	BuildNewHospitalBeds
	ImportInfections
	ImportInfectionsWeekly
	LimitMobility
	WearMasks
	Vaccinate
)

func (t InterventionType) String() string {
	switch t {
	case TestAllWithSymptoms:
		return "test-all-with-symptoms"
	case TestOnlySevereSymptoms:
		return "test-only-severe-symptoms"
	case TestWithContactTracing:
		return "test-with-contact-tracing"
	case BuildNewICUUnits:
		return "build-new-icu-units"
	case BuildNewHospitalBeds:
		return "build-new-hospital-beds"
	case ImportInfections:
		return "import-infections"
	case ImportInfectionsWeekly:
		return "import-infections-weekly"
	case LimitMobility:
		return "limit-mobility"
	case WearMasks:
		return "wear-masks"
	case Vaccinate:
		return "vaccinate"
	default:
		return "unknown"
	}
}

// ParseInterventionType maps a config file's intervention name to its
// closed type.
func ParseInterventionType(name string) (InterventionType, error) {
	switch name {
	case "test-all-with-symptoms":
		return TestAllWithSymptoms, nil
	case "test-only-severe-symptoms":
		return TestOnlySevereSymptoms, nil
	case "test-with-contact-tracing":
		return TestWithContactTracing, nil
	case "build-new-icu-units":
		return BuildNewICUUnits, nil
	case "build-new-hospital-beds":
		return BuildNewHospitalBeds, nil
	case "import-infections":
		return ImportInfections, nil
	case "import-infections-weekly":
		return ImportInfectionsWeekly, nil
	case "limit-mobility":
		return LimitMobility, nil
	case "wear-masks":
		return WearMasks, nil
	case "vaccinate":
		return Vaccinate, nil
	default:
		return 0, errors.Errorf(UnknownInterventionTypeError, name)
	}
}

// Intervention is one dated, typed event: a (date, type, parameters)
// triple. Day is the simulated day offset from the Context's
// start_date; config.go resolves ISO dates to this offset at load time.
// Only the fields relevant to Type are meaningful; unused fields are
// zero.
type Intervention struct {
	Day  int
	Type InterventionType

	applied bool

	MildDetectionRate  float64 // test-only-severe-symptoms (percent 0-100)
	TracingEfficiency  float64 // test-with-contact-tracing (percent 0-100)
	DetectedAnywayRate float64 // test-with-contact-tracing: chance a failed trace still surfaces the contact (percent 0-100)

	Units int // build-new-icu-units / build-new-hospital-beds

	ImportAmount       int     // import-infections
	ImportWeeklyAmount float64 // import-infections-weekly
	ImportVariantIdx   int

	MobilityReduction   float64 // percent 0-100
	MobilityPlace       *Place
	MobilityAgeMin      int
	MobilityAgeMax      int
	MobilityHasAgeRange bool

	MaskShare       float64 // percent 0-100
	MaskPlace       *Place
	MaskAgeMin      int
	MaskAgeMax      int
	MaskHasAgeRange bool

	VaccinateWeekly float64
	VaccinateMinAge int
	VaccinateMaxAge int
}

// NewIntervention creates an unapplied intervention scheduled for day.
func NewIntervention(day int, t InterventionType) *Intervention {
	return &Intervention{Day: day, Type: t}
}

// applyIntervention dispatches iv by type. Callers (Context's
// day loop) are responsible for only invoking this once per intervention,
// which it enforces via the applied flag as a second line of defense.
func (ctx *Context) applyIntervention(iv *Intervention) error {
	if iv.applied {
		return nil
	}
	iv.applied = true

	switch iv.Type {
	case TestAllWithSymptoms:
		ctx.healthcare.SetTestingMode(AllWithSymptoms)
	case TestOnlySevereSymptoms:
		ctx.healthcare.SetTestingMode(OnlySevereSymptoms)
		ctx.healthcare.SetMildDetectionRate(iv.MildDetectionRate / 100)
	case TestWithContactTracing:
		ctx.healthcare.SetTestingMode(AllWithSymptomsCT)
		ctx.healthcare.SetContactTracingParams(iv.TracingEfficiency/100, iv.DetectedAnywayRate/100)
	case BuildNewICUUnits:
		ctx.healthcare.AddICU(iv.Units)
	case BuildNewHospitalBeds:
		ctx.healthcare.AddBeds(iv.Units)
	case ImportInfections:
		return ctx.importInfections(iv.ImportAmount, iv.ImportVariantIdx)
	case ImportInfectionsWeekly:
		ctx.weeklyImports = append(ctx.weeklyImports, &weeklyImportSchedule{
			WeeklyAmount: iv.ImportWeeklyAmount,
			VariantIdx:   iv.ImportVariantIdx,
		})
	case LimitMobility:
		factor := 1 - iv.MobilityReduction/100
		if err := ctx.contacts.SetMobilityFactor(iv.MobilityPlace, iv.MobilityAgeMin, iv.MobilityAgeMax, iv.MobilityHasAgeRange, factor); err != nil {
			return err
		}
		ctx.mobilityLimitation = iv.MobilityReduction / 100
	case WearMasks:
		return ctx.contacts.SetMaskProbability(iv.MaskPlace, iv.MaskAgeMin, iv.MaskAgeMax, iv.MaskHasAgeRange, iv.MaskShare/100)
	case Vaccinate:
		ctx.healthcare.AddVaccinationProgram(iv.VaccinateMinAge, iv.VaccinateMaxAge, iv.VaccinateWeekly)
	default:
		return errors.Errorf(UnknownInterventionTypeError, iv.Type.String())
	}
	return nil
}

// weeklyImportSchedule prorates `import-infections-weekly` into daily
// imports with fractional carry, the same shape VaccinationProgram uses
//.
type weeklyImportSchedule struct {
	WeeklyAmount float64
	VariantIdx   int
	carry        float64
}

func (w *weeklyImportSchedule) nextDailyAmount() int {
	w.carry += w.WeeklyAmount / 7.0
	q := int(w.carry)
	w.carry -= float64(q)
	return q
}

// importInfections directly infects `amount` uniformly-random, currently
// susceptible persons with variantIdx, bypassing the contact/mask
// mechanics — the seeding mechanism for the
// `import-infections`/`import-infections-weekly` interventions (day-0
// conditions are seeded by SeedInitialConditions instead). It makes
// a bounded number of attempts and imports as many as it
// can find eligible hosts for; a population saturated with immunity is not
// a simulation failure.
func (ctx *Context) importInfections(amount int, variantIdx int) error {
	if amount <= 0 {
		return nil
	}
	variant := ctx.disease.Variant(variantIdx)
	if variant == nil {
		return errors.Errorf(UnknownVariantIndexError, variantIdx)
	}
	n := ctx.population.Len()
	if n == 0 {
		return nil
	}
	imported := 0
	maxAttempts := amount*20 + 100
	for attempts := 0; imported < amount && attempts < maxAttempts; attempts++ {
		idx := ctx.rng.Intn(n)
		target := ctx.population.Get(idx)
		if target.IsInfected || target.HasImmunity || target.State == Dead {
			continue
		}
		target.IsInfected = true
		target.IncludedInTotals = true
		target.VariantIdx = variantIdx
		target.DayOfInfection = ctx.day
		target.Infector = -1
		vmod := VaccineModifier(target, variant, ctx.day)
		severity, placeOfDeath := SampleSeverity(target.Age, variant, vmod, ctx.rng)
		target.Severity = severity
		target.PlaceOfDeath = placeOfDeath
		target.DaysLeft = SampleIncubationDays(variant, ctx.rng)
		target.State = Incubation
		imported++
		ctx.newInfectionsToday++
	}
	return nil
}
