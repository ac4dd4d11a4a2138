package epidemicabm

import (
	"math"

	"github.com/pkg/errors"
)

// Place is the closed set of contact venues.
type Place int

const (
	PlaceHome Place = iota
	PlaceWork
	PlaceSchool
	PlaceTransport
	PlaceLeisure
	PlaceOther
)

func (p Place) String() string {
	switch p {
	case PlaceHome:
		return "home"
	case PlaceWork:
		return "work"
	case PlaceSchool:
		return "school"
	case PlaceTransport:
		return "transport"
	case PlaceLeisure:
		return "leisure"
	case PlaceOther:
		return "other"
	default:
		return "unknown"
	}
}

// ParsePlace maps a config string to a Place using a lower-case keyword
// dispatch.
func ParsePlace(name string) (Place, error) {
	switch name {
	case "home":
		return PlaceHome, nil
	case "work":
		return PlaceWork, nil
	case "school":
		return PlaceSchool, nil
	case "transport":
		return PlaceTransport, nil
	case "leisure":
		return PlaceLeisure, nil
	case "other":
		return PlaceOther, nil
	default:
		return 0, errors.Errorf(InvalidStringParameterError, "place", name, "must be one of home/work/school/transport/leisure/other")
	}
}

// CanonicalInfectiousnessProfile is the day-offset-from-onset -> weight
// table used verbatim by the wild-type variant unless a config override
// replaces it.
func CanonicalInfectiousnessProfile() *ClassifiedValues {
	c := NewClassifiedValues(0)
	profile := []struct {
		day    int
		weight float64
	}{
		{-10, 0.00183}, {-9, 0.00280}, {-8, 0.00446}, {-7, 0.00742},
		{-6, 0.01291}, {-5, 0.02350}, {-4, 0.04419}, {-3, 0.08247},
		{-2, 0.14018}, {-1, 0.19032}, {0, 0.18539}, {1, 0.13091},
		{2, 0.07538}, {3, 0.04018}, {4, 0.02144}, {5, 0.01185},
		{6, 0.00686}, {7, 0.00415}, {8, 0.00262}, {9, 0.00172},
		{10, 0.00117},
	}
	for _, p := range profile {
		c.Set(p.day, p.weight)
	}
	return c
}

// VaccineEfficacyDefault is the default severity-threshold reduction
// applied 14 days after vaccination.
const VaccineEfficacyDefault = 0.90

// VaccineEffectDelayDays is how long after vaccination the severity
// modifier starts applying.
const VaccineEffectDelayDays = 14

// Variant is a named parameter bundle overriding wild-type disease values.
// Variant 0 is always wild-type.
type Variant struct {
	Name string

	PSusceptibility       *ClassifiedValues
	PSymptomatic          *ClassifiedValues
	PSevere               *ClassifiedValues
	PCritical             *ClassifiedValues
	PFatal                *ClassifiedValues
	PDeathOutsideHospital *ClassifiedValues

	InfectiousnessOverTime *ClassifiedValues

	MeanIncubation          float64
	MeanOnsetToDeath        float64
	MeanOnsetToRecovery     float64
	RatioBeforeHospitalisation float64
	RatioInWard             float64

	InfectiousnessMultiplier float64
	PAsymptomaticInfection   float64
	PMaskProtectsWearer      float64
	PMaskProtectsOthers      float64

	PHospitalDeathNoBeds float64
	PICUDeathNoBeds      float64
	PHospitalDeath       float64

	VaccineEfficacy float64
}

// DefaultWildTypeVariant returns a fully-populated variant using
// conservative, textbook-respiratory-disease defaults; config overrides
// replace individual fields via Disease's constructor.
func DefaultWildTypeVariant() *Variant {
	v := &Variant{
		Name:                       "wild-type",
		PSusceptibility:            NewClassifiedValues(1.0),
		PSymptomatic:               NewClassifiedValues(0.6),
		PSevere:                    NewClassifiedValues(0.10),
		PCritical:                  NewClassifiedValues(0.04),
		PFatal:                     NewClassifiedValues(0.01),
		PDeathOutsideHospital:      NewClassifiedValues(0.3),
		InfectiousnessOverTime:     CanonicalInfectiousnessProfile(),
		MeanIncubation:             5.0,
		MeanOnsetToDeath:           18.0,
		MeanOnsetToRecovery:        12.0,
		RatioBeforeHospitalisation: 0.6,
		RatioInWard:                0.2,
		InfectiousnessMultiplier:   1.0,
		PAsymptomaticInfection:     0.5,
		PMaskProtectsWearer:        0.3,
		PMaskProtectsOthers:        0.6,
		PHospitalDeathNoBeds:       0.9,
		PICUDeathNoBeds:            0.95,
		PHospitalDeath:             0.15,
		VaccineEfficacy:            VaccineEfficacyDefault,
	}
	return v
}

// Validate checks a variant's parameters are in range, wrapping errors
// with the variant name the way evoepi_config.go wraps per-model errors
// with the epidemic model name.
func (v *Variant) Validate() error {
	checks := []struct {
		name string
		val  float64
	}{
		{"infectiousness_multiplier", v.InfectiousnessMultiplier},
		{"p_asymptomatic_infection", v.PAsymptomaticInfection},
		{"p_mask_protects_wearer", v.PMaskProtectsWearer},
		{"p_mask_protects_others", v.PMaskProtectsOthers},
		{"p_hospital_death_no_beds", v.PHospitalDeathNoBeds},
		{"p_icu_death_no_beds", v.PICUDeathNoBeds},
		{"p_hospital_death", v.PHospitalDeath},
		{"vaccine_efficacy", v.VaccineEfficacy},
	}
	for _, c := range checks {
		if c.val < 0 || c.val > 1 {
			return errors.Wrapf(
				errors.Errorf(InvalidFloatParameterError, c.name, c.val, "must be in [0,1]"),
				"cannot validate variant %q", v.Name,
			)
		}
	}
	if v.MeanIncubation <= 0 || v.MeanOnsetToDeath <= 0 || v.MeanOnsetToRecovery <= 0 {
		return errors.Wrapf(
			errors.Errorf(InvalidFloatParameterError, "mean duration", v.MeanIncubation, "must be > 0"),
			"cannot validate variant %q", v.Name,
		)
	}
	return nil
}

// Disease holds wild-type plus any variant overrides.
type Disease struct {
	Variants []*Variant
}

// NewDisease builds a Disease from a wild-type variant plus zero or more
// named overrides, validating every variant up front the way
// evoepi_config.go's Config.Validate walks every configured model.
func NewDisease(wildType *Variant, overrides ...*Variant) (*Disease, error) {
	if wildType == nil {
		wildType = DefaultWildTypeVariant()
	}
	d := &Disease{Variants: append([]*Variant{wildType}, overrides...)}
	for _, v := range d.Variants {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Variant returns the variant at idx, or nil if out of range.
func (d *Disease) Variant(idx int) *Variant {
	if idx < 0 || idx >= len(d.Variants) {
		return nil
	}
	return d.Variants[idx]
}

// VariantByName looks up a variant by name, returning its index.
func (d *Disease) VariantByName(name string) (int, *Variant, error) {
	for i, v := range d.Variants {
		if v.Name == name {
			return i, v, nil
		}
	}
	return -1, nil, errors.Errorf(UnknownVariantError, name)
}

// SourceInfectiousness looks up source infectiousness: day
// offset is -DaysLeft while incubating (counting down to onset) or
// DayOfIllness once ill, else zero. Asymptomatic sources are discounted
// by PAsymptomaticInfection.
func SourceInfectiousness(p *Person, v *Variant) float64 {
	var day int
	switch p.State {
	case Incubation:
		day = -p.DaysLeft
	case Illness:
		day = p.DayOfIllness
	default:
		return 0
	}
	w := v.InfectiousnessOverTime.Get(day)
	if p.Severity == Asymptomatic {
		w *= v.PAsymptomaticInfection
	}
	return w
}

// InfectionProbability computes p = source_infectiousness *
// p_susceptibility(age) * variant.infectiousness_multiplier.
func InfectionProbability(sourceInfectiousness float64, targetAge int, v *Variant) float64 {
	p := sourceInfectiousness * v.PSusceptibility.Get(targetAge) * v.InfectiousnessMultiplier
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// MaskAverts runs the composite mask-protection draw: a
// mask worn with probability maskP on this contact protects with combined
// probability a + b - a*b where a/b are the wearer/others components
// scaled by how often the mask is actually worn.
func MaskAverts(maskP float64, v *Variant, rng *RandomPool) bool {
	if maskP <= 0 {
		return false
	}
	a := maskP * v.PMaskProtectsOthers
	b := maskP * v.PMaskProtectsWearer
	pMask := a + b - a*b
	return rng.Bernoulli(pMask)
}

// VaccineModifier returns the multiplier applied to severe/critical/fatal
// thresholds for a vaccinated person: 1 if not vaccinated, not
// yet 14 days post-vaccination, dead, or detected (those are never
// vaccinated in the first place, enforced by HealthcareSystem); otherwise
// (1 - efficacy).
func VaccineModifier(p *Person, v *Variant, today int) float64 {
	if p.DayOfVaccination < 0 {
		return 1.0
	}
	if today-p.DayOfVaccination < VaccineEffectDelayDays {
		return 1.0
	}
	return 1 - v.VaccineEfficacy
}

// SampleSeverity runs the cumulative-threshold severity
// sampling. This is the primary, currently-active severity law; the
// product-threshold alternative is the deprecated form and is not
// implemented.
func SampleSeverity(age int, v *Variant, vmod float64, rng *RandomPool) (Severity, PlaceOfDeath) {
	val := rng.Uniform()
	syc := v.PSymptomatic.Get(age)
	sc := v.PSevere.Get(age) * vmod
	cc := v.PCritical.Get(age) * vmod
	fc := v.PFatal.Get(age) * vmod

	switch {
	case val >= syc:
		return Asymptomatic, NotDead
	case val >= sc:
		return Mild, NotDead
	case val >= cc:
		return Severe, NotDead
	case val >= fc:
		return Critical, NotDead
	default:
		if rng.Bernoulli(v.PDeathOutsideHospital.Get(age)) {
			return Fatal, OutsideHospital
		}
		return Fatal, InHospital
	}
}

// SampleIncubationDays draws the incubation duration, rounded to whole
// days, drawn from Gamma(mean=mean_incubation, cv=0.86).
func SampleIncubationDays(v *Variant, rng *RandomPool) int {
	return roundDays(rng.Gamma(v.MeanIncubation, 0.86))
}

// DurationBreakdown is the set of sampled sub-durations derived from a
// single onset-to-removed draw.
type DurationBreakdown struct {
	OnsetToRemoved   float64
	IllnessDays      int
	HospitalDays     int
	ICUDays          int
}

// SampleDurations runs the onset-to-removed sampling and its
// breakdown into illness/hospital/ICU day counts, which depends on the
// sampled severity.
func SampleDurations(v *Variant, severity Severity, rng *RandomPool) DurationBreakdown {
	mu := v.MeanOnsetToRecovery
	if severity == Fatal {
		mu = v.MeanOnsetToDeath
	}
	onsetToRemoved := rng.Gamma(mu, 0.45)

	var d DurationBreakdown
	d.OnsetToRemoved = onsetToRemoved

	switch severity {
	case Asymptomatic, Mild:
		d.IllnessDays = roundDays(onsetToRemoved)
	case Severe:
		d.IllnessDays = roundDays(onsetToRemoved * v.RatioBeforeHospitalisation)
		d.HospitalDays = roundDays(onsetToRemoved * (1 - v.RatioBeforeHospitalisation))
	case Critical, Fatal:
		d.IllnessDays = roundDays(onsetToRemoved * v.RatioBeforeHospitalisation)
		d.HospitalDays = roundDays(onsetToRemoved * v.RatioInWard)
		remaining := 1 - v.RatioInWard - v.RatioBeforeHospitalisation
		if remaining < 0 {
			remaining = 0
		}
		d.ICUDays = roundDays(onsetToRemoved * remaining)
	}
	return d
}

func roundDays(x float64) int {
	if x < 0 {
		return 0
	}
	return int(math.Round(x))
}
