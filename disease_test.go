package epidemicabm

import "testing"

func TestParsePlaceRoundTrip(t *testing.T) {
	names := []string{"home", "work", "school", "transport", "leisure", "other"}
	for _, name := range names {
		place, err := ParsePlace(name)
		if err != nil {
			t.Fatalf(UnexpectedErrorWhileError, "parsing valid place", err)
		}
		if got := place.String(); got != name {
			t.Errorf("place %q: String() returned %q", name, got)
		}
	}
	if _, err := ParsePlace("nowhere"); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "parsing an invalid place name")
	}
}

func TestCanonicalInfectiousnessProfilePeaksNearOnset(t *testing.T) {
	c := CanonicalInfectiousnessProfile()
	if got := c.Get(0); got <= c.Get(-5) || got <= c.Get(5) {
		t.Errorf("expected day-0 weight to dominate neighbors, got day0=%f day-5=%f day5=%f", got, c.Get(-5), c.Get(5))
	}
	if got := c.Get(100); got != 0 {
		t.Fatalf(UnequalFloatParameterError, "far-future day default", 0, got)
	}
}

func TestDefaultWildTypeVariantValidates(t *testing.T) {
	v := DefaultWildTypeVariant()
	if err := v.Validate(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "validating default wild-type variant", err)
	}
}

func TestVariantValidateRejectsOutOfRangeProbability(t *testing.T) {
	v := DefaultWildTypeVariant()
	v.PHospitalDeath = 1.5
	if err := v.Validate(); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "validating a variant with p_hospital_death > 1")
	}
}

func TestVariantValidateRejectsNonPositiveDuration(t *testing.T) {
	v := DefaultWildTypeVariant()
	v.MeanIncubation = 0
	if err := v.Validate(); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "validating a variant with zero mean incubation")
	}
}

func TestNewDiseaseDefaultsWildType(t *testing.T) {
	d, err := NewDisease(nil)
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "constructing disease with nil wild-type", err)
	}
	if len(d.Variants) != 1 {
		t.Fatalf(UnequalIntParameterError, "variant count", 1, len(d.Variants))
	}
	if d.Variant(0).Name != "wild-type" {
		t.Errorf("expected default variant name %q, got %q", "wild-type", d.Variant(0).Name)
	}
	if d.Variant(5) != nil {
		t.Fatalf(UnexpectedErrorWhileError, "indexing out-of-range variant", "got non-nil")
	}
}

func TestNewDiseasePropagatesValidationError(t *testing.T) {
	bad := DefaultWildTypeVariant()
	bad.Name = "broken"
	bad.VaccineEfficacy = -1
	if _, err := NewDisease(DefaultWildTypeVariant(), bad); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "constructing disease with an invalid variant override")
	}
}

func TestVariantByName(t *testing.T) {
	delta := DefaultWildTypeVariant()
	delta.Name = "delta"
	d, err := NewDisease(DefaultWildTypeVariant(), delta)
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "constructing disease", err)
	}
	idx, v, err := d.VariantByName("delta")
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "looking up known variant", err)
	}
	if idx != 1 || v.Name != "delta" {
		t.Fatalf(UnequalIntParameterError, "delta variant index", 1, idx)
	}
	if _, _, err := d.VariantByName("omicron"); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "looking up an unknown variant")
	}
}

func TestSourceInfectiousnessZeroOutsideIncubationAndIllness(t *testing.T) {
	v := DefaultWildTypeVariant()
	p := NewPerson(0, 30)
	p.State = Recovered
	if got := SourceInfectiousness(p, v); got != 0 {
		t.Fatalf(UnequalFloatParameterError, "infectiousness while recovered", 0, got)
	}
}

func TestSourceInfectiousnessDiscountsAsymptomatic(t *testing.T) {
	v := DefaultWildTypeVariant()
	symptomatic := NewPerson(0, 30)
	symptomatic.State = Illness
	symptomatic.DayOfIllness = 0
	symptomatic.Severity = Mild

	asymptomatic := NewPerson(1, 30)
	asymptomatic.State = Illness
	asymptomatic.DayOfIllness = 0
	asymptomatic.Severity = Asymptomatic

	wSym := SourceInfectiousness(symptomatic, v)
	wAsym := SourceInfectiousness(asymptomatic, v)
	if wAsym >= wSym {
		t.Errorf("expected asymptomatic infectiousness (%f) to be discounted below symptomatic (%f)", wAsym, wSym)
	}
}

func TestInfectionProbabilityClampedToUnitInterval(t *testing.T) {
	v := DefaultWildTypeVariant()
	v.InfectiousnessMultiplier = 100
	if got := InfectionProbability(1.0, 30, v); got != 1 {
		t.Fatalf(UnequalFloatParameterError, "clamped infection probability", 1, got)
	}
	if got := InfectionProbability(-5, 30, v); got != 0 {
		t.Fatalf(UnequalFloatParameterError, "negative infection probability", 0, got)
	}
}

func TestMaskAvertsNeverTriggersWithZeroProbability(t *testing.T) {
	v := DefaultWildTypeVariant()
	rng := NewRandomPool(1)
	for i := 0; i < 100; i++ {
		if MaskAverts(0, v, rng) {
			t.Fatalf(UnexpectedErrorWhileError, "mask-averts with zero mask probability", "got true")
		}
	}
}

func TestVaccineModifierBeforeDelayIsUnmodified(t *testing.T) {
	v := DefaultWildTypeVariant()
	p := NewPerson(0, 50)
	p.DayOfVaccination = 10
	if got := VaccineModifier(p, v, 15); got != 1.0 {
		t.Fatalf(UnequalFloatParameterError, "modifier before 14-day delay", 1.0, got)
	}
}

func TestVaccineModifierAfterDelayAppliesEfficacy(t *testing.T) {
	v := DefaultWildTypeVariant()
	p := NewPerson(0, 50)
	p.DayOfVaccination = 0
	want := 1 - v.VaccineEfficacy
	if got := VaccineModifier(p, v, VaccineEffectDelayDays); got != want {
		t.Fatalf(UnequalFloatParameterError, "modifier after delay", want, got)
	}
}

func TestVaccineModifierUnvaccinated(t *testing.T) {
	v := DefaultWildTypeVariant()
	p := NewPerson(0, 50)
	if got := VaccineModifier(p, v, 100); got != 1.0 {
		t.Fatalf(UnequalFloatParameterError, "modifier for unvaccinated person", 1.0, got)
	}
}

func TestSampleSeverityAlwaysFatalUnderCertainDraw(t *testing.T) {
	v := DefaultWildTypeVariant()
	v.PSymptomatic.Set(30, 1.0)
	v.PSevere.Set(30, 1.0)
	v.PCritical.Set(30, 1.0)
	v.PFatal.Set(30, 1.0)
	rng := NewRandomPool(5)
	severity, place := SampleSeverity(30, v, 1.0, rng)
	if severity != Fatal {
		t.Fatalf(UnequalIntParameterError, "severity when all thresholds saturated", int(Fatal), int(severity))
	}
	if place == NotDead {
		t.Fatalf(UnexpectedErrorWhileError, "place of death for fatal case", "got NotDead")
	}
}

func TestSampleSeverityAsymptomaticWhenBelowSymptomaticThreshold(t *testing.T) {
	v := DefaultWildTypeVariant()
	v.PSymptomatic.Set(30, 0.0)
	rng := NewRandomPool(2)
	severity, place := SampleSeverity(30, v, 1.0, rng)
	if severity != Asymptomatic {
		t.Fatalf(UnequalIntParameterError, "severity when symptomatic threshold is zero", int(Asymptomatic), int(severity))
	}
	if place != NotDead {
		t.Fatalf(UnequalIntParameterError, "place of death for asymptomatic case", int(NotDead), int(place))
	}
}

func TestSampleDurationsSevereSplitsIllnessAndHospital(t *testing.T) {
	v := DefaultWildTypeVariant()
	rng := NewRandomPool(11)
	d := SampleDurations(v, Severe, rng)
	if d.IllnessDays <= 0 {
		t.Errorf("expected positive illness days for severe case, got %d", d.IllnessDays)
	}
	if d.HospitalDays <= 0 {
		t.Errorf("expected positive hospital days for severe case, got %d", d.HospitalDays)
	}
	if d.ICUDays != 0 {
		t.Errorf("expected zero ICU days for severe (non-critical) case, got %d", d.ICUDays)
	}
}

func TestSampleDurationsCriticalIncludesICU(t *testing.T) {
	v := DefaultWildTypeVariant()
	rng := NewRandomPool(12)
	d := SampleDurations(v, Critical, rng)
	if d.ICUDays <= 0 {
		t.Errorf("expected positive ICU days for critical case, got %d", d.ICUDays)
	}
}

func TestRoundDaysNeverNegative(t *testing.T) {
	if got := roundDays(-3.2); got != 0 {
		t.Fatalf(UnequalIntParameterError, "rounding a negative duration", 0, got)
	}
	if got := roundDays(4.6); got != 5 {
		t.Fatalf(UnequalIntParameterError, "rounding 4.6", 5, got)
	}
}
