package epidemicabm

import "math"

// stepPerson advances one person through one day of the state machine.
// Exposure happens before the day's countdown decrements, and an agent
// infected earlier in the same iteration of this day does not expose
// others that day, detected via DayOfInfection matching the current day.
func (ctx *Context) stepPerson(idx int) error {
	p := ctx.population.Get(idx)
	switch p.State {
	case Incubation:
		if p.DayOfInfection != ctx.day {
			if err := exposeOthers(ctx, p); err != nil {
				return err
			}
		}
		p.DaysLeft--
		if p.DaysLeft <= 0 {
			onIllnessOnset(ctx, p)
		}
	case Illness:
		if p.DayOfInfection != ctx.day {
			if err := exposeOthers(ctx, p); err != nil {
				return err
			}
		}
		p.DayOfIllness++
		p.DaysLeft--
		if p.DaysLeft <= 0 {
			return onIllnessEnd(ctx, p)
		}
	case Hospitalized:
		p.DaysLeft--
		if p.DaysLeft <= 0 {
			return endHospitalStay(ctx, p)
		}
	case InICU:
		p.DaysLeft--
		if p.DaysLeft <= 0 {
			return endICUStay(ctx, p)
		}
	}
	return nil
}

// onIllnessOnset implements the Incubation -> Illness transition:
// durations for the illness/hospital/ICU phases are all sampled once
// here, from a single onset-to-removed draw, because the eventual
// admission decision must not resample the clock.
func onIllnessOnset(ctx *Context, p *Person) {
	p.State = Illness
	p.DayOfIllness = 0
	variant := ctx.disease.Variant(p.VariantIdx)
	d := SampleDurations(variant, p.Severity, ctx.rng)
	p.DaysFromOnsetToRemoved = int(math.Round(d.OnsetToRemoved))
	p.DaysLeft = d.IllnessDays
	p.PendingHospitalDays = d.HospitalDays
	p.PendingICUDays = d.ICUDays
	ctx.healthcare.MaybeEnqueueOnOnset(p, ctx.rng)
}

// onIllnessEnd implements the end of the Illness state.
func onIllnessEnd(ctx *Context, p *Person) error {
	switch {
	case p.Severity == Fatal && p.PlaceOfDeath == OutsideHospital:
		return die(ctx, p, OutsideHospital)
	case p.Severity == Severe || p.Severity == Critical || p.Severity == Fatal:
		return hospitalize(ctx, p)
	default:
		return recover(ctx, p)
	}
}

// hospitalize implements the Hospitalize transition. Admission itself
// counts as detection for anyone not already flagged by testing.
func hospitalize(ctx *Context, p *Person) error {
	if err := ctx.markDetected(p); err != nil {
		return err
	}
	if ctx.healthcare.AcquireBed() {
		p.State = Hospitalized
		p.DaysLeft = p.PendingHospitalDays
		return nil
	}
	variant := ctx.disease.Variant(p.VariantIdx)
	if ctx.rng.Bernoulli(variant.PHospitalDeathNoBeds) {
		return die(ctx, p, OutsideHospital)
	}
	return recover(ctx, p)
}

// endHospitalStay implements the "Hospitalized -> end of stay" transition.
func endHospitalStay(ctx *Context, p *Person) error {
	if p.Severity == Critical || p.Severity == Fatal {
		return transferToICU(ctx, p)
	}
	ctx.healthcare.ReleaseBed()
	variant := ctx.disease.Variant(p.VariantIdx)
	if p.Severity == Severe && ctx.rng.Bernoulli(variant.PHospitalDeath) {
		return die(ctx, p, InHospital)
	}
	return recover(ctx, p)
}

// transferToICU implements the "Transfer to ICU" transition: the hospital
// bed is released regardless of outcome, since the patient is no longer
// occupying the general ward either way.
func transferToICU(ctx *Context, p *Person) error {
	ctx.healthcare.ReleaseBed()
	if ctx.healthcare.AcquireICU() {
		p.State = InICU
		p.DaysLeft = p.PendingICUDays
		return nil
	}
	variant := ctx.disease.Variant(p.VariantIdx)
	if p.Severity == Fatal || ctx.rng.Bernoulli(variant.PICUDeathNoBeds) {
		return die(ctx, p, InHospital)
	}
	return recover(ctx, p)
}

// endICUStay implements the "InICU -> end of stay" transition.
func endICUStay(ctx *Context, p *Person) error {
	ctx.healthcare.ReleaseICU()
	if p.Severity == Fatal {
		return die(ctx, p, InHospital)
	}
	return recover(ctx, p)
}

// markDetected flags p as detected if it isn't already, logging the event
// exactly once per person.
func (ctx *Context) markDetected(p *Person) error {
	if p.WasDetected {
		return nil
	}
	p.WasDetected = true
	if ctx.logger == nil {
		return nil
	}
	return ctx.logger.LogDetection(ctx.day, p.Idx, p.Age)
}

// die and recover are a removed infected person's two terminal
// transitions. Both feed the reproduction-number accumulator ("r") since
// R is defined over all removed infectors to date.
func die(ctx *Context, p *Person, place PlaceOfDeath) error {
	p.State = Dead
	p.PlaceOfDeath = place
	p.IsInfected = false
	p.ClearInfectees()
	ctx.recordRemoval(p)
	if ctx.logger == nil {
		return nil
	}
	return ctx.logger.LogDeath(ctx.day, p.Idx, p.Age, place)
}

func recover(ctx *Context, p *Person) error {
	p.State = Recovered
	p.IsInfected = false
	p.HasImmunity = true
	p.ClearInfectees()
	ctx.recordRemoval(p)
	return nil
}

// exposeOthers runs the contact/exposure engine for one infectious,
// undetected agent on the current day.
func exposeOthers(ctx *Context, p *Person) error {
	if p.WasDetected {
		return nil
	}
	variant := ctx.disease.Variant(p.VariantIdx)
	if variant == nil {
		return nil
	}

	visibleSymptoms := p.State == Illness && p.Severity != Asymptomatic
	factor, limit := 1.0, 100
	if visibleSymptoms {
		factor, limit = 0.5, 5
	}

	avg := ctx.contacts.AvgContactsPerDay(p.Age)
	raw := factor * ctx.rng.Lognormal(0, 0.5) * avg
	nrContacts := int(math.Floor(raw))
	if nrContacts < 0 {
		nrContacts = 0
	}
	if nrContacts > limit {
		nrContacts = limit
	}
	if cap := ctx.contacts.MassGatheringCap(); cap > 0 && nrContacts > cap {
		nrContacts = cap
	}
	if nrContacts > MaxContactsHardCap {
		return &SimulationFailure{Code: TooManyContacts, PersonIdx: p.Idx, Day: ctx.day, Detail: "daily contact count exceeded hard cap"}
	}
	if nrContacts > p.MaxContactsPerDay {
		p.MaxContactsPerDay = nrContacts
	}

	for i := 0; i < nrContacts; i++ {
		entry, ok, err := ctx.contacts.SampleContact(p.Age, ctx.rng)
		if err != nil {
			if sf, isSF := err.(*SimulationFailure); isSF {
				sf.PersonIdx = p.Idx
				sf.Day = ctx.day
			}
			return err
		}
		if !ok {
			break
		}
		ctx.dailyContactsByVenue[entry.Place]++

		targetIdx, found := ctx.population.SamplePersonInAgeRange(entry.ContactAgeMin, entry.ContactAgeMax, ctx.rng)
		if !found || targetIdx == p.Idx {
			continue
		}
		p.OtherPeopleExposedToday++
		ctx.exposedToday++

		if err := tryInfect(ctx, p, variant, targetIdx, entry.MaskProb); err != nil {
			return err
		}
	}
	return nil
}

// tryInfect runs the per-exposure infection draw and, on success, the
// Susceptible -> Incubation transition.
func tryInfect(ctx *Context, source *Person, variant *Variant, targetIdx int, maskP float64) error {
	target := ctx.population.Get(targetIdx)
	if target.IsInfected || target.HasImmunity || target.State == Dead {
		return nil
	}

	srcInfectiousness := SourceInfectiousness(source, variant)
	p := InfectionProbability(srcInfectiousness, target.Age, variant)
	if !ctx.rng.Bernoulli(p) {
		return nil
	}
	if MaskAverts(maskP, variant, ctx.rng) {
		return nil
	}

	target.IsInfected = true
	target.IncludedInTotals = true
	target.VariantIdx = source.VariantIdx
	target.DayOfInfection = ctx.day
	target.Infector = source.Idx

	vmod := VaccineModifier(target, variant, ctx.day)
	severity, placeOfDeath := SampleSeverity(target.Age, variant, vmod, ctx.rng)
	target.Severity = severity
	target.PlaceOfDeath = placeOfDeath
	target.DaysLeft = SampleIncubationDays(variant, ctx.rng)
	target.State = Incubation

	source.OtherPeopleInfected++
	ctx.newInfectionsToday++

	if ctx.healthcare.Mode() == AllWithSymptomsCT {
		if source.AddInfectee(target.Idx) {
			return &SimulationFailure{Code: TooManyInfectees, PersonIdx: source.Idx, Day: ctx.day, Detail: "infectees list exceeded 64 entries"}
		}
	}
	return nil
}
