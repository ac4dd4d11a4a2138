package epidemicabm

// TestingMode is the closed set of symptom-driven testing policies.
type TestingMode int

const (
	NoTesting TestingMode = iota
	OnlySevereSymptoms
	AllWithSymptoms
	AllWithSymptomsCT
)

func (m TestingMode) String() string {
	switch m {
	case NoTesting:
		return "no_testing"
	case OnlySevereSymptoms:
		return "only_severe_symptoms"
	case AllWithSymptoms:
		return "all_with_symptoms"
	case AllWithSymptomsCT:
		return "all_with_symptoms_ct"
	default:
		return "unknown"
	}
}

// contactTracingMaxDepth caps recursive tracing at two levels total.
const contactTracingMaxDepth = 2

// VaccinationProgram is one active age-targeted vaccination campaign. A
// weekly quota is prorated into daily doses with fractional carry, the
// same shape `import-infections-weekly` uses for its daily proration,
// because a `vaccinate` intervention only fires once but is meant to keep
// dosing every subsequent day.
type VaccinationProgram struct {
	MinAge      int
	MaxAge      int
	WeeklyQuota float64
	carry       float64
}

func (vp *VaccinationProgram) nextDailyQuota() int {
	vp.carry += vp.WeeklyQuota / 7.0
	q := int(vp.carry)
	vp.carry -= float64(q)
	return q
}

// HealthcareSystem holds the finite bed/ICU pool, the symptom-testing
// queue, contact-tracing parameters, and active vaccination programs.
// Bed/ICU allocation is a pair of semaphores.
type HealthcareSystem struct {
	beds             int
	icuUnits         int
	availableBeds    int
	availableICU     int

	testingMode        TestingMode
	mildDetectionRate  float64 // OnlySevereSymptoms: chance a Mild case is tested anyway
	pSuccessfulTracing float64
	pDetectedAnyway    float64

	// testingQueue holds indexes enqueued today, drained at the start of
	// the next day.
	testingQueue []int

	vaccinationPrograms []*VaccinationProgram
}

// NewHealthcareSystem creates a HealthcareSystem with the given initial
// bed and ICU capacity, fully available.
func NewHealthcareSystem(beds, icuUnits int) *HealthcareSystem {
	return &HealthcareSystem{
		beds:          beds,
		icuUnits:      icuUnits,
		availableBeds: beds,
		availableICU:  icuUnits,
	}
}

// TotalBeds and TotalICU report capacity, AvailableBeds/AvailableICU the
// remaining free slots.
func (h *HealthcareSystem) TotalBeds() int        { return h.beds }
func (h *HealthcareSystem) TotalICU() int         { return h.icuUnits }
func (h *HealthcareSystem) AvailableBeds() int    { return h.availableBeds }
func (h *HealthcareSystem) AvailableICU() int     { return h.availableICU }

// AddBeds and AddICU implement `build-new-hospital-beds [beds]` and
// `build-new-icu-units [units]`: new capacity is immediately
// available.
func (h *HealthcareSystem) AddBeds(n int) {
	h.beds += n
	h.availableBeds += n
}

func (h *HealthcareSystem) AddICU(n int) {
	h.icuUnits += n
	h.availableICU += n
}

// AcquireBed attempts to admit one patient; ok is false if the pool is
// exhausted.
func (h *HealthcareSystem) AcquireBed() (ok bool) {
	if h.availableBeds <= 0 {
		return false
	}
	h.availableBeds--
	return true
}

// ReleaseBed returns one bed to the pool, never exceeding capacity.
func (h *HealthcareSystem) ReleaseBed() {
	if h.availableBeds < h.beds {
		h.availableBeds++
	}
}

// AcquireICU and ReleaseICU mirror AcquireBed/ReleaseBed for ICU units.
func (h *HealthcareSystem) AcquireICU() (ok bool) {
	if h.availableICU <= 0 {
		return false
	}
	h.availableICU--
	return true
}

func (h *HealthcareSystem) ReleaseICU() {
	if h.availableICU < h.icuUnits {
		h.availableICU++
	}
}

// SetTestingMode changes the active testing policy: `test-all-with-symptoms`,
// `test-only-severe-symptoms`, or `test-with-contact-tracing`.
func (h *HealthcareSystem) SetTestingMode(mode TestingMode) {
	h.testingMode = mode
}

// Mode returns the active testing policy.
func (h *HealthcareSystem) Mode() TestingMode {
	return h.testingMode
}

// SetMildDetectionRate is the `test-only-severe-symptoms
// [mild_detection_rate %]` parameter: the probability a Mild case is
// tested anyway even though the policy otherwise targets Severe+.
func (h *HealthcareSystem) SetMildDetectionRate(rate float64) {
	h.mildDetectionRate = rate
}

// SetContactTracingParams sets the tracing success probability and the
// independent "detected anyway" probability used when tracing a contact
// fails.
func (h *HealthcareSystem) SetContactTracingParams(pSuccessfulTracing, pDetectedAnyway float64) {
	h.pSuccessfulTracing = pSuccessfulTracing
	h.pDetectedAnyway = pDetectedAnyway
}

// MaybeEnqueueOnOnset is called exactly once, at the moment a Person's
// symptoms become visible (the Incubation -> Illness transition for a
// non-Asymptomatic severity), to decide whether the current testing mode
// enqueues them for tomorrow's test.
func (h *HealthcareSystem) MaybeEnqueueOnOnset(p *Person, rng *RandomPool) {
	if p.Severity == Asymptomatic {
		return
	}
	switch h.testingMode {
	case NoTesting:
		return
	case OnlySevereSymptoms:
		switch p.Severity {
		case Severe, Critical, Fatal:
			h.enqueue(p)
		case Mild:
			if rng.Bernoulli(h.mildDetectionRate) {
				h.enqueue(p)
			}
		}
	case AllWithSymptoms, AllWithSymptomsCT:
		h.enqueue(p)
	}
}

// enqueue adds a person to tomorrow's testing queue, deduplicating via
// the queued_for_testing flag.
func (h *HealthcareSystem) enqueue(p *Person) {
	if p.QueuedForTesting || p.WasDetected || p.State == Dead {
		return
	}
	p.QueuedForTesting = true
	h.testingQueue = append(h.testingQueue, p.Idx)
}

// DrainTestingQueue runs one day's worth of deferred tests:
// a queued person is detected iff they currently have nonzero source
// infectiousness or are in Hospitalized/InICU. Detection sets
// was_detected and, under AllWithSymptomsCT, recursively traces and
// re-enqueues the infector and infectees. onDetected, if non-nil, is
// called once for every freshly detected person before tracing runs, so
// a caller can record the event without this package needing to know how
// events are recorded. Returns the number of contacts that tracing
// surfaced today (ct_cases_per_day); these are queued for the next day's
// test, not yet detected.
func (h *HealthcareSystem) DrainTestingQueue(pop *Population, disease *Disease, rng *RandomPool, onDetected func(p *Person) error) (int, error) {
	queue := h.testingQueue
	h.testingQueue = nil

	ctCases := 0
	for _, idx := range queue {
		p := pop.Get(idx)
		p.QueuedForTesting = false
		if p.State == Dead {
			continue
		}
		variant := disease.Variant(p.VariantIdx)
		detected := p.State == Hospitalized || p.State == InICU
		if !detected && variant != nil {
			detected = SourceInfectiousness(p, variant) > 0
		}
		if !detected {
			continue
		}
		p.WasDetected = true
		if onDetected != nil {
			if err := onDetected(p); err != nil {
				return ctCases, err
			}
		}
		if h.testingMode == AllWithSymptomsCT {
			ctCases += h.traceContacts(pop, p, 1, rng)
		}
	}
	return ctCases, nil
}

// traceContacts recursively traces a detected person's contacts: the
// infector and infectees are each traced with
// Bernoulli(p_successful_tracing); a trace that fails still has an
// independent Bernoulli(p_detected_anyway) chance of surfacing the
// contact. Successfully traced contacts recurse one further level,
// capped at contactTracingMaxDepth total.
func (h *HealthcareSystem) traceContacts(pop *Population, p *Person, depth int, rng *RandomPool) int {
	if depth > contactTracingMaxDepth {
		return 0
	}
	candidates := make([]int, 0, len(p.Infectees)+1)
	if p.Infector >= 0 {
		candidates = append(candidates, p.Infector)
	}
	candidates = append(candidates, p.Infectees...)

	traced := 0
	for _, idx := range candidates {
		target := pop.Get(idx)
		if target.State == Dead || target.WasDetected {
			continue
		}
		if rng.Bernoulli(h.pSuccessfulTracing) {
			h.enqueue(target)
			traced++
			if depth < contactTracingMaxDepth {
				traced += h.traceContacts(pop, target, depth+1, rng)
			}
		} else if rng.Bernoulli(h.pDetectedAnyway) {
			h.enqueue(target)
			traced++
		}
	}
	return traced
}

// AddVaccinationProgram registers a `vaccinate [weekly_vaccinations,
// min_age, max_age]` intervention as a standing daily dosing schedule.
func (h *HealthcareSystem) AddVaccinationProgram(minAge, maxAge int, weeklyQuota float64) {
	h.vaccinationPrograms = append(h.vaccinationPrograms, &VaccinationProgram{
		MinAge:      minAge,
		MaxAge:      maxAge,
		WeeklyQuota: weeklyQuota,
	})
}

// ApplyVaccinations runs one day of every active program: per program,
// vaccinate from the oldest eligible age downward within
// [min_age, max_age], skipping dead, already-vaccinated, or detected
// persons, stopping when the day's quota is filled or the range is
// exhausted.
func (h *HealthcareSystem) ApplyVaccinations(pop *Population, today int) {
	for _, prog := range h.vaccinationPrograms {
		quota := prog.nextDailyQuota()
		if quota <= 0 {
			continue
		}
		given := 0
		for age := prog.MaxAge; age >= prog.MinAge && given < quota; age-- {
			for _, idx := range pop.AgeBucket(age) {
				if given >= quota {
					break
				}
				p := pop.Get(idx)
				if p.State == Dead || p.DayOfVaccination >= 0 || p.WasDetected {
					continue
				}
				p.DayOfVaccination = today
				given++
			}
		}
	}
}
