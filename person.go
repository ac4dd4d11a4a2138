package epidemicabm

// PersonState is the closed set of per-agent disease states.
// Interventions and severities are likewise closed sum types; there is
// no virtual dispatch anywhere in the state machine.
type PersonState int

const (
	Susceptible PersonState = iota
	Incubation
	Illness
	Hospitalized
	InICU
	Recovered
	Dead
)

// String renders the state for logs and snapshots.
func (s PersonState) String() string {
	switch s {
	case Susceptible:
		return "susceptible"
	case Incubation:
		return "incubation"
	case Illness:
		return "illness"
	case Hospitalized:
		return "hospitalized"
	case InICU:
		return "in_icu"
	case Recovered:
		return "recovered"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// Severity is the closed set of symptom-severity outcomes sampled at
// infection time.
type Severity int

const (
	Asymptomatic Severity = iota
	Mild
	Severe
	Critical
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Asymptomatic:
		return "asymptomatic"
	case Mild:
		return "mild"
	case Severe:
		return "severe"
	case Critical:
		return "critical"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// PlaceOfDeath records whether a Fatal case died in or outside hospital
// care.
type PlaceOfDeath int

const (
	NotDead PlaceOfDeath = iota
	InHospital
	OutsideHospital
)

// MaxInfectees is the hard cap on an infector's tracked infectee list.
// Exceeding it is a simulation failure (TooManyInfectees).
const MaxInfectees = 64

// MaxContactsHardCap is the absolute ceiling on a single agent's daily
// contact count. Exceeding it is a simulation failure
// (TooManyContacts).
const MaxContactsHardCap = 128

// Person is one simulated individual. Identity
// (Idx, Age) is immutable after construction; everything else mutates
// during the day loop. infectees/infector are stored as indexes into the
// owning Population's person array, never as pointers, so that no cyclic
// references exist between a Person and the people it infected.
type Person struct {
	Idx int
	Age int

	State           PersonState
	Severity        Severity
	PlaceOfDeath    PlaceOfDeath
	VariantIdx      int

	IsInfected        bool
	HasImmunity       bool
	WasDetected       bool
	QueuedForTesting  bool
	IncludedInTotals  bool

	DayOfInfection           int
	DayOfIllness             int
	DaysLeft                 int
	DaysFromOnsetToRemoved   int
	DayOfVaccination         int // -1 if never vaccinated

	// PendingHospitalDays and PendingICUDays are sampled once at illness
	// onset and consumed when the agent actually enters
	// Hospitalized/InICU, since the eventual bed/ICU duration depends on
	// severity sampled before the admission decision is made.
	PendingHospitalDays int
	PendingICUDays      int

	OtherPeopleInfected      int
	OtherPeopleExposedToday  int

	Infector  int // -1 if not infected by anyone tracked (e.g. imported case)
	Infectees []int // lazily allocated only while contact tracing is active

	MaxContactsPerDay int
}

// NewPerson creates a susceptible Person with no infection history.
func NewPerson(idx, age int) *Person {
	return &Person{
		Idx:              idx,
		Age:              age,
		State:            Susceptible,
		DayOfVaccination: -1,
		Infector:         -1,
	}
}

// AddInfectee records that this person infected target, allocating the
// Infectees slice lazily the first time it is needed. It returns
// overflow=true, without adding target, if the bounded list is already
// full; the caller turns that into a TooManyInfectees failure.
func (p *Person) AddInfectee(target int) (overflow bool) {
	if p.Infectees == nil {
		p.Infectees = make([]int, 0, 8)
	}
	if len(p.Infectees) >= MaxInfectees {
		return true
	}
	p.Infectees = append(p.Infectees, target)
	return false
}

// ClearInfectees frees the side allocation at death or recovery, keeping
// the dominant memory footprint a single array of Person structs.
func (p *Person) ClearInfectees() {
	p.Infectees = nil
}

// Reset clears all infection-related mutable state back to a susceptible
// baseline, used only by tests constructing fixtures.
func (p *Person) Reset() {
	p.State = Susceptible
	p.Severity = Asymptomatic
	p.PlaceOfDeath = NotDead
	p.IsInfected = false
	p.HasImmunity = false
	p.WasDetected = false
	p.QueuedForTesting = false
	p.IncludedInTotals = false
	p.DayOfInfection = 0
	p.DayOfIllness = 0
	p.DaysLeft = 0
	p.DaysFromOnsetToRemoved = 0
	p.PendingHospitalDays = 0
	p.PendingICUDays = 0
	p.OtherPeopleInfected = 0
	p.OtherPeopleExposedToday = 0
	p.Infector = -1
	p.Infectees = nil
}
