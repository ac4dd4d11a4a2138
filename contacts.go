package epidemicabm

import (
	"sort"

	"github.com/pkg/errors"
)

// ContactRow is one row of the source contacts-per-day table: a
// participant age, a contact-age interval, a venue, and a raw contact
// count. Building a ContactMatrix from a population/contact dataset is an
// external collaborator's job; this module only consumes already-parsed
// rows.
type ContactRow struct {
	ParticipantAge int
	ContactAgeMin  int
	ContactAgeMax  int
	Place          Place
	ContactsPerDay float64
}

// ContactProbability is one entry of a participant age's derived,
// mobility/mask-adjusted cumulative contact table.
type ContactProbability struct {
	Place          Place
	ContactAgeMin  int
	ContactAgeMax  int
	CumulativeProb float64
	MaskProb       float64
}

// contactRowState is a source row plus the mutable mobility/mask factors
// an intervention can apply to it, scoped to a (place, age-range) filter.
type contactRowState struct {
	row            ContactRow
	mobilityFactor float64
	maskProb       float64
}

// mobilityFilter narrows a mobility-limiting intervention to a place
// and/or age range. Nil Place/age bounds mean "match everything".
type mobilityFilter struct {
	place    *Place
	ageMin   int
	ageMax   int
	hasRange bool
	factor   float64
}

type maskFilter struct {
	place           *Place
	ageMin          int
	ageMax          int
	hasRange        bool
	shareOfContacts float64
}

// ContactMatrix is the venue-partitioned age×age contact table: for each
// participant age it derives a total daily contact rate and a cumulative
// probability table over (place, contact-age interval, mask probability)
// rows, regenerated whenever a mobility or mask filter changes.
type ContactMatrix struct {
	nrAges int
	byAge  map[int][]*contactRowState

	avgContacts map[int]float64
	cumulative  map[int][]ContactProbability

	mobilityFilters []mobilityFilter
	maskFilters     []maskFilter

	massGatheringCap int // 0 means unset (no cap)
}

// NewContactMatrix builds a ContactMatrix from source rows, grouping them
// by participant age and computing the initial (unfiltered) cumulative
// tables.
func NewContactMatrix(rows []ContactRow, nrAges int) (*ContactMatrix, error) {
	if nrAges <= 0 {
		return nil, errors.Errorf(InvalidIntParameterError, "nr_ages", nrAges, "must be > 0")
	}
	m := &ContactMatrix{
		nrAges:      nrAges,
		byAge:       make(map[int][]*contactRowState),
		avgContacts: make(map[int]float64),
		cumulative:  make(map[int][]ContactProbability),
	}
	for _, row := range rows {
		if row.ContactsPerDay < 0 {
			return nil, errors.Errorf(InvalidFloatParameterError, "contacts_per_day", row.ContactsPerDay, "must be >= 0")
		}
		if row.ContactAgeMin > row.ContactAgeMax {
			return nil, errors.Errorf(InvalidIntParameterError, "contact_age_min", row.ContactAgeMin, "must be <= contact_age_max")
		}
		m.byAge[row.ParticipantAge] = append(m.byAge[row.ParticipantAge], &contactRowState{row: row, mobilityFactor: 1.0})
	}
	m.rebuildAll()
	return m, nil
}

// SetMassGatheringCap sets the global per-day contact ceiling used by the
// contact/exposure engine; 0 clears the cap.
func (m *ContactMatrix) SetMassGatheringCap(cap int) {
	m.massGatheringCap = cap
}

// MassGatheringCap returns the current cap, or 0 if unset.
func (m *ContactMatrix) MassGatheringCap() int {
	return m.massGatheringCap
}

// SetMobilityFactor applies a multiplicative reduction to contacts
// matching the optional place and age-range filters, regenerating the
// cumulative table for every affected age. A factor of 1.0 (no
// reduction) is a no-op on the resulting cumulative table.
func (m *ContactMatrix) SetMobilityFactor(place *Place, ageMin, ageMax int, hasRange bool, factor float64) error {
	if factor < 0 {
		return errors.Errorf(InvalidFloatParameterError, "mobility_factor", factor, "must be >= 0")
	}
	m.mobilityFilters = append(m.mobilityFilters, mobilityFilter{place: place, ageMin: ageMin, ageMax: ageMax, hasRange: hasRange, factor: factor})
	for _, state := range m.byAge {
		for _, s := range state {
			if matchesFilterPlace(place, s.row.Place) && matchesFilterAge(ageMin, ageMax, hasRange, s.row.ParticipantAge) {
				s.mobilityFactor = factor
			}
		}
	}
	m.rebuildAll()
	return nil
}

// SetMaskProbability sets the share of matching contacts that involve a
// worn mask.
func (m *ContactMatrix) SetMaskProbability(place *Place, ageMin, ageMax int, hasRange bool, shareOfContacts float64) error {
	if shareOfContacts < 0 || shareOfContacts > 1 {
		return errors.Errorf(InvalidFloatParameterError, "share_of_contacts", shareOfContacts, "must be in [0,1]")
	}
	m.maskFilters = append(m.maskFilters, maskFilter{place: place, ageMin: ageMin, ageMax: ageMax, hasRange: hasRange, shareOfContacts: shareOfContacts})
	for _, state := range m.byAge {
		for _, s := range state {
			if matchesFilterPlace(place, s.row.Place) && matchesFilterAge(ageMin, ageMax, hasRange, s.row.ParticipantAge) {
				s.maskProb = shareOfContacts
			}
		}
	}
	m.rebuildAll()
	return nil
}

func matchesFilterPlace(filter *Place, place Place) bool {
	return filter == nil || *filter == place
}

func matchesFilterAge(ageMin, ageMax int, hasRange bool, age int) bool {
	return !hasRange || (age >= ageMin && age <= ageMax)
}

// rebuildAll regenerates avgContacts and cumulative for every participant
// age. Interventions are dated, infrequent events, so a full rebuild
// rather than a targeted one keeps this simple and correct.
func (m *ContactMatrix) rebuildAll() {
	for age := range m.byAge {
		m.rebuildAge(age)
	}
}

// cumulativeProbTolerance is how close the final cumulative entry must be
// to 1 before it is treated as ordinary floating-point rounding rather
// than a genuine accounting error. Only values within tolerance are
// snapped to exactly 1; anything further off is left as-is so
// SampleContact's own check can still detect and report it.
const cumulativeProbTolerance = 0.001

func (m *ContactMatrix) rebuildAge(age int) {
	rows := m.byAge[age]
	var total float64
	for _, s := range rows {
		total += s.row.ContactsPerDay * s.mobilityFactor
	}
	m.avgContacts[age] = total

	entries := make([]ContactProbability, 0, len(rows))
	if total <= 0 {
		m.cumulative[age] = entries
		return
	}
	var cum float64
	for _, s := range rows {
		effective := s.row.ContactsPerDay * s.mobilityFactor
		if effective <= 0 {
			continue
		}
		cum += effective / total
		entries = append(entries, ContactProbability{
			Place:          s.row.Place,
			ContactAgeMin:  s.row.ContactAgeMin,
			ContactAgeMax:  s.row.ContactAgeMax,
			CumulativeProb: cum,
			MaskProb:       s.maskProb,
		})
	}
	if n := len(entries); n > 0 {
		if last := entries[n-1].CumulativeProb; last < 1 && 1-last < cumulativeProbTolerance {
			entries[n-1].CumulativeProb = 1.0
		}
	}
	m.cumulative[age] = entries
}

// AvgContactsPerDay returns the mobility-adjusted total contacts per day
// for a participant age.
func (m *ContactMatrix) AvgContactsPerDay(age int) float64 {
	return m.avgContacts[age]
}

// SampleContact draws one (place, contact-age interval, mask probability)
// row for the given participant age by binary-scanning the per-age
// cumulative probability table. ok is false if the age has no contact
// rows at all (total contacts of 0).
func (m *ContactMatrix) SampleContact(age int, rng *RandomPool) (entry ContactProbability, ok bool, err error) {
	entries := m.cumulative[age]
	if len(entries) == 0 {
		return ContactProbability{}, false, nil
	}
	u := rng.Uniform()
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].CumulativeProb >= u
	})
	if i == len(entries) {
		if entries[len(entries)-1].CumulativeProb < 1-cumulativeProbTolerance {
			return ContactProbability{}, false, &SimulationFailure{Code: ContactProbabilityFailure, PersonIdx: -1, Detail: "cumulative contact probability did not reach 1"}
		}
		i = len(entries) - 1
	}
	return entries[i], true, nil
}
