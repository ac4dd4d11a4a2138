package epidemicabm

import (
	"sort"

	"github.com/pkg/errors"
)

// Population owns the contiguous array of Persons plus the
// age index that makes "sample a person of a given age bracket" O(1): a
// single allocation scaling to N in the low millions, one array of
// Person structs, no per-agent map.
type Population struct {
	people []Person

	// peopleSortedByAge holds every person index, shuffled then stably
	// sorted by age once at construction, so that each age's
	// slice is in random relative order and picking the next free slot for
	// vaccination/sampling never favors low-index persons.
	peopleSortedByAge []int
	// ageStart[age] is the offset into peopleSortedByAge where age's
	// bucket begins; ageStart[nrAges] is len(peopleSortedByAge).
	ageStart []int

	nrAges int
}

// NewPopulation builds a Population from an age histogram (ageCounts[age]
// = number of people of that age), shuffling and age-sorting the index
// exactly once at construction.
func NewPopulation(ageCounts []int, rng *RandomPool) (*Population, error) {
	if len(ageCounts) == 0 {
		return nil, errors.Errorf(InvalidIntParameterError, "nr_ages", 0, "must be > 0")
	}
	n := 0
	for age, c := range ageCounts {
		if c < 0 {
			return nil, errors.Errorf(InvalidIntParameterError, "age_count", c, "must be >= 0")
		}
		n += c
		_ = age
	}

	p := &Population{
		nrAges: len(ageCounts),
		people: make([]Person, n),
	}

	idx := 0
	for age, c := range ageCounts {
		for i := 0; i < c; i++ {
			p.people[idx] = *NewPerson(idx, age)
			idx++
		}
	}

	order := rng.Perm(n)
	sort.SliceStable(order, func(i, j int) bool {
		return p.people[order[i]].Age < p.people[order[j]].Age
	})
	p.peopleSortedByAge = order

	p.ageStart = make([]int, len(ageCounts)+1)
	for age := 0; age < len(ageCounts); age++ {
		p.ageStart[age+1] = p.ageStart[age] + ageCounts[age]
	}

	return p, nil
}

// Len returns the total population size N.
func (p *Population) Len() int {
	return len(p.people)
}

// NrAges returns the number of age classes (ages 0..NrAges()-1).
func (p *Population) NrAges() int {
	return p.nrAges
}

// Get returns a pointer to the person at idx for in-place mutation during
// the day loop — the only mutator of the Person array.
func (p *Population) Get(idx int) *Person {
	return &p.people[idx]
}

// AgeCount returns the number of people of the given age.
func (p *Population) AgeCount(age int) int {
	if age < 0 || age >= p.nrAges {
		return 0
	}
	return p.ageStart[age+1] - p.ageStart[age]
}

// AgeBucket returns the slice of person indexes of exactly the given age,
// in the random order fixed at construction.
func (p *Population) AgeBucket(age int) []int {
	if age < 0 || age >= p.nrAges {
		return nil
	}
	return p.peopleSortedByAge[p.ageStart[age]:p.ageStart[age+1]]
}

// RangeIndices returns the contiguous peopleSortedByAge slice covering
// ages [ageMin, ageMax], used by contact sampling and vaccination
// programs.
func (p *Population) RangeIndices(ageMin, ageMax int) []int {
	if ageMin < 0 {
		ageMin = 0
	}
	if ageMax >= p.nrAges {
		ageMax = p.nrAges - 1
	}
	if ageMin > ageMax {
		return nil
	}
	return p.peopleSortedByAge[p.ageStart[ageMin]:p.ageStart[ageMax+1]]
}

// SamplePersonInAgeRange uniformly picks one person index from
// [ageMin, ageMax] within peopleSortedByAge.
func (p *Population) SamplePersonInAgeRange(ageMin, ageMax int, rng *RandomPool) (int, bool) {
	indices := p.RangeIndices(ageMin, ageMax)
	if len(indices) == 0 {
		return 0, false
	}
	return indices[rng.Intn(len(indices))], true
}

// ForEach iterates every person index exactly once, starting at a
// randomized offset and proceeding cyclically modulo N: start index =
// random % N, then sequential modulo N, to avoid favoring low indices.
func (p *Population) ForEach(rng *RandomPool, fn func(idx int) error) error {
	n := p.Len()
	if n == 0 {
		return nil
	}
	start := rng.Intn(n)
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if err := fn(idx); err != nil {
			return err
		}
	}
	return nil
}
