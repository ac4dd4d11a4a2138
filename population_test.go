package epidemicabm

import "testing"

func sampleAgeCounts() []int {
	counts := make([]int, 100)
	counts[10] = 5
	counts[40] = 20
	counts[70] = 3
	return counts
}

func TestNewPopulationRejectsEmptyAgeCounts(t *testing.T) {
	if _, err := NewPopulation(nil, NewRandomPool(1)); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "constructing a population with no age counts")
	}
}

func TestNewPopulationRejectsNegativeCount(t *testing.T) {
	counts := []int{1, -1, 2}
	if _, err := NewPopulation(counts, NewRandomPool(1)); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "constructing a population with a negative age count")
	}
}

func TestNewPopulationTotalsAndAgeCounts(t *testing.T) {
	counts := sampleAgeCounts()
	pop, err := NewPopulation(counts, NewRandomPool(1))
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "constructing population", err)
	}
	if got := pop.Len(); got != 28 {
		t.Fatalf(UnequalIntParameterError, "population length", 28, got)
	}
	if got := pop.AgeCount(40); got != 20 {
		t.Fatalf(UnequalIntParameterError, "age count for age 40", 20, got)
	}
	if got := pop.AgeCount(41); got != 0 {
		t.Fatalf(UnequalIntParameterError, "age count for an empty age", 0, got)
	}
	if got := pop.AgeCount(-1); got != 0 {
		t.Fatalf(UnequalIntParameterError, "age count for a negative age", 0, got)
	}
}

func TestAgeBucketContainsOnlyThatAge(t *testing.T) {
	pop, _ := NewPopulation(sampleAgeCounts(), NewRandomPool(2))
	bucket := pop.AgeBucket(40)
	if len(bucket) != 20 {
		t.Fatalf(UnequalIntParameterError, "age-40 bucket size", 20, len(bucket))
	}
	for _, idx := range bucket {
		if pop.Get(idx).Age != 40 {
			t.Fatalf(UnequalIntParameterError, "age of person in age-40 bucket", 40, pop.Get(idx).Age)
		}
	}
}

func TestRangeIndicesCoversInclusiveBounds(t *testing.T) {
	pop, _ := NewPopulation(sampleAgeCounts(), NewRandomPool(3))
	indices := pop.RangeIndices(0, 50)
	if len(indices) != 25 {
		t.Fatalf(UnequalIntParameterError, "range 0-50 size", 25, len(indices))
	}
	for _, idx := range indices {
		age := pop.Get(idx).Age
		if age > 50 {
			t.Fatalf(InvalidIntParameterError, "age within 0-50 range", age, "exceeds upper bound")
		}
	}
}

func TestRangeIndicesEmptyWhenMinExceedsMax(t *testing.T) {
	pop, _ := NewPopulation(sampleAgeCounts(), NewRandomPool(4))
	if got := pop.RangeIndices(60, 20); got != nil {
		t.Fatalf(UnexpectedErrorWhileError, "range indices with min > max", "expected nil")
	}
}

func TestSamplePersonInAgeRangeRespectsBounds(t *testing.T) {
	pop, _ := NewPopulation(sampleAgeCounts(), NewRandomPool(5))
	rng := NewRandomPool(6)
	for i := 0; i < 50; i++ {
		idx, ok := pop.SamplePersonInAgeRange(65, 75, rng)
		if !ok {
			t.Fatalf(UnexpectedErrorWhileError, "sampling within a populated age range", "ok was false")
		}
		if age := pop.Get(idx).Age; age < 65 || age > 75 {
			t.Fatalf(InvalidIntParameterError, "sampled age", age, "outside requested range")
		}
	}
}

func TestSamplePersonInAgeRangeEmptyRange(t *testing.T) {
	pop, _ := NewPopulation(sampleAgeCounts(), NewRandomPool(7))
	_, ok := pop.SamplePersonInAgeRange(80, 90, NewRandomPool(8))
	if ok {
		t.Fatalf(UnexpectedErrorWhileError, "sampling from an empty age range", "ok was true")
	}
}

func TestForEachVisitsEveryIndexExactlyOnce(t *testing.T) {
	pop, _ := NewPopulation(sampleAgeCounts(), NewRandomPool(9))
	seen := make([]int, pop.Len())
	err := pop.ForEach(NewRandomPool(10), func(idx int) error {
		seen[idx]++
		return nil
	})
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "iterating population", err)
	}
	for idx, count := range seen {
		if count != 1 {
			t.Errorf("visit count for index %d: expected 1, instead got %d", idx, count)
		}
	}
}

func TestForEachPropagatesError(t *testing.T) {
	pop, _ := NewPopulation(sampleAgeCounts(), NewRandomPool(11))
	sentinel := &SimulationFailure{Code: WrongState, PersonIdx: 0, Detail: "boom"}
	calls := 0
	err := pop.ForEach(NewRandomPool(12), func(idx int) error {
		calls++
		if calls == 3 {
			return sentinel
		}
		return nil
	})
	if err != sentinel {
		t.Fatalf(UnexpectedErrorWhileError, "propagating an error from ForEach", "error mismatch")
	}
	if calls != 3 {
		t.Fatalf(UnequalIntParameterError, "calls before ForEach aborted", 3, calls)
	}
}
