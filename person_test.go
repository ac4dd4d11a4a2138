package epidemicabm

import "testing"

func TestNewPersonDefaults(t *testing.T) {
	p := NewPerson(3, 40)
	if p.State != Susceptible {
		t.Fatalf(UnequalIntParameterError, "initial state", int(Susceptible), int(p.State))
	}
	if p.Infector != -1 {
		t.Fatalf(UnequalIntParameterError, "initial infector", -1, p.Infector)
	}
	if p.DayOfVaccination != -1 {
		t.Fatalf(UnequalIntParameterError, "initial day of vaccination", -1, p.DayOfVaccination)
	}
	if p.Idx != 3 || p.Age != 40 {
		t.Fatalf(UnexpectedErrorWhileError, "checking identity fields", "idx/age mismatch")
	}
}

func TestPersonAddInfecteeOverflow(t *testing.T) {
	p := NewPerson(0, 30)
	for i := 0; i < MaxInfectees; i++ {
		if overflow := p.AddInfectee(i + 1); overflow {
			t.Fatalf(UnexpectedErrorWhileError, "adding infectee within bound", "reported overflow")
		}
	}
	if overflow := p.AddInfectee(999); !overflow {
		t.Fatalf(ExpectedErrorWhileError, "adding infectee past MaxInfectees")
	}
	if len(p.Infectees) != MaxInfectees {
		t.Fatalf(UnequalIntParameterError, "infectees length after overflow", MaxInfectees, len(p.Infectees))
	}
}

func TestPersonClearInfectees(t *testing.T) {
	p := NewPerson(0, 30)
	p.AddInfectee(1)
	p.ClearInfectees()
	if p.Infectees != nil {
		t.Fatalf(UnexpectedErrorWhileError, "clearing infectees", "slice still non-nil")
	}
}

func TestPersonReset(t *testing.T) {
	p := NewPerson(0, 30)
	p.State = Dead
	p.IsInfected = true
	p.WasDetected = true
	p.PendingHospitalDays = 5
	p.AddInfectee(2)
	p.Reset()
	if p.State != Susceptible {
		t.Fatalf(UnequalIntParameterError, "state after reset", int(Susceptible), int(p.State))
	}
	if p.IsInfected || p.WasDetected {
		t.Fatalf(UnexpectedErrorWhileError, "resetting boolean flags", "flag still set")
	}
	if p.PendingHospitalDays != 0 {
		t.Fatalf(UnequalIntParameterError, "pending hospital days after reset", 0, p.PendingHospitalDays)
	}
	if p.Infectees != nil {
		t.Fatalf(UnexpectedErrorWhileError, "resetting infectees", "slice still non-nil")
	}
	if p.Infector != -1 {
		t.Fatalf(UnequalIntParameterError, "infector after reset", -1, p.Infector)
	}
}

func TestPersonStateString(t *testing.T) {
	cases := map[PersonState]string{
		Susceptible:  "susceptible",
		Incubation:   "incubation",
		Illness:      "illness",
		Hospitalized: "hospitalized",
		InICU:        "in_icu",
		Recovered:    "recovered",
		Dead:         "dead",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("state %d: expected %q, instead got %q", int(state), want, got)
		}
	}
}
