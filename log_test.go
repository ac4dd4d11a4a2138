package epidemicabm

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogDayAdvancedEmitsDayAndTotals(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewProgressLogger(buf)
	snap := &StateSnapshot{Day: 4, Infected: []int{3, 2}, Dead: []int{1}, AvailableHospitalBeds: 5}
	LogDayAdvanced(log, snap)
	out := buf.String()
	if !strings.Contains(out, `"day":4`) {
		t.Errorf("expected log line to contain day field, got %q", out)
	}
	if !strings.Contains(out, `"infected":5`) {
		t.Errorf("expected log line to contain summed infected total, got %q", out)
	}
}

func TestLogSimulationFailureEmitsCode(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewProgressLogger(buf)
	f := &SimulationFailure{Code: TooManyContacts, Day: 2, PersonIdx: 9, Detail: "boom"}
	LogSimulationFailure(log, f)
	out := buf.String()
	if !strings.Contains(out, "too many contacts") {
		t.Errorf("expected log line to contain the problem code string, got %q", out)
	}
	if !strings.Contains(out, `"person_idx":9`) {
		t.Errorf("expected log line to contain person_idx field, got %q", out)
	}
}

func TestLogInterventionAppliedEmitsType(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewProgressLogger(buf)
	LogInterventionApplied(log, 7, WearMasks)
	out := buf.String()
	if !strings.Contains(out, "wear-masks") {
		t.Errorf("expected log line to contain intervention type, got %q", out)
	}
}
