package epidemicabm

import "strconv"

// Message templates for validation errors: exported, printf-style error
// constants so that callers and tests can match on a stable format
// rather than free-form text.
const (
	// InvalidFloatParameterError is used when a float parameter falls
	// outside its valid range.
	InvalidFloatParameterError = "invalid %s %f, %s"
	// InvalidIntParameterError is used when an int parameter falls outside
	// its valid range.
	InvalidIntParameterError = "invalid %s %d, %s"
	// InvalidStringParameterError is used when a string parameter does not
	// match one of its accepted values.
	InvalidStringParameterError = "invalid %s %q, %s"
	// UnknownVariantError is returned when a config entry or intervention
	// references a variant name that was never declared.
	UnknownVariantError = "unknown variant %q"
	// UnknownVariantIndexError is returned when an intervention references
	// a variant index outside the disease's variant list.
	UnknownVariantIndexError = "unknown variant index %d"
	// UnknownInterventionTypeError is returned when a config entry names
	// an intervention type this engine does not implement.
	UnknownInterventionTypeError = "unknown intervention type %q"

	// UnequalIntParameterError documents an expected-vs-actual mismatch,
	// used by tests.
	UnequalIntParameterError = "expected %s %d, instead got %d"
	// UnequalFloatParameterError documents an expected-vs-actual float
	// mismatch, used by tests.
	UnequalFloatParameterError = "expected %s %f, instead got %f"
	// UnexpectedErrorWhileError wraps an error encountered during a named
	// step, used by tests.
	UnexpectedErrorWhileError = "encountered error while %s: %s"
	// ExpectedErrorWhileError documents a missing error, used by tests.
	ExpectedErrorWhileError = "expected an error while %s, instead got none"
)

// ProblemCode enumerates the simulation-invariant failures a Context can
// detect. It is a closed sum type, switched over exhaustively, never
// extended through interfaces.
type ProblemCode int

const (
	// NoProblem indicates the day advanced without incident.
	NoProblem ProblemCode = iota
	// TooManyInfectees means a person's infectees list exceeded 64 entries.
	TooManyInfectees
	// TooManyContacts means a person's daily contact count exceeded 128.
	TooManyContacts
	// HospitalAccountingFailure means bed/ICU counters no longer reconcile
	// with admitted persons.
	HospitalAccountingFailure
	// NegativeContacts means a negative contact count was computed.
	NegativeContacts
	// MallocFailure means a required side allocation (e.g. infectees)
	// could not be made.
	MallocFailure
	// WrongState means a transition was attempted from a state that does
	// not support it.
	WrongState
	// ContactProbabilityFailure means a per-age cumulative contact
	// probability table did not sum to ~1 due to numerical drift.
	ContactProbabilityFailure
	// InfecteesMismatch means an infector/infectee back-reference could
	// not be reconciled.
	InfecteesMismatch
)

// String renders the problem code for logs and error messages.
func (p ProblemCode) String() string {
	switch p {
	case NoProblem:
		return "no problem"
	case TooManyInfectees:
		return "too many infectees"
	case TooManyContacts:
		return "too many contacts"
	case HospitalAccountingFailure:
		return "hospital accounting failure"
	case NegativeContacts:
		return "negative contacts"
	case MallocFailure:
		return "allocation failure"
	case WrongState:
		return "wrong state"
	case ContactProbabilityFailure:
		return "contact probability failure"
	case InfecteesMismatch:
		return "infectees mismatch"
	default:
		return "unknown problem"
	}
}

// SimulationFailure is the user-visible, typed failure a caller receives
// once a day aborts due to a violated simulation invariant.
// Once a Context records one, it refuses further Iterate calls.
type SimulationFailure struct {
	Code      ProblemCode
	PersonIdx int // -1 if no single offending agent
	Day       int
	Detail    string
}

// Error satisfies the error interface.
func (f *SimulationFailure) Error() string {
	msg := f.Code.String() + ": day " + strconv.Itoa(f.Day)
	if f.PersonIdx >= 0 {
		msg += ", person " + strconv.Itoa(f.PersonIdx)
	}
	if f.Detail != "" {
		msg += ": " + f.Detail
	}
	return msg
}
