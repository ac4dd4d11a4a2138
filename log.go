package epidemicabm

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewProgressLogger builds the structured progress/diagnostic logger used
// by the bin/ CLIs: zerolog gives day-loop progress, intervention
// application, and simulation failures structured fields (day, problem
// code, person index) rather than free-form text.
func NewProgressLogger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// LogDayAdvanced emits one structured line per simulated day.
func LogDayAdvanced(log zerolog.Logger, snap *StateSnapshot) {
	log.Info().
		Int("day", snap.Day).
		Int("infected", sumAges(snap.Infected)).
		Int("dead", sumAges(snap.Dead)).
		Int("available_hospital_beds", snap.AvailableHospitalBeds).
		Int("available_icu_units", snap.AvailableICUUnits).
		Float64("r", snap.R).
		Msg("day advanced")
}

// LogSimulationFailure emits the terminal failure a Context recorded.
func LogSimulationFailure(log zerolog.Logger, f *SimulationFailure) {
	log.Error().
		Str("code", f.Code.String()).
		Int("day", f.Day).
		Int("person_idx", f.PersonIdx).
		Str("detail", f.Detail).
		Msg("simulation failed")
}

// LogInterventionApplied emits one structured line per dated intervention.
func LogInterventionApplied(log zerolog.Logger, day int, ivType InterventionType) {
	log.Info().
		Int("day", day).
		Str("type", ivType.String()).
		Msg("intervention applied")
}
