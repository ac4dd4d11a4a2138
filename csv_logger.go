package epidemicabm

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/segmentio/ksuid"
)

// CSVLogger is the flat-file DataLogger: one csv.Writer per logical
// stream, flushed after every row so a crash mid-run loses at most the
// in-flight record.
type CSVLogger struct {
	snapshots    *csv.Writer
	deaths       *csv.Writer
	detections   *csv.Writer
	interventions *csv.Writer

	closers []io.Closer
}

// NewCSVLogger wraps four already-open writers (typically *os.File) as
// one DataLogger, writing a header row to each.
func NewCSVLogger(snapshots, deaths, detections, interventions io.Writer) (*CSVLogger, error) {
	l := &CSVLogger{
		snapshots:     csv.NewWriter(snapshots),
		deaths:        csv.NewWriter(deaths),
		detections:    csv.NewWriter(detections),
		interventions: csv.NewWriter(interventions),
	}
	if c, ok := snapshots.(io.Closer); ok {
		l.closers = append(l.closers, c)
	}
	if c, ok := deaths.(io.Closer); ok {
		l.closers = append(l.closers, c)
	}
	if c, ok := detections.(io.Closer); ok {
		l.closers = append(l.closers, c)
	}
	if c, ok := interventions.(io.Closer); ok {
		l.closers = append(l.closers, c)
	}

	if err := l.snapshots.Write([]string{"id", "day", "susceptible", "infected", "all_infected", "detected", "all_detected", "recovered", "hospitalized", "in_icu", "dead", "vaccinated", "available_hospital_beds", "available_icu_units", "total_icu_units", "r", "exposed_per_day", "ct_cases_per_day", "mobility_limitation"}); err != nil {
		return nil, err
	}
	if err := l.deaths.Write([]string{"id", "day", "person_idx", "age", "place_of_death"}); err != nil {
		return nil, err
	}
	if err := l.detections.Write([]string{"id", "day", "person_idx", "age"}); err != nil {
		return nil, err
	}
	if err := l.interventions.Write([]string{"id", "day", "type"}); err != nil {
		return nil, err
	}
	return l, nil
}

// LogSnapshot records one day's generate_state output as a single row of
// age-summed totals.
func (l *CSVLogger) LogSnapshot(snap *StateSnapshot) error {
	row := []string{
		ksuid.New().String(),
		strconv.Itoa(snap.Day),
		strconv.Itoa(sumAges(snap.Susceptible)),
		strconv.Itoa(sumAges(snap.Infected)),
		strconv.Itoa(sumAges(snap.AllInfected)),
		strconv.Itoa(sumAges(snap.Detected)),
		strconv.Itoa(sumAges(snap.AllDetected)),
		strconv.Itoa(sumAges(snap.Recovered)),
		strconv.Itoa(sumAges(snap.Hospitalized)),
		strconv.Itoa(sumAges(snap.InICU)),
		strconv.Itoa(sumAges(snap.Dead)),
		strconv.Itoa(sumAges(snap.Vaccinated)),
		strconv.Itoa(snap.AvailableHospitalBeds),
		strconv.Itoa(snap.AvailableICUUnits),
		strconv.Itoa(snap.TotalICUUnits),
		strconv.FormatFloat(snap.R, 'f', -1, 64),
		strconv.Itoa(snap.ExposedPerDay),
		strconv.Itoa(snap.CTCasesPerDay),
		strconv.FormatFloat(snap.MobilityLimitation, 'f', -1, 64),
	}
	if err := l.snapshots.Write(row); err != nil {
		return err
	}
	l.snapshots.Flush()
	return l.snapshots.Error()
}

// LogDeath records one death event.
func (l *CSVLogger) LogDeath(day, personIdx, age int, place PlaceOfDeath) error {
	row := []string{ksuid.New().String(), strconv.Itoa(day), strconv.Itoa(personIdx), strconv.Itoa(age), place.String()}
	if err := l.deaths.Write(row); err != nil {
		return err
	}
	l.deaths.Flush()
	return l.deaths.Error()
}

func (p PlaceOfDeath) String() string {
	switch p {
	case NotDead:
		return "not_dead"
	case InHospital:
		return "in_hospital"
	case OutsideHospital:
		return "outside_hospital"
	default:
		return "unknown"
	}
}

// LogDetection records one positive-test event.
func (l *CSVLogger) LogDetection(day, personIdx, age int) error {
	row := []string{ksuid.New().String(), strconv.Itoa(day), strconv.Itoa(personIdx), strconv.Itoa(age)}
	if err := l.detections.Write(row); err != nil {
		return err
	}
	l.detections.Flush()
	return l.detections.Error()
}

// LogIntervention records one applied intervention.
func (l *CSVLogger) LogIntervention(day int, ivType InterventionType) error {
	row := []string{ksuid.New().String(), strconv.Itoa(day), ivType.String()}
	if err := l.interventions.Write(row); err != nil {
		return err
	}
	l.interventions.Flush()
	return l.interventions.Error()
}

// Close flushes and closes every underlying writer that supports it.
func (l *CSVLogger) Close() error {
	l.snapshots.Flush()
	l.deaths.Flush()
	l.detections.Flush()
	l.interventions.Flush()
	for _, c := range l.closers {
		if err := c.Close(); err != nil {
			return err
		}
	}
	return nil
}
