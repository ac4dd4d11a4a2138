package epidemicabm

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/segmentio/ksuid"
)

// SQLiteLogger is the queryable-store DataLogger: one table per event
// stream, each row keyed by a ksuid so independent Context runs writing
// to the same database file never collide on primary key.
type SQLiteLogger struct {
	db *sql.DB
}

// NewSQLiteLogger opens (creating if necessary) a SQLite database at
// path and creates its four tables if they do not already exist.
func NewSQLiteLogger(path string) (*SQLiteLogger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	l := &SQLiteLogger{db: db}
	if err := l.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *SQLiteLogger) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY, day INTEGER, susceptible INTEGER, infected INTEGER,
			all_infected INTEGER, detected INTEGER, all_detected INTEGER, recovered INTEGER,
			hospitalized INTEGER, in_icu INTEGER, dead INTEGER, vaccinated INTEGER,
			available_hospital_beds INTEGER, available_icu_units INTEGER, total_icu_units INTEGER,
			r REAL, exposed_per_day INTEGER, ct_cases_per_day INTEGER, mobility_limitation REAL
		)`,
		`CREATE TABLE IF NOT EXISTS deaths (
			id TEXT PRIMARY KEY, day INTEGER, person_idx INTEGER, age INTEGER, place_of_death TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS detections (
			id TEXT PRIMARY KEY, day INTEGER, person_idx INTEGER, age INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS interventions (
			id TEXT PRIMARY KEY, day INTEGER, type TEXT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := l.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LogSnapshot inserts one day's age-summed totals.
func (l *SQLiteLogger) LogSnapshot(snap *StateSnapshot) error {
	_, err := l.db.Exec(
		`INSERT INTO snapshots (id, day, susceptible, infected, all_infected, detected, all_detected, recovered, hospitalized, in_icu, dead, vaccinated, available_hospital_beds, available_icu_units, total_icu_units, r, exposed_per_day, ct_cases_per_day, mobility_limitation)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ksuid.New().String(), snap.Day, sumAges(snap.Susceptible), sumAges(snap.Infected),
		sumAges(snap.AllInfected), sumAges(snap.Detected), sumAges(snap.AllDetected), sumAges(snap.Recovered),
		sumAges(snap.Hospitalized), sumAges(snap.InICU), sumAges(snap.Dead), sumAges(snap.Vaccinated),
		snap.AvailableHospitalBeds, snap.AvailableICUUnits, snap.TotalICUUnits,
		snap.R, snap.ExposedPerDay, snap.CTCasesPerDay, snap.MobilityLimitation,
	)
	return err
}

// LogDeath inserts one death event.
func (l *SQLiteLogger) LogDeath(day, personIdx, age int, place PlaceOfDeath) error {
	_, err := l.db.Exec(`INSERT INTO deaths (id, day, person_idx, age, place_of_death) VALUES (?,?,?,?,?)`,
		ksuid.New().String(), day, personIdx, age, place.String())
	return err
}

// LogDetection inserts one positive-test event.
func (l *SQLiteLogger) LogDetection(day, personIdx, age int) error {
	_, err := l.db.Exec(`INSERT INTO detections (id, day, person_idx, age) VALUES (?,?,?,?)`,
		ksuid.New().String(), day, personIdx, age)
	return err
}

// LogIntervention inserts one applied intervention.
func (l *SQLiteLogger) LogIntervention(day int, ivType InterventionType) error {
	_, err := l.db.Exec(`INSERT INTO interventions (id, day, type) VALUES (?,?,?)`,
		ksuid.New().String(), day, ivType.String())
	return err
}

// Close closes the underlying database handle.
func (l *SQLiteLogger) Close() error {
	return l.db.Close()
}
