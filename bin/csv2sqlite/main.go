// Command csv2sqlite imports the four CSV logs epidemicsim writes into a
// single SQLite database.
package main

import (
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nathangeffen/epidemicabm"
)

func main() {
	inPrefix := flag.String("in", "epidemicsim", "input CSV file prefix (as written by epidemicsim -format csv)")
	dbPath := flag.String("db", "epidemicsim.db", "output SQLite database path")
	flag.Parse()

	logger, err := epidemicabm.NewSQLiteLogger(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot open database:", err)
		os.Exit(1)
	}
	defer logger.Close()

	db, err := sql.Open("sqlite3", *dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot reopen database:", err)
		os.Exit(1)
	}
	defer db.Close()

	tables := []struct {
		file  string
		table string
	}{
		{*inPrefix + "_snapshots.csv", "snapshots"},
		{*inPrefix + "_deaths.csv", "deaths"},
		{*inPrefix + "_detections.csv", "detections"},
		{*inPrefix + "_interventions.csv", "interventions"},
	}

	for _, t := range tables {
		if err := importCSV(db, t.file, t.table); err != nil {
			fmt.Fprintf(os.Stderr, "cannot import %s into %s: %v\n", t.file, t.table, err)
			os.Exit(1)
		}
	}
}

func importCSV(db *sql.DB, path, table string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return err
	}

	placeholders := ""
	for i := range header {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, joinColumns(header), placeholders)

	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		args := make([]interface{}, len(record))
		for i, v := range record {
			args[i] = v
		}
		if _, err := db.Exec(stmt, args...); err != nil {
			return err
		}
	}
	return nil
}

func joinColumns(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ","
		}
		out += c
	}
	return out
}
