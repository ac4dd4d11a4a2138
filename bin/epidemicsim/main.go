// Command epidemicsim runs a scenario described by a TOML config file for
// a fixed number of days, logging a snapshot every day plus every death,
// detection and applied intervention to either CSV files or a SQLite
// database.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nathangeffen/epidemicabm"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML scenario file")
	format := flag.String("format", "csv", "log format: csv or sqlite")
	outPrefix := flag.String("out", "epidemicsim", "output file prefix (csv) or database path (sqlite)")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: epidemicsim -config scenario.toml [-format csv|sqlite] [-out prefix]")
		os.Exit(2)
	}

	progress := epidemicabm.NewProgressLogger(os.Stderr)

	cfg, err := epidemicabm.LoadConfig(*configPath)
	if err != nil {
		progress.Error().Err(err).Msg("cannot load config")
		os.Exit(1)
	}

	ctx, err := cfg.Build()
	if err != nil {
		progress.Error().Err(err).Msg("cannot build context")
		os.Exit(1)
	}

	logger, closeLogger, err := openLogger(*format, *outPrefix)
	if err != nil {
		progress.Error().Err(err).Msg("cannot open logger")
		os.Exit(1)
	}
	defer closeLogger()
	ctx.SetLogger(logger)

	for day := 0; day < cfg.Simulation.Days; day++ {
		snap, err := ctx.Iterate()
		if err != nil {
			progress.Error().Err(err).Msg("iterate failed")
			if f := ctx.Failure(); f != nil {
				epidemicabm.LogSimulationFailure(progress, f)
			}
			os.Exit(1)
		}
		if err := logger.LogSnapshot(snap); err != nil {
			progress.Error().Err(err).Msg("cannot log snapshot")
			os.Exit(1)
		}
		epidemicabm.LogDayAdvanced(progress, snap)
	}
}

func openLogger(format, outPrefix string) (epidemicabm.DataLogger, func(), error) {
	switch format {
	case "sqlite":
		l, err := epidemicabm.NewSQLiteLogger(outPrefix + ".db")
		if err != nil {
			return nil, nil, err
		}
		return l, func() { l.Close() }, nil
	case "csv":
		snapshots, err := os.Create(outPrefix + "_snapshots.csv")
		if err != nil {
			return nil, nil, err
		}
		deaths, err := os.Create(outPrefix + "_deaths.csv")
		if err != nil {
			return nil, nil, err
		}
		detections, err := os.Create(outPrefix + "_detections.csv")
		if err != nil {
			return nil, nil, err
		}
		interventions, err := os.Create(outPrefix + "_interventions.csv")
		if err != nil {
			return nil, nil, err
		}
		l, err := epidemicabm.NewCSVLogger(snapshots, deaths, detections, interventions)
		if err != nil {
			return nil, nil, err
		}
		return l, func() { l.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", format)
	}
}
