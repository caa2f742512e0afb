// calendar-export writes a calendar's schedule, and optionally an intraday
// timestamp index, as year-partitioned Parquet files under the configured
// data directory.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"mktcal/internal/config"
	"mktcal/internal/store"
	"mktcal/internal/util"
	"mktcal/pkg/mktcal"
	_ "mktcal/pkg/mktcal/exchanges"
)

func main() {
	var (
		calName  = flag.String("calendar", "NYSE", "calendar name or alias")
		startStr = flag.String("start", "", "window start (YYYY-MM-DD)")
		endStr   = flag.String("end", "", "window end (YYYY-MM-DD)")
		freqStr  = flag.String("freq", "", "optional intraday index frequency, e.g. 30m")
	)
	flag.Parse()

	cfgPath := "config/mktcal.yaml"
	if p := os.Getenv("MKTCAL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("loading config: %v", err)
		}
		cfg = config.Default()
	}
	if cfg.Storage.DataDir == "" {
		log.Fatal("no data_dir configured (set storage.data_dir or DATA_DIR)")
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		log.Fatalf("bad -start: %v", err)
	}
	end, err := time.Parse("2006-01-02", *endStr)
	if err != nil {
		log.Fatalf("bad -end: %v", err)
	}

	c, err := mktcal.GetCalendar(*calName)
	if err != nil {
		log.Fatalf("resolving calendar: %v", err)
	}
	sched, err := c.Schedule(start, end, nil)
	if err != nil {
		log.Fatalf("building schedule: %v", err)
	}

	exporter := store.NewParquetExporter(cfg.Storage.DataDir)
	cells := store.CellsFromSchedule(sched)
	if err := exporter.ExportSchedule(c.Name(), cells); err != nil {
		log.Fatalf("exporting schedule: %v", err)
	}
	logger.Info("schedule exported", "calendar", c.Name(), "rows", sched.Len(), "cells", len(cells))

	if *freqStr == "" {
		return
	}
	freq, err := time.ParseDuration(*freqStr)
	if err != nil {
		log.Fatalf("bad -freq: %v", err)
	}
	index, warnings, err := mktcal.DateRange(sched, freq, nil)
	if err != nil {
		log.Fatalf("building index: %v", err)
	}
	if err := mktcal.Escalate(warnings, mktcal.WarnInsufficientSchedule); err != nil {
		log.Fatalf("building index: %v", err)
	}
	if err := exporter.ExportIndex(c.Name(), *freqStr, index); err != nil {
		log.Fatalf("exporting index: %v", err)
	}
	logger.Info("index exported", "calendar", c.Name(), "freq", *freqStr, "timestamps", len(index))
}
