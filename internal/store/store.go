// Package store persists calendar artifacts: a SQLite read-through cache of
// built schedule rows and Parquet exports of schedules and timestamp
// indexes.
package store

import (
	"context"
	"time"

	"mktcal/pkg/mktcal"
)

// ScheduleCell is one (date, label, instant) cell of a schedule table. A
// zero Time is a null cell. Seq is the column position, so readers can
// rebuild the session order of the labels.
type ScheduleCell struct {
	Date  time.Time // naive date, midnight UTC
	Label string
	Seq   int
	Time  time.Time // UTC; zero = null
}

// ScheduleCache caches built schedule rows keyed by calendar name and date.
type ScheduleCache interface {
	// Put upserts cells for a calendar.
	Put(ctx context.Context, calendar string, cells []ScheduleCell) error

	// Get returns the cached cells for dates in [start, end], ordered by
	// date and column position.
	Get(ctx context.Context, calendar string, start, end time.Time) ([]ScheduleCell, error)

	// Coverage returns the first and last cached date for a calendar. ok is
	// false when nothing is cached.
	Coverage(ctx context.Context, calendar string) (first, last time.Time, ok bool, err error)
}

// CellsFromSchedule flattens a schedule table into cells. Null cells are
// omitted; absence and null are the same thing on the way back.
func CellsFromSchedule(s *mktcal.Schedule) []ScheduleCell {
	labels := s.Columns()
	var cells []ScheduleCell
	for _, d := range s.Dates() {
		for seq, label := range labels {
			t, ok := s.At(d, label)
			if !ok {
				continue
			}
			cells = append(cells, ScheduleCell{Date: d, Label: label, Seq: seq, Time: t.UTC()})
		}
	}
	return cells
}
