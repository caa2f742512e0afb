package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"
)

// ParquetExporter writes schedules and timestamp indexes as Parquet files on
// disk, partitioned by calendar and year.
type ParquetExporter struct {
	DataDir string
}

// NewParquetExporter creates an exporter rooted at the given data directory.
func NewParquetExporter(dataDir string) *ParquetExporter {
	return &ParquetExporter{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// ScheduleRecord is the Parquet schema for schedule cells.
type ScheduleRecord struct {
	Date  int64  `parquet:"date,timestamp(millisecond)"` // midnight UTC
	Label string `parquet:"label"`
	Seq   int32  `parquet:"seq"`
	Time  int64  `parquet:"time,timestamp(millisecond)"` // Unix ms, UTC
}

// IndexRecord is the Parquet schema for generated timestamp indexes.
type IndexRecord struct {
	Time int64 `parquet:"time,timestamp(millisecond)"` // Unix ms, UTC
}

// ---------------------------------------------------------------------------
// Schedules
// ---------------------------------------------------------------------------

// ExportSchedule writes cells to year-partitioned files at
//
//	<DataDir>/<calendar>/schedule/<YYYY>.parquet
//
// merging with any existing file so repeated exports of overlapping windows
// stay idempotent.
func (e *ParquetExporter) ExportSchedule(calendar string, cells []ScheduleCell) error {
	byYear := make(map[int][]ScheduleRecord)
	for _, cell := range cells {
		byYear[cell.Date.Year()] = append(byYear[cell.Date.Year()], ScheduleRecord{
			Date:  cell.Date.UnixMilli(),
			Label: cell.Label,
			Seq:   int32(cell.Seq),
			Time:  cell.Time.UnixMilli(),
		})
	}

	for year, records := range byYear {
		path := e.schedulePath(calendar, year)
		existing, _ := readParquetFile[ScheduleRecord](path)
		merged := mergeScheduleRecords(existing, records)
		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing schedule for %s/%d: %w", calendar, year, err)
		}
	}
	return nil
}

// ReadSchedule reads exported cells for dates in [start, end].
func (e *ParquetExporter) ReadSchedule(calendar string, start, end time.Time) ([]ScheduleCell, error) {
	var cells []ScheduleCell
	for year := start.Year(); year <= end.Year(); year++ {
		records, err := readParquetFile[ScheduleRecord](e.schedulePath(calendar, year))
		if err != nil {
			// No file for this year.
			continue
		}
		for _, r := range records {
			d := time.UnixMilli(r.Date).UTC()
			if d.Before(start) || d.After(end) {
				continue
			}
			cells = append(cells, ScheduleCell{
				Date:  d,
				Label: r.Label,
				Seq:   int(r.Seq),
				Time:  time.UnixMilli(r.Time).UTC(),
			})
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if !cells[i].Date.Equal(cells[j].Date) {
			return cells[i].Date.Before(cells[j].Date)
		}
		return cells[i].Seq < cells[j].Seq
	})
	return cells, nil
}

// ---------------------------------------------------------------------------
// Timestamp indexes
// ---------------------------------------------------------------------------

// ExportIndex writes a generated timestamp index to year-partitioned files at
//
//	<DataDir>/<calendar>/index/<freq>/<YYYY>.parquet
//
// where freq is a caller-chosen tag such as "30m" or "1D".
func (e *ParquetExporter) ExportIndex(calendar, freq string, index []time.Time) error {
	byYear := make(map[int][]IndexRecord)
	for _, t := range index {
		byYear[t.UTC().Year()] = append(byYear[t.UTC().Year()], IndexRecord{Time: t.UnixMilli()})
	}

	for year, records := range byYear {
		path := e.indexPath(calendar, freq, year)
		existing, _ := readParquetFile[IndexRecord](path)
		merged := mergeIndexRecords(existing, records)
		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing index for %s/%s/%d: %w", calendar, freq, year, err)
		}
	}
	return nil
}

// ReadIndex reads an exported index for instants in [start, end].
func (e *ParquetExporter) ReadIndex(calendar, freq string, start, end time.Time) ([]time.Time, error) {
	var out []time.Time
	for year := start.UTC().Year(); year <= end.UTC().Year(); year++ {
		records, err := readParquetFile[IndexRecord](e.indexPath(calendar, freq, year))
		if err != nil {
			continue
		}
		for _, r := range records {
			t := time.UnixMilli(r.Time).UTC()
			if t.Before(start) || t.After(end) {
				continue
			}
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// ListCalendars lists the calendars that have any exported data.
func (e *ParquetExporter) ListCalendars() ([]string, error) {
	entries, err := os.ReadDir(e.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

func (e *ParquetExporter) schedulePath(calendar string, year int) string {
	return filepath.Join(e.DataDir, pathSafe(calendar), "schedule", fmt.Sprintf("%d.parquet", year))
}

func (e *ParquetExporter) indexPath(calendar, freq string, year int) string {
	return filepath.Join(e.DataDir, pathSafe(calendar), "index", freq, fmt.Sprintf("%d.parquet", year))
}

// pathSafe maps calendar names like "24/7" to directory-safe names.
func pathSafe(name string) string {
	out := []rune(name)
	for i, r := range out {
		if r == '/' || r == os.PathSeparator {
			out[i] = '_'
		}
	}
	return string(out)
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

// mergeScheduleRecords deduplicates by (date, label), preferring incoming
// records, and sorts by date then column position.
func mergeScheduleRecords(existing, incoming []ScheduleRecord) []ScheduleRecord {
	type key struct {
		date  int64
		label string
	}
	seen := make(map[key]ScheduleRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Date, r.Label}] = r
	}
	for _, r := range incoming {
		seen[key{r.Date, r.Label}] = r
	}

	merged := make([]ScheduleRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Date != merged[j].Date {
			return merged[i].Date < merged[j].Date
		}
		return merged[i].Seq < merged[j].Seq
	})
	return merged
}

// mergeIndexRecords deduplicates by instant and sorts.
func mergeIndexRecords(existing, incoming []IndexRecord) []IndexRecord {
	seen := make(map[int64]struct{}, len(existing)+len(incoming))
	merged := make([]IndexRecord, 0, len(existing)+len(incoming))
	for _, r := range append(existing, incoming...) {
		if _, ok := seen[r.Time]; ok {
			continue
		}
		seen[r.Time] = struct{}{}
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Time < merged[j].Time })
	return merged
}
