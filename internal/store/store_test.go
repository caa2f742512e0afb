package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mktcal/pkg/mktcal"
)

func testSchedule(t *testing.T) *mktcal.Schedule {
	t.Helper()
	open := mktcal.TD(9, 30)
	close := mktcal.TD(16, 0)
	cal, err := mktcal.NewCalendar(&mktcal.Descriptor{
		Name: "TEST_STORE",
		TZ:   "America/New_York",
		Weekmask: mktcal.SingleWeekmask(mktcal.Weekdays(
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)),
		MarketTimes: []mktcal.MarketTimeDef{
			{Label: "market_open", Specs: []mktcal.MarketTimeSpec{{Time: &open}}},
			{Label: "market_close", Specs: []mktcal.MarketTimeSpec{{Time: &close}}},
		},
		AdHocHolidays: []time.Time{mktcal.Day(2021, time.July, 5)},
	})
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}
	sched, err := cal.Schedule(mktcal.Day(2021, time.July, 1), mktcal.Day(2021, time.July, 9), nil)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	return sched
}

func TestCellsFromSchedule(t *testing.T) {
	cells := CellsFromSchedule(testSchedule(t))

	// Jul 1-9 2021 has 6 sessions (Jul 5 is a holiday), two labels each.
	if len(cells) != 12 {
		t.Fatalf("CellsFromSchedule returned %d cells, want 12", len(cells))
	}
	first := cells[0]
	if !first.Date.Equal(mktcal.Day(2021, time.July, 1)) || first.Label != "market_open" {
		t.Errorf("first cell = %s %s, want 2021-07-01 market_open",
			first.Date.Format("2006-01-02"), first.Label)
	}
	want := time.Date(2021, time.July, 1, 13, 30, 0, 0, time.UTC)
	if !first.Time.Equal(want) {
		t.Errorf("first cell time = %v, want %v", first.Time, want)
	}
	for _, cell := range cells {
		if cell.Date.Equal(mktcal.Day(2021, time.July, 5)) {
			t.Errorf("holiday 2021-07-05 present in cells")
		}
	}
}

func TestSQLiteCacheRoundTrip(t *testing.T) {
	cache, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteCache: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	cells := CellsFromSchedule(testSchedule(t))
	if err := cache.Put(ctx, "TEST_STORE", cells); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := cache.Get(ctx, "TEST_STORE", mktcal.Day(2021, time.July, 1), mktcal.Day(2021, time.July, 9))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != len(cells) {
		t.Fatalf("Get returned %d cells, want %d", len(got), len(cells))
	}
	for i := range got {
		if !got[i].Date.Equal(cells[i].Date) || got[i].Label != cells[i].Label ||
			got[i].Seq != cells[i].Seq || !got[i].Time.Equal(cells[i].Time) {
			t.Errorf("cell %d = %+v, want %+v", i, got[i], cells[i])
		}
	}

	// Windowed read.
	got, err = cache.Get(ctx, "TEST_STORE", mktcal.Day(2021, time.July, 6), mktcal.Day(2021, time.July, 7))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("windowed Get returned %d cells, want 4", len(got))
	}

	// Unknown calendar.
	got, err = cache.Get(ctx, "NOPE", mktcal.Day(2021, time.July, 1), mktcal.Day(2021, time.July, 9))
	if err != nil || len(got) != 0 {
		t.Errorf("Get for unknown calendar = %d cells, err %v", len(got), err)
	}
}

func TestSQLiteCacheUpsert(t *testing.T) {
	cache, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteCache: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	date := mktcal.Day(2021, time.July, 1)
	orig := []ScheduleCell{{Date: date, Label: "market_open", Seq: 0,
		Time: time.Date(2021, time.July, 1, 13, 30, 0, 0, time.UTC)}}
	if err := cache.Put(ctx, "TEST_STORE", orig); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Re-putting the same (calendar, date, label) replaces the instant.
	updated := []ScheduleCell{{Date: date, Label: "market_open", Seq: 0,
		Time: time.Date(2021, time.July, 1, 14, 0, 0, 0, time.UTC)}}
	if err := cache.Put(ctx, "TEST_STORE", updated); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := cache.Get(ctx, "TEST_STORE", date, date)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 1 || !got[0].Time.Equal(updated[0].Time) {
		t.Errorf("Get after upsert = %+v, want single cell at %v", got, updated[0].Time)
	}
}

func TestSQLiteCacheCoverage(t *testing.T) {
	cache, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteCache: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	if _, _, ok, err := cache.Coverage(ctx, "TEST_STORE"); err != nil || ok {
		t.Fatalf("Coverage on empty cache = ok %v, err %v", ok, err)
	}

	if err := cache.Put(ctx, "TEST_STORE", CellsFromSchedule(testSchedule(t))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	first, last, ok, err := cache.Coverage(ctx, "TEST_STORE")
	if err != nil || !ok {
		t.Fatalf("Coverage = ok %v, err %v", ok, err)
	}
	if !first.Equal(mktcal.Day(2021, time.July, 1)) || !last.Equal(mktcal.Day(2021, time.July, 9)) {
		t.Errorf("Coverage = [%s, %s], want [2021-07-01, 2021-07-09]",
			first.Format("2006-01-02"), last.Format("2006-01-02"))
	}
}

func TestParquetScheduleRoundTrip(t *testing.T) {
	exp := NewParquetExporter(t.TempDir())

	cells := CellsFromSchedule(testSchedule(t))
	if err := exp.ExportSchedule("TEST_STORE", cells); err != nil {
		t.Fatalf("ExportSchedule: %v", err)
	}

	got, err := exp.ReadSchedule("TEST_STORE", mktcal.Day(2021, time.July, 1), mktcal.Day(2021, time.July, 9))
	if err != nil {
		t.Fatalf("ReadSchedule: %v", err)
	}
	if len(got) != len(cells) {
		t.Fatalf("ReadSchedule returned %d cells, want %d", len(got), len(cells))
	}
	for i := range got {
		if !got[i].Date.Equal(cells[i].Date) || got[i].Label != cells[i].Label ||
			got[i].Seq != cells[i].Seq || !got[i].Time.Equal(cells[i].Time) {
			t.Errorf("cell %d = %+v, want %+v", i, got[i], cells[i])
		}
	}

	// Re-export of an overlapping window merges instead of duplicating.
	if err := exp.ExportSchedule("TEST_STORE", cells[:4]); err != nil {
		t.Fatalf("ExportSchedule: %v", err)
	}
	got, err = exp.ReadSchedule("TEST_STORE", mktcal.Day(2021, time.July, 1), mktcal.Day(2021, time.July, 9))
	if err != nil {
		t.Fatalf("ReadSchedule: %v", err)
	}
	if len(got) != len(cells) {
		t.Errorf("ReadSchedule after re-export returned %d cells, want %d", len(got), len(cells))
	}

	names, err := exp.ListCalendars()
	if err != nil {
		t.Fatalf("ListCalendars: %v", err)
	}
	if len(names) != 1 || names[0] != "TEST_STORE" {
		t.Errorf("ListCalendars = %v, want [TEST_STORE]", names)
	}
}

func TestParquetIndexRoundTrip(t *testing.T) {
	exp := NewParquetExporter(t.TempDir())

	// Spans a year boundary to exercise partitioning.
	index := []time.Time{
		time.Date(2021, time.December, 31, 14, 30, 0, 0, time.UTC),
		time.Date(2021, time.December, 31, 15, 30, 0, 0, time.UTC),
		time.Date(2022, time.January, 3, 14, 30, 0, 0, time.UTC),
	}
	if err := exp.ExportIndex("TEST_STORE", "1h", index); err != nil {
		t.Fatalf("ExportIndex: %v", err)
	}

	got, err := exp.ReadIndex("TEST_STORE", "1h",
		time.Date(2021, time.December, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2022, time.February, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadIndex returned %d instants, want 3", len(got))
	}
	for i := range got {
		if !got[i].Equal(index[i]) {
			t.Errorf("instant %d = %v, want %v", i, got[i], index[i])
		}
	}

	// Windowed read drops the 2022 instant.
	got, err = exp.ReadIndex("TEST_STORE", "1h",
		time.Date(2021, time.December, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, time.December, 31, 23, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("windowed ReadIndex returned %d instants, want 2", len(got))
	}
}

func TestParquetPathSafe(t *testing.T) {
	exp := NewParquetExporter(t.TempDir())
	if err := exp.ExportIndex("24/7", "1D", []time.Time{
		time.Date(2021, time.July, 1, 0, 0, 0, 0, time.UTC)}); err != nil {
		t.Fatalf("ExportIndex: %v", err)
	}
	names, err := exp.ListCalendars()
	if err != nil {
		t.Fatalf("ListCalendars: %v", err)
	}
	if len(names) != 1 || names[0] != "24_7" {
		t.Errorf("ListCalendars = %v, want [24_7]", names)
	}
}
