package mktcal

import (
	"testing"
	"time"
)

func TestEasterSunday(t *testing.T) {
	known := map[int]time.Time{
		1999: Day(1999, time.April, 4),
		2000: Day(2000, time.April, 23),
		2012: Day(2012, time.April, 8),
		2016: Day(2016, time.March, 27),
		2021: Day(2021, time.April, 4),
		2024: Day(2024, time.March, 31),
		2025: Day(2025, time.April, 20),
	}
	for year, want := range known {
		if got := EasterSunday(year); !got.Equal(want) {
			t.Errorf("EasterSunday(%d) = %s, want %s", year, got.Format("2006-01-02"), want.Format("2006-01-02"))
		}
	}
}

func TestNthWeekdayOfMonth(t *testing.T) {
	// 3rd Monday of January 2012 (MLK day).
	if got := nthWeekdayOfMonth(2012, time.January, time.Monday, 3); !got.Equal(Day(2012, time.January, 16)) {
		t.Errorf("3rd Monday of Jan 2012 = %s, want 2012-01-16", got.Format("2006-01-02"))
	}
	// Last Monday of May 2012 (Memorial day).
	if got := nthWeekdayOfMonth(2012, time.May, time.Monday, -1); !got.Equal(Day(2012, time.May, 28)) {
		t.Errorf("last Monday of May 2012 = %s, want 2012-05-28", got.Format("2006-01-02"))
	}
	// 4th Thursday of November 2019: the month starts on a Friday, so the
	// 4th Thursday (Nov 28) precedes the 5th Friday.
	if got := nthWeekdayOfMonth(2019, time.November, time.Thursday, 4); !got.Equal(Day(2019, time.November, 28)) {
		t.Errorf("4th Thursday of Nov 2019 = %s, want 2019-11-28", got.Format("2006-01-02"))
	}
}

func TestObservances(t *testing.T) {
	sat := Day(2021, time.December, 25) // Saturday
	sun := Day(2022, time.December, 25) // Sunday
	wed := Day(2024, time.December, 25) // Wednesday

	if got := NearestWorkday(sat); !got.Equal(Day(2021, time.December, 24)) {
		t.Errorf("NearestWorkday(Sat) = %s, want Friday before", got.Format("2006-01-02"))
	}
	if got := NearestWorkday(sun); !got.Equal(Day(2022, time.December, 26)) {
		t.Errorf("NearestWorkday(Sun) = %s, want Monday after", got.Format("2006-01-02"))
	}
	if got := NearestWorkday(wed); !got.Equal(wed) {
		t.Errorf("NearestWorkday(Wed) moved a weekday: %s", got.Format("2006-01-02"))
	}
	if got := SundayToMonday(sat); !got.Equal(sat) {
		t.Errorf("SundayToMonday moved a Saturday: %s", got.Format("2006-01-02"))
	}
	if got := PlusDays(1)(wed); !got.Equal(Day(2024, time.December, 26)) {
		t.Errorf("PlusDays(1) = %s, want next day", got.Format("2006-01-02"))
	}
}

func TestHolidayCalendarRules(t *testing.T) {
	hc := HolidayCalendar{
		Rules: []HolidayRule{
			{Name: "New Year", Kind: RuleFixedDate, Month: time.January, Day: 1, Observance: SundayToMonday},
			{Name: "Good Friday", Kind: RuleEasterOffset, Offset: -2},
			{Name: "Thanksgiving", Kind: RuleNthWeekday, Month: time.November, Weekday: time.Thursday, Nth: 4},
		},
	}

	got := hc.Holidays(Day(2012, time.January, 1), Day(2012, time.December, 31))
	want := []time.Time{
		Day(2012, time.January, 2), // Jan 1 was a Sunday
		Day(2012, time.April, 6),
		Day(2012, time.November, 22),
	}
	if len(got) != len(want) {
		t.Fatalf("Holidays returned %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("holiday[%d] = %s, want %s", i, got[i].Format("2006-01-02"), want[i].Format("2006-01-02"))
		}
	}
}

func TestHolidayRuleBoundsAndFilter(t *testing.T) {
	// Rule active only from 1998: nothing before.
	mlk := HolidayCalendar{Rules: []HolidayRule{{
		Kind: RuleNthWeekday, Month: time.January, Weekday: time.Monday, Nth: 3,
		Start: datePtr(1998, time.January, 1),
	}}}
	if got := mlk.Holidays(Day(1995, time.January, 1), Day(1995, time.December, 31)); len(got) != 0 {
		t.Errorf("bounded rule fired before its start date: %v", got)
	}
	if got := mlk.Holidays(Day(1998, time.January, 1), Day(1998, time.December, 31)); len(got) != 1 {
		t.Errorf("bounded rule missing inside bounds: %v", got)
	}

	// Weekday filter: July 3rd only when it falls Monday through Thursday.
	jul3 := HolidayCalendar{Rules: []HolidayRule{{
		Kind: RuleFixedDate, Month: time.July, Day: 3,
		DaysOfWeek: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday},
	}}}
	if got := jul3.Holidays(Day(2012, time.January, 1), Day(2012, time.December, 31)); len(got) != 1 {
		// 2012-07-03 is a Tuesday.
		t.Errorf("weekday filter dropped a matching date: %v", got)
	}
	if got := jul3.Holidays(Day(2015, time.January, 1), Day(2015, time.December, 31)); len(got) != 0 {
		// 2015-07-03 is a Friday.
		t.Errorf("weekday filter passed a non-matching date: %v", got)
	}
}

func TestHolidayCalendarAdHocShortcut(t *testing.T) {
	// Rule-free sets filter the static list directly; order of the input
	// must not matter and out-of-window dates must be dropped.
	hc := HolidayCalendar{AdHoc: []time.Time{
		Day(2012, time.October, 30),
		Day(2001, time.September, 11),
		Day(2012, time.October, 29),
		Day(2025, time.January, 9),
	}}
	got := hc.Holidays(Day(2012, time.January, 1), Day(2012, time.December, 31))
	if len(got) != 2 {
		t.Fatalf("ad-hoc filter returned %d dates, want 2: %v", len(got), got)
	}
	if !got[0].Equal(Day(2012, time.October, 29)) || !got[1].Equal(Day(2012, time.October, 30)) {
		t.Errorf("ad-hoc filter returned wrong or unsorted dates: %v", got)
	}
}

func TestHolidaysYearBoundaryObservance(t *testing.T) {
	// New Year's Day 2033 falls on a Saturday; with a Friday observance the
	// holiday lands on 2032-12-31 and must be found by a window covering
	// only December 2032.
	hc := HolidayCalendar{Rules: []HolidayRule{{
		Kind: RuleFixedDate, Month: time.January, Day: 1, Observance: SaturdayToFriday,
	}}}
	got := hc.Holidays(Day(2032, time.December, 1), Day(2032, time.December, 31))
	if len(got) != 1 || !got[0].Equal(Day(2032, time.December, 31)) {
		t.Errorf("observance across year boundary missing: %v", got)
	}
}
