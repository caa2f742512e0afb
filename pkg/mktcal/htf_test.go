package mktcal

import (
	"testing"
	"time"
)

func htfCalendar(t *testing.T) *Calendar {
	t.Helper()
	desc := nyMiniDesc()
	desc.AdHocHolidays = []time.Time{Day(2025, time.January, 1)}
	return newTestCalendar(t, desc)
}

func TestParseHTFFreq(t *testing.T) {
	cases := []struct {
		in   string
		k    int
		unit htfUnit
	}{
		{"D", 1, unitDay},
		{"1W", 1, unitWeek},
		{"2w", 2, unitWeek},
		{"3M", 3, unitMonth},
		{"1Q", 1, unitQuarter},
		{"Y", 1, unitYear},
	}
	for _, tc := range cases {
		k, unit, err := parseHTFFreq(tc.in)
		if err != nil {
			t.Errorf("parseHTFFreq(%q): %v", tc.in, err)
			continue
		}
		if k != tc.k || unit != tc.unit {
			t.Errorf("parseHTFFreq(%q) = (%d, %c), want (%d, %c)", tc.in, k, unit, tc.k, tc.unit)
		}
	}
	for _, bad := range []string{"", "X", "0D", "-1W", "1.5M"} {
		if _, _, err := parseHTFFreq(bad); err == nil {
			t.Errorf("parseHTFFreq(%q) accepted", bad)
		}
	}
}

func TestDateRangeHTFDaily(t *testing.T) {
	c := htfCalendar(t)
	start, end := Day(2024, time.December, 30), Day(2025, time.January, 3)
	got, _, err := c.DateRangeHTF("1D", &HTFOptions{Start: &start, End: &end})
	if err != nil {
		t.Fatalf("DateRangeHTF: %v", err)
	}
	// Jan 1 is a holiday; Dec 28-29 is a weekend before the window.
	assertTimes(t, got,
		Day(2024, time.December, 30),
		Day(2024, time.December, 31),
		Day(2025, time.January, 2),
		Day(2025, time.January, 3))

	// 2D strides over every other trading day.
	got, _, err = c.DateRangeHTF("2D", &HTFOptions{Start: &start, End: &end})
	if err != nil {
		t.Fatalf("DateRangeHTF 2D: %v", err)
	}
	assertTimes(t, got,
		Day(2024, time.December, 30),
		Day(2025, time.January, 2))
}

func TestDateRangeHTFWeeklyAnchored(t *testing.T) {
	c := htfCalendar(t)
	start, end := Day(2024, time.December, 18), Day(2025, time.January, 15)

	// Closed left: the anchor Wednesday or the next trading day after it.
	// 2025-01-01 is a holiday, so that week snaps forward to Thursday.
	got, _, err := c.DateRangeHTF("1W", &HTFOptions{
		Start: &start, End: &end, DayAnchor: time.Wednesday, Closed: ClosedLeft,
	})
	if err != nil {
		t.Fatalf("DateRangeHTF: %v", err)
	}
	assertTimes(t, got,
		Day(2024, time.December, 18),
		Day(2024, time.December, 25),
		Day(2025, time.January, 2),
		Day(2025, time.January, 8),
		Day(2025, time.January, 15))

	// Closed right: the holiday week snaps back to Tuesday.
	got, _, err = c.DateRangeHTF("1W", &HTFOptions{
		Start: &start, End: &end, DayAnchor: time.Wednesday, Closed: ClosedRight,
	})
	if err != nil {
		t.Fatalf("DateRangeHTF: %v", err)
	}
	assertTimes(t, got,
		Day(2024, time.December, 18),
		Day(2024, time.December, 25),
		Day(2024, time.December, 31),
		Day(2025, time.January, 8),
		Day(2025, time.January, 15))
}

func TestDateRangeHTFMonthly(t *testing.T) {
	c := htfCalendar(t)
	start, end := Day(2025, time.January, 1), Day(2025, time.March, 31)

	got, _, err := c.DateRangeHTF("1M", &HTFOptions{Start: &start, End: &end, Closed: ClosedLeft})
	if err != nil {
		t.Fatalf("DateRangeHTF: %v", err)
	}
	// First trading day of each month: New Year pushes January to the 2nd,
	// and February and March begin on weekends.
	assertTimes(t, got,
		Day(2025, time.January, 2),
		Day(2025, time.February, 3),
		Day(2025, time.March, 3))

	got, _, err = c.DateRangeHTF("1M", &HTFOptions{Start: &start, End: &end, Closed: ClosedRight})
	if err != nil {
		t.Fatalf("DateRangeHTF: %v", err)
	}
	assertTimes(t, got,
		Day(2025, time.January, 31),
		Day(2025, time.February, 28),
		Day(2025, time.March, 31))
}

func TestDateRangeHTFQuarterlyYearly(t *testing.T) {
	c := htfCalendar(t)
	start, end := Day(2025, time.January, 1), Day(2025, time.December, 31)

	got, _, err := c.DateRangeHTF("1Q", &HTFOptions{Start: &start, End: &end, Closed: ClosedLeft})
	if err != nil {
		t.Fatalf("DateRangeHTF: %v", err)
	}
	assertTimes(t, got,
		Day(2025, time.January, 2),
		Day(2025, time.April, 1),
		Day(2025, time.July, 1),
		Day(2025, time.October, 1))

	got, _, err = c.DateRangeHTF("1Y", &HTFOptions{Start: &start, End: &end, Closed: ClosedLeft})
	if err != nil {
		t.Fatalf("DateRangeHTF: %v", err)
	}
	assertTimes(t, got, Day(2025, time.January, 2))
}

func TestDateRangeHTFPeriods(t *testing.T) {
	c := htfCalendar(t)
	start := Day(2024, time.December, 18)

	got, _, err := c.DateRangeHTF("1W", &HTFOptions{
		Start: &start, Periods: 3, DayAnchor: time.Wednesday, Closed: ClosedLeft,
	})
	if err != nil {
		t.Fatalf("DateRangeHTF: %v", err)
	}
	assertTimes(t, got,
		Day(2024, time.December, 18),
		Day(2024, time.December, 25),
		Day(2025, time.January, 2))

	// End plus periods keeps the tail.
	end := Day(2025, time.January, 15)
	got, _, err = c.DateRangeHTF("1W", &HTFOptions{
		End: &end, Periods: 2, DayAnchor: time.Wednesday, Closed: ClosedLeft,
	})
	if err != nil {
		t.Fatalf("DateRangeHTF: %v", err)
	}
	assertTimes(t, got,
		Day(2025, time.January, 8),
		Day(2025, time.January, 15))
}

func TestDateRangeHTFArgumentValidation(t *testing.T) {
	c := htfCalendar(t)
	start, end := Day(2025, time.January, 1), Day(2025, time.March, 31)

	if _, _, err := c.DateRangeHTF("1W", &HTFOptions{Start: &start}); err == nil {
		t.Error("single bound accepted")
	}
	if _, _, err := c.DateRangeHTF("1W", &HTFOptions{Start: &start, End: &end, Periods: 3}); err == nil {
		t.Error("all three bounds accepted")
	}
	if _, _, err := c.DateRangeHTF("1W", &HTFOptions{Start: &start, End: &end, Closed: ClosedBoth}); err == nil {
		t.Error("closed both accepted for a higher timeframe")
	}
	if _, _, err := c.DateRangeHTF("1H", &HTFOptions{Start: &start, End: &end}); err == nil {
		t.Error("intraday unit accepted")
	}
	if _, _, err := c.DateRangeHTF("1W", &HTFOptions{Start: &end, End: &start}); err == nil {
		t.Error("inverted window accepted")
	}
}
