package mktcal

import (
	"sort"
	"time"
)

// ---------------------------------------------------------------------------
// Rule variants
// ---------------------------------------------------------------------------

// RuleKind selects how a HolidayRule computes its candidate date for a year.
type RuleKind int

const (
	// RuleFixedDate is a fixed month and day, e.g. July 4.
	RuleFixedDate RuleKind = iota
	// RuleNthWeekday is the nth weekday of a month, e.g. the 3rd Monday of
	// January. A negative Nth counts from the end of the month (-1 = last).
	RuleNthWeekday
	// RuleEasterOffset is a day offset from Easter Sunday, e.g. -2 for Good
	// Friday.
	RuleEasterOffset
)

// Observance shifts a computed holiday date, typically to move weekend
// holidays onto an adjacent workday.
type Observance func(time.Time) time.Time

// SundayToMonday moves Sunday dates to the following Monday.
func SundayToMonday(d time.Time) time.Time {
	if d.Weekday() == time.Sunday {
		return d.AddDate(0, 0, 1)
	}
	return d
}

// SaturdayToFriday moves Saturday dates to the preceding Friday.
func SaturdayToFriday(d time.Time) time.Time {
	if d.Weekday() == time.Saturday {
		return d.AddDate(0, 0, -1)
	}
	return d
}

// NearestWorkday moves Saturday dates to Friday and Sunday dates to Monday.
func NearestWorkday(d time.Time) time.Time {
	return SundayToMonday(SaturdayToFriday(d))
}

// NextWorkday moves weekend dates forward to the following Monday.
func NextWorkday(d time.Time) time.Time {
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// PreviousWorkday moves weekend dates back to the preceding Friday.
func PreviousWorkday(d time.Time) time.Time {
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// PlusDays returns an observance that shifts the date by a fixed number of
// days, e.g. PlusDays(1) for the day after Thanksgiving.
func PlusDays(n int) Observance {
	return func(d time.Time) time.Time { return d.AddDate(0, 0, n) }
}

// HolidayRule computes zero or one date per year. The Kind fields are
// interpreted per RuleKind; the modifier fields apply to every kind.
// Invalid rules are a construction-time programming error, not a runtime
// failure.
type HolidayRule struct {
	Name string
	Kind RuleKind

	// RuleFixedDate and RuleNthWeekday.
	Month time.Month
	// RuleFixedDate.
	Day int
	// RuleNthWeekday.
	Weekday time.Weekday
	Nth     int
	// RuleEasterOffset.
	Offset int

	// Modifiers, applied in order: DaysOfWeek filter, Observance shift,
	// Start/End bounds.
	DaysOfWeek []time.Weekday
	Observance Observance
	Start      *time.Time
	End        *time.Time
}

// dateForYear computes the rule's date in the given year before bounds are
// applied. ok is false when the DaysOfWeek filter rejects the date.
func (r HolidayRule) dateForYear(year int) (time.Time, bool) {
	var d time.Time
	switch r.Kind {
	case RuleFixedDate:
		d = Day(year, r.Month, r.Day)
	case RuleNthWeekday:
		d = nthWeekdayOfMonth(year, r.Month, r.Weekday, r.Nth)
	case RuleEasterOffset:
		d = EasterSunday(year).AddDate(0, 0, r.Offset)
	}
	if len(r.DaysOfWeek) > 0 {
		ok := false
		for _, wd := range r.DaysOfWeek {
			if d.Weekday() == wd {
				ok = true
				break
			}
		}
		if !ok {
			return time.Time{}, false
		}
	}
	if r.Observance != nil {
		d = r.Observance(d)
	}
	return d, true
}

// inBounds reports whether the date satisfies the rule's Start/End bounds
// (inclusive on both ends).
func (r HolidayRule) inBounds(d time.Time) bool {
	if r.Start != nil && d.Before(*r.Start) {
		return false
	}
	if r.End != nil && d.After(*r.End) {
		return false
	}
	return true
}

// nthWeekdayOfMonth returns the nth occurrence of a weekday within a month.
// Negative n counts from the end of the month.
func nthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	if n > 0 {
		first := Day(year, month, 1)
		shift := (int(weekday) - int(first.Weekday()) + 7) % 7
		return first.AddDate(0, 0, shift+(n-1)*7)
	}
	last := Day(year, month+1, 1).AddDate(0, 0, -1)
	shift := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.AddDate(0, 0, shift*-1+(n+1)*7)
}

// EasterSunday returns Easter Sunday of the given year in the Gregorian
// calendar (anonymous computus).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return Day(year, time.Month(month), day)
}

// ---------------------------------------------------------------------------
// Rule sets
// ---------------------------------------------------------------------------

// HolidayCalendar is a rule set: structured rules plus an explicit ad-hoc
// date list. It is immutable once handed to a Calendar.
type HolidayCalendar struct {
	Rules []HolidayRule
	AdHoc []time.Time
}

// Holidays materialises the rule set over the inclusive window [start, end],
// returning sorted, deduplicated naive dates.
//
// When the set carries no structured rules it short-circuits to a direct
// filter of the ad-hoc list. Calendars whose history is hundreds of curated
// dates hit this path on every schedule build, so it must not expand
// per-year candidates.
func (hc HolidayCalendar) Holidays(start, end time.Time) []time.Time {
	start, end = dateOf(start), dateOf(end)
	if end.Before(start) {
		return nil
	}
	if len(hc.Rules) == 0 {
		return filterDates(hc.AdHoc, start, end)
	}

	var out []time.Time
	// Observance shifts can move a December holiday into January (and the
	// reverse), so compute one year beyond the window on both sides.
	for year := start.Year() - 1; year <= end.Year()+1; year++ {
		for _, r := range hc.Rules {
			d, ok := r.dateForYear(year)
			if !ok || !r.inBounds(d) {
				continue
			}
			if d.Before(start) || d.After(end) {
				continue
			}
			out = append(out, d)
		}
	}
	out = append(out, filterDates(hc.AdHoc, start, end)...)
	return sortedUniqueDates(out)
}

// filterDates returns the subset of dates inside [start, end], sorted and
// deduplicated. The input is not assumed sorted.
func filterDates(dates []time.Time, start, end time.Time) []time.Time {
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		d = dateOf(d)
		if !d.Before(start) && !d.After(end) {
			out = append(out, d)
		}
	}
	return sortedUniqueDates(out)
}

// sortedUniqueDates sorts dates ascending and removes duplicates in place.
func sortedUniqueDates(dates []time.Time) []time.Time {
	if len(dates) < 2 {
		return dates
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	out := dates[:1]
	for _, d := range dates[1:] {
		if !d.Equal(out[len(out)-1]) {
			out = append(out, d)
		}
	}
	return out
}
