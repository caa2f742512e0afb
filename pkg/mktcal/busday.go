package mktcal

import "time"

// ---------------------------------------------------------------------------
// Weekmask
// ---------------------------------------------------------------------------

// WeekdaySet is a bitmask of weekdays on which an exchange is potentially
// open.
type WeekdaySet uint8

// Weekdays builds a WeekdaySet from the given weekdays.
func Weekdays(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

// MondayToFriday is the weekmask shared by most exchanges.
var MondayToFriday = Weekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)

// AllWeek covers every weekday, for always-open calendars.
var AllWeek = Weekdays(time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
	time.Thursday, time.Friday, time.Saturday)

// Has reports whether the set contains the weekday.
func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// WeekmaskSegment is one effective-dated span of a weekmask. A nil From
// applies from the epoch.
type WeekmaskSegment struct {
	From *time.Time
	Days WeekdaySet
}

// Weekmask is an ordered list of effective-dated weekday sets. Most
// calendars have a single open-ended segment; calendars whose trading week
// changed historically (NYSE dropped Saturday sessions in 1952) carry one
// segment per era. Segments are ordered by From with the nil-From segment
// first, mirroring the MarketTimeSpec invariant.
type Weekmask []WeekmaskSegment

// SingleWeekmask wraps one weekday set as an open-ended weekmask.
func SingleWeekmask(days WeekdaySet) Weekmask {
	return Weekmask{{Days: days}}
}

// daysOn returns the weekday set in effect on the given date.
func (w Weekmask) daysOn(date time.Time) WeekdaySet {
	var days WeekdaySet
	for _, seg := range w {
		if seg.From == nil || !seg.From.After(date) {
			days = seg.Days
		}
	}
	return days
}

// ---------------------------------------------------------------------------
// Business-day iteration
// ---------------------------------------------------------------------------

// businessDays returns the ordered valid trading dates in [start, end]:
// every date whose weekday is in the weekmask in effect on that date and
// that is not in the holiday set. Dates are naive (midnight UTC).
func businessDays(mask Weekmask, holidays []time.Time, start, end time.Time) []time.Time {
	start, end = dateOf(start), dateOf(end)
	closed := make(map[time.Time]struct{}, len(holidays))
	for _, h := range holidays {
		closed[dateOf(h)] = struct{}{}
	}

	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !mask.daysOn(d).Has(d.Weekday()) {
			continue
		}
		if _, ok := closed[d]; ok {
			continue
		}
		out = append(out, d)
	}
	return out
}
