package mktcal

import (
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Market-time labels
// ---------------------------------------------------------------------------

// Canonical market-time labels. Calendars may define additional labels, but
// these are the ones the session vocabulary of DateRange understands.
const (
	LabelPre         = "pre"
	LabelMarketOpen  = "market_open"
	LabelBreakStart  = "break_start"
	LabelBreakEnd    = "break_end"
	LabelMarketClose = "market_close"
	LabelPost        = "post"
)

// OpenCloseKind classifies a labelled market time as opening a session,
// closing a session, or neither. It drives which labels OpenAtTime treats
// as interval boundaries.
type OpenCloseKind int

const (
	// Neither means the label is informational and does not bound a session.
	Neither OpenCloseKind = iota
	// Opens means a session starts at this time.
	Opens
	// Closes means a session ends at this time.
	Closes
)

// defaultOpenCloseMap classifies the canonical labels.
var defaultOpenCloseMap = map[string]OpenCloseKind{
	LabelPre:         Opens,
	LabelMarketOpen:  Opens,
	LabelBreakStart:  Closes,
	LabelBreakEnd:    Opens,
	LabelMarketClose: Closes,
	LabelPost:        Closes,
}

// ---------------------------------------------------------------------------
// Time of day
// ---------------------------------------------------------------------------

// TimeOfDay is a wall-clock time without a date or zone.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// TD is a shorthand constructor for a TimeOfDay with zero seconds.
func TD(hour, minute int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute}
}

// String formats the time as HH:MM or HH:MM:SS.
func (t TimeOfDay) String() string {
	if t.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Duration returns the offset of t from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second
}

// tdelta returns the signed offset of a market time from its anchor date's
// midnight, including the day offset.
func tdelta(t TimeOfDay, dayOffset int) time.Duration {
	return time.Duration(dayOffset)*24*time.Hour + t.Duration()
}

// combine resolves (anchor date, wall-clock time, day offset) to an absolute
// UTC instant in the given zone. The day offset is applied to the naive date
// before localisation so that offset arithmetic never steps through a DST
// transition. Local times that do not exist (spring forward) or are
// ambiguous (fall back) resolve the way time.Date resolves them; that is the
// single place this module makes the choice.
func combine(date time.Time, t TimeOfDay, dayOffset int, loc *time.Location) time.Time {
	d := date.AddDate(0, 0, dayOffset)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, t.Second, 0, loc).UTC()
}

// ---------------------------------------------------------------------------
// Effective-dated market times
// ---------------------------------------------------------------------------

// MarketTimeSpec is one segment of a market time's schedule. A nil From
// means the segment applies from the epoch; a nil Time marks the market
// time discontinued as of From.
type MarketTimeSpec struct {
	From      *time.Time
	Time      *TimeOfDay
	DayOffset int
}

// MarketTimeDef is a labelled market time with its effective-dated segments,
// ordered by From (the nil-From segment, if any, first).
type MarketTimeDef struct {
	Label string
	Specs []MarketTimeSpec
}

// specFor returns the segment of specs in effect on date, or nil if no
// segment covers the date or the time is discontinued there.
func specFor(specs []MarketTimeSpec, date time.Time) *MarketTimeSpec {
	var match *MarketTimeSpec
	for i := range specs {
		s := &specs[i]
		if s.From == nil || !s.From.After(date) {
			match = s
		}
	}
	if match == nil || match.Time == nil {
		return nil
	}
	return match
}

// validateSpecs checks the MarketTimeSpec ordering invariant: strictly
// increasing From values, at most one nil From, and if present it is first.
func validateSpecs(label string, specs []MarketTimeSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("market time %q has no segments", label)
	}
	var prev *time.Time
	for i, s := range specs {
		if s.From == nil {
			if i != 0 {
				return fmt.Errorf("market time %q: open-ended segment must be first", label)
			}
			continue
		}
		if prev != nil && !s.From.After(*prev) {
			return fmt.Errorf("market time %q: segments not strictly ordered at %s", label, s.From.Format("2006-01-02"))
		}
		prev = s.From
	}
	return nil
}

// ---------------------------------------------------------------------------
// Date helpers
// ---------------------------------------------------------------------------

// Day returns the naive date (midnight UTC) for the given calendar day.
// Naive dates are the index currency of the whole package: holidays, valid
// days, and schedule rows are all keyed by them.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// dateOf truncates an instant to its naive date.
func dateOf(t time.Time) time.Time {
	return Day(t.Year(), t.Month(), t.Day())
}

// datePtr is a convenience for literal effective-from dates in descriptors.
func datePtr(year int, month time.Month, day int) *time.Time {
	d := Day(year, month, day)
	return &d
}

// todPtr is a convenience for literal times in descriptors.
func todPtr(t TimeOfDay) *TimeOfDay { return &t }
