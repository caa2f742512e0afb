package mktcal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Higher-timeframe (>= 1 day) ranges
// ---------------------------------------------------------------------------

// htfUnit is the base unit of a higher-timeframe frequency.
type htfUnit byte

const (
	unitDay     htfUnit = 'D'
	unitWeek    htfUnit = 'W'
	unitMonth   htfUnit = 'M'
	unitQuarter htfUnit = 'Q'
	unitYear    htfUnit = 'Y'
)

// parseHTFFreq parses "kU" where k is a positive integer multiple (default
// 1) and U one of D, W, M, Q, Y.
func parseHTFFreq(freq string) (int, htfUnit, error) {
	f := strings.ToUpper(strings.TrimSpace(freq))
	if f == "" {
		return 0, 0, fmt.Errorf("%w: empty frequency", ErrInvalidArgument)
	}
	unit := htfUnit(f[len(f)-1])
	switch unit {
	case unitDay, unitWeek, unitMonth, unitQuarter, unitYear:
	default:
		return 0, 0, fmt.Errorf("%w: frequency %q: unit must be one of D, W, M, Q, Y", ErrInvalidArgument, freq)
	}
	k := 1
	if num := f[:len(f)-1]; num != "" {
		var err error
		k, err = strconv.Atoi(num)
		if err != nil || k < 1 {
			return 0, 0, fmt.Errorf("%w: frequency %q: multiple must be a positive integer", ErrInvalidArgument, freq)
		}
	}
	return k, unit, nil
}

// HTFOptions tune DateRangeHTF. Exactly two of Start, End, and Periods must
// be set; the third is derived.
type HTFOptions struct {
	Start   *time.Time
	End     *time.Time
	Periods int
	// Closed selects the period edge to snap to: ClosedLeft emits the first
	// valid trading day of each period, ClosedRight the last valid trading
	// day on or before the period anchor.
	Closed Closed
	// DayAnchor anchors weekly periods (default Sunday).
	DayAnchor time.Weekday
	// MonthAnchor anchors quarterly and yearly periods (default January).
	MonthAnchor time.Month
}

// DateRangeHTF emits anchored daily/weekly/monthly/quarterly/yearly dates
// snapped to the calendar's actual trading days. The result is a sorted
// slice of naive dates. When a derived window cannot supply the requested
// periods the same insufficient-schedule warning as DateRange is returned
// so callers can widen and retry.
func (c *Calendar) DateRangeHTF(freq string, opts *HTFOptions) ([]time.Time, []Warning, error) {
	var o HTFOptions
	if opts != nil {
		o = *opts
	}
	k, unit, err := parseHTFFreq(freq)
	if err != nil {
		return nil, nil, err
	}
	if o.Closed != ClosedLeft && o.Closed != ClosedRight {
		return nil, nil, fmt.Errorf("%w: higher-timeframe ranges are closed left or right", ErrInvalidArgument)
	}
	if o.MonthAnchor == 0 {
		o.MonthAnchor = time.January
	}

	given := 0
	for _, ok := range []bool{o.Start != nil, o.End != nil, o.Periods > 0} {
		if ok {
			given++
		}
	}
	if given != 2 {
		return nil, nil, fmt.Errorf("%w: exactly two of start, end, and periods must be given", ErrInvalidArgument)
	}

	// Window, padded when one bound is derived from the period count.
	span := time.Duration(k*o.Periods)*htfSpan(unit) + htfSpan(unit)*2 + 40*24*time.Hour
	var start, end time.Time
	switch {
	case o.Start != nil && o.End != nil:
		start, end = dateOf(*o.Start), dateOf(*o.End)
	case o.Start != nil:
		start = dateOf(*o.Start)
		end = dateOf(start.Add(span))
	default:
		end = dateOf(*o.End)
		start = dateOf(end.Add(-span))
	}
	if end.Before(start) {
		return nil, nil, fmt.Errorf("%w: start %s after end %s", ErrInvalidRange,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	valid := businessDays(c.desc.Weekmask, c.Holidays(start, end), start, end)

	var out []time.Time
	switch unit {
	case unitDay:
		for i := 0; i < len(valid); i += k {
			out = append(out, valid[i])
		}
	case unitWeek:
		out = weeklyAnchored(valid, start, end, k, o.DayAnchor, o.Closed)
	case unitMonth:
		out = periodAnchored(valid, start, end, k, time.January, o.Closed)
	case unitQuarter:
		out = periodAnchored(valid, start, end, 3*k, o.MonthAnchor, o.Closed)
	case unitYear:
		out = periodAnchored(valid, start, end, 12*k, o.MonthAnchor, o.Closed)
	}

	var warnings []Warning
	if o.Periods > 0 {
		if o.Start == nil && len(out) > o.Periods {
			out = out[len(out)-o.Periods:]
		} else if len(out) > o.Periods {
			out = out[:o.Periods]
		}
		if len(out) < o.Periods {
			w := Warning{
				Kind:        WarnInsufficientSchedule,
				Message:     fmt.Sprintf("window supplied %d of %d requested periods", len(out), o.Periods),
				NeedEarlier: o.Start == nil,
				Start:       start,
				End:         end,
			}
			w.log()
			warnings = append(warnings, w)
		}
	}
	return out, warnings, nil
}

// htfSpan approximates one unit as a duration, for window padding only.
func htfSpan(unit htfUnit) time.Duration {
	const day = 24 * time.Hour
	switch unit {
	case unitDay:
		return day
	case unitWeek:
		return 7 * day
	case unitMonth:
		return 31 * day
	case unitQuarter:
		return 92 * day
	default:
		return 366 * day
	}
}

// weeklyAnchored snaps each k-th anchor weekday to a trading day: the first
// valid day on or after the anchor (closed left) or the last valid day on
// or before it (closed right). Anchors whose snap falls outside the window
// are trimmed.
func weeklyAnchored(valid []time.Time, start, end time.Time, k int, anchor time.Weekday, closed Closed) []time.Time {
	if len(valid) == 0 {
		return nil
	}
	first := start.AddDate(0, 0, (int(anchor)-int(start.Weekday())+7)%7)
	var out []time.Time
	for a := first; !a.After(end); a = a.AddDate(0, 0, 7*k) {
		if d, ok := snapToValid(valid, a, closed); ok && !d.Before(start) && !d.After(end) {
			out = append(out, d)
		}
	}
	return sortedUniqueDates(out)
}

// periodAnchored emits the first or last valid trading day of each
// stepMonths-long period whose boundaries align to the anchor month.
func periodAnchored(valid []time.Time, start, end time.Time, stepMonths int, anchorMonth time.Month, closed Closed) []time.Time {
	if len(valid) == 0 {
		return nil
	}
	// First period boundary at or before the window start, aligned so that
	// boundaries land on the anchor month.
	monthsSinceAnchor := (int(start.Month()) - int(anchorMonth) + 12) % 12
	p := Day(start.Year(), start.Month(), 1).AddDate(0, -(monthsSinceAnchor % stepMonths), 0)

	var out []time.Time
	for ; !p.After(end); p = p.AddDate(0, stepMonths, 0) {
		pEnd := p.AddDate(0, stepMonths, 0).AddDate(0, 0, -1)
		var d time.Time
		var ok bool
		if closed == ClosedLeft {
			d, ok = firstValidIn(valid, p, pEnd)
		} else {
			d, ok = lastValidIn(valid, p, pEnd)
		}
		if ok && !d.Before(start) && !d.After(end) {
			out = append(out, d)
		}
	}
	return sortedUniqueDates(out)
}

// snapToValid finds the trading day for an anchor date: closed left takes
// the first valid day on or after it, closed right the last valid day on or
// before it.
func snapToValid(valid []time.Time, anchor time.Time, closed Closed) (time.Time, bool) {
	if closed == ClosedLeft {
		for _, d := range valid {
			if !d.Before(anchor) {
				return d, true
			}
		}
		return time.Time{}, false
	}
	for i := len(valid) - 1; i >= 0; i-- {
		if !valid[i].After(anchor) {
			return valid[i], true
		}
	}
	return time.Time{}, false
}

func firstValidIn(valid []time.Time, from, to time.Time) (time.Time, bool) {
	for _, d := range valid {
		if !d.Before(from) {
			if d.After(to) {
				return time.Time{}, false
			}
			return d, true
		}
	}
	return time.Time{}, false
}

func lastValidIn(valid []time.Time, from, to time.Time) (time.Time, bool) {
	for i := len(valid) - 1; i >= 0; i-- {
		if !valid[i].After(to) {
			if valid[i].Before(from) {
				return time.Time{}, false
			}
			return valid[i], true
		}
	}
	return time.Time{}, false
}
