package mktcal

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Closed selects which interval endpoints a generated range includes.
type Closed int

const (
	// ClosedLeft includes the session start only.
	ClosedLeft Closed = iota
	// ClosedRight includes points stepped off the start, ending at or past
	// the session end.
	ClosedRight
	// ClosedBoth includes both endpoints.
	ClosedBoth
	// ClosedNeither includes strictly interior points.
	ClosedNeither
)

// ForceClose is the policy for the last timestamp of each session.
type ForceClose int

const (
	// ForceCloseClamp clamps a final timestamp past the session end back to
	// it, and appends the end when the closed mode would exclude it.
	ForceCloseClamp ForceClose = iota
	// ForceCloseDrop discards timestamps past the session end.
	ForceCloseDrop
	// ForceCloseNone leaves the stepped sequence untouched even past the
	// session end, at the price of an overlap warning.
	ForceCloseNone
)

// Named sessions understood by DateRange.
const (
	SessionPre          = "pre"
	SessionRTH          = "rth"
	SessionPost         = "post"
	SessionBreak        = "break"
	SessionClosed       = "closed"
	SessionClosedMasked = "closed_masked"
)

// DateRangeOptions tune DateRange. The zero value requests regular trading
// hours, closed on the left, with the session close clamped.
type DateRangeOptions struct {
	Closed     Closed
	ForceClose ForceClose
	// Sessions names the sessions to cover; default is rth alone.
	Sessions []string
	// Pairs lists explicit (start label, end label) session pairs and
	// overrides Sessions.
	Pairs [][2]string
	// MergeAdjacent combines session pairs that share a boundary label.
	MergeAdjacent bool

	// Start/End trim the result; Periods truncates it when only one bound
	// is given.
	Start   *time.Time
	End     *time.Time
	Periods int
}

// ---------------------------------------------------------------------------
// DateRange
// ---------------------------------------------------------------------------

// DateRange walks a schedule emitting timestamps every freq inside the
// selected sessions. The result is strictly increasing UTC instants.
// Warnings are returned (and logged) rather than raised; escalate the kinds
// you cannot tolerate with Escalate. A request reaching beyond the
// schedule's coverage yields a WarnInsufficientSchedule whose Start/End
// name the dates to extend the schedule by before retrying.
func DateRange(s *Schedule, freq time.Duration, opts *DateRangeOptions) ([]time.Time, []Warning, error) {
	var o DateRangeOptions
	if opts != nil {
		o = *opts
	}
	if freq <= 0 || freq > 24*time.Hour {
		return nil, nil, fmt.Errorf("%w: intraday frequency must be in (0, 24h], got %s", ErrInvalidArgument, freq)
	}
	if o.Closed < ClosedLeft || o.Closed > ClosedNeither {
		return nil, nil, fmt.Errorf("%w: unknown closed mode %d", ErrInvalidArgument, int(o.Closed))
	}
	if o.ForceClose < ForceCloseClamp || o.ForceClose > ForceCloseNone {
		return nil, nil, fmt.Errorf("%w: unknown force-close mode %d", ErrInvalidArgument, int(o.ForceClose))
	}
	if len(o.Sessions) == 0 {
		o.Sessions = []string{SessionRTH}
	}

	var warnings []Warning
	warn := func(w Warning) {
		w.log()
		warnings = append(warnings, w)
	}

	pairs, rthOnly := resolveSessions(s, &o, warn)
	if o.MergeAdjacent {
		pairs = mergeAdjacentPairs(pairs)
	}

	var out []time.Time
	if freq == 24*time.Hour && rthOnly {
		out = dailyAnchors(s, &o, warn)
	} else {
		out = generateIntraday(s, freq, pairs, &o, warn)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	out = dedupeTimes(out)

	out = trimRange(s, out, &o, warn)
	return out, warnings, nil
}

// labelPair is a session pair relative to a schedule row. crossRow marks
// the closed session whose end comes from the following row.
type labelPair struct {
	start, end string
	crossRow   bool
	masked     bool
}

// resolveSessions translates the session selector into label pairs,
// downgrading sessions whose labels the schedule lacks. rthOnly reports
// whether the request is exactly the rth session, which the daily special
// case keys off.
func resolveSessions(s *Schedule, o *DateRangeOptions, warn func(Warning)) ([]labelPair, bool) {
	var pairs []labelPair
	var dropped []string
	var missing []string

	require := func(session string, labels ...string) bool {
		ok := true
		for _, l := range labels {
			if !s.HasColumn(l) {
				missing = append(missing, l)
				ok = false
			}
		}
		if !ok {
			dropped = append(dropped, session)
		}
		return ok
	}

	if len(o.Pairs) > 0 {
		for _, p := range o.Pairs {
			if require(p[0]+"/"+p[1], p[0], p[1]) {
				pairs = append(pairs, labelPair{start: p[0], end: p[1]})
			}
		}
	} else {
		for _, session := range o.Sessions {
			switch session {
			case SessionRTH:
				if !require(session, LabelMarketOpen, LabelMarketClose) {
					continue
				}
				if s.HasColumn(LabelBreakStart) && s.HasColumn(LabelBreakEnd) {
					pairs = append(pairs,
						labelPair{start: LabelMarketOpen, end: LabelBreakStart},
						labelPair{start: LabelBreakEnd, end: LabelMarketClose})
				} else {
					pairs = append(pairs, labelPair{start: LabelMarketOpen, end: LabelMarketClose})
				}
			case SessionPre:
				if require(session, LabelPre, LabelMarketOpen) {
					pairs = append(pairs, labelPair{start: LabelPre, end: LabelMarketOpen})
				}
			case SessionPost:
				if require(session, LabelMarketClose, LabelPost) {
					pairs = append(pairs, labelPair{start: LabelMarketClose, end: LabelPost})
				}
			case SessionBreak:
				if require(session, LabelBreakStart, LabelBreakEnd) {
					pairs = append(pairs, labelPair{start: LabelBreakStart, end: LabelBreakEnd})
				}
			case SessionClosed, SessionClosedMasked:
				if require(session, LabelPost, LabelPre) {
					pairs = append(pairs, labelPair{
						start:    LabelPost,
						end:      LabelPre,
						crossRow: true,
						masked:   session == SessionClosedMasked,
					})
				}
			default:
				dropped = append(dropped, session)
				warn(Warning{
					Kind:     WarnMissingSession,
					Message:  fmt.Sprintf("unknown session %q dropped", session),
					Sessions: []string{session},
				})
			}
		}
	}

	if len(missing) > 0 {
		warn(Warning{
			Kind: WarnMissingSession,
			Message: fmt.Sprintf("sessions [%s] dropped: schedule lacks [%s]",
				strings.Join(dropped, " "), strings.Join(missing, " ")),
			Sessions:      dropped,
			MissingLabels: missing,
		})
	}

	rthOnly := len(o.Pairs) == 0 && len(o.Sessions) == 1 && o.Sessions[0] == SessionRTH
	return pairs, rthOnly
}

// mergeAdjacentPairs combines pairs whose end label matches the start label
// of the next pair.
func mergeAdjacentPairs(pairs []labelPair) []labelPair {
	var out []labelPair
	for _, p := range pairs {
		if n := len(out); n > 0 && !out[n-1].crossRow && !p.crossRow && out[n-1].end == p.start {
			out[n-1].end = p.end
			continue
		}
		out = append(out, p)
	}
	return out
}

// interval is one concrete session span on one row.
type interval struct {
	t0, t1 time.Time
	row    int
}

// materialize turns the label pairs into chronological concrete intervals,
// one per row (per pair), skipping rows where an endpoint is null. Cross-row
// pairs span to the next row; masked cross-row spans that abut are merged.
func materialize(s *Schedule, pairs []labelPair) []interval {
	var out []interval
	for _, p := range pairs {
		startCol := s.cols[p.start]
		endCol := s.cols[p.end]
		if p.crossRow {
			var spans []interval
			for i := 0; i+1 < len(s.dates); i++ {
				t0, t1 := startCol[i], endCol[i+1]
				if t0.IsZero() || t1.IsZero() {
					continue
				}
				spans = append(spans, interval{t0: t0, t1: t1, row: -1})
			}
			if p.masked {
				var merged []interval
				for _, sp := range spans {
					if n := len(merged); n > 0 && !merged[n-1].t1.Before(sp.t0) {
						merged[n-1].t1 = sp.t1
						continue
					}
					merged = append(merged, sp)
				}
				spans = merged
			}
			out = append(out, spans...)
			continue
		}
		for i := range s.dates {
			t0, t1 := startCol[i], endCol[i]
			if t0.IsZero() || t1.IsZero() {
				continue
			}
			out = append(out, interval{t0: t0, t1: t1, row: i})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].t0.Before(out[j].t0) })
	return out
}

// generateIntraday emits the stepped timestamps for every interval under
// the closed and force-close policies, masking interruptions.
func generateIntraday(s *Schedule, freq time.Duration, pairs []labelPair, o *DateRangeOptions, warn func(Warning)) []time.Time {
	intervals := materialize(s, pairs)
	pauses := rowPauses(s)

	var out []time.Time
	for _, iv := range intervals {
		if !iv.t0.Before(iv.t1) {
			warn(Warning{
				Kind: WarnOverlappingSession,
				Message: fmt.Sprintf("inverted session %s >= %s skipped",
					iv.t0.Format(time.RFC3339), iv.t1.Format(time.RFC3339)),
			})
			continue
		}

		span := iv.t1.Sub(iv.t0)
		n := int((span + freq - 1) / freq) // ceil

		lo, hi := 0, n
		switch o.Closed {
		case ClosedLeft:
			hi = n - 1
		case ClosedRight:
			lo = 1
		case ClosedNeither:
			lo, hi = 1, n-1
		}

		var ts []time.Time
		for i := lo; i <= hi; i++ {
			ts = append(ts, iv.t0.Add(time.Duration(i)*freq))
		}

		switch o.ForceClose {
		case ForceCloseClamp:
			if n := len(ts); n > 0 {
				if ts[n-1].After(iv.t1) {
					ts[n-1] = iv.t1
				} else if ts[n-1].Before(iv.t1) {
					ts = append(ts, iv.t1)
				}
			}
		case ForceCloseDrop:
			kept := ts[:0]
			for _, t := range ts {
				if !t.After(iv.t1) {
					kept = append(kept, t)
				}
			}
			if len(ts) > 0 && len(kept) == 0 {
				warn(Warning{
					Kind: WarnDisappearingSession,
					Message: fmt.Sprintf("session starting %s shorter than frequency %s produced no timestamps",
						iv.t0.Format(time.RFC3339), freq),
				})
			}
			ts = kept
		case ForceCloseNone:
			if n := len(ts); n > 0 && ts[n-1].After(iv.t1) {
				warn(Warning{
					Kind: WarnOverlappingSession,
					Message: fmt.Sprintf("timestamps step past session end %s into the next session",
						iv.t1.Format(time.RFC3339)),
				})
			}
		}

		if iv.row >= 0 {
			ts = maskPauses(ts, pauses[iv.row])
		}
		out = append(out, ts...)
	}
	return out
}

// rowPauses collects the interruption spans per row.
func rowPauses(s *Schedule) map[int][]interval {
	cols := s.interruptionColumns()
	if len(cols) == 0 {
		return nil
	}
	out := map[int][]interval{}
	for _, pair := range cols {
		startCol, endCol := s.cols[pair[0]], s.cols[pair[1]]
		for i := range s.dates {
			if startCol[i].IsZero() || endCol[i].IsZero() {
				continue
			}
			out[i] = append(out[i], interval{t0: startCol[i], t1: endCol[i]})
		}
	}
	return out
}

// maskPauses drops timestamps strictly inside any pause span.
func maskPauses(ts []time.Time, pauses []interval) []time.Time {
	if len(pauses) == 0 {
		return ts
	}
	kept := ts[:0]
	for _, t := range ts {
		inside := false
		for _, p := range pauses {
			if t.After(p.t0) && t.Before(p.t1) {
				inside = true
				break
			}
		}
		if !inside {
			kept = append(kept, t)
		}
	}
	return kept
}

// dailyAnchors handles the freq == 1 day, rth-only special case: one anchor
// per row, the open or the effective close depending on the closed mode.
// Daily bars closed on the right with force-close disabled have nothing to
// emit; that surprising-but-preserved contract warns and returns empty.
func dailyAnchors(s *Schedule, o *DateRangeOptions, warn func(Warning)) []time.Time {
	label := LabelMarketOpen
	if o.Closed == ClosedRight {
		if o.ForceClose == ForceCloseDrop {
			warn(Warning{
				Kind:    WarnDisappearingSession,
				Message: "daily frequency closed on the right with force-close disabled emits nothing",
			})
			return nil
		}
		label = LabelMarketClose
	}
	col := s.cols[label]
	var out []time.Time
	for _, t := range col {
		if !t.IsZero() {
			out = append(out, t)
		}
	}
	return out
}

// trimRange applies the Start/End bounds and the Periods truncation, and
// raises the insufficient-schedule handshake when a bound reaches beyond
// the schedule's coverage.
func trimRange(s *Schedule, ts []time.Time, o *DateRangeOptions, warn func(Warning)) []time.Time {
	if o.Start != nil && s.Len() > 0 {
		if d := dateOf(*o.Start); d.Before(s.dates[0]) {
			warn(Warning{
				Kind: WarnInsufficientSchedule,
				Message: fmt.Sprintf("requested start %s precedes schedule coverage starting %s",
					d.Format("2006-01-02"), s.dates[0].Format("2006-01-02")),
				NeedEarlier: true,
				Start:       d,
				End:         s.dates[0].AddDate(0, 0, -1),
			})
		}
	}
	if o.End != nil && s.Len() > 0 {
		if d := dateOf(*o.End); d.After(s.dates[len(s.dates)-1]) {
			warn(Warning{
				Kind: WarnInsufficientSchedule,
				Message: fmt.Sprintf("requested end %s exceeds schedule coverage ending %s",
					d.Format("2006-01-02"), s.dates[len(s.dates)-1].Format("2006-01-02")),
				NeedEarlier: false,
				Start:       s.dates[len(s.dates)-1].AddDate(0, 0, 1),
				End:         d,
			})
		}
	}

	if o.Start != nil {
		i := sort.Search(len(ts), func(k int) bool { return !ts[k].Before(*o.Start) })
		ts = ts[i:]
	}
	if o.End != nil {
		i := sort.Search(len(ts), func(k int) bool { return ts[k].After(*o.End) })
		ts = ts[:i]
	}
	if o.Periods > 0 && (o.Start == nil || o.End == nil) {
		if o.End != nil && o.Start == nil {
			if len(ts) > o.Periods {
				ts = ts[len(ts)-o.Periods:]
			}
		} else if len(ts) > o.Periods {
			ts = ts[:o.Periods]
		}
	}
	return ts
}

// dedupeTimes removes consecutive duplicates from a sorted slice.
func dedupeTimes(ts []time.Time) []time.Time {
	if len(ts) < 2 {
		return ts
	}
	out := ts[:1]
	for _, t := range ts[1:] {
		if !t.Equal(out[len(out)-1]) {
			out = append(out, t)
		}
	}
	return out
}

// ConvertFreq thins a timestamp index down to the frequency grid anchored
// at each day's first timestamp. Reapplying the same frequency is a no-op,
// and a daily index survives any frequency unchanged.
func ConvertFreq(index []time.Time, freq time.Duration) ([]time.Time, error) {
	if freq <= 0 {
		return nil, fmt.Errorf("%w: frequency must be positive, got %s", ErrInvalidArgument, freq)
	}
	var out []time.Time
	var anchor time.Time
	var anchorDay time.Time
	for _, t := range index {
		day := dateOf(t)
		if anchorDay.IsZero() || !day.Equal(anchorDay) {
			anchor, anchorDay = t, day
		}
		if t.Sub(anchor)%freq == 0 {
			out = append(out, t)
		}
	}
	return out, nil
}
