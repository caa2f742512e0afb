package mktcal

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Schedule table
// ---------------------------------------------------------------------------

// Schedule is a column-oriented table of session instants. The index is the
// ordered list of naive trading dates; each column holds one labelled market
// time per date, localised to the schedule's output timezone. A zero
// time.Time is a null cell (the market time does not apply on that date).
//
// Interruption columns, when requested, follow the market-time columns as
// interruption_start_N / interruption_end_N pairs.
type Schedule struct {
	labels []string
	dates  []time.Time
	cols   map[string][]time.Time
	rowIdx map[time.Time]int
	loc    *time.Location
}

func newSchedule(labels []string, dates []time.Time, loc *time.Location) *Schedule {
	s := &Schedule{
		labels: labels,
		dates:  dates,
		cols:   make(map[string][]time.Time, len(labels)),
		rowIdx: make(map[time.Time]int, len(dates)),
		loc:    loc,
	}
	for _, l := range labels {
		s.cols[l] = make([]time.Time, len(dates))
	}
	for i, d := range dates {
		s.rowIdx[d] = i
	}
	return s
}

// Len returns the number of trading dates in the schedule.
func (s *Schedule) Len() int { return len(s.dates) }

// Dates returns the schedule's naive date index.
func (s *Schedule) Dates() []time.Time { return append([]time.Time(nil), s.dates...) }

// Columns returns the column labels in session order.
func (s *Schedule) Columns() []string { return append([]string(nil), s.labels...) }

// HasColumn reports whether the schedule carries the column.
func (s *Schedule) HasColumn(label string) bool {
	_, ok := s.cols[label]
	return ok
}

// Column returns the column's values aligned with Dates. The second return
// is false for an unknown label.
func (s *Schedule) Column(label string) ([]time.Time, bool) {
	col, ok := s.cols[label]
	if !ok {
		return nil, false
	}
	return append([]time.Time(nil), col...), true
}

// At returns the cell for (date, label). ok is false when the date or label
// is absent or the cell is null.
func (s *Schedule) At(date time.Time, label string) (time.Time, bool) {
	i, ok := s.rowIdx[dateOf(date)]
	if !ok {
		return time.Time{}, false
	}
	col, ok := s.cols[label]
	if !ok || col[i].IsZero() {
		return time.Time{}, false
	}
	return col[i], true
}

// Location returns the schedule's output timezone.
func (s *Schedule) Location() *time.Location { return s.loc }

// interruptionColumns returns the interruption column pairs in order.
func (s *Schedule) interruptionColumns() [][2]string {
	var out [][2]string
	for n := 1; ; n++ {
		start := fmt.Sprintf("interruption_start_%d", n)
		end := fmt.Sprintf("interruption_end_%d", n)
		if !s.HasColumn(start) || !s.HasColumn(end) {
			return out
		}
		out = append(out, [2]string{start, end})
	}
}

// marketColumns returns the column labels that are market times, excluding
// interruption pairs.
func (s *Schedule) marketColumns() []string {
	var out []string
	for _, l := range s.labels {
		if !strings.HasPrefix(l, "interruption_") {
			out = append(out, l)
		}
	}
	return out
}

// subset returns a schedule with the same columns restricted to the rows
// whose indexes are listed, in order.
func (s *Schedule) subset(rows []int) *Schedule {
	dates := make([]time.Time, len(rows))
	for i, r := range rows {
		dates[i] = s.dates[r]
	}
	out := newSchedule(append([]string(nil), s.labels...), dates, s.loc)
	for _, l := range s.labels {
		src := s.cols[l]
		dst := out.cols[l]
		for i, r := range rows {
			dst[i] = src[r]
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Building
// ---------------------------------------------------------------------------

// ForcePolicy controls how special open/close times affect the other
// columns of the affected date.
type ForcePolicy int

const (
	// Propagate (the default) clamps every interior label to an overridden
	// open or close, keeping rows ordered on special days.
	Propagate ForcePolicy = iota
	// SelfOnly changes only the overridden column.
	SelfOnly
	// IgnoreSpecial skips special-time rules entirely.
	IgnoreSpecial
)

// ScheduleOptions customise Schedule and ScheduleFromDays. The zero value
// (or a nil pointer) requests market_open..market_close columns in UTC with
// Propagate semantics and no interruption columns.
type ScheduleOptions struct {
	// TZ is the output timezone. Nil means UTC.
	TZ *time.Location
	// StartLabel/EndLabel bound the requested columns within session order.
	// Defaults are market_open and market_close; use pre/post to include
	// extended hours.
	StartLabel string
	EndLabel   string
	// MarketTimes, when non-empty, is the explicit column list and
	// overrides StartLabel/EndLabel.
	MarketTimes []string
	// ForceSpecialTimes selects the special-time policy.
	ForceSpecialTimes ForcePolicy
	// Interruptions appends interruption_start_N/interruption_end_N pairs.
	Interruptions bool
}

func (o *ScheduleOptions) withDefaults() ScheduleOptions {
	out := ScheduleOptions{StartLabel: LabelMarketOpen, EndLabel: LabelMarketClose, TZ: time.UTC}
	if o == nil {
		return out
	}
	out.ForceSpecialTimes = o.ForceSpecialTimes
	out.Interruptions = o.Interruptions
	out.MarketTimes = o.MarketTimes
	if o.TZ != nil {
		out.TZ = o.TZ
	}
	if o.StartLabel != "" {
		out.StartLabel = o.StartLabel
	}
	if o.EndLabel != "" {
		out.EndLabel = o.EndLabel
	}
	return out
}

// Schedule builds the session table for every valid trading date in
// [start, end]. See ScheduleFromDays for the column semantics.
func (c *Calendar) Schedule(start, end time.Time, opts *ScheduleOptions) (*Schedule, error) {
	days, err := c.ValidDays(start, end)
	if err != nil {
		return nil, err
	}
	return c.ScheduleFromDays(days, opts)
}

// ScheduleFromDays builds the session table for an externally supplied day
// index. Each requested label's baseline comes from the effective-dated
// regular times, special-time rules overwrite affected dates, and under the
// Propagate policy an overridden open or close clamps the interior labels
// of its date. All instants are localised to the output timezone.
func (c *Calendar) ScheduleFromDays(days []time.Time, opts *ScheduleOptions) (*Schedule, error) {
	o := opts.withDefaults()

	labels, err := c.resolveScheduleLabels(o)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, len(days))
	for i, d := range days {
		dates[i] = dateOf(d)
	}

	s := newSchedule(labels, dates, o.TZ)

	// Baselines from the regular, effective-dated times.
	for _, label := range labels {
		def := c.marketTimeDef(label)
		col := s.cols[label]
		for i, d := range dates {
			if spec := specFor(def.Specs, d); spec != nil {
				col[i] = combine(d, *spec.Time, spec.DayOffset, c.loc)
			}
		}
	}

	// Special-time overrides.
	openOverride := map[int]time.Time{}
	closeOverride := map[int]time.Time{}
	if o.ForceSpecialTimes != IgnoreSpecial && len(dates) > 0 {
		first, last := dates[0], dates[len(dates)-1]
		for _, label := range labels {
			col := s.cols[label]
			for _, st := range c.specialTimesFor(label) {
				hc := HolidayCalendar{Rules: st.Rules, AdHoc: st.Dates}
				for _, d := range hc.Holidays(first, last) {
					i, ok := s.rowIdx[d]
					if !ok {
						continue
					}
					t := combine(d, st.Time, st.DayOffset, c.loc)
					col[i] = t
					switch label {
					case LabelMarketOpen:
						openOverride[i] = t
					case LabelMarketClose:
						closeOverride[i] = t
					}
				}
			}
		}
	}

	// An overridden session boundary clamps the interior labels of its
	// date, keeping the row ordered.
	if o.ForceSpecialTimes == Propagate {
		for _, label := range labels {
			col := s.cols[label]
			if label != LabelMarketOpen {
				for i, t := range openOverride {
					if !col[i].IsZero() && col[i].Before(t) {
						col[i] = t
					}
				}
			}
			if label != LabelMarketClose {
				for i, t := range closeOverride {
					if !col[i].IsZero() && col[i].After(t) {
						col[i] = t
					}
				}
			}
		}
	}

	if o.Interruptions {
		c.appendInterruptionColumns(s)
	}

	// Localise to the output timezone.
	for _, col := range s.cols {
		for i := range col {
			if !col[i].IsZero() {
				col[i] = col[i].In(o.TZ)
			}
		}
	}
	return s, nil
}

// resolveScheduleLabels turns the options into the ordered requested column
// list, validating that the calendar defines each label and that the
// regular open and close exist.
func (c *Calendar) resolveScheduleLabels(o ScheduleOptions) ([]string, error) {
	for _, required := range []string{LabelMarketOpen, LabelMarketClose} {
		def := c.marketTimeDef(required)
		if def == nil || firstSpecWithTime(def.Specs) == nil {
			return nil, fmt.Errorf("%w: calendar %s defines no regular %s", ErrNotImplemented, c.desc.Name, required)
		}
	}

	if len(o.MarketTimes) > 0 {
		labels := append([]string(nil), o.MarketTimes...)
		for _, l := range labels {
			if c.marketTimeDef(l) == nil {
				return nil, fmt.Errorf("%w: %q", ErrLabelNotFound, l)
			}
		}
		c.sortLabelsBySessionOrder(labels)
		return labels, nil
	}

	all := c.MarketTimeLabels()
	start, end := -1, -1
	for i, l := range all {
		if l == o.StartLabel {
			start = i
		}
		if l == o.EndLabel {
			end = i
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: %q", ErrLabelNotFound, o.StartLabel)
	}
	if end < 0 {
		return nil, fmt.Errorf("%w: %q", ErrLabelNotFound, o.EndLabel)
	}
	if end < start {
		return nil, fmt.Errorf("%w: start label %q after end label %q", ErrInvalidArgument, o.StartLabel, o.EndLabel)
	}
	return append([]string(nil), all[start:end+1]...), nil
}

func firstSpecWithTime(specs []MarketTimeSpec) *MarketTimeSpec {
	for i := range specs {
		if specs[i].Time != nil {
			return &specs[i]
		}
	}
	return nil
}

// appendInterruptionColumns adds one start/end column pair per interruption
// slot present on any date of the schedule. Pairs that would be entirely
// null are never created.
func (c *Calendar) appendInterruptionColumns(s *Schedule) {
	slots := 0
	for _, in := range c.desc.Interruptions {
		if _, ok := s.rowIdx[dateOf(in.Date)]; ok && len(in.Pauses) > slots {
			slots = len(in.Pauses)
		}
	}
	for n := 1; n <= slots; n++ {
		startCol := fmt.Sprintf("interruption_start_%d", n)
		endCol := fmt.Sprintf("interruption_end_%d", n)
		s.labels = append(s.labels, startCol, endCol)
		s.cols[startCol] = make([]time.Time, len(s.dates))
		s.cols[endCol] = make([]time.Time, len(s.dates))
	}
	for _, in := range c.desc.Interruptions {
		i, ok := s.rowIdx[dateOf(in.Date)]
		if !ok {
			continue
		}
		for n, p := range in.Pauses {
			d := dateOf(in.Date)
			s.cols[fmt.Sprintf("interruption_start_%d", n+1)][i] = combine(d, p.Start, p.StartOffset, c.loc)
			s.cols[fmt.Sprintf("interruption_end_%d", n+1)][i] = combine(d, p.End, p.EndOffset, c.loc)
		}
	}
}

// ---------------------------------------------------------------------------
// Derived queries
// ---------------------------------------------------------------------------

// EarlyCloses returns the subset of the schedule whose market_close differs
// from the regular close for that date.
func (c *Calendar) EarlyCloses(s *Schedule) *Schedule {
	return c.specialRows(s, LabelMarketClose)
}

// LateOpens returns the subset of the schedule whose market_open differs
// from the regular open for that date.
func (c *Calendar) LateOpens(s *Schedule) *Schedule {
	return c.specialRows(s, LabelMarketOpen)
}

func (c *Calendar) specialRows(s *Schedule, label string) *Schedule {
	def := c.marketTimeDef(label)
	col := s.cols[label]
	var rows []int
	for i, d := range s.dates {
		if col == nil || col[i].IsZero() {
			continue
		}
		spec := specFor(def.Specs, d)
		if spec == nil {
			rows = append(rows, i)
			continue
		}
		if !combine(d, *spec.Time, spec.DayOffset, c.loc).Equal(col[i]) {
			rows = append(rows, i)
		}
	}
	return s.subset(rows)
}

// OpenOptions tune OpenAtTime and IsOpenNow.
type OpenOptions struct {
	// IncludeClose treats an instant exactly on a closing boundary as open.
	IncludeClose bool
	// OnlyRTH restricts the query to regular trading hours, ignoring
	// pre/post and other extended sessions.
	OnlyRTH bool
}

// OpenAtTime reports whether the market is open at the given instant
// according to the schedule. A label classified Opens turns the market on
// at its instant, a label classified Closes turns it off; interruption
// columns pause and resume it. The instant must fall within the schedule's
// coverage.
func (c *Calendar) OpenAtTime(s *Schedule, at time.Time, opts *OpenOptions) (bool, error) {
	var o OpenOptions
	if opts != nil {
		o = *opts
	}
	if s.Len() == 0 {
		return false, fmt.Errorf("%w: empty schedule", ErrInvalidRange)
	}

	type boundary struct {
		t    time.Time
		open bool
	}
	var bounds []boundary
	for _, label := range s.marketColumns() {
		kind := c.openCloseKind(label)
		if kind == Neither {
			continue
		}
		if o.OnlyRTH {
			switch label {
			case LabelMarketOpen, LabelBreakStart, LabelBreakEnd, LabelMarketClose:
			default:
				continue
			}
		}
		for _, t := range s.cols[label] {
			if !t.IsZero() {
				bounds = append(bounds, boundary{t: t, open: kind == Opens})
			}
		}
	}
	for _, pair := range s.interruptionColumns() {
		for _, t := range s.cols[pair[0]] {
			if !t.IsZero() {
				bounds = append(bounds, boundary{t: t, open: false})
			}
		}
		for _, t := range s.cols[pair[1]] {
			if !t.IsZero() {
				bounds = append(bounds, boundary{t: t, open: true})
			}
		}
	}
	if len(bounds) == 0 {
		return false, nil
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i].t.Before(bounds[j].t) })

	// State after the latest boundary at or before the instant.
	last := -1
	for i, b := range bounds {
		if b.t.After(at) {
			break
		}
		last = i
	}
	if last < 0 {
		return false, nil
	}
	if bounds[last].open {
		return true, nil
	}
	// Exactly on a closing boundary: open only when the caller includes the
	// close and the market was open coming into it.
	if o.IncludeClose && bounds[last].t.Equal(at) && last > 0 && bounds[last-1].open {
		return true, nil
	}
	return false, nil
}

// IsOpenNow reports whether the market is open at the current instant.
func (c *Calendar) IsOpenNow(s *Schedule, opts *OpenOptions) (bool, error) {
	return c.OpenAtTime(s, time.Now().UTC(), opts)
}

// ---------------------------------------------------------------------------
// Merging and session marking
// ---------------------------------------------------------------------------

// MergeHow selects MergeSchedules semantics.
type MergeHow int

const (
	// MergeInner keeps dates present in every schedule, with the latest
	// open and earliest close.
	MergeInner MergeHow = iota
	// MergeOuter keeps dates present in any schedule, with the earliest
	// open and latest close.
	MergeOuter
)

// MergeSchedules combines schedules over the session-boundary columns they
// share. Interruption columns and labels classified Neither are dropped.
// Merging a schedule with itself returns an equal schedule.
func MergeSchedules(schedules []*Schedule, how MergeHow) (*Schedule, error) {
	if len(schedules) == 0 {
		return nil, fmt.Errorf("%w: no schedules to merge", ErrInvalidArgument)
	}
	if how != MergeInner && how != MergeOuter {
		return nil, fmt.Errorf("%w: unknown merge mode %d", ErrInvalidArgument, int(how))
	}

	// Columns: boundary labels shared by every schedule, in the first
	// schedule's order.
	var labels []string
	for _, l := range schedules[0].marketColumns() {
		if defaultOpenCloseMap[l] == Neither {
			continue
		}
		shared := true
		for _, s := range schedules[1:] {
			if !s.HasColumn(l) {
				shared = false
				break
			}
		}
		if shared {
			labels = append(labels, l)
		}
	}

	// Date index.
	counts := map[time.Time]int{}
	for _, s := range schedules {
		for _, d := range s.dates {
			counts[d]++
		}
	}
	var dates []time.Time
	for d, n := range counts {
		if how == MergeOuter || n == len(schedules) {
			dates = append(dates, d)
		}
	}
	sortedUniqueDates(dates)

	out := newSchedule(labels, dates, schedules[0].loc)
	for _, l := range labels {
		opens := defaultOpenCloseMap[l] == Opens
		dst := out.cols[l]
		for i, d := range dates {
			var merged time.Time
			for _, s := range schedules {
				t, ok := s.At(d, l)
				if !ok {
					continue
				}
				if merged.IsZero() {
					merged = t
					continue
				}
				later := t.After(merged)
				// Inner: opens take the later, closes the earlier. Outer is
				// the reverse.
				if (how == MergeInner) == (opens == later) {
					merged = t
				}
			}
			dst[i] = merged
		}
	}
	return out, nil
}

// MarkSessionOptions tune MarkSession.
type MarkSessionOptions struct {
	// ClosedRight assigns a timestamp lying exactly on a boundary to the
	// segment the boundary ends (the default). When false, it belongs to
	// the segment the boundary begins.
	ClosedLeft bool
	// LabelMap renames the emitted labels.
	LabelMap map[string]string
}

// MarkSession labels every timestamp of the index with the market-time
// segment it falls in: each timestamp is named after the schedule boundary
// that ends its segment. Timestamps outside the schedule's coverage are
// labelled "closed".
func MarkSession(s *Schedule, index []time.Time, opts *MarkSessionOptions) []string {
	var o MarkSessionOptions
	if opts != nil {
		o = *opts
	}

	type boundary struct {
		t     time.Time
		label string
	}
	var bounds []boundary
	for _, l := range s.marketColumns() {
		for _, t := range s.cols[l] {
			if !t.IsZero() {
				bounds = append(bounds, boundary{t: t, label: l})
			}
		}
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i].t.Before(bounds[j].t) })

	name := func(label string) string {
		if o.LabelMap != nil {
			if mapped, ok := o.LabelMap[label]; ok {
				return mapped
			}
		}
		return label
	}

	out := make([]string, len(index))
	for i, ts := range index {
		// The segment's ending boundary: first boundary after ts, or the
		// boundary ts sits on when closed on the right.
		j := sort.Search(len(bounds), func(k int) bool {
			if o.ClosedLeft {
				return bounds[k].t.After(ts)
			}
			return !bounds[k].t.Before(ts)
		})
		if j >= len(bounds) || (j == 0 && bounds[0].t.After(ts)) {
			out[i] = "closed"
			continue
		}
		out[i] = name(bounds[j].label)
	}
	return out
}
