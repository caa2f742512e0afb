// Package mktcal answers, for a financial exchange and a date range, which
// calendar days the exchange trades on and at which instants its sessions
// open, close, pause, and resume. From those answers it derives regularly
// spaced timestamp indexes over any contiguous subset of sessions.
//
// The engine is calendar-agnostic: all per-exchange knowledge lives in a
// Descriptor (holiday rules, ad-hoc dates, session times, special opens and
// closes, interruptions, weekmask), and exchange descriptors are curated
// data registered by the exchanges subpackage or supplied by the caller.
package mktcal

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Fatal error classes. Warnings (see Warning) are the non-fatal channel.
var (
	// ErrInvalidRange reports start > end or an otherwise unusable window.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrInvalidArgument reports a bad parameter value.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrLabelNotFound reports a market-time label the calendar lacks.
	ErrLabelNotFound = errors.New("market time not found")
	// ErrNotImplemented reports a calendar without the regular open/close
	// times a schedule-producing path requires.
	ErrNotImplemented = errors.New("market time not configured")
)

// ---------------------------------------------------------------------------
// Descriptor
// ---------------------------------------------------------------------------

// SpecialTime replaces a market time on the dates its rule set matches.
// Rules and Dates are unioned; either may be empty.
type SpecialTime struct {
	Time      TimeOfDay
	DayOffset int
	Rules     []HolidayRule
	Dates     []time.Time
}

// InterruptionPause is one pause window inside a session. Offsets carry the
// same day-offset semantics as market times.
type InterruptionPause struct {
	Start       TimeOfDay
	StartOffset int
	End         TimeOfDay
	EndOffset   int
}

// Interruption records one or more pauses within the session anchored on
// Date.
type Interruption struct {
	Date   time.Time
	Pauses []InterruptionPause
}

// Descriptor is the full, immutable definition of an exchange calendar. The
// engine consumes descriptors; it never subclasses or dispatches per
// exchange.
type Descriptor struct {
	Name     string
	FullName string
	Aliases  []string
	TZ       string

	Weekmask    Weekmask
	MarketTimes []MarketTimeDef
	// OpenCloseMap classifies labels for OpenAtTime. Canonical labels fall
	// back to the package default when absent.
	OpenCloseMap map[string]OpenCloseKind

	RegularHolidays []HolidayRule
	AdHocHolidays   []time.Time
	SpecialOpens    []SpecialTime
	SpecialCloses   []SpecialTime
	// SpecialTimes carries special-time rules for labels other than
	// market_open and market_close, keyed by label.
	SpecialTimes map[string][]SpecialTime

	Interruptions []Interruption
}

// validate checks construction-time invariants.
func (d *Descriptor) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: descriptor has no name", ErrInvalidArgument)
	}
	if len(d.Weekmask) == 0 {
		return fmt.Errorf("%w: calendar %s has no weekmask", ErrInvalidArgument, d.Name)
	}
	for _, mt := range d.MarketTimes {
		if err := validateSpecs(mt.Label, mt.Specs); err != nil {
			return err
		}
	}
	return nil
}

// clone deep-copies the descriptor so calendars never share mutable state.
func (d *Descriptor) clone() Descriptor {
	out := *d
	out.Aliases = append([]string(nil), d.Aliases...)
	out.Weekmask = append(Weekmask(nil), d.Weekmask...)
	out.MarketTimes = make([]MarketTimeDef, len(d.MarketTimes))
	for i, mt := range d.MarketTimes {
		out.MarketTimes[i] = MarketTimeDef{Label: mt.Label, Specs: append([]MarketTimeSpec(nil), mt.Specs...)}
	}
	if d.OpenCloseMap != nil {
		out.OpenCloseMap = make(map[string]OpenCloseKind, len(d.OpenCloseMap))
		for k, v := range d.OpenCloseMap {
			out.OpenCloseMap[k] = v
		}
	}
	out.RegularHolidays = append([]HolidayRule(nil), d.RegularHolidays...)
	out.AdHocHolidays = append([]time.Time(nil), d.AdHocHolidays...)
	out.SpecialOpens = cloneSpecialTimes(d.SpecialOpens)
	out.SpecialCloses = cloneSpecialTimes(d.SpecialCloses)
	if d.SpecialTimes != nil {
		out.SpecialTimes = make(map[string][]SpecialTime, len(d.SpecialTimes))
		for k, v := range d.SpecialTimes {
			out.SpecialTimes[k] = cloneSpecialTimes(v)
		}
	}
	out.Interruptions = make([]Interruption, len(d.Interruptions))
	for i, in := range d.Interruptions {
		out.Interruptions[i] = Interruption{Date: in.Date, Pauses: append([]InterruptionPause(nil), in.Pauses...)}
	}
	return out
}

func cloneSpecialTimes(sts []SpecialTime) []SpecialTime {
	out := make([]SpecialTime, len(sts))
	for i, st := range sts {
		out[i] = SpecialTime{
			Time:      st.Time,
			DayOffset: st.DayOffset,
			Rules:     append([]HolidayRule(nil), st.Rules...),
			Dates:     append([]time.Time(nil), st.Dates...),
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Calendar
// ---------------------------------------------------------------------------

// Calendar is a resolved Descriptor: timezone loaded, ad-hoc dates sorted,
// ready for queries. Queries are safe for concurrent use; the mutating
// operations (AddTime, ChangeTime, RemoveTime) are not; clone first when a
// goroutine needs a customised calendar.
type Calendar struct {
	desc Descriptor
	loc  *time.Location
}

// NewCalendar resolves a descriptor into a usable Calendar. The descriptor
// is deep-copied; later changes to it do not affect the calendar.
func NewCalendar(desc *Descriptor) (*Calendar, error) {
	if err := desc.validate(); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(desc.TZ)
	if err != nil {
		return nil, fmt.Errorf("calendar %s: loading timezone %q: %w", desc.Name, desc.TZ, err)
	}
	c := &Calendar{desc: desc.clone(), loc: loc}
	sortedUniqueDates(c.desc.AdHocHolidays)
	return c, nil
}

// Name returns the canonical calendar name.
func (c *Calendar) Name() string { return c.desc.Name }

// FullName returns the descriptive exchange name.
func (c *Calendar) FullName() string { return c.desc.FullName }

// Aliases returns the lookup aliases.
func (c *Calendar) Aliases() []string { return append([]string(nil), c.desc.Aliases...) }

// TZ returns the exchange timezone name.
func (c *Calendar) TZ() string { return c.desc.TZ }

// Location returns the loaded exchange timezone.
func (c *Calendar) Location() *time.Location { return c.loc }

// Weekmask returns the calendar's effective-dated weekmask.
func (c *Calendar) Weekmask() Weekmask { return append(Weekmask(nil), c.desc.Weekmask...) }

// MarketTimeLabels returns the calendar's labels in session order.
func (c *Calendar) MarketTimeLabels() []string {
	out := make([]string, len(c.desc.MarketTimes))
	for i, mt := range c.desc.MarketTimes {
		out[i] = mt.Label
	}
	return out
}

// HasMarketTime reports whether the calendar defines the label.
func (c *Calendar) HasMarketTime(label string) bool {
	return c.marketTimeDef(label) != nil
}

// openCloseKind classifies a label, falling back to the canonical defaults.
func (c *Calendar) openCloseKind(label string) OpenCloseKind {
	if c.desc.OpenCloseMap != nil {
		if k, ok := c.desc.OpenCloseMap[label]; ok {
			return k
		}
	}
	if k, ok := defaultOpenCloseMap[label]; ok {
		return k
	}
	return Neither
}

func (c *Calendar) marketTimeDef(label string) *MarketTimeDef {
	for i := range c.desc.MarketTimes {
		if c.desc.MarketTimes[i].Label == label {
			return &c.desc.MarketTimes[i]
		}
	}
	return nil
}

// holidayCalendar bundles the regular rules and ad-hoc dates.
func (c *Calendar) holidayCalendar() HolidayCalendar {
	return HolidayCalendar{Rules: c.desc.RegularHolidays, AdHoc: c.desc.AdHocHolidays}
}

// Holidays returns the sorted closure dates in [start, end].
func (c *Calendar) Holidays(start, end time.Time) []time.Time {
	return c.holidayCalendar().Holidays(start, end)
}

// ValidDays returns the ordered trading dates in [start, end] as naive
// dates.
func (c *Calendar) ValidDays(start, end time.Time) ([]time.Time, error) {
	start, end = dateOf(start), dateOf(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: start %s after end %s", ErrInvalidRange,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return businessDays(c.desc.Weekmask, c.Holidays(start, end), start, end), nil
}

// Clone returns an independent copy of the calendar. The clone shares no
// mutable state with its parent.
func (c *Calendar) Clone() *Calendar {
	return &Calendar{desc: c.desc.clone(), loc: c.loc}
}

// ---------------------------------------------------------------------------
// Mutation
// ---------------------------------------------------------------------------

// AddTime defines a new market time on the calendar. The label is inserted
// into session order by its first defined time of day. Adding an existing
// label is an error; use ChangeTime.
func (c *Calendar) AddTime(label string, kind OpenCloseKind, specs ...MarketTimeSpec) error {
	if c.marketTimeDef(label) != nil {
		return fmt.Errorf("%w: market time %q already defined", ErrInvalidArgument, label)
	}
	if err := validateSpecs(label, specs); err != nil {
		return err
	}
	def := MarketTimeDef{Label: label, Specs: append([]MarketTimeSpec(nil), specs...)}
	at := len(c.desc.MarketTimes)
	for i, mt := range c.desc.MarketTimes {
		if firstDelta(mt.Specs) > firstDelta(specs) {
			at = i
			break
		}
	}
	c.desc.MarketTimes = append(c.desc.MarketTimes, MarketTimeDef{})
	copy(c.desc.MarketTimes[at+1:], c.desc.MarketTimes[at:])
	c.desc.MarketTimes[at] = def
	if c.desc.OpenCloseMap == nil {
		c.desc.OpenCloseMap = map[string]OpenCloseKind{}
	}
	c.desc.OpenCloseMap[label] = kind
	return nil
}

// ChangeTime replaces the segments of an existing market time.
func (c *Calendar) ChangeTime(label string, specs ...MarketTimeSpec) error {
	def := c.marketTimeDef(label)
	if def == nil {
		return fmt.Errorf("%w: %q", ErrLabelNotFound, label)
	}
	if err := validateSpecs(label, specs); err != nil {
		return err
	}
	def.Specs = append([]MarketTimeSpec(nil), specs...)
	return nil
}

// RemoveTime deletes a market time from the calendar.
func (c *Calendar) RemoveTime(label string) error {
	for i, mt := range c.desc.MarketTimes {
		if mt.Label == label {
			c.desc.MarketTimes = append(c.desc.MarketTimes[:i], c.desc.MarketTimes[i+1:]...)
			delete(c.desc.OpenCloseMap, label)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrLabelNotFound, label)
}

// firstDelta returns the offset-from-midnight of the first segment that
// defines a time, for session ordering of labels.
func firstDelta(specs []MarketTimeSpec) time.Duration {
	for _, s := range specs {
		if s.Time != nil {
			return tdelta(*s.Time, s.DayOffset)
		}
	}
	return 0
}

// specialTimesFor returns the special-time rules targeting a label.
func (c *Calendar) specialTimesFor(label string) []SpecialTime {
	switch label {
	case LabelMarketOpen:
		return c.desc.SpecialOpens
	case LabelMarketClose:
		return c.desc.SpecialCloses
	default:
		if c.desc.SpecialTimes == nil {
			return nil
		}
		return c.desc.SpecialTimes[label]
	}
}

// sortLabelsBySessionOrder orders labels as the descriptor declares them.
func (c *Calendar) sortLabelsBySessionOrder(labels []string) {
	rank := make(map[string]int, len(c.desc.MarketTimes))
	for i, mt := range c.desc.MarketTimes {
		rank[mt.Label] = i
	}
	sort.SliceStable(labels, func(i, j int) bool { return rank[labels[i]] < rank[labels[j]] })
}
