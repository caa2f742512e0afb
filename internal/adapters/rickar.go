package adapters

import (
	"fmt"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"

	"mktcal/pkg/mktcal"
)

// RickarSource derives calendar descriptors from a rickar/cal business
// calendar. It is a fully offline alternative to the Alpaca source for US
// holiday data.
type RickarSource struct {
	calendar *cal.BusinessCalendar
	tz       string
	open     mktcal.TimeOfDay
	close    mktcal.TimeOfDay
}

// NewUSEquitySource builds a source using the US federal holiday set
// observed by equity markets.
func NewUSEquitySource() *RickarSource {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(
		us.NewYear,
		us.MlkDay,
		us.PresidentsDay,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	)
	c.Cacheable = true
	return &RickarSource{
		calendar: c,
		tz:       "America/New_York",
		open:     mktcal.TD(9, 30),
		close:    mktcal.TD(16, 0),
	}
}

// Holidays returns the weekday holidays in [start, end].
func (s *RickarSource) Holidays(start, end time.Time) []time.Time {
	var out []time.Time
	for d := mktcal.Day(start.Year(), start.Month(), start.Day()); !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if !s.calendar.IsWorkday(d) {
			out = append(out, d)
		}
	}
	return out
}

// Descriptor builds a descriptor named name whose ad-hoc holidays cover
// [start, end]. Dates outside the window are unconstrained, so callers
// should size the window to the schedules they will build.
func (s *RickarSource) Descriptor(name string, start, end time.Time) (*mktcal.Descriptor, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("descriptor window %s after %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	open, close := s.open, s.close
	return &mktcal.Descriptor{
		Name:     name,
		FullName: "US equities (federal holiday calendar)",
		TZ:       s.tz,
		Weekmask: mktcal.SingleWeekmask(mktcal.Weekdays(
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)),
		MarketTimes: []mktcal.MarketTimeDef{
			{Label: "market_open", Specs: []mktcal.MarketTimeSpec{{Time: &open}}},
			{Label: "market_close", Specs: []mktcal.MarketTimeSpec{{Time: &close}}},
		},
		AdHocHolidays: s.Holidays(start, end),
	}, nil
}
