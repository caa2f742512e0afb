// Package adapters builds calendar descriptors from external sources: the
// Alpaca trading-calendar API and rickar/cal business calendars.
package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"

	"mktcal/internal/util"
	"mktcal/pkg/mktcal"
)

// AlpacaSource derives a US equity calendar descriptor from the Alpaca
// trading calendar API.
type AlpacaSource struct {
	client  *alpaca.Client
	limiter *util.RateLimiter
}

// NewAlpacaSource creates a source using the given credentials. baseURL may
// be empty for the production endpoint.
func NewAlpacaSource(apiKey, apiSecret, baseURL string) *AlpacaSource {
	return &AlpacaSource{
		client: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		limiter: util.NewRateLimiter(200),
	}
}

// FetchDescriptor queries the trading calendar for [start, end] and converts
// the response into a descriptor named name.
func (s *AlpacaSource) FetchDescriptor(ctx context.Context, name string, start, end time.Time) (*mktcal.Descriptor, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var days []alpaca.CalendarDay
	err := util.Retry(ctx, 3, time.Second, func() error {
		var err error
		days, err = s.client.GetCalendar(alpaca.GetCalendarRequest{Start: start, End: end})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetCalendar: %w", err)
	}
	return descriptorFromDays(name, start, end, days)
}

const (
	alpacaTZ    = "America/New_York"
	alpacaOpen  = "09:30"
	alpacaClose = "16:00"
)

// descriptorFromDays builds a descriptor from the API's session list. The
// weekmask is Monday through Friday; weekdays in the window missing from the
// response become ad-hoc holidays, and sessions with irregular hours become
// special opens or closes.
func descriptorFromDays(name string, start, end time.Time, days []alpaca.CalendarDay) (*mktcal.Descriptor, error) {
	sessions := make(map[string]alpaca.CalendarDay, len(days))
	for _, day := range days {
		sessions[day.Date] = day
	}

	var holidays []time.Time
	var specialOpens, specialCloses []time.Time
	var openTimes, closeTimes []mktcal.TimeOfDay

	for d := mktcal.Day(start.Year(), start.Month(), start.Day()); !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		day, ok := sessions[d.Format("2006-01-02")]
		if !ok {
			holidays = append(holidays, d)
			continue
		}
		if day.Open != "" && day.Open != alpacaOpen {
			tod, err := parseClockTime(day.Open)
			if err != nil {
				return nil, fmt.Errorf("session %s: %w", day.Date, err)
			}
			specialOpens = append(specialOpens, d)
			openTimes = append(openTimes, tod)
		}
		if day.Close != "" && day.Close != alpacaClose {
			tod, err := parseClockTime(day.Close)
			if err != nil {
				return nil, fmt.Errorf("session %s: %w", day.Date, err)
			}
			specialCloses = append(specialCloses, d)
			closeTimes = append(closeTimes, tod)
		}
	}

	open := mktcal.TD(9, 30)
	close := mktcal.TD(16, 0)
	desc := &mktcal.Descriptor{
		Name:     name,
		FullName: "US equities (Alpaca trading calendar)",
		TZ:       alpacaTZ,
		Weekmask: mktcal.SingleWeekmask(mktcal.Weekdays(
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)),
		MarketTimes: []mktcal.MarketTimeDef{
			{Label: "market_open", Specs: []mktcal.MarketTimeSpec{{Time: &open}}},
			{Label: "market_close", Specs: []mktcal.MarketTimeSpec{{Time: &close}}},
		},
		AdHocHolidays: holidays,
		SpecialOpens:  groupSpecialTimes(specialOpens, openTimes),
		SpecialCloses: groupSpecialTimes(specialCloses, closeTimes),
	}
	return desc, nil
}

// groupSpecialTimes collapses per-date irregular hours into one SpecialTime
// per distinct time of day.
func groupSpecialTimes(dates []time.Time, times []mktcal.TimeOfDay) []mktcal.SpecialTime {
	byTime := make(map[mktcal.TimeOfDay][]time.Time)
	var order []mktcal.TimeOfDay
	for i, d := range dates {
		if _, ok := byTime[times[i]]; !ok {
			order = append(order, times[i])
		}
		byTime[times[i]] = append(byTime[times[i]], d)
	}
	var out []mktcal.SpecialTime
	for _, tod := range order {
		out = append(out, mktcal.SpecialTime{Time: tod, Dates: byTime[tod]})
	}
	return out
}

// parseClockTime parses "HH:MM" wall-clock strings from the API.
func parseClockTime(s string) (mktcal.TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return mktcal.TimeOfDay{}, fmt.Errorf("parsing clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return mktcal.TimeOfDay{}, fmt.Errorf("clock time %q out of range", s)
	}
	return mktcal.TD(h, m), nil
}
