// Package httpapi provides an HTTP REST API over the calendar registry,
// serving holiday lists, valid-day indexes, session schedules, and open/
// closed queries in JSON format.
package httpapi

// CalendarsResponse lists the registered calendar names.
type CalendarsResponse struct {
	Calendars []string `json:"calendars"`
}

// CalendarInfoJSON describes one registered calendar.
type CalendarInfoJSON struct {
	Name        string   `json:"name"`
	FullName    string   `json:"fullName,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	TZ          string   `json:"tz"`
	MarketTimes []string `json:"marketTimes"`
}

// DatesResponse holds a list of naive dates formatted as YYYY-MM-DD.
type DatesResponse struct {
	Calendar string   `json:"calendar"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Dates    []string `json:"dates"`
}

// ScheduleRowJSON is one session row. Times are RFC 3339 in the requested
// output timezone; missing market times are omitted.
type ScheduleRowJSON struct {
	Date  string            `json:"date"`
	Times map[string]string `json:"times"`
}

// ScheduleResponse holds the session table for a date window.
type ScheduleResponse struct {
	Calendar string            `json:"calendar"`
	TZ       string            `json:"tz"`
	Columns  []string          `json:"columns"`
	Rows     []ScheduleRowJSON `json:"rows"`
}

// OpenResponse answers an open/closed point query.
type OpenResponse struct {
	Calendar string `json:"calendar"`
	At       string `json:"at"`
	Open     bool   `json:"open"`
}
