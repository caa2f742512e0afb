package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"mktcal/internal/store"
	"mktcal/pkg/mktcal"
)

// CalendarServer serves the calendar HTTP API. The schedule cache is
// optional; when present, schedule requests read through it.
type CalendarServer struct {
	cache store.ScheduleCache
	log   *slog.Logger
}

// NewCalendarServer creates a server. cache may be nil to disable caching.
func NewCalendarServer(cache store.ScheduleCache, log *slog.Logger) *CalendarServer {
	return &CalendarServer{cache: cache, log: log}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *CalendarServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/calendars", s.handleCalendars)
	mux.HandleFunc("GET /api/calendars/{name}", s.handleCalendarInfo)
	mux.HandleFunc("GET /api/calendars/{name}/holidays", s.handleHolidays)
	mux.HandleFunc("GET /api/calendars/{name}/valid-days", s.handleValidDays)
	mux.HandleFunc("GET /api/calendars/{name}/schedule", s.handleSchedule)
	mux.HandleFunc("GET /api/calendars/{name}/open", s.handleOpen)
}

// Handler returns an http.Handler with CORS middleware.
func (s *CalendarServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// resolveCalendar looks up the path calendar, writing a 404 on failure.
func resolveCalendar(w http.ResponseWriter, r *http.Request) *mktcal.Calendar {
	name := r.PathValue("name")
	c, err := mktcal.GetCalendar(name)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown calendar %q", name))
		return nil
	}
	return c
}

// parseWindow reads the start and end query params as YYYY-MM-DD dates.
func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start and end required")
	}
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad start %q", startStr)
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad end %q", endStr)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end before start")
	}
	return start, end, nil
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}

func (s *CalendarServer) handleCalendars(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, CalendarsResponse{Calendars: mktcal.GetCalendarNames()})
}

func (s *CalendarServer) handleCalendarInfo(w http.ResponseWriter, r *http.Request) {
	c := resolveCalendar(w, r)
	if c == nil {
		return
	}
	writeJSON(w, CalendarInfoJSON{
		Name:        c.Name(),
		FullName:    c.FullName(),
		Aliases:     c.Aliases(),
		TZ:          c.TZ(),
		MarketTimes: c.MarketTimeLabels(),
	})
}

func (s *CalendarServer) handleHolidays(w http.ResponseWriter, r *http.Request) {
	c := resolveCalendar(w, r)
	if c == nil {
		return
	}
	start, end, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, DatesResponse{
		Calendar: c.Name(),
		Start:    start.Format("2006-01-02"),
		End:      end.Format("2006-01-02"),
		Dates:    formatDates(c.Holidays(start, end)),
	})
}

func (s *CalendarServer) handleValidDays(w http.ResponseWriter, r *http.Request) {
	c := resolveCalendar(w, r)
	if c == nil {
		return
	}
	start, end, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	days, err := c.ValidDays(start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, DatesResponse{
		Calendar: c.Name(),
		Start:    start.Format("2006-01-02"),
		End:      end.Format("2006-01-02"),
		Dates:    formatDates(days),
	})
}

func (s *CalendarServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	c := resolveCalendar(w, r)
	if c == nil {
		return
	}
	start, end, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	loc := time.UTC
	if tz := r.URL.Query().Get("tz"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("bad tz %q", tz))
			return
		}
	}

	cells, err := s.scheduleCells(r, c, start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, scheduleResponse(c.Name(), loc, cells))
}

// scheduleCells returns default-column schedule cells for the window,
// reading through the cache when it already covers the window.
func (s *CalendarServer) scheduleCells(r *http.Request, c *mktcal.Calendar, start, end time.Time) ([]store.ScheduleCell, error) {
	ctx := r.Context()
	if s.cache != nil {
		first, last, ok, err := s.cache.Coverage(ctx, c.Name())
		if err != nil {
			s.log.Warn("cache coverage", "calendar", c.Name(), "error", err)
		} else if ok && !first.After(start) && !last.Before(end) {
			cells, err := s.cache.Get(ctx, c.Name(), start, end)
			if err == nil {
				return cells, nil
			}
			s.log.Warn("cache read", "calendar", c.Name(), "error", err)
		}
	}

	sched, err := c.Schedule(start, end, nil)
	if err != nil {
		return nil, err
	}
	cells := store.CellsFromSchedule(sched)
	if s.cache != nil {
		if err := s.cache.Put(r.Context(), c.Name(), cells); err != nil {
			s.log.Warn("cache write", "calendar", c.Name(), "error", err)
		}
	}
	return cells, nil
}

// scheduleResponse groups cells into per-date rows, formatting instants in
// the output location.
func scheduleResponse(calendar string, loc *time.Location, cells []store.ScheduleCell) ScheduleResponse {
	labelSeq := map[string]int{}
	rowsByDate := map[string]map[string]string{}
	var dates []string
	for _, cell := range cells {
		labelSeq[cell.Label] = cell.Seq
		key := cell.Date.Format("2006-01-02")
		row, ok := rowsByDate[key]
		if !ok {
			row = map[string]string{}
			rowsByDate[key] = row
			dates = append(dates, key)
		}
		row[cell.Label] = cell.Time.In(loc).Format(time.RFC3339)
	}

	columns := make([]string, 0, len(labelSeq))
	for label := range labelSeq {
		columns = append(columns, label)
	}
	sort.Slice(columns, func(i, j int) bool { return labelSeq[columns[i]] < labelSeq[columns[j]] })
	sort.Strings(dates)

	rows := make([]ScheduleRowJSON, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, ScheduleRowJSON{Date: d, Times: rowsByDate[d]})
	}
	return ScheduleResponse{Calendar: calendar, TZ: loc.String(), Columns: columns, Rows: rows}
}

func (s *CalendarServer) handleOpen(w http.ResponseWriter, r *http.Request) {
	c := resolveCalendar(w, r)
	if c == nil {
		return
	}
	atStr := r.URL.Query().Get("at")
	at, err := time.Parse(time.RFC3339, atStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("bad at %q", atStr))
		return
	}

	// A week either side keeps overnight sessions inside the window.
	sched, err := c.Schedule(at.AddDate(0, 0, -7), at.AddDate(0, 0, 7), nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	open, err := c.OpenAtTime(sched, at, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, OpenResponse{Calendar: c.Name(), At: at.UTC().Format(time.RFC3339), Open: open})
}
