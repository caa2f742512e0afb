package exchanges

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mktcal/pkg/mktcal"
)

// ---------------------------------------------------------------------------
// YAML descriptor schema
// ---------------------------------------------------------------------------

// descriptorYAML is the on-disk form of a custom calendar. Market times are
// a list, not a map, so the session order of the labels is preserved.
type descriptorYAML struct {
	Name        string   `yaml:"name"`
	FullName    string   `yaml:"full_name"`
	Aliases     []string `yaml:"aliases"`
	TZ          string   `yaml:"tz"`
	Weekmask    []string `yaml:"weekmask"`
	MarketTimes []struct {
		Label string `yaml:"label"`
		Times []struct {
			From      string `yaml:"from"`
			Time      string `yaml:"time"`
			DayOffset int    `yaml:"day_offset"`
		} `yaml:"times"`
	} `yaml:"market_times"`
	AdHocHolidays []string          `yaml:"adhoc_holidays"`
	SpecialOpens  []specialTimeYAML `yaml:"special_opens"`
	SpecialCloses []specialTimeYAML `yaml:"special_closes"`
}

type specialTimeYAML struct {
	Time      string   `yaml:"time"`
	DayOffset int      `yaml:"day_offset"`
	Dates     []string `yaml:"dates"`
}

// LoadYAML reads a custom calendar descriptor from YAML. Deployments use
// this to define bespoke calendars without recompiling; rule-based
// holidays are not expressible in YAML, only ad-hoc dates.
func LoadYAML(r io.Reader) (*mktcal.Descriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var raw descriptorYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing calendar descriptor: %w", err)
	}
	return raw.descriptor()
}

// LoadYAMLFile reads and registers a custom calendar descriptor from a
// file.
func LoadYAMLFile(path string) (*mktcal.Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadYAML(f)
}

func (raw descriptorYAML) descriptor() (*mktcal.Descriptor, error) {
	desc := &mktcal.Descriptor{
		Name:     raw.Name,
		FullName: raw.FullName,
		Aliases:  raw.Aliases,
		TZ:       raw.TZ,
	}

	var days []time.Weekday
	for _, name := range raw.Weekmask {
		d, err := parseWeekday(name)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	desc.Weekmask = mktcal.SingleWeekmask(mktcal.Weekdays(days...))

	for _, mt := range raw.MarketTimes {
		var specs []mktcal.MarketTimeSpec
		for _, s := range mt.Times {
			spec := mktcal.MarketTimeSpec{DayOffset: s.DayOffset}
			if s.From != "" {
				d, err := parseDate(s.From)
				if err != nil {
					return nil, fmt.Errorf("market time %q: %w", mt.Label, err)
				}
				spec.From = &d
			}
			if s.Time != "" {
				t, err := parseTimeOfDay(s.Time)
				if err != nil {
					return nil, fmt.Errorf("market time %q: %w", mt.Label, err)
				}
				spec.Time = &t
			}
			specs = append(specs, spec)
		}
		desc.MarketTimes = append(desc.MarketTimes, mktcal.MarketTimeDef{Label: mt.Label, Specs: specs})
	}

	var err error
	if desc.AdHocHolidays, err = parseDates(raw.AdHocHolidays); err != nil {
		return nil, err
	}
	if desc.SpecialOpens, err = parseSpecialTimes(raw.SpecialOpens); err != nil {
		return nil, err
	}
	if desc.SpecialCloses, err = parseSpecialTimes(raw.SpecialCloses); err != nil {
		return nil, err
	}
	return desc, nil
}

func parseSpecialTimes(raws []specialTimeYAML) ([]mktcal.SpecialTime, error) {
	var out []mktcal.SpecialTime
	for _, raw := range raws {
		t, err := parseTimeOfDay(raw.Time)
		if err != nil {
			return nil, err
		}
		dates, err := parseDates(raw.Dates)
		if err != nil {
			return nil, err
		}
		out = append(out, mktcal.SpecialTime{Time: t, DayOffset: raw.DayOffset, Dates: dates})
	}
	return out, nil
}

func parseDates(raw []string) ([]time.Time, error) {
	var out []time.Time
	for _, s := range raw {
		d, err := parseDate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

func parseTimeOfDay(s string) (mktcal.TimeOfDay, error) {
	var t mktcal.TimeOfDay
	switch strings.Count(s, ":") {
	case 1:
		if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
			return t, fmt.Errorf("invalid time of day %q", s)
		}
	case 2:
		if _, err := fmt.Sscanf(s, "%d:%d:%d", &t.Hour, &t.Minute, &t.Second); err != nil {
			return t, fmt.Errorf("invalid time of day %q", s)
		}
	default:
		return t, fmt.Errorf("invalid time of day %q", s)
	}
	return t, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func parseWeekday(name string) (time.Weekday, error) {
	key := strings.ToLower(name)
	if len(key) > 3 {
		key = key[:3]
	}
	if d, ok := weekdayNames[key]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("invalid weekday %q", name)
}
