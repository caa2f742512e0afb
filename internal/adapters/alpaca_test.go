package adapters

import (
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"

	"mktcal/pkg/mktcal"
)

// Thanksgiving week 2021: Thursday closed, Friday 13:00 early close.
func thanksgivingDays() []alpaca.CalendarDay {
	return []alpaca.CalendarDay{
		{Date: "2021-11-22", Open: "09:30", Close: "16:00"},
		{Date: "2021-11-23", Open: "09:30", Close: "16:00"},
		{Date: "2021-11-24", Open: "09:30", Close: "16:00"},
		{Date: "2021-11-26", Open: "09:30", Close: "13:00"},
	}
}

func TestDescriptorFromDays(t *testing.T) {
	start := mktcal.Day(2021, time.November, 22)
	end := mktcal.Day(2021, time.November, 26)
	desc, err := descriptorFromDays("US_TEST", start, end, thanksgivingDays())
	if err != nil {
		t.Fatalf("descriptorFromDays: %v", err)
	}

	if len(desc.AdHocHolidays) != 1 || !desc.AdHocHolidays[0].Equal(mktcal.Day(2021, time.November, 25)) {
		t.Errorf("AdHocHolidays = %v, want [2021-11-25]", desc.AdHocHolidays)
	}
	if len(desc.SpecialOpens) != 0 {
		t.Errorf("SpecialOpens = %v, want none", desc.SpecialOpens)
	}
	if len(desc.SpecialCloses) != 1 {
		t.Fatalf("SpecialCloses = %v, want one group", desc.SpecialCloses)
	}
	sc := desc.SpecialCloses[0]
	if sc.Time != mktcal.TD(13, 0) || len(sc.Dates) != 1 || !sc.Dates[0].Equal(end) {
		t.Errorf("special close = %+v, want 13:00 on 2021-11-26", sc)
	}
}

func TestDescriptorFromDaysSchedule(t *testing.T) {
	start := mktcal.Day(2021, time.November, 22)
	end := mktcal.Day(2021, time.November, 26)
	desc, err := descriptorFromDays("US_TEST", start, end, thanksgivingDays())
	if err != nil {
		t.Fatalf("descriptorFromDays: %v", err)
	}
	c, err := mktcal.NewCalendar(desc)
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}
	sched, err := c.Schedule(start, end, nil)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if sched.Len() != 4 {
		t.Fatalf("schedule has %d rows, want 4", sched.Len())
	}
	got, ok := sched.At(end, "market_close")
	if !ok {
		t.Fatal("no close on 2021-11-26")
	}
	// 13:00 EST.
	want := time.Date(2021, time.November, 26, 18, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("early close = %v, want %v", got, want)
	}
}

func TestDescriptorFromDaysIrregularOpen(t *testing.T) {
	start := mktcal.Day(2021, time.November, 22)
	days := []alpaca.CalendarDay{{Date: "2021-11-22", Open: "10:00", Close: "16:00"}}
	desc, err := descriptorFromDays("US_TEST", start, start, days)
	if err != nil {
		t.Fatalf("descriptorFromDays: %v", err)
	}
	if len(desc.SpecialOpens) != 1 || desc.SpecialOpens[0].Time != mktcal.TD(10, 0) {
		t.Errorf("SpecialOpens = %v, want one group at 10:00", desc.SpecialOpens)
	}
}

func TestDescriptorFromDaysBadClock(t *testing.T) {
	start := mktcal.Day(2021, time.November, 22)
	days := []alpaca.CalendarDay{{Date: "2021-11-22", Open: "09:30", Close: "25:00"}}
	if _, err := descriptorFromDays("US_TEST", start, start, days); err == nil {
		t.Fatal("descriptorFromDays accepted out-of-range clock time")
	}
}

func TestParseClockTime(t *testing.T) {
	got, err := parseClockTime("09:30")
	if err != nil || got != mktcal.TD(9, 30) {
		t.Errorf("parseClockTime(09:30) = %v, %v", got, err)
	}
	for _, bad := range []string{"", "nine", "24:00", "12:60"} {
		if _, err := parseClockTime(bad); err == nil {
			t.Errorf("parseClockTime(%q) should fail", bad)
		}
	}
}
