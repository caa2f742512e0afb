package exchanges

import (
	"testing"
	"time"

	"mktcal/pkg/mktcal"
)

func TestAllCalendarsRegistered(t *testing.T) {
	for _, name := range []string{"NYSE", "CME_Equity", "SSE", "24/7"} {
		c, err := mktcal.GetCalendar(name)
		if err != nil {
			t.Errorf("GetCalendar(%q): %v", name, err)
			continue
		}
		// Every curated calendar must be able to build a schedule.
		if _, err := c.Schedule(day(2024, time.March, 4), day(2024, time.March, 8), nil); err != nil {
			t.Errorf("%s schedule: %v", name, err)
		}
	}
}

func TestCMEOvernightSession(t *testing.T) {
	c, err := mktcal.GetCalendar("CME_Equity")
	if err != nil {
		t.Fatalf("GetCalendar: %v", err)
	}
	s, err := c.Schedule(day(2020, time.January, 13), day(2020, time.January, 13), nil)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	open, ok := s.At(day(2020, time.January, 13), mktcal.LabelMarketOpen)
	if !ok {
		t.Fatal("missing open cell")
	}
	chi, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	// The Monday trade date opens Sunday 17:00 Chicago time.
	want := time.Date(2020, time.January, 12, 17, 0, 0, 0, chi)
	if !open.Equal(want) {
		t.Errorf("open = %s, want %s", open.In(chi), want)
	}
	closeT, _ := s.At(day(2020, time.January, 13), mktcal.LabelMarketClose)
	if local := closeT.In(chi); local.Hour() != 16 || local.Day() != 13 {
		t.Errorf("close = %s, want 16:00 on the trade date", local)
	}
}

func TestCMENoonHalts(t *testing.T) {
	c, err := mktcal.GetCalendar("CME_Equity")
	if err != nil {
		t.Fatalf("GetCalendar: %v", err)
	}
	// 2021-05-31 is Memorial Day: futures trade a shortened session.
	s, err := c.Schedule(day(2021, time.May, 24), day(2021, time.June, 4), nil)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	early := c.EarlyCloses(s)
	if early.Len() != 1 || !early.Dates()[0].Equal(day(2021, time.May, 31)) {
		t.Fatalf("early closes = %v, want [2021-05-31]", early.Dates())
	}
	chi, _ := time.LoadLocation("America/Chicago")
	closeT, _ := early.At(day(2021, time.May, 31), mktcal.LabelMarketClose)
	if local := closeT.In(chi); local.Hour() != 12 || local.Minute() != 0 {
		t.Errorf("Memorial Day close = %s, want 12:00", local.Format("15:04"))
	}
}

func TestSSELunchBreak(t *testing.T) {
	c, err := mktcal.GetCalendar("SSE")
	if err != nil {
		t.Fatalf("GetCalendar: %v", err)
	}
	s, err := c.Schedule(day(2024, time.March, 4), day(2024, time.March, 4), nil)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	// 12:00 Shanghai falls inside the lunch break.
	sh, _ := time.LoadLocation("Asia/Shanghai")
	noon := time.Date(2024, time.March, 4, 12, 0, 0, 0, sh)
	if open, _ := c.OpenAtTime(s, noon, nil); open {
		t.Error("open during the Shanghai lunch break")
	}
	afternoon := time.Date(2024, time.March, 4, 14, 0, 0, 0, sh)
	if open, _ := c.OpenAtTime(s, afternoon, nil); !open {
		t.Error("closed during the afternoon session")
	}
}

func TestSSESpringFestival(t *testing.T) {
	c, err := mktcal.GetCalendar("SSE")
	if err != nil {
		t.Fatalf("GetCalendar: %v", err)
	}
	valid, err := c.ValidDays(day(2024, time.February, 12), day(2024, time.February, 16))
	if err != nil {
		t.Fatalf("ValidDays: %v", err)
	}
	if len(valid) != 0 {
		t.Errorf("Spring Festival week has trading days: %v", valid)
	}
}

func TestTwentyFourSeven(t *testing.T) {
	c, err := mktcal.GetCalendar("24/7")
	if err != nil {
		t.Fatalf("GetCalendar: %v", err)
	}
	valid, err := c.ValidDays(day(2024, time.March, 1), day(2024, time.March, 31))
	if err != nil {
		t.Fatalf("ValidDays: %v", err)
	}
	if len(valid) != 31 {
		t.Errorf("March trading days = %d, want 31", len(valid))
	}
	s, err := c.Schedule(day(2024, time.March, 9), day(2024, time.March, 10), nil)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	// Saturday midnight to Sunday midnight, back to back with the next day.
	open, _ := s.At(day(2024, time.March, 9), mktcal.LabelMarketOpen)
	closeT, _ := s.At(day(2024, time.March, 9), mktcal.LabelMarketClose)
	if !open.Equal(day(2024, time.March, 9)) || !closeT.Equal(day(2024, time.March, 10)) {
		t.Errorf("session = %s..%s, want full UTC day", open, closeT)
	}
	if open, _ := c.OpenAtTime(s, day(2024, time.March, 9).Add(3*time.Hour), nil); !open {
		t.Error("24/7 calendar closed mid-day")
	}
}
