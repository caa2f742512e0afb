package exchanges

import (
	"time"

	"mktcal/pkg/mktcal"
)

// NYSE returns the New York Stock Exchange calendar. The rule set covers
// the modern era (post-1970 holiday schedule); the weekmask additionally
// models the Saturday trading sessions the exchange ran before
// 1952-09-29. History before 1970 beyond the weekmask is not curated.
func NYSE() *mktcal.Descriptor {
	return &mktcal.Descriptor{
		Name:     "NYSE",
		FullName: "New York Stock Exchange",
		Aliases:  []string{"XNYS", "NASDAQ", "AMEX"},
		TZ:       "America/New_York",
		Weekmask: mktcal.Weekmask{
			{Days: mktcal.Weekdays(time.Monday, time.Tuesday, time.Wednesday,
				time.Thursday, time.Friday, time.Saturday)},
			{From: from(1952, time.September, 29), Days: mktcal.MondayToFriday},
		},
		MarketTimes: []mktcal.MarketTimeDef{
			{Label: mktcal.LabelPre, Specs: []mktcal.MarketTimeSpec{{Time: at(4, 0)}}},
			{Label: mktcal.LabelMarketOpen, Specs: []mktcal.MarketTimeSpec{
				{Time: at(10, 0)},
				{From: from(1985, time.September, 30), Time: at(9, 30)},
			}},
			{Label: mktcal.LabelMarketClose, Specs: []mktcal.MarketTimeSpec{
				{Time: at(15, 0)},
				{From: from(1952, time.September, 29), Time: at(15, 30)},
				{From: from(1974, time.January, 1), Time: at(16, 0)},
			}},
			{Label: mktcal.LabelPost, Specs: []mktcal.MarketTimeSpec{{Time: at(20, 0)}}},
		},

		RegularHolidays: []mktcal.HolidayRule{
			{
				Name: "New Year's Day", Kind: mktcal.RuleFixedDate,
				Month: time.January, Day: 1,
				Observance: mktcal.SundayToMonday,
			},
			{
				Name: "Martin Luther King Jr. Day", Kind: mktcal.RuleNthWeekday,
				Month: time.January, Weekday: time.Monday, Nth: 3,
				Start: from(1998, time.January, 1),
			},
			{
				Name: "Washington's Birthday", Kind: mktcal.RuleNthWeekday,
				Month: time.February, Weekday: time.Monday, Nth: 3,
				Start: from(1971, time.January, 1),
			},
			{
				Name: "Good Friday", Kind: mktcal.RuleEasterOffset, Offset: -2,
			},
			{
				Name: "Memorial Day", Kind: mktcal.RuleNthWeekday,
				Month: time.May, Weekday: time.Monday, Nth: -1,
				Start: from(1971, time.January, 1),
			},
			{
				Name: "Juneteenth", Kind: mktcal.RuleFixedDate,
				Month: time.June, Day: 19,
				Observance: mktcal.NearestWorkday,
				Start:      from(2022, time.January, 1),
			},
			{
				Name: "Independence Day", Kind: mktcal.RuleFixedDate,
				Month: time.July, Day: 4,
				Observance: mktcal.NearestWorkday,
			},
			{
				Name: "Labor Day", Kind: mktcal.RuleNthWeekday,
				Month: time.September, Weekday: time.Monday, Nth: 1,
			},
			{
				Name: "Thanksgiving", Kind: mktcal.RuleNthWeekday,
				Month: time.November, Weekday: time.Thursday, Nth: 4,
			},
			{
				Name: "Christmas", Kind: mktcal.RuleFixedDate,
				Month: time.December, Day: 25,
				Observance: mktcal.NearestWorkday,
			},
		},

		AdHocHolidays: []time.Time{
			date(1985, time.September, 27), // Hurricane Gloria
			date(1994, time.April, 27),     // Nixon funeral
			date(2001, time.September, 11), // September 11 attacks
			date(2001, time.September, 12),
			date(2001, time.September, 13),
			date(2001, time.September, 14),
			date(2004, time.June, 11),    // Reagan funeral
			date(2007, time.January, 2),  // Ford funeral
			date(2012, time.October, 29), // Hurricane Sandy
			date(2012, time.October, 30),
			date(2018, time.December, 5), // G.H.W. Bush funeral
			date(2025, time.January, 9),  // Carter funeral
		},

		SpecialCloses: []mktcal.SpecialTime{
			{
				Time: mktcal.TD(13, 0),
				Rules: []mktcal.HolidayRule{
					{
						Name: "July 3rd", Kind: mktcal.RuleFixedDate,
						Month: time.July, Day: 3,
						DaysOfWeek: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday},
					},
					{
						Name: "Day after Thanksgiving", Kind: mktcal.RuleNthWeekday,
						Month: time.November, Weekday: time.Thursday, Nth: 4,
						Observance: mktcal.PlusDays(1),
					},
					{
						Name: "Christmas Eve", Kind: mktcal.RuleFixedDate,
						Month: time.December, Day: 24,
						DaysOfWeek: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday},
					},
				},
			},
		},

		Interruptions: []mktcal.Interruption{
			// 2015-07-08 floor-wide technical halt.
			{
				Date: date(2015, time.July, 8),
				Pauses: []mktcal.InterruptionPause{
					{Start: mktcal.TD(11, 32), End: mktcal.TD(15, 10)},
				},
			},
		},
	}
}
