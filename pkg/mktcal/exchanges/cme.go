package exchanges

import (
	"time"

	"mktcal/pkg/mktcal"
)

// CMEEquity returns the CME equity-futures calendar (Globex). The session
// is anchored to its trade date: it opens at 17:00 Chicago time on the
// previous calendar day and closes at 16:00 on the trade date, with the
// daily maintenance pause from 16:00 to 17:00 between sessions.
func CMEEquity() *mktcal.Descriptor {
	return &mktcal.Descriptor{
		Name:     "CME_Equity",
		FullName: "CME Globex Equity Futures",
		Aliases:  []string{"CME", "GLOBEX"},
		TZ:       "America/Chicago",
		Weekmask: mktcal.SingleWeekmask(mktcal.MondayToFriday),
		MarketTimes: []mktcal.MarketTimeDef{
			{Label: mktcal.LabelMarketOpen, Specs: []mktcal.MarketTimeSpec{
				{Time: at(17, 0), DayOffset: -1},
			}},
			{Label: mktcal.LabelMarketClose, Specs: []mktcal.MarketTimeSpec{
				{Time: at(16, 0)},
			}},
		},

		RegularHolidays: []mktcal.HolidayRule{
			{
				Name: "New Year's Day", Kind: mktcal.RuleFixedDate,
				Month: time.January, Day: 1,
				Observance: mktcal.SundayToMonday,
			},
			{
				Name: "Good Friday", Kind: mktcal.RuleEasterOffset, Offset: -2,
			},
			{
				Name: "Christmas", Kind: mktcal.RuleFixedDate,
				Month: time.December, Day: 25,
				Observance: mktcal.NearestWorkday,
			},
			{
				Name: "Thanksgiving", Kind: mktcal.RuleNthWeekday,
				Month: time.November, Weekday: time.Thursday, Nth: 4,
			},
		},

		// US holidays the equity futures trade through with a noon halt.
		SpecialCloses: []mktcal.SpecialTime{
			{
				Time: mktcal.TD(12, 0),
				Rules: []mktcal.HolidayRule{
					{
						Name: "Martin Luther King Jr. Day", Kind: mktcal.RuleNthWeekday,
						Month: time.January, Weekday: time.Monday, Nth: 3,
					},
					{
						Name: "Washington's Birthday", Kind: mktcal.RuleNthWeekday,
						Month: time.February, Weekday: time.Monday, Nth: 3,
					},
					{
						Name: "Memorial Day", Kind: mktcal.RuleNthWeekday,
						Month: time.May, Weekday: time.Monday, Nth: -1,
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
				},
			},
			{
				Time: mktcal.TD(12, 15),
				Rules: []mktcal.HolidayRule{
					{
						Name: "Day after Thanksgiving", Kind: mktcal.RuleNthWeekday,
						Month: time.November, Weekday: time.Thursday, Nth: 4,
						Observance: mktcal.PlusDays(1),
					},
				},
			},
		},
	}
}
