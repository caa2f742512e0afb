package exchanges

import (
	"time"

	"mktcal/pkg/mktcal"
)

// SSE returns the Shanghai Stock Exchange calendar: a morning session of
// 09:30–11:30 and an afternoon session of 13:00–15:00. Chinese public
// holidays follow the lunisolar calendar and annual State Council
// notices, so they are curated per year as ad-hoc dates rather than
// generated by rules. The list below covers 2023 through 2025.
func SSE() *mktcal.Descriptor {
	return &mktcal.Descriptor{
		Name:     "SSE",
		FullName: "Shanghai Stock Exchange",
		Aliases:  []string{"XSHG", "SZSE"},
		TZ:       "Asia/Shanghai",
		Weekmask: mktcal.SingleWeekmask(mktcal.MondayToFriday),
		MarketTimes: []mktcal.MarketTimeDef{
			{Label: mktcal.LabelMarketOpen, Specs: []mktcal.MarketTimeSpec{{Time: at(9, 30)}}},
			{Label: mktcal.LabelBreakStart, Specs: []mktcal.MarketTimeSpec{{Time: at(11, 30)}}},
			{Label: mktcal.LabelBreakEnd, Specs: []mktcal.MarketTimeSpec{{Time: at(13, 0)}}},
			{Label: mktcal.LabelMarketClose, Specs: []mktcal.MarketTimeSpec{{Time: at(15, 0)}}},
		},

		AdHocHolidays: sseHolidays,
	}
}

// sseHolidays lists the exchange closures published for 2023–2025.
var sseHolidays = []time.Time{
	// 2023
	date(2023, time.January, 2), // New Year (observed)
	date(2023, time.January, 23), date(2023, time.January, 24), date(2023, time.January, 25),
	date(2023, time.January, 26), date(2023, time.January, 27), // Spring Festival
	date(2023, time.April, 5),                                // Qingming
	date(2023, time.May, 1), date(2023, time.May, 2), date(2023, time.May, 3), // Labour Day
	date(2023, time.June, 22), date(2023, time.June, 23), // Dragon Boat
	date(2023, time.September, 29),                       // Mid-Autumn
	date(2023, time.October, 2), date(2023, time.October, 3), date(2023, time.October, 4),
	date(2023, time.October, 5), date(2023, time.October, 6), // National Day

	// 2024
	date(2024, time.January, 1), // New Year
	date(2024, time.February, 12), date(2024, time.February, 13), date(2024, time.February, 14),
	date(2024, time.February, 15), date(2024, time.February, 16), // Spring Festival
	date(2024, time.April, 4), date(2024, time.April, 5), // Qingming
	date(2024, time.May, 1), date(2024, time.May, 2), date(2024, time.May, 3), // Labour Day
	date(2024, time.June, 10),      // Dragon Boat
	date(2024, time.September, 16), date(2024, time.September, 17), // Mid-Autumn
	date(2024, time.October, 1), date(2024, time.October, 2), date(2024, time.October, 3),
	date(2024, time.October, 4), date(2024, time.October, 7), // National Day

	// 2025
	date(2025, time.January, 1), // New Year
	date(2025, time.January, 28), date(2025, time.January, 29), date(2025, time.January, 30),
	date(2025, time.January, 31), date(2025, time.February, 3), date(2025, time.February, 4), // Spring Festival
	date(2025, time.April, 4),                            // Qingming
	date(2025, time.May, 1), date(2025, time.May, 2), date(2025, time.May, 5), // Labour Day
	date(2025, time.June, 2), // Dragon Boat
	date(2025, time.October, 1), date(2025, time.October, 2), date(2025, time.October, 3),
	date(2025, time.October, 6), date(2025, time.October, 7), date(2025, time.October, 8), // National Day + Mid-Autumn
}
