package exchanges

import (
	"mktcal/pkg/mktcal"
)

// TwentyFourSeven returns an always-open calendar for venues without
// trading hours, such as cryptocurrency markets: every day of the week is
// a session running from midnight to the following midnight UTC.
func TwentyFourSeven() *mktcal.Descriptor {
	return &mktcal.Descriptor{
		Name:     "24/7",
		FullName: "Always Open",
		Aliases:  []string{"CRYPTO", "ALWAYS_OPEN"},
		TZ:       "UTC",
		Weekmask: mktcal.SingleWeekmask(mktcal.AllWeek),
		MarketTimes: []mktcal.MarketTimeDef{
			{Label: mktcal.LabelMarketOpen, Specs: []mktcal.MarketTimeSpec{{Time: at(0, 0)}}},
			{Label: mktcal.LabelMarketClose, Specs: []mktcal.MarketTimeSpec{{Time: at(0, 0), DayOffset: 1}}},
		},
	}
}
