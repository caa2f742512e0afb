// Package exchanges carries the curated per-exchange calendar definitions
// consumed by the mktcal engine. Each definition is a plain data descriptor:
// holiday rules, ad-hoc closure dates, session times, special opens and
// closes, and the weekmask. The data is exogenous input: it mirrors the
// exchanges' published histories and is not derived or reconciled here.
package exchanges

import (
	"time"

	"mktcal/pkg/mktcal"
)

func init() {
	RegisterAll()
}

// RegisterAll registers every curated descriptor with the global mktcal
// registry. It is called from init; calling it again is harmless.
func RegisterAll() {
	mktcal.MustRegister(NYSE())
	mktcal.MustRegister(CMEEquity())
	mktcal.MustRegister(SSE())
	mktcal.MustRegister(TwentyFourSeven())
}

// ---------------------------------------------------------------------------
// Descriptor literal helpers
// ---------------------------------------------------------------------------

func date(year int, month time.Month, day int) time.Time {
	return mktcal.Day(year, month, day)
}

func from(year int, month time.Month, day int) *time.Time {
	d := date(year, month, day)
	return &d
}

func at(hour, minute int) *mktcal.TimeOfDay {
	t := mktcal.TD(hour, minute)
	return &t
}
