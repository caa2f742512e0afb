package mktcal

import (
	"fmt"
	"log/slog"
	"time"
)

// WarningKind identifies a non-fatal condition raised by the range
// generators.
type WarningKind int

const (
	// WarnMissingSession: a requested session references labels the calendar
	// does not define; the affected session pairs were dropped.
	WarnMissingSession WarningKind = iota
	// WarnOverlappingSession: the (freq, closed, force-close) combination
	// stepped past a session end into the next session.
	WarnOverlappingSession
	// WarnDisappearingSession: force-close trimming removed every timestamp
	// of a session whose length is below the frequency.
	WarnDisappearingSession
	// WarnInsufficientSchedule: the requested range extends beyond the
	// schedule. Start/End name the dates the caller must add before
	// retrying, NeedEarlier says on which side.
	WarnInsufficientSchedule
)

// String returns the kind's identifier.
func (k WarningKind) String() string {
	switch k {
	case WarnMissingSession:
		return "missing_session"
	case WarnOverlappingSession:
		return "overlapping_session"
	case WarnDisappearingSession:
		return "disappearing_session"
	case WarnInsufficientSchedule:
		return "insufficient_schedule"
	}
	return fmt.Sprintf("warning(%d)", int(k))
}

// Warning is a structured, non-fatal diagnostic. Generators return warnings
// alongside their result; callers escalate the kinds they cannot tolerate
// with Escalate and build recovery loops on the machine-readable fields of
// WarnInsufficientSchedule.
type Warning struct {
	Kind    WarningKind
	Message string

	// WarnMissingSession.
	Sessions      []string
	MissingLabels []string

	// WarnInsufficientSchedule. Start and End are the naive dates the
	// schedule must be extended by, inclusive.
	NeedEarlier bool
	Start       time.Time
	End         time.Time
}

// log emits the warning on the default slog logger.
func (w Warning) log() {
	attrs := []any{"kind", w.Kind.String()}
	if w.Kind == WarnInsufficientSchedule {
		attrs = append(attrs,
			"need_earlier", w.NeedEarlier,
			"start", w.Start.Format("2006-01-02"),
			"end", w.End.Format("2006-01-02"))
	}
	slog.Warn(w.Message, attrs...)
}

// WarningError is a Warning escalated to an error.
type WarningError struct {
	Warning Warning
}

// Error implements the error interface.
func (e *WarningError) Error() string {
	return fmt.Sprintf("%s: %s", e.Warning.Kind, e.Warning.Message)
}

// Escalate returns the first warning of one of the given kinds as an error,
// or nil when none match. With no kinds, every warning escalates.
func Escalate(warnings []Warning, kinds ...WarningKind) error {
	for _, w := range warnings {
		if len(kinds) == 0 {
			return &WarningError{Warning: w}
		}
		for _, k := range kinds {
			if w.Kind == k {
				return &WarningError{Warning: w}
			}
		}
	}
	return nil
}
