package mktcal

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ---------------------------------------------------------------------------
// Calendar registry
// ---------------------------------------------------------------------------

var registry = struct {
	sync.RWMutex
	byName  map[string]*Descriptor
	byAlias map[string]string // lowercase alias → canonical name
}{
	byName:  map[string]*Descriptor{},
	byAlias: map[string]string{},
}

// Register adds a descriptor to the global registry under its name and
// aliases. Registering a name twice replaces the previous descriptor; alias
// collisions across different calendars are an error.
func Register(desc *Descriptor) error {
	if err := desc.validate(); err != nil {
		return err
	}
	registry.Lock()
	defer registry.Unlock()

	keys := append([]string{desc.Name}, desc.Aliases...)
	for _, k := range keys {
		lk := strings.ToLower(k)
		if owner, ok := registry.byAlias[lk]; ok && owner != desc.Name {
			return fmt.Errorf("%w: alias %q already registered for %s", ErrInvalidArgument, k, owner)
		}
	}
	registry.byName[desc.Name] = desc
	for _, k := range keys {
		registry.byAlias[strings.ToLower(k)] = desc.Name
	}
	return nil
}

// MustRegister registers a descriptor and panics on error. Intended for
// curated exchange tables whose validity is a build-time property.
func MustRegister(desc *Descriptor) {
	if err := Register(desc); err != nil {
		panic(err)
	}
}

// CalendarOption customises a calendar at lookup time.
type CalendarOption func(*Calendar) error

// WithOpenTime overrides the regular market_open with a single open-ended
// time.
func WithOpenTime(t TimeOfDay) CalendarOption {
	return func(c *Calendar) error {
		return c.ChangeTime(LabelMarketOpen, MarketTimeSpec{Time: &t})
	}
}

// WithCloseTime overrides the regular market_close with a single open-ended
// time.
func WithCloseTime(t TimeOfDay) CalendarOption {
	return func(c *Calendar) error {
		return c.ChangeTime(LabelMarketClose, MarketTimeSpec{Time: &t})
	}
}

// GetCalendar resolves a registered calendar by name or alias
// (case-insensitive) and applies any options to a fresh instance.
func GetCalendar(name string, opts ...CalendarOption) (*Calendar, error) {
	registry.RLock()
	canonical, ok := registry.byAlias[strings.ToLower(name)]
	var desc *Descriptor
	if ok {
		desc = registry.byName[canonical]
	}
	registry.RUnlock()
	if desc == nil {
		return nil, fmt.Errorf("%w: no calendar registered as %q", ErrInvalidArgument, name)
	}

	c, err := NewCalendar(desc)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// GetCalendarNames returns the canonical names of all registered calendars,
// sorted.
func GetCalendarNames() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.byName))
	for n := range registry.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
