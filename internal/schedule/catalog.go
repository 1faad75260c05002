// Package schedule generates the daily grid of bookable slots and provides
// the interval predicates used for availability and conflict checks.
package schedule

import (
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// Default grid: 90 minute sittings separated by 15 minutes, 10:30 to 22:30.
const (
	DefaultDuration = 90 * time.Minute
	DefaultGap      = 15 * time.Minute
)

var (
	DefaultOpen  = model.MustTimeOfDay("10:30")
	DefaultClose = model.MustTimeOfDay("22:30")
)

// Catalog describes the canonical slot grid.  It is identical for every
// location and day and is recomputed on demand.
type Catalog struct {
	Open     model.TimeOfDay
	Close    model.TimeOfDay
	Duration time.Duration
	Gap      time.Duration
}

// DefaultCatalog returns the standard restaurant grid.
func DefaultCatalog() Catalog {
	return Catalog{
		Open:     DefaultOpen,
		Close:    DefaultClose,
		Duration: DefaultDuration,
		Gap:      DefaultGap,
	}
}

// Generate emits slots of Duration starting at Open, each followed by Gap,
// until the next slot's end would pass Close.  A non-positive Duration
// yields no slots.
func (c Catalog) Generate() []model.TimeSlot {
	if c.Duration < time.Minute || c.Gap < 0 {
		return nil
	}
	var slots []model.TimeSlot
	for start := c.Open; ; {
		end := start.Add(c.Duration)
		if end > c.Close {
			break
		}
		slots = append(slots, model.TimeSlot{Start: start, End: end})
		start = end.Add(c.Gap)
	}
	return slots
}

// Lookup returns the catalog slot exactly matching [from, to).
func (c Catalog) Lookup(from, to model.TimeOfDay) (model.TimeSlot, bool) {
	for _, s := range c.Generate() {
		if s.Start == from && s.End == to {
			return s, true
		}
	}
	return model.TimeSlot{}, false
}

// WithinHours reports whether [from, to) lies inside the service day.
func (c Catalog) WithinHours(from, to model.TimeOfDay) bool {
	return from >= c.Open && to <= c.Close
}
