package schedule

import (
	"fmt"
	"strings"

	"github.com/iliyamo/table-reservation/internal/model"
)

// BoundaryRule selects how touching intervals are treated.
type BoundaryRule int

const (
	// Inclusive treats [10:00,12:00] and [12:00,14:00] as overlapping.
	Inclusive BoundaryRule = iota
	// HalfOpen treats intervals as [start,end) so touching ones coexist.
	HalfOpen
)

// ParseBoundaryRule maps "inclusive" or "half_open" to a BoundaryRule.
func ParseBoundaryRule(s string) (BoundaryRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inclusive":
		return Inclusive, nil
	case "half_open", "half-open", "halfopen":
		return HalfOpen, nil
	}
	return Inclusive, fmt.Errorf("unknown conflict boundary %q", s)
}

func (r BoundaryRule) String() string {
	if r == HalfOpen {
		return "half_open"
	}
	return "inclusive"
}

// Overlaps reports whether a and b intersect under the rule.
func (r BoundaryRule) Overlaps(a, b model.TimeSlot) bool {
	if r == HalfOpen {
		return a.Start < b.End && b.Start < a.End
	}
	return a.Start <= b.End && b.Start <= a.End
}

// AnyOverlap reports whether candidate overlaps any of the given slots.
func (r BoundaryRule) AnyOverlap(candidate model.TimeSlot, slots []model.TimeSlot) bool {
	for _, s := range slots {
		if r.Overlaps(candidate, s) {
			return true
		}
	}
	return false
}
