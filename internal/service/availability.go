package service

import (
	"context"
	"time"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/schedule"
)

// RequestedTimeTolerance bounds how far the closest slot start may be from
// a requested time when no slot contains it.
const RequestedTimeTolerance = 15 * time.Minute

// AvailabilityQuery selects tables and slots for a party.
type AvailabilityQuery struct {
	LocationID string
	Date       time.Time
	Guests     int
	// RequestedTime narrows each table's result to the slot containing it,
	// or the closest starting slot within RequestedTimeTolerance.
	RequestedTime *model.TimeOfDay
}

// TableAvailability lists the free slots of one table.
type TableAvailability struct {
	Table model.Table
	Slots []model.TimeSlot
}

// AvailabilityCalculator computes per-table free slots for a day.
type AvailabilityCalculator struct {
	locations    LocationStore
	tables       TableStore
	reservations ReservationStore
	catalog      schedule.Catalog
	boundary     schedule.BoundaryRule
}

// NewAvailabilityCalculator wires the calculator to its stores.  boundary
// must be the rule the conflict detector uses so that every listed slot is
// also bookable.
func NewAvailabilityCalculator(locations LocationStore, tables TableStore, reservations ReservationStore, catalog schedule.Catalog, boundary schedule.BoundaryRule) *AvailabilityCalculator {
	return &AvailabilityCalculator{
		locations:    locations,
		tables:       tables,
		reservations: reservations,
		catalog:      catalog,
		boundary:     boundary,
	}
}

// Compute returns the tables that can seat q.Guests together with their
// free slots.  Tables without any free slot are omitted.
func (a *AvailabilityCalculator) Compute(ctx context.Context, q AvailabilityQuery) ([]TableAvailability, error) {
	if q.Guests <= 0 {
		return nil, apperr.InvalidField("guests", "guests must be a positive integer")
	}
	if _, err := a.locations.GetLocation(ctx, q.LocationID); err != nil {
		return nil, storeErr("location", q.LocationID, err)
	}
	tables, err := a.tables.ListTablesByLocation(ctx, q.LocationID)
	if err != nil {
		return nil, apperr.Internal("list tables", err)
	}
	reservations, err := a.reservations.ListByDateAndLocation(ctx, q.Date, q.LocationID)
	if err != nil {
		return nil, apperr.Internal("list reservations", err)
	}
	byTable := make(map[string][]model.TimeSlot)
	for _, r := range reservations {
		if !r.Status.Active() {
			continue
		}
		byTable[r.TableID] = append(byTable[r.TableID], r.Slot())
	}

	grid := a.catalog.Generate()
	var out []TableAvailability
	for _, t := range tables {
		if t.Capacity < q.Guests {
			continue
		}
		free := FreeSlots(grid, byTable[t.ID], a.boundary)
		if q.RequestedTime != nil {
			free = NarrowToRequested(free, *q.RequestedTime)
		}
		if len(free) == 0 {
			continue
		}
		out = append(out, TableAvailability{Table: t, Slots: free})
	}
	return out, nil
}

// FreeSlots removes from grid every slot that overlaps a booked interval
// under rule.  With a gapless grid and the Inclusive rule, the slots
// adjacent to a booking are removed too.
func FreeSlots(grid, booked []model.TimeSlot, rule schedule.BoundaryRule) []model.TimeSlot {
	free := make([]model.TimeSlot, 0, len(grid))
	for _, s := range grid {
		if !rule.AnyOverlap(s, booked) {
			free = append(free, s)
		}
	}
	return free
}

// NarrowToRequested picks the slot containing at, or failing that the one
// whose start is closest to at within RequestedTimeTolerance.  The result
// has at most one element.
func NarrowToRequested(slots []model.TimeSlot, at model.TimeOfDay) []model.TimeSlot {
	for _, s := range slots {
		if s.Contains(at) {
			return []model.TimeSlot{s}
		}
	}
	best := -1
	var bestDiff time.Duration
	for i, s := range slots {
		diff := s.Start.Sub(at)
		if diff < 0 {
			diff = -diff
		}
		if diff > RequestedTimeTolerance {
			continue
		}
		if best < 0 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	if best < 0 {
		return nil
	}
	return []model.TimeSlot{slots[best]}
}
