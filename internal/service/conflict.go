package service

import (
	"strings"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/schedule"
)

// ConflictDetector decides whether a candidate reservation may occupy its
// table.  Boundary selects whether bookings that share an endpoint clash;
// the default Inclusive rule rejects them.
type ConflictDetector struct {
	Boundary schedule.BoundaryRule
}

// Check fails with Conflict when any active reservation in existing, other
// than the candidate itself, overlaps the candidate's interval.  existing
// is expected to hold reservations for the same date, location and table.
func (d ConflictDetector) Check(candidate *model.Reservation, existing []model.Reservation) error {
	slot := candidate.Slot()
	for i := range existing {
		other := &existing[i]
		if other.ID == candidate.ID || !other.Status.Active() {
			continue
		}
		if !d.Boundary.Overlaps(slot, other.Slot()) {
			continue
		}
		if sameGuest(candidate, other) {
			return apperr.Conflict("you already have a booking at table %s on %s for %s",
				other.TableNumber, other.DateString(), other.TimeSlot())
		}
		return apperr.Conflict("table %s is already booked on %s for %s",
			tableLabel(other), other.DateString(), other.TimeSlot())
	}
	return nil
}

func sameGuest(a, b *model.Reservation) bool {
	return a.UserEmail != "" && strings.EqualFold(a.UserEmail, b.UserEmail)
}

func tableLabel(r *model.Reservation) string {
	if r.TableNumber != "" {
		return r.TableNumber
	}
	return r.TableID
}
