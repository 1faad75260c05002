package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/table-reservation/internal/apperr"
)

// WaiterAssigner picks the least loaded waiter at a location.
type WaiterAssigner struct {
	users        UserStore
	reservations ReservationStore
}

// NewWaiterAssigner wires the assigner to its stores.
func NewWaiterAssigner(users UserStore, reservations ReservationStore) *WaiterAssigner {
	return &WaiterAssigner{users: users, reservations: reservations}
}

// AssignLeastBusy returns the id of the waiter at locationID with the
// fewest active reservations on date.  Ties go to the waiter listed first
// by the store.  Counts are fetched concurrently; each is an independent
// read.
func (w *WaiterAssigner) AssignLeastBusy(ctx context.Context, locationID string, date time.Time) (string, error) {
	waiters, err := w.users.ListWaitersByLocation(ctx, locationID)
	if err != nil {
		return "", apperr.Internal("list waiters", err)
	}
	if len(waiters) == 0 {
		return "", apperr.NotFound("waiter", locationID)
	}

	counts := make([]int, len(waiters))
	g, gctx := errgroup.WithContext(ctx)
	for i := range waiters {
		i := i
		g.Go(func() error {
			n, err := w.reservations.CountForWaiterOnDate(gctx, waiters[i].ID, date)
			if err != nil {
				return err
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", apperr.Internal("count waiter reservations", err)
	}

	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] < counts[best] {
			best = i
		}
	}
	return waiters[best].ID, nil
}
