// Package service implements the reservation scheduling engine: slot
// availability, double-booking detection, waiter assignment, the
// reservation state machine and the completion report.  Persistence,
// messaging, token issuance and QR rendering are reached through the
// narrow interfaces declared here and wired by cmd/server.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// ReservationStore persists reservations.  Implementations return
// repository.ErrNotFound for unknown ids and repository.ErrVersionConflict
// when Upsert or Cancel is called with a stale Version.
type ReservationStore interface {
	// Upsert inserts r when r.Version is zero and otherwise replaces the
	// stored row if its version still equals r.Version.  The stored copy,
	// with the bumped version, is returned.
	Upsert(ctx context.Context, r *model.Reservation) (*model.Reservation, error)
	// SaveIfFree behaves like Upsert but first passes the active
	// reservations on r's table for r's date to check.  The check and the
	// write are atomic against other SaveIfFree calls for that table, and
	// an error from check is returned unchanged.
	SaveIfFree(ctx context.Context, r *model.Reservation, check func(sameTable []model.Reservation) error) (*model.Reservation, error)
	Exists(ctx context.Context, id string) (bool, error)
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
	// ListByDateAndLocation returns active reservations only.
	ListByDateAndLocation(ctx context.Context, date time.Time, locationID string) ([]model.Reservation, error)
	// ListByDateLocationTable returns active reservations only.
	ListByDateLocationTable(ctx context.Context, date time.Time, locationID, tableID string) ([]model.Reservation, error)
	// CountForWaiterOnDate counts active reservations assigned to the waiter.
	CountForWaiterOnDate(ctx context.Context, waiterID string, date time.Time) (int, error)
	Cancel(ctx context.Context, id string, version int) (*model.Reservation, error)
	ListByEmail(ctx context.Context, email string) ([]model.Reservation, error)
	ListByWaiterOnDate(ctx context.Context, waiterID string, date time.Time) ([]model.Reservation, error)
}

// TableStore looks up tables.
type TableStore interface {
	GetTable(ctx context.Context, id string) (*model.Table, error)
	ListTablesByLocation(ctx context.Context, locationID string) ([]model.Table, error)
}

// LocationStore looks up locations.
type LocationStore interface {
	GetLocation(ctx context.Context, id string) (*model.Location, error)
}

// UserStore looks up users and waiters.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// ListWaitersByLocation returns waiters ordered by id.
	ListWaitersByLocation(ctx context.Context, locationID string) ([]model.User, error)
}

// PreOrderStore reads pre-orders.
type PreOrderStore interface {
	GetPreOrderByReservation(ctx context.Context, reservationID string) (*model.PreOrder, error)
}

// OrderStore reads and mutates live orders.
type OrderStore interface {
	GetOrderByReservation(ctx context.Context, reservationID string) (*model.Order, error)
	// AddDish adds one unit of the dish to the reservation's order,
	// creating the order on first use.
	AddDish(ctx context.Context, reservationID, dishID string) error
}

// FeedbackStore reads guest feedback.
type FeedbackStore interface {
	ListFeedback(ctx context.Context, reservationID string, typ model.FeedbackType) ([]model.Feedback, error)
}

// TokenMinter issues anonymous feedback tokens bound to a reservation.
type TokenMinter interface {
	MintFeedbackToken(reservationID string) (string, error)
}

// EventSink delivers domain events to the messaging layer.
type EventSink interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// QREncoder renders a URL as a PNG QR code.
type QREncoder interface {
	Encode(url string) ([]byte, error)
}

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	UserID string
	Email  string
	Role   model.Role
}
