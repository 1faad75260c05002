package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusReserved   ReservationStatus = "RESERVED"
	StatusInProgress ReservationStatus = "IN_PROGRESS"
	StatusFinished   ReservationStatus = "FINISHED"
	StatusCancelled  ReservationStatus = "CANCELLED"
)

// Active reports whether a reservation in this state still occupies its
// table.  Only cancelled reservations free the slot.
func (s ReservationStatus) Active() bool {
	return s != StatusCancelled
}

// Terminal reports whether no further transition is allowed.
func (s ReservationStatus) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// ClientType distinguishes registered customers from walk-in visitors.
type ClientType string

const (
	ClientCustomer ClientType = "CUSTOMER"
	ClientVisitor  ClientType = "VISITOR"
)

// Reservation is a time-bounded booking of one table at one location.  It
// corresponds to a row in the `reservations` table and is never physically
// deleted; cancellation flips Status.
//
// Fields:
//
//	ID              – UUID primary key.
//	LocationID      – location owning the table.
//	LocationAddress – denormalised address shown to guests and staff.
//	TableID         – reserved table.
//	TableNumber     – human table number at the location.
//	TableCapacity   – seats at the table when the booking was made.
//	Date            – service day (UTC midnight).
//	TimeFrom/TimeTo – slot boundaries; always one catalog slot.
//	GuestsNumber    – party size, 1..TableCapacity.
//	Status          – lifecycle state.
//	ClientType      – CUSTOMER or VISITOR.
//	UserEmail       – customer email (empty for visitors).
//	UserInfo        – display string for the party.
//	WaiterID        – assigned waiter (empty when unassigned).
//	PreOrderCount   – confirmed pre-ordered units.
//	OrderCount      – units on the live order.
//	FeedbackToken   – anonymous feedback token issued to visitors.
//	Version         – optimistic concurrency counter, bumped on every write.
type Reservation struct {
	ID              string
	LocationID      string
	LocationAddress string
	TableID         string
	TableNumber     string
	TableCapacity   int
	Date            time.Time
	TimeFrom        TimeOfDay
	TimeTo          TimeOfDay
	GuestsNumber    int
	Status          ReservationStatus
	ClientType      ClientType
	UserEmail       string
	UserInfo        string
	WaiterID        string
	PreOrderCount   int
	OrderCount      int
	FeedbackToken   string
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Slot returns the reservation's [TimeFrom, TimeTo) window.
func (r *Reservation) Slot() TimeSlot {
	return TimeSlot{Start: r.TimeFrom, End: r.TimeTo}
}

// TimeSlot is the derived "HH:MM - HH:MM" label.
func (r *Reservation) TimeSlot() string {
	return r.Slot().String()
}

// DateString renders Date as YYYY-MM-DD.
func (r *Reservation) DateString() string {
	return r.Date.Format(DateLayout)
}

// StartsAt is the absolute UTC start instant.
func (r *Reservation) StartsAt() time.Time {
	return r.TimeFrom.On(r.Date)
}
