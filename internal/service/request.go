package service

import (
	"strings"
	"time"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/model"
)

// BookingDetails are the fields shared by every booking request.  ID is
// empty when creating a reservation and set when editing one.
type BookingDetails struct {
	ID           string
	LocationID   string
	TableID      string
	Date         string // YYYY-MM-DD
	TimeFrom     string // HH:MM
	TimeTo       string // HH:MM
	GuestsNumber int
}

// BookingRequest is either a CustomerRequest or a StaffRequest.
type BookingRequest interface {
	bookingDetails() BookingDetails
}

// CustomerRequest is a self-booking by an authenticated customer.
type CustomerRequest struct {
	BookingDetails
}

// StaffRequest is a booking made by a waiter on behalf of a registered
// customer (ClientType CUSTOMER, CustomerEmail set) or a walk-in visitor
// (ClientType VISITOR).
type StaffRequest struct {
	BookingDetails
	ClientType    model.ClientType
	CustomerEmail string
	VisitorName   string
}

func (r CustomerRequest) bookingDetails() BookingDetails { return r.BookingDetails }
func (r StaffRequest) bookingDetails() BookingDetails    { return r.BookingDetails }

// parsedBooking holds BookingDetails converted to typed values.
type parsedBooking struct {
	BookingDetails
	date time.Time
	slot model.TimeSlot
}

func parseBooking(d BookingDetails) (parsedBooking, error) {
	p := parsedBooking{BookingDetails: d}
	if strings.TrimSpace(d.LocationID) == "" {
		return p, apperr.InvalidField("locationId", "locationId is required")
	}
	if strings.TrimSpace(d.TableID) == "" {
		return p, apperr.InvalidField("tableId", "tableId is required")
	}
	date, err := model.ParseDate(d.Date)
	if err != nil {
		return p, apperr.InvalidField("date", "date must be a valid YYYY-MM-DD calendar date")
	}
	from, err := model.ParseTimeOfDay(d.TimeFrom)
	if err != nil {
		return p, apperr.InvalidField("timeFrom", "timeFrom must be HH:MM")
	}
	to, err := model.ParseTimeOfDay(d.TimeTo)
	if err != nil {
		return p, apperr.InvalidField("timeTo", "timeTo must be HH:MM")
	}
	if from >= to {
		return p, apperr.InvalidField("timeTo", "timeFrom must be before timeTo")
	}
	if d.GuestsNumber <= 0 {
		return p, apperr.InvalidField("guestsNumber", "guestsNumber must be a positive integer")
	}
	p.date = date
	p.slot = model.TimeSlot{Start: from, End: to}
	return p, nil
}
