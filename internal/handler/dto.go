package handler

import (
	"encoding/base64"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/service"
)

// bookingBody is the JSON accepted by the create and edit endpoints.
// Staff-only fields are ignored on customer routes.
type bookingBody struct {
	LocationID    string `json:"locationId"`
	TableID       string `json:"tableId"`
	Date          string `json:"date"`
	TimeFrom      string `json:"timeFrom"`
	TimeTo        string `json:"timeTo"`
	GuestsNumber  int    `json:"guestsNumber"`
	ClientType    string `json:"clientType,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	VisitorName   string `json:"visitorName,omitempty"`
}

func (b bookingBody) details(id string) service.BookingDetails {
	return service.BookingDetails{
		ID:           id,
		LocationID:   b.LocationID,
		TableID:      b.TableID,
		Date:         b.Date,
		TimeFrom:     b.TimeFrom,
		TimeTo:       b.TimeTo,
		GuestsNumber: b.GuestsNumber,
	}
}

type reservationView struct {
	ID              string                  `json:"id"`
	Status          model.ReservationStatus `json:"status"`
	LocationID      string                  `json:"locationId"`
	LocationAddress string                  `json:"locationAddress"`
	TableID         string                  `json:"tableId"`
	TableNumber     string                  `json:"tableNumber"`
	Date            string                  `json:"date"`
	TimeSlot        string                  `json:"timeSlot"`
	TimeFrom        model.TimeOfDay         `json:"timeFrom"`
	TimeTo          model.TimeOfDay         `json:"timeTo"`
	GuestsNumber    int                     `json:"guestsNumber"`
	ClientType      model.ClientType        `json:"clientType"`
	UserEmail       string                  `json:"userEmail,omitempty"`
	UserInfo        string                  `json:"userInfo"`
	WaiterID        string                  `json:"waiterId,omitempty"`
	PreOrderCount   int                     `json:"preOrderCount"`
	OrderCount      int                     `json:"orderCount"`
	Version         int                     `json:"version"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

func toView(r *model.Reservation) reservationView {
	return reservationView{
		ID:              r.ID,
		Status:          r.Status,
		LocationID:      r.LocationID,
		LocationAddress: r.LocationAddress,
		TableID:         r.TableID,
		TableNumber:     r.TableNumber,
		Date:            r.Date.Format(model.DateLayout),
		TimeSlot:        model.TimeSlot{Start: r.TimeFrom, End: r.TimeTo}.String(),
		TimeFrom:        r.TimeFrom,
		TimeTo:          r.TimeTo,
		GuestsNumber:    r.GuestsNumber,
		ClientType:      r.ClientType,
		UserEmail:       r.UserEmail,
		UserInfo:        r.UserInfo,
		WaiterID:        r.WaiterID,
		PreOrderCount:   r.PreOrderCount,
		OrderCount:      r.OrderCount,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toViews(rs []model.Reservation) []reservationView {
	out := make([]reservationView, 0, len(rs))
	for i := range rs {
		out = append(out, toView(&rs[i]))
	}
	return out
}

type tableAvailabilityView struct {
	TableID     string           `json:"tableId"`
	TableNumber string           `json:"tableNumber"`
	Capacity    int              `json:"capacity"`
	Slots       []model.TimeSlot `json:"availableSlots"`
}

func toAvailabilityViews(in []service.TableAvailability) []tableAvailabilityView {
	out := make([]tableAvailabilityView, 0, len(in))
	for _, ta := range in {
		out = append(out, tableAvailabilityView{
			TableID:     ta.Table.ID,
			TableNumber: ta.Table.TableNumber,
			Capacity:    ta.Table.Capacity,
			Slots:       ta.Slots,
		})
	}
	return out
}

type completionView struct {
	Reservation reservationView         `json:"reservation"`
	Report      model.ReservationReport `json:"report"`
	FeedbackURL string                  `json:"feedbackUrl,omitempty"`
	QRCodePNG   string                  `json:"qrCodePng,omitempty"` // base64
}

func toCompletionView(r *service.CompletionResult) completionView {
	v := completionView{
		Reservation: toView(r.Reservation),
		Report:      r.Report,
		FeedbackURL: r.FeedbackURL,
	}
	if len(r.QRCode) > 0 {
		v.QRCodePNG = base64.StdEncoding.EncodeToString(r.QRCode)
	}
	return v
}
