package model

import "time"

// FeedbackType selects which aspect of the visit a rating refers to.
type FeedbackType string

const (
	FeedbackService FeedbackType = "SERVICE_QUALITY"
	FeedbackCuisine FeedbackType = "CUISINE_EXPERIENCE"
)

// Feedback is one guest rating (1..5) for a reservation.
type Feedback struct {
	ID            string
	ReservationID string
	Type          FeedbackType
	Rate          int
	Comment       string
	CreatedAt     time.Time
}

// ReservationReport is the per-completion operational summary published to
// the reporting pipeline.  It is built once and never persisted by the
// engine.
type ReservationReport struct {
	Date               string  `json:"date"`
	LocationID         string  `json:"locationId"`
	Location           string  `json:"location"`
	ReservationID      string  `json:"reservationId"`
	Waiter             string  `json:"waiter"`
	WaiterEmail        string  `json:"waiterEmail"`
	HoursWorked        float64 `json:"hoursWorked"`
	OrderID            string  `json:"orderId"`
	OrderRevenueCents  int64   `json:"orderRevenueCents"`
	AvgServiceFeedback float64 `json:"avgServiceFeedback"`
	AvgCuisineFeedback float64 `json:"avgCuisineFeedback"`
	MinServiceFeedback int     `json:"minServiceFeedback"`
	MinCuisineFeedback int     `json:"minCuisineFeedback"`
}

// CorrelationKey ties published reports to their reservation.
func (r ReservationReport) CorrelationKey() string { return r.ReservationID }
