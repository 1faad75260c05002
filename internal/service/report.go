package service

import (
	"context"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/model"
)

// ReportAggregator collects the data behind a completion report.
type ReportAggregator struct {
	users    UserStore
	orders   OrderStore
	feedback FeedbackStore
}

// NewReportAggregator wires the aggregator to its stores.
func NewReportAggregator(users UserStore, orders OrderStore, feedback FeedbackStore) *ReportAggregator {
	return &ReportAggregator{users: users, orders: orders, feedback: feedback}
}

// Build fetches the waiter, order and feedback for r and aggregates them.
// A missing waiter or order leaves the corresponding fields empty.
func (a *ReportAggregator) Build(ctx context.Context, r *model.Reservation) (model.ReservationReport, error) {
	var waiter *model.User
	if r.WaiterID != "" {
		u, err := optional(a.users.GetUser(ctx, r.WaiterID))
		if err != nil {
			return model.ReservationReport{}, apperr.Internal("load waiter", err)
		}
		waiter = u
	}
	order, err := optional(a.orders.GetOrderByReservation(ctx, r.ID))
	if err != nil {
		return model.ReservationReport{}, apperr.Internal("load order", err)
	}
	service, err := a.feedback.ListFeedback(ctx, r.ID, model.FeedbackService)
	if err != nil {
		return model.ReservationReport{}, apperr.Internal("load service feedback", err)
	}
	cuisine, err := a.feedback.ListFeedback(ctx, r.ID, model.FeedbackCuisine)
	if err != nil {
		return model.ReservationReport{}, apperr.Internal("load cuisine feedback", err)
	}
	return BuildReport(r, waiter, order, service, cuisine), nil
}

// BuildReport is the pure aggregation step.  Empty feedback sets report
// zero for both average and minimum.
func BuildReport(r *model.Reservation, waiter *model.User, order *model.Order, service, cuisine []model.Feedback) model.ReservationReport {
	rep := model.ReservationReport{
		Date:              r.DateString(),
		LocationID:        r.LocationID,
		Location:          r.LocationAddress,
		ReservationID:     r.ID,
		HoursWorked:       r.TimeTo.Sub(r.TimeFrom).Hours(),
		OrderRevenueCents: order.RevenueCents(),
	}
	if waiter != nil {
		rep.Waiter = waiter.FullName()
		rep.WaiterEmail = waiter.Email
	}
	if order != nil {
		rep.OrderID = order.ID
	}
	rep.AvgServiceFeedback, rep.MinServiceFeedback = feedbackStats(service)
	rep.AvgCuisineFeedback, rep.MinCuisineFeedback = feedbackStats(cuisine)
	return rep
}

func feedbackStats(rows []model.Feedback) (avg float64, min int) {
	if len(rows) == 0 {
		return 0, 0
	}
	sum := 0
	min = rows[0].Rate
	for _, f := range rows {
		sum += f.Rate
		if f.Rate < min {
			min = f.Rate
		}
	}
	return float64(sum) / float64(len(rows)), min
}
