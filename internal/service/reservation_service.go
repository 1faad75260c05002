package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/schedule"
)

// EventReservationCompleted is the event type under which completion
// reports are published.
const EventReservationCompleted = "reservation.completed"

// DefaultEditCutoff is how long before its start a reservation freezes.
const DefaultEditCutoff = 30 * time.Minute

// Config holds the tunables of the reservation engine.
type Config struct {
	Catalog         schedule.Catalog
	Boundary        schedule.BoundaryRule
	EditCutoff      time.Duration
	FeedbackBaseURL string
}

// Deps bundles the collaborators of ReservationService.  Every field is
// required.
type Deps struct {
	Reservations ReservationStore
	Tables       TableStore
	Locations    LocationStore
	Users        UserStore
	PreOrders    PreOrderStore
	Orders       OrderStore
	Feedback     FeedbackStore
	Tokens       TokenMinter
	Events       EventSink
	QR           QREncoder
}

// CompletionResult is returned by Complete.  FeedbackURL and QRCode are
// empty unless the reservation was made for a visitor.
type CompletionResult struct {
	Reservation *model.Reservation
	Report      model.ReservationReport
	FeedbackURL string
	QRCode      []byte
}

// ReservationService drives the reservation lifecycle.
type ReservationService struct {
	deps         Deps
	cfg          Config
	availability *AvailabilityCalculator
	conflicts    ConflictDetector
	waiters      *WaiterAssigner
	reports      *ReportAggregator
	log          *log.Logger
	now          func() time.Time
}

// Option customises a ReservationService.
type Option func(*ReservationService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *ReservationService) { s.now = now }
}

// NewReservationService builds the engine.  A nil logger discards output.
func NewReservationService(deps Deps, cfg Config, logger *log.Logger, opts ...Option) *ReservationService {
	if cfg.EditCutoff <= 0 {
		cfg.EditCutoff = DefaultEditCutoff
	}
	if logger == nil {
		logger = log.New("reservations")
		logger.SetLevel(log.OFF)
	}
	s := &ReservationService{
		deps:         deps,
		cfg:          cfg,
		availability: NewAvailabilityCalculator(deps.Locations, deps.Tables, deps.Reservations, cfg.Catalog, cfg.Boundary),
		conflicts:    ConflictDetector{Boundary: cfg.Boundary},
		waiters:      NewWaiterAssigner(deps.Users, deps.Reservations),
		reports:      NewReportAggregator(deps.Users, deps.Orders, deps.Feedback),
		log:          logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Slots returns the bookable slot grid.
func (s *ReservationService) Slots() []model.TimeSlot {
	return s.cfg.Catalog.Generate()
}

// Availability parses the raw query parameters and computes per-table
// free slots.  requested may be empty.
func (s *ReservationService) Availability(ctx context.Context, locationID, date string, guests int, requested string) ([]TableAvailability, error) {
	d, err := model.ParseDate(date)
	if err != nil {
		return nil, apperr.InvalidField("date", "date must be a valid YYYY-MM-DD calendar date")
	}
	q := AvailabilityQuery{LocationID: locationID, Date: d, Guests: guests}
	if strings.TrimSpace(requested) != "" {
		t, err := model.ParseTimeOfDay(requested)
		if err != nil {
			return nil, apperr.InvalidField("time", "time must be HH:MM")
		}
		q.RequestedTime = &t
	}
	return s.availability.Compute(ctx, q)
}

// Upsert creates a reservation or edits one that is still RESERVED.  The
// request variant decides who the guest is and who serves them: customers
// get the least busy waiter on creation, staff bookings are served by the
// submitting waiter, and edits keep the existing waiter.
func (s *ReservationService) Upsert(ctx context.Context, actor Actor, req BookingRequest) (*model.Reservation, error) {
	p, err := parseBooking(req.bookingDetails())
	if err != nil {
		return nil, err
	}
	if _, ok := s.cfg.Catalog.Lookup(p.slot.Start, p.slot.End); !ok {
		if !s.cfg.Catalog.WithinHours(p.slot.Start, p.slot.End) {
			return nil, apperr.Conflict("%s is outside working hours", p.slot)
		}
		return nil, apperr.Conflict("%s is not a bookable time slot", p.slot)
	}
	now := s.now()
	if p.slot.Start.On(p.date).Before(now) {
		return nil, apperr.Conflict("cannot book a time slot in the past")
	}

	loc, err := s.deps.Locations.GetLocation(ctx, p.LocationID)
	if err != nil {
		return nil, storeErr("location", p.LocationID, err)
	}
	table, err := s.deps.Tables.GetTable(ctx, p.TableID)
	if err != nil {
		return nil, storeErr("table", p.TableID, err)
	}
	if table.LocationID != loc.ID {
		return nil, apperr.NotFound("table", p.TableID)
	}
	if p.GuestsNumber > table.Capacity {
		return nil, apperr.Conflict("table %s seats %d guests, but %d were requested",
			table.ID, table.Capacity, p.GuestsNumber)
	}

	res := &model.Reservation{
		LocationID:      loc.ID,
		LocationAddress: loc.Address,
		TableID:         table.ID,
		TableNumber:     table.TableNumber,
		TableCapacity:   table.Capacity,
		Date:            p.date,
		TimeFrom:        p.slot.Start,
		TimeTo:          p.slot.End,
		GuestsNumber:    p.GuestsNumber,
		Status:          model.StatusReserved,
	}

	staffWaiter := ""
	switch r := req.(type) {
	case CustomerRequest:
		if err := s.fillCustomer(ctx, res, actor.Email); err != nil {
			return nil, err
		}
	case StaffRequest:
		if err := s.requireWaiterAt(ctx, actor, loc.ID); err != nil {
			return nil, err
		}
		if err := s.fillStaffClient(ctx, res, r); err != nil {
			return nil, err
		}
		staffWaiter = actor.UserID
	default:
		return nil, apperr.BadRequest("unsupported booking request")
	}

	editing := p.ID != ""
	if editing {
		existing, err := s.deps.Reservations.GetReservation(ctx, p.ID)
		if err != nil {
			return nil, storeErr("reservation", p.ID, err)
		}
		if err := s.checkEditable(existing, actor, now); err != nil {
			return nil, err
		}
		pre, err := optional(s.deps.PreOrders.GetPreOrderByReservation(ctx, existing.ID))
		if err != nil {
			return nil, apperr.Internal("load pre-order", err)
		}
		res.ID = existing.ID
		res.WaiterID = existing.WaiterID
		res.PreOrderCount = pre.ActiveQuantity()
		res.OrderCount = existing.OrderCount
		res.FeedbackToken = existing.FeedbackToken
		res.Version = existing.Version
		res.CreatedAt = existing.CreatedAt
	} else {
		res.ID = uuid.NewString()
		res.CreatedAt = now
	}

	if !editing {
		if staffWaiter != "" {
			res.WaiterID = staffWaiter
		} else {
			id, err := s.waiters.AssignLeastBusy(ctx, res.LocationID, res.Date)
			if err != nil {
				return nil, err
			}
			res.WaiterID = id
		}
	}

	res.UpdatedAt = now
	saved, err := s.deps.Reservations.SaveIfFree(ctx, res, func(sameTable []model.Reservation) error {
		return s.conflicts.Check(res, sameTable)
	})
	if err != nil {
		return nil, storeErr("reservation", res.ID, err)
	}
	if editing {
		s.log.Infof("reservation %s updated: table=%s date=%s slot=%s", saved.ID, saved.TableID, saved.DateString(), saved.TimeSlot())
	} else {
		s.log.Infof("reservation %s created: table=%s date=%s slot=%s waiter=%s", saved.ID, saved.TableID, saved.DateString(), saved.TimeSlot(), saved.WaiterID)
	}
	return saved, nil
}

func (s *ReservationService) fillCustomer(ctx context.Context, res *model.Reservation, email string) error {
	if email == "" {
		return apperr.Unauthorized("customer identity is required")
	}
	u, err := s.deps.Users.GetUserByEmail(ctx, email)
	if err != nil {
		return storeErr("user", email, err)
	}
	res.ClientType = model.ClientCustomer
	res.UserEmail = u.Email
	res.UserInfo = customerInfo(u)
	return nil
}

func (s *ReservationService) fillStaffClient(ctx context.Context, res *model.Reservation, r StaffRequest) error {
	switch r.ClientType {
	case model.ClientCustomer:
		if strings.TrimSpace(r.CustomerEmail) == "" {
			return apperr.InvalidField("customerEmail", "customerEmail is required for customer bookings")
		}
		u, err := s.deps.Users.GetUserByEmail(ctx, r.CustomerEmail)
		if err != nil {
			return storeErr("user", r.CustomerEmail, err)
		}
		res.ClientType = model.ClientCustomer
		res.UserEmail = u.Email
		res.UserInfo = customerInfo(u)
	case model.ClientVisitor:
		res.ClientType = model.ClientVisitor
		res.UserInfo = "Visitor"
		if name := strings.TrimSpace(r.VisitorName); name != "" {
			res.UserInfo = "Visitor " + name
		}
	default:
		return apperr.InvalidField("clientType", "clientType must be CUSTOMER or VISITOR")
	}
	return nil
}

func customerInfo(u *model.User) string {
	if name := u.FullName(); name != "" {
		return "Customer " + name
	}
	return "Customer " + u.Email
}

// requireWaiterAt checks that actor is a waiter working at locationID.
func (s *ReservationService) requireWaiterAt(ctx context.Context, actor Actor, locationID string) error {
	if actor.Role != model.RoleWaiter {
		return apperr.Unauthorized("only waiters can book on behalf of guests")
	}
	w, err := s.deps.Users.GetUser(ctx, actor.UserID)
	if err != nil {
		return storeErr("waiter", actor.UserID, err)
	}
	if w.Role != model.RoleWaiter || w.LocationID != locationID {
		return apperr.Unauthorized("waiter is not assigned to this location")
	}
	return nil
}

func (s *ReservationService) checkEditable(existing *model.Reservation, actor Actor, now time.Time) error {
	if existing.Status != model.StatusReserved {
		return apperr.Conflict("reservation %s is %s and can no longer be modified", existing.ID, existing.Status)
	}
	isGuest := existing.UserEmail != "" && strings.EqualFold(existing.UserEmail, actor.Email)
	isWaiter := existing.WaiterID != "" && existing.WaiterID == actor.UserID
	if !isGuest && !isWaiter {
		return apperr.Unauthorized("only the guest or the assigned waiter can modify this reservation")
	}
	if !now.Before(existing.StartsAt().Add(-s.cfg.EditCutoff)) {
		return apperr.Conflict("reservations cannot be modified less than %d minutes before the start", int(s.cfg.EditCutoff/time.Minute))
	}
	return nil
}

// StartService moves a reservation to IN_PROGRESS and merges the submitted
// pre-order into the live order, one unit per AddDish call.
func (s *ReservationService) StartService(ctx context.Context, actor Actor, id string) (*model.Reservation, error) {
	res, err := s.deps.Reservations.GetReservation(ctx, id)
	if err != nil {
		return nil, storeErr("reservation", id, err)
	}
	if actor.UserID == "" || res.WaiterID != actor.UserID {
		return nil, apperr.Unauthorized("only the assigned waiter can start service")
	}
	if res.Status != model.StatusReserved {
		return nil, apperr.Conflict("reservation %s is %s, expected %s", res.ID, res.Status, model.StatusReserved)
	}

	pre, err := optional(s.deps.PreOrders.GetPreOrderByReservation(ctx, res.ID))
	if err != nil {
		return nil, apperr.Internal("load pre-order", err)
	}
	if pre != nil && pre.Status == model.PreOrderSubmitted && len(pre.Items) > 0 {
		if err := s.mergePreOrder(ctx, res.ID, pre); err != nil {
			return nil, err
		}
	}
	order, err := optional(s.deps.Orders.GetOrderByReservation(ctx, res.ID))
	if err != nil {
		return nil, apperr.Internal("load order", err)
	}

	res.OrderCount = order.Quantity()
	res.Status = model.StatusInProgress
	res.UpdatedAt = s.now()
	saved, err := s.deps.Reservations.Upsert(ctx, res)
	if err != nil {
		return nil, storeErr("reservation", res.ID, err)
	}
	s.log.Infof("reservation %s started: orderCount=%d", saved.ID, saved.OrderCount)
	return saved, nil
}

// mergePreOrder adds the confirmed pre-order units that are not on the
// order yet.  Units already present count towards their item, so a start
// retried after a partial merge completes it without duplicating dishes.
func (s *ReservationService) mergePreOrder(ctx context.Context, reservationID string, pre *model.PreOrder) error {
	order, err := optional(s.deps.Orders.GetOrderByReservation(ctx, reservationID))
	if err != nil {
		return apperr.Internal("load order", err)
	}
	have := make(map[string]int)
	if order != nil {
		for _, l := range order.Lines {
			have[l.DishID] += l.Quantity
		}
	}
	for _, item := range pre.Items {
		if item.Status != model.ItemConfirmed {
			continue
		}
		missing := item.Quantity - have[item.DishID]
		have[item.DishID] = max(0, -missing)
		for i := 0; i < missing; i++ {
			if err := s.deps.Orders.AddDish(ctx, reservationID, item.DishID); err != nil {
				return apperr.Internal("add pre-ordered dish", err)
			}
		}
	}
	return nil
}

// Complete finishes a reservation.  The completion report is built and
// published first; a publish failure is logged and does not abort the
// transition.  Visitor reservations additionally receive an anonymous
// feedback token and a QR code for the feedback URL.
func (s *ReservationService) Complete(ctx context.Context, actor Actor, id string) (*CompletionResult, error) {
	res, err := s.deps.Reservations.GetReservation(ctx, id)
	if err != nil {
		return nil, storeErr("reservation", id, err)
	}
	if actor.Role != model.RoleAdmin && (actor.UserID == "" || res.WaiterID != actor.UserID) {
		return nil, apperr.Unauthorized("only the assigned waiter or an admin can complete a reservation")
	}
	switch res.Status {
	case model.StatusFinished:
		return nil, apperr.Conflict("reservation %s is already finished", res.ID)
	case model.StatusCancelled:
		return nil, apperr.Conflict("reservation %s is cancelled", res.ID)
	}

	report, err := s.reports.Build(ctx, res)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Events.Publish(ctx, EventReservationCompleted, report); err != nil {
		s.log.Warnf("reservation %s: publish %s failed: %v", res.ID, EventReservationCompleted, err)
	}

	out := &CompletionResult{Report: report}
	if res.ClientType == model.ClientVisitor {
		token, err := s.deps.Tokens.MintFeedbackToken(res.ID)
		if err != nil {
			return nil, apperr.Internal("mint feedback token", err)
		}
		res.FeedbackToken = token
		out.FeedbackURL = feedbackURL(s.cfg.FeedbackBaseURL, token)
		out.QRCode, err = s.deps.QR.Encode(out.FeedbackURL)
		if err != nil {
			return nil, apperr.Internal("encode feedback qr", err)
		}
	}

	res.Status = model.StatusFinished
	res.UpdatedAt = s.now()
	saved, err := s.deps.Reservations.Upsert(ctx, res)
	if err != nil {
		return nil, storeErr("reservation", res.ID, err)
	}
	out.Reservation = saved
	s.log.Infof("reservation %s finished: revenue=%d hours=%.2f", saved.ID, report.OrderRevenueCents, report.HoursWorked)
	return out, nil
}

func feedbackURL(base, token string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

// Cancel moves a RESERVED reservation to CANCELLED.  Customers may cancel
// their own bookings, waiters those they serve or that belong to their
// location, admins any.
func (s *ReservationService) Cancel(ctx context.Context, actor Actor, id string) (*model.Reservation, error) {
	res, err := s.deps.Reservations.GetReservation(ctx, id)
	if err != nil {
		return nil, storeErr("reservation", id, err)
	}
	if err := s.authorizeAccess(ctx, actor, res, "cancel"); err != nil {
		return nil, err
	}
	switch res.Status {
	case model.StatusFinished:
		return nil, apperr.Conflict("reservation %s is already finished", res.ID)
	case model.StatusInProgress:
		return nil, apperr.Conflict("cannot cancel a reservation that is in progress")
	case model.StatusCancelled:
		return nil, apperr.Conflict("reservation %s is already cancelled", res.ID)
	}
	saved, err := s.deps.Reservations.Cancel(ctx, res.ID, res.Version)
	if err != nil {
		return nil, storeErr("reservation", res.ID, err)
	}
	s.log.Infof("reservation %s cancelled by %s %s", saved.ID, actor.Role, actor.UserID)
	return saved, nil
}

// authorizeAccess applies the per-role ownership rules shared by Cancel
// and Get.
func (s *ReservationService) authorizeAccess(ctx context.Context, actor Actor, res *model.Reservation, action string) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleCustomer:
		if res.UserEmail != "" && strings.EqualFold(res.UserEmail, actor.Email) {
			return nil
		}
		return apperr.Unauthorized("customers can only " + action + " their own reservations")
	case model.RoleWaiter:
		if res.WaiterID != "" && res.WaiterID == actor.UserID {
			return nil
		}
		w, err := optional(s.deps.Users.GetUser(ctx, actor.UserID))
		if err != nil {
			return apperr.Internal("load waiter", err)
		}
		if w != nil && w.LocationID != "" && w.LocationID == res.LocationID {
			return nil
		}
		return apperr.Unauthorized("waiters can only " + action + " reservations at their location")
	}
	return apperr.Unauthorized("role " + string(actor.Role) + " cannot " + action + " reservations")
}

// Get returns one reservation, subject to the same ownership rules as
// Cancel.
func (s *ReservationService) Get(ctx context.Context, actor Actor, id string) (*model.Reservation, error) {
	res, err := s.deps.Reservations.GetReservation(ctx, id)
	if err != nil {
		return nil, storeErr("reservation", id, err)
	}
	if err := s.authorizeAccess(ctx, actor, res, "view"); err != nil {
		return nil, err
	}
	return res, nil
}

// ListForCustomer returns the caller's reservations.
func (s *ReservationService) ListForCustomer(ctx context.Context, actor Actor) ([]model.Reservation, error) {
	if actor.Email == "" {
		return nil, apperr.Unauthorized("customer identity is required")
	}
	list, err := s.deps.Reservations.ListByEmail(ctx, actor.Email)
	if err != nil {
		return nil, apperr.Internal("list reservations", err)
	}
	return list, nil
}

// ListForWaiter returns the reservations assigned to the calling waiter on
// date (YYYY-MM-DD).
func (s *ReservationService) ListForWaiter(ctx context.Context, actor Actor, date string) ([]model.Reservation, error) {
	if actor.Role != model.RoleWaiter {
		return nil, apperr.Unauthorized("only waiters have an assignment list")
	}
	d, err := model.ParseDate(date)
	if err != nil {
		return nil, apperr.InvalidField("date", "date must be a valid YYYY-MM-DD calendar date")
	}
	list, err := s.deps.Reservations.ListByWaiterOnDate(ctx, actor.UserID, d)
	if err != nil {
		return nil, apperr.Internal("list reservations", err)
	}
	return list, nil
}
