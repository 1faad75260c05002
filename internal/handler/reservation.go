package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/service"
)

// Reservations is the subset of service.ReservationService the HTTP layer
// drives.
type Reservations interface {
	Upsert(ctx context.Context, actor service.Actor, req service.BookingRequest) (*model.Reservation, error)
	StartService(ctx context.Context, actor service.Actor, id string) (*model.Reservation, error)
	Complete(ctx context.Context, actor service.Actor, id string) (*service.CompletionResult, error)
	Cancel(ctx context.Context, actor service.Actor, id string) (*model.Reservation, error)
	Get(ctx context.Context, actor service.Actor, id string) (*model.Reservation, error)
	ListForCustomer(ctx context.Context, actor service.Actor) ([]model.Reservation, error)
	ListForWaiter(ctx context.Context, actor service.Actor, date string) ([]model.Reservation, error)
}

// LocationPurger drops cached availability after a write.
type LocationPurger interface {
	InvalidateLocation(ctx context.Context, locationID string) error
}

// ReservationHandler serves customer and staff reservation endpoints.  All
// routes sit behind JWTAuth, so the actor always comes from the token.
type ReservationHandler struct {
	Svc   Reservations
	Cache LocationPurger // optional
}

func NewReservationHandler(svc Reservations, cache LocationPurger) *ReservationHandler {
	return &ReservationHandler{Svc: svc, Cache: cache}
}

func actorFrom(c echo.Context) service.Actor {
	uid, email, role := middleware.Identity(c)
	return service.Actor{UserID: uid, Email: email, Role: model.Role(role)}
}

func (h *ReservationHandler) purge(c echo.Context, locationID string) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.InvalidateLocation(c.Request().Context(), locationID); err != nil {
		c.Logger().Warnf("purge availability cache for %s: %v", locationID, err)
	}
}

func (h *ReservationHandler) upsert(c echo.Context, build func(bookingBody) service.BookingRequest) error {
	var body bookingBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	actor := actorFrom(c)
	// An edit may move the booking to another location, freeing a slot
	// there as well.
	var previousLocation string
	if id := c.Param("id"); id != "" {
		if prev, err := h.Svc.Get(ctx, actor, id); err == nil {
			previousLocation = prev.LocationID
		}
	}
	res, err := h.Svc.Upsert(ctx, actor, build(body))
	if err != nil {
		return respondError(c, err)
	}
	h.purge(c, res.LocationID)
	if previousLocation != "" && previousLocation != res.LocationID {
		h.purge(c, previousLocation)
	}
	status := http.StatusOK
	if c.Request().Method == http.MethodPost {
		status = http.StatusCreated
	}
	return c.JSON(status, toView(res))
}

// CreateCustomer handles POST /v1/reservations.
func (h *ReservationHandler) CreateCustomer(c echo.Context) error {
	return h.upsert(c, func(b bookingBody) service.BookingRequest {
		return service.CustomerRequest{BookingDetails: b.details("")}
	})
}

// UpdateCustomer handles PUT /v1/reservations/:id.
func (h *ReservationHandler) UpdateCustomer(c echo.Context) error {
	id := c.Param("id")
	return h.upsert(c, func(b bookingBody) service.BookingRequest {
		return service.CustomerRequest{BookingDetails: b.details(id)}
	})
}

func staffRequest(id string, b bookingBody) service.BookingRequest {
	return service.StaffRequest{
		BookingDetails: b.details(id),
		ClientType:     model.ClientType(strings.ToUpper(strings.TrimSpace(b.ClientType))),
		CustomerEmail:  b.CustomerEmail,
		VisitorName:    b.VisitorName,
	}
}

// CreateStaff handles POST /v1/staff/reservations.
func (h *ReservationHandler) CreateStaff(c echo.Context) error {
	return h.upsert(c, func(b bookingBody) service.BookingRequest { return staffRequest("", b) })
}

// UpdateStaff handles PUT /v1/staff/reservations/:id.
func (h *ReservationHandler) UpdateStaff(c echo.Context) error {
	id := c.Param("id")
	return h.upsert(c, func(b bookingBody) service.BookingRequest { return staffRequest(id, b) })
}

// Start handles POST /v1/staff/reservations/:id/start.
func (h *ReservationHandler) Start(c echo.Context) error {
	res, err := h.Svc.StartService(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toView(res))
}

// Complete handles POST /v1/staff/reservations/:id/complete.  Visitor
// reservations carry the feedback URL and a base64 PNG QR code.
func (h *ReservationHandler) Complete(c echo.Context) error {
	out, err := h.Svc.Complete(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toCompletionView(out))
}

// Cancel handles DELETE /v1/reservations/:id.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	res, err := h.Svc.Cancel(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	h.purge(c, res.LocationID)
	return c.JSON(http.StatusOK, toView(res))
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	res, err := h.Svc.Get(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toView(res))
}

// ListMine handles GET /v1/my-reservations.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	rs, err := h.Svc.ListForCustomer(c.Request().Context(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": toViews(rs)})
}

// ListStaff handles GET /v1/staff/reservations?date=YYYY-MM-DD.
func (h *ReservationHandler) ListStaff(c echo.Context) error {
	rs, err := h.Svc.ListForWaiter(c.Request().Context(), actorFrom(c), c.QueryParam("date"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": toViews(rs)})
}
