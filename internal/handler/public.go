package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/service"
)

// Availability computes free slots per table.
type Availability interface {
	Slots() []model.TimeSlot
	Availability(ctx context.Context, locationID, date string, guests int, requested string) ([]service.TableAvailability, error)
}

// FeedbackVerifier resolves a feedback token to its reservation id.
type FeedbackVerifier interface {
	Parse(token string) (string, error)
}

// PublicHandler exposes the unauthenticated endpoints.
type PublicHandler struct {
	Avail    Availability
	Feedback FeedbackVerifier
}

func NewPublicHandler(a Availability, f FeedbackVerifier) *PublicHandler {
	return &PublicHandler{Avail: a, Feedback: f}
}

// Slots handles GET /v1/slots.
func (h *PublicHandler) Slots(c echo.Context) error {
	slots := h.Avail.Slots()
	out := make([]echo.Map, 0, len(slots))
	for _, s := range slots {
		out = append(out, echo.Map{"start": s.Start, "end": s.End, "label": s.String()})
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": out})
}

// Availability handles GET /v1/locations/:id/availability?date=&guests=&time=.
// guests defaults to 1.
func (h *PublicHandler) Availability(c echo.Context) error {
	guests := 1
	if g := strings.TrimSpace(c.QueryParam("guests")); g != "" {
		n, err := strconv.Atoi(g)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "guests must be an integer"})
		}
		guests = n
	}
	tables, err := h.Avail.Availability(c.Request().Context(), c.Param("id"), c.QueryParam("date"), guests, c.QueryParam("time"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"locationId": c.Param("id"),
		"date":       c.QueryParam("date"),
		"tables":     toAvailabilityViews(tables),
	})
}

// VerifyFeedback handles GET /v1/feedback/verify?token=.
func (h *PublicHandler) VerifyFeedback(c echo.Context) error {
	token := strings.TrimSpace(c.QueryParam("token"))
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	id, err := h.Feedback.Parse(token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid feedback token"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservationId": id, "role": model.RoleVisitor})
}
