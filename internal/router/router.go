// Package router registers the HTTP routes on an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
)

// Handlers groups everything the routes dispatch to.
type Handlers struct {
	Auth         *handler.AuthHandler
	Public       *handler.PublicHandler
	Reservations *handler.ReservationHandler
}

// Middleware are the optional cross-cutting layers.  Nil entries are
// skipped.
type Middleware struct {
	Cache     echo.MiddlewareFunc // availability and slot responses
	RateLimit echo.MiddlewareFunc // every /v1 route
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, h Handlers, mw Middleware) {
	e.GET("/healthz", handler.Health)

	pub := e.Group("/v1", optional(mw.RateLimit)...)
	cached := optional(mw.Cache)
	pub.GET("/slots", h.Public.Slots, cached...)
	pub.GET("/locations/:id/availability", h.Public.Availability, cached...)
	pub.GET("/feedback/verify", h.Public.VerifyFeedback)
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// identity endpoint under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, mw Middleware) {
	g := e.Group("/v1/auth", optional(mw.RateLimit)...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout works with either a refresh token in the body or a bearer
	// token, so it stays outside the JWT group.
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterReservations registers customer and staff reservation routes.
// Role checks here are coarse; ownership is enforced by the service.
func RegisterReservations(e *echo.Echo, r *handler.ReservationHandler, jwtSecret string, mw Middleware) {
	authed := chain(middleware.JWTAuth(jwtSecret), mw.RateLimit)

	shared := e.Group("/v1", authed...)
	shared.GET("/reservations/:id", r.Get)
	shared.DELETE("/reservations/:id", r.Cancel)

	customer := e.Group("/v1", chain(authed[0], mw.RateLimit, middleware.RequireRole("CUSTOMER"))...)
	customer.POST("/reservations", r.CreateCustomer)
	customer.PUT("/reservations/:id", r.UpdateCustomer)
	customer.GET("/my-reservations", r.ListMine)

	staff := e.Group("/v1/staff", chain(authed[0], mw.RateLimit, middleware.RequireRole("WAITER"))...)
	staff.POST("/reservations", r.CreateStaff)
	staff.PUT("/reservations/:id", r.UpdateStaff)
	staff.GET("/reservations", r.ListStaff)
	staff.POST("/reservations/:id/start", r.Start)

	complete := e.Group("/v1/staff", chain(authed[0], mw.RateLimit, middleware.RequireRole("WAITER", "ADMIN"))...)
	complete.POST("/reservations/:id/complete", r.Complete)
}

// Register wires every route group.
func Register(e *echo.Echo, h Handlers, jwtSecret string, mw Middleware) {
	RegisterRoutes(e, h, mw)
	RegisterAuth(e, h.Auth, jwtSecret, mw)
	RegisterReservations(e, h.Reservations, jwtSecret, mw)
}

func optional(m echo.MiddlewareFunc) []echo.MiddlewareFunc {
	return chain(m)
}

// chain drops nil middleware and returns a fresh slice.
func chain(ms ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(ms))
	for _, m := range ms {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
