// Package router wires the HTTP route surface onto Echo. Public browse
// endpoints carry no middleware; everything that mutates state sits
// behind JWT auth, and space administration additionally behind the
// ADMIN role.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-space-reservation/internal/handler"
	"github.com/iliyamo/campus-space-reservation/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Register,
// login, refresh and logout live under /v1/auth and need no session;
// /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints:
// space listing, space detail, per-space reservations and the
// availability probe. The optional cache middleware is applied here
// because these responses are read-heavy and safe to serve stale for
// a few seconds.
func RegisterPublic(e *echo.Echo, s *handler.SpaceHandler, r *handler.ReservationHandler, cache echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{}
	if cache != nil {
		mws = append(mws, cache)
	}
	e.GET("/v1/spaces", s.ListSpaces, mws...)
	e.GET("/v1/spaces/:id", s.GetSpace, mws...)
	e.GET("/v1/spaces/:id/reservations", r.ListSpaceReservations, mws...)
	e.GET("/v1/spaces/:id/availability", r.CheckAvailability, mws...)
}

// RegisterReservations registers the authenticated reservation
// endpoints. Any logged-in user may book, list, inspect, reschedule
// and cancel; ownership rules are enforced in the service layer.
func RegisterReservations(e *echo.Echo, r *handler.ReservationHandler, jwtSecret string) {
	g := e.Group("/v1/reservations")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN", "USER"))
	g.POST("", r.CreateReservation)
	g.GET("", r.ListReservations)
	g.GET("/:id", r.GetReservation)
	g.PATCH("/:id/interval", r.UpdateReservationInterval)
	g.DELETE("/:id", r.CancelReservation)
}

// RegisterAdmin registers the administrator endpoints: space CRUD and
// the reservation approval workflow.
func RegisterAdmin(e *echo.Echo, s *handler.SpaceHandler, r *handler.ReservationHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))
	g.POST("/spaces", s.CreateSpace)
	g.PUT("/spaces/:id", s.UpdateSpace)
	g.PATCH("/spaces/:id/status", s.UpdateSpaceStatus)
	g.DELETE("/spaces/:id", s.DeleteSpace)
	g.PATCH("/reservations/:id/status", r.SetReservationStatus)
}
