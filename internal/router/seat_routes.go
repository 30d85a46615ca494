package router

import (
	"github.com/labstack/echo/v4"

	"github.com/caminante/caminante-api/internal/handler"
	"github.com/caminante/caminante-api/internal/middleware"
	"github.com/caminante/caminante-api/internal/model"
)

// RegisterSeats registers the seat reservation endpoints. The paths are
// the de facto contract of the existing frontend and must not change.
// Any authenticated role may reserve; the optional extra middleware
// (the response cache) applies to the seat map read only, never to the
// mutations, whose outcome must always reach storage.
func RegisterSeats(e *echo.Echo, h *handler.SeatHandler, jwtSecret string, cache ...echo.MiddlewareFunc) {
	g := e.Group(
		"",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RolePassenger),
	)

	g.GET("/routes/:routeId/seats", h.ListSeats, cache...)
	g.POST("/routes/:routeId/seats/reserve", h.Reserve)
	g.GET("/my-reservations", h.ListMyReservations)
	g.DELETE("/my-reservations/:routeId/:row/:column", h.Cancel)
}
