package router

import (
	"github.com/labstack/echo/v4"

	"github.com/caminante/caminante-api/internal/handler"
	"github.com/caminante/caminante-api/internal/middleware"
	"github.com/caminante/caminante-api/internal/model"
)

// RegisterRouteCatalog registers the route catalog under /api/rutas.
// Listing is available to every authenticated user; editing and seat
// provisioning are reserved for admins. The optional extra middleware
// (the response cache) applies to the read endpoint only.
func RegisterRouteCatalog(e *echo.Echo, h *handler.RouteHandler, jwtSecret string, cache ...echo.MiddlewareFunc) {
	g := e.Group("/api/rutas", middleware.JWTAuth(jwtSecret))

	g.GET("", h.List, cache...)

	admin := middleware.RequireRole(model.RoleAdmin)
	g.POST("", h.Create, admin)
	g.PUT("/:id", h.Update, admin)
	g.DELETE("/:id", h.Delete, admin)
	g.POST("/:id/asientos", h.ProvisionSeats, admin)
}
