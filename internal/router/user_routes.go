package router

import (
	"github.com/labstack/echo/v4"

	"github.com/caminante/caminante-api/internal/handler"
	"github.com/caminante/caminante-api/internal/middleware"
	"github.com/caminante/caminante-api/internal/model"
)

// RegisterUsers registers the user administration endpoints under
// /api/usuarios, keeping the original application's paths. Everything
// requires a token; the password change is open to any authenticated
// user because the handler enforces the self-or-admin predicate.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, jwtSecret string) {
	g := e.Group("/api/usuarios", middleware.JWTAuth(jwtSecret))

	admin := middleware.RequireRole(model.RoleAdmin)
	g.GET("", h.List, admin)
	g.PUT("/:id/modificar-rol", h.UpdateRole, admin)
	g.DELETE("/:id/eliminar", h.Delete, admin)

	g.PUT("/:id/modificar-password", h.UpdatePassword)
}
