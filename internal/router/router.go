// Package router wires HTTP routes to their handlers and middleware.
// Each Register* function owns one area of the API so main can compose
// exactly the surface it needs.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/caminante/caminante-api/internal/handler"
	"github.com/caminante/caminante-api/internal/middleware"
)

// RegisterHealth exposes the unauthenticated health check.
func RegisterHealth(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Login, register,
// refresh and logout take no credential; /api/me requires a valid
// access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api")
	g.POST("/login", a.Login)
	g.POST("/register", a.Register)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}
