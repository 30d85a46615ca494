package handler // handler implements the HTTP endpoints of the API

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Response cache scope names. The router registers the cached reads
// under the same names, so a Bump here invalidates exactly those
// entries.
const (
	RouteCatalogScope = "rutas"
	SeatMapScopeName  = "seats"
)

func seatMapScope(routeID uint64) string {
	return SeatMapScopeName + ":" + strconv.FormatUint(routeID, 10)
}

// getUserID extracts the authenticated user id stored in context by the
// JWT middleware. jwt.MapClaims decodes numbers as float64, so several
// representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole returns the role claim stored in context, or "" when absent.
func getRole(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	return n, err == nil && n > 0
}
