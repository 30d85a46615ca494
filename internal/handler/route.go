package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caminante/caminante-api/internal/middleware"
	"github.com/caminante/caminante-api/internal/model"
	"github.com/caminante/caminante-api/internal/repository"
)

// RouteHandler implements the route catalog endpoints. Listing is open
// to any authenticated user; create, update, delete and seat
// provisioning are admin-only via route group middleware. Catalog
// mutations invalidate the cached listing, and seat-grid changes
// invalidate the route's cached seat map.
type RouteHandler struct {
	Routes *repository.RouteRepo
	Seats  *repository.SeatRepo
	Cache  *middleware.CacheInvalidator // nil when caching is off
}

func NewRouteHandler(routes *repository.RouteRepo, seats *repository.SeatRepo, cache *middleware.CacheInvalidator) *RouteHandler {
	if routes == nil || seats == nil {
		panic("nil repository passed to NewRouteHandler")
	}
	return &RouteHandler{Routes: routes, Seats: seats, Cache: cache}
}

type routeResp struct {
	ID          uint64   `json:"id"`
	Destination string   `json:"destination"`
	Price       float64  `json:"price"`
	Schedules   []string `json:"schedules"`
	MapURL      string   `json:"map"`
}

func toRouteResp(rt model.Route) routeResp {
	return routeResp{
		ID:          rt.ID,
		Destination: rt.Destination,
		Price:       rt.Price,
		Schedules:   rt.Schedules,
		MapURL:      rt.MapURL,
	}
}

// List handles GET /api/rutas.
func (h *RouteHandler) List(c echo.Context) error {
	routes, err := h.Routes.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load routes"})
	}
	out := make([]routeResp, 0, len(routes))
	for _, rt := range routes {
		out = append(out, toRouteResp(rt))
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "routes": out})
}

type routeReq struct {
	Destination string   `json:"destination"`
	Price       *float64 `json:"price"`
	Schedules   []string `json:"schedules"`
	MapURL      string   `json:"map"`
}

// Create handles POST /api/rutas (admin only).
func (h *RouteHandler) Create(c echo.Context) error {
	var req routeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if req.Destination == "" || req.Price == nil || *req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "destination and a non-negative price are required"})
	}
	rt := model.Route{
		Destination: req.Destination,
		Price:       *req.Price,
		Schedules:   req.Schedules,
		MapURL:      req.MapURL,
	}
	if rt.Schedules == nil {
		rt.Schedules = []string{}
	}
	if err := h.Routes.Create(c.Request().Context(), &rt); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to create route"})
	}
	h.Cache.Bump(c.Request().Context(), RouteCatalogScope)
	return c.JSON(http.StatusCreated, echo.Map{"message": "route created", "route": toRouteResp(rt)})
}

// Update handles PUT /api/rutas/:id (admin only).
func (h *RouteHandler) Update(c echo.Context) error {
	routeID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid route id"})
	}
	var req routeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if req.Destination == "" || req.Price == nil || *req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "destination and a non-negative price are required"})
	}
	rt := model.Route{
		ID:          routeID,
		Destination: req.Destination,
		Price:       *req.Price,
		Schedules:   req.Schedules,
		MapURL:      req.MapURL,
	}
	if rt.Schedules == nil {
		rt.Schedules = []string{}
	}
	if err := h.Routes.Update(c.Request().Context(), rt); err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update route"})
	}
	h.Cache.Bump(c.Request().Context(), RouteCatalogScope)
	return c.JSON(http.StatusOK, echo.Map{"message": "route updated", "route": toRouteResp(rt)})
}

// Delete handles DELETE /api/rutas/:id (admin only). The route and its
// seat grid go together, inside one transaction, and the delete is
// refused while any seat is still occupied.
func (h *RouteHandler) Delete(c echo.Context) error {
	routeID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid route id"})
	}
	ctx := c.Request().Context()
	tx, err := h.Routes.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Seats.EnsureRouteFreeTx(ctx, tx, routeID); err != nil {
		if errors.Is(err, repository.ErrRouteInUse) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "route has occupied seats"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to check seats"})
	}
	if err := h.Seats.DeleteByRouteTx(ctx, tx, routeID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to delete seats"})
	}
	if err := h.Routes.DeleteTx(ctx, tx, routeID); err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to delete route"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to commit transaction"})
	}
	committed = true
	h.Cache.Bump(ctx, RouteCatalogScope)
	h.Cache.Bump(ctx, seatMapScope(routeID))
	return c.JSON(http.StatusOK, echo.Map{"message": "route deleted"})
}

type provisionReq struct {
	Rows    *uint32 `json:"rows"`
	Columns *uint32 `json:"columns"`
}

// ProvisionSeats handles POST /api/rutas/:id/asientos (admin only). It
// creates a rows x columns grid of free seats for the route. The insert
// is idempotent: seats that already exist keep their occupancy.
func (h *RouteHandler) ProvisionSeats(c echo.Context) error {
	routeID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid route id"})
	}
	var req provisionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if req.Rows == nil || req.Columns == nil || *req.Rows == 0 || *req.Columns == 0 ||
		*req.Rows > 100 || *req.Columns > 20 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "rows and columns must be between 1 and 100x20"})
	}

	ctx := c.Request().Context()
	exists, err := h.Routes.Exists(ctx, routeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "route not found"})
	}
	created, err := h.Seats.ProvisionGrid(ctx, routeID, *req.Rows, *req.Columns)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to provision seats"})
	}
	h.Cache.Bump(ctx, seatMapScope(routeID))
	return c.JSON(http.StatusCreated, echo.Map{"message": "seats provisioned", "created": created})
}
