package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/caminante/caminante-api/internal/middleware"
	"github.com/caminante/caminante-api/internal/model"
	"github.com/caminante/caminante-api/internal/queue"
	"github.com/caminante/caminante-api/internal/repository"
	queue_publisher "github.com/caminante/caminante-api/internal/service"
)

// SeatHandler exposes the seat reservation endpoints. All mutual
// exclusion lives in the repository's conditional updates; the handler
// only validates input, maps sentinel errors onto status codes,
// invalidates the route's cached seat map and emits best-effort events
// after a transition commits. JWT and role middleware run before every
// method, so a user id is always available.
type SeatHandler struct {
	Seats  *repository.SeatRepo
	Routes *repository.RouteRepo
	Cache  *middleware.CacheInvalidator // nil when caching is off
}

// NewSeatHandler constructs a SeatHandler. Both repositories are required.
func NewSeatHandler(seats *repository.SeatRepo, routes *repository.RouteRepo, cache *middleware.CacheInvalidator) *SeatHandler {
	if seats == nil || routes == nil {
		panic("nil repository passed to NewSeatHandler")
	}
	return &SeatHandler{Seats: seats, Routes: routes, Cache: cache}
}

// ListSeats handles GET /routes/:routeId/seats. It returns the
// occupancy snapshot of every seat on the route keyed by "row-column".
// A route that exists but has no provisioned seats yields an empty map;
// an unknown route yields 404.
func (h *SeatHandler) ListSeats(c echo.Context) error {
	routeID, ok := pathID(c, "routeId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid route id"})
	}
	ctx := c.Request().Context()
	exists, err := h.Routes.Exists(ctx, routeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "route not found"})
	}
	seats, err := h.Seats.OccupancyByRoute(ctx, routeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "seats": seats})
}

type reserveReq struct {
	Row    *uint32 `json:"row"`
	Column *uint32 `json:"column"`
}

// Reserve handles POST /routes/:routeId/seats/reserve. The transition
// from free to occupied happens as a single compare-and-swap in the
// repository, so when several requests race for the same seat exactly
// one gets 200 and the rest get 409 with the seat unchanged.
func (h *SeatHandler) Reserve(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	routeID, ok := pathID(c, "routeId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid route id"})
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if req.Row == nil || req.Column == nil || *req.Row == 0 || *req.Column == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "row and column are required"})
	}
	row, col := *req.Row, *req.Column

	ctx := c.Request().Context()
	if err := h.Seats.Reserve(ctx, routeID, row, col, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "seat not found"})
		case errors.Is(err, repository.ErrSeatTaken):
			return c.JSON(http.StatusConflict, echo.Map{"message": "seat already taken"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to reserve seat"})
		}
	}

	h.Cache.Bump(ctx, seatMapScope(routeID))
	h.publishEvent(ctx, queue.SeatReserved, routeID, row, col, userID)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "seat reserved",
		"seat": echo.Map{
			"route_id": routeID,
			"row":      row,
			"column":   col,
			"label":    model.SeatLabel(row, col),
		},
	})
}

// Cancel handles DELETE /my-reservations/:routeId/:row/:column. The
// ownership predicate is part of the conditional update, and every
// failure mode comes back as 404 so a caller cannot probe who holds a
// seat.
func (h *SeatHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	routeID, ok := pathID(c, "routeId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid route id"})
	}
	row, okRow := pathID(c, "row")
	col, okCol := pathID(c, "column")
	if !okRow || !okCol || row > 1<<31 || col > 1<<31 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid seat position"})
	}

	ctx := c.Request().Context()
	if err := h.Seats.Cancel(ctx, routeID, uint32(row), uint32(col), userID); err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to cancel reservation"})
	}

	h.Cache.Bump(ctx, seatMapScope(routeID))
	h.publishEvent(ctx, queue.SeatCancelled, routeID, uint32(row), uint32(col), userID)
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation cancelled"})
}

// ListMyReservations handles GET /my-reservations. Occupied seats owned
// by the caller are joined with the route catalog; a user with no
// reservations gets an empty array.
func (h *SeatHandler) ListMyReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	reservations, err := h.Seats.ListReservationsByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "reservations": reservations})
}

// publishEvent emits a seat event in the background. The reservation
// already committed; a broker outage only costs the audit line.
func (h *SeatHandler) publishEvent(ctx context.Context, kind string, routeID uint64, row, col uint32, userID uint64) {
	ev := queue.SeatEvent{
		Kind:       kind,
		RouteID:    routeID,
		Row:        row,
		Column:     col,
		UserID:     userID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if rt, err := h.Routes.GetByID(ctx, routeID); err == nil {
		ev.Destination = rt.Destination
		ev.Price = rt.Price
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishSeatEvent(pubCtx, ev)
	}()
}
