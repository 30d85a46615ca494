package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caminante/caminante-api/internal/config"
	"github.com/caminante/caminante-api/internal/middleware"
	"github.com/caminante/caminante-api/internal/repository"
)

func newSeatHandlerMock(t *testing.T) (*SeatHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSeatHandler(repository.NewSeatRepo(db), repository.NewRouteRepo(db), nil), mock
}

// seatCtx builds an echo context carrying the claims JWTAuth would set.
// jwt.MapClaims decodes numeric claims as float64, so the test does too.
func seatCtx(t *testing.T, method, path, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("user_id", float64(userID))
	c.Set("role", "usuario")
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestListSeatsUnknownRoute(t *testing.T) {
	h, mock := newSeatHandlerMock(t)
	mock.ExpectQuery(`SELECT 1 FROM rutas`).WithArgs(uint64(99)).WillReturnError(sql.ErrNoRows)

	c, rec := seatCtx(t, http.MethodGet, "/", "", 7)
	c.SetParamNames("routeId")
	c.SetParamValues("99")

	require.NoError(t, h.ListSeats(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSeatsSnapshot(t *testing.T) {
	h, mock := newSeatHandlerMock(t)
	mock.ExpectQuery(`SELECT 1 FROM rutas`).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`SELECT fila, columna, ocupado`).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"fila", "columna", "ocupado"}).
			AddRow(2, 3, true).
			AddRow(2, 4, false))

	c, rec := seatCtx(t, http.MethodGet, "/", "", 7)
	c.SetParamNames("routeId")
	c.SetParamValues("1")

	require.NoError(t, h.ListSeats(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	seats, ok := body["seats"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, seats["2-3"])
	assert.Equal(t, false, seats["2-4"])
}

func TestReserveValidatesBody(t *testing.T) {
	h, _ := newSeatHandlerMock(t)

	for _, body := range []string{`{}`, `{"row":2}`, `{"column":3}`, `{"row":0,"column":3}`, `{"row":"a","column":3}`} {
		c, rec := seatCtx(t, http.MethodPost, "/", body, 7)
		c.SetParamNames("routeId")
		c.SetParamValues("1")

		require.NoError(t, h.Reserve(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestReserveConflict(t *testing.T) {
	h, mock := newSeatHandlerMock(t)
	mock.ExpectExec(`UPDATE asientos`).
		WithArgs(uint64(7), uint64(1), uint32(2), uint32(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT ocupado FROM asientos`).
		WithArgs(uint64(1), uint32(2), uint32(3)).
		WillReturnRows(sqlmock.NewRows([]string{"ocupado"}).AddRow(true))

	c, rec := seatCtx(t, http.MethodPost, "/", `{"row":2,"column":3}`, 7)
	c.SetParamNames("routeId")
	c.SetParamValues("1")

	require.NoError(t, h.Reserve(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReserveSuccess(t *testing.T) {
	h, mock := newSeatHandlerMock(t)
	mock.ExpectExec(`UPDATE asientos`).
		WithArgs(uint64(7), uint64(1), uint32(2), uint32(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Event enrichment looks the route up after the commit.
	mock.ExpectQuery(`SELECT id, destino, precio, horarios, mapa FROM rutas WHERE id`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "destino", "precio", "horarios", "mapa"}).
			AddRow(1, "Oaxaca", 250.0, `["08:00","14:30"]`, "maps/oaxaca.png"))

	c, rec := seatCtx(t, http.MethodPost, "/", `{"row":2,"column":3}`, 7)
	c.SetParamNames("routeId")
	c.SetParamValues("1")

	require.NoError(t, h.Reserve(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	seat, ok := body["seat"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2-3", seat["label"])
}

func TestReserveInvalidatesCachedSeatMap(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	cacheCfg := config.CacheConfig{Enabled: true, Prefix: "cache"}
	h := NewSeatHandler(repository.NewSeatRepo(db), repository.NewRouteRepo(db),
		middleware.NewCacheInvalidator(cacheCfg, rdb))

	mock.ExpectExec(`UPDATE asientos`).
		WithArgs(uint64(9), uint64(9), uint32(2), uint32(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, destino, precio, horarios, mapa FROM rutas WHERE id`).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "destino", "precio", "horarios", "mapa"}).
			AddRow(9, "Puebla", 180.5, nil, nil))

	c, rec := seatCtx(t, http.MethodPost, "/", `{"row":2,"column":3}`, 9)
	c.SetParamNames("routeId")
	c.SetParamValues("9")

	require.NoError(t, h.Reserve(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// The route's seat map version counter must have been bumped so the
	// next cached read misses and shows the seat occupied.
	ver, err := rdb.Get(context.Background(), "cache:ver:seats:9").Result()
	require.NoError(t, err)
	assert.Equal(t, "1", ver)
}

func TestCancelNotOwnedIsNotFound(t *testing.T) {
	h, mock := newSeatHandlerMock(t)
	mock.ExpectExec(`UPDATE asientos`).
		WithArgs(uint64(1), uint32(2), uint32(3), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, rec := seatCtx(t, http.MethodDelete, "/", "", 42)
	c.SetParamNames("routeId", "row", "column")
	c.SetParamValues("1", "2", "3")

	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelByOwner(t *testing.T) {
	h, mock := newSeatHandlerMock(t)
	mock.ExpectExec(`UPDATE asientos`).
		WithArgs(uint64(1), uint32(2), uint32(3), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, destino, precio, horarios, mapa FROM rutas WHERE id`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "destino", "precio", "horarios", "mapa"}).
			AddRow(1, "Oaxaca", 250.0, `[]`, ""))

	c, rec := seatCtx(t, http.MethodDelete, "/", "", 7)
	c.SetParamNames("routeId", "row", "column")
	c.SetParamValues("1", "2", "3")

	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListMyReservationsEmpty(t *testing.T) {
	h, mock := newSeatHandlerMock(t)
	mock.ExpectQuery(`FROM asientos a\s+JOIN rutas r`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"ruta_id", "fila", "columna", "destino", "precio"}))

	c, rec := seatCtx(t, http.MethodGet, "/", "", 7)

	require.NoError(t, h.ListMyReservations(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	reservations, ok := body["reservations"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, reservations)
}
