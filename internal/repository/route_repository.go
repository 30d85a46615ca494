package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/caminante/caminante-api/internal/model"
)

// RouteRepo provides access to the `rutas` catalog. The horarios column
// stores departure times as a JSON-encoded string (a quirk inherited
// from the original schema); encoding and decoding happen here so the
// rest of the application only sees []string.
type RouteRepo struct {
	db *sql.DB
}

// NewRouteRepo constructs a RouteRepo with the given DB handle.
func NewRouteRepo(db *sql.DB) *RouteRepo {
	return &RouteRepo{db: db}
}

// DB exposes the underlying handle so handlers can open transactions
// spanning routes and seats.
func (r *RouteRepo) DB() *sql.DB { return r.db }

// List returns the full route catalog ordered by id.
func (r *RouteRepo) List(ctx context.Context) ([]model.Route, error) {
	const q = `SELECT id, destino, precio, horarios, mapa FROM rutas ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routes := make([]model.Route, 0)
	for rows.Next() {
		rt, err := scanRoute(rows.Scan)
		if err != nil {
			return nil, err
		}
		routes = append(routes, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return routes, nil
}

// GetByID returns a single route or ErrRouteNotFound.
func (r *RouteRepo) GetByID(ctx context.Context, id uint64) (model.Route, error) {
	const q = `SELECT id, destino, precio, horarios, mapa FROM rutas WHERE id = ?`
	rt, err := scanRoute(r.db.QueryRowContext(ctx, q, id).Scan)
	if err == sql.ErrNoRows {
		return model.Route{}, ErrRouteNotFound
	}
	return rt, err
}

// Exists reports whether a route with the given id is in the catalog.
func (r *RouteRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM rutas WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a route and populates its ID. Schedules are stored as a
// JSON string to match the legacy column format.
func (r *RouteRepo) Create(ctx context.Context, rt *model.Route) error {
	horarios, err := json.Marshal(rt.Schedules)
	if err != nil {
		return err
	}
	const q = `INSERT INTO rutas (destino, precio, horarios, mapa) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rt.Destination, rt.Price, string(horarios), rt.MapURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	return nil
}

// Update overwrites a route's catalog fields. Zero affected rows means
// the route does not exist; note MySQL also reports zero when the values
// are unchanged, so existence is probed explicitly first.
func (r *RouteRepo) Update(ctx context.Context, rt model.Route) error {
	ok, err := r.Exists(ctx, rt.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRouteNotFound
	}
	horarios, err := json.Marshal(rt.Schedules)
	if err != nil {
		return err
	}
	const q = `UPDATE rutas SET destino = ?, precio = ?, horarios = ?, mapa = ? WHERE id = ?`
	_, err = r.db.ExecContext(ctx, q, rt.Destination, rt.Price, string(horarios), rt.MapURL, rt.ID)
	return err
}

// DeleteTx removes a route inside the caller's transaction. The caller
// is responsible for the occupied-seat guard and for clearing the
// route's seat rows first.
func (r *RouteRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM rutas WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRouteNotFound
	}
	return nil
}

// scanRoute scans one rutas row, decoding the horarios JSON string. A
// malformed horarios value degrades to an empty schedule list instead of
// failing the whole listing, mirroring the original server's tolerance.
func scanRoute(scan func(...interface{}) error) (model.Route, error) {
	var rt model.Route
	var horarios sql.NullString
	var mapa sql.NullString
	if err := scan(&rt.ID, &rt.Destination, &rt.Price, &horarios, &mapa); err != nil {
		return model.Route{}, err
	}
	rt.Schedules = []string{}
	if horarios.Valid && horarios.String != "" {
		if err := json.Unmarshal([]byte(horarios.String), &rt.Schedules); err != nil {
			rt.Schedules = []string{}
		}
	}
	if mapa.Valid {
		rt.MapURL = mapa.String
	}
	return rt, nil
}
