package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives

	"github.com/caminante/caminante-api/internal/model"
)

// SeatRepo owns all mutations of seat occupancy state. Seats live in the
// `asientos` table keyed by (ruta_id, fila, columna). Both write
// operations are single conditional UPDATEs whose affected-row count
// decides the outcome, so concurrent requests against the same seat
// serialize at the storage layer and exactly one winner transitions the
// row. No other writer may touch `asientos` once this service owns it.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// OccupancyByRoute returns a snapshot of every seat on the route keyed by
// its "fila-columna" label. A route with no provisioned seats yields an
// empty map; route existence is checked by the caller against the route
// catalog.
func (r *SeatRepo) OccupancyByRoute(ctx context.Context, routeID uint64) (map[string]bool, error) {
	const q = `SELECT fila, columna, ocupado
	           FROM asientos
	           WHERE ruta_id = ?
	           ORDER BY fila, columna`
	rows, err := r.db.QueryContext(ctx, q, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make(map[string]bool)
	for rows.Next() {
		s := model.Seat{RouteID: routeID}
		if err := rows.Scan(&s.Row, &s.Column, &s.Occupied); err != nil {
			return nil, err
		}
		seats[s.Label()] = s.Occupied
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// Reserve marks a free seat as occupied by userID. The occupancy check
// and the write are one statement: the WHERE ocupado = 0 guard makes the
// transition a compare-and-swap, so under N concurrent attempts on the
// same free seat exactly one UPDATE reports an affected row. When no row
// is affected a follow-up existence probe distinguishes a seat that does
// not exist (ErrSeatNotFound) from one already taken (ErrSeatTaken).
func (r *SeatRepo) Reserve(ctx context.Context, routeID uint64, row, col uint32, userID uint64) error {
	const q = `UPDATE asientos
	           SET ocupado = 1, usuario_id = ?
	           WHERE ruta_id = ? AND fila = ? AND columna = ? AND ocupado = 0`
	res, err := r.db.ExecContext(ctx, q, userID, routeID, row, col)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	// Lost the swap or the seat does not exist; probe to tell which.
	const probe = `SELECT ocupado FROM asientos WHERE ruta_id = ? AND fila = ? AND columna = ?`
	var ocupado bool
	switch err := r.db.QueryRowContext(ctx, probe, routeID, row, col).Scan(&ocupado); err {
	case nil:
		return ErrSeatTaken
	case sql.ErrNoRows:
		return ErrSeatNotFound
	default:
		return err
	}
}

// Cancel frees a seat occupied by userID. The ownership check is part of
// the WHERE clause, so cancelling a seat held by someone else, a free
// seat or a nonexistent seat all report zero affected rows and come back
// as ErrSeatNotFound without revealing which case it was.
func (r *SeatRepo) Cancel(ctx context.Context, routeID uint64, row, col uint32, userID uint64) error {
	const q = `UPDATE asientos
	           SET ocupado = 0, usuario_id = NULL
	           WHERE ruta_id = ? AND fila = ? AND columna = ? AND usuario_id = ? AND ocupado = 1`
	res, err := r.db.ExecContext(ctx, q, routeID, row, col, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSeatNotFound
	}
	return nil
}

// ListReservationsByUser returns every seat currently occupied by the
// user joined with the route catalog for destination and price. Users
// with no reservations get an empty slice.
func (r *SeatRepo) ListReservationsByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	const q = `SELECT a.ruta_id, a.fila, a.columna, r.destino, r.precio
	           FROM asientos a
	           JOIN rutas r ON r.id = a.ruta_id
	           WHERE a.usuario_id = ? AND a.ocupado = 1
	           ORDER BY a.ruta_id, a.fila, a.columna`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.RouteID, &res.Row, &res.Column, &res.Destination, &res.Price); err != nil {
			return nil, err
		}
		res.UserID = userID
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ProvisionGrid inserts a rows x cols grid of free seats for a route.
// INSERT IGNORE keeps the call idempotent: re-provisioning never resets
// occupancy of existing seats. Returns the number of seats created.
func (r *SeatRepo) ProvisionGrid(ctx context.Context, routeID uint64, rowCount, colCount uint32) (int64, error) {
	if rowCount == 0 || colCount == 0 {
		return 0, nil
	}
	query := `INSERT IGNORE INTO asientos (ruta_id, fila, columna, ocupado) VALUES `
	args := make([]interface{}, 0, int(rowCount)*int(colCount)*3)
	first := true
	for row := uint32(1); row <= rowCount; row++ {
		for col := uint32(1); col <= colCount; col++ {
			if !first {
				query += ","
			}
			first = false
			query += "(?, ?, ?, 0)"
			args = append(args, routeID, row, col)
		}
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// EnsureRouteFreeTx reports ErrRouteInUse when any seat on the route is
// currently taken, inside the caller's transaction. It is the guard
// before a route can be deleted.
func (r *SeatRepo) EnsureRouteFreeTx(ctx context.Context, tx *sql.Tx, routeID uint64) error {
	const q = `SELECT COUNT(*) FROM asientos WHERE ruta_id = ? AND ocupado = 1`
	var n int64
	if err := tx.QueryRowContext(ctx, q, routeID).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrRouteInUse
	}
	return nil
}

// DeleteByRouteTx removes all seats of a route inside the caller's
// transaction. Only route deletion uses this; reservation flows never
// delete seat rows.
func (r *SeatRepo) DeleteByRouteTx(ctx context.Context, tx *sql.Tx, routeID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM asientos WHERE ruta_id = ?`, routeID)
	return err
}
