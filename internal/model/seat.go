package model

import "fmt"

// Seat is one bookable unit on a bus, identified by the composite key
// (route, row, column) matching the primary key of the `asientos` table.
// Invariant: Occupied is false exactly when UserID is nil; the repository
// only ever flips both together in a single conditional UPDATE.
//
// Fields:
//  RouteID  – route the seat belongs to (asientos.ruta_id).
//  Row      – seat row, 1-based (asientos.fila).
//  Column   – seat column, 1-based (asientos.columna).
//  Occupied – whether the seat is taken (asientos.ocupado).
//  UserID   – occupant, nil while the seat is free (asientos.usuario_id).
type Seat struct {
	RouteID  uint64  // asientos.ruta_id
	Row      uint32  // asientos.fila
	Column   uint32  // asientos.columna
	Occupied bool    // asientos.ocupado
	UserID   *uint64 // asientos.usuario_id (nullable)
}

// Label returns the "row-column" key used by the seat map endpoint,
// e.g. seat (2,3) -> "2-3".
func (s Seat) Label() string {
	return SeatLabel(s.Row, s.Column)
}

// SeatLabel builds the canonical "row-column" label for a seat position.
func SeatLabel(row, col uint32) string {
	return fmt.Sprintf("%d-%d", row, col)
}
