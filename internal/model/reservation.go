package model

// Reservation is the association of a user with an occupied seat. It is
// not stored as its own table: it exists implicitly while the seat row
// has ocupado=1 and is assembled at read time by joining `asientos`
// with `rutas` for the denormalized destination and price.
//
// Fields:
//  RouteID     – route of the reserved seat.
//  Row, Column – seat position.
//  UserID      – occupant.
//  Destination – rutas.destino, joined at read time.
//  Price       – rutas.precio, joined at read time.
type Reservation struct {
	RouteID     uint64  `json:"route_id"`
	Row         uint32  `json:"row"`
	Column      uint32  `json:"column"`
	UserID      uint64  `json:"-"`
	Destination string  `json:"destination"`
	Price       float64 `json:"price"`
}
