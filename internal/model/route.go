package model

// Route describes a scheduled bus trip as stored in the `rutas` table.
// Schedules are persisted as a JSON-encoded string in rutas.horarios;
// the repository decodes them before the route leaves the data layer.
//
// Fields:
//  ID          – primary key identifier.
//  Destination – destination city (rutas.destino).
//  Price       – ticket price (rutas.precio).
//  Schedules   – departure times, decoded from rutas.horarios.
//  MapURL      – link to the route map image (rutas.mapa).
type Route struct {
	ID          uint64   // rutas.id
	Destination string   // rutas.destino
	Price       float64  // rutas.precio
	Schedules   []string // rutas.horarios (JSON column)
	MapURL      string   // rutas.mapa
}
