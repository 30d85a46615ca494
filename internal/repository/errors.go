// Package repository implements data access for the Caminante backend on
// top of database/sql. Sentinel errors defined here let handlers map
// storage outcomes onto the HTTP taxonomy without inspecting SQL errors:
// validation failures never reach this layer, and everything that is not
// one of these sentinels is a store error surfaced as a 500.
package repository

import "errors"

// ErrUserNotFound is returned when a user lookup or a conditional user
// update matches no rows. Handlers translate it into a 404.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when registration hits the unique index on
// usuarios.correo. Handlers translate it into a 409.
var ErrEmailExists = errors.New("email already exists")

// ErrRouteNotFound is returned when the referenced route does not exist.
var ErrRouteNotFound = errors.New("route not found")

// ErrSeatNotFound is returned when the referenced seat does not exist,
// and also when a cancel matches no row. A non-owner cancelling someone
// else's seat gets the same answer as cancelling a free seat, so
// occupancy ownership is never revealed.
var ErrSeatNotFound = errors.New("seat not found")

// ErrSeatTaken is returned when a reserve loses the conditional update
// because the seat is already occupied, including the race where a
// concurrent request wins first. Handlers translate it into a 409; it is
// an expected outcome, not a failure.
var ErrSeatTaken = errors.New("seat already taken")

// ErrRouteInUse is returned when a route cannot be deleted because seats
// on it are still occupied. Handlers translate it into a 409.
var ErrRouteInUse = errors.New("route has occupied seats")
