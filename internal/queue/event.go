// Package queue defines message payloads exchanged over the message broker.
package queue

// Seat event kinds published on the seat.events queue.
const (
	SeatReserved  = "seat.reserved"
	SeatCancelled = "seat.cancelled"
)

// SeatEvent is published after a seat transition commits. It carries
// enough for downstream consumers (audit log, notifications) without
// another trip to the database. Publishing is best effort and never
// affects the outcome of the reservation itself.
type SeatEvent struct {
	Kind        string  `json:"kind"` // SeatReserved or SeatCancelled
	RouteID     uint64  `json:"route_id"`
	Row         uint32  `json:"row"`
	Column      uint32  `json:"column"`
	UserID      uint64  `json:"user_id"`
	Destination string  `json:"destination,omitempty"`
	Price       float64 `json:"price,omitempty"`
	OccurredAt  string  `json:"occurred_at"` // RFC3339 UTC
}
