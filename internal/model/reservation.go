package model

import "time"

// Reservation statuses.  A reservation is active while pending or paid;
// at most one active reservation may exist per (showtime, seat).
const (
	ReservationPending   = "pending"
	ReservationPaid      = "paid"
	ReservationCancelled = "cancelled"
)

// Reservation is a claim on one seat for one showtime.
//
// Fields:
//
//	ID            – primary key identifier.
//	UserID        – user who made the reservation.
//	SeatID        – seat being reserved.
//	ShowtimeID    – showtime being reserved.
//	PaymentStatus – pending, paid or cancelled.
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – last update timestamp.
type Reservation struct {
	ID            uint64    `json:"id"`             // reservations.id
	UserID        uint64    `json:"user_id"`        // reservations.user_id
	SeatID        uint64    `json:"seat_id"`        // reservations.seat_id
	ShowtimeID    uint64    `json:"showtime_id"`    // reservations.showtime_id
	PaymentStatus string    `json:"payment_status"` // reservations.payment_status
	CreatedAt     time.Time `json:"created_at"`     // reservations.created_at
	UpdatedAt     time.Time `json:"updated_at"`     // reservations.updated_at
}

// Active reports whether the reservation still holds its seat.
func (r Reservation) Active() bool {
	return r.PaymentStatus == ReservationPending || r.PaymentStatus == ReservationPaid
}
