// Package queue carries booking events to RabbitMQ and consumes them into
// an append-only booking log.
package queue

import "time"

// Event types published on the booking queue.
const (
	ReservationCreated   = "reservation.created"
	ReservationCancelled = "reservation.cancelled"
	PaymentProcessed     = "payment.processed"
)

// BookingEvent is published after a reservation or payment mutation is
// committed.  It carries enough for downstream consumers to log, notify or
// feed analytics without querying the primary database.
type BookingEvent struct {
	Type          string    `json:"type"`
	ReservationID uint64    `json:"reservation_id"`
	PaymentID     uint64    `json:"payment_id,omitempty"`
	UserID        uint64    `json:"user_id"`
	ShowtimeID    uint64    `json:"showtime_id"`
	SeatID        uint64    `json:"seat_id"`
	Status        string    `json:"status"`
	AmountCents   int64     `json:"amount_cents,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
