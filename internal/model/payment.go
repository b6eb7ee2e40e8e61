package model

import (
	"encoding/json"
	"time"
)

// Payment statuses.  Only pending payments may be processed.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment is a settlement attempt for exactly one reservation.  The
// amount is copied from the seat type price when the payment is created.
//
// Fields:
//
//	ID             – primary key identifier.
//	ReservationID  – reservation being paid for.
//	UserID         – owner of the reservation.
//	AmountCents    – amount in cents.
//	PaymentMethod  – free-form method label (credit_card, paypal, ...).
//	Status         – pending, completed or failed.
//	TransactionRef – reference assigned when the payment settles.
//	CreatedAt      – creation timestamp.
//	UpdatedAt      – last update timestamp.
type Payment struct {
	ID             uint64    // payments.id
	ReservationID  uint64    // payments.reservation_id
	UserID         uint64    // payments.user_id
	AmountCents    int64     // payments.amount_cents
	PaymentMethod  string    // payments.payment_method
	Status         string    // payments.status
	TransactionRef *string   // payments.transaction_ref (nullable)
	CreatedAt      time.Time // payments.created_at
	UpdatedAt      time.Time // payments.updated_at
}

type paymentJSON struct {
	ID             uint64    `json:"id"`
	ReservationID  uint64    `json:"reservation_id"`
	UserID         uint64    `json:"user_id"`
	Amount         float64   `json:"amount"`
	AmountCents    int64     `json:"amount_cents"`
	PaymentMethod  string    `json:"payment_method"`
	Status         string    `json:"status"`
	TransactionRef *string   `json:"transaction_ref"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MarshalJSON exposes the amount both in cents and as a decimal.
func (p Payment) MarshalJSON() ([]byte, error) {
	return json.Marshal(paymentJSON{
		ID:             p.ID,
		ReservationID:  p.ReservationID,
		UserID:         p.UserID,
		Amount:         float64(p.AmountCents) / 100,
		AmountCents:    p.AmountCents,
		PaymentMethod:  p.PaymentMethod,
		Status:         p.Status,
		TransactionRef: p.TransactionRef,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	})
}

// UnmarshalJSON accepts the shape produced by MarshalJSON.
func (p *Payment) UnmarshalJSON(b []byte) error {
	var v paymentJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Payment{
		ID:             v.ID,
		ReservationID:  v.ReservationID,
		UserID:         v.UserID,
		AmountCents:    v.AmountCents,
		PaymentMethod:  v.PaymentMethod,
		Status:         v.Status,
		TransactionRef: v.TransactionRef,
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}
	return nil
}
