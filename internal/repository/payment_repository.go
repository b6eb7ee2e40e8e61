package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// PaymentRepo persists payments.  Status transitions are conditional
// updates so that two concurrent settlements of one payment cannot both
// succeed.
type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = "id, reservation_id, user_id, amount_cents, payment_method, status, transaction_ref, created_at, updated_at"

func scanPayment(row interface{ Scan(...any) error }) (model.Payment, error) {
	var p model.Payment
	var ref sql.NullString
	err := row.Scan(&p.ID, &p.ReservationID, &p.UserID, &p.AmountCents, &p.PaymentMethod,
		&p.Status, &ref, &p.CreatedAt, &p.UpdatedAt)
	if ref.Valid {
		s := ref.String
		p.TransactionRef = &s
	}
	return p, err
}

// GetByIDTx fetches a payment by id.
func (r *PaymentRepo) GetByIDTx(ctx context.Context, q Querier, id uint64) (model.Payment, error) {
	p, err := scanPayment(q.QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM payments WHERE id = ?", id))
	return p, notFoundIfNoRows(err, "Payment not found.")
}

// GetByID fetches a payment by id outside any transaction.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (model.Payment, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

// ListByReservation returns the payments of a reservation, oldest first.
func (r *PaymentRepo) ListByReservation(ctx context.Context, q Querier, reservationID uint64) ([]model.Payment, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE reservation_id = ? ORDER BY id", reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// HasPendingTx reports whether the reservation already has a payment
// awaiting processing.
func (r *PaymentRepo) HasPendingTx(ctx context.Context, q Querier, reservationID uint64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payments WHERE reservation_id = ? AND status = ?",
		reservationID, model.PaymentPending).Scan(&n)
	return n > 0, err
}

// CreateTx inserts a pending payment.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p model.Payment) (model.Payment, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (reservation_id, user_id, amount_cents, payment_method, status)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ReservationID, p.UserID, p.AmountCents, p.PaymentMethod, model.PaymentPending)
	if err != nil {
		return model.Payment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Payment{}, err
	}
	return r.GetByIDTx(ctx, tx, uint64(id))
}

// SettleTx moves a pending payment to status with the given transaction
// reference.  A payment that is no longer pending is a Conflict.
func (r *PaymentRepo) SettleTx(ctx context.Context, tx *sql.Tx, id uint64, status, ref string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = ?, transaction_ref = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		status, ref, id, model.PaymentPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return Conflict("Payment already processed.")
	}
	return nil
}

// DeleteByReservationTx removes every payment of a reservation.
func (r *PaymentRepo) DeleteByReservationTx(ctx context.Context, tx *sql.Tx, reservationID uint64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM payments WHERE reservation_id = ?", reservationID)
	return err
}
