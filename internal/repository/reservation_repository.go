package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations and their seat
// claims.  A seat_claims row exists for exactly the active (pending or
// paid) reservations; its primary key over (showtime_id, seat_id) is what
// makes double booking impossible.  Methods that take a Querier are meant
// to run inside the caller's transaction.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so services can open transactions
// spanning several repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = "id, user_id, seat_id, showtime_id, payment_status, created_at, updated_at"

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
	var rv model.Reservation
	err := row.Scan(&rv.ID, &rv.UserID, &rv.SeatID, &rv.ShowtimeID, &rv.PaymentStatus, &rv.CreatedAt, &rv.UpdatedAt)
	return rv, err
}

func (r *ReservationRepo) list(ctx context.Context, where string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+reservationColumns+" FROM reservations"+where+" ORDER BY created_at DESC, id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		rv, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// GetByIDTx fetches a reservation by id.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, q Querier, id uint64) (model.Reservation, error) {
	rv, err := scanReservation(q.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id))
	return rv, notFoundIfNoRows(err, "Reservation not found.")
}

// GetByID fetches a reservation by id outside any transaction.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

// ListByUser returns the user's reservations, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return r.list(ctx, " WHERE user_id = ?", userID)
}

// ListAll returns every reservation, newest first.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	return r.list(ctx, "")
}

// ClaimHolder returns the id of the active reservation holding the seat
// for the showtime, or 0 when the seat is free.
func (r *ReservationRepo) ClaimHolder(ctx context.Context, q Querier, showtimeID, seatID uint64) (uint64, error) {
	var id uint64
	err := q.QueryRowContext(ctx,
		"SELECT reservation_id FROM seat_claims WHERE showtime_id = ? AND seat_id = ?",
		showtimeID, seatID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

// CreateTx inserts a pending reservation and claims its seat.  When the
// claim collides with another active reservation the insert fails with
// Conflict and the caller must roll back.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID, seatID, showtimeID uint64) (model.Reservation, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO reservations (user_id, seat_id, showtime_id, payment_status) VALUES (?, ?, ?, ?)",
		userID, seatID, showtimeID, model.ReservationPending)
	if err != nil {
		return model.Reservation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Reservation{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO seat_claims (showtime_id, seat_id, reservation_id) VALUES (?, ?, ?)",
		showtimeID, seatID, id); err != nil {
		if isDuplicateKey(err) {
			return model.Reservation{}, Conflict("seat is already reserved for this showtime")
		}
		return model.Reservation{}, err
	}
	return r.GetByIDTx(ctx, tx, uint64(id))
}

// CancelTx moves an active reservation to cancelled and releases its
// seat.  A reservation that does not exist or is already cancelled
// affects no row and is reported as NotFound.
func (r *ReservationRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET payment_status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND payment_status IN (?, ?)`,
		model.ReservationCancelled, id, model.ReservationPending, model.ReservationPaid)
	if err != nil {
		return model.Reservation{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Reservation{}, err
	}
	if n == 0 {
		return model.Reservation{}, NotFound("Reservation not found or already cancelled.")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM seat_claims WHERE reservation_id = ?", id); err != nil {
		return model.Reservation{}, err
	}
	return r.GetByIDTx(ctx, tx, id)
}

// MarkPaidTx moves a pending reservation to paid.  Any other current
// status is a Conflict.
func (r *ReservationRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET payment_status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND payment_status = ?`,
		model.ReservationPaid, id, model.ReservationPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return Conflict("reservation is no longer pending")
	}
	return nil
}
