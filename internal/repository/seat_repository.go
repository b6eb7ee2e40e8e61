package repository // repository defines data access for the seating chart

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// RowSpec describes one row of a new auditorium.  Every seat in the row
// shares the row's seat type, created on first use by name.
type RowSpec struct {
	Name       string `json:"name"`
	Seats      int    `json:"seats"`
	SeatType   string `json:"seat_type"`
	PriceCents int64  `json:"price_cents"`
}

// SeatRepo reads the seating chart of showtimes.  The chart is resolved
// through showtime -> auditorium -> seat_rows -> seats -> seat_types.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// chartFrom joins a showtime to every seat of its auditorium.  Callers
// append their own WHERE clause starting with the showtime id.
const chartFrom = `FROM showtimes sh
	JOIN seat_rows ro ON ro.auditorium_id = sh.auditorium_id
	JOIN seats se ON se.row_id = ro.id
	JOIN seat_types st ON st.id = ro.seat_type_id`

// ListForShowtime returns every seat of the showtime's auditorium with its
// seat type price, ordered by row then number.  A showtime that resolves
// to no seats is NotFound.
func (r *SeatRepo) ListForShowtime(ctx context.Context, showtimeID uint64) ([]model.SeatInfo, error) {
	q := `SELECT se.id, ro.row_name, se.seat_number, st.name, st.price_cents ` + chartFrom + `
	      WHERE sh.id = ?
	      ORDER BY ro.row_name, se.seat_number`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.SeatInfo, 0)
	for rows.Next() {
		var s model.SeatInfo
		if err := rows.Scan(&s.SeatID, &s.RowName, &s.SeatNumber, &s.SeatType, &s.PriceCents); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, NotFound("Showtime not found.")
	}
	return seats, nil
}

// FindInShowtime resolves seatID within the showtime's auditorium.  A seat
// from another auditorium, or an unknown seat or showtime, is NotFound.
func (r *SeatRepo) FindInShowtime(ctx context.Context, q Querier, seatID, showtimeID uint64) (model.SeatInfo, error) {
	var s model.SeatInfo
	err := q.QueryRowContext(ctx,
		`SELECT se.id, ro.row_name, se.seat_number, st.name, st.price_cents `+chartFrom+`
		 WHERE sh.id = ? AND se.id = ?`, showtimeID, seatID).
		Scan(&s.SeatID, &s.RowName, &s.SeatNumber, &s.SeatType, &s.PriceCents)
	return s, notFoundIfNoRows(err, "Seat id not found for this showtime.")
}

// PriceForReservation returns the seat type price of the reservation's
// seat, reached through reservation -> seat -> row -> seat type.
func (r *SeatRepo) PriceForReservation(ctx context.Context, q Querier, reservationID uint64) (int64, error) {
	var price int64
	err := q.QueryRowContext(ctx,
		`SELECT st.price_cents
		 FROM reservations rv
		 JOIN seats se ON se.id = rv.seat_id
		 JOIN seat_rows ro ON ro.id = se.row_id
		 JOIN seat_types st ON st.id = ro.seat_type_id
		 WHERE rv.id = ?`, reservationID).Scan(&price)
	return price, notFoundIfNoRows(err, "Reservation not found.")
}

// ListAvailable returns the seats of the showtime without an active
// claim.  The second result is the total number of seats in the
// showtime's auditorium so callers can tell an unknown showtime from a
// fully booked one.
func (r *SeatRepo) ListAvailable(ctx context.Context, showtimeID uint64) ([]model.AvailableSeat, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) `+chartFrom+` WHERE sh.id = ?`, showtimeID).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.AvailableSeat{}, 0, nil
	}
	q := `SELECT sh.id, se.id, ro.row_name, se.seat_number ` + chartFrom + `
	      LEFT JOIN seat_claims sc ON sc.showtime_id = sh.id AND sc.seat_id = se.id
	      WHERE sh.id = ? AND sc.reservation_id IS NULL
	      ORDER BY ro.row_name, se.seat_number`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	seats := make([]model.AvailableSeat, 0)
	for rows.Next() {
		var s model.AvailableSeat
		if err := rows.Scan(&s.ShowtimeID, &s.SeatID, &s.RowName, &s.SeatNumber); err != nil {
			return nil, 0, err
		}
		seats = append(seats, s)
	}
	return seats, total, rows.Err()
}

// CreateAuditorium inserts an auditorium with its rows and seats in one
// transaction.  Seat types are looked up by name and created with the
// row's price when missing.
func (r *SeatRepo) CreateAuditorium(ctx context.Context, name string, rows []RowSpec) (model.Auditorium, error) {
	if strings.TrimSpace(name) == "" || len(rows) == 0 {
		return model.Auditorium{}, Validation("auditorium needs a name and at least one row")
	}
	var a model.Auditorium
	err := WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "INSERT INTO auditoriums (name) VALUES (?)", strings.TrimSpace(name))
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		a = model.Auditorium{ID: uint64(id), Name: strings.TrimSpace(name)}

		for _, row := range rows {
			if row.Name == "" || row.Seats < 1 || row.SeatType == "" || row.PriceCents < 0 {
				return Validation(fmt.Sprintf("invalid row %q", row.Name))
			}
			typeID, err := seatTypeID(ctx, tx, row.SeatType, row.PriceCents)
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx,
				"INSERT INTO seat_rows (auditorium_id, row_name, seat_type_id) VALUES (?, ?, ?)",
				a.ID, row.Name, typeID)
			if err != nil {
				if isDuplicateKey(err) {
					return Conflict(fmt.Sprintf("duplicate row %q", row.Name))
				}
				return err
			}
			rowID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			query := `INSERT INTO seats (row_id, seat_number) VALUES `
			args := make([]any, 0, row.Seats*2)
			for n := 1; n <= row.Seats; n++ {
				if n > 1 {
					query += ","
				}
				query += "(?, ?)"
				args = append(args, rowID, n)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}
		return nil
	})
	return a, err
}

func seatTypeID(ctx context.Context, tx *sql.Tx, name string, price int64) (uint64, error) {
	var id uint64
	err := tx.QueryRowContext(ctx, "SELECT id FROM seat_types WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "INSERT INTO seat_types (name, price_cents) VALUES (?, ?)", name, price)
	if err != nil {
		return 0, err
	}
	n, err := res.LastInsertId()
	return uint64(n), err
}
