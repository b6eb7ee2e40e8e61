package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// DateLayout is the storage format of showtimes.date.
const DateLayout = "2006-01-02"

// ShowtimeRepo manages persistence for showtimes.  Dates are written as
// YYYY-MM-DD strings and start times as HH:MM so lexical comparison
// orders them correctly in both dialects.
type ShowtimeRepo struct {
	db *sql.DB
}

func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

const showtimeColumns = "s.id, s.movie_id, s.auditorium_id, s.date, s.start_time, s.created_at, s.updated_at"

func scanShowtime(row interface{ Scan(...any) error }, extra ...any) (model.Showtime, error) {
	var s model.Showtime
	dest := append([]any{&s.ID, &s.MovieID, &s.AuditoriumID, &s.Date, &s.StartTime, &s.CreatedAt, &s.UpdatedAt}, extra...)
	err := row.Scan(dest...)
	s.Date = s.Date.UTC()
	return s, err
}

// GetByID fetches a showtime by id.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (model.Showtime, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

// GetByIDTx is GetByID on an explicit Querier.
func (r *ShowtimeRepo) GetByIDTx(ctx context.Context, q Querier, id uint64) (model.Showtime, error) {
	s, err := scanShowtime(q.QueryRowContext(ctx,
		"SELECT "+showtimeColumns+" FROM showtimes s WHERE s.id = ?", id))
	return s, notFoundIfNoRows(err, "Showtime not found.")
}

// ListForMovie returns the showtimes of movieID on date.  When after is
// non-empty only showtimes starting strictly later than after (HH:MM) are
// returned.
func (r *ShowtimeRepo) ListForMovie(ctx context.Context, movieID uint64, date, after string) ([]model.ShowtimeListing, error) {
	q := `SELECT ` + showtimeColumns + `, m.title, a.name
	      FROM showtimes s
	      JOIN movies m ON m.id = s.movie_id
	      JOIN auditoriums a ON a.id = s.auditorium_id
	      WHERE s.movie_id = ? AND s.date = ?`
	args := []any{movieID, date}
	if after != "" {
		q += " AND s.start_time > ?"
		args = append(args, after)
	}
	q += " ORDER BY s.start_time, s.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ShowtimeListing, 0)
	for rows.Next() {
		var l model.ShowtimeListing
		s, err := scanShowtime(rows, &l.MovieTitle, &l.AuditoriumName)
		if err != nil {
			return nil, err
		}
		l.Showtime = s
		out = append(out, l)
	}
	return out, rows.Err()
}

// Create inserts a showtime.  A movie may not be scheduled twice at the
// same date and start time; unknown movie or auditorium ids are NotFound.
func (r *ShowtimeRepo) Create(ctx context.Context, movieID, auditoriumID uint64, date, startTime string) (model.Showtime, error) {
	var one int
	if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE id = ?", movieID).Scan(&one); err != nil {
		return model.Showtime{}, notFoundIfNoRows(err, "No movie found.")
	}
	if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM auditoriums WHERE id = ?", auditoriumID).Scan(&one); err != nil {
		return model.Showtime{}, notFoundIfNoRows(err, "Auditorium not found.")
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO showtimes (movie_id, auditorium_id, date, start_time) VALUES (?, ?, ?, ?)",
		movieID, auditoriumID, date, startTime)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Showtime{}, Conflict("Movie showtimes with this date and start time already exists!")
		}
		return model.Showtime{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Showtime{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Delete removes a showtime and returns the deleted row.  Its
// reservations go with it through the foreign key cascade.
func (r *ShowtimeRepo) Delete(ctx context.Context, id uint64) (model.Showtime, error) {
	s, err := r.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return model.Showtime{}, NotFound("No showtime found.")
	}
	if err != nil {
		return model.Showtime{}, err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM showtimes WHERE id = ?", id); err != nil {
		return model.Showtime{}, err
	}
	return s, nil
}
