package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// MovieRepo provides CRUD operations for the movie catalog.  Genres are
// persisted as a JSON array in a text column so both dialects can store
// and filter them the same way.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

const movieColumns = "id, title, genre, release_year, minutes, description, poster_image, created_at, updated_at"

func scanMovie(row interface{ Scan(...any) error }) (model.Movie, error) {
	var m model.Movie
	var genre string
	if err := row.Scan(&m.ID, &m.Title, &genre, &m.ReleaseYear, &m.Minutes,
		&m.Description, &m.PosterImage, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return m, err
	}
	if genre != "" {
		if err := json.Unmarshal([]byte(genre), &m.Genre); err != nil {
			return m, fmt.Errorf("decode genre of movie %d: %w", m.ID, err)
		}
	}
	if m.Genre == nil {
		m.Genre = []string{}
	}
	return m, nil
}

func encodeGenre(g []string) (string, error) {
	if g == nil {
		g = []string{}
	}
	b, err := json.Marshal(g)
	return string(b), err
}

// List returns one page of movies, newest first, along with the total
// number of movies matching the filter.  Genre and title filters are
// case-insensitive substring matches combined with OR.
func (r *MovieRepo) List(ctx context.Context, f model.MovieFilter) ([]model.Movie, int, error) {
	var conds []string
	var args []any
	if f.Genre != "" {
		conds = append(conds, "LOWER(genre) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Genre)+"%")
	}
	if f.Title != "" {
		conds = append(conds, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Title)+"%")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " OR ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	q := "SELECT " + movieColumns + " FROM movies" + where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	movies := make([]model.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, err
		}
		movies = append(movies, m)
	}
	return movies, total, rows.Err()
}

// GetByID fetches a movie by id.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ?", id))
	return m, notFoundIfNoRows(err, "No movie found.")
}

func (r *MovieRepo) titleTaken(ctx context.Context, title string, exceptID uint64) (bool, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM movies WHERE LOWER(title) = LOWER(?) AND id <> ? LIMIT 1",
		strings.TrimSpace(title), exceptID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Create inserts a movie.  Titles are unique ignoring case.
func (r *MovieRepo) Create(ctx context.Context, m model.Movie) (model.Movie, error) {
	taken, err := r.titleTaken(ctx, m.Title, 0)
	if err != nil {
		return model.Movie{}, err
	}
	if taken {
		return model.Movie{}, Conflict("Movie with this title already exists!")
	}
	genre, err := encodeGenre(m.Genre)
	if err != nil {
		return model.Movie{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movies (title, genre, release_year, minutes, description, poster_image)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(m.Title), genre, m.ReleaseYear, m.Minutes, m.Description, m.PosterImage)
	if err != nil {
		return model.Movie{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Movie{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Update overwrites every column of an existing movie.  Callers merge a
// partial update onto the current row first.
func (r *MovieRepo) Update(ctx context.Context, m model.Movie) (model.Movie, error) {
	taken, err := r.titleTaken(ctx, m.Title, m.ID)
	if err != nil {
		return model.Movie{}, err
	}
	if taken {
		return model.Movie{}, Conflict("Movie with this title already exists!")
	}
	genre, err := encodeGenre(m.Genre)
	if err != nil {
		return model.Movie{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE movies SET title = ?, genre = ?, release_year = ?, minutes = ?, description = ?,
		 poster_image = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		strings.TrimSpace(m.Title), genre, m.ReleaseYear, m.Minutes, m.Description, m.PosterImage, m.ID)
	if err != nil {
		return model.Movie{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Movie{}, NotFound("No movie found.")
	}
	return r.GetByID(ctx, m.ID)
}

// Delete removes a movie and returns the deleted row.  Showtimes of the
// movie are removed by the foreign key cascade.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) (model.Movie, error) {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Movie{}, err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id); err != nil {
		return model.Movie{}, err
	}
	return m, nil
}
