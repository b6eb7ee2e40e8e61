// Package testutil opens migrated SQLite databases and seeds a small,
// fixed seating chart for package tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-reservation/internal/config"
	"github.com/iliyamo/movie-reservation/internal/database"
)

// NewDB returns a migrated SQLite database in a temporary directory.  It
// is closed when the test ends.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, config.DriverSQLite))
	return db
}

// Fixture lists the ids created by Seed.
//
// Auditorium 1 has row A (seats 1-4, standard, 10.00) and row B (seats
// 5-8, premium, 12.50).  Auditorium 2 has row A (seats 9-10).  Showtimes
// 1-3 play movie 1 in auditorium 1 tomorrow; showtime 4 plays in
// auditorium 2.  Users 1 and 2 are regular users, user 3 is an admin.
type Fixture struct {
	Alice, Bob, Admin uint64
	Movie             uint64
	Showtimes         []uint64
	OtherShowtime     uint64
	SeatsA            []uint64
	SeatsB            []uint64
	OtherSeats        []uint64
	Tomorrow          string
}

// Seed fills db with the fixture described on Fixture.  Password hashes
// are placeholders; tests that log in create their own users.
func Seed(t testing.TB, db *sql.DB) Fixture {
	t.Helper()
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	stmts := []string{
		`INSERT INTO users (id, username, email, password_hash, role) VALUES
			(1, 'alice', 'alice@example.com', 'x', 'user'),
			(2, 'bob', 'bob@example.com', 'x', 'user'),
			(3, 'root', 'root@example.com', 'x', 'admin')`,
		`INSERT INTO movies (id, title, genre, release_year, minutes, description) VALUES
			(1, 'Heat', '["crime","drama"]', 1995, 170, 'LA heist')`,
		`INSERT INTO auditoriums (id, name) VALUES (1, 'Main'), (2, 'Small')`,
		`INSERT INTO seat_types (id, name, price_cents) VALUES (1, 'standard', 1000), (2, 'premium', 1250)`,
		`INSERT INTO seat_rows (id, auditorium_id, row_name, seat_type_id) VALUES (1, 1, 'A', 1), (2, 1, 'B', 2), (3, 2, 'A', 1)`,
		`INSERT INTO seats (id, row_id, seat_number) VALUES
			(1, 1, 1), (2, 1, 2), (3, 1, 3), (4, 1, 4),
			(5, 2, 1), (6, 2, 2), (7, 2, 3), (8, 2, 4),
			(9, 3, 1), (10, 3, 2)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
	for i, at := range []string{"14:00", "17:30", "21:00"} {
		_, err := db.Exec(`INSERT INTO showtimes (id, movie_id, auditorium_id, date, start_time) VALUES (?, 1, 1, ?, ?)`,
			i+1, tomorrow, at)
		require.NoError(t, err)
	}
	_, err := db.Exec(`INSERT INTO showtimes (id, movie_id, auditorium_id, date, start_time) VALUES (4, 1, 2, ?, '20:00')`, tomorrow)
	require.NoError(t, err)

	return Fixture{
		Alice: 1, Bob: 2, Admin: 3,
		Movie:         1,
		Showtimes:     []uint64{1, 2, 3},
		OtherShowtime: 4,
		SeatsA:        []uint64{1, 2, 3, 4},
		SeatsB:        []uint64{5, 6, 7, 8},
		OtherSeats:    []uint64{9, 10},
		Tomorrow:      tomorrow,
	}
}
