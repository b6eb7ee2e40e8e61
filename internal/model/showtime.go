package model

import "time"

// Showtime represents a scheduled screening of a movie in an
// auditorium.  The auditorium determines which seats can be booked.
//
// Fields:
//
//	ID           – primary key identifier.
//	MovieID      – movie being screened.
//	AuditoriumID – auditorium hosting the screening.
//	Date         – calendar day of the screening (UTC, midnight).
//	StartTime    – local start time formatted HH:MM.
//	CreatedAt    – creation timestamp.
//	UpdatedAt    – last update timestamp.
type Showtime struct {
	ID           uint64    `json:"id"`            // showtimes.id
	MovieID      uint64    `json:"movie_id"`      // showtimes.movie_id
	AuditoriumID uint64    `json:"auditorium_id"` // showtimes.auditorium_id
	Date         time.Time `json:"date"`          // showtimes.date
	StartTime    string    `json:"start_time"`    // showtimes.start_time
	CreatedAt    time.Time `json:"created_at"`    // showtimes.created_at
	UpdatedAt    time.Time `json:"updated_at"`    // showtimes.updated_at
}

// ShowtimeListing is a showtime joined with its movie and auditorium
// names, returned by the public listing.
type ShowtimeListing struct {
	Showtime
	MovieTitle     string `json:"movie_title"`
	AuditoriumName string `json:"auditorium_name"`
}
