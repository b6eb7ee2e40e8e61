package model

import "time"

// Movie is a catalog entry.  Genre is a list of labels stored as a JSON
// array in a text column.
type Movie struct {
	ID          uint64    `json:"id"`           // movies.id
	Title       string    `json:"title"`        // movies.title
	Genre       []string  `json:"genre"`        // movies.genre (JSON text)
	ReleaseYear int       `json:"release_year"` // movies.release_year
	Minutes     int       `json:"minutes"`      // movies.minutes
	Description string    `json:"description"`  // movies.description
	PosterImage string    `json:"poster_image"` // movies.poster_image
	CreatedAt   time.Time `json:"created_at"`   // movies.created_at
	UpdatedAt   time.Time `json:"updated_at"`   // movies.updated_at
}

// MovieFilter narrows a catalog listing.  Empty fields match everything.
type MovieFilter struct {
	Genre string
	Title string
	Page  int
	Limit int
}

// PageMeta describes a paginated listing.
type PageMeta struct {
	TotalItems  int `json:"totalItems"`
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}
