package model

// Auditorium is a screening room.  Its rows and seats are configured
// once and are read-only afterwards.
type Auditorium struct {
	ID   uint64 `json:"id"`   // auditoriums.id
	Name string `json:"name"` // auditoriums.name
}

// SeatInfo describes one physical seat of a showtime's auditorium
// together with the price of its seat type.  Seats inherit their type
// from the row they sit in.
//
// Fields:
//
//	SeatID     – seats.id.
//	RowName    – label of the seat's row (A, B, ...).
//	SeatNumber – number of the seat within the row.
//	SeatType   – name of the row's seat type.
//	PriceCents – seat type price in cents.
type SeatInfo struct {
	SeatID     uint64 `json:"seat_id"`
	RowName    string `json:"row_name"`
	SeatNumber int    `json:"seat_number"`
	SeatType   string `json:"seat_type"`
	PriceCents int64  `json:"price_cents"`
}

// AvailableSeat is one entry of the available-seats listing.
type AvailableSeat struct {
	ShowtimeID uint64 `json:"showtime_id"`
	SeatID     uint64 `json:"seat_id"`
	RowName    string `json:"row_name"`
	SeatNumber int    `json:"seat_number"`
}
