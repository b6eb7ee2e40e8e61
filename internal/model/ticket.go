package model

// Ticket is the content encoded in the QR code of a paid reservation.
type Ticket struct {
	ReservationID  uint64 `json:"reservation_id"`
	UserID         uint64 `json:"user_id"`
	ShowtimeID     uint64 `json:"showtime_id"`
	MovieID        uint64 `json:"movie_id"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	SeatID         uint64 `json:"seat_id"`
	RowName        string `json:"row_name"`
	SeatNumber     int    `json:"seat_number"`
	TransactionRef string `json:"transaction_ref"`
}
