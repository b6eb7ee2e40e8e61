// Package service holds the reservation and payment lifecycle.  Every
// multi-statement state change runs in one database transaction; cache
// invalidation and event publishing happen after commit and never fail
// the request.
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/movie-reservation/internal/logger"
	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/queue"
	"github.com/iliyamo/movie-reservation/internal/repository"
)

// ReservationService is the reservation ledger.  It is the only writer of
// the pending and cancelled reservation states.
type ReservationService struct {
	db           *sql.DB
	reservations *repository.ReservationRepo
	payments     *repository.PaymentRepo
	seats        *repository.SeatRepo
	users        *repository.UserRepo
	showtimes    *repository.ShowtimeRepo
	availability *AvailabilityService
	events       queue.Publisher
	log          *logger.Logger
}

// Deps bundles the collaborators shared by the services.
type Deps struct {
	DB           *sql.DB
	Reservations *repository.ReservationRepo
	Payments     *repository.PaymentRepo
	Seats        *repository.SeatRepo
	Users        *repository.UserRepo
	Showtimes    *repository.ShowtimeRepo
	Availability *AvailabilityService
	Events       queue.Publisher
	Log          *logger.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Events == nil {
		d.Events = queue.NopPublisher{}
	}
	if d.Log == nil {
		d.Log = logger.Default()
	}
	return d
}

func NewReservationService(d Deps) *ReservationService {
	d = d.withDefaults()
	return &ReservationService{
		db:           d.DB,
		reservations: d.Reservations,
		payments:     d.Payments,
		seats:        d.Seats,
		users:        d.Users,
		showtimes:    d.Showtimes,
		availability: d.Availability,
		events:       d.Events,
		log:          d.Log,
	}
}

// Create books seatID for showtimeID on behalf of userID.  The seat claim
// is inserted in the same transaction as the reservation, so of two
// concurrent requests for one seat exactly one commits and the other gets
// a Conflict.
func (s *ReservationService) Create(ctx context.Context, userID, seatID, showtimeID uint64) (model.Reservation, error) {
	var rv model.Reservation
	err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		holder, err := s.reservations.ClaimHolder(ctx, tx, showtimeID, seatID)
		if err != nil {
			return err
		}
		if holder != 0 {
			return repository.Conflict("Seat with this showtime is not available.")
		}
		if _, err := s.users.GetByIDTx(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := s.seats.FindInShowtime(ctx, tx, seatID, showtimeID); err != nil {
			return err
		}
		rv, err = s.reservations.CreateTx(ctx, tx, userID, seatID, showtimeID)
		return err
	})
	if err != nil {
		return model.Reservation{}, err
	}

	s.availability.Invalidate(ctx, showtimeID)
	s.publish(ctx, queue.BookingEvent{Type: queue.ReservationCreated, Status: rv.PaymentStatus}, rv)
	return rv, nil
}

// Cancel releases the reservation's seat and deletes its payments.  An
// unknown or already cancelled reservation is NotFound.
func (s *ReservationService) Cancel(ctx context.Context, reservationID uint64) (model.Reservation, error) {
	var rv model.Reservation
	err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		if rv, err = s.reservations.CancelTx(ctx, tx, reservationID); err != nil {
			return err
		}
		return s.payments.DeleteByReservationTx(ctx, tx, reservationID)
	})
	if err != nil {
		return model.Reservation{}, err
	}

	s.availability.Invalidate(ctx, rv.ShowtimeID)
	s.publish(ctx, queue.BookingEvent{Type: queue.ReservationCancelled, Status: rv.PaymentStatus}, rv)
	return rv, nil
}

// Get returns one reservation.
func (s *ReservationService) Get(ctx context.Context, id uint64) (model.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

// ListByUser returns the user's reservations.  NotFound when there are none.
func (s *ReservationService) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	list, err := s.reservations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, repository.NotFound("Reservations not found with this user id.")
	}
	return list, nil
}

// ListAll returns every reservation.
func (s *ReservationService) ListAll(ctx context.Context) ([]model.Reservation, error) {
	return s.reservations.ListAll(ctx)
}

// Ticket assembles the ticket of a paid reservation.  Reservations that
// are not paid are a Conflict.
func (s *ReservationService) Ticket(ctx context.Context, id uint64) (model.Ticket, error) {
	rv, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return model.Ticket{}, err
	}
	if rv.PaymentStatus != model.ReservationPaid {
		return model.Ticket{}, repository.Conflict("Ticket is available only for paid reservations.")
	}
	db := s.reservations.DB()
	seat, err := s.seats.FindInShowtime(ctx, db, rv.SeatID, rv.ShowtimeID)
	if err != nil {
		return model.Ticket{}, err
	}
	st, err := s.showtimes.GetByID(ctx, rv.ShowtimeID)
	if err != nil {
		return model.Ticket{}, err
	}
	payments, err := s.payments.ListByReservation(ctx, db, rv.ID)
	if err != nil {
		return model.Ticket{}, err
	}
	t := model.Ticket{
		ReservationID: rv.ID,
		UserID:        rv.UserID,
		ShowtimeID:    st.ID,
		MovieID:       st.MovieID,
		Date:          st.Date.Format(repository.DateLayout),
		StartTime:     st.StartTime,
		SeatID:        seat.SeatID,
		RowName:       seat.RowName,
		SeatNumber:    seat.SeatNumber,
	}
	for _, p := range payments {
		if p.Status == model.PaymentCompleted && p.TransactionRef != nil {
			t.TransactionRef = *p.TransactionRef
		}
	}
	return t, nil
}

// publish fills the reservation fields of ev and sends it.  Failures are
// logged only.
func (s *ReservationService) publish(ctx context.Context, ev queue.BookingEvent, rv model.Reservation) {
	publish(ctx, s.events, s.log, ev, rv)
}

func publish(ctx context.Context, p queue.Publisher, log *logger.Logger, ev queue.BookingEvent, rv model.Reservation) {
	ev.ReservationID = rv.ID
	ev.UserID = rv.UserID
	ev.ShowtimeID = rv.ShowtimeID
	ev.SeatID = rv.SeatID
	ev.OccurredAt = time.Now().UTC()
	if err := p.Publish(ctx, ev); err != nil {
		log.Warnf("QUEUE", "publish %s reservation=%d: %v", ev.Type, rv.ID, err)
	}
}
