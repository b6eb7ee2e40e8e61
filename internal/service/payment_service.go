package service

import (
	"context"
	"database/sql"
	"math/rand"

	"github.com/google/uuid"

	"github.com/iliyamo/movie-reservation/internal/logger"
	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/queue"
	"github.com/iliyamo/movie-reservation/internal/repository"
)

// Outcome decides whether a simulated settlement succeeds.
type Outcome func() bool

// Bernoulli returns an Outcome that succeeds with probability p.
func Bernoulli(p float64) Outcome {
	return func() bool { return rand.Float64() < p }
}

// PaymentService is the payment processor.  It is the only writer of
// payment status and of the reservation's paid state.
type PaymentService struct {
	db           *sql.DB
	payments     *repository.PaymentRepo
	reservations *repository.ReservationRepo
	seats        *repository.SeatRepo
	availability *AvailabilityService
	events       queue.Publisher
	log          *logger.Logger
	outcome      Outcome
	newRef       func() string
}

// NewPaymentService wires the service.  A nil outcome defaults to
// Bernoulli(0.8).
func NewPaymentService(d Deps, outcome Outcome) *PaymentService {
	d = d.withDefaults()
	if outcome == nil {
		outcome = Bernoulli(0.8)
	}
	return &PaymentService{
		db:           d.DB,
		payments:     d.Payments,
		reservations: d.Reservations,
		seats:        d.Seats,
		availability: d.Availability,
		events:       d.Events,
		log:          d.Log,
		outcome:      outcome,
		newRef:       uuid.NewString,
	}
}

// Create opens a pending payment for a pending reservation.  The amount
// is the current price of the reservation's seat type.  Only one pending
// payment may exist per reservation.
func (s *PaymentService) Create(ctx context.Context, reservationID uint64, method string) (model.Payment, error) {
	var p model.Payment
	err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		rv, err := s.reservations.GetByIDTx(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if rv.PaymentStatus != model.ReservationPending {
			return repository.Conflict("Reservation paid or cancelled.")
		}
		pending, err := s.payments.HasPendingTx(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if pending {
			return repository.Conflict("A pending payment already exists for this reservation.")
		}
		amount, err := s.seats.PriceForReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		p, err = s.payments.CreateTx(ctx, tx, model.Payment{
			ReservationID: rv.ID,
			UserID:        rv.UserID,
			AmountCents:   amount,
			PaymentMethod: method,
		})
		return err
	})
	return p, err
}

// Process settles a pending payment.  On success the payment completes and
// its reservation becomes paid in the same transaction; on failure the
// payment fails and the reservation stays pending so a new payment can be
// opened.  Processing a payment that is not pending is a Conflict.
func (s *PaymentService) Process(ctx context.Context, paymentID uint64) (model.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return model.Payment{}, err
	}
	if p.Status != model.PaymentPending {
		return model.Payment{}, repository.Conflict("Payment already processed.")
	}

	status := model.PaymentFailed
	if s.outcome() {
		status = model.PaymentCompleted
	}

	var rv model.Reservation
	err = repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.payments.SettleTx(ctx, tx, p.ID, status, s.newRef()); err != nil {
			return err
		}
		if status == model.PaymentCompleted {
			if err := s.reservations.MarkPaidTx(ctx, tx, p.ReservationID); err != nil {
				return err
			}
		}
		var err error
		if p, err = s.payments.GetByIDTx(ctx, tx, p.ID); err != nil {
			return err
		}
		rv, err = s.reservations.GetByIDTx(ctx, tx, p.ReservationID)
		return err
	})
	if err != nil {
		return model.Payment{}, err
	}

	s.availability.Invalidate(ctx, rv.ShowtimeID)
	publish(ctx, s.events, s.log, queue.BookingEvent{
		Type:        queue.PaymentProcessed,
		PaymentID:   p.ID,
		Status:      p.Status,
		AmountCents: p.AmountCents,
	}, rv)
	return p, nil
}

// Confirm returns the current state of a payment.  It never mutates.
func (s *PaymentService) Confirm(ctx context.Context, paymentID uint64) (model.Payment, error) {
	return s.payments.GetByID(ctx, paymentID)
}
