package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/repository"
	"github.com/iliyamo/movie-reservation/internal/testutil"
)

func TestErrorKinds(t *testing.T) {
	err := fmtWrap(repository.Conflict("seat taken"))
	assert.True(t, errors.Is(err, repository.ErrConflict))
	assert.False(t, errors.Is(err, repository.ErrNotFound))
	assert.Equal(t, "seat taken", repository.Message(err))
	assert.Equal(t, "", repository.Message(errors.New("boom")))
	assert.True(t, errors.Is(repository.Forbidden("no"), repository.ErrForbidden))
	assert.True(t, errors.Is(repository.Validation("bad"), repository.ErrValidation))
}

func fmtWrap(err error) error { return errors.Join(errors.New("context"), err) }

func TestSeatCatalog(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	seats := repository.NewSeatRepo(db)

	list, err := seats.ListForShowtime(ctx, fx.Showtimes[0])
	require.NoError(t, err)
	require.Len(t, list, 8)
	assert.Equal(t, model.SeatInfo{SeatID: 1, RowName: "A", SeatNumber: 1, SeatType: "standard", PriceCents: 1000}, list[0])
	assert.Equal(t, int64(1250), list[4].PriceCents)

	_, err = seats.ListForShowtime(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	s, err := seats.FindInShowtime(ctx, db, 5, fx.Showtimes[2])
	require.NoError(t, err)
	assert.Equal(t, "B", s.RowName)

	_, err = seats.FindInShowtime(ctx, db, fx.OtherSeats[0], fx.Showtimes[0])
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateAuditorium(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	seats := repository.NewSeatRepo(db)

	a, err := seats.CreateAuditorium(ctx, "IMAX", []repository.RowSpec{
		{Name: "A", Seats: 3, SeatType: "standard", PriceCents: 900},
		{Name: "B", Seats: 2, SeatType: "standard", PriceCents: 900},
	})
	require.NoError(t, err)
	assert.NotZero(t, a.ID)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM seats").Scan(&n))
	assert.Equal(t, 5, n)
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM seat_types").Scan(&n))
	assert.Equal(t, 1, n)

	_, err = seats.CreateAuditorium(ctx, "Broken", []repository.RowSpec{
		{Name: "A", Seats: 1, SeatType: "vip", PriceCents: 100},
		{Name: "A", Seats: 1, SeatType: "vip", PriceCents: 100},
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM auditoriums").Scan(&n))
	assert.Equal(t, 1, n, "failed auditorium must be rolled back")
}

func TestReservationClaimLifecycle(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	repo := repository.NewReservationRepo(db)
	st, seat := fx.Showtimes[0], fx.SeatsA[0]

	var first model.Reservation
	require.NoError(t, repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		first, err = repo.CreateTx(ctx, tx, fx.Alice, seat, st)
		return err
	}))
	assert.Equal(t, model.ReservationPending, first.PaymentStatus)

	holder, err := repo.ClaimHolder(ctx, db, st, seat)
	require.NoError(t, err)
	assert.Equal(t, first.ID, holder)

	err = repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		_, err := repo.CreateTx(ctx, tx, fx.Bob, seat, st)
		return err
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "losing insert must not leave a reservation behind")

	require.NoError(t, repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		rv, err := repo.CancelTx(ctx, tx, first.ID)
		assert.Equal(t, model.ReservationCancelled, rv.PaymentStatus)
		return err
	}))
	holder, err = repo.ClaimHolder(ctx, db, st, seat)
	require.NoError(t, err)
	assert.Zero(t, holder)

	err = repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		_, err := repo.CancelTx(ctx, tx, first.ID)
		return err
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		return repo.MarkPaidTx(ctx, tx, first.ID)
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestPaymentSettleIsConditional(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	reservations := repository.NewReservationRepo(db)
	payments := repository.NewPaymentRepo(db)

	var p model.Payment
	require.NoError(t, repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		rv, err := reservations.CreateTx(ctx, tx, fx.Alice, 5, fx.Showtimes[2])
		if err != nil {
			return err
		}
		p, err = payments.CreateTx(ctx, tx, model.Payment{ReservationID: rv.ID, UserID: rv.UserID, AmountCents: 1250, PaymentMethod: "credit_card"})
		return err
	}))
	assert.Equal(t, model.PaymentPending, p.Status)
	assert.Nil(t, p.TransactionRef)

	pending, err := payments.HasPendingTx(ctx, db, p.ReservationID)
	require.NoError(t, err)
	assert.True(t, pending)

	settle := func() error {
		return repository.WithTx(ctx, db, func(tx *sql.Tx) error {
			return payments.SettleTx(ctx, tx, p.ID, model.PaymentCompleted, "ref-1")
		})
	}
	require.NoError(t, settle())
	assert.ErrorIs(t, settle(), repository.ErrConflict)

	got, err := payments.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TransactionRef)
	assert.Equal(t, "ref-1", *got.TransactionRef)

	_, err = payments.GetByID(ctx, 404)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	users := repository.NewUserRepo(db)

	u, err := users.Create(ctx, "carol", " Carol@Example.com ", "password123", model.RoleUser, 4)
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", u.Email)
	assert.NotEqual(t, "password123", u.PasswordHash)

	_, err = users.Create(ctx, "carol", "other@example.com", "password123", model.RoleUser, 4)
	assert.ErrorIs(t, err, repository.ErrConflict)

	byEmail, err := users.GetByLogin(ctx, "CAROL@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	byName, err := users.GetByLogin(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	require.NoError(t, users.SetRole(ctx, u.ID, model.RoleAdmin))
	u, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	_, err = users.GetByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMovieRepo(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	movies := repository.NewMovieRepo(db)

	m, err := movies.Create(ctx, model.Movie{Title: "Alien", Genre: []string{"Horror", "SciFi"}, ReleaseYear: 1979, Minutes: 117})
	require.NoError(t, err)
	assert.Equal(t, []string{"Horror", "SciFi"}, m.Genre)

	_, err = movies.Create(ctx, model.Movie{Title: "ALIEN", Genre: []string{"x"}, ReleaseYear: 1979, Minutes: 1})
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = movies.Create(ctx, model.Movie{Title: "Up", Genre: []string{"Animation"}, ReleaseYear: 2009, Minutes: 96})
	require.NoError(t, err)

	list, total, err := movies.List(ctx, model.MovieFilter{Genre: "horror", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Alien", list[0].Title)

	list, total, err = movies.List(ctx, model.MovieFilter{Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 1)

	m.Minutes = 120
	m, err = movies.Update(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, 120, m.Minutes)

	_, err = movies.Delete(ctx, m.ID)
	require.NoError(t, err)
	_, err = movies.GetByID(ctx, m.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestShowtimeRepo(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	showtimes := repository.NewShowtimeRepo(db)

	list, err := showtimes.ListForMovie(ctx, fx.Movie, fx.Tomorrow, "")
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "14:00", list[0].StartTime)
	assert.Equal(t, "Heat", list[0].MovieTitle)

	later, err := showtimes.ListForMovie(ctx, fx.Movie, fx.Tomorrow, "17:30")
	require.NoError(t, err)
	assert.Len(t, later, 2)

	_, err = showtimes.Create(ctx, fx.Movie, 1, fx.Tomorrow, "14:00")
	assert.ErrorIs(t, err, repository.ErrConflict)
	_, err = showtimes.Create(ctx, 99, 1, fx.Tomorrow, "10:00")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	s, err := showtimes.Create(ctx, fx.Movie, 1, fx.Tomorrow, "10:00")
	require.NoError(t, err)
	assert.Equal(t, fx.Tomorrow, s.Date.Format(repository.DateLayout))

	_, err = showtimes.Delete(ctx, s.ID)
	require.NoError(t, err)
	_, err = showtimes.Delete(ctx, s.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
