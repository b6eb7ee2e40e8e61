package service_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-reservation/internal/config"
	"github.com/iliyamo/movie-reservation/internal/logger"
	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/queue"
	"github.com/iliyamo/movie-reservation/internal/repository"
	"github.com/iliyamo/movie-reservation/internal/service"
	"github.com/iliyamo/movie-reservation/internal/testutil"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockPublisher) types() []string {
	var out []string
	for _, c := range m.Calls {
		out = append(out, c.Arguments.Get(1).(queue.BookingEvent).Type)
	}
	return out
}

type env struct {
	db       *sql.DB
	fx       testutil.Fixture
	res      *service.ReservationService
	pay      *service.PaymentService
	avail    *service.AvailabilityService
	pub      *mockPublisher
	outcome  bool
	quietLog *logger.Logger
}

func newEnv(t *testing.T, rdb *redis.Client) *env {
	t.Helper()
	db := testutil.NewDB(t)
	e := &env{db: db, fx: testutil.Seed(t, db), pub: &mockPublisher{}, outcome: true}
	e.pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	e.quietLog = logger.New(&discard{}, logger.ERROR)

	seats := repository.NewSeatRepo(db)
	e.avail = service.NewAvailabilityService(seats, rdb,
		config.AvailabilityCacheConfig{Enabled: true, TTL: time.Minute, Prefix: "seats"}, e.quietLog)
	deps := service.Deps{
		DB:           db,
		Reservations: repository.NewReservationRepo(db),
		Payments:     repository.NewPaymentRepo(db),
		Seats:        seats,
		Users:        repository.NewUserRepo(db),
		Showtimes:    repository.NewShowtimeRepo(db),
		Availability: e.avail,
		Events:       e.pub,
		Log:          e.quietLog,
	}
	e.res = service.NewReservationService(deps)
	e.pay = service.NewPaymentService(deps, func() bool { return e.outcome })
	return e
}

type discard struct{}

func (*discard) Write(p []byte) (int, error) { return len(p), nil }

func seatIDs(seats []model.AvailableSeat) []uint64 {
	out := make([]uint64, 0, len(seats))
	for _, s := range seats {
		out = append(out, s.SeatID)
	}
	return out
}

func TestReservationHidesSeatUntilCancelled(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	st := e.fx.Showtimes[0]

	before, err := e.avail.ListAvailable(ctx, st)
	require.NoError(t, err)
	require.Contains(t, seatIDs(before), uint64(2))

	rv, err := e.res.Create(ctx, e.fx.Alice, 2, st)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, rv.PaymentStatus)

	after, err := e.avail.ListAvailable(ctx, st)
	require.NoError(t, err)
	assert.NotContains(t, seatIDs(after), uint64(2))
	assert.Len(t, after, len(before)-1)

	other, err := e.avail.ListAvailable(ctx, e.fx.Showtimes[1])
	require.NoError(t, err)
	assert.Contains(t, seatIDs(other), uint64(2), "claims are per showtime")

	_, err = e.res.Cancel(ctx, rv.ID)
	require.NoError(t, err)
	again, err := e.avail.ListAvailable(ctx, st)
	require.NoError(t, err)
	assert.Contains(t, seatIDs(again), uint64(2))

	assert.Equal(t, []string{queue.ReservationCreated, queue.ReservationCancelled}, e.pub.types())
}

func TestCreateReservationErrors(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	st := e.fx.Showtimes[0]

	_, err := e.res.Create(ctx, 999, 1, st)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = e.res.Create(ctx, e.fx.Alice, e.fx.OtherSeats[0], st)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = e.res.Create(ctx, e.fx.Alice, 1, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = e.res.Create(ctx, e.fx.Alice, 1, st)
	require.NoError(t, err)
	_, err = e.res.Create(ctx, e.fx.Bob, 1, st)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, "Seat with this showtime is not available.", repository.Message(err))
}

func TestConcurrentDoubleBookingHasOneWinner(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	const attempts = 8

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := e.fx.Alice
			if i%2 == 1 {
				user = e.fx.Bob
			}
			_, errs[i] = e.res.Create(ctx, user, 4, e.fx.Showtimes[1])
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrConflict)
	}
	assert.Equal(t, 1, wins)

	var active int
	require.NoError(t, e.db.QueryRow(
		"SELECT COUNT(*) FROM reservations WHERE seat_id = 4 AND showtime_id = ? AND payment_status IN ('pending','paid')",
		e.fx.Showtimes[1]).Scan(&active))
	assert.Equal(t, 1, active)
}

func TestCancelRemovesPaymentsAndRejectsRepeat(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	rv, err := e.res.Create(ctx, e.fx.Alice, 6, e.fx.Showtimes[0])
	require.NoError(t, err)
	e.outcome = false
	p, err := e.pay.Create(ctx, rv.ID, "paypal")
	require.NoError(t, err)
	_, err = e.pay.Process(ctx, p.ID)
	require.NoError(t, err)
	_, err = e.pay.Create(ctx, rv.ID, "paypal")
	require.NoError(t, err)

	cancelled, err := e.res.Cancel(ctx, rv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, cancelled.PaymentStatus)

	var n int
	require.NoError(t, e.db.QueryRow("SELECT COUNT(*) FROM payments WHERE reservation_id = ?", rv.ID).Scan(&n))
	assert.Zero(t, n)

	_, err = e.res.Cancel(ctx, rv.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = e.res.Cancel(ctx, 12345)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = e.pay.Create(ctx, rv.ID, "paypal")
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestCancelPaidReservationReleasesSeat(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	rv, err := e.res.Create(ctx, e.fx.Alice, 7, e.fx.Showtimes[0])
	require.NoError(t, err)
	p, err := e.pay.Create(ctx, rv.ID, "credit_card")
	require.NoError(t, err)
	_, err = e.pay.Process(ctx, p.ID)
	require.NoError(t, err)

	_, err = e.res.Cancel(ctx, rv.ID)
	require.NoError(t, err)
	rv2, err := e.res.Create(ctx, e.fx.Bob, 7, e.fx.Showtimes[0])
	require.NoError(t, err)
	assert.NotEqual(t, rv.ID, rv2.ID)
}

func TestListReservations(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	_, err := e.res.ListByUser(ctx, e.fx.Alice)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = e.res.Create(ctx, e.fx.Alice, 1, e.fx.Showtimes[0])
	require.NoError(t, err)
	_, err = e.res.Create(ctx, e.fx.Bob, 2, e.fx.Showtimes[0])
	require.NoError(t, err)

	mine, err := e.res.ListByUser(ctx, e.fx.Alice)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := e.res.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestConfirmIsPureRead(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	rv, err := e.res.Create(ctx, e.fx.Alice, 3, e.fx.Showtimes[0])
	require.NoError(t, err)
	p, err := e.pay.Create(ctx, rv.ID, "bank_transfer")
	require.NoError(t, err)

	first, err := e.pay.Confirm(ctx, p.ID)
	require.NoError(t, err)
	second, err := e.pay.Confirm(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, model.PaymentPending, second.Status)

	_, err = e.pay.Confirm(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreatePaymentRules(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	_, err := e.pay.Create(ctx, 999, "credit_card")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	rv, err := e.res.Create(ctx, e.fx.Alice, 1, e.fx.Showtimes[0])
	require.NoError(t, err)
	p, err := e.pay.Create(ctx, rv.ID, "credit_card")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), p.AmountCents)
	assert.Equal(t, rv.UserID, p.UserID)

	_, err = e.pay.Create(ctx, rv.ID, "credit_card")
	assert.ErrorIs(t, err, repository.ErrConflict, "second pending payment")

	_, err = e.pay.Process(ctx, p.ID)
	require.NoError(t, err)
	_, err = e.pay.Create(ctx, rv.ID, "credit_card")
	assert.ErrorIs(t, err, repository.ErrConflict, "reservation already paid")
}

func TestReprocessingIsRejected(t *testing.T) {
	ctx := context.Background()
	for _, outcome := range []bool{true, false} {
		e := newEnv(t, nil)
		e.outcome = outcome
		rv, err := e.res.Create(ctx, e.fx.Alice, 8, e.fx.Showtimes[0])
		require.NoError(t, err)
		p, err := e.pay.Create(ctx, rv.ID, "credit_card")
		require.NoError(t, err)

		settled, err := e.pay.Process(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, settled.TransactionRef)

		e.outcome = !outcome
		_, err = e.pay.Process(ctx, p.ID)
		assert.ErrorIs(t, err, repository.ErrConflict)

		again, err := e.pay.Confirm(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, settled.Status, again.Status)
		assert.Equal(t, *settled.TransactionRef, *again.TransactionRef)
	}
}

func TestConcurrentProcessingSettlesOnce(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	rv, err := e.res.Create(ctx, e.fx.Alice, 5, e.fx.Showtimes[1])
	require.NoError(t, err)
	p, err := e.pay.Create(ctx, rv.ID, "credit_card")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.pay.Process(ctx, p.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, repository.ErrConflict)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestSettlementRollsBackWhenReservationMoved(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	rv, err := e.res.Create(ctx, e.fx.Alice, 2, e.fx.Showtimes[2])
	require.NoError(t, err)
	p, err := e.pay.Create(ctx, rv.ID, "credit_card")
	require.NoError(t, err)

	_, err = e.db.Exec("UPDATE reservations SET payment_status = 'paid' WHERE id = ?", rv.ID)
	require.NoError(t, err)

	_, err = e.pay.Process(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrConflict)

	after, err := e.pay.Confirm(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, after.Status, "payment update must roll back with the reservation update")
	assert.Nil(t, after.TransactionRef)
}

// Reservation (user 1, seat 5, showtime 3) paid with credit card for 12.50
// ends either completed+paid or failed+pending.
func TestBookingScenario(t *testing.T) {
	cases := []struct {
		outcome     bool
		payment     string
		reservation string
	}{
		{true, model.PaymentCompleted, model.ReservationPaid},
		{false, model.PaymentFailed, model.ReservationPending},
	}
	for _, tc := range cases {
		t.Run(tc.payment, func(t *testing.T) {
			ctx := context.Background()
			e := newEnv(t, nil)
			e.outcome = tc.outcome

			rv, err := e.res.Create(ctx, 1, 5, 3)
			require.NoError(t, err)
			assert.Equal(t, uint64(1), rv.ID)

			p, err := e.pay.Create(ctx, rv.ID, "credit_card")
			require.NoError(t, err)
			b, err := json.Marshal(p)
			require.NoError(t, err)
			assert.Contains(t, string(b), `"amount":12.5`)

			processed, err := e.pay.Process(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.payment, processed.Status)

			got, err := e.res.Get(ctx, rv.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.reservation, got.PaymentStatus)

			seats, err := e.avail.ListAvailable(ctx, 3)
			require.NoError(t, err)
			assert.NotContains(t, seatIDs(seats), uint64(5), "seat stays held either way")

			if !tc.outcome {
				retry, err := e.pay.Create(ctx, rv.ID, "credit_card")
				require.NoError(t, err, "failed payment allows a new attempt")
				assert.Equal(t, model.PaymentPending, retry.Status)
			}
		})
	}
}

func TestAvailabilityDistinguishesMissingFromFull(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	_, err := e.avail.ListAvailable(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, "Showtime not found.", repository.Message(err))

	for _, seat := range e.fx.OtherSeats {
		_, err := e.res.Create(ctx, e.fx.Alice, seat, e.fx.OtherShowtime)
		require.NoError(t, err)
	}
	_, err = e.avail.ListAvailable(ctx, e.fx.OtherShowtime)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, "No available seat with this showtime.", repository.Message(err))
}

func TestAvailabilityCache(t *testing.T) {
	ctx := context.Background()
	rdb, rmock := redismock.NewClientMock()
	e := newEnv(t, rdb)
	st := e.fx.OtherShowtime
	key := e.avail.CacheKey(st)
	assert.Equal(t, "seats:showtime:4", key)

	want := []model.AvailableSeat{
		{ShowtimeID: st, SeatID: 9, RowName: "A", SeatNumber: 1},
		{ShowtimeID: st, SeatID: 10, RowName: "A", SeatNumber: 2},
	}
	body, err := json.Marshal(want)
	require.NoError(t, err)

	rmock.ExpectGet(key).RedisNil()
	rmock.ExpectSet(key, body, time.Minute).SetVal("OK")
	got, err := e.avail.ListAvailable(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	rmock.ExpectGet(key).SetVal(string(body))
	got, err = e.avail.ListAvailable(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	rmock.ExpectDel(key).SetVal(1)
	_, err = e.res.Create(ctx, e.fx.Alice, 9, st)
	require.NoError(t, err)

	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestBernoulliExtremes(t *testing.T) {
	always, never := service.Bernoulli(1), service.Bernoulli(0)
	for i := 0; i < 100; i++ {
		assert.True(t, always())
		assert.False(t, never())
	}
}

func TestTicketRequiresPaidReservation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	st, seat := e.fx.Showtimes[1], e.fx.SeatsB[2]

	rv, err := e.res.Create(ctx, e.fx.Bob, seat, st)
	require.NoError(t, err)
	_, err = e.res.Ticket(ctx, rv.ID)
	assert.ErrorIs(t, err, repository.ErrConflict)

	p, err := e.pay.Create(ctx, rv.ID, "paypal")
	require.NoError(t, err)
	p, err = e.pay.Process(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, p.TransactionRef)

	tk, err := e.res.Ticket(ctx, rv.ID)
	require.NoError(t, err)
	assert.Equal(t, rv.ID, tk.ReservationID)
	assert.Equal(t, e.fx.Bob, tk.UserID)
	assert.Equal(t, e.fx.Movie, tk.MovieID)
	assert.Equal(t, e.fx.Tomorrow, tk.Date)
	assert.Equal(t, "17:30", tk.StartTime)
	assert.Equal(t, "B", tk.RowName)
	assert.Equal(t, 3, tk.SeatNumber)
	assert.Equal(t, *p.TransactionRef, tk.TransactionRef)

	_, err = e.res.Ticket(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	users := repository.NewUserRepo(e.db)

	u, err := service.EnsureAdmin(ctx, users, "boss", "boss@example.com", "password123", 4)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	again, err := service.EnsureAdmin(ctx, users, "boss", "boss@example.com", "other-password", 4)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	promoted, err := service.EnsureAdmin(ctx, users, "alice", "alice@example.com", "password123", 4)
	require.NoError(t, err)
	assert.Equal(t, e.fx.Alice, promoted.ID)
	stored, err := users.GetByID(ctx, e.fx.Alice)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, stored.Role)
}
