package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-reservation/internal/logger"
	"github.com/iliyamo/movie-reservation/internal/repository"
	"github.com/iliyamo/movie-reservation/internal/service"
)

const startTimeLayout = "15:04"

// ShowtimeHandler serves showtime listings, scheduling and seat
// availability.
type ShowtimeHandler struct {
	Showtimes    *repository.ShowtimeRepo
	Availability *service.AvailabilityService
	Cache        Purger // optional
	Log          *logger.Logger
	Now          func() time.Time
}

func NewShowtimeHandler(st *repository.ShowtimeRepo, av *service.AvailabilityService, cache Purger, log *logger.Logger) *ShowtimeHandler {
	if log == nil {
		log = logger.Default()
	}
	return &ShowtimeHandler{Showtimes: st, Availability: av, Cache: cache, Log: log, Now: time.Now}
}

func (h *ShowtimeHandler) today() time.Time {
	n := h.Now().UTC()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// List handles GET /showtimes/:id?date=YYYY-MM-DD where id is the movie.
// The date defaults to tomorrow.  For today only later start times are
// listed.
func (h *ShowtimeHandler) List(c echo.Context) error {
	movieID, valid := parseID(c, "id", "movie")
	if !valid {
		return nil
	}
	today := h.today()
	day := today.AddDate(0, 0, 1)
	if raw := strings.TrimSpace(c.QueryParam("date")); raw != "" {
		d, err := time.Parse(repository.DateLayout, raw)
		if err != nil {
			return fail(c, http.StatusBadRequest, "Date must be formatted YYYY-MM-DD.")
		}
		day = d
	}
	if day.Before(today) {
		return fail(c, http.StatusBadRequest, "Date can not be in the past.")
	}
	after := ""
	if day.Equal(today) {
		after = h.Now().UTC().Format(startTimeLayout)
	}

	list, err := h.Showtimes.ListForMovie(c.Request().Context(), movieID, day.Format(repository.DateLayout), after)
	if err != nil {
		return writeError(c, h.Log, "list showtimes", err)
	}
	if len(list) == 0 {
		return fail(c, http.StatusNotFound, "No showtimes found for this movie and date.")
	}
	return ok(c, http.StatusOK, "Showtimes retrieved successfully.", list)
}

type showtimeReq struct {
	MovieID      uint64 `json:"movie_id"`
	AuditoriumID uint64 `json:"auditorium_id"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
}

// Create handles POST /showtimes (admin).
func (h *ShowtimeHandler) Create(c echo.Context) error {
	var req showtimeReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body.")
	}
	if req.MovieID == 0 || req.AuditoriumID == 0 {
		return fail(c, http.StatusBadRequest, "movie_id and auditorium_id must be positive.")
	}
	day, err := time.Parse(repository.DateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Date must be formatted YYYY-MM-DD.")
	}
	if day.Before(h.today()) {
		return fail(c, http.StatusBadRequest, "Date can not be in the past.")
	}
	start, err := time.Parse(startTimeLayout, strings.TrimSpace(req.StartTime))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Start time must be formatted HH:MM.")
	}

	ctx := c.Request().Context()
	st, err := h.Showtimes.Create(ctx, req.MovieID, req.AuditoriumID,
		day.Format(repository.DateLayout), start.Format(startTimeLayout))
	if err != nil {
		return writeError(c, h.Log, "create showtime", err)
	}
	if h.Cache != nil {
		h.Cache.Purge(ctx)
	}
	return ok(c, http.StatusCreated, "Showtime created successfully.", st)
}

// Delete handles DELETE /showtimes/:id (admin).  Reservations of the
// showtime are removed with it.
func (h *ShowtimeHandler) Delete(c echo.Context) error {
	id, valid := parseID(c, "id", "showtime")
	if !valid {
		return nil
	}
	ctx := c.Request().Context()
	st, err := h.Showtimes.Delete(ctx, id)
	if err != nil {
		return writeError(c, h.Log, "delete showtime", err)
	}
	h.Availability.Invalidate(ctx, id)
	if h.Cache != nil {
		h.Cache.Purge(ctx)
	}
	return ok(c, http.StatusOK, "Showtime deleted successfully.", st)
}

// AvailableSeats handles GET /showtimes/:id/available-seats.
func (h *ShowtimeHandler) AvailableSeats(c echo.Context) error {
	id, valid := parseID(c, "id", "showtime")
	if !valid {
		return nil
	}
	seats, err := h.Availability.ListAvailable(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, "available seats", err)
	}
	return ok(c, http.StatusOK, "Available seats retrieved successfully.", seats)
}
