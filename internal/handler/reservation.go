package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/skip2/go-qrcode"

	"github.com/iliyamo/movie-reservation/internal/logger"
	"github.com/iliyamo/movie-reservation/internal/service"
)

const ticketSize = 256

// ReservationHandler exposes the reservation ledger.  All routes run
// behind JWTAuth.
type ReservationHandler struct {
	Reservations *service.ReservationService
	Log          *logger.Logger
}

func NewReservationHandler(rs *service.ReservationService, log *logger.Logger) *ReservationHandler {
	if log == nil {
		log = logger.Default()
	}
	return &ReservationHandler{Reservations: rs, Log: log}
}

type reservationReq struct {
	UserID     uint64 `json:"user_id"`
	SeatID     uint64 `json:"seat_id"`
	ShowtimeID uint64 `json:"showtime_id"`
}

// Create handles POST /reservations.  user_id defaults to the caller;
// only admins may book on behalf of someone else.
func (h *ReservationHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return forbidden(c)
	}
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body.")
	}
	if req.UserID == 0 {
		req.UserID = uid
	}
	if req.SeatID == 0 || req.ShowtimeID == 0 {
		return fail(c, http.StatusBadRequest, "seat_id and showtime_id must be positive.")
	}
	if !canAccess(c, req.UserID) {
		return forbidden(c)
	}
	rv, err := h.Reservations.Create(c.Request().Context(), req.UserID, req.SeatID, req.ShowtimeID)
	if err != nil {
		return writeError(c, h.Log, "create reservation", err)
	}
	return ok(c, http.StatusCreated, "Reservation created successfully.", rv)
}

// Cancel handles PUT /reservations/:id/cancel.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, valid := parseID(c, "id", "reservation")
	if !valid {
		return nil
	}
	ctx := c.Request().Context()
	rv, err := h.Reservations.Get(ctx, id)
	if err != nil {
		return writeError(c, h.Log, "cancel reservation", err)
	}
	if !canAccess(c, rv.UserID) {
		return forbidden(c)
	}
	rv, err = h.Reservations.Cancel(ctx, id)
	if err != nil {
		return writeError(c, h.Log, "cancel reservation", err)
	}
	return ok(c, http.StatusOK, "Reservation cancelled successfully.", rv)
}

// ListByUser handles GET /reservations/:id where id is a user id.
func (h *ReservationHandler) ListByUser(c echo.Context) error {
	userID, valid := parseID(c, "id", "user")
	if !valid {
		return nil
	}
	if !canAccess(c, userID) {
		return forbidden(c)
	}
	list, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, h.Log, "list reservations", err)
	}
	return ok(c, http.StatusOK, "Reservations retrieved successfully.", list)
}

// ListAll handles GET /reservations (admin).
func (h *ReservationHandler) ListAll(c echo.Context) error {
	list, err := h.Reservations.ListAll(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, "list all reservations", err)
	}
	return ok(c, http.StatusOK, "Reservations retrieved successfully.", list)
}

// Ticket handles GET /reservations/:id/ticket and answers with a PNG QR
// code of the ticket.
func (h *ReservationHandler) Ticket(c echo.Context) error {
	id, valid := parseID(c, "id", "reservation")
	if !valid {
		return nil
	}
	ctx := c.Request().Context()
	rv, err := h.Reservations.Get(ctx, id)
	if err != nil {
		return writeError(c, h.Log, "ticket", err)
	}
	if !canAccess(c, rv.UserID) {
		return forbidden(c)
	}
	t, err := h.Reservations.Ticket(ctx, id)
	if err != nil {
		return writeError(c, h.Log, "ticket", err)
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return writeError(c, h.Log, "ticket", err)
	}
	png, err := qrcode.Encode(string(payload), qrcode.Medium, ticketSize)
	if err != nil {
		return writeError(c, h.Log, "ticket qr", err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
