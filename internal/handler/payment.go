package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-reservation/internal/logger"
	"github.com/iliyamo/movie-reservation/internal/service"
)

var paymentMethods = map[string]bool{
	"credit_card":   true,
	"paypal":        true,
	"bank_transfer": true,
}

// PaymentHandler exposes the payment processor.  All routes run behind
// JWTAuth.
type PaymentHandler struct {
	Payments     *service.PaymentService
	Reservations *service.ReservationService
	Log          *logger.Logger
}

func NewPaymentHandler(ps *service.PaymentService, rs *service.ReservationService, log *logger.Logger) *PaymentHandler {
	if log == nil {
		log = logger.Default()
	}
	return &PaymentHandler{Payments: ps, Reservations: rs, Log: log}
}

type paymentReq struct {
	ReservationID uint64 `json:"reservation_id"`
	PaymentMethod string `json:"payment_method"`
}

// Create handles POST /payments.
func (h *PaymentHandler) Create(c echo.Context) error {
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body.")
	}
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if req.ReservationID == 0 {
		return fail(c, http.StatusBadRequest, "reservation_id must be positive.")
	}
	if !paymentMethods[req.PaymentMethod] {
		return fail(c, http.StatusBadRequest, "Payment method must be one of credit_card, paypal or bank_transfer.")
	}
	ctx := c.Request().Context()
	rv, err := h.Reservations.Get(ctx, req.ReservationID)
	if err != nil {
		return writeError(c, h.Log, "create payment", err)
	}
	if !canAccess(c, rv.UserID) {
		return forbidden(c)
	}
	p, err := h.Payments.Create(ctx, req.ReservationID, req.PaymentMethod)
	if err != nil {
		return writeError(c, h.Log, "create payment", err)
	}
	return ok(c, http.StatusCreated, "Payment created successfully.", p)
}

// Process handles POST /payments/:id/process.
func (h *PaymentHandler) Process(c echo.Context) error {
	id, valid := parseID(c, "id", "payment")
	if !valid {
		return nil
	}
	ctx := c.Request().Context()
	p, err := h.Payments.Confirm(ctx, id)
	if err != nil {
		return writeError(c, h.Log, "process payment", err)
	}
	if !canAccess(c, p.UserID) {
		return forbidden(c)
	}
	p, err = h.Payments.Process(ctx, id)
	if err != nil {
		return writeError(c, h.Log, "process payment", err)
	}
	return ok(c, http.StatusOK, "Payment processed with status "+p.Status+".", p)
}

// Confirm handles GET /payments/:id/confirm.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	id, valid := parseID(c, "id", "payment")
	if !valid {
		return nil
	}
	p, err := h.Payments.Confirm(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, "confirm payment", err)
	}
	if !canAccess(c, p.UserID) {
		return forbidden(c)
	}
	return ok(c, http.StatusOK, "Payment retrieved successfully.", p)
}
