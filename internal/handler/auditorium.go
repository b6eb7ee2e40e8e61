package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-reservation/internal/logger"
	"github.com/iliyamo/movie-reservation/internal/repository"
)

// AuditoriumHandler lets admins configure auditoriums and their seating.
type AuditoriumHandler struct {
	Seats *repository.SeatRepo
	Log   *logger.Logger
}

func NewAuditoriumHandler(seats *repository.SeatRepo, log *logger.Logger) *AuditoriumHandler {
	if log == nil {
		log = logger.Default()
	}
	return &AuditoriumHandler{Seats: seats, Log: log}
}

type auditoriumReq struct {
	Name string               `json:"name"`
	Rows []repository.RowSpec `json:"rows"`
}

// Create handles POST /auditoriums (admin).  Row names are upper-cased.
func (h *AuditoriumHandler) Create(c echo.Context) error {
	var req auditoriumReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body.")
	}
	for i := range req.Rows {
		req.Rows[i].Name = strings.ToUpper(strings.TrimSpace(req.Rows[i].Name))
		req.Rows[i].SeatType = strings.ToLower(strings.TrimSpace(req.Rows[i].SeatType))
	}
	a, err := h.Seats.CreateAuditorium(c.Request().Context(), req.Name, req.Rows)
	if err != nil {
		return writeError(c, h.Log, "create auditorium", err)
	}
	return ok(c, http.StatusCreated, "Auditorium created successfully.", a)
}
