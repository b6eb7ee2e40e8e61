package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-reservation/internal/logger"
	"github.com/iliyamo/movie-reservation/internal/repository"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

func ok(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: msg, Data: data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, envelope{Success: false, Message: msg})
}

// statusFor maps an error kind to its HTTP status.  Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the domain message of err.  Anything that is not
// a domain error is logged under op and hidden behind a generic message.
func writeError(c echo.Context, log *logger.Logger, op string, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		if log == nil {
			log = logger.Default()
		}
		log.Errorf("API", "%s: %v", op, err)
		return fail(c, status, "Internal server error.")
	}
	return fail(c, status, repository.Message(err))
}
