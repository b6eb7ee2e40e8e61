package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// Context keys set by middleware.JWTAuth.
const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
	ctxEmail    = "email"
	ctxRole     = "role"
)

var errNoUser = errors.New("invalid user_id in context")

// getUserID extracts the user_id stored by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get(ctxUserID).(type) {
	case uint64:
		if t > 0 {
			return t, nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, errNoUser
}

func getRole(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

func isAdmin(c echo.Context) bool { return getRole(c) == model.RoleAdmin }

// canAccess reports whether the caller owns a resource belonging to
// ownerID or is an admin.
func canAccess(c echo.Context, ownerID uint64) bool {
	if isAdmin(c) {
		return true
	}
	uid, err := getUserID(c)
	return err == nil && uid == ownerID
}

// parseID reads a positive integer path parameter.  On failure it writes
// the 400 response and returns false.
func parseID(c echo.Context, name, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		_ = fail(c, http.StatusBadRequest, "Invalid "+label+" id.")
		return 0, false
	}
	return id, true
}

func forbidden(c echo.Context) error {
	return fail(c, http.StatusForbidden, "You are not allowed to access this resource.")
}
