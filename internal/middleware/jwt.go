package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/movie-reservation/internal/utils"
)

// deny writes the standard error envelope.
func deny(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's identity into the request context.  Handlers
// read it via c.Get("user_id") (uint64), c.Get("username"),
// c.Get("email") and c.Get("role").  Missing or invalid tokens are
// rejected with 403.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return deny(c, http.StatusForbidden, "No token provided.")
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			who, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return deny(c, http.StatusForbidden, "Invalid or expired token.")
			}

			c.Set("user_id", who.ID)
			c.Set("username", who.Username)
			c.Set("email", who.Email)
			c.Set("role", who.Role)
			return next(c)
		}
	}
}
