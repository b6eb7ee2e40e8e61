package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/movie-reservation/internal/handler"    // handlers that implement the endpoints
	"github.com/iliyamo/movie-reservation/internal/middleware" // JWT authentication and role enforcement
	"github.com/iliyamo/movie-reservation/internal/model"
)

// RegisterRoutes registers routes that do not belong to any resource.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers registration and login, plus /auth/me behind
// JWTAuth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterCatalog registers movies, showtimes and auditoriums.  Reads are
// public and go through cache; writes require an admin token.
func RegisterCatalog(e *echo.Echo, m *handler.MovieHandler, s *handler.ShowtimeHandler, a *handler.AuditoriumHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	admin := []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin)}

	e.GET("/movies", m.List, cache)
	e.GET("/movies/:id", m.Get, cache)
	e.POST("/movies", m.Create, admin...)
	e.PUT("/movies/:id", m.Update, admin...)
	e.DELETE("/movies/:id", m.Delete, admin...)

	// /showtimes/:id lists the showtimes of movie :id; the other
	// routes address a showtime.
	e.GET("/showtimes/:id", s.List, cache)
	e.GET("/showtimes/:id/available-seats", s.AvailableSeats)
	e.POST("/showtimes", s.Create, admin...)
	e.DELETE("/showtimes/:id", s.Delete, admin...)

	e.POST("/auditoriums", a.Create, admin...)
}

// RegisterBooking registers reservations and payments.  Every route
// requires a valid token; ownership is checked in the handlers.
func RegisterBooking(e *echo.Echo, r *handler.ReservationHandler, p *handler.PaymentHandler, jwtSecret string) {
	auth := middleware.JWTAuth(jwtSecret)

	res := e.Group("/reservations", auth)
	res.POST("", r.Create)
	res.GET("", r.ListAll, middleware.RequireRole(model.RoleAdmin))
	res.GET("/:id", r.ListByUser) // :id is a user id
	res.PUT("/:id/cancel", r.Cancel)
	res.GET("/:id/ticket", r.Ticket)

	pay := e.Group("/payments", auth)
	pay.POST("", p.Create)
	pay.POST("/:id/process", p.Process)
	pay.GET("/:id/confirm", p.Confirm)
}
