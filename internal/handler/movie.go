package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-reservation/internal/logger"
	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/repository"
)

// Purger drops cached catalog responses after a write.
type Purger interface {
	Purge(ctx context.Context)
}

const maxPageLimit = 100

// MovieHandler serves the movie catalog.
type MovieHandler struct {
	Movies *repository.MovieRepo
	Cache  Purger // optional
	Log    *logger.Logger
}

func NewMovieHandler(movies *repository.MovieRepo, cache Purger, log *logger.Logger) *MovieHandler {
	if log == nil {
		log = logger.Default()
	}
	return &MovieHandler{Movies: movies, Cache: cache, Log: log}
}

func (h *MovieHandler) purge(ctx context.Context) {
	if h.Cache != nil {
		h.Cache.Purge(ctx)
	}
}

type movieReq struct {
	Title       *string  `json:"title"`
	Genre       []string `json:"genre"`
	ReleaseYear *int     `json:"release_year"`
	Minutes     *int     `json:"minutes"`
	Description *string  `json:"description"`
	PosterImage *string  `json:"poster_image"`
}

// apply merges the fields present in the request onto m.
func (r movieReq) apply(m *model.Movie) {
	if r.Title != nil {
		m.Title = strings.TrimSpace(*r.Title)
	}
	if r.Genre != nil {
		m.Genre = r.Genre
	}
	if r.ReleaseYear != nil {
		m.ReleaseYear = *r.ReleaseYear
	}
	if r.Minutes != nil {
		m.Minutes = *r.Minutes
	}
	if r.Description != nil {
		m.Description = *r.Description
	}
	if r.PosterImage != nil {
		m.PosterImage = *r.PosterImage
	}
}

func validateMovie(m model.Movie) string {
	switch {
	case m.Title == "":
		return "Title is required."
	case m.ReleaseYear < 1888 || m.ReleaseYear > 2100:
		return "Release year is invalid."
	case m.Minutes <= 0:
		return "Minutes must be a positive number."
	}
	return ""
}

func queryInt(c echo.Context, name string, def int) (int, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

// List handles GET /movies?page&limit&genre&title.
func (h *MovieHandler) List(c echo.Context) error {
	page, okPage := queryInt(c, "page", 1)
	limit, okLimit := queryInt(c, "limit", 10)
	if !okPage || !okLimit || page < 1 || limit < 1 || limit > maxPageLimit {
		return fail(c, http.StatusBadRequest, "Page must be at least 1 and limit between 1 and 100.")
	}
	f := model.MovieFilter{
		Genre: strings.TrimSpace(c.QueryParam("genre")),
		Title: strings.TrimSpace(c.QueryParam("title")),
		Page:  page,
		Limit: limit,
	}
	movies, total, err := h.Movies.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, h.Log, "list movies", err)
	}
	if len(movies) == 0 {
		return fail(c, http.StatusNotFound, "No movies found.")
	}
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Movies retrieved successfully.",
		Data:    movies,
		Meta: model.PageMeta{
			TotalItems:  total,
			CurrentPage: page,
			TotalPages:  (total + limit - 1) / limit,
		},
	})
}

// Get handles GET /movies/:id.
func (h *MovieHandler) Get(c echo.Context) error {
	id, valid := parseID(c, "id", "movie")
	if !valid {
		return nil
	}
	m, err := h.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, "get movie", err)
	}
	return ok(c, http.StatusOK, "Movie retrieved successfully.", m)
}

// Create handles POST /movies (admin).
func (h *MovieHandler) Create(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body.")
	}
	var m model.Movie
	req.apply(&m)
	if msg := validateMovie(m); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	ctx := c.Request().Context()
	m, err := h.Movies.Create(ctx, m)
	if err != nil {
		return writeError(c, h.Log, "create movie", err)
	}
	h.purge(ctx)
	return ok(c, http.StatusCreated, "Movie created successfully.", m)
}

// Update handles PUT /movies/:id (admin).  Absent fields keep their
// current value.
func (h *MovieHandler) Update(c echo.Context) error {
	id, valid := parseID(c, "id", "movie")
	if !valid {
		return nil
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body.")
	}
	ctx := c.Request().Context()
	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, "update movie", err)
	}
	req.apply(&m)
	if msg := validateMovie(m); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	m, err = h.Movies.Update(ctx, m)
	if err != nil {
		return writeError(c, h.Log, "update movie", err)
	}
	h.purge(ctx)
	return ok(c, http.StatusOK, "Movie updated successfully.", m)
}

// Delete handles DELETE /movies/:id (admin).
func (h *MovieHandler) Delete(c echo.Context) error {
	id, valid := parseID(c, "id", "movie")
	if !valid {
		return nil
	}
	ctx := c.Request().Context()
	m, err := h.Movies.Delete(ctx, id)
	if err != nil {
		return writeError(c, h.Log, "delete movie", err)
	}
	h.purge(ctx)
	return ok(c, http.StatusOK, "Movie deleted successfully.", m)
}
