package handler

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-reservation/internal/config"
	"github.com/iliyamo/movie-reservation/internal/logger"
	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/repository"
	"github.com/iliyamo/movie-reservation/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Log   *logger.Logger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, log *logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.Default()
	}
	return &AuthHandler{Cfg: cfg, Users: u, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Username string `json:"username"` // username or email
	Password string `json:"password"`
}

type tokenResp struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func validateRegister(req registerReq) string {
	switch {
	case len(req.Username) < 3:
		return "Username must be at least 3 characters long."
	case req.Email == "":
		return "Email is required."
	case !validEmail(req.Email):
		return "Email is invalid."
	case len(req.Password) < utils.MinPasswordLength:
		return "Password must be at least 8 characters long."
	}
	return ""
}

func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}

// Register creates a regular user.  Admins are provisioned out of band.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body.")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if msg := validateRegister(req); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, model.RoleUser, h.Cfg.BcryptCost)
	if err != nil {
		return writeError(c, h.Log, "register", err)
	}
	return ok(c, http.StatusCreated, "User registered successfully.", u)
}

// Login accepts a username or email and returns a signed access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body.")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Username and password are required.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByLogin(ctx, req.Username)
	if err != nil {
		return writeError(c, h.Log, "login", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "Invalid password.")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, utils.Identity{
		ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role,
	}, h.Cfg.AccessTTLMin)
	if err != nil {
		return writeError(c, h.Log, "issue token", err)
	}
	return ok(c, http.StatusCreated, "Logged in successfully.", tokenResp{Token: access.Token, ExpiresAt: access.Exp})
}

// Me returns the identity carried by the caller's token.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return forbidden(c)
	}
	return ok(c, http.StatusOK, "Current user.", echo.Map{
		"id":       uid,
		"username": c.Get(ctxUsername),
		"email":    c.Get(ctxEmail),
		"role":     getRole(c),
	})
}
