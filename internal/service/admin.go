package service

import (
	"context"
	"errors"

	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/repository"
)

// EnsureAdmin makes sure an admin account named username exists.  A
// missing account is created; an existing one is promoted.  The password
// of an existing account is left untouched.
func EnsureAdmin(ctx context.Context, users *repository.UserRepo, username, email, password string, cost int) (model.User, error) {
	u, err := users.GetByLogin(ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return users.Create(ctx, username, email, password, model.RoleAdmin, cost)
	case err != nil:
		return model.User{}, err
	case u.IsAdmin():
		return u, nil
	}
	if err := users.SetRole(ctx, u.ID, model.RoleAdmin); err != nil {
		return model.User{}, err
	}
	u.Role = model.RoleAdmin
	return u, nil
}
