package restapi

import (
	"context"
	"fmt"
	"net/http"

	"quizwizz-play/internal/domain"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userEnvelope struct {
	User *domain.User `json:"user"`
}

// Login opens a cookie session. Later calls on the same client are authenticated.
func (c *Client) Login(ctx context.Context, username, password string) (domain.User, error) {
	return c.authenticate(ctx, "/auth/login/", username, password)
}

func (c *Client) Register(ctx context.Context, username, password string) (domain.User, error) {
	return c.authenticate(ctx, "/auth/register/", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (domain.User, error) {
	var env userEnvelope
	if err := c.send(ctx, http.MethodPost, path, credentials{Username: username, Password: password}, &env); err != nil {
		return domain.User{}, fmt.Errorf("authenticate %s: %w", username, err)
	}
	if env.User == nil {
		return domain.User{}, fmt.Errorf("authenticate %s: %w", username, domain.ErrUnauthorized)
	}
	return *env.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.send(ctx, http.MethodPost, "/auth/logout/", struct{}{}, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// CurrentUser reports the logged-in user. ok is false for anonymous sessions.
func (c *Client) CurrentUser(ctx context.Context) (user domain.User, ok bool, err error) {
	var env userEnvelope
	if err := c.send(ctx, http.MethodGet, "/auth/current-user/", nil, &env); err != nil {
		if IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, fmt.Errorf("current user: %w", err)
	}
	if env.User == nil {
		return domain.User{}, false, nil
	}
	return *env.User, true, nil
}

func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var env struct {
		Users []domain.User `json:"users"`
	}
	if err := c.send(ctx, http.MethodGet, "/users/", nil, &env); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return env.Users, nil
}
