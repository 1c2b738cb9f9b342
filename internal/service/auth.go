// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/botline/internal/api"
	"github.com/jeranaias/botline/internal/model"
	"github.com/jeranaias/botline/internal/storage"
)

// AuthService handles login, registration and the persisted identity.
type AuthService struct {
	client *api.Client
	store  storage.Store
}

// NewAuthService creates an AuthService. store must be the one backing client.
func NewAuthService(client *api.Client, store storage.Store) *AuthService {
	return &AuthService{client: client, store: store}
}

// Login authenticates and persists the returned token and user.
func (s *AuthService) Login(ctx context.Context, creds model.LoginCredentials) (*model.AuthUser, error) {
	resp, err := s.client.Post(ctx, "/login", creds)
	if err != nil {
		return nil, err
	}
	return s.acceptAuth("/login", resp)
}

// Register creates an account and persists the returned token and user.
func (s *AuthService) Register(ctx context.Context, data model.RegisterData) (*model.AuthUser, error) {
	resp, err := s.client.Post(ctx, "/register", data)
	if err != nil {
		return nil, err
	}
	return s.acceptAuth("/register", resp)
}

func (s *AuthService) acceptAuth(path string, resp *api.Response) (*model.AuthUser, error) {
	if err := checkEnvelope(path, resp); err != nil {
		return nil, err
	}

	token := resp.Get("token").String()
	if token == "" {
		token = resp.Get("data.token").String()
	}
	user, err := decodeUser(resp, "user", "data.user")
	if token == "" || err != nil {
		return nil, ErrInvalidAuthResponse
	}

	if err := s.client.SetToken(token); err != nil {
		return nil, err
	}
	if err := storage.SetJSON(s.store, storage.KeyUser, user); err != nil {
		return nil, err
	}
	return &model.AuthUser{User: *user, Token: token}, nil
}

// Logout notifies the backend and clears the persisted token and user.
// Local state is cleared even when the request fails; the request error is
// still returned.
func (s *AuthService) Logout(ctx context.Context) error {
	_, reqErr := s.client.Post(ctx, "/logout", nil)

	clearErr := errors.Join(s.client.ClearToken(), s.store.Remove(storage.KeyUser))
	if clearErr != nil {
		return fmt.Errorf("failed to clear local session: %w", clearErr)
	}
	return reqErr
}

// CurrentUser fetches the authenticated user and refreshes the persisted
// copy. The body may be {user: ...}, {data: ...} or the bare record.
func (s *AuthService) CurrentUser(ctx context.Context) (*model.User, error) {
	resp, err := s.client.Get(ctx, "/user", nil)
	if err != nil {
		return nil, err
	}
	user, err := decodeUser(resp, "user", "data.user", "data", "")
	if err != nil {
		return nil, err
	}
	if err := storage.SetJSON(s.store, storage.KeyUser, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile updates the account through PUT /user and refreshes the
// persisted copy.
func (s *AuthService) UpdateProfile(ctx context.Context, data model.UpdateProfileData) (*model.User, error) {
	resp, err := s.client.Put(ctx, "/user", data)
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope("/user", resp); err != nil {
		return nil, err
	}
	user, err := decodeUser(resp, "user", "data", "")
	if err != nil {
		return nil, err
	}
	if err := storage.SetJSON(s.store, storage.KeyUser, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UserStats fetches the caller's usage statistics.
func (s *AuthService) UserStats(ctx context.Context) (*model.UserStats, error) {
	resp, err := s.client.Get(ctx, "/user/stats", nil)
	if err != nil {
		return nil, err
	}
	var st model.UserStats
	if err := decodeData(resp, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// =============================================================================
// PERSISTED IDENTITY
// =============================================================================

// StoredUser returns the persisted user, or nil when none is stored or it
// cannot be decoded.
func (s *AuthService) StoredUser() *model.User {
	var u model.User
	ok, err := storage.GetJSON(s.store, storage.KeyUser, &u)
	if err != nil || !ok {
		return nil
	}
	return &u
}

// StoredToken returns the persisted token or "".
func (s *AuthService) StoredToken() string {
	return s.client.Token()
}

// ForgetUser removes the persisted user record.
func (s *AuthService) ForgetUser() error {
	return s.store.Remove(storage.KeyUser)
}

// IsAuthenticated reports whether both a token and a user are persisted.
func (s *AuthService) IsAuthenticated() bool {
	return s.StoredToken() != "" && s.StoredUser() != nil
}

// IsAdmin reports whether the persisted user is an administrator.
func (s *AuthService) IsAdmin() bool {
	u := s.StoredUser()
	return u != nil && u.IsAdmin
}

// IsPremium reports whether the persisted user has a premium account.
func (s *AuthService) IsPremium() bool {
	u := s.StoredUser()
	return u != nil && u.IsPremium
}

// Client exposes the underlying API client.
func (s *AuthService) Client() *api.Client {
	return s.client
}
