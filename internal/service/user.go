// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/jeranaias/botline/internal/api"
	"github.com/jeranaias/botline/internal/model"
)

// UserService manages the caller's account and, for administrators, other
// accounts.
type UserService struct {
	client *api.Client
}

// NewUserService creates a UserService.
func NewUserService(client *api.Client) *UserService {
	return &UserService{client: client}
}

// Profile fetches the caller's account from {user: ...}.
func (s *UserService) Profile(ctx context.Context) (*model.User, error) {
	resp, err := s.client.Get(ctx, "/user", nil)
	if err != nil {
		return nil, err
	}
	user, err := decodeUser(resp, "user")
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return user, nil
}

// UpdateProfile updates name, email or password through PUT /user/profile.
func (s *UserService) UpdateProfile(ctx context.Context, data model.UpdateProfileData) (*model.User, error) {
	resp, err := s.client.Put(ctx, "/user/profile", data)
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope("/user/profile", resp); err != nil {
		return nil, err
	}
	user, err := decodeUser(resp, "data")
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the caller's password. The current password is
// sent under both names the backend has used for it.
func (s *UserService) ChangePassword(ctx context.Context, pc model.PasswordChange) error {
	body := map[string]string{
		"old_password":              pc.CurrentPassword,
		"current_password":          pc.CurrentPassword,
		"new_password":              pc.NewPassword,
		"new_password_confirmation": pc.NewPasswordConfirmation,
	}
	resp, err := s.client.Put(ctx, "/user/password", body)
	if err != nil {
		return err
	}
	return checkEnvelope("/user/password", resp)
}

// DeleteAccount deletes the caller's account. The password is sent in the
// request body.
func (s *UserService) DeleteAccount(ctx context.Context, password string) error {
	resp, err := s.client.Delete(ctx, "/user/account", model.AccountDeletion{Password: password})
	if err != nil {
		return err
	}
	return checkEnvelope("/user/account", resp)
}

// UpdateAvatar uploads a new avatar image as the multipart field "avatar".
func (s *UserService) UpdateAvatar(ctx context.Context, filename string, r io.Reader) (*model.User, error) {
	form := api.NewForm().AddFile("avatar", filename, r)
	resp, err := s.client.Post(ctx, "/user/avatar", form)
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope("/user/avatar", resp); err != nil {
		return nil, err
	}
	user, err := decodeUser(resp, "data")
	if err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}
	return user, nil
}

// =============================================================================
// ADMINISTRATION
// =============================================================================

// AdminUsers lists accounts. Page and PerPage default to 1 and 10.
func (s *UserService) AdminUsers(ctx context.Context, q model.UserListQuery) (*model.Page[model.User], error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = 10
	}
	params := url.Values{
		"page":     {strconv.Itoa(q.Page)},
		"per_page": {strconv.Itoa(q.PerPage)},
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}

	resp, err := s.client.Get(ctx, "/admin/users", params)
	if err != nil {
		return nil, err
	}
	page, err := decodePage[model.User](resp, "users", q.PerPage)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return page, nil
}

// UpdateUserRole grants or revokes administrator rights.
func (s *UserService) UpdateUserRole(ctx context.Context, userID int64, isAdmin bool) (*model.User, error) {
	path := "/admin/users/" + strconv.FormatInt(userID, 10) + "/role"
	resp, err := s.client.Put(ctx, path, map[string]bool{"is_admin": isAdmin})
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope(path, resp); err != nil {
		return nil, err
	}
	user, err := decodeUser(resp, "user", "data", "")
	if err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}
	return user, nil
}

// DeleteUser removes another account.
func (s *UserService) DeleteUser(ctx context.Context, userID int64) error {
	path := "/admin/users/" + strconv.FormatInt(userID, 10)
	resp, err := s.client.Delete(ctx, path, nil)
	if err != nil {
		return err
	}
	return checkEnvelope(path, resp)
}
