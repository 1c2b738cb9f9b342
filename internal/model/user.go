// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// User is an account as returned by the backend. Timestamps are kept as
// the backend formats them.
type User struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Avatar             string `json:"avatar,omitempty"`
	AvatarURL          string `json:"avatar_url,omitempty"`
	IsAdmin            bool   `json:"is_admin,omitempty"`
	IsPremium          bool   `json:"is_premium,omitempty"`
	EmailVerifiedAt    string `json:"email_verified_at,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
	UpdatedAt          string `json:"updated_at,omitempty"`
	ConversationsCount int    `json:"conversations_count,omitempty"`
}

// AuthUser is a User together with the access token issued at login or
// registration. It is never persisted as a unit.
type AuthUser struct {
	User
	Token string `json:"token"`
}

// AuthResponse is the body of /login and /register.
type AuthResponse struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

// LoginCredentials is the /login request body.
type LoginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterData is the /register request body.
type RegisterData struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// UpdateProfileData is the profile update request body. Empty fields are
// left out of the request.
type UpdateProfileData struct {
	Name                 string `json:"name,omitempty"`
	Email                string `json:"email,omitempty"`
	Password             string `json:"password,omitempty"`
	PasswordConfirmation string `json:"password_confirmation,omitempty"`
}

// PasswordChange carries the fields of the change-password form.
type PasswordChange struct {
	CurrentPassword         string `json:"current_password"`
	NewPassword             string `json:"new_password"`
	NewPasswordConfirmation string `json:"new_password_confirmation"`
}

// UserListQuery filters the admin user listing.
type UserListQuery struct {
	Page    int
	PerPage int
	Search  string
}

// PaginationMeta describes one page of a listing.
type PaginationMeta struct {
	CurrentPage int `json:"current_page"`
	From        int `json:"from"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	To          int `json:"to"`
	Total       int `json:"total"`
}

// Page is a slice of items with its pagination metadata.
type Page[T any] struct {
	Items      []T            `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// AccountDeletion is the DELETE /user/account body.
type AccountDeletion struct {
	Password string `json:"password"`
}
