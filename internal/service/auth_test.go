// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/botline/internal/api"
	"github.com/jeranaias/botline/internal/model"
	"github.com/jeranaias/botline/internal/storage"
)

func TestAuthService_LoginPersistsTokenAndUser(t *testing.T) {
	client, st := fakeBackend(t, func(r chi.Router) {
		r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
			body := readJSON(t, r)
			assert.Equal(t, "a@b.com", body["email"])
			reply(w, 200, `{"token":"T","user":{"id":1,"name":"Ada","email":"a@b.com","is_admin":true}}`)
		})
	})
	svc := NewAuthService(client, st)

	au, err := svc.Login(context.Background(), model.LoginCredentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "T", au.Token)
	assert.Equal(t, int64(1), au.ID)

	assert.Equal(t, "T", svc.StoredToken())
	require.NotNil(t, svc.StoredUser())
	assert.Equal(t, "Ada", svc.StoredUser().Name)
	assert.True(t, svc.IsAuthenticated())
	assert.True(t, svc.IsAdmin())
	assert.False(t, svc.IsPremium())
	assert.Equal(t, "Bearer T", client.DefaultHeader("Authorization"))
}

func TestAuthService_RegisterNestedData(t *testing.T) {
	client, st := fakeBackend(t, func(r chi.Router) {
		r.Post("/register", func(w http.ResponseWriter, r *http.Request) {
			body := readJSON(t, r)
			assert.Equal(t, "secret12", body["password_confirmation"])
			reply(w, 201, `{"success":true,"data":{"token":"R","user":{"id":2,"email":"n@b.com"}}}`)
		})
	})
	svc := NewAuthService(client, st)

	au, err := svc.Register(context.Background(), model.RegisterData{
		Name: "New", Email: "n@b.com", Password: "secret12", PasswordConfirmation: "secret12",
	})
	require.NoError(t, err)
	assert.Equal(t, "R", au.Token)
	assert.Equal(t, "R", svc.StoredToken())
}

func TestAuthService_LoginWithoutTokenIsRejected(t *testing.T) {
	client, st := fakeBackend(t, func(r chi.Router) {
		r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
			reply(w, 200, `{"user":{"id":1,"email":"a@b.com"}}`)
		})
	})
	svc := NewAuthService(client, st)

	_, err := svc.Login(context.Background(), model.LoginCredentials{Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrInvalidAuthResponse)
	assert.Empty(t, svc.StoredToken())
	assert.Nil(t, svc.StoredUser())
}

func TestAuthService_LoginSuccessFalse(t *testing.T) {
	client, st := fakeBackend(t, func(r chi.Router) {
		r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
			reply(w, 200, `{"success":false,"message":"Invalid credentials"}`)
		})
	})
	_, err := NewAuthService(client, st).Login(context.Background(), model.LoginCredentials{})

	var rerr *ResponseError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "Invalid credentials", rerr.Message)
}

func TestAuthService_LogoutClearsEvenOnFailure(t *testing.T) {
	client, st := fakeBackend(t, func(r chi.Router) {
		r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
			reply(w, 500, `{"message":"boom"}`)
		})
	})
	svc := NewAuthService(client, st)
	require.NoError(t, client.SetToken("T"))
	require.NoError(t, storage.SetJSON(st, storage.KeyUser, model.User{ID: 1}))

	err := svc.Logout(context.Background())
	assert.Equal(t, 500, api.StatusOf(err))

	assert.Empty(t, svc.StoredToken())
	assert.Nil(t, svc.StoredUser())
	assert.False(t, svc.IsAuthenticated())
}

func TestAuthService_CurrentUserShapes(t *testing.T) {
	bodies := map[string]string{
		"wrapped": `{"user":{"id":5,"email":"w@b.com"}}`,
		"data":    `{"success":true,"data":{"id":5,"email":"w@b.com"}}`,
		"bare":    `{"id":5,"email":"w@b.com"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client, st := fakeBackend(t, func(r chi.Router) {
				r.Get("/user", func(w http.ResponseWriter, r *http.Request) {
					reply(w, 200, body)
				})
			})
			svc := NewAuthService(client, st)

			u, err := svc.CurrentUser(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int64(5), u.ID)
			require.NotNil(t, svc.StoredUser())
			assert.Equal(t, "w@b.com", svc.StoredUser().Email)
		})
	}
}

func TestAuthService_CurrentUserUnauthorized(t *testing.T) {
	client, st := fakeBackend(t, func(r chi.Router) {
		r.Get("/user", func(w http.ResponseWriter, r *http.Request) {
			reply(w, 401, `{"message":"Unauthenticated."}`)
		})
	})
	require.NoError(t, client.SetToken("stale"))

	_, err := NewAuthService(client, st).CurrentUser(context.Background())
	assert.True(t, api.IsUnauthorized(err))
	assert.Empty(t, client.Token())
}

func TestAuthService_StoredUserCorrupt(t *testing.T) {
	client, st := fakeBackend(t, func(r chi.Router) {})
	require.NoError(t, st.Set(storage.KeyUser, "{not json"))
	require.NoError(t, client.SetToken("T"))

	svc := NewAuthService(client, st)
	assert.Nil(t, svc.StoredUser())
	assert.False(t, svc.IsAuthenticated())
}

func TestAuthService_UpdateProfileAndStats(t *testing.T) {
	client, st := fakeBackend(t, func(r chi.Router) {
		r.Put("/user", func(w http.ResponseWriter, r *http.Request) {
			reply(w, 200, `{"id":1,"name":"Renamed","email":"a@b.com"}`)
		})
		r.Get("/user/stats", func(w http.ResponseWriter, r *http.Request) {
			reply(w, 200, `{"success":true,"data":{"total_conversations":3,"total_messages":42,"joined_date":"2024-01-01"}}`)
		})
	})
	svc := NewAuthService(client, st)

	u, err := svc.UpdateProfile(context.Background(), model.UpdateProfileData{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", u.Name)
	assert.Equal(t, "Renamed", svc.StoredUser().Name)

	stats, err := svc.UserStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, stats.TotalMessages)
}
