// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/botline/internal/model"
)

func TestUserService_ProfileAndUpdate(t *testing.T) {
	client, _ := fakeBackend(t, func(r chi.Router) {
		r.Get("/user", func(w http.ResponseWriter, r *http.Request) {
			reply(w, 200, `{"user":{"id":1,"name":"Ada","email":"a@b.com"}}`)
		})
		r.Put("/user/profile", func(w http.ResponseWriter, r *http.Request) {
			body := readJSON(t, r)
			assert.Equal(t, "Grace", body["name"])
			assert.NotContains(t, body, "email", "empty fields are omitted")
			reply(w, 200, `{"success":true,"data":{"id":1,"name":"Grace","email":"a@b.com"}}`)
		})
	})
	svc := NewUserService(client)

	u, err := svc.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)

	u, err = svc.UpdateProfile(context.Background(), model.UpdateProfileData{Name: "Grace"})
	require.NoError(t, err)
	assert.Equal(t, "Grace", u.Name)
}

func TestUserService_ProfileMissingUser(t *testing.T) {
	client, _ := fakeBackend(t, func(r chi.Router) {
		r.Get("/user", func(w http.ResponseWriter, r *http.Request) {
			reply(w, 200, `{"success":true}`)
		})
	})
	_, err := NewUserService(client).Profile(context.Background())
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestUserService_PasswordAndDeletion(t *testing.T) {
	var pwBody, delBody map[string]any
	client, _ := fakeBackend(t, func(r chi.Router) {
		r.Put("/user/password", func(w http.ResponseWriter, r *http.Request) {
			pwBody = readJSON(t, r)
			reply(w, 200, `{"success":true}`)
		})
		r.Delete("/user/account", func(w http.ResponseWriter, r *http.Request) {
			delBody = readJSON(t, r)
			reply(w, 200, `{"success":true}`)
		})
	})
	svc := NewUserService(client)

	require.NoError(t, svc.ChangePassword(context.Background(), model.PasswordChange{
		CurrentPassword: "old", NewPassword: "newpass12", NewPasswordConfirmation: "newpass12",
	}))
	assert.Equal(t, "old", pwBody["old_password"])
	assert.Equal(t, "newpass12", pwBody["new_password"])

	require.NoError(t, svc.DeleteAccount(context.Background(), "pw"))
	assert.Equal(t, map[string]any{"password": "pw"}, delBody)
}

func TestUserService_UpdateAvatarIsMultipart(t *testing.T) {
	client, _ := fakeBackend(t, func(r chi.Router) {
		r.Post("/user/avatar", func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
			f, hdr, err := r.FormFile("avatar")
			if !assert.NoError(t, err) {
				return
			}
			data, _ := io.ReadAll(f)
			assert.Equal(t, "me.png", hdr.Filename)
			assert.Equal(t, "img", string(data))
			reply(w, 200, `{"success":true,"data":{"id":1,"email":"a@b.com","avatar_url":"/storage/me.png"}}`)
		})
	})

	u, err := NewUserService(client).UpdateAvatar(context.Background(), "me.png", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "/storage/me.png", u.AvatarURL)
}

func TestUserService_AdminUsers(t *testing.T) {
	var query string
	client, _ := fakeBackend(t, func(r chi.Router) {
		r.Get("/admin/users", func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.RawQuery
			reply(w, 200, `[{"id":1,"email":"a@b.com"},{"id":2,"email":"c@d.com"}]`)
		})
	})

	page, err := NewUserService(client).AdminUsers(context.Background(), model.UserListQuery{Search: "b.com"})
	require.NoError(t, err)
	assert.Equal(t, "page=1&per_page=10&search=b.com", query)
	require.Len(t, page.Items, 2)
	assert.Equal(t, model.PaginationMeta{CurrentPage: 1, From: 1, LastPage: 1, PerPage: 10, To: 2, Total: 2}, page.Pagination)
}

func TestUserService_AdminUsersPaginated(t *testing.T) {
	client, _ := fakeBackend(t, func(r chi.Router) {
		r.Get("/admin/users", func(w http.ResponseWriter, r *http.Request) {
			reply(w, 200, `{"success":true,"data":{"current_page":2,"data":[{"id":11,"email":"x@y.z"}],"from":11,"last_page":3,"per_page":10,"to":11,"total":21}}`)
		})
	})

	page, err := NewUserService(client).AdminUsers(context.Background(), model.UserListQuery{Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Pagination.CurrentPage)
	assert.Equal(t, 21, page.Pagination.Total)
}

func TestUserService_RoleAndDelete(t *testing.T) {
	var roleBody map[string]any
	deleted := false
	client, _ := fakeBackend(t, func(r chi.Router) {
		r.Put("/admin/users/{id}/role", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "7", chi.URLParam(r, "id"))
			roleBody = readJSON(t, r)
			reply(w, 200, `{"id":7,"email":"u@b.com","is_admin":true}`)
		})
		r.Delete("/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
			deleted = chi.URLParam(r, "id") == "7"
			reply(w, 200, `{"success":true}`)
		})
	})
	svc := NewUserService(client)

	u, err := svc.UpdateUserRole(context.Background(), 7, true)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.Equal(t, true, roleBody["is_admin"])

	require.NoError(t, svc.DeleteUser(context.Background(), 7))
	assert.True(t, deleted)
}
