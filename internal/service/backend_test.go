// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/jeranaias/botline/internal/api"
	"github.com/jeranaias/botline/internal/storage"
)

// fakeBackend serves chi routes under /api and returns a client for it.
func fakeBackend(t *testing.T, setup func(r chi.Router)) (*api.Client, *storage.MemoryStore) {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/api", setup)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	st := storage.NewMemoryStore()
	return api.NewClient(srv.URL+"/api", st), st
}

func reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func readJSON(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		t.Errorf("request body is not JSON: %v", err)
	}
	return m
}
