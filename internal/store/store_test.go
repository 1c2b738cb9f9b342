// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/jeranaias/botline/internal/api"
	"github.com/jeranaias/botline/internal/storage"
)

// backend is a fake API that counts requests per path.
type backend struct {
	mu   sync.Mutex
	hits map[string]int
}

func (b *backend) count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func (b *backend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, v := range b.hits {
		n += v
	}
	return n
}

func newBackend(t *testing.T, setup func(r chi.Router)) (*backend, *api.Client, *storage.MemoryStore) {
	t.Helper()
	b := &backend{hits: map[string]int{}}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			b.mu.Lock()
			b.hits[req.URL.Path]++
			b.mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api", setup)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	st := storage.NewMemoryStore()
	return b, api.NewClient(srv.URL+"/api", st), st
}

func reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// mustGet reads key from st, failing the test on a storage error.
func mustGet(t *testing.T, st storage.Store, key string) (string, bool) {
	t.Helper()
	v, ok, err := st.Get(key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	return v, ok
}
