// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/botline/internal/storage"
)

// newBackend starts a test server with routes registered by setup and
// returns a client pointed at it.
func newBackend(t *testing.T, st storage.Store, setup func(r chi.Router)) *Client {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/api", setup)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", st)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// =============================================================================
// TOKEN INJECTION
// =============================================================================

func TestClient_AttachesPersistedToken(t *testing.T) {
	st := storage.NewMemoryStore()
	var gotAuth atomic.Value
	gotAuth.Store("")

	c := newBackend(t, st, func(r chi.Router) {
		r.Get("/user", func(w http.ResponseWriter, r *http.Request) {
			gotAuth.Store(r.Header.Get("Authorization"))
			writeJSON(w, 200, map[string]any{"user": map[string]any{"id": 1}})
		})
	})

	_, err := c.Get(context.Background(), "/user", nil)
	require.NoError(t, err)
	assert.Empty(t, gotAuth.Load(), "no token, no header")

	require.NoError(t, st.Set(storage.KeyToken, "written-elsewhere"))
	_, err = c.Get(context.Background(), "/user", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer written-elsewhere", gotAuth.Load(), "token read from storage on each call")
}

func TestClient_SetAndClearToken(t *testing.T) {
	st := storage.NewMemoryStore()
	c := NewClient("http://example.invalid/api", st)

	require.NoError(t, c.SetToken("T"))
	assert.Equal(t, "Bearer T", c.DefaultHeader("Authorization"))
	v, ok, _ := st.Get(storage.KeyToken)
	assert.True(t, ok)
	assert.Equal(t, "T", v)

	require.NoError(t, c.ClearToken())
	assert.Empty(t, c.DefaultHeader("Authorization"))
	_, ok, _ = st.Get(storage.KeyToken)
	assert.False(t, ok)
}

func TestNewClient_MirrorsExistingToken(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(storage.KeyToken, "boot"))

	c := NewClient("", st)
	assert.Equal(t, "Bearer boot", c.DefaultHeader("Authorization"))
	assert.Equal(t, "http://localhost:8000/api", c.BaseURL())
}

// =============================================================================
// 401 HANDLING
// =============================================================================

func TestClient_UnauthorizedClearsToken(t *testing.T) {
	st := storage.NewMemoryStore()
	c := newBackend(t, st, func(r chi.Router) {
		r.Get("/user", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 401, map[string]any{"message": "Unauthenticated."})
		})
	})
	require.NoError(t, c.SetToken("stale"))

	_, err := c.Get(context.Background(), "/user", nil)
	require.Error(t, err)

	assert.True(t, IsUnauthorized(err))
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, 401, StatusOf(err))
	assert.Equal(t, "Unauthenticated.", MessageOf(err))

	_, ok, _ := st.Get(storage.KeyToken)
	assert.False(t, ok, "persisted token removed")
	assert.Empty(t, c.DefaultHeader("Authorization"), "default header cleared")
}

func TestClient_UnauthorizedRunsHooks(t *testing.T) {
	st := storage.NewMemoryStore()
	c := newBackend(t, st, func(r chi.Router) {
		r.Get("/user", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 401, map[string]any{"message": "Unauthenticated."})
		})
		r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, map[string]any{"success": true})
		})
	})
	require.NoError(t, c.SetToken("stale"))

	var calls atomic.Int32
	c.OnUnauthorized(func() {
		// The token is already gone when hooks run.
		_, ok, _ := st.Get(storage.KeyToken)
		assert.False(t, ok)
		calls.Add(1)
	})

	_, err := c.Get(context.Background(), "/ok", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(0), calls.Load())

	_, err = c.Get(context.Background(), "/user", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_OtherErrorsPropagateWithoutSideEffects(t *testing.T) {
	st := storage.NewMemoryStore()
	c := newBackend(t, st, func(r chi.Router) {
		r.Post("/register", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 422, map[string]any{"error": "The email has already been taken."})
		})
		r.Get("/admin/stats", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
	})
	require.NoError(t, c.SetToken("keep"))

	_, err := c.Post(context.Background(), "/register", map[string]string{"email": "a@b.com"})
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.Equal(t, 422, StatusOf(err))
	assert.Equal(t, "The email has already been taken.", MessageOf(err))

	_, err = c.Get(context.Background(), "/admin/stats", nil)
	require.Error(t, err)
	assert.Equal(t, 403, StatusOf(err))
	assert.Equal(t, "Forbidden", MessageOf(err))

	v, _, _ := st.Get(storage.KeyToken)
	assert.Equal(t, "keep", v)
}

// =============================================================================
// PAYLOADS
// =============================================================================

func TestClient_JSONBodyAndQuery(t *testing.T) {
	var gotBody, gotCT, gotQuery, gotRequestID string
	c := newBackend(t, storage.NewMemoryStore(), func(r chi.Router) {
		r.Put("/user/profile", func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			gotCT = r.Header.Get("Content-Type")
			gotRequestID = r.Header.Get(RequestIDHeader)
			writeJSON(w, 200, map[string]any{"success": true})
		})
		r.Get("/admin/users", func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			writeJSON(w, 200, map[string]any{"success": true})
		})
	})

	_, err := c.Put(context.Background(), "user/profile", map[string]string{"name": "Ada"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada"}`, gotBody)
	assert.Equal(t, "application/json", gotCT)
	assert.Len(t, gotRequestID, 36)

	_, err = c.Get(context.Background(), "/admin/users", url.Values{"page": {"2"}, "search": {"ada"}})
	require.NoError(t, err)
	assert.Equal(t, "page=2&search=ada", gotQuery)
}

func TestClient_MultipartOmitsJSONContentType(t *testing.T) {
	var gotCT, gotFile, gotField string
	c := newBackend(t, storage.NewMemoryStore(), func(r chi.Router) {
		r.Post("/user/avatar", func(w http.ResponseWriter, r *http.Request) {
			gotCT = r.Header.Get("Content-Type")
			require.NoError(t, r.ParseMultipartForm(1<<20))
			gotField = r.FormValue("note")
			f, _, err := r.FormFile("avatar")
			require.NoError(t, err)
			b, _ := io.ReadAll(f)
			gotFile = string(b)
			writeJSON(w, 200, map[string]any{"success": true})
		})
	})

	form := NewForm().
		AddField("note", "hello").
		AddFile("avatar", "me.png", strings.NewReader("PNGDATA"))
	_, err := c.Post(context.Background(), "/user/avatar", form)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotCT, "multipart/form-data; boundary="), gotCT)
	assert.NotContains(t, gotCT, "application/json")
	assert.Equal(t, "hello", gotField)
	assert.Equal(t, "PNGDATA", gotFile)
}

func TestResponse_DecodeHelpers(t *testing.T) {
	resp := &Response{Body: []byte(`{"success":true,"data":{"name":"Ada","id":3}}`)}

	var v struct {
		Name string `json:"name"`
	}
	ok, err := resp.DecodePath("data", &v)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Ada", v.Name)

	ok, err = resp.DecodePath("missing", &v)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, int64(3), resp.Get("data.id").Int())
	assert.NoError(t, (&Response{}).Decode(&v), "empty body decodes to nothing")
}

// =============================================================================
// TRANSPORT
// =============================================================================

func TestClient_NetworkErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(base, storage.NewMemoryStore())
	_, err := c.Get(context.Background(), "/user", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, 0, StatusOf(err))
}

func TestClient_ResponseTooLarge(t *testing.T) {
	c := newBackend(t, storage.NewMemoryStore(), func(r chi.Router) {
		r.Get("/big", func(w http.ResponseWriter, r *http.Request) {
			chunk := strings.Repeat("x", 1024*1024)
			for i := 0; i < 11; i++ {
				io.WriteString(w, chunk)
			}
		})
	})

	_, err := c.Get(context.Background(), "/big", nil)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestClient_Timeout(t *testing.T) {
	c := newBackend(t, storage.NewMemoryStore(), func(r chi.Router) {
		r.Get("/slow", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})
	})
	c.WithTimeout(50 * time.Millisecond)

	_, err := c.Get(context.Background(), "/slow", nil)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	var calls atomic.Int32
	c := newBackend(t, storage.NewMemoryStore(), func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(w, 200, map[string]any{})
		})
	})
	c.WithRateLimit(0.001, 1)

	_, err := c.Get(context.Background(), "/ping", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, "/ping", nil)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
