// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/botline/internal/model"
	"github.com/jeranaias/botline/internal/service"
	"github.com/jeranaias/botline/internal/session"
	"github.com/jeranaias/botline/internal/storage"
)

type fixedIdentity bool

func (f fixedIdentity) IsAuthenticated() bool { return bool(f) }

func newChat(t *testing.T, authed bool, count int, setup func(r chi.Router)) (*backend, *ChatStore, *storage.MemoryStore) {
	t.Helper()
	b, client, st := newBackend(t, setup)
	if count > 0 {
		require.NoError(t, storage.SetInt(st, storage.KeyGuestPromptCount, count))
	}
	chat := NewChatStore(service.NewChatService(client), session.NewGuest(st, 2), fixedIdentity(authed), nil)
	return b, chat, st
}

func decodeChat(t *testing.T, r *http.Request) model.ChatRequest {
	t.Helper()
	var req model.ChatRequest
	assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func TestChatStore_CanSendMessage(t *testing.T) {
	tests := []struct {
		authed bool
		count  int
		want   bool
	}{
		{false, 0, true},
		{false, 1, true},
		{false, 2, false},
		{false, 7, false},
		{true, 0, true},
		{true, 2, true},
	}
	for _, tt := range tests {
		_, chat, _ := newChat(t, tt.authed, tt.count, func(r chi.Router) {})
		assert.Equal(t, tt.want, chat.CanSendMessage(), "authed=%v count=%d", tt.authed, tt.count)
	}
}

func TestChatStore_InitClampsAndCreatesSession(t *testing.T) {
	_, chat, st := newChat(t, false, 7, func(r chi.Router) {})

	assert.Equal(t, 2, chat.GuestPromptCount())
	n, _ := storage.GetInt(st, storage.KeyGuestPromptCount)
	assert.Equal(t, 2, n)

	id, ok := mustGet(t, st, storage.KeyGuestSessionID)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(id, session.GuestIDPrefix))
	got, err := chat.GuestSessionID()
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestChatStore_InitSkippedWhenAuthenticated(t *testing.T) {
	_, chat, st := newChat(t, true, 7, func(r chi.Router) {})

	_, ok := mustGet(t, st, storage.KeyGuestSessionID)
	assert.False(t, ok)
	n, _ := storage.GetInt(st, storage.KeyGuestPromptCount)
	assert.Equal(t, 7, n, "counter is left alone for a signed-in user")

	id, err := chat.GuestSessionID()
	require.NoError(t, err)
	assert.Empty(t, id)
	_, limited := chat.RemainingPrompts()
	assert.False(t, limited)
}

func TestChatStore_GuestSendSuccess(t *testing.T) {
	_, chat, st := newChat(t, false, 0, func(r chi.Router) {
		r.Post("/chat/guest", func(w http.ResponseWriter, r *http.Request) {
			req := decodeChat(t, r)
			assert.Equal(t, "hello", req.Message)
			assert.True(t, strings.HasPrefix(req.SessionID, session.GuestIDPrefix))
			assert.Empty(t, req.ConversationID)
			reply(w, 200, `{"success":true,"response":"hi!","session_id":"guest_srv"}`)
		})
	})

	ok, err := chat.SendMessage(context.Background(), "hello")
	require.NoError(t, err)
	require.True(t, ok)

	msgs := chat.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.SenderUser, msgs[0].Sender)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, model.SenderBot, msgs[1].Sender)
	assert.Equal(t, "hi!", msgs[1].Content)
	assert.Equal(t, "guest_srv", chat.CurrentSession())

	assert.Equal(t, 1, chat.GuestPromptCount())
	n, _ := storage.GetInt(st, storage.KeyGuestPromptCount)
	assert.Equal(t, 1, n)
	remaining, limited := chat.RemainingPrompts()
	assert.True(t, limited)
	assert.Equal(t, 1, remaining)
}

func TestChatStore_AuthenticatedSendKeepsCounter(t *testing.T) {
	var convs []string
	var mu sync.Mutex
	_, chat, st := newChat(t, true, 1, func(r chi.Router) {
		r.Post("/chat/send", func(w http.ResponseWriter, r *http.Request) {
			req := decodeChat(t, r)
			mu.Lock()
			convs = append(convs, req.ConversationID)
			mu.Unlock()
			assert.Empty(t, req.SessionID)
			reply(w, 200, `{"success":true,"data":{"response":"ok","conversation_id":42}}`)
		})
	})

	for i := 0; i < 3; i++ {
		ok, err := chat.SendMessage(context.Background(), "q")
		require.NoError(t, err)
		require.True(t, ok)
	}

	assert.Equal(t, "42", chat.CurrentSession())
	mu.Lock()
	assert.Equal(t, []string{"", "42", "42"}, convs)
	mu.Unlock()
	n, _ := storage.GetInt(st, storage.KeyGuestPromptCount)
	assert.Equal(t, 1, n)
	assert.Len(t, chat.Messages(), 6)
}

func TestChatStore_SendAcceptsEmptyDataArray(t *testing.T) {
	_, chat, _ := newChat(t, true, 0, func(r chi.Router) {
		r.Post("/chat/send", func(w http.ResponseWriter, r *http.Request) {
			reply(w, 200, `{"success":true,"response":"ok","conversation_id":9,"data":[]}`)
		})
	})

	ok, err := chat.SendMessage(context.Background(), "q")
	require.NoError(t, err)
	require.True(t, ok)
	msgs := chat.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "ok", msgs[1].Content)
	assert.Equal(t, "9", chat.CurrentSession())
}

func TestChatStore_ExhaustedGuestIssuesNoRequest(t *testing.T) {
	b, chat, _ := newChat(t, false, 2, func(r chi.Router) {
		r.Post("/chat/guest", func(w http.ResponseWriter, r *http.Request) {
			reply(w, 200, `{"success":true,"response":"x"}`)
		})
	})

	ok, err := chat.SendMessage(context.Background(), "hi")
	assert.False(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, 0, b.total())
	assert.Empty(t, chat.Messages())
	assert.Equal(t, 2, chat.GuestPromptCount())
}

func TestChatStore_FailuresRollBack(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"limit reached", 200, `{"success":false,"limit_reached":true}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrGuestLimitReached)
			assert.Equal(t, "You have reached the limit of 2 free messages. Please register to continue chatting.", err.Error())
		}},
		{"limit reached as 429", 429, `{"success":false,"limit_reached":true,"message":"Too many"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrGuestLimitReached)
		}},
		{"server message", 200, `{"success":false,"message":"Model unavailable"}`, func(t *testing.T, err error) {
			var se *SendError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "Model unavailable", se.Message)
		}},
		{"no message", 200, `{"success":false}`, func(t *testing.T, err error) {
			assert.EqualError(t, err, "failed to send message")
		}},
		{"http error", 500, `{"message":"boom"}`, func(t *testing.T, err error) {
			assert.Contains(t, err.Error(), "boom")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var fail atomic.Bool
			_, chat, st := newChat(t, false, 0, func(r chi.Router) {
				r.Post("/chat/guest", func(w http.ResponseWriter, r *http.Request) {
					if fail.Load() {
						reply(w, tc.status, tc.body)
						return
					}
					reply(w, 200, `{"success":true,"response":"first"}`)
				})
			})
			ok, err := chat.SendMessage(context.Background(), "one")
			require.True(t, ok)
			require.NoError(t, err)
			before := chat.Messages()
			fail.Store(true)

			ok, err = chat.SendMessage(context.Background(), "two")
			assert.False(t, ok)
			require.Error(t, err)
			tc.check(t, err)

			assert.Equal(t, before, chat.Messages())
			n, _ := storage.GetInt(st, storage.KeyGuestPromptCount)
			assert.Equal(t, 1, n)
			assert.False(t, chat.Loading())
		})
	}
}

func TestChatStore_RejectsOverlappingSend(t *testing.T) {
	release := make(chan struct{})
	_, chat, _ := newChat(t, true, 0, func(r chi.Router) {
		r.Post("/chat/send", func(w http.ResponseWriter, r *http.Request) {
			<-release
			reply(w, 200, `{"success":true,"response":"done"}`)
		})
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ok, err := chat.SendMessage(context.Background(), "first")
		assert.True(t, ok)
		assert.NoError(t, err)
	}()
	require.Eventually(t, chat.Loading, time.Second, 5*time.Millisecond)

	ok, err := chat.SendMessage(context.Background(), "second")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrSendInProgress)

	close(release)
	wg.Wait()
	msgs := chat.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
}

func TestChatStore_EmptyMessage(t *testing.T) {
	b, chat, _ := newChat(t, false, 0, func(r chi.Router) {})

	ok, err := chat.SendMessage(context.Background(), "  \n")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, 0, b.total())
}

func TestChatStore_ClearAndReset(t *testing.T) {
	_, chat, st := newChat(t, false, 0, func(r chi.Router) {
		r.Post("/chat/guest", func(w http.ResponseWriter, r *http.Request) {
			reply(w, 200, `{"success":true,"response":"r","session_id":"guest_x"}`)
		})
	})
	_, err := chat.SendMessage(context.Background(), "m")
	require.NoError(t, err)

	chat.ClearChat()
	assert.Empty(t, chat.Messages())
	assert.Empty(t, chat.CurrentSession())

	require.NoError(t, chat.ResetGuestCount())
	assert.Equal(t, 0, chat.GuestPromptCount())
	_, ok := mustGet(t, st, storage.KeyGuestPromptCount)
	assert.False(t, ok)
	_, ok = mustGet(t, st, storage.KeyGuestSessionID)
	assert.False(t, ok)
}
