// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexID_AcceptsNumberAndString(t *testing.T) {
	var v struct {
		A FlexID `json:"a"`
		B FlexID `json:"b"`
		C FlexID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 42, "b": "abc", "c": null}`), &v))

	assert.Equal(t, FlexID("42"), v.A)
	assert.Equal(t, int64(42), v.A.Int64())
	assert.Equal(t, "abc", v.B.String())
	assert.Equal(t, int64(0), v.B.Int64())
	assert.Empty(t, v.C)
}

func TestChatResponse_TopLevelFields(t *testing.T) {
	var r ChatResponse
	body := `{"success": true, "response": "hi there", "session_id": "guest_1"}`
	require.NoError(t, json.Unmarshal([]byte(body), &r))

	assert.True(t, r.Success)
	assert.Equal(t, "hi there", r.Response)
	assert.Equal(t, "guest_1", r.SessionID)
	assert.Empty(t, r.ConversationID)
}

func TestChatResponse_NestedData(t *testing.T) {
	var r ChatResponse
	body := `{"success": true, "data": {"response": "nested", "conversation_id": 7}}`
	require.NoError(t, json.Unmarshal([]byte(body), &r))

	assert.Equal(t, "nested", r.Response)
	assert.Equal(t, FlexID("7"), r.ConversationID)
}

func TestChatResponse_NonObjectDataIgnored(t *testing.T) {
	for _, data := range []string{`[]`, `"ok"`, `null`, `3`, `[{"response":"x"}]`} {
		var r ChatResponse
		body := `{"success": true, "response": "hi", "conversation_id": 5, "data": ` + data + `}`
		require.NoError(t, json.Unmarshal([]byte(body), &r), data)

		assert.True(t, r.Success, data)
		assert.Equal(t, "hi", r.Response, data)
		assert.Equal(t, FlexID("5"), r.ConversationID, data)
	}
}

func TestChatResponse_MalformedDataObject(t *testing.T) {
	var r ChatResponse
	err := json.Unmarshal([]byte(`{"success": true, "data": {"response": 12}}`), &r)
	assert.Error(t, err)
}

func TestChatResponse_LimitReached(t *testing.T) {
	var r ChatResponse
	body := `{"success": false, "limit_reached": true, "message": "limit"}`
	require.NoError(t, json.Unmarshal([]byte(body), &r))

	assert.False(t, r.Success)
	assert.True(t, r.LimitReached)
	assert.Equal(t, "limit", r.Message)
}

func TestNewMessages(t *testing.T) {
	u := NewUserMessage("hello")
	b := NewBotMessage("world")

	assert.True(t, u.IsUser())
	assert.False(t, b.IsUser())
	assert.Equal(t, RoleAssistant, b.Role)
	assert.NotEqual(t, u.ID, b.ID)
	assert.Equal(t, "You", u.Sender.DisplayName())
	assert.Equal(t, "Bot", b.Sender.DisplayName())
}
