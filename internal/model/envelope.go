// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Envelope is the common `{success, message?, data?}` response shape.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// FlexID is an identifier the backend may encode either as a JSON number or
// as a string. It is always held as a string.
type FlexID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}

// String returns the identifier.
func (id FlexID) String() string {
	return string(id)
}

// Int64 parses the identifier as a number, returning 0 when it is not one.
func (id FlexID) Int64() int64 {
	n, _ := strconv.ParseInt(string(id), 10, 64)
	return n
}

// ChatRequest is the body of /chat/send and /chat/guest.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
}

// ChatResponse is the body returned by both chat endpoints.
//
// The reply text is accepted either as a top-level `response` field or nested
// under `data.response`; the same holds for the conversation id.
type ChatResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	Response       string `json:"response,omitempty"`
	ConversationID FlexID `json:"conversation_id,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
	LimitReached   bool   `json:"limit_reached,omitempty"`
}

type chatResponseData struct {
	Response       string `json:"response"`
	ConversationID FlexID `json:"conversation_id"`
	SessionID      string `json:"session_id"`
}

// UnmarshalJSON flattens the nested `data` object into the response. A
// `data` value that is not an object is ignored.
func (r *ChatResponse) UnmarshalJSON(b []byte) error {
	type plain ChatResponse
	var raw struct {
		plain
		Data json.RawMessage `json:"data,omitempty"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = ChatResponse(raw.plain)

	data := bytes.TrimSpace(raw.Data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	var d chatResponseData
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("chat response data: %w", err)
	}
	if r.Response == "" {
		r.Response = d.Response
	}
	if r.ConversationID == "" {
		r.ConversationID = d.ConversationID
	}
	if r.SessionID == "" {
		r.SessionID = d.SessionID
	}
	return nil
}
