// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"

	"github.com/jeranaias/botline/internal/api"
	"github.com/jeranaias/botline/internal/model"
)

// ChatService sends messages to the bot.
type ChatService struct {
	client *api.Client
}

// NewChatService creates a ChatService.
func NewChatService(client *api.Client) *ChatService {
	return &ChatService{client: client}
}

// Send posts an authenticated message, continuing conversationID when set.
func (s *ChatService) Send(ctx context.Context, message, conversationID string) (*model.ChatResponse, error) {
	req := model.ChatRequest{Message: message, ConversationID: conversationID}
	return s.post(ctx, "/chat/send", req)
}

// SendGuest posts an anonymous message under the guest session id.
func (s *ChatService) SendGuest(ctx context.Context, message, sessionID string) (*model.ChatResponse, error) {
	req := model.ChatRequest{Message: message, SessionID: sessionID}
	return s.post(ctx, "/chat/guest", req)
}

// post returns the decoded body without judging success; the caller
// decides what success:false means. An error status whose body carries
// limit_reached is reported as a response too, so quota exhaustion looks
// the same whichever status the backend picks.
func (s *ChatService) post(ctx context.Context, path string, req model.ChatRequest) (*model.ChatResponse, error) {
	resp, err := s.client.Post(ctx, path, req)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && gjson.GetBytes(apiErr.Body, "limit_reached").Bool() {
			var cr model.ChatResponse
			if json.Unmarshal(apiErr.Body, &cr) == nil {
				cr.Success = false
				return &cr, nil
			}
		}
		return nil, err
	}

	var cr model.ChatResponse
	if err := resp.Decode(&cr); err != nil {
		return nil, err
	}
	return &cr, nil
}
