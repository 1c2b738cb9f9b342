// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER / ROLE
// =============================================================================

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Role mirrors Sender using the assistant vocabulary some endpoints expect.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DisplayName returns a human-readable label for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Bot"
	default:
		return string(s)
	}
}

// =============================================================================
// MESSAGE
// =============================================================================

// Message is a single line of a chat.
type Message struct {
	ID             string    `json:"id"`
	Content        string    `json:"content"`
	Sender         Sender    `json:"sender"`
	Role           Role      `json:"role,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id,omitempty"`
	UserID         int64     `json:"user_id,omitempty"`
	SessionID      string    `json:"session_id,omitempty"`
}

// NewUserMessage creates an outgoing message authored by the local user.
func NewUserMessage(content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    SenderUser,
		Role:      RoleUser,
		Timestamp: time.Now(),
	}
}

// NewBotMessage creates a message holding a bot reply.
func NewBotMessage(content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    SenderBot,
		Role:      RoleAssistant,
		Timestamp: time.Now(),
	}
}

// IsUser reports whether the message was authored locally.
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// Conversation is the server-side grouping of messages. The client only
// refers to it by id.
type Conversation struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
	MessagesCount int    `json:"messages_count,omitempty"`
	UserID        int64  `json:"user_id"`
}
