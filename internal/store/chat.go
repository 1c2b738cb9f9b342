// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/botline/internal/logging"
	"github.com/jeranaias/botline/internal/model"
	"github.com/jeranaias/botline/internal/service"
	"github.com/jeranaias/botline/internal/session"
)

var (
	// ErrGuestLimitReached matches every *LimitError.
	ErrGuestLimitReached = errors.New("guest message limit reached")

	// ErrSendInProgress is returned when SendMessage is called while another
	// send is still waiting for the backend.
	ErrSendInProgress = errors.New("a message is already being sent")

	// ErrEmptyMessage is returned for blank content.
	ErrEmptyMessage = errors.New("message is empty")
)

// LimitError reports that the backend refused a guest message because the
// free quota is used up.
type LimitError struct {
	Max int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("You have reached the limit of %d free messages. Please register to continue chatting.", e.Max)
}

// Is makes errors.Is(err, ErrGuestLimitReached) true.
func (e *LimitError) Is(target error) bool {
	return target == ErrGuestLimitReached
}

// SendError carries the message of a send the backend declined.
type SendError struct {
	Message string
}

func (e *SendError) Error() string {
	return e.Message
}

// Identity tells the ChatStore which endpoint a message goes to.
type Identity interface {
	IsAuthenticated() bool
}

// tokenHolder is implemented by identities that may hold a token whose user
// has not been confirmed yet.
type tokenHolder interface {
	Token() string
}

// =============================================================================
// CHAT STORE
// =============================================================================

// ChatStore holds the transcript of the running chat and enforces the guest
// quota.
type ChatStore struct {
	mu       sync.RWMutex
	chat     *service.ChatService
	guest    *session.Guest
	identity Identity
	logger   logrus.FieldLogger

	messages []model.Message
	current  string
	sending  bool
}

// NewChatStore creates a ChatStore. For an anonymous identity it makes sure
// a guest session id exists and clamps a stale quota counter. An identity
// still holding an unchecked token is left alone until it signs out.
func NewChatStore(chat *service.ChatService, guest *session.Guest, identity Identity, logger logrus.FieldLogger) *ChatStore {
	s := &ChatStore{
		chat:     chat,
		guest:    guest,
		identity: identity,
		logger:   logging.OrDiscard(logger).WithField("component", "chat"),
	}
	s.initGuest()
	return s
}

func (s *ChatStore) initGuest() {
	if s.identity.IsAuthenticated() {
		return
	}
	if th, ok := s.identity.(tokenHolder); ok && th.Token() != "" {
		s.logger.Debug("guest setup deferred until the token is checked")
		return
	}
	if _, err := s.guest.SessionID(); err != nil {
		s.logger.WithError(err).Warn("failed to prepare guest session")
	}
	before := s.guest.Count()
	n, err := s.guest.Reconcile()
	if err != nil {
		s.logger.WithError(err).Warn("failed to reconcile guest counter")
		return
	}
	if n != before {
		s.logger.WithFields(logrus.Fields{"stored": before, "max": s.guest.Max()}).Debug("clamped guest counter")
	}
}

// SendMessage sends content and appends the bot reply. It returns false
// without contacting the backend when a guest has no messages left. On any
// failure the outgoing message is withdrawn from the transcript and the
// guest counter is unchanged.
func (s *ChatStore) SendMessage(ctx context.Context, content string) (bool, error) {
	if strings.TrimSpace(content) == "" {
		return false, ErrEmptyMessage
	}
	authed := s.identity.IsAuthenticated()
	if !authed && s.guest.Exhausted() {
		return false, nil
	}

	handle, conversation, err := s.begin(content)
	if err != nil {
		return false, err
	}

	resp, err := s.dispatch(ctx, authed, content, conversation)
	if err == nil {
		err = s.judge(resp)
	}
	if err != nil {
		s.revert(handle)
		s.logger.WithError(err).Warn("failed to send message")
		return false, err
	}

	sessionID := resp.SessionID
	if authed {
		sessionID = resp.ConversationID.String()
	}
	s.commit(model.NewBotMessage(resp.Response), sessionID)

	if !authed {
		if resp.SessionID != "" {
			if err := s.guest.SetSessionID(resp.SessionID); err != nil {
				s.logger.WithError(err).Warn("failed to persist guest session id")
			}
		}
		if _, err := s.guest.Increment(); err != nil {
			s.logger.WithError(err).Warn("failed to persist guest counter")
		}
	}
	return true, nil
}

func (s *ChatStore) dispatch(ctx context.Context, authed bool, content, conversation string) (*model.ChatResponse, error) {
	if authed {
		return s.chat.Send(ctx, content, conversation)
	}
	id, err := s.guest.SessionID()
	if err != nil {
		return nil, err
	}
	return s.chat.SendGuest(ctx, content, id)
}

func (s *ChatStore) judge(resp *model.ChatResponse) error {
	if resp.Success {
		return nil
	}
	if resp.LimitReached {
		return &LimitError{Max: s.guest.Max()}
	}
	if resp.Message != "" {
		return &SendError{Message: resp.Message}
	}
	return &SendError{Message: "failed to send message"}
}

// =============================================================================
// TENTATIVE MESSAGES
// =============================================================================

// begin appends the outgoing message and marks a send in flight. It returns
// the message id and the conversation to continue.
func (s *ChatStore) begin(content string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending {
		return "", "", ErrSendInProgress
	}
	msg := model.NewUserMessage(content)
	s.messages = append(s.messages, msg)
	s.sending = true
	return msg.ID, s.current, nil
}

// commit appends the reply and records the session it belongs to.
func (s *ChatStore) commit(reply model.Message, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, reply)
	if sessionID != "" {
		s.current = sessionID
	}
	s.sending = false
}

// revert removes the tentative message with the given id.
func (s *ChatStore) revert(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = slices.DeleteFunc(s.messages, func(m model.Message) bool { return m.ID == id })
	s.sending = false
}

// =============================================================================
// STATE
// =============================================================================

// Messages returns a copy of the transcript.
func (s *ChatStore) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

// CurrentSession returns the conversation id (signed in) or guest session
// id the backend last reported, or "".
func (s *ChatStore) CurrentSession() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Loading reports whether a send is in flight.
func (s *ChatStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sending
}

// CanSendMessage is always true when signed in, otherwise true while the
// guest quota has room.
func (s *ChatStore) CanSendMessage() bool {
	return s.identity.IsAuthenticated() || !s.guest.Exhausted()
}

// RemainingPrompts returns the guest messages left. ok is false when signed
// in, where there is no limit.
func (s *ChatStore) RemainingPrompts() (n int, ok bool) {
	if s.identity.IsAuthenticated() {
		return 0, false
	}
	return s.guest.Remaining(), true
}

// GuestPromptCount returns the persisted guest counter.
func (s *ChatStore) GuestPromptCount() int {
	return s.guest.Count()
}

// MaxGuestPrompts returns the guest quota.
func (s *ChatStore) MaxGuestPrompts() int {
	return s.guest.Max()
}

// GuestSessionID returns the persisted guest session id, creating one if
// needed. It returns "" when signed in.
func (s *ChatStore) GuestSessionID() (string, error) {
	if s.identity.IsAuthenticated() {
		return "", nil
	}
	return s.guest.SessionID()
}

// ClearChat empties the transcript and forgets the current session.
func (s *ChatStore) ClearChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.current = ""
}

// ResetGuestCount zeroes the guest counter and removes the persisted guest
// counter and session id.
func (s *ChatStore) ResetGuestCount() error {
	if err := s.guest.Reset(); err != nil {
		return fmt.Errorf("failed to reset guest quota: %w", err)
	}
	return nil
}
