// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/botline/internal/logging"
	"github.com/jeranaias/botline/internal/model"
	"github.com/jeranaias/botline/internal/service"
)

// AuthState is the lifecycle state of an AuthStore.
type AuthState int

const (
	// StateAnonymous has neither token nor user.
	StateAnonymous AuthState = iota
	// StatePending has a persisted token whose user is not loaded yet.
	StatePending
	// StateAuthenticated has both token and user.
	StateAuthenticated
	// StateInvalid is a token the backend rejected, seen only while
	// CheckAuth is cleaning up.
	StateInvalid
)

// String returns the state name.
func (s AuthState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StatePending:
		return "pending"
	case StateAuthenticated:
		return "authenticated"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// =============================================================================
// AUTH STORE
// =============================================================================

// AuthStore tracks the signed-in identity.
type AuthStore struct {
	mu      sync.RWMutex
	auth    *service.AuthService
	logger  logrus.FieldLogger
	token   string
	user    *model.User
	state   AuthState
	loading bool

	subscribers []func(model.User)
	signedOut   []func()
}

// NewAuthStore creates an AuthStore. A persisted token is picked up and the
// store starts Pending until CheckAuth confirms it.
func NewAuthStore(auth *service.AuthService, logger logrus.FieldLogger) *AuthStore {
	s := &AuthStore{
		auth:   auth,
		logger: logging.OrDiscard(logger).WithField("component", "auth"),
		token:  auth.StoredToken(),
	}
	s.state = s.deriveState()
	return s
}

// deriveState must be called with mu held.
func (s *AuthStore) deriveState() AuthState {
	switch {
	case s.token != "" && s.user != nil:
		return StateAuthenticated
	case s.token != "":
		return StatePending
	default:
		return StateAnonymous
	}
}

// OnAuthenticated registers fn to run after every successful login or
// registration. fn runs without the store lock held.
func (s *AuthStore) OnAuthenticated(fn func(model.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// OnSignedOut registers fn to run whenever a held token is dropped: logout,
// a rejected token or a 401 on any request. fn runs without the store lock
// held.
func (s *AuthStore) OnSignedOut(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signedOut = append(s.signedOut, fn)
}

// Login signs in. It reports success rather than returning an error; on
// failure all auth state is cleared.
func (s *AuthStore) Login(ctx context.Context, email, password string) bool {
	return s.authenticate("login", func() (*model.AuthUser, error) {
		return s.auth.Login(ctx, model.LoginCredentials{Email: email, Password: password})
	})
}

// Register creates an account and signs in, with the same contract as Login.
func (s *AuthStore) Register(ctx context.Context, name, email, password, confirmation string) bool {
	return s.authenticate("register", func() (*model.AuthUser, error) {
		return s.auth.Register(ctx, model.RegisterData{
			Name:                 name,
			Email:                email,
			Password:             password,
			PasswordConfirmation: confirmation,
		})
	})
}

func (s *AuthStore) authenticate(op string, call func() (*model.AuthUser, error)) bool {
	s.setLoading(true)
	defer s.setLoading(false)

	au, err := call()
	if err != nil || au == nil || au.Token == "" {
		if err == nil {
			err = service.ErrInvalidAuthResponse
		}
		s.logger.WithError(err).WithField("op", op).Warn("authentication failed")
		s.signOut()
		return false
	}

	user := au.User
	s.mu.Lock()
	s.token = au.Token
	s.user = &user
	s.state = StateAuthenticated
	subs := append([]func(model.User){}, s.subscribers...)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"op": op, "user_id": user.ID}).Info("authenticated")
	for _, fn := range subs {
		fn(user)
	}
	return true
}

// Logout notifies the backend when a token is held, ignoring any failure,
// and always clears local auth state.
func (s *AuthStore) Logout(ctx context.Context) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token != "" {
		if err := s.auth.Logout(ctx); err != nil {
			s.logger.WithError(err).Debug("logout request failed")
		}
	}
	s.signOut()
}

// Expire drops the session after the backend rejected the token on some
// request. The client has already removed the persisted token.
func (s *AuthStore) Expire() {
	if s.Token() == "" {
		return
	}
	s.logger.Info("session expired")
	s.signOut()
}

// CheckAuth validates the held token by loading the current user. Without a
// token it clears the user and returns false. A rejected token clears all
// auth state.
func (s *AuthStore) CheckAuth(ctx context.Context) bool {
	s.mu.Lock()
	if s.token == "" {
		s.user = nil
		s.state = StateAnonymous
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	user, err := s.auth.CurrentUser(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = StateInvalid
		s.mu.Unlock()
		s.logger.WithError(err).Warn("auth check failed")
		s.signOut()
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.state = s.deriveState()
	return s.state == StateAuthenticated
}

// Resync re-reads the persisted token, which another process may have
// changed, and validates it like CheckAuth. It reports whether the store is
// authenticated afterwards.
func (s *AuthStore) Resync(ctx context.Context) bool {
	s.mu.Lock()
	if stored := s.auth.StoredToken(); stored != s.token {
		s.logger.Debug("persisted token changed")
		s.token = stored
		s.user = nil
		s.state = s.deriveState()
	}
	loaded := s.user != nil
	s.mu.Unlock()

	if loaded {
		return true
	}
	return s.CheckAuth(ctx)
}

// signOut clears the session and, when a token was held, notifies the
// OnSignedOut subscribers after the lock is released.
func (s *AuthStore) signOut() {
	s.mu.Lock()
	held := s.token != ""
	s.clearLocked()
	subs := append([]func(){}, s.signedOut...)
	s.mu.Unlock()

	if !held {
		return
	}
	for _, fn := range subs {
		fn()
	}
}

// clearLocked drops the token and user in memory and in storage. It must be
// called with mu held.
func (s *AuthStore) clearLocked() {
	s.token = ""
	s.user = nil
	s.state = StateAnonymous
	err := errors.Join(s.auth.Client().ClearToken(), s.auth.ForgetUser())
	if err != nil {
		s.logger.WithError(err).Warn("failed to clear persisted credentials")
	}
}

// SetUser replaces the loaded user after a profile change. It is ignored
// when no token is held.
func (s *AuthStore) SetUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return
	}
	s.user = &u
	s.state = s.deriveState()
}

func (s *AuthStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// User returns a copy of the loaded user, or nil.
func (s *AuthStore) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the held token or "".
func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State returns the current state.
func (s *AuthStore) State() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated reports whether both token and user are held.
func (s *AuthStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// IsAdmin reports whether the loaded user is an administrator.
func (s *AuthStore) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsAdmin
}

// Loading reports whether a login or registration is in flight.
func (s *AuthStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}
