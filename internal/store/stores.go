// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/botline/internal/api"
	"github.com/jeranaias/botline/internal/model"
	"github.com/jeranaias/botline/internal/service"
	"github.com/jeranaias/botline/internal/session"
	"github.com/jeranaias/botline/internal/storage"
)

// Stores bundles the stores of one client session.
type Stores struct {
	Auth  *AuthStore
	Chat  *ChatStore
	Stats *StatsStore
}

// New builds the stores over client and store. A successful login resets
// the guest quota. A 401 on any request expires the auth store, and every
// sign-out prepares the guest session again.
func New(client *api.Client, st storage.Store, maxGuestPrompts int, logger logrus.FieldLogger) *Stores {
	auth := NewAuthStore(service.NewAuthService(client, st), logger)
	chat := NewChatStore(service.NewChatService(client), session.NewGuest(st, maxGuestPrompts), auth, logger)
	auth.OnAuthenticated(func(model.User) {
		if err := chat.ResetGuestCount(); err != nil {
			chat.logger.WithError(err).Warn("failed to reset guest quota after sign-in")
		}
	})
	auth.OnSignedOut(chat.initGuest)
	client.OnUnauthorized(auth.Expire)
	return &Stores{
		Auth:  auth,
		Chat:  chat,
		Stats: NewStatsStore(service.NewStatService(client), logger),
	}
}
