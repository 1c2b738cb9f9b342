// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/botline/internal/logging"
	"github.com/jeranaias/botline/internal/model"
)

// Redirect targets.
const (
	PathAuth  = "/auth"
	PathChat  = "/chat"
	PathAdmin = "/admin"
)

// ============================================================================
// DECISION
// ============================================================================

// Kind is the outcome of a navigation check.
type Kind int

const (
	// Proceed lets the navigation through.
	Proceed Kind = iota
	// RedirectAuth sends an unauthenticated visitor to sign in.
	RedirectAuth
	// RedirectChat sends a user without the needed privilege to the chat.
	RedirectChat
	// RedirectLanding sends a signed-in user away from the auth screen to
	// the landing page for their role.
	RedirectLanding
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Proceed:
		return "proceed"
	case RedirectAuth:
		return "redirect-auth"
	case RedirectChat:
		return "redirect-chat"
	case RedirectLanding:
		return "redirect-landing"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Decision is the result of Guard.Decide. Target is empty for Proceed.
type Decision struct {
	Kind   Kind
	Target string
	Reason string
}

// Allowed reports whether the navigation may proceed.
func (d Decision) Allowed() bool {
	return d.Kind == Proceed
}

// ============================================================================
// GUARD
// ============================================================================

// Session is the auth state a Guard reads. *store.AuthStore satisfies it.
type Session interface {
	Token() string
	User() *model.User
	IsAuthenticated() bool
	CheckAuth(ctx context.Context) bool
}

// Guard checks navigation against the session.
type Guard struct {
	session Session
	logger  logrus.FieldLogger
}

// NewGuard creates a Guard over session.
func NewGuard(session Session, logger logrus.FieldLogger) *Guard {
	return &Guard{session: session, logger: logging.OrDiscard(logger).WithField("component", "router")}
}

// Decide evaluates a navigation to target. A token without a loaded user
// is checked with the backend first; if that fails on a protected route the
// visitor is sent to sign in.
func (g *Guard) Decide(ctx context.Context, target Route) Decision {
	log := g.logger.WithField("route", target.Name)

	if g.session.Token() != "" && g.session.User() == nil {
		ok := g.session.CheckAuth(ctx)
		log.WithField("ok", ok).Debug("checked stored token")
		if !ok && target.RequiresAuth {
			return g.redirect(log, RedirectAuth, PathAuth, "stored token was rejected")
		}
	}

	if target.RequiresAuth && !g.session.IsAuthenticated() {
		return g.redirect(log, RedirectAuth, PathAuth, "authentication required")
	}

	if target.RequiresAdmin {
		if u := g.session.User(); u == nil || !u.IsAdmin {
			return g.redirect(log, RedirectChat, PathChat, "admin required")
		}
	}

	if target.Name == Auth.Name && g.session.IsAuthenticated() {
		landing := PathChat
		if u := g.session.User(); u != nil && u.IsAdmin {
			landing = PathAdmin
		}
		return g.redirect(log, RedirectLanding, landing, "already authenticated")
	}

	log.Debug("navigation allowed")
	return Decision{Kind: Proceed}
}

func (g *Guard) redirect(log logrus.FieldLogger, kind Kind, target, reason string) Decision {
	log.WithFields(logrus.Fields{"target": target, "reason": reason}).Debug("navigation redirected")
	return Decision{Kind: kind, Target: target, Reason: reason}
}
