// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/botline/internal/model"
	"github.com/jeranaias/botline/internal/service"
)

// =============================================================================
// LOGIN / REGISTER / LOGOUT
// =============================================================================

func (a *App) handleLogin(ctx context.Context, args Args) (any, error) {
	email, err := a.promptLine("Email", args.Parser.Flag("email"))
	if err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if !service.ValidEmail(email) {
		return nil, NewValidationErrorWithExample("email", email, "not a valid email address", "--email you@example.com")
	}
	password, err := a.promptPassword("Password")
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrMissingArgument("password", "")
	}

	if !a.Stores.Auth.Login(ctx, email, password) {
		return nil, ErrLoginFailed
	}
	user := a.Stores.Auth.User()
	a.Notef("%s Signed in as %s.", SuccessStyle.Render("[OK]"), service.DisplayName(*user))
	return user, nil
}

func (a *App) handleRegister(ctx context.Context, args Args) (any, error) {
	p := args.Parser
	name, err := a.promptLine("Name", p.Flag("name"))
	if err != nil {
		return nil, err
	}
	email, err := a.promptLine("Email", p.Flag("email"))
	if err != nil {
		return nil, err
	}
	password, err := a.promptPassword("Password")
	if err != nil {
		return nil, err
	}
	confirmation, err := a.promptPassword("Confirm password")
	if err != nil {
		return nil, err
	}

	data := model.RegisterData{
		Name:                 strings.TrimSpace(name),
		Email:                strings.TrimSpace(email),
		Password:             password,
		PasswordConfirmation: confirmation,
	}
	if err := newFormError("registration", service.ValidateRegistration(data)); err != nil {
		return nil, err
	}
	if strength := service.PasswordStrength(password); !strength.IsStrong {
		a.Notef("%s weak password: %s", WarningStyle.Render("[WARN]"), strings.Join(strength.Feedback, ", "))
	}

	if !a.Stores.Auth.Register(ctx, data.Name, data.Email, data.Password, data.PasswordConfirmation) {
		return nil, NewCommandError("register", "create account", "the server rejected the registration", nil)
	}
	user := a.Stores.Auth.User()
	a.Notef("%s Welcome, %s. Your account is ready.", SuccessStyle.Render("[OK]"), service.DisplayName(*user))
	return user, nil
}

func (a *App) handleLogout(ctx context.Context, args Args) (any, error) {
	was := a.Stores.Auth.Token() != ""
	a.Stores.Auth.Logout(ctx)
	if was {
		a.Notef("Signed out.")
	} else {
		a.Notef("Not signed in.")
	}
	return map[string]bool{"signed_out": was}, nil
}

// =============================================================================
// WHOAMI
// =============================================================================

type guestInfo struct {
	SessionID string `json:"session_id"`
	Used      int    `json:"used"`
	Max       int    `json:"max"`
	Remaining int    `json:"remaining"`
}

type whoami struct {
	State string      `json:"state"`
	User  *model.User `json:"user,omitempty"`
	Guest *guestInfo  `json:"guest,omitempty"`
}

func (a *App) handleWhoami(ctx context.Context, args Args) (any, error) {
	res := whoami{State: a.Stores.Auth.State().String(), User: a.Stores.Auth.User()}
	if res.User == nil {
		id, err := a.Stores.Chat.GuestSessionID()
		if err != nil {
			return nil, fmt.Errorf("failed to read guest session: %w", err)
		}
		n, _ := a.Stores.Chat.RemainingPrompts()
		res.Guest = &guestInfo{
			SessionID: id,
			Used:      a.Stores.Chat.GuestPromptCount(),
			Max:       a.Stores.Chat.MaxGuestPrompts(),
			Remaining: n,
		}
	}

	if a.JSON {
		return res, nil
	}
	if u := res.User; u != nil {
		a.Println(TitleStyle.Render(service.DisplayName(*u) + "  (" + service.Initials(*u) + ")"))
		a.Println(RenderField("Email", u.Email))
		a.Println(RenderField("Role", roleName(*u)))
		if u.CreatedAt != "" {
			a.Println(RenderField("Member since", u.CreatedAt))
		}
		return res, nil
	}
	a.Println(TitleStyle.Render("Guest"))
	a.Println(RenderField("Session", res.Guest.SessionID))
	a.Println(RenderField("Free messages", a.quotaText()))
	return res, nil
}

func roleName(u model.User) string {
	var roles []string
	if u.IsAdmin {
		roles = append(roles, "admin")
	}
	if u.IsPremium {
		roles = append(roles, "premium")
	}
	if len(roles) == 0 {
		return "user"
	}
	return strings.Join(roles, ", ")
}

// identityName is the signed-in user's display name, or "guest".
func (a *App) identityName() string {
	if u := a.Stores.Auth.User(); u != nil {
		return service.DisplayName(*u)
	}
	return "guest"
}
