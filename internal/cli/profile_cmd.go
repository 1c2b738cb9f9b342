// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/botline/internal/model"
	"github.com/jeranaias/botline/internal/service"
)

// maxAvatarBytes matches the backend's upload limit.
const maxAvatarBytes = 2 << 20

func (a *App) handleProfile(ctx context.Context, args Args) (any, error) {
	switch args.Subcommand {
	case "", "show":
		return a.profileShow(ctx)
	case "update":
		return a.profileUpdate(ctx, args.Parser)
	case "password":
		return a.profilePassword(ctx)
	case "avatar":
		return a.profileAvatar(ctx, args.Parser)
	case "delete":
		return a.profileDelete(ctx, args.Parser)
	default:
		return nil, NewValidationErrorWithExample("subcommand", args.Subcommand,
			"unknown profile subcommand", "botline profile [show|update|password|avatar|delete]")
	}
}

func (a *App) profileShow(ctx context.Context) (any, error) {
	user, err := a.Users.Profile(ctx)
	if err != nil {
		return nil, err
	}
	a.Stores.Auth.SetUser(*user)
	a.printUser(*user)
	return user, nil
}

func (a *App) printUser(u model.User) {
	a.Println(TitleStyle.Render(service.DisplayName(u)))
	a.Println(RenderField("Email", u.Email))
	a.Println(RenderField("Role", roleName(u)))
	if u.AvatarURL != "" {
		a.Println(RenderField("Avatar", u.AvatarURL))
	}
	if u.EmailVerifiedAt == "" {
		a.Println(RenderField("Email verified", "no"))
	}
	if u.ConversationsCount > 0 {
		a.Println(RenderField("Conversations", formatCount(u.ConversationsCount)))
	}
	if u.CreatedAt != "" {
		a.Println(RenderField("Member since", u.CreatedAt))
	}
}

func (a *App) profileUpdate(ctx context.Context, p *ArgParser) (any, error) {
	data := model.UpdateProfileData{
		Name:  strings.TrimSpace(p.Flag("name")),
		Email: strings.TrimSpace(p.Flag("email")),
	}
	if data.Name == "" && data.Email == "" {
		return nil, ErrMissingArgument("name or email", "botline profile update --name \"Ana Lima\"")
	}
	if err := newFormError("profile", service.ValidateProfile(data)); err != nil {
		return nil, err
	}

	user, err := a.Users.UpdateProfile(ctx, data)
	if err != nil {
		return nil, err
	}
	a.Stores.Auth.SetUser(*user)
	a.Notef("%s Profile updated.", SuccessStyle.Render("[OK]"))
	return user, nil
}

func (a *App) profilePassword(ctx context.Context) (any, error) {
	var pc model.PasswordChange
	var err error
	if pc.CurrentPassword, err = a.promptPassword("Current password"); err != nil {
		return nil, err
	}
	if pc.NewPassword, err = a.promptPassword("New password"); err != nil {
		return nil, err
	}
	if pc.NewPasswordConfirmation, err = a.promptPassword("Confirm new password"); err != nil {
		return nil, err
	}
	if err := newFormError("password change", service.ValidatePassword(pc)); err != nil {
		return nil, err
	}

	strength := service.PasswordStrength(pc.NewPassword)
	if !strength.IsStrong {
		a.Notef("%s weak password: %s", WarningStyle.Render("[WARN]"), strings.Join(strength.Feedback, ", "))
	}
	if err := a.Users.ChangePassword(ctx, pc); err != nil {
		return nil, err
	}
	a.Notef("%s Password changed.", SuccessStyle.Render("[OK]"))
	return map[string]any{"changed": true, "strength": strength}, nil
}

func (a *App) profileAvatar(ctx context.Context, p *ArgParser) (any, error) {
	path := p.Positional(1)
	if path == "" {
		return nil, ErrMissingArgument("file", "botline profile avatar ./me.png")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		return nil, NewValidationErrorWithExample("file", path, "must be a png, jpg, gif or webp image", "./me.png")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, NewCommandError("profile", "avatar", "cannot open image", err)
	}
	defer f.Close()
	if info, err := f.Stat(); err == nil && info.Size() > maxAvatarBytes {
		return nil, NewValidationError("file", path, fmt.Sprintf("image is larger than %d MB", maxAvatarBytes>>20))
	}

	user, err := a.Users.UpdateAvatar(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, err
	}
	a.Stores.Auth.SetUser(*user)
	a.Notef("%s Avatar updated.", SuccessStyle.Render("[OK]"))
	return user, nil
}

func (a *App) profileDelete(ctx context.Context, p *ArgParser) (any, error) {
	confirmed, err := a.RequireConfirmation(p.BoolFlag("confirm") || p.BoolFlag("y"), "permanently delete your account")
	if err != nil {
		return nil, err
	}
	if !confirmed {
		a.Notef("Cancelled.")
		return map[string]bool{"deleted": false}, nil
	}

	password, err := a.promptPassword("Password")
	if err != nil {
		return nil, err
	}
	if err := a.Users.DeleteAccount(ctx, password); err != nil {
		return nil, err
	}
	a.Stores.Auth.Logout(ctx)
	a.Notef("%s Account deleted.", SuccessStyle.Render("[OK]"))
	return map[string]bool{"deleted": true}, nil
}
