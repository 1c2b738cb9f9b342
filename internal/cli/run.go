// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/botline/internal/router"
)

// handler runs one command against a ready App and returns the data for
// the JSON envelope.
type handler func(a *App, ctx context.Context, args Args) (any, error)

var handlers = map[Command]handler{
	CmdChat:     (*App).handleChat,
	CmdAsk:      (*App).handleAsk,
	CmdLogin:    (*App).handleLogin,
	CmdRegister: (*App).handleRegister,
	CmdLogout:   (*App).handleLogout,
	CmdWhoami:   (*App).handleWhoami,
	CmdStats:    (*App).handleStats,
	CmdProfile:  (*App).handleProfile,
	CmdRatings:  (*App).handleRatings,
	CmdRate:     (*App).handleRate,
	CmdAdmin:    (*App).handleAdmin,
}

type versionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
}

// Run executes argv (without the program name) and returns the process
// exit code.
func Run(ctx context.Context, argv []string, stdio IO) int {
	cmd, args := Parse(argv)

	data, err := run(ctx, cmd, args, stdio)
	if args.JSON {
		if err != nil {
			DisplayErrorJSON(stdio.Out, cmd.String(), err)
		} else {
			NewJSONResponse(cmd.String(), data).Print(stdio.Out)
		}
		return GetExitCode(err)
	}
	if err != nil {
		DisplayError(stdio.Err, cmd.String(), err, false)
		if cmd == CmdUnknown {
			fmt.Fprintln(stdio.Err, "Run 'botline help' for usage.")
		}
	}
	return GetExitCode(err)
}

func run(ctx context.Context, cmd Command, args Args, stdio IO) (any, error) {
	switch cmd {
	case CmdHelp:
		if !args.JSON {
			PrintUsage(stdio.Out)
		}
		return nil, nil
	case CmdVersion:
		if !args.JSON {
			PrintVersion(stdio.Out)
		}
		return versionInfo{Version, GitCommit, BuildDate}, nil
	case CmdUnknown:
		name := ""
		if len(args.Raw) > 0 {
			name = args.Raw[0]
		}
		return nil, NewValidationError("command", name, "unknown command")
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}
	if cmd == CmdConfig {
		return handleConfig(cfg, args, stdio)
	}

	app, err := NewApp(cfg, args, stdio)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.Logger.WithError(err).Warn("failed to close local state")
		}
	}()

	if route, ok := cmd.Route(args.Subcommand); ok {
		d := app.Guard.Decide(ctx, route)
		app.Logger.WithFields(logrus.Fields{
			"command":  cmd.String(),
			"route":    route.Name,
			"decision": d.Kind.String(),
		}).Debug("navigation")

		switch d.Kind {
		case router.RedirectAuth:
			return nil, &AuthRequiredError{Command: args.Name}
		case router.RedirectChat:
			return nil, &PermissionError{Action: args.Name, Permission: "admin"}
		case router.RedirectLanding:
			u := app.Stores.Auth.User()
			app.Notef("Already signed in as %s. Run `botline logout` first to switch accounts.", app.identityName())
			return map[string]any{"already_signed_in": true, "landing": d.Target, "user": u}, nil
		}
	}

	return handlers[cmd](app, ctx, args)
}
