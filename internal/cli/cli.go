// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/botline/internal/router"
)

// Version information (overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdAsk
	CmdLogin
	CmdRegister
	CmdLogout
	CmdWhoami
	CmdStats
	CmdProfile
	CmdRatings
	CmdRate
	CmdAdmin
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandNames = map[Command]string{
	CmdChat:     "chat",
	CmdAsk:      "ask",
	CmdLogin:    "login",
	CmdRegister: "register",
	CmdLogout:   "logout",
	CmdWhoami:   "whoami",
	CmdStats:    "stats",
	CmdProfile:  "profile",
	CmdRatings:  "ratings",
	CmdRate:     "rate",
	CmdAdmin:    "admin",
	CmdConfig:   "config",
	CmdVersion:  "version",
	CmdHelp:     "help",
}

// String returns the command name.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Route returns the screen a command opens, which decides what the
// navigation guard requires. ok is false for commands that never reach
// the backend.
func (c Command) Route(sub string) (r router.Route, ok bool) {
	switch c {
	case CmdChat, CmdAsk, CmdRate, CmdWhoami:
		return router.Chat, true
	case CmdLogin, CmdRegister:
		return router.Auth, true
	case CmdStats:
		return router.Dashboard, true
	case CmdProfile:
		return router.Profile, true
	case CmdRatings:
		if sub == "stats" {
			return router.Chat, true
		}
		return router.Dashboard, true
	case CmdAdmin:
		return router.Admin, true
	default:
		return router.Route{}, false
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON      bool
	Verbose   bool
	Quiet     bool
	Ephemeral bool // keep local state in memory only
	APIURL    string
	Config    string // alternate config file

	// Command-specific
	Name       string // command as typed
	Subcommand string
	Raw        []string
	Parser     *ArgParser
}

const usageText = `botline - chat with the bot from your terminal

Usage:
  botline                          Start interactive chat (default)
  botline chat                     Interactive chat
  botline ask "message"            Send one message and print the reply

Account:
  botline login [--email E]        Sign in (password is prompted)
  botline register                 Create an account
  botline logout                   Sign out
  botline whoami                   Show the current identity and guest quota

Signed in:
  botline stats                    Your usage statistics
  botline profile [show]           Show your profile
  botline profile update --name N --email E
  botline profile password         Change your password
  botline profile avatar FILE      Upload a new avatar
  botline profile delete --confirm Delete your account
  botline ratings [mine|stats]     Your ratings, or the public summary
  botline rate N [feedback]        Rate the bot from 1 to 5

Administration:
  botline admin users [--page N] [--per-page N] [--search TEXT]
  botline admin role ID admin|user
  botline admin delete-user ID --confirm
  botline admin stats|system|monthly
  botline admin ratings [--rating N] [--type T] [--with-feedback]
  botline admin rating-stats [--days N]

Configuration:
  botline config [show]            Show configuration
  botline config get KEY           Show one key (e.g. api.base_url)
  botline config set KEY VALUE     Change one key
  botline config path              Print the config file path

Chat commands:
  /help  /clear  /quota  /rate N [feedback]  /save [FILE]  /quit

Global Flags:
  --json          Output a JSON envelope
  -v, --verbose   Debug logging
  -q, --quiet     Minimal output
  --api URL       Override api.base_url
  --config FILE   Use another config file
  --ephemeral     Keep token and guest quota in memory only

Environment:
  BOTLINE_API_URL, BOTLINE_TIMEOUT, BOTLINE_MAX_GUEST_PROMPTS,
  BOTLINE_STORAGE, BOTLINE_STORAGE_PATH, BOTLINE_STORAGE_KEY,
  BOTLINE_LOG_LEVEL, BOTLINE_LOG_FORMAT, BOTLINE_HOME, NO_COLOR

Version: %s
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "botline version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// Parse parses argv (without the program name).
func Parse(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		args.Name = "chat"
		args.Parser = NewArgParser(nil)
		return CmdChat, args
	}

	name := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Name = name
	args.Raw = remaining
	args.Parser = NewArgParser(remaining, boolFlags...)
	args.Subcommand = args.Parser.Subcommand()

	switch name {
	case "chat":
		return CmdChat, args
	case "ask", "a":
		return CmdAsk, args
	case "login", "signin":
		return CmdLogin, args
	case "register", "signup":
		return CmdRegister, args
	case "logout", "signout":
		return CmdLogout, args
	case "whoami", "me":
		return CmdWhoami, args
	case "stats", "dashboard":
		return CmdStats, args
	case "profile":
		return CmdProfile, args
	case "ratings":
		return CmdRatings, args
	case "rate":
		return CmdRate, args
	case "admin":
		return CmdAdmin, args
	case "config":
		return CmdConfig, args
	case "version", "--version":
		return CmdVersion, args
	case "help", "-h", "--help":
		return CmdHelp, args
	default:
		args.Raw = append([]string{name}, remaining...)
		return CmdUnknown, args
	}
}

// boolFlags never take a value, so "--confirm 12" leaves 12 positional.
var boolFlags = []string{"confirm", "with-feedback", "admin", "y"}

// parseGlobalFlags extracts global flags wherever they appear.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	var args Args

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--json":
			args.JSON = true
		case arg == "-v" || arg == "--verbose":
			args.Verbose = true
		case arg == "-q" || arg == "--quiet":
			args.Quiet = true
		case arg == "--ephemeral":
			args.Ephemeral = true
		case arg == "--api" || arg == "--config":
			if i+1 < len(argv) {
				i++
				if arg == "--api" {
					args.APIURL = argv[i]
				} else {
					args.Config = argv[i]
				}
			}
		case strings.HasPrefix(arg, "--api="):
			args.APIURL = strings.TrimPrefix(arg, "--api=")
		case strings.HasPrefix(arg, "--config="):
			args.Config = strings.TrimPrefix(arg, "--config=")
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args
}
