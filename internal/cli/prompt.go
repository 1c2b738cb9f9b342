// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// ErrNoInput is returned when input ends before a required answer.
var ErrNoInput = errors.New("no input")

// =============================================================================
// PROMPTS
// =============================================================================

// promptLine asks for one line. A non-empty flagValue is used as is.
func (a *App) promptLine(label, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprintf(a.promptWriter(), "%s: ", label)
	return a.readLine()
}

// promptPassword asks for a secret without echo when stdin is a terminal.
// Piped input is read line by line.
func (a *App) promptPassword(label string) (string, error) {
	fmt.Fprintf(a.promptWriter(), "%s: ", label)
	if f, ok := a.IO.In.(fileDescriptor); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.promptWriter())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	return a.readLine()
}

func (a *App) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptWriter keeps prompts off stdout in JSON mode.
func (a *App) promptWriter() io.Writer {
	if a.JSON {
		return a.IO.Err
	}
	return a.IO.Out
}

// =============================================================================
// CONFIRMATION
// =============================================================================

// RequireConfirmation checks that the user agreed to a destructive action.
//
//  1. --confirm proceeds without prompting
//  2. --json requires --confirm
//  3. piped stdin requires --confirm
//  4. otherwise the user is asked [y/N]
func (a *App) RequireConfirmation(confirmFlag bool, action string) (bool, error) {
	if confirmFlag {
		return true, nil
	}
	if a.JSON {
		return false, NewValidationErrorWithExample("confirm", "", "use --confirm for destructive actions in JSON mode", "--confirm")
	}
	if !isTerminal(a.IO.In) {
		return false, NewValidationErrorWithExample("confirm", "", "stdin is not a terminal", "--confirm")
	}

	fmt.Fprintf(a.IO.Out, "\nAre you sure you want to %s? [y/N]: ", action)
	input, err := a.readLine()
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}
