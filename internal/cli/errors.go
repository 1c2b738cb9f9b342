// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jeranaias/botline/internal/api"
	"github.com/jeranaias/botline/internal/config"
	"github.com/jeranaias/botline/internal/store"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates authentication or authorization failure
	ExitAuthError = 4
	// ExitNetworkError indicates the backend could not be reached
	ExitNetworkError = 5
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrLoginFailed is returned when the backend rejects credentials. The
// server's reason is logged, not shown.
var ErrLoginFailed = errors.New("login failed: check your email and password")

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // e.g. "profile"
	Action  string // e.g. "update"
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents invalid user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// FormError carries the messages of a rejected form.
type FormError struct {
	Form     string
	Messages []string
}

func (e *FormError) Error() string {
	if len(e.Messages) == 1 {
		return e.Messages[0]
	}
	msg := e.Form + " is invalid:"
	for _, m := range e.Messages {
		msg += "\n  - " + m
	}
	return msg
}

// AuthRequiredError is returned when a command needs a signed-in user.
type AuthRequiredError struct {
	Command string
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("%s requires you to be signed in (run: botline login)", e.Command)
}

// PermissionError is returned when the signed-in user lacks a role.
type PermissionError struct {
	Action     string
	Permission string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s requires the %s role", e.Action, e.Permission)
}

// ConfigError wraps a failure to load or save configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR CONSTRUCTION HELPERS
// =============================================================================

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// ErrMissingArgument creates an error for a missing required argument.
func ErrMissingArgument(argName, usage string) error {
	return NewValidationErrorWithExample(argName, "", "required argument missing", usage)
}

// newFormError returns nil for an empty message list.
func newFormError(form string, messages []string) error {
	if len(messages) == 0 {
		return nil
	}
	return &FormError{Form: form, Messages: messages}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		validationErr *ValidationError
		formErr       *FormError
		configErr     *ConfigError
		cfgValidation config.ValidateErrors
		authErr       *AuthRequiredError
		permErr       *PermissionError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &formErr):
		return ExitUsageError
	case errors.As(err, &configErr), errors.As(err, &cfgValidation):
		return ExitConfigError
	case errors.As(err, &authErr), errors.As(err, &permErr),
		errors.Is(err, ErrLoginFailed), errors.Is(err, api.ErrUnauthorized),
		api.StatusOf(err) == http.StatusForbidden:
		return ExitAuthError
	case errors.Is(err, api.ErrNetwork):
		return ExitNetworkError
	default:
		return ExitGeneralError
	}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err in human or JSON form.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		DisplayErrorJSON(w, command, err)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), userMessage(err))
}

// DisplayErrorJSON writes the JSON error envelope with structured details.
func DisplayErrorJSON(w io.Writer, command string, err error) {
	resp := NewJSONErrorResponse(command, err)
	details := map[string]any{"exit_code": GetExitCode(err)}

	var (
		validationErr *ValidationError
		formErr       *FormError
		limitErr      *store.LimitError
		apiErr        *api.APIError
	)
	switch {
	case errors.As(err, &validationErr):
		details["error_type"] = "validation_error"
		details["field"] = validationErr.Field
		if validationErr.Example != "" {
			details["example"] = validationErr.Example
		}
	case errors.As(err, &formErr):
		details["error_type"] = "validation_error"
		details["messages"] = formErr.Messages
	case errors.As(err, &limitErr):
		details["error_type"] = "guest_limit"
		details["max_prompts"] = limitErr.Max
	case errors.As(err, &apiErr):
		details["error_type"] = "api_error"
		details["status"] = apiErr.Status
	default:
		details["error_type"] = "generic_error"
	}
	resp.Data = details

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(resp)
}

// userMessage prefers the server's own message over the request line.
func userMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusUnauthorized {
			return "your session has expired, please sign in again"
		}
		return apiErr.Message
	}
	if errors.Is(err, api.ErrNetwork) {
		return fmt.Sprintf("cannot reach the server: %v", err)
	}
	return err.Error()
}
