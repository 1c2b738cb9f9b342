// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jeranaias/botline/internal/model"
)

const (
	minNameLength     = 2
	maxNameLength     = 255
	minPasswordLength = 8
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	digitPattern   = regexp.MustCompile(`\d`)
	specialPattern = regexp.MustCompile(`[^a-zA-Z\d]`)
)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateProfile checks a profile update. Only fields that are set are
// checked. It returns nil when the data is acceptable.
func ValidateProfile(data model.UpdateProfileData) []string {
	var errs []string

	if data.Name != "" {
		if utf8.RuneCountInString(strings.TrimSpace(data.Name)) < minNameLength {
			errs = append(errs, "Name must be at least 2 characters long")
		}
		if utf8.RuneCountInString(data.Name) > maxNameLength {
			errs = append(errs, "Name cannot exceed 255 characters")
		}
	}
	if data.Email != "" && !ValidEmail(data.Email) {
		errs = append(errs, "Please enter a valid email address")
	}
	return errs
}

// ValidatePassword checks a password change form.
func ValidatePassword(pc model.PasswordChange) []string {
	var errs []string

	if pc.CurrentPassword == "" {
		errs = append(errs, "Current password is required")
	}
	if pc.NewPassword == "" {
		errs = append(errs, "New password is required")
	} else if utf8.RuneCountInString(pc.NewPassword) < minPasswordLength {
		errs = append(errs, "New password must be at least 8 characters long")
	}
	if pc.NewPassword != pc.NewPasswordConfirmation {
		errs = append(errs, "Password confirmation does not match")
	}
	return errs
}

// ValidateRegistration checks the registration form before it is sent.
func ValidateRegistration(data model.RegisterData) []string {
	errs := ValidateProfile(model.UpdateProfileData{Name: data.Name, Email: data.Email})
	if data.Name == "" {
		errs = append(errs, "Name is required")
	}
	if data.Email == "" {
		errs = append(errs, "Email is required")
	}
	if utf8.RuneCountInString(data.Password) < minPasswordLength {
		errs = append(errs, "Password must be at least 8 characters long")
	}
	if data.Password != data.PasswordConfirmation {
		errs = append(errs, "Password confirmation does not match")
	}
	return errs
}

// =============================================================================
// PASSWORD STRENGTH
// =============================================================================

// Strength is the result of PasswordStrength.
type Strength struct {
	// Score counts the satisfied criteria, 0 to 5.
	Score int `json:"score"`
	// Feedback lists a hint for each unsatisfied criterion.
	Feedback []string `json:"feedback"`
	// IsStrong is true when Score is at least 4.
	IsStrong bool `json:"is_strong"`
}

// PasswordStrength scores a password on length, lowercase, uppercase,
// digits and special characters.
func PasswordStrength(password string) Strength {
	checks := []struct {
		ok   bool
		hint string
	}{
		{utf8.RuneCountInString(password) >= minPasswordLength, "Use at least 8 characters"},
		{lowerPattern.MatchString(password), "Add lowercase letters"},
		{upperPattern.MatchString(password), "Add uppercase letters"},
		{digitPattern.MatchString(password), "Add numbers"},
		{specialPattern.MatchString(password), "Add special characters"},
	}

	s := Strength{Feedback: []string{}}
	for _, c := range checks {
		if c.ok {
			s.Score++
		} else {
			s.Feedback = append(s.Feedback, c.hint)
		}
	}
	s.IsStrong = s.Score >= 4
	return s
}
