// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jeranaias/botline/internal/model"
)

// =============================================================================
// NUMBERS
// =============================================================================

// FormatStatNumber abbreviates large counts: 1500 -> "1.5K", 2300000 -> "2.3M".
func FormatStatNumber(v int64) string {
	switch {
	case v >= 1_000_000:
		return strconv.FormatFloat(float64(v)/1_000_000, 'f', 1, 64) + "M"
	case v >= 1_000:
		return strconv.FormatFloat(float64(v)/1_000, 'f', 1, 64) + "K"
	default:
		return strconv.FormatInt(v, 10)
	}
}

// Direction of a change between two values.
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// Change describes the relative difference between two values.
type Change struct {
	// Percentage is the absolute size of the change.
	Percentage float64   `json:"percentage"`
	Direction  Direction `json:"direction"`
	// Formatted is signed, e.g. "+12.5%" or "-3.0%".
	Formatted string `json:"formatted"`
}

// PercentageChange compares current against previous. From a previous
// value of 0 any growth counts as +100%.
func PercentageChange(current, previous float64) Change {
	if previous == 0 {
		if current > 0 {
			return Change{Percentage: 100, Direction: DirectionUp, Formatted: "+100%"}
		}
		return Change{Percentage: 0, Direction: DirectionNeutral, Formatted: "0%"}
	}

	pct := (current - previous) / previous * 100
	c := Change{Percentage: math.Abs(pct), Direction: DirectionNeutral}
	formatted := strconv.FormatFloat(pct, 'f', 1, 64) + "%"
	switch {
	case pct > 0:
		c.Direction = DirectionUp
		formatted = "+" + formatted
	case pct < 0:
		c.Direction = DirectionDown
	}
	c.Formatted = formatted
	return c
}

// TrendInfo is a presentable summary of a Change.
type TrendInfo struct {
	Trend   string `json:"trend"`
	Message string `json:"message"`
	Color   string `json:"color"`
	Icon    string `json:"icon"`
}

// Trend classifies the change from previous to current.
func Trend(current, previous float64) TrendInfo {
	c := PercentageChange(current, previous)
	switch c.Direction {
	case DirectionUp:
		return TrendInfo{Trend: "positive", Message: c.Formatted + " increase", Color: "green", Icon: "📈"}
	case DirectionDown:
		return TrendInfo{Trend: "negative", Message: c.Formatted + " decrease", Color: "red", Icon: "📉"}
	default:
		return TrendInfo{Trend: "neutral", Message: "No change", Color: "gray", Icon: "➖"}
	}
}

// Activity labels how much a user chats.
type Activity struct {
	Level       string `json:"level"`
	Label       string `json:"label"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// ActivityLevel buckets a message count: <10 low, 10+ medium, 50+ high,
// 100+ very_high.
func ActivityLevel(messageCount int) Activity {
	switch {
	case messageCount >= 100:
		return Activity{"very_high", "Very Active", "purple", "Power user with extensive chatbot usage"}
	case messageCount >= 50:
		return Activity{"high", "Highly Active", "blue", "Regular user with frequent interactions"}
	case messageCount >= 10:
		return Activity{"medium", "Moderately Active", "green", "Occasional user with some interactions"}
	default:
		return Activity{"low", "New User", "gray", "Getting started with the chatbot"}
	}
}

// =============================================================================
// TIME PERIODS
// =============================================================================

// DateRange is an inclusive range of YYYY-MM-DD dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Periods holds the standard reporting windows.
type Periods struct {
	Today     DateRange `json:"today"`
	Yesterday DateRange `json:"yesterday"`
	ThisWeek  DateRange `json:"this_week"`
	LastWeek  DateRange `json:"last_week"`
	ThisMonth DateRange `json:"this_month"`
	LastMonth DateRange `json:"last_month"`
}

const dateLayout = "2006-01-02"

// TimePeriods computes the reporting windows around now, in now's
// location. Weeks start on Monday. Current windows end today.
func TimePeriods(now time.Time) Periods {
	y, m, d := now.Date()
	loc := now.Location()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	yesterday := today.AddDate(0, 0, -1)

	daysFromMonday := (int(today.Weekday()) + 6) % 7
	thisWeekStart := today.AddDate(0, 0, -daysFromMonday)
	lastWeekStart := thisWeekStart.AddDate(0, 0, -7)
	lastWeekEnd := thisWeekStart.AddDate(0, 0, -1)

	thisMonthStart := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	lastMonthStart := thisMonthStart.AddDate(0, -1, 0)
	lastMonthEnd := thisMonthStart.AddDate(0, 0, -1)

	f := func(t time.Time) string { return t.Format(dateLayout) }
	return Periods{
		Today:     DateRange{f(today), f(today)},
		Yesterday: DateRange{f(yesterday), f(yesterday)},
		ThisWeek:  DateRange{f(thisWeekStart), f(today)},
		LastWeek:  DateRange{f(lastWeekStart), f(lastWeekEnd)},
		ThisMonth: DateRange{f(thisMonthStart), f(today)},
		LastMonth: DateRange{f(lastMonthStart), f(lastMonthEnd)},
	}
}

// =============================================================================
// USERS
// =============================================================================

// DisplayName returns the user's name, falling back to the local part of
// the email address.
func DisplayName(u model.User) string {
	if u.Name != "" {
		return u.Name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// Initials returns the uppercased initials of the first and last names,
// or the first letter of the email address when there is no name.
func Initials(u model.User) string {
	names := strings.Fields(u.Name)
	switch len(names) {
	case 0:
		return firstUpper(u.Email)
	case 1:
		return firstUpper(names[0])
	default:
		return firstUpper(names[0]) + firstUpper(names[len(names)-1])
	}
}

func firstUpper(s string) string {
	for _, r := range s {
		return string(unicode.ToUpper(r))
	}
	return ""
}
