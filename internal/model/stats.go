// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// RATINGS
// =============================================================================

// RatingInput is the body of POST /ratings.
type RatingInput struct {
	Rating    int    `json:"rating"`
	Feedback  string `json:"feedback,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Rating is a submitted rating.
type Rating struct {
	ID          int64  `json:"id"`
	Rating      int    `json:"rating"`
	Feedback    string `json:"feedback,omitempty"`
	SubmittedAt string `json:"submitted_at,omitempty"`
	User        *User  `json:"user,omitempty"`
}

// UserRating is a rating as listed in the admin view.
type UserRating struct {
	ID        int64  `json:"id"`
	Rating    int    `json:"rating"`
	Feedback  string `json:"feedback,omitempty"`
	User      User   `json:"user"`
	CreatedAt string `json:"created_at,omitempty"`
}

// RatingStats summarizes ratings. Distribution maps a star value to its count.
type RatingStats struct {
	AverageRating       float64        `json:"average_rating"`
	TotalRatings        int            `json:"total_ratings"`
	RatingsWithFeedback int            `json:"ratings_with_feedback"`
	Distribution        map[string]int `json:"distribution,omitempty"`
}

// RatingFilters narrows the admin rating listing.
type RatingFilters struct {
	Type         string
	Rating       int
	WithFeedback bool
	Page         int
	PerPage      int
}

// =============================================================================
// USAGE STATISTICS
// =============================================================================

// DailyUsage is one point of a usage series.
type DailyUsage struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// UserStats is the per-user statistics snapshot.
type UserStats struct {
	TotalConversations int          `json:"total_conversations"`
	TotalMessages      int          `json:"total_messages"`
	TotalSessions      int          `json:"total_sessions,omitempty"`
	MessagesToday      int          `json:"messages_today,omitempty"`
	AverageRating      float64      `json:"average_rating,omitempty"`
	JoinedDate         string       `json:"joined_date"`
	UsageByDate        []DailyUsage `json:"usage_by_date,omitempty"`
}

// DashboardStats is the admin dashboard snapshot.
type DashboardStats struct {
	TotalConversations int `json:"total_conversations"`
	TotalMessages      int `json:"total_messages"`
	TotalUsers         int `json:"total_users"`
	TotalRatings       int `json:"total_ratings"`
}

// SystemStats is the system-wide snapshot.
type SystemStats struct {
	TotalUsers         int     `json:"total_users"`
	TotalConversations int     `json:"total_conversations"`
	TotalMessages      int     `json:"total_messages"`
	AverageRating      float64 `json:"average_rating"`
}

// MonthlyStats is one month of activity.
type MonthlyStats struct {
	Month         string `json:"month"`
	Conversations int    `json:"conversations"`
	Messages      int    `json:"messages"`
	NewUsers      int    `json:"new_users"`
}
