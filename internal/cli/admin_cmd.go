// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jeranaias/botline/internal/model"
	"github.com/jeranaias/botline/internal/service"
)

// =============================================================================
// ADMIN
// =============================================================================

func (a *App) handleAdmin(ctx context.Context, args Args) (any, error) {
	p := args.Parser
	switch args.Subcommand {
	case "", "stats":
		return a.adminDashboard(ctx)
	case "users":
		return a.adminUsers(ctx, p)
	case "role":
		return a.adminRole(ctx, p)
	case "delete-user":
		return a.adminDeleteUser(ctx, p)
	case "system":
		return a.adminSystem(ctx)
	case "monthly":
		return a.adminMonthly(ctx)
	case "ratings":
		return a.adminRatings(ctx, p)
	case "rating-stats":
		return a.adminRatingStats(ctx, p)
	default:
		return nil, NewValidationErrorWithExample("subcommand", args.Subcommand, "unknown admin subcommand",
			"botline admin [users|role|delete-user|stats|system|monthly|ratings|rating-stats]")
	}
}

func (a *App) adminDashboard(ctx context.Context) (any, error) {
	if !a.Stores.Stats.FetchDashboard(ctx) {
		return nil, NewCommandError("admin", "stats", "could not load the dashboard", nil)
	}
	d := a.Stores.Stats.Dashboard()
	a.Println(TitleStyle.Render("Dashboard"))
	a.Println(RenderField("Users", service.FormatStatNumber(int64(d.TotalUsers))))
	a.Println(RenderField("Conversations", service.FormatStatNumber(int64(d.TotalConversations))))
	a.Println(RenderField("Messages", service.FormatStatNumber(int64(d.TotalMessages))))
	a.Println(RenderField("Ratings", service.FormatStatNumber(int64(d.TotalRatings))))
	return d, nil
}

func (a *App) adminSystem(ctx context.Context) (any, error) {
	s, err := a.Stats.SystemStats(ctx)
	if err != nil {
		return nil, err
	}
	a.Println(TitleStyle.Render("System"))
	a.Println(RenderField("Users", formatCount(s.TotalUsers)))
	a.Println(RenderField("Conversations", formatCount(s.TotalConversations)))
	a.Println(RenderField("Messages", formatCount(s.TotalMessages)))
	a.Println(RenderField("Average rating", formatRating(s.AverageRating)))
	return s, nil
}

func (a *App) adminMonthly(ctx context.Context) (any, error) {
	months, err := a.Stats.MonthlyStats(ctx)
	if err != nil {
		return nil, err
	}
	t := newTable("MONTH", "CONVERSATIONS", "MESSAGES", "NEW USERS", "TREND")
	for i, m := range months {
		trend := ""
		if i > 0 {
			trend = service.PercentageChange(float64(m.Messages), float64(months[i-1].Messages)).Formatted
		}
		t.Row(m.Month, formatCount(m.Conversations), formatCount(m.Messages), formatCount(m.NewUsers), trend)
	}
	if !a.JSON {
		t.Write(a.IO.Out)
	}
	return months, nil
}

// =============================================================================
// USERS
// =============================================================================

func (a *App) adminUsers(ctx context.Context, p *ArgParser) (any, error) {
	q := model.UserListQuery{Search: p.Flag("search")}
	var err error
	if q.Page, err = p.FlagInt("page", 1); err != nil {
		return nil, err
	}
	if q.PerPage, err = p.FlagInt("per-page", 10); err != nil {
		return nil, err
	}

	page, err := a.Users.AdminUsers(ctx, q)
	if err != nil {
		return nil, err
	}
	t := newTable("ID", "NAME", "EMAIL", "ROLE", "JOINED")
	for _, u := range page.Items {
		t.Row(u.ID, service.DisplayName(u), u.Email, roleName(u), u.CreatedAt)
	}
	if !a.JSON {
		t.Write(a.IO.Out)
		a.printPagination(page.Pagination)
	}
	return page, nil
}

func (a *App) adminRole(ctx context.Context, p *ArgParser) (any, error) {
	id, err := parseUserID(p.Positional(1))
	if err != nil {
		return nil, err
	}
	var isAdmin bool
	switch role := p.Positional(2); role {
	case "admin":
		isAdmin = true
	case "user":
	default:
		return nil, NewValidationErrorWithExample("role", role, "must be admin or user", "botline admin role 12 admin")
	}
	if me := a.Stores.Auth.User(); me != nil && me.ID == id && !isAdmin {
		return nil, NewValidationError("user", p.Positional(1), "you cannot remove your own admin role")
	}

	user, err := a.Users.UpdateUserRole(ctx, id, isAdmin)
	if err != nil {
		return nil, err
	}
	a.Notef("%s %s is now %s.", SuccessStyle.Render("[OK]"), service.DisplayName(*user), roleName(*user))
	return user, nil
}

func (a *App) adminDeleteUser(ctx context.Context, p *ArgParser) (any, error) {
	id, err := parseUserID(p.Positional(1))
	if err != nil {
		return nil, err
	}
	if me := a.Stores.Auth.User(); me != nil && me.ID == id {
		return nil, NewValidationError("user", p.Positional(1), "use `botline profile delete` for your own account")
	}
	confirmed, err := a.RequireConfirmation(p.BoolFlag("confirm") || p.BoolFlag("y"), fmt.Sprintf("delete user %d", id))
	if err != nil {
		return nil, err
	}
	if !confirmed {
		a.Notef("Cancelled.")
		return map[string]any{"deleted": false, "id": id}, nil
	}
	if err := a.Users.DeleteUser(ctx, id); err != nil {
		return nil, err
	}
	a.Notef("%s User %d deleted.", SuccessStyle.Render("[OK]"), id)
	return map[string]any{"deleted": true, "id": id}, nil
}

func parseUserID(s string) (int64, error) {
	if s == "" {
		return 0, ErrMissingArgument("user id", "botline admin role 12 admin")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewValidationError("user id", s, "must be a positive number")
	}
	return id, nil
}

// =============================================================================
// RATINGS
// =============================================================================

// adminRatings lists every rating. Without filters the full list is
// fetched in one call.
func (a *App) adminRatings(ctx context.Context, p *ArgParser) (any, error) {
	filtered := p.HasFlag("rating") || p.HasFlag("type") || p.HasFlag("with-feedback") ||
		p.HasFlag("page") || p.HasFlag("per-page")
	if !filtered {
		ratings, err := a.Stats.UserRatings(ctx)
		if err != nil {
			return nil, err
		}
		a.printUserRatings(ratings)
		return ratings, nil
	}

	f := model.RatingFilters{Type: p.Flag("type"), WithFeedback: p.BoolFlag("with-feedback")}
	var err error
	if f.Rating, err = p.FlagInt("rating", 0); err != nil {
		return nil, err
	}
	if f.Rating != 0 && (f.Rating < service.MinRating || f.Rating > service.MaxRating) {
		return nil, NewValidationError("rating", strconv.Itoa(f.Rating), "must be between 1 and 5")
	}
	if f.Page, err = p.FlagInt("page", 1); err != nil {
		return nil, err
	}
	if f.PerPage, err = p.FlagInt("per-page", 20); err != nil {
		return nil, err
	}

	page, err := a.Ratings.AdminRatings(ctx, f)
	if err != nil {
		return nil, err
	}
	a.printUserRatings(page.Items)
	if !a.JSON {
		a.printPagination(page.Pagination)
	}
	return page, nil
}

func (a *App) printUserRatings(ratings []model.UserRating) {
	if a.JSON {
		return
	}
	if len(ratings) == 0 {
		a.Println("No ratings.")
		return
	}
	t := newTable("ID", "RATING", "USER", "DATE", "FEEDBACK")
	for _, r := range ratings {
		t.Row(r.ID, starText(r.Rating), service.DisplayName(r.User), r.CreatedAt, r.Feedback)
	}
	t.Write(a.IO.Out)
}

func (a *App) adminRatingStats(ctx context.Context, p *ArgParser) (any, error) {
	var (
		stats *model.RatingStats
		err   error
	)
	if p.HasFlag("days") {
		days, ferr := p.FlagInt("days", 30)
		if ferr != nil {
			return nil, ferr
		}
		stats, err = a.Ratings.AdminStats(ctx, days)
	} else {
		stats, err = a.Stats.AdminRatingStats(ctx)
	}
	if err != nil {
		return nil, err
	}
	a.printRatingStats("Rating statistics", stats)
	return stats, nil
}
