// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/botline/internal/model"
	"github.com/jeranaias/botline/internal/service"
)

// =============================================================================
// RATE
// =============================================================================

func (a *App) handleRate(ctx context.Context, args Args) (any, error) {
	rating, err := a.submitRating(ctx, args.Parser)
	if err != nil {
		return nil, err
	}
	a.Notef("%s Thanks for rating %s", SuccessStyle.Render("[OK]"), RenderStars(rating.Rating))
	return rating, nil
}

// submitRating reads "N [feedback...]" from p. Guests rate under their
// guest session id.
func (a *App) submitRating(ctx context.Context, p *ArgParser) (model.Rating, error) {
	n, err := ParseIntWithValidation(p.Positional(0), "rating")
	if err != nil {
		return model.Rating{}, err
	}
	if n < service.MinRating || n > service.MaxRating {
		return model.Rating{}, NewValidationErrorWithExample("rating", p.Positional(0),
			fmt.Sprintf("must be between %d and %d", service.MinRating, service.MaxRating), "botline rate 5 \"very helpful\"")
	}

	in := model.RatingInput{Rating: n, Feedback: strings.TrimSpace(JoinPositionalArgs(p, 1))}
	if !a.Stores.Auth.IsAuthenticated() {
		if in.SessionID, err = a.Stores.Chat.GuestSessionID(); err != nil {
			return model.Rating{}, fmt.Errorf("failed to read guest session: %w", err)
		}
	}

	r, err := a.Ratings.Submit(ctx, in)
	if err != nil {
		return model.Rating{}, err
	}
	if r == nil {
		return model.Rating{Rating: in.Rating, Feedback: in.Feedback}, nil
	}
	return *r, nil
}

// =============================================================================
// RATINGS
// =============================================================================

func (a *App) handleRatings(ctx context.Context, args Args) (any, error) {
	switch args.Subcommand {
	case "", "mine":
		return a.ratingsMine(ctx, args.Parser)
	case "stats":
		stats, err := a.Ratings.Stats(ctx)
		if err != nil {
			return nil, err
		}
		a.printRatingStats("Ratings", stats)
		return stats, nil
	default:
		return nil, NewValidationErrorWithExample("subcommand", args.Subcommand,
			"unknown ratings subcommand", "botline ratings [mine|stats]")
	}
}

func (a *App) ratingsMine(ctx context.Context, p *ArgParser) (any, error) {
	pageNo, err := p.FlagInt("page", 1)
	if err != nil {
		return nil, err
	}
	page, err := a.Ratings.Mine(ctx, pageNo)
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		a.Println("You have not rated anything yet.")
		return page, nil
	}

	t := newTable("RATING", "DATE", "FEEDBACK")
	for _, r := range page.Items {
		t.Row(starText(r.Rating), r.SubmittedAt, r.Feedback)
	}
	if !a.JSON {
		t.Write(a.IO.Out)
		a.printPagination(page.Pagination)
	}
	return page, nil
}

func (a *App) printRatingStats(title string, s *model.RatingStats) {
	a.Println(TitleStyle.Render(title))
	a.Println(RenderField("Average", formatRating(s.AverageRating)))
	a.Println(RenderField("Total", formatCount(s.TotalRatings)))
	a.Println(RenderField("With feedback", formatCount(s.RatingsWithFeedback)))
	if len(s.Distribution) == 0 {
		return
	}
	keys := make([]string, 0, len(s.Distribution))
	for k := range s.Distribution {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	for _, k := range keys {
		a.Println(RenderField(k+" stars", formatCount(s.Distribution[k])))
	}
}

func (a *App) printPagination(m model.PaginationMeta) {
	if m.LastPage <= 1 {
		return
	}
	a.Println(DimStyle.Render(fmt.Sprintf("page %d of %d (%s total)", m.CurrentPage, m.LastPage, formatCount(m.Total))))
}
