// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jeranaias/botline/internal/api"
	"github.com/jeranaias/botline/internal/model"
)

// MinRating and MaxRating bound a submitted rating.
const (
	MinRating = 1
	MaxRating = 5
)

// RatingService submits and lists ratings.
type RatingService struct {
	client *api.Client
}

// NewRatingService creates a RatingService.
func NewRatingService(client *api.Client) *RatingService {
	return &RatingService{client: client}
}

// Submit posts a rating. The returned rating is nil when the backend only
// acknowledges the submission.
func (s *RatingService) Submit(ctx context.Context, in model.RatingInput) (*model.Rating, error) {
	if in.Rating < MinRating || in.Rating > MaxRating {
		return nil, fmt.Errorf("rating must be between %d and %d, got %d", MinRating, MaxRating, in.Rating)
	}
	resp, err := s.client.Post(ctx, "/ratings", in)
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope("/ratings", resp); err != nil {
		return nil, err
	}

	var r model.Rating
	ok, err := decodeFirst(resp, &r, "rating", "data")
	if err != nil || !ok || r.ID == 0 {
		return nil, err
	}
	return &r, nil
}

// Stats fetches the public rating summary.
func (s *RatingService) Stats(ctx context.Context) (*model.RatingStats, error) {
	resp, err := s.client.Get(ctx, "/ratings/stats", nil)
	if err != nil {
		return nil, err
	}
	return decodeRatingStats(resp)
}

// Mine lists the caller's ratings.
func (s *RatingService) Mine(ctx context.Context, page int) (*model.Page[model.Rating], error) {
	if page <= 0 {
		page = 1
	}
	resp, err := s.client.Get(ctx, "/my-ratings", url.Values{"page": {strconv.Itoa(page)}})
	if err != nil {
		return nil, err
	}
	return decodePage[model.Rating](resp, "ratings", 0)
}

// AdminStats fetches the rating summary for the last days days (default 30).
func (s *RatingService) AdminStats(ctx context.Context, days int) (*model.RatingStats, error) {
	if days <= 0 {
		days = 30
	}
	resp, err := s.client.Get(ctx, "/admin/ratings/stats", url.Values{"days": {strconv.Itoa(days)}})
	if err != nil {
		return nil, err
	}
	return decodeRatingStats(resp)
}

// AdminRatings lists all ratings matching filters.
func (s *RatingService) AdminRatings(ctx context.Context, f model.RatingFilters) (*model.Page[model.UserRating], error) {
	resp, err := s.client.Get(ctx, "/admin/ratings", ratingParams(f))
	if err != nil {
		return nil, err
	}
	return decodePage[model.UserRating](resp, "ratings", f.PerPage)
}

func ratingParams(f model.RatingFilters) url.Values {
	params := url.Values{}
	if f.Type != "" {
		params.Set("type", f.Type)
	}
	if f.Rating > 0 {
		params.Set("rating", strconv.Itoa(f.Rating))
	}
	if f.WithFeedback {
		params.Set("with_feedback", "1")
	}
	if f.Page > 0 {
		params.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(f.PerPage))
	}
	return params
}

// decodeRatingStats accepts the summary nested under "stats", "data.stats"
// or "data", or bare. The distribution may be named either
// "distribution" or "rating_distribution".
func decodeRatingStats(resp *api.Response) (*model.RatingStats, error) {
	var st model.RatingStats
	ok, err := decodeFirst(resp, &st, "stats", "data.stats", "data", "")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEmptyResponse
	}
	if len(st.Distribution) == 0 {
		for _, p := range []string{"stats.rating_distribution", "data.rating_distribution", "rating_distribution"} {
			if resp.Get(p).IsObject() {
				if _, err := decodeFirst(resp, &st.Distribution, p); err != nil {
					return nil, err
				}
				break
			}
		}
	}
	return &st, nil
}
