// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"context"

	"github.com/jeranaias/botline/internal/api"
	"github.com/jeranaias/botline/internal/model"
)

// StatService fetches usage statistics.
type StatService struct {
	client *api.Client
}

// NewStatService creates a StatService.
func NewStatService(client *api.Client) *StatService {
	return &StatService{client: client}
}

// UserStats fetches the caller's statistics.
func (s *StatService) UserStats(ctx context.Context) (*model.UserStats, error) {
	var st model.UserStats
	if err := s.getData(ctx, "/user/stats", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SystemStats fetches system-wide totals.
func (s *StatService) SystemStats(ctx context.Context) (*model.SystemStats, error) {
	var st model.SystemStats
	if err := s.getData(ctx, "/admin/stats/system", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// DashboardStats fetches the admin dashboard totals.
func (s *StatService) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	var st model.DashboardStats
	if err := s.getData(ctx, "/admin/stats", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// UserRatings fetches the ratings listed on the admin dashboard.
func (s *StatService) UserRatings(ctx context.Context) ([]model.UserRating, error) {
	resp, err := s.client.Get(ctx, "/admin/ratings", nil)
	if err != nil {
		return nil, err
	}
	page, err := decodePage[model.UserRating](resp, "ratings", 0)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// MonthlyStats fetches per-month activity.
func (s *StatService) MonthlyStats(ctx context.Context) ([]model.MonthlyStats, error) {
	var months []model.MonthlyStats
	if err := s.getData(ctx, "/admin/stats/monthly", &months); err != nil {
		return nil, err
	}
	return months, nil
}

// AdminRatingStats fetches the rating summary for the dashboard.
func (s *StatService) AdminRatingStats(ctx context.Context) (*model.RatingStats, error) {
	resp, err := s.client.Get(ctx, "/admin/ratings/stats", nil)
	if err != nil {
		return nil, err
	}
	return decodeRatingStats(resp)
}

func (s *StatService) getData(ctx context.Context, path string, v any) error {
	resp, err := s.client.Get(ctx, path, nil)
	if err != nil {
		return err
	}
	if err := checkEnvelope(path, resp); err != nil {
		return err
	}
	return decodeData(resp, v)
}

