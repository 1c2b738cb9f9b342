// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/botline/internal/logging"
	"github.com/jeranaias/botline/internal/model"
	"github.com/jeranaias/botline/internal/service"
)

// StatsStore caches the last fetched statistics. A failed fetch is logged
// and keeps the previous snapshot.
type StatsStore struct {
	mu        sync.RWMutex
	stats     *service.StatService
	logger    logrus.FieldLogger
	user      *model.UserStats
	dashboard *model.DashboardStats
	loading   int
}

// NewStatsStore creates an empty StatsStore.
func NewStatsStore(stats *service.StatService, logger logrus.FieldLogger) *StatsStore {
	return &StatsStore{
		stats:  stats,
		logger: logging.OrDiscard(logger).WithField("component", "stats"),
	}
}

// Fetch refreshes the caller's statistics and reports whether it succeeded.
func (s *StatsStore) Fetch(ctx context.Context) bool {
	s.begin()
	defer s.end()

	st, err := s.stats.UserStats(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to fetch stats")
		return false
	}
	s.mu.Lock()
	s.user = st
	s.mu.Unlock()
	return true
}

// FetchDashboard refreshes the admin dashboard totals.
func (s *StatsStore) FetchDashboard(ctx context.Context) bool {
	s.begin()
	defer s.end()

	st, err := s.stats.DashboardStats(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to fetch dashboard stats")
		return false
	}
	s.mu.Lock()
	s.dashboard = st
	s.mu.Unlock()
	return true
}

func (s *StatsStore) begin() {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()
}

func (s *StatsStore) end() {
	s.mu.Lock()
	s.loading--
	s.mu.Unlock()
}

// Stats returns the last user statistics, or nil before the first
// successful fetch.
func (s *StatsStore) Stats() *model.UserStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Dashboard returns the last dashboard totals, or nil.
func (s *StatsStore) Dashboard() *model.DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dashboard
}

// Loading reports whether a fetch is in flight.
func (s *StatsStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}
