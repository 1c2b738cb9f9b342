// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	"github.com/jeranaias/botline/internal/model"
	"github.com/jeranaias/botline/internal/service"
)

type statsReport struct {
	Stats    *model.UserStats  `json:"stats"`
	Activity service.Activity  `json:"activity"`
	ThisWeek int               `json:"this_week"`
	LastWeek int               `json:"last_week"`
	Trend    service.TrendInfo `json:"trend"`
	Periods  service.Periods   `json:"periods"`
}

func (a *App) handleStats(ctx context.Context, args Args) (any, error) {
	if !a.Stores.Stats.Fetch(ctx) {
		return nil, NewCommandError("stats", "fetch", "could not load your statistics", nil)
	}
	s := a.Stores.Stats.Stats()

	periods := service.TimePeriods(a.now())
	rep := statsReport{
		Stats:    s,
		Activity: service.ActivityLevel(s.TotalMessages),
		ThisWeek: usageIn(s.UsageByDate, periods.ThisWeek),
		LastWeek: usageIn(s.UsageByDate, periods.LastWeek),
		Periods:  periods,
	}
	rep.Trend = service.Trend(float64(rep.ThisWeek), float64(rep.LastWeek))

	a.Println(TitleStyle.Render("Your statistics"))
	a.Println(RenderField("Activity", rep.Activity.Label))
	a.Println(RenderField("Conversations", service.FormatStatNumber(int64(s.TotalConversations))))
	a.Println(RenderField("Messages", service.FormatStatNumber(int64(s.TotalMessages))))
	if s.MessagesToday > 0 {
		a.Println(RenderField("Today", formatCount(s.MessagesToday)))
	}
	if s.AverageRating > 0 {
		a.Println(RenderField("Average rating", formatRating(s.AverageRating)))
	}
	if len(s.UsageByDate) > 0 {
		a.Println(RenderField("This week", formatCount(rep.ThisWeek)+"  "+rep.Trend.Icon+" "+rep.Trend.Message))
	}
	if s.JoinedDate != "" {
		a.Println(RenderField("Joined", s.JoinedDate))
	}
	return rep, nil
}

// usageIn sums the daily counts that fall inside r.
func usageIn(usage []model.DailyUsage, r service.DateRange) int {
	n := 0
	for _, u := range usage {
		day := u.Date
		if len(day) > len("2006-01-02") {
			day = day[:len("2006-01-02")]
		}
		if day >= r.Start && day <= r.End {
			n += u.Count
		}
	}
	return n
}
