// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/botline/internal/model"
)

func TestRatingService_Submit(t *testing.T) {
	client, _ := fakeBackend(t, func(r chi.Router) {
		r.Post("/ratings", func(w http.ResponseWriter, r *http.Request) {
			body := readJSON(t, r)
			assert.Equal(t, float64(4), body["rating"])
			assert.Equal(t, "nice", body["feedback"])
			reply(w, 201, `{"success":true,"message":"Thanks!","data":{"id":9,"rating":4,"feedback":"nice"}}`)
		})
	})
	svc := NewRatingService(client)

	r, err := svc.Submit(context.Background(), model.RatingInput{Rating: 4, Feedback: "nice"})
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, int64(9), r.ID)

	_, err = svc.Submit(context.Background(), model.RatingInput{Rating: 6})
	assert.Error(t, err, "out of range ratings never reach the backend")
}

func TestRatingService_SubmitAcknowledgeOnly(t *testing.T) {
	client, _ := fakeBackend(t, func(r chi.Router) {
		r.Post("/ratings", func(w http.ResponseWriter, r *http.Request) {
			reply(w, 200, `{"success":true,"message":"Thanks!"}`)
		})
	})

	r, err := NewRatingService(client).Submit(context.Background(), model.RatingInput{Rating: 5})
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestRatingService_StatsShapes(t *testing.T) {
	bodies := map[string]string{
		"stats":  `{"success":true,"stats":{"average_rating":4.5,"total_ratings":2,"rating_distribution":{"4":1,"5":1}}}`,
		"data":   `{"success":true,"data":{"average_rating":4.5,"total_ratings":2,"distribution":{"4":1,"5":1}}}`,
		"nested": `{"success":true,"data":{"stats":{"average_rating":4.5,"total_ratings":2,"distribution":{"4":1,"5":1}}}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client, _ := fakeBackend(t, func(r chi.Router) {
				r.Get("/ratings/stats", func(w http.ResponseWriter, r *http.Request) {
					reply(w, 200, body)
				})
			})

			st, err := NewRatingService(client).Stats(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 4.5, st.AverageRating)
			assert.Equal(t, 2, st.TotalRatings)
			assert.Equal(t, map[string]int{"4": 1, "5": 1}, st.Distribution)
		})
	}
}

func TestRatingService_MineAndAdmin(t *testing.T) {
	var mineQuery, adminQuery, statsQuery string
	client, _ := fakeBackend(t, func(r chi.Router) {
		r.Get("/my-ratings", func(w http.ResponseWriter, r *http.Request) {
			mineQuery = r.URL.RawQuery
			reply(w, 200, `{"success":true,"ratings":{"data":[{"id":1,"rating":5}],"meta":{"current_page":2,"last_page":2,"per_page":1,"total":2,"from":2,"to":2}}}`)
		})
		r.Get("/admin/ratings", func(w http.ResponseWriter, r *http.Request) {
			adminQuery = r.URL.RawQuery
			reply(w, 200, `{"success":true,"data":[{"id":3,"rating":2,"user":{"id":1,"email":"a@b.com"}}]}`)
		})
		r.Get("/admin/ratings/stats", func(w http.ResponseWriter, r *http.Request) {
			statsQuery = r.URL.RawQuery
			reply(w, 200, `{"average_rating":3,"total_ratings":10}`)
		})
	})
	svc := NewRatingService(client)

	mine, err := svc.Mine(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "page=2", mineQuery)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, 2, mine.Pagination.CurrentPage)

	all, err := svc.AdminRatings(context.Background(), model.RatingFilters{Rating: 2, WithFeedback: true, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, "per_page=20&rating=2&with_feedback=1", adminQuery)
	require.Len(t, all.Items, 1)
	assert.Equal(t, "a@b.com", all.Items[0].User.Email)

	st, err := svc.AdminStats(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "days=30", statsQuery)
	assert.Equal(t, 10, st.TotalRatings)
}
