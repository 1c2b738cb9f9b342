// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/jeranaias/botline/internal/api"
	"github.com/jeranaias/botline/internal/model"
)

var (
	// ErrInvalidAuthResponse is returned when login or registration
	// succeeds at the HTTP level without yielding a token and a user.
	ErrInvalidAuthResponse = errors.New("invalid response from server")

	// ErrEmptyResponse is returned when an expected record is missing.
	ErrEmptyResponse = errors.New("empty response from server")
)

// ResponseError is a 2xx response whose envelope says success:false.
type ResponseError struct {
	Path    string
	Message string
}

func (e *ResponseError) Error() string {
	return e.Message
}

// checkEnvelope turns an explicit success:false into a ResponseError.
func checkEnvelope(path string, resp *api.Response) error {
	s := resp.Get("success")
	if !s.Exists() || s.Type != gjson.False {
		return nil
	}
	msg := resp.Get("message").String()
	if msg == "" {
		msg = "request failed"
	}
	return &ResponseError{Path: path, Message: msg}
}

// decodeFirst decodes the first existing, non-null path into v. An empty
// path means the whole body. It reports false if none matched.
func decodeFirst(resp *api.Response, v any, paths ...string) (bool, error) {
	for _, p := range paths {
		if p == "" {
			if !gjson.ValidBytes(resp.Body) {
				return false, fmt.Errorf("%w: body is not JSON", ErrEmptyResponse)
			}
			if err := json.Unmarshal(resp.Body, v); err != nil {
				return false, fmt.Errorf("failed to decode response: %w", err)
			}
			return true, nil
		}
		r := resp.Get(p)
		if !r.Exists() || r.Type == gjson.Null {
			continue
		}
		if err := json.Unmarshal([]byte(r.Raw), v); err != nil {
			return false, fmt.Errorf("failed to decode %s: %w", p, err)
		}
		return true, nil
	}
	return false, nil
}

// decodeData decodes "data" when it holds an object or array, otherwise the
// whole body.
func decodeData(resp *api.Response, v any) error {
	if d := resp.Get("data"); d.IsObject() || d.IsArray() {
		_, err := decodeFirst(resp, v, "data")
		return err
	}
	_, err := decodeFirst(resp, v, "")
	return err
}

// decodeUser finds a user record under the given paths.
func decodeUser(resp *api.Response, paths ...string) (*model.User, error) {
	var u model.User
	ok, err := decodeFirst(resp, &u, paths...)
	if err != nil {
		return nil, err
	}
	if !ok || (u.ID == 0 && u.Email == "") {
		return nil, ErrEmptyResponse
	}
	return &u, nil
}

// decodePage reads a listing in any of the shapes the backend uses:
// {key: {data: [...], meta: {...}}}, a Laravel paginator under "data",
// {data: [...], meta|pagination: {...}} or a bare array. Missing pagination
// is synthesized as a single page.
func decodePage[T any](resp *api.Response, key string, perPage int) (*model.Page[T], error) {
	page := &model.Page[T]{}

	type shape struct {
		items string
		metas []string
	}
	var shapes []shape
	if key != "" {
		shapes = append(shapes,
			shape{key + ".data", []string{key + ".meta", key}},
			shape{key, []string{"pagination", "meta"}},
		)
	}
	shapes = append(shapes,
		shape{"data.data", []string{"data"}},
		shape{"data", []string{"meta", "pagination"}},
	)

	found := false
	for _, sh := range shapes {
		if !resp.Get(sh.items).IsArray() {
			continue
		}
		if _, err := decodeFirst(resp, &page.Items, sh.items); err != nil {
			return nil, err
		}
		for _, mp := range sh.metas {
			m := resp.Get(mp)
			if !m.IsObject() || !m.Get("current_page").Exists() {
				continue
			}
			if err := json.Unmarshal([]byte(m.Raw), &page.Pagination); err != nil {
				return nil, fmt.Errorf("failed to decode pagination: %w", err)
			}
			break
		}
		found = true
		break
	}
	if !found && gjson.GetBytes(resp.Body, "@this").IsArray() {
		if _, err := decodeFirst(resp, &page.Items, ""); err != nil {
			return nil, err
		}
		found = true
	}
	if !found {
		return nil, ErrEmptyResponse
	}
	if page.Items == nil {
		page.Items = []T{}
	}

	if page.Pagination.CurrentPage == 0 {
		n := len(page.Items)
		if perPage <= 0 {
			perPage = n
		}
		page.Pagination = model.PaginationMeta{
			CurrentPage: 1,
			From:        min(1, n),
			LastPage:    1,
			PerPage:     perPage,
			To:          n,
			Total:       n,
		}
	}
	return page, nil
}
