// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import "strings"

// Route is a screen and what it takes to enter it.
type Route struct {
	Name          string
	Path          string
	RequiresAuth  bool
	RequiresAdmin bool
}

// Built-in routes.
var (
	Chat      = Route{Name: "chat", Path: "/"}
	Auth      = Route{Name: "auth", Path: "/auth"}
	Dashboard = Route{Name: "dashboard", Path: "/dashboard", RequiresAuth: true}
	Profile   = Route{Name: "profile", Path: "/profile", RequiresAuth: true}
	Admin     = Route{Name: "admin", Path: "/admin", RequiresAuth: true, RequiresAdmin: true}
)

// Routes lists the built-in routes.
func Routes() []Route {
	return []Route{Chat, Auth, Dashboard, Profile, Admin}
}

// Lookup finds a built-in route by name or path.
func Lookup(nameOrPath string) (Route, bool) {
	key := strings.TrimSpace(nameOrPath)
	for _, r := range Routes() {
		if r.Name == key || r.Path == key {
			return r, true
		}
	}
	// "/chat" is where insufficient privilege lands.
	if key == "/chat" {
		return Chat, true
	}
	return Route{}, false
}
