// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/botline/internal/storage"
)

// GuestIDPrefix starts every generated guest session id.
const GuestIDPrefix = "guest_"

const (
	base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	randomIDLen    = 9
)

// =============================================================================
// GUEST
// =============================================================================

// Guest is the persisted quota and session id of an anonymous visitor.
type Guest struct {
	mu    sync.Mutex
	store storage.Store
	max   int
	now   func() time.Time
}

// NewGuest returns a Guest over store allowing max messages. A negative max
// is treated as 0.
func NewGuest(store storage.Store, max int) *Guest {
	if max < 0 {
		max = 0
	}
	return &Guest{store: store, max: max, now: time.Now}
}

// Max returns the configured quota.
func (g *Guest) Max() int {
	return g.max
}

// SessionID returns the persisted guest session id, generating and
// persisting one on first use.
func (g *Guest) SessionID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, ok, err := g.store.Get(storage.KeyGuestSessionID)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}

	id, err = newGuestID(g.now())
	if err != nil {
		return "", err
	}
	if err := g.store.Set(storage.KeyGuestSessionID, id); err != nil {
		return "", err
	}
	return id, nil
}

// SetSessionID persists an id handed out by the backend.
func (g *Guest) SetSessionID(id string) error {
	if id == "" {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.Set(storage.KeyGuestSessionID, id)
}

// Count returns the number of messages sent so far. Unreadable or malformed
// values count as 0.
func (g *Guest) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count()
}

func (g *Guest) count() int {
	n, err := storage.GetInt(g.store, storage.KeyGuestPromptCount)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Remaining returns how many messages are left, never negative.
func (g *Guest) Remaining() int {
	if r := g.max - g.Count(); r > 0 {
		return r
	}
	return 0
}

// Exhausted reports whether the quota is used up.
func (g *Guest) Exhausted() bool {
	return g.Count() >= g.max
}

// Increment adds one to the counter, persists it and returns the new value.
func (g *Guest) Increment() (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.count() + 1
	if err := storage.SetInt(g.store, storage.KeyGuestPromptCount, n); err != nil {
		return n - 1, err
	}
	return n, nil
}

// Reset zeroes the counter and forgets the session id.
func (g *Guest) Reset() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.Remove(storage.KeyGuestPromptCount, storage.KeyGuestSessionID)
}

// Reconcile clamps a persisted counter above the quota down to the quota
// and returns the resulting count.
func (g *Guest) Reconcile() (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.count()
	if n <= g.max {
		return n, nil
	}
	if err := storage.SetInt(g.store, storage.KeyGuestPromptCount, g.max); err != nil {
		return n, err
	}
	return g.max, nil
}

// =============================================================================
// ID GENERATION
// =============================================================================

// newGuestID returns guest_<unix millis>_<9 random base36 chars>.
func newGuestID(now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString(GuestIDPrefix)
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('_')

	limit := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < randomIDLen; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate guest id: %w", err)
		}
		b.WriteByte(base36Alphabet[n.Int64()])
	}
	return b.String(), nil
}
