/*
 * Copyright (C) 2025 Sessionry community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package mysqlstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_expiryOf(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	pinClock(t, base)
	store := NewTestStore(t)

	t.Run("absolute cookie expiry wins", func(t *testing.T) {
		payload := json.RawMessage(`{"cookie":{"expires":"2026-08-30T13:30:00Z","maxAge":1000}}`)
		expiresAt, err := store.expiryOf(payload)
		require.NoError(t, err)
		assert.Equal(t, base.Add(90*time.Minute), expiresAt.UTC())
	})
	t.Run("max-age is relative to now, in milliseconds", func(t *testing.T) {
		payload := json.RawMessage(`{"cookie":{"maxAge":60000}}`)
		expiresAt, err := store.expiryOf(payload)
		require.NoError(t, err)
		assert.Equal(t, base.Add(time.Minute), expiresAt)
	})
	t.Run("default TTL applies when the cookie carries neither", func(t *testing.T) {
		payload := json.RawMessage(`{"cookie":{},"user":"a"}`)
		expiresAt, err := store.expiryOf(payload)
		require.NoError(t, err)
		assert.Equal(t, base.Add(store.config.DefaultTTL), expiresAt)
	})
	t.Run("default TTL applies without a cookie at all", func(t *testing.T) {
		expiresAt, err := store.expiryOf(json.RawMessage(`{"user":"a"}`))
		require.NoError(t, err)
		assert.Equal(t, base.Add(store.config.DefaultTTL), expiresAt)
	})
	t.Run("unparseable payload is rejected", func(t *testing.T) {
		_, err := store.expiryOf(json.RawMessage(`{"cookie":`))
		assert.ErrorContains(t, err, "failed to parse session payload")
	})
}

func TestStore_SetSession(t *testing.T) {
	ctx := context.Background()
	t.Run("arbitrary fields survive a round trip untouched", func(t *testing.T) {
		store := NewTestStore(t)
		payload := json.RawMessage(`{"cookie":{"maxAge":60000,"path":"/","httpOnly":true},"user":"a","nested":{"roles":["admin",null,3.14]}}`)
		require.NoError(t, store.SetSession(ctx, "abc", payload))

		actual, err := store.Get(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, string(payload), string(actual))
	})
	t.Run("expired cookie makes the session invisible", func(t *testing.T) {
		store := NewTestStore(t)
		payload := json.RawMessage(`{"cookie":{"expires":"2001-01-01T00:00:00Z"},"user":"a"}`)
		require.NoError(t, store.SetSession(ctx, "abc", payload))

		actual, err := store.Get(ctx, "abc")
		require.NoError(t, err)
		assert.Nil(t, actual)
	})
}

func TestStore_TouchSession(t *testing.T) {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	pinClock(t, base)
	store := NewTestStore(t)

	payload := json.RawMessage(`{"cookie":{"maxAge":60000},"user":"a"}`)
	require.NoError(t, store.SetSession(ctx, "abc", payload))

	// Just before expiry the middleware touches the session, pushing the
	// expiry another max-age ahead.
	pinClock(t, base.Add(59*time.Second))
	require.NoError(t, store.TouchSession(ctx, "abc", payload))

	pinClock(t, base.Add(90*time.Second))
	actual, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, string(payload), string(actual))
}
