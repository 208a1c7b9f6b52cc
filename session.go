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
	"fmt"
	"time"
)

// sessionEnvelope is the minimal shape peeked from a session payload: the
// cookie's expiry policy. The payload itself is never reshaped; it is stored
// and returned verbatim, so fields the store does not know about survive a
// store/retrieve round trip untouched.
type sessionEnvelope struct {
	Cookie struct {
		// Expires is the cookie's absolute expiry instant, if it carries one.
		Expires *time.Time `json:"expires"`
		// MaxAge is the cookie's relative lifetime in milliseconds.
		MaxAge *int64 `json:"maxAge"`
	} `json:"cookie"`
}

// SetSession stores payload under id with an expiry derived from the payload's
// cookie: the cookie's absolute expiry when present, now plus its max-age
// otherwise, and the store's default TTL when the payload carries neither.
func (s *Store) SetSession(ctx context.Context, id string, payload json.RawMessage) error {
	expiresAt, err := s.expiryOf(payload)
	if err != nil {
		return err
	}
	return s.Set(ctx, id, payload, expiresAt)
}

// TouchSession refreshes the expiry of the session for id using the same
// cookie policy as SetSession, without rewriting the payload.
func (s *Store) TouchSession(ctx context.Context, id string, payload json.RawMessage) error {
	expiresAt, err := s.expiryOf(payload)
	if err != nil {
		return err
	}
	return s.Touch(ctx, id, expiresAt)
}

func (s *Store) expiryOf(payload json.RawMessage) (time.Time, error) {
	var envelope sessionEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse session payload: %w", err)
	}
	switch {
	case envelope.Cookie.Expires != nil:
		return *envelope.Cookie.Expires, nil
	case envelope.Cookie.MaxAge != nil:
		return nowFunc().Add(time.Duration(*envelope.Cookie.MaxAge) * time.Millisecond), nil
	default:
		return nowFunc().Add(s.config.DefaultTTL), nil
	}
}
