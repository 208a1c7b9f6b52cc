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
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"
)

func TestStore_connectionDiscipline(t *testing.T) {
	ctx := context.Background()
	t.Run("no connection outlives its operation", func(t *testing.T) {
		store := NewTestStore(t)
		require.NoError(t, store.Set(ctx, "abc", testPayload, time.Now().Add(time.Minute)))
		_, err := store.Get(ctx, "abc")
		require.NoError(t, err)

		underlying, err := store.db.DB()
		require.NoError(t, err)
		stats := underlying.Stats()
		assert.Equal(t, 0, stats.Idle)
		assert.Equal(t, 0, stats.InUse)
	})
	t.Run("connection is released when the operation fails", func(t *testing.T) {
		store := NewTestStore(t)
		failure := errors.New("operation failed")
		err := store.withConnection(ctx, func(tx *gorm.DB) error {
			return failure
		})
		assert.ErrorIs(t, err, failure)

		underlying, err := store.db.DB()
		require.NoError(t, err)
		assert.Equal(t, 0, underlying.Stats().Idle)
	})
}

func TestStore_Close(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	config := DefaultConfig()
	config.ReapInterval = 10 * time.Millisecond
	store := NewTestStoreWithConfig(t, config)
	require.NoError(t, store.Set(context.Background(), "abc", testPayload, time.Now().Add(time.Minute)))

	assert.NoError(t, store.Close())
}

func TestStore_reapFailuresAreLoggedNotReturned(t *testing.T) {
	ctx := context.Background()
	logger, hook := logrustest.NewNullLogger()
	store := NewTestStore(t, WithLogger(logger.WithField("module", "SessionStore")))
	require.NoError(t, store.gate.wait(ctx))

	// Drop the table under the store to force the sweep to fail.
	require.NoError(t, store.withConnection(ctx, func(tx *gorm.DB) error {
		return tx.Exec(`DROP TABLE "sessions"`).Error
	}))

	store.Reap(ctx)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "Failed to reap expired sessions", entry.Message)
}
