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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, "sessions", config.Table)
	assert.Equal(t, 24*time.Hour, config.DefaultTTL)
	assert.Equal(t, time.Second, config.SchemaPollInterval)
	assert.Equal(t, 6*time.Second, config.SchemaPollTimeout)
	assert.Zero(t, config.ReapInterval)
}

func TestConfig_withDefaults(t *testing.T) {
	config := Config{Address: "db:3306", Database: "app"}.withDefaults()
	assert.Equal(t, "sessions", config.Table)
	assert.Equal(t, 24*time.Hour, config.DefaultTTL)
	assert.Equal(t, "db:3306", config.Address)
}

func TestConfig_validate(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().validate())
	})
	t.Run("empty table name", func(t *testing.T) {
		config := DefaultConfig()
		config.Table = ""
		assert.EqualError(t, config.validate(), "table name is not configured")
	})
	t.Run("non-positive default TTL", func(t *testing.T) {
		config := DefaultConfig()
		config.DefaultTTL = -time.Second
		assert.EqualError(t, config.validate(), "default TTL must be positive")
	})
	t.Run("negative reap interval", func(t *testing.T) {
		config := DefaultConfig()
		config.ReapInterval = -time.Second
		assert.EqualError(t, config.validate(), "reap interval must not be negative")
	})
	t.Run("poll timeout shorter than interval", func(t *testing.T) {
		config := DefaultConfig()
		config.SchemaPollTimeout = 500 * time.Millisecond
		assert.ErrorContains(t, config.validate(), "shorter than the poll interval")
	})
}

func TestNew_configErrors(t *testing.T) {
	t.Run("missing address", func(t *testing.T) {
		_, err := New(Config{Database: "app"})
		assert.EqualError(t, err, "address is not configured")
	})
	t.Run("missing database", func(t *testing.T) {
		_, err := New(Config{Address: "db:3306"})
		assert.EqualError(t, err, "database is not configured")
	})
}
