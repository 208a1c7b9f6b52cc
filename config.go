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
	"errors"
	"fmt"
	"time"
)

const defaultTableName = "sessions"

// DefaultConfig returns the default configuration for the session store.
func DefaultConfig() Config {
	return Config{
		Table:              defaultTableName,
		DefaultTTL:         24 * time.Hour,
		SchemaPollInterval: time.Second,
		SchemaPollTimeout:  6 * time.Second,
	}
}

// Config specifies config for the session store. It is read once at
// construction and never mutated afterwards.
type Config struct {
	// Address holds the host:port of the MySQL server.
	Address string `koanf:"address"`
	// User holds the username used to authenticate.
	User string `koanf:"user"`
	// Password holds the password used to authenticate.
	Password string `koanf:"password"`
	// Database holds the name of the database holding the session table.
	Database string `koanf:"database"`
	// Table holds the name of the session table. Defaults to "sessions".
	Table string `koanf:"table"`
	// DefaultTTL is the session lifetime applied when a stored session carries
	// no cookie expiry of its own.
	DefaultTTL time.Duration `koanf:"defaultttl"`
	// ReapInterval specifies the time between background sweeps that delete
	// expired sessions. Zero disables the background reaper.
	ReapInterval time.Duration `koanf:"reapinterval"`
	// SchemaPollInterval specifies the time between catalog visibility checks
	// after the session table has been created.
	SchemaPollInterval time.Duration `koanf:"schemapollinterval"`
	// SchemaPollTimeout bounds the total time spent waiting for the created
	// session table to become visible in the catalog.
	SchemaPollTimeout time.Duration `koanf:"schemapolltimeout"`
}

// withDefaults fills in defaults for fields that were left at their zero value.
func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Table == "" {
		c.Table = defaults.Table
	}
	if c.DefaultTTL == 0 {
		c.DefaultTTL = defaults.DefaultTTL
	}
	if c.SchemaPollInterval == 0 {
		c.SchemaPollInterval = defaults.SchemaPollInterval
	}
	if c.SchemaPollTimeout == 0 {
		c.SchemaPollTimeout = defaults.SchemaPollTimeout
	}
	return c
}

func (c Config) validate() error {
	if c.Table == "" {
		return errors.New("table name is not configured")
	}
	if c.DefaultTTL <= 0 {
		return errors.New("default TTL must be positive")
	}
	if c.ReapInterval < 0 {
		return errors.New("reap interval must not be negative")
	}
	if c.SchemaPollInterval <= 0 {
		return errors.New("schema poll interval must be positive")
	}
	if c.SchemaPollTimeout < c.SchemaPollInterval {
		return fmt.Errorf("schema poll timeout (%s) is shorter than the poll interval (%s)", c.SchemaPollTimeout, c.SchemaPollInterval)
	}
	return nil
}
