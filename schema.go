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
	"fmt"

	"github.com/avast/retry-go/v4"
	"gorm.io/gorm"
)

// initialize drives the readiness gate: it ensures the session table exists and
// signals the gate with the outcome. It runs once, on its own goroutine,
// kicked off at construction.
func (s *Store) initialize(ctx context.Context) {
	if err := s.ensureTable(ctx); err != nil {
		s.logger.WithError(err).Error("Session store initialization failed")
		s.gate.signalFailed(err)
		return
	}
	s.gate.signalReady()
}

// ensureTable creates the session table when it is absent. When the table was
// actually created (as opposed to already existing), success is only declared
// after the catalog reports the table: managed database services may apply DDL
// asynchronously, and a write racing catalog propagation would fail against a
// table that nominally exists. Errors from the create statement itself are
// fatal and not retried.
func (s *Store) ensureTable(ctx context.Context) error {
	exists, err := s.tableExists(ctx)
	if err != nil {
		return fmt.Errorf("failed to probe for table '%s': %w", s.config.Table, err)
	}
	if exists {
		return nil
	}
	err = s.withConnection(ctx, func(tx *gorm.DB) error {
		for _, statement := range s.dialect.createTableStatements(s.config.Table) {
			if err := tx.Exec(statement).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create table '%s': %w", s.config.Table, err)
	}
	return s.awaitTableVisible(ctx)
}

// awaitTableVisible polls the catalog at a fixed interval until the session
// table is observed or the configured timeout elapses.
func (s *Store) awaitTableVisible(ctx context.Context) error {
	attempts := uint(s.config.SchemaPollTimeout / s.config.SchemaPollInterval)
	if attempts == 0 {
		attempts = 1
	}
	err := retry.Do(func() error {
		exists, err := s.tableExists(ctx)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		if !exists {
			return fmt.Errorf("table '%s' not listed in catalog", s.config.Table)
		}
		return nil
	},
		retry.Attempts(attempts),
		retry.Delay(s.config.SchemaPollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		return nil
	}
	if !retry.IsRecoverable(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// The catalog probe itself failed, or we were cancelled.
		return err
	}
	return fmt.Errorf("%w: table '%s' (waited %s)", ErrTableNotVisible, s.config.Table, s.config.SchemaPollTimeout)
}

// tableExists probes the database catalog for the session table.
func (s *Store) tableExists(ctx context.Context) (bool, error) {
	var exists bool
	err := s.withConnection(ctx, func(tx *gorm.DB) error {
		rows, err := tx.Raw(s.dialect.tableExistsQuery(), s.config.Table).Rows()
		if err != nil {
			return err
		}
		defer rows.Close()
		exists = rows.Next()
		return rows.Err()
	})
	return exists, err
}
