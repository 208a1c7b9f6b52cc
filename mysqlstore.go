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

// Package mysqlstore persists opaque, time-limited session payloads in MySQL.
// It is designed for short-lived execution environments: no connection is held
// between operations, the session table is created on first use without an
// out-of-band migration step, and every operation is gated on that one-time
// initialization having succeeded.
package mysqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sessionry/mysqlstore/log"
)

// sessionRecord maps a row of the session table.
type sessionRecord struct {
	ID      string    `gorm:"primaryKey;column:id"`
	Session string    `gorm:"column:session"`
	Expires time.Time `gorm:"column:expires"`
}

// Store persists opaque session payloads keyed by an externally supplied
// identifier, each with an expiry timestamp. A missing or expired session is a
// successful "no session" outcome on reads, never an error. Operations are safe
// for concurrent use; each one runs on its own dedicated connection.
type Store struct {
	config  Config
	db      *gorm.DB
	dialect dialect
	gate    *readinessGate
	logger  *logrus.Entry
	metrics *Metrics

	cancel   context.CancelFunc
	routines sync.WaitGroup
}

// Option customizes a Store beyond what Config covers.
type Option func(*Store)

// WithLogger replaces the store's diagnostic sink. Initialization and reap
// failures are reported here; they are never returned to callers.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMetrics replaces the store's metrics set, typically to register the
// collectors somewhere. See NewMetrics.
func WithMetrics(metrics *Metrics) Option {
	return func(s *Store) {
		s.metrics = metrics
	}
}

// New opens a session store against the MySQL server named by config.
// Initialization (schema creation and catalog verification) runs
// asynchronously; operations issued before it settles block until it does, and
// fail with ErrNotReady if it failed. Callers should Close the store when done
// with it.
func New(config Config, opts ...Option) (*Store, error) {
	config = config.withDefaults()
	if config.Address == "" {
		return nil, errors.New("address is not configured")
	}
	if config.Database == "" {
		return nil, errors.New("database is not configured")
	}
	dsn := mysql.NewConfig()
	dsn.Net = "tcp"
	dsn.Addr = config.Address
	dsn.User = config.User
	dsn.Passwd = config.Password
	dsn.DBName = config.Database
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	return newStore(gormmysql.Open(dsn.FormatDSN()), mysqlDialect{}, config, opts...)
}

func newStore(dialector gorm.Dialector, d dialect, config Config, opts ...Option) (*Store, error) {
	config = config.withDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	store := &Store{
		config:  config,
		dialect: d,
		gate:    newReadinessGate(),
		logger:  log.Logger(),
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.metrics == nil {
		store.metrics = NewMetrics(nil)
	}
	db, err := openDB(dialector, store.logger)
	if err != nil {
		return nil, err
	}
	store.db = db

	ctx, cancel := context.WithCancel(context.Background())
	store.cancel = cancel
	store.routines.Add(1)
	go func() {
		defer store.routines.Done()
		store.initialize(ctx)
	}()
	if config.ReapInterval > 0 {
		store.startReaping(ctx, config.ReapInterval)
	}
	return store, nil
}

// Get returns the payload stored for id. A missing or expired session yields
// (nil, nil): "no session" is a successful outcome, not an error.
func (s *Store) Get(ctx context.Context, id string) (json.RawMessage, error) {
	if err := s.gate.wait(ctx); err != nil {
		return nil, err
	}
	s.metrics.operations.WithLabelValues("get").Inc()
	condition, args := s.dialect.liveClause()
	var record sessionRecord
	err := s.withConnection(ctx, func(tx *gorm.DB) error {
		return tx.Table(s.config.Table).
			Where("id = ?", id).
			Where(condition, args...).
			Take(&record).Error
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		s.metrics.queryErrors.Inc()
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return json.RawMessage(record.Session), nil
}

// Set stores payload under id with the given expiry, overwriting both payload
// and expiry when a row for id already exists. The upsert is atomic at the
// database layer; no application-level locking exists or is needed. The expiry
// is carried at microsecond precision.
func (s *Store) Set(ctx context.Context, id string, payload json.RawMessage, expiresAt time.Time) error {
	if err := s.gate.wait(ctx); err != nil {
		return err
	}
	if !json.Valid(payload) {
		return fmt.Errorf("session payload for '%s' is not valid JSON", id)
	}
	s.metrics.operations.WithLabelValues("set").Inc()
	record := sessionRecord{
		ID:      id,
		Session: string(payload),
		Expires: expiresAt.UTC().Truncate(time.Microsecond),
	}
	err := s.withConnection(ctx, func(tx *gorm.DB) error {
		return tx.Table(s.config.Table).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"session", "expires"}),
		}).Create(&record).Error
	})
	if err != nil {
		s.metrics.queryErrors.Inc()
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Touch updates only the expiry of the session for id, provided it is still
// live. Touching an expired or absent session affects zero rows and is not an
// error.
func (s *Store) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	if err := s.gate.wait(ctx); err != nil {
		return err
	}
	s.metrics.operations.WithLabelValues("touch").Inc()
	condition, args := s.dialect.liveClause()
	err := s.withConnection(ctx, func(tx *gorm.DB) error {
		return tx.Table(s.config.Table).
			Where("id = ?", id).
			Where(condition, args...).
			Update("expires", expiresAt.UTC().Truncate(time.Microsecond)).Error
	})
	if err != nil {
		s.metrics.queryErrors.Inc()
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Destroy deletes the session for id, live or expired. Destroying an absent
// session is not an error.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if err := s.gate.wait(ctx); err != nil {
		return err
	}
	s.metrics.operations.WithLabelValues("destroy").Inc()
	err := s.withConnection(ctx, func(tx *gorm.DB) error {
		return tx.Table(s.config.Table).
			Where("id = ?", id).
			Delete(&sessionRecord{}).Error
	})
	if err != nil {
		s.metrics.queryErrors.Inc()
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// Length returns the number of live sessions. Expired rows that have not been
// reaped yet are not counted.
func (s *Store) Length(ctx context.Context) (int64, error) {
	if err := s.gate.wait(ctx); err != nil {
		return 0, err
	}
	s.metrics.operations.WithLabelValues("length").Inc()
	condition, args := s.dialect.liveClause()
	var count int64
	err := s.withConnection(ctx, func(tx *gorm.DB) error {
		return tx.Table(s.config.Table).
			Where(condition, args...).
			Count(&count).Error
	})
	if err != nil {
		s.metrics.queryErrors.Inc()
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// Clear deletes all sessions, regardless of expiry.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.gate.wait(ctx); err != nil {
		return err
	}
	s.metrics.operations.WithLabelValues("clear").Inc()
	err := s.withConnection(ctx, func(tx *gorm.DB) error {
		return tx.Table(s.config.Table).
			Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&sessionRecord{}).Error
	})
	if err != nil {
		s.metrics.queryErrors.Inc()
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	return nil
}

// Reap deletes all expired sessions. It is a maintenance sweep, not a
// request-scoped action: failures are logged, never returned and never retried.
func (s *Store) Reap(ctx context.Context) {
	if err := s.gate.wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			// Store is being closed.
			return
		}
		s.logger.WithError(err).Error("Cannot reap expired sessions")
		return
	}
	s.metrics.operations.WithLabelValues("reap").Inc()
	condition, args := s.dialect.expiredClause()
	err := s.withConnection(ctx, func(tx *gorm.DB) error {
		result := tx.Table(s.config.Table).
			Where(condition, args...).
			Delete(&sessionRecord{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			s.metrics.reaped.Add(float64(result.RowsAffected))
			s.logger.Debugf("Reaped %d expired sessions", result.RowsAffected)
		}
		return nil
	})
	if err != nil {
		s.metrics.queryErrors.Inc()
		s.logger.WithError(err).Error("Failed to reap expired sessions")
	}
}

// startReaping periodically deletes expired sessions until the store is closed.
func (s *Store) startReaping(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	s.routines.Add(1)
	go func(ctx context.Context) {
		defer s.routines.Done()
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				s.Reap(ctx)
			}
		}
	}(ctx)
}

// Close stops background routines and closes the database handle. Operations
// issued after Close fail.
func (s *Store) Close() error {
	s.cancel()
	s.routines.Wait()
	return s.closeDB()
}
