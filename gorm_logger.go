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
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ logger.Interface = (*gormLogger)(nil)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger routes gorm's logging onto the store's logrus entry.
type gormLogger struct {
	underlying    *logrus.Entry
	slowThreshold time.Duration
}

func newGormLogger(underlying *logrus.Entry) gormLogger {
	return gormLogger{
		underlying:    underlying,
		slowThreshold: slowQueryThreshold,
	}
}

func (g gormLogger) LogMode(_ logger.LogLevel) logger.Interface {
	// Ignored, level determined by underlying logger
	return g
}

func (g gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	g.underlying.Infof(msg, args...)
}

func (g gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	g.underlying.Warnf(msg, args...)
}

func (g gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	g.underlying.Errorf(msg, args...)
}

func (g gormLogger) Trace(_ context.Context, begin time.Time, fn func() (sql string, rowsAffected int64), err error) {
	// Slow queries log as warning, everything else on debug.
	elapsed := nowFunc().Sub(begin)
	sql, _ := fn()
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		g.underlying.WithError(err).Warnf("Query failed (took %s): %s", elapsed, sql)
		return
	}
	if elapsed >= g.slowThreshold {
		g.underlying.Warnf("Slow query (took %s): %s", elapsed, sql)
	} else {
		g.underlying.Debugf("Query (took %s): %s", elapsed, sql)
	}
}
