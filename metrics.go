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
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the store's prometheus collectors. Collectors always exist so
// the store can increment them unconditionally; they are only registered when
// a Registerer is supplied.
type Metrics struct {
	operations  *prometheus.CounterVec
	queryErrors prometheus.Counter
	reaped      prometheus.Counter
}

// NewMetrics creates the store's collectors and registers them on registerer,
// which may be nil to skip registration.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessionstore",
			Name:      "operations_total",
			Help:      "Number of session store operations, partitioned by operation.",
		}, []string{"operation"}),
		queryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sessionstore",
			Name:      "query_errors_total",
			Help:      "Number of session store operations that failed on the database.",
		}),
		reaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sessionstore",
			Name:      "reaped_sessions_total",
			Help:      "Number of expired sessions deleted by the reaper.",
		}),
	}
	if registerer != nil {
		registerer.MustRegister(m.operations, m.queryErrors, m.reaped)
	}
	return m
}
