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
	"fmt"
	"sync"
)

type readinessState int

const (
	stateInitializing readinessState = iota
	stateInitialized
	stateFailed
)

// readinessGate is a one-shot state machine that gates operations until
// asynchronous initialization has settled. It transitions exactly once from
// initializing to either initialized or failed and never leaves a terminal
// state. Any number of goroutines may wait on it concurrently; all of them are
// released with the same outcome, including waiters that arrive long after the
// transition.
type readinessGate struct {
	mu      sync.Mutex
	state   readinessState
	cause   error
	settled chan struct{}
}

func newReadinessGate() *readinessGate {
	return &readinessGate{settled: make(chan struct{})}
}

// wait blocks until the gate has settled or ctx is done. It returns nil when
// initialization succeeded and an error wrapping ErrNotReady when it failed.
func (g *readinessGate) wait(ctx context.Context) error {
	select {
	case <-g.settled:
	case <-ctx.Done():
		return ctx.Err()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == stateFailed {
		return fmt.Errorf("%w: %w", ErrNotReady, g.cause)
	}
	return nil
}

// signalReady moves the gate to its initialized state and releases all waiters.
// It is a no-op when the gate has already settled.
func (g *readinessGate) signalReady() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != stateInitializing {
		return
	}
	g.state = stateInitialized
	close(g.settled)
}

// signalFailed moves the gate to its terminal failed state and releases all
// waiters with cause. It is a no-op when the gate has already settled.
func (g *readinessGate) signalFailed(cause error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != stateInitializing {
		return
	}
	g.state = stateFailed
	g.cause = cause
	close(g.settled)
}
