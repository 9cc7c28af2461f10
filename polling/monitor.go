// go-mfrc522
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-mfrc522.
//
// go-mfrc522 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-mfrc522 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-mfrc522; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package polling watches an MFRC522 for cards entering and leaving the field.
package polling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
)

// Reader is the part of a device the monitor drives
type Reader interface {
	// WakeUID makes one or more WUPA + Select attempts and leaves the
	// selected card halted, so it is found again on the next call.
	WakeUID(ctx context.Context, timeout time.Duration) (mfrc522.UID, error)
	Close() error
}

// Metrics tracks operational counters of a Monitor
type Metrics struct {
	PollCycles      int64         // Total number of polling cycles
	PollErrors      int64         // Number of polling errors
	CardsDetected   int64         // Number of cards detected
	CallbackErrors  int64         // Number of callback errors
	LastPollLatency time.Duration // Duration of last polling operation
}

// Monitor handles continuous card monitoring with state machine.
//
// Callbacks run on the polling goroutine, or on a timer goroutine for
// OnCardRemoved, with the monitor locked; they must not call back into it.
type Monitor struct {
	reader         Reader
	config         *Config
	OnCardDetected func(uid mfrc522.UID) error
	OnCardRemoved  func()
	OnCardChanged  func(uid mfrc522.UID) error
	pauseChan      chan struct{}
	resumeChan     chan struct{}
	state          CardState
	lastCard       time.Time
	mu             sync.Mutex
	pollCycles     atomic.Int64
	pollErrors     atomic.Int64
	cardsDetected  atomic.Int64
	callbackErrors atomic.Int64
	lastLatency    atomic.Int64
	isPaused       atomic.Bool
}

// NewMonitor creates a new card monitor. A nil config uses DefaultConfig.
func NewMonitor(reader Reader, config *Config) (*Monitor, error) {
	if reader == nil {
		return nil, fmt.Errorf("%w: nil reader", mfrc522.ErrInvalidParameter)
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Monitor{
		reader:     reader,
		config:     config,
		pauseChan:  make(chan struct{}, 1),
		resumeChan: make(chan struct{}, 1),
		lastCard:   time.Now(),
	}, nil
}

// Start polls until ctx is done and returns ctx.Err()
func (m *Monitor) Start(ctx context.Context) error {
	for {
		if err := m.waitIfPaused(ctx); err != nil {
			return err
		}

		m.Poll(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.currentInterval()):
		}
	}
}

// Poll runs one discovery attempt and updates the card state
func (m *Monitor) Poll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	uid, err := m.reader.WakeUID(ctx, 0)
	m.pollCycles.Add(1)
	m.lastLatency.Store(int64(time.Since(start)))

	if err != nil {
		m.handlePollingError(err)
		return
	}
	m.cardsDetected.Add(1)
	m.lastCard = start
	m.processCard(uid)
}

// Pause stops polling after the current attempt. It is idempotent.
func (m *Monitor) Pause() {
	if m.isPaused.CompareAndSwap(false, true) {
		select {
		case m.pauseChan <- struct{}{}:
		default:
		}
	}
}

// Resume restarts a paused monitor. It is idempotent.
func (m *Monitor) Resume() {
	if m.isPaused.CompareAndSwap(true, false) {
		select {
		case m.resumeChan <- struct{}{}:
		default:
		}
	}
}

// IsPaused reports whether polling is paused
func (m *Monitor) IsPaused() bool {
	return m.isPaused.Load()
}

// GetState returns a copy of the current card state
func (m *Monitor) GetState() CardState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Metrics returns current operational metrics
func (m *Monitor) Metrics() Metrics {
	return Metrics{
		PollCycles:      m.pollCycles.Load(),
		PollErrors:      m.pollErrors.Load(),
		CardsDetected:   m.cardsDetected.Load(),
		CallbackErrors:  m.callbackErrors.Load(),
		LastPollLatency: time.Duration(m.lastLatency.Load()),
	}
}

// Close stops the removal timer and closes the reader
func (m *Monitor) Close() error {
	m.mu.Lock()
	m.state.stopTimer()
	m.mu.Unlock()

	if err := m.reader.Close(); err != nil {
		return fmt.Errorf("failed to close reader: %w", err)
	}
	return nil
}

func (m *Monitor) waitIfPaused(ctx context.Context) error {
	for m.isPaused.Load() {
		// Drop a stale pause signal so only a real resume wakes us.
		select {
		case <-m.pauseChan:
		default:
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.resumeChan:
		case <-time.After(m.config.PollInterval):
		}
	}
	return ctx.Err()
}

func (m *Monitor) currentInterval() time.Duration {
	m.mu.Lock()
	idle := time.Since(m.lastCard)
	m.mu.Unlock()
	return m.config.intervalFor(idle)
}

// handlePollingError must be called with mu held
func (m *Monitor) handlePollingError(err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return
	case mfrc522.IsNoCard(err), errors.Is(err, mfrc522.ErrCollision):
		// Empty field; the removal timer decides when the card is gone.
		return
	}

	// The reader itself failed, so whatever was seen is no longer known to be
	// there.
	m.pollErrors.Add(1)
	m.removeCard()
}

// processCard must be called with mu held
func (m *Monitor) processCard(uid mfrc522.UID) {
	var callback func(mfrc522.UID) error
	switch {
	case !m.state.Present:
		callback = m.OnCardDetected
	case m.state.LastUID != uid:
		callback = m.OnCardChanged
	}

	m.state.Present = true
	m.state.LastUID = uid

	if callback == nil {
		// Same card as before, or nobody listening.
		m.state.TransitionToDetected(m.config.CardRemovalTimeout, m.removalTimerFired)
		return
	}

	m.state.TransitionToHandling()
	if err := callback(uid); err != nil {
		m.callbackErrors.Add(1)
	}
	m.state.LastSeenTime = time.Now()
	m.state.TransitionToPostHandleGrace(m.config.CardRemovalTimeout, m.removalTimerFired)
}

func (m *Monitor) removalTimerFired(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.state.timerGen || !m.state.CanStartRemovalTimer() {
		return
	}
	m.removeCard()
}

// removeCard must be called with mu held
func (m *Monitor) removeCard() {
	if !m.state.Present {
		return
	}
	m.state.TransitionToIdle()
	if m.OnCardRemoved != nil {
		m.OnCardRemoved()
	}
}
