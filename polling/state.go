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

package polling

import (
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
)

// CardDetectionState represents the finite state machine for card detection
type CardDetectionState int

const (
	StateIdle CardDetectionState = iota
	StateCardDetected
	StateHandling
	StatePostHandleGrace
)

// String returns the state name
func (s CardDetectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCardDetected:
		return "detected"
	case StateHandling:
		return "handling"
	case StatePostHandleGrace:
		return "grace"
	default:
		return "unknown"
	}
}

// CardState tracks the card currently in the field
type CardState struct {
	LastSeenTime   time.Time
	RemovalTimer   *time.Timer
	LastUID        mfrc522.UID
	DetectionState CardDetectionState
	Present        bool

	// timerGen identifies the armed removal timer; a timer whose generation
	// no longer matches fired after it was replaced and must be ignored.
	timerGen uint64
}

// safeTimerStop stops a timer and drains its channel if it already fired
func safeTimerStop(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}

// TransitionToHandling suspends the removal timer while callbacks run
func (cs *CardState) TransitionToHandling() {
	cs.DetectionState = StateHandling
	cs.stopTimer()
}

// TransitionToPostHandleGrace re-arms the removal timer with half the
// timeout once callbacks have returned
func (cs *CardState) TransitionToPostHandleGrace(timeout time.Duration, callback func(gen uint64)) {
	cs.DetectionState = StatePostHandleGrace
	cs.arm(timeout/2, callback)
}

// TransitionToDetected records a sighting and re-arms the removal timer
func (cs *CardState) TransitionToDetected(timeout time.Duration, callback func(gen uint64)) {
	cs.DetectionState = StateCardDetected
	cs.LastSeenTime = time.Now()
	cs.arm(timeout, callback)
}

// TransitionToIdle resets to idle state
func (cs *CardState) TransitionToIdle() {
	cs.DetectionState = StateIdle
	cs.Present = false
	cs.LastUID = mfrc522.UID{}
	cs.stopTimer()
}

// CanStartRemovalTimer returns true if the state allows removal timer to run
func (cs *CardState) CanStartRemovalTimer() bool {
	return cs.DetectionState == StateCardDetected || cs.DetectionState == StatePostHandleGrace
}

func (cs *CardState) arm(timeout time.Duration, callback func(gen uint64)) {
	cs.stopTimer()
	gen := cs.timerGen
	cs.RemovalTimer = time.AfterFunc(timeout, func() { callback(gen) })
}

func (cs *CardState) stopTimer() {
	safeTimerStop(cs.RemovalTimer)
	cs.RemovalTimer = nil
	cs.timerGen++
}
