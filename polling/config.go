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
	"errors"
	"fmt"
	"time"
)

// Configuration errors
var (
	ErrInvalidPollInterval   = errors.New("poll interval must be positive")
	ErrInvalidRemovalTimeout = errors.New("card removal timeout must be longer than the poll interval")
	ErrInvalidIdleInterval   = errors.New("idle poll interval cannot be shorter than the poll interval")
)

// Config contains monitoring configuration options
type Config struct {
	// PollInterval is the wait between two discovery attempts.
	PollInterval time.Duration
	// CardRemovalTimeout is how long a card may go unseen before it is
	// reported as removed.
	CardRemovalTimeout time.Duration
	// IdlePollInterval replaces PollInterval once no card has been seen for
	// IdleAfter. Zero keeps polling at PollInterval.
	IdlePollInterval time.Duration
	// IdleAfter is how long the field must stay empty before polling slows.
	IdleAfter time.Duration
}

// DefaultConfig returns the default monitoring configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval:       100 * time.Millisecond,
		CardRemovalTimeout: 600 * time.Millisecond,
		IdlePollInterval:   500 * time.Millisecond,
		IdleAfter:          5 * time.Second,
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPollInterval, c.PollInterval)
	}
	if c.CardRemovalTimeout <= c.PollInterval {
		return fmt.Errorf("%w: %s <= %s", ErrInvalidRemovalTimeout, c.CardRemovalTimeout, c.PollInterval)
	}
	if c.IdlePollInterval != 0 && c.IdlePollInterval < c.PollInterval {
		return fmt.Errorf("%w: %s < %s", ErrInvalidIdleInterval, c.IdlePollInterval, c.PollInterval)
	}
	return nil
}

// intervalFor returns the poll interval to use when the last card was seen
// idle ago
func (c *Config) intervalFor(idle time.Duration) time.Duration {
	if c.IdlePollInterval == 0 || idle <= c.IdleAfter {
		return c.PollInterval
	}
	return c.IdlePollInterval
}
