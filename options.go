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

package mfrc522

import (
	"fmt"
	"time"
)

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithIRQPollBudget sets how many ComIrqReg reads a command may take
func WithIRQPollBudget(budget int) Option {
	return func(d *Device) error {
		if budget <= 0 {
			return fmt.Errorf("%w: IRQ poll budget %d", ErrInvalidParameter, budget)
		}
		d.config.IRQPollBudget = budget
		return nil
	}
}

// WithCRCPollBudget sets how many DivIrqReg reads a CRC calculation may take
func WithCRCPollBudget(budget int) Option {
	return func(d *Device) error {
		if budget <= 0 {
			return fmt.Errorf("%w: CRC poll budget %d", ErrInvalidParameter, budget)
		}
		d.config.CRCPollBudget = budget
		return nil
	}
}

// WithResetTimeout sets how long a soft reset may take and how often the chip
// is checked while waiting
func WithResetTimeout(timeout, interval time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 || interval <= 0 || interval > timeout {
			return fmt.Errorf("%w: reset timeout %v, interval %v", ErrInvalidParameter, timeout, interval)
		}
		d.config.ResetTimeout = timeout
		d.config.ResetPollInterval = interval
		return nil
	}
}

// WithPollInterval sets the pause between two DiscoverUID attempts
func WithPollInterval(interval time.Duration) Option {
	return func(d *Device) error {
		if interval <= 0 {
			return fmt.Errorf("%w: poll interval %v", ErrInvalidParameter, interval)
		}
		d.config.PollInterval = interval
		return nil
	}
}

// WithAntennaGain makes Init program the given receiver gain
func WithAntennaGain(gain RxGain) Option {
	return func(d *Device) error {
		if byte(gain)&^rxGainMask != 0 {
			return fmt.Errorf("%w: antenna gain 0x%02X", ErrInvalidParameter, byte(gain))
		}
		d.config.AntennaGain = gain
		d.config.SetGain = true
		return nil
	}
}

// WithConfig replaces the whole configuration
func WithConfig(config *DeviceConfig) Option {
	return func(d *Device) error {
		if config == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidParameter)
		}
		if config.IRQPollBudget <= 0 || config.CRCPollBudget <= 0 {
			return fmt.Errorf("%w: poll budgets must be positive", ErrInvalidParameter)
		}
		c := *config
		d.config = &c
		return nil
	}
}
