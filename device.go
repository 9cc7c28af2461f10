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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-mfrc522/internal/poll"
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// IRQPollBudget bounds how many times ComIrqReg is read while waiting
	// for a command to complete
	IRQPollBudget int
	// CRCPollBudget bounds how many times DivIrqReg is read while waiting
	// for the CRC coprocessor
	CRCPollBudget int
	// ResetTimeout is how long Reset waits for the chip to leave power down
	ResetTimeout time.Duration
	// ResetPollInterval is the sleep between two reads of CommandReg during
	// Reset
	ResetPollInterval time.Duration
	// PollInterval is the pause between two attempts of DiscoverUID
	PollInterval time.Duration
	// AntennaGain is applied by Init when SetGain is true
	AntennaGain RxGain
	SetGain     bool
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		IRQPollBudget:     2000,
		CRCPollBudget:     2000,
		ResetTimeout:      50 * time.Millisecond,
		ResetPollInterval: 1 * time.Millisecond,
		PollInterval:      100 * time.Millisecond,
	}
}

// Device represents an MFRC522 reader (the PCD) and the cards it talks to
//
// Thread Safety: Device is NOT thread-safe. All methods must be called from
// a single goroutine or protected with external synchronization. The bus
// protocol is stateful across a whole card discovery, so a mutex has to
// cover the entire RequestA + Select sequence, not single register calls.
type Device struct {
	transport Transport
	config    *DeviceConfig
	version   Version
}

// New creates a new MFRC522 device with the given transport
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}

	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// Config returns a copy of the active configuration
func (d *Device) Config() DeviceConfig {
	return *d.config
}

// Init resets the chip and configures it for ISO 14443A communication
func (d *Device) Init() error {
	return d.InitContext(context.Background())
}

// InitContext is Init with a context bounding the reset wait
func (d *Device) InitContext(ctx context.Context) error {
	if err := d.ResetContext(ctx); err != nil {
		return err
	}

	// f_timer = 13.56 MHz / (2*0x0A9+1) = 40kHz, 1000 ticks = 25ms timeout.
	// TAuto starts the timer at the end of every transmission.
	steps := []struct {
		reg   Register
		value byte
	}{
		{TModeReg, 0x80},
		{TPrescalerReg, 0xA9},
		{TReloadRegH, 0x03},
		{TReloadRegL, 0xE8},
		{TxASKReg, bitForce100ASK},
		{ModeReg, 0x3D}, // CRC preset 0x6363
	}
	for _, s := range steps {
		if err := d.transport.WriteRegister(s.reg, s.value); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}

	if d.config.SetGain {
		if err := d.SetAntennaGain(d.config.AntennaGain); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}

	// The reset disabled the antenna driver pins
	if err := d.AntennaOn(); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	debugln("MFRC522 initialized")
	return nil
}

// Reset performs a soft reset and waits for the chip to be ready again
func (d *Device) Reset() error {
	return d.ResetContext(context.Background())
}

// ResetContext is Reset with a context bounding the wait
func (d *Device) ResetContext(ctx context.Context) error {
	if err := d.transport.WriteRegister(CommandReg, byte(PCDSoftReset)); err != nil {
		return fmt.Errorf("soft reset: %w", err)
	}

	// The oscillator start-up time is not fixed; wait until PowerDown clears.
	_, err := poll.Timed(ctx, d.config.ResetTimeout, d.config.ResetPollInterval, func() (struct{}, bool, error) {
		v, err := d.transport.ReadRegister(CommandReg)
		if err != nil {
			return struct{}{}, false, err
		}
		return struct{}{}, v&bitPowerDown != 0, nil
	})
	switch {
	case errors.Is(err, poll.ErrExhausted):
		return fmt.Errorf("soft reset: chip still powered down after %v: %w", d.config.ResetTimeout, ErrTimeout)
	case err != nil:
		return fmt.Errorf("soft reset: %w", err)
	}
	return nil
}

// AntennaOn enables the TX1 and TX2 antenna driver pins
func (d *Device) AntennaOn() error {
	value, err := d.transport.ReadRegister(TxControlReg)
	if err != nil {
		return fmt.Errorf("antenna on: %w", err)
	}
	if value&maskAntenna == maskAntenna {
		return nil
	}
	if err := d.transport.WriteRegister(TxControlReg, value|maskAntenna); err != nil {
		return fmt.Errorf("antenna on: %w", err)
	}
	return nil
}

// AntennaOff disables the TX1 and TX2 antenna driver pins
func (d *Device) AntennaOff() error {
	value, err := d.transport.ReadRegister(TxControlReg)
	if err != nil {
		return fmt.Errorf("antenna off: %w", err)
	}
	if value&maskAntenna == 0 {
		return nil
	}
	if err := d.transport.WriteRegister(TxControlReg, value&^maskAntenna); err != nil {
		return fmt.Errorf("antenna off: %w", err)
	}
	return nil
}

// AntennaGain returns the receiver gain currently set in RFCfgReg
func (d *Device) AntennaGain() (RxGain, error) {
	value, err := d.transport.ReadRegister(RFCfgReg)
	if err != nil {
		return 0, fmt.Errorf("read antenna gain: %w", err)
	}
	return RxGain(value & rxGainMask), nil
}

// SetAntennaGain sets the receiver gain, leaving the other RFCfgReg bits alone
func (d *Device) SetAntennaGain(gain RxGain) error {
	if byte(gain)&^rxGainMask != 0 {
		return fmt.Errorf("%w: antenna gain 0x%02X", ErrInvalidParameter, byte(gain))
	}
	current, err := d.AntennaGain()
	if err != nil {
		return err
	}
	if current == gain {
		return nil
	}
	if err := d.ClearRegisterBitMask(RFCfgReg, rxGainMask); err != nil {
		return fmt.Errorf("set antenna gain: %w", err)
	}
	if err := d.SetRegisterBitMask(RFCfgReg, byte(gain)); err != nil {
		return fmt.Errorf("set antenna gain: %w", err)
	}
	return nil
}

// SetRegisterBitMask sets the bits given in mask in register reg
func (d *Device) SetRegisterBitMask(reg Register, mask byte) error {
	value, err := d.transport.ReadRegister(reg)
	if err != nil {
		return err
	}
	return d.transport.WriteRegister(reg, value|mask)
}

// ClearRegisterBitMask clears the bits given in mask from register reg
func (d *Device) ClearRegisterBitMask(reg Register, mask byte) error {
	value, err := d.transport.ReadRegister(reg)
	if err != nil {
		return err
	}
	return d.transport.WriteRegister(reg, value&^mask)
}

// Close turns the antenna off and closes the transport
func (d *Device) Close() error {
	var antennaErr error
	if err := d.AntennaOff(); err != nil {
		antennaErr = err
	}
	if err := d.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return antennaErr
}
