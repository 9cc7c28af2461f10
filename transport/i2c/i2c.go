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

// Package i2c provides register access to an MFRC522 over any periph I2C bus,
// including the software bus from package twowire.
package i2c

import (
	"errors"
	"fmt"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/internal/frame"
	"github.com/ZaparooProject/go-mfrc522/twowire"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// DefaultAddress is the MFRC522 7-bit address with both address pins low.
	DefaultAddress = 0x28

	// Max clock frequency (100 kHz); the chip supports more but the software
	// bus clamps to its minimum hold times anyway.
	maxClockFreq = 100 * physic.KiloHertz

	// register byte + one full FIFO
	maxBurst = 64
)

// Transport implements the mfrc522.Transport interface over an I2C bus
type Transport struct {
	dev     *i2c.Dev
	closer  i2c.BusCloser
	busName string
	wbuf    [maxBurst + 1]byte
}

// New creates a transport talking to the chip at addr on bus. The bus stays
// owned by the caller; Close does not close it.
func New(bus i2c.Bus, addr uint16) (*Transport, error) {
	if bus == nil {
		return nil, fmt.Errorf("%w: nil bus", mfrc522.ErrInvalidParameter)
	}
	if addr > 0x7F {
		return nil, fmt.Errorf("%w: address 0x%X is not a 7-bit address", mfrc522.ErrInvalidParameter, addr)
	}

	return &Transport{
		dev:     &i2c.Dev{Addr: addr, Bus: bus},
		busName: bus.String(),
	}, nil
}

// Open initializes the periph host, opens the registered bus busName and
// creates a transport on it. A zero speed selects 100kHz. Close will close
// the bus.
func Open(busName string, addr uint16, speed physic.Frequency) (*Transport, error) {
	// Initialize host
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}

	if speed <= 0 || speed > maxClockFreq {
		speed = maxClockFreq
	}
	// Ignore error, continue with default speed
	_ = bus.SetSpeed(speed)

	t, err := New(bus, addr)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	t.closer = bus
	return t, nil
}

// ReadRegister reads one register
func (t *Transport) ReadRegister(reg mfrc522.Register) (byte, error) {
	var r [1]byte
	if err := t.dev.Tx([]byte{byte(reg)}, r[:]); err != nil {
		return 0, t.wrap("ReadRegister", reg, err)
	}
	return r[0], nil
}

// WriteRegister writes one register
func (t *Transport) WriteRegister(reg mfrc522.Register, value byte) error {
	if err := t.dev.Tx([]byte{byte(reg), value}, nil); err != nil {
		return t.wrap("WriteRegister", reg, err)
	}
	return nil
}

// ReadRegisterBurst reads len(dst) bytes from reg in one transaction
func (t *Transport) ReadRegisterBurst(reg mfrc522.Register, dst []byte, rxAlign byte) error {
	if len(dst) == 0 {
		return nil
	}
	if len(dst) > maxBurst {
		return mfrc522.NewTransportError("ReadRegisterBurst", t.busName, mfrc522.ErrDataTooLarge, mfrc522.ErrorTypePermanent)
	}
	if rxAlign > 7 {
		return fmt.Errorf("%w: rxAlign %d", mfrc522.ErrInvalidParameter, rxAlign)
	}

	first := dst[0]
	if err := t.dev.Tx([]byte{byte(reg)}, dst); err != nil {
		return t.wrap("ReadRegisterBurst", reg, err)
	}
	if rxAlign > 0 {
		dst[0] = frame.MergeRxAlign(first, dst[0], rxAlign)
	}
	return nil
}

// WriteRegisterBurst writes every byte of data to reg in one transaction
func (t *Transport) WriteRegisterBurst(reg mfrc522.Register, data []byte) error {
	if len(data) > maxBurst {
		return mfrc522.NewTransportError("WriteRegisterBurst", t.busName, mfrc522.ErrDataTooLarge, mfrc522.ErrorTypePermanent)
	}

	t.wbuf[0] = byte(reg)
	n := copy(t.wbuf[1:], data)
	if err := t.dev.Tx(t.wbuf[:n+1], nil); err != nil {
		return t.wrap("WriteRegisterBurst", reg, err)
	}
	return nil
}

// Close closes the bus when it was opened by Open
func (t *Transport) Close() error {
	if t.closer == nil {
		return nil
	}
	err := t.closer.Close()
	t.closer = nil
	if err != nil {
		return fmt.Errorf("failed to close I2C bus %s: %w", t.busName, err)
	}
	return nil
}

// Type returns the transport type
func (*Transport) Type() mfrc522.TransportType {
	return mfrc522.TransportI2C
}

// String returns the bus and address used by the transport
func (t *Transport) String() string {
	return fmt.Sprintf("%s@0x%02X", t.busName, t.dev.Addr)
}

func (t *Transport) wrap(op string, reg mfrc522.Register, err error) error {
	op = fmt.Sprintf("%s(0x%02X)", op, byte(reg))
	if errors.Is(err, twowire.ErrNoAck) {
		return mfrc522.NewNoACKError(op, t.busName, err)
	}
	return mfrc522.NewCommunicationError(op, t.busName, err)
}

// Ensure Transport implements mfrc522.Transport
var _ mfrc522.Transport = (*Transport)(nil)
