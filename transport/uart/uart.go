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

// Package uart provides register access to an MFRC522 wired to a serial
// port. The chip answers every read address byte with the register value and
// echoes the address byte of every write.
package uart

import (
	"errors"
	"fmt"
	"io"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/internal/frame"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the baud rate the chip uses after power-on.
	DefaultBaudRate = 9600

	// DefaultReadTimeout bounds each single byte reply.
	DefaultReadTimeout = 50 * time.Millisecond

	readFlag    = 0x80
	addressMask = 0x3F
	maxBurst    = 64
)

// ErrNoReply is returned when the chip does not answer within the read timeout
var ErrNoReply = errors.New("no reply from chip")

// Port is the part of a serial port the transport needs
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// Transport implements the mfrc522.Transport interface over a UART
type Transport struct {
	port     Port
	portName string
}

// New creates a transport on an already opened port. Close closes the port.
func New(port Port, portName string) (*Transport, error) {
	if port == nil {
		return nil, fmt.Errorf("%w: nil port", mfrc522.ErrInvalidParameter)
	}
	if err := port.SetReadTimeout(DefaultReadTimeout); err != nil {
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}
	return &Transport{port: port, portName: portName}, nil
}

// Open opens portName at baud, 8N1, and creates a transport on it
func Open(portName string, baud int) (*Transport, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}

	t, err := New(port, portName)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return t, nil
}

// ReadRegister reads one register
func (t *Transport) ReadRegister(reg mfrc522.Register) (byte, error) {
	v, err := t.read(reg)
	if err != nil {
		return 0, t.wrap("ReadRegister", reg, err)
	}
	return v, nil
}

// WriteRegister writes one register and checks the echoed address
func (t *Transport) WriteRegister(reg mfrc522.Register, value byte) error {
	if err := t.write(reg, value); err != nil {
		return t.wrap("WriteRegister", reg, err)
	}
	return nil
}

// ReadRegisterBurst reads len(dst) bytes from reg, one address byte each
func (t *Transport) ReadRegisterBurst(reg mfrc522.Register, dst []byte, rxAlign byte) error {
	if len(dst) > maxBurst {
		return mfrc522.NewTransportError("ReadRegisterBurst", t.portName, mfrc522.ErrDataTooLarge, mfrc522.ErrorTypePermanent)
	}
	if rxAlign > 7 {
		return fmt.Errorf("%w: rxAlign %d", mfrc522.ErrInvalidParameter, rxAlign)
	}

	for i := range dst {
		v, err := t.read(reg)
		if err != nil {
			return t.wrap("ReadRegisterBurst", reg, err)
		}
		if i == 0 && rxAlign > 0 {
			v = frame.MergeRxAlign(dst[0], v, rxAlign)
		}
		dst[i] = v
	}
	return nil
}

// WriteRegisterBurst writes every byte of data to reg
func (t *Transport) WriteRegisterBurst(reg mfrc522.Register, data []byte) error {
	if len(data) > maxBurst {
		return mfrc522.NewTransportError("WriteRegisterBurst", t.portName, mfrc522.ErrDataTooLarge, mfrc522.ErrorTypePermanent)
	}
	for _, v := range data {
		if err := t.write(reg, v); err != nil {
			return t.wrap("WriteRegisterBurst", reg, err)
		}
	}
	return nil
}

// Close closes the serial port
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("failed to close UART port %s: %w", t.portName, err)
	}
	return nil
}

// Type returns the transport type
func (*Transport) Type() mfrc522.TransportType {
	return mfrc522.TransportUART
}

// String returns the port name
func (t *Transport) String() string {
	return t.portName
}

func (t *Transport) read(reg mfrc522.Register) (byte, error) {
	if t.port == nil {
		return 0, mfrc522.ErrClosed
	}
	if _, err := t.port.Write([]byte{readFlag | byte(reg)&addressMask}); err != nil {
		return 0, err
	}
	return t.readByte()
}

func (t *Transport) write(reg mfrc522.Register, value byte) error {
	if t.port == nil {
		return mfrc522.ErrClosed
	}
	addr := byte(reg) & addressMask
	if _, err := t.port.Write([]byte{addr, value}); err != nil {
		return err
	}
	echo, err := t.readByte()
	if err != nil {
		return err
	}
	if echo != addr {
		// Drop whatever is left of the garbled reply before the next command.
		_ = t.port.ResetInputBuffer()
		return fmt.Errorf("echoed address 0x%02X, want 0x%02X", echo, addr)
	}
	return nil
}

// readByte reads one byte; go.bug.st/serial reports a read timeout as a
// zero length read with a nil error.
func (t *Transport) readByte() (byte, error) {
	var b [1]byte
	n, err := t.port.Read(b[:])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNoReply
	}
	return b[0], nil
}

func (t *Transport) wrap(op string, reg mfrc522.Register, err error) error {
	op = fmt.Sprintf("%s(0x%02X)", op, byte(reg))
	if errors.Is(err, mfrc522.ErrClosed) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, ErrNoReply) {
		return mfrc522.NewTransportError(op, t.portName, mfrc522.ErrTimeout, mfrc522.ErrorTypeTimeout)
	}
	return mfrc522.NewCommunicationError(op, t.portName, err)
}

// Ensure Transport implements mfrc522.Transport
var _ mfrc522.Transport = (*Transport)(nil)
