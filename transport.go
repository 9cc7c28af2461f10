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

// Transport defines register-level access to an MFRC522.
// This can be implemented by any bus backend able to address the chip.
type Transport interface {
	// ReadRegister reads one register
	ReadRegister(reg Register) (byte, error)

	// WriteRegister writes one register
	WriteRegister(reg Register, value byte) error

	// ReadRegisterBurst reads len(dst) bytes from reg. When rxAlign is not
	// zero only bits rxAlign..7 of dst[0] are replaced; its low bits keep the
	// value they had before the call.
	ReadRegisterBurst(reg Register, dst []byte, rxAlign byte) error

	// WriteRegisterBurst writes every byte of data to reg
	WriteRegisterBurst(reg Register, data []byte) error

	// Close closes the transport connection
	Close() error

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportI2C represents a two-wire bus transport.
	TransportI2C TransportType = "i2c"
	// TransportUART represents a serial UART transport.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)
