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

package i2c

import (
	"context"
	"errors"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"periph.io/x/conn/v3/i2c"
)

// AddressRange is the block of addresses selectable with the chip's address
// pins
var AddressRange = [2]uint16{0x28, 0x2F}

// Found is a chip answering a scan
type Found struct {
	Addr    uint16
	Version mfrc522.Version
}

// Scan reads VersionReg at every address of AddressRange and returns the
// ones that answer with a plausible version. Addresses that do not
// acknowledge are skipped; any other bus error stops the scan.
func Scan(ctx context.Context, bus i2c.Bus) ([]Found, error) {
	if bus == nil {
		return nil, mfrc522.ErrInvalidParameter
	}

	var found []Found
	for addr := AddressRange[0]; addr <= AddressRange[1]; addr++ {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		t, err := New(bus, addr)
		if err != nil {
			return found, err
		}
		v, err := t.ReadRegister(mfrc522.VersionReg)
		if errors.Is(err, mfrc522.ErrBusNoAck) {
			continue
		}
		if err != nil {
			return found, err
		}
		if version := mfrc522.Version(v); version.Present() {
			found = append(found, Found{Addr: addr, Version: version})
		}
	}
	return found, nil
}
