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

/*
Package mfrc522 provides a pure Go driver for MFRC522 13.56 MHz reader chips
and the ISO/IEC 14443-3 type A card discovery built on top of them.

The chip is reached through a register Transport. Package transport/i2c
talks to it over any periph I²C bus, including the software two-wire bus of
package twowire, which toggles two GPIO lines with microsecond holds.
Package transport/uart talks to it over a serial port.

Features:
  - Reader control: soft reset, antenna, receiver gain, CRC coprocessor
  - Transceive with bit-oriented framing and collision reporting
  - REQA / WUPA / HLTA
  - Select with the full anti-collision loop for 4, 7 and 10 byte UIDs
  - Bounded polling everywhere; no operation can hang on a silent chip

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-mfrc522"
	    "github.com/ZaparooProject/go-mfrc522/transport/i2c"
	    "github.com/ZaparooProject/go-mfrc522/twowire"
	)

	scl, sda := gpioreg.ByName("GPIO22"), gpioreg.ByName("GPIO21")
	if err := twowire.Register("SOFT0", nil, -1, scl, sda); err != nil {
	    log.Fatal(err)
	}

	transport, err := i2c.Open("SOFT0", i2c.DefaultAddress, 0)
	if err != nil {
	    log.Fatal(err)
	}

	device, err := mfrc522.New(transport)
	if err != nil {
	    log.Fatal(err)
	}
	defer device.Close()

	if err := device.Init(); err != nil {
	    log.Fatal(err)
	}

	uid, err := device.DiscoverUID(ctx, 5*time.Second)
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Printf("Card: %s (%s)\n", uid, uid.Type())

Continuous presence monitoring lives in package polling; package access
holds an in-memory table of authorized UIDs.

Error Handling:

Operations return errors that match the sentinels of this package with
errors.Is. StatusOf maps any of them onto a StatusCode:

	if mfrc522.StatusOf(err) == mfrc522.StatusTimeout {
	    // Nobody answered
	}

IsNoCard reports the outcomes expected when polling an empty field.

Thread Safety:

Device operations are not thread-safe. If you need concurrent access,
implement appropriate synchronization in your application.
*/
package mfrc522
