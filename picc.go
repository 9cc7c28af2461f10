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
	"errors"
	"fmt"
)

// PICCType is the card family derived from the SAK byte
type PICCType int

// Card types
const (
	PICCTypeUnknown PICCType = iota
	PICCTypeISO14443_4
	PICCTypeISO18092
	PICCTypeMifareMini
	PICCTypeMifare1K
	PICCTypeMifare4K
	PICCTypeMifareUL
	PICCTypeMifarePlus
	PICCTypeTNP3XXX
	PICCTypeNotComplete
)

// GetPICCType translates a SAK byte into a card type
func GetPICCType(sak byte) PICCType {
	// Bit 0x04 says the UID is not complete
	if sak&0x04 != 0 {
		return PICCTypeNotComplete
	}

	switch sak & 0x7F {
	case 0x09:
		return PICCTypeMifareMini
	case 0x08:
		return PICCTypeMifare1K
	case 0x18:
		return PICCTypeMifare4K
	case 0x00:
		return PICCTypeMifareUL
	case 0x10, 0x11:
		return PICCTypeMifarePlus
	case 0x01:
		return PICCTypeTNP3XXX
	}
	if sak&0x20 != 0 {
		return PICCTypeISO14443_4
	}
	if sak&0x40 != 0 {
		return PICCTypeISO18092
	}
	return PICCTypeUnknown
}

// String returns a human-readable card type
func (t PICCType) String() string {
	switch t {
	case PICCTypeISO14443_4:
		return "PICC compliant with ISO/IEC 14443-4"
	case PICCTypeISO18092:
		return "PICC compliant with ISO/IEC 18092 (NFC)"
	case PICCTypeMifareMini:
		return "MIFARE Mini, 320 bytes"
	case PICCTypeMifare1K:
		return "MIFARE 1KB"
	case PICCTypeMifare4K:
		return "MIFARE 4KB"
	case PICCTypeMifareUL:
		return "MIFARE Ultralight or Ultralight C"
	case PICCTypeMifarePlus:
		return "MIFARE Plus"
	case PICCTypeTNP3XXX:
		return "MIFARE TNP3XXX"
	case PICCTypeNotComplete:
		return "SAK indicates UID is not complete."
	default:
		return "Unknown type"
	}
}

// RequestA invites cards in state IDLE to go to READY. The two ATQA bytes
// are stored in atqa.
func (d *Device) RequestA(atqa []byte) error {
	return d.requestOrWakeup(PICCCmdREQA, atqa)
}

// WakeupA invites cards in state IDLE and HALT to go to READY
func (d *Device) WakeupA(atqa []byte) error {
	return d.requestOrWakeup(PICCCmdWUPA, atqa)
}

func (d *Device) requestOrWakeup(cmd byte, atqa []byte) error {
	if len(atqa) < 2 {
		return fmt.Errorf("%w: ATQA buffer of %d bytes", ErrNoRoom, len(atqa))
	}

	// Bits received after a collision are cleared
	if err := d.ClearRegisterBitMask(CollReg, bitValuesAfterColl); err != nil {
		return err
	}

	// REQA and WUPA are short frames of 7 bits
	res, err := d.Transceive(&TransceiveRequest{
		Send:      []byte{cmd},
		Back:      atqa[:2],
		ValidBits: 7,
	})
	if err != nil {
		return err
	}
	if res.N != 2 || res.ValidBits != 0 {
		return fmt.Errorf("%w: ATQA of %d bytes, %d valid bits", ErrCommunication, res.N, res.ValidBits)
	}
	return nil
}

// IsNewCardPresent reports whether a card in state IDLE answered REQA. A
// collision counts as present: several cards answered at once.
func (d *Device) IsNewCardPresent() bool {
	var atqa [2]byte
	err := d.RequestA(atqa[:])
	if err != nil && !errors.Is(err, ErrCollision) {
		debugf("REQA: %v", err)
		return false
	}
	return true
}

// HaltA puts the selected card into state HALT
func (d *Device) HaltA() error {
	var buf [4]byte
	buf[0] = PICCCmdHLTA
	crc, err := d.CalculateCRC(buf[:2])
	if err != nil {
		return err
	}
	buf[2], buf[3] = crc[0], crc[1]

	// The card does not answer HLTA; only a timeout means success
	_, err = d.Transceive(&TransceiveRequest{Send: buf[:]})
	switch {
	case errors.Is(err, ErrTimeout):
		return nil
	case err == nil:
		return fmt.Errorf("%w: card answered HLTA", ErrCommunication)
	default:
		return err
	}
}

// ReadCardSerial selects the card that answered the last RequestA and
// stores its identifier in uid
func (d *Device) ReadCardSerial(uid *UID) bool {
	if err := d.Select(uid, 0); err != nil {
		debugf("select: %v", err)
		return false
	}
	return true
}
