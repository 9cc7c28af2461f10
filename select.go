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

// maxSelectRounds bounds the anti-collision loop of one cascade level. Every
// collision fixes at least one more of the 32 UID bits, plus one round
// returning the remaining bits and one SELECT.
const maxSelectRounds = 34

var selectCommands = [...]byte{PICCCmdSelCL1, PICCCmdSelCL2, PICCCmdSelCL3}

// Select runs the ISO 14443-3 anti-collision and SELECT loop until one card
// is selected, then stores its UID and SAK in uid.
//
// validBits is the number of leading UID bits already known and taken from
// uid, normally 0. uid is only modified when the card is fully selected.
func (d *Device) Select(uid *UID, validBits int) error {
	if uid == nil {
		return fmt.Errorf("%w: nil uid", ErrInvalidArgument)
	}
	if validBits < 0 || validBits > 80 {
		return fmt.Errorf("%w: %d known bits", ErrInvalidArgument, validBits)
	}

	// Bits received after a collision are cleared
	if err := d.ClearRegisterBitMask(CollReg, bitValuesAfterColl); err != nil {
		return err
	}

	u := *uid
	for level := 1; ; level++ {
		sak, err := d.selectLevel(&u, level, validBits)
		if err != nil {
			return fmt.Errorf("cascade level %d: %w", level, err)
		}
		if sak&0x04 == 0 {
			u.SAK = sak
			u.Size = 3*level + 1
			*uid = u
			debugf("selected %s, SAK 0x%02X", u, sak)
			return nil
		}
		if level == len(selectCommands) {
			return fmt.Errorf("%w: SAK 0x%02X announces a fourth cascade level", ErrInternal, sak)
		}
	}
}

// selectLevel resolves and selects cascade level 1..3 and returns the SAK.
//
// buffer layout: SEL, NVB, four UID CLn bytes (CT first when present), BCC
// and two CRC_A bytes.
func (d *Device) selectLevel(u *UID, level, validBits int) (byte, error) {
	if level < 1 || level > len(selectCommands) {
		return 0, ErrInternal
	}

	var buffer [9]byte
	uidIndex := 3 * (level - 1)
	useCT := level < 3 && validBits > 0 && u.Size > 3*level+1
	buffer[0] = selectCommands[level-1]

	known := validBits - 8*uidIndex
	if known < 0 {
		known = 0
	}

	index := 2
	if useCT {
		buffer[index] = PICCCmdCT
		index++
	}
	if n := (known + 7) / 8; n > 0 {
		maxBytes := 4
		if useCT {
			maxBytes = 3
		}
		n = min(n, maxBytes)
		copy(buffer[index:index+n], u.uid[uidIndex:uidIndex+n])
	}
	if useCT {
		known += 8
	}

	for round := 0; ; round++ {
		if round == maxSelectRounds {
			return 0, fmt.Errorf("%w: no progress after %d rounds", ErrInternal, round)
		}

		var req TransceiveRequest
		if known >= 32 {
			// SELECT: all 32 bits known
			buffer[1] = 0x70
			buffer[6] = buffer[2] ^ buffer[3] ^ buffer[4] ^ buffer[5]
			crc, err := d.CalculateCRC(buffer[:7])
			if err != nil {
				return 0, err
			}
			buffer[7], buffer[8] = crc[0], crc[1]
			req = TransceiveRequest{Send: buffer[:9], Back: buffer[6:9]}
		} else {
			// ANTICOLLISION: send the known bits, the card sends the rest
			txLastBits := byte(known % 8)
			index = 2 + known/8
			buffer[1] = byte(index<<4) | txLastBits
			sendLen := index
			if txLastBits != 0 {
				sendLen++
			}
			req = TransceiveRequest{
				Send:      buffer[:sendLen],
				Back:      buffer[index:],
				ValidBits: txLastBits,
				RxAlign:   txLastBits,
			}
		}

		res, err := d.Transceive(&req)
		switch {
		case errors.Is(err, ErrCollision):
			pos, err := d.collisionPosition(known)
			if err != nil {
				return 0, err
			}
			known = pos
			// Choose the card whose bit at the collision is 1
			buffer[2+(pos-1)/8] |= 1 << ((pos - 1) % 8)
			debugf("collision at bit %d, continuing with %d known bits", pos, known)
			continue
		case err != nil:
			return 0, err
		}

		if known < 32 {
			known = 32
			continue
		}

		if res.N != 3 || res.ValidBits != 0 {
			return 0, fmt.Errorf("%w: SAK of %d bytes, %d valid bits", ErrCommunication, res.N, res.ValidBits)
		}
		crc, err := d.CalculateCRC(buffer[6:7])
		if err != nil {
			return 0, err
		}
		if crc[0] != buffer[7] || crc[1] != buffer[8] {
			return 0, fmt.Errorf("%w: SAK", ErrCRCMismatch)
		}
		break
	}

	// buffer[6:8] now holds SAK and CRC; the UID CLn bytes are untouched.
	// The last level never carries a cascade tag.
	if level < len(selectCommands) && buffer[2] == PICCCmdCT {
		copy(u.uid[uidIndex:uidIndex+3], buffer[3:6])
	} else {
		copy(u.uid[uidIndex:uidIndex+4], buffer[2:6])
	}
	return buffer[6], nil
}

// collisionPosition reads CollReg and returns the 1-based position of the
// first colliding bit, which must be beyond the bits already known
func (d *Device) collisionPosition(known int) (int, error) {
	coll, err := d.transport.ReadRegister(CollReg)
	if err != nil {
		return 0, err
	}
	if coll&bitCollPosNotValid != 0 {
		return 0, ErrCollision
	}
	pos := int(coll & maskCollPos)
	if pos == 0 {
		pos = 32
	}
	if pos <= known {
		return 0, fmt.Errorf("%w: collision at bit %d with %d bits known", ErrInternal, pos, known)
	}
	return pos, nil
}
