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

	"github.com/ZaparooProject/go-mfrc522/internal/poll"
)

// Version is the content of VersionReg
type Version byte

// Known chip versions
const (
	VersionClone Version = 0x88
	Version10    Version = 0x91
	Version20    Version = 0x92
)

// String returns the chip name for the version
func (v Version) String() string {
	switch v {
	case Version10:
		return "MFRC522 v1.0"
	case Version20:
		return "MFRC522 v2.0"
	case VersionClone:
		return "FM17522 clone"
	case 0x00, 0xFF:
		return fmt.Sprintf("no chip (0x%02X)", byte(v))
	default:
		return fmt.Sprintf("unknown (0x%02X)", byte(v))
	}
}

// Present reports whether the value can come from a responding chip
func (v Version) Present() bool {
	return v != 0x00 && v != 0xFF
}

// Version reads VersionReg
func (d *Device) Version() (Version, error) {
	value, err := d.transport.ReadRegister(VersionReg)
	if err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	d.version = Version(value)
	return d.version, nil
}

// Probe reads the chip version and fails with ErrChipNotFound when the bus
// reads back all zeroes or all ones
func (d *Device) Probe() (Version, error) {
	v, err := d.Version()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrChipNotFound, err)
	}
	if !v.Present() {
		return v, fmt.Errorf("%w: version register reads 0x%02X", ErrChipNotFound, byte(v))
	}
	debugf("found %s", v)
	return v, nil
}

// CalculateCRC runs the CRC coprocessor over data and returns CRC_A low
// byte first
func (d *Device) CalculateCRC(data []byte) ([2]byte, error) {
	var result [2]byte

	if err := d.transport.WriteRegister(CommandReg, byte(PCDIdle)); err != nil {
		return result, err
	}
	if err := d.transport.WriteRegister(DivIrqReg, bitCRCIRq); err != nil {
		return result, err
	}
	if err := d.SetRegisterBitMask(FIFOLevelReg, bitFlushBuffer); err != nil {
		return result, err
	}
	if err := d.transport.WriteRegisterBurst(FIFODataReg, data); err != nil {
		return result, err
	}
	if err := d.transport.WriteRegister(CommandReg, byte(PCDCalcCRC)); err != nil {
		return result, err
	}

	_, err := poll.Bounded(d.config.CRCPollBudget, func() (struct{}, bool, error) {
		n, err := d.transport.ReadRegister(DivIrqReg)
		if err != nil {
			return struct{}{}, false, err
		}
		return struct{}{}, n&bitCRCIRq == 0, nil
	})
	if errors.Is(err, poll.ErrExhausted) {
		return result, fmt.Errorf("CRC coprocessor: %w", ErrTimeout)
	}
	if err != nil {
		return result, err
	}

	// Stop calculating for new FIFO content
	if err := d.transport.WriteRegister(CommandReg, byte(PCDIdle)); err != nil {
		return result, err
	}

	if result[0], err = d.transport.ReadRegister(CRCResultRegL); err != nil {
		return result, err
	}
	if result[1], err = d.transport.ReadRegister(CRCResultRegH); err != nil {
		return result, err
	}
	return result, nil
}

// TransceiveRequest describes one frame exchange with a card
type TransceiveRequest struct {
	// Send is written to the FIFO
	Send []byte
	// Back receives the response. A nil Back discards it.
	Back []byte
	// ValidBits is the number of bits of the last Send byte to transmit,
	// 0 meaning all eight
	ValidBits byte
	// RxAlign is the bit position in Back[0] of the first received bit
	RxAlign byte
	// CheckCRC treats the last two response bytes as CRC_A and verifies them
	CheckCRC bool
}

// TransceiveResult describes the response of a card
type TransceiveResult struct {
	// N is the number of bytes written to Back
	N int
	// ValidBits is the number of valid bits in the last received byte,
	// 0 meaning all eight
	ValidBits byte
}

// Transceive sends req.Send to the card and reads its response into req.Back.
//
// A bit collision returns ErrCollision together with the populated result so
// the caller can resolve it from CollReg.
func (d *Device) Transceive(req *TransceiveRequest) (TransceiveResult, error) {
	return d.CommunicateWithPICC(PCDTransceive, bitRxIRq|bitIdleIRq, req)
}

// CommunicateWithPICC writes req.Send to the FIFO, executes cmd, waits for
// one of the waitIRq bits in ComIrqReg and reads the response back.
func (d *Device) CommunicateWithPICC(cmd Command, waitIRq byte, req *TransceiveRequest) (TransceiveResult, error) {
	var res TransceiveResult
	if req == nil || req.ValidBits > 7 || req.RxAlign > 7 {
		return res, fmt.Errorf("%w: transceive request", ErrInvalidArgument)
	}
	if len(req.Send) > fifoSize {
		return res, fmt.Errorf("%w: %d bytes to send", ErrNoRoom, len(req.Send))
	}

	bitFraming := req.RxAlign<<4 | req.ValidBits
	if err := d.startCommand(cmd, bitFraming, req.Send); err != nil {
		return res, err
	}

	if err := d.waitIRq(waitIRq); err != nil {
		return res, err
	}

	// Stop now if any errors except collisions were detected
	errReg, err := d.transport.ReadRegister(ErrorReg)
	if err != nil {
		return res, err
	}
	if errReg&errFatalMask != 0 {
		return res, fmt.Errorf("%w: error register 0x%02X", ErrCommunication, errReg)
	}

	if req.Back != nil {
		if res, err = d.readResponse(req); err != nil {
			return res, err
		}
	}

	if errReg&bitCollErr != 0 {
		return res, ErrCollision
	}

	if req.Back != nil && req.CheckCRC {
		if err := d.checkResponseCRC(req.Back, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (d *Device) startCommand(cmd Command, bitFraming byte, send []byte) error {
	if err := d.transport.WriteRegister(CommandReg, byte(PCDIdle)); err != nil {
		return err
	}
	if err := d.transport.WriteRegister(ComIrqReg, irqClearAll); err != nil {
		return err
	}
	if err := d.SetRegisterBitMask(FIFOLevelReg, bitFlushBuffer); err != nil {
		return err
	}
	if err := d.transport.WriteRegisterBurst(FIFODataReg, send); err != nil {
		return err
	}
	if err := d.transport.WriteRegister(BitFramingReg, bitFraming); err != nil {
		return err
	}
	if err := d.transport.WriteRegister(CommandReg, byte(cmd)); err != nil {
		return err
	}
	if cmd == PCDTransceive {
		return d.SetRegisterBitMask(BitFramingReg, bitStartSend)
	}
	return nil
}

// waitIRq polls ComIrqReg. The chip timer raises TimerIRq 25ms after the
// transmission when no card answers.
func (d *Device) waitIRq(waitIRq byte) error {
	_, err := poll.Bounded(d.config.IRQPollBudget, func() (struct{}, bool, error) {
		n, err := d.transport.ReadRegister(ComIrqReg)
		if err != nil {
			return struct{}{}, false, err
		}
		if n&waitIRq != 0 {
			return struct{}{}, false, nil
		}
		if n&bitTimerIRq != 0 {
			return struct{}{}, false, fmt.Errorf("no response from card: %w", ErrTimeout)
		}
		return struct{}{}, true, nil
	})
	if errors.Is(err, poll.ErrExhausted) {
		return fmt.Errorf("command did not complete after %d polls: %w", d.config.IRQPollBudget, ErrTimeout)
	}
	return err
}

func (d *Device) readResponse(req *TransceiveRequest) (TransceiveResult, error) {
	var res TransceiveResult

	level, err := d.transport.ReadRegister(FIFOLevelReg)
	if err != nil {
		return res, err
	}
	n := int(level & 0x7F)
	if n > len(req.Back) {
		return res, fmt.Errorf("%w: %d bytes received, room for %d", ErrNoRoom, n, len(req.Back))
	}
	if err := d.transport.ReadRegisterBurst(FIFODataReg, req.Back[:n], req.RxAlign); err != nil {
		return res, err
	}
	res.N = n

	control, err := d.transport.ReadRegister(ControlReg)
	if err != nil {
		return res, err
	}
	res.ValidBits = control & maskRxLastBits
	return res, nil
}

func (d *Device) checkResponseCRC(back []byte, res TransceiveResult) error {
	// A MIFARE Classic NAK is 4 bits
	if res.N == 1 && res.ValidBits == 4 {
		return ErrMifareNack
	}
	if res.N < 2 || res.ValidBits != 0 {
		return fmt.Errorf("%w: %d bytes, %d valid bits", ErrCRCMismatch, res.N, res.ValidBits)
	}

	crc, err := d.CalculateCRC(back[:res.N-2])
	if err != nil {
		return err
	}
	if back[res.N-2] != crc[0] || back[res.N-1] != crc[1] {
		return fmt.Errorf("%w: got %02X %02X, want %02X %02X",
			ErrCRCMismatch, back[res.N-2], back[res.N-1], crc[0], crc[1])
	}
	return nil
}
