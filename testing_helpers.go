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
	"sync"

	"github.com/ZaparooProject/go-mfrc522/internal/frame"
	testutil "github.com/ZaparooProject/go-mfrc522/internal/testing"
)

// Frame is one transmission recorded by VirtualReader
type Frame struct {
	Data       []byte
	TxLastBits byte
	RxAlign    byte
}

// Bits returns how many bits of Data were transmitted
func (f Frame) Bits() int {
	if len(f.Data) == 0 {
		return 0
	}
	if f.TxLastBits == 0 {
		return 8 * len(f.Data)
	}
	return 8*(len(f.Data)-1) + int(f.TxLastBits)
}

// ScriptedResponse replaces the answer of the simulated cards to one frame
type ScriptedResponse struct {
	// Data is placed into the FIFO as is
	Data []byte
	// RxLastBits is reported in ControlReg
	RxLastBits byte
	// ErrorReg is reported in ErrorReg
	ErrorReg byte
	// CollReg is reported in CollReg, bit 7 is kept from the last write
	CollReg byte
	// Timeout makes the chip timer expire instead of receiving Data
	Timeout bool
}

// VirtualReader is a register-level MFRC522 simulator with ISO 14443A cards
// in its field. It implements Transport for tests.
type VirtualReader struct {
	// Responder, when set, is asked first for every transmitted frame. A nil
	// return falls through to the simulated cards.
	Responder func(f Frame) *ScriptedResponse
	// Err is returned by every register access while not nil
	Err error
	// ResetLatency is how many CommandReg reads keep PowerDown set after a
	// soft reset; a negative value never clears it
	ResetLatency int
	// StuckIRq keeps ComIrqReg empty after Transceive
	StuckIRq bool
	// StuckCRC keeps CRCIRq clear after CalcCRC
	StuckCRC bool
	// VersionValue is returned for VersionReg
	VersionValue byte

	regs       [64]byte
	reads      map[Register]int
	cards      []*testutil.VirtualCard
	fifo       []byte
	frames     []Frame
	resetPolls int
	mu         sync.Mutex
	closed     bool
}

// NewVirtualReader creates a simulated v2.0 chip in its power-on state with
// the given cards in the field
func NewVirtualReader(cards ...*testutil.VirtualCard) *VirtualReader {
	r := &VirtualReader{
		VersionValue: byte(Version20),
		reads:        make(map[Register]int),
		cards:        cards,
	}
	r.softReset()
	r.regs[CommandReg] &^= bitPowerDown
	return r
}

// AddCard puts a card into the field
func (r *VirtualReader) AddCard(c *testutil.VirtualCard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards = append(r.cards, c)
}

// RemoveCards empties the field
func (r *VirtualReader) RemoveCards() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards = nil
}

// WithCard runs fn with the card while holding the simulator lock
func (r *VirtualReader) WithCard(c *testutil.VirtualCard, fn func(*testutil.VirtualCard)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(c)
}

// Frames returns the transmitted frames in order
func (r *VirtualReader) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

// ResetFrames forgets the recorded frames
func (r *VirtualReader) ResetFrames() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}

// Reads returns how many times reg was read
func (r *VirtualReader) Reads(reg Register) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads[reg]
}

// Peek returns a register value without side effects
func (r *VirtualReader) Peek(reg Register) byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.regs[reg&0x3F]
}

// ReadRegister implements Transport
func (r *VirtualReader) ReadRegister(reg Register) (byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return 0, err
	}
	return r.read(reg), nil
}

// WriteRegister implements Transport
func (r *VirtualReader) WriteRegister(reg Register, value byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return err
	}
	r.write(reg, value)
	return nil
}

// ReadRegisterBurst implements Transport
func (r *VirtualReader) ReadRegisterBurst(reg Register, dst []byte, rxAlign byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return err
	}
	if len(dst) > fifoSize {
		return NewTransportError("ReadRegisterBurst", "virtual", ErrDataTooLarge, ErrorTypePermanent)
	}
	for i := range dst {
		v := r.read(reg)
		if i == 0 && rxAlign > 0 {
			v = frame.MergeRxAlign(dst[0], v, rxAlign)
		}
		dst[i] = v
	}
	return nil
}

// WriteRegisterBurst implements Transport
func (r *VirtualReader) WriteRegisterBurst(reg Register, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return err
	}
	if len(data) > fifoSize {
		return NewTransportError("WriteRegisterBurst", "virtual", ErrDataTooLarge, ErrorTypePermanent)
	}
	for _, v := range data {
		r.write(reg, v)
	}
	return nil
}

// Close implements Transport
func (r *VirtualReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Type implements Transport
func (*VirtualReader) Type() TransportType {
	return TransportMock
}

func (r *VirtualReader) check() error {
	if r.closed {
		return ErrClosed
	}
	return r.Err
}

func (r *VirtualReader) read(reg Register) byte {
	reg &= 0x3F
	r.reads[reg]++

	switch reg {
	case CommandReg:
		v := r.regs[CommandReg]
		if v&bitPowerDown != 0 && r.ResetLatency >= 0 {
			if r.resetPolls >= r.ResetLatency {
				v &^= bitPowerDown
				r.regs[CommandReg] = v
			}
			r.resetPolls++
		}
		return v
	case FIFODataReg:
		if len(r.fifo) == 0 {
			return 0
		}
		v := r.fifo[0]
		r.fifo = r.fifo[1:]
		return v
	case FIFOLevelReg:
		return byte(len(r.fifo))
	case VersionReg:
		return r.VersionValue
	default:
		return r.regs[reg]
	}
}

func (r *VirtualReader) write(reg Register, v byte) {
	reg &= 0x3F

	switch reg {
	case CommandReg:
		r.command(v)
	case ComIrqReg, DivIrqReg:
		if v&0x80 != 0 {
			r.regs[reg] |= v & 0x7F
		} else {
			r.regs[reg] &^= v & 0x7F
		}
	case FIFOLevelReg:
		if v&bitFlushBuffer != 0 {
			r.fifo = r.fifo[:0]
		}
	case FIFODataReg:
		if len(r.fifo) >= fifoSize {
			r.regs[ErrorReg] |= 0x10 // BufferOvfl
			return
		}
		r.fifo = append(r.fifo, v)
	case BitFramingReg:
		r.regs[BitFramingReg] = v &^ bitStartSend
		if v&bitStartSend != 0 && Command(r.regs[CommandReg]&0x0F) == PCDTransceive {
			r.transceive()
		}
	case CollReg:
		r.regs[CollReg] = v & bitValuesAfterColl
	case ControlReg:
		r.regs[ControlReg] = r.regs[ControlReg]&maskRxLastBits | v&^maskRxLastBits
	case ErrorReg, Status1Reg:
		// read-only
	default:
		r.regs[reg] = v
	}
}

func (r *VirtualReader) command(v byte) {
	cmd := Command(v & 0x0F)
	r.regs[CommandReg] = r.regs[CommandReg]&^0x1F | v&0x1F

	switch cmd {
	case PCDSoftReset:
		r.softReset()
	case PCDCalcCRC:
		if r.StuckCRC {
			return
		}
		presets := [...]uint16{0x0000, 0x6363, 0xA671, 0xFFFF}
		crc := frame.CRC(presets[r.regs[ModeReg]&0x03], r.fifo)
		r.regs[CRCResultRegL] = crc[0]
		r.regs[CRCResultRegH] = crc[1]
		r.regs[DivIrqReg] |= bitCRCIRq
	}
}

func (r *VirtualReader) softReset() {
	r.regs = [64]byte{}
	r.regs[CommandReg] = 0x20 | bitPowerDown
	r.regs[ComIEnReg] = 0x80
	r.regs[ComIrqReg] = 0x14
	r.regs[WaterLevelReg] = 0x08
	r.regs[ControlReg] = 0x10
	r.regs[ModeReg] = 0x3F
	r.regs[TxControlReg] = 0x80
	r.regs[RFCfgReg] = 0x48
	r.fifo = r.fifo[:0]
	r.resetPolls = 0
	// The field is switched off
	for _, c := range r.cards {
		c.PowerCycle()
	}
}

// transceive sends the FIFO content to the field and loads the answer
func (r *VirtualReader) transceive() {
	f := Frame{
		Data:       append([]byte(nil), r.fifo...),
		TxLastBits: r.regs[BitFramingReg] & 0x07,
		RxAlign:    (r.regs[BitFramingReg] >> 4) & 0x07,
	}
	r.frames = append(r.frames, f)
	r.fifo = r.fifo[:0]
	r.regs[ErrorReg] = 0
	r.regs[CollReg] &= bitValuesAfterColl
	r.regs[ControlReg] &^= maskRxLastBits

	var resp *ScriptedResponse
	if r.Responder != nil {
		resp = r.Responder(f)
	}
	if resp == nil {
		resp = r.field(f)
	}

	if r.StuckIRq {
		return
	}
	if resp.Timeout {
		r.regs[ComIrqReg] |= 0x40 | bitTimerIRq // TxIRq, TimerIRq
		return
	}
	r.fifo = append(r.fifo, resp.Data...)
	r.regs[ControlReg] |= resp.RxLastBits & maskRxLastBits
	r.regs[ErrorReg] = resp.ErrorReg
	r.regs[CollReg] |= resp.CollReg &^ bitValuesAfterColl
	r.regs[ComIrqReg] |= 0x40 | bitRxIRq | bitIdleIRq
}

// field computes the superposed answer of all cards to f
func (r *VirtualReader) field(f Frame) *ScriptedResponse {
	timeout := &ScriptedResponse{Timeout: true}
	if r.regs[TxControlReg]&maskAntenna != maskAntenna || len(f.Data) == 0 {
		return timeout
	}

	var answers [][]bool
	switch {
	case len(f.Data) == 1 && f.TxLastBits == 7 && (f.Data[0] == PICCCmdREQA || f.Data[0] == PICCCmdWUPA):
		for _, c := range r.cards {
			if atqa, ok := c.Request(f.Data[0] == PICCCmdWUPA); ok {
				answers = append(answers, testutil.Bits(atqa, 16))
			}
		}

	case f.Data[0] == PICCCmdHLTA:
		for _, c := range r.cards {
			c.Halt(f.Data)
		}
		return timeout

	case len(f.Data) >= 2 && isSelectCommand(f.Data[0]):
		level := int(f.Data[0]-PICCCmdSelCL1)/2 + 1
		nvb := f.Data[1]
		if nvb == 0x70 && f.TxLastBits == 0 {
			for _, c := range r.cards {
				if sak, ok := c.Select(level, f.Data); ok {
					answers = append(answers, testutil.Bits(sak, 24))
				}
			}
			break
		}
		known := 8*(int(nvb>>4)-2) + int(nvb&0x0F)
		if known < 0 || known > 32 || f.Bits() != 16+known {
			return timeout
		}
		for _, c := range r.cards {
			if rest, ok := c.Anticollision(level, f.Data[2:], known); ok {
				answers = append(answers, rest)
			}
		}
		if len(answers) == 0 {
			return timeout
		}
		merged := testutil.Merge(answers)
		data, last := testutil.Pack(merged.Bits, int(f.RxAlign))
		resp := &ScriptedResponse{Data: data, RxLastBits: last}
		if merged.Pos != 0 {
			pos := known + merged.Pos
			resp.ErrorReg = bitCollErr
			if pos > 32 {
				resp.CollReg = bitCollPosNotValid
			} else {
				resp.CollReg = byte(pos) & maskCollPos
			}
		}
		return resp
	}

	if len(answers) == 0 {
		return timeout
	}
	merged := testutil.Merge(answers)
	data, last := testutil.Pack(merged.Bits, int(f.RxAlign))
	resp := &ScriptedResponse{Data: data, RxLastBits: last}
	if merged.Pos != 0 {
		resp.ErrorReg = bitCollErr
		resp.CollReg = bitCollPosNotValid
	}
	return resp
}

func isSelectCommand(b byte) bool {
	return b == PICCCmdSelCL1 || b == PICCCmdSelCL2 || b == PICCCmdSelCL3
}
