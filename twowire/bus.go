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

// Package twowire implements an I²C-style two-wire bus by toggling two GPIO
// lines with microsecond holds, for hosts without a usable bus peripheral.
//
// The bus implements periph's i2c.Bus so register-level drivers can use it
// through an i2c.Dev exactly as they would a hardware bus.
package twowire

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3/cpu"
)

// Bus errors
var (
	ErrNoAck          = errors.New("slave did not acknowledge")
	ErrInvalidAddress = errors.New("address is not a 7-bit address")
	ErrNilPin         = errors.New("clock and data pins are required")
)

// Timing holds the minimum line hold times of the bus. The relative ordering
// of the phases is fixed; only the durations may be tuned.
type Timing struct {
	// Hold separates every clock and data transition of start, stop, write
	// and acknowledge phases.
	Hold time.Duration
	// ReadLow is the clock low phase of a read bit.
	ReadLow time.Duration
	// ReadHigh is the clock high phase before the data line is sampled.
	ReadHigh time.Duration
	// AckPoll is the wait between two samples of the acknowledge bit.
	AckPoll time.Duration
	// AckPolls bounds how many times the acknowledge bit is sampled.
	AckPolls int
}

// DefaultTiming returns the contractual minimum timings.
func DefaultTiming() Timing {
	return Timing{
		Hold:     5 * time.Microsecond,
		ReadLow:  3 * time.Microsecond,
		ReadHigh: 2 * time.Microsecond,
		AckPoll:  1 * time.Microsecond,
		AckPolls: 20,
	}
}

// Option configures a Bus
type Option func(*Bus) error

// WithTiming replaces the bus timing. Durations below the defaults are
// rejected so the minimum holds are always honoured.
func WithTiming(timing Timing) Option {
	return func(b *Bus) error {
		def := DefaultTiming()
		if timing.Hold < def.Hold || timing.ReadLow < def.ReadLow ||
			timing.ReadHigh < def.ReadHigh || timing.AckPoll < def.AckPoll {
			return fmt.Errorf("timing below minimum hold times: %+v", timing)
		}
		if timing.AckPolls <= 0 {
			return fmt.Errorf("ack poll count must be positive, got %d", timing.AckPolls)
		}
		b.timing = timing
		return nil
	}
}

// WithDelay replaces the function used to wait between line transitions.
// The default spins on the CPU, which is what microsecond holds need.
func WithDelay(delay func(time.Duration)) Option {
	return func(b *Bus) error {
		if delay == nil {
			return errors.New("delay function cannot be nil")
		}
		b.delay = delay
		return nil
	}
}

// WithName sets the name reported by String.
func WithName(name string) Option {
	return func(b *Bus) error {
		b.name = name
		return nil
	}
}

// Bus is a software two-wire bus driven through a clock and a data line.
//
// Tx is serialized so a whole transaction is never interleaved with another.
// The low-level phase methods (Start, WriteByte, ...) are not locked; callers
// composing them by hand own the bus for the duration of their sequence.
type Bus struct {
	scl    gpio.PinIO
	sda    gpio.PinIO
	delay  func(time.Duration)
	err    error
	name   string
	timing Timing
	mu     sync.Mutex
}

// New creates a bus on the given clock and data lines and leaves both lines
// released high (bus idle).
func New(scl, sda gpio.PinIO, opts ...Option) (*Bus, error) {
	if scl == nil || sda == nil {
		return nil, ErrNilPin
	}

	b := &Bus{
		scl:    scl,
		sda:    sda,
		delay:  cpu.Nanospin,
		timing: DefaultTiming(),
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	if err := b.release(); err != nil {
		return nil, err
	}
	return b, nil
}

// Register makes a software bus on scl/sda available through i2creg under
// name, so it can be opened with i2creg.Open like any other bus.
func Register(name string, aliases []string, number int, scl, sda gpio.PinIO, opts ...Option) error {
	opener := func() (i2c.BusCloser, error) {
		return New(scl, sda, append([]Option{WithName(name)}, opts...)...)
	}
	if err := i2creg.Register(name, aliases, number, opener); err != nil {
		return fmt.Errorf("failed to register bus %s: %w", name, err)
	}
	return nil
}

// String implements conn.Resource
func (b *Bus) String() string {
	if b.name != "" {
		return b.name
	}
	return fmt.Sprintf("twowire(%s,%s)", b.scl, b.sda)
}

// Timing returns the timing currently in use.
func (b *Bus) Timing() Timing {
	return b.timing
}

// SetSpeed implements i2c.Bus. The clock half-period becomes half of the
// requested period, but never drops below the minimum hold time, so speeds
// above 100kHz are clamped.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("invalid bus speed %s", f)
	}
	hold := f.Period() / 2
	if minHold := DefaultTiming().Hold; hold < minHold {
		hold = minHold
	}
	b.mu.Lock()
	b.timing.Hold = hold
	b.mu.Unlock()
	return nil
}

// Halt implements conn.Resource by releasing both lines.
func (b *Bus) Halt() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.release()
}

// Close releases both lines. The pins themselves stay owned by the caller.
func (b *Bus) Close() error {
	return b.Halt()
}

// Tx implements i2c.Bus.
//
// The transaction writes addr<<1 and every byte of w, each followed by a
// slave acknowledge. When r is not empty the bus is stopped and restarted
// with (addr<<1)|1, then len(r) bytes are read, acknowledged by the master
// except the last one, which is not-acknowledged before the final stop.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return fmt.Errorf("%w: 0x%X", ErrInvalidAddress, addr)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.err = nil
	err := b.tx(byte(addr), w, r)
	if err != nil {
		// Return the lines to idle so the next transaction starts clean.
		b.err = nil
		_ = b.Stop()
	}
	b.err = nil
	return err
}

func (b *Bus) tx(addr byte, w, r []byte) error {
	if err := b.Start(); err != nil {
		return err
	}
	if err := b.writeAcked(addr<<1, "write address", 0); err != nil {
		return err
	}
	for i, v := range w {
		if err := b.writeAcked(v, "data", i); err != nil {
			return err
		}
	}
	if len(r) == 0 {
		return b.Stop()
	}

	if err := b.Stop(); err != nil {
		return err
	}
	if err := b.Start(); err != nil {
		return err
	}
	if err := b.writeAcked(addr<<1|1, "read address", 0); err != nil {
		return err
	}
	for i := range r {
		v, err := b.ReadByte()
		if err != nil {
			return err
		}
		r[i] = v
		if i < len(r)-1 {
			err = b.MasterAck()
		} else {
			err = b.MasterNack()
		}
		if err != nil {
			return err
		}
	}
	return b.Stop()
}

func (b *Bus) writeAcked(v byte, phase string, index int) error {
	if err := b.WriteByte(v); err != nil {
		return err
	}
	if err := b.SlaveAck(); err != nil {
		return fmt.Errorf("%s byte %d (0x%02X): %w", phase, index, v, err)
	}
	return nil
}

// Start drives both lines high, then pulls data low while the clock is high
// and finally pulls the clock low.
func (b *Bus) Start() error {
	b.out(b.scl, gpio.High)
	b.out(b.sda, gpio.High)
	b.delay(b.timing.Hold)
	b.out(b.sda, gpio.Low)
	b.delay(b.timing.Hold)
	b.out(b.scl, gpio.Low)
	return b.err
}

// Stop drives both lines low, then releases the clock and the data line.
func (b *Bus) Stop() error {
	b.out(b.scl, gpio.Low)
	b.out(b.sda, gpio.Low)
	b.delay(b.timing.Hold)
	b.out(b.scl, gpio.High)
	b.out(b.sda, gpio.High)
	b.delay(b.timing.Hold)
	return b.err
}

// WriteByte shifts v out most significant bit first, one clock pulse per bit.
func (b *Bus) WriteByte(v byte) error {
	b.out(b.scl, gpio.Low)
	b.out(b.sda, gpio.Low)
	for i := 0; i < 8; i++ {
		b.out(b.sda, v&0x80 != 0)
		b.out(b.scl, gpio.High)
		b.delay(b.timing.Hold)
		b.out(b.scl, gpio.Low)
		b.delay(b.timing.Hold)
		v <<= 1
	}
	return b.err
}

// ReadByte clocks in eight bits most significant bit first with the data line
// released as a pulled-up input.
func (b *Bus) ReadByte() (byte, error) {
	var v byte
	b.out(b.scl, gpio.Low)
	b.in(b.sda)
	for i := 0; i < 8; i++ {
		b.out(b.scl, gpio.Low)
		b.delay(b.timing.ReadLow)
		b.out(b.scl, gpio.High)
		b.delay(b.timing.ReadHigh)
		v <<= 1
		if b.sda.Read() == gpio.High {
			v |= 1
		}
		b.delay(b.timing.Hold)
	}
	return v, b.err
}

// MasterAck tells the slave another byte will be read.
func (b *Bus) MasterAck() error {
	return b.masterAck(gpio.Low)
}

// MasterNack tells the slave the last byte has been read.
func (b *Bus) MasterNack() error {
	return b.masterAck(gpio.High)
}

func (b *Bus) masterAck(level gpio.Level) error {
	b.out(b.scl, gpio.Low)
	b.out(b.sda, level)
	b.delay(b.timing.Hold)
	b.out(b.scl, gpio.High)
	b.delay(b.timing.Hold)
	b.out(b.scl, gpio.Low)
	return b.err
}

// SlaveAck releases the data line, raises the clock and waits for the slave
// to pull data low. The line is sampled at most Timing.AckPolls times; if it
// never goes low ErrNoAck is returned.
func (b *Bus) SlaveAck() error {
	b.out(b.scl, gpio.Low)
	b.in(b.sda)
	b.out(b.scl, gpio.High)
	b.delay(b.timing.Hold)
	if b.err != nil {
		return b.err
	}
	for i := 0; i < b.timing.AckPolls; i++ {
		if b.sda.Read() == gpio.Low {
			return nil
		}
		b.delay(b.timing.AckPoll)
	}
	return ErrNoAck
}

func (b *Bus) release() error {
	if err := b.scl.Out(gpio.High); err != nil {
		return fmt.Errorf("failed to release %s: %w", b.scl, err)
	}
	if err := b.sda.Out(gpio.High); err != nil {
		return fmt.Errorf("failed to release %s: %w", b.sda, err)
	}
	return nil
}

// out drives p and records the first failure; later calls become no-ops so
// a bit loop stays readable and the error is reported by the phase method.
func (b *Bus) out(p gpio.PinOut, l gpio.Level) {
	if b.err != nil {
		return
	}
	if err := p.Out(l); err != nil {
		b.err = fmt.Errorf("failed to drive %s %s: %w", p, l, err)
	}
}

func (b *Bus) in(p gpio.PinIn) {
	if b.err != nil {
		return
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		b.err = fmt.Errorf("failed to release %s: %w", p, err)
	}
}

// Ensure Bus implements i2c.BusCloser
var _ i2c.BusCloser = (*Bus)(nil)
