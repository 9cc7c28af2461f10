// Package testing provides simulated ISO 14443A cards for driver tests
package testing

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/ZaparooProject/go-mfrc522/internal/frame"
)

// Fixture UIDs of every size
var (
	TestUID4  = []byte{0xDE, 0xAD, 0xBE, 0xEF}
	TestUID7  = []byte{0x04, 0x52, 0x3A, 0x9A, 0x6B, 0x5C, 0x80}
	TestUID10 = []byte{0x08, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99}
)

// CardState is the ISO 14443-3 state of a card
type CardState int

// Card states
const (
	StateIdle CardState = iota
	StateReady
	StateActive
	StateHalt
)

// VirtualCard represents a simulated ISO 14443A card
type VirtualCard struct {
	UID     []byte
	ATQA    [2]byte
	SAK     byte
	Present bool
	state   CardState
	level   int
}

// NewVirtualCard creates a present card in state IDLE with an ATQA matching
// the UID size
func NewVirtualCard(uid []byte, sak byte) *VirtualCard {
	c := &VirtualCard{
		UID:     append([]byte(nil), uid...),
		SAK:     sak,
		Present: true,
	}
	switch len(uid) {
	case 7:
		c.ATQA = [2]byte{0x44, 0x00}
	case 10:
		c.ATQA = [2]byte{0x84, 0x00}
	default:
		c.ATQA = [2]byte{0x04, 0x00}
	}
	return c
}

// NewVirtualMIFARE1K creates a MIFARE Classic 1K card
func NewVirtualMIFARE1K(uid []byte) *VirtualCard {
	if uid == nil {
		uid = TestUID4
	}
	return NewVirtualCard(uid, 0x08)
}

// NewVirtualUltralight creates a MIFARE Ultralight card
func NewVirtualUltralight(uid []byte) *VirtualCard {
	if uid == nil {
		uid = TestUID7
	}
	return NewVirtualCard(uid, 0x00)
}

// GetUIDString returns the UID as upper-case hex
func (c *VirtualCard) GetUIDString() string {
	return strings.ToUpper(hex.EncodeToString(c.UID))
}

// State returns the current card state
func (c *VirtualCard) State() CardState {
	return c.state
}

// Levels returns the number of cascade levels of the UID
func (c *VirtualCard) Levels() int {
	switch len(c.UID) {
	case 7:
		return 2
	case 10:
		return 3
	default:
		return 1
	}
}

// Remove takes the card out of the field
func (c *VirtualCard) Remove() {
	c.Present = false
	c.state = StateIdle
}

// Insert puts the card back into the field, powered up in state IDLE
func (c *VirtualCard) Insert() {
	c.Present = true
	c.state = StateIdle
}

// PowerCycle models the field being switched off and on again
func (c *VirtualCard) PowerCycle() {
	c.state = StateIdle
	c.level = 0
}

// Request handles REQA and WUPA and returns the ATQA when the card answers
func (c *VirtualCard) Request(wakeup bool) ([]byte, bool) {
	if !c.Present {
		return nil, false
	}
	if c.state == StateIdle || (wakeup && c.state == StateHalt) {
		c.state = StateReady
		c.level = 1
		return c.ATQA[:], true
	}
	return nil, false
}

// CascadeBytes returns the four UID CLn bytes followed by BCC for level 1..3
func (c *VirtualCard) CascadeBytes(level int) []byte {
	start := 3 * (level - 1)
	var cln []byte
	if level == c.Levels() {
		cln = append(cln, c.UID[start:start+4]...)
	} else {
		cln = append([]byte{0x88}, c.UID[start:start+3]...)
	}
	return append(cln, frame.BCC(cln))
}

// Anticollision returns the bits of CLn+BCC following the known prefix, LSB
// first, when the card is READY at level and its UID matches the prefix
func (c *VirtualCard) Anticollision(level int, known []byte, knownBits int) ([]bool, bool) {
	if !c.listening(level) {
		return nil, false
	}
	cln := Bits(c.CascadeBytes(level), 40)
	prefix := Bits(known, knownBits)
	for i, b := range prefix {
		if cln[i] != b {
			return nil, false
		}
	}
	return cln[knownBits:], true
}

// Select handles a complete SELECT frame (SEL, 0x70, CLn, BCC, CRC_A) and
// returns SAK + CRC_A when the card is addressed
func (c *VirtualCard) Select(level int, f []byte) ([]byte, bool) {
	if !c.listening(level) || len(f) != 9 || !frame.ValidCRCA(f) {
		return nil, false
	}
	if !bytes.Equal(f[2:7], c.CascadeBytes(level)) {
		return nil, false
	}

	sak := c.SAK
	if level < c.Levels() {
		sak = 0x04
		c.level++
	} else {
		c.state = StateActive
	}
	return frame.AppendCRCA([]byte{sak}), true
}

// Halt handles HLTA. Only a selected card reacts.
func (c *VirtualCard) Halt(f []byte) {
	if c.Present && c.state == StateActive && len(f) == 4 && frame.ValidCRCA(f) {
		c.state = StateHalt
	}
}

func (c *VirtualCard) listening(level int) bool {
	return c.Present && c.state == StateReady && c.level == level
}
