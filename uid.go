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
	"encoding/hex"
	"strconv"
	"strings"
)

// MaxUIDSize is the length of a triple size UID
const MaxUIDSize = 10

// UID is the identifier of a selected card together with its SAK
type UID struct {
	uid  [MaxUIDSize]byte
	Size int
	SAK  byte
}

// NewUID builds a UID from raw bytes. It is meant for fixtures and for
// re-creating identifiers of known cards; b must be 4, 7 or 10 bytes long.
func NewUID(b []byte, sak byte) (UID, error) {
	var u UID
	switch len(b) {
	case 4, 7, 10:
	default:
		return u, ErrInvalidArgument
	}
	copy(u.uid[:], b)
	u.Size = len(b)
	u.SAK = sak
	return u, nil
}

// Bytes returns the first Size bytes of the identifier
func (u UID) Bytes() []byte {
	n := u.Size
	if n < 0 || n > MaxUIDSize {
		n = 0
	}
	out := make([]byte, n)
	copy(out, u.uid[:n])
	return out
}

// CascadeLevels returns how many cascade levels the identifier needed
func (u UID) CascadeLevels() int {
	return (u.Size - 1) / 3
}

// Type returns the card type announced by the SAK
func (u UID) Type() PICCType {
	return GetPICCType(u.SAK)
}

// String returns the identifier as colon separated upper-case hex
func (u UID) String() string {
	b := u.Bytes()
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = strings.ToUpper(hex.EncodeToString([]byte{v}))
	}
	return strings.Join(parts, ":")
}

// Hex returns the identifier as lower-case hex without separators
func (u UID) Hex() string {
	return hex.EncodeToString(u.Bytes())
}

// Sum returns the decimal sum of the identifier bytes
func (u UID) Sum() string {
	total := 0
	for _, v := range u.Bytes() {
		total += int(v)
	}
	return strconv.Itoa(total)
}

// DecimalJoin returns the decimal value of each byte, concatenated
func (u UID) DecimalJoin() string {
	var sb strings.Builder
	for _, v := range u.Bytes() {
		sb.WriteString(strconv.Itoa(int(v)))
	}
	return sb.String()
}
