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

package testing

// Bits unpacks the first n bits of b, least significant bit of each byte
// first, which is the order bits travel over the air
func Bits(b []byte, n int) []bool {
	if n > 8*len(b) {
		n = 8 * len(b)
	}
	out := make([]bool, n)
	for i := range out {
		out[i] = b[i/8]&(1<<(i%8)) != 0
	}
	return out
}

// Pack places bits into bytes starting at bit offset align of the first
// byte. It returns the bytes and the number of valid bits in the last byte,
// 0 meaning all eight.
func Pack(bits []bool, align int) ([]byte, byte) {
	total := align + len(bits)
	out := make([]byte, (total+7)/8)
	for i, b := range bits {
		if b {
			pos := align + i
			out[pos/8] |= 1 << (pos % 8)
		}
	}
	return out, byte(total % 8)
}

// Collision is the bitwise superposition of several card answers
type Collision struct {
	Bits []bool
	// Pos is the 1-based index in Bits of the first colliding bit, 0 if the
	// answers agree
	Pos int
}

// Merge superposes answers of equal length. Bits from the first collision on
// are reported as 0.
func Merge(answers [][]bool) Collision {
	if len(answers) == 0 {
		return Collision{}
	}
	out := Collision{Bits: make([]bool, len(answers[0]))}
	for i := range out.Bits {
		v := answers[0][i]
		for _, a := range answers[1:] {
			if i < len(a) && a[i] != v {
				out.Pos = i + 1
				break
			}
		}
		if out.Pos != 0 {
			break
		}
		out.Bits[i] = v
	}
	return out
}
