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

// Package frame provides ISO/IEC 14443-3 type A framing helpers shared by the
// MFRC522 driver and its simulator.
package frame

// CRCPresetA is the CRC_A preset value defined by ISO/IEC 14443-3 part 6.2.4.
const CRCPresetA = 0x6363

// CRC computes a 16-bit ISO/IEC 14443 CRC over data starting from preset.
// The result is returned low byte first, the order in which it is sent on air.
func CRC(preset uint16, data []byte) [2]byte {
	crc := uint32(preset)
	for _, bt := range data {
		bt ^= uint8(crc & 0xff)
		bt ^= bt << 4
		bt32 := uint32(bt)
		crc = (crc >> 8) ^ (bt32 << 8) ^ (bt32 << 3) ^ (bt32 >> 4)
	}
	return [2]byte{byte(crc & 0xff), byte((crc >> 8) & 0xff)}
}

// CRCA computes the ISO/IEC 14443-3 type A CRC of data.
func CRCA(data []byte) [2]byte {
	return CRC(CRCPresetA, data)
}

// AppendCRCA appends the CRC_A of data to data.
func AppendCRCA(data []byte) []byte {
	crc := CRCA(data)
	return append(data, crc[0], crc[1])
}

// ValidCRCA reports whether the last two bytes of data are the CRC_A of the
// bytes preceding them.
func ValidCRCA(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	crc := CRCA(data[:len(data)-2])
	return crc[0] == data[len(data)-2] && crc[1] == data[len(data)-1]
}

// MergeRxAlign combines a freshly received first byte with the byte it
// overwrites when reception started at bit position rxAlign. Only bits
// rxAlign..7 are taken from received; bits below rxAlign keep their old value.
func MergeRxAlign(old, received, rxAlign byte) byte {
	if rxAlign == 0 {
		return received
	}
	mask := byte(0xFF) << (rxAlign & 0x07)
	return (old &^ mask) | (received & mask)
}

// BCC returns the block check character (XOR) of the given UID bytes.
func BCC(b []byte) byte {
	var bcc byte
	for _, v := range b {
		bcc ^= v
	}
	return bcc
}
