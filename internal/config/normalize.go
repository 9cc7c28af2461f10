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

package config

import (
	"strings"

	"github.com/ZaparooProject/go-mfrc522/access"
	"github.com/ZaparooProject/go-mfrc522/transport/i2c"
	"github.com/ZaparooProject/go-mfrc522/transport/uart"
)

// Defaults applied by Normalize
const (
	DefaultBusName          = "SOFT0"
	DefaultSpeedKHz         = 100
	DefaultIntervalMs       = 100
	DefaultRemovalTimeoutMs = 600
)

// Normalize fills defaults and canonicalizes names and UIDs.
// It must be called only after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	r := &cfg.Reader
	r.Transport = strings.ToLower(r.Transport)
	if r.Transport == "" {
		r.Transport = TransportTwoWire
	}
	switch r.Transport {
	case TransportTwoWire:
		if r.Address == 0 {
			r.Address = i2c.DefaultAddress
		}
		if r.SpeedKHz == 0 {
			r.SpeedKHz = DefaultSpeedKHz
		}
		if r.BusName == "" {
			r.BusName = DefaultBusName
		}
	case TransportUART:
		if r.Baud == 0 {
			r.Baud = uart.DefaultBaudRate
		}
	}

	p := &cfg.Poll
	if p.IntervalMs == 0 {
		p.IntervalMs = DefaultIntervalMs
	}
	if p.RemovalTimeoutMs == 0 {
		p.RemovalTimeoutMs = DefaultRemovalTimeoutMs
		if p.RemovalTimeoutMs <= p.IntervalMs {
			p.RemovalTimeoutMs = 6 * p.IntervalMs
		}
	}

	a := &cfg.Access
	a.Fingerprint = strings.ToLower(a.Fingerprint)
	if a.Fingerprint == "" {
		a.Fingerprint = string(access.FingerprintSum)
	}
	for i := range a.Cards {
		a.Cards[i].UID = normalizeUID(access.Fingerprint(a.Fingerprint), a.Cards[i].UID)
	}
}

// normalizeUID trims the UID and, for hex fingerprints, drops separators and
// lowers the case so "DE:AD:BE:EF" matches UID.Hex.
func normalizeUID(scheme access.Fingerprint, uid string) string {
	uid = strings.TrimSpace(uid)
	if scheme == access.FingerprintHex {
		uid = strings.NewReplacer(":", "", " ", "", "-", "").Replace(uid)
		uid = strings.ToLower(uid)
	}
	return uid
}
