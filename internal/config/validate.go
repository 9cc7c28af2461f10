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
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ZaparooProject/go-mfrc522/access"
)

// Validate checks configuration correctness.
// Zero values mean "use the default" and are accepted; Normalize fills them.
// It does not mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := validateReader(&cfg.Reader); err != nil {
		return fmt.Errorf("reader: %w", err)
	}
	if err := validatePoll(&cfg.Poll); err != nil {
		return fmt.Errorf("poll: %w", err)
	}
	if err := validateAccess(&cfg.Access); err != nil {
		return fmt.Errorf("access: %w", err)
	}
	return nil
}

func validateReader(r *ReaderConfig) error {
	switch strings.ToLower(r.Transport) {
	case "", TransportTwoWire:
		if r.SCL == "" || r.SDA == "" {
			return fmt.Errorf("scl and sda pins are required for the %s transport", TransportTwoWire)
		}
		if strings.EqualFold(r.SCL, r.SDA) {
			return fmt.Errorf("scl and sda cannot be the same pin %q", r.SCL)
		}
		if r.Address > 0x7F {
			return fmt.Errorf("address 0x%X is not a 7-bit address", r.Address)
		}
		if r.SpeedKHz < 0 || r.SpeedKHz > 100 {
			return fmt.Errorf("speed_khz %d outside 1..100", r.SpeedKHz)
		}
	case TransportUART:
		if r.Port == "" {
			return fmt.Errorf("port is required for the %s transport", TransportUART)
		}
		if r.Baud < 0 {
			return fmt.Errorf("baud %d is negative", r.Baud)
		}
	default:
		return fmt.Errorf("unknown transport %q", r.Transport)
	}

	if r.AntennaGain != 0 {
		if _, ok := r.Gain(); !ok {
			return fmt.Errorf("antenna_gain_db %d is not one of 18, 23, 33, 38, 43, 48", r.AntennaGain)
		}
	}
	return nil
}

func validatePoll(p *PollConfig) error {
	for name, v := range map[string]int{
		"interval_ms":        p.IntervalMs,
		"removal_timeout_ms": p.RemovalTimeoutMs,
		"idle_interval_ms":   p.IdleIntervalMs,
		"idle_after_ms":      p.IdleAfterMs,
	} {
		if v < 0 {
			return fmt.Errorf("%s %d is negative", name, v)
		}
	}
	if p.IntervalMs > 0 && p.RemovalTimeoutMs > 0 && p.RemovalTimeoutMs <= p.IntervalMs {
		return fmt.Errorf("removal_timeout_ms %d must be longer than interval_ms %d", p.RemovalTimeoutMs, p.IntervalMs)
	}
	return nil
}

func validateAccess(a *AccessConfig) error {
	scheme := access.Fingerprint(strings.ToLower(a.Fingerprint))
	if scheme == "" {
		scheme = access.FingerprintSum
	}
	if _, err := access.FingerprintFunc(scheme); err != nil {
		return err
	}

	seen := make(map[string]int, len(a.Cards))
	for i, c := range a.Cards {
		uid := normalizeUID(scheme, c.UID)
		if uid == "" {
			return fmt.Errorf("card %d: uid is empty", i)
		}
		if err := checkFingerprint(scheme, uid); err != nil {
			return fmt.Errorf("card %d (%q): %w", i, c.UID, err)
		}
		if prev, ok := seen[uid]; ok {
			return fmt.Errorf("card %d: uid %q already listed as card %d", i, c.UID, prev)
		}
		seen[uid] = i
	}
	return nil
}

func checkFingerprint(scheme access.Fingerprint, uid string) error {
	switch scheme {
	case access.FingerprintHex:
		b, err := hex.DecodeString(uid)
		if err != nil {
			return fmt.Errorf("not hex: %w", err)
		}
		switch len(b) {
		case 4, 7, 10:
		default:
			return fmt.Errorf("%d bytes is not a UID size", len(b))
		}
	case access.FingerprintSum:
		// A 10 byte UID sums to at most 2550.
		n, err := strconv.Atoi(uid)
		if err != nil || n < 0 || n > 2550 {
			return errors.New("not a byte sum")
		}
	case access.FingerprintDecimal:
		if strings.Trim(uid, "0123456789") != "" {
			return errors.New("not decimal")
		}
	}
	return nil
}
