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

// Package access holds the in-memory table of authorized cards.
//
// Cards are keyed by a fingerprint string derived from their UID. The table
// is seeded by the application at startup and never persisted.
package access

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
)

// Fingerprint names the scheme used to turn a UID into a table key
type Fingerprint string

// Fingerprint schemes
const (
	// FingerprintSum is the decimal sum of the UID bytes.
	FingerprintSum Fingerprint = "sum"
	// FingerprintDecimal is the decimal value of each byte, concatenated.
	FingerprintDecimal Fingerprint = "decimal"
	// FingerprintHex is the lower-case hex of the UID.
	FingerprintHex Fingerprint = "hex"
)

// FingerprintFunc returns the function that computes fingerprints of scheme f
func FingerprintFunc(f Fingerprint) (func(mfrc522.UID) string, error) {
	switch f {
	case FingerprintSum:
		return mfrc522.UID.Sum, nil
	case FingerprintDecimal:
		return mfrc522.UID.DecimalJoin, nil
	case FingerprintHex:
		return mfrc522.UID.Hex, nil
	default:
		return nil, fmt.Errorf("%w: unknown fingerprint scheme %q", mfrc522.ErrInvalidParameter, f)
	}
}

// Table maps fingerprints to card labels. It is safe for concurrent use.
type Table struct {
	entries     map[string]string
	fingerprint func(mfrc522.UID) string
	mu          sync.RWMutex
}

// NewTable creates an empty table keyed by the given scheme
func NewTable(f Fingerprint) (*Table, error) {
	fn, err := FingerprintFunc(f)
	if err != nil {
		return nil, err
	}
	return &Table{
		entries:     make(map[string]string),
		fingerprint: fn,
	}, nil
}

// Fingerprint returns the key of uid in this table
func (t *Table) Fingerprint(uid mfrc522.UID) string {
	return t.fingerprint(uid)
}

// Add authorizes fingerprint under label, replacing any previous label
func (t *Table) Add(fingerprint, label string) error {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return fmt.Errorf("%w: empty fingerprint", mfrc522.ErrInvalidParameter)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[fingerprint] = label
	return nil
}

// Remove revokes fingerprint and reports whether it was present
func (t *Table) Remove(fingerprint string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[fingerprint]
	delete(t.entries, fingerprint)
	return ok
}

// IsAuthorized reports whether fingerprint is in the table
func (t *Table) IsAuthorized(fingerprint string) bool {
	_, ok := t.Label(fingerprint)
	return ok
}

// Label returns the label stored for fingerprint
func (t *Table) Label(fingerprint string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	label, ok := t.entries[fingerprint]
	return label, ok
}

// Check looks uid up by its fingerprint
func (t *Table) Check(uid mfrc522.UID) (label string, ok bool) {
	return t.Label(t.fingerprint(uid))
}

// Len returns the number of authorized fingerprints
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Fingerprints returns the authorized fingerprints in sorted order
func (t *Table) Fingerprints() []string {
	t.mu.RLock()
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	t.mu.RUnlock()

	sort.Strings(keys)
	return keys
}
