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

package main

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTestFlags(t *testing.T, args ...string) (*flag.FlagSet, *flags) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f, err := parseFlags(fs, args)
	require.NoError(t, err)
	return fs, f
}

func TestLoadConfig_FlagsOnly(t *testing.T) {
	t.Parallel()
	fs, f := parseTestFlags(t, "-scl", "GPIO3", "-sda", "GPIO2", "-addr", "0x29")

	cfg, err := loadConfig(fs, f)
	require.NoError(t, err)
	assert.Equal(t, "twowire", cfg.Reader.Transport)
	assert.Equal(t, "GPIO3", cfg.Reader.SCL)
	assert.Equal(t, uint16(0x29), cfg.Reader.Address)
	assert.Equal(t, 100, cfg.Poll.IntervalMs)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reader:\n  scl: GPIO22\n  sda: GPIO21\n  address: 0x2A\n"), 0o600))

	fs, f := parseTestFlags(t, "-config", path, "-sda", "GPIO27")
	cfg, err := loadConfig(fs, f)
	require.NoError(t, err)
	assert.Equal(t, "GPIO22", cfg.Reader.SCL)
	assert.Equal(t, "GPIO27", cfg.Reader.SDA)
	assert.Equal(t, uint16(0x2A), cfg.Reader.Address, "unset flags keep file values")
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	fs, f := parseTestFlags(t)
	_, err := loadConfig(fs, f)
	require.Error(t, err, "a pin pair is required")

	fs, f = parseTestFlags(t, "-scl", "GPIO3", "-sda", "GPIO2", "-addr", "0x128")
	_, err = loadConfig(fs, f)
	require.ErrorContains(t, err, "7-bit")

	fs, f = parseTestFlags(t, "-config", filepath.Join(t.TempDir(), "none.yaml"))
	_, err = loadConfig(fs, f)
	require.Error(t, err)
}

func TestCardHandler(t *testing.T) {
	t.Parallel()
	table, err := access.NewTable(access.FingerprintHex)
	require.NoError(t, err)
	require.NoError(t, table.Add("deadbeef", "front door"))
	handle := cardHandler(table, slog.New(slog.NewTextHandler(io.Discard, nil)))

	known, err := mfrc522.NewUID([]byte{0xDE, 0xAD, 0xBE, 0xEF}, 0x08)
	require.NoError(t, err)
	require.NoError(t, handle(known))

	stranger, err := mfrc522.NewUID([]byte{0x01, 0x02, 0x03, 0x04}, 0x08)
	require.NoError(t, err)
	require.ErrorContains(t, handle(stranger), "not authorized")
}
