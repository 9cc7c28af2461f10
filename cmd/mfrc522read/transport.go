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
	"context"
	"fmt"
	"log/slog"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/internal/config"
	"github.com/ZaparooProject/go-mfrc522/transport/i2c"
	"github.com/ZaparooProject/go-mfrc522/transport/uart"
	"github.com/ZaparooProject/go-mfrc522/twowire"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

func openTransport(r *config.ReaderConfig) (mfrc522.Transport, error) {
	switch r.Transport {
	case config.TransportUART:
		t, err := uart.Open(r.Port, r.Baud)
		if err != nil {
			return nil, fmt.Errorf("failed to create UART transport: %w", err)
		}
		return t, nil
	case config.TransportTwoWire:
		if err := registerBus(r); err != nil {
			return nil, err
		}
		t, err := i2c.Open(r.BusName, r.Address, physic.Frequency(r.SpeedKHz)*physic.KiloHertz)
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transport: %w", err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", r.Transport)
	}
}

// registerBus makes the software bus on the configured pins available under
// r.BusName
func registerBus(r *config.ReaderConfig) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph host: %w", err)
	}

	scl := gpioreg.ByName(r.SCL)
	if scl == nil {
		return fmt.Errorf("unknown clock pin %q", r.SCL)
	}
	sda := gpioreg.ByName(r.SDA)
	if sda == nil {
		return fmt.Errorf("unknown data pin %q", r.SDA)
	}
	return twowire.Register(r.BusName, nil, -1, scl, sda)
}

// scan lists the chips answering on the configured software bus
func scan(ctx context.Context, r *config.ReaderConfig, logger *slog.Logger) error {
	if r.Transport != config.TransportTwoWire {
		return fmt.Errorf("-scan needs the %s transport", config.TransportTwoWire)
	}
	if err := registerBus(r); err != nil {
		return err
	}
	bus, err := i2creg.Open(r.BusName)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus %s: %w", r.BusName, err)
	}
	defer func() { _ = bus.Close() }()

	found, err := i2c.Scan(ctx, bus)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if len(found) == 0 {
		return fmt.Errorf("no MFRC522 on %s", r.BusName)
	}
	for _, f := range found {
		logger.Info("found chip", "addr", fmt.Sprintf("0x%02X", f.Addr), "chip", f.Version.String())
	}
	return nil
}
