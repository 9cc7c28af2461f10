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

// Package config loads the YAML configuration of the mfrc522read command.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/access"
	"github.com/ZaparooProject/go-mfrc522/polling"
	"gopkg.in/yaml.v3"
)

// Transport names
const (
	TransportTwoWire = "twowire"
	TransportUART    = "uart"
)

// Config is the root of the configuration file
type Config struct {
	Reader ReaderConfig `yaml:"reader"`
	Poll   PollConfig   `yaml:"poll"`
	Access AccessConfig `yaml:"access"`
}

// ReaderConfig selects how the chip is reached
type ReaderConfig struct {
	Transport   string `yaml:"transport"`
	SCL         string `yaml:"scl"`
	SDA         string `yaml:"sda"`
	BusName     string `yaml:"bus_name"`
	Port        string `yaml:"port"`
	Address     uint16 `yaml:"address"`
	SpeedKHz    int    `yaml:"speed_khz"`
	Baud        int    `yaml:"baud"`
	AntennaGain int    `yaml:"antenna_gain_db"`
}

// PollConfig configures the card monitor
type PollConfig struct {
	IntervalMs       int `yaml:"interval_ms"`
	RemovalTimeoutMs int `yaml:"removal_timeout_ms"`
	IdleIntervalMs   int `yaml:"idle_interval_ms"`
	IdleAfterMs      int `yaml:"idle_after_ms"`
}

// AccessConfig seeds the authorization table
type AccessConfig struct {
	Fingerprint string       `yaml:"fingerprint"`
	Cards       []CardConfig `yaml:"cards"`
}

// CardConfig is one authorized card
type CardConfig struct {
	UID   string `yaml:"uid"`
	Label string `yaml:"label"`
}

// Load reads and decodes the file at path. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

var gainByDB = map[int]mfrc522.RxGain{
	18: mfrc522.RxGain18dB,
	23: mfrc522.RxGain23dB,
	33: mfrc522.RxGain33dB,
	38: mfrc522.RxGain38dB,
	43: mfrc522.RxGain43dB,
	48: mfrc522.RxGain48dB,
}

// Gain returns the receiver gain to program, if one is configured
func (r ReaderConfig) Gain() (mfrc522.RxGain, bool) {
	g, ok := gainByDB[r.AntennaGain]
	return g, ok
}

// Polling converts the poll section into a monitor configuration
func (p PollConfig) Polling() *polling.Config {
	return &polling.Config{
		PollInterval:       ms(p.IntervalMs),
		CardRemovalTimeout: ms(p.RemovalTimeoutMs),
		IdlePollInterval:   ms(p.IdleIntervalMs),
		IdleAfter:          ms(p.IdleAfterMs),
	}
}

// Table builds the authorization table described by the access section
func (a AccessConfig) Table() (*access.Table, error) {
	table, err := access.NewTable(access.Fingerprint(a.Fingerprint))
	if err != nil {
		return nil, err
	}
	for _, c := range a.Cards {
		if err := table.Add(c.UID, c.Label); err != nil {
			return nil, fmt.Errorf("card %q: %w", c.Label, err)
		}
	}
	return table, nil
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
