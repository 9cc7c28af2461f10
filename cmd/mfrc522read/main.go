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

// Command mfrc522read reads card UIDs from an MFRC522 and checks them against
// an authorization table.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/access"
	"github.com/ZaparooProject/go-mfrc522/internal/config"
	"github.com/ZaparooProject/go-mfrc522/polling"
)

type flags struct {
	configPath *string
	transport  *string
	scl        *string
	sda        *string
	port       *string
	addr       *uint
	timeout    *time.Duration
	pinCPU     *int
	debug      *bool
	once       *bool
	scan       *bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*flags, error) {
	f := &flags{
		configPath: fs.String("config", "", "YAML configuration file"),
		transport:  fs.String("transport", "", "Reader transport: twowire or uart"),
		scl:        fs.String("scl", "", "Clock line GPIO name (e.g. GPIO22)"),
		sda:        fs.String("sda", "", "Data line GPIO name (e.g. GPIO21)"),
		port:       fs.String("port", "", "Serial port for the uart transport"),
		addr:       fs.Uint("addr", 0, "MFRC522 7-bit bus address (default 0x28)"),
		timeout: fs.Duration("timeout", 0,
			"With -once, how long to wait for a card; otherwise how long to run (0 means forever)"),
		pinCPU: fs.Int("pin-cpu", -1, "Pin the bus thread to this CPU (Linux only, -1 disables)"),
		debug:  fs.Bool("debug", false, "Enable debug output"),
		once:   fs.Bool("once", false, "Read a single card and exit"),
		scan:   fs.Bool("scan", false, "List the chips answering on the software bus and exit"),
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// loadConfig reads the configuration file, if any, and lets explicitly set
// flags override it.
func loadConfig(fs *flag.FlagSet, f *flags) (*config.Config, error) {
	cfg := &config.Config{}
	if *f.configPath != "" {
		loaded, err := config.Load(*f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "transport":
			cfg.Reader.Transport = *f.transport
		case "scl":
			cfg.Reader.SCL = *f.scl
		case "sda":
			cfg.Reader.SDA = *f.sda
		case "port":
			cfg.Reader.Port = *f.port
		case "addr":
			cfg.Reader.Address = uint16(*f.addr)
		}
	})
	// -addr 0x100 must not silently wrap.
	if *f.addr > 0x7F {
		return nil, fmt.Errorf("-addr 0x%X is not a 7-bit address", *f.addr)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openDevice(cfg *config.Config, logger *slog.Logger) (*mfrc522.Device, error) {
	transport, err := openTransport(&cfg.Reader)
	if err != nil {
		return nil, err
	}

	opts := []mfrc522.Option{
		mfrc522.WithPollInterval(time.Duration(cfg.Poll.IntervalMs) * time.Millisecond),
	}
	if gain, ok := cfg.Reader.Gain(); ok {
		opts = append(opts, mfrc522.WithAntennaGain(gain))
	}

	device, err := mfrc522.New(transport, opts...)
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	version, err := device.Probe()
	if err != nil {
		_ = transport.Close()
		return nil, err
	}
	if err := device.Init(); err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to initialize %s: %w", version, err)
	}

	logger.Info("reader ready", "chip", version.String(), "transport", transport.Type())
	return device, nil
}

// cardHandler reports a detected card and whether it is authorized
func cardHandler(table *access.Table, logger *slog.Logger) func(mfrc522.UID) error {
	return func(uid mfrc522.UID) error {
		fingerprint := table.Fingerprint(uid)
		label, ok := table.Check(uid)
		if !ok {
			logger.Warn("access denied", "uid", uid.String(), "fingerprint", fingerprint, "type", uid.Type().String())
			return fmt.Errorf("card %s is not authorized", uid)
		}
		logger.Info("access granted", "uid", uid.String(), "label", label, "type", uid.Type().String())
		return nil
	}
}

func runOnce(ctx context.Context, device *mfrc522.Device, timeout time.Duration, handle func(mfrc522.UID) error) error {
	uid, err := device.DiscoverUID(ctx, timeout)
	if err != nil {
		if mfrc522.IsNoCard(err) {
			return fmt.Errorf("no card detected within %s", timeout)
		}
		return fmt.Errorf("discovery failed: %w", err)
	}
	if err := device.HaltA(); err != nil {
		slog.Debug("halt failed", "err", err)
	}
	return handle(uid)
}

func runMonitor(ctx context.Context, device *mfrc522.Device, cfg *config.Config,
	handle func(mfrc522.UID) error, logger *slog.Logger,
) error {
	monitor, err := polling.NewMonitor(device, cfg.Poll.Polling())
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}
	monitor.OnCardDetected = handle
	monitor.OnCardChanged = handle
	monitor.OnCardRemoved = func() { logger.Info("card removed") }

	logger.Info("waiting for cards", "interval_ms", cfg.Poll.IntervalMs, "removal_timeout_ms", cfg.Poll.RemovalTimeoutMs)
	err = monitor.Start(ctx)

	m := monitor.Metrics()
	logger.Info("monitor stopped", "polls", m.PollCycles, "cards", m.CardsDetected, "errors", m.PollErrors)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func run(args []string) error {
	fs := flag.NewFlagSet("mfrc522read", flag.ContinueOnError)
	f, err := parseFlags(fs, args)
	if err != nil {
		return err
	}

	logger := newLogger(*f.debug)
	slog.SetDefault(logger)
	if *f.debug {
		mfrc522.SetDebugEnabled(true)
		mfrc522.SetLogger(logger)
	}

	cfg, err := loadConfig(fs, f)
	if err != nil {
		return err
	}
	table, err := cfg.Access.Table()
	if err != nil {
		return fmt.Errorf("failed to build access table: %w", err)
	}
	logger.Debug("access table loaded", "cards", table.Len(), "fingerprint", cfg.Access.Fingerprint)

	// Every bus transaction runs on this goroutine; keep it on one thread so
	// CPU pinning applies to the bit timing.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if *f.pinCPU >= 0 {
		if err := pinCPU(*f.pinCPU); err != nil {
			logger.Warn("cpu pinning unavailable", "cpu", *f.pinCPU, "err", err)
		}
	}

	if *f.scan {
		return scan(context.Background(), &cfg.Reader, logger)
	}

	device, err := openDevice(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = device.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle := cardHandler(table, logger)
	if *f.once {
		return runOnce(ctx, device, *f.timeout, handle)
	}

	if *f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *f.timeout)
		defer cancel()
	}
	return runMonitor(ctx, device, cfg, handle, logger)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		_, _ = fmt.Fprintf(os.Stderr, "mfrc522read: %v\n", err)
		os.Exit(1)
	}
}
