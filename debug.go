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
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

var (
	debugEnabled atomic.Bool
	logger       atomic.Pointer[slog.Logger]
)

func init() {
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

// SetDebugEnabled turns debug output of the driver on or off
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
}

// SetLogger replaces the logger debug output is written to. A nil logger
// restores the default stderr logger.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	logger.Store(l)
}

// debugf logs a formatted debug message when debugging is enabled
func debugf(format string, args ...any) {
	if !debugEnabled.Load() {
		return
	}
	logger.Load().Log(context.Background(), slog.LevelDebug, fmt.Sprintf(format, args...))
}

// debugln logs a debug message when debugging is enabled
func debugln(args ...any) {
	if !debugEnabled.Load() {
		return
	}
	logger.Load().Log(context.Background(), slog.LevelDebug, fmt.Sprint(args...))
}
