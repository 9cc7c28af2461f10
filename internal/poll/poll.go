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

// Package poll provides bounded polling loops used to wait on chip status bits
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned when the polling budget runs out before the
// awaited condition is observed.
var ErrExhausted = errors.New("poll budget exhausted")

// Operation represents one poll of a condition
// Returns: data, shouldRetry, error
// - data: the result once the condition holds
// - shouldRetry: true if the condition has not been observed yet
// - error: any permanent error that should stop polling
type Operation[T any] func() (T, bool, error)

// Bounded runs operation until it stops asking for a retry or budget
// iterations have elapsed. It never sleeps; each iteration costs exactly one
// call to operation, which keeps worst-case latency deterministic.
func Bounded[T any](budget int, operation Operation[T]) (T, error) {
	var zero T

	for i := 0; i < budget; i++ {
		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}
		if !shouldRetry {
			return result, nil
		}
	}

	return zero, ErrExhausted
}

// Timed runs operation every interval until it stops asking for a retry, the
// timeout elapses or ctx is done. The first poll happens after one interval.
func Timed[T any](ctx context.Context, timeout, interval time.Duration, operation Operation[T]) (T, error) {
	var zero T
	deadline := time.Now().Add(timeout)

	for {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(interval):
		}

		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}
		if !shouldRetry {
			return result, nil
		}

		if !time.Now().Before(deadline) {
			return zero, ErrExhausted
		}
	}
}
