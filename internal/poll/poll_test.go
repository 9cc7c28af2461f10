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

package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBounded(t *testing.T) {
	t.Parallel()
	errBoom := errors.New("boom")

	tests := []struct {
		wantErr   error
		name      string
		budget    int
		readyAt   int
		failAt    int
		wantCalls int
	}{
		{name: "ready on first poll", budget: 10, readyAt: 1, wantCalls: 1},
		{name: "ready on last poll", budget: 10, readyAt: 10, wantCalls: 10},
		{name: "budget exhausted", budget: 5, readyAt: 100, wantCalls: 5, wantErr: ErrExhausted},
		{name: "zero budget never calls", budget: 0, readyAt: 1, wantCalls: 0, wantErr: ErrExhausted},
		{name: "error stops polling", budget: 10, readyAt: 100, failAt: 3, wantCalls: 3, wantErr: errBoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			got, err := Bounded(tt.budget, func() (int, bool, error) {
				calls++
				if calls == tt.failAt {
					return 0, false, errBoom
				}
				if calls >= tt.readyAt {
					return calls, false, nil
				}
				return 0, true, nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.readyAt, got)
		})
	}
}

func TestTimed_Ready(t *testing.T) {
	t.Parallel()
	calls := 0
	got, err := Timed(context.Background(), time.Second, time.Microsecond, func() (string, bool, error) {
		calls++
		return "done", calls < 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Equal(t, 3, calls)
}

func TestTimed_Exhausted(t *testing.T) {
	t.Parallel()
	_, err := Timed(context.Background(), 5*time.Millisecond, time.Millisecond, func() (int, bool, error) {
		return 0, true, nil
	})
	require.ErrorIs(t, err, ErrExhausted)
}

func TestTimed_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Timed(ctx, time.Second, time.Millisecond, func() (int, bool, error) {
		t.Fatal("operation must not run after cancellation")
		return 0, false, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
