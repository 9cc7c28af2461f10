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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want StatusCode
	}{
		{name: "nil", err: nil, want: StatusOK},
		{name: "communication", err: ErrCommunication, want: StatusError},
		{name: "bus no ack", err: NewNoACKError("Tx", "bus", nil), want: StatusError},
		{name: "collision", err: ErrCollision, want: StatusCollision},
		{name: "wrapped timeout", err: fmt.Errorf("cascade level 1: %w", ErrTimeout), want: StatusTimeout},
		{name: "no room", err: ErrNoRoom, want: StatusNoRoom},
		{name: "data too large", err: ErrDataTooLarge, want: StatusNoRoom},
		{name: "internal", err: ErrInternal, want: StatusInternalError},
		{name: "invalid argument", err: ErrInvalidArgument, want: StatusInvalid},
		{name: "invalid parameter", err: ErrInvalidParameter, want: StatusInvalid},
		{name: "CRC", err: ErrCRCMismatch, want: StatusCRCWrong},
		{name: "NAK", err: ErrMifareNack, want: StatusMifareNack},
		{name: "foreign error", err: errors.New("boom"), want: StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestStatusCode_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Success.", StatusOK.String())
	assert.Equal(t, "Collision detected.", StatusCollision.String())
	assert.Equal(t, "A MIFARE PICC responded with NAK.", StatusMifareNack.String())
	assert.Equal(t, "Unknown error (0x2A).", StatusCode(42).String())
}

func TestTransportError(t *testing.T) {
	t.Parallel()
	cause := errors.New("write address byte 0 (0x50): slave did not acknowledge")
	err := NewNoACKError("ReadRegister(0x37)", "SOFT0", cause)

	assert.Equal(t,
		"ReadRegister(0x37) on SOFT0: bus slave did not acknowledge: write address byte 0 (0x50): slave did not acknowledge",
		err.Error())
	require.ErrorIs(t, err, ErrBusNoAck)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorTypeTransient, err.Type)
	assert.True(t, err.Retryable)

	plain := NewTransportError("WriteRegisterBurst", "SOFT0", ErrDataTooLarge, ErrorTypePermanent)
	assert.Equal(t, "WriteRegisterBurst on SOFT0: data too large for FIFO", plain.Error())
	assert.False(t, IsRetryable(plain))
	assert.Equal(t, "permanent", plain.Type.String())
	assert.Equal(t, "timeout", ErrorTypeTimeout.String())
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "timeout", err: ErrTimeout, want: true},
		{name: "collision", err: ErrCollision, want: true},
		{name: "CRC", err: fmt.Errorf("select: %w", ErrCRCMismatch), want: true},
		{name: "no card", err: ErrNoCard, want: true},
		{name: "transient transport", err: NewCommunicationError("Tx", "bus", nil), want: true},
		{name: "invalid argument", err: ErrInvalidArgument, want: false},
		{name: "internal", err: ErrInternal, want: false},
		{name: "chip not found", err: ErrChipNotFound, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestIsNoCard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "no card", err: fmt.Errorf("%w: %w", ErrNoCard, ErrTimeout), want: true},
		{name: "timeout", err: ErrTimeout, want: true},
		{name: "chip error", err: ErrCommunication, want: true},
		{name: "CRC", err: ErrCRCMismatch, want: true},
		{name: "bus failure", err: NewCommunicationError("Tx", "bus", errors.New("stuck")), want: false},
		{name: "internal", err: ErrInternal, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsNoCard(tt.err))
		})
	}
}
