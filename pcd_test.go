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
	"testing"

	"github.com/ZaparooProject/go-mfrc522/internal/frame"
	testutil "github.com/ZaparooProject/go-mfrc522/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevice_CalculateCRC(t *testing.T) {
	t.Parallel()
	device, _ := newTestDevice(t, nil)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "HLTA", data: []byte{0x50, 0x00}},
		{name: "anticollision CL1", data: []byte{0x93, 0x20}},
		{name: "SAK", data: []byte{0x08}},
		{name: "select frame", data: []byte{0x93, 0x70, 0xDE, 0xAD, 0xBE, 0xEF, 0x22}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := device.CalculateCRC(tt.data)
			require.NoError(t, err)
			assert.Equal(t, frame.CRCA(tt.data), got)

			again, err := device.CalculateCRC(tt.data)
			require.NoError(t, err)
			assert.Equal(t, got, again, "CRC of a fixed sequence is deterministic")
		})
	}

	hlta, err := device.CalculateCRC([]byte{0x50, 0x00})
	require.NoError(t, err)
	assert.Equal(t, [2]byte{0x57, 0xCD}, hlta)
}

func TestDevice_CalculateCRCTimeout(t *testing.T) {
	t.Parallel()
	device, reader := newTestDevice(t, []Option{WithCRCPollBudget(7)})
	reader.StuckCRC = true

	_, err := device.CalculateCRC([]byte{0x93, 0x20})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 7, reader.Reads(DivIrqReg))
}

func TestDevice_TransceiveIRQBudget(t *testing.T) {
	t.Parallel()
	device, reader := newTestDevice(t, []Option{WithIRQPollBudget(5)}, testutil.NewVirtualMIFARE1K(nil))
	reader.StuckIRq = true

	_, err := device.Transceive(&TransceiveRequest{Send: []byte{PICCCmdREQA}, ValidBits: 7, Back: make([]byte, 2)})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 5, reader.Reads(ComIrqReg))
}

func TestDevice_TransceiveChipTimer(t *testing.T) {
	t.Parallel()
	device, reader := newTestDevice(t, nil)

	_, err := device.Transceive(&TransceiveRequest{Send: []byte{PICCCmdREQA}, ValidBits: 7, Back: make([]byte, 2)})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 1, reader.Reads(ComIrqReg), "TimerIRq ends the wait at once")
	assert.True(t, IsNoCard(err))
}

func TestDevice_TransceiveProgramsFraming(t *testing.T) {
	t.Parallel()
	device, reader := newTestDevice(t, nil)
	reader.Responder = func(Frame) *ScriptedResponse {
		return &ScriptedResponse{Data: []byte{0xF8, 0xAA}}
	}

	back := []byte{0x05, 0x00, 0x00}
	res, err := device.Transceive(&TransceiveRequest{
		Send:      []byte{0x93, 0x23, 0x05},
		ValidBits: 3,
		RxAlign:   3,
		Back:      back,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.N)
	assert.Equal(t, []byte{0xFD, 0xAA, 0x00}, back, "low rxAlign bits of the first byte are kept")
	assert.Equal(t, byte(0x33), reader.Peek(BitFramingReg))

	frames := reader.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, []byte{0x93, 0x23, 0x05}, frames[0].Data)
	assert.Equal(t, byte(3), frames[0].TxLastBits)
	assert.Equal(t, byte(3), frames[0].RxAlign)
	assert.Equal(t, 19, frames[0].Bits())
}

func TestDevice_TransceiveErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr    error
		resp       *ScriptedResponse
		name       string
		back       int
		checkCRC   bool
		wantStatus StatusCode
	}{
		{
			name:       "protocol error",
			resp:       &ScriptedResponse{Data: []byte{0x04, 0x00}, ErrorReg: 0x01},
			back:       2,
			wantErr:    ErrCommunication,
			wantStatus: StatusError,
		},
		{
			name:       "parity error",
			resp:       &ScriptedResponse{Data: []byte{0x04, 0x00}, ErrorReg: 0x02},
			back:       2,
			wantErr:    ErrCommunication,
			wantStatus: StatusError,
		},
		{
			name:       "buffer overflow",
			resp:       &ScriptedResponse{ErrorReg: 0x10},
			back:       2,
			wantErr:    ErrCommunication,
			wantStatus: StatusError,
		},
		{
			name:       "response larger than buffer",
			resp:       &ScriptedResponse{Data: []byte{1, 2, 3, 4, 5}},
			back:       2,
			wantErr:    ErrNoRoom,
			wantStatus: StatusNoRoom,
		},
		{
			name:       "collision",
			resp:       &ScriptedResponse{Data: []byte{0x04, 0x00}, ErrorReg: 0x08, CollReg: 0x07},
			back:       2,
			wantErr:    ErrCollision,
			wantStatus: StatusCollision,
		},
		{
			name:       "MIFARE NAK",
			resp:       &ScriptedResponse{Data: []byte{0x04}, RxLastBits: 4},
			back:       4,
			checkCRC:   true,
			wantErr:    ErrMifareNack,
			wantStatus: StatusMifareNack,
		},
		{
			name:       "too short for CRC",
			resp:       &ScriptedResponse{Data: []byte{0x08}},
			back:       4,
			checkCRC:   true,
			wantErr:    ErrCRCMismatch,
			wantStatus: StatusCRCWrong,
		},
		{
			name:       "trailing bits",
			resp:       &ScriptedResponse{Data: []byte{0x08, 0xB6, 0x0D}, RxLastBits: 3},
			back:       4,
			checkCRC:   true,
			wantErr:    ErrCRCMismatch,
			wantStatus: StatusCRCWrong,
		},
		{
			name:       "wrong CRC",
			resp:       &ScriptedResponse{Data: []byte{0x08, 0x00, 0x00}},
			back:       4,
			checkCRC:   true,
			wantErr:    ErrCRCMismatch,
			wantStatus: StatusCRCWrong,
		},
		{
			name:       "no response",
			resp:       &ScriptedResponse{Timeout: true},
			back:       4,
			wantErr:    ErrTimeout,
			wantStatus: StatusTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			device, reader := newTestDevice(t, nil)
			reader.Responder = func(Frame) *ScriptedResponse { return tt.resp }

			_, err := device.Transceive(&TransceiveRequest{
				Send:     []byte{0x30, 0x04},
				Back:     make([]byte, tt.back),
				CheckCRC: tt.checkCRC,
			})
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantStatus, StatusOf(err))
		})
	}
}

func TestDevice_TransceiveCollisionKeepsData(t *testing.T) {
	t.Parallel()
	device, reader := newTestDevice(t, nil)
	reader.Responder = func(Frame) *ScriptedResponse {
		return &ScriptedResponse{Data: []byte{0x12, 0x34}, ErrorReg: 0x08, CollReg: 0x05}
	}

	back := make([]byte, 4)
	res, err := device.Transceive(&TransceiveRequest{Send: []byte{0x93, 0x20}, Back: back})
	require.ErrorIs(t, err, ErrCollision)
	assert.Equal(t, 2, res.N)
	assert.Equal(t, []byte{0x12, 0x34}, back[:res.N])
}

func TestDevice_TransceiveValidCRC(t *testing.T) {
	t.Parallel()
	device, reader := newTestDevice(t, nil)
	sak := frame.AppendCRCA([]byte{0x08})
	reader.Responder = func(Frame) *ScriptedResponse {
		return &ScriptedResponse{Data: sak}
	}

	back := make([]byte, 3)
	res, err := device.Transceive(&TransceiveRequest{Send: []byte{0x93, 0x70}, Back: back, CheckCRC: true})
	require.NoError(t, err)
	assert.Equal(t, TransceiveResult{N: 3}, res)
	assert.Equal(t, sak, back)
}

func TestDevice_TransceiveDiscardsResponse(t *testing.T) {
	t.Parallel()
	device, reader := newTestDevice(t, nil)
	reader.Responder = func(Frame) *ScriptedResponse {
		return &ScriptedResponse{Data: []byte{0x01, 0x02, 0x03}}
	}

	res, err := device.Transceive(&TransceiveRequest{Send: []byte{0x30, 0x00}})
	require.NoError(t, err)
	assert.Zero(t, res.N)
}

func TestDevice_TransceiveInvalidRequest(t *testing.T) {
	t.Parallel()
	device, _ := newTestDevice(t, nil)

	_, err := device.Transceive(nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = device.Transceive(&TransceiveRequest{Send: []byte{0x26}, ValidBits: 8})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = device.Transceive(&TransceiveRequest{Send: []byte{0x26}, RxAlign: 9})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = device.Transceive(&TransceiveRequest{Send: make([]byte, 65)})
	require.ErrorIs(t, err, ErrNoRoom)
}
