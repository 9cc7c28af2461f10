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

// selectFrames returns the recorded SELECT and ANTICOLLISION frames
func selectFrames(r *VirtualReader) []Frame {
	var out []Frame
	for _, f := range r.Frames() {
		if len(f.Data) >= 2 && isSelectCommand(f.Data[0]) {
			out = append(out, f)
		}
	}
	return out
}

// requestCards moves the cards in the field to READY
func requestCards(t *testing.T, d *Device, r *VirtualReader) {
	t.Helper()
	require.True(t, d.IsNewCardPresent())
	r.ResetFrames()
}

func TestDevice_SelectUIDSizes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		uid        []byte
		wantSels   []byte
		sak        byte
		wantLevels int
	}{
		{name: "single size", uid: testutil.TestUID4, sak: 0x08, wantLevels: 1, wantSels: []byte{0x93}},
		{name: "double size", uid: testutil.TestUID7, sak: 0x00, wantLevels: 2, wantSels: []byte{0x93, 0x95}},
		{name: "triple size", uid: testutil.TestUID10, sak: 0x20, wantLevels: 3, wantSels: []byte{0x93, 0x95, 0x97}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			card := testutil.NewVirtualCard(tt.uid, tt.sak)
			device, reader := newTestDevice(t, nil, card)
			requestCards(t, device, reader)

			var uid UID
			require.NoError(t, device.Select(&uid, 0))
			assert.Equal(t, tt.uid, uid.Bytes())
			assert.Equal(t, 3*tt.wantLevels+1, uid.Size)
			assert.Equal(t, tt.wantLevels, uid.CascadeLevels())
			assert.Equal(t, tt.sak, uid.SAK)
			assert.Zero(t, uid.SAK&0x04, "final SAK has no cascade bit")
			assert.Equal(t, testutil.StateActive, card.State())

			// Every level is one ANTICOLLISION followed by one SELECT
			frames := selectFrames(reader)
			require.Len(t, frames, 2*tt.wantLevels)
			for i, sel := range tt.wantSels {
				anticoll, selected := frames[2*i], frames[2*i+1]
				assert.Equal(t, []byte{sel, 0x20}, anticoll.Data)
				assert.Equal(t, sel, selected.Data[0])
				assert.Equal(t, byte(0x70), selected.Data[1])
				require.Len(t, selected.Data, 9)
				assert.True(t, frame.ValidCRCA(selected.Data))
				assert.Equal(t, frame.BCC(selected.Data[2:6]), selected.Data[6])

				wantCT := i < tt.wantLevels-1
				assert.Equal(t, wantCT, selected.Data[2] == PICCCmdCT, "cascade tag at level %d", i+1)
			}
		})
	}
}

func TestDevice_SelectSingleSizeNeverSendsCascadeTag(t *testing.T) {
	t.Parallel()
	uids := [][]byte{
		testutil.TestUID4,
		{0x00, 0x00, 0x00, 0x00},
		{0xFF, 0xFF, 0xFF, 0xFF},
		{0x01, 0x02, 0x03, 0x04},
		{0x12, 0x88, 0x34, 0x56},
	}

	for _, raw := range uids {
		card := testutil.NewVirtualMIFARE1K(raw)
		device, reader := newTestDevice(t, nil, card)
		requestCards(t, device, reader)

		var uid UID
		require.NoError(t, device.Select(&uid, 0))
		assert.Equal(t, 4, uid.Size)
		assert.Equal(t, raw, uid.Bytes())
		for _, f := range selectFrames(reader) {
			if len(f.Data) > 2 {
				assert.NotEqual(t, PICCCmdCT, f.Data[2], "UID % X", raw)
			}
			assert.Equal(t, PICCCmdSelCL1, f.Data[0])
		}
	}
}

func TestDevice_SelectResolvesCollisionTowardOne(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		uids     [][]byte
		want     []byte
		wantNVBs []byte
	}{
		{
			name:     "last byte differs",
			uids:     [][]byte{{0xDE, 0xAD, 0xBE, 0xEF}, {0xDE, 0xAD, 0xBE, 0xEE}},
			want:     []byte{0xDE, 0xAD, 0xBE, 0xEF},
			wantNVBs: []byte{0x20, 0x51},
		},
		{
			name:     "collision on a byte boundary",
			uids:     [][]byte{{0x00, 0x01, 0x02, 0x03}, {0x80, 0x01, 0x02, 0x03}},
			want:     []byte{0x80, 0x01, 0x02, 0x03},
			wantNVBs: []byte{0x20, 0x30},
		},
		{
			name:     "three cards",
			uids:     [][]byte{{0x00, 0x11, 0x22, 0x33}, {0x01, 0x11, 0x22, 0x33}, {0x03, 0x11, 0x22, 0x33}},
			want:     []byte{0x03, 0x11, 0x22, 0x33},
			wantNVBs: []byte{0x20, 0x21, 0x22},
		},
		{
			name:     "single and double size",
			uids:     [][]byte{testutil.TestUID7, testutil.TestUID4},
			want:     testutil.TestUID4,
			wantNVBs: []byte{0x20, 0x22},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cards := make([]*testutil.VirtualCard, len(tt.uids))
			for i, raw := range tt.uids {
				cards[i] = testutil.NewVirtualMIFARE1K(raw)
			}
			device, reader := newTestDevice(t, nil, cards...)
			requestCards(t, device, reader)

			var uid UID
			require.NoError(t, device.Select(&uid, 0))
			assert.Equal(t, tt.want, uid.Bytes())

			frames := selectFrames(reader)
			require.Len(t, frames, len(tt.wantNVBs)+1)
			for i, nvb := range tt.wantNVBs {
				assert.Equal(t, nvb, frames[i].Data[1], "frame %d", i)
			}

			// The bit at the collision is forced to 1 in the retried prefix
			for i := 1; i < len(tt.wantNVBs); i++ {
				f := frames[i]
				pos := f.Bits() - 16
				bytePos := 2 + (pos-1)/8
				assert.NotZero(t, f.Data[bytePos]&(1<<((pos-1)%8)), "frame %d bit %d", i, pos)
			}
			assert.Equal(t, byte(0x70), frames[len(frames)-1].Data[1])
		})
	}
}

func TestDevice_SelectKnownBits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		uid       []byte
		wantNVBs  []byte
		validBits int
	}{
		{name: "complete single size", uid: testutil.TestUID4, validBits: 32, wantNVBs: []byte{0x70}},
		{name: "partial byte", uid: testutil.TestUID4, validBits: 12, wantNVBs: []byte{0x34, 0x70}},
		{name: "complete double size", uid: testutil.TestUID7, validBits: 56, wantNVBs: []byte{0x70, 0x70}},
		{name: "first level of double size", uid: testutil.TestUID7, validBits: 24, wantNVBs: []byte{0x70, 0x20, 0x70}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			card := testutil.NewVirtualCard(tt.uid, 0x08)
			device, reader := newTestDevice(t, nil, card)
			requestCards(t, device, reader)

			uid, err := NewUID(tt.uid, 0)
			require.NoError(t, err)
			require.NoError(t, device.Select(&uid, tt.validBits))
			assert.Equal(t, tt.uid, uid.Bytes())
			assert.Equal(t, byte(0x08), uid.SAK)

			frames := selectFrames(reader)
			require.Len(t, frames, len(tt.wantNVBs))
			for i, nvb := range tt.wantNVBs {
				assert.Equal(t, nvb, frames[i].Data[1], "frame %d", i)
			}
		})
	}
}

func TestDevice_SelectInvalidArguments(t *testing.T) {
	t.Parallel()
	device, _ := newTestDevice(t, nil)

	var uid UID
	require.ErrorIs(t, device.Select(&uid, 81), ErrInvalidArgument)
	require.ErrorIs(t, device.Select(&uid, -1), ErrInvalidArgument)
	require.ErrorIs(t, device.Select(nil, 0), ErrInvalidArgument)
	assert.Equal(t, StatusInvalid, StatusOf(device.Select(&uid, 81)))
}

// scriptedCard answers ANTICOLLISION with cln and SELECT with sak
func scriptedCard(cln, sak []byte, sakBits byte) func(Frame) *ScriptedResponse {
	return func(f Frame) *ScriptedResponse {
		if f.Data[1] == 0x70 {
			return &ScriptedResponse{Data: sak, RxLastBits: sakBits}
		}
		return &ScriptedResponse{Data: cln}
	}
}

func TestDevice_SelectSAKErrors(t *testing.T) {
	t.Parallel()
	cln := []byte{0x11, 0x22, 0x33, 0x44, 0x11 ^ 0x22 ^ 0x33 ^ 0x44}

	tests := []struct {
		wantErr error
		name    string
		sak     []byte
		sakBits byte
	}{
		{name: "short SAK", sak: []byte{0x08, 0xB6}, wantErr: ErrCommunication},
		{name: "partial last byte", sak: frame.AppendCRCA([]byte{0x08}), sakBits: 2, wantErr: ErrCommunication},
		{name: "SAK CRC wrong", sak: []byte{0x08, 0x12, 0x34}, wantErr: ErrCRCMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			device, reader := newTestDevice(t, nil)
			reader.Responder = scriptedCard(cln, tt.sak, tt.sakBits)

			uid, err := NewUID(testutil.TestUID7, 0x00)
			require.NoError(t, err)
			before := uid

			err = device.Select(&uid, 0)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, uid, "a failed select leaves uid untouched")
		})
	}
}

func TestDevice_SelectScriptedCard(t *testing.T) {
	t.Parallel()
	device, reader := newTestDevice(t, nil)
	cln := []byte{0x11, 0x22, 0x33, 0x44, 0x11 ^ 0x22 ^ 0x33 ^ 0x44}
	reader.Responder = scriptedCard(cln, frame.AppendCRCA([]byte{0x18}), 0)

	var uid UID
	require.NoError(t, device.Select(&uid, 0))
	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, uid.Bytes())
	assert.Equal(t, PICCTypeMifare4K, uid.Type())
}

func TestDevice_SelectCollisionRegister(t *testing.T) {
	t.Parallel()

	t.Run("position not valid", func(t *testing.T) {
		t.Parallel()
		device, reader := newTestDevice(t, nil)
		reader.Responder = func(Frame) *ScriptedResponse {
			return &ScriptedResponse{Data: []byte{0x11}, ErrorReg: 0x08, CollReg: 0x20}
		}

		var uid UID
		err := device.Select(&uid, 0)
		require.ErrorIs(t, err, ErrCollision)
		assert.Equal(t, StatusCollision, StatusOf(err))
	})

	t.Run("no progress", func(t *testing.T) {
		t.Parallel()
		device, reader := newTestDevice(t, nil)
		calls := 0
		reader.Responder = func(Frame) *ScriptedResponse {
			calls++
			pos := byte(5)
			if calls > 1 {
				pos = 3
			}
			return &ScriptedResponse{Data: []byte{0x11, 0x22}, ErrorReg: 0x08, CollReg: pos}
		}

		var uid UID
		err := device.Select(&uid, 0)
		require.ErrorIs(t, err, ErrInternal)
		assert.Equal(t, StatusInternalError, StatusOf(err))
		assert.Equal(t, 2, calls)
	})

	t.Run("position zero means bit 32", func(t *testing.T) {
		t.Parallel()
		device, reader := newTestDevice(t, nil)
		calls := 0
		reader.Responder = func(f Frame) *ScriptedResponse {
			calls++
			if f.Data[1] == 0x70 {
				return &ScriptedResponse{Data: frame.AppendCRCA([]byte{0x08})}
			}
			return &ScriptedResponse{Data: []byte{0x11, 0x22, 0x33, 0x44, 0x00}, ErrorReg: 0x08, CollReg: 0x00}
		}

		var uid UID
		require.NoError(t, device.Select(&uid, 0))
		assert.Equal(t, []byte{0x11, 0x22, 0x33, 0xC4}, uid.Bytes())
		assert.Equal(t, 2, calls, "all bits known after the collision, SELECT follows")
	})
}

func TestDevice_SelectEmptyField(t *testing.T) {
	t.Parallel()
	device, _ := newTestDevice(t, nil)

	var uid UID
	err := device.Select(&uid, 0)
	require.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsNoCard(err))
}
