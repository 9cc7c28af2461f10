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

// Register is an MFRC522 register address
type Register uint8

// Page 0: command and status
const (
	CommandReg    Register = 0x01
	ComIEnReg     Register = 0x02
	DivIEnReg     Register = 0x03
	ComIrqReg     Register = 0x04
	DivIrqReg     Register = 0x05
	ErrorReg      Register = 0x06
	Status1Reg    Register = 0x07
	Status2Reg    Register = 0x08
	FIFODataReg   Register = 0x09
	FIFOLevelReg  Register = 0x0A
	WaterLevelReg Register = 0x0B
	ControlReg    Register = 0x0C
	BitFramingReg Register = 0x0D
	CollReg       Register = 0x0E
)

// Page 1: command
const (
	ModeReg        Register = 0x11
	TxModeReg      Register = 0x12
	RxModeReg      Register = 0x13
	TxControlReg   Register = 0x14
	TxASKReg       Register = 0x15
	TxSelReg       Register = 0x16
	RxSelReg       Register = 0x17
	RxThresholdReg Register = 0x18
	DemodReg       Register = 0x19
	MfTxReg        Register = 0x1C
	MfRxReg        Register = 0x1D
	SerialSpeedReg Register = 0x1F
)

// Page 2: configuration
const (
	CRCResultRegH     Register = 0x21
	CRCResultRegL     Register = 0x22
	ModWidthReg       Register = 0x24
	RFCfgReg          Register = 0x26
	GsNReg            Register = 0x27
	CWGsPReg          Register = 0x28
	ModGsPReg         Register = 0x29
	TModeReg          Register = 0x2A
	TPrescalerReg     Register = 0x2B
	TReloadRegH       Register = 0x2C
	TReloadRegL       Register = 0x2D
	TCounterValueRegH Register = 0x2E
	TCounterValueRegL Register = 0x2F
)

// Page 3: test registers
const (
	TestSel1Reg     Register = 0x31
	TestSel2Reg     Register = 0x32
	TestPinEnReg    Register = 0x33
	TestPinValueReg Register = 0x34
	TestBusReg      Register = 0x35
	AutoTestReg     Register = 0x36
	VersionReg      Register = 0x37
	AnalogTestReg   Register = 0x38
	TestDAC1Reg     Register = 0x39
	TestDAC2Reg     Register = 0x3A
	TestADCReg      Register = 0x3B
)

// Command is a PCD command written to CommandReg
type Command uint8

// PCD commands
const (
	PCDIdle             Command = 0x00
	PCDMem              Command = 0x01
	PCDGenerateRandomID Command = 0x02
	PCDCalcCRC          Command = 0x03
	PCDTransmit         Command = 0x04
	PCDNoCmdChange      Command = 0x07
	PCDReceive          Command = 0x08
	PCDTransceive       Command = 0x0C
	PCDMFAuthent        Command = 0x0E
	PCDSoftReset        Command = 0x0F
)

// RxGain is the receiver gain field of RFCfgReg (bits 4..6)
type RxGain uint8

// Receiver gains
const (
	RxGain18dB    RxGain = 0x00 << 4
	RxGain23dB    RxGain = 0x01 << 4
	RxGain18dBAlt RxGain = 0x02 << 4
	RxGain23dBAlt RxGain = 0x03 << 4
	RxGain33dB    RxGain = 0x04 << 4
	RxGain38dB    RxGain = 0x05 << 4
	RxGain43dB    RxGain = 0x06 << 4
	RxGain48dB    RxGain = 0x07 << 4
	RxGainMin     RxGain = RxGain18dB
	RxGainAvg     RxGain = RxGain33dB
	RxGainMax     RxGain = RxGain48dB
	rxGainMask    byte   = 0x07 << 4
)

// PICC commands
const (
	PICCCmdREQA    byte = 0x26
	PICCCmdWUPA    byte = 0x52
	PICCCmdCT      byte = 0x88
	PICCCmdSelCL1  byte = 0x93
	PICCCmdSelCL2  byte = 0x95
	PICCCmdSelCL3  byte = 0x97
	PICCCmdHLTA    byte = 0x50
	PICCCmdMFRead  byte = 0x30
	PICCCmdMFWrite byte = 0xA0
)

// Register bits
const (
	bitPowerDown       byte = 0x10 // CommandReg
	bitStartSend       byte = 0x80 // BitFramingReg
	bitFlushBuffer     byte = 0x80 // FIFOLevelReg
	bitValuesAfterColl byte = 0x80 // CollReg
	bitCollPosNotValid byte = 0x20 // CollReg
	maskCollPos        byte = 0x1F // CollReg
	maskRxLastBits     byte = 0x07 // ControlReg
	bitTimerIRq        byte = 0x01 // ComIrqReg
	bitIdleIRq         byte = 0x10 // ComIrqReg
	bitRxIRq           byte = 0x20 // ComIrqReg
	irqClearAll        byte = 0x7F // ComIrqReg
	bitCRCIRq          byte = 0x04 // DivIrqReg
	errFatalMask       byte = 0x13 // ErrorReg: BufferOvfl, ParityErr, ProtocolErr
	bitCollErr         byte = 0x08 // ErrorReg
	maskAntenna        byte = 0x03 // TxControlReg: Tx1RFEn, Tx2RFEn
	bitForce100ASK     byte = 0x40 // TxASKReg
)

// fifoSize is the depth of the chip FIFO
const fifoSize = 64
