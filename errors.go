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
)

// Protocol errors. Every failing operation returns an error that matches one
// of these with errors.Is, and StatusOf maps it onto exactly one StatusCode.
var (
	ErrCommunication   = errors.New("communication error")
	ErrCollision       = errors.New("bit collision detected")
	ErrTimeout         = errors.New("operation timeout")
	ErrNoRoom          = errors.New("buffer too small")
	ErrInternal        = errors.New("internal error")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrCRCMismatch     = errors.New("CRC_A does not match")
	ErrMifareNack      = errors.New("MIFARE PICC responded with NAK")
)

// Transport and device errors
var (
	ErrBusNoAck     = errors.New("bus slave did not acknowledge")
	ErrDataTooLarge = errors.New("data too large for FIFO")
	ErrChipNotFound = errors.New("MFRC522 not responding")
	ErrNoCard       = errors.New("no card detected")
	ErrClosed       = errors.New("device closed")

	// ErrInvalidParameter is kept for option validation, it matches
	// ErrInvalidArgument.
	ErrInvalidParameter = fmt.Errorf("invalid parameter: %w", ErrInvalidArgument)
)

// StatusCode is the outcome of a protocol operation.
type StatusCode uint8

// Status codes
const (
	StatusOK StatusCode = iota + 1
	StatusError
	StatusCollision
	StatusTimeout
	StatusNoRoom
	StatusInternalError
	StatusInvalid
	StatusCRCWrong
	StatusMifareNack
)

// String returns a human-readable description of the status code
func (s StatusCode) String() string {
	switch s {
	case StatusOK:
		return "Success."
	case StatusError:
		return "Error in communication."
	case StatusCollision:
		return "Collision detected."
	case StatusTimeout:
		return "Timeout in communication."
	case StatusNoRoom:
		return "A buffer is not big enough."
	case StatusInternalError:
		return "Internal error in the code. Should not happen."
	case StatusInvalid:
		return "Invalid argument."
	case StatusCRCWrong:
		return "The CRC_A does not match."
	case StatusMifareNack:
		return "A MIFARE PICC responded with NAK."
	default:
		return fmt.Sprintf("Unknown error (0x%02X).", uint8(s))
	}
}

// StatusOf maps err onto its StatusCode. A nil error is StatusOK; errors not
// produced by this package are reported as StatusError.
func StatusOf(err error) StatusCode {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrCollision):
		return StatusCollision
	case errors.Is(err, ErrTimeout):
		return StatusTimeout
	case errors.Is(err, ErrNoRoom), errors.Is(err, ErrDataTooLarge):
		return StatusNoRoom
	case errors.Is(err, ErrInternal):
		return StatusInternalError
	case errors.Is(err, ErrInvalidArgument):
		return StatusInvalid
	case errors.Is(err, ErrCRCMismatch):
		return StatusCRCWrong
	case errors.Is(err, ErrMifareNack):
		return StatusMifareNack
	default:
		return StatusError
	}
}

// ErrorType classifies transport failures
type ErrorType int

// Error types
const (
	ErrorTypePermanent ErrorType = iota
	ErrorTypeTransient
	ErrorTypeTimeout
)

// String returns the error type name
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "permanent"
	}
}

// TransportError describes a failed register transaction
type TransportError struct {
	Err       error
	Cause     error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements the error interface
func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the classified error and the underlying cause
func (e *TransportError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// NewTransportError creates a transport error of the given type
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewNoACKError creates a transport error for a transaction the chip did not
// acknowledge
func NewNoACKError(op, port string, cause error) *TransportError {
	e := NewTransportError(op, port, ErrBusNoAck, ErrorTypeTransient)
	e.Cause = cause
	return e
}

// NewCommunicationError creates a transport error for any other bus failure
func NewCommunicationError(op, port string, cause error) *TransportError {
	e := NewTransportError(op, port, ErrCommunication, ErrorTypeTransient)
	e.Cause = cause
	return e
}

// IsRetryable reports whether err is worth another attempt by the caller
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrCommunication),
		errors.Is(err, ErrCollision),
		errors.Is(err, ErrCRCMismatch),
		errors.Is(err, ErrBusNoAck),
		errors.Is(err, ErrNoCard):
		return true
	default:
		return false
	}
}

// IsNoCard reports whether err is one of the outcomes expected on every poll
// of an empty field. Such errors mean "no card this cycle" and should not be
// reported as failures. Transport failures never are.
func IsNoCard(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return false
	}
	return errors.Is(err, ErrNoCard) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrCommunication) ||
		errors.Is(err, ErrCRCMismatch)
}
