// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package vantage

import "errors"

var (
	// ErrNoDevice means the wake-up handshake was never acknowledged.
	ErrNoDevice = errors.New("vantage: no device detected")
	// ErrBadAck means a command's acknowledgement bytes did not match.
	ErrBadAck = errors.New("vantage: bad acknowledgement")
	// ErrBadCRC means a checksummed frame failed validation.
	ErrBadCRC = errors.New("vantage: bad crc")
	// ErrBadData means a frame had the wrong length for its schema or a
	// read came back truncated.
	ErrBadData = errors.New("vantage: bad data")
	// ErrUnsupportedFormat means the console firmware predates the Rev B
	// record layout this package supports.
	ErrUnsupportedFormat = errors.New("vantage: unsupported record format")
)
