// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package vantage

import "time"

// Link is the byte-level connection to the console. Implementations wrap a
// serial port, a TCP socket or a WebSocket bridge; see the link package.
//
// A Link is exclusively owned by one Console for its entire lifetime. All
// exchanges are strictly sequential request/response pairs.
type Link interface {
	// Write sends p to the console.
	Write(p []byte) (int, error)

	// Read returns up to n bytes, waiting at most timeout. A timeout of
	// zero or less means the link's default. A short result on timeout is
	// not an error; the caller decides whether it is fatal.
	Read(n int, timeout time.Duration) ([]byte, error)

	// SetTimeout changes the default read timeout.
	SetTimeout(d time.Duration)

	Close() error
}
