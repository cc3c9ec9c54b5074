// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package vantage

import (
	"io"

	"github.com/rs/zerolog"
)

// logger receives all package diagnostics. Silent unless SetLogger is called.
var logger = zerolog.New(io.Discard)

// SetLogger routes protocol diagnostics (command traffic, CRC validation
// outcomes, retry attempts) to l.
func SetLogger(l zerolog.Logger) {
	logger = l
}
