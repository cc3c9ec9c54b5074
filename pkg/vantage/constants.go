// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

// Package vantage implements the serial console protocol of the Davis
// Vantage Pro2 weather station.
//
// The protocol is a command/acknowledgement exchange over a byte link:
// every multi-byte frame carries a CRC-16 checksum, fixed-layout binary
// records are decoded through declarative field schemas, and archived
// interval records are downloaded through a paginated dump that tolerates
// partial failures.
package vantage

// Console reply signals
const (
	WakeStr = "\n"
	WakeAck = "\n\r"
	Done    = "DONE\n\r"
	OK      = "\n\rOK\n\r"
)

// Single-byte protocol signals
const (
	Ack    byte = 0x06
	Nack   byte = 0x21
	Cancel byte = 0x18
	Esc    byte = 0x1B
)

// Frame sizes in bytes
const (
	LoopFrameSize     = 99
	ArchiveRecordSize = 52
	DumpHeaderSize    = 6
	DumpPageSize      = 267 // 1 index + 260 records + 4 unused + 2 CRC
	DumpPageRecords   = 5

	firmwareDateSize    = 13 // "Mon DD YYYY" plus CR/LF
	firmwareVersionSize = 6
)
