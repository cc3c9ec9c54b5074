// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package vantage

import (
	"bytes"
	"testing"
)

// ============================================================
// CRC Tests
// ============================================================

func TestCalculateCRC_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{
			name:     "ASCII '123456789'",
			data:     []byte("123456789"),
			expected: 0x31C3, // standard CRC-16/XMODEM check value
		},
		{
			name:     "empty",
			data:     []byte{},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crc := CalculateCRC(tt.data)
			if crc != tt.expected {
				t.Errorf("CRC mismatch: expected 0x%04X, got 0x%04X", tt.expected, crc)
			}
		})
	}
}

func TestCalculateCRC_Deterministic(t *testing.T) {
	data := []byte{0x10, 0x30, 0x01, 0x02, 0x03, 0x04}
	crc1 := CalculateCRC(data)
	crc2 := CalculateCRC(data)
	if crc1 != crc2 {
		t.Errorf("CRC should be deterministic: 0x%04X != 0x%04X", crc1, crc2)
	}
}

func TestWithChecksum_AppendsBigEndian(t *testing.T) {
	data := []byte("123456789")
	framed := WithChecksum(data)
	if len(framed) != len(data)+2 {
		t.Fatalf("framed length = %d, want %d", len(framed), len(data)+2)
	}
	if !bytes.Equal(framed[:len(data)], data) {
		t.Error("payload was modified")
	}
	if framed[len(data)] != 0x31 || framed[len(data)+1] != 0xC3 {
		t.Errorf("CRC bytes = %02X %02X, want 31 C3",
			framed[len(data)], framed[len(data)+1])
	}
}

func TestCalculateCRC_FramedDataIsZero(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	framed := WithChecksum(data)
	if crc := CalculateCRC(framed); crc != 0 {
		t.Errorf("CRC of payload+checksum = 0x%04X, want 0", crc)
	}
}

func TestValidCRC(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		valid bool
	}{
		{name: "framed payload", data: WithChecksum([]byte{0xDE, 0xAD, 0xBE, 0xEF}), valid: true},
		{name: "corrupted payload", data: []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x00}, valid: false},
		{name: "empty input rejected", data: []byte{}, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCRC(tt.data); got != tt.valid {
				t.Errorf("ValidCRC = %v, want %v", got, tt.valid)
			}
		})
	}
}
