// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package vantage

import (
	"encoding/binary"
	"fmt"
	"time"
)

// dumpTimeSentinel marks an unused archive slot in both stamp words.
const dumpTimeSentinel = 0xFFFF

// PackDatetime encodes t as the console's explicit 6-byte calendar form
// (second, minute, hour, day, month, year-1900) with the CRC appended.
// Used by SETTIME.
func PackDatetime(t time.Time) []byte {
	data := []byte{
		byte(t.Second()),
		byte(t.Minute()),
		byte(t.Hour()),
		byte(t.Day()),
		byte(t.Month()),
		byte(t.Year() - 1900),
	}
	return WithChecksum(data)
}

// UnpackDatetime decodes the explicit 6-byte calendar form. The CRC over the
// full input is validated and logged but a failure does not block decoding;
// GETTIME replies are accepted on the console's word alone.
func UnpackDatetime(data []byte) (time.Time, error) {
	if len(data) < 6 {
		return time.Time{}, fmt.Errorf("%w: datetime frame is %d bytes, want at least 6",
			ErrBadData, len(data))
	}
	ValidCRC(data)
	return time.Date(
		int(data[5])+1900,
		time.Month(data[4]),
		int(data[3]),
		int(data[2]),
		int(data[1]),
		int(data[0]),
		0, time.Local,
	), nil
}

// PackDumpDatetime encodes t as the bit-packed DateStamp/TimeStamp pair used
// by DMPAFT queries, with the CRC appended.
//
// DateStamp is day + month*32 + (year-2000)*512; TimeStamp is hour*100+minute.
func PackDumpDatetime(t time.Time) []byte {
	date := uint16(t.Day() + int(t.Month())*32 + (t.Year()-2000)*512)
	tm := uint16(t.Hour()*100 + t.Minute())
	data := make([]byte, 4)
	binary.LittleEndian.PutUint16(data[0:2], date)
	binary.LittleEndian.PutUint16(data[2:4], tm)
	return WithChecksum(data)
}

// UnpackDumpDatetime decodes a DateStamp/TimeStamp pair from an archive
// record. The second return is false for the all-ones sentinel, which marks
// a blank archive slot.
func UnpackDumpDatetime(date, tm uint16) (time.Time, bool) {
	if date == dumpTimeSentinel || tm == dumpTimeSentinel {
		return time.Time{}, false
	}
	day := int(date & 0x1F)
	month := int((date >> 5) & 0x0F)
	year := int((date>>9)&0x7F) + 2000
	hour, minute := int(tm)/100, int(tm)%100
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local), true
}
