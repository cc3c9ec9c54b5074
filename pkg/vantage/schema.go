// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package vantage

import (
	"encoding/binary"
	"fmt"
)

// FieldKind describes the wire representation of a schema field.
type FieldKind int

// Field kinds
const (
	Uint8 FieldKind = iota
	Int8
	Uint16
	Int16
	Bytes // fixed-length byte block, width given by Field.Len
)

// Field is one entry of a record schema. Names must be unique within a
// schema; a field named "CRC" marks the frame as checksummed.
type Field struct {
	Name string
	Kind FieldKind
	Len  int // byte length, Bytes fields only
}

func (f Field) size() int {
	switch f.Kind {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	default:
		return f.Len
	}
}

// Schema is an ordered fixed-layout frame description interpreted by Decode.
type Schema struct {
	Name   string
	Order  binary.ByteOrder
	Fields []Field
}

// Size returns the total encoded width of the schema in bytes.
func (s Schema) Size() int {
	n := 0
	for _, f := range s.Fields {
		n += f.size()
	}
	return n
}

// Decode unpacks a raw frame into a Record of named fields. It fails with
// ErrBadData when the frame length does not match the schema width.
//
// If the schema declares a "CRC" field, the checksum engine runs over the
// entire frame and the outcome is recorded on the Record rather than
// failing; callers decide whether a CRC error is fatal.
func Decode(s Schema, raw []byte) (Record, error) {
	if len(raw) != s.Size() {
		return Record{}, fmt.Errorf("%w: %s frame is %d bytes, want %d",
			ErrBadData, s.Name, len(raw), s.Size())
	}
	rec := Record{
		Fields: make(map[string]any, len(s.Fields)),
		Raw:    raw,
	}
	off := 0
	for _, f := range s.Fields {
		switch f.Kind {
		case Uint8:
			rec.Fields[f.Name] = int(raw[off])
		case Int8:
			rec.Fields[f.Name] = int(int8(raw[off]))
		case Uint16:
			rec.Fields[f.Name] = int(s.Order.Uint16(raw[off:]))
		case Int16:
			rec.Fields[f.Name] = int(int16(s.Order.Uint16(raw[off:])))
		case Bytes:
			rec.Fields[f.Name] = append([]byte(nil), raw[off:off+f.Len]...)
		}
		off += f.size()
	}
	if _, ok := rec.Fields["CRC"]; ok {
		rec.CRCError = !ValidCRC(raw)
	}
	return rec, nil
}
