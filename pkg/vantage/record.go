// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package vantage

import "fmt"

// Record is the raw product of a schema decode: a mapping from field name to
// decoded value (int for fixed-width integers, []byte for byte blocks). The
// typed parsers refine a Record into a fixed struct; transient fields never
// survive past that stage.
type Record struct {
	Fields   map[string]any
	Raw      []byte
	CRCError bool
}

// Int returns the named integer field, or zero if absent.
func (r Record) Int(name string) int {
	v, _ := r.Fields[name].(int)
	return v
}

// Bytes returns the named byte-block field, or nil if absent.
func (r Record) Bytes(name string) []byte {
	v, _ := r.Fields[name].([]byte)
	return v
}

// ExpandTuple replaces a byte-block field with one unsigned-byte field per
// element, named key plus a 1-based two-digit index ("SoilTemps" becomes
// "SoilTemps01".."SoilTemps04"). The original key is removed.
func (r Record) ExpandTuple(key string) {
	b, ok := r.Fields[key].([]byte)
	if !ok {
		return
	}
	for i, v := range b {
		r.Fields[indexedKey(key, i+1)] = int(v)
	}
	delete(r.Fields, key)
}

func indexedKey(key string, i int) string {
	return fmt.Sprintf("%s%02d", key, i)
}
