// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package vantage

import (
	"encoding/binary"
	"time"
)

// windDirInDegrees would convert the archived wind-direction compass codes
// (0-15) to degrees. The conversion exists in the console documentation but
// has never been enabled; WindHiDir and WindAvgDir stay raw. Known gap.
const windDirInDegrees = false

// archiveSchema is the Rev B layout of one 52-byte archived interval record.
var archiveSchema = Schema{
	Name:  "archive",
	Order: binary.LittleEndian,
	Fields: []Field{
		{Name: "DateStamp", Kind: Uint16},
		{Name: "TimeStamp", Kind: Uint16},
		{Name: "TempOut", Kind: Int16},
		{Name: "TempOutHi", Kind: Uint16},
		{Name: "TempOutLow", Kind: Uint16},
		{Name: "RainRate", Kind: Uint16},
		{Name: "RainRateHi", Kind: Uint16},
		{Name: "Barometer", Kind: Uint16},
		{Name: "SolarRad", Kind: Uint16},
		{Name: "WindSamps", Kind: Uint16},
		{Name: "TempIn", Kind: Int16},
		{Name: "HumIn", Kind: Uint8},
		{Name: "HumOut", Kind: Uint8},
		{Name: "WindAvg", Kind: Uint8},
		{Name: "WindHi", Kind: Uint8},
		{Name: "WindHiDir", Kind: Uint8},
		{Name: "WindAvgDir", Kind: Uint8},
		{Name: "UV", Kind: Uint8},
		{Name: "ETHour", Kind: Uint8},
		{Name: "SolarRadHi", Kind: Uint16},
		{Name: "UVHi", Kind: Uint8},
		{Name: "ForecastRuleNo", Kind: Uint8},
		{Name: "LeafTemps", Kind: Bytes, Len: 2},
		{Name: "LeafWetness", Kind: Bytes, Len: 2},
		{Name: "SoilTemps", Kind: Bytes, Len: 4},
		{Name: "RecType", Kind: Uint8},
		{Name: "ExtraHum", Kind: Bytes, Len: 2},
		{Name: "ExtraTemps", Kind: Bytes, Len: 3},
		{Name: "SoilMoist", Kind: Bytes, Len: 4},
	},
}

// dumpHeaderSchema is the 6-byte DMPAFT reply header.
var dumpHeaderSchema = Schema{
	Name:  "dump header",
	Order: binary.LittleEndian,
	Fields: []Field{
		{Name: "Pages", Kind: Uint16},
		{Name: "Offset", Kind: Uint16},
		{Name: "CRC", Kind: Uint16},
	},
}

// dumpPageSchema is one 267-byte archive dump page.
var dumpPageSchema = Schema{
	Name:  "dump page",
	Order: binary.LittleEndian,
	Fields: []Field{
		{Name: "Index", Kind: Uint8},
		{Name: "Records", Kind: Bytes, Len: 260},
		{Name: "Unused", Kind: Bytes, Len: 4},
		{Name: "CRC", Kind: Uint16},
	},
}

// ArchiveRecord is one archived interval reading, refined to engineering
// units. A blank archive slot has HasTime false and a zero Datetime.
type ArchiveRecord struct {
	Datetime time.Time
	HasTime  bool

	TempOut    float64 // °F
	TempOutHi  float64
	TempOutLow float64
	RainRate   int // clicks/hour, raw
	RainRateHi int
	Barometer  float64 // inches Hg
	SolarRad   int
	WindSamps  int
	TempIn     float64
	HumIn      int
	HumOut     int
	WindAvg    int
	WindHi     int
	WindHiDir  int // compass code 0-15, see windDirInDegrees
	WindAvgDir int
	UV         float64
	ETHour     float64
	SolarRadHi int
	UVHi       int

	ForecastRuleNo int
	RecType        int

	LeafTemps   [2]int // °F after the console's -90 offset
	LeafWetness [2]int
	SoilTemps   [4]int // °F after the console's -90 offset
	ExtraHum    [2]int
	ExtraTemps  [3]int // °F after the console's -90 offset
	SoilMoist   [4]int
}

// DumpHeader describes an archive download: how many 267-byte pages follow
// and the offset of the first new record within the first page.
type DumpHeader struct {
	Pages    int
	Offset   int
	CRCError bool
}

// DumpPage is one page of an archive download. Records holds five 52-byte
// sub-records.
type DumpPage struct {
	Index    int
	Records  []byte
	CRCError bool
}

// SubRecords splits the page's record blob into its five 52-byte sub-records.
func (p *DumpPage) SubRecords() [][]byte {
	out := make([][]byte, 0, DumpPageRecords)
	for off := 0; off+ArchiveRecordSize <= len(p.Records); off += ArchiveRecordSize {
		out = append(out, p.Records[off:off+ArchiveRecordSize])
	}
	return out
}

// ParseArchiveRecord decodes one 52-byte archived interval record.
func ParseArchiveRecord(raw []byte) (*ArchiveRecord, error) {
	rec, err := Decode(archiveSchema, raw)
	if err != nil {
		return nil, err
	}
	for _, key := range []string{
		"LeafTemps", "LeafWetness", "SoilTemps",
		"ExtraHum", "ExtraTemps", "SoilMoist",
	} {
		rec.ExpandTuple(key)
	}

	ar := &ArchiveRecord{
		TempOut:        float64(rec.Int("TempOut")) / 10,
		TempOutHi:      float64(rec.Int("TempOutHi")) / 10,
		TempOutLow:     float64(rec.Int("TempOutLow")) / 10,
		RainRate:       rec.Int("RainRate"),
		RainRateHi:     rec.Int("RainRateHi"),
		Barometer:      float64(rec.Int("Barometer")) / 1000,
		SolarRad:       rec.Int("SolarRad"),
		WindSamps:      rec.Int("WindSamps"),
		TempIn:         float64(rec.Int("TempIn")) / 10,
		HumIn:          rec.Int("HumIn"),
		HumOut:         rec.Int("HumOut"),
		WindAvg:        rec.Int("WindAvg"),
		WindHi:         rec.Int("WindHi"),
		WindHiDir:      rec.Int("WindHiDir"),
		WindAvgDir:     rec.Int("WindAvgDir"),
		UV:             float64(rec.Int("UV")) / 10,
		ETHour:         float64(rec.Int("ETHour")) / 1000,
		SolarRadHi:     rec.Int("SolarRadHi"),
		UVHi:           rec.Int("UVHi"),
		ForecastRuleNo: rec.Int("ForecastRuleNo"),
		RecType:        rec.Int("RecType"),
	}
	ar.Datetime, ar.HasTime = UnpackDumpDatetime(
		uint16(rec.Int("DateStamp")), uint16(rec.Int("TimeStamp")))

	// The console encodes soil, leaf and extra temperatures as byte-90 °F.
	fillIndexedOffset(rec, "LeafTemps", ar.LeafTemps[:], -90)
	fillIndexed(rec, "LeafWetness", ar.LeafWetness[:])
	fillIndexedOffset(rec, "SoilTemps", ar.SoilTemps[:], -90)
	fillIndexed(rec, "ExtraHum", ar.ExtraHum[:])
	fillIndexedOffset(rec, "ExtraTemps", ar.ExtraTemps[:], -90)
	fillIndexed(rec, "SoilMoist", ar.SoilMoist[:])

	if windDirInDegrees {
		ar.WindHiDir = int(float64(ar.WindHiDir) * 22.5)
		ar.WindAvgDir = int(float64(ar.WindAvgDir) * 22.5)
	}

	return ar, nil
}

// ParseDumpHeader decodes the 6-byte DMPAFT header.
func ParseDumpHeader(raw []byte) (*DumpHeader, error) {
	rec, err := Decode(dumpHeaderSchema, raw)
	if err != nil {
		return nil, err
	}
	return &DumpHeader{
		Pages:    rec.Int("Pages"),
		Offset:   rec.Int("Offset"),
		CRCError: rec.CRCError,
	}, nil
}

// ParseDumpPage decodes one 267-byte archive dump page.
func ParseDumpPage(raw []byte) (*DumpPage, error) {
	rec, err := Decode(dumpPageSchema, raw)
	if err != nil {
		return nil, err
	}
	return &DumpPage{
		Index:    rec.Int("Index"),
		Records:  rec.Bytes("Records"),
		CRCError: rec.CRCError,
	}, nil
}

func fillIndexedOffset(rec Record, key string, dst []int, offset int) {
	for i := range dst {
		dst[i] = rec.Int(indexedKey(key, i+1)) + offset
	}
}
