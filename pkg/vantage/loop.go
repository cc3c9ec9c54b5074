// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package vantage

import (
	"encoding/binary"
	"fmt"
	"time"
)

// loopSchema is the Rev B layout of the 99-byte "LOOP 1" response.
var loopSchema = Schema{
	Name:  "LOOP",
	Order: binary.LittleEndian,
	Fields: []Field{
		{Name: "LOO", Kind: Bytes, Len: 3},
		{Name: "BarTrend", Kind: Int8},
		{Name: "PacketType", Kind: Uint8},
		{Name: "NextRec", Kind: Uint16},
		{Name: "Barometer", Kind: Uint16},
		{Name: "TempIn", Kind: Int16},
		{Name: "HumIn", Kind: Uint8},
		{Name: "TempOut", Kind: Int16},
		{Name: "WindSpeed", Kind: Uint8},
		{Name: "WindSpeed10Min", Kind: Uint8},
		{Name: "WindDir", Kind: Uint16},
		{Name: "ExtraTemps", Kind: Bytes, Len: 7},
		{Name: "SoilTemps", Kind: Bytes, Len: 4},
		{Name: "LeafTemps", Kind: Bytes, Len: 4},
		{Name: "HumOut", Kind: Uint8},
		{Name: "HumExtra", Kind: Bytes, Len: 7},
		{Name: "RainRate", Kind: Uint16},
		{Name: "UV", Kind: Uint8},
		{Name: "SolarRad", Kind: Uint16},
		{Name: "RainStorm", Kind: Uint16},
		{Name: "StormStartDate", Kind: Uint16},
		{Name: "RainDay", Kind: Uint16},
		{Name: "RainMonth", Kind: Uint16},
		{Name: "RainYear", Kind: Uint16},
		{Name: "ETDay", Kind: Uint16},
		{Name: "ETMonth", Kind: Uint16},
		{Name: "ETYear", Kind: Uint16},
		{Name: "SoilMoist", Kind: Bytes, Len: 4},
		{Name: "LeafWetness", Kind: Bytes, Len: 4},
		{Name: "AlarmIn", Kind: Uint8},
		{Name: "AlarmRain", Kind: Uint8},
		{Name: "AlarmOut", Kind: Bytes, Len: 2},
		{Name: "AlarmExTempHum", Kind: Bytes, Len: 8},
		{Name: "AlarmSoilLeaf", Kind: Bytes, Len: 4},
		{Name: "BatteryStatus", Kind: Uint8},
		{Name: "BatteryVolts", Kind: Uint16},
		{Name: "ForecastIcon", Kind: Uint8},
		{Name: "ForecastRuleNo", Kind: Uint8},
		{Name: "SunRise", Kind: Uint16},
		{Name: "SunSet", Kind: Uint16},
		{Name: "EOL", Kind: Bytes, Len: 2},
		{Name: "CRC", Kind: Uint16},
	},
}

// InsideAlarms are the inside-sensor alarm flags (7 bits used).
type InsideAlarms struct {
	FallBarTrend bool
	RisBarTrend  bool
	LowTemp      bool
	HighTemp     bool
	LowHum       bool
	HighHum      bool
	Time         bool
}

// RainAlarms are the rain alarm flags (5 bits used).
type RainAlarms struct {
	HighRate       bool
	FifteenMin     bool
	TwentyFourHour bool
	StormTotal     bool
	ETDaily        bool
}

// OutsideAlarms are the outside-sensor alarm flags (13 bits across 2 bytes).
type OutsideAlarms struct {
	LowTemp        bool
	HighTemp       bool
	WindSpeed      bool
	TenMinAvgSpeed bool
	LowDewpoint    bool
	HighDewpoint   bool
	HighHeat       bool
	LowWindChill   bool
	HighTHSW       bool
	HighSolarRad   bool
	HighUV         bool
	UVDose         bool
	UVDoseEnabled  bool
}

// ExtraAlarms are the alarm flags for one extra temperature/humidity sensor.
type ExtraAlarms struct {
	LowTemp  bool
	HighTemp bool
	LowHum   bool
	HighHum  bool
}

// SoilLeafAlarms are the alarm flags for one soil/leaf sensor station.
type SoilLeafAlarms struct {
	LowLeafWet   bool
	HighLeafWet  bool
	LowSoilMois  bool
	HighSoilMois bool
	LowLeafTemp  bool
	HighLeafTemp bool
	LowSoilTemp  bool
	HighSoilTemp bool
}

// LoopSnapshot is the real-time reading returned by "LOOP 1", refined to
// engineering units. The frame's transient fields (framing marker,
// next-record pointer, packet type, end-of-line marker, raw CRC) do not
// appear here.
type LoopSnapshot struct {
	Datetime time.Time // capture time, supplied by the caller

	BarTrend       int
	Barometer      float64 // inches Hg
	TempIn         float64 // °F
	TempOut        float64 // °F
	HumIn          int
	HumOut         int
	WindSpeed      int
	WindSpeed10Min int
	WindDir        int // degrees

	RainRate  float64 // inches/hour
	RainStorm float64 // inches
	RainDay   float64
	RainMonth float64
	RainYear  float64

	// StormStartDate is "YYYY-M-D" with no zero padding of month or day.
	// Downstream consumers rely on the unpadded form.
	StormStartDate string

	UV       int
	SolarRad int // watts/m²

	ETDay   float64 // inches
	ETMonth float64
	ETYear  float64

	ExtraTemps  [7]int // °F + 90 offset encoding, raw
	SoilTemps   [4]int
	LeafTemps   [4]int
	HumExtra    [7]int
	SoilMoist   [4]int
	LeafWetness [4]int

	BatteryStatus  int
	BatteryVolts   float64
	ForecastIcon   int
	ForecastRuleNo int

	// SunRise and SunSet are zero-padded "HH:MM" strings.
	SunRise string
	SunSet  string

	InsideAlarms   InsideAlarms
	RainAlarms     RainAlarms
	OutsideAlarms  OutsideAlarms
	ExtraAlarms    [7]ExtraAlarms
	SoilLeafAlarms [4]SoilLeafAlarms

	// CRCError mirrors the frame's embedded CRC check. Advisory for LOOP
	// frames; validity is not enforced here.
	CRCError bool
}

// ParseLoop decodes a 99-byte "LOOP 1" frame into a LoopSnapshot stamped
// with the supplied capture time.
func ParseLoop(raw []byte, captured time.Time) (*LoopSnapshot, error) {
	rec, err := Decode(loopSchema, raw)
	if err != nil {
		return nil, err
	}
	for _, key := range []string{
		"ExtraTemps", "SoilTemps", "LeafTemps",
		"HumExtra", "SoilMoist", "LeafWetness",
	} {
		rec.ExpandTuple(key)
	}

	snap := &LoopSnapshot{
		Datetime:       captured,
		BarTrend:       rec.Int("BarTrend"),
		Barometer:      float64(rec.Int("Barometer")) / 1000,
		TempIn:         float64(rec.Int("TempIn")) / 10,
		TempOut:        float64(rec.Int("TempOut")) / 10,
		HumIn:          rec.Int("HumIn"),
		HumOut:         rec.Int("HumOut"),
		WindSpeed:      rec.Int("WindSpeed"),
		WindSpeed10Min: rec.Int("WindSpeed10Min"),
		WindDir:        rec.Int("WindDir"),
		RainRate:       float64(rec.Int("RainRate")) / 100,
		RainStorm:      float64(rec.Int("RainStorm")) / 100,
		RainDay:        float64(rec.Int("RainDay")) / 100,
		RainMonth:      float64(rec.Int("RainMonth")) / 100,
		RainYear:       float64(rec.Int("RainYear")) / 100,
		StormStartDate: unpackStormDate(rec.Int("StormStartDate")),
		UV:             rec.Int("UV"),
		SolarRad:       rec.Int("SolarRad"),
		ETDay:          float64(rec.Int("ETDay")) / 1000,
		ETMonth:        float64(rec.Int("ETMonth")) / 100,
		ETYear:         float64(rec.Int("ETYear")) / 100,
		BatteryStatus:  rec.Int("BatteryStatus"),
		BatteryVolts:   float64(rec.Int("BatteryVolts")) * 300 / 512 / 100,
		ForecastIcon:   rec.Int("ForecastIcon"),
		ForecastRuleNo: rec.Int("ForecastRuleNo"),
		SunRise:        unpackClock(rec.Int("SunRise")),
		SunSet:         unpackClock(rec.Int("SunSet")),
		CRCError:       rec.CRCError,
	}

	fillIndexed(rec, "ExtraTemps", snap.ExtraTemps[:])
	fillIndexed(rec, "SoilTemps", snap.SoilTemps[:])
	fillIndexed(rec, "LeafTemps", snap.LeafTemps[:])
	fillIndexed(rec, "HumExtra", snap.HumExtra[:])
	fillIndexed(rec, "SoilMoist", snap.SoilMoist[:])
	fillIndexed(rec, "LeafWetness", snap.LeafWetness[:])

	snap.InsideAlarms = unpackInsideAlarms(byte(rec.Int("AlarmIn")))
	snap.RainAlarms = unpackRainAlarms(byte(rec.Int("AlarmRain")))
	snap.OutsideAlarms = unpackOutsideAlarms(rec.Bytes("AlarmOut"))

	// The first AlarmExTempHum byte carries the outside-humidity alarms;
	// the remaining seven map to the extra temp/hum sensors.
	exBytes := rec.Bytes("AlarmExTempHum")
	for i := 0; i < 7; i++ {
		b := exBytes[i+1]
		snap.ExtraAlarms[i] = ExtraAlarms{
			LowTemp:  bit(b, 0),
			HighTemp: bit(b, 1),
			LowHum:   bit(b, 2),
			HighHum:  bit(b, 3),
		}
	}
	slBytes := rec.Bytes("AlarmSoilLeaf")
	for i := 0; i < 4; i++ {
		b := slBytes[i]
		snap.SoilLeafAlarms[i] = SoilLeafAlarms{
			LowLeafWet:   bit(b, 0),
			HighLeafWet:  bit(b, 1),
			LowSoilMois:  bit(b, 2),
			HighSoilMois: bit(b, 3),
			LowLeafTemp:  bit(b, 4),
			HighLeafTemp: bit(b, 5),
			LowSoilTemp:  bit(b, 6),
			HighSoilTemp: bit(b, 7),
		}
	}

	return snap, nil
}

func unpackInsideAlarms(b byte) InsideAlarms {
	return InsideAlarms{
		FallBarTrend: bit(b, 0),
		RisBarTrend:  bit(b, 1),
		LowTemp:      bit(b, 2),
		HighTemp:     bit(b, 3),
		LowHum:       bit(b, 4),
		HighHum:      bit(b, 5),
		Time:         bit(b, 6),
	}
}

func unpackRainAlarms(b byte) RainAlarms {
	return RainAlarms{
		HighRate:       bit(b, 0),
		FifteenMin:     bit(b, 1),
		TwentyFourHour: bit(b, 2),
		StormTotal:     bit(b, 3),
		ETDaily:        bit(b, 4),
	}
}

func unpackOutsideAlarms(bs []byte) OutsideAlarms {
	return OutsideAlarms{
		LowTemp:        bit(bs[0], 0),
		HighTemp:       bit(bs[0], 1),
		WindSpeed:      bit(bs[0], 2),
		TenMinAvgSpeed: bit(bs[0], 3),
		LowDewpoint:    bit(bs[0], 4),
		HighDewpoint:   bit(bs[0], 5),
		HighHeat:       bit(bs[0], 6),
		LowWindChill:   bit(bs[0], 7),
		HighTHSW:       bit(bs[1], 0),
		HighSolarRad:   bit(bs[1], 1),
		HighUV:         bit(bs[1], 2),
		UVDose:         bit(bs[1], 3),
		UVDoseEnabled:  bit(bs[1], 4),
	}
}

// unpackStormDate decodes the bit-packed storm start date: 7 low bits year
// offset from 2000, then 5 bits day, then 4 bits month. Month and day are
// deliberately left unpadded.
func unpackStormDate(v int) string {
	year := v&0x7F + 2000
	day := (v >> 7) & 0x1F
	month := (v >> 12) & 0x0F
	return fmt.Sprintf("%d-%d-%d", year, month, day)
}

// unpackClock decodes a packed HHMM integer ("601" is 6:01 AM) to "HH:MM".
func unpackClock(v int) string {
	return fmt.Sprintf("%02d:%02d", v/100, v%100)
}

func fillIndexed(rec Record, key string, dst []int) {
	for i := range dst {
		dst[i] = rec.Int(indexedKey(key, i+1))
	}
}

func bit(b byte, i uint) bool {
	return b>>i&1 == 1
}
