// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package vantage

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

// buildLoopFrame builds a synthetic Rev B "LOOP 1" frame with a valid CRC.
func buildLoopFrame() []byte {
	le := binary.LittleEndian
	buf := make([]byte, LoopFrameSize-2)

	copy(buf[0:3], "LOO")
	barTrend := int8(-20)
	buf[3] = byte(barTrend) // BarTrend: falling rapidly
	buf[4] = 0               // PacketType: LOOP
	le.PutUint16(buf[5:], 42)
	le.PutUint16(buf[7:], 30000)                // Barometer: 30.000 inHg
	le.PutUint16(buf[9:], 755)                  // TempIn: 75.5 °F
	buf[11] = 40                                // HumIn
	tempOut := int16(-105)
	le.PutUint16(buf[12:], uint16(tempOut)) // TempOut: -10.5 °F
	buf[14] = 7                                 // WindSpeed
	buf[15] = 5                                 // WindSpeed10Min
	le.PutUint16(buf[16:], 270)                 // WindDir
	for i := 0; i < 7; i++ {
		buf[18+i] = byte(101 + i) // ExtraTemps
	}
	for i := 0; i < 4; i++ {
		buf[25+i] = byte(120 + i) // SoilTemps
		buf[29+i] = byte(130 + i) // LeafTemps
	}
	buf[33] = 65 // HumOut
	for i := 0; i < 7; i++ {
		buf[34+i] = byte(11 + i) // HumExtra
	}
	le.PutUint16(buf[41:], 150) // RainRate: 1.50
	buf[43] = 3                 // UV
	le.PutUint16(buf[44:], 700) // SolarRad
	le.PutUint16(buf[46:], 125) // RainStorm: 1.25
	// StormStartDate: year 23, day 5, month 6
	le.PutUint16(buf[48:], 23|5<<7|6<<12)
	le.PutUint16(buf[50:], 34)   // RainDay: 0.34
	le.PutUint16(buf[52:], 245)  // RainMonth: 2.45
	le.PutUint16(buf[54:], 1234) // RainYear: 12.34
	le.PutUint16(buf[56:], 123)  // ETDay: 0.123
	le.PutUint16(buf[58:], 45)   // ETMonth: 0.45
	le.PutUint16(buf[60:], 678)  // ETYear: 6.78
	for i := 0; i < 4; i++ {
		buf[62+i] = byte(21 + i) // SoilMoist
		buf[66+i] = byte(1 + i)  // LeafWetness
	}
	buf[70] = 0b00000101 // AlarmIn: falling bar trend, low temp
	buf[71] = 0b00010001 // AlarmRain: high rate, ET daily
	buf[72] = 0b10000001 // AlarmOut: low temp, low wind chill
	buf[73] = 0b00000100 // AlarmOut: high UV
	buf[75] = 0b00001010 // extra sensor 1: high temp, high hum
	buf[82] = 0b01000001 // soil/leaf station 1: low leaf wet, low soil temp
	buf[86] = 1          // BatteryStatus
	le.PutUint16(buf[87:], 512) // BatteryVolts: 3.00 V
	buf[89] = 6                 // ForecastIcon
	buf[90] = 45                // ForecastRuleNo
	le.PutUint16(buf[91:], 601) // SunRise: 06:01
	le.PutUint16(buf[93:], 1805)
	copy(buf[95:97], "\n\r")

	return WithChecksum(buf)
}

func TestParseLoop(t *testing.T) {
	captured := time.Date(2023, time.June, 15, 12, 0, 0, 0, time.Local)
	snap, err := ParseLoop(buildLoopFrame(), captured)
	if err != nil {
		t.Fatalf("ParseLoop error: %v", err)
	}

	if !snap.Datetime.Equal(captured) {
		t.Errorf("Datetime = %v, want %v", snap.Datetime, captured)
	}
	if snap.CRCError {
		t.Error("CRCError set for valid frame")
	}
	if snap.BarTrend != -20 {
		t.Errorf("BarTrend = %d, want -20", snap.BarTrend)
	}

	scaled := []struct {
		name string
		got  float64
		want float64
	}{
		{"Barometer", snap.Barometer, 30.0},
		{"TempIn", snap.TempIn, 75.5},
		{"TempOut", snap.TempOut, -10.5},
		{"RainRate", snap.RainRate, 1.5},
		{"RainStorm", snap.RainStorm, 1.25},
		{"RainDay", snap.RainDay, 0.34},
		{"RainMonth", snap.RainMonth, 2.45},
		{"RainYear", snap.RainYear, 12.34},
		{"ETDay", snap.ETDay, 0.123},
		{"ETMonth", snap.ETMonth, 0.45},
		{"ETYear", snap.ETYear, 6.78},
		{"BatteryVolts", snap.BatteryVolts, 3.0},
	}
	for _, tt := range scaled {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if snap.StormStartDate != "2023-6-5" {
		t.Errorf("StormStartDate = %q, want %q (month/day unpadded)", snap.StormStartDate, "2023-6-5")
	}
	if snap.SunRise != "06:01" {
		t.Errorf("SunRise = %q, want %q", snap.SunRise, "06:01")
	}
	if snap.SunSet != "18:05" {
		t.Errorf("SunSet = %q, want %q", snap.SunSet, "18:05")
	}
}

func TestParseLoop_SensorBlocks(t *testing.T) {
	snap, err := ParseLoop(buildLoopFrame(), time.Now())
	if err != nil {
		t.Fatalf("ParseLoop error: %v", err)
	}

	for i, want := range []int{101, 102, 103, 104, 105, 106, 107} {
		if snap.ExtraTemps[i] != want {
			t.Errorf("ExtraTemps[%d] = %d, want %d", i, snap.ExtraTemps[i], want)
		}
	}
	for i, want := range []int{120, 121, 122, 123} {
		if snap.SoilTemps[i] != want {
			t.Errorf("SoilTemps[%d] = %d, want %d", i, snap.SoilTemps[i], want)
		}
	}
	for i, want := range []int{130, 131, 132, 133} {
		if snap.LeafTemps[i] != want {
			t.Errorf("LeafTemps[%d] = %d, want %d", i, snap.LeafTemps[i], want)
		}
	}
	for i, want := range []int{11, 12, 13, 14, 15, 16, 17} {
		if snap.HumExtra[i] != want {
			t.Errorf("HumExtra[%d] = %d, want %d", i, snap.HumExtra[i], want)
		}
	}
	for i, want := range []int{21, 22, 23, 24} {
		if snap.SoilMoist[i] != want {
			t.Errorf("SoilMoist[%d] = %d, want %d", i, snap.SoilMoist[i], want)
		}
	}
	for i, want := range []int{1, 2, 3, 4} {
		if snap.LeafWetness[i] != want {
			t.Errorf("LeafWetness[%d] = %d, want %d", i, snap.LeafWetness[i], want)
		}
	}
}

func TestParseLoop_Alarms(t *testing.T) {
	snap, err := ParseLoop(buildLoopFrame(), time.Now())
	if err != nil {
		t.Fatalf("ParseLoop error: %v", err)
	}

	in := snap.InsideAlarms
	if !in.FallBarTrend || !in.LowTemp {
		t.Errorf("InsideAlarms = %+v, want FallBarTrend and LowTemp set", in)
	}
	if in.RisBarTrend || in.HighTemp || in.LowHum || in.HighHum || in.Time {
		t.Errorf("InsideAlarms = %+v, unexpected flags set", in)
	}

	rain := snap.RainAlarms
	if !rain.HighRate || !rain.ETDaily {
		t.Errorf("RainAlarms = %+v, want HighRate and ETDaily set", rain)
	}
	if rain.FifteenMin || rain.TwentyFourHour || rain.StormTotal {
		t.Errorf("RainAlarms = %+v, unexpected flags set", rain)
	}

	out := snap.OutsideAlarms
	if !out.LowTemp || !out.LowWindChill || !out.HighUV {
		t.Errorf("OutsideAlarms = %+v, want LowTemp, LowWindChill, HighUV set", out)
	}
	if out.HighTemp || out.WindSpeed || out.HighTHSW || out.UVDose {
		t.Errorf("OutsideAlarms = %+v, unexpected flags set", out)
	}

	ex := snap.ExtraAlarms[0]
	if !ex.HighTemp || !ex.HighHum || ex.LowTemp || ex.LowHum {
		t.Errorf("ExtraAlarms[0] = %+v, want HighTemp and HighHum only", ex)
	}
	for i := 1; i < 7; i++ {
		if snap.ExtraAlarms[i] != (ExtraAlarms{}) {
			t.Errorf("ExtraAlarms[%d] = %+v, want empty", i, snap.ExtraAlarms[i])
		}
	}

	sl := snap.SoilLeafAlarms[0]
	if !sl.LowLeafWet || !sl.LowSoilTemp {
		t.Errorf("SoilLeafAlarms[0] = %+v, want LowLeafWet and LowSoilTemp set", sl)
	}
	if sl.HighLeafWet || sl.HighSoilTemp {
		t.Errorf("SoilLeafAlarms[0] = %+v, unexpected flags set", sl)
	}
}

func TestParseLoop_WrongLength(t *testing.T) {
	_, err := ParseLoop(make([]byte, 98), time.Now())
	if !errors.Is(err, ErrBadData) {
		t.Errorf("error = %v, want ErrBadData", err)
	}
}

func TestParseLoop_CRCAdvisory(t *testing.T) {
	frame := buildLoopFrame()
	frame[7] ^= 0xFF // corrupt the barometer bytes
	snap, err := ParseLoop(frame, time.Now())
	if err != nil {
		t.Fatalf("ParseLoop error: %v", err)
	}
	if !snap.CRCError {
		t.Error("CRCError not set for corrupted frame")
	}
}
