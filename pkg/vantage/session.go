// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package vantage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// revBCutoff separates the legacy Rev A record layout from the supported
// Rev B layout. Firmware dated on or after April 24, 2002 is Rev B.
var revBCutoff = time.Date(2002, time.April, 24, 0, 0, 0, 0, time.Local)

// Diagnostics is the console receiver report from RXCHECK.
type Diagnostics struct {
	TotalReceived int
	TotalMissed   int
	Resyncs       int
	MaxReceived   int
	CRCErrors     int
}

// Console is a session with a Vantage Pro2 console. It owns its Link
// exclusively; all exchanges are sequential request/response pairs and no
// concurrent use is permitted.
//
// One-shot properties (archive period, timezone, firmware info) are cached
// for the session's lifetime after first success. A power-cycled console
// makes those caches stale; that is an accepted limitation.
type Console struct {
	link Link

	archivePeriod *int
	timezone      string
	fwDate        *time.Time
	fwVersion     string
	diagnostics   *Diagnostics
}

// NewConsole wraps an open Link. No I/O happens until the first operation;
// the firmware revision is probed lazily and cached.
func NewConsole(link Link) *Console {
	return &Console{link: link}
}

// Close releases the underlying link.
func (c *Console) Close() error {
	return c.link.Close()
}

// WakeUp rouses the console from its low-power state. It writes a line feed
// and expects CR-LF back, retrying up to 3 times with a 1-second delay.
func (c *Console) WakeUp() error {
	policy := retryPolicy{Tries: 3, Delay: time.Second, On: []error{ErrNoDevice}}
	return policy.Do(c.wake)
}

func (c *Console) wake() error {
	logger.Info().Msg("waking console")
	if _, err := c.link.Write([]byte(WakeStr)); err != nil {
		return err
	}
	ack, err := c.link.Read(len(WakeAck), 0)
	if err != nil {
		return err
	}
	if string(ack) == WakeAck {
		logger.Info().Msg("console awake")
		return nil
	}
	// The console sometimes drifts by one byte in the serial buffer.
	// Consume one extra byte so the next attempt is aligned again.
	c.link.Read(1, 0)
	return fmt.Errorf("%w: wake ack %q", ErrNoDevice, ack)
}

// send writes data and, when ack is non-empty, verifies the console's
// acknowledgement. Retries up to 3 times with a 0.5-second delay.
func (c *Console) send(data, ack []byte, timeout time.Duration) error {
	policy := retryPolicy{Tries: 3, Delay: 500 * time.Millisecond, On: []error{ErrBadAck}}
	return policy.Do(func() error {
		return c.sendOnce(data, ack, timeout)
	})
}

// sendCommand sends a textual command with the trailing line feed appended.
func (c *Console) sendCommand(cmd string, ack []byte, timeout time.Duration) error {
	logger.Info().Str("cmd", cmd).Msg("send command")
	return c.send([]byte(cmd+"\n"), ack, timeout)
}

func (c *Console) sendOnce(data, ack []byte, timeout time.Duration) error {
	if _, err := c.link.Write(data); err != nil {
		return err
	}
	if len(ack) == 0 {
		return nil
	}
	got, err := c.link.Read(len(ack), timeout)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, ack) {
		logger.Error().Str("want", fmt.Sprintf("%q", ack)).
			Str("got", fmt.Sprintf("%q", got)).Msg("check ack: bad")
		return fmt.Errorf("%w: want %q, got %q", ErrBadAck, ack, got)
	}
	logger.Info().Str("ack", fmt.Sprintf("%q", got)).Msg("check ack: ok")
	return nil
}

// ReadFromEEPROM reads size bytes of console EEPROM starting at the given
// hex address. The response's CRC is enforced; retries up to 3 times with a
// 1-second delay.
func (c *Console) ReadFromEEPROM(hexAddress string, size int) ([]byte, error) {
	policy := retryPolicy{
		Tries: 3,
		Delay: time.Second,
		On:    []error{ErrBadAck, ErrBadCRC, ErrBadData},
	}
	var payload []byte
	err := policy.Do(func() error {
		var err error
		payload, err = c.readEEPROM(hexAddress, size)
		return err
	})
	return payload, err
}

func (c *Console) readEEPROM(hexAddress string, size int) ([]byte, error) {
	cmd := fmt.Sprintf("EEBRD %s %02d\n", hexAddress, size)
	if _, err := c.link.Write([]byte(cmd)); err != nil {
		return nil, err
	}
	ack, err := c.link.Read(1, 0)
	if err != nil {
		return nil, err
	}
	if len(ack) != 1 || ack[0] != Ack {
		return nil, fmt.Errorf("%w: EEBRD ack %q", ErrBadAck, ack)
	}
	data, err := c.link.Read(size+2, 0) // payload plus 2 CRC bytes
	if err != nil {
		return nil, err
	}
	if len(data) != size+2 {
		return nil, fmt.Errorf("%w: EEBRD response is %d bytes, want %d",
			ErrBadData, len(data), size+2)
	}
	if !ValidCRC(data) {
		return nil, fmt.Errorf("%w: EEBRD %s", ErrBadCRC, hexAddress)
	}
	return data[:size], nil
}

// GetTime returns the console's current clock reading.
func (c *Console) GetTime() (time.Time, error) {
	if err := c.WakeUp(); err != nil {
		return time.Time{}, err
	}
	if err := c.sendCommand("GETTIME", []byte{Ack}, 0); err != nil {
		return time.Time{}, err
	}
	data, err := c.link.Read(8, 0)
	if err != nil {
		return time.Time{}, err
	}
	return UnpackDatetime(data)
}

// SetTime sets the console clock to t.
func (c *Console) SetTime(t time.Time) error {
	if err := c.WakeUp(); err != nil {
		return err
	}
	if err := c.sendCommand("SETTIME", []byte{Ack}, 0); err != nil {
		return err
	}
	return c.send(PackDatetime(t), []byte{Ack}, 0)
}

// GetCurrentData returns the real-time reading from "LOOP 1", stamped with
// the current time. Fails with ErrUnsupportedFormat on Rev A firmware.
func (c *Console) GetCurrentData() (*LoopSnapshot, error) {
	revB, err := c.revB()
	if err != nil {
		return nil, err
	}
	if !revB {
		return nil, fmt.Errorf("%w: Rev A firmware", ErrUnsupportedFormat)
	}
	if err := c.WakeUp(); err != nil {
		return nil, err
	}
	if err := c.sendCommand("LOOP 1", []byte{Ack}, 0); err != nil {
		return nil, err
	}
	raw, err := c.link.Read(LoopFrameSize, 0)
	if err != nil {
		return nil, err
	}
	return ParseLoop(raw, time.Now())
}

// ArchivePeriod returns the configured minutes between archive records.
// Cached after the first read.
func (c *Console) ArchivePeriod() (int, error) {
	if c.archivePeriod != nil {
		return *c.archivePeriod, nil
	}
	if err := c.WakeUp(); err != nil {
		return 0, err
	}
	data, err := c.ReadFromEEPROM("2D", 1)
	if err != nil {
		return 0, err
	}
	period := int(data[0])
	c.archivePeriod = &period
	return period, nil
}

// Timezone returns the console's timezone setting as a display string.
// Cached after the first read.
func (c *Console) Timezone() (string, error) {
	if c.timezone != "" {
		return c.timezone, nil
	}
	if err := c.WakeUp(); err != nil {
		return "", err
	}
	data, err := c.ReadFromEEPROM("14", 3)
	if err != nil {
		return "", err
	}
	offset := binary.LittleEndian.Uint16(data[0:2])
	if data[2] != 0 {
		c.timezone = fmt.Sprintf("GMT+%.2f", float64(offset)/100)
	} else {
		c.timezone = "Localtime"
	}
	return c.timezone, nil
}

// FirmwareDate returns the firmware date code. Cached after the first read.
func (c *Console) FirmwareDate() (time.Time, error) {
	if c.fwDate != nil {
		return *c.fwDate, nil
	}
	if err := c.WakeUp(); err != nil {
		return time.Time{}, err
	}
	if err := c.sendCommand("VER", []byte(OK), 0); err != nil {
		return time.Time{}, err
	}
	data, err := c.link.Read(firmwareDateSize, 0)
	if err != nil {
		return time.Time{}, err
	}
	text := strings.Trim(string(data), "\n\r")
	// The console pads single-digit days with a space ("Apr  4 2002").
	d, err := time.Parse("Jan 2 2006", strings.Join(strings.Fields(text), " "))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: firmware date %q", ErrBadData, text)
	}
	c.fwDate = &d
	return d, nil
}

// FirmwareVersion returns the firmware version string. Cached after the
// first read.
func (c *Console) FirmwareVersion() (string, error) {
	if c.fwVersion != "" {
		return c.fwVersion, nil
	}
	if err := c.WakeUp(); err != nil {
		return "", err
	}
	if err := c.sendCommand("NVER", []byte(OK), 0); err != nil {
		return "", err
	}
	data, err := c.link.Read(firmwareVersionSize, 0)
	if err != nil {
		return "", err
	}
	c.fwVersion = strings.Trim(string(data), "\n\r")
	return c.fwVersion, nil
}

// GetDiagnostics returns the console receiver report (RXCHECK). Cached
// after the first read.
func (c *Console) GetDiagnostics() (*Diagnostics, error) {
	if c.diagnostics != nil {
		return c.diagnostics, nil
	}
	if err := c.WakeUp(); err != nil {
		return nil, err
	}
	if err := c.sendCommand("RXCHECK", []byte(OK), 0); err != nil {
		return nil, err
	}
	data, err := c.readLine(64) // delimited text line, length varies
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(strings.Trim(string(data), "\n\r"))
	if len(fields) < 5 {
		return nil, fmt.Errorf("%w: RXCHECK response %q", ErrBadData, data)
	}
	values := make([]int, 5)
	for i := range values {
		values[i], err = strconv.Atoi(fields[i])
		if err != nil {
			return nil, fmt.Errorf("%w: RXCHECK field %q", ErrBadData, fields[i])
		}
	}
	c.diagnostics = &Diagnostics{
		TotalReceived: values[0],
		TotalMissed:   values[1],
		Resyncs:       values[2],
		MaxReceived:   values[3],
		CRCErrors:     values[4],
	}
	return c.diagnostics, nil
}

// readLine reads byte by byte until the console's LF-CR line terminator or
// the max bound, so a variable-length text reply returns as soon as it is
// complete instead of waiting out the full read timeout.
func (c *Console) readLine(max int) ([]byte, error) {
	buf := make([]byte, 0, max)
	for len(buf) < max {
		b, err := c.link.Read(1, 0)
		if err != nil {
			return buf, err
		}
		if len(b) == 0 {
			break
		}
		buf = append(buf, b...)
		if len(buf) >= 2 && buf[len(buf)-2] == '\n' && buf[len(buf)-1] == '\r' {
			break
		}
	}
	return buf, nil
}

// revB reports whether the console firmware uses the supported Rev B record
// layout.
func (c *Console) revB() (bool, error) {
	d, err := c.FirmwareDate()
	if err != nil {
		return false, err
	}
	return !d.Before(revBCutoff), nil
}
