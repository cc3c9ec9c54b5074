// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package link

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialLink is a byte link over a local serial port (8N1).
type SerialLink struct {
	port    serial.Port
	timeout time.Duration
}

// OpenSerial opens the named serial port at the given baud rate. The console
// typically runs at 19200.
func OpenSerial(portName string, baudRate int) (*SerialLink, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("link: open %s: %w", portName, err)
	}
	return &SerialLink{port: port, timeout: DefaultTimeout}, nil
}

func (l *SerialLink) Write(p []byte) (int, error) {
	return l.port.Write(p)
}

// Read returns up to n bytes, waiting at most timeout (the link default when
// timeout <= 0). A short result on timeout is not an error.
func (l *SerialLink) Read(n int, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = l.timeout
	}
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 0, n)
	tmp := make([]byte, n)
	for len(buf) < n {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		if err := l.port.SetReadTimeout(remaining); err != nil {
			return buf, fmt.Errorf("link: set read timeout: %w", err)
		}
		k, err := l.port.Read(tmp[:n-len(buf)])
		if err != nil {
			return buf, err
		}
		if k == 0 { // port timeout
			break
		}
		buf = append(buf, tmp[:k]...)
	}
	return buf, nil
}

func (l *SerialLink) SetTimeout(d time.Duration) {
	l.timeout = d
}

func (l *SerialLink) Close() error {
	return l.port.Close()
}
