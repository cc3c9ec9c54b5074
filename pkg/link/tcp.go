// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package link

import (
	"fmt"
	"net"
	"time"
)

// TCPLink is a byte link over a plain TCP socket, for serial-over-ethernet
// bridges in front of the console.
type TCPLink struct {
	conn    net.Conn
	timeout time.Duration
}

// OpenTCP dials addr ("host:port").
func OpenTCP(addr string) (*TCPLink, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("link: dial %s: %w", addr, err)
	}
	return &TCPLink{conn: conn, timeout: DefaultTimeout}, nil
}

func (l *TCPLink) Write(p []byte) (int, error) {
	return l.conn.Write(p)
}

// Read returns up to n bytes, waiting at most timeout (the link default when
// timeout <= 0). A short result on timeout is not an error.
func (l *TCPLink) Read(n int, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = l.timeout
	}
	if err := l.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	buf := make([]byte, 0, n)
	tmp := make([]byte, n)
	for len(buf) < n {
		k, err := l.conn.Read(tmp[:n-len(buf)])
		buf = append(buf, tmp[:k]...)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return buf, nil
			}
			return buf, err
		}
	}
	return buf, nil
}

func (l *TCPLink) SetTimeout(d time.Duration) {
	l.timeout = d
}

func (l *TCPLink) Close() error {
	return l.conn.Close()
}
