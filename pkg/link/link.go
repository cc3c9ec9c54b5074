// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

// Package link provides byte-link implementations for talking to a Vantage
// console: a local serial port, a plain TCP socket (serial-over-ethernet
// bridges) and a WebSocket bridge. All satisfy vantage.Link.
package link

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/openwx/vantage/pkg/vantage"
)

// Console connection defaults
const (
	DefaultBaudRate = 19200
	DefaultTimeout  = 10 * time.Second
)

// FromURL opens a link described by a URL:
//
//	serial:///dev/ttyUSB0?baud=19200
//	tcp://192.168.1.10:1111
//	ws://bridge.local:8080/console
func FromURL(rawURL string) (vantage.Link, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("link: parse %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "serial":
		port := u.Path
		if port == "" {
			port = u.Host
		}
		baud := DefaultBaudRate
		if s := u.Query().Get("baud"); s != "" {
			baud, err = strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("link: bad baud rate %q", s)
			}
		}
		return OpenSerial(port, baud)
	case "tcp":
		return OpenTCP(u.Host)
	case "ws", "wss":
		return OpenWebSocket(rawURL)
	default:
		return nil, fmt.Errorf("link: unsupported scheme %q", u.Scheme)
	}
}
