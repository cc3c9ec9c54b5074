// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 the Openwx Authors

package link

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketLink is a byte link over a WebSocket bridge that relays the
// console's serial stream as binary messages.
//
// A reader goroutine feeds incoming bytes into a buffered channel so that a
// read timeout does not poison the underlying connection (gorilla treats an
// expired read deadline as fatal). A connection failure is latched: once the
// reader exits, every subsequent Read reports the same error immediately.
type WebSocketLink struct {
	conn      *websocket.Conn
	incoming  chan byte
	done      chan struct{}
	closeOnce sync.Once
	timeout   time.Duration

	mu      sync.Mutex
	readErr error
}

// OpenWebSocket dials a ws:// or wss:// URL.
func OpenWebSocket(rawURL string) (*WebSocketLink, error) {
	conn, _, err := websocket.DefaultDialer.Dial(rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("link: dial %s: %w", rawURL, err)
	}
	l := &WebSocketLink{
		conn:     conn,
		incoming: make(chan byte, 4096),
		done:     make(chan struct{}),
		timeout:  DefaultTimeout,
	}
	go l.readLoop()
	return l, nil
}

func (l *WebSocketLink) readLoop() {
	for {
		messageType, data, err := l.conn.ReadMessage()
		if err != nil {
			l.mu.Lock()
			l.readErr = err
			l.mu.Unlock()
			close(l.incoming)
			return
		}
		// Only binary messages carry console bytes.
		if messageType != websocket.BinaryMessage {
			continue
		}
		for _, b := range data {
			select {
			case l.incoming <- b:
			case <-l.done:
				return
			}
		}
	}
}

func (l *WebSocketLink) failure() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readErr
}

func (l *WebSocketLink) Write(p []byte) (int, error) {
	if err := l.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Read returns up to n bytes, waiting at most timeout (the link default when
// timeout <= 0). A short result on timeout is not an error. After a
// connection failure, any buffered bytes are still handed out; once they are
// drained every Read returns the latched error without waiting.
func (l *WebSocketLink) Read(n int, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = l.timeout
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	buf := make([]byte, 0, n)
	for len(buf) < n {
		select {
		case b, ok := <-l.incoming:
			if !ok {
				return buf, l.failure()
			}
			buf = append(buf, b)
		case <-deadline.C:
			return buf, nil
		}
	}
	return buf, nil
}

func (l *WebSocketLink) SetTimeout(d time.Duration) {
	l.timeout = d
}

// Close releases the reader goroutine even when it is blocked on a full
// buffer, then closes the connection.
func (l *WebSocketLink) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	return l.conn.Close()
}
