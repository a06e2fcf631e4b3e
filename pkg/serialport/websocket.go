package serialport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"golang.org/x/net/websocket"
)

// Link is the byte stream to the modem.
type Link interface {
	io.ReadWriteCloser
	Name() string
}

// WebSocket is a modem reached through a serial-to-websocket bridge.
// Bytes are carried in binary frames, and reads time out like Port.
type WebSocket struct {
	conn *websocket.Conn
	url  string
}

// IsURL tells if name selects a websocket bridge instead of a local port.
func IsURL(name string) bool {
	return strings.HasPrefix(name, "ws://") || strings.HasPrefix(name, "wss://")
}

// OpenLink opens a websocket bridge for ws:// and wss:// names, or a local
// serial port otherwise. baudRate is ignored for bridges.
func OpenLink(name string, baudRate int) (Link, error) {
	if IsURL(name) {
		ws, err := DialWebSocket(name)
		if err != nil {
			return nil, err
		}
		return ws, nil
	}
	port, err := Open(name, baudRate)
	if err != nil {
		return nil, err
	}
	return port, nil
}

// DialWebSocket connects to a bridge at url.
func DialWebSocket(url string) (*WebSocket, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	conn.PayloadType = websocket.BinaryFrame
	return &WebSocket{conn: conn, url: url}, nil
}

// Name returns the bridge URL.
func (w *WebSocket) Name() string {
	return w.url
}

// Read reads received bytes, returning 0 without error when nothing
// arrived within DefaultReadTimeout.
func (w *WebSocket) Read(buf []byte) (int, error) {
	if err := w.conn.SetReadDeadline(time.Now().Add(DefaultReadTimeout)); err != nil {
		return 0, err
	}
	n, err := w.conn.Read(buf)
	var ne net.Error
	if err != nil && errors.As(err, &ne) && ne.Timeout() {
		return n, nil
	}
	return n, err
}

// Write sends data as one binary frame.
func (w *WebSocket) Write(data []byte) (int, error) {
	return w.conn.Write(data)
}

// Close closes the connection.
func (w *WebSocket) Close() error {
	return w.conn.Close()
}
