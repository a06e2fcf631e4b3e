package serialport

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func TestOpenMissingPort(t *testing.T) {
	p, err := Open("/dev/lstrelay-missing-port", 0)
	require.Error(t, err)
	require.Nil(t, p)
	require.Contains(t, err.Error(), "/dev/lstrelay-missing-port")
}

func TestOpenLinkMissingPort(t *testing.T) {
	link, err := OpenLink("/dev/lstrelay-missing-port", 0)
	require.Error(t, err)
	require.Nil(t, link)
}

func TestIsURL(t *testing.T) {
	testCases := []struct {
		name string
		url  bool
	}{
		{"/dev/ttyUSB0", false},
		{"COM3", false},
		{"ws://bridge:8080/modem", true},
		{"wss://bridge/modem", true},
		{"http://bridge/modem", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.url, IsURL(tc.name))
		})
	}
}

func TestWebSocketLink(t *testing.T) {
	srv := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {
		io.Copy(ws, ws)
	}))
	defer srv.Close()

	url := "ws://" + strings.TrimPrefix(srv.URL, "http://") + "/modem"
	link, err := OpenLink(url, 0)
	require.NoError(t, err)
	defer link.Close()
	require.Equal(t, url, link.Name())

	frame := []byte{0x22, 0x69, 0x06, 0x01, 0x00, 0x00, 0x00, 0x01, 0x17}
	n, err := link.Write(frame)
	require.NoError(t, err)
	require.Equal(t, len(frame), n)

	var echoed []byte
	buf := make([]byte, 64)
	for len(echoed) < len(frame) {
		n, err := link.Read(buf)
		require.NoError(t, err)
		echoed = append(echoed, buf[:n]...)
	}
	require.Equal(t, frame, echoed)
}

func TestWebSocketReadTimeout(t *testing.T) {
	srv := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {
		io.Copy(io.Discard, ws)
	}))
	defer srv.Close()

	ws, err := DialWebSocket("ws://" + strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	defer ws.Close()

	start := time.Now()
	n, err := ws.Read(make([]byte, 8))
	require.NoError(t, err)
	require.Zero(t, n)
	require.GreaterOrEqual(t, time.Since(start), DefaultReadTimeout/2)
}

func TestDialWebSocketFails(t *testing.T) {
	_, err := DialWebSocket("ws://127.0.0.1:1/modem")
	require.Error(t, err)
}
