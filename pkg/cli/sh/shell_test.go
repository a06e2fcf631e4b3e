package sh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/lstrelay/pkg/lst"
)

func TestParsePayload(t *testing.T) {
	testCases := []struct {
		name   string
		args   []string
		expect []byte
		err    bool
	}{
		{name: "text", args: []string{"hello", "world"}, expect: []byte("hello world")},
		{name: "hex", args: []string{"hex:0a0b", "0c"}, expect: []byte{0x0a, 0x0b, 0x0c}},
		{name: "bad hex", args: []string{"hex:0g"}, err: true},
		{name: "empty", err: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := ParsePayload(tc.args)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, payload)
		})
	}
}

func TestFormatMessage(t *testing.T) {
	require.Equal(t, "ACK", FormatMessage(lst.Ack{}))
	require.Equal(t, "NACK", FormatMessage(lst.Nack{}))
	require.Equal(t, "UNKNOWN 0x42", FormatMessage(lst.Unknown{Code: 0x42}))
	require.Equal(t, "RELAY 0102", FormatMessage(lst.Relay{1, 2}))
	require.Equal(t,
		"uptime=16s rssi=-40 lqi=200 sent=1000 good=990 rejected_checksum=5 rejected_other=5",
		FormatMessage(&lst.Telemetry{
			Uptime: 16, RSSI: -40, LQI: 200, PacketsSent: 1000, PacketsGood: 990,
			PacketsRejectedChecksum: 5, PacketsRejectedOther: 5,
		}))
}
