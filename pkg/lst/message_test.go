package lst

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func telemetryBytes() []byte {
	b := make([]byte, TelemetryLength)
	le := binary.LittleEndian
	le.PutUint32(b[0:], 16)
	b[35] = byte(0xd8) // -40
	b[36] = 200
	le.PutUint32(b[38:], 1000)
	le.PutUint32(b[46:], 990)
	le.PutUint32(b[50:], 5)
	le.PutUint32(b[54:], 2)
	le.PutUint32(b[58:], 3)
	return b
}

func TestDecodeTelemetry(t *testing.T) {
	tm, err := DecodeTelemetry(telemetryBytes())
	require.NoError(t, err)
	require.Equal(t, &Telemetry{
		Uptime:                  16,
		RSSI:                    -40,
		LQI:                     200,
		PacketsSent:             1000,
		PacketsGood:             990,
		PacketsRejectedChecksum: 5,
		PacketsRejectedOther:    5,
	}, tm)

	tm, err = DecodeTelemetry(telemetryBytes()[:TelemetryLength-1])
	require.Nil(t, tm)
	require.Equal(t, ErrTelemetryTooShort, err)
	require.True(t, IsProtocolError(err))
}

func TestParseMessage(t *testing.T) {
	tm, err := DecodeTelemetry(telemetryBytes())
	require.NoError(t, err)

	testCases := []struct {
		name    string
		dest    Destination
		payload []byte
		expect  Message
		err     error
	}{
		{"ack", DestinationLocal, []byte{0x10}, Ack{}, nil},
		{"ack with trailer", DestinationLocal, []byte{0x10, 1, 2}, Ack{}, nil},
		{"nack", DestinationLocal, []byte{0xff}, Nack{}, nil},
		{"telemetry", DestinationLocal, append([]byte{0x18}, telemetryBytes()...), tm, nil},
		{"short telemetry", DestinationLocal, []byte{0x18, 1, 2, 3}, nil, ErrTelemetryTooShort},
		{"unknown command", DestinationLocal, []byte{0x42}, Unknown{Code: 0x42}, nil},
		{"empty command", DestinationLocal, nil, nil, ErrEmptyCommand},
		{"relay", DestinationRelay, []byte{1, 2, 3}, Relay{1, 2, 3}, nil},
		{"unknown destination", Destination(0x05), []byte{0x10}, Unknown{}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := ParseMessage(tc.dest, tc.payload)
			require.Equal(t, tc.err, err)
			require.Equal(t, tc.expect, msg)
		})
	}
}

func TestCommandString(t *testing.T) {
	require.Equal(t, "reboot", CommandReboot.String())
	require.Equal(t, "get-telem", CommandGetTelemetry.String())
	require.Equal(t, "command(0x42)", Command(0x42).String())
}
