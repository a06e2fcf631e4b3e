package lst

import (
	"encoding/binary"
	"fmt"
)

// Command codes of local messages.
const (
	CodeAck          byte = 0x10
	CodeReboot       byte = 0x12
	CodeGetTelemetry byte = 0x17
	CodeTelemetry    byte = 0x18
	CodeNack         byte = 0xff
)

// Command is a single byte command sent to the modem.
type Command byte

// Commands understood by the modem.
const (
	CommandReboot       = Command(CodeReboot)
	CommandGetTelemetry = Command(CodeGetTelemetry)
)

// String implements fmt.Stringer.
func (c Command) String() string {
	switch c {
	case CommandReboot:
		return "reboot"
	case CommandGetTelemetry:
		return "get-telem"
	}
	return fmt.Sprintf("command(0x%02x)", byte(c))
}

// Message is the decoded payload of a frame. It is one of Ack, Nack,
// *Telemetry, Unknown or Relay.
type Message interface {
	isMessage()
}

// Ack is the positive reply of the modem.
type Ack struct{}

// Nack is the negative reply of the modem.
type Nack struct{}

// Unknown is a local message with an unrecognized command code, or any
// frame with an unknown destination (code 0).
type Unknown struct {
	Code byte
}

// Relay is opaque data received over the radio link.
type Relay []byte

func (Ack) isMessage()        {}
func (Nack) isMessage()       {}
func (*Telemetry) isMessage() {}
func (Unknown) isMessage()    {}
func (Relay) isMessage()      {}

// TelemetryLength is the minimal size of a telemetry reply.
const TelemetryLength = 62

// Telemetry is the diagnostic reply of the modem.
type Telemetry struct {
	Uptime                  uint32
	RSSI                    int8
	LQI                     uint8
	PacketsSent             uint32
	PacketsGood             uint32
	PacketsRejectedChecksum uint32
	PacketsRejectedOther    uint32
}

// DecodeTelemetry decodes the telemetry layout following the command byte.
func DecodeTelemetry(b []byte) (*Telemetry, error) {
	if len(b) < TelemetryLength {
		return nil, ErrTelemetryTooShort
	}
	le := binary.LittleEndian
	return &Telemetry{
		Uptime:                  le.Uint32(b[0:4]),
		RSSI:                    int8(b[35]),
		LQI:                     b[36],
		PacketsSent:             le.Uint32(b[38:42]),
		PacketsGood:             le.Uint32(b[46:50]),
		PacketsRejectedChecksum: le.Uint32(b[50:54]),
		PacketsRejectedOther:    le.Uint32(b[58:62]) + le.Uint32(b[54:58]),
	}, nil
}

// ParseMessage decodes a frame payload according to its destination.
func ParseMessage(dest Destination, payload []byte) (Message, error) {
	switch dest {
	case DestinationLocal:
		return parseLocal(payload)
	case DestinationRelay:
		return Relay(payload), nil
	}
	return Unknown{}, nil
}

// Message decodes the payload of the frame.
func (f *Frame) Message() (Message, error) {
	return ParseMessage(f.Destination, f.Payload)
}

func parseLocal(b []byte) (Message, error) {
	if len(b) == 0 {
		return nil, ErrEmptyCommand
	}
	switch b[0] {
	case CodeAck:
		return Ack{}, nil
	case CodeNack:
		return Nack{}, nil
	case CodeTelemetry:
		t, err := DecodeTelemetry(b[1:])
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return Unknown{Code: b[0]}, nil
}
