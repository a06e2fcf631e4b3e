package lst

import (
	"encoding/binary"
	"io"
)

// Frame sizing.
const (
	// MaxFrameLength is the size of the modem frame buffer.
	MaxFrameLength = 256
	// HeaderLength is the header following the length byte.
	HeaderLength = 5
	// FullHeaderLength is the on-wire header: magic, length and header.
	FullHeaderLength = len(Magic) + 1 + HeaderLength
	// MaxPayloadLength is the largest payload Sender accepts.
	MaxPayloadLength = MaxFrameLength - FullHeaderLength
)

// Magic starts every frame on the wire.
var Magic = [2]byte{0x22, 0x69}

// Destination selects how the payload of a frame is interpreted.
type Destination byte

// Known destinations.
const (
	DestinationLocal Destination = 0x01
	DestinationRelay Destination = 0x11
)

// Header is the 5-byte frame header following the length byte.
type Header struct {
	HWID        uint16
	Seq         uint16
	Destination Destination
}

// Bytes encodes the header.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderLength)
	binary.LittleEndian.PutUint16(b[0:2], h.HWID)
	binary.LittleEndian.PutUint16(b[2:4], h.Seq)
	b[4] = byte(h.Destination)
	return b
}

// ParseHeader decodes a header from the first HeaderLength bytes of b.
func ParseHeader(b []byte) (h Header, ok bool) {
	if len(b) < HeaderLength {
		return
	}
	h.HWID = binary.LittleEndian.Uint16(b[0:2])
	h.Seq = binary.LittleEndian.Uint16(b[2:4])
	h.Destination = Destination(b[4])
	return h, true
}

// Frame contains the information of a deframed frame.
type Frame struct {
	Header
	Payload []byte
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() []byte {
	b := make([]byte, 0, FullHeaderLength+len(f.Payload))
	b = append(b, Magic[:]...)
	b = append(b, byte(len(f.Payload)+HeaderLength))
	b = append(b, f.Header.Bytes()...)
	return append(b, f.Payload...)
}

// WriteTo writes encoded bytes.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}
