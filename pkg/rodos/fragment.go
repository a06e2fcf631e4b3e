package rodos

import (
	"fmt"

	"github.com/robotalks/lstrelay/pkg/canbus"
)

const (
	// IDPrefix occupies the top bits of every RODOS identifier.
	IDPrefix uint32 = 0x1c
	// HeaderLength is the fragment header in the CAN data.
	HeaderLength = 3
	// FragmentLength is the payload carried by one fragment.
	FragmentLength = canbus.MaxDataLength - HeaderLength
	// MaxFragments is the limit imposed by the seq_len byte.
	MaxFragments = 256
)

// SourceID identifies the sender of a message: a device on a topic.
type SourceID struct {
	Topic  uint16
	Device uint8
}

// String implements fmt.Stringer.
func (s SourceID) String() string {
	return fmt.Sprintf("%d/%d", s.Topic, s.Device)
}

// ID builds the CAN identifier.
func (s SourceID) ID() uint32 {
	return IDPrefix<<24 | uint32(s.Topic)<<8 | uint32(s.Device)
}

// ParseID extracts the source from a CAN identifier.
func ParseID(id uint32) SourceID {
	return SourceID{Topic: uint16(id >> 8), Device: uint8(id)}
}

// Fragment is one decoded CAN frame of a message.
type Fragment struct {
	Source SourceID
	SeqNum int
	SeqLen int
	Data   []byte
}

// Last reports whether this is the terminal fragment.
func (f *Fragment) Last() bool {
	return f.SeqNum >= f.SeqLen
}

// Frame encodes the fragment.
func (f *Fragment) Frame() canbus.Frame {
	data := make([]byte, 0, HeaderLength+len(f.Data))
	data = append(data, byte(f.SeqNum), 0, byte(f.SeqLen))
	return canbus.Frame{
		ID:       f.Source.ID(),
		Extended: true,
		Data:     append(data, f.Data...),
	}
}

// DecodeFragment decodes a CAN frame.
func DecodeFragment(f canbus.Frame) (*Fragment, error) {
	if !f.Extended {
		return nil, &DecodeError{ID: f.ID, Reason: ErrWrongIDType}
	}
	if f.ID>>24 != IDPrefix {
		return nil, &DecodeError{ID: f.ID, Reason: ErrForeignID}
	}
	if len(f.Data) <= HeaderLength {
		return nil, &DecodeError{ID: f.ID, Reason: ErrNoData}
	}
	return &Fragment{
		Source: ParseID(f.ID),
		SeqNum: int(f.Data[0]),
		SeqLen: int(f.Data[2]),
		Data:   f.Data[HeaderLength:],
	}, nil
}

// Split fragments payload for sending as source.
func Split(source SourceID, payload []byte) ([]*Fragment, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyMessage
	}
	count := (len(payload) + FragmentLength - 1) / FragmentLength
	if count > MaxFragments {
		return nil, ErrMessageTooLong
	}
	frags := make([]*Fragment, 0, count)
	for n := 0; n < count; n++ {
		end := (n + 1) * FragmentLength
		if end > len(payload) {
			end = len(payload)
		}
		frags = append(frags, &Fragment{
			Source: source,
			SeqNum: n,
			SeqLen: count - 1,
			Data:   payload[n*FragmentLength : end],
		})
	}
	return frags, nil
}
