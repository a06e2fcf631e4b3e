// Package canbus provides CAN frame transport for the relay.
package canbus

import (
	"context"
	"errors"
	"fmt"
)

// Identifier masks and flags as used by socketcan.
const (
	FlagExtended uint32 = 0x80000000
	FlagRemote   uint32 = 0x40000000
	FlagError    uint32 = 0x20000000
	MaskExtended uint32 = 0x1fffffff
	MaskStandard uint32 = 0x000007ff

	MaxDataLength = 8
)

// ErrClosed indicates the bus has been closed.
var ErrClosed = errors.New("canbus: closed")

// ErrQueueOverflow indicates received frames were dropped because the
// receive queue was full.
var ErrQueueOverflow = errors.New("canbus: receive queue overflow")

// Frame is a classic CAN frame.
type Frame struct {
	ID       uint32
	Extended bool
	Data     []byte
}

// String implements fmt.Stringer.
func (f Frame) String() string {
	if f.Extended {
		return fmt.Sprintf("%08x#%x", f.ID, f.Data)
	}
	return fmt.Sprintf("%03x#%x", f.ID, f.Data)
}

// Validate checks the identifier range and data length.
func (f Frame) Validate() error {
	if len(f.Data) > MaxDataLength {
		return fmt.Errorf("canbus: data length %d exceeds %d", len(f.Data), MaxDataLength)
	}
	mask := MaskStandard
	if f.Extended {
		mask = MaskExtended
	}
	if f.ID&^mask != 0 {
		return fmt.Errorf("canbus: invalid identifier %x", f.ID)
	}
	return nil
}

// Bus sends and receives CAN frames.
// Implementations are safe for concurrent use.
type Bus interface {
	// Send transmits a frame.
	Send(Frame) error
	// Receive blocks until a frame is available, the bus is closed or ctx
	// is done.
	Receive(ctx context.Context) (Frame, error)
	// Close releases resources.
	Close() error
}
