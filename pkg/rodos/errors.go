package rodos

import (
	"errors"

	"github.com/robotalks/lstrelay/pkg/canbus"
)

var (
	// ErrWrongIDType indicates a frame with a standard identifier.
	ErrWrongIDType = errors.New("wrong identifier type")
	// ErrForeignID indicates an extended identifier without the RODOS prefix.
	ErrForeignID = errors.New("not a RODOS identifier")
	// ErrNoData indicates a frame without payload after the fragment header.
	ErrNoData = errors.New("no data")
	// ErrCouldNotDecode matches all *DecodeError.
	ErrCouldNotDecode = errors.New("could not decode")
	// ErrFrameDropped indicates a gap in the fragment sequence of a source.
	ErrFrameDropped = errors.New("frame dropped")
	// ErrSourceBufferFull indicates no free slot for a new source.
	ErrSourceBufferFull = errors.New("source buffer full")
	// ErrMessageBufferFull indicates a message larger than the packet buffer.
	ErrMessageBufferFull = errors.New("message buffer full")
	// ErrEmptyMessage indicates an attempt to send an empty message.
	ErrEmptyMessage = errors.New("empty message")
	// ErrMessageTooLong indicates a message exceeding 256 fragments.
	ErrMessageTooLong = errors.New("message too long")
)

// DecodeError indicates a CAN frame which is not a RODOS fragment.
type DecodeError struct {
	ID     uint32
	Reason error
}

// Error implements error.
func (e *DecodeError) Error() string {
	return ErrCouldNotDecode.Error() + ": " + e.Reason.Error()
}

// Unwrap returns the reason.
func (e *DecodeError) Unwrap() error {
	return e.Reason
}

// Is makes errors.Is(err, ErrCouldNotDecode) true.
func (e *DecodeError) Is(target error) bool {
	return target == ErrCouldNotDecode
}

// IsProtocolError reports whether err is caused by unexpected fragments.
// The affected source has been reset and receiving may continue.
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrCouldNotDecode) || errors.Is(err, ErrFrameDropped)
}

// IsResourceError reports whether err is caused by exhausted buffers,
// including frames dropped by the bus receive queue.
func IsResourceError(err error) bool {
	return errors.Is(err, ErrSourceBufferFull) ||
		errors.Is(err, ErrMessageBufferFull) ||
		errors.Is(err, canbus.ErrQueueOverflow)
}
