package lst

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty indicates the IngestBuffer has no readable byte.
	ErrEmpty = errors.New("ingest buffer empty")
	// ErrOverflow indicates the consumer has not drained enough of the
	// IngestBuffer to accept another read.
	ErrOverflow = errors.New("ingest buffer overflow")
	// ErrMessageTooLong indicates the payload doesn't fit in one frame.
	ErrMessageTooLong = errors.New("message too long")
	// ErrNoReply indicates no reply received from the modem in time.
	ErrNoReply = errors.New("no reply")
)

var (
	// ErrFrameTooLong indicates the length byte announces a payload larger
	// than the deframer capacity.
	ErrFrameTooLong = &ParseError{Reason: "frame too long"}
	// ErrTelemetryTooShort indicates a telemetry reply below 62 bytes.
	ErrTelemetryTooShort = &ParseError{Reason: "telemetry message too short"}
	// ErrEmptyCommand indicates a local frame without command byte.
	ErrEmptyCommand = &ParseError{Reason: "empty command buffer"}
)

// ParseError is a recoverable protocol error. The deframer is always back
// to searching sync when one is returned.
type ParseError struct {
	Reason string
}

// Error implements error.
func (e *ParseError) Error() string {
	return "parse error: " + e.Reason
}

// ReadError wraps a failure of the byte source while filling the
// IngestBuffer.
type ReadError struct {
	Err error
}

// Error implements error.
func (e *ReadError) Error() string {
	return fmt.Sprintf("read error: %v", e.Err)
}

// Unwrap returns the underlying reader error.
func (e *ReadError) Unwrap() error {
	return e.Err
}

// IsProtocolError reports whether err is local to the protocol and the
// caller may simply continue receiving.
func IsProtocolError(err error) bool {
	var perr *ParseError
	return errors.As(err, &perr)
}

// ReplyError indicates an unexpected reply to a command.
type ReplyError struct {
	Command Command
	Reply   Message
}

// Error implements error.
func (e *ReplyError) Error() string {
	return fmt.Sprintf("%v: unexpected reply %T", e.Command, e.Reply)
}
