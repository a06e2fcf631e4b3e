package lst

import (
	"context"
	"errors"
	"io"
)

// MessageHandler is called with messages not consumed by a Client exchange.
type MessageHandler interface {
	HandleMessage(context.Context, Message)
}

// HandleMessageFunc is func type of MessageHandler.
type HandleMessageFunc func(context.Context, Message)

// HandleMessage implements MessageHandler.
func (f HandleMessageFunc) HandleMessage(ctx context.Context, msg Message) {
	f(ctx, msg)
}

// Receiver reads frames from the modem.
// The reader is expected to return periodically (e.g. a serial port
// with read timeout) so that the context is honored.
type Receiver struct {
	r        io.Reader
	ingest   *IngestBuffer
	deframer *Deframer
}

// NewReceiver creates a Receiver with default sizes.
func NewReceiver(r io.Reader) *Receiver {
	return NewReceiverSize(r, DefaultChunkSize, DefaultPayloadCapacity)
}

// NewReceiverSize creates a Receiver reading chunk bytes at a time and
// accepting payloads up to capacity bytes.
func NewReceiverSize(r io.Reader, chunk, capacity int) *Receiver {
	return &Receiver{
		r:        r,
		ingest:   NewIngestBuffer(chunk),
		deframer: NewDeframer(capacity),
	}
}

// State returns the deframer state.
func (r *Receiver) State() DeframerState {
	return r.deframer.State()
}

// Reset drops the partially received frame. Bytes already read stay
// buffered.
func (r *Receiver) Reset() {
	r.deframer.Reset()
}

// ReceiveFrame returns the next complete frame.
func (r *Receiver) ReceiveFrame(ctx context.Context) (*Frame, error) {
	for {
		for {
			b, err := r.ingest.Pop()
			if errors.Is(err, ErrEmpty) {
				break
			}
			f, err := r.deframer.Push(b)
			if err != nil {
				return nil, err
			}
			if f != nil {
				return f, nil
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.ingest.PushFromRead(r.r); err != nil {
			return nil, err
		}
	}
}

// Receive returns the next decoded message.
func (r *Receiver) Receive(ctx context.Context) (Message, error) {
	f, err := r.ReceiveFrame(ctx)
	if err != nil {
		return nil, err
	}
	return f.Message()
}
