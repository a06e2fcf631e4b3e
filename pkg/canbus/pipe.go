package canbus

import (
	"context"
	"sync"
)

// PipeBus is one end of an in-memory bus created by Pipe.
type PipeBus struct {
	rxCh   <-chan Frame
	txCh   chan<- Frame
	closed chan struct{}
	peer   *PipeBus
	once   sync.Once
}

// Pipe creates two connected in-memory buses: frames sent on one end are
// received on the other.
func Pipe(size int) (*PipeBus, *PipeBus) {
	ab, ba := make(chan Frame, size), make(chan Frame, size)
	a := &PipeBus{rxCh: ba, txCh: ab, closed: make(chan struct{})}
	b := &PipeBus{rxCh: ab, txCh: ba, closed: make(chan struct{})}
	a.peer, b.peer = b, a
	return a, b
}

// Send implements Bus.
func (p *PipeBus) Send(f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	f.Data = append([]byte{}, f.Data...)
	if p.isClosed() {
		return ErrClosed
	}
	select {
	case <-p.closed:
		return ErrClosed
	case <-p.peer.closed:
		return ErrClosed
	case p.txCh <- f:
		return nil
	}
}

// Receive implements Bus.
func (p *PipeBus) Receive(ctx context.Context) (Frame, error) {
	if p.isClosed() {
		return Frame{}, ErrClosed
	}
	select {
	case f := <-p.rxCh:
		return f, nil
	case <-p.closed:
		return Frame{}, ErrClosed
	case <-p.peer.closed:
		return Frame{}, ErrClosed
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Close implements Bus.
func (p *PipeBus) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *PipeBus) isClosed() bool {
	select {
	case <-p.closed:
		return true
	case <-p.peer.closed:
		return true
	default:
		return false
	}
}
