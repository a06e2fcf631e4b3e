package canbus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/brutella/can"
	"github.com/golang/glog"
)

// DefaultQueueSize is the number of received frames buffered by SocketBus.
const DefaultQueueSize = 500

// SocketBus is a Bus over a socketcan interface. Frames arriving while the
// queue is full are dropped and reported by the next Receive.
type SocketBus struct {
	Name string

	bus     *can.Bus
	rxCh    chan Frame
	dropped atomic.Uint64
	doneCh  chan struct{}
	err     error
	errLock sync.Mutex
	once    sync.Once
}

// OpenSocket opens the socketcan interface ifname (e.g. can0).
func OpenSocket(ifname string) (*SocketBus, error) {
	bus, err := can.NewBusForInterfaceWithName(ifname)
	if err != nil {
		return nil, err
	}
	b := &SocketBus{
		Name:   ifname,
		bus:    bus,
		rxCh:   make(chan Frame, DefaultQueueSize),
		doneCh: make(chan struct{}),
	}
	bus.SubscribeFunc(b.handleFrame)
	go b.run()
	return b, nil
}

func (b *SocketBus) run() {
	err := b.bus.ConnectAndPublish()
	b.errLock.Lock()
	if err == nil {
		err = ErrClosed
	}
	b.err = err
	b.errLock.Unlock()
	b.once.Do(func() { close(b.doneCh) })
}

func (b *SocketBus) handleFrame(f can.Frame) {
	frame := FromCAN(f)
	select {
	case b.rxCh <- frame:
	default:
		b.dropped.Add(1)
		glog.Warningf("CAN %s queue full, drop %v", b.Name, frame)
	}
}

// Send implements Bus.
func (b *SocketBus) Send(f Frame) error {
	cf, err := ToCAN(f)
	if err != nil {
		return err
	}
	return b.bus.Publish(cf)
}

// Receive implements Bus. It returns ErrQueueOverflow once after frames
// have been dropped.
func (b *SocketBus) Receive(ctx context.Context) (Frame, error) {
	if n := b.dropped.Swap(0); n > 0 {
		return Frame{}, fmt.Errorf("%w: %d frames dropped", ErrQueueOverflow, n)
	}
	select {
	case f := <-b.rxCh:
		return f, nil
	case <-b.doneCh:
		b.errLock.Lock()
		defer b.errLock.Unlock()
		return Frame{}, b.err
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Close implements Bus.
func (b *SocketBus) Close() error {
	return b.bus.Disconnect()
}

// FromCAN converts a socketcan frame.
func FromCAN(f can.Frame) Frame {
	frame := Frame{Extended: f.ID&FlagExtended != 0}
	if frame.Extended {
		frame.ID = f.ID & MaskExtended
	} else {
		frame.ID = f.ID & MaskStandard
	}
	n := int(f.Length)
	if n > MaxDataLength {
		n = MaxDataLength
	}
	frame.Data = append([]byte{}, f.Data[:n]...)
	return frame
}

// ToCAN converts a frame for socketcan.
func ToCAN(f Frame) (can.Frame, error) {
	if err := f.Validate(); err != nil {
		return can.Frame{}, err
	}
	cf := can.Frame{ID: f.ID, Length: uint8(len(f.Data))}
	if f.Extended {
		cf.ID |= FlagExtended
	}
	copy(cf.Data[:], f.Data)
	return cf, nil
}
