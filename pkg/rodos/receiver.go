package rodos

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/lstrelay/pkg/canbus"
)

// Filter accepts frames of a topic, from one device or from any device.
type Filter struct {
	Topic     uint16
	Device    uint8
	AnyDevice bool
}

// Match reports whether the CAN identifier passes the filter.
func (f Filter) Match(id uint32) bool {
	if id>>24 != IDPrefix {
		return false
	}
	src := ParseID(id)
	return src.Topic == f.Topic && (f.AnyDevice || src.Device == f.Device)
}

// String implements fmt.Stringer.
func (f Filter) String() string {
	if f.AnyDevice {
		return strconv.Itoa(int(f.Topic))
	}
	return fmt.Sprintf("%d:%d", f.Topic, f.Device)
}

// ParseFilter parses "topic" or "topic:device".
func ParseFilter(s string) (f Filter, err error) {
	topic, device := s, ""
	if n := strings.IndexByte(s, ':'); n >= 0 {
		topic, device = s[:n], s[n+1:]
	}
	t, err := strconv.ParseUint(strings.TrimSpace(topic), 0, 16)
	if err != nil {
		return f, fmt.Errorf("invalid topic in filter %q: %w", s, err)
	}
	f.Topic = uint16(t)
	if device == "" {
		f.AnyDevice = true
		return f, nil
	}
	d, err := strconv.ParseUint(strings.TrimSpace(device), 0, 8)
	if err != nil {
		return f, fmt.Errorf("invalid device in filter %q: %w", s, err)
	}
	f.Device = uint8(d)
	return f, nil
}

// Receiver reads messages from the bus.
type Receiver struct {
	Filters []Filter

	bus         canbus.Bus
	reassembler *Reassembler
}

// NewReceiver creates a Receiver.
func NewReceiver(bus canbus.Bus, reassembler *Reassembler, filters ...Filter) *Receiver {
	if reassembler == nil {
		reassembler = NewReassembler(0, 0)
	}
	return &Receiver{Filters: filters, bus: bus, reassembler: reassembler}
}

// Accept reports whether a frame passes the filters. Without filters all
// frames are accepted.
func (r *Receiver) Accept(f canbus.Frame) bool {
	if len(r.Filters) == 0 {
		return true
	}
	if !f.Extended {
		return false
	}
	for _, filter := range r.Filters {
		if filter.Match(f.ID) {
			return true
		}
	}
	return false
}

// Receive returns the next complete message. Reassembly errors are
// returned as soon as they happen; bus errors are returned unchanged.
func (r *Receiver) Receive(ctx context.Context) (*Message, error) {
	for {
		f, err := r.bus.Receive(ctx)
		if err != nil {
			return nil, err
		}
		if !r.Accept(f) {
			continue
		}
		msg, err := r.reassembler.PushFrame(f)
		if err != nil || msg != nil {
			return msg, err
		}
	}
}
