package rodos

import (
	"sync"

	"github.com/robotalks/lstrelay/pkg/canbus"
)

// Sender publishes messages on the bus as device.
type Sender struct {
	Device uint8

	bus  canbus.Bus
	lock sync.Mutex
}

// NewSender creates a Sender.
func NewSender(bus canbus.Bus, device uint8) *Sender {
	return &Sender{Device: device, bus: bus}
}

// Send fragments payload and sends it on topic.
func (s *Sender) Send(topic uint16, payload []byte) error {
	frags, err := Split(SourceID{Topic: topic, Device: s.Device}, payload)
	if err != nil {
		return err
	}
	// fragments of concurrent messages must not interleave.
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, frag := range frags {
		if err := s.bus.Send(frag.Frame()); err != nil {
			return err
		}
	}
	return nil
}
