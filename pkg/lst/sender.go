package lst

import (
	"io"
	"sync"
)

// Flusher is implemented by sinks buffering written bytes.
type Flusher interface {
	Flush() error
}

// Sender encodes and writes frames to the modem.
type Sender struct {
	HWID uint16

	w    io.Writer
	seq  uint16
	lock sync.Mutex
}

// NewSender creates a Sender writing to w on behalf of hwid.
func NewSender(w io.Writer, hwid uint16) *Sender {
	return &Sender{HWID: hwid, w: w}
}

// Seq returns the sequence number of the next frame.
func (s *Sender) Seq() uint16 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.seq
}

// Send sends payload as relay data.
func (s *Sender) Send(payload []byte) error {
	return s.SendTo(DestinationRelay, payload)
}

// SendCommand sends a single byte command to the modem.
func (s *Sender) SendCommand(cmd Command) error {
	return s.SendTo(DestinationLocal, []byte{byte(cmd)})
}

// SendTo sends payload to the specified destination.
func (s *Sender) SendTo(dest Destination, payload []byte) error {
	if len(payload) > MaxPayloadLength {
		return ErrMessageTooLong
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	f := &Frame{
		Header:  Header{HWID: s.HWID, Seq: s.seq, Destination: dest},
		Payload: payload,
	}
	s.seq++
	return s.writeAll(f.Bytes())
}

func (s *Sender) writeAll(b []byte) error {
	flusher, _ := s.w.(Flusher)
	for len(b) > 0 {
		n, err := s.w.Write(b)
		if flusher != nil {
			if ferr := flusher.Flush(); ferr != nil && err == nil {
				err = ferr
			}
		}
		if err != nil {
			return err
		}
		if n <= 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}
