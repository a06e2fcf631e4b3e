package lst

// DefaultPayloadCapacity is the largest payload the modem frame buffer holds.
const DefaultPayloadCapacity = MaxFrameLength - HeaderLength

// Deframer turns a byte stream into frames, one byte at a time.
type Deframer struct {
	capacity int
	state    deframeState
	progress int
	buf      []byte
	received int
}

// DeframerState is the externally visible deframing state.
type DeframerState int

const (
	// DeframerSearching means no sync has been found yet.
	DeframerSearching DeframerState = iota
	// DeframerSyncing means part of the magic has been matched.
	DeframerSyncing
	// DeframerReceiving means a frame is being received.
	DeframerReceiving
)

// String implements fmt.Stringer.
func (s DeframerState) String() string {
	switch s {
	case DeframerSearching:
		return "searching"
	case DeframerSyncing:
		return "syncing"
	case DeframerReceiving:
		return "receiving"
	}
	return "invalid"
}

type deframeState int

const (
	stateSync    deframeState = iota // matching magic[progress]
	stateLength                      // waiting for length byte
	statePayload                     // accumulating header and payload
)

// NewDeframer creates a Deframer accepting payloads up to capacity bytes.
// A non-positive capacity selects DefaultPayloadCapacity.
func NewDeframer(capacity int) *Deframer {
	if capacity <= 0 {
		capacity = DefaultPayloadCapacity
	}
	return &Deframer{capacity: capacity}
}

// Capacity returns the maximum payload length accepted.
func (d *Deframer) Capacity() int {
	return d.capacity
}

// State gets the current deframing state.
func (d *Deframer) State() DeframerState {
	switch {
	case d.state == stateSync && d.progress == 0:
		return DeframerSearching
	case d.state == stateSync:
		return DeframerSyncing
	}
	return DeframerReceiving
}

// Reset drops any partial sync match or partial frame.
func (d *Deframer) Reset() {
	d.resync()
}

// Push consumes one byte. It returns the frame completed by b, if any.
// A returned error is always a *ParseError and the deframer is back to
// searching sync.
func (d *Deframer) Push(b byte) (*Frame, error) {
	switch d.state {
	case stateSync:
		if b != Magic[d.progress] {
			d.progress = 0
			return nil, nil
		}
		d.progress++
		if d.progress == len(Magic) {
			d.state = stateLength
		}
	case stateLength:
		if int(b) <= HeaderLength {
			d.resync()
			return nil, nil
		}
		if int(b)-HeaderLength > d.capacity {
			d.resync()
			return nil, ErrFrameTooLong
		}
		d.buf, d.received = make([]byte, b), 0
		d.state = statePayload
	case statePayload:
		d.buf[d.received] = b
		d.received++
		if d.received >= len(d.buf) {
			return d.frameReady(), nil
		}
	}
	return nil, nil
}

// Write feeds p into the deframer and returns all completed frames.
// Parse errors are skipped; the first one is returned along with the frames.
func (d *Deframer) Write(p []byte) (frames []*Frame, err error) {
	for _, b := range p {
		f, perr := d.Push(b)
		if perr != nil && err == nil {
			err = perr
		}
		if f != nil {
			frames = append(frames, f)
		}
	}
	return
}

func (d *Deframer) resync() {
	d.state, d.progress = stateSync, 0
	d.buf, d.received = nil, 0
}

func (d *Deframer) frameReady() *Frame {
	h, _ := ParseHeader(d.buf)
	f := &Frame{Header: h, Payload: d.buf[HeaderLength:]}
	d.resync()
	return f
}
