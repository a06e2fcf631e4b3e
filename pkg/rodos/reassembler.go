package rodos

import (
	"github.com/robotalks/lstrelay/pkg/canbus"
)

// Default reassembly limits.
const (
	DefaultSources         = 8
	DefaultMaxPacketLength = 246
)

// Message is a reassembled RODOS message.
type Message struct {
	Source SourceID
	Data   []byte
}

// Reassembler rebuilds messages from fragments, keeping one partial
// message per source. It is not safe for concurrent use.
type Reassembler struct {
	sources   int
	maxLength int
	partials  map[SourceID][]byte
}

// NewReassembler creates a Reassembler tracking at most sources partial
// messages of at most maxLength bytes each. Non-positive values select
// the defaults.
func NewReassembler(sources, maxLength int) *Reassembler {
	if sources <= 0 {
		sources = DefaultSources
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxPacketLength
	}
	return &Reassembler{
		sources:   sources,
		maxLength: maxLength,
		partials:  make(map[SourceID][]byte, sources),
	}
}

// Pending returns the number of sources with a partial message.
func (r *Reassembler) Pending() int {
	return len(r.partials)
}

// Buffered returns the bytes accumulated for source.
func (r *Reassembler) Buffered(source SourceID) int {
	return len(r.partials[source])
}

// Reset drops all partial messages.
func (r *Reassembler) Reset() {
	r.partials = make(map[SourceID][]byte, r.sources)
}

// PushFrame decodes a CAN frame and pushes the fragment.
func (r *Reassembler) PushFrame(f canbus.Frame) (*Message, error) {
	frag, err := DecodeFragment(f)
	if err != nil {
		return nil, err
	}
	return r.Push(frag)
}

// Push adds a fragment. It returns the message completed by frag, if any.
// Duplicates of already accepted fragments are ignored.
func (r *Reassembler) Push(frag *Fragment) (*Message, error) {
	if frag.SeqLen*FragmentLength > r.maxLength {
		return nil, ErrMessageBufferFull
	}
	buf, ok := r.partials[frag.Source]
	if !ok {
		if len(r.partials) >= r.sources {
			return nil, ErrSourceBufferFull
		}
		buf = make([]byte, 0, r.maxLength)
	}
	if frag.SeqNum == 0 {
		buf = buf[:0]
	}
	expected := len(buf) / FragmentLength
	switch {
	case frag.SeqNum < expected:
		r.partials[frag.Source] = buf
		return nil, nil
	case frag.SeqNum > expected:
		r.partials[frag.Source] = buf[:0]
		return nil, ErrFrameDropped
	}
	if len(buf)+len(frag.Data) > r.maxLength {
		r.partials[frag.Source] = buf[:0]
		return nil, ErrMessageBufferFull
	}
	buf = append(buf, frag.Data...)
	if frag.Last() {
		delete(r.partials, frag.Source)
		return &Message{Source: frag.Source, Data: append([]byte{}, buf...)}, nil
	}
	r.partials[frag.Source] = buf
	return nil, nil
}
