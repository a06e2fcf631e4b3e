package lst

import (
	"errors"
	"io"
)

// DefaultChunkSize is the read size used by NewReceiver.
const DefaultChunkSize = 64

var errInvalidReadCount = errors.New("reader returned invalid count")

// IngestBuffer stages bytes between a reader and the deframer.
// Storage is two chunks wide: one read fills a free chunk while the
// consumer drains the other.
//
// Readable bytes are [tail, len) followed, once the writer has wrapped
// around (head < len), by [0, head).
type IngestBuffer struct {
	storage []byte
	chunk   int
	head    int
	tail    int
	len     int
}

// NewIngestBuffer creates an IngestBuffer reading chunk bytes at a time.
func NewIngestBuffer(chunk int) *IngestBuffer {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	return &IngestBuffer{storage: make([]byte, chunk*2), chunk: chunk}
}

// ChunkSize returns the size of a single read.
func (b *IngestBuffer) ChunkSize() int {
	return b.chunk
}

// Buffered returns the number of readable bytes.
func (b *IngestBuffer) Buffered() int {
	if b.wrapped() {
		return b.len - b.tail + b.head
	}
	return b.len - b.tail
}

// Reset discards all buffered bytes.
func (b *IngestBuffer) Reset() {
	b.head, b.tail, b.len = 0, 0, 0
}

// Pop returns the next buffered byte, or ErrEmpty.
func (b *IngestBuffer) Pop() (byte, error) {
	b.rewind()
	if b.tail >= b.len {
		return 0, ErrEmpty
	}
	v := b.storage[b.tail]
	b.tail++
	return v, nil
}

// PushFromRead issues exactly one Read on r into the free part of the
// storage. It fails with ErrOverflow, without reading, if the consumer
// has not drained enough to make room for a whole chunk.
// Reader failures are returned as *ReadError.
func (b *IngestBuffer) PushFromRead(r io.Reader) error {
	b.rewind()
	start := b.head
	if b.head > len(b.storage)-b.chunk {
		// second half in use, restart from the first one.
		if b.wrapped() || b.tail < b.chunk {
			return ErrOverflow
		}
		start = 0
	} else if b.wrapped() && b.head+b.chunk > b.tail {
		return ErrOverflow
	}
	dst := b.storage[start : start+b.chunk]
	n, err := r.Read(dst)
	if n < 0 || n > len(dst) {
		return &ReadError{Err: errInvalidReadCount}
	}
	b.head = start + n
	if b.head > b.len {
		b.len = b.head
	}
	if err != nil {
		return &ReadError{Err: err}
	}
	return nil
}

func (b *IngestBuffer) wrapped() bool {
	return b.head < b.len
}

// rewind moves the read cursor to the start once [tail, len) is drained
// and the writer has wrapped around.
func (b *IngestBuffer) rewind() {
	if b.tail >= b.len && b.wrapped() {
		b.len, b.tail = b.head, 0
	} else if b.tail >= b.len && b.tail == b.head {
		b.head, b.tail, b.len = 0, 0, 0
	}
}
