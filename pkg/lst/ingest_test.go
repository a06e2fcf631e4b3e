package lst

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type chunkReader struct {
	chunks [][]byte
	reads  int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	r.reads++
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if len(r.chunks[0]) == 0 {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func popAll(t *testing.T, b *IngestBuffer) []byte {
	var out []byte
	for {
		v, err := b.Pop()
		if err != nil {
			require.Equal(t, ErrEmpty, err)
			return out
		}
		out = append(out, v)
	}
}

func TestIngestBufferEmpty(t *testing.T) {
	b := NewIngestBuffer(4)
	_, err := b.Pop()
	require.Equal(t, ErrEmpty, err)
	require.Zero(t, b.Buffered())
}

func TestIngestBufferPushPop(t *testing.T) {
	b := NewIngestBuffer(4)
	r := &chunkReader{chunks: [][]byte{{1, 2, 3}, {4, 5, 6, 7}, {8}}}
	require.NoError(t, b.PushFromRead(r))
	require.Equal(t, 3, b.Buffered())
	require.NoError(t, b.PushFromRead(r))
	require.Equal(t, 7, b.Buffered())
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7}, popAll(t, b))
	require.NoError(t, b.PushFromRead(r))
	require.Equal(t, []byte{8}, popAll(t, b))
}

func TestIngestBufferOverflow(t *testing.T) {
	b := NewIngestBuffer(4)
	r := &chunkReader{chunks: [][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}, {9}}}
	require.NoError(t, b.PushFromRead(r))
	require.NoError(t, b.PushFromRead(r))
	require.Equal(t, ErrOverflow, b.PushFromRead(r))
	require.Equal(t, 2, r.reads, "no read on overflow")
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, popAll(t, b))
}

func TestIngestBufferWrapAround(t *testing.T) {
	b := NewIngestBuffer(4)
	r := &chunkReader{chunks: [][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10}, {11, 12, 13, 14}, {15}}}
	require.NoError(t, b.PushFromRead(r))
	require.NoError(t, b.PushFromRead(r))

	// drain the first half only, the writer may wrap into it.
	for i := 1; i <= 4; i++ {
		v, err := b.Pop()
		require.NoError(t, err)
		require.EqualValues(t, i, v)
	}
	require.NoError(t, b.PushFromRead(r))
	require.Equal(t, 6, b.Buffered())

	// the second half is still pending, a new chunk does not fit.
	require.Equal(t, ErrOverflow, b.PushFromRead(r))

	require.Equal(t, []byte{5, 6, 7, 8, 9, 10}, popAll(t, b))
	require.NoError(t, b.PushFromRead(r))
	require.NoError(t, b.PushFromRead(r))
	require.Equal(t, []byte{11, 12, 13, 14, 15}, popAll(t, b))
}

func TestIngestBufferStreamOrder(t *testing.T) {
	var data []byte
	for i := 0; i < 1000; i++ {
		data = append(data, byte(i))
	}
	b := NewIngestBuffer(7)
	r := bytes.NewReader(data)
	var out []byte
	for {
		err := b.PushFromRead(r)
		if errors.Is(err, ErrOverflow) {
			out = append(out, popAll(t, b)...)
			continue
		}
		if err != nil {
			var rerr *ReadError
			require.True(t, errors.As(err, &rerr))
			require.True(t, errors.Is(err, io.EOF))
			break
		}
		// drain a few bytes only to exercise partial consumption.
		for i := 0; i < 5; i++ {
			v, err := b.Pop()
			if err != nil {
				break
			}
			out = append(out, v)
		}
		if b.Buffered() > b.ChunkSize() {
			for b.Buffered() > 0 {
				v, err := b.Pop()
				require.NoError(t, err)
				out = append(out, v)
			}
		}
	}
	out = append(out, popAll(t, b)...)
	require.Equal(t, data, out)
}

type failingReader struct {
	err error
}

func (r failingReader) Read(p []byte) (int, error) {
	return 0, r.err
}

func TestIngestBufferReadError(t *testing.T) {
	cause := errors.New("line down")
	b := NewIngestBuffer(4)
	err := b.PushFromRead(failingReader{err: cause})
	require.Error(t, err)
	require.True(t, errors.Is(err, cause))
	require.False(t, errors.Is(err, ErrOverflow))
	require.Zero(t, b.Buffered())
}
