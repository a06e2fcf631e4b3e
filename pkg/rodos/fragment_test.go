package rodos

import (
	"errors"
	"testing"

	"github.com/robotalks/lstrelay/pkg/canbus"
	"github.com/stretchr/testify/require"
)

func TestSourceID(t *testing.T) {
	src := SourceID{Topic: 0x1234, Device: 0x56}
	require.Equal(t, uint32(0x1c123456), src.ID())
	require.Equal(t, src, ParseID(src.ID()))
	require.Equal(t, "4660/86", src.String())
}

func TestDecodeFragment(t *testing.T) {
	testCases := []struct {
		name   string
		frame  canbus.Frame
		expect *Fragment
		reason error
	}{
		{
			name:   "fragment",
			frame:  canbus.Frame{ID: 0x1c001203, Extended: true, Data: []byte{1, 0, 2, 'a', 'b', 'c'}},
			expect: &Fragment{Source: SourceID{Topic: 0x12, Device: 3}, SeqNum: 1, SeqLen: 2, Data: []byte("abc")},
		},
		{
			name:   "standard identifier",
			frame:  canbus.Frame{ID: 0x123, Data: []byte{0, 0, 0, 1}},
			reason: ErrWrongIDType,
		},
		{
			name:   "foreign prefix",
			frame:  canbus.Frame{ID: 0x0d001203, Extended: true, Data: []byte{1, 0, 2, 'a', 'b', 'c'}},
			reason: ErrForeignID,
		},
		{
			name:   "header only",
			frame:  canbus.Frame{ID: 0x1c001203, Extended: true, Data: []byte{0, 0, 0}},
			reason: ErrNoData,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frag, err := DecodeFragment(tc.frame)
			if tc.reason != nil {
				require.True(t, errors.Is(err, ErrCouldNotDecode))
				require.True(t, errors.Is(err, tc.reason))
				require.True(t, IsProtocolError(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, frag)
		})
	}
}

func TestSplit(t *testing.T) {
	src := SourceID{Topic: 7, Device: 1}
	frags, err := Split(src, []byte("hello world!"))
	require.NoError(t, err)
	require.Len(t, frags, 3)
	for n, frag := range frags {
		require.Equal(t, n, frag.SeqNum)
		require.Equal(t, 2, frag.SeqLen)
		require.Equal(t, n == 2, frag.Last())
	}
	require.Equal(t, canbus.Frame{
		ID:       0x1c000701,
		Extended: true,
		Data:     []byte{2, 0, 2, 'd', '!'},
	}, frags[2].Frame())

	frags, err = Split(src, []byte("12345"))
	require.NoError(t, err)
	require.Len(t, frags, 1)
	require.Equal(t, []byte{0, 0, 0, '1', '2', '3', '4', '5'}, frags[0].Frame().Data)

	_, err = Split(src, nil)
	require.Equal(t, ErrEmptyMessage, err)
	_, err = Split(src, make([]byte, MaxFragments*FragmentLength+1))
	require.Equal(t, ErrMessageTooLong, err)
}
