package rodos

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/robotalks/lstrelay/pkg/canbus"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	testCases := []struct {
		in     string
		expect Filter
		err    bool
	}{
		{in: "18", expect: Filter{Topic: 18, AnyDevice: true}},
		{in: "0x12:3", expect: Filter{Topic: 0x12, Device: 3}},
		{in: " 7 : 255 ", expect: Filter{Topic: 7, Device: 255}},
		{in: "x", err: true},
		{in: "70000", err: true},
		{in: "1:256", err: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			f, err := ParseFilter(tc.in)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, f)
		})
	}
	require.Equal(t, "18", Filter{Topic: 18, AnyDevice: true}.String())
	require.Equal(t, "18:3", Filter{Topic: 18, Device: 3}.String())
}

func TestFilterMatch(t *testing.T) {
	anyDevice := Filter{Topic: 0x12, AnyDevice: true}
	one := Filter{Topic: 0x12, Device: 3}
	require.True(t, anyDevice.Match(0x1c001201))
	require.True(t, anyDevice.Match(0x1c0012ff))
	require.False(t, anyDevice.Match(0x1c001301))
	require.False(t, anyDevice.Match(0x0a001201))
	require.True(t, one.Match(0x1c001203))
	require.False(t, one.Match(0x1c001204))
}

func TestSendReceive(t *testing.T) {
	a, b := canbus.Pipe(64)
	defer a.Close()
	sender := NewSender(a, 5)
	receiver := NewReceiver(b, nil, Filter{Topic: 100, AnyDevice: true})

	require.NoError(t, a.Send(canbus.Frame{ID: 0x42, Data: []byte{1}}))
	require.NoError(t, NewSender(a, 6).Send(101, []byte("filtered out")))
	payload := []byte("the quick brown fox jumps over the lazy dog")
	require.NoError(t, sender.Send(100, payload))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := receiver.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceID{Topic: 100, Device: 5}, msg.Source)
	require.Equal(t, payload, msg.Data)
}

func TestReceiverErrors(t *testing.T) {
	a, b := canbus.Pipe(8)
	defer a.Close()
	receiver := NewReceiver(b, NewReassembler(1, 0))
	src := SourceID{Topic: 1, Device: 1}

	require.NoError(t, a.Send(canbus.Frame{ID: 0x42, Data: []byte{1}}))
	require.NoError(t, a.Send((&Fragment{Source: src, SeqNum: 1, SeqLen: 2, Data: []byte{1}}).Frame()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := receiver.Receive(ctx)
	require.True(t, IsProtocolError(err))
	_, err = receiver.Receive(ctx)
	require.Equal(t, ErrFrameDropped, err)

	require.NoError(t, b.Close())
	_, err = receiver.Receive(ctx)
	require.Equal(t, canbus.ErrClosed, err)
	require.False(t, IsResourceError(err))

	overflow := fmt.Errorf("%w: 3 frames dropped", canbus.ErrQueueOverflow)
	require.True(t, IsResourceError(overflow))
	require.False(t, IsProtocolError(overflow))
}
