package mqtt

import (
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/lstrelay/pkg/lst"
	"github.com/robotalks/lstrelay/pkg/rodos"
)

type published struct {
	topic   string
	payload []byte
	retain  bool
}

type fakePubber struct {
	msgs []published
}

func (p *fakePubber) PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token {
	p.msgs = append(p.msgs, published{topic: topic, payload: payload, retain: retain})
	return &paho.DummyToken{}
}

var testTelemetry = lst.Telemetry{
	Uptime:                  16,
	RSSI:                    -40,
	LQI:                     200,
	PacketsSent:             1000,
	PacketsGood:             990,
	PacketsRejectedChecksum: 5,
	PacketsRejectedOther:    5,
}

func TestCodecs(t *testing.T) {
	report := &TelemetryReport{
		Time:      time.Date(2024, 5, 1, 12, 30, 0, 500, time.UTC),
		Telemetry: testTelemetry,
	}
	for _, name := range []string{CodecProto, CodecJSON} {
		t.Run(name, func(t *testing.T) {
			codec, err := NewCodec(name)
			require.NoError(t, err)
			require.Equal(t, name, codec.Name())
			b, err := codec.Encode(report)
			require.NoError(t, err)
			decoded, err := codec.Decode(b)
			require.NoError(t, err)
			require.Equal(t, report.Telemetry, decoded.Telemetry)
			require.True(t, report.Time.Equal(decoded.Time))
		})
	}

	codec, err := NewCodec(CodecJSON)
	require.NoError(t, err)
	_, err = codec.Decode([]byte(`{"uptime": 1}`))
	require.Error(t, err)

	_, err = NewCodec("xml")
	require.Error(t, err)
}

func TestPublisher(t *testing.T) {
	pubber := &fakePubber{}
	codec, err := NewCodec(CodecJSON)
	require.NoError(t, err)
	p := NewPublisher(pubber, "node1", codec)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	tm := testTelemetry
	require.NoError(t, p.PublishTelemetry(&tm))
	require.NoError(t, p.PublishRelay([]byte("down")))
	require.NoError(t, p.PublishCAN(&rodos.Message{Source: rodos.SourceID{Topic: 10, Device: 2}, Data: []byte("up")}))

	require.Len(t, pubber.msgs, 3)
	require.Equal(t, "node1/telemetry", pubber.msgs[0].topic)
	require.True(t, pubber.msgs[0].retain)
	report, err := codec.Decode(pubber.msgs[0].payload)
	require.NoError(t, err)
	require.Equal(t, tm, report.Telemetry)
	require.True(t, now.Equal(report.Time))

	require.Equal(t, published{topic: "node1/downlink", payload: []byte("down")}, pubber.msgs[1])
	require.Equal(t, published{topic: "node1/uplink/10/2", payload: []byte("up")}, pubber.msgs[2])
	require.Equal(t, "node1/status", StatusTopic("node1"))
}
