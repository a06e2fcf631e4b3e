package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/lstrelay/pkg/lst"
	"github.com/robotalks/lstrelay/pkg/rodos"
)

// Topics below the node topic.
const (
	TopicStatus    = "status"
	TopicTelemetry = "telemetry"
	TopicDownlink  = "downlink"
	TopicUplink    = "uplink"
)

// DefaultPublishTimeout bounds the wait for a publish to complete.
const DefaultPublishTimeout = 5 * time.Second

// Pubber publishes a payload on a topic.
type Pubber interface {
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
}

// Publisher publishes relay traffic under <node>/.
type Publisher struct {
	Node    string
	Codec   Codec
	QoS     byte
	Timeout time.Duration

	pub Pubber
	now func() time.Time
}

// NewPublisher creates a Publisher.
func NewPublisher(pub Pubber, node string, codec Codec) *Publisher {
	if codec == nil {
		codec = protoCodec{}
	}
	return &Publisher{
		Node:    node,
		Codec:   codec,
		Timeout: DefaultPublishTimeout,
		pub:     pub,
		now:     time.Now,
	}
}

// TelemetryTopic returns the topic carrying telemetry of node.
func TelemetryTopic(node string) string {
	return node + "/" + TopicTelemetry
}

// DownlinkTopic returns the topic carrying data received over radio.
func DownlinkTopic(node string) string {
	return node + "/" + TopicDownlink
}

// UplinkTopic returns the topic carrying CAN messages from source.
func UplinkTopic(node string, source rodos.SourceID) string {
	return fmt.Sprintf("%s/%s/%d/%d", node, TopicUplink, source.Topic, source.Device)
}

// StatusTopic returns the status topic of node.
func StatusTopic(node string) string {
	return node + "/" + TopicStatus
}

// PublishTelemetry implements relay.Publisher. Telemetry is retained so
// new subscribers get the latest sample.
func (p *Publisher) PublishTelemetry(t *lst.Telemetry) error {
	payload, err := p.Codec.Encode(&TelemetryReport{Time: p.now(), Telemetry: *t})
	if err != nil {
		return err
	}
	return p.publish(TelemetryTopic(p.Node), payload, true)
}

// PublishRelay implements relay.Publisher.
func (p *Publisher) PublishRelay(data []byte) error {
	return p.publish(DownlinkTopic(p.Node), data, false)
}

// PublishCAN implements relay.Publisher.
func (p *Publisher) PublishCAN(msg *rodos.Message) error {
	return p.publish(UplinkTopic(p.Node, msg.Source), msg.Data, false)
}

func (p *Publisher) publish(topic string, payload []byte, retain bool) error {
	token := p.pub.PubWith(topic, payload, p.QoS, retain)
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	if !token.WaitTimeout(timeout) {
		glog.Warningf("publish %q timed out", topic)
		return fmt.Errorf("publish %q: timeout", topic)
	}
	return token.Error()
}
