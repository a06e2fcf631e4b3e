package main

import (
	"encoding/hex"
	"flag"
	"log"
	"strings"

	"github.com/spf13/pflag"

	"github.com/robotalks/lstrelay/pkg/config"
	fx "github.com/robotalks/lstrelay/pkg/framework"
	"github.com/robotalks/lstrelay/pkg/mqtt"
)

var (
	brokerURL = "mqtt://localhost:1883/lst/"
	node      = "+"
	codec     = mqtt.CodecProto
)

func init() {
	if url := config.Default().MQTTBrokerURL; url != "" {
		brokerURL = url
	}
	pflag.StringVar(&brokerURL, "mqtt", brokerURL, "MQTT broker URL.")
	pflag.StringVar(&node, "node", node, "Node ID to monitor, + for all.")
	pflag.StringVar(&codec, "codec", codec, "Telemetry encoding: proto or json.")
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
}

func main() {
	pflag.Parse()
	flag.CommandLine.Parse(nil)
	log.SetFlags(log.Lmicroseconds)

	decoder, err := mqtt.NewCodec(codec)
	if err != nil {
		log.Fatalln(err)
	}
	q, err := mqtt.NewQueueFromURL(brokerURL, "lstmon-"+config.MachineID(), "")
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer q.Close()

	q.Sub(mqtt.TelemetryTopic(node), func(topic string, payload []byte) {
		report, err := decoder.Decode(payload)
		if err != nil {
			log.Printf("%s: bad telemetry: %v", topic, err)
			return
		}
		log.Printf("%s: [%s] %+v", topic, report.Time.Format("15:04:05"), report.Telemetry)
	})
	q.Sub(mqtt.StatusTopic(node), func(topic string, payload []byte) {
		log.Printf("%s: %s", topic, string(payload))
	})
	q.Sub(mqtt.DownlinkTopic(node), printData)
	q.Sub(node+"/"+mqtt.TopicUplink+"/#", printData)

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedFunc("monitor", waitDone))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}

func printData(topic string, payload []byte) {
	log.Printf("%s: %d bytes\n%s", topic, len(payload), strings.TrimRight(hex.Dump(payload), "\n"))
}
