package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/robotalks/lstrelay/pkg/canbus"
	"github.com/robotalks/lstrelay/pkg/config"
	fx "github.com/robotalks/lstrelay/pkg/framework"
	"github.com/robotalks/lstrelay/pkg/lst"
	"github.com/robotalks/lstrelay/pkg/mqtt"
	"github.com/robotalks/lstrelay/pkg/relay"
	"github.com/robotalks/lstrelay/pkg/rodos"
	"github.com/robotalks/lstrelay/pkg/serialport"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lstrelay",
		Short: "Relay between a RocketLST radio modem and a RODOS CAN bus",
		Long: `lstrelay forwards data received by the radio modem onto the CAN bus,
and CAN messages of the configured topics over the radio.

Modem telemetry is polled periodically and, like all relayed traffic,
optionally published to an MQTT broker.`,
		SilenceUsage: true,
		RunE:         runRelay,
	}
	config.SetupFlags(rootCmd.PersistentFlags())
	// glog flags: -v, -logtostderr, ...
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		flag.CommandLine.Parse(nil)
	}

	telemCmd := &cobra.Command{
		Use:   "telem",
		Short: "Request modem telemetry once",
		RunE:  runTelemetry,
	}

	listCmd := &cobra.Command{
		Use:   "ports",
		Short: "List available serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := serialport.List()
			if err != nil {
				return err
			}
			for _, port := range ports {
				fmt.Println(port)
			}
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lstrelay %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
		},
	}

	rootCmd.AddCommand(telemCmd, listCmd, versionCmd)

	err := rootCmd.Execute()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

func runRelay(cmd *cobra.Command, args []string) error {
	conf := config.Default()
	if err := conf.Validate(); err != nil {
		return err
	}
	filters, err := conf.Filters()
	if err != nil {
		return err
	}

	port, err := serialport.OpenLink(conf.SerialPort, conf.BaudRate)
	if err != nil {
		return err
	}
	defer port.Close()

	bus, err := canbus.OpenSocket(conf.CANInterface)
	if err != nil {
		return fmt.Errorf("failed to open CAN %s: %w", conf.CANInterface, err)
	}
	defer bus.Close()

	r := relay.New(conf.RelayOptions(),
		lst.NewReceiver(port),
		lst.NewSender(port, conf.HWID),
		rodos.NewReceiver(bus, rodos.NewReassembler(conf.CANSources, conf.CANMaxPacketLength), filters...),
		rodos.NewSender(bus, conf.CANDevice),
	)

	runner := fx.NewRunner().HandleSignals()

	if conf.MQTTBrokerURL != "" {
		q, err := connectMQTT(runner.Context, conf)
		if err != nil {
			return err
		}
		defer q.Close()
		codec, err := mqtt.NewCodec(conf.Codec)
		if err != nil {
			return err
		}
		pub := mqtt.NewPublisher(q, conf.NodeID, codec)
		pub.QoS = q.QoS
		r.Publisher = pub
	}

	glog.Infof("relaying %s@%d <-> %s, node %s", conf.SerialPort, conf.BaudRate, conf.CANInterface, conf.NodeID)
	runner.Go(fx.NamedRun("relay", r))
	return runner.Wait()
}

func connectMQTT(ctx context.Context, conf *config.Config) (*mqtt.Queue, error) {
	q, err := mqtt.NewQueueFromURL(conf.MQTTBrokerURL, "lstrelay-"+conf.NodeID, mqtt.StatusTopic(conf.NodeID))
	if err != nil {
		return nil, err
	}
	token := q.Connect()
	err = fx.RunWithContextCancel(ctx, func() { q.Close() }, func() error {
		token.Wait()
		return token.Error()
	})
	if err != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", conf.MQTTBrokerURL, err)
	}
	return q, nil
}

func runTelemetry(cmd *cobra.Command, args []string) error {
	conf := config.Default()
	port, err := serialport.OpenLink(conf.SerialPort, conf.BaudRate)
	if err != nil {
		return err
	}
	defer port.Close()

	timeout := conf.TelemetryTimeout
	if timeout <= 0 {
		timeout = relay.DefaultTelemetryTimeout
	}
	client := lst.NewClient(port, conf.HWID)
	t, err := client.RequestTelemetry(context.Background(), timeout)
	if err != nil {
		return err
	}
	fmt.Printf("uptime:            %v\n", time.Duration(t.Uptime)*time.Second)
	fmt.Printf("rssi:              %d\n", t.RSSI)
	fmt.Printf("lqi:               %d\n", t.LQI)
	fmt.Printf("packets sent:      %d\n", t.PacketsSent)
	fmt.Printf("packets good:      %d\n", t.PacketsGood)
	fmt.Printf("rejected checksum: %d\n", t.PacketsRejectedChecksum)
	fmt.Printf("rejected other:    %d\n", t.PacketsRejectedOther)
	return nil
}
