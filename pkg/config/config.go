// Package config provides the relay settings from env and flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/spf13/pflag"

	"github.com/robotalks/lstrelay/pkg/lst"
	"github.com/robotalks/lstrelay/pkg/mqtt"
	"github.com/robotalks/lstrelay/pkg/relay"
	"github.com/robotalks/lstrelay/pkg/rodos"
	"github.com/robotalks/lstrelay/pkg/serialport"
)

// Config provides the options of the relay.
type Config struct {
	// SerialPort is the modem UART, e.g. /dev/ttyUSB0, or the ws:// URL
	// of a serial bridge.
	SerialPort string
	BaudRate   int
	// HWID is the hardware id put in frames sent to the modem.
	HWID uint16

	// CANInterface is the socketcan interface, e.g. can0.
	CANInterface string
	// CANDevice is the RODOS device id used when sending.
	CANDevice uint8
	// CANFilters selects accepted messages: "topic" or "topic:device".
	CANFilters         []string
	CANSources         int
	CANMaxPacketLength int

	DownlinkTopic     uint16
	TelemetryInterval time.Duration
	TelemetryTimeout  time.Duration

	// MQTTBrokerURL specifies the MQTT broker to publish to, empty to disable.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	NodeID        string
	Codec         string
}

var defaultConfig = Config{
	SerialPort:         "/dev/ttyUSB0",
	BaudRate:           serialport.DefaultBaudRate,
	HWID:               0x0001,
	CANInterface:       "can0",
	CANDevice:          0x01,
	CANFilters:         []string{"0x0fa0"},
	CANSources:         rodos.DefaultSources,
	CANMaxPacketLength: rodos.DefaultMaxPacketLength,
	DownlinkTopic:      relay.DefaultDownlinkTopic,
	TelemetryInterval:  relay.DefaultTelemetryInterval,
	TelemetryTimeout:   relay.DefaultTelemetryTimeout,
	Codec:              mqtt.CodecProto,
}

func init() {
	defaultConfig.loadEnv(os.Getenv)
	if defaultConfig.NodeID == "" {
		defaultConfig.NodeID = MachineID()
	}
}

func (c *Config) loadEnv(getenv func(string) string) {
	if val := getenv("LSTRELAY_SERIAL"); val != "" {
		c.SerialPort = val
	}
	if val, err := strconv.Atoi(getenv("LSTRELAY_BAUD")); err == nil && val > 0 {
		c.BaudRate = val
	}
	if val, err := strconv.ParseUint(getenv("LSTRELAY_HWID"), 0, 16); err == nil {
		c.HWID = uint16(val)
	}
	if val := getenv("LSTRELAY_CAN"); val != "" {
		c.CANInterface = val
	}
	if val := getenv("LSTRELAY_CAN_FILTERS"); val != "" {
		c.CANFilters = strings.Split(val, ",")
	}
	if val := getenv("LSTRELAY_MQTT_URL"); val != "" {
		c.MQTTBrokerURL = val
	}
	if val := getenv("LSTRELAY_NODE_ID"); val != "" {
		c.NodeID = val
	}
}

// MachineID retrieves the unique ID identifying the machine, shortened for
// use in topics. It returns "lstrelay" if the machine id is unavailable.
func MachineID() string {
	id, err := machineid.ProtectedID("lstrelay")
	if err != nil {
		return "lstrelay"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

// SetupFlags sets command line flags.
func SetupFlags(fs *pflag.FlagSet) {
	defaultConfig.SetupFlags(fs)
}

// SetupFlags binds the fields of c to command line flags.
func (c *Config) SetupFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.SerialPort, "serial", "s", c.SerialPort, "Modem serial port or ws:// bridge URL")
	fs.IntVar(&c.BaudRate, "baud", c.BaudRate, "Modem baud rate")
	fs.Uint16Var(&c.HWID, "hwid", c.HWID, "Hardware ID of frames sent to the modem")
	fs.StringVar(&c.CANInterface, "can", c.CANInterface, "socketcan interface")
	fs.Uint8Var(&c.CANDevice, "can-device", c.CANDevice, "RODOS device ID used when sending")
	fs.StringSliceVar(&c.CANFilters, "can-filter", c.CANFilters, "Accepted RODOS topics as topic or topic:device")
	fs.IntVar(&c.CANSources, "can-sources", c.CANSources, "Maximum concurrently reassembled sources")
	fs.IntVar(&c.CANMaxPacketLength, "can-max-packet", c.CANMaxPacketLength, "Maximum reassembled message length")
	fs.Uint16Var(&c.DownlinkTopic, "downlink-topic", c.DownlinkTopic, "RODOS topic for data received over radio")
	fs.DurationVar(&c.TelemetryInterval, "telemetry-interval", c.TelemetryInterval, "Modem telemetry polling interval, 0 to disable")
	fs.DurationVar(&c.TelemetryTimeout, "telemetry-timeout", c.TelemetryTimeout, "Modem telemetry reply timeout")
	fs.StringVar(&c.MQTTBrokerURL, "mqtt", c.MQTTBrokerURL, "MQTT broker URL, empty to disable")
	fs.StringVar(&c.NodeID, "id", c.NodeID, "Node ID used in MQTT topics")
	fs.StringVar(&c.Codec, "codec", c.Codec, "Telemetry encoding: proto or json")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	conf.CANFilters = append([]string{}, defaultConfig.CANFilters...)
	return &conf
}

// Filters parses CANFilters.
func (c *Config) Filters() ([]rodos.Filter, error) {
	filters := make([]rodos.Filter, 0, len(c.CANFilters))
	for _, s := range c.CANFilters {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		f, err := rodos.ParseFilter(s)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// RelayOptions returns the options of the relay.
func (c *Config) RelayOptions() relay.Options {
	return relay.Options{
		DownlinkTopic:     c.DownlinkTopic,
		TelemetryInterval: c.TelemetryInterval,
		TelemetryTimeout:  c.TelemetryTimeout,
	}
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.SerialPort == "" {
		return fmt.Errorf("serial port must be specified")
	}
	if c.CANInterface == "" {
		return fmt.Errorf("CAN interface must be specified")
	}
	if c.CANMaxPacketLength <= 0 || c.CANSources <= 0 {
		return fmt.Errorf("CAN buffer sizes must be positive")
	}
	if c.CANMaxPacketLength > lst.MaxPayloadLength {
		return fmt.Errorf("CAN max packet length %d exceeds radio payload %d", c.CANMaxPacketLength, lst.MaxPayloadLength)
	}
	if c.TelemetryInterval < 0 {
		return fmt.Errorf("invalid telemetry interval %v", c.TelemetryInterval)
	}
	if _, err := c.Filters(); err != nil {
		return err
	}
	if c.MQTTBrokerURL != "" {
		if c.NodeID == "" {
			return fmt.Errorf("node ID is required with MQTT")
		}
		if _, err := mqtt.NewCodec(c.Codec); err != nil {
			return err
		}
		if _, err := mqtt.ParseURL(c.MQTTBrokerURL); err != nil {
			return fmt.Errorf("invalid MQTT broker URL: %w", err)
		}
	}
	return nil
}
