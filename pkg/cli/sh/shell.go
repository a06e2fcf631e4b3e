// Package sh provides an interactive console talking to the modem.
package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/lstrelay/pkg/config"
	"github.com/robotalks/lstrelay/pkg/lst"
	"github.com/robotalks/lstrelay/pkg/serialport"
)

// Opener opens the modem port.
type Opener func(name string, baudRate int) (io.ReadWriteCloser, error)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *config.Config
	Open   Opener
	Conn   *Conn
}

// Conn is an opened modem port.
type Conn struct {
	Name   string
	Port   io.ReadWriteCloser
	Client *lst.Client
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var commands = []*ishell.Cmd{
	&PortsCmd,
	&OpenCmd,
	&CloseCmd,
	&TelemetryCmd,
	&RebootCmd,
	&SendCmd,
}

// AddCmds adds commands to all shells created later.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *config.Config) *Shell {
	s := &Shell{
		Interactive: true,
		Timeout:     lst.DefaultTimeout,
		Shell:       ishell.New(),
		Config:      conf,
		Open:        openSerial,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

func openSerial(name string, baudRate int) (io.ReadWriteCloser, error) {
	return serialport.OpenLink(name, baudRate)
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the modem port.
func (s *Shell) Connect(name string) error {
	port, err := s.Open(name, s.Config.BaudRate)
	if err != nil {
		return err
	}
	s.Disconnect()
	client := lst.NewClient(port, s.Config.HWID)
	client.Timeout = s.Timeout
	client.Handler = lst.HandleMessageFunc(func(ctx context.Context, msg lst.Message) {
		s.Shell.Println(FormatMessage(msg))
	})
	s.Conn = &Conn{Name: name, Port: port, Client: client}
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", name))
	return nil
}

// Disconnect closes the current port.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		if err := s.Conn.Port.Close(); err != nil {
			glog.Warningf("close %s: %v", s.Conn.Name, err)
		}
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Print prints a command result.
func (s *Shell) Print(c *ishell.Context, v interface{}, text string) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) error {
	if s.AutoConnect && s.Config.SerialPort != "" {
		if s.Interactive {
			s.Shell.Printf("Opening %s ...\n", s.Config.SerialPort)
		}
		if err := s.Connect(s.Config.SerialPort); err != nil {
			return fmt.Errorf("open %q failed: %w", s.Config.SerialPort, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if s.Interactive {
		s.Shell.Run()
		return nil
	}
	return fmt.Errorf("command expected")
}

// FormatMessage formats a modem message for display.
func FormatMessage(msg lst.Message) string {
	switch m := msg.(type) {
	case lst.Ack:
		return "ACK"
	case lst.Nack:
		return "NACK"
	case lst.Unknown:
		return fmt.Sprintf("UNKNOWN 0x%02x", m.Code)
	case lst.Relay:
		return fmt.Sprintf("RELAY %s", hex.EncodeToString(m))
	case *lst.Telemetry:
		return FormatTelemetry(m)
	}
	return fmt.Sprintf("%T", msg)
}

// FormatTelemetry formats telemetry for display.
func FormatTelemetry(t *lst.Telemetry) string {
	return fmt.Sprintf("uptime=%ds rssi=%d lqi=%d sent=%d good=%d rejected_checksum=%d rejected_other=%d",
		t.Uptime, t.RSSI, t.LQI, t.PacketsSent, t.PacketsGood, t.PacketsRejectedChecksum, t.PacketsRejectedOther)
}

// ParsePayload parses command arguments as payload: "hex:0a0b" or text.
func ParsePayload(args []string) ([]byte, error) {
	text := strings.Join(args, " ")
	if strings.HasPrefix(text, "hex:") {
		return hex.DecodeString(strings.ReplaceAll(text[4:], " ", ""))
	}
	if text == "" {
		return nil, fmt.Errorf("payload expected")
	}
	return []byte(text), nil
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"ls"},
		Help:    "list serial ports",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ports, err := serialport.List()
			if err != nil {
				c.Err(err)
				return
			}
			if ports == nil {
				ports = []string{}
			}
			s.Print(c, ports, strings.Join(ports, "\n"))
		},
	}

	// OpenCmd opens the modem port.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			name := s.Config.SerialPort
			if len(c.Args) > 0 {
				name = c.Args[0]
			}
			if err := s.Connect(name); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the modem port.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// TelemetryCmd requests modem telemetry.
	TelemetryCmd = ishell.Cmd{
		Name:    "telem",
		Aliases: []string{"t"},
		Help:    "request modem telemetry",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			t, err := s.Conn.Client.RequestTelemetry(context.Background(), s.Timeout)
			if err != nil {
				c.Err(err)
				return
			}
			s.Print(c, t, FormatTelemetry(t))
		}),
	}

	// RebootCmd reboots the modem.
	RebootCmd = ishell.Cmd{
		Name: "reboot",
		Help: "reboot the modem",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			if err := s.Conn.Client.Reboot(context.Background(), s.Timeout); err != nil {
				c.Err(err)
				return
			}
			s.Print(c, "OK", "OK")
		}),
	}

	// SendCmd sends relay data over radio.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "TEXT | hex:HEX",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			payload, err := ParsePayload(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if err := s.Conn.Client.Sender.Send(payload); err != nil {
				c.Err(err)
				return
			}
			s.Print(c, len(payload), fmt.Sprintf("sent %d bytes", len(payload)))
		}),
	}
)
