package lst

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// DefaultTimeout is the reply timeout used when none is specified.
const DefaultTimeout = time.Second

// Client sends commands to the modem and waits for the replies.
type Client struct {
	Sender   *Sender
	Receiver *Receiver
	Handler  MessageHandler
	Timeout  time.Duration
}

// NewClient creates a Client over rw. Reads from rw must return
// periodically, with data or with 0 bytes on a read timeout, as
// serialport.Port and serialport.WebSocket do: the reply timeout is only
// checked between reads, so a read blocking forever blocks Do as well.
func NewClient(rw io.ReadWriter, hwid uint16) *Client {
	return &Client{
		Sender:   NewSender(rw, hwid),
		Receiver: NewReceiver(rw),
		Timeout:  DefaultTimeout,
	}
}

// Do sends cmd and returns the first local reply (Ack, Nack, *Telemetry or
// Unknown). Relay data received meanwhile goes to Handler.
func (c *Client) Do(ctx context.Context, cmd Command, timeout time.Duration) (Message, error) {
	return c.exchange(ctx, cmd, timeout, func(msg Message) bool {
		_, relay := msg.(Relay)
		return !relay
	})
}

// RequestTelemetry asks for telemetry and waits for it.
func (c *Client) RequestTelemetry(ctx context.Context, timeout time.Duration) (*Telemetry, error) {
	msg, err := c.exchange(ctx, CommandGetTelemetry, timeout, func(msg Message) bool {
		_, ok := msg.(*Telemetry)
		return ok
	})
	if err != nil {
		return nil, err
	}
	return msg.(*Telemetry), nil
}

// Reboot reboots the modem and waits for the acknowledgement.
func (c *Client) Reboot(ctx context.Context, timeout time.Duration) error {
	msg, err := c.Do(ctx, CommandReboot, timeout)
	if err != nil {
		return err
	}
	if _, ok := msg.(Ack); !ok {
		return &ReplyError{Command: CommandReboot, Reply: msg}
	}
	return nil
}

func (c *Client) exchange(ctx context.Context, cmd Command, timeout time.Duration, accept func(Message) bool) (Message, error) {
	if timeout <= 0 {
		timeout = c.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := c.Sender.SendCommand(cmd); err != nil {
		return nil, err
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for {
		msg, err := c.Receiver.Receive(waitCtx)
		switch {
		case err == nil:
		case IsProtocolError(err):
			continue
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			c.Receiver.Reset()
			return nil, fmt.Errorf("%v: %w: %w", cmd, ErrNoReply, err)
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			c.Receiver.Reset()
			return nil, err
		default:
			return nil, err
		}
		if accept(msg) {
			return msg, nil
		}
		if c.Handler != nil {
			c.Handler.HandleMessage(ctx, msg)
		}
	}
}
