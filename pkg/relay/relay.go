// Package relay forwards traffic between the radio modem and the CAN bus.
package relay

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/lstrelay/pkg/framework"
	"github.com/robotalks/lstrelay/pkg/lst"
	"github.com/robotalks/lstrelay/pkg/rodos"
)

// Defaults of Options.
const (
	DefaultDownlinkTopic     uint16 = 0x01
	DefaultTelemetryInterval        = 10 * time.Second
	DefaultTelemetryTimeout         = 3 * time.Second
)

// Publisher receives decoded traffic, e.g. for a ground station.
type Publisher interface {
	PublishTelemetry(*lst.Telemetry) error
	PublishRelay([]byte) error
	PublishCAN(*rodos.Message) error
}

// Options configures a Relay.
type Options struct {
	// DownlinkTopic is the CAN topic carrying data received over radio.
	DownlinkTopic uint16
	// TelemetryInterval is the modem telemetry polling period, 0 disables polling.
	TelemetryInterval time.Duration
	// TelemetryTimeout is how long a telemetry reply may take before the
	// record is reported stale. A partially received frame is dropped when it
	// stays incomplete for as long.
	TelemetryTimeout time.Duration
}

// Relay runs the relay tasks.
type Relay struct {
	Options

	Modem     *lst.Receiver
	ModemOut  *lst.Sender
	CAN       *rodos.Receiver
	CANOut    *rodos.Sender
	Publisher Publisher
	Telemetry *TelemetryRecord

	now func() time.Time
}

// New creates a Relay.
func New(opts Options, modem *lst.Receiver, modemOut *lst.Sender, can *rodos.Receiver, canOut *rodos.Sender) *Relay {
	if opts.TelemetryTimeout <= 0 {
		opts.TelemetryTimeout = DefaultTelemetryTimeout
	}
	return &Relay{
		Options:   opts,
		Modem:     modem,
		ModemOut:  modemOut,
		CAN:       can,
		CANOut:    canOut,
		Telemetry: &TelemetryRecord{},
		now:       time.Now,
	}
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		DownlinkTopic:     DefaultDownlinkTopic,
		TelemetryInterval: DefaultTelemetryInterval,
		TelemetryTimeout:  DefaultTelemetryTimeout,
	}
}

// Run implements framework.Runnable. It returns when ctx is done or a
// transport fails.
func (r *Relay) Run(ctx context.Context) error {
	runner := fx.NewRunnerWith(ctx)
	runner.Go(
		fx.NamedFunc("downlink", r.RunDownlink),
		fx.NamedFunc("uplink", r.RunUplink),
	)
	if r.TelemetryInterval > 0 {
		runner.Go(fx.NamedFunc("telemetry", r.RunTelemetryPoller))
	}
	return runner.Wait()
}

// RunDownlink forwards modem traffic until ctx is done or the modem link
// fails. A frame left incomplete for a whole TelemetryTimeout, e.g. after a
// corrupted length byte, is dropped so that later replies are not consumed
// as its payload.
func (r *Relay) RunDownlink(ctx context.Context) error {
	timeout := r.TelemetryTimeout
	if timeout <= 0 {
		timeout = DefaultTelemetryTimeout
	}
	stalled := false
	for {
		recvCtx, cancel := context.WithTimeout(ctx, timeout)
		msg, err := r.Modem.Receive(recvCtx)
		cancel()
		switch {
		case err == nil:
			stalled = false
			r.HandleModemMessage(msg)
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			// no frame completed within timeout.
			if r.Modem.State() == lst.DeframerSearching {
				stalled = false
			} else if stalled {
				glog.Warningf("modem: frame incomplete after %v, dropped", timeout)
				r.Modem.Reset()
				stalled = false
			} else {
				stalled = true
			}
		case lst.IsProtocolError(err):
			stalled = false
			glog.Warningf("modem: %v", err)
		default:
			return err
		}
	}
}

// HandleModemMessage dispatches a message received from the modem.
func (r *Relay) HandleModemMessage(msg lst.Message) {
	switch m := msg.(type) {
	case lst.Relay:
		glog.V(2).Infof("RCV modem relay %d bytes", len(m))
		if err := r.CANOut.Send(r.DownlinkTopic, m); err != nil {
			glog.Errorf("CAN send topic %d: %v", r.DownlinkTopic, err)
		}
		if r.Publisher != nil {
			if err := r.Publisher.PublishRelay(m); err != nil {
				glog.Warningf("publish relay: %v", err)
			}
		}
	case *lst.Telemetry:
		glog.V(2).Infof("RCV modem telemetry %+v", *m)
		r.Telemetry.Update(m, r.now())
		if r.Publisher != nil {
			if err := r.Publisher.PublishTelemetry(m); err != nil {
				glog.Warningf("publish telemetry: %v", err)
			}
		}
	case lst.Ack:
		glog.V(2).Info("RCV modem ack")
	case lst.Nack:
		glog.Warning("modem nack")
	case lst.Unknown:
		glog.Warningf("modem unknown message 0x%02x", m.Code)
	}
}

// RunUplink forwards CAN messages to the modem until ctx is done or the
// bus fails.
func (r *Relay) RunUplink(ctx context.Context) error {
	for {
		msg, err := r.CAN.Receive(ctx)
		switch {
		case err == nil:
			r.HandleCANMessage(msg)
		case rodos.IsProtocolError(err) || rodos.IsResourceError(err):
			glog.Warningf("CAN: %v", err)
		default:
			return err
		}
	}
}

// HandleCANMessage forwards a CAN message over the radio.
func (r *Relay) HandleCANMessage(msg *rodos.Message) {
	glog.V(2).Infof("RCV CAN %v %d bytes", msg.Source, len(msg.Data))
	if err := r.ModemOut.Send(msg.Data); err != nil {
		if errors.Is(err, lst.ErrMessageTooLong) {
			glog.Warningf("CAN message from %v too long for radio: %d bytes", msg.Source, len(msg.Data))
		} else {
			glog.Errorf("modem send: %v", err)
		}
	}
	if r.Publisher != nil {
		if err := r.Publisher.PublishCAN(msg); err != nil {
			glog.Warningf("publish CAN: %v", err)
		}
	}
}

// RunTelemetryPoller requests modem telemetry periodically. Replies are
// handled by the downlink.
func (r *Relay) RunTelemetryPoller(ctx context.Context) error {
	ticker := time.NewTicker(r.TelemetryInterval)
	defer ticker.Stop()
	for {
		r.pollTelemetry()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Relay) pollTelemetry() {
	if r.Telemetry.Count() > 0 && r.Telemetry.Stale(r.now(), r.TelemetryInterval+r.TelemetryTimeout) {
		glog.Warning("modem telemetry is stale")
	}
	if err := r.ModemOut.SendCommand(lst.CommandGetTelemetry); err != nil {
		glog.Errorf("modem send %v: %v", lst.CommandGetTelemetry, err)
	}
}
