package mqtt

import (
	"fmt"
	"time"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/lstrelay/pkg/lst"
)

// Codec names.
const (
	CodecProto = "proto"
	CodecJSON  = "json"
)

// TelemetryReport is a telemetry sample with the time it was received.
type TelemetryReport struct {
	Time time.Time
	lst.Telemetry
}

// Codec encodes telemetry reports.
type Codec interface {
	Name() string
	Encode(*TelemetryReport) ([]byte, error)
	Decode([]byte) (*TelemetryReport, error)
}

// NewCodec creates codec by name.
func NewCodec(name string) (Codec, error) {
	switch name {
	case CodecProto, "":
		return protoCodec{}, nil
	case CodecJSON:
		return jsonCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

type protoCodec struct{}

func (protoCodec) Name() string { return CodecProto }

func (protoCodec) Encode(r *TelemetryReport) ([]byte, error) {
	s, err := telemetryStruct(r)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func (protoCodec) Decode(b []byte) (*TelemetryReport, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return telemetryFromStruct(&s)
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecJSON }

func (jsonCodec) Encode(r *TelemetryReport) ([]byte, error) {
	s, err := telemetryStruct(r)
	if err != nil {
		return nil, err
	}
	m := jsonpb.Marshaler{}
	str, err := m.MarshalToString(s)
	if err != nil {
		return nil, err
	}
	return []byte(str), nil
}

func (jsonCodec) Decode(b []byte) (*TelemetryReport, error) {
	var s structpb.Struct
	if err := jsonpb.UnmarshalString(string(b), &s); err != nil {
		return nil, err
	}
	return telemetryFromStruct(&s)
}

const (
	fieldTime                    = "time"
	fieldUptime                  = "uptime"
	fieldRSSI                    = "rssi"
	fieldLQI                     = "lqi"
	fieldPacketsSent             = "packets_sent"
	fieldPacketsGood             = "packets_good"
	fieldPacketsRejectedChecksum = "packets_rejected_checksum"
	fieldPacketsRejectedOther    = "packets_rejected_other"
)

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

func telemetryStruct(r *TelemetryReport) (*structpb.Struct, error) {
	ts, err := ptypes.TimestampProto(r.Time)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldTime:                    {Kind: &structpb.Value_StringValue{StringValue: ptypes.TimestampString(ts)}},
		fieldUptime:                  numberValue(float64(r.Uptime)),
		fieldRSSI:                    numberValue(float64(r.RSSI)),
		fieldLQI:                     numberValue(float64(r.LQI)),
		fieldPacketsSent:             numberValue(float64(r.PacketsSent)),
		fieldPacketsGood:             numberValue(float64(r.PacketsGood)),
		fieldPacketsRejectedChecksum: numberValue(float64(r.PacketsRejectedChecksum)),
		fieldPacketsRejectedOther:    numberValue(float64(r.PacketsRejectedOther)),
	}}, nil
}

func telemetryFromStruct(s *structpb.Struct) (*TelemetryReport, error) {
	r := &TelemetryReport{}
	number := func(name string) (float64, error) {
		v, ok := s.Fields[name].GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return 0, fmt.Errorf("telemetry field %q missing", name)
		}
		return v.NumberValue, nil
	}
	fields := []struct {
		name string
		set  func(float64)
	}{
		{fieldUptime, func(v float64) { r.Uptime = uint32(v) }},
		{fieldRSSI, func(v float64) { r.RSSI = int8(v) }},
		{fieldLQI, func(v float64) { r.LQI = uint8(v) }},
		{fieldPacketsSent, func(v float64) { r.PacketsSent = uint32(v) }},
		{fieldPacketsGood, func(v float64) { r.PacketsGood = uint32(v) }},
		{fieldPacketsRejectedChecksum, func(v float64) { r.PacketsRejectedChecksum = uint32(v) }},
		{fieldPacketsRejectedOther, func(v float64) { r.PacketsRejectedOther = uint32(v) }},
	}
	for _, f := range fields {
		v, err := number(f.name)
		if err != nil {
			return nil, err
		}
		f.set(v)
	}
	if v, ok := s.Fields[fieldTime].GetKind().(*structpb.Value_StringValue); ok {
		t, err := time.Parse(time.RFC3339Nano, v.StringValue)
		if err != nil {
			return nil, fmt.Errorf("telemetry time: %w", err)
		}
		r.Time = t
	}
	return r, nil
}
