package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/monowheel/pkg/framework"
)

// Enable requests the controller to enter ENABLED or DISABLED.
type Enable struct {
	Enable bool `protobuf:"varint,1,opt,name=enable,proto3" json:"enable,omitempty"`
}

// NewMessage implements Message.
func (m *Enable) NewMessage() fx.Message { return &Enable{} }

// TypeID implements SerializableMessage.
func (m *Enable) TypeID() uint32 { return EnableTypeID }

// Serializable implements SerializableMessage.
func (m *Enable) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Enable) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Enable) Reset() { *m = Enable{} }

// String implements proto.Message.
func (m *Enable) String() string { return proto.CompactTextString(m) }

// SetTargetAngle changes the balance set point.
type SetTargetAngle struct {
	Angle float64 `protobuf:"fixed64,1,opt,name=angle,proto3" json:"angle,omitempty"`
}

// NewMessage implements Message.
func (m *SetTargetAngle) NewMessage() fx.Message { return &SetTargetAngle{} }

// TypeID implements SerializableMessage.
func (m *SetTargetAngle) TypeID() uint32 { return SetTargetAngleTypeID }

// Serializable implements SerializableMessage.
func (m *SetTargetAngle) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *SetTargetAngle) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SetTargetAngle) Reset() { *m = SetTargetAngle{} }

// String implements proto.Message.
func (m *SetTargetAngle) String() string { return proto.CompactTextString(m) }

// AdjustGain adds Delta to one of the six gains.
type AdjustGain struct {
	Gain  uint32  `protobuf:"varint,1,opt,name=gain,proto3" json:"gain,omitempty"`
	Delta float64 `protobuf:"fixed64,2,opt,name=delta,proto3" json:"delta,omitempty"`
}

// NewMessage implements Message.
func (m *AdjustGain) NewMessage() fx.Message { return &AdjustGain{} }

// TypeID implements SerializableMessage.
func (m *AdjustGain) TypeID() uint32 { return AdjustGainTypeID }

// Serializable implements SerializableMessage.
func (m *AdjustGain) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *AdjustGain) ProtoMessage() {}

// Reset implements proto.Message.
func (m *AdjustGain) Reset() { *m = AdjustGain{} }

// String implements proto.Message.
func (m *AdjustGain) String() string { return proto.CompactTextString(m) }

// Reinit re-initializes the controller, which also disables it.
type Reinit struct {
}

// NewMessage implements Message.
func (m *Reinit) NewMessage() fx.Message { return &Reinit{} }

// TypeID implements SerializableMessage.
func (m *Reinit) TypeID() uint32 { return ReinitTypeID }

// Serializable implements SerializableMessage.
func (m *Reinit) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Reinit) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Reinit) Reset() { *m = Reinit{} }

// String implements proto.Message.
func (m *Reinit) String() string { return proto.CompactTextString(m) }

// State is the periodic telemetry event.
type State struct {
	Roll            float64   `protobuf:"fixed64,1,opt,name=roll,proto3" json:"roll,omitempty"`
	RollFiltered    float64   `protobuf:"fixed64,2,opt,name=roll_filtered,json=rollFiltered,proto3" json:"roll_filtered,omitempty"`
	RollRate        float64   `protobuf:"fixed64,3,opt,name=roll_rate,json=rollRate,proto3" json:"roll_rate,omitempty"`
	TargetAngle     float64   `protobuf:"fixed64,4,opt,name=target_angle,json=targetAngle,proto3" json:"target_angle,omitempty"`
	TargetRate      float64   `protobuf:"fixed64,5,opt,name=target_rate,json=targetRate,proto3" json:"target_rate,omitempty"`
	Output          float64   `protobuf:"fixed64,6,opt,name=output,proto3" json:"output,omitempty"`
	Enabled         bool      `protobuf:"varint,7,opt,name=enabled,proto3" json:"enabled,omitempty"`
	Gains           *Gains    `protobuf:"bytes,8,opt,name=gains,proto3" json:"gains,omitempty"`
	WheelSpeed      float64   `protobuf:"fixed64,9,opt,name=wheel_speed,json=wheelSpeed,proto3" json:"wheel_speed,omitempty"`
	WheelSpeedValid bool      `protobuf:"varint,10,opt,name=wheel_speed_valid,json=wheelSpeedValid,proto3" json:"wheel_speed_valid,omitempty"`
	Counters        *Counters `protobuf:"bytes,11,opt,name=counters,proto3" json:"counters,omitempty"`
	Timestamp       int64     `protobuf:"varint,12,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// NewMessage implements Message.
func (m *State) NewMessage() fx.Message { return &State{} }

// TypeID implements SerializableMessage.
func (m *State) TypeID() uint32 { return StateEventTypeID }

// Serializable implements SerializableMessage.
func (m *State) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *State) ProtoMessage() {}

// Reset implements proto.Message.
func (m *State) Reset() { *m = State{} }

// String implements proto.Message.
func (m *State) String() string { return proto.CompactTextString(m) }

// Gains is the full six-gain view.
type Gains struct {
	AngleKp float64 `protobuf:"fixed64,1,opt,name=angle_kp,json=angleKp,proto3" json:"angle_kp,omitempty"`
	AngleKi float64 `protobuf:"fixed64,2,opt,name=angle_ki,json=angleKi,proto3" json:"angle_ki,omitempty"`
	AngleKd float64 `protobuf:"fixed64,3,opt,name=angle_kd,json=angleKd,proto3" json:"angle_kd,omitempty"`
	RateKp  float64 `protobuf:"fixed64,4,opt,name=rate_kp,json=rateKp,proto3" json:"rate_kp,omitempty"`
	RateKi  float64 `protobuf:"fixed64,5,opt,name=rate_ki,json=rateKi,proto3" json:"rate_ki,omitempty"`
	RateKd  float64 `protobuf:"fixed64,6,opt,name=rate_kd,json=rateKd,proto3" json:"rate_kd,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Gains) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Gains) Reset() { *m = Gains{} }

// String implements proto.Message.
func (m *Gains) String() string { return proto.CompactTextString(m) }

// Counters are the non-functional health counters.
type Counters struct {
	FramesDecoded    uint64 `protobuf:"varint,1,opt,name=frames_decoded,json=framesDecoded,proto3" json:"frames_decoded,omitempty"`
	FramesDropped    uint64 `protobuf:"varint,2,opt,name=frames_dropped,json=framesDropped,proto3" json:"frames_dropped,omitempty"`
	FramesTruncated  uint64 `protobuf:"varint,3,opt,name=frames_truncated,json=framesTruncated,proto3" json:"frames_truncated,omitempty"`
	ChecksumErrors   uint64 `protobuf:"varint,4,opt,name=checksum_errors,json=checksumErrors,proto3" json:"checksum_errors,omitempty"`
	SafetyTrips      uint64 `protobuf:"varint,5,opt,name=safety_trips,json=safetyTrips,proto3" json:"safety_trips,omitempty"`
	SaturationDecays uint64 `protobuf:"varint,6,opt,name=saturation_decays,json=saturationDecays,proto3" json:"saturation_decays,omitempty"`
	ParseFailures    uint64 `protobuf:"varint,7,opt,name=parse_failures,json=parseFailures,proto3" json:"parse_failures,omitempty"`
	Overflows        uint64 `protobuf:"varint,8,opt,name=overflows,proto3" json:"overflows,omitempty"`
	RequestTimeouts  uint64 `protobuf:"varint,9,opt,name=request_timeouts,json=requestTimeouts,proto3" json:"request_timeouts,omitempty"`
	LoopOverruns     uint64 `protobuf:"varint,10,opt,name=loop_overruns,json=loopOverruns,proto3" json:"loop_overruns,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Counters) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Counters) Reset() { *m = Counters{} }

// String implements proto.Message.
func (m *Counters) String() string { return proto.CompactTextString(m) }

// GroupBalance is the message group of the balance controller.
const GroupBalance uint32 = 0x00010000

// TypeIDs
const (
	EnableTypeID         uint32 = GroupBalance | 0x0001
	SetTargetAngleTypeID uint32 = GroupBalance | 0x0002
	AdjustGainTypeID     uint32 = GroupBalance | 0x0003
	ReinitTypeID         uint32 = GroupBalance | 0x0004
	StateEventTypeID     uint32 = GroupBalance | TypeIDKindEvent | 0x0001
)

func init() {
	MessageTypes[EnableTypeID] = (*Enable)(nil)
	MessageTypes[SetTargetAngleTypeID] = (*SetTargetAngle)(nil)
	MessageTypes[AdjustGainTypeID] = (*AdjustGain)(nil)
	MessageTypes[ReinitTypeID] = (*Reinit)(nil)
	MessageTypes[StateEventTypeID] = (*State)(nil)
}
