package model

import (
	"bytes"
	"encoding/json"
)

// Field names a slot of the persisted state. The names double as the JSON
// keys of the stored record.
type Field string

const (
	FieldPower            Field = "power"
	FieldBrightness       Field = "brightness"
	FieldColor            Field = "color"
	FieldColorTemperature Field = "colorTemperatureInKelvin"
	FieldTargetSetpoint   Field = "targetSetpoint"
	FieldThermostatMode   Field = "thermostatMode"
	FieldMode             Field = "mode"
	FieldVolume           Field = "volume"
	FieldMuted            Field = "muted"
	FieldDetectionState   Field = "detectionState"
	FieldRelativeHumidity Field = "relativeHumidity"
	FieldTemperature      Field = "temperature"
	FieldToggleState      Field = "toggleState"
	FieldSceneStatus      Field = "scene_status"
	FieldLastActivated    Field = "last_activated"
)

// AllFields lists every slot in storage order.
var AllFields = []Field{
	FieldPower, FieldBrightness, FieldColor, FieldColorTemperature,
	FieldTargetSetpoint, FieldThermostatMode, FieldMode, FieldVolume,
	FieldMuted, FieldDetectionState, FieldRelativeHumidity, FieldTemperature,
	FieldToggleState, FieldSceneStatus, FieldLastActivated,
}

// legacyScalarFields receive a bare scalar state written by the first
// generation of the device table.
var legacyScalarFields = []Field{
	FieldPower, FieldBrightness, FieldTemperature, FieldColor, FieldColorTemperature,
}

// State is the persisted state of one device. A nil slot means the field was
// never written.
type State struct {
	Power            *Value
	Brightness       *Value
	Color            *Value
	ColorTemperature *Value
	TargetSetpoint   *Value
	ThermostatMode   *Value
	Mode             *Value
	Volume           *Value
	Muted            *Value
	DetectionState   *Value
	RelativeHumidity *Value
	Temperature      *Value
	ToggleState      *Value
	SceneStatus      *Value
	LastActivated    *Value
}

func (s *State) slot(f Field) **Value {
	switch f {
	case FieldPower:
		return &s.Power
	case FieldBrightness:
		return &s.Brightness
	case FieldColor:
		return &s.Color
	case FieldColorTemperature:
		return &s.ColorTemperature
	case FieldTargetSetpoint:
		return &s.TargetSetpoint
	case FieldThermostatMode:
		return &s.ThermostatMode
	case FieldMode:
		return &s.Mode
	case FieldVolume:
		return &s.Volume
	case FieldMuted:
		return &s.Muted
	case FieldDetectionState:
		return &s.DetectionState
	case FieldRelativeHumidity:
		return &s.RelativeHumidity
	case FieldTemperature:
		return &s.Temperature
	case FieldToggleState:
		return &s.ToggleState
	case FieldSceneStatus:
		return &s.SceneStatus
	case FieldLastActivated:
		return &s.LastActivated
	}
	return nil
}

func (s State) Get(f Field) *Value {
	if p := s.slot(f); p != nil {
		return *p
	}
	return nil
}

// Set stores v in the slot for f. Unknown fields are ignored.
func (s *State) Set(f Field, v *Value) {
	if p := s.slot(f); p != nil {
		*p = v
	}
}

// Fields returns the populated slots in storage order.
func (s State) Fields() []Field {
	var out []Field
	for _, f := range AllFields {
		if s.Get(f) != nil {
			out = append(out, f)
		}
	}
	return out
}

func (s State) IsEmpty() bool {
	return len(s.Fields()) == 0
}

// Merge overwrites every slot populated in delta. It is a shallow,
// key-wise merge: a colour delta replaces the whole colour record.
func (s State) Merge(delta State) State {
	for _, f := range delta.Fields() {
		s.Set(f, delta.Get(f))
	}
	return s
}

// Differs reports whether applying delta would change any stored value.
func (s State) Differs(delta State) bool {
	for _, f := range delta.Fields() {
		if !s.Get(f).Equal(delta.Get(f)) {
			return true
		}
	}
	return false
}

func (s State) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, f := range AllFields {
		v := s.Get(f)
		if v == nil {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, _ := json.Marshal(string(f))
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts an object keyed by field name. A bare scalar is the
// legacy single-value layout and is spread over the primary fields.
func (s *State) UnmarshalJSON(data []byte) error {
	*s = State{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '{' {
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if _, isList := raw.([]any); isList {
			return nil
		}
		for _, f := range legacyScalarFields {
			s.Set(f, Raw(raw))
		}
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for k, raw := range m {
		p := s.slot(Field(k))
		if p == nil {
			continue
		}
		v := &Value{}
		if err := v.UnmarshalJSON(raw); err != nil {
			return err
		}
		if v.raw == nil {
			continue
		}
		*p = v
	}
	return nil
}
