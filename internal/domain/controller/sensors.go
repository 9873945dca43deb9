package controller

import (
	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
)

const (
	Detected    = "DETECTED"
	NotDetected = "NOT_DETECTED"

	absoluteZero = -273.15
)

type TemperatureSensor struct {
	base
	noDirectives
}

func newTemperatureSensor() *TemperatureSensor {
	return &TemperatureSensor{base: base{
		kind:      model.KindTemperature,
		namespace: "Alexa.TemperatureSensor",
		fields:    []model.Field{model.FieldTemperature},
	}}
}

func (c *TemperatureSensor) Descriptor(proactive, retrievable bool) alexa.Capability {
	return alexa.Interface(c.namespace, supported(proactive, retrievable, "temperature"))
}

func (c *TemperatureSensor) Properties(state model.State) []alexa.Property {
	v, ok := state.Temperature.Float()
	if !ok {
		v = absoluteZero
	}
	return []alexa.Property{c.property("temperature", celsius(v))}
}

func (c *TemperatureSensor) HandleUpdate(raw any) (model.State, bool) {
	f, ok := hubFloat(raw)
	if !ok {
		return model.State{}, false
	}
	return model.State{Temperature: model.Float(f)}, true
}

type HumiditySensor struct {
	base
	noDirectives
}

func newHumiditySensor() *HumiditySensor {
	return &HumiditySensor{base: base{
		kind:      model.KindHumidity,
		namespace: "Alexa.HumiditySensor",
		fields:    []model.Field{model.FieldRelativeHumidity},
	}}
}

func (c *HumiditySensor) Descriptor(proactive, retrievable bool) alexa.Capability {
	return alexa.Interface(c.namespace, supported(proactive, retrievable, "relativeHumidity"))
}

func (c *HumiditySensor) Properties(state model.State) []alexa.Property {
	v, ok := state.RelativeHumidity.Float()
	if !ok {
		v = 0
	}
	return []alexa.Property{c.property("relativeHumidity", map[string]float64{"value": v})}
}

func (c *HumiditySensor) HandleUpdate(raw any) (model.State, bool) {
	f, ok := hubFloat(raw)
	if !ok {
		return model.State{}, false
	}
	return model.State{RelativeHumidity: model.Float(f)}, true
}

// detection is shared by the contact and motion sensors. mapping turns a
// hub value into a detection state.
type detection struct {
	base
	noDirectives
	mapping map[string]string
}

func (c *detection) Descriptor(proactive, retrievable bool) alexa.Capability {
	return alexa.Interface(c.namespace, supported(proactive, retrievable, "detectionState"))
}

func (c *detection) Properties(state model.State) []alexa.Property {
	v, ok := state.DetectionState.Text()
	if !ok || (v != Detected && v != NotDetected) {
		v = NotDetected
	}
	return []alexa.Property{c.property("detectionState", v)}
}

func (c *detection) HandleUpdate(raw any) (model.State, bool) {
	s, ok := hubText(raw)
	if !ok {
		return model.State{}, false
	}
	v, ok := c.mapping[s]
	if !ok {
		return model.State{}, false
	}
	return model.State{DetectionState: model.Text(v)}, true
}

type ContactSensor struct {
	detection
}

func newContactSensor() *ContactSensor {
	return &ContactSensor{detection{
		base: base{
			kind:      model.KindContact,
			namespace: "Alexa.ContactSensor",
			fields:    []model.Field{model.FieldDetectionState},
		},
		mapping: map[string]string{"OPEN": NotDetected, "CLOSED": Detected},
	}}
}

type MotionSensor struct {
	detection
}

func newMotionSensor() *MotionSensor {
	return &MotionSensor{detection{
		base: base{
			kind:      model.KindMotion,
			namespace: "Alexa.MotionSensor",
			fields:    []model.Field{model.FieldDetectionState},
		},
		mapping: map[string]string{"ON": Detected, "OFF": NotDetected},
	}}
}
