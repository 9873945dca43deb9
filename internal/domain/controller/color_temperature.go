package controller

import (
	"encoding/json"
	"math"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
)

const (
	defaultKelvin = 2700
	minKelvin     = 1000
	maxKelvin     = 10000
	kelvinStep    = 500
)

type ColorTemperature struct {
	base
}

func newColorTemperature() *ColorTemperature {
	return &ColorTemperature{base{
		kind:      model.KindColorTemperature,
		namespace: "Alexa.ColorTemperatureController",
		fields:    []model.Field{model.FieldColorTemperature},
	}}
}

func (c *ColorTemperature) Descriptor(proactive, retrievable bool) alexa.Capability {
	return alexa.Interface(c.namespace, supported(proactive, retrievable, "colorTemperatureInKelvin"))
}

func (c *ColorTemperature) Properties(state model.State) []alexa.Property {
	v := intIn(state.ColorTemperature, minKelvin, maxKelvin, defaultKelvin)
	return []alexa.Property{c.property("colorTemperatureInKelvin", v)}
}

func (c *ColorTemperature) HandleDirective(name string, payload json.RawMessage, current model.State) (Result, bool) {
	var v int
	switch name {
	case "SetColorTemperature":
		var p struct {
			Kelvin *float64 `json:"colorTemperatureInKelvin"`
		}
		if !decode(payload, &p) || p.Kelvin == nil {
			return Result{}, false
		}
		v = clamp(int(math.Round(*p.Kelvin)), minKelvin, maxKelvin)
	case "IncreaseColorTemperature", "DecreaseColorTemperature":
		cur := intIn(current.ColorTemperature, minKelvin, maxKelvin, defaultKelvin)
		step := kelvinStep
		if name == "DecreaseColorTemperature" {
			step = -step
		}
		v = clamp(cur+step, minKelvin, maxKelvin)
	default:
		return Result{}, false
	}
	return Result{Delta: model.State{ColorTemperature: model.Int(v)}, Command: v}, true
}

// HandleUpdate accepts Kelvin, or mireds for values between 100 and 999.
func (c *ColorTemperature) HandleUpdate(raw any) (model.State, bool) {
	v, ok := hubInt(raw)
	if !ok {
		return model.State{}, false
	}
	switch {
	case v >= minKelvin && v <= maxKelvin:
	case v >= 100 && v < minKelvin:
		v = 1000000 / v
	default:
		return model.State{}, false
	}
	return model.State{ColorTemperature: model.Int(v)}, true
}
