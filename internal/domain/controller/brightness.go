package controller

import (
	"encoding/json"
	"math"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
)

const adjustBrightnessBase = 50

type Brightness struct {
	base
}

func newBrightness() *Brightness {
	return &Brightness{base{
		kind:      model.KindBrightness,
		namespace: "Alexa.BrightnessController",
		fields:    []model.Field{model.FieldBrightness},
	}}
}

func (c *Brightness) Descriptor(proactive, retrievable bool) alexa.Capability {
	return alexa.Interface(c.namespace, supported(proactive, retrievable, "brightness"))
}

func (c *Brightness) Properties(state model.State) []alexa.Property {
	return []alexa.Property{c.property("brightness", intIn(state.Brightness, 0, 100, 0))}
}

func (c *Brightness) HandleDirective(name string, payload json.RawMessage, current model.State) (Result, bool) {
	var p struct {
		Brightness      *float64 `json:"brightness"`
		BrightnessDelta *float64 `json:"brightnessDelta"`
	}
	if !decode(payload, &p) {
		return Result{}, false
	}
	var v int
	switch name {
	case "SetBrightness":
		if p.Brightness == nil {
			return Result{}, false
		}
		v = clamp(int(math.Round(*p.Brightness)), 0, 100)
	case "AdjustBrightness":
		if p.BrightnessDelta == nil {
			return Result{}, false
		}
		cur := intIn(current.Brightness, 0, 100, adjustBrightnessBase)
		v = clamp(cur+int(math.Round(*p.BrightnessDelta)), 0, 100)
	default:
		return Result{}, false
	}
	return Result{Delta: model.State{Brightness: model.Int(v)}, Command: v}, true
}

func (c *Brightness) HandleUpdate(raw any) (model.State, bool) {
	if v, ok := hubInt(raw); ok {
		if v < 0 || v > 100 {
			return model.State{}, false
		}
		return model.State{Brightness: model.Int(v)}, true
	}
	if s, ok := hubText(raw); ok && s == "OFF" {
		return model.State{Brightness: model.Int(0)}, true
	}
	return model.State{}, false
}
