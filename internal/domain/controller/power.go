package controller

import (
	"encoding/json"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
)

type Power struct {
	base
}

func newPower() *Power {
	return &Power{base{
		kind:      model.KindPower,
		namespace: "Alexa.PowerController",
		fields:    []model.Field{model.FieldPower},
	}}
}

func (c *Power) Descriptor(proactive, retrievable bool) alexa.Capability {
	return alexa.Interface(c.namespace, supported(proactive, retrievable, "powerState"))
}

func (c *Power) Properties(state model.State) []alexa.Property {
	value := "OFF"
	if s, ok := hubText(state.Power.Interface()); ok && (s == "ON" || s == "OFF") {
		value = s
	}
	return []alexa.Property{c.property("powerState", value)}
}

func (c *Power) HandleDirective(name string, _ json.RawMessage, _ model.State) (Result, bool) {
	switch name {
	case "TurnOn", "TurnOff":
		v := onOff(name == "TurnOn")
		return Result{Delta: model.State{Power: model.Text(v)}, Command: v}, true
	}
	return Result{}, false
}

func (c *Power) HandleUpdate(raw any) (model.State, bool) {
	s, ok := hubText(raw)
	if !ok || (s != "ON" && s != "OFF") {
		return model.State{}, false
	}
	return model.State{Power: model.Text(s)}, true
}
