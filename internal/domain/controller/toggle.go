package controller

import (
	"encoding/json"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
)

type Toggle struct {
	base
}

func newToggle() *Toggle {
	return &Toggle{base{
		kind:      model.KindToggle,
		namespace: "Alexa.ToggleController",
		instance:  "Light.Backlight",
		fields:    []model.Field{model.FieldToggleState},
	}}
}

func (c *Toggle) Descriptor(proactive, retrievable bool) alexa.Capability {
	capability := alexa.Interface(c.namespace, supported(proactive, retrievable, "toggleState"))
	capability.Instance = c.instance
	capability.CapabilityResources = &alexa.Resources{
		FriendlyNames: []alexa.FriendlyName{alexa.TextName("Hintergrundlicht", "de-DE")},
	}
	return capability
}

func (c *Toggle) Properties(state model.State) []alexa.Property {
	value := "OFF"
	if s, ok := hubText(state.ToggleState.Interface()); ok && (s == "ON" || s == "OFF") {
		value = s
	}
	return []alexa.Property{c.property("toggleState", value)}
}

func (c *Toggle) HandleDirective(name string, _ json.RawMessage, _ model.State) (Result, bool) {
	switch name {
	case "TurnOn", "TurnOff":
		v := onOff(name == "TurnOn")
		return Result{Delta: model.State{ToggleState: model.Text(v)}, Command: v}, true
	}
	return Result{}, false
}

func (c *Toggle) HandleUpdate(raw any) (model.State, bool) {
	s, ok := hubText(raw)
	if !ok || (s != "ON" && s != "OFF") {
		return model.State{}, false
	}
	return model.State{ToggleState: model.Text(s)}, true
}
