package controller

import (
	"encoding/json"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
)

const (
	PositionUp      = "Position.Up"
	PositionDown    = "Position.Down"
	PositionStopped = "Position.Stopped"
)

// positionCommands maps a blind mode to the hub rollershutter command.
var positionCommands = map[string]string{
	PositionUp:      "UP",
	PositionDown:    "DOWN",
	PositionStopped: "STOP",
}

// Rollershutter exposes a blind as a mode controller with three positions.
type Rollershutter struct {
	base
}

func newRollershutter() *Rollershutter {
	return &Rollershutter{base{
		kind:      model.KindRollershutter,
		namespace: "Alexa.ModeController",
		instance:  "Blind.Position",
		fields:    []model.Field{model.FieldMode},
	}}
}

func (c *Rollershutter) Descriptor(proactive, retrievable bool) alexa.Capability {
	capability := alexa.Interface(c.namespace, supported(proactive, retrievable, "mode"))
	capability.Instance = c.instance
	capability.CapabilityResources = &alexa.Resources{
		FriendlyNames: []alexa.FriendlyName{alexa.Asset("Alexa.Setting.Opening")},
	}
	capability.Configuration = alexa.ModeConfiguration{
		Ordered: false,
		SupportedModes: []alexa.Mode{
			{Value: PositionUp, ModeResources: alexa.Resources{FriendlyNames: []alexa.FriendlyName{alexa.Asset("Alexa.Value.Open")}}},
			{Value: PositionDown, ModeResources: alexa.Resources{FriendlyNames: []alexa.FriendlyName{alexa.Asset("Alexa.Value.Close")}}},
			{Value: PositionStopped, ModeResources: alexa.Resources{FriendlyNames: []alexa.FriendlyName{alexa.TextName("Stopp", "de-DE")}}},
		},
	}
	capability.Semantics = &alexa.Semantics{
		ActionMappings: []alexa.ActionMapping{
			{
				Type:      "ActionsToDirective",
				Actions:   []string{"Alexa.Actions.Close", "Alexa.Actions.Lower"},
				Directive: alexa.DirectiveMapping{Name: "SetMode", Payload: map[string]any{"mode": PositionDown}},
			},
			{
				Type:      "ActionsToDirective",
				Actions:   []string{"Alexa.Actions.Open", "Alexa.Actions.Raise"},
				Directive: alexa.DirectiveMapping{Name: "SetMode", Payload: map[string]any{"mode": PositionUp}},
			},
		},
		StateMappings: []alexa.StateMapping{
			{Type: "StatesToValue", States: []string{"Alexa.States.Closed"}, Value: PositionDown},
			{Type: "StatesToValue", States: []string{"Alexa.States.Open"}, Value: PositionUp},
		},
	}
	return capability
}

func (c *Rollershutter) Properties(state model.State) []alexa.Property {
	mode, ok := state.Mode.Text()
	if _, known := positionCommands[mode]; !ok || !known {
		mode = PositionStopped
	}
	return []alexa.Property{c.property("mode", mode)}
}

func (c *Rollershutter) HandleDirective(name string, payload json.RawMessage, _ model.State) (Result, bool) {
	if name != "SetMode" {
		return Result{}, false
	}
	var p struct {
		Mode string `json:"mode"`
	}
	if !decode(payload, &p) {
		return Result{}, false
	}
	cmd, ok := positionCommands[p.Mode]
	if !ok {
		return Result{}, false
	}
	return Result{Delta: model.State{Mode: model.Text(p.Mode)}, Command: cmd}, true
}

// HandleUpdate maps every hub value to a position. Anything other than
// OPEN or CLOSED means the blind is moving or undefined.
func (c *Rollershutter) HandleUpdate(raw any) (model.State, bool) {
	if raw == nil {
		return model.State{}, false
	}
	s, _ := hubText(raw)
	mode := PositionStopped
	switch s {
	case "OPEN":
		mode = PositionUp
	case "CLOSED":
		mode = PositionDown
	}
	return model.State{Mode: model.Text(mode)}, true
}
