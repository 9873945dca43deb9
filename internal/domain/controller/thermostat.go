package controller

import (
	"encoding/json"
	"math"
	"slices"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
)

const (
	defaultSetpoint = 21.0
	defaultMode     = "HEAT"
	minSetpoint     = 4.0
	maxSetpoint     = 35.0
)

var thermostatModes = []string{"HEAT", "COOL", "AUTO", "OFF"}

type Thermostat struct {
	base
}

func newThermostat() *Thermostat {
	return &Thermostat{base{
		kind:      model.KindThermostat,
		namespace: "Alexa.ThermostatController",
		fields:    []model.Field{model.FieldTargetSetpoint, model.FieldThermostatMode},
	}}
}

type temperature struct {
	Value float64 `json:"value"`
	Scale string  `json:"scale"`
}

func celsius(v float64) temperature {
	return temperature{Value: v, Scale: "CELSIUS"}
}

func (c *Thermostat) Descriptor(proactive, retrievable bool) alexa.Capability {
	capability := alexa.Interface(c.namespace, supported(proactive, retrievable, "targetSetpoint", "thermostatMode"))
	capability.Configuration = alexa.ThermostatConfiguration{SupportedModes: thermostatModes}
	return capability
}

func (c *Thermostat) Properties(state model.State) []alexa.Property {
	setpoint, ok := state.TargetSetpoint.Float()
	if !ok {
		setpoint = defaultSetpoint
	}
	mode, ok := hubText(state.ThermostatMode.Interface())
	if !ok || !slices.Contains(thermostatModes, mode) {
		mode = defaultMode
	}
	return []alexa.Property{
		c.property("targetSetpoint", celsius(setpoint)),
		c.property("thermostatMode", mode),
	}
}

// valued is the {"value": ...} wrapper Alexa uses for thermostat payloads.
type valued struct {
	Value *model.Value `json:"value"`
}

func (v *valued) float() (float64, bool) {
	if v == nil {
		return 0, false
	}
	return v.Value.Float()
}

func (c *Thermostat) HandleDirective(name string, payload json.RawMessage, current model.State) (Result, bool) {
	var p struct {
		TargetSetpoint      *valued `json:"targetSetpoint"`
		TargetSetpointDelta *valued `json:"targetSetpointDelta"`
		ThermostatMode      *valued `json:"thermostatMode"`
	}
	if !decode(payload, &p) {
		return Result{}, false
	}
	switch name {
	case "SetTargetSetpoint":
		f, ok := p.TargetSetpoint.float()
		if !ok {
			return Result{}, false
		}
		return Result{Delta: model.State{TargetSetpoint: model.Float(f)}, Command: f}, true
	case "AdjustTargetSetpoint":
		delta, ok := p.TargetSetpointDelta.float()
		if !ok {
			return Result{}, false
		}
		cur, ok := current.TargetSetpoint.Float()
		if !ok {
			cur = defaultSetpoint
		}
		f := math.Round((cur+delta)*10) / 10
		return Result{Delta: model.State{TargetSetpoint: model.Float(f)}, Command: f}, true
	case "SetThermostatMode":
		if p.ThermostatMode == nil {
			return Result{}, false
		}
		mode, ok := hubText(p.ThermostatMode.Value.Interface())
		if !ok || !slices.Contains(thermostatModes, mode) {
			return Result{}, false
		}
		return Result{Delta: model.State{ThermostatMode: model.Text(mode)}, Command: mode}, true
	}
	return Result{}, false
}

func (c *Thermostat) HandleUpdate(raw any) (model.State, bool) {
	if s, ok := hubText(raw); ok && slices.Contains(thermostatModes, s) {
		return model.State{ThermostatMode: model.Text(s)}, true
	}
	f, ok := hubFloat(raw)
	if !ok || f < minSetpoint || f > maxSetpoint {
		return model.State{}, false
	}
	return model.State{TargetSetpoint: model.Float(f)}, true
}
