package controller

import (
	"encoding/json"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
)

// StepSpeaker only issues relative volume steps and keeps no state.
type StepSpeaker struct {
	base
}

func newStepSpeaker() *StepSpeaker {
	return &StepSpeaker{base{
		kind:      model.KindStepSpeaker,
		namespace: "Alexa.StepSpeakerController",
	}}
}

func (c *StepSpeaker) Descriptor(bool, bool) alexa.Capability {
	return alexa.Interface(c.namespace, supported(false, false))
}

func (c *StepSpeaker) Properties(model.State) []alexa.Property {
	return nil
}

func (c *StepSpeaker) HandleDirective(name string, payload json.RawMessage, _ model.State) (Result, bool) {
	if name != "AdjustVolume" {
		return Result{}, false
	}
	var p struct {
		VolumeSteps *int `json:"volumeSteps"`
	}
	if !decode(payload, &p) || p.VolumeSteps == nil || *p.VolumeSteps == 0 {
		return Result{}, false
	}
	cmd := "DOWN"
	if *p.VolumeSteps > 0 {
		cmd = "UP"
	}
	return Result{Command: cmd}, true
}

func (c *StepSpeaker) HandleUpdate(any) (model.State, bool) {
	return model.State{}, false
}
