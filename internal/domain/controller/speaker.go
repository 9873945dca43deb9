package controller

import (
	"encoding/json"
	"math"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
)

const adjustVolumeBase = 10

type Speaker struct {
	base
}

func newSpeaker() *Speaker {
	return &Speaker{base{
		kind:      model.KindSpeaker,
		namespace: "Alexa.Speaker",
		fields:    []model.Field{model.FieldVolume, model.FieldMuted},
	}}
}

func (c *Speaker) Descriptor(proactive, retrievable bool) alexa.Capability {
	return alexa.Interface(c.namespace, supported(proactive, retrievable, "volume", "muted"))
}

func (c *Speaker) Properties(state model.State) []alexa.Property {
	volume := intIn(state.Volume, 0, 100, 0)
	muted, ok := state.Muted.Bool()
	if !ok {
		muted = false
	}
	return []alexa.Property{
		c.property("volume", volume),
		c.property("muted", muted),
	}
}

func (c *Speaker) HandleDirective(name string, payload json.RawMessage, current model.State) (Result, bool) {
	var p struct {
		Volume *float64 `json:"volume"`
		Mute   *bool    `json:"mute"`
	}
	if !decode(payload, &p) {
		return Result{}, false
	}
	switch name {
	case "SetVolume":
		if p.Volume == nil {
			return Result{}, false
		}
		v := clamp(int(math.Round(*p.Volume)), 0, 100)
		return Result{Delta: model.State{Volume: model.Int(v)}, Command: v}, true
	case "AdjustVolume":
		if p.Volume == nil {
			return Result{}, false
		}
		cur := intIn(current.Volume, 0, 100, adjustVolumeBase)
		v := clamp(cur+int(math.Round(*p.Volume)), 0, 100)
		return Result{Delta: model.State{Volume: model.Int(v)}, Command: v}, true
	case "SetMute":
		if p.Mute == nil {
			return Result{}, false
		}
		return Result{Delta: model.State{Muted: model.Bool(*p.Mute)}, Command: onOff(*p.Mute)}, true
	}
	return Result{}, false
}

// HandleUpdate reads ON/OFF as the mute switch and numbers as the volume.
func (c *Speaker) HandleUpdate(raw any) (model.State, bool) {
	if s, ok := hubText(raw); ok && (s == "ON" || s == "OFF") {
		return model.State{Muted: model.Bool(s == "ON")}, true
	}
	v, ok := hubInt(raw)
	if !ok {
		return model.State{}, false
	}
	if v < 0 || v > 100 {
		return model.State{}, false
	}
	return model.State{Volume: model.Int(v)}, true
}
