package controller

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
)

type Color struct {
	base
}

func newColor() *Color {
	return &Color{base{
		kind:      model.KindColor,
		namespace: "Alexa.ColorController",
		fields:    []model.Field{model.FieldColor},
	}}
}

func (c *Color) Descriptor(proactive, retrievable bool) alexa.Capability {
	return alexa.Interface(c.namespace, supported(proactive, retrievable, "color"))
}

// Properties reports black unless all three components are present.
func (c *Color) Properties(state model.State) []alexa.Property {
	col, ok := state.Color.Color()
	if !ok {
		col = model.Color{}
	}
	return []alexa.Property{c.property("color", col)}
}

func (c *Color) HandleDirective(name string, payload json.RawMessage, _ model.State) (Result, bool) {
	if name != "SetColor" {
		return Result{}, false
	}
	var p struct {
		Color map[string]any `json:"color"`
	}
	if !decode(payload, &p) {
		return Result{}, false
	}
	col, ok := model.Raw(p.Color).Color()
	if !ok {
		return Result{}, false
	}
	cmd := fmt.Sprintf("%.1f,%.1f,%.1f", col.Hue, col.Saturation*100, col.Brightness*100)
	return Result{Delta: model.State{Color: model.ColorValue(col)}, Command: cmd}, true
}

// HandleUpdate parses the hub's "H,S,B" triple, S and B in percent.
func (c *Color) HandleUpdate(raw any) (model.State, bool) {
	s, ok := raw.(string)
	if !ok {
		return model.State{}, false
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return model.State{}, false
	}
	var hsb [3]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return model.State{}, false
		}
		hsb[i] = f
	}
	col := model.Color{Hue: hsb[0], Saturation: hsb[1] / 100, Brightness: hsb[2] / 100}
	return model.State{Color: model.ColorValue(col)}, true
}
