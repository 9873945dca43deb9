package controller

import (
	"encoding/json"
	"strings"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
)

// Controller translates one capability between the hub, the persisted state
// and Alexa. Implementations are stateless and never fail on malformed
// input: they fall back to defaults or report that they did not apply.
type Controller interface {
	Kind() model.Kind
	Namespace() string
	// Instance is empty for interfaces that are not multi-instance.
	Instance() string
	// Fields lists the state slots this controller owns.
	Fields() []model.Field
	Descriptor(proactive, retrievable bool) alexa.Capability
	Properties(state model.State) []alexa.Property
	// HandleDirective returns false when the action or its payload is not
	// understood. Nothing must be persisted or published in that case.
	HandleDirective(name string, payload json.RawMessage, current model.State) (Result, bool)
	// HandleUpdate returns false when raw does not concern this controller.
	HandleUpdate(raw any) (model.State, bool)
}

// Result is the outcome of a directive: the state delta to persist and the
// command to forward to the hub. Command is nil when nothing is published.
type Result struct {
	Delta   model.State
	Command any
}

func supported(proactive, retrievable bool, names ...string) *alexa.CapabilityProperties {
	props := &alexa.CapabilityProperties{
		Supported:           make([]alexa.Supported, 0, len(names)),
		ProactivelyReported: proactive,
		Retrievable:         retrievable,
	}
	for _, n := range names {
		props.Supported = append(props.Supported, alexa.Supported{Name: n})
	}
	return props
}

func decode(payload json.RawMessage, v any) bool {
	if len(payload) == 0 {
		return false
	}
	return json.Unmarshal(payload, v) == nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// hubText normalises a hub value to upper-case text.
func hubText(raw any) (string, bool) {
	s, ok := model.Raw(raw).Text()
	if !ok {
		return "", false
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, s != ""
}

func hubFloat(raw any) (float64, bool) {
	return model.Raw(raw).Float()
}

func hubInt(raw any) (int, bool) {
	return model.Raw(raw).Int()
}

// intIn reads v as an int in [lo,hi], falling back to def when it is
// missing, malformed or out of range.
func intIn(v *model.Value, lo, hi, def int) int {
	n, ok := v.Int()
	if !ok || n < lo || n > hi {
		return def
	}
	return n
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// base carries the identity shared by every controller.
type base struct {
	kind      model.Kind
	namespace string
	instance  string
	fields    []model.Field
}

func (b base) Kind() model.Kind { return b.kind }
func (b base) Namespace() string { return b.namespace }
func (b base) Instance() string { return b.instance }
func (b base) Fields() []model.Field { return b.fields }

func (b base) property(name string, value any) alexa.Property {
	return alexa.Property{Namespace: b.namespace, Instance: b.instance, Name: name, Value: value}
}

// noDirectives is embedded by read-only sensors.
type noDirectives struct{}

func (noDirectives) HandleDirective(string, json.RawMessage, model.State) (Result, bool) {
	return Result{}, false
}
