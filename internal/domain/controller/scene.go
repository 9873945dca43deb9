package controller

import (
	"encoding/json"
	"time"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
)

const (
	SceneActivated   = "ACTIVATED"
	SceneDeactivated = "DEACTIVATED"
)

// Scene triggers a hub scene. It is not retrievable and reports nothing;
// activation is acknowledged with an ActivationStarted event instead.
type Scene struct {
	base
	now                  func() time.Time
	supportsDeactivation bool
}

func newScene(now func() time.Time, supportsDeactivation bool) *Scene {
	return &Scene{
		base: base{
			kind:      model.KindScene,
			namespace: alexa.NamespaceScene,
			fields:    []model.Field{model.FieldSceneStatus, model.FieldLastActivated},
		},
		now:                  now,
		supportsDeactivation: supportsDeactivation,
	}
}

func (c *Scene) Descriptor(proactive, _ bool) alexa.Capability {
	capability := alexa.Interface(c.namespace, nil)
	capability.SupportsDeactivation = &c.supportsDeactivation
	capability.ProactivelyReported = &proactive
	return capability
}

func (c *Scene) Properties(model.State) []alexa.Property {
	return nil
}

func (c *Scene) HandleDirective(name string, _ json.RawMessage, _ model.State) (Result, bool) {
	switch name {
	case "Activate":
		return Result{Delta: c.activated(), Command: "ON"}, true
	case "Deactivate":
		if !c.supportsDeactivation {
			return Result{}, false
		}
		return Result{Delta: model.State{SceneStatus: model.Text(SceneDeactivated)}, Command: "OFF"}, true
	}
	return Result{}, false
}

func (c *Scene) HandleUpdate(raw any) (model.State, bool) {
	s, ok := hubText(raw)
	if !ok {
		return model.State{}, false
	}
	switch s {
	case "ON":
		return c.activated(), true
	case "OFF":
		return model.State{SceneStatus: model.Text(SceneDeactivated)}, true
	}
	return model.State{}, false
}

func (c *Scene) activated() model.State {
	return model.State{
		SceneStatus:   model.Text(SceneActivated),
		LastActivated: model.Text(c.now().UTC().Format(alexa.TimeFormat)),
	}
}
