package controller

import (
	"errors"
	"fmt"
	"time"

	"alexa-smarthome-bridge/internal/domain/model"
)

var ErrUnknownCapability = errors.New("unknown capability")

// Factory resolves capability kinds to controllers.
type Factory struct {
	now func() time.Time
}

func NewFactory(now func() time.Time) *Factory {
	if now == nil {
		now = time.Now
	}
	return &Factory{now: now}
}

// Controller returns the controller for kind. cfg may be nil.
func (f *Factory) Controller(kind model.Kind, cfg *model.ValueConfig) (Controller, error) {
	switch kind {
	case model.KindPower:
		return newPower(), nil
	case model.KindBrightness:
		return newBrightness(), nil
	case model.KindColor:
		return newColor(), nil
	case model.KindColorTemperature:
		return newColorTemperature(), nil
	case model.KindThermostat:
		return newThermostat(), nil
	case model.KindRollershutter:
		return newRollershutter(), nil
	case model.KindSpeaker:
		return newSpeaker(), nil
	case model.KindStepSpeaker:
		return newStepSpeaker(), nil
	case model.KindToggle:
		return newToggle(), nil
	case model.KindTemperature:
		return newTemperatureSensor(), nil
	case model.KindHumidity:
		return newHumiditySensor(), nil
	case model.KindContact:
		return newContactSensor(), nil
	case model.KindMotion:
		return newMotionSensor(), nil
	case model.KindScene:
		return newScene(f.now, cfg != nil && cfg.SupportsDeactivation), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCapability, kind)
}
