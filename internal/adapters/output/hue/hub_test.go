package hue

import (
	"context"
	"testing"

	"github.com/amimof/huego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"alexa-smarthome-bridge/internal/domain/model"
)

type MockLights struct {
	mock.Mock
}

func (m *MockLights) SetLightState(id int, state huego.State) (*huego.Response, error) {
	args := m.Called(id, state)
	return &huego.Response{}, args.Error(0)
}

func TestToHue(t *testing.T) {
	cases := []struct {
		name string
		cmd  model.Command
		want huego.State
	}{
		{"power on", model.Command{Namespace: "Alexa.PowerController", Value: "ON"}, huego.State{On: true}},
		{"power off", model.Command{Namespace: "Alexa.PowerController", Value: "OFF"}, huego.State{On: false}},
		{"brightness", model.Command{Namespace: "Alexa.BrightnessController", Value: 50}, huego.State{On: true, Bri: 127}},
		{"brightness zero", model.Command{Namespace: "Alexa.BrightnessController", Value: 0}, huego.State{}},
		{"color temperature", model.Command{Namespace: "Alexa.ColorTemperatureController", Value: 4000}, huego.State{On: true, Ct: 250}},
		{"color", model.Command{Namespace: "Alexa.ColorController", Value: "180.0,100.0,50.0"}, huego.State{On: true, Hue: 32768, Sat: 254, Bri: 127}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := toHue(c.cmd)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestToHue_Unsupported(t *testing.T) {
	for _, cmd := range []model.Command{
		{Namespace: "Alexa.ModeController", Value: "UP"},
		{Namespace: "Alexa.ColorController", Value: "red"},
		{Namespace: "Alexa.BrightnessController", Value: "bright"},
	} {
		_, err := toHue(cmd)
		assert.ErrorIs(t, err, ErrUnsupportedCommand, cmd.Namespace)
	}
}

func TestPublish(t *testing.T) {
	bridge := new(MockLights)
	bridge.On("SetLightState", 3, huego.State{On: true}).Return(nil).Once()

	h := newHub(bridge, nil)
	require.NoError(t, h.Publish(context.Background(), model.Command{ItemName: "3", Namespace: "Alexa.PowerController", Value: "ON"}))
	bridge.AssertExpectations(t)

	err := h.Publish(context.Background(), model.Command{ItemName: "Kitchen_Lamp", Namespace: "Alexa.PowerController", Value: "ON"})
	assert.Error(t, err)
}
