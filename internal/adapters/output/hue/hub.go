package hue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/amimof/huego"

	"alexa-smarthome-bridge/internal/domain/model"
)

var ErrUnsupportedCommand = errors.New("command has no hue equivalent")

// lights is the part of the huego bridge the hub drives.
type lights interface {
	SetLightState(id int, state huego.State) (*huego.Response, error)
}

// Hub drives lights on a Philips Hue bridge. The item name of a device is
// the Hue light id.
type Hub struct {
	bridge lights
	log    *slog.Logger
}

func New(host, user string, log *slog.Logger) *Hub {
	return newHub(huego.New(host, user), log)
}

func newHub(bridge lights, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{bridge: bridge, log: log.With("component", "hue")}
}

func (h *Hub) Publish(ctx context.Context, cmd model.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := strconv.Atoi(strings.TrimSpace(cmd.ItemName))
	if err != nil {
		return fmt.Errorf("hue light id %q: %w", cmd.ItemName, err)
	}
	state, err := toHue(cmd)
	if err != nil {
		return err
	}
	if _, err := h.bridge.SetLightState(id, state); err != nil {
		return fmt.Errorf("hue light %d: %w", id, err)
	}
	h.log.Debug("light state set", "light", id, "namespace", cmd.Namespace, "value", cmd.Value)
	return nil
}

func toHue(cmd model.Command) (huego.State, error) {
	v := model.Raw(cmd.Value)
	switch cmd.Namespace {
	case "Alexa.PowerController", "Alexa.ToggleController", "Alexa.SceneController":
		s, _ := v.Text()
		return huego.State{On: strings.EqualFold(s, "ON")}, nil
	case "Alexa.BrightnessController":
		pct, ok := v.Float()
		if !ok {
			break
		}
		return huego.State{On: pct > 0, Bri: percentToByte(pct)}, nil
	case "Alexa.ColorTemperatureController":
		kelvin, ok := v.Float()
		if !ok || kelvin <= 0 {
			break
		}
		return huego.State{On: true, Ct: uint16(math.Round(1e6 / kelvin))}, nil
	case "Alexa.ColorController":
		s, _ := v.Text()
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			break
		}
		var hsb [3]float64
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return huego.State{}, fmt.Errorf("%w: color %q", ErrUnsupportedCommand, s)
			}
			hsb[i] = f
		}
		return huego.State{
			On:  true,
			Hue: uint16(math.Round(math.Mod(hsb[0], 360) / 360 * 65535)),
			Sat: percentToByte(hsb[1]),
			Bri: percentToByte(hsb[2]),
		}, nil
	}
	return huego.State{}, fmt.Errorf("%w: %s %v", ErrUnsupportedCommand, cmd.Namespace, cmd.Value)
}

func percentToByte(pct float64) uint8 {
	pct = math.Max(0, math.Min(100, pct))
	return uint8(math.Round(pct * 254 / 100))
}
