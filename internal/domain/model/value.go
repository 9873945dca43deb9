package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a loosely typed persisted value. Records written by older
// clients may hold numbers as strings or booleans as text, so every
// accessor is tolerant and reports whether the conversion succeeded.
type Value struct {
	raw any
}

// maxIntFloat is 2^63, the first float64 above math.MaxInt64.
const maxIntFloat = float64(1 << 63)

func Float(f float64) *Value { return &Value{raw: f} }

func Int(i int) *Value { return &Value{raw: float64(i)} }

func Text(s string) *Value { return &Value{raw: s} }

func Bool(b bool) *Value { return &Value{raw: b} }

func ColorValue(c Color) *Value {
	return &Value{raw: map[string]any{
		"hue":        c.Hue,
		"saturation": c.Saturation,
		"brightness": c.Brightness,
	}}
}

// Raw wraps an arbitrary decoded JSON value.
func Raw(v any) *Value { return &Value{raw: v} }

func (v *Value) Interface() any {
	if v == nil {
		return nil
	}
	return v.raw
}

func (v *Value) Float() (float64, bool) {
	if v == nil {
		return 0, false
	}
	return toFloat(v.raw)
}

// Int truncates towards zero, the same way the hub parses integral items.
// Values outside the int range do not convert.
func (v *Value) Int() (int, bool) {
	f, ok := v.Float()
	if !ok || f >= maxIntFloat || f < -maxIntFloat {
		return 0, false
	}
	return int(f), true
}

func (v *Value) Text() (string, bool) {
	if v == nil {
		return "", false
	}
	switch t := v.raw.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func (v *Value) Bool() (bool, bool) {
	if v == nil {
		return false, false
	}
	switch t := v.raw.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, false
		}
		return b, true
	case float64:
		return t != 0, true
	}
	return false, false
}

// Color requires all three components to be present and numeric.
func (v *Value) Color() (Color, bool) {
	if v == nil {
		return Color{}, false
	}
	switch t := v.raw.(type) {
	case Color:
		return t, true
	case map[string]any:
		h, okH := toFloat(t["hue"])
		s, okS := toFloat(t["saturation"])
		b, okB := toFloat(t["brightness"])
		if !okH || !okS || !okB {
			return Color{}, false
		}
		return Color{Hue: h, Saturation: s, Brightness: b}, true
	}
	return Color{}, false
}

func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v == o
	}
	a, err1 := json.Marshal(v.raw)
	b, err2 := json.Marshal(o.raw)
	return err1 == nil && err2 == nil && string(a) == string(b)
}

func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprint(v.raw)
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.raw)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.raw = raw
	return nil
}

func toFloat(raw any) (float64, bool) {
	switch t := raw.(type) {
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return finite(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return finite(f)
	}
	return 0, false
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Color is an HSB colour as Alexa expresses it: hue in degrees,
// saturation and brightness in [0,1].
type Color struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Brightness float64 `json:"brightness"`
}
