package http

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"alexa-smarthome-bridge/internal/domain/model"
)

// Property schemas shared by create and patch bodies. KINDS is replaced
// with the capability kind enum.
const patchableProperties = `
  "item_name":            {"type": "string", "minLength": 1},
  "friendly_name":        {"type": "string"},
  "description":          {"type": "string"},
  "device_category":      {"oneOf": [{"type": "string"}, {"type": "array", "items": {"type": "string"}}]},
  "capabilities":         {"type": "array", "items": {"enum": KINDS}},
  "proactivelyReported":  {"type": "boolean"},
  "retrievable":          {"type": "boolean"},
  "enabled":              {"type": "boolean"},
  "OpenHABHandleGeneric": {"type": "boolean"},
  "config": {
    "type": "object",
    "properties": {
      "hub_formula":           {"type": "string"},
      "command_formula":       {"type": "string"},
      "supports_deactivation": {"type": "boolean"}
    }
  },
  "state": {"type": ["object", "string", "number"]}`

const createOnlyProperties = `
  "device_id":         {"type": "string", "minLength": 1},
  "manufacturer_name": {"type": "string"},
  "model_name":        {"type": "string"},
  "serial_number":     {"type": "string"},
  "firmware_version":  {"type": "string"},
  "software_version":  {"type": "string"},`

var (
	createSchema = jsonschema.MustCompileString("create-device.json", withKinds(`{
  "type": "object",
  "required": ["item_name", "capabilities"],
  "properties": {`+createOnlyProperties+patchableProperties+`}
}`))

	patchSchema = jsonschema.MustCompileString("patch-device.json", withKinds(`{
  "type": "object",
  "minProperties": 1,
  "additionalProperties": false,
  "properties": {`+patchableProperties+`}
}`))
)

func withKinds(schema string) string {
	b, _ := json.Marshal(model.Kinds)
	return strings.ReplaceAll(schema, "KINDS", string(b))
}

// decodeValid checks body against schema and returns it as a generic map
// for callers that need to know which keys were present.
func decodeValid(schema *jsonschema.Schema, body []byte) (map[string]any, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, err
	}
	m, _ := doc.(map[string]any)
	return m, nil
}
