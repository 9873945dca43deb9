package model

// ValueConfig holds optional per-device conversion formulas evaluated with
// the hub value bound to x.
type ValueConfig struct {
	// Applied to numeric hub updates before they reach the controllers.
	HubFormula string `json:"hub_formula,omitempty" yaml:"hub_formula,omitempty"`
	// Applied to numeric commands before they are published to the hub.
	CommandFormula string `json:"command_formula,omitempty" yaml:"command_formula,omitempty"`

	// Scene controllers only accept Deactivate when this is set.
	SupportsDeactivation bool `json:"supports_deactivation,omitempty" yaml:"supports_deactivation,omitempty"`
}
