package model

// Kind identifies a capability controller attached to a device.
type Kind string

const (
	KindPower            Kind = "PowerController"
	KindBrightness       Kind = "BrightnessController"
	KindColor            Kind = "ColorController"
	KindColorTemperature Kind = "ColorTemperatureController"
	KindThermostat       Kind = "ThermostatController"
	KindRollershutter    Kind = "RollershutterController"
	KindSpeaker          Kind = "SpeakerController"
	KindStepSpeaker      Kind = "StepSpeakerController"
	KindToggle           Kind = "ToggleController"
	KindTemperature      Kind = "TemperatureSensor"
	KindHumidity         Kind = "HumiditySensor"
	KindContact          Kind = "ContactSensor"
	KindMotion           Kind = "MotionSensor"
	KindScene            Kind = "SceneController"
)

// Kinds lists every supported capability kind.
var Kinds = []Kind{
	KindPower, KindBrightness, KindColor, KindColorTemperature, KindThermostat,
	KindRollershutter, KindSpeaker, KindStepSpeaker, KindToggle, KindTemperature,
	KindHumidity, KindContact, KindMotion, KindScene,
}
