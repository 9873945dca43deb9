package alexa

import (
	"encoding/json"

	"alexa-smarthome-bridge/internal/domain/model"
)

const (
	PayloadVersion = "3"

	NamespaceAlexa          = "Alexa"
	NamespaceDiscovery      = "Alexa.Discovery"
	NamespaceAuthorization  = "Alexa.Authorization"
	NamespaceEndpointHealth = "Alexa.EndpointHealth"
	NamespaceScene          = "Alexa.SceneController"

	CausePhysicalInteraction = "PHYSICAL_INTERACTION"
	CausePeriodicPoll        = "PERIODIC_POLL"
	CauseVoiceInteraction    = "VOICE_INTERACTION"
)

// Error types understood by the Alexa ErrorResponse event.
const (
	ErrorNoSuchEndpoint      = "NO_SUCH_ENDPOINT"
	ErrorInvalidDirective    = "INVALID_DIRECTIVE"
	ErrorInternal            = "INTERNAL_ERROR"
	ErrorEndpointUnreachable = "ENDPOINT_UNREACHABLE"
	ErrorAcceptGrantFailed   = "ACCEPT_GRANT_FAILED"
)

type Header struct {
	Namespace        string `json:"namespace"`
	Name             string `json:"name"`
	Instance         string `json:"instance,omitempty"`
	PayloadVersion   string `json:"payloadVersion"`
	MessageID        string `json:"messageId"`
	CorrelationToken string `json:"correlationToken,omitempty"`
}

type Scope struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type Endpoint struct {
	Scope      *Scope            `json:"scope,omitempty"`
	EndpointID string            `json:"endpointId"`
	Cookie     map[string]string `json:"cookie,omitempty"`
}

// Request is the envelope Alexa posts to the skill endpoint.
type Request struct {
	Directive struct {
		Header   Header          `json:"header"`
		Endpoint *Endpoint       `json:"endpoint,omitempty"`
		Payload  json.RawMessage `json:"payload"`
	} `json:"directive"`
}

// ToDirective flattens the envelope into the domain shape.
func (r Request) ToDirective() model.Directive {
	d := model.Directive{
		Namespace:        r.Directive.Header.Namespace,
		Name:             r.Directive.Header.Name,
		Instance:         r.Directive.Header.Instance,
		PayloadVersion:   r.Directive.Header.PayloadVersion,
		MessageID:        r.Directive.Header.MessageID,
		CorrelationToken: r.Directive.Header.CorrelationToken,
		Payload:          r.Directive.Payload,
	}
	if ep := r.Directive.Endpoint; ep != nil {
		d.EndpointID = ep.EndpointID
		if ep.Scope != nil {
			d.Token = ep.Scope.Token
		}
	}
	return d
}

// Property is one reported state value.
type Property struct {
	Namespace                 string `json:"namespace"`
	Instance                  string `json:"instance,omitempty"`
	Name                      string `json:"name"`
	Value                     any    `json:"value"`
	TimeOfSample              string `json:"timeOfSample"`
	UncertaintyInMilliseconds int    `json:"uncertaintyInMilliseconds"`
}

type Supported struct {
	Name string `json:"name"`
}

type CapabilityProperties struct {
	Supported           []Supported `json:"supported"`
	ProactivelyReported bool        `json:"proactivelyReported"`
	Retrievable         bool        `json:"retrievable"`
}

type FriendlyNameValue struct {
	AssetID string `json:"assetId,omitempty"`
	Text    string `json:"text,omitempty"`
	Locale  string `json:"locale,omitempty"`
}

type FriendlyName struct {
	Type  string            `json:"@type"`
	Value FriendlyNameValue `json:"value"`
}

func Asset(id string) FriendlyName {
	return FriendlyName{Type: "asset", Value: FriendlyNameValue{AssetID: id}}
}

func TextName(text, locale string) FriendlyName {
	return FriendlyName{Type: "text", Value: FriendlyNameValue{Text: text, Locale: locale}}
}

type Resources struct {
	FriendlyNames []FriendlyName `json:"friendlyNames"`
}

type Mode struct {
	Value         string    `json:"value"`
	ModeResources Resources `json:"modeResources"`
}

type ModeConfiguration struct {
	Ordered        bool   `json:"ordered"`
	SupportedModes []Mode `json:"supportedModes"`
}

type ThermostatConfiguration struct {
	SupportedModes []string `json:"supportedModes"`
}

type DirectiveMapping struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload"`
}

type ActionMapping struct {
	Type      string           `json:"@type"`
	Actions   []string         `json:"actions"`
	Directive DirectiveMapping `json:"directive"`
}

type StateMapping struct {
	Type   string   `json:"@type"`
	States []string `json:"states"`
	Value  string   `json:"value"`
}

type Semantics struct {
	ActionMappings []ActionMapping `json:"actionMappings,omitempty"`
	StateMappings  []StateMapping  `json:"stateMappings,omitempty"`
}

// Capability is one entry of an endpoint's discovery capability list.
type Capability struct {
	Type                 string                `json:"type"`
	Interface            string                `json:"interface"`
	Instance             string                `json:"instance,omitempty"`
	Version              string                `json:"version"`
	Properties           *CapabilityProperties `json:"properties,omitempty"`
	SupportsDeactivation *bool                 `json:"supportsDeactivation,omitempty"`
	ProactivelyReported  *bool                 `json:"proactivelyReported,omitempty"`
	CapabilityResources  *Resources            `json:"capabilityResources,omitempty"`
	Configuration        any                   `json:"configuration,omitempty"`
	Semantics            *Semantics            `json:"semantics,omitempty"`
}

// Interface builds a plain versioned interface entry.
func Interface(name string, props *CapabilityProperties) Capability {
	return Capability{Type: "AlexaInterface", Interface: name, Version: PayloadVersion, Properties: props}
}

type AdditionalAttributes struct {
	Manufacturer     string `json:"manufacturer"`
	Model            string `json:"model"`
	SerialNumber     string `json:"serialNumber"`
	FirmwareVersion  string `json:"firmwareVersion"`
	SoftwareVersion  string `json:"softwareVersion"`
	CustomIdentifier string `json:"customIdentifier"`
}

// DiscoveryEndpoint describes one device in a Discover.Response.
type DiscoveryEndpoint struct {
	EndpointID           string               `json:"endpointId"`
	ManufacturerName     string               `json:"manufacturerName"`
	FriendlyName         string               `json:"friendlyName"`
	Description          string               `json:"description"`
	DisplayCategories    []string             `json:"displayCategories"`
	AdditionalAttributes AdditionalAttributes `json:"additionalAttributes"`
	Capabilities         []Capability         `json:"capabilities"`
	Cookie               map[string]string    `json:"cookie"`
}

type Context struct {
	Properties []Property `json:"properties"`
}

type Event struct {
	Header   Header    `json:"header"`
	Endpoint *Endpoint `json:"endpoint,omitempty"`
	Payload  any       `json:"payload"`
}

// Message is every outbound envelope: directive responses and proactive
// events alike.
type Message struct {
	Event   Event    `json:"event"`
	Context *Context `json:"context,omitempty"`
}

type Cause struct {
	Type string `json:"type"`
}

type Change struct {
	Cause      Cause      `json:"cause"`
	Properties []Property `json:"properties"`
}

type ChangePayload struct {
	Change Change `json:"change"`
}

type DiscoveryPayload struct {
	Endpoints []DiscoveryEndpoint `json:"endpoints"`
}

type ErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ActivationPayload struct {
	Cause     Cause  `json:"cause"`
	Timestamp string `json:"timestamp"`
}
