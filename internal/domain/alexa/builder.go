package alexa

import (
	"time"

	"github.com/google/uuid"

	"alexa-smarthome-bridge/internal/domain/model"
)

// TimeFormat is ISO-8601 UTC with millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z"

// Builder assembles outbound envelopes. It holds no business logic; callers
// pass in the properties they want reported.
type Builder struct {
	now         func() time.Time
	newID       func() string
	uncertainty int
}

type Option func(*Builder)

func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

func WithMessageIDs(fn func() string) Option {
	return func(b *Builder) { b.newID = fn }
}

// WithUncertainty sets uncertaintyInMilliseconds on every stamped property.
func WithUncertainty(ms int) Option {
	return func(b *Builder) { b.uncertainty = ms }
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Builder) Timestamp() string {
	return b.now().UTC().Format(TimeFormat)
}

// Stamp returns a copy of props carrying a fresh sample time.
func (b *Builder) Stamp(props []Property) []Property {
	ts := b.Timestamp()
	out := make([]Property, len(props))
	for i, p := range props {
		p.TimeOfSample = ts
		p.UncertaintyInMilliseconds = b.uncertainty
		out[i] = p
	}
	return out
}

func (b *Builder) header(namespace, name, correlationToken string) Header {
	return Header{
		Namespace:        namespace,
		Name:             name,
		PayloadVersion:   PayloadVersion,
		MessageID:        b.newID(),
		CorrelationToken: correlationToken,
	}
}

func endpoint(endpointID, token string) *Endpoint {
	if endpointID == "" {
		return nil
	}
	ep := &Endpoint{EndpointID: endpointID}
	if token != "" {
		ep.Scope = &Scope{Type: "BearerToken", Token: token}
	}
	return ep
}

func (b *Builder) Discovery(endpoints []DiscoveryEndpoint) Message {
	if endpoints == nil {
		endpoints = []DiscoveryEndpoint{}
	}
	return Message{Event: Event{
		Header:  b.header(NamespaceDiscovery, "Discover.Response", ""),
		Payload: DiscoveryPayload{Endpoints: endpoints},
	}}
}

// Response acknowledges a control directive.
func (b *Builder) Response(d model.Directive, props []Property) Message {
	return Message{
		Event: Event{
			Header:   b.header(NamespaceAlexa, "Response", d.CorrelationToken),
			Endpoint: endpoint(d.EndpointID, d.Token),
			Payload:  struct{}{},
		},
		Context: &Context{Properties: b.Stamp(props)},
	}
}

func (b *Builder) StateReport(d model.Directive, props []Property) Message {
	return Message{
		Event: Event{
			Header:   b.header(NamespaceAlexa, "StateReport", d.CorrelationToken),
			Endpoint: endpoint(d.EndpointID, d.Token),
			Payload:  struct{}{},
		},
		Context: &Context{Properties: b.Stamp(props)},
	}
}

// ChangeReport reports changed properties proactively. Unchanged properties
// go into the context.
func (b *Builder) ChangeReport(endpointID, token, cause string, changed, unchanged []Property) Message {
	return Message{
		Event: Event{
			Header:   b.header(NamespaceAlexa, "ChangeReport", ""),
			Endpoint: endpoint(endpointID, token),
			Payload: ChangePayload{Change: Change{
				Cause:      Cause{Type: cause},
				Properties: b.Stamp(changed),
			}},
		},
		Context: &Context{Properties: b.Stamp(unchanged)},
	}
}

func (b *Builder) Error(d model.Directive, errType, message string) Message {
	return Message{Event: Event{
		Header:   b.header(NamespaceAlexa, "ErrorResponse", d.CorrelationToken),
		Endpoint: endpoint(d.EndpointID, d.Token),
		Payload:  ErrorPayload{Type: errType, Message: message},
	}}
}

// SceneStarted answers Activate or Deactivate with the matching
// ActivationStarted or DeactivationStarted event.
func (b *Builder) SceneStarted(d model.Directive, cause string) Message {
	return b.sceneEvent(d.EndpointID, d.Token, d.CorrelationToken, d.Name != "Deactivate", cause)
}

// SceneEvent reports a scene started or stopped from the hub side.
func (b *Builder) SceneEvent(endpointID, token string, activated bool, cause string) Message {
	return b.sceneEvent(endpointID, token, "", activated, cause)
}

func (b *Builder) sceneEvent(endpointID, token, correlationToken string, activated bool, cause string) Message {
	name := "ActivationStarted"
	if !activated {
		name = "DeactivationStarted"
	}
	return Message{
		Event: Event{
			Header:   b.header(NamespaceScene, name, correlationToken),
			Endpoint: endpoint(endpointID, token),
			Payload:  ActivationPayload{Cause: Cause{Type: cause}, Timestamp: b.Timestamp()},
		},
		Context: &Context{Properties: []Property{}},
	}
}

func (b *Builder) AcceptGrant() Message {
	return Message{Event: Event{
		Header:  b.header(NamespaceAuthorization, "AcceptGrant.Response", ""),
		Payload: struct{}{},
	}}
}

func (b *Builder) AcceptGrantError(message string) Message {
	return Message{Event: Event{
		Header:  b.header(NamespaceAuthorization, "ErrorResponse", ""),
		Payload: ErrorPayload{Type: ErrorAcceptGrantFailed, Message: message},
	}}
}

// Connectivity is the EndpointHealth property appended to proactive reports.
func Connectivity() Property {
	return Property{
		Namespace: NamespaceEndpointHealth,
		Name:      "connectivity",
		Value:     map[string]string{"value": "OK"},
	}
}
