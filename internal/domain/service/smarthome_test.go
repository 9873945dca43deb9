package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
	"alexa-smarthome-bridge/internal/ports"
)

func request(namespace, name, endpointID, payload string) alexa.Request {
	var req alexa.Request
	req.Directive.Header = alexa.Header{
		Namespace:        namespace,
		Name:             name,
		PayloadVersion:   alexa.PayloadVersion,
		MessageID:        "in-1",
		CorrelationToken: "corr",
	}
	if endpointID != "" {
		req.Directive.Endpoint = &alexa.Endpoint{EndpointID: endpointID, Scope: &alexa.Scope{Type: "BearerToken", Token: "tok"}}
	}
	if payload == "" {
		payload = "{}"
	}
	req.Directive.Payload = json.RawMessage(payload)
	return req
}

func newSmartHome(repo *MockRepo, hub *MockHub, tokens ports.TokenProvider) *SmartHomeService {
	return NewSmartHomeService(SmartHomeConfig{
		Repository:   repo,
		Hub:          hub,
		Tokens:       tokens,
		Factory:      testFactory(),
		Builder:      testBuilder(),
		Manufacturer: "A.C.M.E. Corp",
		Logger:       quietLogger(),
	})
}

func contextProperty(t *testing.T, msg alexa.Message, name string) any {
	t.Helper()
	require.NotNil(t, msg.Context)
	for _, p := range msg.Context.Properties {
		if p.Name == name {
			return p.Value
		}
	}
	t.Fatalf("property %s not in context", name)
	return nil
}

func TestSmartHome_TurnOnPersistsThenPublishes(t *testing.T) {
	repo, hub := new(MockRepo), new(MockHub)
	repo.On("Get", mock.Anything, "lamp-1").Return(lampRecord(), nil)
	repo.On("UpdateState", mock.Anything, "lamp-1", mock.MatchedBy(func(s model.State) bool {
		p, _ := s.Power.Text()
		return p == "ON"
	}), int64(3)).Return(4, nil).Once()
	hub.On("Publish", mock.Anything, model.Command{
		EndpointID: "lamp-1", ItemName: "Kitchen_Lamp", HandleGeneric: true,
		Namespace: "Alexa.PowerController", Method: "TurnOn", Value: "ON",
	}).Return(nil).Once()

	msg, err := newSmartHome(repo, hub, nil).HandleDirective(context.Background(),
		request("Alexa.PowerController", "TurnOn", "lamp-1", ""))

	require.NoError(t, err)
	assert.Equal(t, "Response", msg.Event.Header.Name)
	assert.Equal(t, "corr", msg.Event.Header.CorrelationToken)
	assert.Equal(t, "ON", contextProperty(t, msg, "powerState"))
	assert.Equal(t, 40, contextProperty(t, msg, "brightness"))
	repo.AssertExpectations(t)
	hub.AssertExpectations(t)
}

func TestSmartHome_RetriesOnVersionConflict(t *testing.T) {
	repo, hub := new(MockRepo), new(MockHub)
	stale, fresh := lampRecord(), lampRecord()
	fresh.Version = 4
	fresh.State.Brightness = model.Int(90)
	repo.On("Get", mock.Anything, "lamp-1").Return(stale, nil).Once()
	repo.On("Get", mock.Anything, "lamp-1").Return(fresh, nil).Once()
	repo.On("UpdateState", mock.Anything, "lamp-1", mock.Anything, int64(3)).Return(0, ports.ErrVersionConflict).Once()
	repo.On("UpdateState", mock.Anything, "lamp-1", mock.Anything, int64(4)).Return(5, nil).Once()
	hub.On("Publish", mock.Anything, mock.MatchedBy(func(c model.Command) bool { return c.Value == 100 })).Return(nil).Once()

	msg, err := newSmartHome(repo, hub, nil).HandleDirective(context.Background(),
		request("Alexa.BrightnessController", "AdjustBrightness", "lamp-1", `{"brightnessDelta":30}`))

	require.NoError(t, err)
	assert.Equal(t, 100, contextProperty(t, msg, "brightness"))
	repo.AssertExpectations(t)
	hub.AssertExpectations(t)
}

func TestSmartHome_GivesUpAfterRepeatedConflicts(t *testing.T) {
	repo, hub := new(MockRepo), new(MockHub)
	repo.On("Get", mock.Anything, "lamp-1").Return(lampRecord(), nil)
	repo.On("UpdateState", mock.Anything, "lamp-1", mock.Anything, int64(3)).Return(0, ports.ErrVersionConflict)

	msg, err := newSmartHome(repo, hub, nil).HandleDirective(context.Background(),
		request("Alexa.PowerController", "TurnOff", "lamp-1", ""))

	assert.ErrorIs(t, err, ports.ErrVersionConflict)
	assert.Equal(t, "ErrorResponse", msg.Event.Header.Name)
	assert.Equal(t, alexa.ErrorPayload{Type: alexa.ErrorInternal, Message: err.Error()}, msg.Event.Payload)
	repo.AssertNumberOfCalls(t, "UpdateState", maxWriteAttempts)
	hub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestSmartHome_UnknownEndpoint(t *testing.T) {
	repo, hub := new(MockRepo), new(MockHub)
	repo.On("Get", mock.Anything, "ghost").Return(nil, ports.ErrNotFound)

	msg, err := newSmartHome(repo, hub, nil).HandleDirective(context.Background(),
		request("Alexa.PowerController", "TurnOn", "ghost", ""))

	assert.ErrorIs(t, err, ErrEndpointNotFound)
	assert.Equal(t, alexa.ErrorNoSuchEndpoint, msg.Event.Payload.(alexa.ErrorPayload).Type)
	assert.Equal(t, "ghost", msg.Event.Endpoint.EndpointID)
}

func TestSmartHome_UnsupportedDirective(t *testing.T) {
	repo, hub := new(MockRepo), new(MockHub)
	repo.On("Get", mock.Anything, "lamp-1").Return(lampRecord(), nil)

	msg, err := newSmartHome(repo, hub, nil).HandleDirective(context.Background(),
		request("Alexa.ThermostatController", "SetTargetTemperature", "lamp-1", `{"targetSetpoint":{"value":21}}`))

	require.Error(t, err)
	assert.Equal(t, alexa.ErrorInvalidDirective, msg.Event.Payload.(alexa.ErrorPayload).Type)
	repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	hub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestSmartHome_NotUnderstoodIsAcknowledged(t *testing.T) {
	repo, hub := new(MockRepo), new(MockHub)
	repo.On("Get", mock.Anything, "lamp-1").Return(lampRecord(), nil)

	msg, err := newSmartHome(repo, hub, nil).HandleDirective(context.Background(),
		request("Alexa.PowerController", "Blink", "lamp-1", ""))

	require.NoError(t, err)
	assert.Equal(t, "Response", msg.Event.Header.Name)
	assert.Equal(t, "OFF", contextProperty(t, msg, "powerState"))
	hub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestSmartHome_HubFailureIsReported(t *testing.T) {
	repo, hub := new(MockRepo), new(MockHub)
	repo.On("Get", mock.Anything, "lamp-1").Return(lampRecord(), nil)
	repo.On("UpdateState", mock.Anything, "lamp-1", mock.Anything, int64(3)).Return(4, nil)
	hub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	msg, err := newSmartHome(repo, hub, nil).HandleDirective(context.Background(),
		request("Alexa.PowerController", "TurnOn", "lamp-1", ""))

	require.Error(t, err)
	assert.Equal(t, alexa.ErrorInternal, msg.Event.Payload.(alexa.ErrorPayload).Type)
}

func TestSmartHome_Discover(t *testing.T) {
	repo, hub := new(MockRepo), new(MockHub)
	broken := model.Record{EndpointID: "bad", ItemName: "Bad", Capabilities: []model.Kind{"LockController"}, Enabled: true}
	repo.On("ScanEnabled", mock.Anything).Return([]model.Record{*lampRecord(), broken}, nil)

	msg, err := newSmartHome(repo, hub, nil).HandleDirective(context.Background(),
		request(alexa.NamespaceDiscovery, "Discover", "", `{"scope":{"type":"BearerToken","token":"tok"}}`))

	require.NoError(t, err)
	assert.Equal(t, "Discover.Response", msg.Event.Header.Name)
	payload := msg.Event.Payload.(alexa.DiscoveryPayload)
	require.Len(t, payload.Endpoints, 1)
	assert.Equal(t, "lamp-1", payload.Endpoints[0].EndpointID)
	assert.Equal(t, "A.C.M.E. Corp", payload.Endpoints[0].ManufacturerName)
}

func TestSmartHome_ReportState(t *testing.T) {
	repo, hub := new(MockRepo), new(MockHub)
	repo.On("Get", mock.Anything, "lamp-1").Return(lampRecord(), nil)

	msg, err := newSmartHome(repo, hub, nil).HandleDirective(context.Background(),
		request(alexa.NamespaceAlexa, "ReportState", "lamp-1", ""))

	require.NoError(t, err)
	assert.Equal(t, "StateReport", msg.Event.Header.Name)
	assert.Equal(t, "OFF", contextProperty(t, msg, "powerState"))
	for _, p := range msg.Context.Properties {
		assert.Equal(t, "2026-03-01T12:00:00.000Z", p.TimeOfSample)
	}
}

func TestSmartHome_SceneActivation(t *testing.T) {
	repo, hub := new(MockRepo), new(MockHub)
	scene := &model.Record{EndpointID: "scene-1", ItemName: "Movie_Scene", Capabilities: []model.Kind{model.KindScene}, Enabled: true}
	repo.On("Get", mock.Anything, "scene-1").Return(scene, nil)
	repo.On("UpdateState", mock.Anything, "scene-1", mock.MatchedBy(func(s model.State) bool {
		status, _ := s.SceneStatus.Text()
		return status == "ACTIVATED" && s.LastActivated != nil
	}), int64(0)).Return(1, nil)
	hub.On("Publish", mock.Anything, mock.MatchedBy(func(c model.Command) bool { return c.Value == "ON" })).Return(nil)

	msg, err := newSmartHome(repo, hub, nil).HandleDirective(context.Background(),
		request(alexa.NamespaceScene, "Activate", "scene-1", ""))

	require.NoError(t, err)
	assert.Equal(t, alexa.NamespaceScene, msg.Event.Header.Namespace)
	assert.Equal(t, "ActivationStarted", msg.Event.Header.Name)
	assert.Equal(t, alexa.CauseVoiceInteraction, msg.Event.Payload.(alexa.ActivationPayload).Cause.Type)
	hub.AssertExpectations(t)
}

func TestSmartHome_AcceptGrant(t *testing.T) {
	tokens := new(MockTokens)
	tokens.On("Exchange", mock.Anything, "grant-code").Return(nil).Once()
	s := newSmartHome(new(MockRepo), new(MockHub), tokens)

	msg, err := s.HandleDirective(context.Background(), request(alexa.NamespaceAuthorization, "AcceptGrant", "",
		`{"grant":{"type":"OAuth2.AuthorizationCode","code":"grant-code"},"grantee":{"type":"BearerToken","token":"t"}}`))

	require.NoError(t, err)
	assert.Equal(t, "AcceptGrant.Response", msg.Event.Header.Name)
	tokens.AssertExpectations(t)
}

func TestSmartHome_AcceptGrantFailure(t *testing.T) {
	tokens := new(MockTokens)
	tokens.On("Exchange", mock.Anything, "grant-code").Return(errors.New("invalid_grant"))
	s := newSmartHome(new(MockRepo), new(MockHub), tokens)

	msg, err := s.HandleDirective(context.Background(), request(alexa.NamespaceAuthorization, "AcceptGrant", "",
		`{"grant":{"code":"grant-code"}}`))

	require.NoError(t, err)
	assert.Equal(t, alexa.NamespaceAuthorization, msg.Event.Header.Namespace)
	assert.Equal(t, "ErrorResponse", msg.Event.Header.Name)
	assert.Equal(t, alexa.ErrorAcceptGrantFailed, msg.Event.Payload.(alexa.ErrorPayload).Type)
}
