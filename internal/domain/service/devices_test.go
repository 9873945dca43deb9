package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/device"
	"alexa-smarthome-bridge/internal/domain/model"
	"alexa-smarthome-bridge/internal/ports"
)

func newLamp(t *testing.T) *device.Device {
	t.Helper()
	dev, err := device.New(*lampRecord(), testFactory())
	require.NoError(t, err)
	return dev
}

func TestDeviceService_CreateAssignsID(t *testing.T) {
	repo := new(MockRepo)
	var put model.Record
	repo.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		put = args.Get(1).(model.Record)
	}).Return(model.Record{EndpointID: "stored", ItemName: "Hall_Light", Version: 1}, nil).Once()

	stored, err := NewDeviceService(repo, testFactory(), nil, quietLogger()).CreateDevice(context.Background(),
		model.Record{ItemName: "Hall_Light", Capabilities: []model.Kind{model.KindPower}, Version: 9})

	require.NoError(t, err)
	assert.Len(t, put.EndpointID, 36)
	assert.Equal(t, int64(0), put.Version)
	assert.Equal(t, int64(1), stored.Version)
	repo.AssertExpectations(t)
}

func TestDeviceService_CreateRejectsInvalid(t *testing.T) {
	repo := new(MockRepo)
	s := NewDeviceService(repo, testFactory(), nil, quietLogger())

	_, err := s.CreateDevice(context.Background(), model.Record{ItemName: "X", Capabilities: []model.Kind{"LockController"}})
	assert.ErrorIs(t, err, ErrInvalidDevice)

	_, err = s.CreateDevice(context.Background(), model.Record{Capabilities: []model.Kind{model.KindPower}})
	assert.ErrorIs(t, err, ErrInvalidDevice)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestDeviceService_UpdateAppliesOnlyPatchedFields(t *testing.T) {
	repo := new(MockRepo)
	repo.On("Get", mock.Anything, "lamp-1").Return(lampRecord(), nil)
	var stored model.Record
	repo.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(model.Record)
	}).Return(model.Record{EndpointID: "lamp-1", Version: 4}, nil)

	name := "Kitchen Ceiling"
	_, err := NewDeviceService(repo, testFactory(), nil, quietLogger()).
		UpdateDevice(context.Background(), "lamp-1", ports.DevicePatch{FriendlyName: &name})

	require.NoError(t, err)
	assert.Equal(t, "Kitchen Ceiling", stored.FriendlyName)
	assert.Equal(t, "Kitchen_Lamp", stored.ItemName)
	assert.Equal(t, int64(3), stored.Version, "write is conditional on the version read")
	assert.Equal(t, lampRecord().Capabilities, stored.Capabilities)
}

func TestDeviceService_UpdateRejectsEmptyPatch(t *testing.T) {
	_, err := NewDeviceService(new(MockRepo), testFactory(), nil, quietLogger()).
		UpdateDevice(context.Background(), "lamp-1", ports.DevicePatch{})
	assert.ErrorIs(t, err, ErrInvalidDevice)
}

func TestDeviceService_UpdateUnknown(t *testing.T) {
	repo := new(MockRepo)
	repo.On("Get", mock.Anything, "ghost").Return(nil, ports.ErrNotFound)
	enabled := false

	_, err := NewDeviceService(repo, testFactory(), nil, quietLogger()).
		UpdateDevice(context.Background(), "ghost", ports.DevicePatch{Enabled: &enabled})
	assert.ErrorIs(t, err, ErrEndpointNotFound)
}

func TestDeviceService_Delete(t *testing.T) {
	repo := new(MockRepo)
	repo.On("Delete", mock.Anything, "lamp-1").Return(nil)
	repo.On("Delete", mock.Anything, "ghost").Return(ports.ErrNotFound)
	s := NewDeviceService(repo, testFactory(), nil, quietLogger())

	assert.NoError(t, s.DeleteDevice(context.Background(), "lamp-1"))
	assert.ErrorIs(t, s.DeleteDevice(context.Background(), "ghost"), ErrEndpointNotFound)
}

func TestDeviceService_ReportAllIsolatesFailures(t *testing.T) {
	repo, gateway, tokens := new(MockRepo), new(MockGateway), new(MockTokens)
	first, second, quiet := lampRecord(), lampRecord(), lampRecord()
	second.EndpointID = "lamp-2"
	quiet.EndpointID = "lamp-3"
	quiet.Proactive = false
	scene := sceneRecord("ACTIVATED")
	repo.On("ScanEnabled", mock.Anything).Return([]model.Record{*first, *second, *quiet, *scene}, nil)
	tokens.On("AccessToken", mock.Anything).Return("access", nil)

	endpointIs := func(id string) any {
		return mock.MatchedBy(func(m alexa.Message) bool { return m.Event.Endpoint.EndpointID == id })
	}
	gateway.On("Send", mock.Anything, "access", endpointIs("lamp-1")).Return(errors.New("503")).Once()
	gateway.On("Send", mock.Anything, "access", endpointIs("lamp-2")).Run(func(args mock.Arguments) {
		msg := args.Get(2).(alexa.Message)
		change := msg.Event.Payload.(alexa.ChangePayload).Change
		assert.Equal(t, alexa.CausePeriodicPoll, change.Cause.Type)
		assert.Len(t, change.Properties, 2)
	}).Return(nil).Once()

	reporter := NewReporter(gateway, tokens, testBuilder(), quietLogger())
	err := NewDeviceService(repo, testFactory(), reporter, quietLogger()).ReportAll(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "lamp-1")
	assert.NotContains(t, err.Error(), "lamp-2")
	gateway.AssertExpectations(t)
	gateway.AssertNumberOfCalls(t, "Send", 2)
	gateway.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, endpointIs("scene-1"))
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, alexa.ErrorNoSuchEndpoint, ErrorType(ErrEndpointNotFound))
	assert.Equal(t, alexa.ErrorInvalidDirective, ErrorType(device.ErrUnsupportedDirective))
	assert.Equal(t, alexa.ErrorEndpointUnreachable, ErrorType(device.ErrFieldConflict))
	assert.Equal(t, alexa.ErrorInternal, ErrorType(errors.New("boom")))
}
