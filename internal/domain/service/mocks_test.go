package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/controller"
	"alexa-smarthome-bridge/internal/domain/model"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) Get(ctx context.Context, endpointID string) (*model.Record, error) {
	args := m.Called(ctx, endpointID)
	rec, _ := args.Get(0).(*model.Record)
	return rec, args.Error(1)
}

func (m *MockRepo) FindByItemName(ctx context.Context, itemName string) (*model.Record, error) {
	args := m.Called(ctx, itemName)
	rec, _ := args.Get(0).(*model.Record)
	return rec, args.Error(1)
}

func (m *MockRepo) ScanEnabled(ctx context.Context) ([]model.Record, error) {
	args := m.Called(ctx)
	recs, _ := args.Get(0).([]model.Record)
	return recs, args.Error(1)
}

func (m *MockRepo) List(ctx context.Context) ([]model.Record, error) {
	args := m.Called(ctx)
	recs, _ := args.Get(0).([]model.Record)
	return recs, args.Error(1)
}

func (m *MockRepo) Put(ctx context.Context, rec model.Record) (model.Record, error) {
	args := m.Called(ctx, rec)
	out, _ := args.Get(0).(model.Record)
	return out, args.Error(1)
}

func (m *MockRepo) UpdateState(ctx context.Context, endpointID string, state model.State, version int64) (int64, error) {
	args := m.Called(ctx, endpointID, state, version)
	return int64(args.Int(0)), args.Error(1)
}

func (m *MockRepo) Delete(ctx context.Context, endpointID string) error {
	return m.Called(ctx, endpointID).Error(0)
}

type MockHub struct {
	mock.Mock
}

func (m *MockHub) Publish(ctx context.Context, cmd model.Command) error {
	return m.Called(ctx, cmd).Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Send(ctx context.Context, accessToken string, msg alexa.Message) error {
	return m.Called(ctx, accessToken, msg).Error(0)
}

type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) AccessToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockTokens) Refresh(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockTokens) Exchange(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFactory() *controller.Factory {
	return controller.NewFactory(func() time.Time { return epoch })
}

func testBuilder() *alexa.Builder {
	return alexa.NewBuilder(
		alexa.WithClock(func() time.Time { return epoch }),
		alexa.WithMessageIDs(func() string { return "msg" }),
	)
}

func lampRecord() *model.Record {
	return &model.Record{
		EndpointID:    "lamp-1",
		ItemName:      "Kitchen_Lamp",
		Capabilities:  []model.Kind{model.KindPower, model.KindBrightness},
		Proactive:     true,
		Retrievable:   true,
		Enabled:       true,
		HandleGeneric: true,
		State:         model.State{Power: model.Text("OFF"), Brightness: model.Int(40)},
		Version:       3,
	}
}
