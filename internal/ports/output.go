package ports

import (
	"context"
	"errors"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotConfigured   = errors.New("not configured")
)

// DeviceRepository stores device records keyed by endpoint id, with a
// secondary lookup by hub item name.
type DeviceRepository interface {
	Get(ctx context.Context, endpointID string) (*model.Record, error)
	FindByItemName(ctx context.Context, itemName string) (*model.Record, error)
	ScanEnabled(ctx context.Context) ([]model.Record, error)
	List(ctx context.Context) ([]model.Record, error)
	// Put stores rec. A non-zero Version makes the write conditional on the
	// stored version. The returned record carries the new version.
	Put(ctx context.Context, rec model.Record) (model.Record, error)
	// UpdateState replaces the state if the stored version still equals
	// version, and returns the new version.
	UpdateState(ctx context.Context, endpointID string, state model.State, version int64) (int64, error)
	Delete(ctx context.Context, endpointID string) error
}

// HubPublisher forwards commands to the home-automation hub.
type HubPublisher interface {
	Publish(ctx context.Context, cmd model.Command) error
}

// EventGateway posts proactive events to Alexa. A rejected token is
// reported as ErrUnauthorized.
type EventGateway interface {
	Send(ctx context.Context, accessToken string, msg alexa.Message) error
}

// TokenProvider hands out Login with Amazon access tokens.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
	// Refresh forces a refresh-token grant.
	Refresh(ctx context.Context) (string, error)
	// Exchange redeems an AcceptGrant authorization code.
	Exchange(ctx context.Context, code string) error
}
