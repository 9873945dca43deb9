package ports

import (
	"context"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
)

// SmartHomePort answers Alexa directives. The returned message is always
// sendable; a non-nil error explains an ErrorResponse.
type SmartHomePort interface {
	HandleDirective(ctx context.Context, req alexa.Request) (alexa.Message, error)
}

// HubUpdatePort consumes item state changes reported by the hub.
type HubUpdatePort interface {
	HandleHubUpdate(ctx context.Context, upd model.HubUpdate) error
}

// DevicePatch lists the fields the management API may change. Nil fields
// are left as they are.
type DevicePatch struct {
	ItemName          *string            `json:"item_name,omitempty"`
	FriendlyName      *string            `json:"friendly_name,omitempty"`
	Description       *string            `json:"description,omitempty"`
	DisplayCategories *model.Categories  `json:"device_category,omitempty"`
	Capabilities      *[]model.Kind      `json:"capabilities,omitempty"`
	Proactive         *bool              `json:"proactivelyReported,omitempty"`
	Retrievable       *bool              `json:"retrievable,omitempty"`
	Enabled           *bool              `json:"enabled,omitempty"`
	HandleGeneric     *bool              `json:"OpenHABHandleGeneric,omitempty"`
	Config            *model.ValueConfig `json:"config,omitempty"`
	State             *model.State       `json:"state,omitempty"`
}

func (p DevicePatch) IsEmpty() bool {
	return p == DevicePatch{}
}

// DevicesPort is the management API.
type DevicesPort interface {
	ListDevices(ctx context.Context) ([]model.Record, error)
	GetDevice(ctx context.Context, endpointID string) (*model.Record, error)
	CreateDevice(ctx context.Context, rec model.Record) (model.Record, error)
	UpdateDevice(ctx context.Context, endpointID string, patch DevicePatch) (model.Record, error)
	DeleteDevice(ctx context.Context, endpointID string) error
	// ReportAll sends a periodic change report for every proactive device.
	ReportAll(ctx context.Context) error
}
