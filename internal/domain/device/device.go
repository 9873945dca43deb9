package device

import (
	"errors"
	"fmt"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/controller"
	"alexa-smarthome-bridge/internal/domain/model"
)

var (
	ErrFieldConflict        = errors.New("capabilities share a state field")
	ErrUnsupportedDirective = errors.New("no capability accepts the directive")
)

// Device is a record with its controllers resolved. It is rebuilt from a
// fresh read for every directive or hub update and is not safe for
// concurrent use.
type Device struct {
	record         model.Record
	controllers    []controller.Controller
	hubFormula     *controller.Formula
	commandFormula *controller.Formula
}

// New resolves every capability of rec. Unknown kinds and controllers that
// would write the same state field are rejected.
func New(rec model.Record, factory *controller.Factory) (*Device, error) {
	d := &Device{record: rec}
	owners := make(map[model.Field]model.Kind)
	for _, kind := range rec.Capabilities {
		c, err := factory.Controller(kind, rec.Config)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", rec.EndpointID, err)
		}
		for _, f := range c.Fields() {
			if other, taken := owners[f]; taken {
				return nil, fmt.Errorf("device %s: %w: %s and %s both own %q", rec.EndpointID, ErrFieldConflict, other, kind, f)
			}
			owners[f] = kind
		}
		d.controllers = append(d.controllers, c)
	}
	if rec.Config != nil {
		var err error
		if d.hubFormula, err = controller.ParseFormula(rec.Config.HubFormula); err != nil {
			return nil, fmt.Errorf("device %s: %w", rec.EndpointID, err)
		}
		if d.commandFormula, err = controller.ParseFormula(rec.Config.CommandFormula); err != nil {
			return nil, fmt.Errorf("device %s: %w", rec.EndpointID, err)
		}
	}
	return d, nil
}

func (d *Device) EndpointID() string { return d.record.EndpointID }

// Record returns the record including any state merged since construction.
func (d *Device) Record() model.Record { return d.record }

func (d *Device) State() model.State { return d.record.State }

func (d *Device) Controllers() []controller.Controller { return d.controllers }

// Discovery describes the endpoint: controller capabilities in attachment
// order, then EndpointHealth, then the base Alexa interface.
func (d *Device) Discovery(manufacturer string) alexa.DiscoveryEndpoint {
	rec := d.record.Display(manufacturer)
	caps := make([]alexa.Capability, 0, len(d.controllers)+2)
	for _, c := range d.controllers {
		caps = append(caps, c.Descriptor(rec.Proactive, rec.Retrievable))
	}
	caps = append(caps,
		alexa.Interface(alexa.NamespaceEndpointHealth, &alexa.CapabilityProperties{
			Supported:           []alexa.Supported{{Name: "connectivity"}},
			ProactivelyReported: true,
			Retrievable:         true,
		}),
		alexa.Interface(alexa.NamespaceAlexa, nil),
	)
	return alexa.DiscoveryEndpoint{
		EndpointID:        rec.EndpointID,
		ManufacturerName:  rec.ManufacturerName,
		FriendlyName:      rec.FriendlyName,
		Description:       rec.Description,
		DisplayCategories: rec.DisplayCategories,
		AdditionalAttributes: alexa.AdditionalAttributes{
			Manufacturer:     rec.ManufacturerName,
			Model:            rec.ModelName,
			SerialNumber:     rec.SerialNumber,
			FirmwareVersion:  rec.FirmwareVersion,
			SoftwareVersion:  rec.SoftwareVersion,
			CustomIdentifier: rec.CustomIdentifier(),
		},
		Capabilities: caps,
		Cookie:       map[string]string{},
	}
}

// Properties projects the current state through every controller.
func (d *Device) Properties() []alexa.Property {
	return d.propertiesOf(d.controllers)
}

func (d *Device) propertiesOf(cs []controller.Controller) []alexa.Property {
	props := []alexa.Property{}
	for _, c := range cs {
		props = append(props, c.Properties(d.record.State)...)
	}
	return props
}

// Outcome is the result of executing a directive. Handled is false when the
// matching controller did not understand the action or payload.
type Outcome struct {
	Controller controller.Controller
	Handled    bool
	Delta      model.State
	Command    *model.Command
}

func (d *Device) match(dir model.Directive) controller.Controller {
	for _, c := range d.controllers {
		if c.Namespace() != dir.Namespace {
			continue
		}
		if dir.Instance != "" && c.Instance() != dir.Instance {
			continue
		}
		return c
	}
	return nil
}

// ExecuteDirective dispatches dir to the first matching controller and
// merges its delta into the state. The caller persists the state and
// publishes the returned command.
func (d *Device) ExecuteDirective(dir model.Directive) (Outcome, error) {
	c := d.match(dir)
	if c == nil {
		return Outcome{}, fmt.Errorf("%w: %s.%s on %s", ErrUnsupportedDirective, dir.Namespace, dir.Name, d.record.EndpointID)
	}
	res, ok := c.HandleDirective(dir.Name, dir.Payload, d.record.State)
	if !ok {
		return Outcome{Controller: c}, nil
	}
	out := Outcome{Controller: c, Handled: true, Delta: res.Delta}
	d.record.State = d.record.State.Merge(res.Delta)
	if res.Command != nil {
		out.Command = &model.Command{
			EndpointID:    d.record.EndpointID,
			ItemName:      d.record.ItemName,
			HandleGeneric: d.record.HandleGeneric,
			Namespace:     dir.Namespace,
			Method:        dir.Name,
			Value:         d.commandFormula.Apply(res.Command),
		}
	}
	return out, nil
}

// Update is the result of a hub update. Claimed lists the controllers that
// produced a delta.
type Update struct {
	Delta   model.State
	Claimed []controller.Controller
}

func (u Update) Changed() bool { return !u.Delta.IsEmpty() }

// ApplyHubUpdate offers raw to every controller and merges all deltas in
// controller order; later controllers win on overlapping fields.
func (d *Device) ApplyHubUpdate(raw any) Update {
	raw = d.hubFormula.Apply(raw)
	var u Update
	for _, c := range d.controllers {
		delta, ok := c.HandleUpdate(raw)
		if !ok || delta.IsEmpty() {
			continue
		}
		u.Delta = u.Delta.Merge(delta)
		u.Claimed = append(u.Claimed, c)
	}
	d.record.State = d.record.State.Merge(u.Delta)
	return u
}

// ReportSplit separates the properties of the claiming controllers from the
// rest, for change reports.
func (d *Device) ReportSplit(claimed []controller.Controller) (changed, unchanged []alexa.Property) {
	isClaimed := make(map[controller.Controller]bool, len(claimed))
	for _, c := range claimed {
		isClaimed[c] = true
	}
	var rest []controller.Controller
	for _, c := range d.controllers {
		if !isClaimed[c] {
			rest = append(rest, c)
		}
	}
	return d.propertiesOf(claimed), d.propertiesOf(rest)
}
