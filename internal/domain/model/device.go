package model

import "encoding/json"

const (
	DefaultFirmwareVersion = "v1.0"
	DefaultSoftwareVersion = "v1.0"
	DefaultCategory        = "OTHER"
	DefaultModelName       = "top model"
)

// Record is a device as it is stored.
type Record struct {
	EndpointID        string       `json:"device_id" yaml:"device_id"`
	ItemName          string       `json:"item_name" yaml:"item_name"`
	FriendlyName      string       `json:"friendly_name,omitempty" yaml:"friendly_name,omitempty"`
	Description       string       `json:"description,omitempty" yaml:"description,omitempty"`
	ManufacturerName  string       `json:"manufacturer_name,omitempty" yaml:"manufacturer_name,omitempty"`
	ModelName         string       `json:"model_name,omitempty" yaml:"model_name,omitempty"`
	SerialNumber      string       `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	FirmwareVersion   string       `json:"firmware_version,omitempty" yaml:"firmware_version,omitempty"`
	SoftwareVersion   string       `json:"software_version,omitempty" yaml:"software_version,omitempty"`
	DisplayCategories Categories   `json:"device_category,omitempty" yaml:"device_category,omitempty"`
	Capabilities      []Kind       `json:"capabilities" yaml:"capabilities"`
	Proactive         bool         `json:"proactivelyReported" yaml:"proactivelyReported"`
	Retrievable       bool         `json:"retrievable" yaml:"retrievable"`
	Enabled           bool         `json:"enabled" yaml:"enabled"`
	HandleGeneric     bool         `json:"OpenHABHandleGeneric" yaml:"OpenHABHandleGeneric"`
	Config            *ValueConfig `json:"config,omitempty" yaml:"config,omitempty"`
	State             State        `json:"state" yaml:"-"`
	Version           int64        `json:"version" yaml:"-"`
}

// Display returns a copy with the display metadata defaults filled in.
func (r Record) Display(manufacturer string) Record {
	if r.FriendlyName == "" {
		r.FriendlyName = r.ItemName
	}
	if r.Description == "" {
		r.Description = r.ItemName
	}
	if r.ManufacturerName == "" {
		r.ManufacturerName = manufacturer
	}
	if r.ModelName == "" {
		r.ModelName = DefaultModelName
	}
	if r.SerialNumber == "" {
		r.SerialNumber = prefix(r.EndpointID, 8)
	}
	if r.FirmwareVersion == "" {
		r.FirmwareVersion = DefaultFirmwareVersion
	}
	if r.SoftwareVersion == "" {
		r.SoftwareVersion = DefaultSoftwareVersion
	}
	if len(r.DisplayCategories) == 0 {
		r.DisplayCategories = Categories{DefaultCategory}
	}
	return r
}

// CustomIdentifier is a short stable identifier derived from the endpoint id.
func (r Record) CustomIdentifier() string {
	id := r.EndpointID
	if len(id) > 4 {
		id = id[len(id)-4:]
	}
	return "redfive-" + id
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// UnmarshalJSON applies the defaults of fields missing from older records.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	p := plain{Retrievable: true, Enabled: true, HandleGeneric: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Record(p)
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for seed files.
func (r *Record) UnmarshalYAML(unmarshal func(any) error) error {
	type plain Record
	p := plain{Retrievable: true, Enabled: true, HandleGeneric: true}
	if err := unmarshal(&p); err != nil {
		return err
	}
	*r = Record(p)
	return nil
}

// Categories accepts a single category string as well as a list.
type Categories []string

func (c *Categories) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*c = Categories{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*c = many
	return nil
}

func (c *Categories) UnmarshalYAML(unmarshal func(any) error) error {
	var one string
	if err := unmarshal(&one); err == nil {
		*c = Categories{one}
		return nil
	}
	var many []string
	if err := unmarshal(&many); err != nil {
		return err
	}
	*c = many
	return nil
}
