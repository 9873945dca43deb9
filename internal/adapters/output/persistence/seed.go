package persistence

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"alexa-smarthome-bridge/internal/domain/model"
)

type seedFile struct {
	Devices []model.Record `yaml:"devices"`
}

// LoadSeed reads device records from a YAML file of the form
//
//	devices:
//	  - device_id: lamp-1
//	    item_name: Kitchen_Lamp
//	    capabilities: [PowerController, BrightnessController]
func LoadSeed(path string) ([]model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	for i, rec := range seed.Devices {
		if rec.EndpointID == "" {
			return nil, fmt.Errorf("seed %s: device %d has no device_id", path, i)
		}
	}
	return seed.Devices, nil
}
