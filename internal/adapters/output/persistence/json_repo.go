package persistence

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"

	"alexa-smarthome-bridge/internal/domain/model"
	"alexa-smarthome-bridge/internal/ports"
)

// JSONFileRepository keeps every device record in a single JSON file. It
// suits small installations without a database.
type JSONFileRepository struct {
	filepath string
	mu       sync.RWMutex
}

type fileContent struct {
	Devices []model.Record `json:"devices"`
}

func NewJSONFileRepository(filepath string) *JSONFileRepository {
	return &JSONFileRepository{filepath: filepath}
}

func (r *JSONFileRepository) load() (map[string]model.Record, error) {
	data, err := os.ReadFile(r.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]model.Record{}, nil
		}
		return nil, err
	}

	var content fileContent
	if err := json.Unmarshal(data, &content); err == nil && content.Devices != nil {
		out := make(map[string]model.Record, len(content.Devices))
		for _, rec := range content.Devices {
			out[rec.EndpointID] = rec
		}
		return out, nil
	}
	return r.migrate(data)
}

// migrate reads the older layout: an object keyed by endpoint id whose
// records may name the hub item device_name.
func (r *JSONFileRepository) migrate(data []byte) (map[string]model.Record, error) {
	var legacy map[string]json.RawMessage
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}
	out := make(map[string]model.Record, len(legacy))
	for id, raw := range legacy {
		if id == "devices" {
			continue
		}
		var rec model.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
		var names struct {
			DeviceName string `json:"device_name"`
		}
		_ = json.Unmarshal(raw, &names)
		if rec.ItemName == "" {
			rec.ItemName = names.DeviceName
		}
		if rec.EndpointID == "" {
			rec.EndpointID = id
		}
		if rec.Version == 0 {
			rec.Version = 1
		}
		out[rec.EndpointID] = rec
	}
	return out, nil
}

func (r *JSONFileRepository) save(records map[string]model.Record) error {
	content := fileContent{Devices: sorted(records)}
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.filepath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, r.filepath)
}

func sorted(records map[string]model.Record) []model.Record {
	out := make([]model.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndpointID < out[j].EndpointID })
	return out
}

func (r *JSONFileRepository) Get(ctx context.Context, endpointID string) (*model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	rec, ok := records[endpointID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &rec, nil
}

func (r *JSONFileRepository) FindByItemName(ctx context.Context, itemName string) (*model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, rec := range sorted(records) {
		if rec.ItemName == itemName {
			return &rec, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *JSONFileRepository) List(ctx context.Context) ([]model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	return sorted(records), nil
}

func (r *JSONFileRepository) ScanEnabled(ctx context.Context) ([]model.Record, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, rec := range all {
		if rec.Enabled {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *JSONFileRepository) Put(ctx context.Context, rec model.Record) (model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return model.Record{}, err
	}
	current, exists := records[rec.EndpointID]
	switch {
	case rec.Version != 0 && !exists:
		return model.Record{}, ports.ErrNotFound
	case rec.Version != 0 && current.Version != rec.Version:
		return model.Record{}, ports.ErrVersionConflict
	}
	rec.Version = current.Version + 1
	records[rec.EndpointID] = rec
	if err := r.save(records); err != nil {
		return model.Record{}, err
	}
	return rec, nil
}

func (r *JSONFileRepository) UpdateState(ctx context.Context, endpointID string, state model.State, version int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return 0, err
	}
	rec, ok := records[endpointID]
	if !ok {
		return 0, ports.ErrNotFound
	}
	if rec.Version != version {
		return 0, ports.ErrVersionConflict
	}
	rec.State = state
	rec.Version++
	records[endpointID] = rec
	if err := r.save(records); err != nil {
		return 0, err
	}
	return rec.Version, nil
}

func (r *JSONFileRepository) Delete(ctx context.Context, endpointID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := records[endpointID]; !ok {
		return ports.ErrNotFound
	}
	delete(records, endpointID)
	return r.save(records)
}
