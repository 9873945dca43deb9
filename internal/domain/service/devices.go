package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"alexa-smarthome-bridge/internal/domain/controller"
	"alexa-smarthome-bridge/internal/domain/device"
	"alexa-smarthome-bridge/internal/domain/model"
	"alexa-smarthome-bridge/internal/ports"
)

// DeviceService manages device records and triggers batch reports.
type DeviceService struct {
	repo     ports.DeviceRepository
	factory  *controller.Factory
	reporter *Reporter
	log      *slog.Logger
}

func NewDeviceService(repo ports.DeviceRepository, factory *controller.Factory, reporter *Reporter, log *slog.Logger) *DeviceService {
	if log == nil {
		log = slog.Default()
	}
	if factory == nil {
		factory = controller.NewFactory(nil)
	}
	return &DeviceService{repo: repo, factory: factory, reporter: reporter, log: log.With("component", "devices")}
}

func (s *DeviceService) ListDevices(ctx context.Context) ([]model.Record, error) {
	return s.repo.List(ctx)
}

func (s *DeviceService) GetDevice(ctx context.Context, endpointID string) (*model.Record, error) {
	rec, err := s.repo.Get(ctx, endpointID)
	if notFound(err) {
		return nil, fmt.Errorf("%w: %s", ErrEndpointNotFound, endpointID)
	}
	return rec, err
}

func (s *DeviceService) validate(rec model.Record) error {
	if rec.ItemName == "" {
		return fmt.Errorf("%w: item_name is required", ErrInvalidDevice)
	}
	if _, err := device.New(rec, s.factory); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDevice, err)
	}
	return nil
}

// CreateDevice stores rec, assigning a new endpoint id when none is given.
// An existing record with the same id is replaced.
func (s *DeviceService) CreateDevice(ctx context.Context, rec model.Record) (model.Record, error) {
	if rec.EndpointID == "" {
		rec.EndpointID = uuid.NewString()
	}
	if err := s.validate(rec); err != nil {
		return model.Record{}, err
	}
	rec.Version = 0
	stored, err := s.repo.Put(ctx, rec)
	if err != nil {
		return model.Record{}, fmt.Errorf("store %s: %w", rec.EndpointID, err)
	}
	s.log.Info("device created", "endpoint", stored.EndpointID, "item", stored.ItemName)
	return stored, nil
}

// UpdateDevice applies the non-nil fields of patch with a conditional write.
func (s *DeviceService) UpdateDevice(ctx context.Context, endpointID string, patch ports.DevicePatch) (model.Record, error) {
	if patch.IsEmpty() {
		return model.Record{}, fmt.Errorf("%w: no fields to update", ErrInvalidDevice)
	}
	for attempt := 1; ; attempt++ {
		rec, err := s.GetDevice(ctx, endpointID)
		if err != nil {
			return model.Record{}, err
		}
		updated := applyPatch(*rec, patch)
		if err := s.validate(updated); err != nil {
			return model.Record{}, err
		}
		stored, err := s.repo.Put(ctx, updated)
		if err == nil {
			s.log.Info("device updated", "endpoint", endpointID)
			return stored, nil
		}
		if !errors.Is(err, ports.ErrVersionConflict) || attempt >= maxWriteAttempts {
			return model.Record{}, fmt.Errorf("store %s: %w", endpointID, err)
		}
	}
}

// ImportDevices upserts seed records. Stored state is kept; everything else
// is taken from the seed.
func (s *DeviceService) ImportDevices(ctx context.Context, recs []model.Record) error {
	var errs []error
	for _, rec := range recs {
		if err := s.validate(rec); err != nil {
			errs = append(errs, fmt.Errorf("seed %s: %w", rec.EndpointID, err))
			continue
		}
		rec.Version = 0
		existing, err := s.repo.Get(ctx, rec.EndpointID)
		switch {
		case err == nil:
			rec.State = existing.State
			rec.Version = existing.Version
		case !notFound(err):
			errs = append(errs, err)
			continue
		}
		if _, err := s.repo.Put(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("seed %s: %w", rec.EndpointID, err))
		}
	}
	s.log.Info("seed imported", "devices", len(recs), "failed", len(errs))
	return errors.Join(errs...)
}

func applyPatch(rec model.Record, p ports.DevicePatch) model.Record {
	if p.ItemName != nil {
		rec.ItemName = *p.ItemName
	}
	if p.FriendlyName != nil {
		rec.FriendlyName = *p.FriendlyName
	}
	if p.Description != nil {
		rec.Description = *p.Description
	}
	if p.DisplayCategories != nil {
		rec.DisplayCategories = *p.DisplayCategories
	}
	if p.Capabilities != nil {
		rec.Capabilities = *p.Capabilities
	}
	if p.Proactive != nil {
		rec.Proactive = *p.Proactive
	}
	if p.Retrievable != nil {
		rec.Retrievable = *p.Retrievable
	}
	if p.Enabled != nil {
		rec.Enabled = *p.Enabled
	}
	if p.HandleGeneric != nil {
		rec.HandleGeneric = *p.HandleGeneric
	}
	if p.Config != nil {
		rec.Config = p.Config
	}
	if p.State != nil {
		rec.State = *p.State
	}
	return rec
}

func (s *DeviceService) DeleteDevice(ctx context.Context, endpointID string) error {
	err := s.repo.Delete(ctx, endpointID)
	if notFound(err) {
		return fmt.Errorf("%w: %s", ErrEndpointNotFound, endpointID)
	}
	if err != nil {
		return err
	}
	s.log.Info("device deleted", "endpoint", endpointID)
	return nil
}

// ReportAll sends a periodic report for every enabled proactive device that
// has retrievable properties. A failing device does not stop the others; all failures are returned joined.
func (s *DeviceService) ReportAll(ctx context.Context) error {
	if s.reporter == nil {
		return ports.ErrNotConfigured
	}
	records, err := s.repo.ScanEnabled(ctx)
	if err != nil {
		return fmt.Errorf("scan devices: %w", err)
	}
	var errs []error
	sent := 0
	for _, rec := range records {
		if !rec.Proactive {
			continue
		}
		dev, err := device.New(rec, s.factory)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(dev.Properties()) == 0 {
			continue
		}
		if err := s.reporter.PeriodicReport(ctx, dev); err != nil {
			s.log.Warn("periodic report failed", "endpoint", rec.EndpointID, "error", err)
			errs = append(errs, fmt.Errorf("report %s: %w", rec.EndpointID, err))
			continue
		}
		sent++
	}
	s.log.Info("periodic reports sent", "sent", sent, "failed", len(errs))
	return errors.Join(errs...)
}
