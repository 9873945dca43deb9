package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/controller"
	"alexa-smarthome-bridge/internal/domain/device"
	"alexa-smarthome-bridge/internal/domain/model"
	"alexa-smarthome-bridge/internal/ports"
)

// UpdateTranslator folds hub item updates into device state and reports the
// change to Alexa when the device is proactive.
type UpdateTranslator struct {
	repo     ports.DeviceRepository
	factory  *controller.Factory
	reporter *Reporter
	log      *slog.Logger
}

// NewUpdateTranslator builds the translator. A nil reporter disables change
// reports.
func NewUpdateTranslator(repo ports.DeviceRepository, factory *controller.Factory, reporter *Reporter, log *slog.Logger) *UpdateTranslator {
	if log == nil {
		log = slog.Default()
	}
	if factory == nil {
		factory = controller.NewFactory(nil)
	}
	return &UpdateTranslator{repo: repo, factory: factory, reporter: reporter, log: log.With("component", "updates")}
}

func (t *UpdateTranslator) HandleHubUpdate(ctx context.Context, upd model.HubUpdate) error {
	log := t.log.With("item", upd.ItemName)

	var (
		dev *device.Device
		u   device.Update
	)
	for attempt := 1; ; attempt++ {
		rec, err := t.repo.FindByItemName(ctx, upd.ItemName)
		if notFound(err) {
			return fmt.Errorf("%w: %s", ErrUnknownItem, upd.ItemName)
		}
		if err != nil {
			return fmt.Errorf("find %s: %w", upd.ItemName, err)
		}
		dev, err = device.New(*rec, t.factory)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDevice, err)
		}
		u = dev.ApplyHubUpdate(upd.Value)
		if !u.Changed() {
			log.Debug("hub update not claimed by any capability", "value", upd.Value)
			return nil
		}
		if !rec.State.Differs(u.Delta) {
			log.Debug("hub update repeats stored state", "endpoint", rec.EndpointID)
			return nil
		}
		_, err = t.repo.UpdateState(ctx, rec.EndpointID, dev.State(), rec.Version)
		if err == nil {
			break
		}
		if !errors.Is(err, ports.ErrVersionConflict) || attempt >= maxWriteAttempts {
			return fmt.Errorf("store state of %s: %w", rec.EndpointID, err)
		}
		log.Debug("state changed concurrently, retrying", "attempt", attempt)
	}
	log.Info("state updated from hub", "endpoint", dev.EndpointID(), "fields", u.Delta.Fields())

	if t.reporter == nil || !dev.Record().Proactive {
		return nil
	}
	if err := t.reporter.ChangeReport(ctx, dev, u.Claimed, alexa.CausePhysicalInteraction); err != nil {
		return fmt.Errorf("change report for %s: %w", dev.EndpointID(), err)
	}
	return nil
}
