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

// Reporter pushes proactive change reports to the Alexa event gateway.
type Reporter struct {
	gateway ports.EventGateway
	tokens  ports.TokenProvider
	builder *alexa.Builder
	log     *slog.Logger
}

func NewReporter(gateway ports.EventGateway, tokens ports.TokenProvider, builder *alexa.Builder, log *slog.Logger) *Reporter {
	if log == nil {
		log = slog.Default()
	}
	if builder == nil {
		builder = alexa.NewBuilder()
	}
	return &Reporter{gateway: gateway, tokens: tokens, builder: builder, log: log.With("component", "reporter")}
}

// ChangeReport sends the properties of the claiming controllers as the
// change and everything else, plus connectivity, as context. A claiming
// scene controller is reported as an activation event instead. Nothing is
// sent when no reportable property changed.
func (r *Reporter) ChangeReport(ctx context.Context, dev *device.Device, claimed []controller.Controller, cause string) error {
	id := dev.EndpointID()
	var errs []error
	for _, c := range claimed {
		if c.Kind() != model.KindScene {
			continue
		}
		status, _ := dev.State().SceneStatus.Text()
		activated := status != controller.SceneDeactivated
		errs = append(errs, r.send(ctx, id, func(token string) alexa.Message {
			return r.builder.SceneEvent(id, token, activated, cause)
		}))
		break
	}

	changed, unchanged := dev.ReportSplit(claimed)
	if len(changed) == 0 {
		r.log.Debug("no reportable change", "endpoint", id)
		return errors.Join(errs...)
	}
	unchanged = append(unchanged, alexa.Connectivity())
	errs = append(errs, r.send(ctx, id, func(token string) alexa.Message {
		return r.builder.ChangeReport(id, token, cause, changed, unchanged)
	}))
	return errors.Join(errs...)
}

// PeriodicReport sends every property of dev as changed. Devices without
// retrievable properties are skipped.
func (r *Reporter) PeriodicReport(ctx context.Context, dev *device.Device) error {
	props := dev.Properties()
	if len(props) == 0 {
		return nil
	}
	id := dev.EndpointID()
	return r.send(ctx, id, func(token string) alexa.Message {
		return r.builder.ChangeReport(id, token, alexa.CausePeriodicPoll, props, []alexa.Property{alexa.Connectivity()})
	})
}

// send posts the event built by build. A rejected token is refreshed and
// the send retried exactly once.
func (r *Reporter) send(ctx context.Context, endpointID string, build func(token string) alexa.Message) error {
	if r.gateway == nil || r.tokens == nil {
		return ports.ErrNotConfigured
	}
	token, err := r.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("access token: %w", err)
	}
	err = r.gateway.Send(ctx, token, build(token))
	if !errors.Is(err, ports.ErrUnauthorized) {
		return err
	}

	r.log.Info("access token rejected, refreshing", "endpoint", endpointID)
	token, err = r.tokens.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	return r.gateway.Send(ctx, token, build(token))
}
