package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/controller"
	"alexa-smarthome-bridge/internal/domain/device"
	"alexa-smarthome-bridge/internal/domain/model"
	"alexa-smarthome-bridge/internal/ports"
)

// SmartHomeService answers Alexa directives: authorization, discovery,
// state reports and device control.
type SmartHomeService struct {
	repo         ports.DeviceRepository
	hub          ports.HubPublisher
	tokens       ports.TokenProvider
	factory      *controller.Factory
	builder      *alexa.Builder
	manufacturer string
	log          *slog.Logger
}

type SmartHomeConfig struct {
	Repository ports.DeviceRepository
	Hub        ports.HubPublisher
	// Tokens may be nil when proactive events are disabled; AcceptGrant is
	// then acknowledged without a code exchange.
	Tokens       ports.TokenProvider
	Factory      *controller.Factory
	Builder      *alexa.Builder
	Manufacturer string
	Logger       *slog.Logger
}

func NewSmartHomeService(cfg SmartHomeConfig) *SmartHomeService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Factory == nil {
		cfg.Factory = controller.NewFactory(nil)
	}
	if cfg.Builder == nil {
		cfg.Builder = alexa.NewBuilder()
	}
	return &SmartHomeService{
		repo:         cfg.Repository,
		hub:          cfg.Hub,
		tokens:       cfg.Tokens,
		factory:      cfg.Factory,
		builder:      cfg.Builder,
		manufacturer: cfg.Manufacturer,
		log:          cfg.Logger.With("component", "smarthome"),
	}
}

func (s *SmartHomeService) HandleDirective(ctx context.Context, req alexa.Request) (alexa.Message, error) {
	d := req.ToDirective()
	log := s.log.With("namespace", d.Namespace, "name", d.Name, "endpoint", d.EndpointID)

	var (
		msg alexa.Message
		err error
	)
	switch {
	case d.Namespace == alexa.NamespaceAuthorization && d.Name == "AcceptGrant":
		return s.acceptGrant(ctx, d), nil
	case d.Namespace == alexa.NamespaceDiscovery && d.Name == "Discover":
		msg, err = s.discover(ctx)
	case d.Namespace == alexa.NamespaceAlexa && d.Name == "ReportState":
		msg, err = s.reportState(ctx, d)
	default:
		msg, err = s.control(ctx, d, log)
	}
	if err != nil {
		errType := ErrorType(err)
		log.Error("directive failed", "error", err, "type", errType)
		return s.builder.Error(d, errType, err.Error()), err
	}
	return msg, nil
}

func (s *SmartHomeService) acceptGrant(ctx context.Context, d model.Directive) alexa.Message {
	var p struct {
		Grant struct {
			Code string `json:"code"`
		} `json:"grant"`
	}
	if err := json.Unmarshal(d.Payload, &p); err != nil || p.Grant.Code == "" {
		s.log.Error("accept grant without code")
		return s.builder.AcceptGrantError("no grant code")
	}
	if s.tokens == nil {
		s.log.Warn("accept grant ignored, no token provider configured")
		return s.builder.AcceptGrant()
	}
	if err := s.tokens.Exchange(ctx, p.Grant.Code); err != nil {
		s.log.Error("accept grant exchange failed", "error", err)
		return s.builder.AcceptGrantError("token exchange failed")
	}
	s.log.Info("accept grant stored tokens")
	return s.builder.AcceptGrant()
}

// discover lists every enabled device. A device whose record cannot be
// resolved is left out rather than failing the whole catalog.
func (s *SmartHomeService) discover(ctx context.Context) (alexa.Message, error) {
	records, err := s.repo.ScanEnabled(ctx)
	if err != nil {
		return alexa.Message{}, fmt.Errorf("scan devices: %w", err)
	}
	endpoints := make([]alexa.DiscoveryEndpoint, 0, len(records))
	for _, rec := range records {
		dev, err := device.New(rec, s.factory)
		if err != nil {
			s.log.Warn("device skipped in discovery", "endpoint", rec.EndpointID, "error", err)
			continue
		}
		endpoints = append(endpoints, dev.Discovery(s.manufacturer))
	}
	s.log.Info("discovery", "endpoints", len(endpoints))
	return s.builder.Discovery(endpoints), nil
}

func (s *SmartHomeService) load(ctx context.Context, endpointID string) (*model.Record, *device.Device, error) {
	rec, err := s.repo.Get(ctx, endpointID)
	if notFound(err) {
		return nil, nil, fmt.Errorf("%w: %s", ErrEndpointNotFound, endpointID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", endpointID, err)
	}
	dev, err := device.New(*rec, s.factory)
	if err != nil {
		return nil, nil, err
	}
	return rec, dev, nil
}

func (s *SmartHomeService) reportState(ctx context.Context, d model.Directive) (alexa.Message, error) {
	_, dev, err := s.load(ctx, d.EndpointID)
	if err != nil {
		return alexa.Message{}, err
	}
	return s.builder.StateReport(d, dev.Properties()), nil
}

// control executes a directive, persists the merged state and forwards the
// command to the hub. The state write is retried from a fresh read when a
// concurrent writer bumped the version.
func (s *SmartHomeService) control(ctx context.Context, d model.Directive, log *slog.Logger) (alexa.Message, error) {
	var (
		dev *device.Device
		out device.Outcome
	)
	for attempt := 1; ; attempt++ {
		rec, loaded, err := s.load(ctx, d.EndpointID)
		if err != nil {
			return alexa.Message{}, err
		}
		dev = loaded
		out, err = dev.ExecuteDirective(d)
		if err != nil {
			return alexa.Message{}, err
		}
		if !out.Handled {
			log.Warn("directive not understood by capability", "kind", out.Controller.Kind())
			return s.builder.Response(d, dev.Properties()), nil
		}
		if out.Delta.IsEmpty() {
			break
		}
		_, err = s.repo.UpdateState(ctx, d.EndpointID, dev.State(), rec.Version)
		if err == nil {
			break
		}
		if !errors.Is(err, ports.ErrVersionConflict) || attempt >= maxWriteAttempts {
			return alexa.Message{}, fmt.Errorf("store state of %s: %w", d.EndpointID, err)
		}
		log.Debug("state changed concurrently, retrying", "attempt", attempt)
	}

	if out.Command != nil {
		if err := s.hub.Publish(ctx, *out.Command); err != nil {
			return alexa.Message{}, fmt.Errorf("publish to hub: %w", err)
		}
		log.Info("command published", "item", out.Command.ItemName, "value", out.Command.Value)
	}

	if d.Namespace == alexa.NamespaceScene {
		return s.builder.SceneStarted(d, alexa.CauseVoiceInteraction), nil
	}
	return s.builder.Response(d, dev.Properties()), nil
}
