package mqtt

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"alexa-smarthome-bridge/internal/domain/model"
	"alexa-smarthome-bridge/internal/domain/service"
	"alexa-smarthome-bridge/internal/observability"
	"alexa-smarthome-bridge/internal/ports"
)

// DefaultTopic matches alexa/<item>/state.
const DefaultTopic = "alexa/+/state"

const handleTimeout = 10 * time.Second

// Broker is the subscription side of the MQTT connection.
type Broker interface {
	Subscribe(topic string, handler func(topic string, payload []byte)) error
}

// Subscriber feeds hub state messages into the update port.
type Subscriber struct {
	broker Broker
	topic  string
	port   ports.HubUpdatePort
	log    *slog.Logger
}

func NewSubscriber(broker Broker, topic string, port ports.HubUpdatePort, log *slog.Logger) *Subscriber {
	if topic == "" {
		topic = DefaultTopic
	}
	if log == nil {
		log = slog.Default()
	}
	return &Subscriber{broker: broker, topic: topic, port: port, log: log.With("component", "hub-updates")}
}

func (s *Subscriber) Start() error {
	s.log.Info("subscribing to hub updates", "topic", s.topic)
	return s.broker.Subscribe(s.topic, s.handle)
}

func (s *Subscriber) handle(topic string, payload []byte) {
	upd, ok := Decode(topic, payload)
	if !ok {
		s.log.Warn("hub update without item name or state", "topic", topic)
		observability.HubUpdateCounter.WithLabelValues("invalid").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	err := s.port.HandleHubUpdate(ctx, upd)
	switch {
	case err == nil:
		observability.HubUpdateCounter.WithLabelValues("ok").Inc()
	case errors.Is(err, service.ErrUnknownItem):
		s.log.Debug("hub update for unmapped item", "item", upd.ItemName)
		observability.HubUpdateCounter.WithLabelValues("unknown_item").Inc()
	default:
		s.log.Error("hub update failed", "item", upd.ItemName, "error", err)
		observability.HubUpdateCounter.WithLabelValues("error").Inc()
	}
}

// Decode reads a hub state message. The payload is either JSON with
// item_name and state, a bare JSON value, or plain text. The item name falls
// back to the second topic segment.
func Decode(topic string, payload []byte) (model.HubUpdate, bool) {
	var upd model.HubUpdate
	text := strings.TrimSpace(string(payload))

	switch {
	case text == "":
	case gjson.Valid(text):
		doc := gjson.Parse(text)
		if doc.IsObject() {
			upd.ItemName = doc.Get("item_name").String()
			if state := doc.Get("state"); state.Exists() && state.Type != gjson.Null {
				upd.Value = state.Value()
			}
		} else if doc.Type != gjson.Null {
			upd.Value = doc.Value()
		}
	default:
		upd.Value = text
	}

	if upd.ItemName == "" {
		if parts := strings.Split(topic, "/"); len(parts) >= 3 {
			upd.ItemName = parts[1]
		}
	}
	return upd, upd.ItemName != "" && upd.Value != nil
}
