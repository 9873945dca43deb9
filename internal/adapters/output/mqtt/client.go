package mqtt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"alexa-smarthome-bridge/internal/domain/model"
)

const (
	defaultConnectTimeout    = 15 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultDisconnectQuiesce = 1000 // milliseconds
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
	// CommandTopic receives every hub command.
	CommandTopic string
	QoS          byte
	// Timeout bounds a publish when the caller's context has no deadline.
	Timeout time.Duration
}

// Client publishes hub commands and dispatches hub updates. Subscriptions
// are restored after a reconnect.
type Client struct {
	conn    pahomqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
	log     *slog.Logger

	mu   sync.RWMutex
	subs map[string]func(topic string, payload []byte)
}

func brokerURL(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" {
		url = "tcp://localhost:1883"
	}
	if strings.HasPrefix(url, "mqtt://") {
		url = "tcp://" + strings.TrimPrefix(url, "mqtt://")
	}
	if strings.HasPrefix(url, "mqtts://") {
		url = "ssl://" + strings.TrimPrefix(url, "mqtts://")
	}
	return url
}

func Connect(opts Options, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	c := newClient(nil, opts, log)
	url := brokerURL(opts.Broker)

	c.conn = pahomqtt.NewClient(c.clientOptions(opts, url))
	tok := c.conn.Connect()
	if !tok.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout after %v", url, defaultConnectTimeout)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", url, err)
	}
	return c, nil
}

func (c *Client) clientOptions(opts Options, url string) *pahomqtt.ClientOptions {
	po := pahomqtt.NewClientOptions()
	po.AddBroker(url)
	clientID := opts.ClientID
	if strings.TrimSpace(clientID) == "" {
		clientID = "alexa-bridge-" + time.Now().Format("150405.000")
	}
	po.SetClientID(clientID)
	if opts.Username != "" {
		po.SetUsername(opts.Username)
		po.SetPassword(opts.Password)
	}
	if strings.HasPrefix(url, "ssl://") {
		po.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	po.SetCleanSession(true)
	po.SetAutoReconnect(true)
	po.SetConnectRetry(true)
	po.SetConnectRetryInterval(2 * time.Second)
	po.SetKeepAlive(30 * time.Second)
	po.SetPingTimeout(10 * time.Second)
	// Each message is dispatched on its own goroutine.
	po.SetOrderMatters(false)
	po.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.log.Warn("mqtt connection lost", "error", err)
	})
	po.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.log.Info("mqtt connected", "broker", url)
		c.restoreSubscriptions()
	})
	return po
}

func newClient(conn pahomqtt.Client, opts Options, log *slog.Logger) *Client {
	topic := opts.CommandTopic
	if topic == "" {
		topic = "alexa"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &Client{
		conn:    conn,
		topic:   topic,
		qos:     opts.QoS,
		timeout: timeout,
		log:     log.With("component", "mqtt"),
		subs:    make(map[string]func(string, []byte)),
	}
}

// envelope is the command message the hub rules consume.
type envelope struct {
	EndpointID    string `json:"endpointId"`
	ItemName      string `json:"openHABItemName"`
	HandleGeneric bool   `json:"openHABHandleGeneric"`
	Namespace     string `json:"nameSpace"`
	Method        string `json:"requestMethod"`
	Payload       any    `json:"payload"`
}

func encodeCommand(cmd model.Command) ([]byte, error) {
	return json.Marshal(envelope{
		EndpointID:    cmd.EndpointID,
		ItemName:      cmd.ItemName,
		HandleGeneric: cmd.HandleGeneric,
		Namespace:     cmd.Namespace,
		Method:        cmd.Method,
		Payload:       cmd.Value,
	})
}

func (c *Client) Publish(ctx context.Context, cmd model.Command) error {
	payload, err := encodeCommand(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	tok := c.conn.Publish(c.topic, c.qos, false, payload)

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	select {
	case <-tok.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return ErrPublishTimeout
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", c.topic, err)
	}
	return nil
}

// Subscribe registers handler for topic. Handlers run on paho goroutines
// and must not block for long.
func (c *Client) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	c.mu.Lock()
	c.subs[topic] = handler
	c.mu.Unlock()

	tok := c.conn.Subscribe(topic, 1, c.wrap(handler))
	tok.Wait()
	return tok.Error()
}

func (c *Client) restoreSubscriptions() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for topic, handler := range c.subs {
		c.conn.Subscribe(topic, 1, c.wrap(handler))
	}
}

func (c *Client) wrap(handler func(string, []byte)) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.log.Error("mqtt handler panic recovered", "topic", msg.Topic(), "panic", r)
			}
		}()
		handler(msg.Topic(), msg.Payload())
	}
}

func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

func (c *Client) Close() {
	if c == nil || c.conn == nil {
		return
	}
	c.conn.Disconnect(defaultDisconnectQuiesce)
}
