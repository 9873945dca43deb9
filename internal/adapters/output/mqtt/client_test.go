package mqtt

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alexa-smarthome-bridge/internal/domain/model"
)

type doneToken struct {
	err  error
	done chan struct{}
}

func newToken(err error) *doneToken {
	t := &doneToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}          { return t.done }
func (t *doneToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeConn implements the paho calls the client makes.
type fakeConn struct {
	pahomqtt.Client
	published  []published
	subscribed map[string]pahomqtt.MessageHandler
	err        error
}

func (f *fakeConn) Publish(topic string, qos byte, _ bool, payload any) pahomqtt.Token {
	f.published = append(f.published, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return newToken(f.err)
}

func (f *fakeConn) Subscribe(topic string, _ byte, h pahomqtt.MessageHandler) pahomqtt.Token {
	if f.subscribed == nil {
		f.subscribed = map[string]pahomqtt.MessageHandler{}
	}
	f.subscribed[topic] = h
	return newToken(nil)
}

type fakeMessage struct {
	pahomqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

func testClient(conn *fakeConn) *Client {
	return newClient(conn, Options{QoS: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPublish_Envelope(t *testing.T) {
	conn := &fakeConn{}
	err := testClient(conn).Publish(context.Background(), model.Command{
		EndpointID: "blind-1", ItemName: "Bedroom_Blind", HandleGeneric: true,
		Namespace: "Alexa.ModeController", Method: "SetMode", Value: "DOWN",
	})

	require.NoError(t, err)
	require.Len(t, conn.published, 1)
	assert.Equal(t, "alexa", conn.published[0].topic)
	assert.Equal(t, byte(1), conn.published[0].qos)
	assert.JSONEq(t, `{
		"endpointId": "blind-1",
		"openHABItemName": "Bedroom_Blind",
		"openHABHandleGeneric": true,
		"nameSpace": "Alexa.ModeController",
		"requestMethod": "SetMode",
		"payload": "DOWN"
	}`, string(conn.published[0].payload))
}

func TestPublish_Error(t *testing.T) {
	conn := &fakeConn{err: assert.AnError}
	err := testClient(conn).Publish(context.Background(), model.Command{ItemName: "X", Value: 1})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSubscribe_RecoversHandlerPanic(t *testing.T) {
	conn := &fakeConn{}
	c := testClient(conn)
	var got string
	require.NoError(t, c.Subscribe("alexa/+/state", func(topic string, payload []byte) {
		got = topic + "=" + string(payload)
		panic("boom")
	}))

	h := conn.subscribed["alexa/+/state"]
	require.NotNil(t, h)
	assert.NotPanics(t, func() {
		h(nil, fakeMessage{topic: "alexa/Kitchen_Lamp/state", payload: []byte("ON")})
	})
	assert.Equal(t, "alexa/Kitchen_Lamp/state=ON", got)
}

func TestBrokerURL(t *testing.T) {
	assert.Equal(t, "tcp://mosquitto:1883", brokerURL("mqtt://mosquitto:1883"))
	assert.Equal(t, "ssl://broker:8883", brokerURL("mqtts://broker:8883"))
	assert.Equal(t, "tcp://localhost:1883", brokerURL(" "))
}

func TestClientOptions(t *testing.T) {
	c := testClient(&fakeConn{})
	ro := pahomqtt.NewOptionsReader(c.clientOptions(Options{ClientID: "bridge", Username: "u", Password: "p"}, "tcp://broker:1883"))

	assert.False(t, ro.Order(), "messages must not be dispatched in order")
	assert.True(t, ro.AutoReconnect())
	assert.True(t, ro.CleanSession())
	assert.Equal(t, "bridge", ro.ClientID())
	assert.Equal(t, "u", ro.Username())
	require.Len(t, ro.Servers(), 1)
	assert.Equal(t, "broker:1883", ro.Servers()[0].Host)
}
