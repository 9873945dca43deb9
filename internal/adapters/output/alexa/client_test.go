package alexa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/ports"
)

func TestClient_Send(t *testing.T) {
	var (
		auth string
		got  map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	b := domain.NewBuilder(domain.WithClock(func() time.Time { return time.Unix(0, 0) }))
	msg := b.ChangeReport("lamp-1", "access", domain.CausePhysicalInteraction, nil, []domain.Property{domain.Connectivity()})

	err := NewClient(srv.URL+"/", time.Second).Send(context.Background(), "access", msg)
	require.NoError(t, err)
	assert.Equal(t, "Bearer access", auth)
	assert.Equal(t, "ChangeReport", got["event"].(map[string]any)["header"].(map[string]any)["name"])
}

func TestClient_SendStatuses(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"header":{"name":"ErrorResponse"}}`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, time.Second)

	err := c.Send(context.Background(), "stale", domain.Message{})
	assert.ErrorIs(t, err, ports.ErrUnauthorized)

	status = http.StatusBadRequest
	err = c.Send(context.Background(), "ok", domain.Message{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrUnauthorized)
	assert.Contains(t, err.Error(), "400")
}

func TestClient_DefaultURL(t *testing.T) {
	c := NewClient("", 0)
	assert.Equal(t, DefaultEventsURL, c.url)
}
