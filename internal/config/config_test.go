package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.ListenAddr)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "file:bridge.db?_busy_timeout=5000", cfg.Storage.DSN)
	assert.Equal(t, "mqtt", cfg.Hub.Transport)
	assert.Equal(t, "alexa", cfg.Hub.CommandTopic)
	assert.Equal(t, "alexa/+/state", cfg.Hub.StateTopic)
	assert.Equal(t, 1, cfg.Hub.QoS)
	assert.Equal(t, 5*time.Second, cfg.Hub.Timeout)
	assert.Equal(t, "https://api.amazonalexa.com/v3/events", cfg.Alexa.EventsURL)
	assert.False(t, cfg.Alexa.ProactiveEnabled())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  driver: postgres
  dsn: host=db user=bridge
hub:
  broker: mqtt://broker:1883
  timeout: 2s
alexa:
  client_id: amzn1.application-oa2-client.x
  client_secret: secret
  report_schedule: "@every 15m"
`), 0o600))
	t.Setenv("BRIDGE_HUB_BROKER", "mqtts://override:8883")
	t.Setenv("BRIDGE_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "host=db user=bridge", cfg.Storage.DSN)
	assert.Equal(t, "mqtts://override:8883", cfg.Hub.Broker)
	assert.Equal(t, 2*time.Second, cfg.Hub.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "@every 15m", cfg.Alexa.ReportSchedule)
	assert.True(t, cfg.Alexa.ProactiveEnabled())
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("BRIDGE_STORAGE_DRIVER", "mongo")
	t.Setenv("BRIDGE_HUB_TRANSPORT", "hue")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
	assert.Contains(t, err.Error(), "hue_host")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
