package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Hub     HubConfig     `mapstructure:"hub"`
	Alexa   AlexaConfig   `mapstructure:"alexa"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type HTTPConfig struct {
	ListenAddr  string   `mapstructure:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	JWTSecret   string   `mapstructure:"jwt_secret"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

type StorageConfig struct {
	// Driver is one of file, sqlite or postgres.
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Path   string `mapstructure:"path"`
}

type HubConfig struct {
	// Transport is mqtt or hue.
	Transport    string        `mapstructure:"transport"`
	Broker       string        `mapstructure:"broker"`
	ClientID     string        `mapstructure:"client_id"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	CommandTopic string        `mapstructure:"command_topic"`
	StateTopic   string        `mapstructure:"state_topic"`
	QoS          int           `mapstructure:"qos"`
	Timeout      time.Duration `mapstructure:"timeout"`
	HueHost      string        `mapstructure:"hue_host"`
	HueUser      string        `mapstructure:"hue_user"`
}

type AlexaConfig struct {
	Manufacturer string        `mapstructure:"manufacturer"`
	EventsURL    string        `mapstructure:"events_url"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	TokenURL     string        `mapstructure:"token_url"`
	TokenStore   string        `mapstructure:"token_store"`
	Timeout      time.Duration `mapstructure:"timeout"`
	// ReportSchedule is a cron spec for periodic change reports. Empty
	// disables the schedule.
	ReportSchedule string `mapstructure:"report_schedule"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// ProactiveEnabled reports whether event gateway credentials are set.
func (c AlexaConfig) ProactiveEnabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func defaults(v *viper.Viper) {
	v.SetDefault("http.listen_addr", ":8080")
	v.SetDefault("http.cors_origins", []string{"*"})
	v.SetDefault("http.jwt_secret", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.compress", true)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "file:bridge.db?_busy_timeout=5000")
	v.SetDefault("storage.path", "devices.json")

	v.SetDefault("hub.transport", "mqtt")
	v.SetDefault("hub.broker", "tcp://localhost:1883")
	v.SetDefault("hub.client_id", "alexa-bridge")
	v.SetDefault("hub.username", "")
	v.SetDefault("hub.password", "")
	v.SetDefault("hub.command_topic", "alexa")
	v.SetDefault("hub.state_topic", "alexa/+/state")
	v.SetDefault("hub.qos", 1)
	v.SetDefault("hub.timeout", 5*time.Second)
	v.SetDefault("hub.hue_host", "")
	v.SetDefault("hub.hue_user", "")

	v.SetDefault("alexa.manufacturer", "openHAB")
	v.SetDefault("alexa.events_url", "https://api.amazonalexa.com/v3/events")
	v.SetDefault("alexa.client_id", "")
	v.SetDefault("alexa.client_secret", "")
	v.SetDefault("alexa.token_url", "https://api.amazon.com/auth/o2/token")
	v.SetDefault("alexa.token_store", "memory")
	v.SetDefault("alexa.timeout", 10*time.Second)
	v.SetDefault("alexa.report_schedule", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "alexa:lwa:token")
}

// Load reads the YAML file at path, if any, over the defaults. Every key
// can be overridden from the environment as BRIDGE_<SECTION>_<KEY>.
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix("BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.Storage.Driver {
	case "file", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q: want file, sqlite or postgres", c.Storage.Driver))
	}
	switch c.Hub.Transport {
	case "mqtt":
	case "hue":
		if c.Hub.HueHost == "" || c.Hub.HueUser == "" {
			errs = append(errs, errors.New("hub.transport hue needs hub.hue_host and hub.hue_user"))
		}
	default:
		errs = append(errs, fmt.Errorf("hub.transport %q: want mqtt or hue", c.Hub.Transport))
	}
	if c.Hub.QoS < 0 || c.Hub.QoS > 2 {
		errs = append(errs, fmt.Errorf("hub.qos %d out of range", c.Hub.QoS))
	}
	switch c.Alexa.TokenStore {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("alexa.token_store %q: want memory or redis", c.Alexa.TokenStore))
	}
	return errors.Join(errs...)
}
