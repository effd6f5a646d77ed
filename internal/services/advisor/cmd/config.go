package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/logging"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/services/advisor/app"
	"github.com/LeonardoBeccarini/eco_crop_advisor/pkg/rabbitmq"
)

const (
	envPrefix     = "ADVISOR_"
	configPathEnv = "ADVISOR_CONFIG"
)

type HTTPConfig struct {
	Addr              string        `koanf:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	AllowedOrigins    []string      `koanf:"allowed_origins"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
}

type GRPCConfig struct {
	// Addr of the gRPC health listener; empty disables it.
	Addr string `koanf:"addr"`
}

type PacingConfig struct {
	ResultDelay time.Duration `koanf:"result_delay" validate:"gte=0"`
}

type ClimateConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `koanf:"timeout"`
}

type Config struct {
	HTTP    HTTPConfig       `koanf:"http"`
	GRPC    GRPCConfig       `koanf:"grpc"`
	Log     logging.Config   `koanf:"log"`
	Remote  app.RemoteConfig `koanf:"remote"`
	Pacing  PacingConfig     `koanf:"pacing"`
	MQTT    rabbitmq.Config  `koanf:"mqtt"`
	Climate ClimateConfig    `koanf:"climate"`
}

func (c *Config) AppConfig() app.Config {
	return app.Config{Remote: c.Remote, ResultDelay: c.Pacing.ResultDelay}
}

func (c *Config) RouterConfig() app.RouterConfig {
	return app.RouterConfig{AllowedOrigins: c.HTTP.AllowedOrigins, RequestTimeout: c.HTTP.RequestTimeout}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			AllowedOrigins:    []string{"*"},
			RequestTimeout:    15 * time.Second,
		},
		GRPC: GRPCConfig{Addr: ":9090"},
		Log:  logging.Config{Level: "info", Format: "json"},
		Remote: app.RemoteConfig{
			ScorePath: "/predict",
			Timeout:   3 * time.Second,
			Breaker: app.BreakerConfig{
				Failures: 3,
				OpenFor:  30 * time.Second,
				Interval: time.Minute,
			},
		},
		MQTT: rabbitmq.Config{
			Port:       1883,
			ClientID:   "eco-crop-advisor",
			MaxRetries: 5,
		},
		Climate: ClimateConfig{Timeout: 5 * time.Second},
	}
}

// envKeys maps ADVISOR_* variables (prefix stripped, lower case) to config paths.
var envKeys = map[string]string{
	"http_addr":                "http.addr",
	"http_read_header_timeout": "http.read_header_timeout",
	"http_shutdown_timeout":    "http.shutdown_timeout",
	"http_allowed_origins":     "http.allowed_origins",
	"http_request_timeout":     "http.request_timeout",

	"grpc_addr": "grpc.addr",

	"log_level":  "log.level",
	"log_format": "log.format",
	"log_caller": "log.caller",

	"remote_base_url":         "remote.base_url",
	"remote_score_path":       "remote.score_path",
	"remote_chat_path":        "remote.chat_path",
	"remote_timeout":          "remote.timeout",
	"remote_breaker_failures": "remote.breaker.failures",
	"remote_breaker_open_for": "remote.breaker.open_for",
	"remote_breaker_interval": "remote.breaker.interval",

	"pacing_result_delay": "pacing.result_delay",

	"mqtt_host":               "mqtt.host",
	"mqtt_port":               "mqtt.port",
	"mqtt_user":               "mqtt.user",
	"mqtt_password":           "mqtt.password",
	"mqtt_client_id":          "mqtt.client_id",
	"mqtt_persistent_session": "mqtt.persistent_session",
	"mqtt_max_retries":        "mqtt.max_retries",

	"climate_api_key":  "climate.api_key",
	"climate_base_url": "climate.base_url",
	"climate_timeout":  "climate.timeout",
}

var sliceKeys = []string{"http.allowed_origins"}

func envTransform(key string) string {
	return envKeys[strings.ToLower(strings.TrimPrefix(key, envPrefix))]
}

// Load layers defaults, the optional YAML file named by ADVISOR_CONFIG and
// ADVISOR_* environment variables, in that order.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path := strings.TrimSpace(os.Getenv(configPathEnv)); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := splitSlices(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitSlices turns comma separated env values into lists.
func splitSlices(k *koanf.Koanf) error {
	for _, path := range sliceKeys {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Remote.BaseURL != "" {
		if err := v.Var(c.Remote.BaseURL, "url"); err != nil {
			return fmt.Errorf("invalid config: remote.base_url: %w", err)
		}
	}
	return nil
}
