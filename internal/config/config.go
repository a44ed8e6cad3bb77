package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Refresh RefreshConfig `yaml:"refresh"`
	HTTP    HTTPConfig    `yaml:"http"`
	Auth    AuthConfig    `yaml:"auth"`
	Export  ExportConfig  `yaml:"export"`
	Redis   RedisConfig   `yaml:"redis"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Log     LogConfig     `yaml:"log"`
	Display DisplayConfig `yaml:"display"`
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Token   string        `yaml:"token"`
}

type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type AuthConfig struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	AutoLogin bool   `yaml:"auto_login"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// RedisConfig enables the Redis export sink when Addr is set.
type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	TTL         time.Duration `yaml:"ttl"`
	RecentLimit int64         `yaml:"recent_limit"`
}

// MQTTConfig enables chart publishing when Broker is set.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Color bool   `yaml:"color"`
}

type DisplayConfig struct {
	Timezone string `yaml:"timezone"`
}

// Load reads the YAML file at path, applies environment overrides and
// defaults, then validates. An empty path yields defaults plus environment.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.HTTP.Addr = ":" + v
	}
}

func (c *Config) applyDefaults() {
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:5000"
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = 5 * time.Second
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "./exports"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = time.Hour
	}
	if c.Redis.RecentLimit == 0 {
		c.Redis.RecentLimit = 100
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "sensor-dashboard"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "dashboard/charts"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Display.Timezone == "" {
		c.Display.Timezone = "Local"
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url %q is not an absolute URL", c.Backend.BaseURL)
	}
	if c.Refresh.Interval < 0 {
		return fmt.Errorf("refresh.interval must be positive")
	}
	if c.Auth.Username == "" || c.Auth.Password == "" {
		return fmt.Errorf("auth.username and auth.password are required")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("display.timezone: %w", err)
	}
	return nil
}

// Location resolves the display timezone used for labels and reports.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Display.Timezone)
}
