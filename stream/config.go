package stream

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"
)

// Config defaults.
const (
	DefaultListen      = ":3000"
	DefaultFrameRate   = 30.0
	DefaultControlRate = 10
	DefaultClientID    = "seqtx"
)

// Environment variables that override the MQTT settings of the config file.
const (
	EnvMqttURL      = "SEQTX_MQTT_URL"
	EnvMqttUsername = "SEQTX_MQTT_USERNAME"
	EnvMqttPassword = "SEQTX_MQTT_PASSWORD"
)

type Config struct {
	Listen      string   `yaml:"listen"`
	FrameRate   float64  `yaml:"frameRate"`
	ControlRate int      `yaml:"controlRate"`
	Default     string   `yaml:"default"`
	Datasets    []string `yaml:"datasets"`
	Mqtt        struct {
		URL      string `yaml:"url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		ClientID string `yaml:"clientID"`
		QoS      byte   `yaml:"qos"`
		Topics   struct {
			Frames  string `yaml:"frames"`
			Control string `yaml:"control"`
		} `yaml:"topics"`
	} `yaml:"mqtt"`
}

// NewConfig returns a Config with defaults applied. A ControlRate of 0
// disables command rate limiting.
func NewConfig() *Config {
	c := new(Config)
	c.ControlRate = DefaultControlRate
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.FrameRate == 0 {
		c.FrameRate = DefaultFrameRate
	}
	if c.Mqtt.ClientID == "" {
		c.Mqtt.ClientID = DefaultClientID
	}
	if c.Mqtt.Topics.Frames == "" {
		c.Mqtt.Topics.Frames = "seqtx/frames"
	}
	if c.Mqtt.Topics.Control == "" {
		c.Mqtt.Topics.Control = "seqtx/control"
	}
}

// Validate checks the config for values that cannot work.
func (c *Config) Validate() error {
	if c.FrameRate <= 0 || c.FrameRate > 120 {
		return fmt.Errorf("frameRate %v out of range (0,120]", c.FrameRate)
	}
	if c.ControlRate < 0 {
		return fmt.Errorf("controlRate %d is negative", c.ControlRate)
	}
	if c.Mqtt.QoS > 2 {
		return fmt.Errorf("mqtt qos %d out of range [0,2]", c.Mqtt.QoS)
	}
	return nil
}

// ApplyEnv overrides MQTT settings from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvMqttURL); v != "" {
		c.Mqtt.URL = v
	}
	if v := os.Getenv(EnvMqttUsername); v != "" {
		c.Mqtt.Username = v
	}
	if v := os.Getenv(EnvMqttPassword); v != "" {
		c.Mqtt.Password = v
	}
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	// Keys absent from the file keep their defaults.
	c := NewConfig()
	decoder := yaml.NewDecoder(f)
	decoder.SetStrict(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
