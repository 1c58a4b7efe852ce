package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TwilioConfig holds the telephony provider credentials used for webhook
// handling and live-call redirects.
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
}

// OpenAIConfig holds the realtime speech service credentials and model
// selection.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
	Voice  string `yaml:"voice"`
}

type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	// PublicHost is the externally reachable host for webhook-generated
	// URLs, e.g. "receptionist.example.com". The provider connects back to
	// wss://<PublicHost>/media-stream.
	PublicHost string `yaml:"public_host"`

	LogLevel string `yaml:"log_level"`

	Twilio TwilioConfig `yaml:"twilio"`
	OpenAI OpenAIConfig `yaml:"openai"`

	// SettleDelayMS is the pause between stream start and the assistant's
	// greeting. IdleTimeoutMS is how long a silent media stream survives.
	SettleDelayMS int `yaml:"settle_delay_ms"`
	IdleTimeoutMS int `yaml:"idle_timeout_ms"`
}

// Load reads the YAML config at path and applies defaults and environment
// overrides. OPENAI_API_KEY and TWILIO_AUTH_TOKEN, when set, take
// precedence over the file so secrets can stay out of it.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAI.APIKey = key
	}
	if tok := os.Getenv("TWILIO_AUTH_TOKEN"); tok != "" {
		cfg.Twilio.AuthToken = tok
	}

	cfg.applyDefaults()

	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("config: openai api key is required (file or OPENAI_API_KEY)")
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-realtime-preview-2024-10-01"
	}
	if c.OpenAI.Voice == "" {
		c.OpenAI.Voice = "alloy"
	}
	if c.SettleDelayMS == 0 {
		c.SettleDelayMS = 500
	}
	if c.IdleTimeoutMS == 0 {
		c.IdleTimeoutMS = 7000
	}
}

// SettleDelay returns the greeting settle delay as a duration.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}

// IdleTimeout returns the media idle timeout as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMS) * time.Millisecond
}

// StreamURL returns the WebSocket URL the provider should connect its
// media stream to.
func (c *Config) StreamURL() string {
	return fmt.Sprintf("wss://%s/media-stream", c.PublicHost)
}
