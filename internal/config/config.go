// Package config holds bridge configuration.
//
// Configuration is loaded from environment variables with sane defaults.
// The assistant endpoint (host/port) can additionally be overridden at
// runtime through the control channel; overrides are persisted in a small
// key/value store and take effect on the next connection attempt.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all bridge configuration.
type Config struct {
	Transport TransportConfig
	Dispatch  DispatchConfig
	Extract   ExtractConfig
	Control   ControlConfig
	Logging   LogConfig
	Store     StoreConfig
}

// TransportConfig holds assistant-connection configuration.
type TransportConfig struct {
	Host              string        `envconfig:"BRIDGE_HOST" default:"localhost"`
	Port              int           `envconfig:"BRIDGE_PORT" default:"5421"`
	ConnectTimeout    time.Duration `envconfig:"BRIDGE_CONNECT_TIMEOUT" default:"15s"`
	ReconnectBase     time.Duration `envconfig:"BRIDGE_RECONNECT_BASE" default:"5s"`
	ReconnectMax      time.Duration `envconfig:"BRIDGE_RECONNECT_MAX" default:"30s"`
	MaxAttempts       int           `envconfig:"BRIDGE_MAX_ATTEMPTS" default:"5"`
	KeepaliveInterval time.Duration `envconfig:"BRIDGE_KEEPALIVE" default:"30s"`
	QueueCapacity     int           `envconfig:"BRIDGE_QUEUE_CAP" default:"1024"`
}

// URL returns the peer endpoint as a ws:// URL.
func (t TransportConfig) URL() string {
	return fmt.Sprintf("ws://%s:%d", t.Host, t.Port)
}

// DispatchConfig holds request-routing configuration.
type DispatchConfig struct {
	TabQueryTimeout  time.Duration `envconfig:"BRIDGE_TAB_QUERY_TIMEOUT" default:"5s"`
	TabCacheTTL      time.Duration `envconfig:"BRIDGE_TAB_CACHE_TTL" default:"5s"`
	AgentPingTimeout time.Duration `envconfig:"BRIDGE_AGENT_PING_TIMEOUT" default:"3s"`
	RelayTimeout     time.Duration `envconfig:"BRIDGE_RELAY_TIMEOUT" default:"10s"`
	SettleDelay      time.Duration `envconfig:"BRIDGE_SETTLE_DELAY" default:"200ms"`
}

// ExtractConfig holds extraction-cache and scan-bound configuration.
type ExtractConfig struct {
	CacheTTL     time.Duration `envconfig:"BRIDGE_CACHE_TTL" default:"30s"`
	CacheEntries int           `envconfig:"BRIDGE_CACHE_ENTRIES" default:"50"`
	MaxElements  int           `envconfig:"BRIDGE_SCAN_MAX_ELEMENTS" default:"1000"`
	MaxDepth     int           `envconfig:"BRIDGE_SCAN_MAX_DEPTH" default:"10"`
	BatchSize    int           `envconfig:"BRIDGE_SCAN_BATCH" default:"50"`
}

// ControlConfig holds the configuration-UI control channel settings.
type ControlConfig struct {
	Host    string `envconfig:"BRIDGE_CONTROL_HOST" default:"127.0.0.1"`
	Port    int    `envconfig:"BRIDGE_CONTROL_PORT" default:"5422"`
	Enabled bool   `envconfig:"BRIDGE_CONTROL_ENABLED" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"BRIDGE_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"BRIDGE_LOG_DEV" default:"false"`
}

// StoreConfig holds the persisted key/value store location.
type StoreConfig struct {
	Path string `envconfig:"BRIDGE_STORE_PATH" default:"pagelens.db"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Transport: TransportConfig{
			Host:              "localhost",
			Port:              5421,
			ConnectTimeout:    15 * time.Second,
			ReconnectBase:     5 * time.Second,
			ReconnectMax:      30 * time.Second,
			MaxAttempts:       5,
			KeepaliveInterval: 30 * time.Second,
			QueueCapacity:     1024,
		},
		Dispatch: DispatchConfig{
			TabQueryTimeout:  5 * time.Second,
			TabCacheTTL:      5 * time.Second,
			AgentPingTimeout: 3 * time.Second,
			RelayTimeout:     10 * time.Second,
			SettleDelay:      200 * time.Millisecond,
		},
		Extract: ExtractConfig{
			CacheTTL:     30 * time.Second,
			CacheEntries: 50,
			MaxElements:  1000,
			MaxDepth:     10,
			BatchSize:    50,
		},
		Control: ControlConfig{
			Host:    "127.0.0.1",
			Port:    5422,
			Enabled: true,
		},
		Logging: LogConfig{
			Level: "info",
		},
		Store: StoreConfig{
			Path: "pagelens.db",
		},
	}
}

// ApplyEndpoint overlays a persisted endpoint override onto the transport
// section. Empty fields leave the configured value in place.
func (c *Config) ApplyEndpoint(host string, port int) {
	if host != "" {
		c.Transport.Host = host
	}
	if port > 0 {
		c.Transport.Port = port
	}
}
