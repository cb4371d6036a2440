// Package config holds relay daemon configuration. Tier capacities and
// timeouts are compile-time constants by design and deliberately absent
// here; config covers addresses and link tuning only.
package config

import (
	"fmt"
	"os"
	"time"

	yaml "go.yaml.in/yaml/v2"
)

// Duration wraps time.Duration so YAML values can be written as "10ms"
// rather than nanosecond integers.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds relay daemon configuration.
type Config struct {
	// IngestAddress is the local UDP socket the upstream packet bridge
	// writes outgoing application messages to.
	IngestAddress string `yaml:"ingest_address"`
	// HTTPAddress serves /metrics and /healthz.
	HTTPAddress string `yaml:"http_address"`

	// Short-range bench link endpoints. Empty disables the bench link
	// and a discarding null driver is used instead.
	ShortRangeLocal  string `yaml:"short_range_local"`
	ShortRangeRemote string `yaml:"short_range_remote"`
	// LinkPSK keys the short-range frame codec.
	LinkPSK string `yaml:"link_psk"`

	// LongRangeAddress is the QUIC bench peer standing in for the
	// long-range radio. Empty disables the bench link.
	LongRangeAddress string `yaml:"long_range_address"`

	// PrimaryPeer is the node whose reachability gates short-range
	// availability.
	PrimaryPeer uint8 `yaml:"primary_peer"`

	// Scheduler loop tuning. DrainPerTick bounds head operations per
	// tick; it must comfortably exceed the expected arrival rate per
	// tick or tiers saturate.
	TickInterval Duration `yaml:"tick_interval"`
	DrainPerTick int      `yaml:"drain_per_tick"`

	// Long-range link tuning.
	DutyCycle       float64  `yaml:"duty_cycle"`
	AirtimeBurst    Duration `yaml:"airtime_burst"`
	FECDataShards   int      `yaml:"fec_data_shards"`
	FECParityShards int      `yaml:"fec_parity_shards"`
	FECMaxParity    int      `yaml:"fec_max_parity"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		IngestAddress:   "127.0.0.1:14550",
		HTTPAddress:     "127.0.0.1:8090",
		LinkPSK:         "aerolink-bench",
		PrimaryPeer:     1,
		TickInterval:    Duration(10 * time.Millisecond),
		DrainPerTick:    32,
		DutyCycle:       0.01,
		AirtimeBurst:    Duration(2 * time.Second),
		FECDataShards:   4,
		FECParityShards: 2,
		FECMaxParity:    8,
		LogLevel:        "info",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DrainPerTick < 1 {
		return fmt.Errorf("drain_per_tick must be at least 1, got %d", c.DrainPerTick)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval.Std())
	}
	if c.DutyCycle <= 0 || c.DutyCycle > 1 {
		return fmt.Errorf("duty_cycle must be in (0,1], got %g", c.DutyCycle)
	}
	if c.FECDataShards < 1 || c.FECParityShards < 1 {
		return fmt.Errorf("fec shard counts must be at least 1")
	}
	if c.FECMaxParity < c.FECParityShards {
		return fmt.Errorf("fec_max_parity %d below fec_parity_shards %d", c.FECMaxParity, c.FECParityShards)
	}
	return nil
}
