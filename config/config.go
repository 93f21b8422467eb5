// Package config loads the application configuration from a JSON or YAML
// file with optional RF_-prefixed environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/steelroute/rakeflow/core/pipeline"
	"github.com/steelroute/rakeflow/infra/mqtt"
)

type Config struct {
	Pipeline pipeline.Config `json:"pipeline"`
	Metrics  MetricsConfig   `json:"metrics"`
	MQTT     mqtt.Config     `json:"mqtt"`
}

// MetricsConfig selects the enabled sinks.
type MetricsConfig struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`

	InfluxEnabled bool   `json:"influx_enabled"`
	InfluxURL     string `json:"influx_url"`
	InfluxToken   string `json:"influx_token"`
	InfluxOrg     string `json:"influx_org"`
	InfluxBucket  string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":2112"
	}
}

// Validate checks mandatory fields of the enabled sinks.
func (c MetricsConfig) Validate() error {
	if c.InfluxEnabled && c.InfluxURL == "" {
		return fmt.Errorf("influx_url is required when influx is enabled")
	}
	return nil
}

// Default returns the configuration with every section at its defaults.
func Default() *Config {
	var cfg Config
	cfg.Pipeline.SetDefaults()
	cfg.Metrics.SetDefaults()
	return &cfg
}

// Load reads the file at path, applies environment overrides, and validates
// every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. RF_PIPELINE__SEED=7.
	if err := k.Load(env.Provider("RF_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "rf_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Pipeline.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Pipeline.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
