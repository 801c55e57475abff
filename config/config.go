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

	"github.com/kilianp07/meterplan/core/metrics"
	"github.com/kilianp07/meterplan/infra/mqtt"
	"github.com/kilianp07/meterplan/infra/store"
)

// Config aggregates all service settings.
type Config struct {
	Store    store.Config   `json:"store"`
	Planning PlanningConfig `json:"planning"`
	Logging  LoggingConfig  `json:"logging"`
	Metrics  metrics.Config `json:"metrics"`
	MQTT     mqtt.Config    `json:"mqtt"`
}

// Load reads the configuration file (yaml or json by extension) and applies
// MP_ environment overrides (MP_STORE__PATH=... maps to store.path).
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
	// Optional environment overrides
	if err := k.Load(env.Provider("MP_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "mp_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Store.SetDefaults()
	cfg.Planning.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Planning.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
