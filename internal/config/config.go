package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type AppConfig struct {
	HTTP    HTTPConfig    `json:"http"`
	Fleet   FleetConfig   `json:"fleet"`
	Publish PublishConfig `json:"publish"`
	History HistoryConfig `json:"history"`
}

type HTTPConfig struct {
	Addr      string `json:"addr"`
	CompatAPI *bool  `json:"compat_api"`
}

type FleetConfig struct {
	Count       int      `json:"count"`
	Model       string   `json:"model"`
	Models      []string `json:"models"`
	Scenario    string   `json:"scenario"`
	TickHz      float64  `json:"tick_hz"`
	WarmupS     float64  `json:"warmup_s"`
	ConfigRampS float64  `json:"config_ramp_s"`
	Seed        int64    `json:"seed"`
}

type PublishConfig struct {
	Enabled   bool   `json:"enabled"`
	Host      string `json:"host"`
	StartPort int    `json:"start_port"`
	Ports     []int  `json:"ports"`
}

type HistoryConfig struct {
	Path            string `json:"path"`
	IntervalSeconds int    `json:"interval_seconds"`
}

// Default returns the configuration used when no config file exists.
func Default() AppConfig {
	cfg := AppConfig{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates a JSON config file. A missing file is not an
// error: the defaults are returned so the emulator runs out of the box.
func Load(path string) (AppConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return AppConfig{}, fmt.Errorf("read config %s: %w", absPath, err)
	}

	var cfg AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config %s: %w", filepath.Base(absPath), err)
	}

	if err := cfg.validate(filepath.Dir(absPath)); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8081"
	}
	if c.HTTP.CompatAPI == nil {
		enabled := true
		c.HTTP.CompatAPI = &enabled
	}

	if c.Fleet.Count <= 0 {
		c.Fleet.Count = 1
	}
	if c.Fleet.Model == "" {
		c.Fleet.Model = "bm1370_4chip"
	}
	if c.Fleet.Scenario == "" {
		c.Fleet.Scenario = "healthy"
	}
	if c.Fleet.TickHz <= 0 {
		c.Fleet.TickHz = 1.0
	}
	if c.Fleet.WarmupS == 0 {
		c.Fleet.WarmupS = 20.0
	} else if c.Fleet.WarmupS < 0 {
		c.Fleet.WarmupS = 0
	}
	if c.Fleet.ConfigRampS == 0 {
		c.Fleet.ConfigRampS = 8.0
	} else if c.Fleet.ConfigRampS < 0 {
		c.Fleet.ConfigRampS = 0
	}

	if c.Publish.Host == "" {
		c.Publish.Host = "0.0.0.0"
	}

	if c.History.IntervalSeconds <= 0 {
		c.History.IntervalSeconds = 15
	}
}

func (c *AppConfig) validate(baseDir string) error {
	c.applyDefaults()

	for i, model := range c.Fleet.Models {
		c.Fleet.Models[i] = strings.TrimSpace(model)
	}

	for _, port := range c.Publish.Ports {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("publish port %d is out of range", port)
		}
	}
	if c.Publish.StartPort < 0 || c.Publish.StartPort > 65535 {
		return fmt.Errorf("publish start port %d is out of range", c.Publish.StartPort)
	}

	if c.History.Path != "" && !filepath.IsAbs(c.History.Path) {
		c.History.Path = filepath.Clean(filepath.Join(baseDir, c.History.Path))
	}

	return nil
}

// CompatEnabled reports whether the single-miner device-compat endpoints are
// served on the main listener.
func (c AppConfig) CompatEnabled() bool {
	return c.HTTP.CompatAPI == nil || *c.HTTP.CompatAPI
}

// ModelIDs returns count model ids, cycling through the configured list so a
// mixed 5V/12V fleet can be spun up from one flag.
func (c AppConfig) ModelIDs(count int) []string {
	models := make([]string, 0, len(c.Fleet.Models))
	for _, m := range c.Fleet.Models {
		if m != "" {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		models = []string{c.Fleet.Model}
	}
	out := make([]string, count)
	for i := 0; i < count; i++ {
		out[i] = models[i%len(models)]
	}
	return out
}
