package aterm

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/tailscale/hujson"
)

// Config tunes collector and pool behavior. The zero value is not
// directly usable; call [DefaultConfig] and override fields, or use
// [LoadConfig] to layer a config file and environment variables on top
// of the defaults.
//
// There is no hidden initialization on first use: a [Pool] is only ever
// created by passing an explicit Config to [Init], which keeps test
// isolation practical (each test gets its own pool with its own tuning).
type Config struct {
	// AutomaticGC enables the background/load-factor collection triggers.
	// Overridden by the AUTO_GC environment variable when set.
	AutomaticGC bool `json:"auto_gc"`

	// MarkDepthLimit bounds the explicit mark-stack depth the collector
	// will walk before treating the pool as corrupt. Zero means
	// unbounded. Overridden by MARK_DEPTH_LIMIT when set.
	MarkDepthLimit int `json:"mark_depth_limit"`

	// GCLoadFactor is the bucket-table load factor ((live entries +
	// tombstones) / bucket count) at or above which an automatic
	// collection is triggered.
	// Overridden by ATERM_GC_LOAD_FACTOR.
	GCLoadFactor float64 `json:"gc_load_factor"`

	// GCBackgroundInterval, when non-zero and AutomaticGC is enabled,
	// runs a periodic background collection on this interval in
	// addition to the load-factor trigger. Overridden by
	// ATERM_GC_BACKGROUND_INTERVAL (a Go duration string, e.g. "30s").
	GCBackgroundInterval string `json:"gc_background_interval"`

	// InitialCapacity is the power-of-two starting capacity of the term
	// pool's hash-consing table.
	InitialCapacity int `json:"initial_capacity"`
}

// DefaultConfig returns the baseline configuration used when no config
// file or environment override is present.
func DefaultConfig() Config {
	return Config{
		AutomaticGC:          true,
		MarkDepthLimit:       0,
		GCLoadFactor:         0.75,
		GCBackgroundInterval: "",
		InitialCapacity:      1024,
	}
}

// LoadConfig layers, highest precedence last: defaults, an optional
// HUJSON config file at configPath (if non-empty; JSON-with-comments, as
// the format makes a hand-edited tuning file bearable), then
// environment variables (AUTO_GC, MARK_DEPTH_LIMIT,
// ATERM_GC_LOAD_FACTOR, ATERM_GC_BACKGROUND_INTERVAL).
func LoadConfig(configPath string, env map[string]string) (Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath) //nolint:gosec // caller-controlled path
		if err != nil {
			return Config{}, fmt.Errorf("aterm: read config %s: %w", configPath, err)
		}

		standardized, err := hujson.Standardize(data)
		if err != nil {
			return Config{}, fmt.Errorf("aterm: config %s is not valid JSONC: %w", configPath, err)
		}

		if err := unmarshalConfigJSON(standardized, &cfg); err != nil {
			return Config{}, fmt.Errorf("aterm: config %s: %w", configPath, err)
		}
	}

	applyEnv(&cfg, env)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// unmarshalConfigJSON decodes standardized (comment-free) JSON onto cfg,
// leaving any field absent from the document at its current (default)
// value.
func unmarshalConfigJSON(standardized []byte, cfg *Config) error {
	return json.Unmarshal(standardized, cfg)
}

func applyEnv(cfg *Config, env map[string]string) {
	if v, ok := env["AUTO_GC"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AutomaticGC = b
		}
	}

	if v, ok := env["MARK_DEPTH_LIMIT"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MarkDepthLimit = n
		}
	}

	if v, ok := env["ATERM_GC_LOAD_FACTOR"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.GCLoadFactor = f
		}
	}

	if v, ok := env["ATERM_GC_BACKGROUND_INTERVAL"]; ok {
		cfg.GCBackgroundInterval = v
	}
}

func (c Config) validate() error {
	if c.GCLoadFactor <= 0 || c.GCLoadFactor > 1 {
		return fmt.Errorf("aterm: gc_load_factor must be in (0, 1], got %v", c.GCLoadFactor)
	}

	if c.InitialCapacity <= 0 || c.InitialCapacity&(c.InitialCapacity-1) != 0 {
		return fmt.Errorf("aterm: initial_capacity must be a power of two, got %d", c.InitialCapacity)
	}

	if c.MarkDepthLimit < 0 {
		return fmt.Errorf("aterm: mark_depth_limit must be >= 0, got %d", c.MarkDepthLimit)
	}

	return nil
}
