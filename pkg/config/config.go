package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all configuration for the application. Defaults mirror the
// HiDeF command line: louvain, resolution 0.001..100, jaccard 0.75.
type Config struct {
	Algorithm string  `koanf:"algorithm"`
	MinRes    float64 `koanf:"minres"`
	MaxRes    float64 `koanf:"maxres"`
	Steps     int     `koanf:"steps"`
	Linear    bool    `koanf:"linear"`
	Threads   int     `koanf:"threads"`
	Seed      uint64  `koanf:"seed"`
	TimeoutS  int     `koanf:"timeout"`

	Jaccard float64 `koanf:"jaccard"`
	MinSize int     `koanf:"minsize"`
	AddRoot bool    `koanf:"addroot"`

	Out     string `koanf:"out"`
	NoCDAPS bool   `koanf:"nocdaps"`

	WebMode    bool   `koanf:"web"`
	Port       int    `koanf:"port"`
	Watch      bool   `koanf:"watch"`
	VerboseCnt int    `koanf:"verbose"`
	Verbosity  string `koanf:"verbosity"`
}

// Timeout returns the sweep wall-clock budget, zero when unlimited.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutS) * time.Second
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"algorithm": "louvain",
		"minres":    0.001,
		"maxres":    100.0,
		"steps":     25,
		"linear":    false,
		"threads":   0,
		"seed":      42,
		"timeout":   0,
		"jaccard":   0.75,
		"minsize":   2,
		"addroot":   true,
		"out":       "",
		"nocdaps":   false,
		"web":       false,
		"port":      8080,
		"watch":     false,
		"verbose":   0,
		"verbosity": "",
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - hidef.toml
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider("hidef.toml"), toml.Parser())

	// 3. Environment Variables
	// Prefix: HIDEF_ (e.g., HIDEF_MAXRES=50)
	if err := k.Load(env.Provider("HIDEF_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "HIDEF_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
