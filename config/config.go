// Package config loads the CLI and engine's static configuration:
// default TTL, default passkey source, metrics enablement, and the
// mmap huge-page preference (SPEC_FULL.md §2). Precedence and
// file-discovery follow the donor's viper+mapstructure+yaml.v3
// pattern (pkg/config/config.go), scaled down to this engine's much
// smaller surface.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the magickcache engine's static configuration.
type Config struct {
	// Logging controls the internal/logger output.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// DefaultTTL is applied to resources whose caller does not set one
	// explicitly, expressed as a duration ("0" means immortal).
	DefaultTTL time.Duration `mapstructure:"default_ttl" yaml:"default_ttl"`

	// PasskeyFile is the default path the CLI reads a repository
	// passkey from when -passkey is not given (spec §6.3).
	PasskeyFile string `mapstructure:"passkey_file" yaml:"passkey_file"`

	// Metrics controls whether pkg/metrics.Enable is called at startup.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// MmapHugePages opportunistically requests MAP_HUGETLB for payload
	// reads (pkg/fsutil.MapFile); disabling it always falls back to an
	// ordinary MAP_SHARED mapping.
	MmapHugePages bool `mapstructure:"mmap_huge_pages" yaml:"mmap_huge_pages"`
}

// LoggingConfig holds internal/logger settings. The CLI applies Level;
// Format is loaded but not read, and output is always the text handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		DefaultTTL:  0,
		PasskeyFile: "",
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9090",
		},
		MmapHugePages: true,
	}
}

// Load reads configuration from configPath (or the default search
// path when empty), environment variables prefixed MAGICKCACHE_, and
// falls back to Default for anything unset (spec §6 ambient stack,
// donor's Load/setupViper/readConfigFile triad).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path in YAML form (donor's SaveConfig).
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create dir: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("MAGICKCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Bind every key so MAGICKCACHE_* overrides apply even when no
	// config file sets the key (or no file is found at all).
	for _, key := range []string{"logging.level", "logging.format", "default_ttl", "passkey_file", "metrics.enabled", "metrics.listen", "mmap_huge_pages"} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	dir, err := os.UserConfigDir()
	if err == nil {
		v.AddConfigPath(filepath.Join(dir, "magickcache"))
	}
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read: %w", err)
	}
	return true, nil
}
