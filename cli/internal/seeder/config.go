// Package seeder generates synthetic incidents and pushes them through the
// full investigation workflow for demos and smoke tests.
package seeder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the demo configuration.
type Config struct {
	Defaults DefaultsConfig `mapstructure:"defaults" yaml:"defaults"`
}

// DefaultsConfig holds demo settings.
type DefaultsConfig struct {
	Count      int           `mapstructure:"count" yaml:"count"`
	Interval   time.Duration `mapstructure:"interval" yaml:"interval"`
	ReportDir  string        `mapstructure:"report_dir" yaml:"report_dir"`
	Seed       int64         `mapstructure:"seed" yaml:"seed"`
	Categories []string      `mapstructure:"categories" yaml:"categories"`
}

// LoadConfig loads configuration with cascade: flags > ./demo.yaml > ~/.hsg245/demo.yaml > defaults
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("demo")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("HSG245_DEMO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".hsg245"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("defaults.count", 3)
	v.SetDefault("defaults.interval", 0)
	v.SetDefault("defaults.report_dir", "")
	v.SetDefault("defaults.seed", 0)
	v.SetDefault("defaults.categories", []string{
		"Incident (Near-miss / Undesired circumstance)",
		"Injury",
		"Ill health",
		"Dangerous occurrence",
	})
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Defaults.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", c.Defaults.Count)
	}
	if c.Defaults.Interval < 0 {
		return fmt.Errorf("interval must be non-negative, got %v", c.Defaults.Interval)
	}
	if len(c.Defaults.Categories) == 0 {
		return errors.New("at least one category is required")
	}
	return nil
}
