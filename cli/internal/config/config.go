// Package config persists CLI profiles in ~/.hsg245/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultProxyURL   = "http://localhost:3000/api/hsg245"
	DefaultBackendURL = "https://hsercanalysisagenticai-production.up.railway.app"
	DefaultMode       = "proxy"
	DefaultReportDir  = "."
)

// Environment overrides applied by Profile.Resolve.
const (
	EnvProxyURL   = "HSG245_PROXY_URL"
	EnvBackendURL = "HSG245_BACKEND_URL"
	EnvMode       = "HSG245_MODE"
	EnvNATSURL    = "HSG245_NATS_URL"
)

type Config struct {
	CurrentProfile string              `yaml:"current_profile"`
	Profiles       map[string]*Profile `yaml:"profiles"`
	path           string
}

type Profile struct {
	ProxyURL   string `yaml:"proxy_url,omitempty"`
	BackendURL string `yaml:"backend_url,omitempty"`
	Mode       string `yaml:"mode,omitempty"`
	ReportDir  string `yaml:"report_dir,omitempty"`
	NATSURL    string `yaml:"nats_url,omitempty"`
}

func Default() *Config {
	return &Config{
		CurrentProfile: "default",
		Profiles:       make(map[string]*Profile),
	}
}

// DefaultPath returns ~/.hsg245/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".hsg245", "config.yaml"), nil
}

// Load reads cfgFile, or the default path when empty. A missing file yields defaults.
func Load(cfgFile string) (*Config, error) {
	if cfgFile == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		cfgFile = p
	}

	cfg := Default()
	cfg.path = cfgFile

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", cfgFile, err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]*Profile)
	}

	return cfg, nil
}

// Path is where Save writes.
func (c *Config) Path() string { return c.path }

func (c *Config) Save() error {
	if c.path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		c.path = p
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0600)
}

// SetProfile stores p under name, makes it current and saves.
func (c *Config) SetProfile(name string, p *Profile) error {
	if p.Mode != "" && p.Mode != "proxy" && p.Mode != "direct" {
		return fmt.Errorf("invalid mode %q: must be proxy or direct", p.Mode)
	}
	if c.Profiles == nil {
		c.Profiles = make(map[string]*Profile)
	}
	c.Profiles[name] = p
	c.CurrentProfile = name
	return c.Save()
}

// GetProfile returns the named profile, or the current one when name is
// empty. An unknown default profile resolves to an empty Profile.
func (c *Config) GetProfile(name string) (*Profile, error) {
	if name == "" {
		name = c.CurrentProfile
	}

	profile, ok := c.Profiles[name]
	if !ok {
		if name == "default" || name == "" {
			return &Profile{}, nil
		}
		return nil, fmt.Errorf("profile '%s' not found", name)
	}

	return profile, nil
}

// UseProfile switches the current profile and saves.
func (c *Config) UseProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile '%s' not found", name)
	}
	c.CurrentProfile = name
	return c.Save()
}

func (c *Config) RemoveProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile '%s' not found", name)
	}

	delete(c.Profiles, name)

	if c.CurrentProfile == name {
		c.CurrentProfile = ""
	}

	return c.Save()
}

// Resolve fills blanks with environment overrides, then defaults.
// Environment variables win over values stored in the profile.
func (p Profile) Resolve() Profile {
	out := p
	pick := func(dst *string, env, def string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
		if *dst == "" {
			*dst = def
		}
	}
	pick(&out.ProxyURL, EnvProxyURL, DefaultProxyURL)
	pick(&out.BackendURL, EnvBackendURL, DefaultBackendURL)
	pick(&out.Mode, EnvMode, DefaultMode)
	pick(&out.NATSURL, EnvNATSURL, "")
	if out.ReportDir == "" {
		out.ReportDir = DefaultReportDir
	}
	return out
}

// Endpoint is the base URL the client should use for the profile's mode.
func (p Profile) Endpoint() string {
	if p.Mode == "direct" {
		return p.BackendURL
	}
	return p.ProxyURL
}
