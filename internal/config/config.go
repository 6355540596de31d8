// Package config provides configuration management for wifiroamd.
//
// Daemon settings live in a single YAML file; the trusted-network
// allow-list lives in its own file (see the loader package) because it is
// re-read every cycle while the daemon config is read once at startup.
//
// Config file locations (priority order):
//  1. $WIFIROAMD_CONFIG
//  2. ./wifiroamd.yaml
//  3. $XDG_CONFIG_HOME/wifiroamd/config.yaml
//  4. ~/.config/wifiroamd/config.yaml
//  5. /etc/wifiroamd/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	// Interface is the wireless interface to manage. Empty means
	// auto-detect the first wireless interface at startup.
	Interface string `yaml:"interface"`

	// Backend selects the wireless mechanism: "nmcli" or "wpa".
	Backend string `yaml:"backend"`

	// TrustedFile is the trusted-network source, re-read every cycle.
	TrustedFile string `yaml:"trusted_file"`

	// ScanInterval is the time between cycles.
	ScanInterval Duration `yaml:"scan_interval"`

	// SwitchThreshold is the minimum signal improvement (percentage
	// points) required to leave a working connection. A pointer so an
	// explicit 0 (switch on any improvement) survives defaulting.
	SwitchThreshold *int `yaml:"switch_threshold"`

	// ConnectTimeout bounds a single connection attempt.
	ConnectTimeout Duration `yaml:"connect_timeout"`

	// LockFile guards against a second daemon instance.
	LockFile string `yaml:"lock_file"`

	// History configures the roam-event log.
	History HistoryConfig `yaml:"history"`

	// LinkCheck configures the optional post-connect gateway probe.
	LinkCheck LinkCheckConfig `yaml:"link_check"`
}

// HistoryConfig controls roam-event persistence.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty disables history.
	Path string `yaml:"path"`
	// Retention prunes events older than this on startup. Zero keeps all.
	Retention Duration `yaml:"retention"`
}

// LinkCheckConfig controls post-connect link verification.
type LinkCheckConfig struct {
	Enabled bool `yaml:"enabled"`
	// Gateway is the address probed after a successful connect.
	Gateway string   `yaml:"gateway"`
	Timeout Duration `yaml:"timeout"`
}

// Load finds and loads the config file, or returns defaults if none found.
// The second return value is the path actually used, empty for defaults.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// DefaultConfig returns sensible defaults for a new installation.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = "nmcli"
	}
	if c.TrustedFile == "" {
		c.TrustedFile = "/etc/wifiroamd/trusted.conf"
	}
	if c.ScanInterval.Duration() == 0 {
		c.ScanInterval = Duration(60 * time.Second)
	}
	if c.SwitchThreshold == nil {
		threshold := 15
		c.SwitchThreshold = &threshold
	}
	if c.ConnectTimeout.Duration() == 0 {
		c.ConnectTimeout = Duration(30 * time.Second)
	}
	if c.LockFile == "" {
		c.LockFile = "/var/run/wifiroamd.lock"
	}
	if c.LinkCheck.Timeout.Duration() == 0 {
		c.LinkCheck.Timeout = Duration(10 * time.Second)
	}
}

// Threshold returns the effective switch threshold.
func (c *Config) Threshold() int {
	if c.SwitchThreshold == nil {
		return 0
	}
	return *c.SwitchThreshold
}

// Validate checks invariants that would otherwise surface mid-loop.
func (c *Config) Validate() error {
	if c.Backend != "nmcli" && c.Backend != "wpa" {
		return fmt.Errorf("unknown backend %q (want nmcli or wpa)", c.Backend)
	}
	if c.Threshold() < 0 {
		return fmt.Errorf("switch_threshold must be non-negative, got %d", c.Threshold())
	}
	if c.ScanInterval.Duration() <= 0 {
		return fmt.Errorf("scan_interval must be positive, got %s", c.ScanInterval)
	}
	if c.ConnectTimeout.Duration() <= 0 {
		return fmt.Errorf("connect_timeout must be positive, got %s", c.ConnectTimeout)
	}
	if c.LinkCheck.Enabled && c.LinkCheck.Gateway == "" {
		return fmt.Errorf("link_check.gateway required when link_check is enabled")
	}
	return nil
}

// Summary returns a human-readable config summary for the startup log.
func (c *Config) Summary() string {
	iface := c.Interface
	if iface == "" {
		iface = "(auto)"
	}
	s := fmt.Sprintf("Interface: %s, Backend: %s\n", iface, c.Backend)
	s += fmt.Sprintf("Scan every %s, switch threshold %d points, connect timeout %s\n",
		c.ScanInterval, c.Threshold(), c.ConnectTimeout)
	s += fmt.Sprintf("Trusted networks: %s", c.TrustedFile)
	if c.History.Path != "" {
		s += fmt.Sprintf("\nHistory: %s", c.History.Path)
	}
	if c.LinkCheck.Enabled {
		s += fmt.Sprintf("\nLink check: gateway %s", c.LinkCheck.Gateway)
	}
	return s
}

// Duration wraps time.Duration for YAML strings like "30s" or "5m".
type Duration time.Duration

// Duration returns the wrapped time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}
