// Package config provides configuration management for spheremap.
//
// Config file locations (priority order):
//  1. $SPHEREMAP_CONFIG
//  2. ./spheremap.yaml
//  3. $XDG_CONFIG_HOME/spheremap/config.yaml
//  4. ~/.config/spheremap/config.yaml
//  5. /etc/spheremap/config.yaml
//
// Environment variables override the file: SPHEREMAP_API_URL,
// SPHEREMAP_TOKEN and SPHEREMAP_ORG_ID.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	EnvAPIURL = "SPHEREMAP_API_URL"
	EnvToken  = "SPHEREMAP_TOKEN"
	EnvOrgID  = "SPHEREMAP_ORG_ID"
)

// Defaults
const (
	DefaultBaseURL    = "http://localhost:3000"
	DefaultAddr       = ":8080"
	DefaultWidth      = 1280
	DefaultHeight     = 720
	DefaultLayoutMode = "saved"
	DefaultTimeout    = 15 * time.Second
	DefaultSnapshot   = "./spheremap.db"
)

// Load finds and loads the config file, or returns defaults if none found.
// Environment overrides are applied in both cases.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		if err := cfg.finish(); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
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
	if err := cfg.finish(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		API:      APIConfig{BaseURL: DefaultBaseURL, Timeout: Duration(DefaultTimeout)},
		Server:   ServerConfig{Addr: DefaultAddr},
		Canvas:   CanvasConfig{Width: DefaultWidth, Height: DefaultHeight},
		Layout:   LayoutConfig{Mode: DefaultLayoutMode},
		Snapshot: SnapshotConfig{Path: DefaultSnapshot},
	}
}

// applyDefaults fills in missing values with defaults. An empty snapshot
// path is kept: it disables the cache.
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = Duration(DefaultTimeout)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Canvas.Width <= 0 {
		c.Canvas.Width = DefaultWidth
	}
	if c.Canvas.Height <= 0 {
		c.Canvas.Height = DefaultHeight
	}
	c.Layout.Mode = strings.ToLower(strings.TrimSpace(c.Layout.Mode))
	if c.Layout.Mode == "" {
		c.Layout.Mode = DefaultLayoutMode
	}
}

func (c *Config) finish() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	return c.Validate()
}

// applyEnv overrides file values from the environment
func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		c.API.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOrgID)); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", EnvOrgID, v)
		}
		c.OrganizationID = id
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("API: %s (organization %d)\n", c.API.BaseURL, c.OrganizationID)
	summary += fmt.Sprintf("Server: %s, canvas %gx%g, layout %s\n", c.Server.Addr, c.Canvas.Width, c.Canvas.Height, c.Layout.Mode)
	if c.Refresh.Interval > 0 {
		summary += fmt.Sprintf("Refresh every %s", c.Refresh.Interval.Duration())
	} else {
		summary += "Refresh on demand"
	}
	if c.Snapshot.Path != "" {
		summary += fmt.Sprintf(", snapshots in %s", c.Snapshot.Path)
	}
	if c.Import.WatchFile != "" {
		summary += fmt.Sprintf(", watching %s", c.Import.WatchFile)
	}
	return summary
}
