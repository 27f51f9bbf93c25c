package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version        int            `yaml:"version"`
	API            APIConfig      `yaml:"api"`
	OrganizationID int64          `yaml:"organization_id" validate:"gte=0"`
	Server         ServerConfig   `yaml:"server"`
	Canvas         CanvasConfig   `yaml:"canvas"`
	Layout         LayoutConfig   `yaml:"layout"`
	Refresh        RefreshConfig  `yaml:"refresh"`
	Snapshot       SnapshotConfig `yaml:"snapshot"`
	Import         ImportConfig   `yaml:"import"`
}

// APIConfig locates the remote map API
type APIConfig struct {
	BaseURL string   `yaml:"base_url" validate:"required,url"`
	Token   string   `yaml:"token,omitempty"`
	Timeout Duration `yaml:"timeout" validate:"gte=0"`
}

// ServerConfig holds the dashboard HTTP server settings
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// CanvasConfig is the canvas size used before a browser reports its own
type CanvasConfig struct {
	Width  float64 `yaml:"width" validate:"gt=0"`
	Height float64 `yaml:"height" validate:"gt=0"`
}

// LayoutConfig selects the initial layout mode
type LayoutConfig struct {
	Mode string `yaml:"mode" validate:"oneof=saved radial grid"`
}

// RefreshConfig controls periodic refetching. A zero interval disables polling.
type RefreshConfig struct {
	Interval Duration `yaml:"interval" validate:"gte=0"`
}

// SnapshotConfig locates the last-known-good map cache. An empty path disables it.
type SnapshotConfig struct {
	Path string `yaml:"path"`
}

// ImportConfig names a bulk file that is re-imported whenever it changes
type ImportConfig struct {
	WatchFile string `yaml:"watch_file,omitempty"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
