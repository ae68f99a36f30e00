// Package config handles picker configuration from YAML files or SQLite.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level picker configuration.
type Config struct {
	Browser  BrowserConfig   `yaml:"browser"`
	Pages    []PageConfig    `yaml:"pages"`
	Picker   PickerConfig    `yaml:"picker"`
	Channels []ChannelConfig `yaml:"channels"`
	HTTP     HTTPConfig      `yaml:"http"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string   `yaml:"remote"`
	ResourceBlocking []string `yaml:"resource_blocking"`
	Stealth          string   `yaml:"stealth"` // headless | headful
	XvfbDisplay      string   `yaml:"xvfb_display"`
}

// PageConfig defines a page to attach a picker to.
type PageConfig struct {
	ID      string `yaml:"id"`
	URL     string `yaml:"url"`
	Toolbar string `yaml:"toolbar"` // CSS selector of the toolbar root, optional
}

// PickerConfig tunes the overlay and capture.
type PickerConfig struct {
	MarkerClass     string `yaml:"marker_class"`
	StyleID         string `yaml:"style_id"`
	SnapshotWidth   int    `yaml:"snapshot_width"`
	SnapshotQuality int    `yaml:"snapshot_quality"`
	NoSnapshot      bool   `yaml:"no_snapshot"`
	React           bool   `yaml:"react"` // infer names from React fibers
}

// ChannelConfig defines an outbound channel.
type ChannelConfig struct {
	Type string `yaml:"type"` // stdout | webhook | websocket | frame
	URL  string `yaml:"url"`  // for webhook
}

// HTTPConfig controls the control-plane HTTP server.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Picker.MarkerClass == "" {
		c.Picker.MarkerClass = "vly-picker-hover"
	}
	if c.Picker.StyleID == "" {
		c.Picker.StyleID = "vly-picker-style"
	}
	if c.Picker.SnapshotWidth <= 0 {
		c.Picker.SnapshotWidth = 1024
	}
	if c.Picker.SnapshotQuality <= 0 || c.Picker.SnapshotQuality > 100 {
		c.Picker.SnapshotQuality = 70
	}
	if len(c.Channels) == 0 {
		c.Channels = []ChannelConfig{{Type: "stdout"}}
	}
	for i := range c.Pages {
		if c.Pages[i].Toolbar == "" {
			c.Pages[i].Toolbar = "#vly-toolbar"
		}
	}
}
