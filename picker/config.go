package picker

import (
	"context"
	"database/sql"

	"github.com/hazyhaar/vlypick/picker/internal/config"
)

// Config is the top-level picker configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// PageConfig defines a page to attach a picker to.
type PageConfig = config.PageConfig

// PickerConfig tunes the overlay and capture.
type PickerConfig = config.PickerConfig

// ChannelConfig defines an outbound channel.
type ChannelConfig = config.ChannelConfig

const (
	// PagesSchema creates the picker_pages table.
	PagesSchema = config.Schema
	// PagesVersion is a change token query over active pages.
	PagesVersion = config.PagesVersion
)

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// LoadPages reads active pages from the picker_pages table.
func LoadPages(ctx context.Context, db *sql.DB) ([]PageConfig, error) {
	return config.LoadPages(ctx, db)
}

// SavePage stores p in picker_pages as active.
func SavePage(ctx context.Context, db *sql.DB, p PageConfig) error {
	return config.SavePage(ctx, db, p)
}

// PageIDForURL returns the stored ID for url, or "".
func PageIDForURL(ctx context.Context, db *sql.DB, url string) (string, error) {
	return config.PageIDForURL(ctx, db, url)
}
