package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/vlypick/dbopen"
)

// Schema for the picker_pages table.
const Schema = `
CREATE TABLE IF NOT EXISTS picker_pages (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	toolbar    TEXT DEFAULT '',
	status     TEXT DEFAULT 'active',
	updated_at INTEGER NOT NULL
);
`

// LoadPages reads all active pages from the database.
func LoadPages(ctx context.Context, db *sql.DB) ([]PageConfig, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, url, toolbar
		FROM picker_pages
		WHERE status = 'active'
		ORDER BY updated_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []PageConfig
	for rows.Next() {
		var p PageConfig
		if err := rows.Scan(&p.ID, &p.URL, &p.Toolbar); err != nil {
			return nil, err
		}
		if p.Toolbar == "" {
			p.Toolbar = "#vly-toolbar"
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// PagesVersion is a change token over the active pages. Writers bump
// updated_at on every edit.
const PagesVersion = `
SELECT COUNT(*) * 1000003 + COALESCE(SUM(updated_at), 0)
FROM picker_pages
WHERE status = 'active'
`

// SavePage inserts or reactivates a page, bumping updated_at so watchers of
// PagesVersion see the change.
func SavePage(ctx context.Context, db *sql.DB, p PageConfig) error {
	if p.ID == "" || p.URL == "" {
		return fmt.Errorf("config: save page: id and url are required")
	}
	_, err := dbopen.Exec(ctx, db, `
		INSERT INTO picker_pages (id, url, toolbar, status, updated_at)
		VALUES (?, ?, ?, 'active', ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			toolbar = excluded.toolbar,
			status = 'active',
			updated_at = excluded.updated_at
	`, p.ID, p.URL, p.Toolbar, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("config: save page %s: %w", p.ID, err)
	}
	return nil
}

// PageIDForURL returns the ID of the most recently updated page with url,
// or "" when there is none.
func PageIDForURL(ctx context.Context, db *sql.DB, url string) (string, error) {
	var id string
	err := db.QueryRowContext(ctx, `
		SELECT id FROM picker_pages WHERE url = ? ORDER BY updated_at DESC LIMIT 1
	`, url).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("config: page for %s: %w", url, err)
	}
	return id, nil
}
