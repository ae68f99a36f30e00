// Package browser launches or attaches to Chrome through rod and opens the
// tabs pickers are injected into.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// ErrClosed is returned once the Manager has been closed.
var ErrClosed = errors.New("browser: manager closed")

// Mode selects how a local Chrome is run.
type Mode int

const (
	Headless Mode = iota // headless shell, stealth scripts applied
	Headful              // visible window on an Xvfb display
)

// ParseMode maps a config string to a Mode. Unknown values mean Headless.
func ParseMode(s string) Mode {
	if s == "headful" {
		return Headful
	}
	return Headless
}

func (m Mode) String() string {
	if m == Headful {
		return "headful"
	}
	return "headless"
}

// Config configures the Manager.
type Config struct {
	// RemoteURL is the DevTools websocket of a running Chrome. Empty
	// launches a local one.
	RemoteURL string

	Mode        Mode
	XvfbDisplay string // default ":99"

	// ResourceBlocking lists resource kinds to fail on every tab
	// (images, fonts, media, stylesheets).
	ResourceBlocking []string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.XvfbDisplay == "" {
		c.XvfbDisplay = ":99"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns one Chrome process (or remote connection).
type Manager struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	xvfb    *exec.Cmd
	closed  bool
}

// NewManager creates a Manager. Call Start before opening tabs.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start connects to Chrome, launching it if no RemoteURL is set. Calling
// Start on a started Manager returns the existing browser.
func (m *Manager) Start(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if m.browser != nil {
		return m.browser, nil
	}

	log := m.cfg.Logger
	wsURL := m.cfg.RemoteURL
	if wsURL == "" {
		if m.cfg.Mode == Headful {
			if err := m.startXvfb(); err != nil {
				return nil, fmt.Errorf("browser: xvfb: %w", err)
			}
		}
		l := launcher.New().
			Headless(m.cfg.Mode == Headless).
			Set("disable-blink-features", "AutomationControlled")
		if m.cfg.Mode == Headful {
			l = l.Env(append(os.Environ(), "DISPLAY="+m.cfg.XvfbDisplay)...)
		}
		u, err := l.Context(ctx).Launch()
		if err != nil {
			m.stopXvfb()
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		m.lnch = l
		wsURL = u
		log.Info("browser: launched local chrome", "url", wsURL, "mode", m.cfg.Mode)
	} else {
		log.Info("browser: connecting to remote", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		m.cleanup()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	m.browser = b
	return b, nil
}

// Browser returns the connected browser, or nil before Start.
func (m *Manager) Browser() *rod.Browser {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser
}

// Close disconnects and stops anything the Manager launched.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.cleanup()
}

func (m *Manager) cleanup() error {
	var err error
	if m.browser != nil {
		if m.lnch != nil {
			err = m.browser.Close()
		}
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	m.stopXvfb()
	return err
}
