package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// NavigateTimeout bounds page navigation in OpenTab.
const NavigateTimeout = 30 * time.Second

// Tab is a page a picker can be attached to.
type Tab struct {
	Page   *rod.Page
	URL    string
	PageID string

	router *rod.HijackRouter
}

// OpenTab creates a tab, applies stealth scripts in headless mode and
// resource blocking, then navigates to pageURL.
func (m *Manager) OpenTab(ctx context.Context, pageURL, pageID string) (*Tab, error) {
	b := m.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: not started")
	}

	var (
		page *rod.Page
		err  error
	)
	if m.cfg.Mode == Headless {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	tab := &Tab{Page: page, URL: pageURL, PageID: pageID}
	if len(m.cfg.ResourceBlocking) > 0 {
		tab.router = blockResources(page, m.cfg.ResourceBlocking)
	}

	navCtx, cancel := context.WithTimeout(ctx, NavigateTimeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		tab.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		m.cfg.Logger.Warn("browser: wait load", "url", pageURL, "error", err)
	}
	m.cfg.Logger.Info("browser: tab open", "page", pageID, "url", pageURL)
	return tab, nil
}

// Close stops request interception and closes the page.
func (t *Tab) Close() error {
	if t.router != nil {
		t.router.Stop()
		t.router = nil
	}
	if t.Page == nil {
		return nil
	}
	return t.Page.Close()
}
