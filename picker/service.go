package picker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/vlypick/idgen"
	"github.com/hazyhaar/vlypick/picker/dom"
	"github.com/hazyhaar/vlypick/picker/internal/browser"
	"github.com/hazyhaar/vlypick/picker/internal/cdp"
	"github.com/hazyhaar/vlypick/picker/internal/hierarchy"
	"github.com/hazyhaar/vlypick/picker/internal/sink"
	"github.com/hazyhaar/vlypick/picker/internal/snapshot"
)

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithSink adds a sink receiving selections from every page.
func WithSink(k Sink) Option { return func(s *Service) { s.shared = append(s.shared, k) } }

// Service drives Chrome and keeps one picker Session per open page.
type Service struct {
	cfg    *Config
	mgr    *browser.Manager
	reg    *Registry
	shared []Sink
	logger *slog.Logger

	mu  sync.Mutex
	ctx context.Context
}

// New creates a Service from configuration. Call Start to launch Chrome.
func New(cfg *Config, opts ...Option) *Service {
	s := &Service{cfg: cfg, reg: NewRegistry()}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.mgr = browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		Mode:             browser.ParseMode(cfg.Browser.Stealth),
		XvfbDisplay:      cfg.Browser.XvfbDisplay,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Logger:           s.logger,
	})
	return s
}

// Registry returns the live sessions.
func (s *Service) Registry() *Registry { return s.reg }

// Start launches the browser and opens every configured page. Pages that
// fail to open are logged and skipped. Bridges live until ctx ends.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if _, err := s.mgr.Start(ctx); err != nil {
		return fmt.Errorf("picker: start browser: %w", err)
	}
	for _, p := range s.cfg.Pages {
		if _, err := s.Open(ctx, p); err != nil {
			s.logger.Error("picker: open page", "page", p.ID, "url", p.URL, "error", err)
		}
	}
	return nil
}

// Open navigates a new tab to page.URL and attaches a picker to it.
func (s *Service) Open(ctx context.Context, page PageConfig) (*Session, error) {
	if page.ID == "" {
		page.ID = idgen.Page()
	}
	log := s.logger.With("page", page.ID)

	tab, err := s.mgr.OpenTab(ctx, page.URL, page.ID)
	if err != nil {
		return nil, err
	}
	tree := cdp.NewTree(tab.Page, log)

	var describer hierarchy.Describer = &hierarchy.Ancestry{Tree: tree, Logger: log}
	if s.cfg.Picker.React {
		describer = &cdp.React{Tree: tree, Fallback: describer, Logger: log}
	}
	var capturer snapshot.Capturer
	if !s.cfg.Picker.NoSnapshot {
		capturer = &cdp.Capturer{Tree: tree}
	}

	sess := NewSession(SessionConfig{
		ID:  page.ID,
		URL: page.URL,
		Toolbar: ToolbarConfig{
			Tree:      tree,
			Sink:      sink.NewRouter(log, s.channels(cdp.NewFrame(tab.Page), log)...),
			Hierarchy: describer,
			Snapshot:  capturer,
			SnapshotOptions: snapshot.Options{
				SpeedPriority: true,
				Compress:      true,
				MaxWidth:      s.cfg.Picker.SnapshotWidth,
				Quality:       s.cfg.Picker.SnapshotQuality,
			},
			MarkerClass: s.cfg.Picker.MarkerClass,
			StyleID:     s.cfg.Picker.StyleID,
			FindRoot:    toolbarRoot(tree, page.Toolbar),
		},
		Logger: s.logger,
	})
	sess.onClose(tab.Close)

	bctx, cancel := context.WithCancel(s.lifetime())
	bridge := cdp.NewBridge(tab.Page, sess.Toolbar(), log)
	if err := bridge.Install(bctx); err != nil {
		cancel()
		sess.Close()
		return nil, fmt.Errorf("picker: open %s: %w", page.ID, err)
	}
	sess.onClose(func() error {
		cancel()
		bridge.Wait()
		return nil
	})

	if err := s.reg.Add(sess); err != nil {
		sess.Close()
		return nil, err
	}
	log.Info("picker: page attached", "url", page.URL, "toolbar", sess.Toolbar().ID())
	return sess, nil
}

// ClosePage detaches the picker and closes the tab.
func (s *Service) ClosePage(id string) error {
	sess := s.reg.Remove(id)
	if sess == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPage, id)
	}
	return sess.Close()
}

// Stop closes every session, the shared sinks and the browser.
func (s *Service) Stop() error {
	for _, sess := range s.reg.List() {
		s.reg.Remove(sess.ID())
		if err := sess.Close(); err != nil {
			s.logger.Warn("picker: close session", "page", sess.ID(), "error", err)
		}
	}
	for _, k := range s.shared {
		if err := k.Close(); err != nil {
			s.logger.Warn("picker: close sink", "error", err)
		}
	}
	return s.mgr.Close()
}

func (s *Service) lifetime() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// toolbarRoot queries the page for its toolbar root. It returns nil when
// selector is empty.
func toolbarRoot(tree *cdp.Tree, selector string) func(context.Context) (dom.Element, error) {
	if selector == "" {
		return nil
	}
	return func(ctx context.Context) (dom.Element, error) {
		root, err := tree.Query(ctx, selector)
		if err != nil || root == nil {
			return nil, err
		}
		return root, nil
	}
}

// channels builds the outbound sinks for one tab. The parent frame always
// comes first; configured channels observe alongside it. Shared sinks are
// wrapped so closing a session leaves them open.
func (s *Service) channels(frame Sink, log *slog.Logger) []Sink {
	out := []Sink{frame}
	for _, ch := range s.cfg.Channels {
		switch ch.Type {
		case "stdout":
			out = append(out, sink.NewStdout(nil))
		case "webhook":
			if ch.URL == "" {
				log.Warn("picker: webhook channel without url")
				continue
			}
			out = append(out, sink.NewWebhook(ch.URL, sink.WithWebhookLogger(log)))
		case "frame", "websocket":
			// always attached: the frame here, the websocket per session
		default:
			log.Warn("picker: unknown channel type", "type", ch.Type)
		}
	}
	for _, k := range s.shared {
		out = append(out, keepOpen{k})
	}
	return out
}

type keepOpen struct{ Sink }

func (keepOpen) Close() error { return nil }

// SyncPages makes the open sessions match pages: new IDs are opened, IDs
// no longer listed are closed and IDs whose URL changed are reopened.
func (s *Service) SyncPages(ctx context.Context, pages []PageConfig) error {
	want := make(map[string]PageConfig, len(pages))
	for _, p := range pages {
		if p.ID != "" {
			want[p.ID] = p
		}
	}
	for _, sess := range s.reg.List() {
		p, ok := want[sess.ID()]
		if ok && p.URL == sess.URL() {
			delete(want, sess.ID())
			continue
		}
		if err := s.ClosePage(sess.ID()); err != nil {
			s.logger.Warn("picker: close page", "page", sess.ID(), "error", err)
		}
	}
	var firstErr error
	for _, p := range want {
		if _, err := s.Open(ctx, p); err != nil {
			s.logger.Error("picker: open page", "page", p.ID, "url", p.URL, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
