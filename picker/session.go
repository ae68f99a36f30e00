package picker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/hazyhaar/vlypick/idgen"
	"github.com/hazyhaar/vlypick/kit"
	"github.com/hazyhaar/vlypick/picker/internal/sink"
	"github.com/hazyhaar/vlypick/picker/message"
)

// ErrUnknownPage is returned for page IDs not in the registry.
var ErrUnknownPage = errors.New("picker: unknown page")

// SessionConfig wires a Session around a Toolbar.
type SessionConfig struct {
	ID  string // default a generated "pg_" ID
	URL string

	// Toolbar configures the toolbar. Its Sink, if set, receives every
	// selection alongside the session's own channels.
	Toolbar ToolbarConfig

	Logger *slog.Logger
}

// Session is one picker attached to one page, with its host channels: a
// websocket for a remote parent and an awaiter for blocking callers.
type Session struct {
	id      string
	url     string
	toolbar *Toolbar
	ws      *sink.WebSocket
	await   *sink.Awaiter
	logger  *slog.Logger

	mu      sync.Mutex
	closers []func() error
	closed  bool
}

// NewSession creates an idle session.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ID == "" {
		cfg.ID = idgen.Page()
	}
	if cfg.Toolbar.Logger == nil {
		cfg.Toolbar.Logger = cfg.Logger
	}
	s := &Session{
		id:     cfg.ID,
		url:    cfg.URL,
		await:  sink.NewAwaiter(),
		logger: cfg.Logger.With("page", cfg.ID),
	}
	s.ws = sink.NewWebSocket(nil, s.logger)

	router := sink.NewRouter(s.logger, s.await)
	if cfg.Toolbar.Sink != nil {
		router.Add(cfg.Toolbar.Sink)
	}
	cfg.Toolbar.Sink = &sessionSink{router: router, ws: s.ws}
	s.toolbar = NewToolbar(cfg.Toolbar)

	s.ws.SetInbound(func(ctx context.Context, data []byte) {
		s.toolbar.HandleMessage(kit.WithTransport(ctx, "ws"), data)
	})
	return s
}

func (s *Session) ID() string { return s.id }
func (s *Session) URL() string { return s.url }
func (s *Session) Toolbar() *Toolbar { return s.toolbar }
func (s *Session) Mode() Mode { return s.toolbar.Mode() }
func (s *Session) HostConnected() bool { return s.ws.Connected() }

// WebSocket returns the handler a remote parent connects to. Inbound frames
// are treated as host messages; selections are written back.
func (s *Session) WebSocket() http.Handler { return s.ws }

// SetSelectionMode toggles selection mode as if the host had sent the
// message.
func (s *Session) SetSelectionMode(ctx context.Context, enabled bool) error {
	cmd := message.Disable()
	if enabled {
		cmd = message.Enable()
	}
	s.logger.Debug("picker: selection mode requested", "enabled", enabled, "transport", kit.GetTransport(ctx))
	return s.toolbar.SetSelectionMode(ctx, cmd)
}

// Await blocks until the next selection completes.
func (s *Session) Await(ctx context.Context) (message.Selection, error) {
	return s.await.Next(ctx)
}

// onClose registers cleanup run after the toolbar has closed, last
// registered first.
func (s *Session) onClose(fn func() error) {
	s.mu.Lock()
	s.closers = append(s.closers, fn)
	s.mu.Unlock()
}

// Close stops the toolbar, its channels and anything bound to the page.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	closers := s.closers
	s.mu.Unlock()

	err := s.toolbar.Close()
	for i := len(closers) - 1; i >= 0; i-- {
		if cerr := closers[i](); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("picker: close session %s: %w", s.id, err)
	}
	return nil
}

// sessionSink routes to the session channels and, when a host is
// connected, back over the websocket.
type sessionSink struct {
	router *sink.Router
	ws     *sink.WebSocket
}

func (s *sessionSink) Post(ctx context.Context, sel message.Selection) error {
	err := s.router.Post(ctx, sel)
	if s.ws.Connected() {
		if werr := s.ws.Post(ctx, sel); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

func (s *sessionSink) Close() error {
	err := s.router.Close()
	if werr := s.ws.Close(); werr != nil && err == nil {
		err = werr
	}
	return err
}

// Registry indexes live sessions by page ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers s, failing if its ID is taken.
func (r *Registry) Add(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID()]; ok {
		return fmt.Errorf("picker: page %s already open", s.ID())
	}
	r.sessions[s.ID()] = s
	return nil
}

// Get returns the session for id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPage, id)
	}
	return s, nil
}

// Remove unregisters and returns the session for id, or nil.
func (r *Registry) Remove(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sessions[id]
	delete(r.sessions, id)
	return s
}

// List returns all sessions ordered by ID.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
