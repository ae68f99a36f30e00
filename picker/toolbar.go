package picker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/vlypick/idgen"
	"github.com/hazyhaar/vlypick/picker/dom"
	"github.com/hazyhaar/vlypick/picker/internal/hierarchy"
	"github.com/hazyhaar/vlypick/picker/internal/overlay"
	"github.com/hazyhaar/vlypick/picker/internal/selector"
	"github.com/hazyhaar/vlypick/picker/internal/sink"
	"github.com/hazyhaar/vlypick/picker/internal/snapshot"
	"github.com/hazyhaar/vlypick/picker/message"
)

const (
	DefaultMarkerClass = "vly-picker-hover"
	DefaultStyleID     = "vly-picker-style"
)

// ErrClosed is returned by operations on a closed Toolbar.
var ErrClosed = errors.New("picker: toolbar closed")

// Mode is the selection-mode state of a Toolbar.
type Mode int

const (
	Idle    Mode = iota // no overlay mounted
	Picking             // overlay mounted, pointer events resolved
)

func (m Mode) String() string {
	if m == Picking {
		return "picking"
	}
	return "idle"
}

// ToolbarConfig wires a Toolbar to a tree, its collaborators and the
// outbound channel.
type ToolbarConfig struct {
	Tree dom.Tree
	Sink sink.Sink

	// Hierarchy defaults to a dom ancestry walk over Tree.
	Hierarchy hierarchy.Describer
	// Snapshot is optional; without it selections carry no image.
	Snapshot        snapshot.Capturer
	SnapshotOptions snapshot.Options

	MarkerClass string // default DefaultMarkerClass
	StyleID     string // default DefaultStyleID

	// FindRoot, if set, locates the toolbar's own root on every enable, so
	// a root rendered late or replaced by a navigation is still ignored.
	// A nil result clears the ignore set.
	FindRoot func(ctx context.Context) (dom.Element, error)

	// OnHover and OnUnhover observe hover changes while picking. They run
	// after the pointer handler has released the toolbar, so they may call
	// back into it.
	OnHover   func(ctx context.Context, el dom.Element)
	OnUnhover func(ctx context.Context)

	Logger *slog.Logger
}

func (c *ToolbarConfig) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.MarkerClass == "" {
		c.MarkerClass = DefaultMarkerClass
	}
	if c.StyleID == "" {
		c.StyleID = DefaultStyleID
	}
	if c.Hierarchy == nil {
		c.Hierarchy = &hierarchy.Ancestry{Tree: c.Tree, Logger: c.Logger}
	}
	if c.Sink == nil {
		c.Sink = sink.NewCallback(nil)
	}
	if c.SnapshotOptions == (snapshot.Options{}) {
		c.SnapshotOptions = snapshot.Options{SpeedPriority: true, Compress: true}
	}
}

// Toolbar owns selection mode and the picker protocol. It mounts the
// overlay while picking, turns a click into a capture and posts exactly one
// selection message per completed click.
//
// All handlers serialise on one mutex and run to completion. The image
// capture is the only asynchronous step; it starts after the overlay has
// been unmounted.
type Toolbar struct {
	cfg    ToolbarConfig
	id     string
	logger *slog.Logger

	mu      sync.Mutex
	mode    Mode
	overlay *overlay.Overlay
	root    dom.Element
	ignore  map[dom.NodeID]struct{}
	closed  bool
	notify  []func()

	inflight sync.WaitGroup
}

// NewToolbar creates an idle Toolbar.
func NewToolbar(cfg ToolbarConfig) *Toolbar {
	cfg.defaults()
	t := &Toolbar{
		cfg:    cfg,
		id:     idgen.New(),
		ignore: map[dom.NodeID]struct{}{},
	}
	t.logger = cfg.Logger.With("toolbar", t.id)
	t.overlay = overlay.New(overlay.Config{
		Tree:        cfg.Tree,
		MarkerClass: cfg.MarkerClass,
		Active:      func() bool { return t.mode == Picking },
		OnHover:     t.onHover,
		OnUnhover:   t.onUnhover,
		OnSelect:    t.onSelect,
		Logger:      cfg.Logger,
	})
	return t
}

// ID returns the toolbar session identifier.
func (t *Toolbar) ID() string { return t.id }

// Mode returns the current selection mode.
func (t *Toolbar) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// HandleMessage processes a raw inbound payload from the host. Payloads
// without the selection-mode type tag are ignored.
func (t *Toolbar) HandleMessage(ctx context.Context, data []byte) {
	cmd, ok := message.ParseInbound(data)
	if !ok {
		t.logger.Debug("picker: ignoring inbound message", "size", len(data))
		return
	}
	if err := t.SetSelectionMode(ctx, cmd); err != nil {
		t.logger.Warn("picker: set selection mode", "error", err)
	}
}

// SetSelectionMode applies a decoded inbound command.
func (t *Toolbar) SetSelectionMode(ctx context.Context, cmd message.SetSelectionMode) error {
	if cmd.Type != message.TypeSetSelectionMode {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if cmd.Enabled {
		return t.enterPickingLocked(ctx)
	}
	return t.enterIdleLocked(ctx)
}

func (t *Toolbar) enterPickingLocked(ctx context.Context) error {
	if _, err := t.cfg.Tree.EnsureStyle(ctx, t.cfg.StyleID, highlightCSS(t.cfg.MarkerClass)); err != nil {
		t.logger.Warn("picker: ensure highlight style", "error", err)
	}
	if t.cfg.FindRoot != nil {
		root, err := t.cfg.FindRoot(ctx)
		if err != nil {
			t.logger.Warn("picker: find toolbar root", "error", err)
		} else {
			t.attachRootLocked(root)
		}
	}
	if t.mode == Picking {
		return nil
	}
	if err := t.overlay.Mount(ctx); err != nil {
		return fmt.Errorf("picker: enter picking: %w", err)
	}
	t.overlay.SetIgnore(t.ignore)
	t.mode = Picking
	t.logger.Info("picker: selection mode on")
	return nil
}

func (t *Toolbar) enterIdleLocked(ctx context.Context) error {
	if t.mode == Idle {
		return nil
	}
	t.mode = Idle
	if err := t.overlay.Unmount(ctx); err != nil {
		return fmt.Errorf("picker: enter idle: %w", err)
	}
	t.logger.Info("picker: selection mode off")
	return nil
}

// AttachRoot registers the toolbar's own root element. Clicks and hovers on
// it or its descendants are never picked. The ignore set is recomputed only
// when the root node changes.
func (t *Toolbar) AttachRoot(root dom.Element) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attachRootLocked(root)
}

func (t *Toolbar) attachRootLocked(root dom.Element) {
	if root == nil {
		if t.root != nil {
			t.root = nil
			t.ignore = map[dom.NodeID]struct{}{}
			t.overlay.SetIgnore(t.ignore)
		}
		return
	}
	if t.root != nil && t.root.NodeID() == root.NodeID() {
		return
	}
	t.root = root
	t.ignore = map[dom.NodeID]struct{}{root.NodeID(): {}}
	t.overlay.SetIgnore(t.ignore)
}

// Reset returns the toolbar to Idle after the page document was replaced.
// The old layer and marker went away with the document, so nothing is
// removed from the tree; the root and ignore set are dropped and found
// again on the next enable.
func (t *Toolbar) Reset(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	wasPicking := t.mode == Picking
	t.mode = Idle
	t.overlay.Discard()
	t.attachRootLocked(nil)
	t.logger.Info("picker: document replaced, toolbar reset", "was_picking", wasPicking)
}

// PointerMove forwards a pointer move over the overlay.
func (t *Toolbar) PointerMove(ctx context.Context, x, y float64) {
	t.mu.Lock()
	if t.mode == Picking {
		t.overlay.PointerMove(ctx, x, y)
	}
	t.unlockAndNotify()
}

// PointerLeave forwards the pointer leaving the overlay.
func (t *Toolbar) PointerLeave(ctx context.Context) {
	t.mu.Lock()
	if t.mode == Picking {
		t.overlay.PointerLeave(ctx)
	}
	t.unlockAndNotify()
}

// unlockAndNotify releases t.mu, then runs the hover callbacks queued while
// it was held.
func (t *Toolbar) unlockAndNotify() {
	pending := t.notify
	t.notify = nil
	t.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

// Click forwards a click on the overlay. It reports whether the click
// selected an element; an aborted click leaves the toolbar picking.
func (t *Toolbar) Click(ctx context.Context, x, y float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode != Picking {
		return false
	}
	return t.overlay.Click(ctx, x, y)
}

// Wait blocks until every started capture has posted its message.
func (t *Toolbar) Wait() {
	t.inflight.Wait()
}

// Close leaves selection mode, waits for in-flight captures and closes the
// sink.
func (t *Toolbar) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	if err := t.enterIdleLocked(context.Background()); err != nil {
		t.logger.Warn("picker: close", "error", err)
	}
	t.mu.Unlock()

	t.inflight.Wait()
	return t.cfg.Sink.Close()
}

// onHover and onUnhover run under t.mu; the user callbacks are queued for
// unlockAndNotify.
func (t *Toolbar) onHover(ctx context.Context, el dom.Element) {
	t.logger.Debug("picker: hover", "node", el.NodeID())
	if fn := t.cfg.OnHover; fn != nil {
		t.notify = append(t.notify, func() { fn(ctx, el) })
	}
}

func (t *Toolbar) onUnhover(ctx context.Context) {
	if fn := t.cfg.OnUnhover; fn != nil {
		t.notify = append(t.notify, func() { fn(ctx) })
	}
}

// onSelect runs inside Click with t.mu held. Leaving picking mode happens
// before anything else so the overlay cannot fire again mid-capture.
func (t *Toolbar) onSelect(ctx context.Context, el dom.Element) {
	if err := t.enterIdleLocked(ctx); err != nil {
		t.logger.Warn("picker: leave picking after select", "error", err)
	}

	info, err := t.cfg.Tree.Info(ctx, el)
	if err != nil {
		t.logger.Warn("picker: read selected element", "error", err)
	}
	sel := message.Selection{
		Type:     message.TypeElementSelected,
		Selector: selector.For(info),
	}
	sel.ReactHierarchy = t.cfg.Hierarchy.Describe(ctx, el)
	sel.ReactHierarchyFormatted = hierarchy.Format(sel.ReactHierarchy)

	t.logger.Info("picker: element selected", "selector", sel.Selector)

	t.inflight.Add(1)
	go t.finish(context.WithoutCancel(ctx), el, sel)
}

// finish captures the image and posts the selection. A capture failure only
// drops the image.
func (t *Toolbar) finish(ctx context.Context, el dom.Element, sel message.Selection) {
	defer t.inflight.Done()

	if t.cfg.Snapshot != nil {
		sel.Image = t.capture(ctx, el)
	}
	if err := t.cfg.Sink.Post(ctx, sel); err != nil {
		t.logger.Error("picker: post selection", "selector", sel.Selector, "error", err)
	}
}

func (t *Toolbar) capture(ctx context.Context, el dom.Element) string {
	canvas, err := t.cfg.Snapshot.Capture(ctx, el, t.cfg.SnapshotOptions)
	if err == nil && canvas == nil {
		err = errors.New("no canvas")
	}
	if err != nil {
		t.logger.Warn("picker: capture failed, sending without image", "error", err)
		return ""
	}
	url, err := canvas.DataURL()
	if err != nil {
		t.logger.Warn("picker: encode capture failed, sending without image", "error", err)
		return ""
	}
	return url
}

func highlightCSS(marker string) string {
	return fmt.Sprintf(`.%s {
  outline: 2px solid #2563eb !important;
  outline-offset: -2px !important;
  background-color: rgba(37, 99, 235, 0.12) !important;
  cursor: crosshair !important;
}`, marker)
}
