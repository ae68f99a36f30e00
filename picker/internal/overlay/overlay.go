// Package overlay implements the full-viewport interaction surface of the
// picker: it resolves the page element under the pointer, keeps a single
// hover highlight and reports terminal clicks.
//
// An Overlay is not safe for concurrent use; the owning toolbar serialises
// every call.
package overlay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/vlypick/picker/dom"
)

// Config wires an Overlay to its tree and callbacks. Callbacks may be nil.
type Config struct {
	Tree        dom.Tree
	MarkerClass string

	// Active reports whether selection mode is on. Nil means always active.
	Active func() bool

	OnHover   func(ctx context.Context, el dom.Element)
	OnUnhover func(ctx context.Context)
	OnSelect  func(ctx context.Context, el dom.Element)

	Logger *slog.Logger
}

// Overlay holds the mounted layer and the hover state.
type Overlay struct {
	cfg     Config
	layer   dom.Layer
	ignore  map[dom.NodeID]struct{}
	hovered dom.Element
}

// New creates an unmounted Overlay.
func New(cfg Config) *Overlay {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Overlay{cfg: cfg}
}

// SetIgnore replaces the set of nodes that are never pickable. A target is
// ignored when it or one of its ancestors is in the set.
func (o *Overlay) SetIgnore(set map[dom.NodeID]struct{}) {
	o.ignore = set
}

// Mounted reports whether the layer is in place.
func (o *Overlay) Mounted() bool { return o.layer != nil }

// Hovered returns the currently highlighted element, or nil.
func (o *Overlay) Hovered() dom.Element { return o.hovered }

// Mount places the layer and starts from an empty hover state.
func (o *Overlay) Mount(ctx context.Context) error {
	if o.layer != nil {
		return nil
	}
	layer, err := o.cfg.Tree.MountLayer(ctx)
	if err != nil {
		return fmt.Errorf("overlay: mount: %w", err)
	}
	o.layer = layer
	o.hovered = nil
	return nil
}

// Unmount removes the layer. A marker still applied (a disable arriving
// mid-hover) is removed first.
func (o *Overlay) Unmount(ctx context.Context) error {
	if o.layer == nil {
		return nil
	}
	if o.hovered != nil {
		o.unmark(ctx, o.hovered)
		o.hovered = nil
	}
	layer := o.layer
	o.layer = nil
	if err := layer.Unmount(ctx); err != nil {
		return fmt.Errorf("overlay: unmount: %w", err)
	}
	return nil
}

// Discard forgets the layer and hover state without touching the tree. It
// is for documents that were replaced underneath the overlay, where the
// layer and the marked element no longer exist.
func (o *Overlay) Discard() {
	o.layer = nil
	o.hovered = nil
}

// Resolve returns the page element under (x, y), looking through the layer.
// Backend failures count as a miss.
func (o *Overlay) Resolve(ctx context.Context, x, y float64) dom.Element {
	if o.layer == nil {
		return nil
	}
	if err := o.layer.SetHitTesting(ctx, false); err != nil {
		o.cfg.Logger.Debug("overlay: disable hit-testing", "error", err)
	}
	el, err := o.cfg.Tree.ElementAt(ctx, x, y)
	if rerr := o.layer.SetHitTesting(ctx, true); rerr != nil {
		o.cfg.Logger.Debug("overlay: restore hit-testing", "error", rerr)
	}
	if err != nil {
		o.cfg.Logger.Debug("overlay: hit-test failed", "x", x, "y", y, "error", err)
		return nil
	}
	if el != nil && el.NodeID() == o.layer.NodeID() {
		return nil
	}
	return el
}

// PointerMove moves the highlight to the element under the pointer.
func (o *Overlay) PointerMove(ctx context.Context, x, y float64) {
	if !o.active() {
		return
	}
	target := o.pickable(ctx, x, y)
	if target == nil {
		return
	}
	if o.hovered != nil && o.hovered.NodeID() == target.NodeID() {
		return
	}
	if o.hovered != nil {
		o.unmark(ctx, o.hovered)
	}
	if err := o.cfg.Tree.AddMarker(ctx, target, o.cfg.MarkerClass); err != nil {
		o.cfg.Logger.Warn("overlay: add marker", "error", err)
	}
	o.hovered = target
	if o.cfg.OnHover != nil {
		o.cfg.OnHover(ctx, target)
	}
}

// PointerLeave clears the highlight when the pointer leaves the layer.
func (o *Overlay) PointerLeave(ctx context.Context) {
	if !o.active() {
		return
	}
	if o.hovered != nil {
		o.unmark(ctx, o.hovered)
		o.hovered = nil
	}
	if o.cfg.OnUnhover != nil {
		o.cfg.OnUnhover(ctx)
	}
}

// Click resolves the target under the pointer and reports it through
// OnSelect. It returns false when the click hit nothing pickable; the
// overlay then stays as it is. The hover reference is left for Unmount.
func (o *Overlay) Click(ctx context.Context, x, y float64) bool {
	target := o.pickable(ctx, x, y)
	if target == nil {
		return false
	}
	if o.hovered != nil {
		o.unmark(ctx, o.hovered)
	}
	if o.cfg.OnSelect != nil {
		o.cfg.OnSelect(ctx, target)
	}
	return true
}

func (o *Overlay) pickable(ctx context.Context, x, y float64) dom.Element {
	target := o.Resolve(ctx, x, y)
	if target == nil {
		return nil
	}
	ignored, err := dom.Contains(ctx, o.cfg.Tree, o.ignore, target)
	if err != nil {
		o.cfg.Logger.Debug("overlay: ignore check failed", "error", err)
		return nil
	}
	if ignored {
		return nil
	}
	return target
}

func (o *Overlay) unmark(ctx context.Context, el dom.Element) {
	if err := o.cfg.Tree.RemoveMarker(ctx, el, o.cfg.MarkerClass); err != nil {
		o.cfg.Logger.Warn("overlay: remove marker", "error", err)
	}
}

func (o *Overlay) active() bool {
	return o.cfg.Active == nil || o.cfg.Active()
}
