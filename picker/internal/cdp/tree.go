// Package cdp implements the picker's dom.Tree over a live Chrome page with
// rod, plus the page-side bridge that feeds pointer and host messages back
// to Go.
package cdp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/vlypick/picker/dom"
)

// ErrForeignElement is returned when an element from another backend is
// passed to a Tree.
var ErrForeignElement = errors.New("cdp: element not from this tree")

// Element is a page element tracked by its backend node id.
type Element struct {
	el *rod.Element
	id dom.NodeID
}

// NodeID implements dom.Element.
func (e *Element) NodeID() dom.NodeID { return e.id }

// Rod returns the underlying rod element.
func (e *Element) Rod() *rod.Element { return e.el }

// Tree is a dom.Tree over one rod page.
type Tree struct {
	page   *rod.Page
	logger *slog.Logger
}

// NewTree wraps page.
func NewTree(page *rod.Page, logger *slog.Logger) *Tree {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tree{page: page, logger: logger}
}

// Wrap turns a rod element into a tree Element.
func (t *Tree) Wrap(ctx context.Context, el *rod.Element) (*Element, error) {
	node, err := el.Context(ctx).Describe(0, false)
	if err != nil {
		return nil, fmt.Errorf("cdp: describe: %w", err)
	}
	return &Element{el: el, id: dom.NodeID(node.BackendNodeID)}, nil
}

// Query returns the first element matching the CSS selector, or nil.
func (t *Tree) Query(ctx context.Context, selector string) (*Element, error) {
	el, err := t.page.Context(ctx).Sleeper(rod.NotFoundSleeper).Element(selector)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cdp: query %q: %w", selector, err)
	}
	return t.Wrap(ctx, el)
}

func (t *Tree) ElementAt(ctx context.Context, x, y float64) (dom.Element, error) {
	el, err := t.page.Context(ctx).Sleeper(rod.NotFoundSleeper).
		ElementByJS(rod.Eval(`(x, y) => document.elementFromPoint(x, y)`, x, y))
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cdp: element at %.0f,%.0f: %w", x, y, err)
	}
	return t.wrapElement(ctx, el)
}

func (t *Tree) Parent(ctx context.Context, el dom.Element) (dom.Element, error) {
	e, err := t.own(el)
	if err != nil {
		return nil, err
	}
	p, err := e.el.Context(ctx).Parent()
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cdp: parent: %w", err)
	}
	return t.wrapElement(ctx, p)
}

func (t *Tree) Info(ctx context.Context, el dom.Element) (dom.Info, error) {
	e, err := t.own(el)
	if err != nil {
		return dom.Info{}, err
	}
	res, err := e.el.Context(ctx).Eval(`() => ({
		tag: this.tagName.toLowerCase(),
		id: this.id || "",
		class: this.getAttribute("class") || "",
		component: (this.dataset && this.dataset.component) || "",
	})`)
	if err != nil {
		return dom.Info{}, fmt.Errorf("cdp: info: %w", err)
	}
	return dom.Info{
		Tag:       res.Value.Get("tag").Str(),
		ID:        res.Value.Get("id").Str(),
		Class:     res.Value.Get("class").Str(),
		Component: res.Value.Get("component").Str(),
	}, nil
}

func (t *Tree) AddMarker(ctx context.Context, el dom.Element, class string) error {
	return t.classList(ctx, el, "add", class)
}

func (t *Tree) RemoveMarker(ctx context.Context, el dom.Element, class string) error {
	return t.classList(ctx, el, "remove", class)
}

func (t *Tree) classList(ctx context.Context, el dom.Element, op, class string) error {
	e, err := t.own(el)
	if err != nil {
		return err
	}
	if _, err := e.el.Context(ctx).Eval(`(op, c) => this.classList[op](c)`, op, class); err != nil {
		return fmt.Errorf("cdp: classList.%s: %w", op, err)
	}
	return nil
}

func (t *Tree) EnsureStyle(ctx context.Context, id, css string) (bool, error) {
	res, err := t.page.Context(ctx).Eval(`(id, css) => {
		if (document.getElementById(id)) return false;
		const s = document.createElement("style");
		s.id = id;
		s.textContent = css;
		(document.head || document.documentElement).appendChild(s);
		return true;
	}`, id, css)
	if err != nil {
		return false, fmt.Errorf("cdp: ensure style: %w", err)
	}
	return res.Value.Bool(), nil
}

func (t *Tree) MountLayer(ctx context.Context) (dom.Layer, error) {
	el, err := t.page.Context(ctx).ElementByJS(rod.Eval(mountLayerJS))
	if err != nil {
		return nil, fmt.Errorf("cdp: mount layer: %w", err)
	}
	e, err := t.Wrap(ctx, el)
	if err != nil {
		if rerr := el.Remove(); rerr != nil {
			t.logger.Debug("cdp: remove unwrapped layer", "error", rerr)
		}
		return nil, err
	}
	return &Layer{Element: e}, nil
}

func (t *Tree) wrapElement(ctx context.Context, el *rod.Element) (dom.Element, error) {
	e, err := t.Wrap(ctx, el)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (t *Tree) own(el dom.Element) (*Element, error) {
	switch e := el.(type) {
	case *Element:
		return e, nil
	case *Layer:
		return e.Element, nil
	}
	return nil, ErrForeignElement
}

func notFound(err error) bool {
	var nf *rod.ElementNotFoundError
	return errors.As(err, &nf)
}

// Layer is the fixed full-viewport div the overlay mounts. The bridge
// script wires its pointer listeners.
type Layer struct {
	*Element
}

func (l *Layer) SetHitTesting(ctx context.Context, enabled bool) error {
	_, err := l.el.Context(ctx).Eval(`(on) => { this.style.pointerEvents = on ? "auto" : "none"; }`, enabled)
	if err != nil {
		return fmt.Errorf("cdp: layer hit-testing: %w", err)
	}
	return nil
}

func (l *Layer) Unmount(ctx context.Context) error {
	if _, err := l.el.Context(ctx).Eval(`() => this.remove()`); err != nil {
		return fmt.Errorf("cdp: unmount layer: %w", err)
	}
	return nil
}

const mountLayerJS = `() => {
	const d = document.createElement("div");
	d.setAttribute("data-vly-overlay", "");
	Object.assign(d.style, {
		position: "fixed",
		inset: "0",
		zIndex: "2147483646",
		cursor: "crosshair",
		background: "transparent",
		pointerEvents: "auto",
	});
	document.documentElement.appendChild(d);
	if (window.__vly) window.__vly.attach(d);
	return d;
}`
