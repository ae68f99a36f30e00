// Package dom abstracts the UI tree the picker works on. The picker only
// needs to hit-test by coordinate, toggle a marker class, read a few
// attributes and walk up the ancestry; backends (Chrome via CDP, static HTML
// fixtures) implement Tree over their own node handles.
package dom

import "context"

// NodeID identifies a node for the lifetime of a page. Two handles refer to
// the same node iff their NodeIDs are equal.
type NodeID int64

// Element is an opaque handle to an element node.
type Element interface {
	NodeID() NodeID
}

// Info is the attribute subset the picker reads from an element.
type Info struct {
	Tag   string // lowercase tag name
	ID    string
	Class string // raw class attribute
	// Component is an explicit component name (data-component), if any.
	Component string
}

// Tree is the capability set a backend exposes.
type Tree interface {
	// ElementAt returns the topmost element at the viewport point, honouring
	// layers whose hit-testing is disabled. It returns nil, nil on a miss.
	ElementAt(ctx context.Context, x, y float64) (Element, error)

	// Parent returns the parent element, or nil, nil at the root.
	Parent(ctx context.Context, el Element) (Element, error)

	// Info reads tag and identifying attributes.
	Info(ctx context.Context, el Element) (Info, error)

	AddMarker(ctx context.Context, el Element, class string) error
	RemoveMarker(ctx context.Context, el Element, class string) error

	// EnsureStyle inserts a global style element keyed by id unless one with
	// that id already exists. inserted reports whether it was added.
	EnsureStyle(ctx context.Context, id, css string) (inserted bool, err error)

	// MountLayer places a full-viewport layer above the page.
	MountLayer(ctx context.Context) (Layer, error)
}

// Layer is the interaction surface the overlay mounts.
type Layer interface {
	Element
	SetHitTesting(ctx context.Context, enabled bool) error
	Unmount(ctx context.Context) error
}

// Contains reports whether el or one of its ancestors is in set.
func Contains(ctx context.Context, t Tree, set map[NodeID]struct{}, el Element) (bool, error) {
	if len(set) == 0 {
		return false, nil
	}
	for cur := el; cur != nil; {
		if _, ok := set[cur.NodeID()]; ok {
			return true, nil
		}
		p, err := t.Parent(ctx, cur)
		if err != nil {
			return false, err
		}
		cur = p
	}
	return false, nil
}
