// Package statictree implements dom.Tree over an HTML document parsed with
// golang.org/x/net/html. Layout is not computed: an element is hittable only
// when it declares its viewport box as data-box="x y width height". Later
// elements in document order paint above earlier ones, mounted layers above
// everything.
//
// It backs fixtures, tests and offline replays of recorded pointer traces.
package statictree

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/vlypick/picker/dom"
)

// BoxAttr is the attribute carrying an element's viewport box.
const BoxAttr = "data-box"

// ComponentAttr names the component an element renders.
const ComponentAttr = "data-component"

type box struct{ x, y, w, h float64 }

func (b box) contains(x, y float64) bool {
	return x >= b.x && x < b.x+b.w && y >= b.y && y < b.y+b.h
}

// Node is a handle to an element of the document.
type Node struct {
	id dom.NodeID
	n  *html.Node
}

// NodeID implements dom.Element.
func (n *Node) NodeID() dom.NodeID { return n.id }

// Tree is a static UI tree. Safe for concurrent use.
type Tree struct {
	mu     sync.Mutex
	doc    *html.Node
	nodes  map[*html.Node]*Node
	order  []*Node // document order
	nextID dom.NodeID
	layers []*Layer
}

// Parse builds a Tree from an HTML document or fragment.
func Parse(src string) (*Tree, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("statictree: parse: %w", err)
	}
	t := &Tree{doc: doc, nodes: make(map[*html.Node]*Node)}
	t.index(doc)
	return t, nil
}

// MustParse is Parse for fixtures known to be valid.
func MustParse(src string) *Tree {
	t, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return t
}

// Replace swaps in a new document, as a navigation would. Node IDs keep
// counting up so handles from the old document never match new nodes, and
// mounted layers are dropped with the document.
func (t *Tree) Replace(src string) error {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return fmt.Errorf("statictree: replace: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.doc = doc
	t.nodes = make(map[*html.Node]*Node)
	t.order = nil
	t.layers = nil
	t.index(doc)
	return nil
}

func (t *Tree) index(n *html.Node) {
	if n.Type == html.ElementNode {
		t.nextID++
		node := &Node{id: t.nextID, n: n}
		t.nodes[n] = node
		t.order = append(t.order, node)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		t.index(c)
	}
}

// ByID returns the element whose id attribute equals id, or nil.
func (t *Tree) ByID(id string) *Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, node := range t.order {
		if getAttr(node.n, "id") == id {
			return node
		}
	}
	return nil
}

// First returns the first element with the given tag, or nil.
func (t *Tree) First(tag string) *Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, node := range t.order {
		if node.n.Data == tag {
			return node
		}
	}
	return nil
}

// ElementAt implements dom.Tree.
func (t *Tree) ElementAt(_ context.Context, x, y float64) (dom.Element, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.layers) - 1; i >= 0; i-- {
		if l := t.layers[i]; l.hit {
			return l, nil
		}
	}
	for i := len(t.order) - 1; i >= 0; i-- {
		node := t.order[i]
		b, ok := parseBox(getAttr(node.n, BoxAttr))
		if ok && b.contains(x, y) {
			return node, nil
		}
	}
	return nil, nil
}

// Parent implements dom.Tree.
func (t *Tree) Parent(_ context.Context, el dom.Element) (dom.Element, error) {
	node, err := t.node(el)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for p := node.n.Parent; p != nil; p = p.Parent {
		if pn, ok := t.nodes[p]; ok {
			return pn, nil
		}
	}
	return nil, nil
}

// Info implements dom.Tree.
func (t *Tree) Info(_ context.Context, el dom.Element) (dom.Info, error) {
	node, err := t.node(el)
	if err != nil {
		return dom.Info{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return dom.Info{
		Tag:       strings.ToLower(node.n.Data),
		ID:        getAttr(node.n, "id"),
		Class:     getAttr(node.n, "class"),
		Component: getAttr(node.n, ComponentAttr),
	}, nil
}

// AddMarker implements dom.Tree.
func (t *Tree) AddMarker(_ context.Context, el dom.Element, class string) error {
	node, err := t.node(el)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	classes := strings.Fields(getAttr(node.n, "class"))
	for _, c := range classes {
		if c == class {
			return nil
		}
	}
	setAttr(node.n, "class", strings.Join(append(classes, class), " "))
	return nil
}

// RemoveMarker implements dom.Tree.
func (t *Tree) RemoveMarker(_ context.Context, el dom.Element, class string) error {
	node, err := t.node(el)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	classes := strings.Fields(getAttr(node.n, "class"))
	kept := classes[:0]
	for _, c := range classes {
		if c != class {
			kept = append(kept, c)
		}
	}
	setAttr(node.n, "class", strings.Join(kept, " "))
	return nil
}

// Marked returns the elements currently carrying class, in document order.
func (t *Tree) Marked(class string) []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*Node
	for _, node := range t.order {
		for _, c := range strings.Fields(getAttr(node.n, "class")) {
			if c == class {
				out = append(out, node)
				break
			}
		}
	}
	return out
}

// EnsureStyle implements dom.Tree.
func (t *Tree) EnsureStyle(_ context.Context, id, css string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.countStylesLocked(id) > 0 {
		return false, nil
	}
	head := findFirst(t.doc, atom.Head)
	if head == nil {
		head = t.doc
	}
	style := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Style,
		Data:     "style",
		Attr:     []html.Attribute{{Key: "id", Val: id}},
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	head.AppendChild(style)

	t.nextID++
	node := &Node{id: t.nextID, n: style}
	t.nodes[style] = node
	t.order = append(t.order, node)
	return true, nil
}

// StyleCount returns how many style elements carry id.
func (t *Tree) StyleCount(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.countStylesLocked(id)
}

func (t *Tree) countStylesLocked(id string) int {
	n := 0
	for _, node := range t.order {
		if node.n.DataAtom == atom.Style && getAttr(node.n, "id") == id {
			n++
		}
	}
	return n
}

// MountLayer implements dom.Tree.
func (t *Tree) MountLayer(_ context.Context) (dom.Layer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	l := &Layer{id: t.nextID, tree: t, hit: true}
	t.layers = append(t.layers, l)
	return l, nil
}

// Layers returns the number of mounted layers.
func (t *Tree) Layers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.layers)
}

// Render serialises the current document.
func (t *Tree) Render() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var buf bytes.Buffer
	html.Render(&buf, t.doc)
	return buf.String()
}

func (t *Tree) node(el dom.Element) (*Node, error) {
	node, ok := el.(*Node)
	if !ok || node == nil {
		return nil, fmt.Errorf("statictree: foreign element %T", el)
	}
	return node, nil
}

// Layer is a mounted full-viewport surface.
type Layer struct {
	id   dom.NodeID
	tree *Tree
	hit  bool
}

// NodeID implements dom.Element.
func (l *Layer) NodeID() dom.NodeID { return l.id }

// SetHitTesting implements dom.Layer.
func (l *Layer) SetHitTesting(_ context.Context, enabled bool) error {
	l.tree.mu.Lock()
	l.hit = enabled
	l.tree.mu.Unlock()
	return nil
}

// Unmount implements dom.Layer.
func (l *Layer) Unmount(_ context.Context) error {
	l.tree.mu.Lock()
	defer l.tree.mu.Unlock()
	for i, m := range l.tree.layers {
		if m == l {
			l.tree.layers = append(l.tree.layers[:i], l.tree.layers[i+1:]...)
			break
		}
	}
	return nil
}

func parseBox(s string) (box, bool) {
	f := strings.Fields(s)
	if len(f) != 4 {
		return box{}, false
	}
	var v [4]float64
	for i, p := range f {
		n, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return box{}, false
		}
		v[i] = n
	}
	return box{x: v[0], y: v[1], w: v[2], h: v[3]}, true
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, attr := range n.Attr {
		if attr.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
