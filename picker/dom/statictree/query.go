package statictree

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// Query returns the first element in document order matching selector, or
// nil. Supported: tag, #id, .class, [attr], [attr=val] compounds joined by
// descendant combinators ("form.editor button#save").
func (t *Tree) Query(_ context.Context, selector string) (*Node, error) {
	parts := strings.Fields(selector)
	if len(parts) == 0 {
		return nil, fmt.Errorf("statictree: query: empty selector")
	}
	chain := make([]compound, len(parts))
	for i, p := range parts {
		c, err := parseCompound(p)
		if err != nil {
			return nil, fmt.Errorf("statictree: query %q: %w", selector, err)
		}
		chain[i] = c
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, node := range t.order {
		if matchChain(node.n, chain) {
			return node, nil
		}
	}
	return nil, nil
}

type compound struct {
	tag     string
	id      string
	classes []string
	attrKey string
	attrVal string
	hasVal  bool
}

func parseCompound(sel string) (compound, error) {
	var c compound
	if i := strings.IndexByte(sel, '['); i >= 0 {
		if !strings.HasSuffix(sel, "]") {
			return c, fmt.Errorf("unterminated attribute in %q", sel)
		}
		attr := sel[i+1 : len(sel)-1]
		sel = sel[:i]
		if k, v, ok := strings.Cut(attr, "="); ok {
			c.attrKey, c.attrVal, c.hasVal = k, strings.Trim(v, `"'`), true
		} else {
			c.attrKey = attr
		}
		if c.attrKey == "" {
			return c, fmt.Errorf("empty attribute name in %q", sel)
		}
	}
	if i := strings.IndexByte(sel, '.'); i >= 0 {
		c.classes = strings.Split(sel[i+1:], ".")
		sel = sel[:i]
	}
	if i := strings.IndexByte(sel, '#'); i >= 0 {
		c.id = sel[i+1:]
		sel = sel[:i]
	}
	c.tag = strings.ToLower(sel)
	return c, nil
}

func (c compound) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && c.tag != "*" && n.Data != c.tag {
		return false
	}
	if c.id != "" && getAttr(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(getAttr(n, "class"))
		for _, want := range c.classes {
			if !slices.Contains(have, want) {
				return false
			}
		}
	}
	if c.attrKey != "" {
		if !hasAttr(n, c.attrKey) {
			return false
		}
		if c.hasVal && getAttr(n, c.attrKey) != c.attrVal {
			return false
		}
	}
	return true
}

// matchChain matches the last compound against n and the rest, right to
// left, against its ancestors.
func matchChain(n *html.Node, chain []compound) bool {
	last := len(chain) - 1
	if !chain[last].matches(n) {
		return false
	}
	if last == 0 {
		return true
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if matchChain(p, chain[:last]) {
			return true
		}
	}
	return false
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}
