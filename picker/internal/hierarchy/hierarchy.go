// Package hierarchy infers the component ancestry of a picked element and
// renders it as indented text.
package hierarchy

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hazyhaar/vlypick/picker/dom"
	"github.com/hazyhaar/vlypick/picker/internal/selector"
	"github.com/hazyhaar/vlypick/picker/message"
)

// Describer turns an element into its component hierarchy. Implementations
// never fail: whatever could be inferred is returned.
type Describer interface {
	Describe(ctx context.Context, el dom.Element) message.Hierarchy
}

// Ancestry describes elements by walking dom parents. Ancestors contribute a
// level only when they declare a component name; the picked element always
// contributes the innermost level.
type Ancestry struct {
	Tree     dom.Tree
	MaxDepth int // default 64
	Logger   *slog.Logger
}

// Describe implements Describer.
func (a *Ancestry) Describe(ctx context.Context, el dom.Element) message.Hierarchy {
	log := a.Logger
	if log == nil {
		log = slog.Default()
	}
	limit := a.MaxDepth
	if limit <= 0 {
		limit = 64
	}

	var rev message.Hierarchy
	cur := el
	for depth := 0; cur != nil && depth < limit; depth++ {
		info, err := a.Tree.Info(ctx, cur)
		if err != nil {
			log.Debug("hierarchy: read element", "error", err)
			break
		}
		switch {
		case info.Component != "":
			rev = append(rev, message.Component{
				Name:     info.Component,
				Tag:      info.Tag,
				Selector: selector.For(info),
				Source:   message.SourceDOM,
			})
		case depth == 0:
			rev = append(rev, message.Component{
				Name:     info.Tag,
				Tag:      info.Tag,
				Selector: selector.For(info),
				Source:   message.SourceDOM,
			})
		}
		parent, err := a.Tree.Parent(ctx, cur)
		if err != nil {
			log.Debug("hierarchy: walk parent", "error", err)
			break
		}
		cur = parent
	}

	out := make(message.Hierarchy, len(rev))
	for i, c := range rev {
		out[len(rev)-1-i] = c
	}
	return out
}

// Format renders one line per level, outermost first, indented two spaces
// per depth: "Name (selector)".
func Format(h message.Hierarchy) string {
	var b strings.Builder
	for i, c := range h {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat("  ", i))
		b.WriteString(c.Name)
		if c.Selector != "" && c.Selector != c.Name {
			b.WriteString(" (")
			b.WriteString(c.Selector)
			b.WriteByte(')')
		}
	}
	return b.String()
}
