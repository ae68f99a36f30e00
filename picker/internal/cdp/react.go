package cdp

import (
	"context"
	_ "embed"
	"log/slog"

	"github.com/hazyhaar/vlypick/picker/dom"
	"github.com/hazyhaar/vlypick/picker/internal/hierarchy"
	"github.com/hazyhaar/vlypick/picker/internal/selector"
	"github.com/hazyhaar/vlypick/picker/message"
)

//go:embed react.js
var reactJS string

// fiberLevel is one component found walking React fibers, innermost first.
type fiberLevel struct {
	Name  string `json:"name"`
	Tag   string `json:"tag"`
	ID    string `json:"id"`
	Class string `json:"class"`
}

// React names components from the React fiber attached to DOM nodes. Pages
// without React, or elements outside any component, fall back to Fallback.
type React struct {
	Tree     *Tree
	Fallback hierarchy.Describer
	Logger   *slog.Logger
}

// Describe implements hierarchy.Describer.
func (r *React) Describe(ctx context.Context, el dom.Element) message.Hierarchy {
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	levels, err := r.fibers(ctx, el)
	if err != nil {
		log.Debug("cdp: react fibers", "error", err)
	}
	if len(levels) == 0 {
		return r.Fallback.Describe(ctx, el)
	}
	info, err := r.Tree.Info(ctx, el)
	if err != nil {
		log.Debug("cdp: read selected element", "error", err)
	}
	return fromFibers(levels, info)
}

func (r *React) fibers(ctx context.Context, el dom.Element) ([]fiberLevel, error) {
	e, err := r.Tree.own(el)
	if err != nil {
		return nil, err
	}
	res, err := e.el.Context(ctx).Eval(reactJS)
	if err != nil {
		return nil, err
	}
	if res.Value.Nil() {
		return nil, nil
	}
	var levels []fiberLevel
	if err := res.Value.Unmarshal(&levels); err != nil {
		return nil, err
	}
	return levels, nil
}

// fromFibers orders levels outermost first and closes with the picked
// element itself unless the innermost component renders it directly.
func fromFibers(levels []fiberLevel, self dom.Info) message.Hierarchy {
	h := make(message.Hierarchy, 0, len(levels)+1)
	for i := len(levels) - 1; i >= 0; i-- {
		l := levels[i]
		h = append(h, message.Component{
			Name:     l.Name,
			Tag:      l.Tag,
			Selector: selector.For(dom.Info{Tag: l.Tag, ID: l.ID, Class: l.Class}),
			Source:   message.SourceReact,
		})
	}
	if self.Tag == "" {
		return h
	}
	own := selector.For(self)
	if inner := levels[0]; inner.Tag == self.Tag && selector.For(dom.Info{Tag: inner.Tag, ID: inner.ID, Class: inner.Class}) == own {
		return h
	}
	return append(h, message.Component{
		Name:     self.Tag,
		Tag:      self.Tag,
		Selector: own,
		Source:   message.SourceDOM,
	})
}
