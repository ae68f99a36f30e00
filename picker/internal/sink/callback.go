package sink

import (
	"context"

	"github.com/hazyhaar/vlypick/picker/message"
)

// SelectionFunc is called for each selection.
type SelectionFunc func(ctx context.Context, sel message.Selection) error

// Callback delivers selections via a Go function call, for hosts living in
// the same binary.
type Callback struct {
	fn SelectionFunc
}

// NewCallback creates a Callback sink. fn may be nil.
func NewCallback(fn SelectionFunc) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) Post(ctx context.Context, sel message.Selection) error {
	if c.fn != nil {
		return c.fn(ctx, sel)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
