package cdp

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/vlypick/picker/message"
)

const postToParentJS = `(m) => window.parent.postMessage(m, "*")`

// Frame posts selections to the page's parent window with
// window.parent.postMessage(msg, "*"). A top-level page posts to itself.
type Frame struct {
	page *rod.Page
}

// NewFrame creates a Frame sink for page.
func NewFrame(page *rod.Page) *Frame {
	return &Frame{page: page}
}

func (f *Frame) Post(ctx context.Context, sel message.Selection) error {
	sel.Type = message.TypeElementSelected
	if _, err := f.page.Context(ctx).Eval(postToParentJS, sel); err != nil {
		return fmt.Errorf("cdp: post to parent: %w", err)
	}
	return nil
}

func (f *Frame) Close() error { return nil }
