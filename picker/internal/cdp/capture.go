package cdp

import (
	"context"
	"fmt"

	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/vlypick/picker/dom"
	"github.com/hazyhaar/vlypick/picker/internal/snapshot"
)

// Capturer screenshots elements through Page.captureScreenshot.
type Capturer struct {
	Tree *Tree
}

// Capture implements snapshot.Capturer.
func (c *Capturer) Capture(ctx context.Context, el dom.Element, opts snapshot.Options) (*snapshot.Canvas, error) {
	e, err := c.Tree.own(el)
	if err != nil {
		return nil, err
	}
	format, quality := proto.PageCaptureScreenshotFormatPng, 0
	if opts.Compress {
		format, quality = proto.PageCaptureScreenshotFormatJpeg, 90
	}
	data, err := e.el.Context(ctx).Screenshot(format, quality)
	if err != nil {
		return nil, fmt.Errorf("cdp: screenshot: %w", err)
	}
	return snapshot.Decode(data, opts)
}
