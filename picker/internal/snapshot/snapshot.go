// Package snapshot renders a picked element to a raster image and encodes
// it as a data URL.
package snapshot

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/hazyhaar/vlypick/picker/dom"
)

// Options tunes fidelity against speed.
type Options struct {
	// SpeedPriority downsamples wide captures to MaxWidth with a cheap filter.
	SpeedPriority bool
	// Compress encodes JPEG at Quality instead of lossless PNG.
	Compress bool

	MaxWidth int // default 1024
	Quality  int // default 70
}

func (o *Options) defaults() {
	if o.MaxWidth <= 0 {
		o.MaxWidth = 1024
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = 70
	}
}

// Capturer renders an element. Capture may fail; callers degrade gracefully.
type Capturer interface {
	Capture(ctx context.Context, el dom.Element, opts Options) (*Canvas, error)
}

// Canvas is a rendered image with its target encoding.
type Canvas struct {
	Image    image.Image
	compress bool
	quality  int
}

// NewCanvas prepares img for encoding under opts, downsampling it when
// speed is preferred and it is wider than opts.MaxWidth.
func NewCanvas(img image.Image, opts Options) *Canvas {
	opts.defaults()
	if opts.SpeedPriority && img.Bounds().Dx() > opts.MaxWidth {
		img = scale(img, opts.MaxWidth)
	}
	return &Canvas{Image: img, compress: opts.Compress, quality: opts.Quality}
}

// Decode builds a Canvas from PNG or JPEG bytes.
func Decode(data []byte, opts Options) (*Canvas, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return NewCanvas(img, opts), nil
}

// DataURL encodes the canvas as "data:image/...;base64,...".
func (c *Canvas) DataURL() (string, error) {
	var buf bytes.Buffer
	mime := "image/png"
	if c.compress {
		mime = "image/jpeg"
		if err := jpeg.Encode(&buf, c.Image, &jpeg.Options{Quality: c.quality}); err != nil {
			return "", fmt.Errorf("snapshot: encode jpeg: %w", err)
		}
	} else {
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := enc.Encode(&buf, c.Image); err != nil {
			return "", fmt.Errorf("snapshot: encode png: %w", err)
		}
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func scale(src image.Image, width int) image.Image {
	b := src.Bounds()
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
