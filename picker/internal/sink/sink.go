// Package sink defines the outbound side of the picker channel: where
// selection results go once an element has been picked.
package sink

import (
	"context"
	"errors"

	"github.com/hazyhaar/vlypick/picker/message"
)

// Sink delivers selection results to the hosting side (parent frame,
// websocket host, webhook, stdout, in-process callback).
type Sink interface {
	Post(ctx context.Context, sel message.Selection) error
	Close() error
}

// ErrClosed is returned by sinks used after Close.
var ErrClosed = errors.New("sink: closed")
