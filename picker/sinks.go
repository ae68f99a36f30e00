package picker

import (
	"context"
	"io"
	"log/slog"

	"github.com/hazyhaar/vlypick/picker/internal/sink"
	"github.com/hazyhaar/vlypick/picker/message"
)

// Sink is the outbound channel interface for selections.
type Sink = sink.Sink

// NewStdoutSink creates a stdout JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	return sink.NewWebhook(url, sink.WithWebhookLogger(logger))
}

// NewCallbackSink creates an in-process sink calling fn for each selection.
func NewCallbackSink(fn func(ctx context.Context, sel message.Selection) error) Sink {
	return sink.NewCallback(fn)
}
