package picker

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/hazyhaar/vlypick/picker/internal/sink"
	"github.com/hazyhaar/vlypick/picker/message"
)

func TestChannelsAlwaysStartWithFrame(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	shared := sink.NewCallback(func(context.Context, message.Selection) error { return nil })

	tests := []struct {
		name     string
		channels []ChannelConfig
		shared   []Sink
		want     int
	}{
		{name: "none configured", want: 1},
		{name: "stdout only", channels: []ChannelConfig{{Type: "stdout"}}, want: 2},
		{name: "frame listed", channels: []ChannelConfig{{Type: "frame"}, {Type: "websocket"}}, want: 1},
		{name: "webhook without url", channels: []ChannelConfig{{Type: "webhook"}, {Type: "carrier-pigeon"}}, want: 1},
		{name: "shared sink", channels: []ChannelConfig{{Type: "stdout"}}, shared: []Sink{shared}, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := []Option{WithLogger(log)}
			for _, k := range tt.shared {
				opts = append(opts, WithSink(k))
			}
			svc := New(&Config{Channels: tt.channels}, opts...)
			frame := sink.NewCallback(func(context.Context, message.Selection) error { return nil })

			out := svc.channels(frame, log)
			if len(out) != tt.want {
				t.Fatalf("sinks: got %d, want %d", len(out), tt.want)
			}
			if out[0] != Sink(frame) {
				t.Errorf("first sink: got %T, want the frame", out[0])
			}
			if len(tt.shared) > 0 {
				if _, ok := out[len(out)-1].(keepOpen); !ok {
					t.Errorf("shared sink not wrapped: %T", out[len(out)-1])
				}
			}
		})
	}
}
