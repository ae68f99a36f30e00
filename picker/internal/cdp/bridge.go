package cdp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// BindingName is the page function the bridge script reports through.
const BindingName = "__vly_binding"

//go:embed bridge.js
var bridgeJS string

// Handler receives the events the bridge forwards. *picker.Toolbar
// satisfies it. Reset is called when the main frame commits a new
// document, which takes any mounted layer and marker with it.
type Handler interface {
	HandleMessage(ctx context.Context, data []byte)
	PointerMove(ctx context.Context, x, y float64)
	PointerLeave(ctx context.Context)
	Click(ctx context.Context, x, y float64) bool
	Reset(ctx context.Context)
}

// event is one payload sent by the bridge script.
type event struct {
	Kind string          `json:"kind"` // move | leave | click | message | reset
	X    float64         `json:"x"`
	Y    float64         `json:"y"`
	Data json.RawMessage `json:"data,omitempty"`
}

func parseEvent(payload string) (event, error) {
	var ev event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, err
	}
	switch ev.Kind {
	case "move", "leave", "click", "message":
		return ev, nil
	}
	return ev, fmt.Errorf("unknown event kind %q", ev.Kind)
}

func dispatch(ctx context.Context, h Handler, ev event) {
	switch ev.Kind {
	case "move":
		h.PointerMove(ctx, ev.X, ev.Y)
	case "leave":
		h.PointerLeave(ctx)
	case "click":
		h.Click(ctx, ev.X, ev.Y)
	case "message":
		h.HandleMessage(ctx, ev.Data)
	case "reset":
		h.Reset(ctx)
	}
}

// Bridge injects the page script and delivers its events to a Handler in
// order, one at a time.
type Bridge struct {
	page    *rod.Page
	handler Handler
	logger  *slog.Logger

	events chan event
	wg     sync.WaitGroup
}

// NewBridge creates a Bridge for page. Call Install to start it.
func NewBridge(page *rod.Page, h Handler, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		page:    page,
		handler: h,
		logger:  logger,
		events:  make(chan event, 64),
	}
}

// Install registers the binding, injects the script into the current
// document and every future one, and runs until ctx is cancelled.
// Main-frame navigations are delivered as Reset, in order with the
// script's events.
func (b *Bridge) Install(ctx context.Context) error {
	page := b.page.Context(ctx)
	if err := (proto.PageEnable{}).Call(page); err != nil {
		return fmt.Errorf("cdp: enable page events: %w", err)
	}
	if err := (proto.RuntimeAddBinding{Name: BindingName}).Call(page); err != nil {
		return fmt.Errorf("cdp: add binding: %w", err)
	}
	if _, err := page.EvalOnNewDocument("(() => {\n" + bridgeJS + "\n})();"); err != nil {
		return fmt.Errorf("cdp: register bridge: %w", err)
	}
	if _, err := page.Eval("() => {\n" + bridgeJS + "\n}"); err != nil {
		return fmt.Errorf("cdp: inject bridge: %w", err)
	}

	wait := page.EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != BindingName {
			return
		}
		ev, err := parseEvent(e.Payload)
		if err != nil {
			b.logger.Debug("cdp: bad bridge payload", "error", err)
			return
		}
		b.enqueue(ev)
	}, func(e *proto.PageFrameNavigated) {
		if e.Frame == nil || e.Frame.ParentID != "" {
			return
		}
		b.logger.Debug("cdp: main frame navigated", "url", e.Frame.URL)
		b.enqueue(event{Kind: "reset"})
	})

	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		defer close(b.events)
		wait()
	}()
	go func() {
		defer b.wg.Done()
		for ev := range b.events {
			dispatch(ctx, b.handler, ev)
		}
	}()
	b.logger.Debug("cdp: bridge installed")
	return nil
}

// enqueue drops pointer moves when the handler falls behind; other events
// always queue.
func (b *Bridge) enqueue(ev event) {
	if ev.Kind != "move" {
		b.events <- ev
		return
	}
	select {
	case b.events <- ev:
	default:
		b.logger.Debug("cdp: dropping pointer move")
	}
}

// Wait blocks until the bridge has stopped after its context ended.
func (b *Bridge) Wait() {
	b.wg.Wait()
}
