package cdp

import (
	"context"
	"strings"
	"testing"

	"github.com/hazyhaar/vlypick/picker/dom"
	"github.com/hazyhaar/vlypick/picker/dom/statictree"
	"github.com/hazyhaar/vlypick/picker/internal/snapshot"
	"github.com/hazyhaar/vlypick/picker/message"
)

type recordingHandler struct {
	calls []string
	data  []byte
}

func (h *recordingHandler) HandleMessage(_ context.Context, data []byte) {
	h.calls = append(h.calls, "message")
	h.data = data
}
func (h *recordingHandler) PointerMove(context.Context, float64, float64) {
	h.calls = append(h.calls, "move")
}
func (h *recordingHandler) PointerLeave(context.Context) { h.calls = append(h.calls, "leave") }
func (h *recordingHandler) Click(context.Context, float64, float64) bool {
	h.calls = append(h.calls, "click")
	return true
}
func (h *recordingHandler) Reset(context.Context) { h.calls = append(h.calls, "reset") }

func TestParseEvent(t *testing.T) {
	ev, err := parseEvent(`{"kind":"click","x":12.5,"y":40}`)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Kind != "click" || ev.X != 12.5 || ev.Y != 40 {
		t.Errorf("click: got %+v", ev)
	}

	ev, err = parseEvent(`{"kind":"message","data":{"type":"vly-set-selection-mode","enabled":true}}`)
	if err != nil {
		t.Fatal(err)
	}
	cmd, ok := message.ParseInbound(ev.Data)
	if !ok || !cmd.Enabled {
		t.Errorf("message data: got %+v ok=%v", cmd, ok)
	}

	// reset comes from navigation events, never from the page.
	for _, bad := range []string{`{"kind":"scroll"}`, `{"kind":"reset"}`, `not json`} {
		if _, err := parseEvent(bad); err == nil {
			t.Errorf("parseEvent(%q): expected error", bad)
		}
	}
}

func TestDispatch(t *testing.T) {
	h := &recordingHandler{}
	ctx := context.Background()
	for _, ev := range []event{
		{Kind: "move", X: 1, Y: 1},
		{Kind: "leave"},
		{Kind: "click", X: 1, Y: 1},
		{Kind: "message", Data: []byte(`{"type":"x"}`)},
		{Kind: "reset"},
	} {
		dispatch(ctx, h, ev)
	}
	if got := strings.Join(h.calls, ","); got != "move,leave,click,message,reset" {
		t.Errorf("calls: got %q", got)
	}
	if string(h.data) != `{"type":"x"}` {
		t.Errorf("data: got %s", h.data)
	}
}

func TestBridgeScriptUsesBinding(t *testing.T) {
	if !strings.Contains(bridgeJS, "window."+BindingName+"(") {
		t.Error("bridge script does not call the binding")
	}
	if !strings.Contains(mountLayerJS, "__vly.attach") {
		t.Error("layer script does not attach bridge listeners")
	}
}

func TestFramePostsToParentWindow(t *testing.T) {
	if !strings.Contains(postToParentJS, `window.parent.postMessage(m, "*")`) {
		t.Errorf("frame script: got %q", postToParentJS)
	}
	var _ interface {
		Post(context.Context, message.Selection) error
		Close() error
	} = NewFrame(nil)
}

func TestBridgeScriptKeepsPointerOrder(t *testing.T) {
	// A leave shares the per-frame slot with moves, and a click drops it.
	for _, want := range []string{`queue({ kind: "leave" })`, "cancelAnimationFrame(frame)", "drop();"} {
		if !strings.Contains(bridgeJS, want) {
			t.Errorf("bridge script lacks %q", want)
		}
	}
	if strings.Contains(bridgeJS, `send({ kind: "leave" })`) {
		t.Error("bridge script sends leave ahead of queued moves")
	}
}

func TestFromFibers(t *testing.T) {
	levels := []fiberLevel{ // innermost first
		{Name: "SaveButton", Tag: "button", ID: "save"},
		{Name: "Editor", Tag: "form", Class: "editor"},
		{Name: "App", Tag: "div", ID: "root"},
	}

	h := fromFibers(levels, dom.Info{Tag: "button", ID: "save"})
	if len(h) != 3 {
		t.Fatalf("levels: got %d, want 3 (%+v)", len(h), h)
	}
	if h[0].Name != "App" || h[0].Selector != "#root" || h[0].Source != message.SourceReact {
		t.Errorf("outermost: got %+v", h[0])
	}
	if h[2].Name != "SaveButton" {
		t.Errorf("innermost: got %+v", h[2])
	}

	h = fromFibers(levels, dom.Info{Tag: "span", Class: "icon"})
	if len(h) != 4 {
		t.Fatalf("levels: got %d, want 4", len(h))
	}
	if last := h[3]; last.Source != message.SourceDOM || last.Selector != "span.icon" {
		t.Errorf("self level: got %+v", last)
	}
}

func TestForeignElementRejected(t *testing.T) {
	tree := &Tree{}
	foreign := statictree.MustParse(`<html><body><p id="x"></p></body></html>`).ByID("x")
	if _, err := tree.Info(context.Background(), foreign); err != ErrForeignElement {
		t.Errorf("Info: got %v, want ErrForeignElement", err)
	}
	c := &Capturer{Tree: tree}
	if _, err := c.Capture(context.Background(), foreign, snapshot.Options{}); err != ErrForeignElement {
		t.Errorf("Capture: got %v, want ErrForeignElement", err)
	}
}
