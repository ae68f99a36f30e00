package statictree

import (
	"context"
	"strings"
	"testing"
)

const page = `<html><head></head><body>
<div id="app" data-box="0 0 800 600" data-component="App">
  <button id="save" class="btn primary" data-box="10 10 100 30">Save</button>
</div>
</body></html>`

func TestElementAtPrefersLaterElements(t *testing.T) {
	tree := MustParse(page)
	ctx := context.Background()

	el, err := tree.ElementAt(ctx, 20, 20)
	if err != nil {
		t.Fatal(err)
	}
	if el != tree.ByID("save") {
		t.Errorf("ElementAt(20,20): got %v, want #save", el)
	}

	el, _ = tree.ElementAt(ctx, 400, 400)
	if el != tree.ByID("app") {
		t.Errorf("ElementAt(400,400): got %v, want #app", el)
	}

	el, _ = tree.ElementAt(ctx, 900, 900)
	if el != nil {
		t.Errorf("ElementAt(900,900): got %v, want nil", el)
	}
}

func TestLayerOccludesUntilHitTestingDisabled(t *testing.T) {
	tree := MustParse(page)
	ctx := context.Background()

	layer, err := tree.MountLayer(ctx)
	if err != nil {
		t.Fatal(err)
	}
	el, _ := tree.ElementAt(ctx, 20, 20)
	if el != layer {
		t.Fatalf("layer should be topmost, got %v", el)
	}

	layer.SetHitTesting(ctx, false)
	el, _ = tree.ElementAt(ctx, 20, 20)
	if el != tree.ByID("save") {
		t.Errorf("with hit-testing off: got %v, want #save", el)
	}

	layer.Unmount(ctx)
	if n := tree.Layers(); n != 0 {
		t.Errorf("Layers after unmount: got %d, want 0", n)
	}
}

func TestMarkers(t *testing.T) {
	tree := MustParse(page)
	ctx := context.Background()
	save := tree.ByID("save")

	tree.AddMarker(ctx, save, "hl")
	tree.AddMarker(ctx, save, "hl")
	info, _ := tree.Info(ctx, save)
	if info.Class != "btn primary hl" {
		t.Errorf("Class: got %q, want %q", info.Class, "btn primary hl")
	}
	if got := tree.Marked("hl"); len(got) != 1 {
		t.Errorf("Marked: got %d, want 1", len(got))
	}

	tree.RemoveMarker(ctx, save, "hl")
	info, _ = tree.Info(ctx, save)
	if info.Class != "btn primary" {
		t.Errorf("Class after remove: got %q, want %q", info.Class, "btn primary")
	}
}

func TestEnsureStyleIsIdempotent(t *testing.T) {
	tree := MustParse(page)
	ctx := context.Background()

	inserted, err := tree.EnsureStyle(ctx, "s1", ".hl{outline:1px solid red}")
	if err != nil || !inserted {
		t.Fatalf("first EnsureStyle: inserted=%v err=%v", inserted, err)
	}
	inserted, _ = tree.EnsureStyle(ctx, "s1", ".hl{outline:1px solid red}")
	if inserted {
		t.Error("second EnsureStyle inserted again")
	}
	if n := tree.StyleCount("s1"); n != 1 {
		t.Errorf("StyleCount: got %d, want 1", n)
	}
	if !strings.Contains(tree.Render(), `<style id="s1">`) {
		t.Error("style element not rendered")
	}
}

func TestParentAndInfo(t *testing.T) {
	tree := MustParse(page)
	ctx := context.Background()

	p, err := tree.Parent(ctx, tree.ByID("save"))
	if err != nil {
		t.Fatal(err)
	}
	if p != tree.ByID("app") {
		t.Errorf("Parent(#save): got %v, want #app", p)
	}
	info, _ := tree.Info(ctx, p)
	if info.Component != "App" || info.Tag != "div" {
		t.Errorf("Info(#app): got %+v", info)
	}

	root, _ := tree.Parent(ctx, tree.First("html"))
	if root != nil {
		t.Errorf("Parent(html): got %v, want nil", root)
	}
}

func TestQuery(t *testing.T) {
	tree := MustParse(page)
	ctx := context.Background()

	cases := []struct {
		sel  string
		want *Node
	}{
		{"#save", tree.ByID("save")},
		{"button.btn.primary", tree.ByID("save")},
		{"div button", tree.ByID("save")},
		{"[data-component=App]", tree.ByID("app")},
		{"div[data-box]", tree.ByID("app")},
		{"button.secondary", nil},
		{"span #save", nil},
	}
	for _, tc := range cases {
		got, err := tree.Query(ctx, tc.sel)
		if err != nil {
			t.Errorf("Query(%q): %v", tc.sel, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Query(%q): got %v, want %v", tc.sel, got, tc.want)
		}
	}

	if _, err := tree.Query(ctx, "  "); err == nil {
		t.Error("empty selector accepted")
	}
	if _, err := tree.Query(ctx, "div[data-box"); err == nil {
		t.Error("unterminated attribute accepted")
	}
}

func TestReplaceStartsANewDocument(t *testing.T) {
	tree := MustParse(page)
	ctx := context.Background()
	old := tree.ByID("save")
	tree.MountLayer(ctx)

	if err := tree.Replace(page); err != nil {
		t.Fatal(err)
	}
	if tree.Layers() != 0 {
		t.Errorf("layers after replace: got %d, want 0", tree.Layers())
	}
	fresh := tree.ByID("save")
	if fresh == nil || fresh.NodeID() == old.NodeID() {
		t.Errorf("node ids reused across documents: old=%d new=%v", old.NodeID(), fresh)
	}
	if p, _ := tree.Parent(ctx, old); p != nil {
		t.Errorf("stale handle still has a parent: %v", p)
	}
}
