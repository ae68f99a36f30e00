package overlay

import (
	"context"
	"testing"

	"github.com/hazyhaar/vlypick/picker/dom"
	"github.com/hazyhaar/vlypick/picker/dom/statictree"
)

const page = `<html><body>
<main id="page" data-box="0 0 1000 800">
  <button id="save" data-box="10 10 100 30">Save</button>
  <button id="cancel" data-box="120 10 100 30">Cancel</button>
</main>
<div id="toolbar" data-box="0 760 1000 40"><span class="label" data-box="5 765 50 20">vly</span></div>
</body></html>`

const marker = "hl"

type recorder struct {
	hovered   []dom.Element
	unhovered int
	selected  []dom.Element
}

func setup(t *testing.T, active *bool) (*Overlay, *statictree.Tree, *recorder) {
	t.Helper()
	tree := statictree.MustParse(page)
	rec := &recorder{}
	o := New(Config{
		Tree:        tree,
		MarkerClass: marker,
		Active:      func() bool { return *active },
		OnHover:     func(_ context.Context, el dom.Element) { rec.hovered = append(rec.hovered, el) },
		OnUnhover:   func(context.Context) { rec.unhovered++ },
		OnSelect:    func(_ context.Context, el dom.Element) { rec.selected = append(rec.selected, el) },
	})
	o.SetIgnore(map[dom.NodeID]struct{}{tree.ByID("toolbar").NodeID(): {}})
	if err := o.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	return o, tree, rec
}

func TestResolveLooksThroughLayer(t *testing.T) {
	active := true
	o, tree, _ := setup(t, &active)
	ctx := context.Background()

	if got := o.Resolve(ctx, 20, 20); got != tree.ByID("save") {
		t.Errorf("Resolve: got %v, want #save", got)
	}
	// The layer must be hittable again afterwards.
	el, _ := tree.ElementAt(ctx, 20, 20)
	if el == tree.ByID("save") {
		t.Error("layer hit-testing not restored")
	}
	if got := o.Resolve(ctx, 5000, 5000); got != nil {
		t.Errorf("Resolve off-page: got %v, want nil", got)
	}
}

func TestPointerMoveKeepsSingleMarker(t *testing.T) {
	active := true
	o, tree, rec := setup(t, &active)
	ctx := context.Background()

	o.PointerMove(ctx, 20, 20)
	o.PointerMove(ctx, 25, 25) // same element, no new notification
	o.PointerMove(ctx, 130, 20)
	o.PointerMove(ctx, 500, 500)

	marked := tree.Marked(marker)
	if len(marked) != 1 {
		t.Fatalf("marked elements: got %d, want 1", len(marked))
	}
	if marked[0] != tree.ByID("page") {
		t.Errorf("marked: got %v, want #page", marked[0])
	}
	if len(rec.hovered) != 3 {
		t.Errorf("hover notifications: got %d, want 3", len(rec.hovered))
	}
	if o.Hovered() != rec.hovered[len(rec.hovered)-1] {
		t.Error("hovered element differs from last notification")
	}
}

func TestPointerMoveIgnoresMissesAndToolbar(t *testing.T) {
	active := true
	o, tree, rec := setup(t, &active)
	ctx := context.Background()

	o.PointerMove(ctx, 20, 20)
	o.PointerMove(ctx, 10, 770)  // toolbar child
	o.PointerMove(ctx, 5000, 10) // nothing

	if o.Hovered() != tree.ByID("save") {
		t.Errorf("hovered: got %v, want #save", o.Hovered())
	}
	if len(rec.hovered) != 1 {
		t.Errorf("hover notifications: got %d, want 1", len(rec.hovered))
	}
}

func TestPointerMoveInactive(t *testing.T) {
	active := false
	o, tree, rec := setup(t, &active)

	o.PointerMove(context.Background(), 20, 20)
	if len(tree.Marked(marker)) != 0 || len(rec.hovered) != 0 {
		t.Error("inactive overlay reacted to pointer move")
	}
}

func TestPointerLeave(t *testing.T) {
	active := true
	o, tree, rec := setup(t, &active)
	ctx := context.Background()

	o.PointerLeave(ctx)
	if rec.unhovered != 1 {
		t.Errorf("unhover without hover: got %d, want 1", rec.unhovered)
	}

	o.PointerMove(ctx, 20, 20)
	o.PointerLeave(ctx)
	if o.Hovered() != nil {
		t.Error("hovered not cleared")
	}
	if len(tree.Marked(marker)) != 0 {
		t.Error("marker left after leave")
	}
	if rec.unhovered != 2 {
		t.Errorf("unhover notifications: got %d, want 2", rec.unhovered)
	}
}

func TestClick(t *testing.T) {
	active := true
	o, tree, rec := setup(t, &active)
	ctx := context.Background()

	o.PointerMove(ctx, 20, 20)
	if o.Click(ctx, 10, 770) {
		t.Error("click on toolbar reported a selection")
	}
	if !o.Mounted() || len(rec.selected) != 0 {
		t.Error("aborted click changed state")
	}

	if !o.Click(ctx, 20, 20) {
		t.Fatal("click on #save aborted")
	}
	if len(rec.selected) != 1 || rec.selected[0] != tree.ByID("save") {
		t.Errorf("selected: got %v", rec.selected)
	}
	if len(tree.Marked(marker)) != 0 {
		t.Error("marker left after click")
	}
}

func TestMountResetsHoverAndUnmountClearsMarker(t *testing.T) {
	active := true
	o, tree, _ := setup(t, &active)
	ctx := context.Background()

	o.PointerMove(ctx, 20, 20)
	if err := o.Unmount(ctx); err != nil {
		t.Fatal(err)
	}
	if len(tree.Marked(marker)) != 0 {
		t.Error("marker leaked through unmount")
	}
	if tree.Layers() != 0 {
		t.Error("layer still mounted")
	}
	o.Mount(ctx)
	if o.Hovered() != nil {
		t.Error("hover state survived remount")
	}
}

func TestDiscardLeavesTreeAlone(t *testing.T) {
	active := true
	o, tree, _ := setup(t, &active)
	ctx := context.Background()

	o.PointerMove(ctx, 20, 20)
	o.Discard()
	if o.Mounted() || o.Hovered() != nil {
		t.Error("state kept after discard")
	}
	// The tree is not written to: the marker and layer are still there.
	if len(tree.Marked(marker)) != 1 || tree.Layers() != 1 {
		t.Errorf("tree touched: marked=%d layers=%d", len(tree.Marked(marker)), tree.Layers())
	}
	if err := o.Mount(ctx); err != nil {
		t.Fatal(err)
	}
	if tree.Layers() != 2 {
		t.Errorf("layers after remount: got %d, want 2", tree.Layers())
	}
}
