package picker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hazyhaar/vlypick/picker/dom/statictree"
	"github.com/hazyhaar/vlypick/picker/message"
)

func newTestSession(t *testing.T, id string) (*Session, *statictree.Tree) {
	t.Helper()
	tree := statictree.MustParse(page)
	cfg := SessionConfig{
		ID:      id,
		URL:     "https://app.example/" + id,
		Toolbar: ToolbarConfig{Tree: tree},
	}
	s := NewSession(cfg)
	root, _ := tree.Query(context.Background(), "div#vly-toolbar")
	s.Toolbar().AttachRoot(root)
	t.Cleanup(func() { s.Close() })
	return s, tree
}

// awaitAsync starts Await and returns once the waiter is registered.
func awaitAsync(t *testing.T, s *Session) <-chan message.Selection {
	t.Helper()
	out := make(chan message.Selection, 1)
	go func() {
		sel, err := s.Await(context.Background())
		if err != nil {
			t.Error(err)
		}
		out <- sel
	}()
	for s.await.Waiting() == 0 {
		time.Sleep(time.Millisecond)
	}
	return out
}

func TestSessionAwait(t *testing.T) {
	s, _ := newTestSession(t, "home")
	ctx := context.Background()

	got := awaitAsync(t, s)
	if err := s.SetSelectionMode(ctx, true); err != nil {
		t.Fatal(err)
	}
	if !s.Toolbar().Click(ctx, 20, 20) {
		t.Fatal("click aborted")
	}

	select {
	case sel := <-got:
		if sel.Selector != "#save" {
			t.Errorf("Selector: got %q", sel.Selector)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("await not released")
	}

	// Nothing is kept for callers that arrive late.
	s.Toolbar().Wait()
	ctx2, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := s.Await(ctx2); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("late Await: got %v, want deadline exceeded", err)
	}
}

func TestSessionCloseRunsClosersOnce(t *testing.T) {
	s, tree := newTestSession(t, "p")
	var order []string
	s.onClose(func() error { order = append(order, "tab"); return nil })
	s.onClose(func() error { order = append(order, "bridge"); return nil })

	s.SetSelectionMode(context.Background(), true)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	s.Close()
	if len(order) != 2 || order[0] != "bridge" || order[1] != "tab" {
		t.Errorf("closers: got %v, want [bridge tab]", order)
	}
	if tree.Layers() != 0 {
		t.Error("overlay left mounted after close")
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	b, _ := newTestSession(t, "b")
	a, _ := newTestSession(t, "a")

	if err := reg.Add(b); err != nil {
		t.Fatal(err)
	}
	reg.Add(a)
	if err := reg.Add(a); err == nil {
		t.Error("duplicate Add accepted")
	}
	list := reg.List()
	if len(list) != 2 || list[0].ID() != "a" {
		t.Errorf("List: got %d sessions, first %q", len(list), list[0].ID())
	}
	if _, err := reg.Get("zzz"); !errors.Is(err, ErrUnknownPage) {
		t.Errorf("Get: got %v, want ErrUnknownPage", err)
	}
	if reg.Remove("a") != a || reg.Remove("a") != nil {
		t.Error("Remove")
	}
}
