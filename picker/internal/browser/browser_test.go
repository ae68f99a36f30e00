package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"headful":  Headful,
		"headless": Headless,
		"":         Headless,
		"bogus":    Headless,
	}
	for in, want := range cases {
		if got := ParseMode(in); got != want {
			t.Errorf("ParseMode(%q): got %v, want %v", in, got, want)
		}
	}
}

func TestResourceKind(t *testing.T) {
	blocked := blockSet([]string{"Images", " fonts ", "xhr"})
	cases := []struct {
		typ  proto.NetworkResourceType
		want bool
	}{
		{proto.NetworkResourceTypeImage, true},
		{proto.NetworkResourceTypeFont, true},
		{proto.NetworkResourceTypeXHR, true},
		{proto.NetworkResourceTypeStylesheet, false},
		{proto.NetworkResourceTypeDocument, false},
	}
	for _, c := range cases {
		if got := blocked[resourceKind(c.typ)]; got != c.want {
			t.Errorf("blocked %s: got %v, want %v", c.typ, got, c.want)
		}
	}
}

func TestClosedManager(t *testing.T) {
	m := NewManager(Config{})
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Close: got %v, want ErrClosed", err)
	}
	if _, err := m.OpenTab(context.Background(), "about:blank", "p"); err == nil {
		t.Error("OpenTab without browser: expected error")
	}
}
