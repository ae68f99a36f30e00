package idgen

import (
	"strings"
	"testing"
)

func TestNewIsPrefixedUUIDv7(t *testing.T) {
	id := New()
	if !strings.HasPrefix(id, "tb_") {
		t.Fatalf("New: got %q, want tb_ prefix", id)
	}
	u, err := Parse(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(u) != 36 || u[14] != '7' {
		t.Errorf("Parse: got %q, want a v7 UUID", u)
	}
}

func TestPageIDs(t *testing.T) {
	seen := make(map[string]struct{}, 500)
	for i := 0; i < 500; i++ {
		id := Page()
		if !strings.HasPrefix(id, "pg_") {
			t.Fatalf("Page: got %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "nounderscore", "tb_not-a-uuid"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}
