package message

import (
	"strings"
	"testing"
)

func TestParseInbound(t *testing.T) {
	cases := []struct {
		in      string
		ok      bool
		enabled bool
	}{
		{`{"type":"vly-set-selection-mode","enabled":true}`, true, true},
		{`{"type":"vly-set-selection-mode","enabled":false}`, true, false},
		{`{"type":"vly-set-selection-mode"}`, true, false},
		{`{"type":"something-else","enabled":true}`, false, false},
		{`{"enabled":true}`, false, false},
		{`not json`, false, false},
	}
	for _, c := range cases {
		cmd, ok := ParseInbound([]byte(c.in))
		if ok != c.ok {
			t.Errorf("ParseInbound(%s) ok: got %v, want %v", c.in, ok, c.ok)
			continue
		}
		if cmd.Enabled != c.enabled {
			t.Errorf("ParseInbound(%s) enabled: got %v, want %v", c.in, cmd.Enabled, c.enabled)
		}
	}
}

func TestMarshalSelectionOmitsEmptyImage(t *testing.T) {
	s := &Selection{
		Selector:                "#save",
		ReactHierarchy:          Hierarchy{{Name: "App", Source: SourceDOM}},
		ReactHierarchyFormatted: "App",
	}
	data, err := MarshalSelection(s)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, `"image"`) {
		t.Errorf("image field present in %s", out)
	}
	if !strings.Contains(out, `"type":"vly-element-selected"`) {
		t.Errorf("type tag missing in %s", out)
	}

	got, err := UnmarshalSelection(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Selector != "#save" {
		t.Errorf("Selector: got %q, want %q", got.Selector, "#save")
	}
}

func TestUnmarshalSelectionRejectsOtherTypes(t *testing.T) {
	if _, err := UnmarshalSelection([]byte(`{"type":"vly-set-selection-mode"}`)); err == nil {
		t.Error("expected error for inbound type tag")
	}
}
