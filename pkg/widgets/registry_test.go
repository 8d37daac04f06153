package widgets

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
)

func mustDoc(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

func TestResolve_ExplicitWidgetWins(t *testing.T) {
	reg := NewRegistry()
	doc := mustDoc(t, `<input type="file" data-widget="custom-upload">`)

	got, ok := reg.Resolve(doc.Find("input"))
	if !ok || got.Widget != "custom-upload" {
		t.Fatalf("expected explicit widget to win, got %q (ok=%v)", got.Widget, ok)
	}
}

func TestResolve_Builtins(t *testing.T) {
	reg := NewRegistry()
	doc := mustDoc(t, `
<div class="with-select2"><select id="assignees" multiple></select></div>
<input id="start" class="dateinput">
<span id="help" data-toggle="tooltip" title="Help"></span>
<input id="upload" type="file">
<input id="plain" type="text">`)

	cases := []struct {
		id     string
		expect string
	}{
		{id: "assignees", expect: KindSelect},
		{id: "start", expect: KindDate},
		{id: "help", expect: KindTooltip},
		{id: "upload", expect: KindFileInput},
		{id: "plain", expect: ""},
	}

	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			got, ok := reg.Resolve(doc.Find("#" + tc.id))
			if tc.expect == "" {
				if ok {
					t.Fatalf("expected no widget, got %q", got.Widget)
				}
				return
			}
			if !ok || got.Widget != tc.expect {
				t.Fatalf("expected %q, got %q (ok=%v)", tc.expect, got.Widget, ok)
			}
		})
	}
}

func TestResolve_PriorityThenRegistrationOrder(t *testing.T) {
	reg := NewEmptyRegistry()
	reg.Register("first", 10, "input", Config{})
	reg.Register("second", 10, "input", Config{})
	reg.Register("high", 20, "input.special", Config{})

	doc := mustDoc(t, `<input id="a"><input id="b" class="special">`)

	if got, _ := reg.Resolve(doc.Find("#a")); got.Widget != "first" {
		t.Fatalf("expected registration order tie-break, got %q", got.Widget)
	}
	if got, _ := reg.Resolve(doc.Find("#b")); got.Widget != "high" {
		t.Fatalf("expected higher priority to win, got %q", got.Widget)
	}

	var order []string
	for _, binding := range reg.Bindings() {
		order = append(order, binding.Widget)
	}
	if diff := cmp.Diff([]string{"high", "first", "second"}, order); diff != "" {
		t.Fatalf("bindings order mismatch (-want +got):\n%s", diff)
	}
}

func TestRegister_IgnoresIncompleteRules(t *testing.T) {
	reg := NewEmptyRegistry()
	reg.Register("", 10, "input", Config{})
	reg.Register("select", 10, " ", Config{})
	var nilRegistry *Registry
	nilRegistry.Register("select", 1, "select", Config{})

	if got := len(reg.Bindings()); got != 0 {
		t.Fatalf("expected no bindings, got %d", got)
	}
}

func TestRegister_CopiesConfig(t *testing.T) {
	reg := NewEmptyRegistry()
	separators := []string{";"}
	cfg := Config{Select: &SelectOptions{TokenSeparators: separators}}
	reg.Register(KindSelect, 1, "select", cfg)

	separators[0] = "|"
	cfg.Select.Placeholder = "changed"

	got := reg.Bindings()[0].Config.Select
	if got.TokenSeparators[0] != ";" || got.Placeholder != "" {
		t.Fatalf("registry should hold a copy, got %+v", got)
	}
}
