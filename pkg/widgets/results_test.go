package widgets

import (
	"strings"
	"testing"

	"github.com/goliatone/go-formset/pkg/render"
	"github.com/goliatone/go-formset/pkg/search"
)

func TestRenderResult_Annotations(t *testing.T) {
	result := search.Result{
		ID:                  "7",
		Text:                "Jane <Doe>",
		Disabled:            true,
		DisqualifiedForDate: true,
		DisqualifiedForTags: true,
		Tooltip:             "Available Aug 27-Aug 29. No matching tags.",
	}

	doc := mustDoc(t, RenderResult(result))
	span := doc.Find("span")
	if span.Length() != 1 {
		t.Fatalf("expected one span")
	}
	for _, class := range []string{ClassResult, ClassDisabled, ClassDisqualifiedForDate, ClassDisqualifiedForTags} {
		if !span.HasClass(class) {
			t.Fatalf("expected class %q", class)
		}
	}
	if title, _ := span.Attr("title"); title != result.Tooltip {
		t.Fatalf("unexpected title %q", title)
	}
	if id, _ := span.Attr("data-id"); id != "7" {
		t.Fatalf("unexpected data-id %q", id)
	}
	if span.Text() != "Jane <Doe>" {
		t.Fatalf("text should be escaped, got %q", span.Text())
	}
}

func TestRenderChip_Plain(t *testing.T) {
	doc := mustDoc(t, RenderChip(search.Result{ID: "3", Text: "kitchen"}))
	span := doc.Find("span.select-chip")
	if span.Length() != 1 {
		t.Fatalf("expected chip span")
	}
	if _, ok := span.Attr("title"); ok {
		t.Fatalf("plain chip should not carry a title")
	}
	if span.HasClass(ClassDisabled) {
		t.Fatalf("plain chip should not be disabled")
	}
}

func TestRenderResultWith_Sanitizes(t *testing.T) {
	engine, err := render.New()
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	tpl := `<span class="{{ classes }}" onclick="steal()">{{ text }}</span><script>alert(1)</script>`

	out, err := RenderResultWith(engine, tpl, search.Result{Text: "Jane", DisqualifiedForTags: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "onclick") || strings.Contains(out, "<script") {
		t.Fatalf("expected sanitized output, got %q", out)
	}
	if !strings.Contains(out, ClassDisqualifiedForTags) || !strings.Contains(out, "Jane") {
		t.Fatalf("expected class and text preserved, got %q", out)
	}
}

func TestSanitizeResultMarkup_Empty(t *testing.T) {
	if got := SanitizeResultMarkup("   "); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}
