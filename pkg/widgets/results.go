package widgets

import (
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formset/pkg/search"
)

// Classes applied to annotated results and chips.
const (
	ClassResult              = "select-result"
	ClassChip                = "select-chip"
	ClassDisabled            = "disabled"
	ClassDisqualifiedForDate = "disqualified-for-date"
	ClassDisqualifiedForTags = "disqualified-for-tags"
)

// TemplateRenderer renders inline templates. pkg/render.Engine satisfies it.
type TemplateRenderer interface {
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
}

var (
	resultPolicyOnce sync.Once
	resultPolicy     *bluemonday.Policy
)

// RenderResult renders a dropdown entry.
func RenderResult(result search.Result) string {
	return renderAnnotated(ClassResult, result)
}

// RenderChip renders a selected value. Chips keep the disqualification
// classes so an invalid pick stays visible after selection.
func RenderChip(result search.Result) string {
	return renderAnnotated(ClassChip, result)
}

// RenderResultWith renders result through a custom template and sanitizes
// the output. The template sees id, text, tooltip, classes and the flags.
func RenderResultWith(engine TemplateRenderer, tpl string, result search.Result) (string, error) {
	if engine == nil {
		return "", fmt.Errorf("widgets: template renderer is nil")
	}
	out, err := engine.RenderString(tpl, map[string]any{
		"id":                    string(result.ID),
		"text":                  result.Text,
		"tooltip":               result.Tooltip,
		"disabled":              result.Disabled,
		"disqualified_for_date": result.DisqualifiedForDate,
		"disqualified_for_tags": result.DisqualifiedForTags,
		"classes":               strings.Join(annotationClasses(result), " "),
	})
	if err != nil {
		return "", fmt.Errorf("widgets: render result: %w", err)
	}
	return SanitizeResultMarkup(out), nil
}

// SanitizeResultMarkup keeps the inline markup result templates may use and
// strips everything else.
func SanitizeResultMarkup(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(resultSanitizer().Sanitize(trimmed))
}

func renderAnnotated(base string, result search.Result) string {
	classes := append([]string{base}, annotationClasses(result)...)

	var b strings.Builder
	b.WriteString(`<span class="`)
	b.WriteString(html.EscapeString(strings.Join(classes, " ")))
	b.WriteString(`"`)
	if id := string(result.ID); id != "" {
		b.WriteString(` data-id="`)
		b.WriteString(html.EscapeString(id))
		b.WriteString(`"`)
	}
	if tooltip := strings.TrimSpace(result.Tooltip); tooltip != "" {
		b.WriteString(` title="`)
		b.WriteString(html.EscapeString(tooltip))
		b.WriteString(`" data-toggle="tooltip"`)
	}
	b.WriteString(`>`)
	b.WriteString(html.EscapeString(result.Text))
	b.WriteString(`</span>`)
	return SanitizeResultMarkup(b.String())
}

func annotationClasses(result search.Result) []string {
	var classes []string
	if result.Disabled {
		classes = append(classes, ClassDisabled)
	}
	if result.DisqualifiedForDate {
		classes = append(classes, ClassDisqualifiedForDate)
	}
	if result.DisqualifiedForTags {
		classes = append(classes, ClassDisqualifiedForTags)
	}
	return classes
}

func resultSanitizer() *bluemonday.Policy {
	resultPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("span", "strong", "em", "small", "b", "i")
		policy.AllowAttrs("class", "title").OnElements("span", "strong", "em", "small", "b", "i")
		policy.AllowDataAttributes()
		resultPolicy = policy
	})
	return resultPolicy
}
