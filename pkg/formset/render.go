package formset

import (
	"errors"
	"fmt"
	"html"
	"io"
	"net/url"
	"sort"
	"strings"
)

// TemplateRenderer renders inline template content. pkg/render.Engine
// satisfies it.
type TemplateRenderer interface {
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
}

// RowContext is the data a row template sees.
type RowContext struct {
	Prefix  string            `json:"prefix"`
	Index   int               `json:"index"`
	Counter int               `json:"counter"`
	Values  map[string]string `json:"values"`
	Names   map[string]string `json:"names"`
	IDs     map[string]string `json:"ids"`
	// Fields lists every field of the row in render order: the section
	// Fields first, then remaining row keys sorted.
	Fields []FieldContext `json:"fields"`
}

// FieldContext describes one field of a row.
type FieldContext struct {
	Field string `json:"field"`
	Name  string `json:"name"`
	ID    string `json:"id"`
	Value string `json:"value"`
	// Errors holds validation messages attached with SetErrors.
	Errors []string `json:"errors,omitempty"`
}

// Context builds the template data of the row at index. Names and IDs cover
// both Fields and any field present in the row values.
func (s *Section) Context(index int) (RowContext, bool) {
	row, ok := s.Row(index)
	if !ok {
		return RowContext{}, false
	}
	ctx := RowContext{
		Prefix:  s.Prefix,
		Index:   row.Index,
		Counter: row.Index + 1,
		Values:  make(map[string]string, len(row.Values)),
		Names:   make(map[string]string),
		IDs:     make(map[string]string),
	}
	for field := range row.Values {
		ctx.Values[field] = row.Values.Get(field)
	}
	for _, field := range orderedFields(s.Fields, row.Values) {
		ctx.Names[field] = s.Name(row.Index, field)
		ctx.IDs[field] = s.ID(row.Index, field)
		ctx.Fields = append(ctx.Fields, FieldContext{
			Field:  field,
			Name:   ctx.Names[field],
			ID:     ctx.IDs[field],
			Value:  ctx.Values[field],
			Errors: s.errors.Row(row.Index)[field],
		})
	}
	return ctx, true
}

// Map exposes the context as template data with ints kept as ints.
func (c RowContext) Map() map[string]any {
	fields := make([]map[string]any, 0, len(c.Fields))
	for _, f := range c.Fields {
		fields = append(fields, map[string]any{
			"field":  f.Field,
			"name":   f.Name,
			"id":     f.ID,
			"value":  f.Value,
			"errors": append([]string(nil), f.Errors...),
		})
	}
	return map[string]any{
		"prefix":  c.Prefix,
		"index":   c.Index,
		"counter": c.Counter,
		"values":  c.Values,
		"names":   c.Names,
		"ids":     c.IDs,
		"fields":  fields,
	}
}

// NamedTemplateRenderer renders templates loaded by name. pkg/render.Engine
// satisfies it.
type NamedTemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}

// RowRenderer turns a row context into markup.
type RowRenderer func(ctx RowContext) (string, error)

// InlineRow renders rows from template content.
func InlineRow(engine TemplateRenderer, rowTemplate string) RowRenderer {
	return func(ctx RowContext) (string, error) {
		if engine == nil {
			return "", errors.New("formset: template renderer is nil")
		}
		return engine.RenderString(rowTemplate, ctx.Map())
	}
}

// NamedRow renders rows from a template the engine loads by name.
func NamedRow(engine NamedTemplateRenderer, name string) RowRenderer {
	return func(ctx RowContext) (string, error) {
		if engine == nil {
			return "", errors.New("formset: template renderer is nil")
		}
		return engine.RenderTemplate(name, ctx.Map())
	}
}

// RenderRow renders the row at index with rowTemplate.
func (s *Section) RenderRow(engine TemplateRenderer, rowTemplate string, index int) (string, error) {
	return s.RenderRowWith(InlineRow(engine, rowTemplate), index)
}

// RenderRowWith renders the row at index with rr.
func (s *Section) RenderRowWith(rr RowRenderer, index int) (string, error) {
	if rr == nil {
		return "", errors.New("formset: row renderer is nil")
	}
	ctx, ok := s.Context(index)
	if !ok {
		return "", fmt.Errorf("formset: row %d out of range", index)
	}
	out, err := rr(ctx)
	if err != nil {
		return "", fmt.Errorf("formset: render row %d: %w", index, err)
	}
	return out, nil
}

// Render writes the section error list, every row and then the management
// inputs.
func (s *Section) Render(w io.Writer, engine TemplateRenderer, rowTemplate string) error {
	return s.RenderWith(w, InlineRow(engine, rowTemplate))
}

// RenderWith is Render with an arbitrary row renderer.
func (s *Section) RenderWith(w io.Writer, rr RowRenderer) error {
	if msgs := s.Errors().Section; len(msgs) > 0 {
		if _, err := io.WriteString(w, errorListHTML(msgs)); err != nil {
			return err
		}
	}
	for i := 0; i < s.Len(); i++ {
		out, err := s.RenderRowWith(rr, i)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, out); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, s.ManagementHTML())
	return err
}

// ManagementHTML renders the management form as hidden inputs.
func (s *Section) ManagementHTML() string {
	var b strings.Builder
	for _, field := range s.HiddenFields() {
		b.WriteString(`<input type="hidden" name="`)
		b.WriteString(html.EscapeString(field.Name))
		b.WriteString(`" value="`)
		b.WriteString(html.EscapeString(field.Value))
		b.WriteString(`" id="id_`)
		b.WriteString(html.EscapeString(field.Name))
		b.WriteString(`">`)
	}
	return b.String()
}

func errorListHTML(messages []string) string {
	var b strings.Builder
	b.WriteString(`<ul class="errorlist nonform">`)
	for _, msg := range messages {
		b.WriteString("<li>")
		b.WriteString(html.EscapeString(msg))
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}

func orderedFields(fields []string, values url.Values) []string {
	seen := make(map[string]struct{}, len(fields)+len(values))
	out := make([]string, 0, len(fields)+len(values))
	for _, field := range fields {
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	extra := make([]string, 0, len(values))
	for field := range values {
		if _, ok := seen[field]; !ok {
			extra = append(extra, field)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
