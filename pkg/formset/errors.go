package formset

import (
	"sort"
	"strconv"
	"strings"
)

// Errors holds validation messages of a section.
type Errors struct {
	// Rows maps a row index to messages keyed by bare field name.
	Rows map[int]map[string][]string
	// Section holds messages not tied to a row field.
	Section []string
}

// Row returns the field messages of the row at index.
func (e Errors) Row(index int) map[string][]string {
	return e.Rows[index]
}

// Empty reports whether there are no messages at all.
func (e Errors) Empty() bool {
	return len(e.Rows) == 0 && len(e.Section) == 0
}

// MergeMessages concatenates message slices, trimming whitespace and removing
// duplicates while preserving order.
func MergeMessages(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrors sorts a server error payload into row and section messages.
// Keys may be submitted names ("participants-1-user"), dotted or JSON
// pointer paths ("participants.1.user", "/body/participants/1/user",
// "$.participants[1].user") or row-relative paths ("1.user"). Keys that do
// not resolve to a field of an existing row become section messages.
func MapErrors(section *Section, payload map[string][]string) Errors {
	var out Errors
	if section == nil || len(payload) == 0 {
		return out
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		messages := normalizeMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		index, field, ok := section.resolveErrorKey(key)
		if !ok {
			out.Section = append(out.Section, messages...)
			continue
		}
		if out.Rows == nil {
			out.Rows = make(map[int]map[string][]string)
		}
		if out.Rows[index] == nil {
			out.Rows[index] = make(map[string][]string)
		}
		out.Rows[index][field] = MergeMessages(out.Rows[index][field], messages...)
	}
	out.Section = normalizeMessages(out.Section)
	return out
}

// SetErrors attaches errors to the section so row contexts carry them.
func (s *Section) SetErrors(errs Errors) {
	if s == nil {
		return
	}
	s.errors = errs
}

// Errors returns the errors attached with SetErrors.
func (s *Section) Errors() Errors {
	if s == nil {
		return Errors{}
	}
	return s.errors
}

func (s *Section) resolveErrorKey(raw string) (int, string, bool) {
	key := strings.TrimSpace(raw)
	if isSectionLevelKey(key) {
		return 0, "", false
	}

	if index, field, ok := splitRowKey(s.Prefix, key); ok {
		return index, field, s.knowsField(index, field)
	}

	segments := dropWrapperSegments(parsePathSegments(key))
	if len(segments) > 0 && s.Prefix != "" && segments[0] == s.Prefix {
		segments = segments[1:]
	}
	if len(segments) < 2 {
		return 0, "", false
	}
	index, err := strconv.Atoi(segments[0])
	if err != nil {
		return 0, "", false
	}
	field := segments[1]
	return index, field, s.knowsField(index, field)
}

// knowsField reports whether field belongs to the row at index: it must be
// listed in Fields or present in the row values.
func (s *Section) knowsField(index int, field string) bool {
	if index < 0 || index >= s.Len() || field == "" {
		return false
	}
	for _, known := range s.Fields {
		if known == field {
			return true
		}
	}
	_, ok := s.rows[index].Values[field]
	return ok
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return nil
	}
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = strings.TrimPrefix(clean, "#")
		clean = strings.TrimPrefix(clean, "/")
		clean = strings.TrimPrefix(clean, ".")
		clean = strings.TrimPrefix(clean, "$")
	}

	replacer := strings.NewReplacer("[", ".", "]", "", "//", "/")
	clean = strings.Trim(replacer.Replace(clean), "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	wrappers := map[string]struct{}{
		"body":       {},
		"request":    {},
		"payload":    {},
		"data":       {},
		"attributes": {},
		"forms":      {},
	}
	out := segments
	for len(out) > 0 {
		if _, ok := wrappers[strings.ToLower(out[0])]; !ok {
			break
		}
		out = out[1:]
	}
	return out
}

func isSectionLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors", "non-field-errors", "non_form_errors", "non-form-errors":
		return true
	default:
		return false
	}
}
