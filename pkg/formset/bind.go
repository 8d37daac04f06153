package formset

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/form"
)

// ErrIndexOutOfRange reports a submitted field whose row index is not below
// TOTAL_FORMS.
var ErrIndexOutOfRange = errors.New("formset: row index outside TOTAL_FORMS")

// DateLayouts are tried in order when decoding time.Time row fields. The
// first matches the date picker format (mm/dd/yyyy).
var DateLayouts = []string{"01/02/2006", "2006-01-02", time.RFC3339}

// SectionFromValues rebuilds a section from a form submission. When fields
// is empty every "<prefix>-<index>-<field>" key is collected; otherwise only
// the listed fields are kept. A row below TOTAL_FORMS with no submitted key
// (unchecked checkboxes, empty multi-selects) becomes an empty row.
func SectionFromValues(values url.Values, prefix string, fields ...string) (*Section, error) {
	return SectionFromValuesLimit(values, prefix, AbsoluteMaxForms, fields...)
}

// SectionFromValuesLimit is SectionFromValues with a ceiling for TOTAL_FORMS,
// checked before any row is allocated.
func SectionFromValuesLimit(values url.Values, prefix string, absoluteMax int, fields ...string) (*Section, error) {
	m, err := ParseManagementLimit(values, prefix, absoluteMax)
	if err != nil {
		return nil, err
	}

	var allowed map[string]struct{}
	if len(fields) > 0 {
		allowed = make(map[string]struct{}, len(fields))
		for _, field := range fields {
			allowed[field] = struct{}{}
		}
	}

	rows := make([]url.Values, m.TotalForms)
	for key, vals := range values {
		index, field, ok := splitRowKey(prefix, key)
		if !ok {
			continue
		}
		if index >= m.TotalForms {
			return nil, fmt.Errorf("%w: %s (TOTAL_FORMS=%d)", ErrIndexOutOfRange, key, m.TotalForms)
		}
		if allowed != nil {
			if _, keep := allowed[field]; !keep {
				continue
			}
		}
		if rows[index] == nil {
			rows[index] = url.Values{}
		}
		rows[index][field] = append([]string(nil), vals...)
	}

	for index, row := range rows {
		if row == nil {
			rows[index] = url.Values{}
		}
	}

	section := NewSection(prefix, rows...)
	section.InitialForms = m.InitialForms
	section.MinForms = m.MinForms
	section.MaxForms = m.MaxForms
	if len(fields) > 0 {
		section.Fields = append([]string(nil), fields...)
	} else {
		section.Fields = collectFields(rows)
	}
	return section, nil
}

// Values encodes the section as a form submission: every row field under
// its prefixed name plus the management fields. SectionFromValues reverses
// it.
func (s *Section) Values() url.Values {
	out := url.Values{}
	if s == nil {
		return out
	}
	for _, row := range s.rows {
		for field, vals := range row.Values {
			out[s.Name(row.Index, field)] = append([]string(nil), vals...)
		}
	}
	for _, hidden := range s.HiddenFields() {
		out.Set(hidden.Name, hidden.Value)
	}
	return out
}

// Decode binds the rows of prefix into a slice of T. Row fields map onto
// struct fields through `form:"name"` tags; time.Time fields accept
// DateLayouts.
func Decode[T any](values url.Values, prefix string) ([]T, error) {
	section, err := SectionFromValues(values, prefix)
	if err != nil {
		return nil, err
	}

	rewritten := make(url.Values)
	for _, row := range section.Rows() {
		for field, vals := range row.Values {
			rewritten["rows["+strconv.Itoa(row.Index)+"]."+field] = vals
		}
	}

	var holder struct {
		Rows []T `form:"rows"`
	}
	if err := rowDecoder().Decode(&holder, rewritten); err != nil {
		return nil, fmt.Errorf("formset: decode %s rows: %w", prefix, err)
	}
	if len(holder.Rows) < section.Len() {
		grown := make([]T, section.Len())
		copy(grown, holder.Rows)
		holder.Rows = grown
	}
	return holder.Rows, nil
}

var (
	decoderOnce sync.Once
	decoder     *form.Decoder
)

func rowDecoder() *form.Decoder {
	decoderOnce.Do(func() {
		d := form.NewDecoder()
		d.RegisterCustomTypeFunc(decodeTime, time.Time{})
		decoder = d
	})
	return decoder
}

func decodeTime(vals []string) (interface{}, error) {
	raw := ""
	if len(vals) > 0 {
		raw = strings.TrimSpace(vals[0])
	}
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("formset: unrecognised date %q", raw)
}

// splitRowKey parses "<prefix>-<index>-<field>".
func splitRowKey(prefix, key string) (int, string, bool) {
	rest := key
	if prefix != "" {
		if !strings.HasPrefix(key, prefix+"-") {
			return 0, "", false
		}
		rest = key[len(prefix)+1:]
	}
	rawIndex, field, ok := strings.Cut(rest, "-")
	if !ok || field == "" || rawIndex == "" {
		return 0, "", false
	}
	for _, r := range rawIndex {
		if r < '0' || r > '9' {
			return 0, "", false
		}
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		return 0, "", false
	}
	return index, field, true
}

func collectFields(rows []url.Values) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for field := range row {
			seen[field] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for field := range seen {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}
