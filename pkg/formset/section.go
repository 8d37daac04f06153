package formset

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

var (
	// ErrEmptySection is returned by AddRow when there is no row to copy.
	ErrEmptySection = errors.New("formset: section has no rows to copy")
	// ErrMaxForms is returned by AddRow when the section already holds
	// MaxForms rows.
	ErrMaxForms = errors.New("formset: maximum number of forms reached")
)

// DefaultMaxForms is used when a Section does not set MaxForms. It matches the
// default upper bound of common server-side formset binders.
const DefaultMaxForms = 1000

// Row is one repeatable unit of a Section. Index is its zero-based position;
// Values holds field values keyed by the bare field name (no prefix).
type Row struct {
	Index  int
	Values url.Values
}

// Value returns the first value for field, or "".
func (r Row) Value(field string) string {
	return r.Values.Get(field)
}

// Section is a repeating form section. Rows are only added through AddRow so
// row indices stay contiguous and TotalForms always equals the number of
// rows.
type Section struct {
	Prefix string
	// Fields lists the field names every row carries, in render order.
	Fields []string
	// InitialForms is the number of rows that came from storage.
	InitialForms int
	MinForms     int
	// MaxForms bounds AddRow. Zero means DefaultMaxForms.
	MaxForms int

	rows   []Row
	errors Errors
}

// NewSection builds a section whose seed rows are the provided values, in
// order. The seed rows count as initial forms.
func NewSection(prefix string, rows ...url.Values) *Section {
	s := &Section{Prefix: strings.TrimSpace(prefix)}
	for _, values := range rows {
		s.rows = append(s.rows, Row{Index: len(s.rows), Values: cloneValues(values)})
	}
	s.InitialForms = len(s.rows)
	return s
}

// WithFields sets the ordered field list and returns the section.
func (s *Section) WithFields(fields ...string) *Section {
	s.Fields = append([]string(nil), fields...)
	return s
}

// Len returns the number of rows.
func (s *Section) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rows)
}

// TotalForms is the value written to the TOTAL_FORMS management field.
func (s *Section) TotalForms() int {
	return s.Len()
}

// Rows returns a copy of the rows in index order.
func (s *Section) Rows() []Row {
	if s == nil || len(s.rows) == 0 {
		return nil
	}
	out := make([]Row, len(s.rows))
	for i, row := range s.rows {
		out[i] = Row{Index: row.Index, Values: cloneValues(row.Values)}
	}
	return out
}

// Row returns the row at index.
func (s *Section) Row(index int) (Row, bool) {
	if s == nil || index < 0 || index >= len(s.rows) {
		return Row{}, false
	}
	row := s.rows[index]
	return Row{Index: row.Index, Values: cloneValues(row.Values)}, true
}

// Set replaces the values of field in the row at index.
func (s *Section) Set(index int, field string, values ...string) bool {
	if s == nil || index < 0 || index >= len(s.rows) {
		return false
	}
	if s.rows[index].Values == nil {
		s.rows[index].Values = url.Values{}
	}
	s.rows[index].Values[field] = append([]string(nil), values...)
	return true
}

// AddRow appends a copy of the last row. The new row starts with the last
// row's current values and takes the next index. The copied row is left
// unchanged.
func (s *Section) AddRow() (Row, error) {
	if s == nil || len(s.rows) == 0 {
		return Row{}, ErrEmptySection
	}
	if len(s.rows) >= s.maxForms() {
		return Row{}, ErrMaxForms
	}

	template := s.rows[len(s.rows)-1]
	row := Row{Index: len(s.rows), Values: cloneValues(template.Values)}
	s.rows = append(s.rows, row)
	return Row{Index: row.Index, Values: cloneValues(row.Values)}, nil
}

// Name renders the submitted name of field in row index, e.g.
// "participants-2-start_date".
func (s *Section) Name(index int, field string) string {
	return FieldName(s.Prefix, index, field)
}

// ID renders the element id of field in row index, e.g.
// "id_participants-2-start_date".
func (s *Section) ID(index int, field string) string {
	return FieldID(s.Prefix, index, field)
}

func (s *Section) maxForms() int {
	if s.MaxForms > 0 {
		return s.MaxForms
	}
	return DefaultMaxForms
}

// FieldName joins prefix, row index and field with dashes. An empty prefix
// yields "<index>-<field>".
func FieldName(prefix string, index int, field string) string {
	var b strings.Builder
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteByte('-')
	}
	b.WriteString(strconv.Itoa(index))
	b.WriteByte('-')
	b.WriteString(field)
	return b.String()
}

// FieldID is FieldName with the conventional "id_" element id prefix.
func FieldID(prefix string, index int, field string) string {
	return "id_" + FieldName(prefix, index, field)
}

func cloneValues(in url.Values) url.Values {
	out := make(url.Values, len(in))
	for key, values := range in {
		out[key] = append([]string(nil), values...)
	}
	return out
}
