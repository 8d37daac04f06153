package formset

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Management form keys, appended to the section prefix with a dash.
const (
	TotalFormsKey   = "TOTAL_FORMS"
	InitialFormsKey = "INITIAL_FORMS"
	MinFormsKey     = "MIN_NUM_FORMS"
	MaxFormsKey     = "MAX_NUM_FORMS"
)

var (
	// ErrManagementForm reports missing or malformed management fields.
	ErrManagementForm = errors.New("formset: management form data is missing or has been tampered with")
	// ErrTooManyForms reports a submission with more rows than MAX_NUM_FORMS
	// or the absolute ceiling.
	ErrTooManyForms = errors.New("formset: too many forms submitted")
)

// HiddenField is a hidden input emitted next to the rows.
type HiddenField struct {
	Name  string
	Value string
}

// Management carries the row-count metadata of a section.
type Management struct {
	TotalForms   int
	InitialForms int
	MinForms     int
	MaxForms     int
}

// ManagementName returns the input name of a management key, e.g.
// "participants-TOTAL_FORMS".
func ManagementName(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "-" + key
}

// Management reports the current management values of the section.
func (s *Section) Management() Management {
	if s == nil {
		return Management{MaxForms: DefaultMaxForms}
	}
	return Management{
		TotalForms:   s.TotalForms(),
		InitialForms: s.InitialForms,
		MinForms:     s.MinForms,
		MaxForms:     s.maxForms(),
	}
}

// HiddenFields returns the management inputs of the section sorted by name.
func (s *Section) HiddenFields() []HiddenField {
	prefix := ""
	if s != nil {
		prefix = s.Prefix
	}
	return s.Management().HiddenFields(prefix)
}

// HiddenFields renders m as hidden inputs for prefix, sorted by name.
func (m Management) HiddenFields(prefix string) []HiddenField {
	fields := map[string]string{
		ManagementName(prefix, TotalFormsKey):   strconv.Itoa(m.TotalForms),
		ManagementName(prefix, InitialFormsKey): strconv.Itoa(m.InitialForms),
		ManagementName(prefix, MinFormsKey):     strconv.Itoa(m.MinForms),
		ManagementName(prefix, MaxFormsKey):     strconv.Itoa(m.MaxForms),
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]HiddenField, 0, len(names))
	for _, name := range names {
		out = append(out, HiddenField{Name: name, Value: fields[name]})
	}
	return out
}

// AbsoluteMaxForms bounds TOTAL_FORMS of a parsed submission whatever
// MAX_NUM_FORMS the client sends.
const AbsoluteMaxForms = 2 * DefaultMaxForms

// ParseManagement reads the management form of prefix from a submission.
// TOTAL_FORMS and INITIAL_FORMS are required; MIN_NUM_FORMS and
// MAX_NUM_FORMS fall back to 0 and DefaultMaxForms. TOTAL_FORMS above
// AbsoluteMaxForms is rejected.
func ParseManagement(values url.Values, prefix string) (Management, error) {
	return ParseManagementLimit(values, prefix, AbsoluteMaxForms)
}

// ParseManagementLimit is ParseManagement with a caller supplied ceiling for
// TOTAL_FORMS. A non-positive absoluteMax means AbsoluteMaxForms.
func ParseManagementLimit(values url.Values, prefix string, absoluteMax int) (Management, error) {
	if absoluteMax <= 0 {
		absoluteMax = AbsoluteMaxForms
	}
	total, err := requiredCount(values, ManagementName(prefix, TotalFormsKey))
	if err != nil {
		return Management{}, err
	}
	if total > absoluteMax {
		return Management{}, fmt.Errorf("%w: %d > %d", ErrTooManyForms, total, absoluteMax)
	}
	initial, err := requiredCount(values, ManagementName(prefix, InitialFormsKey))
	if err != nil {
		return Management{}, err
	}
	minForms, err := optionalCount(values, ManagementName(prefix, MinFormsKey), 0)
	if err != nil {
		return Management{}, err
	}
	maxForms, err := optionalCount(values, ManagementName(prefix, MaxFormsKey), DefaultMaxForms)
	if err != nil {
		return Management{}, err
	}

	m := Management{
		TotalForms:   total,
		InitialForms: initial,
		MinForms:     minForms,
		MaxForms:     maxForms,
	}
	if m.MaxForms > 0 && m.TotalForms > m.MaxForms {
		return m, fmt.Errorf("%w: %d > %d", ErrTooManyForms, m.TotalForms, m.MaxForms)
	}
	return m, nil
}

func requiredCount(values url.Values, name string) (int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", ErrManagementForm, name)
	}
	return parseCount(name, raw)
}

func optionalCount(values url.Values, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return fallback, nil
	}
	return parseCount(name, raw)
}

func parseCount(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q is not a non-negative integer", ErrManagementForm, name, raw)
	}
	return n, nil
}
