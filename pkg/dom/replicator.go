// Package dom duplicates formset rows inside a parsed HTML document.
//
// A formset section holds server-rendered rows followed by an add-row
// control. Each AddRow clones the row right before the control, renumbers the
// id and name attributes of the copy, bumps its visible counter label, inserts
// it after the original and increments the TOTAL_FORMS hidden input. Missing
// counters or count fields are skipped rather than reported.
package dom

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formset/internal/logging"
	"github.com/goliatone/go-formset/pkg/events"
	"github.com/goliatone/go-formset/pkg/formset"
)

var (
	// ErrNoSection is returned when the selection holds no section element.
	ErrNoSection = errors.New("dom: formset section not found")
	// ErrNoAddControl is returned when the section has no add-row control.
	ErrNoAddControl = errors.New("dom: add-row control not found")
	// ErrNoTemplateRow is returned when nothing precedes the add-row control.
	ErrNoTemplateRow = errors.New("dom: no row precedes the add-row control")
)

// Added describes one inserted row.
type Added struct {
	// Index is the zero-based position of the new row.
	Index int
	Row   *goquery.Selection
	// CountUpdated reports whether a TOTAL_FORMS field was incremented.
	CountUpdated bool
}

// Replicator clones formset rows.
type Replicator struct {
	opts   Options
	logger logrus.FieldLogger
}

// New builds a replicator.
func New(fns ...OptionFn) *Replicator {
	opts := NewOptions(fns...)
	return &Replicator{
		opts:   opts,
		logger: logging.OrDiscard(opts.Logger),
	}
}

// Options returns a copy of the active options.
func (r *Replicator) Options() Options {
	if r == nil {
		return NewOptions()
	}
	opts := r.opts
	opts.Attributes = append([]string{}, r.opts.Attributes...)
	return opts
}

// AddRow duplicates the last row of section. The section's first add-row
// control decides which row is the template.
func (r *Replicator) AddRow(section *goquery.Selection) (Added, error) {
	if section == nil || section.Length() == 0 {
		return Added{}, ErrNoSection
	}
	section = section.First()
	control := section.Find(r.opts.AddControlSelector).First()
	if control.Length() == 0 {
		return Added{}, ErrNoAddControl
	}
	return r.addBefore(section, control)
}

// AddRows calls AddRow n times. Each call uses the row inserted by the
// previous one as its template.
func (r *Replicator) AddRows(section *goquery.Selection, n int) ([]Added, error) {
	out := make([]Added, 0, max(n, 0))
	for i := 0; i < n; i++ {
		added, err := r.AddRow(section)
		if err != nil {
			return out, err
		}
		out = append(out, added)
	}
	return out, nil
}

// AddRowFor runs the add-row operation for a click on target, which may be
// the control itself or any element inside it.
func (r *Replicator) AddRowFor(target *goquery.Selection) (Added, error) {
	if target == nil || target.Length() == 0 {
		return Added{}, ErrNoAddControl
	}
	control := target.Closest(r.opts.AddControlSelector)
	if control.Length() == 0 {
		return Added{}, ErrNoAddControl
	}
	section := control.Closest(r.opts.SectionSelector)
	if section.Length() == 0 {
		section = control.Parent()
	}
	return r.addBefore(section, control)
}

// Bind subscribes the add-row operation to clicks on add-row controls. The
// click default is always suppressed; failures are logged and swallowed.
func (r *Replicator) Bind(bus *events.Bus) {
	if bus == nil {
		return
	}
	bus.On(events.Click, r.opts.AddControlSelector, func(_ context.Context, event *events.Event) error {
		event.PreventDefault()
		event.StopPropagation()

		added, err := r.AddRowFor(event.Target)
		if err != nil {
			r.logger.WithError(err).Debug("add row skipped")
			return nil
		}
		r.logger.WithFields(logrus.Fields{
			"index":         added.Index,
			"count_updated": added.CountUpdated,
		}).Debug("row added")
		return nil
	})
}

func (r *Replicator) addBefore(section, control *goquery.Selection) (Added, error) {
	template := control.Prev()
	if template.Length() == 0 {
		return Added{}, ErrNoTemplateRow
	}

	countField := r.countField(section, template)
	index, counted := fieldCount(countField)
	if !counted {
		index = rowsBefore(template) + 1
	}

	clone := template.Clone()
	r.renumber(clone)
	r.bumpCounters(clone)
	template.AfterSelection(clone)
	row := template.Next()

	added := Added{Index: index, Row: row}
	if counted {
		countField.SetAttr("value", strconv.Itoa(index+1))
		added.CountUpdated = true
	}
	return added, nil
}

func (r *Replicator) renumber(row *goquery.Selection) {
	row.Find("*").AddSelection(row).Each(func(_ int, el *goquery.Selection) {
		for _, attr := range r.opts.Attributes {
			value, ok := el.Attr(attr)
			if !ok || value == "" {
				continue
			}
			el.SetAttr(attr, formset.IncrementDashTokens(value))
		}
	})
}

func (r *Replicator) bumpCounters(row *goquery.Selection) {
	row.Find(r.opts.CounterSelector).AddSelection(row.Filter(r.opts.CounterSelector)).Each(func(_ int, label *goquery.Selection) {
		n, ok := formset.ParseLeadingInt(label.Text())
		if !ok {
			return
		}
		label.SetText(strconv.Itoa(n + 1))
	})
}

// countField looks for the TOTAL_FORMS input inside the section first and
// then in the whole document. With several candidates the one whose prefix
// appears in the template row's names wins.
func (r *Replicator) countField(section, template *goquery.Selection) *goquery.Selection {
	candidates := section.Find(r.opts.CountFieldSelector)
	if candidates.Length() == 0 {
		root := section.Parents().Last()
		if root.Length() == 0 {
			root = section
		}
		candidates = root.Find(r.opts.CountFieldSelector)
	}
	if candidates.Length() <= 1 {
		return candidates
	}

	names := indexedNames(template, r.opts.Attributes)
	match := candidates.FilterFunction(func(_ int, field *goquery.Selection) bool {
		name, _ := field.Attr("name")
		prefix, _, ok := strings.Cut(name, "-"+formset.TotalFormsKey)
		if !ok || prefix == "" {
			return false
		}
		for _, value := range names {
			if strings.HasPrefix(value, prefix+"-") || strings.HasPrefix(value, "id_"+prefix+"-") {
				return true
			}
		}
		return false
	})
	if match.Length() > 0 {
		return match.First()
	}
	return candidates.First()
}

// rowsBefore counts the earlier siblings shaped like template: same tag and
// every class of the template. Headings and header rows are skipped.
func rowsBefore(template *goquery.Selection) int {
	tag := goquery.NodeName(template)
	classes := strings.Fields(template.AttrOr("class", ""))
	return template.PrevAll().FilterFunction(func(_ int, sibling *goquery.Selection) bool {
		if goquery.NodeName(sibling) != tag {
			return false
		}
		have := strings.Fields(sibling.AttrOr("class", ""))
		for _, class := range classes {
			if !slices.Contains(have, class) {
				return false
			}
		}
		return true
	}).Length()
}

func indexedNames(row *goquery.Selection, attrs []string) []string {
	var out []string
	row.Find("*").AddSelection(row).Each(func(_ int, el *goquery.Selection) {
		for _, attr := range attrs {
			if value, ok := el.Attr(attr); ok && value != "" {
				out = append(out, value)
			}
		}
	})
	return out
}

func fieldCount(field *goquery.Selection) (int, bool) {
	if field == nil || field.Length() == 0 {
		return 0, false
	}
	value, ok := field.Attr("value")
	if !ok {
		return 0, false
	}
	n, ok := formset.ParseLeadingInt(value)
	if !ok || n < 0 {
		return 0, false
	}
	return n, true
}
