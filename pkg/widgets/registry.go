package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Binding ties a widget kind to the elements matching Selector.
type Binding struct {
	Widget   string
	Priority int
	Selector string
	Config   Config
}

type rule struct {
	binding Binding
	order   int
}

// Registry selects the widget for an element based on an explicit
// data-widget attribute or registered selectors. Higher priority wins; ties
// fall back to registration order.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in bindings registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// NewEmptyRegistry constructs a registry without built-in bindings.
func NewEmptyRegistry() *Registry {
	return &Registry{}
}

// Register adds a binding for widget on elements matching selector. Empty
// widget names or selectors are ignored.
func (r *Registry) Register(widget string, priority int, selector string, cfg Config) {
	if r == nil {
		return
	}
	widget = strings.TrimSpace(widget)
	selector = strings.TrimSpace(selector)
	if widget == "" || selector == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		binding: Binding{
			Widget:   widget,
			Priority: priority,
			Selector: selector,
			Config:   cfg.clone(),
		},
		order: len(r.rules),
	})
}

// Load registers every binding in order.
func (r *Registry) Load(bindings []Binding) {
	for _, b := range bindings {
		r.Register(b.Widget, b.Priority, b.Selector, b.Config)
	}
}

// Bindings returns the registered bindings in resolution order.
func (r *Registry) Bindings() []Binding {
	rules := r.sorted()
	out := make([]Binding, 0, len(rules))
	for _, entry := range rules {
		out = append(out, entry.binding)
	}
	return out
}

// Resolve returns the binding for el. An explicit data-widget attribute is
// honoured first; its configuration comes from the best rule for that widget,
// preferring rules whose selector also matches el.
func (r *Registry) Resolve(el *goquery.Selection) (Binding, bool) {
	if el == nil || el.Length() == 0 {
		return Binding{}, false
	}
	el = el.First()
	explicit := explicitWidget(el)
	rules := r.sorted()

	if explicit != "" {
		var fallback *Binding
		for i, entry := range rules {
			if entry.binding.Widget != explicit {
				continue
			}
			if el.Is(entry.binding.Selector) {
				return entry.binding, true
			}
			if fallback == nil {
				fallback = &rules[i].binding
			}
		}
		if fallback != nil {
			return *fallback, true
		}
		return Binding{Widget: explicit}, true
	}
	for _, entry := range rules {
		if el.Is(entry.binding.Selector) {
			return entry.binding, true
		}
	}
	return Binding{}, false
}

func (r *Registry) sorted() []rule {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return nil
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].binding.Priority == rules[j].binding.Priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].binding.Priority > rules[j].binding.Priority
	})
	return rules
}

func explicitWidget(el *goquery.Selection) string {
	if widget, ok := el.Attr(AttrWidget); ok {
		return strings.TrimSpace(widget)
	}
	return ""
}

func (r *Registry) registerBuiltins() {
	r.Register(KindSelect, 70, ".with-select2 select, select.searchable", Config{
		Select: &SelectOptions{TokenSeparators: []string{","}},
	})
	r.Register(KindDate, 60, ".dateinput, input[type=date]", Config{
		Date: &DateOptions{Format: "mm/dd/yyyy", AssumeNearbyYear: true, Autoclose: true},
	})
	r.Register(KindTooltip, 50, `[data-toggle="tooltip"]`, Config{})
	r.Register(KindFileInput, 40, `input[type="file"]`, Config{})
}
