package widgets

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formset/internal/logging"
)

// Binder writes widget bindings onto markup.
type Binder struct {
	registry *Registry
	logger   logrus.FieldLogger
}

// NewBinder wraps registry. A nil registry falls back to the built-ins.
func NewBinder(registry *Registry, logger logrus.FieldLogger) *Binder {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Binder{registry: registry, logger: logging.OrDiscard(logger)}
}

// Bind resolves a widget for every element under root (root included) that
// carries a data-widget attribute or matches a registered selector, and
// writes data-widget, data-widget-options and data-endpoint-* attributes.
// It returns the number of bound elements. Binding is idempotent, so rows
// added after a first pass can be bound by calling Bind again.
func (b *Binder) Bind(root *goquery.Selection) (int, error) {
	if b == nil || root == nil || root.Length() == 0 {
		return 0, nil
	}

	seen := make(map[*html.Node]struct{})
	var candidates []*goquery.Selection
	collect := func(sel *goquery.Selection) {
		sel.Each(func(_ int, el *goquery.Selection) {
			node := el.Get(0)
			if _, ok := seen[node]; ok {
				return
			}
			seen[node] = struct{}{}
			candidates = append(candidates, el)
		})
	}

	collect(root.Filter("[" + AttrWidget + "]"))
	collect(root.Find("[" + AttrWidget + "]"))
	for _, binding := range b.registry.Bindings() {
		collect(root.Filter(binding.Selector))
		collect(root.Find(binding.Selector))
	}

	bound := 0
	for _, el := range candidates {
		binding, ok := b.registry.Resolve(el)
		if !ok {
			continue
		}
		if err := apply(el, binding); err != nil {
			return bound, err
		}
		bound++
		b.logger.WithFields(logrus.Fields{
			"widget": binding.Widget,
			"name":   el.AttrOr("name", ""),
		}).Debug("widget bound")
	}
	return bound, nil
}

func apply(el *goquery.Selection, binding Binding) error {
	el.SetAttr(AttrWidget, binding.Widget)

	if opts := binding.Config.Options(binding.Widget); opts != nil {
		payload, err := json.Marshal(opts)
		if err != nil {
			return fmt.Errorf("widgets: encode %s options: %w", binding.Widget, err)
		}
		el.SetAttr(AttrOptions, string(payload))
	}

	if binding.Config.Endpoint != nil {
		attrs := binding.Config.Endpoint.Attributes()
		keys := make([]string, 0, len(attrs))
		for key := range attrs {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			el.SetAttr(key, attrs[key])
		}
	}
	return nil
}
