package server

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formset/components/autocomplete"
	"github.com/goliatone/go-formset/pkg/dom"
	"github.com/goliatone/go-formset/pkg/navigator"
	"github.com/goliatone/go-formset/pkg/render"
	"github.com/goliatone/go-formset/pkg/widgets"
)

const (
	DefaultMetricsPath  = "/metrics"
	DefaultMaxBodyBytes = 1 << 20
	maxRowsPerRequest   = 100
)

// Options configures the server. Zero values fall back to defaults in New.
type Options struct {
	Logger          logrus.FieldLogger
	Registry        *prometheus.Registry
	Engine          render.TemplateRenderer
	RowTemplate     string
	// RowTemplateName names a template the engine loads. It takes precedence
	// over RowTemplate.
	RowTemplateName string
	Replicator      *dom.Replicator
	Widgets         *widgets.Registry
	Navigator       *navigator.Navigator
	Autocomplete    *autocomplete.Component
	BasePath        string
	MetricsPath     string
	// MaxForms caps TOTAL_FORMS of submissions and AddRow regardless of the
	// submitted MAX_NUM_FORMS.
	MaxForms        int
	MaxBodyBytes    int64
}

type OptionFn func(*Options)

func NewOptions(fns ...OptionFn) Options {
	opts := Options{
		RowTemplate:  render.DefaultRowTemplate,
		MetricsPath:  DefaultMetricsPath,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if strings.TrimSpace(opts.RowTemplate) == "" {
		opts.RowTemplate = render.DefaultRowTemplate
	}
	if strings.TrimSpace(opts.MetricsPath) == "" {
		opts.MetricsPath = DefaultMetricsPath
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.MaxForms < 0 {
		opts.MaxForms = 0
	}
	return opts
}

func WithLogger(logger logrus.FieldLogger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

// WithRegistry registers the server metrics on registry and serves it on
// the metrics path.
func WithRegistry(registry *prometheus.Registry) OptionFn {
	return func(o *Options) {
		if o == nil || registry == nil {
			return
		}
		o.Registry = registry
	}
}

func WithEngine(engine render.TemplateRenderer) OptionFn {
	return func(o *Options) {
		if o == nil || engine == nil {
			return
		}
		o.Engine = engine
	}
}

func WithRowTemplate(tpl string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RowTemplate = tpl
	}
}

func WithRowTemplateName(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RowTemplateName = strings.TrimSpace(name)
	}
}

func WithReplicator(r *dom.Replicator) OptionFn {
	return func(o *Options) {
		if o == nil || r == nil {
			return
		}
		o.Replicator = r
	}
}

func WithWidgets(registry *widgets.Registry) OptionFn {
	return func(o *Options) {
		if o == nil || registry == nil {
			return
		}
		o.Widgets = registry
	}
}

func WithNavigator(nav *navigator.Navigator) OptionFn {
	return func(o *Options) {
		if o == nil || nav == nil {
			return
		}
		o.Navigator = nav
	}
}

// WithAutocomplete mounts the participant and tag endpoints under the base
// path.
func WithAutocomplete(component *autocomplete.Component) OptionFn {
	return func(o *Options) {
		if o == nil || component == nil {
			return
		}
		o.Autocomplete = component
	}
}

func WithBasePath(base string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.BasePath = base
	}
}

func WithMetricsPath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MetricsPath = path
	}
}

func WithMaxForms(n int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxForms = n
	}
}

func WithMaxBodyBytes(n int64) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxBodyBytes = n
	}
}
