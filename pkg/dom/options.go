package dom

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Default selectors. They match the markup emitted by pkg/formset and common
// server-rendered formset tables.
const (
	DefaultSectionSelector    = ".formset, [data-formset]"
	DefaultAddControlSelector = ".add-row, [data-add-row]"
	DefaultCounterSelector    = ".row-counter, [data-row-counter]"
	DefaultCountFieldSelector = `input[name$="-TOTAL_FORMS"]`
)

// Options selects the structural elements the replicator works on.
type Options struct {
	SectionSelector    string
	AddControlSelector string
	CounterSelector    string
	CountFieldSelector string
	// Attributes lists the attributes renumbered on every cloned element.
	Attributes []string
	Logger     logrus.FieldLogger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		SectionSelector:    DefaultSectionSelector,
		AddControlSelector: DefaultAddControlSelector,
		CounterSelector:    DefaultCounterSelector,
		CountFieldSelector: DefaultCountFieldSelector,
		Attributes:         []string{"id", "name"},
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if strings.TrimSpace(opts.SectionSelector) == "" {
		opts.SectionSelector = DefaultSectionSelector
	}
	if strings.TrimSpace(opts.AddControlSelector) == "" {
		opts.AddControlSelector = DefaultAddControlSelector
	}
	if strings.TrimSpace(opts.CounterSelector) == "" {
		opts.CounterSelector = DefaultCounterSelector
	}
	if strings.TrimSpace(opts.CountFieldSelector) == "" {
		opts.CountFieldSelector = DefaultCountFieldSelector
	}
	if len(opts.Attributes) == 0 {
		opts.Attributes = []string{"id", "name"}
	} else {
		opts.Attributes = append([]string{}, opts.Attributes...)
	}
	return opts
}

func WithSectionSelector(selector string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SectionSelector = selector
	}
}

func WithAddControlSelector(selector string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.AddControlSelector = selector
	}
}

func WithCounterSelector(selector string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.CounterSelector = selector
	}
}

func WithCountFieldSelector(selector string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.CountFieldSelector = selector
	}
}

func WithAttributes(attrs ...string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Attributes = append([]string{}, attrs...)
	}
}

func WithLogger(logger logrus.FieldLogger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}
