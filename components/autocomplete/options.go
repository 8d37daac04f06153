package autocomplete

import (
	"net/http"

	"github.com/goliatone/go-formset/pkg/search"
)

type MatchMode string

const (
	MatchPrefix MatchMode = "prefix"
	MatchFuzzy  MatchMode = "fuzzy"
)

type GuardFunc func(r *http.Request) error

// Annotator marks a participant result for the active filter. It runs for
// every returned participant.
type Annotator func(p Participant, filter Filter, result *search.Result)

type Options struct {
	ParticipantsPath string
	TagsPath         string
	SearchParam      string
	LimitParam       string
	DateParam        string
	TagsParam        string
	DefaultLimit     int
	MaxLimit         int
	MatchMode        MatchMode
	Guard            GuardFunc
	Annotator        Annotator
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		ParticipantsPath: "/participants/autocomplete/",
		TagsPath:         "/tags/autocomplete/",
		SearchParam:      "q",
		LimitParam:       "limit",
		DateParam:        "d",
		TagsParam:        "t",
		DefaultLimit:     5,
		MaxLimit:         50,
		MatchMode:        MatchPrefix,
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
	defaults := DefaultOptions()
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaults.DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = defaults.MaxLimit
	}
	if opts.DefaultLimit > opts.MaxLimit {
		opts.DefaultLimit = opts.MaxLimit
	}
	if opts.MatchMode != MatchFuzzy {
		opts.MatchMode = MatchPrefix
	}
	if opts.ParticipantsPath == "" {
		opts.ParticipantsPath = defaults.ParticipantsPath
	}
	if opts.TagsPath == "" {
		opts.TagsPath = defaults.TagsPath
	}
	if opts.SearchParam == "" {
		opts.SearchParam = defaults.SearchParam
	}
	if opts.LimitParam == "" {
		opts.LimitParam = defaults.LimitParam
	}
	if opts.DateParam == "" {
		opts.DateParam = defaults.DateParam
	}
	if opts.TagsParam == "" {
		opts.TagsParam = defaults.TagsParam
	}
	if opts.Annotator == nil {
		opts.Annotator = AnnotateAvailability
	}
	return opts
}

func WithParticipantsPath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.ParticipantsPath = path
	}
}

func WithTagsPath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.TagsPath = path
	}
}

func WithSearchParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SearchParam = name
	}
}

func WithLimitParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.LimitParam = name
	}
}

func WithFilterParams(date, tags string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DateParam = date
		o.TagsParam = tags
	}
}

func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultLimit = limit
	}
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxLimit = limit
	}
}

func WithMatchMode(mode MatchMode) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MatchMode = mode
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithAnnotator(annotator Annotator) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Annotator = annotator
	}
}

func clampLimit(limit int, opts Options) int {
	if limit < 0 {
		return 0
	}
	if limit == 0 {
		limit = opts.DefaultLimit
	}
	if limit > opts.MaxLimit {
		limit = opts.MaxLimit
	}
	return limit
}
