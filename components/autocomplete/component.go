package autocomplete

import "net/http"

// Component bundles a Source with its handler configuration and routing
// helpers.
type Component struct {
	source Source
	opts   Options
}

// New constructs a component with default options plus any overrides.
func New(source Source, fns ...OptionFn) *Component {
	return &Component{source: source, opts: NewOptions(fns...)}
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return NewOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

func (c *Component) ParticipantsHandler() http.Handler {
	if c == nil {
		return ParticipantsHandler(nil)
	}
	return ParticipantsHandlerWithOptions(c.source, c.opts)
}

func (c *Component) TagsHandler() http.Handler {
	if c == nil {
		return TagsHandler(nil)
	}
	return TagsHandlerWithOptions(c.source, c.opts)
}

// RegisterRoutes registers both handlers under basePath on mux.
func (c *Component) RegisterRoutes(mux Mux, basePath string) ([]string, error) {
	if c == nil {
		return RegisterRoutes(mux, basePath, nil)
	}
	return RegisterRoutesWithOptions(mux, basePath, c.source, c.opts)
}
