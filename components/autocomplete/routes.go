package autocomplete

import (
	"fmt"
	"net/http"
	"strings"
)

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// ParticipantsMountPath returns the participant route under basePath.
func ParticipantsMountPath(basePath string, fns ...OptionFn) string {
	opts := NewOptions(fns...)
	return mountPath(basePath, opts.ParticipantsPath)
}

// TagsMountPath returns the tag route under basePath.
func TagsMountPath(basePath string, fns ...OptionFn) string {
	opts := NewOptions(fns...)
	return mountPath(basePath, opts.TagsPath)
}

// RegisterRoutes registers both handlers under basePath on mux and returns
// the participant and tag patterns.
func RegisterRoutes(mux Mux, basePath string, source Source, fns ...OptionFn) ([]string, error) {
	return RegisterRoutesWithOptions(mux, basePath, source, NewOptions(fns...))
}

// RegisterRoutesWithOptions registers both handlers using a pre-built Options
// value.
func RegisterRoutesWithOptions(mux Mux, basePath string, source Source, opts Options) ([]string, error) {
	if mux == nil {
		return nil, fmt.Errorf("autocomplete: missing mux")
	}
	opts = NewOptions(func(o *Options) { *o = opts })

	participants := mountPath(basePath, opts.ParticipantsPath)
	tags := mountPath(basePath, opts.TagsPath)
	if participants == tags {
		return nil, fmt.Errorf("autocomplete: participant and tag routes collide at %q", participants)
	}
	mux.Handle(participants, ParticipantsHandlerWithOptions(source, opts))
	mux.Handle(tags, TagsHandlerWithOptions(source, opts))
	return []string{participants, tags}, nil
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}
