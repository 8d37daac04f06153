package autocomplete

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formset/pkg/search"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// ParticipantsHandler builds the participant search handler with default
// options plus any overrides.
func ParticipantsHandler(source Source, fns ...OptionFn) http.Handler {
	return ParticipantsHandlerWithOptions(source, NewOptions(fns...))
}

// ParticipantsHandlerWithOptions builds the participant search handler from
// a pre-constructed Options value.
func ParticipantsHandlerWithOptions(source Source, opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return searchHandler(opts, func(r *http.Request) ([]search.Result, error) {
		if source == nil {
			return nil, StatusError{Code: http.StatusServiceUnavailable, Err: errors.New("autocomplete: no participant source")}
		}
		q := r.URL.Query()
		filter, err := parseFilter(r.Context(), source, q.Get(opts.DateParam), q.Get(opts.TagsParam))
		if err != nil {
			return nil, err
		}
		participants, err := source.Participants(r.Context())
		if err != nil {
			return nil, fmt.Errorf("autocomplete: load participants: %w", err)
		}
		return SearchParticipants(participants, q.Get(opts.SearchParam), parseInt(q.Get(opts.LimitParam)), filter, opts), nil
	})
}

// TagsHandler builds the tag search handler with default options plus any
// overrides.
func TagsHandler(source Source, fns ...OptionFn) http.Handler {
	return TagsHandlerWithOptions(source, NewOptions(fns...))
}

func TagsHandlerWithOptions(source Source, opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return searchHandler(opts, func(r *http.Request) ([]search.Result, error) {
		if source == nil {
			return nil, StatusError{Code: http.StatusServiceUnavailable, Err: errors.New("autocomplete: no tag source")}
		}
		tags, err := source.Tags(r.Context())
		if err != nil {
			return nil, fmt.Errorf("autocomplete: load tags: %w", err)
		}
		q := r.URL.Query()
		return SearchTags(tags, q.Get(opts.SearchParam), parseInt(q.Get(opts.LimitParam)), opts), nil
	})
}

func searchHandler(opts Options, run func(r *http.Request) ([]search.Result, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeError(w, err, http.StatusForbidden)
				return
			}
		}

		results, err := run(r)
		if err != nil {
			writeError(w, err, http.StatusInternalServerError)
			return
		}
		if results == nil {
			results = []search.Result{}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}

		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(true)
		_ = enc.Encode(search.Response{Results: results})
	})
}

// parseFilter reads the date and tag filters. Tag names unknown to source
// are ignored, so a filter naming only unknown tags disables no one.
func parseFilter(ctx context.Context, source Source, rawDate, rawTags string) (Filter, error) {
	var filter Filter
	if rawDate = strings.TrimSpace(rawDate); rawDate != "" {
		day, err := time.Parse(dayLayout, rawDate)
		if err != nil {
			return Filter{}, StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("autocomplete: invalid date %q", rawDate)}
		}
		filter.Date = day
	}

	if rawTags = strings.TrimSpace(rawTags); rawTags != "" {
		known, err := source.Tags(ctx)
		if err != nil {
			return Filter{}, fmt.Errorf("autocomplete: load tags: %w", err)
		}
		for _, name := range strings.Split(rawTags, "|") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			for _, tag := range known {
				if tag.Name == name {
					filter.Tags = append(filter.Tags, name)
					break
				}
			}
		}
	}
	return filter, nil
}

func writeError(w http.ResponseWriter, err error, fallback int) {
	if w == nil {
		return
	}
	code := fallback
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = fallback
		}
	}
	http.Error(w, http.StatusText(code), code)
}

func parseInt(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
