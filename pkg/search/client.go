// Package search queries remote autocomplete endpoints.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formset/internal/logging"
)

// MinQueryLength is the shortest trimmed term, in characters, that triggers a
// request.
const MinQueryLength = 2

// DefaultResultsPath is where results live in the response body.
const DefaultResultsPath = "results"

// ErrMalformedResponse reports a body that is not JSON or lacks the results
// list.
var ErrMalformedResponse = errors.New("search: malformed response")

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *StatusError) Unwrap() error { return e.Err }

func (e *StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Request describes one search call. Zero values fall back to GET, the "q"
// parameter and the "results" envelope with "id"/"text" keys.
type Request struct {
	URL         string
	Method      string
	Term        string
	Params      url.Values
	ResultsPath string
	ValueKey    string
	LabelKey    string
}

// Client issues autocomplete requests.
type Client struct {
	http        *http.Client
	searchParam string
	minQuery    int
	logger      logrus.FieldLogger
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

func WithSearchParam(name string) Option {
	return func(c *Client) {
		if name = strings.TrimSpace(name); name != "" {
			c.searchParam = name
		}
	}
}

func WithMinQueryLength(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.minQuery = n
		}
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) {
		c.logger = logging.OrDiscard(logger)
	}
}

// NewClient builds a client with a 10 second timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{Timeout: 10 * time.Second},
		searchParam: "q",
		minQuery:    MinQueryLength,
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Search runs a GET search against endpoint with term and the extra filter
// params.
func (c *Client) Search(ctx context.Context, endpoint, term string, params url.Values) ([]Result, error) {
	return c.Do(ctx, Request{URL: endpoint, Term: term, Params: params})
}

// Do runs req. Terms shorter than the minimum length return nil without a
// request.
func (c *Client) Do(ctx context.Context, req Request) ([]Result, error) {
	if c == nil {
		return nil, errors.New("search: client is nil")
	}
	term := strings.TrimSpace(req.Term)
	if len([]rune(term)) < c.minQuery {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || target.String() == "" {
		return nil, fmt.Errorf("search: invalid endpoint %q", req.URL)
	}
	query := target.Query()
	for key, values := range req.Params {
		query.Del(key)
		for _, value := range values {
			query.Add(key, value)
		}
	}
	query.Set(c.searchParam, term)

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if method == http.MethodGet || method == http.MethodHead {
		target.RawQuery = query.Encode()
	} else {
		body = strings.NewReader(query.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search: %s %s: %w", method, target.Redacted(), err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"url":      target.Redacted(),
		"status":   resp.StatusCode,
		"duration": time.Since(started),
	}).Debug("search request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{
			Code: resp.StatusCode,
			Err:  fmt.Errorf("search: %s %s: %s", method, target.Redacted(), resp.Status),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("search: read response: %w", err)
	}
	return decodeResults(raw, req)
}

// decodeResults walks ResultsPath and maps each item through the value and
// label keys.
func decodeResults(raw []byte, req Request) ([]Result, error) {
	var payload any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	path := strings.TrimSpace(req.ResultsPath)
	if path == "" {
		path = DefaultResultsPath
	}
	node := payload
	for _, segment := range strings.Split(path, ".") {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not an object", ErrMalformedResponse, segment)
		}
		node, ok = obj[segment]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrMalformedResponse, path)
		}
	}
	items, ok := node.([]any)
	if !ok {
		if node == nil {
			return []Result{}, nil
		}
		return nil, fmt.Errorf("%w: %q is not a list", ErrMalformedResponse, path)
	}

	valueKey := firstNonEmpty(req.ValueKey, "id")
	labelKey := firstNonEmpty(req.LabelKey, "text")

	out := make([]Result, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		result := Result{
			ID:                  ID(scalar(obj[valueKey])),
			Text:                scalar(obj[labelKey]),
			Disabled:            truthy(obj["disabled"]),
			DisqualifiedForDate: truthy(obj["disqualified_for_date"]),
			DisqualifiedForTags: truthy(obj["disqualified_for_tags"]),
			Tooltip:             strings.TrimSpace(scalar(obj["tooltip"])),
		}
		out = append(out, result)
	}
	return out, nil
}

func scalar(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	case bool:
		if value {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(value)
	}
}

func truthy(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case string:
		return value == "true" || value == "1"
	case json.Number:
		return value.String() != "0"
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
