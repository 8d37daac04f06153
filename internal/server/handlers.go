package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/mux"

	"github.com/goliatone/go-formset/pkg/dom"
	"github.com/goliatone/go-formset/pkg/formset"
	"github.com/goliatone/go-formset/pkg/widgets"
)

const (
	HeaderTotalForms    = "X-Formset-Total-Forms"
	HeaderRowsAdded     = "X-Formset-Rows-Added"
	HeaderWidgetsBound  = "X-Widgets-Bound"
	HeaderLinksChanged  = "X-Links-Rewritten"
	// HeaderSectionErrors counts messages not attached to a row field.
	HeaderSectionErrors = "X-Formset-Section-Errors"
)

// StatusError pairs an error with the HTTP status it maps to.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *StatusError) StatusCode() int {
	if e == nil || e.Code == 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// handleAddRow rebuilds the section named by the route from the submitted
// form, appends a row and responds with the rendered row.
func (s *Server) handleAddRow(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(mux.Vars(r)["prefix"])
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.writeError(w, &StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("parse form: %w", err)})
		return
	}

	section, err := formset.SectionFromValuesLimit(r.PostForm, prefix, s.opts.MaxForms)
	if err != nil {
		s.writeError(w, &StatusError{Code: http.StatusBadRequest, Err: err})
		return
	}
	if s.opts.MaxForms > 0 && (section.MaxForms <= 0 || section.MaxForms > s.opts.MaxForms) {
		section.MaxForms = s.opts.MaxForms
	}

	row, err := section.AddRow()
	switch {
	case errors.Is(err, formset.ErrMaxForms):
		s.writeError(w, &StatusError{Code: http.StatusConflict, Err: err})
		return
	case errors.Is(err, formset.ErrEmptySection):
		s.writeError(w, &StatusError{Code: http.StatusUnprocessableEntity, Err: err})
		return
	case err != nil:
		s.writeError(w, err)
		return
	}

	out, err := section.RenderRowWith(s.rowRenderer(), row.Index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.rowsAdded.WithLabelValues("section").Inc()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(HeaderTotalForms, strconv.Itoa(section.TotalForms()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// RenderRequest is the body of the section render endpoint: the submitted
// form values and the validation errors the backend returned for them.
type RenderRequest struct {
	Values map[string][]string `json:"values"`
	Errors map[string][]string `json:"errors"`
}

// handleRenderSection re-renders a submitted section with its validation
// errors attached to the matching rows.
func (s *Server) handleRenderSection(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(mux.Vars(r)["prefix"])

	var req RenderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, &StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("decode request: %w", err)})
		return
	}

	section, err := formset.SectionFromValuesLimit(req.Values, prefix, s.opts.MaxForms)
	if err != nil {
		s.writeError(w, &StatusError{Code: http.StatusBadRequest, Err: err})
		return
	}
	mapped := formset.MapErrors(section, req.Errors)
	section.SetErrors(mapped)

	var buf bytes.Buffer
	if err := section.RenderWith(&buf, s.rowRenderer()); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(HeaderTotalForms, strconv.Itoa(section.TotalForms()))
	w.Header().Set(HeaderSectionErrors, strconv.Itoa(len(mapped.Section)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// rowRenderer prefers the named row template over inline content.
func (s *Server) rowRenderer() formset.RowRenderer {
	if s.opts.RowTemplateName != "" {
		return formset.NamedRow(s.opts.Engine, s.opts.RowTemplateName)
	}
	return formset.InlineRow(s.opts.Engine, s.opts.RowTemplate)
}

// handleAddRowHTML adds rows to posted markup. Query parameters: section (a
// CSS selector, default the replicator section selector) and count
// (default 1).
func (s *Server) handleAddRowHTML(w http.ResponseWriter, r *http.Request) {
	count, err := queryCount(r, "count", 1)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	added, err := s.opts.Replicator.AddRowHTML(body, &buf, r.URL.Query().Get("section"), count)
	if err != nil {
		if errors.Is(err, dom.ErrNoSection) || errors.Is(err, dom.ErrNoAddControl) || errors.Is(err, dom.ErrNoTemplateRow) {
			err = &StatusError{Code: http.StatusUnprocessableEntity, Err: err}
		}
		s.writeError(w, err)
		return
	}
	s.metrics.rowsAdded.WithLabelValues("markup").Add(float64(len(added)))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(HeaderRowsAdded, strconv.Itoa(len(added)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleBindWidgets annotates posted markup with widget attributes.
func (s *Server) handleBindWidgets(w http.ResponseWriter, r *http.Request) {
	binder := widgets.NewBinder(s.opts.Widgets, s.logger)

	var (
		buf   bytes.Buffer
		bound int
	)
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	err := dom.Transform(body, &buf, func(doc *goquery.Document) error {
		var err error
		bound, err = binder.Bind(doc.Selection)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(HeaderWidgetsBound, strconv.Itoa(bound))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleRewriteLinks carries the context parameter (query "c") onto admin
// links of posted markup.
func (s *Server) handleRewriteLinks(w http.ResponseWriter, r *http.Request) {
	value := strings.TrimSpace(r.URL.Query().Get("c"))
	if value == "" {
		s.writeError(w, &StatusError{Code: http.StatusBadRequest, Err: errors.New("missing context parameter c")})
		return
	}

	var (
		buf     bytes.Buffer
		changed int
	)
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	err := dom.Transform(body, &buf, func(doc *goquery.Document) error {
		changed = s.opts.Navigator.RewriteLinks(doc.Selection, value)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(HeaderLinksChanged, strconv.Itoa(changed))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func queryCount(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxRowsPerRequest {
		return 0, &StatusError{
			Code: http.StatusBadRequest,
			Err:  fmt.Errorf("%s must be between 1 and %d", name, maxRowsPerRequest),
		}
	}
	return n, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var statusErr interface{ StatusCode() int }
	if errors.As(err, &statusErr) {
		status = statusErr.StatusCode()
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		status = http.StatusRequestEntityTooLarge
	}

	message := http.StatusText(status)
	if status < http.StatusInternalServerError {
		message = err.Error()
	} else {
		s.logger.WithError(err).Error("request handler failed")
	}
	http.Error(w, message, status)
}
