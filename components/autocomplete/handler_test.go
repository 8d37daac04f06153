package autocomplete

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formset/pkg/search"
)

func decodeResults(t *testing.T, res *http.Response) []search.Result {
	t.Helper()
	var payload search.Response
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return payload.Results
}

func TestParticipantsHandler_FiltersAndAnnotates(t *testing.T) {
	h := ParticipantsHandler(testSource())

	req := httptest.NewRequest(http.MethodGet, "/participants/autocomplete/?q=a&d=2016-08-26&t=kitchen|unknown", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}
	if ct := strings.TrimSpace(res.Header.Get("Content-Type")); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content-type, got %q", ct)
	}

	want := []search.Result{
		{ID: "3", Text: "Ajay Patel", Disabled: true, DisqualifiedForDate: true, DisqualifiedForTags: true, Tooltip: "Available Aug 28-Sep 04. No matching tags."},
		{ID: "4", Text: "Jane Adams"},
	}
	if diff := cmp.Diff(want, decodeResults(t, res)); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestParticipantsHandler_UnknownTagsDisableNoOne(t *testing.T) {
	h := ParticipantsHandler(testSource())

	req := httptest.NewRequest(http.MethodGet, "/participants/autocomplete/?q=john&t=juggler", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	got := decodeResults(t, rec.Result())
	if len(got) != 1 || got[0].Disabled {
		t.Fatalf("expected one enabled result, got %#v", got)
	}
}

func TestParticipantsHandler_InvalidDate(t *testing.T) {
	h := ParticipantsHandler(testSource())

	req := httptest.NewRequest(http.MethodGet, "/participants/autocomplete/?q=ja&d=08/26/2016", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestTagsHandler_EmptyResultIsArray(t *testing.T) {
	h := TagsHandler(testSource())

	req := httptest.NewRequest(http.MethodGet, "/tags/autocomplete/?q=zz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if body := strings.TrimSpace(rec.Body.String()); body != `{"results":[]}` {
		t.Fatalf("expected empty results array, got %s", body)
	}
}

func TestTagsHandler_CustomParams(t *testing.T) {
	h := TagsHandler(testSource(), WithSearchParam("search"), WithLimitParam("l"))

	req := httptest.NewRequest(http.MethodGet, "/tags/autocomplete/?search=b&l=1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	want := []search.Result{{ID: "11", Text: "bar"}}
	if diff := cmp.Diff(want, decodeResults(t, rec.Result())); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := TagsHandler(testSource())

	req := httptest.NewRequest(http.MethodPost, "/tags/autocomplete/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Fatalf("unexpected Allow header %q", allow)
	}
}

func TestHandler_HeadHasNoBody(t *testing.T) {
	h := TagsHandler(testSource())

	req := httptest.NewRequest(http.MethodHead, "/tags/autocomplete/?q=ba", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("expected empty 200, got %d with %q", rec.Code, rec.Body.String())
	}
}

func TestHandler_GuardStatus(t *testing.T) {
	h := ParticipantsHandler(testSource(), WithGuard(func(*http.Request) error {
		return StatusError{Code: http.StatusUnauthorized, Err: errors.New("login required")}
	}))

	req := httptest.NewRequest(http.MethodGet, "/participants/autocomplete/?q=ja", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}

	plain := TagsHandler(testSource(), WithGuard(func(*http.Request) error { return errors.New("no") }))
	rec = httptest.NewRecorder()
	plain.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tags/autocomplete/", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

type failingSource struct{}

func (failingSource) Participants(context.Context) ([]Participant, error) {
	return nil, errors.New("database down")
}

func (failingSource) Tags(context.Context) ([]Tag, error) {
	return nil, errors.New("database down")
}

func TestHandler_SourceErrors(t *testing.T) {
	for name, h := range map[string]http.Handler{
		"participants": ParticipantsHandler(failingSource{}),
		"tags":         TagsHandler(failingSource{}),
		"nil source":   ParticipantsHandler(nil),
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x?q=ja", nil))
			if rec.Code < 500 {
				t.Fatalf("expected server error, got %d", rec.Code)
			}
		})
	}
}
