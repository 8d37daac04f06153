package autocomplete

import (
	"html"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formset/pkg/search"
)

// Filter narrows the meaning of a participant match. A zero Date skips the
// availability check; empty Tags skips the tag check.
type Filter struct {
	Date time.Time
	Tags []string
}

// SearchParticipants matches query against username, first name, last name
// and email, case-insensitively, and orders matches by first then last name.
func SearchParticipants(participants []Participant, query string, limit int, filter Filter, opts Options) []search.Result {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	matches := make([]Participant, 0, 16)
	for _, p := range participants {
		if matchesAny(query, opts.MatchMode, p.Username, p.FirstName, p.LastName, p.Email) {
			matches = append(matches, p)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		fi, fj := strings.ToLower(matches[i].FirstName), strings.ToLower(matches[j].FirstName)
		if fi != fj {
			return fi < fj
		}
		return strings.ToLower(matches[i].LastName) < strings.ToLower(matches[j].LastName)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	annotate := opts.Annotator
	if annotate == nil {
		annotate = AnnotateAvailability
	}
	out := make([]search.Result, 0, len(matches))
	for _, p := range matches {
		result := search.Result{ID: search.ID(strconv.Itoa(p.ID)), Text: p.DisplayName()}
		annotate(p, filter, &result)
		result.Tooltip = sanitizeTooltip(result.Tooltip)
		out = append(out, result)
	}
	return out
}

// SearchTags matches query against tag names by case-insensitive prefix (or
// fuzzy match) and orders matches by name.
func SearchTags(tags []Tag, query string, limit int, opts Options) []search.Result {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	matches := make([]Tag, 0, 16)
	for _, tag := range tags {
		if matchesAny(query, opts.MatchMode, tag.Name) {
			matches = append(matches, tag)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return strings.ToLower(matches[i].Name) < strings.ToLower(matches[j].Name)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]search.Result, 0, len(matches))
	for _, tag := range matches {
		out = append(out, search.Result{ID: search.ID(strconv.Itoa(tag.ID)), Text: tag.Name})
	}
	return out
}

// AnnotateAvailability disables participants who are not on site on
// filter.Date or who carry none of filter.Tags.
func AnnotateAvailability(p Participant, filter Filter, result *search.Result) {
	if result == nil {
		return
	}
	var notes []string
	if !filter.Date.IsZero() && !p.AvailableOn(filter.Date) {
		result.Disabled = true
		result.DisqualifiedForDate = true
		notes = append(notes, "Available "+formatDay(p.StartDate)+"-"+formatDay(p.EndDate)+".")
	}
	if len(filter.Tags) > 0 && !sharesTag(p.Tags, filter.Tags) {
		result.Disabled = true
		result.DisqualifiedForTags = true
		notes = append(notes, "No matching tags.")
	}
	if len(notes) > 0 {
		result.Tooltip = strings.Join(notes, " ")
	}
}

func matchesAny(query string, mode MatchMode, fields ...string) bool {
	if query == "" {
		return true
	}
	lowered := strings.ToLower(query)
	for _, field := range fields {
		if field == "" {
			continue
		}
		if mode == MatchFuzzy {
			if fuzzy.MatchFold(query, field) {
				return true
			}
			continue
		}
		if strings.HasPrefix(strings.ToLower(field), lowered) {
			return true
		}
	}
	return false
}

func sharesTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(w)) {
				return true
			}
		}
	}
	return false
}

func formatDay(day time.Time) string {
	if day.IsZero() {
		return "?"
	}
	return day.Format("Jan 02")
}

var (
	tooltipPolicyOnce sync.Once
	tooltipPolicy     *bluemonday.Policy
)

// sanitizeTooltip strips markup from annotator output; tooltips render as
// plain text in the title attribute.
func sanitizeTooltip(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	tooltipPolicyOnce.Do(func() {
		tooltipPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(tooltipPolicy.Sanitize(trimmed)))
}
