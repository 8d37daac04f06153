// Package widgetwiring connects the autocomplete routes to select widget
// bindings.
package widgetwiring

import (
	"strconv"

	"github.com/goliatone/go-formset/components/autocomplete"
	"github.com/goliatone/go-formset/pkg/widgets"
)

// Element attributes the task forms render for the participant filters.
const (
	AttrForDate = "dp-for-date"
	AttrForTags = "dp-for-tags"
)

// ParticipantEndpoint returns the select endpoint for the participant route
// under basePath.
//
// The endpoint:
// - points at <basePath><ParticipantsPath>
// - reads results with id/text mapping
// - sends the default limit
// - maps the search param to "{{self}}" and the date and tag filters to the
//   dp-for-date and dp-for-tags attributes of the bound element
func ParticipantEndpoint(basePath string, fns ...autocomplete.OptionFn) widgets.Endpoint {
	opts := autocomplete.NewOptions(fns...)
	endpoint := baseEndpoint(autocomplete.ParticipantsMountPath(basePath, keep(opts)), opts)
	endpoint.DynamicParams[opts.DateParam] = "{{attr:" + AttrForDate + "}}"
	endpoint.DynamicParams[opts.TagsParam] = "{{attr:" + AttrForTags + "}}"
	return endpoint
}

// TagEndpoint returns the select endpoint for the tag route under basePath.
func TagEndpoint(basePath string, fns ...autocomplete.OptionFn) widgets.Endpoint {
	opts := autocomplete.NewOptions(fns...)
	return baseEndpoint(autocomplete.TagsMountPath(basePath, keep(opts)), opts)
}

// Bindings returns select bindings for assignee and tag fields of the task
// formsets, both backed by the autocomplete routes under basePath.
func Bindings(basePath string, fns ...autocomplete.OptionFn) []widgets.Binding {
	participants := ParticipantEndpoint(basePath, fns...)
	tags := TagEndpoint(basePath, fns...)
	return []widgets.Binding{
		{
			Widget:   widgets.KindSelect,
			Priority: 100,
			Selector: `select[name$="-assignees"]`,
			Config: widgets.Config{
				Select: &widgets.SelectOptions{
					Multiple:    true,
					Placeholder: "Jane Doe (jane.doe@email.com)",
				},
				Endpoint: &participants,
			},
		},
		{
			Widget:   widgets.KindSelect,
			Priority: 100,
			Selector: `select[name$="-tags"]`,
			Config: widgets.Config{
				Select:   &widgets.SelectOptions{Multiple: true},
				Endpoint: &tags,
			},
		},
	}
}

func baseEndpoint(url string, opts autocomplete.Options) widgets.Endpoint {
	return widgets.Endpoint{
		URL:         url,
		Method:      "GET",
		ResultsPath: "results",
		Params: map[string]string{
			opts.LimitParam: strconv.Itoa(opts.DefaultLimit),
		},
		DynamicParams: map[string]string{
			opts.SearchParam: "{{self}}",
		},
		Mapping: widgets.EndpointMapping{
			Value: "id",
			Label: "text",
		},
	}
}

func keep(opts autocomplete.Options) autocomplete.OptionFn {
	return func(o *autocomplete.Options) {
		if o == nil {
			return
		}
		*o = opts
	}
}
