package widgets

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Endpoint describes the remote search a select widget queries.
//
// DynamicParams values may reference the typed term with {{self}} or an
// attribute of the bound element with {{attr:name}}, for example
// {"d": "{{attr:dp-for-date}}"}.
type Endpoint struct {
	URL           string            `json:"url" yaml:"url"`
	Method        string            `json:"method,omitempty" yaml:"method"`
	ResultsPath   string            `json:"resultsPath,omitempty" yaml:"resultsPath"`
	Params        map[string]string `json:"params,omitempty" yaml:"params"`
	DynamicParams map[string]string `json:"dynamicParams,omitempty" yaml:"dynamicParams"`
	Mapping       EndpointMapping   `json:"mapping,omitempty" yaml:"mapping"`
}

// EndpointMapping remaps the value and label keys of result items.
type EndpointMapping struct {
	Value string `json:"value,omitempty" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label"`
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*(self|attr:([^\}\s]+))\s*\}\}`)

// Attributes flattens the endpoint into data-endpoint-* attributes. Empty
// values are omitted.
func (e Endpoint) Attributes() map[string]string {
	attrs := make(map[string]string)
	add := func(key, value string) {
		if value == "" {
			return
		}
		attrs[AttrEndpointPrefix+key] = value
	}

	add("url", strings.TrimSpace(e.URL))
	if e.Method != "" {
		add("method", strings.ToUpper(strings.TrimSpace(e.Method)))
	}
	add("results-path", strings.TrimSpace(e.ResultsPath))
	for _, key := range sortedKeys(e.Params) {
		add("params-"+key, e.Params[key])
	}
	for _, key := range sortedKeys(e.DynamicParams) {
		add("dynamic-params-"+key, e.DynamicParams[key])
	}
	if refs := e.AttributeRefs(); len(refs) > 0 {
		add("refresh-on", strings.Join(refs, ","))
	}
	add("mapping-value", strings.TrimSpace(e.Mapping.Value))
	add("mapping-label", strings.TrimSpace(e.Mapping.Label))

	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// AttributeRefs lists the element attributes referenced by DynamicParams,
// sorted and deduplicated.
func (e Endpoint) AttributeRefs() []string {
	seen := make(map[string]struct{})
	for _, value := range e.DynamicParams {
		for _, match := range placeholderPattern.FindAllStringSubmatch(value, -1) {
			if name := strings.TrimSpace(match[2]); name != "" {
				seen[name] = struct{}{}
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Query builds the filter parameters sent alongside the search term. Static
// params are copied; dynamic params are expanded with term and attr, and
// dropped when they expand to an empty string.
func (e Endpoint) Query(term string, attr func(name string) (string, bool)) url.Values {
	values := url.Values{}
	for _, key := range sortedKeys(e.Params) {
		values.Set(key, e.Params[key])
	}
	for _, key := range sortedKeys(e.DynamicParams) {
		expanded := placeholderPattern.ReplaceAllStringFunc(e.DynamicParams[key], func(token string) string {
			match := placeholderPattern.FindStringSubmatch(token)
			if match[1] == "self" {
				return term
			}
			if attr == nil {
				return ""
			}
			value, _ := attr(strings.TrimSpace(match[2]))
			return value
		})
		if strings.TrimSpace(expanded) == "" {
			continue
		}
		values.Set(key, expanded)
	}
	return values
}

// QueryFor expands the endpoint against the attributes of el.
func (e Endpoint) QueryFor(term string, el *goquery.Selection) url.Values {
	return e.Query(term, func(name string) (string, bool) {
		if el == nil {
			return "", false
		}
		return el.Attr(name)
	})
}

// EndpointFromAttributes reads back an endpoint written by Binder.
func EndpointFromAttributes(el *goquery.Selection) (Endpoint, bool) {
	if el == nil || el.Length() == 0 {
		return Endpoint{}, false
	}
	raw, ok := el.Attr(AttrEndpointPrefix + "url")
	if !ok || strings.TrimSpace(raw) == "" {
		return Endpoint{}, false
	}

	endpoint := Endpoint{URL: raw}
	for _, attr := range el.Nodes[0].Attr {
		key, found := strings.CutPrefix(attr.Key, AttrEndpointPrefix)
		if !found {
			continue
		}
		switch {
		case key == "method":
			endpoint.Method = attr.Val
		case key == "results-path":
			endpoint.ResultsPath = attr.Val
		case key == "mapping-value":
			endpoint.Mapping.Value = attr.Val
		case key == "mapping-label":
			endpoint.Mapping.Label = attr.Val
		case strings.HasPrefix(key, "dynamic-params-"):
			if endpoint.DynamicParams == nil {
				endpoint.DynamicParams = make(map[string]string)
			}
			endpoint.DynamicParams[strings.TrimPrefix(key, "dynamic-params-")] = attr.Val
		case strings.HasPrefix(key, "params-"):
			if endpoint.Params == nil {
				endpoint.Params = make(map[string]string)
			}
			endpoint.Params[strings.TrimPrefix(key, "params-")] = attr.Val
		}
	}
	return endpoint, true
}

func (e Endpoint) clone() Endpoint {
	out := e
	out.Params = cloneStringMap(e.Params)
	out.DynamicParams = cloneStringMap(e.DynamicParams)
	return out
}

func cloneStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
