// Package navigator carries the selected context (camp) across admin pages.
//
// Changing the context select reloads the current page with the query string
// replaced by c=<value>. Clicks on links under the admin prefix are
// redirected to the same link with c=<value> set, so the context survives
// navigation.
package navigator

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formset/internal/logging"
	"github.com/goliatone/go-formset/pkg/events"
)

const (
	DefaultParam          = "c"
	DefaultAdminPrefix    = "/dpadmin"
	DefaultSelectSelector = "#camp-context-select"
)

var ErrInvalidURL = errors.New("navigator: invalid url")

type Options struct {
	Param          string
	AdminPrefix    string
	SelectSelector string
	Logger         logrus.FieldLogger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		Param:          DefaultParam,
		AdminPrefix:    DefaultAdminPrefix,
		SelectSelector: DefaultSelectSelector,
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
	if strings.TrimSpace(opts.Param) == "" {
		opts.Param = DefaultParam
	}
	if strings.TrimSpace(opts.AdminPrefix) == "" {
		opts.AdminPrefix = DefaultAdminPrefix
	}
	if !strings.HasPrefix(opts.AdminPrefix, "/") {
		opts.AdminPrefix = "/" + opts.AdminPrefix
	}
	if strings.TrimSpace(opts.SelectSelector) == "" {
		opts.SelectSelector = DefaultSelectSelector
	}
	return opts
}

func WithParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Param = name
	}
}

func WithAdminPrefix(prefix string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.AdminPrefix = prefix
	}
}

func WithSelectSelector(selector string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SelectSelector = selector
	}
}

func WithLogger(logger logrus.FieldLogger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

// Navigation is the result of a navigator handler: the page the browser
// should load next.
type Navigation struct {
	URL string
}

// Navigator rewrites URLs for context switches.
type Navigator struct {
	opts   Options
	logger logrus.FieldLogger
	// Navigate receives every navigation a bound handler decides on.
	Navigate func(Navigation)
}

func New(fns ...OptionFn) *Navigator {
	opts := NewOptions(fns...)
	return &Navigator{opts: opts, logger: logging.OrDiscard(opts.Logger)}
}

// SelectContext returns current with its query replaced by exactly
// <param>=<value>. Path and fragment are kept.
func (n *Navigator) SelectContext(current, value string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(current))
	if err != nil {
		return "", errors.Join(ErrInvalidURL, err)
	}
	u.RawQuery = url.Values{n.opts.Param: {value}}.Encode()
	return u.String(), nil
}

// PropagateLink sets <param>=<value> on href when its path is under the admin
// prefix. Other links are returned unchanged with false.
func (n *Navigator) PropagateLink(href, value string) (string, bool) {
	raw := strings.TrimSpace(href)
	if raw == "" {
		return href, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return href, false
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return href, false
	}
	if !n.internalPath(u.Path) {
		return href, false
	}
	query := u.Query()
	query.Set(n.opts.Param, value)
	u.RawQuery = query.Encode()
	return u.String(), true
}

// RewriteLinks applies PropagateLink to every a[href] under root and returns
// the number of links changed.
func (n *Navigator) RewriteLinks(root *goquery.Selection, value string) int {
	if root == nil {
		return 0
	}
	changed := 0
	root.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		rewritten, ok := n.PropagateLink(href, value)
		if !ok {
			return
		}
		link.SetAttr("href", rewritten)
		changed++
	})
	return changed
}

// CurrentContext reads the selected value of the context select under root.
func (n *Navigator) CurrentContext(root *goquery.Selection) string {
	if root == nil {
		return ""
	}
	sel := root.Find(n.opts.SelectSelector).First()
	if sel.Length() == 0 {
		return ""
	}
	if option := sel.Find("option[selected]").First(); option.Length() > 0 {
		return optionValue(option)
	}
	if value, ok := sel.Attr("value"); ok {
		return value
	}
	return optionValue(sel.Find("option").First())
}

// Bind subscribes the navigator to change events on the context select and
// clicks on links. current is the URL of the page being shown.
func (n *Navigator) Bind(bus *events.Bus, current string) {
	if bus == nil {
		return
	}
	bus.On(events.Change, n.opts.SelectSelector, func(_ context.Context, event *events.Event) error {
		target, err := n.SelectContext(current, event.Value)
		if err != nil {
			return err
		}
		n.navigate(target)
		return nil
	})
	bus.On(events.Click, "a[href]", func(_ context.Context, event *events.Event) error {
		link := event.Target.Closest("a[href]")
		href, _ := link.Attr("href")
		value := n.CurrentContext(rootOf(link))
		target, ok := n.PropagateLink(href, value)
		if !ok {
			return nil
		}
		event.PreventDefault()
		n.navigate(target)
		return nil
	})
}

func (n *Navigator) navigate(target string) {
	n.logger.WithField("url", target).Debug("navigate")
	if n.Navigate != nil {
		n.Navigate(Navigation{URL: target})
	}
}

func (n *Navigator) internalPath(path string) bool {
	prefix := strings.TrimRight(n.opts.AdminPrefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func optionValue(option *goquery.Selection) string {
	if option == nil || option.Length() == 0 {
		return ""
	}
	if value, ok := option.Attr("value"); ok {
		return value
	}
	return strings.TrimSpace(option.Text())
}

func rootOf(sel *goquery.Selection) *goquery.Selection {
	root := sel.Parents().Last()
	if root.Length() == 0 {
		return sel
	}
	return root
}
