// Package events dispatches named UI events to handlers one at a time.
package events

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Common event names.
const (
	Click  = "click"
	Change = "change"
)

// Event is a single dispatched interaction. Target is the element the user
// acted on; Value carries the new value for change events.
type Event struct {
	Name   string
	Target *goquery.Selection
	Value  string

	defaultPrevented   bool
	propagationStopped bool
}

// NewEvent builds an event for target.
func NewEvent(name string, target *goquery.Selection) *Event {
	return &Event{Name: strings.TrimSpace(name), Target: target}
}

// PreventDefault marks the browser default action (navigation, submit) as
// suppressed.
func (e *Event) PreventDefault() {
	if e != nil {
		e.defaultPrevented = true
	}
}

// StopPropagation skips the handlers registered after the current one.
func (e *Event) StopPropagation() {
	if e != nil {
		e.propagationStopped = true
	}
}

func (e *Event) DefaultPrevented() bool {
	return e != nil && e.defaultPrevented
}

func (e *Event) PropagationStopped() bool {
	return e != nil && e.propagationStopped
}

// Handler reacts to an event. Returned errors stop the dispatch.
type Handler func(ctx context.Context, event *Event) error

// HandlerFunc adapts a handler that cannot fail.
func HandlerFunc(fn func(event *Event)) Handler {
	return func(_ context.Context, event *Event) error {
		fn(event)
		return nil
	}
}

type subscription struct {
	selector string
	handler  Handler
}

// Bus routes events to handlers by name and target selector. Dispatch holds
// a lock for the whole handler run, so a handler always observes the document
// state left by the previous dispatch.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]subscription
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]subscription)}
}

// On registers handler for name. When selector is non-empty the handler only
// runs when the target or one of its ancestors matches it.
func (b *Bus) On(name, selector string, handler Handler) {
	if b == nil || handler == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[string][]subscription)
	}
	b.handlers[name] = append(b.handlers[name], subscription{
		selector: strings.TrimSpace(selector),
		handler:  handler,
	})
}

// Dispatch runs the handlers registered for event.Name in registration
// order.
func (b *Bus) Dispatch(ctx context.Context, event *Event) error {
	if b == nil {
		return errors.New("events: bus is nil")
	}
	if event == nil {
		return errors.New("events: event is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.handlers[event.Name] {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !matches(event.Target, sub.selector) {
			continue
		}
		if err := sub.handler(ctx, event); err != nil {
			return err
		}
		if event.propagationStopped {
			break
		}
	}
	return nil
}

func matches(target *goquery.Selection, selector string) bool {
	if selector == "" {
		return true
	}
	if target == nil || target.Length() == 0 {
		return false
	}
	return target.Closest(selector).Length() > 0
}
