package events

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
)

func mustDoc(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

func TestBus_DispatchOrderAndSelector(t *testing.T) {
	doc := mustDoc(t, `<a class="add-row" href="#">Add</a><a class="other" href="/x">x</a>`)
	bus := NewBus()

	var calls []string
	bus.On(Click, "", HandlerFunc(func(*Event) { calls = append(calls, "any") }))
	bus.On(Click, "a.add-row", HandlerFunc(func(*Event) { calls = append(calls, "add-row") }))
	bus.On(Change, "", HandlerFunc(func(*Event) { calls = append(calls, "change") }))

	if err := bus.Dispatch(context.Background(), NewEvent(Click, doc.Find("a.add-row"))); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if err := bus.Dispatch(context.Background(), NewEvent(Click, doc.Find("a.other"))); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if diff := cmp.Diff([]string{"any", "add-row", "any"}, calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestBus_StopPropagation(t *testing.T) {
	bus := NewBus()
	var calls int
	bus.On(Click, "", HandlerFunc(func(e *Event) {
		calls++
		e.PreventDefault()
		e.StopPropagation()
	}))
	bus.On(Click, "", HandlerFunc(func(*Event) { calls++ }))

	event := NewEvent(Click, nil)
	if err := bus.Dispatch(context.Background(), event); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one handler run, got %d", calls)
	}
	if !event.DefaultPrevented() || !event.PropagationStopped() {
		t.Fatalf("expected default prevented and propagation stopped")
	}
}

func TestBus_HandlerError(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	bus.On(Click, "", func(context.Context, *Event) error { return boom })

	if err := bus.Dispatch(context.Background(), NewEvent(Click, nil)); !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
}

func TestBus_CancelledContext(t *testing.T) {
	bus := NewBus()
	bus.On(Click, "", HandlerFunc(func(*Event) { t.Fatalf("handler should not run") }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := bus.Dispatch(ctx, NewEvent(Click, nil)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBus_SerializesDispatch(t *testing.T) {
	bus := NewBus()
	var (
		active int
		peak   int
		count  int
	)
	bus.On(Click, "", HandlerFunc(func(*Event) {
		active++
		if active > peak {
			peak = active
		}
		count++
		active--
	}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = bus.Dispatch(context.Background(), NewEvent(Click, nil))
		}()
	}
	wg.Wait()

	if count != 20 || peak != 1 {
		t.Fatalf("expected 20 serialized runs, got count=%d peak=%d", count, peak)
	}
}

func TestBus_DelegatesToAncestor(t *testing.T) {
	doc := mustDoc(t, `<table><tr class="add-row"><td><a href="#">Add another</a></td></tr></table>`)
	bus := NewBus()

	var hits int
	bus.On(Click, "tr.add-row", HandlerFunc(func(*Event) { hits++ }))

	if err := bus.Dispatch(context.Background(), NewEvent(Click, doc.Find("a"))); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected delegated handler to run once, got %d", hits)
	}
}
