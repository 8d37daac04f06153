package prompt

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formset/internal/logging"
	"github.com/goliatone/go-formset/pkg/formset"
	"github.com/goliatone/go-formset/pkg/search"
)

// FieldKind selects how a field is prompted for.
type FieldKind string

const (
	KindText FieldKind = "text"
	// KindDate accepts mm/dd/yyyy, the date picker format.
	KindDate FieldKind = "date"
	// KindLookup searches a remote autocomplete endpoint and stores the id of
	// the chosen result.
	KindLookup FieldKind = "lookup"
)

const dateLayout = "01/02/2006"

// Field describes one column of the rows being filled.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	Endpoint string
	Multiple bool
}

func (f Field) label() string {
	if strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return strings.ReplaceAll(f.Name, "_", " ")
}

// ParseField reads "name[:kind[:endpoint]]". A trailing "!" on the name
// marks the field required and a "+" marks a lookup as multi-valued, e.g.
// "tags+:lookup:http://localhost:3200/tags/autocomplete/".
func ParseField(spec string) (Field, error) {
	parts := strings.SplitN(strings.TrimSpace(spec), ":", 3)
	name := strings.TrimSpace(parts[0])

	field := Field{Kind: KindText}
markers:
	for len(name) > 0 {
		switch name[len(name)-1] {
		case '!':
			field.Required = true
		case '+':
			field.Multiple = true
		default:
			break markers
		}
		name = name[:len(name)-1]
	}
	if name == "" {
		return Field{}, fmt.Errorf("prompt: field %q has no name", spec)
	}
	field.Name = name

	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		field.Kind = FieldKind(strings.ToLower(strings.TrimSpace(parts[1])))
	}
	if len(parts) > 2 {
		field.Endpoint = strings.TrimSpace(parts[2])
	}

	switch field.Kind {
	case KindText, KindDate:
	case KindLookup:
		if field.Endpoint == "" {
			return Field{}, fmt.Errorf("prompt: lookup field %q needs an endpoint", name)
		}
	default:
		return Field{}, fmt.Errorf("prompt: field %q has unknown kind %q", name, field.Kind)
	}
	return field, nil
}

// Searcher is satisfied by *search.Client.
type Searcher interface {
	Search(ctx context.Context, endpoint, term string, params url.Values) ([]search.Result, error)
}

// Filler walks a section row by row, then offers to add rows until the user
// declines or the section is full.
type Filler struct {
	driver   Driver
	searcher Searcher
	logger   logrus.FieldLogger
}

func NewFiller(driver Driver, searcher Searcher, logger logrus.FieldLogger) *Filler {
	return &Filler{driver: driver, searcher: searcher, logger: logging.OrDiscard(logger)}
}

// Fill prompts for every field of every row of section, then for new rows.
// New rows start as copies of the previous row.
func (f *Filler) Fill(ctx context.Context, section *formset.Section, fields []Field) error {
	if f == nil || f.driver == nil {
		return errors.New("prompt: driver is nil")
	}
	if section.Len() == 0 {
		return formset.ErrEmptySection
	}
	for _, field := range fields {
		if field.Kind == KindLookup && f.searcher == nil {
			return fmt.Errorf("prompt: lookup field %q needs a searcher", field.Name)
		}
	}

	for index := 0; index < section.Len(); index++ {
		if err := f.fillRow(ctx, section, index, fields); err != nil {
			return err
		}
	}

	for {
		more, err := f.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add another %s row?", section.Prefix),
		})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		row, err := section.AddRow()
		if errors.Is(err, formset.ErrMaxForms) {
			return f.driver.Info(ctx, fmt.Sprintf("%s is full (%d rows).", section.Prefix, section.Len()))
		}
		if err != nil {
			return err
		}
		f.logger.WithField("index", row.Index).Debug("row added")
		if err := f.fillRow(ctx, section, row.Index, fields); err != nil {
			return err
		}
	}
}

func (f *Filler) fillRow(ctx context.Context, section *formset.Section, index int, fields []Field) error {
	if err := f.driver.Info(ctx, fmt.Sprintf("%s #%d", section.Prefix, index+1)); err != nil {
		return err
	}
	for _, field := range fields {
		row, _ := section.Row(index)
		values, err := f.ask(ctx, field, row.Values[field.Name])
		if err != nil {
			return err
		}
		section.Set(index, field.Name, values...)
	}
	return nil
}

func (f *Filler) ask(ctx context.Context, field Field, current []string) ([]string, error) {
	def := ""
	if len(current) > 0 {
		def = current[0]
	}

	switch field.Kind {
	case KindDate:
		value, err := f.driver.Input(ctx, InputConfig{
			Message:   field.label(),
			Default:   def,
			Help:      "mm/dd/yyyy",
			Validator: DateValidator(field.Required),
		})
		return []string{strings.TrimSpace(value)}, err
	case KindLookup:
		return f.lookup(ctx, field, current)
	default:
		value, err := f.driver.Input(ctx, InputConfig{
			Message:   field.label(),
			Default:   def,
			Validator: RequiredValidator(field.Required),
		})
		return []string{value}, err
	}
}

// lookup asks for a search term and lets the user pick among the results.
// An empty term keeps the current values.
func (f *Filler) lookup(ctx context.Context, field Field, current []string) ([]string, error) {
	for {
		term, err := f.driver.Input(ctx, InputConfig{
			Message: fmt.Sprintf("Search %s", field.label()),
			Help:    "leave empty to keep the current value",
		})
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(term) == "" {
			if field.Required && len(current) == 0 {
				if err := f.driver.Info(ctx, fmt.Sprintf("%s is required.", field.label())); err != nil {
					return nil, err
				}
				continue
			}
			return current, nil
		}

		results, err := f.searcher.Search(ctx, field.Endpoint, term, nil)
		if err != nil {
			return nil, fmt.Errorf("prompt: search %s: %w", field.Name, err)
		}
		if len(results) == 0 {
			if err := f.driver.Info(ctx, fmt.Sprintf("No %s matches %q.", field.label(), term)); err != nil {
				return nil, err
			}
			continue
		}

		options := make([]string, len(results))
		for i, result := range results {
			options[i] = optionLabel(result)
		}
		cfg := SelectConfig{Message: field.label(), Options: options}

		if field.Multiple {
			picked, err := f.driver.MultiSelect(ctx, cfg)
			if err != nil {
				return nil, err
			}
			out := make([]string, 0, len(picked))
			for _, i := range picked {
				if i >= 0 && i < len(results) {
					out = append(out, string(results[i].ID))
				}
			}
			return out, nil
		}

		picked, err := f.driver.Select(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if picked < 0 || picked >= len(results) {
			return current, nil
		}
		return []string{string(results[picked].ID)}, nil
	}
}

func optionLabel(result search.Result) string {
	label := result.Text
	if result.Tooltip != "" {
		label += " (" + result.Tooltip + ")"
	}
	return label
}

// RequiredValidator rejects blank answers when required is set.
func RequiredValidator(required bool) func(string) error {
	return func(value string) error {
		if required && strings.TrimSpace(value) == "" {
			return errors.New("value is required")
		}
		return nil
	}
}

// DateValidator accepts mm/dd/yyyy, and blank answers unless required.
func DateValidator(required bool) func(string) error {
	return func(value string) error {
		value = strings.TrimSpace(value)
		if value == "" {
			if required {
				return errors.New("date is required")
			}
			return nil
		}
		if _, err := time.Parse(dateLayout, value); err != nil {
			return fmt.Errorf("expected mm/dd/yyyy, got %q", value)
		}
		return nil
	}
}
