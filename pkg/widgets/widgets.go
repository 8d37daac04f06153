// Package widgets decides which client-side widget enhances each form control
// and writes the widget configuration onto the markup as data attributes.
package widgets

import "strings"

// Widget kinds understood by the front-end bootstrap script.
const (
	KindSelect    = "select"
	KindDate      = "date"
	KindTooltip   = "tooltip"
	KindFileInput = "file-input"
)

// Attributes written by Binder.
const (
	AttrWidget         = "data-widget"
	AttrOptions        = "data-widget-options"
	AttrEndpointPrefix = "data-endpoint-"
)

// DefaultMinimumInputLength is the number of characters a user types before a
// remote search is issued.
const DefaultMinimumInputLength = 2

// SelectOptions configure the searchable multi-select widget.
type SelectOptions struct {
	MinimumInputLength     int      `json:"minimumInputLength" yaml:"minimumInputLength"`
	MaximumSelectionLength int      `json:"maximumSelectionLength,omitempty" yaml:"maximumSelectionLength"`
	TokenSeparators        []string `json:"tokenSeparators,omitempty" yaml:"tokenSeparators"`
	Placeholder            string   `json:"placeholder,omitempty" yaml:"placeholder"`
	AllowClear             bool     `json:"allowClear,omitempty" yaml:"allowClear"`
	Multiple               bool     `json:"multiple,omitempty" yaml:"multiple"`
	// ResultTemplate and ChipTemplate name the client templates used for
	// dropdown entries and selected chips.
	ResultTemplate string `json:"templateResult,omitempty" yaml:"templateResult"`
	ChipTemplate   string `json:"templateSelection,omitempty" yaml:"templateSelection"`
}

func (o SelectOptions) normalized() SelectOptions {
	if o.MinimumInputLength <= 0 {
		o.MinimumInputLength = DefaultMinimumInputLength
	}
	if o.MaximumSelectionLength < 0 {
		o.MaximumSelectionLength = 0
	}
	if len(o.TokenSeparators) == 0 {
		o.TokenSeparators = []string{","}
	} else {
		o.TokenSeparators = append([]string{}, o.TokenSeparators...)
	}
	o.Placeholder = strings.TrimSpace(o.Placeholder)
	return o
}

// DateOptions configure the date picker.
type DateOptions struct {
	Format           string `json:"format" yaml:"format"`
	AssumeNearbyYear bool   `json:"assumeNearbyYear" yaml:"assumeNearbyYear"`
	Autoclose        bool   `json:"autoclose" yaml:"autoclose"`
}

// DefaultDateOptions matches the mm/dd/yyyy inputs the formsets submit.
func DefaultDateOptions() DateOptions {
	return DateOptions{Format: "mm/dd/yyyy", AssumeNearbyYear: true, Autoclose: true}
}

func (o DateOptions) normalized() DateOptions {
	o.Format = strings.TrimSpace(o.Format)
	if o.Format == "" {
		o.Format = DefaultDateOptions().Format
	}
	return o
}

type TooltipOptions struct {
	Placement string `json:"placement,omitempty" yaml:"placement"`
	Trigger   string `json:"trigger,omitempty" yaml:"trigger"`
}

type FileInputOptions struct {
	Accept        []string `json:"accept,omitempty" yaml:"accept"`
	ShowPreview   bool     `json:"showPreview,omitempty" yaml:"showPreview"`
	MaxFileSizeKB int      `json:"maxFileSize,omitempty" yaml:"maxFileSize"`
}

// Config carries the per-kind options of a binding. Only the block matching
// the bound kind is written to the element.
type Config struct {
	Select    *SelectOptions    `json:"select,omitempty" yaml:"select"`
	Date      *DateOptions      `json:"date,omitempty" yaml:"date"`
	Tooltip   *TooltipOptions   `json:"tooltip,omitempty" yaml:"tooltip"`
	FileInput *FileInputOptions `json:"fileInput,omitempty" yaml:"fileInput"`
	Endpoint  *Endpoint         `json:"endpoint,omitempty" yaml:"endpoint"`
}

// Options returns the normalized option block for kind, or nil when the kind
// takes no options.
func (c Config) Options(kind string) any {
	switch kind {
	case KindSelect:
		opts := SelectOptions{}
		if c.Select != nil {
			opts = *c.Select
		}
		return opts.normalized()
	case KindDate:
		opts := DefaultDateOptions()
		if c.Date != nil {
			opts = *c.Date
		}
		return opts.normalized()
	case KindTooltip:
		if c.Tooltip == nil {
			return TooltipOptions{}
		}
		return *c.Tooltip
	case KindFileInput:
		if c.FileInput == nil {
			return FileInputOptions{}
		}
		return *c.FileInput
	default:
		return nil
	}
}

func (c Config) clone() Config {
	out := c
	if c.Select != nil {
		copied := *c.Select
		copied.TokenSeparators = append([]string(nil), c.Select.TokenSeparators...)
		out.Select = &copied
	}
	if c.Date != nil {
		copied := *c.Date
		out.Date = &copied
	}
	if c.Tooltip != nil {
		copied := *c.Tooltip
		out.Tooltip = &copied
	}
	if c.FileInput != nil {
		copied := *c.FileInput
		copied.Accept = append([]string(nil), c.FileInput.Accept...)
		out.FileInput = &copied
	}
	if c.Endpoint != nil {
		copied := c.Endpoint.clone()
		out.Endpoint = &copied
	}
	return out
}

func knownKind(kind string) bool {
	switch kind {
	case KindSelect, KindDate, KindTooltip, KindFileInput:
		return true
	}
	return false
}
