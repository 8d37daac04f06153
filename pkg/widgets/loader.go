package widgets

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

type bindingsFile struct {
	Bindings []bindingEntry `json:"bindings" yaml:"bindings"`
}

type bindingEntry struct {
	Widget    string            `json:"widget" yaml:"widget"`
	Selector  string            `json:"selector" yaml:"selector"`
	Priority  int               `json:"priority" yaml:"priority"`
	Select    *SelectOptions    `json:"select" yaml:"select"`
	Date      *DateOptions      `json:"date" yaml:"date"`
	Tooltip   *TooltipOptions   `json:"tooltip" yaml:"tooltip"`
	FileInput *FileInputOptions `json:"fileInput" yaml:"fileInput"`
	Endpoint  *Endpoint         `json:"endpoint" yaml:"endpoint"`
}

// LoadBindings walks fsys and parses every JSON/YAML bindings file. Files are
// visited in lexical order and their bindings returned in file order. A nil
// fsys yields no bindings.
func LoadBindings(fsys fs.FS) ([]Binding, error) {
	if fsys == nil {
		return nil, nil
	}

	var out []Binding
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isBindingsFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("widgets: read %s: %w", path, err)
		}
		bindings, err := ParseBindings(data, path)
		if err != nil {
			return err
		}
		out = append(out, bindings...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseBindings decodes one bindings document. source names the document in
// error messages.
func ParseBindings(data []byte, source string) ([]Binding, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("widgets: file %s is empty", source)
	}

	var doc bindingsFile
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = bindingsFile{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("widgets: parse %s: invalid JSON or YAML", source)
		}
	}

	out := make([]Binding, 0, len(doc.Bindings))
	for idx, entry := range doc.Bindings {
		binding, err := normaliseBinding(entry)
		if err != nil {
			return nil, fmt.Errorf("widgets: %s binding %d: %w", source, idx, err)
		}
		out = append(out, binding)
	}
	return out, nil
}

func normaliseBinding(entry bindingEntry) (Binding, error) {
	widget := strings.ToLower(strings.TrimSpace(entry.Widget))
	if widget == "" {
		return Binding{}, fmt.Errorf("missing widget")
	}
	if !knownKind(widget) {
		return Binding{}, fmt.Errorf("unknown widget %q", entry.Widget)
	}
	selector := strings.TrimSpace(entry.Selector)
	if selector == "" {
		return Binding{}, fmt.Errorf("missing selector")
	}
	if _, err := cascadia.ParseGroup(selector); err != nil {
		return Binding{}, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	if entry.Endpoint != nil && strings.TrimSpace(entry.Endpoint.URL) == "" {
		return Binding{}, fmt.Errorf("endpoint missing url")
	}

	return Binding{
		Widget:   widget,
		Priority: entry.Priority,
		Selector: selector,
		Config: Config{
			Select:    entry.Select,
			Date:      entry.Date,
			Tooltip:   entry.Tooltip,
			FileInput: entry.FileInput,
			Endpoint:  entry.Endpoint,
		}.clone(),
	}, nil
}

func isBindingsFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
