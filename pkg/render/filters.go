package render

import (
	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formset/pkg/formset"
)

// filterDashIncrement exposes formset.IncrementDashTokens to templates:
// {{ "form-0-name"|dashinc }} renders "form-1-name".
func filterDashIncrement(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(formset.IncrementDashTokens(in.String())), nil
}
