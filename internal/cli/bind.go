package cli

import (
	"bytes"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formset/components/autocomplete/widgetwiring"
	"github.com/goliatone/go-formset/pkg/dom"
	"github.com/goliatone/go-formset/pkg/widgets"
)

type bindFlags struct {
	in               string
	out              string
	bindingsDir      string
	autocompleteBase string
}

func newBindCmd(app *App) *cobra.Command {
	flags := &bindFlags{}
	cmd := &cobra.Command{
		Use:   "bind-widgets",
		Short: "Annotate form controls with widget configuration attributes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := buildWidgetRegistry(flags.bindingsDir, flags.autocompleteBase)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, flags.in)
			if err != nil {
				return err
			}

			binder := widgets.NewBinder(registry, app.Logger())
			var buf bytes.Buffer
			err = dom.Transform(newReader(raw), &buf, func(doc *goquery.Document) error {
				n, err := binder.Bind(doc.Selection)
				app.Logger().WithField("bound", n).Info("widgets bound")
				return err
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, flags.out, buf.Bytes())
		},
	}

	cmd.Flags().StringVar(&flags.in, "in", "", "Input HTML file (default: stdin)")
	cmd.Flags().StringVar(&flags.out, "out", "", "Output HTML file (default: stdout)")
	cmd.Flags().StringVar(&flags.bindingsDir, "bindings", envOr("FORMSET_BINDINGS_DIR", ""), "Directory of widget binding files")
	cmd.Flags().StringVar(&flags.autocompleteBase, "autocomplete-base", "", "Base path of the autocomplete routes; enables participant and tag selects")
	return cmd
}

// buildWidgetRegistry layers autocomplete bindings and binding files over
// the builtin rules.
func buildWidgetRegistry(bindingsDir, autocompleteBase string) (*widgets.Registry, error) {
	registry := widgets.NewRegistry()
	if strings.TrimSpace(autocompleteBase) != "" {
		registry.Load(widgetwiring.Bindings(autocompleteBase))
	}
	if dir := strings.TrimSpace(bindingsDir); dir != "" {
		bindings, err := widgets.LoadBindings(os.DirFS(dir))
		if err != nil {
			return nil, err
		}
		registry.Load(bindings)
	}
	return registry, nil
}
