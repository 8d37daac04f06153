package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formset/pkg/dom"
)

type addRowFlags struct {
	section    string
	count      int
	in         string
	out        string
	addControl string
	counter    string
	countField string
}

func newAddRowCmd(app *App) *cobra.Command {
	flags := &addRowFlags{}
	cmd := &cobra.Command{
		Use:   "add-row",
		Short: "Append cloned rows to a formset section of an HTML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			raw, err := readInput(cmd, flags.in)
			if err != nil {
				return err
			}

			fns := []dom.OptionFn{dom.WithLogger(app.Logger())}
			if flags.addControl != "" {
				fns = append(fns, dom.WithAddControlSelector(flags.addControl))
			}
			if flags.counter != "" {
				fns = append(fns, dom.WithCounterSelector(flags.counter))
			}
			if flags.countField != "" {
				fns = append(fns, dom.WithCountFieldSelector(flags.countField))
			}

			var buf bytes.Buffer
			added, err := dom.New(fns...).AddRowHTML(newReader(raw), &buf, flags.section, flags.count)
			if err != nil {
				return err
			}
			app.Logger().WithField("rows", len(added)).Info("rows added")
			return writeOutput(cmd, flags.out, buf.Bytes())
		},
	}

	cmd.Flags().StringVar(&flags.section, "section", "", "CSS selector of the formset section (default: "+dom.DefaultSectionSelector+")")
	cmd.Flags().IntVar(&flags.count, "count", 1, "Number of rows to add")
	cmd.Flags().StringVar(&flags.in, "in", "", "Input HTML file (default: stdin)")
	cmd.Flags().StringVar(&flags.out, "out", "", "Output HTML file (default: stdout)")
	cmd.Flags().StringVar(&flags.addControl, "add-control", "", "CSS selector of the add-row control")
	cmd.Flags().StringVar(&flags.counter, "counter", "", "CSS selector of the row counter label")
	cmd.Flags().StringVar(&flags.countField, "count-field", "", "CSS selector of the TOTAL_FORMS input")
	return cmd
}
