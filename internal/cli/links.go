package cli

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formset/pkg/dom"
	"github.com/goliatone/go-formset/pkg/navigator"
)

type linksFlags struct {
	context     string
	in          string
	out         string
	adminPrefix string
}

func newLinksCmd(app *App) *cobra.Command {
	flags := &linksFlags{}
	cmd := &cobra.Command{
		Use:   "rewrite-links",
		Short: "Carry the selected context onto admin links of an HTML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, flags.in)
			if err != nil {
				return err
			}
			nav := navigator.New(
				navigator.WithAdminPrefix(flags.adminPrefix),
				navigator.WithLogger(app.Logger()),
			)

			var buf bytes.Buffer
			err = dom.Transform(newReader(raw), &buf, func(doc *goquery.Document) error {
				value := strings.TrimSpace(flags.context)
				if value == "" {
					value = nav.CurrentContext(doc.Selection)
				}
				if value == "" {
					return fmt.Errorf("no --context given and the page has no selected context")
				}
				n := nav.RewriteLinks(doc.Selection, value)
				app.Logger().WithField("links", n).Info("links rewritten")
				return nil
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, flags.out, buf.Bytes())
		},
	}

	cmd.Flags().StringVar(&flags.context, "context", "", "Context value (default: the selected option of the context select)")
	cmd.Flags().StringVar(&flags.in, "in", "", "Input HTML file (default: stdin)")
	cmd.Flags().StringVar(&flags.out, "out", "", "Output HTML file (default: stdout)")
	cmd.Flags().StringVar(&flags.adminPrefix, "admin-prefix", envOr("FORMSET_ADMIN_PREFIX", navigator.DefaultAdminPrefix), "Path prefix of links that carry the context")
	return cmd
}
