package cli

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formset/internal/prompt"
	"github.com/goliatone/go-formset/pkg/formset"
	"github.com/goliatone/go-formset/pkg/render"
	"github.com/goliatone/go-formset/pkg/search"
)

type fillFlags struct {
	prefix     string
	fields     []string
	in         string
	out        string
	format     string
	searchBase string
	maxForms   int
}

func newFillCmd(app *App) *cobra.Command {
	flags := &fillFlags{}
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill formset rows interactively and print the submission",
		Example: strings.TrimSpace(`
  formset fill --prefix participants \
    --field 'user!:lookup:/participants/autocomplete/' \
    --field 'start_date:date' --field notes \
    --search-base http://localhost:3200
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(flags.fields, flags.searchBase)
			if err != nil {
				return err
			}
			format := strings.ToLower(strings.TrimSpace(flags.format))
			if format != "form" && format != "html" {
				return fmt.Errorf("--format must be form or html, got %q", flags.format)
			}

			section, err := seedSection(cmd, flags)
			if err != nil {
				return err
			}

			driver := app.driver
			if driver == nil {
				driver = prompt.NewSurveyDriver(cmd.ErrOrStderr())
			}
			searcher := search.NewClient(search.WithLogger(app.Logger()))
			filler := prompt.NewFiller(driver, searcher, app.Logger())
			if err := filler.Fill(cmd.Context(), section, fields); err != nil {
				return err
			}

			if format == "form" {
				return writeOutput(cmd, flags.out, []byte(section.Values().Encode()+"\n"))
			}
			engine, err := render.New()
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := section.Render(&buf, engine, render.DefaultRowTemplate); err != nil {
				return err
			}
			return writeOutput(cmd, flags.out, buf.Bytes())
		},
	}

	cmd.Flags().StringVar(&flags.prefix, "prefix", "", "Formset prefix, e.g. participants")
	cmd.Flags().StringArrayVar(&flags.fields, "field", nil, "Field spec name[!][+][:text|date|lookup[:endpoint]] (repeatable)")
	cmd.Flags().StringVar(&flags.in, "in", "", "URL-encoded submission to start from")
	cmd.Flags().StringVar(&flags.out, "out", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&flags.format, "format", "form", "Output format (form|html)")
	cmd.Flags().StringVar(&flags.searchBase, "search-base", "", "Base URL prepended to relative lookup endpoints")
	cmd.Flags().IntVar(&flags.maxForms, "max-forms", 0, "Maximum number of rows")
	_ = cmd.MarkFlagRequired("prefix")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func parseFields(specs []string, searchBase string) ([]prompt.Field, error) {
	base := strings.TrimRight(strings.TrimSpace(searchBase), "/")
	fields := make([]prompt.Field, 0, len(specs))
	for _, spec := range specs {
		field, err := prompt.ParseField(spec)
		if err != nil {
			return nil, err
		}
		if field.Kind == prompt.KindLookup && base != "" && strings.HasPrefix(field.Endpoint, "/") {
			field.Endpoint = base + field.Endpoint
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// seedSection starts from the --in submission, or from one blank row.
func seedSection(cmd *cobra.Command, flags *fillFlags) (*formset.Section, error) {
	prefix := strings.TrimSpace(flags.prefix)
	var section *formset.Section
	if strings.TrimSpace(flags.in) == "" {
		section = formset.NewSection(prefix, url.Values{})
	} else {
		raw, err := readInput(cmd, flags.in)
		if err != nil {
			return nil, err
		}
		values, err := url.ParseQuery(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("parse submission: %w", err)
		}
		section, err = formset.SectionFromValues(values, prefix)
		if err != nil {
			return nil, err
		}
		if section.Len() == 0 {
			section = formset.NewSection(prefix, url.Values{})
		}
	}
	if flags.maxForms > 0 {
		section.MaxForms = flags.maxForms
	}
	return section, nil
}
