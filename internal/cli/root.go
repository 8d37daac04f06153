// Package cli implements the formset command line.
package cli

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formset/internal/logging"
	"github.com/goliatone/go-formset/internal/prompt"
)

// App carries the persistent flags shared by every command.
type App struct {
	LogLevel  string
	LogFormat string

	logger *logrus.Logger
	// driver replaces the terminal prompts of fill when set.
	driver prompt.Driver
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "formset",
		Short:        "Replicate formset rows and serve widget endpoints",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Add two rows to the participants table of a saved page
  formset add-row --section "#participants" --count 2 --in page.html --out page.html

  # Renumber field names the way a cloned row would be
  formset increment participants-0-user form-1-participant-1

  # Serve add-row, widget and autocomplete endpoints
  formset serve
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		app.logger = logging.New(app.LogLevel, app.LogFormat, cmd.ErrOrStderr())
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("FORMSET_LOG_LEVEL", "error"), "Log level (silent|error|warn|info|debug|trace)")
	cmd.PersistentFlags().StringVar(&app.LogFormat, "log-format", envOr("FORMSET_LOG_FORMAT", "text"), "Log format (text|json)")

	cmd.AddCommand(newAddRowCmd(app))
	cmd.AddCommand(newIncrementCmd(app))
	cmd.AddCommand(newBindCmd(app))
	cmd.AddCommand(newLinksCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newFillCmd(app))

	return cmd
}

// Logger returns the logger configured by the persistent flags.
func (a *App) Logger() *logrus.Logger {
	if a.logger == nil {
		a.logger = logging.Discard()
	}
	return a.logger
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
