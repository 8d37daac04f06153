package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formset/pkg/formset"
)

func newIncrementCmd(_ *App) *cobra.Command {
	return &cobra.Command{
		Use:   "increment <value>...",
		Short: "Print each value with every numeric dash token incremented",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, value := range args {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), formset.IncrementDashTokens(value)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
