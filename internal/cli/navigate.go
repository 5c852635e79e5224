package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dtroode/storefront/internal/app"
	"github.com/dtroode/storefront/internal/model"
)

func newNavigateCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "navigate <path>",
		Short: "Check whether the current session may open a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.once(cmd, func(ctx context.Context, a *app.App, _ model.Session) error {
				d, err := a.Guard.Navigate(ctx, args[0])
				if err != nil {
					return err
				}
				return r.printDecision(cmd.OutOrStdout(), args[0], d)
			})
		},
	}
}
