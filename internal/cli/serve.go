package cli

import (
	"github.com/spf13/cobra"
)

func newServeCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront core until interrupted",
		Long: `Run identity sync, state autosave, the gRPC health server and the
ops HTTP server (/metrics, /healthz) until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := r.open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.Boot(ctx); err != nil {
				return err
			}

			return a.Serve(ctx)
		},
	}
}
