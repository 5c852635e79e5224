// Package cli implements the storefront command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dtroode/storefront/internal/app"
	"github.com/dtroode/storefront/internal/model"
)

// Opener builds a fresh, not yet booted App.
type Opener func(ctx context.Context) (*app.App, error)

// BuildInfo is printed by the version command.
type BuildInfo struct {
	Version string
	Date    string
	Commit  string
}

type runner struct {
	open       Opener
	jsonOutput bool
}

// NewRootCommand returns the storefront command tree.
func NewRootCommand(open Opener, build BuildInfo) *cobra.Command {
	r := &runner{open: open}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront session core",
		Long: `storefront drives the storefront session core: catalog, cart,
account flows and navigation checks.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&r.jsonOutput, "json", false, "Output JSON instead of human-readable text")

	root.AddCommand(
		newServeCommand(r),
		newProductsCommand(r),
		newProductCommand(r),
		newCartCommand(r),
		newRegisterCommand(r),
		newLoginCommand(r),
		newLogoutCommand(r),
		newProfileCommand(r),
		newNavigateCommand(r),
		newWhoamiCommand(r),
		newVersionCommand(build),
	)

	return root
}

// once boots an App, runs fn against it and prints the queued notices.
func (r *runner) once(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, sess model.Session) error) error {
	ctx := cmd.Context()

	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.Boot(ctx); err != nil {
		return err
	}

	notices, err := a.Once(ctx, func(ctx context.Context, sess model.Session) error {
		return fn(ctx, a, sess)
	})
	printNotices(cmd.ErrOrStderr(), notices)

	return err
}

func newVersionCommand(build BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Build version: %s\nBuild date: %s\nBuild commit: %s\n",
				build.Version, build.Date, build.Commit)
		},
	}
}
