package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dtroode/storefront/internal/app"
	"github.com/dtroode/storefront/internal/model"
)

func newProductsCommand(r *runner) *cobra.Command {
	var sort string

	cmd := &cobra.Command{
		Use:   "products",
		Short: "Load and list catalog products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key := model.SortKey(sort)
			if !key.Valid() {
				return fmt.Errorf("unknown sort key %q", sort)
			}

			return r.once(cmd, func(ctx context.Context, a *app.App, _ model.Session) error {
				if err := a.Store.FetchProducts(ctx, key); err != nil {
					return err
				}
				return r.printProducts(cmd.OutOrStdout(), a.Store.Products(), a.Store.PriceRange())
			})
		},
	}
	cmd.Flags().StringVar(&sort, "sort", "", "Sort order: price_asc, price_desc or newest")

	return cmd
}

func newProductCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show a single catalog product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.once(cmd, func(ctx context.Context, a *app.App, _ model.Session) error {
				p, err := a.Store.FetchProduct(ctx, model.ProductID(args[0]))
				if err != nil {
					return err
				}
				return r.printProduct(cmd.OutOrStdout(), p)
			})
		},
	}
}
