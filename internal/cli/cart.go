package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dtroode/storefront/internal/app"
	"github.com/dtroode/storefront/internal/model"
)

func newCartCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and change the cart",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show cart lines and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.once(cmd, func(_ context.Context, a *app.App, _ model.Session) error {
				return r.printCart(cmd.OutOrStdout(), a)
			})
		},
	}

	var qty int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a catalog product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.once(cmd, func(ctx context.Context, a *app.App, _ model.Session) error {
				p, err := a.Store.FetchProduct(ctx, model.ProductID(args[0]))
				if err != nil {
					return err
				}
				a.Store.AddProduct(p, qty)
				return r.printCart(cmd.OutOrStdout(), a)
			})
		},
	}
	add.Flags().IntVar(&qty, "qty", 1, "Quantity to add")

	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.once(cmd, func(_ context.Context, a *app.App, _ model.Session) error {
				a.Store.RemoveFromCart(model.ProductID(args[0]))
				return r.printCart(cmd.OutOrStdout(), a)
			})
		},
	}

	update := &cobra.Command{
		Use:   "update <product-id> <quantity>",
		Short: "Set the quantity of a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q: %w", args[1], err)
			}
			return r.once(cmd, func(_ context.Context, a *app.App, _ model.Session) error {
				if err := a.Store.UpdateQuantityStrict(model.ProductID(args[0]), quantity); err != nil {
					return err
				}
				return r.printCart(cmd.OutOrStdout(), a)
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.once(cmd, func(_ context.Context, a *app.App, _ model.Session) error {
				a.Store.ClearCart()
				return r.printCart(cmd.OutOrStdout(), a)
			})
		},
	}

	cmd.AddCommand(show, add, remove, update, clearCmd)
	return cmd
}
