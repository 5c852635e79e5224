package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/dtroode/storefront/internal/app"
	"github.com/dtroode/storefront/internal/model"
)

type credentials struct {
	email    string
	password string
}

func (c *credentials) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.email, "email", "", "Account email")
	cmd.Flags().StringVar(&c.password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
}

func newRegisterCommand(r *runner) *cobra.Command {
	var (
		creds credentials
		name  string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.once(cmd, func(ctx context.Context, a *app.App, _ model.Session) error {
				identity, err := a.Auth.Register(ctx, creds.email, creds.password, name)
				if err != nil {
					return err
				}
				return r.printSignedIn(ctx, cmd, a, identity)
			})
		},
	}
	creds.bind(cmd)
	cmd.Flags().StringVar(&name, "name", "", "Display name")

	return cmd
}

func newLoginCommand(r *runner) *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.once(cmd, func(ctx context.Context, a *app.App, _ model.Session) error {
				identity, err := a.Auth.Login(ctx, creds.email, creds.password)
				if err != nil {
					return err
				}
				return r.printSignedIn(ctx, cmd, a, identity)
			})
		},
	}
	creds.bind(cmd)

	return cmd
}

func newLogoutCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.once(cmd, func(ctx context.Context, a *app.App, _ model.Session) error {
				if err := a.Auth.Logout(ctx); err != nil {
					return err
				}
				return r.printSession(cmd.OutOrStdout(), model.AbsentSession())
			})
		},
	}
}

func newProfileCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the signed-in profile",
	}

	var name, photo string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change display name or photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var upd model.ProfileUpdate
			if cmd.Flags().Changed("name") {
				upd.DisplayName = &name
			}
			if cmd.Flags().Changed("photo") {
				upd.PhotoURL = &photo
			}
			if upd.DisplayName == nil && upd.PhotoURL == nil {
				return errors.New("nothing to update: pass --name or --photo")
			}

			return r.once(cmd, func(ctx context.Context, a *app.App, _ model.Session) error {
				identity, err := a.Auth.UpdateProfile(ctx, upd)
				if err != nil {
					return err
				}
				return r.printIdentity(cmd.OutOrStdout(), identity)
			})
		},
	}
	update.Flags().StringVar(&name, "name", "", "New display name")
	update.Flags().StringVar(&photo, "photo", "", "New photo URL")

	cmd.AddCommand(update)
	return cmd
}

func newWhoamiCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.once(cmd, func(_ context.Context, _ *app.App, sess model.Session) error {
				return r.printSession(cmd.OutOrStdout(), sess)
			})
		},
	}
}

// printSignedIn waits for the sign-in to resolve the session before printing.
func (r *runner) printSignedIn(ctx context.Context, cmd *cobra.Command, a *app.App, identity *model.Identity) error {
	if _, err := a.AwaitSession(ctx); err != nil {
		return err
	}
	return r.printIdentity(cmd.OutOrStdout(), identity)
}
