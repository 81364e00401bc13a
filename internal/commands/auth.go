// Package commands implements the CLI commands.
package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mzansiplatess/plates-cli/internal/appctx"
	"github.com/mzansiplatess/plates-cli/internal/auth"
	"github.com/mzansiplatess/plates-cli/internal/output"
	"github.com/mzansiplatess/plates-cli/internal/tui"
)

// NewAuthCmd creates the auth command group.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long: `Sign in, sign out and check who you are signed in as.

Browsing restaurants, recipes and events works without signing in.
Favourites need an account. PLATES_TOKEN, when set, is used instead of
the stored session.`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
		newAuthRegisterCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in to Mzansi Plates.

In a terminal, missing details are prompted for. Otherwise pass --email and
--password.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if email == "" || password == "" {
				if !app.IsInteractive() {
					return output.ErrUsageHint("Email and password required", "Usage: plates auth login --email <email> --password <password>")
				}
				form, err := tui.LoginForm(email)
				if err != nil {
					return err
				}
				email, password = form.Email, form.Password
			}
			if err := tui.ValidateEmail(email); err != nil {
				return output.ErrUsage("Invalid email: " + err.Error())
			}

			var creds *auth.Credentials
			err = withSpinner(app, "Signing in...", func() error {
				var err error
				creds, err = app.Auth.Login(cmd.Context(), strings.TrimSpace(email), password)
				return err
			})
			if err != nil {
				return err
			}
			app.Hub.Clear()

			name := creds.Name
			if name == "" {
				name = creds.Email
			}
			return app.OK(map[string]any{
				"authenticated": true,
				"user_id":       creds.UserID,
				"name":          creds.Name,
				"email":         creds.Email,
				"backend":       app.Auth.Store().Backend(),
			},
				output.WithSummary("Signed in as "+name),
				output.WithBreadcrumbs(
					output.Breadcrumb{Action: "favourites", Cmd: "plates favourites list", Description: "List your favourites"},
				),
			)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")

	return cmd
}

// withSpinner runs fn behind a spinner in a terminal, directly otherwise.
func withSpinner(app *appctx.App, message string, fn func() error) error {
	if !app.IsInteractive() {
		return fn()
	}
	return tui.RunWithSpinner(message, fn)
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if err := app.Auth.Logout(); err != nil {
				return err
			}
			app.Hub.Clear()

			return app.OK(map[string]any{
				"status": "logged_out",
			}, output.WithSummary("Signed out"))
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who you are signed in as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			status, err := app.Auth.Status()
			if err != nil {
				return err
			}

			var summary string
			switch {
			case status.Expired:
				summary = "Session expired"
			case !status.Authenticated:
				summary = "Not signed in"
			case status.Name != "":
				summary = "Signed in as " + status.Name
			case status.Email != "":
				summary = "Signed in as " + status.Email
			default:
				summary = "Signed in"
			}

			opts := []output.ResponseOption{output.WithSummary(summary)}
			if !status.Authenticated || status.Expired {
				opts = append(opts, output.WithBreadcrumbs(
					output.Breadcrumb{Action: "login", Cmd: "plates auth login", Description: "Sign in"},
					output.Breadcrumb{Action: "register", Cmd: "plates auth register", Description: "Create an account"},
				))
			}
			return app.OK(status, opts...)
		},
	}
}

func newAuthRegisterCmd() *cobra.Command {
	var name, email, password string
	var login bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if name == "" || email == "" || password == "" {
				if !app.IsInteractive() {
					return output.ErrUsageHint("Name, email and password required",
						"Usage: plates auth register --name <name> --email <email> --password <password>")
				}
				form, err := tui.RegisterForm()
				if err != nil {
					return err
				}
				name, email, password = form.Name, form.Email, form.Password
			}
			if err := tui.ValidateEmail(email); err != nil {
				return output.ErrUsage("Invalid email: " + err.Error())
			}

			user, err := app.Auth.Register(cmd.Context(), strings.TrimSpace(name), strings.TrimSpace(email), password)
			if err != nil {
				return err
			}

			summary := "Created account for " + user.Email
			if login {
				if err := signIn(cmd.Context(), app, user.Email, password); err != nil {
					return err
				}
				summary += " and signed in"
			}
			return app.OK(user,
				output.WithSummary(summary),
				output.WithBreadcrumbs(
					output.Breadcrumb{Action: "status", Cmd: "plates auth status", Description: "Check your session"},
				),
			)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Your name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.Flags().BoolVar(&login, "login", true, "Sign in once the account exists")

	return cmd
}

func signIn(ctx context.Context, app *appctx.App, email, password string) error {
	if _, err := app.Auth.Login(ctx, email, password); err != nil {
		return err
	}
	app.Hub.Clear()
	return nil
}
