package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mzansiplatess/plates-cli/internal/output"
	"github.com/mzansiplatess/plates-cli/internal/settings"
	"github.com/mzansiplatess/plates-cli/internal/tui"
)

// NewSettingsCmd creates the settings command group.
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "View and change app preferences",
		Long: `View and change notification, theme and language preferences.

Settings are kept in settings.yaml inside the data directory and survive
restarts. Unreadable settings fall back to the defaults.`,
	}
	show := newSettingsShowCmd()
	cmd.RunE = show.RunE
	cmd.AddCommand(show, newSettingsSetCmd(), newSettingsResetCmd(), newSettingsWatchCmd())
	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			s := app.Settings.Read(cmd.Context())
			return app.OK(s,
				output.WithSummary("Settings from "+app.Settings.Path()),
				output.WithBreadcrumbs(
					output.Breadcrumb{Action: "set", Cmd: "plates settings set <key> <value>", Description: "Change a setting"},
				),
			)
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> [value]",
		Short: "Change a setting",
		Long: `Change one setting.

Keys:
  push_notifications  true or false
  promotions          true or false
  app_updates         true or false
  theme_mode          system, light or dark
  language            en, zu or tn

In a terminal, leaving out the value of theme_mode or language shows a picker.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			key := args[0]
			var value string
			if len(args) == 2 {
				value = args[1]
			} else {
				if value, err = pickSettingValue(app.IsInteractive(), key); err != nil {
					return err
				}
			}

			u, err := settings.ParseUpdate(key, value)
			if err != nil {
				return err
			}
			s, err := app.Settings.Write(cmd.Context(), u)
			if err != nil {
				return err
			}
			tui.ApplyMode(string(s.ThemeMode))

			return app.OK(s, output.WithSummary("Updated "+key))
		},
	}
}

func pickSettingValue(interactive bool, key string) (string, error) {
	var options []tui.SelectOption
	switch key {
	case "theme_mode", "theme":
		options = []tui.SelectOption{
			{Value: string(settings.ThemeSystem), Label: "Follow the terminal"},
			{Value: string(settings.ThemeLight), Label: "Light"},
			{Value: string(settings.ThemeDark), Label: "Dark"},
		}
	case "language", "language_code":
		options = []tui.SelectOption{
			{Value: "en", Label: "English"},
			{Value: "zu", Label: "isiZulu"},
			{Value: "tn", Label: "Setswana"},
		}
	}
	if options == nil || !interactive {
		return "", output.ErrUsageHint("Value required", "Usage: plates settings set "+key+" <value>")
	}
	return tui.Select("Choose "+key, options)
}

func newSettingsResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if !yes && app.IsInteractive() {
				ok, err := tui.Confirm("Restore the default settings?", false)
				if err != nil {
					return err
				}
				if !ok {
					return app.OK(app.Settings.Read(cmd.Context()), output.WithSummary("Settings unchanged"))
				}
			}

			if err := app.Settings.Reset(cmd.Context()); err != nil {
				return err
			}
			return app.OK(settings.Defaults(), output.WithSummary("Settings restored to defaults"))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newSettingsWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print settings whenever they change",
		Long:  "Print the current settings, then again each time the settings file changes, until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchSettings(ctx, app.Settings, func(s settings.Settings) error {
				return app.OK(s, output.WithSummary("Settings from "+app.Settings.Path()))
			})
		},
	}
}

// watchSettings reports every change until ctx ends or emit fails.
func watchSettings(ctx context.Context, store *settings.Store, emit func(settings.Settings) error) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	err := store.Watch(ctx, func(s settings.Settings) {
		if err := emit(s); err != nil {
			cancel(err)
		}
	})
	if err != nil {
		return err
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) && !errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}
	return nil
}
