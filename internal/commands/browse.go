package commands

import (
	"github.com/spf13/cobra"

	"github.com/mzansiplatess/plates-cli/internal/output"
	"github.com/mzansiplatess/plates-cli/internal/tui/browse"
)

// NewBrowseCmd creates the interactive browser command.
func NewBrowseCmd() *cobra.Command {
	var f searchFlags
	var tab string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse restaurants, recipes and events in the terminal",
		Long: `Open a full-screen browser with Restaurants, Recipes and Events tabs.

Keys: tab/shift+tab switch tabs, r reloads, up/down move, q quits.
A failed reload keeps the last results on screen with the error below.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if !app.IsInteractive() {
				return output.ErrUsageHint("browse needs a terminal",
					"Use plates restaurants, plates recipes or plates events for scriptable output")
			}
			params, err := f.params()
			if err != nil {
				return err
			}
			start, err := browse.ParseTab(tab)
			if err != nil {
				return output.ErrUsage(err.Error())
			}

			return browse.Run(cmd.Context(), app.Hub,
				browse.WithParams(params),
				browse.WithTab(start),
				browse.WithThemeMode(string(app.Settings.Read(cmd.Context()).ThemeMode)),
			)
		},
	}
	f.register(cmd.Flags(), true)
	cmd.Flags().StringVar(&tab, "tab", "restaurants", "Tab to open: restaurants, recipes or events")
	return cmd
}
