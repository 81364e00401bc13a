package commands

import (
	"github.com/spf13/cobra"

	"github.com/mzansiplatess/plates-cli/internal/output"
)

// CommandInfo describes a CLI command.
type CommandInfo struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Actions     []string `json:"actions,omitempty"`
}

// CommandCategory groups commands by category.
type CommandCategory struct {
	Name     string        `json:"name"`
	Commands []CommandInfo `json:"commands"`
}

// commandCategories returns all command categories for the catalog.
func commandCategories() []CommandCategory {
	return []CommandCategory{
		{
			Name: "Discover",
			Commands: []CommandInfo{
				{Name: "restaurants", Category: "discover", Description: "Browse restaurants", Actions: []string{"list", "show"}},
				{Name: "recipes", Category: "discover", Description: "Browse recipes", Actions: []string{"list", "show"}},
				{Name: "events", Category: "discover", Description: "Browse food events", Actions: []string{"list", "show"}},
				{Name: "browse", Category: "discover", Description: "Browse everything in the terminal"},
			},
		},
		{
			Name: "Your Kitchen",
			Commands: []CommandInfo{
				{Name: "favourites", Category: "kitchen", Description: "Manage saved restaurants, recipes and events", Actions: []string{"list", "add", "remove"}},
				{Name: "shopping", Category: "kitchen", Description: "Manage your shopping list", Actions: []string{"list", "add", "done", "rm", "clear"}},
			},
		},
		{
			Name: "Account & Preferences",
			Commands: []CommandInfo{
				{Name: "auth", Category: "account", Description: "Sign in and out", Actions: []string{"login", "logout", "status", "register"}},
				{Name: "settings", Category: "account", Description: "View and change app preferences", Actions: []string{"show", "set", "reset", "watch"}},
				{Name: "config", Category: "account", Description: "Manage configuration", Actions: []string{"show", "set", "unset"}},
			},
		},
		{
			Name: "Additional Commands",
			Commands: []CommandInfo{
				{Name: "commands", Category: "additional", Description: "List all commands"},
				{Name: "completion", Category: "additional", Description: "Shell completion scripts and ID cache", Actions: []string{"bash", "zsh", "fish", "powershell", "refresh", "status"}},
				{Name: "dev", Category: "additional", Description: "Development helpers", Actions: []string{"serve"}},
				{Name: "version", Category: "additional", Description: "Show version"},
			},
		},
	}
}

// CatalogCommandNames returns all command names from the catalog.
// Used by tests to verify catalog matches registered commands.
func CatalogCommandNames() []string {
	categories := commandCategories()
	total := 0
	for _, cat := range categories {
		total += len(cat.Commands)
	}
	names := make([]string, 0, total)
	for _, cat := range categories {
		for _, cmd := range cat.Commands {
			names = append(names, cmd.Name)
		}
	}
	return names
}

// NewCommandsCmd creates the commands listing command.
func NewCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "commands",
		Aliases: []string{"cmds"},
		Short:   "List all available commands",
		Long:    "List all available plates commands organized by category.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			return app.OK(commandCategories(),
				output.WithSummary("All available plates commands"),
				output.WithBreadcrumbs(
					output.Breadcrumb{
						Action:      "help",
						Cmd:         "plates --help",
						Description: "View help",
					},
				),
			)
		},
	}
}

// All returns every top-level command, in catalog order.
func All() []*cobra.Command {
	return []*cobra.Command{
		NewRestaurantsCmd(),
		NewRecipesCmd(),
		NewEventsCmd(),
		NewBrowseCmd(),
		NewFavouritesCmd(),
		NewShoppingCmd(),
		NewAuthCmd(),
		NewSettingsCmd(),
		NewConfigCmd(),
		NewCommandsCmd(),
		NewCompletionCmd(),
		NewDevCmd(),
		NewVersionCmd(),
	}
}
