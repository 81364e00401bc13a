package completion

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mzansiplatess/plates-cli/internal/appctx"
	"github.com/mzansiplatess/plates-cli/internal/config"
	"github.com/mzansiplatess/plates-cli/internal/models"
)

// DataDirFunc returns the data directory holding the cache.
type DataDirFunc func(cmd *cobra.Command) string

// DefaultDataDirFunc resolves the data directory from, in order: the
// --data-dir flag, the app in the command context, PLATES_DATA_DIR, and
// the default config directory.
//
// Completion requests skip the root pre-run, so config files are not read
// here. A data_dir set only in a config file is not seen by completions.
func DefaultDataDirFunc(cmd *cobra.Command) string {
	if root := cmd.Root(); root != nil {
		if flag := root.PersistentFlags().Lookup("data-dir"); flag != nil && flag.Changed {
			return flag.Value.String()
		}
	}
	if ctx := cmd.Context(); ctx != nil {
		if app := appctx.FromContext(ctx); app != nil {
			return app.Config.DataDir
		}
	}
	if v := os.Getenv("PLATES_DATA_DIR"); v != "" {
		return v
	}
	return config.GlobalConfigDir()
}

// Completer builds cobra completion functions over the cache. It never
// builds an App or calls the API.
type Completer struct {
	dataDir DataDirFunc
}

// NewCompleter returns a Completer. A nil dataDir uses DefaultDataDirFunc.
func NewCompleter(dataDir DataDirFunc) *Completer {
	if dataDir == nil {
		dataDir = DefaultDataDirFunc
	}
	return &Completer{dataDir: dataDir}
}

func (c *Completer) store(cmd *cobra.Command) *Store {
	return NewStore(c.dataDir(cmd))
}

// IDs completes the first positional argument with cached IDs of kind.
func (c *Completer) IDs(kind Kind) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return match(c.store(cmd).Entries(kind), toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

// Flag completes a flag value with cached IDs of kind.
func (c *Completer) Flag(kind Kind) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		return match(c.store(cmd).Entries(kind), toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

// Favourite completes "<type> <id>": the item type first, then cached IDs
// of that type.
func (c *Completer) Favourite() cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		switch len(args) {
		case 0:
			var out []cobra.Completion
			for _, t := range []string{"restaurant", "recipe", "event"} {
				if strings.HasPrefix(t, strings.ToLower(toComplete)) {
					out = append(out, cobra.Completion(t))
				}
			}
			return out, cobra.ShellCompDirectiveNoFileComp
		case 1:
			kind, ok := KindFor(args[0])
			if !ok {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return match(c.store(cmd).Entries(kind), toComplete), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

// KindFor maps a favourite type name to its cache kind.
func KindFor(itemType string) (Kind, bool) {
	t, err := models.ParseFavouriteType(itemType)
	if err != nil {
		return "", false
	}
	switch t {
	case models.FavouriteRestaurant:
		return KindRestaurants, true
	case models.FavouriteRecipe:
		return KindRecipes, true
	case models.FavouriteEvent:
		return KindEvents, true
	}
	return "", false
}

// match returns entries whose ID starts with, or whose name contains,
// toComplete. ID prefix matches come first.
func match(entries []Entry, toComplete string) []cobra.Completion {
	needle := strings.ToLower(toComplete)
	var byID, byName []cobra.Completion
	for _, e := range entries {
		switch {
		case strings.HasPrefix(strings.ToLower(e.ID), needle):
			byID = append(byID, cobra.CompletionWithDesc(e.ID, e.Name))
		case needle != "" && strings.Contains(strings.ToLower(e.Name), needle):
			byName = append(byName, cobra.CompletionWithDesc(e.ID, e.Name))
		}
	}
	return append(byID, byName...)
}
