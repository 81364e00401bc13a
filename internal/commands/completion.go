package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mzansiplatess/plates-cli/internal/completion"
	"github.com/mzansiplatess/plates-cli/internal/output"
)

// NewCompletionCmd creates the completion command group.
func NewCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [shell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for plates.

Bash:
  $ source <(plates completion bash)

Zsh:
  $ plates completion zsh > "${fpath[1]}/_plates"

Fish:
  $ plates completion fish > ~/.config/fish/completions/plates.fish

PowerShell:
  PS> plates completion powershell | Out-String | Invoke-Expression

IDs of restaurants, recipes and events complete from a local cache. It
fills as you list things; run "plates completion refresh" to load it all.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeCompletion(cmd, args[0])
		},
	}

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		cmd.AddCommand(&cobra.Command{
			Use:                   shell,
			Short:                 "Generate the " + shell + " completion script",
			DisableFlagsInUseLine: true,
			Args:                  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return writeCompletion(cmd, shell)
			},
		})
	}

	cmd.AddCommand(newCompletionRefreshCmd(), newCompletionStatusCmd())
	return cmd
}

func writeCompletion(cmd *cobra.Command, shell string) error {
	root, out := cmd.Root(), cmd.OutOrStdout()
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(out, true)
	case "zsh":
		return root.GenZshCompletion(out)
	case "fish":
		return root.GenFishCompletion(out, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(out)
	}
	return output.ErrUsage("unknown shell: " + shell)
}

func newCompletionRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload the completion cache from the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			store := completion.NewStore(app.Config.DataDir)
			res := completion.NewRefresher(store, app.API).RefreshAll(cmd.Context())
			if res.Failed() {
				return fmt.Errorf("refresh failed: %w", res.Err())
			}

			result := map[string]any{"cache_path": store.Path()}
			for _, k := range completion.Kinds {
				if err := res.Errors[k]; err != nil {
					result[string(k)+"_error"] = err.Error()
					continue
				}
				result[string(k)] = res.Counts[k]
			}

			summary := fmt.Sprintf("Cached %s, %s and %s",
				plural(res.Counts[completion.KindRestaurants], "restaurant", "restaurants"),
				plural(res.Counts[completion.KindRecipes], "recipe", "recipes"),
				plural(res.Counts[completion.KindEvents], "event", "events"))
			if res.HasError() {
				summary += fmt.Sprintf(" (warning: %v)", res.Err())
			}
			return app.OK(result, output.WithSummary(summary))
		},
	}
}

func newCompletionStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show completion cache status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			store := completion.NewStore(app.Config.DataDir)
			cache, err := store.Load()
			if err != nil {
				return output.ErrStorage("completion cache", err)
			}

			kinds := make(map[string]any, len(completion.Kinds))
			total, stale := 0, false
			for _, k := range completion.Kinds {
				n := len(cache.Entries[k])
				total += n
				kindStale := store.IsStale(k, completion.DefaultMaxAge)
				stale = stale || kindStale
				entry := map[string]any{"count": n, "stale": kindStale}
				if at, ok := cache.UpdatedAt[k]; ok {
					entry["refreshed_at"] = at.Format(time.RFC3339)
				}
				kinds[string(k)] = entry
			}

			status := "fresh"
			switch {
			case total == 0:
				status = "empty"
			case stale:
				status = "stale"
			}

			return app.OK(map[string]any{
				"status":     status,
				"cache_path": store.Path(),
				"kinds":      kinds,
			},
				output.WithSummary(fmt.Sprintf("Completion cache %s (%s)", status, plural(total, "ID", "IDs"))),
				output.WithBreadcrumbs(
					output.Breadcrumb{Action: "refresh", Cmd: "plates completion refresh", Description: "Reload the cache"},
				),
			)
		},
	}
}
