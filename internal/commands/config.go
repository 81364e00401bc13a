package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mzansiplatess/plates-cli/internal/appctx"
	"github.com/mzansiplatess/plates-cli/internal/config"
	"github.com/mzansiplatess/plates-cli/internal/output"
)

// NewConfigCmd creates the config command for managing configuration.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage plates configuration.

Configuration is loaded from multiple sources with the following precedence:
  flags > env > local > global > system > defaults

Config locations:
  - System: /etc/plates/config.json
  - Global: ~/.config/plates/config.json
  - Local:  .plates/config.json (base_url is ignored here)

PLATES_ENV_FILE may name a dotenv file of PLATES_* variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigSetCmd(),
		newConfigUnsetCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long:  "Display the current effective configuration with source information.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}
}

// configEntry is one resolved value and where it came from.
type configEntry struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

func effectiveConfig(cfg *config.Config) map[string]configEntry {
	values := map[string]string{
		"base_url":        cfg.BaseURL,
		"timeout":         cfg.Timeout.String(),
		"connect_timeout": cfg.ConnectTimeout.String(),
		"retries":         strconv.Itoa(cfg.Retries),
		"rate_limit":      strconv.FormatFloat(cfg.RateLimit, 'f', -1, 64),
		"data_dir":        cfg.DataDir,
		"format":          cfg.Format,
	}
	if cfg.Stats != nil {
		values["stats"] = strconv.FormatBool(*cfg.Stats)
	}
	if cfg.Verbose != nil {
		values["verbose"] = strconv.Itoa(*cfg.Verbose)
	}

	out := make(map[string]configEntry, len(values))
	for k, v := range values {
		source := cfg.Sources[k]
		if source == "" {
			source = string(config.SourceDefault)
		}
		out[k] = configEntry{Value: v, Source: source}
	}
	return out
}

func runConfigShow(cmd *cobra.Command) error {
	app, err := appFrom(cmd)
	if err != nil {
		return err
	}

	return app.OK(effectiveConfig(app.Config),
		output.WithSummary("Effective configuration"),
		output.WithBreadcrumbs(
			output.Breadcrumb{
				Action:      "set",
				Cmd:         "plates config set <key> <value>",
				Description: "Set config value",
			},
		),
	)
}

func validKeysHint() string {
	return "Valid keys: " + strings.Join(config.SortedKeys(), ", ")
}

func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the global config file.

Valid keys: base_url, timeout, connect_timeout, retries, rate_limit,
            data_dir, format, stats, verbose`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			key, value := args[0], args[1]
			if _, ok := config.Keys[key]; !ok {
				return output.ErrUsageHint(fmt.Sprintf("Invalid config key %q", key), validKeysHint())
			}

			path := config.GlobalConfigPath()
			if err := config.SetValue(path, key, value); err != nil {
				return output.ErrUsage(err.Error())
			}
			return configChanged(app, key, value, path, "set")
		},
	}

	return cmd
}

func newConfigUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value from the global config file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			key := args[0]
			if _, ok := config.Keys[key]; !ok {
				return output.ErrUsageHint(fmt.Sprintf("Invalid config key %q", key), validKeysHint())
			}

			path := config.GlobalConfigPath()
			if err := config.UnsetValue(path, key); err != nil {
				return fmt.Errorf("failed to update config: %w", err)
			}
			return configChanged(app, key, "", path, "unset")
		},
	}
}

func configChanged(app *appctx.App, key, value, path, status string) error {
	summary := fmt.Sprintf("Set %s = %s (global)", key, value)
	if status == "unset" {
		summary = fmt.Sprintf("Unset %s (global)", key)
	}
	return app.OK(map[string]any{
		"key":    key,
		"value":  value,
		"scope":  "global",
		"path":   path,
		"status": status,
	},
		output.WithSummary(summary),
		output.WithBreadcrumbs(
			output.Breadcrumb{
				Action:      "show",
				Cmd:         "plates config show",
				Description: "View config",
			},
		),
	)
}
