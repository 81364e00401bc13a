// Package cli assembles the plates command tree.
package cli

import (
	"context"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mzansiplatess/plates-cli/internal/appctx"
	"github.com/mzansiplatess/plates-cli/internal/commands"
	"github.com/mzansiplatess/plates-cli/internal/config"
	"github.com/mzansiplatess/plates-cli/internal/output"
	"github.com/mzansiplatess/plates-cli/internal/version"
)

// NewRootCmd creates the root cobra command. Extra app options, such as
// replacement streams in tests, are passed to every App it builds.
func NewRootCmd(appOpts ...appctx.Option) *cobra.Command {
	var flags appctx.GlobalFlags

	cmd := &cobra.Command{
		Use:   "plates",
		Short: "Mzansi Plates in your terminal",
		Long: `plates finds South African restaurants, recipes and food events, keeps
your favourites and a shopping list, and remembers your preferences.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip setup for help and version commands
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			timeout, err := parseTimeout(flags.Timeout)
			if err != nil {
				return err
			}
			cfg, err := config.Load(config.FlagOverrides{
				BaseURL: flags.BaseURL,
				DataDir: flags.DataDir,
				Format:  flags.Format,
				Timeout: timeout,
			})
			if err != nil {
				return output.ErrUsageHint(err.Error(), "Check: plates config show")
			}

			app := appctx.NewApp(cfg, appOpts...)
			app.Flags = flags
			if err := app.ApplyFlags(); err != nil {
				return err
			}

			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
	}

	// Allow flags anywhere in the command line
	cmd.Flags().SetInterspersed(true)
	cmd.PersistentFlags().SetInterspersed(true)
	addGlobalFlags(cmd.PersistentFlags(), &flags)

	return cmd
}

func addGlobalFlags(pf *pflag.FlagSet, flags *appctx.GlobalFlags) {
	// Output format flags
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Output as JSON")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "Output data only, no envelope")
	pf.BoolVarP(&flags.MD, "md", "m", false, "Output as Markdown (portable)")
	pf.BoolVar(&flags.MD, "markdown", false, "Output as Markdown (portable)")
	pf.BoolVar(&flags.Styled, "styled", false, "Force styled output (ANSI colors)")
	pf.BoolVar(&flags.IDsOnly, "ids-only", false, "Output only IDs")
	pf.BoolVar(&flags.Count, "count", false, "Output only count")
	pf.StringVar(&flags.Format, "format", "", "Output format: auto, json, styled, markdown, quiet, ids, count")
	pf.StringVar(&flags.JQ, "jq", "", "Filter JSON output with a jq expression")

	// Connection flags
	pf.StringVar(&flags.BaseURL, "base-url", "", "API base URL (e.g. http://localhost:3000)")
	pf.StringVar(&flags.DataDir, "data-dir", "", "Directory for settings, credentials and the shopping list")
	pf.StringVar(&flags.Timeout, "timeout", "", "Per-request timeout (e.g. 20s)")

	// Behavior flags
	pf.CountVarP(&flags.Verbose, "verbose", "v", "Verbose output (-v for ops, -vv for requests)")
	pf.BoolVar(&flags.Stats, "stats", false, "Show session statistics")
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, output.ErrUsageHint("Invalid --timeout: "+s, "Use a duration such as 20s or 1m")
	}
	return d, nil
}

// New builds the full command tree.
func New(appOpts ...appctx.Option) *cobra.Command {
	cmd := NewRootCmd(appOpts...)
	cmd.AddCommand(commands.All()...)
	return cmd
}

// Run executes args against the full command tree, writing errors to
// stdout in the selected format, and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := New(appctx.WithStreams(stdout, stderr))
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	// ExecuteContextC returns the command that ran, whose context holds the app
	executedCmd, err := cmd.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}

	err = transformCobraError(err)
	apiErr := output.AsError(err)

	// Try to use app.Err() if app is available (for --stats support)
	if executedCmd != nil {
		if app := appctx.FromContext(executedCmd.Context()); app != nil {
			_ = app.Err(err)
			return apiErr.ExitCode()
		}
	}

	// Fallback: output error directly (app not available, e.g., during setup)
	writer := output.New(output.Options{
		Format: fallbackFormat(cmd.PersistentFlags()),
		Writer: stdout,
	})
	_ = writer.Err(err)
	return apiErr.ExitCode()
}

// Execute runs the CLI with the process arguments and exits.
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// fallbackFormat picks the error format from the raw flags when no app
// could be built.
func fallbackFormat(pf *pflag.FlagSet) output.Format {
	quiet, _ := pf.GetBool("quiet")
	idsOnly, _ := pf.GetBool("ids-only")
	count, _ := pf.GetBool("count")
	styled, _ := pf.GetBool("styled")
	md, _ := pf.GetBool("md")
	jsonFlag, _ := pf.GetBool("json")

	switch {
	case idsOnly:
		return output.FormatIDs
	case count:
		return output.FormatCount
	case quiet:
		return output.FormatQuiet
	case jsonFlag:
		return output.FormatJSON
	case styled:
		return output.FormatStyled
	case md:
		return output.FormatMarkdown
	}
	if f, err := pf.GetString("format"); err == nil && f != "" {
		if format, err := output.ParseFormat(f); err == nil {
			return format
		}
	}
	return output.FormatAuto
}

var shorthandFlagRE = regexp.MustCompile(`unknown shorthand flag: '.' in (-\w)`)

// transformCobraError turns cobra's parse errors into usage errors with
// friendlier wording.
func transformCobraError(err error) error {
	msg := err.Error()

	// "flag needs an argument: --FLAG" → "--FLAG requires a value"
	if strings.HasPrefix(msg, "flag needs an argument: ") {
		flag := strings.TrimPrefix(msg, "flag needs an argument: ")
		return output.ErrUsage(flag + " requires a value")
	}

	// "unknown flag: --FLAG" → "Unknown option: --FLAG"
	if strings.HasPrefix(msg, "unknown flag: ") {
		flag := strings.TrimPrefix(msg, "unknown flag: ")
		return output.ErrUsage("Unknown option: " + flag)
	}

	// "unknown shorthand flag: 'X' in -X" → "Unknown option: -X"
	if strings.HasPrefix(msg, "unknown shorthand flag: ") {
		if matches := shorthandFlagRE.FindStringSubmatch(msg); len(matches) > 1 {
			return output.ErrUsage("Unknown option: " + matches[1])
		}
	}

	if strings.HasPrefix(msg, "unknown command ") {
		return output.ErrUsageHint(strings.SplitN(msg, "\n", 2)[0], "Run: plates commands")
	}

	if strings.Contains(msg, "invalid argument") {
		return output.ErrUsage(msg)
	}

	// "accepts 1 arg(s), received 0" → "ID required"
	if strings.Contains(msg, "arg(s), received 0") {
		return output.ErrUsage("ID required")
	}

	// Other arity errors
	if strings.Contains(msg, "arg(s), received") {
		return output.ErrUsage(msg)
	}

	return err
}
