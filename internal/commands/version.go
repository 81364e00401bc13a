package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzansiplatess/plates-cli/internal/appctx"
	"github.com/mzansiplatess/plates-cli/internal/output"
	"github.com/mzansiplatess/plates-cli/internal/version"
)

// NewVersionCmd creates the version command. It runs without loading
// configuration, so it also works with a broken config file.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app := appctx.FromContext(cmd.Context()); app != nil {
				return app.OK(map[string]string{
					"version": version.Version,
					"commit":  version.Commit,
					"date":    version.Date,
				}, output.WithSummary(version.Full()))
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return err
		},
	}
}
