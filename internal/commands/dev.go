package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mzansiplatess/plates-cli/internal/fakeapi"
	"github.com/mzansiplatess/plates-cli/internal/hostutil"
	"github.com/mzansiplatess/plates-cli/internal/output"
)

// NewDevCmd creates the dev command group for local development helpers.
func NewDevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "dev",
		Short:  "Development helpers",
		Hidden: true,
	}
	cmd.AddCommand(newDevServeCmd())
	return cmd
}

func newDevServeCmd() *cobra.Command {
	var addr, secret string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sample API locally",
		Long: fmt.Sprintf(`Serve sample restaurants, recipes and events on a local address.

Point the CLI at it with --base-url or PLATES_BASE_URL. Sign in with
%s / %s.`, fakeapi.DemoEmail, fakeapi.DemoPassword),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			opts := []fakeapi.Option{fakeapi.WithLogger(app.Log)}
			if secret != "" {
				opts = append(opts, fakeapi.WithSecret([]byte(secret)))
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return output.ErrUsage(fmt.Sprintf("cannot listen on %s: %v", addr, err))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			url := "http://" + ln.Addr().String()
			fmt.Fprintf(app.Stderr(), "Serving sample API on %s (Ctrl-C to stop)\n", url)
			if !hostutil.IsLoopback(ln.Addr().String()) {
				fmt.Fprintln(app.Stderr(), "Warning: the sample API is reachable from other machines")
			}
			if err := serve(ctx, ln, fakeapi.New(opts...)); err != nil {
				return err
			}

			return app.OK(map[string]any{"url": url, "status": "stopped"},
				output.WithSummary("Stopped sample API on "+url))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3000", "Address to listen on")
	cmd.Flags().StringVar(&secret, "secret", "", "Token signing secret (a built-in development key by default)")
	return cmd
}

// serve runs h on ln until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
