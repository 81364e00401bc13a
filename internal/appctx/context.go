// Package appctx provides application context helpers.
package appctx

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/mzansiplatess/plates-cli/internal/api"
	"github.com/mzansiplatess/plates-cli/internal/auth"
	"github.com/mzansiplatess/plates-cli/internal/config"
	"github.com/mzansiplatess/plates-cli/internal/data"
	"github.com/mzansiplatess/plates-cli/internal/observability"
	"github.com/mzansiplatess/plates-cli/internal/output"
	"github.com/mzansiplatess/plates-cli/internal/settings"
	"github.com/mzansiplatess/plates-cli/internal/shopping"
)

// contextKey is a private type for context keys.
type contextKey string

const appKey contextKey = "app"

// App holds the shared application context for all commands.
type App struct {
	Config   *config.Config
	Auth     *auth.Manager
	API      *api.Client
	Hub      *data.Hub
	Settings *settings.Store
	Shopping *shopping.List
	Output   *output.Writer
	Log      *logrus.Logger

	// Observability
	Collector *observability.SessionCollector
	Hooks     *observability.CLIHooks

	// Flags holds the global flag values
	Flags GlobalFlags

	stdout io.Writer
	stderr io.Writer
}

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	// Output format flags
	JSON    bool
	Quiet   bool
	MD      bool
	Styled  bool
	IDsOnly bool
	Count   bool
	Format  string
	JQ      string

	// Connection flags
	BaseURL string
	DataDir string
	Timeout string

	// Behavior flags
	Verbose int // 0=off, 1=operations, 2=operations+requests (-v -v or -vv)
	Stats   bool
}

// Option configures an App.
type Option func(*App)

// WithStreams replaces stdout and stderr, e.g. with buffers in tests.
func WithStreams(stdout, stderr io.Writer) Option {
	return func(a *App) {
		a.stdout = stdout
		a.stderr = stderr
	}
}

// NewApp wires every component from cfg.
func NewApp(cfg *config.Config, opts ...Option) *App {
	a := &App{Config: cfg, stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(a)
	}

	a.Log = logrus.New()
	a.Log.SetOutput(a.stderr)
	a.Log.SetLevel(logrus.WarnLevel)
	a.Log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	for _, w := range cfg.Warnings {
		a.Log.Warn(w)
	}

	// Collector always runs to gather stats; hooks control trace verbosity.
	a.Collector = observability.NewSessionCollector()
	a.Hooks = observability.NewCLIHooks(0, a.Collector, observability.NewTraceWriter(a.Log))

	store := auth.NewStore(cfg.DataDir, a.Log)
	a.Auth = auth.NewManager(cfg, store, api.WithHooks(a.Hooks), api.WithLogger(a.Log))
	a.Auth.SetLogger(a.Log)
	a.API = api.NewClient(cfg, a.Auth, api.WithHooks(a.Hooks), api.WithLogger(a.Log))
	a.Hub = data.NewHub(a.API, data.PoolConfig{FreshTTL: data.DefaultFreshTTL}, data.WithLogger(a.Log))
	a.Settings = settings.NewStore(cfg.DataDir, settings.WithLogger(a.Log))
	a.Shopping = shopping.New(cfg.DataDir)

	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		a.Log.WithError(err).Warn("ignoring configured format")
	}
	a.Output = a.newWriter(format)
	return a
}

func (a *App) newWriter(format output.Format) *output.Writer {
	return output.New(output.Options{
		Format:    format,
		Writer:    a.stdout,
		JQ:        a.Flags.JQ,
		ThemeMode: string(a.Settings.Read(context.Background()).ThemeMode),
	})
}

// Stdout returns the writer command output goes to.
func (a *App) Stdout() io.Writer { return a.stdout }

// Stderr returns the writer diagnostics go to.
func (a *App) Stderr() io.Writer { return a.stderr }

// ApplyFlags applies global flag values to the app.
func (a *App) ApplyFlags() error {
	if a.Flags.JQ != "" {
		if err := output.ValidateJQ(a.Flags.JQ); err != nil {
			return err
		}
	}

	format, _ := output.ParseFormat(a.Config.Format)
	switch {
	case a.Flags.IDsOnly:
		format = output.FormatIDs
	case a.Flags.Count:
		format = output.FormatCount
	case a.Flags.Quiet:
		format = output.FormatQuiet
	case a.Flags.JSON:
		format = output.FormatJSON
	case a.Flags.Styled:
		format = output.FormatStyled
	case a.Flags.MD:
		format = output.FormatMarkdown
	case a.Flags.Format != "":
		f, err := output.ParseFormat(a.Flags.Format)
		if err != nil {
			return err
		}
		format = f
	}
	a.Output = a.newWriter(format)

	// PLATES_DEBUG can be "1", "2", or "true" (treated as 2)
	level := a.Flags.Verbose
	if a.Config.Verbose != nil && *a.Config.Verbose > level {
		level = *a.Config.Verbose
	}
	if debugEnv := os.Getenv("PLATES_DEBUG"); debugEnv != "" {
		if n, err := strconv.Atoi(debugEnv); err == nil {
			level = max(level, n)
		} else if debugEnv == "true" {
			level = 2
		}
	}
	a.Hooks.SetLevel(level)
	switch {
	case level >= 2:
		a.Log.SetLevel(logrus.DebugLevel)
	case level == 1:
		a.Log.SetLevel(logrus.InfoLevel)
	}

	if a.Config.Stats != nil && *a.Config.Stats {
		a.Flags.Stats = true
	}
	return nil
}

// OK outputs a success response, including stats if --stats is set.
func (a *App) OK(data any, opts ...output.ResponseOption) error {
	if a.Flags.Stats && a.Collector != nil {
		opts = append(opts, output.WithMeta("stats", a.Collector.Summary()))
	}
	return a.Output.OK(data, opts...)
}

// Err outputs an error response, printing stats to stderr if --stats is set.
func (a *App) Err(err error) error {
	if outputErr := a.Output.Err(err); outputErr != nil {
		return outputErr
	}
	if a.Flags.Stats && a.Collector != nil && !a.isMachineOutput() {
		fmt.Fprintf(a.stderr, "\n%s\n", observability.FormatSummary(a.Collector.Summary()))
	}
	return nil
}

// isMachineOutput reports whether output is meant for programs.
func (a *App) isMachineOutput() bool {
	if a.Flags.Quiet || a.Flags.IDsOnly || a.Flags.Count {
		return true
	}
	return a.Config != nil && a.Config.Format == "quiet"
}

// IsInteractive reports whether prompts and the browser can be shown.
func (a *App) IsInteractive() bool {
	if a.Flags.JSON || a.Flags.Quiet || a.Flags.IDsOnly || a.Flags.Count || a.Flags.JQ != "" {
		return false
	}
	f, ok := a.stdout.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// WithApp stores the app in the context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the app from the context.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey).(*App)
	return app
}
