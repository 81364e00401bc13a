package appctx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzansiplatess/plates-cli/internal/config"
	"github.com/mzansiplatess/plates-cli/internal/output"
)

func newTestApp(t *testing.T, mutate ...func(*config.Config)) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv("PLATES_NO_KEYRING", "1")
	t.Setenv("PLATES_DEBUG", "")
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	for _, m := range mutate {
		m(cfg)
	}
	var stdout, stderr bytes.Buffer
	return NewApp(cfg, WithStreams(&stdout, &stderr)), &stdout, &stderr
}

func TestNewApp(t *testing.T) {
	app, _, _ := newTestApp(t)
	assert.NotNil(t, app.Auth)
	assert.NotNil(t, app.API)
	assert.NotNil(t, app.Hub)
	assert.NotNil(t, app.Settings)
	assert.NotNil(t, app.Shopping)
	assert.NotNil(t, app.Output)
	assert.NotNil(t, app.Collector)
	assert.Equal(t, app.Config.BaseURL, app.API.BaseURL())
}

func TestConfigWarningsLogged(t *testing.T) {
	_, _, stderr := newTestApp(t, func(c *config.Config) {
		c.Warnings = []string{"ignoring base_url from local config"}
	})
	assert.Contains(t, stderr.String(), "ignoring base_url from local config")
}

func TestWithAppAndFromContext(t *testing.T) {
	app, _, _ := newTestApp(t)
	assert.Same(t, app, FromContext(WithApp(context.Background(), app)))
	assert.Nil(t, FromContext(context.Background()))
}

func TestApplyFlagsFormats(t *testing.T) {
	tests := []struct {
		name  string
		flags GlobalFlags
		want  output.Format
	}{
		{"default auto", GlobalFlags{}, output.FormatJSON},
		{"json", GlobalFlags{JSON: true}, output.FormatJSON},
		{"quiet", GlobalFlags{Quiet: true}, output.FormatQuiet},
		{"ids", GlobalFlags{IDsOnly: true}, output.FormatIDs},
		{"count", GlobalFlags{Count: true}, output.FormatCount},
		{"styled", GlobalFlags{Styled: true}, output.FormatStyled},
		{"md", GlobalFlags{MD: true}, output.FormatMarkdown},
		{"format flag", GlobalFlags{Format: "markdown"}, output.FormatMarkdown},
		{"ids beats json", GlobalFlags{IDsOnly: true, JSON: true}, output.FormatIDs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, _ := newTestApp(t)
			app.Flags = tt.flags
			require.NoError(t, app.ApplyFlags())
			assert.Equal(t, tt.want, app.Output.EffectiveFormat())
		})
	}
}

func TestApplyFlagsRejectsBadFormat(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Flags.Format = "xml"
	err := app.ApplyFlags()
	assert.Equal(t, output.CodeUsage, output.AsError(err).Code)
}

func TestApplyFlagsRejectsBadJQ(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Flags.JQ = ".data["
	assert.Error(t, app.ApplyFlags())
}

func TestApplyFlagsVerbosity(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Flags.Verbose = 1
	require.NoError(t, app.ApplyFlags())
	assert.Equal(t, 1, app.Hooks.Level())
	assert.Equal(t, logrus.InfoLevel, app.Log.GetLevel())

	t.Setenv("PLATES_DEBUG", "true")
	require.NoError(t, app.ApplyFlags())
	assert.Equal(t, 2, app.Hooks.Level())
	assert.Equal(t, logrus.DebugLevel, app.Log.GetLevel())
}

func TestConfigVerboseAndStats(t *testing.T) {
	two, yes := 2, true
	app, _, _ := newTestApp(t, func(c *config.Config) {
		c.Verbose = &two
		c.Stats = &yes
	})
	require.NoError(t, app.ApplyFlags())
	assert.Equal(t, 2, app.Hooks.Level())
	assert.True(t, app.Flags.Stats)
}

func TestOKIncludesStats(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	app.Flags.Stats = true
	require.NoError(t, app.ApplyFlags())

	require.NoError(t, app.OK([]string{"a"}))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	meta, ok := resp["meta"].(map[string]any)
	require.True(t, ok, "meta missing: %s", stdout.String())
	assert.Contains(t, meta, "stats")
}

func TestErrPrintsStatsToStderr(t *testing.T) {
	app, stdout, stderr := newTestApp(t)
	app.Flags.Stats = true
	require.NoError(t, app.ApplyFlags())

	require.NoError(t, app.Err(output.ErrUsage("bad")))
	assert.Contains(t, stdout.String(), `"error": "bad"`)
	assert.Contains(t, stderr.String(), "Stats: 0 requests")
}

func TestErrNoStatsInQuietMode(t *testing.T) {
	app, _, stderr := newTestApp(t)
	app.Flags.Stats = true
	app.Flags.Quiet = true
	require.NoError(t, app.ApplyFlags())

	require.NoError(t, app.Err(output.ErrUsage("bad")))
	assert.NotContains(t, stderr.String(), "Stats:")
}

func TestIsInteractiveWithBuffers(t *testing.T) {
	app, _, _ := newTestApp(t)
	assert.False(t, app.IsInteractive())
}
