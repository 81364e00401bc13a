package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/mzansiplatess/plates-cli/internal/commands"
	"github.com/mzansiplatess/plates-cli/internal/fakeapi"
	"github.com/mzansiplatess/plates-cli/internal/output"
	"github.com/mzansiplatess/plates-cli/internal/version"
)

// setupEnv points the CLI at a sample API and isolates all local state.
func setupEnv(t *testing.T) *fakeapi.Server {
	t.Helper()
	fake := fakeapi.New()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	t.Setenv("PLATES_BASE_URL", srv.URL)
	t.Setenv("PLATES_DATA_DIR", t.TempDir())
	t.Setenv("PLATES_RATE_LIMIT", "0")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("PLATES_NO_KEYRING", "1")
	t.Setenv("PLATES_TOKEN", "")
	t.Setenv("PLATES_DEBUG", "")
	t.Setenv("PLATES_FORMAT", "")
	t.Setenv("PLATES_ENV_FILE", "")
	t.Chdir(t.TempDir())
	return fake
}

func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errb bytes.Buffer
	code = Run(context.Background(), args, &out, &errb)
	return code, out.String(), errb.String()
}

func TestRunListsRestaurants(t *testing.T) {
	setupEnv(t)

	code, out, _ := run(t, "restaurants", "list", "--json")
	require.Equal(t, 0, code, out)
	assert.True(t, gjson.Get(out, "ok").Bool())
	assert.Equal(t, int64(4), gjson.Get(out, "data.#").Int())
}

func TestRunServerErrorExitCode(t *testing.T) {
	fake := setupEnv(t)
	fake.SetFault("/recipes", 500, "server error")

	code, out, _ := run(t, "--json", "recipes")
	assert.Equal(t, output.ExitAPI, code)
	assert.False(t, gjson.Get(out, "ok").Bool())
	assert.Equal(t, "server error", gjson.Get(out, "error").String())
	assert.Equal(t, output.CodeAPI, gjson.Get(out, "code").String())
}

func TestRunNotFoundExitCode(t *testing.T) {
	setupEnv(t)

	code, out, _ := run(t, "--json", "events", "show", "braai-on-the-moon")
	assert.Equal(t, output.ExitNotFound, code)
	assert.Equal(t, output.CodeNotFound, gjson.Get(out, "code").String())
}

func TestRunNetworkErrorExitCode(t *testing.T) {
	setupEnv(t)
	t.Setenv("PLATES_BASE_URL", "http://127.0.0.1:1")

	code, out, _ := run(t, "--json", "restaurants")
	assert.Equal(t, output.ExitNetwork, code)
	assert.Equal(t, "Network error", gjson.Get(out, "error").String())
}

func TestRunIDsOnly(t *testing.T) {
	setupEnv(t)

	code, out, _ := run(t, "--ids-only", "restaurants")
	require.Equal(t, 0, code)
	assert.Equal(t, []string{"braai-spot", "kota-king", "shisa-nyama", "bo-kaap-kitchen"}, strings.Fields(out))
}

func TestRunCount(t *testing.T) {
	setupEnv(t)

	code, out, _ := run(t, "--count", "recipes", "--query", "tart")
	require.Equal(t, 0, code)
	assert.Equal(t, "1\n", out)
}

func TestRunJQ(t *testing.T) {
	setupEnv(t)

	code, out, _ := run(t, "--jq", ".data[0].name", "restaurants")
	require.Equal(t, 0, code)
	assert.Equal(t, "\"Braai Spot\"\n", out)

	code, out, _ = run(t, "--json", "--jq", ".data[", "restaurants")
	assert.Equal(t, output.ExitUsage, code)
	assert.Contains(t, gjson.Get(out, "error").String(), "invalid --jq filter")
}

func TestRunStatsMeta(t *testing.T) {
	setupEnv(t)

	code, out, _ := run(t, "--json", "--stats", "restaurants")
	require.Equal(t, 0, code)
	assert.Equal(t, int64(1), gjson.Get(out, "meta.stats.total_requests").Int())
}

func TestRunUnknownFlag(t *testing.T) {
	setupEnv(t)

	code, out, _ := run(t, "--json", "restaurants", "--nope")
	assert.Equal(t, output.ExitUsage, code)
	assert.Equal(t, "Unknown option: --nope", gjson.Get(out, "error").String())
}

func TestRunBadTimeout(t *testing.T) {
	setupEnv(t)

	code, out, _ := run(t, "--json", "--timeout", "forever", "restaurants")
	assert.Equal(t, output.ExitUsage, code)
	assert.Equal(t, "Invalid --timeout: forever", gjson.Get(out, "error").String())
}

func TestRunBadConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("PLATES_BASE_URL", "ftp://example.com")

	code, out, _ := run(t, "--json", "restaurants")
	assert.Equal(t, output.ExitUsage, code)
	assert.Contains(t, gjson.Get(out, "error").String(), "base_url must start with http")
}

func TestRunVersion(t *testing.T) {
	setupEnv(t)

	code, out, _ := run(t, "version")
	require.Equal(t, 0, code)
	assert.Equal(t, version.Full()+"\n", out)
}

func TestRunDataDirFlag(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()

	code, out, _ := run(t, "--json", "--data-dir", dir, "shopping", "add", "Mielies")
	require.Equal(t, 0, code, out)

	code, out, _ = run(t, "--json", "--data-dir", dir, "shopping")
	require.Equal(t, 0, code)
	assert.Equal(t, "Mielies", gjson.Get(out, "data.0.name").String())

	code, out, _ = run(t, "--json", "shopping")
	require.Equal(t, 0, code)
	assert.Equal(t, int64(0), gjson.Get(out, "data.#").Int(), "other data dirs are untouched")
}

func TestEveryCatalogCommandIsRegistered(t *testing.T) {
	root := New()
	registered := map[string]bool{}
	for _, c := range root.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range commands.CatalogCommandNames() {
		assert.True(t, registered[name], "catalog lists %q but it is not registered", name)
	}
}

func TestTransformCobraError(t *testing.T) {
	tests := []struct {
		in   string
		want string
		code int
	}{
		{"flag needs an argument: --city", "--city requires a value", output.ExitUsage},
		{"unknown flag: --nope", "Unknown option: --nope", output.ExitUsage},
		{"unknown shorthand flag: 'z' in -z", "Unknown option: -z", output.ExitUsage},
		{"accepts 1 arg(s), received 0", "ID required", output.ExitUsage},
		{"accepts 2 arg(s), received 1", "accepts 2 arg(s), received 1", output.ExitUsage},
		{`unknown command "cook" for "plates"`, `unknown command "cook" for "plates"`, output.ExitUsage},
		{`invalid argument "x" for "--qty" flag`, `invalid argument "x" for "--qty" flag`, output.ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := output.AsError(transformCobraError(errors.New(tt.in)))
			assert.Equal(t, tt.want, got.Message)
			assert.Equal(t, tt.code, got.ExitCode())
		})
	}

	plain := errors.New("something else")
	assert.Equal(t, plain, transformCobraError(plain))
}
