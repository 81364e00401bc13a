package commands

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/mzansiplatess/plates-cli/internal/appctx"
	"github.com/mzansiplatess/plates-cli/internal/auth"
	"github.com/mzansiplatess/plates-cli/internal/completion"
	"github.com/mzansiplatess/plates-cli/internal/config"
	"github.com/mzansiplatess/plates-cli/internal/fakeapi"
	"github.com/mzansiplatess/plates-cli/internal/output"
	"github.com/mzansiplatess/plates-cli/internal/settings"
	"github.com/mzansiplatess/plates-cli/internal/version"
)

// testEnv is an app wired to an in-process sample API, writing JSON.
type testEnv struct {
	app  *appctx.App
	fake *fakeapi.Server
	out  *bytes.Buffer
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	// Keep tests away from the system keyring and the caller's session.
	t.Setenv("PLATES_NO_KEYRING", "1")
	t.Setenv(auth.TokenEnv, "")
	t.Setenv("PLATES_DEBUG", "")

	fake := fakeapi.New()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.BaseURL = srv.URL
	cfg.DataDir = t.TempDir()
	cfg.RateLimit = 0

	out := &bytes.Buffer{}
	app := appctx.NewApp(cfg, appctx.WithStreams(out, &bytes.Buffer{}))
	app.Flags.JSON = true
	require.NoError(t, app.ApplyFlags())

	return &testEnv{app: app, fake: fake, out: out}
}

// run executes a fresh command tree and returns the JSON envelope it wrote.
func (e *testEnv) run(t *testing.T, cmd *cobra.Command, args ...string) (gjson.Result, error) {
	t.Helper()
	e.out.Reset()

	cmd.SetArgs(args)
	cmd.SetContext(appctx.WithApp(context.Background(), e.app))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	return gjson.ParseBytes(e.out.Bytes()), err
}

func (e *testEnv) mustRun(t *testing.T, cmd *cobra.Command, args ...string) gjson.Result {
	t.Helper()
	res, err := e.run(t, cmd, args...)
	require.NoError(t, err)
	require.True(t, res.Get("ok").Bool(), e.out.String())
	return res
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	e.mustRun(t, NewAuthCmd(), "login", "--email", fakeapi.DemoEmail, "--password", fakeapi.DemoPassword)
}

func requireExitCode(t *testing.T, err error, code int) *output.Error {
	t.Helper()
	require.Error(t, err)
	e := output.AsError(err)
	assert.Equal(t, code, e.ExitCode(), "error: %v", err)
	return e
}

func TestRestaurantsList(t *testing.T) {
	env := setupTestApp(t)

	res := env.mustRun(t, NewRestaurantsCmd(), "list")
	assert.Equal(t, int64(4), res.Get("data.#").Int())
	assert.Equal(t, "4 restaurants", res.Get("summary").String())
	assert.Equal(t, "braai-spot", res.Get("data.0._id").String())
}

func TestRestaurantsGroupRunsList(t *testing.T) {
	env := setupTestApp(t)

	res := env.mustRun(t, NewRestaurantsCmd(), "--city", "Durban")
	require.Equal(t, int64(1), res.Get("data.#").Int())
	assert.Equal(t, "Shisa Nyama", res.Get("data.0.name").String())
	assert.Equal(t, "1 restaurant", res.Get("summary").String())
}

func TestRestaurantsListServerError(t *testing.T) {
	env := setupTestApp(t)
	env.fake.SetFault("/restaurants", 500, "server error")

	_, err := env.run(t, NewRestaurantsCmd(), "list")
	e := requireExitCode(t, err, output.ExitAPI)
	assert.Equal(t, "server error", e.Message)
}

func TestRestaurantsListBadFilter(t *testing.T) {
	env := setupTestApp(t)

	_, err := env.run(t, NewRestaurantsCmd(), "list", "--min-rating", "7")
	requireExitCode(t, err, output.ExitUsage)
}

func TestRestaurantShowNotFound(t *testing.T) {
	env := setupTestApp(t)

	_, err := env.run(t, NewRestaurantsCmd(), "show", "nowhere")
	requireExitCode(t, err, output.ExitNotFound)
}

func TestRecipesListAndShow(t *testing.T) {
	env := setupTestApp(t)

	res := env.mustRun(t, NewRecipesCmd(), "list", "--query", "bobotie")
	require.Equal(t, int64(1), res.Get("data.#").Int())
	assert.Equal(t, "1h 20m", res.Get("data.0.time").String())

	res = env.mustRun(t, NewRecipesCmd(), "show", "bobotie")
	assert.Equal(t, "Bobotie · 1h 20m", res.Get("summary").String())
	assert.Equal(t, int64(8), res.Get("data.ingredients.#").Int())
	assert.Equal(t, "plates shopping add --recipe bobotie", res.Get("breadcrumbs.0.cmd").String())
}

func TestEventsShowsAvailability(t *testing.T) {
	env := setupTestApp(t)

	res := env.mustRun(t, NewEventsCmd(), "list")
	require.Equal(t, int64(4), res.Get("data.#").Int())

	full := res.Get(`data.#(_id=="braai-masterclass")`)
	assert.True(t, full.Get("fully_booked").Bool())
	assert.Equal(t, int64(0), full.Get("spots_left").Int())

	uncapped := res.Get(`data.#(_id=="wine-and-cheese")`)
	assert.False(t, uncapped.Get("spots_left").Exists())

	res = env.mustRun(t, NewEventsCmd(), "show", "braai-masterclass")
	assert.Contains(t, res.Get("summary").String(), "Fully booked")
}

func TestEventsWhenFilter(t *testing.T) {
	env := setupTestApp(t)

	res := env.mustRun(t, NewEventsCmd(), "list", "--when", "2026-12-15..2026-12-20")
	assert.Equal(t, int64(3), res.Get("data.#").Int())
	assert.Equal(t, "3 events (2026-12-15 to 2026-12-20)", res.Get("summary").String())

	res = env.mustRun(t, NewEventsCmd(), "--when", "2026-12-28")
	assert.Equal(t, "craft-beer-festival", res.Get("data.0._id").String())

	_, err := env.run(t, NewEventsCmd(), "list", "--when", "someday")
	requireExitCode(t, err, output.ExitUsage)
}

func TestFavouritesRequireSignIn(t *testing.T) {
	env := setupTestApp(t)

	_, err := env.run(t, NewFavouritesCmd(), "list")
	requireExitCode(t, err, output.ExitAuth)

	_, err = env.run(t, NewFavouritesCmd(), "add", "recipe", "bobotie")
	requireExitCode(t, err, output.ExitAuth)
}

func TestFavouritesLifecycle(t *testing.T) {
	env := setupTestApp(t)
	env.login(t)

	res := env.mustRun(t, NewFavouritesCmd(), "list")
	assert.Equal(t, "No favourites yet", res.Get("summary").String())

	res = env.mustRun(t, NewFavouritesCmd(), "add", "recipe", "bobotie")
	favID := res.Get("data._id").String()
	require.NotEmpty(t, favID)
	assert.Equal(t, "RECIPE", res.Get("data.itemType").String())

	env.mustRun(t, NewFavouritesCmd(), "add", "restaurant", "kota-king")

	res = env.mustRun(t, NewFavouritesCmd(), "list")
	assert.Equal(t, int64(2), res.Get("data.#").Int())

	res = env.mustRun(t, NewFavouritesCmd(), "list", "--type", "recipes")
	assert.Equal(t, int64(1), res.Get("data.#").Int())

	env.mustRun(t, NewFavouritesCmd(), "remove", favID)
	res = env.mustRun(t, NewFavouritesCmd(), "list", "--type", "recipe")
	assert.Equal(t, int64(0), res.Get("data.#").Int())
}

func TestFavouritesBadType(t *testing.T) {
	env := setupTestApp(t)
	env.login(t)

	_, err := env.run(t, NewFavouritesCmd(), "add", "market", "x")
	requireExitCode(t, err, output.ExitUsage)
}

func TestAuthLoginStatusLogout(t *testing.T) {
	env := setupTestApp(t)

	res := env.mustRun(t, NewAuthCmd(), "status")
	assert.False(t, res.Get("data.authenticated").Bool())
	assert.Equal(t, "Not signed in", res.Get("summary").String())

	res = env.mustRun(t, NewAuthCmd(), "login", "--email", fakeapi.DemoEmail, "--password", fakeapi.DemoPassword)
	assert.Equal(t, "Signed in as Demo Cook", res.Get("summary").String())
	assert.Equal(t, "demo-user", res.Get("data.user_id").String())

	res = env.mustRun(t, NewAuthCmd(), "status")
	assert.True(t, res.Get("data.authenticated").Bool())

	env.mustRun(t, NewAuthCmd(), "logout")
	res = env.mustRun(t, NewAuthCmd(), "status")
	assert.False(t, res.Get("data.authenticated").Bool())
}

func TestAuthLoginFailures(t *testing.T) {
	env := setupTestApp(t)

	_, err := env.run(t, NewAuthCmd(), "login", "--email", fakeapi.DemoEmail)
	requireExitCode(t, err, output.ExitUsage)

	_, err = env.run(t, NewAuthCmd(), "login", "--email", "not-an-email", "--password", "x")
	requireExitCode(t, err, output.ExitUsage)

	_, err = env.run(t, NewAuthCmd(), "login", "--email", fakeapi.DemoEmail, "--password", "wrong")
	requireExitCode(t, err, output.ExitAuth)
}

func TestAuthRegister(t *testing.T) {
	env := setupTestApp(t)

	res := env.mustRun(t, NewAuthCmd(), "register", "--name", "Thandi", "--email", "thandi@example.co.za", "--password", "pap-en-vleis")
	assert.Equal(t, "Created account for thandi@example.co.za and signed in", res.Get("summary").String())

	res = env.mustRun(t, NewAuthCmd(), "status")
	assert.True(t, res.Get("data.authenticated").Bool())
	assert.Equal(t, "thandi@example.co.za", res.Get("data.email").String())
}

func TestShoppingFlow(t *testing.T) {
	env := setupTestApp(t)

	res := env.mustRun(t, NewShoppingCmd())
	assert.Equal(t, "Your shopping list is empty", res.Get("summary").String())

	res = env.mustRun(t, NewShoppingCmd(), "add", "Boerewors", "--qty", "1.5", "--unit", "kg")
	assert.Equal(t, "Added 1.5 kg Boerewors", res.Get("summary").String())

	res = env.mustRun(t, NewShoppingCmd(), "add", "Rolls")
	assert.Equal(t, "Added 1 piece Rolls", res.Get("summary").String())

	res = env.mustRun(t, NewShoppingCmd(), "add", "--recipe", "chakalaka")
	assert.Equal(t, "Added the ingredients for Chakalaka", res.Get("summary").String())
	assert.Equal(t, int64(7), res.Get("data.#").Int())

	res = env.mustRun(t, NewShoppingCmd(), "done", "2")
	assert.True(t, res.Get("data.completed").Bool())
	assert.Equal(t, int64(2), res.Get("data.id").Int())

	res = env.mustRun(t, NewShoppingCmd(), "list")
	assert.Equal(t, "1 of 7 items completed", res.Get("summary").String())

	res = env.mustRun(t, NewShoppingCmd(), "clear")
	assert.Equal(t, int64(1), res.Get("data.removed").Int())

	res = env.mustRun(t, NewShoppingCmd(), "rm", "1")
	assert.Equal(t, "Boerewors", res.Get("data.name").String())

	res = env.mustRun(t, NewShoppingCmd(), "list")
	assert.Equal(t, int64(5), res.Get("data.#").Int())
	assert.Equal(t, "1 onion", res.Get("data.0.name").String())
}

func TestShoppingErrors(t *testing.T) {
	env := setupTestApp(t)

	_, err := env.run(t, NewShoppingCmd(), "add")
	requireExitCode(t, err, output.ExitUsage)

	_, err = env.run(t, NewShoppingCmd(), "add", "Milk", "--recipe", "milk-tart")
	requireExitCode(t, err, output.ExitUsage)

	_, err = env.run(t, NewShoppingCmd(), "done", "zero")
	requireExitCode(t, err, output.ExitUsage)

	_, err = env.run(t, NewShoppingCmd(), "rm", "3")
	e := requireExitCode(t, err, output.ExitUsage)
	assert.Equal(t, "Shopping list is empty", e.Message)

	_, err = env.run(t, NewShoppingCmd(), "add", "--recipe", "mystery")
	requireExitCode(t, err, output.ExitNotFound)
}

func TestSettingsCommands(t *testing.T) {
	env := setupTestApp(t)

	res := env.mustRun(t, NewSettingsCmd())
	assert.Equal(t, "system", res.Get("data.theme_mode").String())
	assert.Equal(t, "en", res.Get("data.language").String())

	res = env.mustRun(t, NewSettingsCmd(), "set", "theme_mode", "dark")
	assert.Equal(t, "dark", res.Get("data.theme_mode").String())

	env.mustRun(t, NewSettingsCmd(), "set", "language", "zu")
	env.mustRun(t, NewSettingsCmd(), "set", "promotions", "true")

	res = env.mustRun(t, NewSettingsCmd(), "show")
	assert.Equal(t, "dark", res.Get("data.theme_mode").String())
	assert.Equal(t, "zu", res.Get("data.language").String())
	assert.True(t, res.Get("data.promotions").Bool())

	_, err := env.run(t, NewSettingsCmd(), "set", "language", "fr")
	requireExitCode(t, err, output.ExitUsage)

	_, err = env.run(t, NewSettingsCmd(), "set", "theme_mode")
	requireExitCode(t, err, output.ExitUsage)

	res = env.mustRun(t, NewSettingsCmd(), "reset", "--yes")
	assert.Equal(t, "system", res.Get("data.theme_mode").String())
	assert.Equal(t, settings.Defaults(), env.app.Settings.Read(context.Background()))
}

func TestWatchSettingsStopsOnEmitError(t *testing.T) {
	store := settings.NewStore(t.TempDir())
	boom := errors.New("stdout closed")

	var seen []settings.Settings
	err := watchSettings(context.Background(), store, func(s settings.Settings) error {
		seen = append(seen, s)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.Len(t, seen, 1)
	assert.Equal(t, settings.Defaults(), seen[0])
}

func TestWatchSettingsCanceled(t *testing.T) {
	store := settings.NewStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())

	err := watchSettings(ctx, store, func(settings.Settings) error {
		cancel()
		return nil
	})
	assert.NoError(t, err)
}

func TestConfigSetShowUnset(t *testing.T) {
	env := setupTestApp(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	res := env.mustRun(t, NewConfigCmd(), "show")
	assert.Equal(t, "default", res.Get("data.timeout.source").String())
	assert.Equal(t, env.app.Config.BaseURL, res.Get("data.base_url.value").String())

	res = env.mustRun(t, NewConfigCmd(), "set", "retries", "2")
	path := res.Get("data.path").String()
	assert.Equal(t, config.GlobalConfigPath(), path)
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), gjson.GetBytes(body, "retries").Int())

	env.mustRun(t, NewConfigCmd(), "unset", "retries")
	body, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(body, "retries").Exists())

	_, err = env.run(t, NewConfigCmd(), "set", "account_id", "1")
	requireExitCode(t, err, output.ExitUsage)

	_, err = env.run(t, NewConfigCmd(), "set", "timeout", "soon")
	requireExitCode(t, err, output.ExitUsage)
	assert.Equal(t, filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "plates", "config.json"), path)
}

func TestVersionWithoutApp(t *testing.T) {
	cmd := NewVersionCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())
	assert.Equal(t, version.Full()+"\n", out.String())
}

func TestBrowseNeedsTerminal(t *testing.T) {
	env := setupTestApp(t)

	_, err := env.run(t, NewBrowseCmd())
	requireExitCode(t, err, output.ExitUsage)
}

func TestCommandsCatalog(t *testing.T) {
	env := setupTestApp(t)

	res := env.mustRun(t, NewCommandsCmd())
	assert.True(t, res.Get("data.#").Int() > 0)

	var registered []string
	for _, c := range All() {
		registered = append(registered, c.Name())
	}
	catalog := CatalogCommandNames()
	sort.Strings(registered)
	sort.Strings(catalog)
	assert.Equal(t, catalog, registered)
}

func TestCompletionCacheFillsFromListings(t *testing.T) {
	env := setupTestApp(t)
	store := completion.NewStore(env.app.Config.DataDir)

	env.mustRun(t, NewRestaurantsCmd(), "list")
	env.mustRun(t, NewRecipesCmd(), "list", "--query", "tart")
	assert.Len(t, store.Entries(completion.KindRestaurants), 4)
	assert.Equal(t, []completion.Entry{{ID: "milk-tart", Name: "Milk Tart"}}, store.Entries(completion.KindRecipes))

	res := env.mustRun(t, NewCompletionCmd(), "status")
	assert.Equal(t, "stale", res.Get("data.status").String(), "listings fill the cache without marking it refreshed")
	assert.Equal(t, int64(4), res.Get("data.kinds.restaurants.count").Int())

	res = env.mustRun(t, NewCompletionCmd(), "refresh")
	assert.Equal(t, "Cached 4 restaurants, 4 recipes and 4 events", res.Get("summary").String())
	assert.Len(t, store.Entries(completion.KindRecipes), 4)

	res = env.mustRun(t, NewCompletionCmd(), "status")
	assert.Equal(t, "fresh", res.Get("data.status").String())
}

func TestCompletionRefreshFailure(t *testing.T) {
	env := setupTestApp(t)
	env.fake.SetFault("/", 500, "server error")

	_, err := env.run(t, NewCompletionCmd(), "refresh")
	requireExitCode(t, err, output.ExitAPI)
}

func TestCompletionScript(t *testing.T) {
	cmd := NewCompletionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"zsh"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "__complete")

	cmd = NewCompletionCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"tcsh"})
	assert.Error(t, cmd.Execute())
}
