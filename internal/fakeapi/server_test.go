package fakeapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzansiplatess/plates-cli/internal/api"
	"github.com/mzansiplatess/plates-cli/internal/auth"
	"github.com/mzansiplatess/plates-cli/internal/config"
	"github.com/mzansiplatess/plates-cli/internal/fakeapi"
	"github.com/mzansiplatess/plates-cli/internal/models"
	"github.com/mzansiplatess/plates-cli/internal/output"
)

type harness struct {
	fake   *fakeapi.Server
	cfg    *config.Config
	client *api.Client
	auth   *auth.Manager
}

func setup(t *testing.T, opts ...fakeapi.Option) *harness {
	t.Helper()
	t.Setenv(auth.TokenEnv, "")
	fake := fakeapi.New(opts...)
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.BaseURL = srv.URL
	cfg.RateLimit = 0
	mgr := auth.NewManager(cfg, auth.NewFileStore(t.TempDir()))
	return &harness{fake: fake, cfg: cfg, client: api.NewClient(cfg, mgr), auth: mgr}
}

func TestCatalogue(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	restaurants, err := h.client.Restaurants(ctx, models.SearchParams{})
	require.NoError(t, err)
	assert.Len(t, restaurants, 4)

	jhb, err := h.client.Restaurants(ctx, models.SearchParams{City: "johannesburg", SortBy: "rating"})
	require.NoError(t, err)
	require.Len(t, jhb, 2)
	assert.Equal(t, "Kota King", jhb[0].Name)

	recipes, err := h.client.Recipes(ctx, models.SearchParams{Query: "tart"})
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "milk-tart", recipes[0].ID)

	page, err := h.client.Events(ctx, models.SearchParams{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	cheap, err := h.client.Events(ctx, models.SearchParams{MaxPrice: 150})
	require.NoError(t, err)
	assert.Len(t, cheap, 2)

	recipe, err := h.client.Recipe(ctx, "bobotie")
	require.NoError(t, err)
	assert.Equal(t, "1h 20m", recipe.FormattedTime())

	_, err = h.client.Event(ctx, "nope")
	assert.Equal(t, output.CodeNotFound, output.AsError(err).Code)
}

func TestFavouritesRequireAuth(t *testing.T) {
	h := setup(t)
	_, err := h.client.Favourites(context.Background(), "")
	e := output.AsError(err)
	assert.Equal(t, output.CodeAuth, e.Code)
	assert.Equal(t, "Authentication required", e.Message)
}

func TestLoginAndFavourites(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	creds, err := h.auth.Login(ctx, fakeapi.DemoEmail, fakeapi.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, "demo-user", creds.UserID)
	assert.NotZero(t, creds.ExpiresAt)

	fav, err := h.client.AddFavourite(ctx, models.FavouriteRecipe, "bobotie")
	require.NoError(t, err)
	assert.Equal(t, "demo-user", fav.UserID)

	again, err := h.client.AddFavourite(ctx, models.FavouriteRecipe, "bobotie")
	require.NoError(t, err)
	assert.Equal(t, fav.ID, again.ID)

	_, err = h.client.AddFavourite(ctx, models.FavouriteEvent, "bobotie")
	assert.Equal(t, output.CodeNotFound, output.AsError(err).Code)

	recipes, err := h.client.Favourites(ctx, models.FavouriteRecipe)
	require.NoError(t, err)
	assert.Len(t, recipes, 1)

	events, err := h.client.Favourites(ctx, models.FavouriteEvent)
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, h.client.RemoveFavourite(ctx, fav.ID))
	err = h.client.RemoveFavourite(ctx, fav.ID)
	assert.Equal(t, output.CodeNotFound, output.AsError(err).Code)
}

func TestExpiredSessionStillBrowses(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	require.NoError(t, h.auth.Store().Save(h.cfg.BaseURL, &auth.Credentials{
		AccessToken: "stale",
		ExpiresAt:   time.Now().Add(-time.Hour).Unix(),
	}))

	restaurants, err := h.client.Restaurants(ctx, models.SearchParams{})
	require.NoError(t, err)
	assert.Len(t, restaurants, 4)

	_, err = h.client.Favourites(ctx, "")
	assert.Equal(t, output.CodeAuth, output.AsError(err).Code)

	_, err = h.auth.RequireToken(ctx)
	assert.Equal(t, "Session expired", output.AsError(err).Message)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h := setup(t)
	_, err := h.auth.Login(context.Background(), fakeapi.DemoEmail, "wrong")
	e := output.AsError(err)
	assert.Equal(t, output.CodeAuth, e.Code)
	assert.Equal(t, "Invalid email or password", e.Message)
}

func TestRegisterThenLogin(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	user, err := h.auth.Register(ctx, "Lerato", "lerato@example.co.za", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Empty(t, user.Password)
	require.NotNil(t, user.Preferences)

	_, err = h.auth.Register(ctx, "Lerato", "LERATO@example.co.za", "secret1")
	e := output.AsError(err)
	assert.Equal(t, output.CodeUsage, e.Code)
	assert.Equal(t, "Email already registered", e.Message)
	assert.Equal(t, http.StatusConflict, e.HTTPStatus)

	_, err = h.auth.Register(ctx, "Short", "short@example.co.za", "123")
	assert.Equal(t, "Password must be at least 6 characters", output.AsError(err).Message)

	creds, err := h.auth.Login(ctx, "lerato@example.co.za", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, creds.UserID)
}

func TestExpiredTokenRejected(t *testing.T) {
	past := fakeapi.New(fakeapi.WithClock(func() time.Time { return time.Now().Add(-48 * time.Hour) }))
	token, err := past.IssueToken(models.User{ID: "demo-user"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/favourites", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	fakeapi.New().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token expired")
}

func TestFaultInjection(t *testing.T) {
	h := setup(t)
	h.fake.SetFault("/restaurants", http.StatusInternalServerError, "server error")

	_, err := h.client.Restaurants(context.Background(), models.SearchParams{})
	e := output.AsError(err)
	assert.Equal(t, "server error", e.Message)
	assert.Equal(t, http.StatusInternalServerError, e.HTTPStatus)

	_, err = h.client.Recipes(context.Background(), models.SearchParams{})
	require.NoError(t, err)

	h.fake.ClearFaults()
	_, err = h.client.Restaurants(context.Background(), models.SearchParams{})
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	fakeapi.New().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, extractData(t, rec.Body.Bytes()))
}

func extractData(t *testing.T, body []byte) string {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &env))
	return string(env.Data)
}
