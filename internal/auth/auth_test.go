package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzansiplatess/plates-cli/internal/config"
	"github.com/mzansiplatess/plates-cli/internal/output"
)

func signed(t *testing.T, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func newManager(t *testing.T, h http.HandlerFunc) (*Manager, *Store) {
	t.Helper()
	t.Setenv(TokenEnv, "")
	cfg := config.Default()
	cfg.BaseURL = "http://127.0.0.1:1"
	if h != nil {
		srv := httptest.NewServer(h)
		t.Cleanup(srv.Close)
		cfg.BaseURL = srv.URL
	}
	store := NewFileStore(t.TempDir())
	return NewManager(cfg, store), store
}

func TestStoreFileBackend(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	origin := "https://api.example.co.za"
	creds := &Credentials{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour).Unix(), UserID: "u1", Email: "thandi@example.co.za"}
	require.NoError(t, store.Save(origin, creds))

	info, err := os.Stat(filepath.Join(dir, credentialsFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := store.Load(origin)
	require.NoError(t, err)
	assert.Equal(t, creds, loaded)

	_, err = store.Load("https://other.example")
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestStoreMultipleOrigins(t *testing.T) {
	store := NewFileStore(t.TempDir())
	require.NoError(t, store.Save("https://a.example", &Credentials{AccessToken: "a"}))
	require.NoError(t, store.Save("https://b.example", &Credentials{AccessToken: "b"}))

	require.NoError(t, store.Delete("https://a.example"))
	_, err := store.Load("https://a.example")
	assert.ErrorIs(t, err, ErrNoCredentials)

	b, err := store.Load("https://b.example")
	require.NoError(t, err)
	assert.Equal(t, "b", b.AccessToken)
}

func TestStoreDeleteMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())
	assert.NoError(t, store.Delete("https://nothing.example"))
}

func TestNewStoreHonoursNoKeyring(t *testing.T) {
	t.Setenv("PLATES_NO_KEYRING", "1")
	store := NewStore(t.TempDir(), nil)
	assert.False(t, store.UsingKeyring())
	assert.Contains(t, store.Backend(), credentialsFileName)
}

func TestLoginStoresSession(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	var token string
	m, store := newManager(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "thandi@example.co.za", body["email"])
		assert.Equal(t, "secret", body["password"])

		token = signed(t, Claims{
			Email:            "thandi@example.co.za",
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u42", ExpiresAt: jwt.NewNumericDate(exp)},
		})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"token": token, "user": map[string]any{"_id": "u42", "name": "Thandi"}},
		})
	})

	creds, err := m.Login(context.Background(), " thandi@example.co.za ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u42", creds.UserID)
	assert.Equal(t, "Thandi", creds.Name)
	assert.Equal(t, exp.Unix(), creds.ExpiresAt)

	stored, err := store.Load(m.origin)
	require.NoError(t, err)
	assert.Equal(t, token, stored.AccessToken)

	got, err := m.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, token, got)
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, "u42", m.UserID())
}

func TestLoginBareResponseUsesClaims(t *testing.T) {
	m, _ := newManager(t, func(w http.ResponseWriter, r *http.Request) {
		tok := signed(t, Claims{Email: "sipho@example.co.za", RegisteredClaims: jwt.RegisteredClaims{Subject: "u7"}})
		_, _ = io.WriteString(w, `{"token":"`+tok+`"}`)
	})

	creds, err := m.Login(context.Background(), "sipho@example.co.za", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u7", creds.UserID)
	assert.Zero(t, creds.ExpiresAt)
}

func TestLoginFailures(t *testing.T) {
	m, _ := newManager(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"success":false,"error":"Invalid credentials"}`)
	})
	_, err := m.Login(context.Background(), "a@b.co", "wrong")
	e := output.AsError(err)
	assert.Equal(t, output.CodeAuth, e.Code)
	assert.Equal(t, "Invalid credentials", e.Message)

	_, err = m.Login(context.Background(), "", "pw")
	assert.Equal(t, output.CodeUsage, output.AsError(err).Code)
}

func TestLoginWithoutToken(t *testing.T) {
	m, _ := newManager(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":{}}`)
	})
	_, err := m.Login(context.Background(), "a@b.co", "pw")
	assert.Equal(t, "Malformed response", output.AsError(err).Message)
}

func TestAccessTokenSignedOut(t *testing.T) {
	m, _ := newManager(t, nil)
	token, err := m.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)

	_, err = m.RequireToken(context.Background())
	assert.Equal(t, output.CodeAuth, output.AsError(err).Code)
}

func TestAccessTokenExpired(t *testing.T) {
	m, store := newManager(t, nil)
	require.NoError(t, store.Save(m.origin, &Credentials{AccessToken: "old", ExpiresAt: time.Now().Add(-time.Minute).Unix()}))

	token, err := m.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token, "expired sessions go out anonymously")

	_, err = m.RequireToken(context.Background())
	e := output.AsError(err)
	assert.Equal(t, output.CodeAuth, e.Code)
	assert.Equal(t, "Session expired", e.Message)

	st, err := m.Status()
	require.NoError(t, err)
	assert.False(t, st.Authenticated)
	assert.True(t, st.Expired)
}

func TestTokenFromEnv(t *testing.T) {
	m, _ := newManager(t, nil)
	tok := signed(t, Claims{Email: "env@example.co.za", RegisteredClaims: jwt.RegisteredClaims{Subject: "u9"}})
	t.Setenv(TokenEnv, tok)

	got, err := m.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tok, got)

	st, err := m.Status()
	require.NoError(t, err)
	assert.True(t, st.Authenticated)
	assert.Equal(t, TokenEnv, st.Source)
	assert.Equal(t, "u9", st.UserID)
}

func TestLogout(t *testing.T) {
	m, store := newManager(t, nil)
	require.NoError(t, store.Save(m.origin, &Credentials{AccessToken: "tok"}))
	require.True(t, m.IsAuthenticated())

	require.NoError(t, m.Logout())
	assert.False(t, m.IsAuthenticated())
	st, err := m.Status()
	require.NoError(t, err)
	assert.False(t, st.Authenticated)
}

func TestRegister(t *testing.T) {
	m, _ := newManager(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pw", body["password"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success":true,"data":{"_id":"u1","name":"Lerato","email":"lerato@example.co.za"}}`)
	})

	user, err := m.Register(context.Background(), "Lerato", "lerato@example.co.za", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = m.Register(context.Background(), "", "x@y.z", "pw")
	assert.Equal(t, output.CodeUsage, output.AsError(err).Code)
}
