// Package auth signs users in to the Mzansi Plates API and supplies the
// bearer token for authenticated calls.
package auth

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/mzansiplatess/plates-cli/internal/api"
	"github.com/mzansiplatess/plates-cli/internal/config"
	"github.com/mzansiplatess/plates-cli/internal/models"
	"github.com/mzansiplatess/plates-cli/internal/output"
)

// TokenEnv overrides stored credentials when set.
const TokenEnv = "PLATES_TOKEN"

// expiryBuffer treats tokens this close to expiry as already expired.
const expiryBuffer = 30 * time.Second

// Manager handles sign-in state for the configured API origin.
type Manager struct {
	origin string
	store  *Store
	anon   *api.Client
	now    func() time.Time
	log    logrus.FieldLogger

	mu sync.Mutex
}

// NewManager creates a manager for cfg.BaseURL. Sign-in and registration
// go through an anonymous client built from cfg and opts.
func NewManager(cfg *config.Config, store *Store, opts ...api.Option) *Manager {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	return &Manager{
		origin: config.NormalizeBaseURL(cfg.BaseURL),
		store:  store,
		anon:   api.NewClient(cfg, nil, opts...),
		now:    time.Now,
		log:    quiet,
	}
}

// SetLogger sets the debug logger.
func (m *Manager) SetLogger(l logrus.FieldLogger) {
	if l != nil {
		m.log = l
	}
}

// Store returns the credential store.
func (m *Manager) Store() *Store { return m.store }

// AccessToken returns the token to send, or "" so the request goes out
// anonymously. A stored session that is expired or unreadable is skipped;
// public reads keep working and the server decides what needs sign-in.
func (m *Manager) AccessToken(_ context.Context) (string, error) {
	token, err := m.session()
	if err != nil {
		m.log.WithError(err).Debug("auth: sending request without credentials")
		return "", nil
	}
	return token, nil
}

// RequireToken returns the token for calls that cannot go out
// anonymously. An expired or unreadable session is reported.
func (m *Manager) RequireToken(_ context.Context) (string, error) {
	token, err := m.session()
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", output.ErrAuth("Not signed in")
	}
	return token, nil
}

// session returns the usable token, "" when signed out.
func (m *Manager) session() (string, error) {
	if token := os.Getenv(TokenEnv); token != "" {
		return token, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	creds, err := m.store.Load(m.origin)
	if errors.Is(err, ErrNoCredentials) {
		return "", nil
	}
	if err != nil {
		return "", output.ErrStorage("credentials", err)
	}
	if m.expired(creds.ExpiresAt) {
		return "", output.ErrAuth("Session expired")
	}
	return creds.AccessToken, nil
}

// IsAuthenticated reports whether a usable token is available.
func (m *Manager) IsAuthenticated() bool {
	token, err := m.AccessToken(context.Background())
	return err == nil && token != ""
}

func (m *Manager) expired(expiresAt int64) bool {
	return expiresAt != 0 && !m.now().Add(expiryBuffer).Before(time.Unix(expiresAt, 0))
}

// Login exchanges email and password for a session and stores it.
func (m *Manager) Login(ctx context.Context, email, password string) (*Credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, output.ErrUsage("Email and password required")
	}

	body, err := m.anon.Post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	creds, err := parseLogin(body)
	if err != nil {
		return nil, err
	}
	if creds.Email == "" {
		creds.Email = email
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(m.origin, creds); err != nil {
		return nil, output.ErrStorage("credentials", err)
	}
	return creds, nil
}

// parseLogin reads the token and user from a login response, enveloped or
// bare.
func parseLogin(body []byte) (*Credentials, error) {
	if !gjson.ValidBytes(body) {
		return nil, output.ErrMalformed(errors.New("login response is not valid JSON"))
	}
	root := gjson.ParseBytes(body)
	if d := root.Get("data"); d.IsObject() {
		root = d
	}

	token := ""
	for _, p := range []string{"token", "accessToken", "access_token"} {
		if v := root.Get(p); v.Type == gjson.String && v.String() != "" {
			token = v.String()
			break
		}
	}
	if token == "" {
		return nil, output.ErrMalformed(errors.New("login response has no token"))
	}

	creds := &Credentials{
		AccessToken: token,
		UserID:      root.Get("user._id").String(),
		Name:        root.Get("user.name").String(),
		Email:       root.Get("user.email").String(),
	}
	if claims, err := ParseClaims(token); err == nil {
		if claims.ExpiresAt != nil {
			creds.ExpiresAt = claims.ExpiresAt.Unix()
		}
		if creds.UserID == "" {
			creds.UserID = claims.Subject
		}
		if creds.Email == "" {
			creds.Email = claims.Email
		}
	}
	return creds, nil
}

// Register creates an account. It does not sign in.
func (m *Manager) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, output.ErrUsage("Name, email and password required")
	}
	return m.anon.CreateUser(ctx, models.User{Name: name, Email: email, Password: password})
}

// Logout removes stored credentials for the origin.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Delete(m.origin); err != nil {
		return output.ErrStorage("credentials", err)
	}
	return nil
}

// Claims are the JWT claims the API issues.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ParseClaims decodes a token's claims without verifying its signature;
// the CLI never holds the signing key.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Status describes the current sign-in state.
type Status struct {
	Authenticated bool      `json:"authenticated"`
	Origin        string    `json:"origin"`
	Source        string    `json:"source,omitempty"`
	UserID        string    `json:"user_id,omitempty"`
	Name          string    `json:"name,omitempty"`
	Email         string    `json:"email,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitzero"`
	Expired       bool      `json:"expired,omitempty"`
}

// Status reports who is signed in and until when.
func (m *Manager) Status() (Status, error) {
	st := Status{Origin: m.origin}

	if token := os.Getenv(TokenEnv); token != "" {
		st.Authenticated = true
		st.Source = TokenEnv
		if claims, err := ParseClaims(token); err == nil {
			st.UserID = claims.Subject
			st.Email = claims.Email
			if claims.ExpiresAt != nil {
				st.ExpiresAt = claims.ExpiresAt.Time
				st.Expired = m.expired(claims.ExpiresAt.Unix())
				st.Authenticated = !st.Expired
			}
		}
		return st, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	creds, err := m.store.Load(m.origin)
	if errors.Is(err, ErrNoCredentials) {
		return st, nil
	}
	if err != nil {
		return st, output.ErrStorage("credentials", err)
	}

	st.Source = m.store.Backend()
	st.UserID = creds.UserID
	st.Name = creds.Name
	st.Email = creds.Email
	if creds.ExpiresAt != 0 {
		st.ExpiresAt = time.Unix(creds.ExpiresAt, 0)
	}
	st.Expired = m.expired(creds.ExpiresAt)
	st.Authenticated = creds.AccessToken != "" && !st.Expired
	return st, nil
}

// UserID returns the signed-in user's ID, or "".
func (m *Manager) UserID() string {
	st, err := m.Status()
	if err != nil {
		return ""
	}
	return st.UserID
}
