package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/zalando/go-keyring"

	"github.com/mzansiplatess/plates-cli/internal/statefile"
)

const (
	serviceName         = "plates"
	credentialsFileName = "credentials.json"
)

// ErrNoCredentials is returned by Store.Load when nothing is stored for an
// origin.
var ErrNoCredentials = errors.New("no stored credentials")

// Credentials is a signed-in session for one API origin.
type Credentials struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Store keeps credentials in the system keyring, falling back to a 0600
// JSON file when no keyring is available or PLATES_NO_KEYRING is set.
type Store struct {
	useKeyring bool
	file       *statefile.File
}

// NewStore creates a credential store whose fallback file lives in
// fallbackDir.
func NewStore(fallbackDir string, log logrus.FieldLogger) *Store {
	s := &Store{file: statefile.New(filepath.Join(fallbackDir, credentialsFileName), statefile.JSON)}
	if os.Getenv("PLATES_NO_KEYRING") != "" {
		return s
	}

	testKey := "plates::test"
	if err := keyring.Set(serviceName, testKey, "test"); err == nil {
		_ = keyring.Delete(serviceName, testKey)
		s.useKeyring = true
		return s
	}
	if log != nil {
		log.WithField("path", s.file.Path()).Warn("system keyring unavailable, credentials stored in plaintext")
	}
	return s
}

// NewFileStore creates a store that never touches the keyring.
func NewFileStore(dir string) *Store {
	return &Store{file: statefile.New(filepath.Join(dir, credentialsFileName), statefile.JSON)}
}

func key(origin string) string {
	return "plates::" + origin
}

// UsingKeyring reports whether credentials go to the system keyring.
func (s *Store) UsingKeyring() bool { return s.useKeyring }

// Backend names where credentials are kept, for status output.
func (s *Store) Backend() string {
	if s.useKeyring {
		return "keyring"
	}
	return s.file.Path()
}

// Load returns the credentials for origin, or ErrNoCredentials.
func (s *Store) Load(origin string) (*Credentials, error) {
	if s.useKeyring {
		data, err := keyring.Get(serviceName, key(origin))
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoCredentials
		}
		if err != nil {
			return nil, fmt.Errorf("reading keyring: %w", err)
		}
		var creds Credentials
		if err := json.Unmarshal([]byte(data), &creds); err != nil {
			return nil, fmt.Errorf("invalid credentials: %w", err)
		}
		return &creds, nil
	}

	all, _, err := statefile.Load(s.file, emptyFile)
	if err != nil {
		return nil, err
	}
	creds, ok := all[origin]
	if !ok || creds == nil {
		return nil, ErrNoCredentials
	}
	return creds, nil
}

// Save stores creds for origin.
func (s *Store) Save(origin string, creds *Credentials) error {
	if s.useKeyring {
		data, err := json.Marshal(creds)
		if err != nil {
			return err
		}
		return keyring.Set(serviceName, key(origin), string(data))
	}
	_, err := statefile.Update(s.file, emptyFile, func(all *map[string]*Credentials) error {
		if *all == nil {
			*all = emptyFile()
		}
		(*all)[origin] = creds
		return nil
	})
	return err
}

// Delete removes the credentials for origin. Deleting nothing succeeds.
func (s *Store) Delete(origin string) error {
	if s.useKeyring {
		if err := keyring.Delete(serviceName, key(origin)); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return err
		}
		return nil
	}
	if !s.file.Exists() {
		return nil
	}
	_, err := statefile.Update(s.file, emptyFile, func(all *map[string]*Credentials) error {
		delete(*all, origin)
		return nil
	})
	return err
}

func emptyFile() map[string]*Credentials { return map[string]*Credentials{} }
