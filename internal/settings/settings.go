// Package settings is the durable store for app preferences: notification
// toggles, theme mode and display language.
package settings

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/mzansiplatess/plates-cli/internal/output"
	"github.com/mzansiplatess/plates-cli/internal/statefile"
)

// FileName is the settings document inside the data directory.
const FileName = "settings.yaml"

// ThemeMode selects the light or dark palette.
type ThemeMode string

const (
	ThemeSystem ThemeMode = "system"
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
)

// ParseThemeMode accepts system, light or dark in any case.
func ParseThemeMode(s string) (ThemeMode, error) {
	switch m := ThemeMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ThemeSystem, ThemeLight, ThemeDark:
		return m, nil
	}
	return "", fmt.Errorf("unknown theme mode %q (want system, light or dark)", s)
}

// DefaultLanguage is used when no language is stored or the stored one is
// not supported.
const DefaultLanguage = "en"

// SupportedLanguages are the display languages: English, isiZulu, Setswana.
var SupportedLanguages = []string{"en", "zu", "tn"}

// Settings is the full set of app preferences.
type Settings struct {
	PushNotifications bool      `yaml:"push_notifications" json:"push_notifications"`
	Promotions        bool      `yaml:"promotions" json:"promotions"`
	AppUpdates        bool      `yaml:"app_updates" json:"app_updates"`
	ThemeMode         ThemeMode `yaml:"theme_mode" json:"theme_mode"`
	LanguageCode      string    `yaml:"language" json:"language"`
}

// Defaults returns the settings of a fresh install.
func Defaults() Settings {
	return Settings{
		PushNotifications: true,
		Promotions:        false,
		AppUpdates:        true,
		ThemeMode:         ThemeSystem,
		LanguageCode:      DefaultLanguage,
	}
}

// normalize repairs values a hand-edited file may carry.
func (s Settings) normalize() Settings {
	if m, err := ParseThemeMode(string(s.ThemeMode)); err == nil {
		s.ThemeMode = m
	} else {
		s.ThemeMode = ThemeSystem
	}
	code, err := CanonicalLanguage(s.LanguageCode)
	if err != nil || !slices.Contains(SupportedLanguages, code) {
		code = DefaultLanguage
	}
	s.LanguageCode = code
	return s
}

// CanonicalLanguage reduces a BCP 47 tag such as "zu-ZA" or "EN" to its
// base language code.
func CanonicalLanguage(code string) (string, error) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", code, err)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// Update is a partial change. Nil fields are left as they are.
type Update struct {
	PushNotifications *bool
	Promotions        *bool
	AppUpdates        *bool
	ThemeMode         *ThemeMode
	LanguageCode      *string
}

func (u Update) apply(s *Settings) {
	if u.PushNotifications != nil {
		s.PushNotifications = *u.PushNotifications
	}
	if u.Promotions != nil {
		s.Promotions = *u.Promotions
	}
	if u.AppUpdates != nil {
		s.AppUpdates = *u.AppUpdates
	}
	if u.ThemeMode != nil {
		s.ThemeMode = *u.ThemeMode
	}
	if u.LanguageCode != nil {
		s.LanguageCode = *u.LanguageCode
	}
}

// Keys lists the settable keys with a short description.
var Keys = map[string]string{
	"push_notifications": "Push notifications (true/false)",
	"promotions":         "Promotional messages (true/false)",
	"app_updates":        "App update notices (true/false)",
	"theme_mode":         "Theme: system, light or dark",
	"language":           "Display language: en, zu or tn",
}

// SortedKeys returns Keys in a stable order.
func SortedKeys() []string {
	keys := make([]string, 0, len(Keys))
	for k := range Keys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ParseUpdate builds an Update from a key and its string value.
func ParseUpdate(key, value string) (Update, error) {
	var u Update
	switch key {
	case "push_notifications", "promotions", "app_updates":
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return u, output.ErrUsage(fmt.Sprintf("%s must be true or false", key))
		}
		switch key {
		case "push_notifications":
			u.PushNotifications = &b
		case "promotions":
			u.Promotions = &b
		default:
			u.AppUpdates = &b
		}
	case "theme_mode", "theme":
		m, err := ParseThemeMode(value)
		if err != nil {
			return u, output.ErrUsage(err.Error())
		}
		u.ThemeMode = &m
	case "language", "language_code":
		u.LanguageCode = &value
	default:
		return u, output.ErrUsageHint(fmt.Sprintf("Unknown setting %q", key), "Valid settings: "+strings.Join(SortedKeys(), ", "))
	}
	return u, nil
}

// Store reads and writes settings under a data directory.
type Store struct {
	file *statefile.File
	log  logrus.FieldLogger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report unreadable settings.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStore returns a store keeping settings in dir.
func NewStore(dir string, opts ...Option) *Store {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	s := &Store{
		file: statefile.New(filepath.Join(dir, FileName), statefile.YAML),
		log:  quiet,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the settings file path.
func (s *Store) Path() string { return s.file.Path() }

// Read returns the stored settings. Missing keys take their defaults, and
// any failure to read the file yields Defaults().
func (s *Store) Read(_ context.Context) Settings {
	v, _, err := statefile.Load(s.file, Defaults)
	if err != nil {
		s.log.WithError(err).WithField("path", s.Path()).Warn("using default settings")
		return Defaults()
	}
	return v.normalize()
}

// Write applies u and persists the result. The returned settings are what
// a later Read will see.
func (s *Store) Write(_ context.Context, u Update) (Settings, error) {
	if u.LanguageCode != nil {
		code, err := CanonicalLanguage(*u.LanguageCode)
		if err != nil {
			return Settings{}, output.ErrUsage(err.Error())
		}
		if !slices.Contains(SupportedLanguages, code) {
			return Settings{}, output.ErrUsageHint(
				fmt.Sprintf("Unsupported language %q", *u.LanguageCode),
				"Supported: "+strings.Join(SupportedLanguages, ", "))
		}
		u.LanguageCode = &code
	}
	if u.ThemeMode != nil {
		if _, err := ParseThemeMode(string(*u.ThemeMode)); err != nil {
			return Settings{}, output.ErrUsage(err.Error())
		}
	}

	v, err := statefile.Update(s.file, Defaults, func(cur *Settings) error {
		*cur = cur.normalize()
		u.apply(cur)
		return nil
	})
	if err != nil {
		return Settings{}, output.ErrStorage("settings", err)
	}
	return v, nil
}

// Reset removes stored settings so every key reads back as its default.
func (s *Store) Reset(_ context.Context) error {
	if err := s.file.Remove(); err != nil {
		return output.ErrStorage("settings", err)
	}
	return nil
}
