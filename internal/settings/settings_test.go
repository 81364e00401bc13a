package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzansiplatess/plates-cli/internal/output"
)

func ptr[T any](v T) *T { return &v }

func TestReadDefaults(t *testing.T) {
	s := NewStore(t.TempDir())
	assert.Equal(t, Settings{
		PushNotifications: true,
		Promotions:        false,
		AppUpdates:        true,
		ThemeMode:         ThemeSystem,
		LanguageCode:      "en",
	}, s.Read(context.Background()))
}

func TestWritePartialPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	got, err := NewStore(dir).Write(ctx, Update{Promotions: ptr(true)})
	require.NoError(t, err)
	assert.True(t, got.Promotions)
	assert.True(t, got.PushNotifications, "untouched keys keep their defaults")

	_, err = NewStore(dir).Write(ctx, Update{ThemeMode: ptr(ThemeDark), PushNotifications: ptr(false)})
	require.NoError(t, err)

	// A fresh store stands in for a restart.
	read := NewStore(dir).Read(ctx)
	assert.True(t, read.Promotions)
	assert.False(t, read.PushNotifications)
	assert.Equal(t, ThemeDark, read.ThemeMode)
}

func TestLanguageStoredAsCode(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	got, err := s.Write(context.Background(), Update{LanguageCode: ptr("zu-ZA")})
	require.NoError(t, err)
	assert.Equal(t, "zu", got.LanguageCode)

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "language: zu")
}

func TestWriteRejectsUnsupportedLanguage(t *testing.T) {
	s := NewStore(t.TempDir())
	for _, code := range []string{"fr", "not a tag"} {
		_, err := s.Write(context.Background(), Update{LanguageCode: ptr(code)})
		require.Error(t, err, code)
		assert.Equal(t, output.CodeUsage, output.AsError(err).Code)
	}
	assert.False(t, s.file.Exists())
}

func TestReadRepairsHandEditedValues(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, os.WriteFile(s.Path(), []byte("theme_mode: sepia\nlanguage: fr\npromotions: true\n"), 0600))

	got := s.Read(context.Background())
	assert.Equal(t, ThemeSystem, got.ThemeMode)
	assert.Equal(t, "en", got.LanguageCode)
	assert.True(t, got.Promotions)
	assert.True(t, got.AppUpdates)
}

func TestReadFailureFallsBackToDefaults(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, os.WriteFile(s.Path(), []byte("push_notifications: [unclosed"), 0600))
	assert.Equal(t, Defaults(), s.Read(context.Background()))

	// A write over a corrupt file starts again from defaults.
	got, err := s.Write(context.Background(), Update{AppUpdates: ptr(false)})
	require.NoError(t, err)
	want := Defaults()
	want.AppUpdates = false
	assert.Equal(t, want, got)
}

func TestWriteStorageError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	_, err := NewStore(blocker).Write(context.Background(), Update{Promotions: ptr(true)})
	require.Error(t, err)
	assert.Equal(t, output.CodeStorage, output.AsError(err).Code)
}

func TestReset(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()
	_, err := s.Write(ctx, Update{ThemeMode: ptr(ThemeLight)})
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))
	assert.Equal(t, Defaults(), s.Read(ctx))
	require.NoError(t, s.Reset(ctx))
}

func TestParseUpdate(t *testing.T) {
	u, err := ParseUpdate("promotions", "yes")
	assert.Error(t, err)
	assert.Nil(t, u.Promotions)

	u, err = ParseUpdate("app_updates", "false")
	require.NoError(t, err)
	require.NotNil(t, u.AppUpdates)
	assert.False(t, *u.AppUpdates)

	u, err = ParseUpdate("theme", "DARK")
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, *u.ThemeMode)

	u, err = ParseUpdate("language", "tn")
	require.NoError(t, err)
	assert.Equal(t, "tn", *u.LanguageCode)

	_, err = ParseUpdate("volume", "11")
	e := output.AsError(err)
	assert.Equal(t, output.CodeUsage, e.Code)
	assert.Contains(t, e.Hint, "push_notifications")
}

func TestWatchReportsChanges(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan Settings, 8)
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, func(v Settings) { seen <- v }) }()

	select {
	case first := <-seen:
		assert.Equal(t, Defaults(), first)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial settings")
	}

	_, err := NewStore(dir).Write(context.Background(), Update{ThemeMode: ptr(ThemeDark)})
	require.NoError(t, err)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case v := <-seen:
			if v.ThemeMode == ThemeDark {
				cancel()
				assert.NoError(t, <-done)
				return
			}
		case <-deadline:
			t.Fatal("change not reported")
		}
	}
}
