package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestResolveThemeHonorsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, NoColorTheme(), ResolveTheme())
}

func TestDefaultThemeHasBothVariants(t *testing.T) {
	theme := DefaultTheme()
	for _, c := range []lipgloss.AdaptiveColor{theme.Primary, theme.Error, theme.Muted, theme.Foreground} {
		assert.NotEmpty(t, c.Light)
		assert.NotEmpty(t, c.Dark)
	}
}

func TestPick(t *testing.T) {
	c := lipgloss.AdaptiveColor{Light: "#fff", Dark: "#000"}
	assert.Equal(t, "#fff", Pick(c, ModeLight))
	assert.Equal(t, "#000", Pick(c, "DARK"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("thandi@example.co.za"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("Thandi <thandi@example.co.za>"))
}
