package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTheme(t *testing.T) {
	assert.Equal(t, "Kanagawa", GetTheme(" kanagawa ").Name)
	assert.Equal(t, "Nightfox", GetTheme("").Name)
	assert.Equal(t, "Nightfox", GetTheme("Dracula").Name, "unknown themes fall back")
}

func TestNextThemeCycles(t *testing.T) {
	names := ThemeNames()
	for i, name := range names {
		assert.Equal(t, names[(i+1)%len(names)], NextTheme(name))
	}
	assert.Equal(t, names[0], NextTheme("missing"))

	names[0] = "mutated"
	assert.NotEqual(t, "mutated", ThemeNames()[0], "ThemeNames returns a copy")
}

func TestStatusColor(t *testing.T) {
	for _, name := range ThemeNames() {
		theme := GetTheme(name)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, theme.StatusColors["failed"], theme.StatusColor(" FAILED ", "#000000"))
			assert.Equal(t, "#123456", theme.StatusColor("UNHEARD_OF", "#123456"))
			assert.Equal(t, theme.Muted, theme.StatusColor("UNHEARD_OF", ""))
			for _, status := range []string{"pending", "running", "completed", "failed", "active"} {
				assert.NotEmpty(t, theme.StatusColors[status], status)
			}
		})
	}
}
