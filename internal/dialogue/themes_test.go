package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sprachiz/internal/lessons"
)

func TestDefaultThemes(t *testing.T) {
	themes := DefaultThemes()
	assert.Len(t, themes.All(), 8)
	assert.Equal(t, "coffee-shop", themes.IDs()[0])

	th, ok := themes.Get("train-station")
	require.True(t, ok)
	assert.Equal(t, "Herr Müller", th.Character.Name)
	assert.NotEmpty(t, th.Phrases)

	_, ok = themes.Get("moon-base")
	assert.False(t, ok)
}

func TestDefaultThemes_CoverLessonCatalog(t *testing.T) {
	themes := DefaultThemes()
	for _, l := range lessons.DefaultCatalog().All() {
		_, ok := themes.Get(l.ThemeID)
		assert.True(t, ok, "lesson %s uses unknown theme %q", l.ID, l.ThemeID)
	}
}

func TestParseThemes_Errors(t *testing.T) {
	_, err := ParseThemes([]byte("- id: a\n- id: a\n"))
	assert.ErrorContains(t, err, "duplicate theme")

	_, err = ParseThemes([]byte("- name: nameless\n"))
	assert.ErrorContains(t, err, "missing id")

	_, err = ParseThemes([]byte("{not a list"))
	assert.Error(t, err)
}
