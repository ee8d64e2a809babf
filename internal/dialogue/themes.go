package dialogue

import (
	_ "embed"
	"fmt"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

//go:embed themes.yaml
var themesYAML []byte

// Character is the persona the tutor plays within a theme.
type Character struct {
	Name         string   `yaml:"name"`
	Occupation   string   `yaml:"occupation"`
	Personality  []string `yaml:"personality"`
	Catchphrases []string `yaml:"catchphrases"`
}

// Phrase is a common phrase for a theme with its translation.
type Phrase struct {
	German  string `yaml:"german"`
	English string `yaml:"english"`
}

// Theme is a conversation scenario.
type Theme struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Prompt      string    `yaml:"prompt"`
	Character   Character `yaml:"character"`
	Phrases     []Phrase  `yaml:"phrases"`
}

// Themes is an ordered, read-only set of conversation themes.
type Themes struct {
	themes []Theme
	byID   map[string]int
}

// ParseThemes decodes a YAML theme list.
func ParseThemes(data []byte) (*Themes, error) {
	var list []Theme
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse themes: %w", err)
	}

	t := &Themes{themes: list, byID: make(map[string]int, len(list))}
	for i, th := range list {
		if th.ID == "" {
			return nil, fmt.Errorf("theme %d: missing id", i)
		}
		if _, dup := t.byID[th.ID]; dup {
			return nil, fmt.Errorf("duplicate theme %q", th.ID)
		}
		t.byID[th.ID] = i
	}
	return t, nil
}

// DefaultThemes returns the built-in themes. It panics if the embedded
// file is malformed.
func DefaultThemes() *Themes {
	t, err := ParseThemes(themesYAML)
	if err != nil {
		panic(err)
	}
	return t
}

// All returns every theme in file order.
func (t *Themes) All() []Theme {
	return append([]Theme(nil), t.themes...)
}

// Get looks a theme up by ID.
func (t *Themes) Get(id string) (Theme, bool) {
	i, ok := t.byID[id]
	if !ok {
		return Theme{}, false
	}
	return t.themes[i], true
}

// IDs returns the theme IDs in file order.
func (t *Themes) IDs() []string {
	return lo.Map(t.themes, func(th Theme, _ int) string { return th.ID })
}
