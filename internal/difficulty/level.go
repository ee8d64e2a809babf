package difficulty

import (
	"fmt"
	"strings"
)

// Level is a CEFR proficiency level.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// Levels lists all levels in ascending order.
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// Rank returns the position of the level in Levels, or -1 if unknown.
func (l Level) Rank() int {
	for i, lv := range Levels {
		if lv == l {
			return i
		}
	}
	return -1
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	return l.Rank() >= 0
}

// ParseLevel parses a level label, case-insensitively.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: unknown level %q", ErrInvalidInput, s)
	}
	return l, nil
}

// Preference is the learner's explicit complexity preference.
type Preference string

const (
	PreferenceSimple   Preference = "simple"
	PreferenceModerate Preference = "moderate"
	PreferenceComplex  Preference = "complex"
	PreferenceAuto     Preference = "auto"
)

// Valid reports whether p is a known preference.
func (p Preference) Valid() bool {
	switch p {
	case PreferenceSimple, PreferenceModerate, PreferenceComplex, PreferenceAuto:
		return true
	}
	return false
}

// ParsePreference parses a preference label, case-insensitively.
func ParsePreference(s string) (Preference, error) {
	p := Preference(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown preference %q", ErrInvalidInput, s)
	}
	return p, nil
}
