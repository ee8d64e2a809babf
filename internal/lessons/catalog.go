package lessons

import (
	_ "embed"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/sprachiz/internal/difficulty"
)

//go:embed catalog.yaml
var catalogYAML []byte

// MaxRecommendations caps the lessons returned by Recommend.
const MaxRecommendations = 5

// KeyPhrase is a phrase introduced in the intro stage.
type KeyPhrase struct {
	German        string `yaml:"german"`
	English       string `yaml:"english"`
	Pronunciation string `yaml:"pronunciation"`
}

// VocabularyEntry is a word the lesson teaches.
type VocabularyEntry struct {
	German  string `yaml:"german"`
	English string `yaml:"english"`
	Type    string `yaml:"type"`
}

// Lesson is a catalog entry.
type Lesson struct {
	ID            string            `yaml:"-"`
	Level         difficulty.Level  `yaml:"level"`
	Number        int               `yaml:"number"`
	Title         string            `yaml:"title"`
	Description   string            `yaml:"description"`
	ThemeID       string            `yaml:"theme"`
	Scenario      string            `yaml:"scenario"`
	KeyPhrases    []KeyPhrase       `yaml:"key_phrases"`
	GuidedSteps   []GuidedStep      `yaml:"guided_steps"`
	Challenge     string            `yaml:"challenge"`
	Objectives    []string          `yaml:"objectives"`
	GrammarTopics []string          `yaml:"grammar_topics"`
	Vocabulary    []VocabularyEntry `yaml:"vocabulary"`
	XPReward      int               `yaml:"xp_reward"`
	// Badge is awarded when the lesson is first finished.
	Badge string `yaml:"badge"`
}

// LessonID derives the catalog id of a lesson.
func LessonID(level difficulty.Level, number int) string {
	return fmt.Sprintf("lesson-%s-%d", level, number)
}

// Catalog is an immutable, ordered set of lessons.
type Catalog struct {
	lessons []Lesson
	byID    map[string]int
}

type catalogFile struct {
	Lessons []Lesson `yaml:"lessons"`
}

// ParseCatalog decodes and validates a YAML lesson catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return NewCatalog(f.Lessons)
}

// NewCatalog builds a catalog ordered by level and lesson number.
func NewCatalog(lessons []Lesson) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(lessons))}
	for _, l := range lessons {
		if !l.Level.Valid() {
			return nil, fmt.Errorf("lesson %q: invalid level %q", l.Title, l.Level)
		}
		if l.Number < 1 {
			return nil, fmt.Errorf("lesson %q: invalid number %d", l.Title, l.Number)
		}
		if _, ok := LookupBadge(l.Badge); l.Badge != "" && !ok {
			return nil, fmt.Errorf("lesson %q: unknown badge %q", l.Title, l.Badge)
		}
		l.ID = LessonID(l.Level, l.Number)
		if _, dup := c.byID[l.ID]; dup {
			return nil, fmt.Errorf("duplicate lesson %s", l.ID)
		}
		c.byID[l.ID] = len(c.lessons)
		c.lessons = append(c.lessons, l)
	}
	slices.SortStableFunc(c.lessons, func(a, b Lesson) int {
		if d := a.Level.Rank() - b.Level.Rank(); d != 0 {
			return d
		}
		return a.Number - b.Number
	})
	for i, l := range c.lessons {
		c.byID[l.ID] = i
	}
	return c, nil
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// All returns every lesson in catalog order.
func (c *Catalog) All() []Lesson {
	return slices.Clone(c.lessons)
}

// Get returns the lesson with the given id.
func (c *Catalog) Get(id string) (Lesson, error) {
	i, ok := c.byID[id]
	if !ok {
		return Lesson{}, fmt.Errorf("%w: %s", ErrLessonNotFound, id)
	}
	return c.lessons[i], nil
}

// ByLevel returns the lessons of one level ordered by lesson number.
func (c *Catalog) ByLevel(level difficulty.Level) []Lesson {
	return lo.Filter(c.lessons, func(l Lesson, _ int) bool {
		return l.Level == level
	})
}

// Recommend returns up to MaxRecommendations lessons at the learner's
// level that are not yet completed or mastered.
func (c *Catalog) Recommend(level difficulty.Level, attempts []Attempt) []Lesson {
	finished := lo.FilterMap(attempts, func(a Attempt, _ int) (string, bool) {
		return a.LessonID, a.Status.Finished()
	})
	open := lo.Reject(c.ByLevel(level), func(l Lesson, _ int) bool {
		return lo.Contains(finished, l.ID)
	})
	if len(open) > MaxRecommendations {
		open = open[:MaxRecommendations]
	}
	return open
}
