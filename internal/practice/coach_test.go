package practice

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sprachiz/internal/dialogue"
	"github.com/abhisek/sprachiz/internal/difficulty"
	"github.com/abhisek/sprachiz/internal/lessons"
	"github.com/abhisek/sprachiz/internal/llm"
	"github.com/abhisek/sprachiz/internal/logging"
	"github.com/abhisek/sprachiz/internal/mastery"
	"github.com/abhisek/sprachiz/internal/profile"
	"github.com/abhisek/sprachiz/internal/spacedrep"
	"github.com/abhisek/sprachiz/internal/store"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

const (
	practiceWithError = `{
		"response": "Gerne! Mit Milch?",
		"corrections": [{
			"type": "grammar",
			"text": "ein Kaffee -> einen Kaffee",
			"explanation": "Kaffee is the accusative object here.",
			"example": "Ich hätte gern einen Kaffee.",
			"grammar_topic": "accusative"
		}],
		"has_errors": true,
		"positive_reinforcement": "Nice polite request!",
		"tips": [],
		"grammar_topics": ["present-tense"]
	}`
	practiceClean = `{
		"response": "Bitte schön!",
		"corrections": [],
		"has_errors": false,
		"positive_reinforcement": "",
		"tips": [],
		"grammar_topics": ["present-tense"]
	}`
	guidedReply    = `{"response":"Sehr gut!","feedback":"Well done.","corrections":[],"has_errors":false,"grammar_topics":[]}`
	challengeReply = `{"response":"Bis bald!","quality":10,"has_errors":false,"grammar_topics":[]}`
)

type fixture struct {
	store    *store.Store
	mock     *llm.MockProvider
	profiles *profile.Service
	topics   *mastery.Service
	vocab    *spacedrep.Service
	lessons  *lessons.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "practice.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	log := logging.Discard()
	f := &fixture{
		store:    s,
		mock:     llm.NewMockProvider(),
		profiles: profile.NewService(s.ProfileRepo(), s.ConversationRepo(), s.ItemRepo(), s.Locks(), log),
		topics:   mastery.NewService(s.TopicRepo(), s.EventRepo(), s.Locks(), log),
		vocab:    spacedrep.NewService(s.ItemRepo(), s.Locks(), log),
	}
	f.lessons = lessons.NewService(lessons.DefaultCatalog(), s.AttemptRepo(), s.EventRepo(), f.profiles, s.Locks(), log)
	_, err = f.profiles.Ensure(ctx, "l1", t0)
	require.NoError(t, err)
	return f
}

func (f *fixture) queue(replies ...string) {
	f.mock.QueueJSON(replies...)
}

func (f *fixture) coach(input string, out *bytes.Buffer, reflector Reflector) *Coach {
	return New(Options{
		Tutor:     dialogue.NewTutor(f.mock, dialogue.DefaultTutorConfig(), nil),
		Topics:    f.topics,
		Profiles:  f.profiles,
		Lessons:   f.lessons,
		Vocab:     f.vocab,
		Reflector: reflector,
		In:        strings.NewReader(input),
		Out:       out,
		Now:       func() time.Time { return t0 },
	})
}

var learner = Learner{ID: "l1", Level: difficulty.LevelA1, Instructions: "Use simple sentences."}

func coffeeShop(t *testing.T) dialogue.Theme {
	t.Helper()
	th, ok := dialogue.DefaultThemes().Get("coffee-shop")
	require.True(t, ok)
	return th
}

func TestChat_RecordsConversationAndMastery(t *testing.T) {
	f := newFixture(t)
	f.queue(practiceWithError, practiceClean)
	ctx := context.Background()

	var out bytes.Buffer
	c := f.coach("Ich hätte gern ein Kaffee.\n\nDanke!\n/quit\n", &out, nil)
	conv, err := c.Chat(ctx, learner, coffeeShop(t), dialogue.ModePractice)
	require.NoError(t, err)

	assert.Equal(t, 2, conv.Messages)
	assert.Equal(t, 1, conv.Correct)
	assert.Equal(t, 2, f.mock.CallCount())
	assert.Contains(t, out.String(), "Gerne! Mit Milch?")
	assert.Contains(t, out.String(), "ein Kaffee -> einen Kaffee")
	assert.Contains(t, out.String(), "Nice polite request!")

	p, err := f.profiles.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, 2*dialogue.XPPerMessage+dialogue.XPPerCorrect, p.TotalXP)

	progress, err := f.profiles.ThemeProgress(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, "coffee-shop", progress[0].ThemeID)
	assert.Equal(t, 2, progress[0].TotalMessages)

	acc, err := f.topics.Get(ctx, "l1", "accusative")
	require.NoError(t, err)
	assert.Equal(t, 0, acc.CorrectUses)
	assert.Equal(t, 1, acc.IncorrectUses)

	present, err := f.topics.Get(ctx, "l1", "present-tense")
	require.NoError(t, err)
	assert.Equal(t, 2, present.CorrectUses)
}

func TestChat_TutorFailureKeepsSessionAlive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var out bytes.Buffer
	conv, err := f.coach("Hallo\n/quit\n", &out, nil).Chat(ctx, learner, coffeeShop(t), dialogue.ModePractice)
	require.NoError(t, err)

	assert.Equal(t, 0, conv.Messages)
	assert.Contains(t, out.String(), "The tutor is unreachable right now")

	progress, err := f.profiles.ThemeProgress(ctx, "l1")
	require.NoError(t, err)
	assert.Empty(t, progress)
}

func TestChat_RejectsGuidedMode(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer
	_, err := f.coach("", &out, nil).Chat(context.Background(), learner, coffeeShop(t), dialogue.ModeGuided)
	assert.ErrorIs(t, err, ErrGuidedNeedsLesson)
}

func TestChat_EndOfInput(t *testing.T) {
	f := newFixture(t)
	f.queue(practiceClean)
	var out bytes.Buffer
	conv, err := f.coach("Einen Tee, bitte.", &out, nil).Chat(context.Background(), learner, coffeeShop(t), dialogue.ModePractice)
	require.NoError(t, err)
	assert.Equal(t, 1, conv.Messages)
}

type fakeReflector struct {
	in lessons.ReflectionInput
}

func (r *fakeReflector) Reflect(_ context.Context, in lessons.ReflectionInput) (*lessons.Reflection, error) {
	r.in = in
	return &lessons.Reflection{Headline: "Great work!", Strengths: []string{"Greetings"}, NextStep: "Try lesson 2"}, nil
}

func TestRunLesson_FullPass(t *testing.T) {
	f := newFixture(t)
	f.queue(guidedReply, guidedReply, guidedReply, guidedReply)
	f.queue(practiceClean, practiceClean, practiceClean)
	f.queue(challengeReply, challengeReply, challengeReply)
	ctx := context.Background()

	input := strings.Join([]string{
		"",                      // intro
		"Ich bin Anna",          // guided step 1, miss
		"Hallo, ich heiße Anna", // guided step 1
		"Ich komme aus Kanada",  // guided step 2
		"Tschüss!",              // guided step 3
		"/done",                 // too early for free practice
		"Eins", "Zwei", "Drei",
		"/done",
		"Bis bald!", "Wie geht's?", "Bis morgen!",
		"/done",
		"", // reflection
	}, "\n") + "\n"

	var out bytes.Buffer
	refl := &fakeReflector{}
	outcome, err := f.coach(input, &out, refl).RunLesson(ctx, learner, "lesson-A1-1")
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.Equal(t, lessons.StatusMastered, outcome.Result.Status)
	assert.InDelta(t, 100.0, outcome.Result.Score, 0.001)
	assert.Equal(t, 100, outcome.Attempt.ChallengeScore)
	assert.Equal(t, lessons.NumStages*lessons.StageXP+100, outcome.TotalXP())

	text := out.String()
	assert.Contains(t, text, "Hint: ")
	assert.Contains(t, text, "Send 3 more message(s) first.")
	assert.Contains(t, text, "Great work!")
	assert.Equal(t, "l1", refl.in.Attempt.LearnerID)

	p, err := f.profiles.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, outcome.TotalXP(), p.TotalXP)

	items, err := f.vocab.List(ctx, "l1")
	require.NoError(t, err)
	assert.Len(t, items, 6)
}

func TestRunLesson_QuitKeepsProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var out bytes.Buffer
	outcome, err := f.coach("\n/quit\n", &out, nil).RunLesson(ctx, learner, "lesson-A1-1")
	require.NoError(t, err)
	assert.Nil(t, outcome)
	assert.Contains(t, out.String(), "Progress saved.")

	a, err := f.lessons.Get(ctx, "l1", "lesson-A1-1")
	require.NoError(t, err)
	assert.Equal(t, lessons.StageGuided, a.CurrentStage)
	assert.True(t, a.IsCompleted(lessons.StageIntro))
	assert.Equal(t, lessons.StatusInProgress, a.Status)
}

func TestRunLesson_ResumesAndSkipsKnownVocabulary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.vocab.Add(ctx, spacedrep.NewItem{LearnerID: "l1", SourceTerm: "hallo", TargetTerm: "hello"}, t0)
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = f.coach("/quit\n", &out, nil).RunLesson(ctx, learner, "lesson-A1-1")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "5 new word(s)")

	items, err := f.vocab.List(ctx, "l1")
	require.NoError(t, err)
	assert.Len(t, items, 6)
}

func TestRunLesson_UnknownLesson(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer
	_, err := f.coach("", &out, nil).RunLesson(context.Background(), learner, "lesson-Z9-1")
	assert.ErrorIs(t, err, lessons.ErrLessonNotFound)
}

type capturingTutor struct {
	reqs []dialogue.Request
}

func (c *capturingTutor) Respond(_ context.Context, req dialogue.Request) (*dialogue.Reply, error) {
	c.reqs = append(c.reqs, req)
	return &dialogue.Reply{
		Text:        "Noch einmal, bitte.",
		HasErrors:   true,
		Corrections: []dialogue.Correction{{Kind: dialogue.KindGrammar, Text: "den Kaffee", Topic: "accusative"}},
	}, nil
}

func TestChat_InstructionsFollowMastery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tutor := &capturingTutor{}
	live := func(ctx context.Context, learnerID string) (string, []string, error) {
		p, err := f.profiles.Get(ctx, learnerID)
		if err != nil {
			return "", nil, err
		}
		weak, err := f.topics.WeakTopics(ctx, learnerID)
		if err != nil {
			return "", nil, err
		}
		text, err := difficulty.Instructions(p.DifficultyInput(weak))
		return text, weak, err
	}

	var out bytes.Buffer
	c := New(Options{
		Tutor:        tutor,
		Topics:       f.topics,
		Profiles:     f.profiles,
		Instructions: live,
		In:           strings.NewReader("Ich möchte der Kaffee.\nIch nehme der Kuchen.\nDanke.\n/quit\n"),
		Out:          &out,
		Now:          func() time.Time { return t0 },
	})
	_, err := c.Chat(ctx, learner, coffeeShop(t), dialogue.ModePractice)
	require.NoError(t, err)

	require.Len(t, tutor.reqs, 3)
	assert.NotContains(t, tutor.reqs[0].Instructions, "Focus on")
	for _, req := range tutor.reqs[1:] {
		assert.Contains(t, req.Instructions, "Focus on helping with these grammar topics: accusative.")
	}
}

func TestChat_InstructionsFailureKeepsPrevious(t *testing.T) {
	f := newFixture(t)
	tutor := &capturingTutor{}
	var out bytes.Buffer
	c := New(Options{
		Tutor:    tutor,
		Topics:   f.topics,
		Profiles: f.profiles,
		Instructions: func(context.Context, string) (string, []string, error) {
			return "", nil, errors.New("store closed")
		},
		In:  strings.NewReader("Hallo\n/quit\n"),
		Out: &out,
		Now: func() time.Time { return t0 },
	})
	_, err := c.Chat(context.Background(), learner, coffeeShop(t), dialogue.ModePractice)
	require.NoError(t, err)
	require.Len(t, tutor.reqs, 1)
	assert.Equal(t, learner.Instructions, tutor.reqs[0].Instructions)
}
