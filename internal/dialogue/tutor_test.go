package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sprachiz/internal/difficulty"
	"github.com/abhisek/sprachiz/internal/lessons"
	"github.com/abhisek/sprachiz/internal/llm"
)

func coffeeShop(t *testing.T) Theme {
	t.Helper()
	th, ok := DefaultThemes().Get("coffee-shop")
	require.True(t, ok)
	return th
}

func TestTutor_Practice(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{
		"response": "Gerne! Mit Milch?",
		"corrections": [{
			"type": "grammar",
			"text": "ein Kaffee -> einen Kaffee",
			"explanation": "Kaffee is the accusative object here.",
			"example": "Ich hätte gern einen Kaffee.",
			"grammar_topic": "Accusative"
		}],
		"has_errors": true,
		"positive_reinforcement": "Nice polite request!",
		"tips": [],
		"grammar_topics": ["accusative", " Present-Tense ", ""]
	}`)})
	tutor := NewTutor(mock, DefaultTutorConfig(), nil)

	instructions, err := difficulty.Instructions(difficulty.Input{
		Level:           difficulty.LevelA1,
		RollingAccuracy: 60,
		Preference:      difficulty.PreferenceAuto,
	})
	require.NoError(t, err)

	reply, err := tutor.Respond(context.Background(), Request{
		Mode:         ModePractice,
		Theme:        coffeeShop(t),
		Level:        difficulty.LevelA1,
		Instructions: instructions,
		History: []Turn{
			{Speaker: SpeakerTutor, Text: "Guten Morgen! Was darf es sein?"},
		},
		Utterance: "Ich hätte gern ein Kaffee.",
	})
	require.NoError(t, err)

	assert.Equal(t, "Gerne! Mit Milch?", reply.Text)
	assert.True(t, reply.HasErrors)
	assert.Equal(t, "Nice polite request!", reply.Praise)
	assert.Equal(t, []string{"accusative", "present-tense"}, reply.Topics)

	want := []TopicJudgment{
		{Topic: "accusative", Correct: false},
		{Topic: "present-tense", Correct: true},
	}
	if diff := cmp.Diff(want, reply.Judgments()); diff != "" {
		t.Errorf("judgments mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Same(t, PracticeSchema, req.Schema)
	assert.Contains(t, req.System, "You are Lena, Barista")
	assert.True(t, strings.HasSuffix(req.System, "Difficulty: "+instructions))
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleAssistant, req.Messages[0].Role)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "Ich hätte gern ein Kaffee."}, req.Messages[1])
}

func TestTutor_Guided(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{
		"response": "Freut mich!",
		"feedback": "Perfect greeting.",
		"corrections": [],
		"has_errors": false,
		"grammar_topics": []
	}`)})
	tutor := NewTutor(mock, DefaultTutorConfig(), nil)

	step := &lessons.GuidedStep{
		Prompt:          "Greet the tutor and say your name.",
		ExpectedPhrases: []string{"Hallo", "Ich heiße"},
	}
	reply, err := tutor.Respond(context.Background(), Request{
		Mode:      ModeGuided,
		Theme:     coffeeShop(t),
		Level:     difficulty.LevelA1,
		Step:      step,
		Utterance: "Hallo, ich heiße Sam.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Perfect greeting.", reply.Feedback)
	assert.False(t, reply.HasErrors)
	assert.Empty(t, reply.Judgments())

	sys := mock.Calls[0].System
	assert.Contains(t, sys, "Current step: Greet the tutor and say your name.")
	assert.Contains(t, sys, "Expected phrases: Hallo, Ich heiße")
	assert.NotContains(t, sys, "Difficulty:")
}

func TestTutor_ChallengeQualityClamped(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`{"response":"Oh nein!","quality":14,"has_errors":false,"grammar_topics":[]}`)},
		llm.MockResponse{Content: json.RawMessage(`{"response":"Wie bitte?","quality":-2,"has_errors":true,"grammar_topics":[]}`)},
	)
	tutor := NewTutor(mock, DefaultTutorConfig(), nil)
	req := Request{Mode: ModeChallenge, Theme: coffeeShop(t), Level: difficulty.LevelA2, Utterance: "Der Zug ist weg!"}

	reply, err := tutor.Respond(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 10, reply.Quality)

	reply, err = tutor.Respond(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, reply.Quality)

	assert.Same(t, ChallengeSchema, mock.Calls[0].Schema)
	assert.InDelta(t, 0.8, mock.Calls[0].Temperature, 1e-9)
}

func TestTutor_InvalidRequest(t *testing.T) {
	mock := llm.NewMockProvider()
	tutor := NewTutor(mock, DefaultTutorConfig(), nil)

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"empty utterance", Request{Mode: ModePractice, Utterance: "  "}, ErrEmptyUtterance},
		{"unknown mode", Request{Mode: "exam", Utterance: "Hallo"}, ErrInvalidMode},
		{"guided without step", Request{Mode: ModeGuided, Utterance: "Hallo"}, ErrMissingStep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tutor.Respond(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, mock.CallCount())
}

func TestTutor_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})
	tutor := NewTutor(mock, DefaultTutorConfig(), nil)

	_, err := tutor.Respond(context.Background(), Request{Mode: ModePractice, Theme: coffeeShop(t), Utterance: "Hallo"})
	var un *llm.ErrProviderUnavailable
	assert.ErrorAs(t, err, &un)
}

func TestTutor_GarbledReplyIsInvalidResponse(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.QueueJSON(`{"response": "Hallo`)
	tutor := NewTutor(mock, DefaultTutorConfig(), nil)

	_, err := tutor.Respond(context.Background(), Request{Mode: ModeChallenge, Theme: coffeeShop(t), Utterance: "Hallo"})
	var invalid *llm.ErrInvalidResponse
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, llm.Explain(err), "garbled")

	last, ok := mock.LastCall()
	require.True(t, ok)
	assert.Equal(t, DefaultTutorConfig().ChallengeTemperature, last.Temperature)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Challenge ")
	require.NoError(t, err)
	assert.Equal(t, ModeChallenge, m)

	_, err = ParseMode("quiz")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestConversation(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewConversation(coffeeShop(t), ModePractice, start)

	c.Record("Hallo!", &Reply{Text: "Hallo! Was darf es sein?"})
	c.Record("Ich möchte ein Kaffee.", &Reply{Text: "Einen Kaffee, gerne.", HasErrors: true})

	require.Len(t, c.History, 4)
	assert.Equal(t, SpeakerTutor, c.History[3].Speaker)
	assert.Equal(t, 15, c.XP())

	out := c.Outcome("sam", start.Add(3*time.Minute))
	assert.Equal(t, "coffee-shop", out.ThemeID)
	assert.Equal(t, 2, out.Messages)
	assert.Equal(t, 1, out.CorrectMessages)
	assert.Equal(t, 3*time.Minute, out.Duration)
	assert.NoError(t, out.Validate())
}
