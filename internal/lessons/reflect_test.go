package lessons

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/sprachiz/internal/llm"
)

func TestReflector_Reflect(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{
			"summary": "You greeted and introduced yourself confidently.",
			"strengths": ["Natural use of Ich heiße"],
			"focus_areas": ["Word order after aus"],
			"next_step": "Repeat the challenge with a formal greeting."
		}`),
	})
	r := NewReflector(mock, DefaultReflectionConfig())

	lesson, err := DefaultCatalog().Get("lesson-A1-1")
	if err != nil {
		t.Fatal(err)
	}
	in := ReflectionInput{
		Lesson:      lesson,
		Attempt:     Attempt{CompletedStages: Stages, ChallengeScore: 80, Score: 94},
		Corrections: []string{"Ich komme von England -> Ich komme aus England"},
		WeakTopics:  []string{"Prepositions"},
	}

	got, err := r.Reflect(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if got.Headline != "Outstanding Performance!" {
		t.Errorf("Headline = %q", got.Headline)
	}
	if got.NextStep == "" || len(got.Strengths) != 1 || len(got.FocusAreas) != 1 {
		t.Errorf("unexpected reflection: %+v", got)
	}

	if mock.CallCount() != 1 {
		t.Fatalf("calls = %d", mock.CallCount())
	}
	req := mock.Calls[0]
	if req.Schema != ReflectionSchema {
		t.Error("request should use the reflection schema")
	}
	msg := req.Messages[0].Content
	for _, want := range []string{"First Words Quest", "Stages completed: 5 of 5", "Ich komme aus England", "Prepositions"} {
		if !strings.Contains(msg, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestReflector_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: errors.New("boom")})
	r := NewReflector(mock, DefaultReflectionConfig())

	if _, err := r.Reflect(context.Background(), ReflectionInput{}); err == nil {
		t.Fatal("expected error")
	}
}
