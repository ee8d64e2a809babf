package lessons

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/sprachiz/internal/llm"
)

// ReflectionConfig holds reflection generation settings.
type ReflectionConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultReflectionConfig returns sensible defaults for reflection feedback.
func DefaultReflectionConfig() ReflectionConfig {
	return ReflectionConfig{
		MaxTokens:   512,
		Temperature: 0.5,
	}
}

// ReflectionInput holds the context for end-of-lesson feedback.
type ReflectionInput struct {
	Lesson      Lesson
	Attempt     Attempt
	Corrections []string
	WeakTopics  []string
}

// Reflection is tutor feedback shown on the reflection stage.
type Reflection struct {
	Headline   string
	Summary    string
	Strengths  []string
	FocusAreas []string
	NextStep   string
}

// Reflector generates reflection feedback with an LLM.
type Reflector struct {
	provider llm.Provider
	cfg      ReflectionConfig
}

// NewReflector creates a reflection generator.
func NewReflector(provider llm.Provider, cfg ReflectionConfig) *Reflector {
	return &Reflector{provider: provider, cfg: cfg}
}

type reflectionOutput struct {
	Summary    string   `json:"summary"`
	Strengths  []string `json:"strengths"`
	FocusAreas []string `json:"focus_areas"`
	NextStep   string   `json:"next_step"`
}

// Reflect generates feedback for a finished pass.
func (r *Reflector) Reflect(ctx context.Context, in ReflectionInput) (*Reflection, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeReflection)

	req := llm.Request{
		System: reflectionSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildReflectionUserMessage(in)},
		},
		Schema:      ReflectionSchema,
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	}

	resp, err := r.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lesson reflection: %w", err)
	}

	var out reflectionOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse reflection response: %w", err)
	}

	return &Reflection{
		Headline:   ScoreMessage(in.Attempt.Score),
		Summary:    out.Summary,
		Strengths:  out.Strengths,
		FocusAreas: out.FocusAreas,
		NextStep:   out.NextStep,
	}, nil
}
