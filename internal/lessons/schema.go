package lessons

import "github.com/abhisek/sprachiz/internal/llm"

// ReflectionSchema defines the JSON schema for the end-of-lesson review.
var ReflectionSchema = &llm.Schema{
	Name:        "lesson-reflection",
	Description: "End-of-lesson feedback with strengths, focus areas and a next step",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "2-3 encouraging sentences about how the lesson went",
			},
			"strengths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "1-3 things the learner did well (5-10 words each)",
			},
			"focus_areas": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "1-3 things to practice next (5-10 words each)",
			},
			"next_step": map[string]any{
				"type":        "string",
				"description": "One concrete suggestion for the next session",
			},
		},
		"required":             []any{"summary", "strengths", "focus_areas", "next_step"},
		"additionalProperties": false,
	},
}
