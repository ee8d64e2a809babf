package dialogue

import "github.com/abhisek/sprachiz/internal/llm"

var correctionItem = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"type": map[string]any{
			"type": "string",
			"enum": []any{"grammar", "vocabulary", "pronunciation", "cultural"},
		},
		"text":          map[string]any{"type": "string", "description": "Short description of the mistake"},
		"explanation":   map[string]any{"type": "string", "description": "Why it is wrong or could be better"},
		"example":       map[string]any{"type": "string", "description": "A correct example sentence"},
		"grammar_topic": map[string]any{"type": "string", "description": "Grammar topic id, empty if none"},
	},
	"required":             []any{"type", "text", "explanation", "example", "grammar_topic"},
	"additionalProperties": false,
}

var tipItem = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"type":    map[string]any{"type": "string", "enum": []any{"phrase", "grammar", "vocabulary", "cultural"}},
		"title":   map[string]any{"type": "string"},
		"content": map[string]any{"type": "string"},
		"german":  map[string]any{"type": "string"},
		"english": map[string]any{"type": "string"},
	},
	"required":             []any{"type", "title", "content", "german", "english"},
	"additionalProperties": false,
}

var topicsProperty = map[string]any{
	"type":        "array",
	"items":       map[string]any{"type": "string"},
	"description": "Grammar topic ids the learner's message used, e.g. present-tense, articles",
}

// PracticeSchema is the reply format for free conversation.
var PracticeSchema = &llm.Schema{
	Name:        "tutor-practice-reply",
	Description: "In-character reply with corrections, praise and tips",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"response":               map[string]any{"type": "string", "description": "Natural reply in German"},
			"corrections":            map[string]any{"type": "array", "items": correctionItem},
			"has_errors":             map[string]any{"type": "boolean"},
			"positive_reinforcement": map[string]any{"type": "string"},
			"tips":                   map[string]any{"type": "array", "items": tipItem},
			"grammar_topics":         topicsProperty,
		},
		"required":             []any{"response", "corrections", "has_errors", "positive_reinforcement", "tips", "grammar_topics"},
		"additionalProperties": false,
	},
}

// GuidedSchema is the reply format for a guided step.
var GuidedSchema = &llm.Schema{
	Name:        "tutor-guided-reply",
	Description: "Short reply with feedback on the current guided step",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"response":       map[string]any{"type": "string", "description": "Short reply in German"},
			"feedback":       map[string]any{"type": "string", "description": "Feedback on the learner's answer, empty if none"},
			"corrections":    map[string]any{"type": "array", "items": correctionItem},
			"has_errors":     map[string]any{"type": "boolean"},
			"grammar_topics": topicsProperty,
		},
		"required":             []any{"response", "feedback", "corrections", "has_errors", "grammar_topics"},
		"additionalProperties": false,
	},
}

// ChallengeSchema is the reply format for the challenge stage.
var ChallengeSchema = &llm.Schema{
	Name:        "tutor-challenge-reply",
	Description: "Spontaneous reply and a quality rating of the learner's message",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"response": map[string]any{"type": "string", "description": "Natural reply in German"},
			"quality": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     10,
				"description": "How well the learner handled this exchange, 0-10",
			},
			"has_errors":     map[string]any{"type": "boolean"},
			"grammar_topics": topicsProperty,
		},
		"required":             []any{"response", "quality", "has_errors", "grammar_topics"},
		"additionalProperties": false,
	},
}

func schemaFor(m Mode) *llm.Schema {
	switch m {
	case ModeGuided:
		return GuidedSchema
	case ModeChallenge:
		return ChallengeSchema
	default:
		return PracticeSchema
	}
}
