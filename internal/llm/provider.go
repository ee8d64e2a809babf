package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Provider is the core abstraction for LLM interaction.
type Provider interface {
	// Generate sends a prompt to the LLM. When the request carries a
	// Schema the response Content is JSON validated against it; otherwise
	// Content is the reply text encoded as a JSON string.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string

	// Name returns the provider name, e.g. "anthropic".
	Name() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt.
	System string

	// Messages is the conversation history, oldest first. Tutor dialogue
	// sends prior turns here; one-shot generation sends one user message.
	Messages []Message

	// Schema is the JSON Schema the response must conform to. When nil
	// the reply is free text.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness in 0.0 - 1.0. Zero leaves the
	// provider default.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema (tool name for Anthropic, schema name
	// for OpenAI). Kebab-case, e.g. "tutor-reply".
	Name string

	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the LLM's output.
type Response struct {
	Content json.RawMessage
	Usage   Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Text decodes a free-text response.
func (r *Response) Text() (string, error) {
	var s string
	if err := json.Unmarshal(r.Content, &s); err != nil {
		return "", fmt.Errorf("decode text response: %w", err)
	}
	return s, nil
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// responseContent turns the raw reply text of a provider into Response
// content. Structured replies are validated; a structured reply cut off by
// the token limit is reported as ErrMaxTokensExceeded.
func responseContent(schema *Schema, text, stopReason string) (json.RawMessage, error) {
	if schema == nil {
		b, err := json.Marshal(text)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	raw := json.RawMessage(text)
	if stopReason == "max_tokens" {
		return nil, &ErrMaxTokensExceeded{Content: raw}
	}
	if err := validateResponse(schema, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// resolveModel maps a friendly model name to a provider model ID. Unknown
// names are passed through as direct model IDs.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
