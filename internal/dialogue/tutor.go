package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/sprachiz/internal/llm"
	"github.com/abhisek/sprachiz/internal/logging"
)

// TutorConfig holds reply generation settings.
type TutorConfig struct {
	MaxTokens int

	// Temperature per mode; challenge replies are more spontaneous.
	Temperature          float64
	ChallengeTemperature float64
}

// DefaultTutorConfig returns sensible defaults.
func DefaultTutorConfig() TutorConfig {
	return TutorConfig{
		MaxTokens:            1024,
		Temperature:          0.7,
		ChallengeTemperature: 0.8,
	}
}

// Tutor generates tutor replies with an LLM.
type Tutor struct {
	provider llm.Provider
	cfg      TutorConfig
	log      logrus.FieldLogger
}

// NewTutor creates a tutor.
func NewTutor(provider llm.Provider, cfg TutorConfig, log logrus.FieldLogger) *Tutor {
	if log == nil {
		log = logging.Discard()
	}
	return &Tutor{provider: provider, cfg: cfg, log: log}
}

type replyOutput struct {
	Response              string       `json:"response"`
	Feedback              string       `json:"feedback"`
	Corrections           []Correction `json:"corrections"`
	HasErrors             bool         `json:"has_errors"`
	PositiveReinforcement string       `json:"positive_reinforcement"`
	Tips                  []Tip        `json:"tips"`
	Quality               int          `json:"quality"`
	GrammarTopics         []string     `json:"grammar_topics"`
}

// Respond answers one learner utterance.
func (t *Tutor) Respond(ctx context.Context, req Request) (*Reply, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ctx = llm.WithPurpose(ctx, llm.DialoguePurpose(string(req.Mode)))

	system, err := SystemPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("build dialogue prompt: %w", err)
	}

	temp := t.cfg.Temperature
	if req.Mode == ModeChallenge {
		temp = t.cfg.ChallengeTemperature
	}

	resp, err := t.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    buildMessages(req),
		Schema:      schemaFor(req.Mode),
		MaxTokens:   t.cfg.MaxTokens,
		Temperature: temp,
	})
	if err != nil {
		return nil, fmt.Errorf("dialogue reply: %w", err)
	}

	var out replyOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse dialogue reply: %w", &llm.ErrInvalidResponse{Content: resp.Content, Err: err})
	}

	reply := &Reply{
		Text:        out.Response,
		Corrections: out.Corrections,
		HasErrors:   out.HasErrors || len(out.Corrections) > 0,
		Praise:      out.PositiveReinforcement,
		Tips:        out.Tips,
		Topics:      normalizeTopics(out.GrammarTopics),
		Feedback:    out.Feedback,
		Quality:     min(max(out.Quality, 0), 10),
	}
	t.log.WithFields(logrus.Fields{
		"mode":        req.Mode,
		"theme":       req.Theme.ID,
		"corrections": len(reply.Corrections),
	}).Debug("tutor replied")
	return reply, nil
}

func buildMessages(req Request) []llm.Message {
	msgs := make([]llm.Message, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := llm.RoleUser
		if turn.Speaker == SpeakerTutor {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: turn.Text})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: req.Utterance})
}

func normalizeTopics(topics []string) []string {
	topics = lo.FilterMap(topics, func(s string, _ int) (string, bool) {
		s = strings.ToLower(strings.TrimSpace(s))
		return s, s != ""
	})
	return lo.Uniq(topics)
}

// TopicJudgment is the outcome of one grammar topic in one utterance.
type TopicJudgment struct {
	Topic   string
	Correct bool
}

// Judgments derives per-topic outcomes from a reply: a topic is judged
// incorrect when a correction names it, correct otherwise. Topics only
// named by corrections are included.
func (r *Reply) Judgments() []TopicJudgment {
	wrong := normalizeTopics(lo.FilterMap(r.Corrections, func(c Correction, _ int) (string, bool) {
		return c.Topic, c.Topic != ""
	}))
	all := lo.Uniq(append(append([]string(nil), r.Topics...), wrong...))
	return lo.Map(all, func(topic string, _ int) TopicJudgment {
		return TopicJudgment{Topic: topic, Correct: !lo.Contains(wrong, topic)}
	})
}
