package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/sprachiz/internal/store"
)

// LoggingProvider is a decorator that records every LLM request as an event.
type LoggingProvider struct {
	inner     Provider
	eventRepo store.EventRepo
	log       logrus.FieldLogger
}

// WithLogging wraps a Provider with event logging.
func WithLogging(p Provider, repo store.EventRepo, log logrus.FieldLogger) Provider {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LoggingProvider{inner: p, eventRepo: repo, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:    l.inner.Name(),
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = string(resp.Content)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	fields := logrus.Fields{
		"provider":   data.Provider,
		"model":      data.Model,
		"purpose":    purpose,
		"latency_ms": data.LatencyMs,
		"tokens_in":  data.InputTokens,
		"tokens_out": data.OutputTokens,
	}
	if learner := LearnerFrom(ctx); learner != "" {
		fields["learner"] = learner
	}
	entry := l.log.WithFields(fields)
	if err != nil {
		entry.WithError(err).Warn("llm request failed")
	} else {
		entry.Debug("llm request")
	}

	// A failed event write never fails the request.
	if logErr := l.eventRepo.AppendLLMRequest(ctx, data); logErr != nil {
		l.log.WithError(logErr).Warn("failed to log LLM request event")
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

func (l *LoggingProvider) Name() string { return l.inner.Name() }

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
