package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// eventRepo implements EventRepo. Each event type lives in its own
// table with an auto-increment ID.
type eventRepo struct {
	db *sqlx.DB
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	ev := LLMEvent{
		Timestamp:    time.Now().UTC(),
		Provider:     data.Provider,
		Model:        data.Model,
		Purpose:      data.Purpose,
		InputTokens:  data.InputTokens,
		OutputTokens: data.OutputTokens,
		LatencyMs:    data.LatencyMs,
		Success:      data.Success,
		ErrorMessage: data.ErrorMessage,
		RequestBody:  data.RequestBody,
		ResponseBody: data.ResponseBody,
	}
	if _, err := r.db.NamedExecContext(ctx, insertQuery(LlmRequestEventsTable), ev); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendMasteryEvent(ctx context.Context, data MasteryEventData) error {
	_, err := r.db.NamedExecContext(ctx, insertQuery(MasteryEventsTable), map[string]any{
		"timestamp":      time.Now().UTC(),
		"learner_id":     data.LearnerID,
		"topic":          data.Topic,
		"from_tier":      data.FromTier,
		"to_tier":        data.ToTier,
		"correct_uses":   data.CorrectUses,
		"incorrect_uses": data.IncorrectUses,
	})
	if err != nil {
		return fmt.Errorf("save mastery event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendLessonEvent(ctx context.Context, data LessonEventData) error {
	_, err := r.db.NamedExecContext(ctx, insertQuery(LessonEventsTable), map[string]any{
		"timestamp":   time.Now().UTC(),
		"learner_id":  data.LearnerID,
		"lesson_id":   data.LessonID,
		"from_status": data.FromStatus,
		"to_status":   data.ToStatus,
		"score":       data.Score,
	})
	if err != nil {
		return fmt.Errorf("save lesson event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	var (
		where []string
		args  []any
	)
	if !opts.From.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, opts.From.UTC())
	}
	if !opts.To.IsZero() {
		where = append(where, "timestamp <= ?")
		args = append(args, opts.To.UTC())
	}

	q := `SELECT * FROM llm_request_events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	var events []LLMEvent
	if err := r.db.SelectContext(ctx, &events, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	return events, nil
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error) {
	var ev LLMEvent
	err := r.db.GetContext(ctx, &ev, r.db.Rebind(`SELECT * FROM llm_request_events WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("LLM event %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event: %w", err)
	}
	return &ev, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	var usage []LLMUsage
	err := r.db.SelectContext(ctx, &usage, `SELECT
			purpose,
			COUNT(*) AS calls,
			COALESCE(SUM(input_tokens), 0) AS input_tokens,
			COALESCE(SUM(output_tokens), 0) AS output_tokens,
			CAST(COALESCE(AVG(latency_ms), 0) AS INTEGER) AS avg_latency_ms
		FROM llm_request_events
		GROUP BY purpose
		ORDER BY calls DESC, purpose`)
	if err != nil {
		return nil, fmt.Errorf("usage by purpose: %w", err)
	}
	return usage, nil
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	var usage []ModelUsage
	err := r.db.SelectContext(ctx, &usage, `SELECT
			model,
			COUNT(*) AS calls,
			COALESCE(SUM(input_tokens), 0) AS input_tokens,
			COALESCE(SUM(output_tokens), 0) AS output_tokens
		FROM llm_request_events
		WHERE success
		GROUP BY model
		ORDER BY calls DESC, model`)
	if err != nil {
		return nil, fmt.Errorf("usage by model: %w", err)
	}
	return usage, nil
}
