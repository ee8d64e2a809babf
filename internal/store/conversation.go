package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type conversationRepo struct {
	db *sqlx.DB
}

func (r *conversationRepo) AppendConversation(ctx context.Context, rec *ConversationRecord) error {
	if _, err := r.db.NamedExecContext(ctx, insertQuery(ConversationsTable), rec); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (r *conversationRepo) RecentConversations(ctx context.Context, learnerID string, limit int) ([]ConversationRecord, error) {
	var recs []ConversationRecord
	err := r.db.SelectContext(ctx, &recs,
		r.db.Rebind(`SELECT * FROM conversations WHERE learner_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`),
		learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent conversations: %w", err)
	}
	return recs, nil
}

func (r *conversationRepo) ThemeStats(ctx context.Context, learnerID string) ([]ThemeStats, error) {
	var stats []ThemeStats
	err := r.db.SelectContext(ctx, &stats, r.db.Rebind(`SELECT
			theme_id,
			COUNT(*) AS conversations,
			COALESCE(SUM(messages), 0) AS total_messages,
			COALESCE(SUM(correct_messages), 0) AS correct_messages,
			COALESCE(SUM(duration_seconds), 0) AS total_seconds
		FROM conversations
		WHERE learner_id = ?
		GROUP BY theme_id
		ORDER BY theme_id`), learnerID)
	if err != nil {
		return nil, fmt.Errorf("theme stats: %w", err)
	}
	return stats, nil
}

func (r *conversationRepo) RecordConversation(ctx context.Context, rec *ConversationRecord, window int, apply func([]ConversationRecord) (*ProfileRecord, error)) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertQuery(ConversationsTable), rec); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}

	var recent []ConversationRecord
	err = tx.SelectContext(ctx, &recent,
		tx.Rebind(`SELECT * FROM conversations WHERE learner_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`),
		rec.LearnerID, window)
	if err != nil {
		return fmt.Errorf("recent conversations: %w", err)
	}

	profile, err := apply(recent)
	if err != nil {
		return err
	}
	if _, err := tx.NamedExecContext(ctx, upsertQuery(ProfilesTable, "learner_id"), profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit conversation: %w", err)
	}
	return nil
}
