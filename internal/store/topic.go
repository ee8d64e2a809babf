package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type topicRepo struct {
	db *sqlx.DB
}

func (r *topicRepo) GetTopic(ctx context.Context, learnerID, topic string) (*TopicRecord, error) {
	var rec TopicRecord
	err := r.db.GetContext(ctx, &rec,
		r.db.Rebind(`SELECT * FROM topic_masteries WHERE learner_id = ? AND topic = ?`), learnerID, topic)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("topic %q: %w", topic, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}
	return &rec, nil
}

func (r *topicRepo) SaveTopic(ctx context.Context, rec *TopicRecord) error {
	q := upsertQuery(TopicMasteriesTable, "learner_id", "topic")
	if _, err := r.db.NamedExecContext(ctx, q, rec); err != nil {
		return fmt.Errorf("save topic: %w", err)
	}
	return nil
}

func (r *topicRepo) ListTopics(ctx context.Context, learnerID string) ([]TopicRecord, error) {
	var recs []TopicRecord
	err := r.db.SelectContext(ctx, &recs,
		r.db.Rebind(`SELECT * FROM topic_masteries WHERE learner_id = ? ORDER BY created_at, topic`), learnerID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return recs, nil
}
