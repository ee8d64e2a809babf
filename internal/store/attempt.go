package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type attemptRepo struct {
	db *sqlx.DB
}

func (r *attemptRepo) GetAttempt(ctx context.Context, learnerID, lessonID string) (*AttemptRecord, error) {
	var rec AttemptRecord
	err := r.db.GetContext(ctx, &rec,
		r.db.Rebind(`SELECT * FROM lesson_attempts WHERE learner_id = ? AND lesson_id = ?`), learnerID, lessonID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attempt %s: %w", lessonID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return &rec, nil
}

func (r *attemptRepo) SaveAttempt(ctx context.Context, rec *AttemptRecord) error {
	q := upsertQuery(LessonAttemptsTable, "learner_id", "lesson_id")
	if _, err := r.db.NamedExecContext(ctx, q, rec); err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

func (r *attemptRepo) ListAttempts(ctx context.Context, learnerID string) ([]AttemptRecord, error) {
	var recs []AttemptRecord
	err := r.db.SelectContext(ctx, &recs,
		r.db.Rebind(`SELECT * FROM lesson_attempts WHERE learner_id = ? ORDER BY lesson_id`), learnerID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return recs, nil
}
