package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type itemRepo struct {
	db *sqlx.DB
}

func (r *itemRepo) CreateItem(ctx context.Context, rec *ItemRecord) error {
	if _, err := r.db.NamedExecContext(ctx, insertQuery(ItemsTable), rec); err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (r *itemRepo) UpdateItem(ctx context.Context, rec *ItemRecord) error {
	res, err := r.db.NamedExecContext(ctx, `UPDATE items SET
		source_term = :source_term,
		normalized_term = :normalized_term,
		target_term = :target_term,
		context_sentence = :context_sentence,
		theme_id = :theme_id,
		difficulty = :difficulty,
		times_reviewed = :times_reviewed,
		times_correct = :times_correct,
		next_review_at = :next_review_at,
		updated_at = :updated_at
		WHERE id = :id AND learner_id = :learner_id`, rec)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return expectRow(res, "item "+rec.ID)
}

func (r *itemRepo) GetItem(ctx context.Context, learnerID, id string) (*ItemRecord, error) {
	var rec ItemRecord
	err := r.db.GetContext(ctx, &rec,
		r.db.Rebind(`SELECT * FROM items WHERE learner_id = ? AND id = ?`), learnerID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &rec, nil
}

func (r *itemRepo) FindItemByTerm(ctx context.Context, learnerID, normalizedTerm string) (*ItemRecord, error) {
	var rec ItemRecord
	err := r.db.GetContext(ctx, &rec,
		r.db.Rebind(`SELECT * FROM items WHERE learner_id = ? AND normalized_term = ?`), learnerID, normalizedTerm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %q: %w", normalizedTerm, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find item: %w", err)
	}
	return &rec, nil
}

func (r *itemRepo) ListItems(ctx context.Context, learnerID string) ([]ItemRecord, error) {
	var recs []ItemRecord
	err := r.db.SelectContext(ctx, &recs,
		r.db.Rebind(`SELECT * FROM items WHERE learner_id = ? ORDER BY created_at, id`), learnerID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return recs, nil
}

func (r *itemRepo) DeleteItem(ctx context.Context, learnerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind(`DELETE FROM items WHERE learner_id = ? AND id = ?`), learnerID, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return expectRow(res, "item "+id)
}

func (r *itemRepo) CountItems(ctx context.Context, learnerID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		r.db.Rebind(`SELECT COUNT(*) FROM items WHERE learner_id = ?`), learnerID)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// expectRow maps a zero-row write to ErrNotFound.
func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
