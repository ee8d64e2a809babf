package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type profileRepo struct {
	db *sqlx.DB
}

func (r *profileRepo) GetProfile(ctx context.Context, learnerID string) (*ProfileRecord, error) {
	var rec ProfileRecord
	err := r.db.GetContext(ctx, &rec,
		r.db.Rebind(`SELECT * FROM profiles WHERE learner_id = ?`), learnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", learnerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &rec, nil
}

func (r *profileRepo) SaveProfile(ctx context.Context, rec *ProfileRecord) error {
	if _, err := r.db.NamedExecContext(ctx, upsertQuery(ProfilesTable, "learner_id"), rec); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (r *profileRepo) ListProfiles(ctx context.Context) ([]ProfileRecord, error) {
	var recs []ProfileRecord
	if err := r.db.SelectContext(ctx, &recs, `SELECT * FROM profiles ORDER BY learner_id`); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return recs, nil
}
