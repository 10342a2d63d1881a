package disclosures

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chainkeeper/internal/common"
	"github.com/dmitrijs2005/chainkeeper/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, username, salt string) (*Watermark, error) {
	w := &Watermark{Username: username, Salt: salt}
	var accepted sql.NullInt64

	err := r.db.QueryRowContext(ctx, `
		SELECT disclosed_index, accepted_index, updated_at
		FROM disclosures WHERE username = ? AND salt = ?
	`, username, salt).Scan(&w.Disclosed, &accepted, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get watermark for %s: %w", username, err)
	}

	if accepted.Valid {
		w.Accepted = int(accepted.Int64)
	}
	return w, nil
}

func (r *SQLiteRepository) RecordDisclosed(ctx context.Context, username, salt string, index int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO disclosures (username, salt, disclosed_index) VALUES (?, ?, ?)
		ON CONFLICT(username, salt) DO UPDATE SET
			disclosed_index = MIN(disclosed_index, excluded.disclosed_index),
			updated_at = CURRENT_TIMESTAMP
	`, username, salt, index)
	if err != nil {
		return fmt.Errorf("failed to record disclosure for %s: %w", username, err)
	}
	return nil
}

func (r *SQLiteRepository) RecordAccepted(ctx context.Context, username, salt string, index int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO disclosures (username, salt, disclosed_index, accepted_index) VALUES (?, ?, ?, ?)
		ON CONFLICT(username, salt) DO UPDATE SET
			disclosed_index = MIN(disclosed_index, excluded.disclosed_index),
			accepted_index = MIN(COALESCE(accepted_index, excluded.accepted_index), excluded.accepted_index),
			updated_at = CURRENT_TIMESTAMP
	`, username, salt, index, index)
	if err != nil {
		return fmt.Errorf("failed to record acceptance for %s: %w", username, err)
	}
	return nil
}

func (r *SQLiteRepository) Forget(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM disclosures WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("failed to forget %s: %w", username, err)
	}
	return nil
}
