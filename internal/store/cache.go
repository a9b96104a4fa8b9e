package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetSnapshot returns the cached payload for key.
func (s *DB) GetSnapshot(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM snapshots WHERE cache_key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// PutSnapshot stores or replaces the payload for key.
func (s *DB) PutSnapshot(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO snapshots (cache_key, payload, created_at) VALUES (?, ?, ?)",
		key, data, s.timestamp())
	return err
}

// PruneSnapshots deletes snapshots created before cutoff and returns how
// many were removed. Keys roll over daily, so older rows are never read again.
func (s *DB) PruneSnapshots(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE created_at < ?",
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
