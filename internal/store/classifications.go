package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

// LoadAll returns the saved classification set for a file in save order.
func (s *DB) LoadAll(ctx context.Context, fileID string) ([]model.ClassificationEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, subcategory, allocation_id, label,
		amount, allocated_amount, status_category, updated_by, updated_at
		FROM classification_entries WHERE file_id = ? ORDER BY rowid`, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []model.ClassificationEntry
	for rows.Next() {
		e := model.ClassificationEntry{FileID: fileID}
		var amount, allocated, status, updatedAt string
		if err := rows.Scan(&e.Category, &e.SubCategory, &e.AllocationID, &e.Label,
			&amount, &allocated, &status, &e.UpdatedBy, &updatedAt); err != nil {
			return nil, err
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("entry %s/%s amount: %w", e.Category, e.SubCategory, err)
		}
		if e.Allocated, err = decimal.NewFromString(allocated); err != nil {
			return nil, fmt.Errorf("entry %s/%s allocated amount: %w", e.Category, e.SubCategory, err)
		}
		e.Status = model.StatusCategory(status)
		e.UpdatedAt = parseTime(updatedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Version returns the file's classification set version; 0 if never saved.
func (s *DB) Version(ctx context.Context, fileID string) (int64, error) {
	return version(ctx, s.db, fileID)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func version(ctx context.Context, q queryer, fileID string) (int64, error) {
	var v int64
	err := q.QueryRowContext(ctx, "SELECT version FROM classification_versions WHERE file_id = ?", fileID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return v, err
}

// ReplaceAll deletes the file's entries and inserts entries in a single
// transaction. Concurrent callers are last writer wins.
func (s *DB) ReplaceAll(ctx context.Context, fileID string, entries []model.ClassificationEntry, editor string) error {
	_, err := s.replace(ctx, fileID, entries, editor, -1)
	return err
}

// ReplaceAllIfVersion is ReplaceAll guarded by the stored version. It fails
// with model.ErrVersionConflict, writing nothing, if the version moved.
func (s *DB) ReplaceAllIfVersion(ctx context.Context, fileID string, entries []model.ClassificationEntry, editor string, expected int64) (int64, error) {
	return s.replace(ctx, fileID, entries, editor, expected)
}

func (s *DB) replace(ctx context.Context, fileID string, entries []model.ClassificationEntry, editor string, expected int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	current, err := version(ctx, tx, fileID)
	if err != nil {
		return 0, err
	}
	if expected >= 0 && current != expected {
		return 0, fmt.Errorf("%w: stored %d, expected %d", model.ErrVersionConflict, current, expected)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM classification_entries WHERE file_id = ?", fileID); err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO classification_entries
		(file_id, category, subcategory, allocation_id, label, amount, allocated_amount,
		 status_category, updated_by, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	now := s.timestamp()
	for _, e := range entries {
		updatedAt := now
		if !e.UpdatedAt.IsZero() {
			updatedAt = e.UpdatedAt.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx,
			fileID, e.Category, e.SubCategory, e.AllocationID, e.Label,
			e.Amount.String(), e.Allocated.String(), string(e.Status), editor, updatedAt,
		); err != nil {
			return 0, fmt.Errorf("inserting %s/%s: %w", e.Category, e.SubCategory, err)
		}
	}

	next := current + 1
	if _, err := tx.ExecContext(ctx, `INSERT INTO classification_versions (file_id, version) VALUES (?, ?)
		ON CONFLICT(file_id) DO UPDATE SET version = excluded.version`, fileID, next); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return next, nil
}

// DeleteAll removes every entry for a file.
func (s *DB) DeleteAll(ctx context.Context, fileID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM classification_entries WHERE file_id = ?", fileID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO classification_versions (file_id, version) VALUES (?, 1)
		ON CONFLICT(file_id) DO UPDATE SET version = version + 1`, fileID); err != nil {
		return err
	}
	return tx.Commit()
}
