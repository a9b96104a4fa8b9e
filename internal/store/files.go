package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

const fileColumns = "f.file_id, f.name, f.budget_type, f.budget_year, f.uploader, f.uploaded_at, f.blob_key"

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(sc scanner) (model.UploadedFile, error) {
	var f model.UploadedFile
	var typ, uploadedAt string
	if err := sc.Scan(&f.ID, &f.Name, &typ, &f.BudgetYear, &f.Uploader, &uploadedAt, &f.BlobKey); err != nil {
		return f, err
	}
	f.Type = model.BudgetType(typ)
	f.UploadedAt = parseTime(uploadedAt)
	return f, nil
}

// AddFile records an uploaded budget file.
func (s *DB) AddFile(ctx context.Context, f model.UploadedFile) error {
	uploadedAt := f.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO uploaded_files
		(file_id, name, budget_type, budget_year, uploader, uploaded_at, blob_key)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, string(f.Type), f.BudgetYear, f.Uploader,
		uploadedAt.UTC().Format(time.RFC3339), f.BlobKey)
	if err != nil {
		return fmt.Errorf("adding file %s: %w", f.ID, err)
	}
	return nil
}

// ListFiles returns every uploaded file, newest first.
func (s *DB) ListFiles(ctx context.Context) ([]model.UploadedFile, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+fileColumns+" FROM uploaded_files f ORDER BY f.uploaded_at DESC, f.rowid DESC")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var files []model.UploadedFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// GetFile returns one uploaded file or model.ErrFileNotFound.
func (s *DB) GetFile(ctx context.Context, id string) (model.UploadedFile, error) {
	f, err := scanFile(s.db.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM uploaded_files f WHERE f.file_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return f, fmt.Errorf("%w: %s", model.ErrFileNotFound, id)
	}
	return f, err
}

// DeleteFile removes a file with its classifications. Only the uploader may
// delete; anyone else gets model.ErrNotUploader. An active pointer to the
// file is cleared along with it.
func (s *DB) DeleteFile(ctx context.Context, id, user string) (model.UploadedFile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.UploadedFile{}, err
	}
	defer func() { _ = tx.Rollback() }()

	f, err := scanFile(tx.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM uploaded_files f WHERE f.file_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return f, fmt.Errorf("%w: %s", model.ErrFileNotFound, id)
	}
	if err != nil {
		return f, err
	}
	if f.Uploader != user {
		return f, fmt.Errorf("%w: %s was uploaded by %s", model.ErrNotUploader, f.Name, f.Uploader)
	}

	for _, q := range []string{
		"DELETE FROM classification_entries WHERE file_id = ?",
		"DELETE FROM classification_versions WHERE file_id = ?",
		"DELETE FROM active_budget WHERE file_id = ?",
		"DELETE FROM uploaded_files WHERE file_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return f, err
		}
	}
	return f, tx.Commit()
}

// SetActiveBudget points every session at the given file.
func (s *DB) SetActiveBudget(ctx context.Context, id string) error {
	if _, err := s.GetFile(ctx, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO active_budget (id, file_id, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET file_id = excluded.file_id, updated_at = excluded.updated_at`,
		id, s.timestamp())
	return err
}

// ActiveBudget returns the active file or model.ErrNoActiveBudget.
func (s *DB) ActiveBudget(ctx context.Context) (model.UploadedFile, error) {
	f, err := scanFile(s.db.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM active_budget a JOIN uploaded_files f ON f.file_id = a.file_id WHERE a.id = 1"))
	if errors.Is(err, sql.ErrNoRows) {
		return f, model.ErrNoActiveBudget
	}
	return f, err
}

// ClearActiveBudget unsets the active file.
func (s *DB) ClearActiveBudget(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM active_budget")
	return err
}
