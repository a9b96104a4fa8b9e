// Package dashboard runs one reconciliation pass for the active budget and
// exposes the views the CLI and HTTP API render.
package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetrecon/internal/blob"
	"github.com/theirongolddev/budgetrecon/internal/classify"
	"github.com/theirongolddev/budgetrecon/internal/model"
	"github.com/theirongolddev/budgetrecon/internal/pipeline"
	"github.com/theirongolddev/budgetrecon/internal/source"
)

// Files is the uploaded-file registry.
type Files interface {
	AddFile(ctx context.Context, f model.UploadedFile) error
	ListFiles(ctx context.Context) ([]model.UploadedFile, error)
	GetFile(ctx context.Context, id string) (model.UploadedFile, error)
	DeleteFile(ctx context.Context, id, user string) (model.UploadedFile, error)
	SetActiveBudget(ctx context.Context, id string) error
	ActiveBudget(ctx context.Context) (model.UploadedFile, error)
	ClearActiveBudget(ctx context.Context) error
}

// Service wires the budget workbook, ledger spend and classification state
// together for the active budget file.
type Service struct {
	Files    Files
	Blob     blob.Store
	Loader   *pipeline.Loader
	Classify *classify.Manager
	Org      string
	Log      zerolog.Logger
	Now      func() time.Time
}

// View is the loaded state every dashboard operation starts from.
type View struct {
	File  model.UploadedFile
	Lines []model.BudgetLine
	Spend *pipeline.SpendResult
}

// Report is the reconciliation table with its grand totals.
type Report struct {
	File     model.UploadedFile        `json:"file"`
	Rows     []model.ReconciliationRow `json:"rows"`
	Budgeted decimal.Decimal           `json:"budgeted"`
	Spent    decimal.Decimal           `json:"spent"`
	Variance decimal.Decimal           `json:"variance"`
	Drops    model.DropReport          `json:"drops"`
}

// Classifications is the saved classification set for a file.
type Classifications struct {
	File    model.UploadedFile          `json:"file"`
	Version int64                       `json:"version"`
	Entries []model.ClassificationEntry `json:"entries"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func storeErr(err error) error {
	switch {
	case errors.Is(err, model.ErrNoActiveBudget),
		errors.Is(err, model.ErrFileNotFound),
		errors.Is(err, model.ErrNotUploader):
		return err
	}
	return model.Boundary("store", err)
}

// Active returns the active budget file.
func (s *Service) Active(ctx context.Context) (model.UploadedFile, error) {
	f, err := s.Files.ActiveBudget(ctx)
	if err != nil {
		return f, storeErr(err)
	}
	return f, nil
}

// Session resolves the active file into a session for user.
func (s *Service) Session(ctx context.Context, user string) (model.Session, model.UploadedFile, error) {
	f, err := s.Active(ctx)
	if err != nil {
		return model.Session{}, f, err
	}
	return model.Session{User: user, FileID: f.ID}, f, nil
}

// BudgetLines reads and reshapes the stored workbook for f.
func (s *Service) BudgetLines(ctx context.Context, f model.UploadedFile) ([]model.BudgetLine, error) {
	data, err := blob.ReadAll(ctx, s.Blob, f.BlobKey)
	if err != nil {
		return nil, model.Boundary("blob", err)
	}
	table, err := source.ReadWorkbook(bytes.NewReader(data), f.Name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	lines, err := pipeline.BudgetLines(table)
	if err != nil {
		return nil, fmt.Errorf("reshaping %s: %w", f.Name, err)
	}
	return lines, nil
}

// Load resolves the active file, its budget lines and the matching spend.
func (s *Service) Load(ctx context.Context) (*View, error) {
	f, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := s.BudgetLines(ctx, f)
	if err != nil {
		return nil, err
	}
	spend, err := s.Loader.Spend(ctx, pipeline.ExpenseFilter{
		Organization: s.Org,
		Year:         f.BudgetYear,
		Type:         f.Type,
	})
	if err != nil {
		return nil, err
	}
	s.Log.Debug().
		Str("file", f.ID).
		Int("lines", len(lines)).
		Int("transactions", len(spend.Transactions)).
		Str("cache_key", spend.CacheKey).
		Msg("dashboard loaded")
	return &View{File: f, Lines: lines, Spend: spend}, nil
}

// Report reconciles the active budget against ledger spend.
func (s *Service) Report(ctx context.Context) (*Report, error) {
	v, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	rows := pipeline.Reconcile(v.Lines, v.Spend.Lines)
	budgeted, spent, variance := pipeline.ReportTotals(rows)
	return &Report{
		File:     v.File,
		Rows:     rows,
		Budgeted: budgeted,
		Spent:    spent,
		Variance: variance,
		Drops:    v.Spend.Drops,
	}, nil
}

// Summary computes the dashboard tiles for the active budget.
func (s *Service) Summary(ctx context.Context, user string) (model.Summary, error) {
	v, err := s.Load(ctx)
	if err != nil {
		return model.Summary{}, err
	}
	ed, err := s.Classify.Load(ctx, model.Session{User: user, FileID: v.File.ID}, v.Lines)
	if err != nil {
		return model.Summary{}, err
	}
	spent := pipeline.TotalSpent(v.Spend.Transactions)
	oob := pipeline.OOBTotal(v.Lines, v.Spend.Lines)
	return classify.Summarize(v.Lines, ed.Entries(), spent, oob), nil
}

// Transactions returns the filtered, converted ledger rows, optionally
// narrowed to one budget line. Blank category and sub-category return all.
func (s *Service) Transactions(ctx context.Context, category, subCategory string) ([]model.ExpenseTransaction, model.DropReport, error) {
	v, err := s.Load(ctx)
	if err != nil {
		return nil, model.DropReport{}, err
	}
	txs := v.Spend.Transactions
	if strings.TrimSpace(category) != "" || strings.TrimSpace(subCategory) != "" {
		txs = pipeline.FilterByLine(txs, category, subCategory)
	}
	return txs, v.Spend.Drops, nil
}

// Budget returns the active budget in wide form.
func (s *Service) Budget(ctx context.Context) (model.UploadedFile, model.Table, error) {
	f, err := s.Active(ctx)
	if err != nil {
		return f, model.Table{}, err
	}
	lines, err := s.BudgetLines(ctx, f)
	if err != nil {
		return f, model.Table{}, err
	}
	return f, pipeline.WideTable(lines), nil
}

// Editor opens a classification editor on the active budget for user.
func (s *Service) Editor(ctx context.Context, user string) (*classify.Editor, model.Session, error) {
	ed, sess, _, err := s.editor(ctx, user)
	return ed, sess, err
}

func (s *Service) editor(ctx context.Context, user string) (*classify.Editor, model.Session, model.UploadedFile, error) {
	sess, f, err := s.Session(ctx, user)
	if err != nil {
		return nil, sess, f, err
	}
	lines, err := s.BudgetLines(ctx, f)
	if err != nil {
		return nil, sess, f, err
	}
	ed, err := s.Classify.Load(ctx, sess, lines)
	if err != nil {
		return nil, sess, f, err
	}
	return ed, sess, f, nil
}

// Classifications returns the saved set for the active budget.
func (s *Service) Classifications(ctx context.Context, user string) (*Classifications, error) {
	ed, _, f, err := s.editor(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Classifications{File: f, Version: ed.Version(), Entries: ed.Entries()}, nil
}

// SaveEditor persists an editor's pending set.
func (s *Service) SaveEditor(ctx context.Context, sess model.Session, ed *classify.Editor) (classify.SaveResult, error) {
	res, err := s.Classify.Save(ctx, sess, ed)
	if err != nil {
		return res, err
	}
	s.Log.Info().Str("file", sess.FileID).Str("user", sess.User).Int("saved", res.Saved).
		Int("rejected", len(res.Rejected)).Msg("classifications saved")
	return res, nil
}

// SaveClassifications replaces the active budget's set with entries.
// expected < 0 skips the version check.
func (s *Service) SaveClassifications(ctx context.Context, user string, entries []model.ClassificationEntry, expected int64) (classify.SaveResult, error) {
	sess, f, err := s.Session(ctx, user)
	if err != nil {
		return classify.SaveResult{}, err
	}
	lines, err := s.BudgetLines(ctx, f)
	if err != nil {
		return classify.SaveResult{}, err
	}
	res, err := s.Classify.SaveEntries(ctx, sess, lines, entries, expected)
	if err != nil {
		return res, err
	}
	s.Log.Info().Str("file", f.ID).Str("user", user).Int("saved", res.Saved).
		Int("rejected", len(res.Rejected)).Msg("classifications saved")
	return res, nil
}

// ClearClassifications deletes the active budget's saved set.
func (s *Service) ClearClassifications(ctx context.Context, user string) error {
	sess, _, err := s.Session(ctx, user)
	if err != nil {
		return err
	}
	return s.Classify.Clear(ctx, sess)
}

// Upload validates a budget workbook, stores it and records it. The
// workbook must reshape cleanly before anything is written.
func (s *Service) Upload(ctx context.Context, user, name string, typ model.BudgetType, year int, r io.Reader) (model.UploadedFile, error) {
	if strings.TrimSpace(user) == "" {
		return model.UploadedFile{}, model.Invalid(errors.New("uploader is required"), "upload %s", name)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return model.UploadedFile{}, fmt.Errorf("reading %s: %w", name, err)
	}
	table, err := source.ReadWorkbook(bytes.NewReader(data), name)
	if err != nil {
		return model.UploadedFile{}, fmt.Errorf("reading %s: %w", name, err)
	}
	if _, err := pipeline.BudgetLines(table); err != nil {
		return model.UploadedFile{}, fmt.Errorf("reshaping %s: %w", name, err)
	}

	id := uuid.NewString()
	f := model.UploadedFile{
		ID:         id,
		Name:       filepath.Base(name),
		Type:       typ,
		BudgetYear: year,
		Uploader:   user,
		UploadedAt: s.now(),
		BlobKey:    "budgets/" + id + strings.ToLower(filepath.Ext(name)),
	}
	if err := s.Blob.Put(ctx, f.BlobKey, bytes.NewReader(data)); err != nil {
		return f, model.Boundary("blob", err)
	}
	if err := s.Files.AddFile(ctx, f); err != nil {
		if derr := s.Blob.Delete(ctx, f.BlobKey); derr != nil {
			s.Log.Warn().Err(derr).Str("key", f.BlobKey).Msg("removing orphaned upload")
		}
		return f, model.Boundary("store", err)
	}
	s.Log.Info().Str("file", f.ID).Str("name", f.Name).Str("uploader", user).Msg("budget uploaded")
	return f, nil
}

// ListFiles returns every uploaded file, newest first.
func (s *Service) ListFiles(ctx context.Context) ([]model.UploadedFile, error) {
	files, err := s.Files.ListFiles(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return files, nil
}

// Activate makes id the active budget.
func (s *Service) Activate(ctx context.Context, id string) (model.UploadedFile, error) {
	if err := s.Files.SetActiveBudget(ctx, id); err != nil {
		return model.UploadedFile{}, storeErr(err)
	}
	return s.Active(ctx)
}

// Deactivate clears the active budget.
func (s *Service) Deactivate(ctx context.Context) error {
	if err := s.Files.ClearActiveBudget(ctx); err != nil {
		return storeErr(err)
	}
	return nil
}

// DeleteFile removes a file and its stored workbook. Only the uploader may
// delete it.
func (s *Service) DeleteFile(ctx context.Context, user, id string) (model.UploadedFile, error) {
	f, err := s.Files.DeleteFile(ctx, id, user)
	if err != nil {
		return f, storeErr(err)
	}
	if err := s.Blob.Delete(ctx, f.BlobKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
		s.Log.Warn().Err(err).Str("key", f.BlobKey).Msg("removing deleted workbook")
	}
	return f, nil
}
