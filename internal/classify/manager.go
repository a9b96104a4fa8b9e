package classify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

// Store persists classification sets. ReplaceAll must delete and reinsert
// the file's entries in one transaction.
type Store interface {
	LoadAll(ctx context.Context, fileID string) ([]model.ClassificationEntry, error)
	ReplaceAll(ctx context.Context, fileID string, entries []model.ClassificationEntry, editor string) error
	DeleteAll(ctx context.Context, fileID string) error
}

// VersionedStore adds compare-and-swap saves keyed on a per-file version.
type VersionedStore interface {
	Store
	Version(ctx context.Context, fileID string) (int64, error)
	ReplaceAllIfVersion(ctx context.Context, fileID string, entries []model.ClassificationEntry, editor string, expected int64) (int64, error)
}

// SaveResult reports the outcome of a save.
type SaveResult struct {
	Saved    int         `json:"saved"`
	Rejected []Rejection `json:"rejected,omitempty"`
	Version  int64       `json:"version,omitempty"`
}

// Manager loads and saves classification sets.
//
// Without CheckVersion, concurrent saves to one file are last writer wins.
// With it, a save whose editor was loaded from an older version is refused
// with model.ErrVersionConflict, provided the store is a VersionedStore.
type Manager struct {
	Store        Store
	CheckVersion bool
	Now          func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Load reads the saved set for the session's file and opens an editor on it.
func (m *Manager) Load(ctx context.Context, sess model.Session, lines []model.BudgetLine) (*Editor, error) {
	entries, err := m.Store.LoadAll(ctx, sess.FileID)
	if err != nil {
		return nil, model.Boundary("store", err)
	}
	var version int64
	if vs, ok := m.Store.(VersionedStore); ok {
		if version, err = vs.Version(ctx, sess.FileID); err != nil {
			return nil, model.Boundary("store", err)
		}
	}
	return NewEditor(sess.FileID, lines, entries, version), nil
}

// Save validates and persists the editor's pending set.
func (m *Manager) Save(ctx context.Context, sess model.Session, ed *Editor) (SaveResult, error) {
	expected := int64(-1)
	if m.CheckVersion {
		expected = ed.Version()
	}
	return m.SaveEntries(ctx, sess, ed.Lines(), ed.Entries(), expected)
}

// SaveEntries validates and persists a full set. expected < 0 skips the
// version check. Nothing is written when validation fails.
func (m *Manager) SaveEntries(ctx context.Context, sess model.Session, lines []model.BudgetLine, entries []model.ClassificationEntry, expected int64) (SaveResult, error) {
	valid, rejected, err := PrepareSave(sess.FileID, lines, entries, sess.User, m.now())
	res := SaveResult{Rejected: rejected}
	if err != nil {
		return res, err
	}

	vs, versioned := m.Store.(VersionedStore)
	switch {
	case expected >= 0 && versioned:
		v, err := vs.ReplaceAllIfVersion(ctx, sess.FileID, valid, sess.User, expected)
		if err != nil {
			if errors.Is(err, model.ErrVersionConflict) {
				return res, model.Invalid(model.ErrVersionConflict, "expected version %d", expected)
			}
			return res, model.Boundary("store", err)
		}
		res.Version = v
	default:
		if err := m.Store.ReplaceAll(ctx, sess.FileID, valid, sess.User); err != nil {
			return res, model.Boundary("store", err)
		}
		if versioned {
			if res.Version, err = vs.Version(ctx, sess.FileID); err != nil {
				return res, model.Boundary("store", err)
			}
		}
	}

	res.Saved = len(valid)
	return res, nil
}

// Clear deletes every saved entry for the session's file.
func (m *Manager) Clear(ctx context.Context, sess model.Session) error {
	if sess.FileID == "" {
		return fmt.Errorf("clear classifications: %w", model.ErrNoActiveBudget)
	}
	if err := m.Store.DeleteAll(ctx, sess.FileID); err != nil {
		return model.Boundary("store", err)
	}
	return nil
}
