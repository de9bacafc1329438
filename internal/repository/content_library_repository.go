package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/amly-app/daily-digest-api/internal/models"
)

// ContentLibraryRepository persists per-teacher content libraries as a single
// JSONB sections document per row.
type ContentLibraryRepository struct {
	db *sqlx.DB
}

// NewContentLibraryRepository constructs the repository.
func NewContentLibraryRepository(db *sqlx.DB) *ContentLibraryRepository {
	return &ContentLibraryRepository{db: db}
}

// GetByTeacher returns the stored library for a teacher, or sql.ErrNoRows
// when the teacher has never saved one.
func (r *ContentLibraryRepository) GetByTeacher(ctx context.Context, teacherID string) (*models.ContentLibrary, error) {
	const query = `SELECT teacher_id, sections, version, created_at, updated_at FROM content_libraries WHERE teacher_id = $1`
	var library models.ContentLibrary
	if err := r.db.GetContext(ctx, &library, query, teacherID); err != nil {
		return nil, err
	}
	return &library, nil
}

// Create inserts a fresh library document for a teacher.
func (r *ContentLibraryRepository) Create(ctx context.Context, library *models.ContentLibrary) error {
	now := time.Now().UTC()
	if library.CreatedAt.IsZero() {
		library.CreatedAt = now
	}
	library.UpdatedAt = now

	const query = `INSERT INTO content_libraries (teacher_id, sections, version, created_at, updated_at)
		VALUES (:teacher_id, :sections, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, library); err != nil {
		return fmt.Errorf("create content library: %w", err)
	}
	return nil
}

// ReplaceSection overwrites a single content type sequence with jsonb_set so
// concurrent writers editing other types do not clobber each other. Returns
// the new document version, or sql.ErrNoRows when no library row exists.
func (r *ContentLibraryRepository) ReplaceSection(ctx context.Context, teacherID string, contentType models.ContentType, fragments []models.Fragment) (int, error) {
	if fragments == nil {
		fragments = []models.Fragment{}
	}
	encoded, err := json.Marshal(fragments)
	if err != nil {
		return 0, fmt.Errorf("encode fragments: %w", err)
	}

	const query = `UPDATE content_libraries
		SET sections = jsonb_set(sections, ARRAY[$2], $3::jsonb, true),
		    version = version + 1,
		    updated_at = $4
		WHERE teacher_id = $1
		RETURNING version`
	var version int
	err = r.db.QueryRowContext(ctx, query, teacherID, string(contentType), encoded, time.Now().UTC()).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// ReplaceSections overwrites several content type sequences in one
// transaction, bumping the document version once. Used when an accepted
// sharing request lands multiple types atomically.
func (r *ContentLibraryRepository) ReplaceSections(ctx context.Context, teacherID string, sections models.SectionMap) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin sections update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const sectionQuery = `UPDATE content_libraries
		SET sections = jsonb_set(sections, ARRAY[$2], $3::jsonb, true)
		WHERE teacher_id = $1`
	for contentType, fragments := range sections {
		if fragments == nil {
			fragments = []models.Fragment{}
		}
		encoded, err := json.Marshal(fragments)
		if err != nil {
			return 0, fmt.Errorf("encode fragments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, sectionQuery, teacherID, string(contentType), encoded); err != nil {
			return 0, fmt.Errorf("update section %s: %w", contentType, err)
		}
	}

	const versionQuery = `UPDATE content_libraries
		SET version = version + 1, updated_at = $2
		WHERE teacher_id = $1
		RETURNING version`
	var version int
	if err := tx.QueryRowContext(ctx, versionQuery, teacherID, time.Now().UTC()).Scan(&version); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sections update: %w", err)
	}
	return version, nil
}

// Exists reports whether a teacher already has a library row.
func (r *ContentLibraryRepository) Exists(ctx context.Context, teacherID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM content_libraries WHERE teacher_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, teacherID); err != nil {
		return false, fmt.Errorf("check content library: %w", err)
	}
	return exists, nil
}

// IsNoRows reports whether the error marks a missing row.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
