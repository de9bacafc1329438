package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/amly-app/daily-digest-api/internal/models"
)

// PreferenceRepository persists per-teacher email preferences.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs the repository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// GetByTeacher returns stored preferences, or sql.ErrNoRows when the teacher
// has never saved any.
func (r *PreferenceRepository) GetByTeacher(ctx context.Context, teacherID string) (*models.EmailPreferences, error) {
	const query = `SELECT teacher_id, parent, student, created_at, updated_at FROM email_preferences WHERE teacher_id = $1`
	var prefs models.EmailPreferences
	if err := r.db.GetContext(ctx, &prefs, query, teacherID); err != nil {
		return nil, err
	}
	return &prefs, nil
}

// Upsert creates or replaces the preference document.
func (r *PreferenceRepository) Upsert(ctx context.Context, prefs *models.EmailPreferences) error {
	now := time.Now().UTC()
	if prefs.CreatedAt.IsZero() {
		prefs.CreatedAt = now
	}
	prefs.UpdatedAt = now

	const query = `INSERT INTO email_preferences (teacher_id, parent, student, created_at, updated_at)
		VALUES (:teacher_id, :parent, :student, :created_at, :updated_at)
		ON CONFLICT (teacher_id) DO UPDATE
		SET parent = EXCLUDED.parent,
		    student = EXCLUDED.student,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, prefs); err != nil {
		return fmt.Errorf("upsert email preferences: %w", err)
	}
	return nil
}
