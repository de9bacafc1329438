package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/amly-app/daily-digest-api/internal/models"
)

// StudentRepository provides database access for roster students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by identifier, or sql.ErrNoRows when absent.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, teacher_id, first_name, last_name, class_name, guardian_email, active, created_at, updated_at
		FROM students WHERE id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByTeacher returns the active roster for one teacher.
func (r *StudentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Student, error) {
	const query = `SELECT id, teacher_id, first_name, last_name, class_name, guardian_email, active, created_at, updated_at
		FROM students WHERE teacher_id = $1 AND active = TRUE ORDER BY last_name ASC, first_name ASC`
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query, teacherID); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}
