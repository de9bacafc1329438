package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/amly-app/daily-digest-api/internal/models"
)

// ClassRecordRepository provides read access to the classroom records the
// daily update composer folds over. Every query is scoped to one teacher.
type ClassRecordRepository struct {
	db *sqlx.DB
}

// NewClassRecordRepository constructs the repository.
func NewClassRecordRepository(db *sqlx.DB) *ClassRecordRepository {
	return &ClassRecordRepository{db: db}
}

// ListAttendance returns all attendance rows for a teacher.
func (r *ClassRecordRepository) ListAttendance(ctx context.Context, teacherID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, teacher_id, student_id, date, status, note, created_at
		FROM attendance_records WHERE teacher_id = $1 ORDER BY date ASC`
	records := []models.AttendanceRecord{}
	if err := r.db.SelectContext(ctx, &records, query, teacherID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// ListGrades returns all grade rows for a teacher.
func (r *ClassRecordRepository) ListGrades(ctx context.Context, teacherID string) ([]models.GradeRecord, error) {
	const query = `SELECT id, teacher_id, student_id, assignment_id, score, points, date, created_at
		FROM grade_records WHERE teacher_id = $1 ORDER BY date ASC`
	records := []models.GradeRecord{}
	if err := r.db.SelectContext(ctx, &records, query, teacherID); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return records, nil
}

// ListAssignments returns all assignments for a teacher.
func (r *ClassRecordRepository) ListAssignments(ctx context.Context, teacherID string) ([]models.AssignmentRecord, error) {
	const query = `SELECT id, teacher_id, title, subject, due_date, points, created_at
		FROM assignment_records WHERE teacher_id = $1 ORDER BY due_date ASC`
	records := []models.AssignmentRecord{}
	if err := r.db.SelectContext(ctx, &records, query, teacherID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return records, nil
}

// ListBehavior returns all behavior rows for a teacher.
func (r *ClassRecordRepository) ListBehavior(ctx context.Context, teacherID string) ([]models.BehaviorRecord, error) {
	const query = `SELECT id, teacher_id, student_id, date, category, note, created_at
		FROM behavior_records WHERE teacher_id = $1 ORDER BY date ASC`
	records := []models.BehaviorRecord{}
	if err := r.db.SelectContext(ctx, &records, query, teacherID); err != nil {
		return nil, fmt.Errorf("list behavior: %w", err)
	}
	return records, nil
}

// ListLessons returns all lesson rows for a teacher.
func (r *ClassRecordRepository) ListLessons(ctx context.Context, teacherID string) ([]models.LessonRecord, error) {
	const query = `SELECT id, teacher_id, date, subject, title, summary, created_at
		FROM lesson_records WHERE teacher_id = $1 ORDER BY date ASC`
	records := []models.LessonRecord{}
	if err := r.db.SelectContext(ctx, &records, query, teacherID); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return records, nil
}
