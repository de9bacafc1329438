package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/amly-app/daily-digest-api/internal/models"
)

// TeacherRepository provides database access for teacher records.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByID returns a teacher by identifier, or sql.ErrNoRows when absent.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, email, display_name, school_name, active, created_at, updated_at FROM teachers WHERE id = $1 LIMIT 1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// List returns teachers matching the filter along with the total count.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	conditions := []string{"1=1"}
	args := map[string]interface{}{}

	if filter.Search != "" {
		conditions = append(conditions, "(display_name ILIKE :search OR email ILIKE :search)")
		args["search"] = "%" + filter.Search + "%"
	}
	if filter.Active != nil {
		conditions = append(conditions, "active = :active")
		args["active"] = *filter.Active
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM teachers WHERE %s`, where)
	namedCount, countArgs, err := sqlx.Named(countQuery, args)
	if err != nil {
		return nil, 0, fmt.Errorf("build teacher count query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(namedCount), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	args["limit"] = pageSize
	args["offset"] = (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT id, email, display_name, school_name, active, created_at, updated_at
		FROM teachers WHERE %s ORDER BY display_name ASC LIMIT :limit OFFSET :offset`, where)
	namedList, listArgs, err := sqlx.Named(listQuery, args)
	if err != nil {
		return nil, 0, fmt.Errorf("build teacher list query: %w", err)
	}
	teachers := []models.Teacher{}
	if err := r.db.SelectContext(ctx, &teachers, r.db.Rebind(namedList), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, total, nil
}
