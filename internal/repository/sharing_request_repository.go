package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/amly-app/daily-digest-api/internal/models"
)

// SharingRequestRepository persists content sharing requests.
type SharingRequestRepository struct {
	db *sqlx.DB
}

// NewSharingRequestRepository constructs the repository.
func NewSharingRequestRepository(db *sqlx.DB) *SharingRequestRepository {
	return &SharingRequestRepository{db: db}
}

// Create stores a new pending request.
func (r *SharingRequestRepository) Create(ctx context.Context, request *models.SharingRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO sharing_requests
		(id, source_teacher_id, source_teacher_name, target_teacher_id, content_types, strategy, status, created_at, expires_at)
		VALUES (:id, :source_teacher_id, :source_teacher_name, :target_teacher_id, :content_types, :strategy, :status, :created_at, :expires_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create sharing request: %w", err)
	}
	return nil
}

// GetByID fetches one request, or sql.ErrNoRows when absent.
func (r *SharingRequestRepository) GetByID(ctx context.Context, id string) (*models.SharingRequest, error) {
	const query = `SELECT id, source_teacher_id, source_teacher_name, target_teacher_id, content_types, strategy, status, created_at, expires_at, resolved_at
		FROM sharing_requests WHERE id = $1`
	var request models.SharingRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// ListPendingForTarget returns unexpired pending requests addressed to a
// teacher, soonest expiry first.
func (r *SharingRequestRepository) ListPendingForTarget(ctx context.Context, targetTeacherID string, now time.Time) ([]models.SharingRequest, error) {
	const query = `SELECT id, source_teacher_id, source_teacher_name, target_teacher_id, content_types, strategy, status, created_at, expires_at, resolved_at
		FROM sharing_requests
		WHERE target_teacher_id = $1 AND status = 'pending' AND expires_at > $2
		ORDER BY expires_at ASC`
	requests := []models.SharingRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, targetTeacherID, now.UTC()); err != nil {
		return nil, fmt.Errorf("list pending sharing requests: %w", err)
	}
	return requests, nil
}

// Resolve transitions a pending request to a terminal status. The status
// guard in the WHERE clause makes concurrent double resolution lose cleanly;
// the returned flag reports whether this caller won.
func (r *SharingRequestRepository) Resolve(ctx context.Context, id string, status models.SharingStatus, resolvedAt time.Time) (bool, error) {
	const query = `UPDATE sharing_requests
		SET status = $2, resolved_at = $3
		WHERE id = $1 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, id, status, resolvedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("resolve sharing request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("resolve sharing request: %w", err)
	}
	return affected == 1, nil
}
